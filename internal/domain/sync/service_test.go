package sync

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"syncmesh/internal/domain/document"
	"syncmesh/internal/domain/payload"
)

type serviceFixture struct {
	service *Service
	store   *memStore
	logs    *memLogs
}

func newServiceFixture(t *testing.T, policies ...*Policy) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		store: newMemStore(),
		logs:  newMemLogs(),
	}
	pols := newStubPolicies(policies...)
	settings := &stubSettings{settings: Settings{Enabled: true, SiteID: "site-local"}}
	f.service = NewService(f.store, f.logs, settings,
		NewApplier(pols, slog.Default()),
		NewDependencyResolver(f.store, pols, slog.Default()),
		slog.Default())
	return f
}

func receiveRequest(t *testing.T, p *payload.ChangePayload, event payload.Event) ReceiveRequest {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	return ReceiveRequest{
		DocData:           data,
		Event:             event,
		OriginSiteID:      "site-remote",
		ModifiedTimestamp: p.ModifiedAt,
	}
}

func (f *serviceFixture) singleLog(t *testing.T) *Log {
	t.Helper()
	logs := f.logs.all()
	require.Len(t, logs, 1)
	return logs[0]
}

func TestService_ReceiveAppliesAndAudits(t *testing.T) {
	f := newServiceFixture(t)

	p := testPayload("Note", "NOTE-1", "2025-01-15 10:30:00.000000")
	err := f.service.Receive(context.Background(), receiveRequest(t, p, payload.EventInsert))
	require.NoError(t, err)

	exists, _ := f.store.Exists(context.Background(), "Note", "NOTE-1")
	assert.True(t, exists)

	l := f.singleLog(t)
	assert.Equal(t, StatusSuccess, l.Status)
	assert.Equal(t, DirectionIncoming, l.Direction)
	assert.Equal(t, "Note", l.Doctype)
	assert.Equal(t, "NOTE-1", l.DocumentName)
	assert.Equal(t, "site-remote", l.OriginSiteID)
	assert.Empty(t, l.Error)
}

func TestService_ReceiveRecordsSkippedOutcome(t *testing.T) {
	f := newServiceFixture(t)
	storedDoc(f.store, "Note", "NOTE-1", "2025-01-15 11:00:00.000000", document.StatusDraft)

	p := testPayload("Note", "NOTE-1", "2025-01-15 10:30:00.000000")
	err := f.service.Receive(context.Background(), receiveRequest(t, p, payload.EventUpdate))
	require.NoError(t, err)

	assert.Equal(t, StatusSkipped, f.singleLog(t).Status)
}

func TestService_ReceiveAuditsMalformedPayload(t *testing.T) {
	f := newServiceFixture(t)

	err := f.service.Receive(context.Background(), ReceiveRequest{
		DocData:      json.RawMessage(`{not json`),
		Event:        payload.EventInsert,
		OriginSiteID: "site-remote",
	})
	require.ErrorIs(t, err, ErrInvalidPayload)

	l := f.singleLog(t)
	assert.Equal(t, StatusFailed, l.Status)
	assert.NotEmpty(t, l.Error)
}

func TestService_ReceiveAuditsUnknownEvent(t *testing.T) {
	f := newServiceFixture(t)

	p := testPayload("Note", "NOTE-1", "2025-01-15 10:30:00.000000")
	err := f.service.Receive(context.Background(), receiveRequest(t, p, payload.Event("Rename")))
	require.ErrorIs(t, err, ErrUnknownEvent)

	l := f.singleLog(t)
	assert.Equal(t, StatusFailed, l.Status)
}

func TestService_ReceiveRecordsApplyFailure(t *testing.T) {
	f := newServiceFixture(t)

	p := testPayload("Note", "NOTE-1", "not a timestamp")
	err := f.service.Receive(context.Background(), receiveRequest(t, p, payload.EventInsert))
	require.ErrorIs(t, err, ErrInvalidPayload)

	l := f.singleLog(t)
	assert.Equal(t, StatusFailed, l.Status)
	assert.NotEmpty(t, l.Error)

	exists, _ := f.store.Exists(context.Background(), "Note", "NOTE-1")
	assert.False(t, exists)
}

func TestService_ReceiveEnvelopeTimestampWins(t *testing.T) {
	f := newServiceFixture(t)
	storedDoc(f.store, "Note", "NOTE-1", "2025-01-15 11:00:00.000000", document.StatusDraft)

	// The payload claims to be newer but the envelope timestamp is
	// authoritative and older, so the change loses the conflict.
	p := testPayload("Note", "NOTE-1", "2025-01-15 12:00:00.000000")
	req := receiveRequest(t, p, payload.EventUpdate)
	req.ModifiedTimestamp = "2025-01-15 10:00:00.000000"

	err := f.service.Receive(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, f.singleLog(t).Status)
}

func TestService_GetDocument(t *testing.T) {
	f := newServiceFixture(t)
	storedDoc(f.store, "Note", "NOTE-1", "2025-01-15 10:00:00.000000", document.StatusDraft)

	doc, err := f.service.GetDocument(context.Background(), "Note", "NOTE-1")
	require.NoError(t, err)
	assert.Equal(t, "NOTE-1", doc.Name)

	_, err = f.service.GetDocument(context.Background(), "Note", "NOTE-404")
	assert.ErrorIs(t, err, document.ErrNotFound)
}

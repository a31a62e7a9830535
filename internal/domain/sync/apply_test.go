package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"syncmesh/internal/domain/document"
	"syncmesh/internal/domain/payload"
)

func newFields(kv ...any) *document.FieldMap {
	m := document.NewFieldMap()
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(kv[i].(string), kv[i+1].(document.Value))
	}
	return m
}

func testPayload(doctype, name, modifiedAt string) *payload.ChangePayload {
	return &payload.ChangePayload{
		Doctype:    doctype,
		Name:       name,
		Fields:     newFields("title", document.String("hello")),
		ModifiedAt: modifiedAt,
	}
}

func storedDoc(store *memStore, doctype, name, modified string, status document.Docstatus) *document.Document {
	doc := document.New(doctype, name)
	doc.Docstatus = status
	doc.Modified, _ = time.Parse(document.TimestampLayout, modified)
	doc.Fields.Set("title", document.String("local"))
	store.put(doc)
	return doc
}

func newTestApplier(policies ...*Policy) *Applier {
	return NewApplier(newStubPolicies(policies...), slog.Default())
}

func TestApplier_InsertCreatesDocument(t *testing.T) {
	store := newMemStore()
	a := newTestApplier()

	p := testPayload("Note", "NOTE-1", "2025-01-15 10:30:00.000000")
	status, err := a.Apply(context.Background(), store, p, payload.EventInsert)

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)

	doc, err := store.Get(context.Background(), "Note", "NOTE-1")
	require.NoError(t, err)
	v, _ := doc.Fields.Get("title")
	assert.Equal(t, "hello", v.Str())
	assert.Equal(t, document.StatusDraft, doc.Docstatus)
	assert.Equal(t, "2025-01-15 10:30:00.000000", doc.ModifiedString())
}

func TestApplier_InsertWithTerminalDocstatus(t *testing.T) {
	store := newMemStore()
	a := newTestApplier()

	p := testPayload("Invoice", "INV-1", "2025-01-15 10:30:00.000000")
	p.Docstatus = document.StatusSubmitted
	status, err := a.Apply(context.Background(), store, p, payload.EventInsert)

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)

	doc, _ := store.Get(context.Background(), "Invoice", "INV-1")
	assert.Equal(t, document.StatusSubmitted, doc.Docstatus)
}

func TestApplier_InsertExistingRedirectsToUpdate(t *testing.T) {
	store := newMemStore()
	a := newTestApplier()
	storedDoc(store, "Note", "NOTE-1", "2025-01-15 10:00:00.000000", document.StatusDraft)

	p := testPayload("Note", "NOTE-1", "2025-01-15 10:30:00.000000")
	status, err := a.Apply(context.Background(), store, p, payload.EventInsert)

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)

	doc, _ := store.Get(context.Background(), "Note", "NOTE-1")
	v, _ := doc.Fields.Get("title")
	assert.Equal(t, "hello", v.Str())
}

func TestApplier_UpdateAbsentRedirectsToInsert(t *testing.T) {
	store := newMemStore()
	a := newTestApplier()

	p := testPayload("Note", "NOTE-9", "2025-01-15 10:30:00.000000")
	status, err := a.Apply(context.Background(), store, p, payload.EventUpdate)

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)

	exists, _ := store.Exists(context.Background(), "Note", "NOTE-9")
	assert.True(t, exists)
}

func TestApplier_UpdateOlderIncomingIsSkipped(t *testing.T) {
	store := newMemStore()
	a := newTestApplier()
	storedDoc(store, "Note", "NOTE-1", "2025-01-15 11:00:00.000000", document.StatusDraft)

	p := testPayload("Note", "NOTE-1", "2025-01-15 10:30:00.000000")
	status, err := a.Apply(context.Background(), store, p, payload.EventUpdate)

	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, status)

	doc, _ := store.Get(context.Background(), "Note", "NOTE-1")
	v, _ := doc.Fields.Get("title")
	assert.Equal(t, "local", v.Str(), "losing change must leave local state untouched")
}

func TestApplier_UpdateEqualTimestampApplies(t *testing.T) {
	store := newMemStore()
	a := newTestApplier()
	storedDoc(store, "Note", "NOTE-1", "2025-01-15 10:30:00.000000", document.StatusDraft)

	p := testPayload("Note", "NOTE-1", "2025-01-15 10:30:00.000000")
	status, err := a.Apply(context.Background(), store, p, payload.EventUpdate)

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status, "duplicate delivery must stay idempotent")
}

func TestApplier_UpdateSkipStrategy(t *testing.T) {
	store := newMemStore()
	a := newTestApplier(&Policy{
		Doctype:          "Note",
		SyncUpdate:       true,
		ConflictStrategy: StrategySkip,
	})
	storedDoc(store, "Note", "NOTE-1", "2024-01-01 00:00:00.000000", document.StatusDraft)

	p := testPayload("Note", "NOTE-1", "2025-01-15 10:30:00.000000")
	status, err := a.Apply(context.Background(), store, p, payload.EventUpdate)

	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, status)
}

func TestApplier_ChildReconciliation(t *testing.T) {
	store := newMemStore()
	a := newTestApplier()

	doc := storedDoc(store, "Invoice", "INV-1", "2025-01-15 10:00:00.000000", document.StatusDraft)
	doc.Children = map[string][]document.ChildRow{
		"items": {
			{Name: "r1", Idx: 1, Fields: newFields("qty", document.Number(1))},
			{Name: "r2", Idx: 2, Fields: newFields("qty", document.Number(2))},
			{Name: "r3", Idx: 3, Fields: newFields("qty", document.Number(3))},
		},
	}

	p := testPayload("Invoice", "INV-1", "2025-01-15 10:30:00.000000")
	p.Children = map[string][]payload.Row{
		"items": {
			{Name: "r1", Fields: newFields("qty", document.Number(10))},
			{Name: "r4", Fields: newFields("qty", document.Number(4))},
		},
	}

	status, err := a.Apply(context.Background(), store, p, payload.EventUpdate)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)

	rows, err := store.ChildRows(context.Background(), "Invoice", "INV-1", "items")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "r1", rows[0].Name)
	assert.Equal(t, 1, rows[0].Idx)
	qty, _ := rows[0].Fields.Get("qty")
	assert.Equal(t, float64(10), qty.Num(), "matching row identity must be updated in place")

	assert.Equal(t, "r4", rows[1].Name)
	assert.Equal(t, 2, rows[1].Idx)
}

func TestApplier_EmptyIncomingTableClearsRows(t *testing.T) {
	store := newMemStore()
	a := newTestApplier()

	doc := storedDoc(store, "Invoice", "INV-1", "2025-01-15 10:00:00.000000", document.StatusDraft)
	doc.Children = map[string][]document.ChildRow{
		"items": {{Name: "r1", Idx: 1, Fields: newFields("qty", document.Number(1))}},
	}

	p := testPayload("Invoice", "INV-1", "2025-01-15 10:30:00.000000")
	p.Children = map[string][]payload.Row{"items": {}}

	status, err := a.Apply(context.Background(), store, p, payload.EventUpdate)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)

	rows, _ := store.ChildRows(context.Background(), "Invoice", "INV-1", "items")
	assert.Empty(t, rows)
}

func TestApplier_SubmitDraft(t *testing.T) {
	store := newMemStore()
	a := newTestApplier()
	storedDoc(store, "Invoice", "INV-1", "2025-01-15 10:00:00.000000", document.StatusDraft)

	p := testPayload("Invoice", "INV-1", "2025-01-15 10:30:00.000000")
	p.Docstatus = document.StatusSubmitted
	status, err := a.Apply(context.Background(), store, p, payload.EventSubmit)

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)

	doc, _ := store.Get(context.Background(), "Invoice", "INV-1")
	assert.Equal(t, document.StatusSubmitted, doc.Docstatus)
	v, _ := doc.Fields.Get("title")
	assert.Equal(t, "hello", v.Str(), "scalar changes ride along with the submit")
}

func TestApplier_SubmitAbsentInsertsSubmitted(t *testing.T) {
	store := newMemStore()
	a := newTestApplier()

	p := testPayload("Invoice", "INV-2", "2025-01-15 10:30:00.000000")
	status, err := a.Apply(context.Background(), store, p, payload.EventSubmit)

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)

	doc, _ := store.Get(context.Background(), "Invoice", "INV-2")
	assert.Equal(t, document.StatusSubmitted, doc.Docstatus)
}

func TestApplier_SubmitSubmittedIsNoOp(t *testing.T) {
	store := newMemStore()
	a := newTestApplier()
	storedDoc(store, "Invoice", "INV-1", "2025-01-15 10:00:00.000000", document.StatusSubmitted)

	p := testPayload("Invoice", "INV-1", "2025-01-15 10:30:00.000000")
	status, err := a.Apply(context.Background(), store, p, payload.EventSubmit)

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)

	doc, _ := store.Get(context.Background(), "Invoice", "INV-1")
	v, _ := doc.Fields.Get("title")
	assert.Equal(t, "local", v.Str(), "a repeated submit must not rewrite fields")
}

func TestApplier_CancelSubmitted(t *testing.T) {
	store := newMemStore()
	a := newTestApplier()
	storedDoc(store, "Invoice", "INV-1", "2025-01-15 10:00:00.000000", document.StatusSubmitted)

	p := testPayload("Invoice", "INV-1", "2025-01-15 10:30:00.000000")
	status, err := a.Apply(context.Background(), store, p, payload.EventCancel)

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)

	doc, _ := store.Get(context.Background(), "Invoice", "INV-1")
	assert.Equal(t, document.StatusCancelled, doc.Docstatus)
}

func TestApplier_CancelAbsentIsSkipped(t *testing.T) {
	store := newMemStore()
	a := newTestApplier()

	p := testPayload("Invoice", "INV-404", "2025-01-15 10:30:00.000000")
	status, err := a.Apply(context.Background(), store, p, payload.EventCancel)

	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, status)
}

func TestApplier_CancelDraftIsNoOp(t *testing.T) {
	store := newMemStore()
	a := newTestApplier()
	storedDoc(store, "Invoice", "INV-1", "2025-01-15 10:00:00.000000", document.StatusDraft)

	p := testPayload("Invoice", "INV-1", "2025-01-15 10:30:00.000000")
	status, err := a.Apply(context.Background(), store, p, payload.EventCancel)

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)

	doc, _ := store.Get(context.Background(), "Invoice", "INV-1")
	assert.Equal(t, document.StatusDraft, doc.Docstatus)
}

func TestApplier_Delete(t *testing.T) {
	store := newMemStore()
	a := newTestApplier()
	storedDoc(store, "Note", "NOTE-1", "2025-01-15 10:00:00.000000", document.StatusDraft)

	p := testPayload("Note", "NOTE-1", "2025-01-15 10:30:00.000000")
	status, err := a.Apply(context.Background(), store, p, payload.EventDelete)

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)

	exists, _ := store.Exists(context.Background(), "Note", "NOTE-1")
	assert.False(t, exists)
}

func TestApplier_DeleteAbsentIsSkipped(t *testing.T) {
	store := newMemStore()
	a := newTestApplier()

	p := testPayload("Note", "NOTE-404", "2025-01-15 10:30:00.000000")
	status, err := a.Apply(context.Background(), store, p, payload.EventDelete)

	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, status)
}

func TestApplier_RejectsBadPayloads(t *testing.T) {
	store := newMemStore()
	a := newTestApplier()

	p := testPayload("", "", "2025-01-15 10:30:00.000000")
	_, err := a.Apply(context.Background(), store, p, payload.EventInsert)
	assert.ErrorIs(t, err, ErrInvalidPayload)

	p = testPayload("Note", "NOTE-1", "15/01/2025 10:30")
	_, err = a.Apply(context.Background(), store, p, payload.EventInsert)
	assert.ErrorIs(t, err, ErrInvalidPayload)

	p = testPayload("Note", "NOTE-1", "2025-01-15 10:30:00.000000")
	_, err = a.Apply(context.Background(), store, p, payload.Event("Rename"))
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

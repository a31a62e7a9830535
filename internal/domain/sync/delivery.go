package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"syncmesh/internal/domain/payload"
	"syncmesh/internal/domain/peer"
)

// PeerCaller posts a change to a remote instance's receive operation.
// Implemented by the peer transport client.
type PeerCaller interface {
	ReceiveSync(ctx context.Context, p *peer.Peer, req ReceiveRequest) error
}

// Delivery performs one peer call per outgoing change, records the
// outcome on a sync log, and keeps peer health current. Failed
// deliveries persist the full payload so the retry sweep can replay
// them without re-deriving anything.
type Delivery struct {
	logs   LogRepository
	peers  peer.Repository
	caller PeerCaller
	now    func() time.Time
	log    *slog.Logger
}

// NewDelivery creates a delivery manager.
func NewDelivery(logs LogRepository, peers peer.Repository, caller PeerCaller, log *slog.Logger) *Delivery {
	return &Delivery{
		logs:   logs,
		peers:  peers,
		caller: caller,
		now:    func() time.Time { return time.Now().UTC() },
		log:    log.With(slog.String("component", "delivery")),
	}
}

// Push sends one encoded change to one peer. On success the log is
// terminal Success and the peer is marked Active with a fresh last-sync
// time. On any failure (network, remote rejection) the log is Failed
// with retry_count zero and a backoff-scheduled next attempt, and the
// peer is marked Error. The triggering mutation has already committed,
// so failures are never surfaced to the foreground write path.
func (d *Delivery) Push(ctx context.Context, pr *peer.Peer, payloadJSON []byte, event payload.Event, originSiteID, modifiedTimestamp string) error {
	var ident struct {
		Doctype string `json:"doctype"`
		Name    string `json:"name"`
	}
	// Identity fields are best effort here; a payload the origin could
	// not even identify still gets an audit row.
	_ = json.Unmarshal(payloadJSON, &ident)

	l := &Log{
		ID:                uuid.New().String(),
		Doctype:           ident.Doctype,
		DocumentName:      ident.Name,
		Event:             string(event),
		Direction:         DirectionOutgoing,
		Status:            StatusQueued,
		Peer:              pr.Name,
		OriginSiteID:      originSiteID,
		ModifiedTimestamp: modifiedTimestamp,
		RequestPayload:    payloadJSON,
		CreatedAt:         d.now(),
	}
	if err := d.logs.Create(ctx, l); err != nil {
		return fmt.Errorf("create outgoing log: %w", err)
	}

	err := d.attempt(ctx, pr, payloadJSON, event, originSiteID, modifiedTimestamp)
	if err == nil {
		if serr := d.logs.SetStatus(ctx, l.ID, StatusSuccess); serr != nil {
			d.log.Error("failed to mark delivery success", "log", l.ID, "error", serr)
		}
		d.log.Info("change delivered",
			slog.String("peer", pr.Name),
			slog.String("doctype", ident.Doctype),
			slog.String("name", ident.Name),
			slog.String("event", string(event)),
		)
		return nil
	}

	if serr := d.logs.SetFailure(ctx, l.ID, err.Error(), 0, NextRetryAt(d.now(), 0)); serr != nil {
		d.log.Error("failed to mark delivery failure", "log", l.ID, "error", serr)
	}
	d.log.Warn("delivery failed, scheduled for retry",
		slog.String("peer", pr.Name),
		slog.String("doctype", ident.Doctype),
		slog.String("name", ident.Name),
		slog.String("error", err.Error()),
	)
	return err
}

// attempt performs one peer call and keeps peer health current. The
// retry sweep uses it directly so a replay records its outcome on the
// original log instead of opening a second audit trail.
func (d *Delivery) attempt(ctx context.Context, pr *peer.Peer, payloadJSON []byte, event payload.Event, originSiteID, modifiedTimestamp string) error {
	err := d.caller.ReceiveSync(ctx, pr, ReceiveRequest{
		DocData:           payloadJSON,
		Event:             event,
		OriginSiteID:      originSiteID,
		ModifiedTimestamp: modifiedTimestamp,
	})
	if err == nil {
		if serr := d.peers.SetStatus(ctx, pr.Name, peer.StatusActive); serr != nil {
			d.log.Warn("failed to mark peer active", "peer", pr.Name, "error", serr)
		}
		if serr := d.peers.SetLastSyncAt(ctx, pr.Name, d.now()); serr != nil {
			d.log.Warn("failed to record last sync time", "peer", pr.Name, "error", serr)
		}
		return nil
	}

	if serr := d.peers.SetStatus(ctx, pr.Name, peer.StatusError); serr != nil {
		d.log.Warn("failed to mark peer errored", "peer", pr.Name, "error", serr)
	}
	return fmt.Errorf("push to %s: %w", pr.Name, err)
}

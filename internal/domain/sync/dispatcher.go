package sync

import (
	"context"
	"encoding/json"
	"errors"

	"golang.org/x/exp/slog"

	"syncmesh/internal/domain/document"
	"syncmesh/internal/domain/payload"
	"syncmesh/internal/domain/peer"
)

// Enqueuer hands delivery jobs to the background worker pool. Enqueue
// must not block: one slow or failing peer must never stall dispatch to
// the others or the foreground write path.
type Enqueuer interface {
	Enqueue(job func(ctx context.Context)) error
}

// Pusher delivers one encoded change to one peer. Implemented by
// Delivery; narrowed to an interface so dispatch can be tested without
// a transport.
type Pusher interface {
	Push(ctx context.Context, pr *peer.Peer, payloadJSON []byte, event payload.Event, originSiteID, modifiedTimestamp string) error
}

// Dispatcher turns local mutations into per-peer delivery jobs. It is
// registered as a change hook on the document store's full write path.
type Dispatcher struct {
	codec    *payload.Codec
	peers    peer.Repository
	policies PolicyRepository
	settings SettingsRepository
	pusher   Pusher
	queue    Enqueuer
	log      *slog.Logger
}

// NewDispatcher creates an outbound dispatcher.
func NewDispatcher(codec *payload.Codec, peers peer.Repository, policies PolicyRepository, settings SettingsRepository, pusher Pusher, queue Enqueuer, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		codec:    codec,
		peers:    peers,
		policies: policies,
		settings: settings,
		pusher:   pusher,
		queue:    queue,
		log:      log.With(slog.String("component", "dispatcher")),
	}
}

// OnDocumentChange is the change hook. The guard sequence runs in a
// fixed order; the first guard that trips stops dispatch silently. The
// local write has already committed when this runs, so dispatch is fire
// and forget per peer.
func (d *Dispatcher) OnDocumentChange(ctx context.Context, doc *document.Document, mutation document.Mutation) {
	// A mutation made while applying a remote change is that change,
	// not a new one; re-broadcasting it would loop forever.
	if InApplyScope(ctx) {
		return
	}
	if IsExcludedDoctype(doc.Doctype) {
		return
	}

	settings, err := d.settings.Get(ctx)
	if err != nil {
		d.log.Error("settings unavailable, dispatch skipped", "error", err)
		return
	}
	if !settings.Enabled {
		return
	}

	event, ok := d.eventFor(ctx, doc.Doctype, mutation)
	if !ok {
		return
	}

	peers, err := d.peers.ListEnabled(ctx)
	if err != nil {
		d.log.Error("peer listing failed, dispatch skipped", "error", err)
		return
	}
	if len(peers) == 0 {
		return
	}

	p, err := d.codec.Encode(ctx, doc)
	if err != nil {
		d.log.Error("payload encoding failed",
			"doctype", doc.Doctype, "name", doc.Name, "error", err)
		return
	}
	body, err := json.Marshal(p)
	if err != nil {
		d.log.Error("payload marshal failed",
			"doctype", doc.Doctype, "name", doc.Name, "error", err)
		return
	}
	modifiedTimestamp := doc.ModifiedString()

	for _, pr := range peers {
		// In a forwarded topology the peer that originated a change is
		// registered here with our own site id; never send it back.
		if pr.RemoteSiteID == settings.SiteID {
			continue
		}

		pr := pr
		job := func(jobCtx context.Context) {
			// Push records its own outcome; the error is already
			// logged and scheduled for retry.
			_ = d.pusher.Push(jobCtx, pr, body, event, settings.SiteID, modifiedTimestamp)
		}
		if err := d.queue.Enqueue(job); err != nil {
			d.log.Error("delivery enqueue failed",
				"peer", pr.Name, "doctype", doc.Doctype, "name", doc.Name, "error", err)
		}
	}
}

// eventFor maps a local mutation to its outbound event if policy
// forwards it. Submit and cancel arrive as updates: they come from the
// same on-change hook. The payload carries the docstatus, which the
// receiver honors when the update has to insert the document; an
// update of a document it already holds keeps the local docstatus.
func (d *Dispatcher) eventFor(ctx context.Context, doctype string, mutation document.Mutation) (payload.Event, bool) {
	pol, err := d.policies.Get(ctx, doctype)
	if err != nil {
		if !errors.Is(err, ErrPolicyNotFound) {
			d.log.Error("policy lookup failed, dispatch skipped", "doctype", doctype, "error", err)
		}
		return "", false
	}

	switch mutation {
	case document.MutationInsert:
		if pol.SyncInsert {
			return payload.EventInsert, true
		}
	case document.MutationUpdate:
		if pol.SyncUpdate {
			return payload.EventUpdate, true
		}
	case document.MutationDelete:
		if pol.SyncDelete {
			return payload.EventDelete, true
		}
	}
	return "", false
}

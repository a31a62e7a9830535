package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"syncmesh/internal/domain/document"
	"syncmesh/internal/domain/payload"
)

// Applier applies incoming change payloads against storage. Every write
// goes through the store's direct path: the same engine must replicate
// records whose normal write path has irreversible side effects, and
// those must not be replayed on the receiving instance.
type Applier struct {
	policies PolicyRepository
	log      *slog.Logger
}

// NewApplier creates an apply engine.
func NewApplier(policies PolicyRepository, log *slog.Logger) *Applier {
	return &Applier{
		policies: policies,
		log:      log.With(slog.String("component", "apply_engine")),
	}
}

// Apply runs the state machine for one incoming event against the given
// store, which the caller binds to a single transaction. It returns the
// terminal log status (Success or Skipped); any error leaves the
// surrounding transaction to be rolled back by the caller.
func (a *Applier) Apply(ctx context.Context, store document.Store, p *payload.ChangePayload, event payload.Event) (Status, error) {
	if p.Doctype == "" || p.Name == "" {
		return StatusFailed, fmt.Errorf("%w: payload is missing doctype or name", ErrInvalidPayload)
	}

	switch event {
	case payload.EventInsert:
		return a.applyInsert(ctx, store, p)
	case payload.EventUpdate:
		return a.applyUpdate(ctx, store, p)
	case payload.EventSubmit:
		return a.applySubmit(ctx, store, p)
	case payload.EventCancel:
		return a.applyCancel(ctx, store, p)
	case payload.EventDelete:
		return a.applyDelete(ctx, store, p)
	default:
		return StatusFailed, fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
}

// applyInsert writes a new document preserving the origin's identity.
// An insert for an existing document is redirected to update, which
// keeps duplicate deliveries idempotent.
func (a *Applier) applyInsert(ctx context.Context, store document.Store, p *payload.ChangePayload) (Status, error) {
	exists, err := store.Exists(ctx, p.Doctype, p.Name)
	if err != nil {
		return StatusFailed, fmt.Errorf("existence check: %w", err)
	}
	if exists {
		return a.applyUpdate(ctx, store, p)
	}

	doc, err := documentFromPayload(p)
	if err != nil {
		return StatusFailed, err
	}
	// The row itself is inserted as draft; a terminal docstatus from the
	// origin is set by a secondary direct write so no workflow side
	// effects fire.
	doc.Docstatus = document.StatusDraft
	if err := store.InsertDirect(ctx, doc); err != nil {
		return StatusFailed, fmt.Errorf("insert %s %s: %w", p.Doctype, p.Name, err)
	}
	if p.Docstatus != document.StatusDraft {
		if err := store.SetDocstatusDirect(ctx, p.Doctype, p.Name, p.Docstatus); err != nil {
			return StatusFailed, fmt.Errorf("set docstatus on %s %s: %w", p.Doctype, p.Name, err)
		}
	}
	if err := a.reconcileChildren(ctx, store, p); err != nil {
		return StatusFailed, err
	}
	return StatusSuccess, nil
}

// applyUpdate overwrites scalar fields and reconciles child tables if
// conflict resolution decides the incoming change wins. An update for
// an absent document is redirected to insert.
func (a *Applier) applyUpdate(ctx context.Context, store document.Store, p *payload.ChangePayload) (Status, error) {
	exists, err := store.Exists(ctx, p.Doctype, p.Name)
	if err != nil {
		return StatusFailed, fmt.Errorf("existence check: %w", err)
	}
	if !exists {
		return a.applyInsert(ctx, store, p)
	}

	local, err := store.Get(ctx, p.Doctype, p.Name)
	if err != nil {
		return StatusFailed, fmt.Errorf("load local %s %s: %w", p.Doctype, p.Name, err)
	}

	if d := Decide(a.strategy(ctx, p.Doctype), p.ModifiedAt, local.ModifiedString()); d == DecisionSkip {
		a.log.Debug("incoming change skipped by conflict resolution",
			"doctype", p.Doctype, "name", p.Name,
			"incoming_modified", p.ModifiedAt, "local_modified", local.ModifiedString())
		return StatusSkipped, nil
	}

	doc, err := documentFromPayload(p)
	if err != nil {
		return StatusFailed, err
	}
	if err := store.UpdateDirect(ctx, doc); err != nil {
		return StatusFailed, fmt.Errorf("update %s %s: %w", p.Doctype, p.Name, err)
	}
	if err := a.reconcileChildren(ctx, store, p); err != nil {
		return StatusFailed, err
	}
	return StatusSuccess, nil
}

// applySubmit writes remaining scalar changes and sets docstatus to
// Submitted via a direct write, with no ledger-posting side effects.
// Already-submitted and cancelled documents are left untouched.
func (a *Applier) applySubmit(ctx context.Context, store document.Store, p *payload.ChangePayload) (Status, error) {
	exists, err := store.Exists(ctx, p.Doctype, p.Name)
	if err != nil {
		return StatusFailed, fmt.Errorf("existence check: %w", err)
	}
	if !exists {
		p.Docstatus = document.StatusSubmitted
		return a.applyInsert(ctx, store, p)
	}

	local, err := store.Get(ctx, p.Doctype, p.Name)
	if err != nil {
		return StatusFailed, fmt.Errorf("load local %s %s: %w", p.Doctype, p.Name, err)
	}
	if local.Docstatus != document.StatusDraft {
		// Submit of a submitted or cancelled document is a no-op, logged
		// Success rather than reapplied.
		return StatusSuccess, nil
	}

	doc, err := documentFromPayload(p)
	if err != nil {
		return StatusFailed, err
	}
	if err := store.UpdateDirect(ctx, doc); err != nil {
		return StatusFailed, fmt.Errorf("update %s %s: %w", p.Doctype, p.Name, err)
	}
	if err := a.reconcileChildren(ctx, store, p); err != nil {
		return StatusFailed, err
	}
	if err := store.SetDocstatusDirect(ctx, p.Doctype, p.Name, document.StatusSubmitted); err != nil {
		return StatusFailed, fmt.Errorf("submit %s %s: %w", p.Doctype, p.Name, err)
	}
	return StatusSuccess, nil
}

// applyCancel sets docstatus to Cancelled via a direct write, with no
// reversal-posting side effects. There is nothing to cancel for an
// absent document.
func (a *Applier) applyCancel(ctx context.Context, store document.Store, p *payload.ChangePayload) (Status, error) {
	exists, err := store.Exists(ctx, p.Doctype, p.Name)
	if err != nil {
		return StatusFailed, fmt.Errorf("existence check: %w", err)
	}
	if !exists {
		return StatusSkipped, nil
	}

	local, err := store.Get(ctx, p.Doctype, p.Name)
	if err != nil {
		return StatusFailed, fmt.Errorf("load local %s %s: %w", p.Doctype, p.Name, err)
	}
	if local.Docstatus != document.StatusSubmitted {
		return StatusSuccess, nil
	}

	if err := store.SetDocstatusDirect(ctx, p.Doctype, p.Name, document.StatusCancelled); err != nil {
		return StatusFailed, fmt.Errorf("cancel %s %s: %w", p.Doctype, p.Name, err)
	}
	return StatusSuccess, nil
}

// applyDelete hard-deletes the document, force-removing dependents.
func (a *Applier) applyDelete(ctx context.Context, store document.Store, p *payload.ChangePayload) (Status, error) {
	exists, err := store.Exists(ctx, p.Doctype, p.Name)
	if err != nil {
		return StatusFailed, fmt.Errorf("existence check: %w", err)
	}
	if !exists {
		return StatusSkipped, nil
	}
	if err := store.DeleteDirect(ctx, p.Doctype, p.Name); err != nil {
		return StatusFailed, fmt.Errorf("delete %s %s: %w", p.Doctype, p.Name, err)
	}
	return StatusSuccess, nil
}

// reconcileChildren makes each child table present in the payload match
// the incoming row set exactly: rows absent from incoming are deleted
// (removed-on-origin semantics, no tombstones), matching identities are
// updated in place, new rows are inserted, and positional order follows
// the incoming sequence. All writes are direct.
func (a *Applier) reconcileChildren(ctx context.Context, store document.Store, p *payload.ChangePayload) error {
	for fieldname, incoming := range p.Children {
		existing, err := store.ChildRows(ctx, p.Doctype, p.Name, fieldname)
		if err != nil {
			return fmt.Errorf("load child rows %s.%s: %w", p.Doctype, fieldname, err)
		}

		keep := make(map[string]struct{}, len(incoming))
		for _, row := range incoming {
			if row.Name != "" {
				keep[row.Name] = struct{}{}
			}
		}
		for _, row := range existing {
			if _, ok := keep[row.Name]; ok {
				continue
			}
			if err := store.DeleteChildDirect(ctx, p.Doctype, p.Name, fieldname, row.Name); err != nil {
				return fmt.Errorf("delete child row %s: %w", row.Name, err)
			}
		}

		for i, row := range incoming {
			name := row.Name
			if name == "" {
				name = uuid.New().String()
			}
			child := document.ChildRow{
				Name:   name,
				Idx:    i + 1,
				Fields: row.Fields,
			}
			if child.Fields == nil {
				child.Fields = document.NewFieldMap()
			}
			if err := store.UpsertChildDirect(ctx, p.Doctype, p.Name, fieldname, child); err != nil {
				return fmt.Errorf("upsert child row %s: %w", name, err)
			}
		}
	}
	return nil
}

func (a *Applier) strategy(ctx context.Context, doctype string) ConflictStrategy {
	p, err := a.policies.Get(ctx, doctype)
	if err != nil {
		if !errors.Is(err, ErrPolicyNotFound) {
			a.log.Warn("policy lookup failed, defaulting to last-write-wins",
				"doctype", doctype, "error", err)
		}
		return StrategyLastWriteWins
	}
	if p.ConflictStrategy == "" {
		return StrategyLastWriteWins
	}
	return p.ConflictStrategy
}

// documentFromPayload builds the storable document carrying the
// origin's identity and modification timestamp. Child rows are handled
// separately by reconciliation.
func documentFromPayload(p *payload.ChangePayload) (*document.Document, error) {
	modified, err := time.Parse(document.TimestampLayout, p.ModifiedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: bad modified_at %q", ErrInvalidPayload, p.ModifiedAt)
	}

	doc := document.New(p.Doctype, p.Name)
	doc.Docstatus = p.Docstatus
	doc.Modified = modified
	if p.Fields != nil {
		doc.Fields = p.Fields.Clone()
	}
	return doc, nil
}

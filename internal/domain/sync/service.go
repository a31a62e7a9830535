package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"syncmesh/internal/domain/document"
	"syncmesh/internal/domain/payload"
)

// Servicer is the receive-side engine contract exposed to the HTTP
// surface.
type Servicer interface {
	// Receive applies one incoming change synchronously and commits
	// before returning.
	Receive(ctx context.Context, req ReceiveRequest) error

	// GetDocument returns a full local snapshot for on-demand
	// dependency fetch by a remote instance.
	GetDocument(ctx context.Context, doctype, name string) (*document.Document, error)

	// Settings returns the engine settings, including this instance's
	// site id for the ping handshake.
	Settings(ctx context.Context) (*Settings, error)
}

// Service is the receive side of the engine: it resolves dependencies,
// runs the apply engine inside one transaction, and audits every
// attempt.
type Service struct {
	store    document.Store
	logs     LogRepository
	settings SettingsRepository
	applier  *Applier
	resolver *DependencyResolver
	log      *slog.Logger
}

// NewService creates the receive service.
func NewService(store document.Store, logs LogRepository, settings SettingsRepository, applier *Applier, resolver *DependencyResolver, log *slog.Logger) *Service {
	return &Service{
		store:    store,
		logs:     logs,
		settings: settings,
		applier:  applier,
		resolver: resolver,
		log:      log.With(slog.String("component", "sync_service")),
	}
}

// Receive applies one incoming change. The whole apply (scalar writes,
// docstatus transitions, child reconciliation) happens inside one
// transaction; the audit log is written outside it and committed
// regardless of the apply outcome, so failures are never silently
// dropped.
func (s *Service) Receive(ctx context.Context, req ReceiveRequest) error {
	ctx = WithApplyScope(ctx)

	var p payload.ChangePayload
	if err := json.Unmarshal(req.DocData, &p); err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		s.audit(ctx, &p, req, StatusFailed, err)
		return err
	}
	if !req.Event.Valid() {
		err := fmt.Errorf("%w: %q", ErrUnknownEvent, req.Event)
		s.audit(ctx, &p, req, StatusFailed, err)
		return err
	}
	if req.ModifiedTimestamp != "" {
		p.ModifiedAt = req.ModifiedTimestamp
	}

	l := s.newIncomingLog(&p, req)
	if err := s.logs.Create(ctx, l); err != nil {
		return fmt.Errorf("create sync log: %w", err)
	}

	// Cycle detection is scoped to this receive call only.
	inProgress := make(map[payload.Dependency]struct{})
	s.resolver.Resolve(ctx, p.Dependencies, req.OriginSiteID, inProgress)

	var status Status
	err := s.store.InTransaction(ctx, func(ctx context.Context, tx document.Store) error {
		var applyErr error
		status, applyErr = s.applier.Apply(ctx, tx, &p, req.Event)
		return applyErr
	})
	if err != nil {
		if ferr := s.logs.SetFailure(ctx, l.ID, err.Error(), 0, time.Time{}); ferr != nil {
			s.log.Error("failed to record apply failure", "log", l.ID, "error", ferr)
		}
		return fmt.Errorf("sync failed for %s %s: %w", p.Doctype, p.Name, err)
	}

	if err := s.logs.SetStatus(ctx, l.ID, status); err != nil {
		s.log.Error("failed to record apply outcome", "log", l.ID, "error", err)
	}
	s.log.Info("incoming change applied",
		slog.String("doctype", p.Doctype),
		slog.String("name", p.Name),
		slog.String("event", string(req.Event)),
		slog.String("origin", req.OriginSiteID),
		slog.String("status", string(status)),
	)
	return nil
}

// GetDocument returns a full local snapshot of one document.
func (s *Service) GetDocument(ctx context.Context, doctype, name string) (*document.Document, error) {
	doc, err := s.store.Get(ctx, doctype, name)
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", doctype, name, err)
	}
	return doc, nil
}

// Settings returns the engine settings.
func (s *Service) Settings(ctx context.Context) (*Settings, error) {
	return s.settings.Get(ctx)
}

func (s *Service) newIncomingLog(p *payload.ChangePayload, req ReceiveRequest) *Log {
	return &Log{
		ID:                uuid.New().String(),
		Doctype:           p.Doctype,
		DocumentName:      p.Name,
		Event:             string(req.Event),
		Direction:         DirectionIncoming,
		Status:            StatusQueued,
		OriginSiteID:      req.OriginSiteID,
		ModifiedTimestamp: req.ModifiedTimestamp,
		CreatedAt:         time.Now().UTC(),
	}
}

// audit records a receive attempt that failed before a Queued log
// existed (malformed payload, unknown event). Audit visibility is
// mandatory even on failure.
func (s *Service) audit(ctx context.Context, p *payload.ChangePayload, req ReceiveRequest, status Status, cause error) {
	l := s.newIncomingLog(p, req)
	l.Status = status
	l.Error = cause.Error()
	if err := s.logs.Create(ctx, l); err != nil {
		s.log.Error("failed to write audit log", "error", err)
	}
}

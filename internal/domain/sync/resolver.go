package sync

import (
	"context"
	"errors"

	"golang.org/x/exp/slog"

	"syncmesh/internal/domain/document"
	"syncmesh/internal/domain/payload"
)

// DependencyResolver ensures, best effort, that documents referenced by
// an incoming payload exist locally before it is applied.
//
// Missing dependencies are a soft condition: the resolver records a
// diagnostic and lets the apply proceed, leaving the retry of the
// referencing document on the origin side to eventually fill the gap.
// It deliberately does not fetch documents from the origin during a
// receive; see DESIGN.md for the recorded decision.
type DependencyResolver struct {
	store    document.Store
	policies PolicyRepository
	log      *slog.Logger
}

// NewDependencyResolver creates a resolver.
func NewDependencyResolver(store document.Store, policies PolicyRepository, log *slog.Logger) *DependencyResolver {
	return &DependencyResolver{
		store:    store,
		policies: policies,
		log:      log.With(slog.String("component", "dependency_resolver")),
	}
}

// Resolve walks the declared dependencies of one payload. inProgress is
// the call-scoped set that breaks dependency cycles: a pair already in
// it is skipped, so resolution never re-enters the same (doctype, name)
// within one receive and never blocks. The set is owned by the caller
// and must not outlive the receive call.
func (r *DependencyResolver) Resolve(ctx context.Context, deps []payload.Dependency, originSiteID string, inProgress map[payload.Dependency]struct{}) {
	for _, dep := range deps {
		if _, busy := inProgress[dep]; busy {
			continue
		}

		exists, err := r.store.Exists(ctx, dep.Doctype, dep.Name)
		if err != nil {
			r.log.Warn("dependency existence check failed",
				"doctype", dep.Doctype, "name", dep.Name, "error", err)
			continue
		}
		if exists {
			continue
		}

		if !r.configured(ctx, dep.Doctype) {
			r.log.Warn("missing dependency for doctype not configured for sync",
				"doctype", dep.Doctype, "name", dep.Name, "origin", originSiteID)
			continue
		}

		inProgress[dep] = struct{}{}
		r.log.Warn("missing dependency, expecting retry from origin to resolve it",
			"doctype", dep.Doctype, "name", dep.Name, "origin", originSiteID)
		delete(inProgress, dep)
	}
}

func (r *DependencyResolver) configured(ctx context.Context, doctype string) bool {
	p, err := r.policies.Get(ctx, doctype)
	if err != nil {
		if !errors.Is(err, ErrPolicyNotFound) {
			r.log.Warn("policy lookup failed", "doctype", doctype, "error", err)
		}
		return false
	}
	return p.SyncInsert || p.SyncUpdate || p.SyncDelete
}

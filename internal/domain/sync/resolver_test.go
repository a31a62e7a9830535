package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/slog"

	"syncmesh/internal/domain/document"
	"syncmesh/internal/domain/payload"
)

func TestResolver_SkipsExistingDependencies(t *testing.T) {
	store := newMemStore()
	storedDoc(store, "Customer", "CUST-001", "2025-01-15 10:00:00.000000", document.StatusDraft)
	r := NewDependencyResolver(store, newStubPolicies(), slog.Default())

	inProgress := make(map[payload.Dependency]struct{})
	r.Resolve(context.Background(), []payload.Dependency{
		{Doctype: "Customer", Name: "CUST-001"},
	}, "site-remote", inProgress)

	assert.Empty(t, inProgress, "resolution must leave the cycle set as it found it")
}

func TestResolver_TerminatesOnCyclicDependencies(t *testing.T) {
	store := newMemStore()
	pols := newStubPolicies(&Policy{Doctype: "Customer", SyncInsert: true})
	r := NewDependencyResolver(store, pols, slog.Default())

	// A pair already being resolved deeper in the same receive must be
	// skipped, not re-entered.
	dep := payload.Dependency{Doctype: "Customer", Name: "CUST-001"}
	inProgress := map[payload.Dependency]struct{}{dep: {}}

	r.Resolve(context.Background(), []payload.Dependency{dep, dep}, "site-remote", inProgress)

	_, still := inProgress[dep]
	assert.True(t, still)
}

func TestResolver_MissingDependencyIsSoft(t *testing.T) {
	store := newMemStore()
	pols := newStubPolicies(&Policy{Doctype: "Customer", SyncInsert: true})
	r := NewDependencyResolver(store, pols, slog.Default())

	inProgress := make(map[payload.Dependency]struct{})
	r.Resolve(context.Background(), []payload.Dependency{
		{Doctype: "Customer", Name: "CUST-404"},
		{Doctype: "Unconfigured", Name: "X-1"},
	}, "site-remote", inProgress)

	assert.Empty(t, inProgress)
}

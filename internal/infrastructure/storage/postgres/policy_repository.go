package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"syncmesh/internal/domain/sync"
)

// PolicyRepository reads per-doctype sync policy from the sync_policies
// table.
type PolicyRepository struct {
	db dbtx
}

// NewPolicyRepository creates a policy repository.
func NewPolicyRepository(storage *Storage) *PolicyRepository {
	return &PolicyRepository{db: storage.Pool()}
}

// Get returns the policy for one doctype.
func (r *PolicyRepository) Get(ctx context.Context, doctype string) (*sync.Policy, error) {
	var p sync.Policy
	err := r.db.QueryRow(ctx,
		`SELECT doctype, sync_insert, sync_update, sync_delete, conflict_strategy
		 FROM sync_policies WHERE doctype = $1`,
		doctype,
	).Scan(&p.Doctype, &p.SyncInsert, &p.SyncUpdate, &p.SyncDelete, &p.ConflictStrategy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sync.ErrPolicyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query sync policy: %w", err)
	}
	return &p, nil
}

// List returns every configured policy.
func (r *PolicyRepository) List(ctx context.Context) ([]*sync.Policy, error) {
	rows, err := r.db.Query(ctx,
		`SELECT doctype, sync_insert, sync_update, sync_delete, conflict_strategy
		 FROM sync_policies ORDER BY doctype`,
	)
	if err != nil {
		return nil, fmt.Errorf("query sync policies: %w", err)
	}
	defer rows.Close()

	var out []*sync.Policy
	for rows.Next() {
		var p sync.Policy
		if err := rows.Scan(&p.Doctype, &p.SyncInsert, &p.SyncUpdate, &p.SyncDelete, &p.ConflictStrategy); err != nil {
			return nil, fmt.Errorf("scan sync policy: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync policies: %w", err)
	}
	return out, nil
}

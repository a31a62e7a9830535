package document

import (
	"context"
)

// ChangeHook observes local mutations made through the full write path.
// Hooks run after the write is committed; they must not write back
// through the full path.
type ChangeHook func(ctx context.Context, doc *Document, mutation Mutation)

// Store is the document storage contract. It exposes two deliberately
// separate write paths:
//
// The full path (Save, Delete) runs validation hooks and notifies change
// hooks. It is used only for local user-driven mutations.
//
// The direct path (*Direct methods) writes fields without hooks or
// side effects. It is used exclusively by the replication apply engine,
// which must be able to replay records whose normal write path has
// irreversible side effects.
type Store interface {
	Exists(ctx context.Context, doctype, name string) (bool, error)
	Get(ctx context.Context, doctype, name string) (*Document, error)

	// Full path.
	Save(ctx context.Context, doc *Document) error
	Delete(ctx context.Context, doctype, name string) error

	// Direct path.
	InsertDirect(ctx context.Context, doc *Document) error
	UpdateDirect(ctx context.Context, doc *Document) error
	SetDocstatusDirect(ctx context.Context, doctype, name string, status Docstatus) error
	DeleteDirect(ctx context.Context, doctype, name string) error

	// Child rows, direct path only.
	ChildRows(ctx context.Context, doctype, name, fieldname string) ([]ChildRow, error)
	UpsertChildDirect(ctx context.Context, doctype, name, fieldname string, row ChildRow) error
	DeleteChildDirect(ctx context.Context, doctype, name, fieldname, rowName string) error

	// InTransaction runs fn against a store bound to a single
	// transaction, committing only if fn returns nil.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

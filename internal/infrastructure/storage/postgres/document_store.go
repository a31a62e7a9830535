package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"syncmesh/internal/domain/document"
)

// DocumentStore implements document.Store over the documents and
// child_rows tables. The root store runs against the pool; InTransaction
// hands fn a copy bound to a single pgx transaction.
type DocumentStore struct {
	db   dbtx
	pool *pgxpool.Pool
	log  *slog.Logger

	mu    sync.RWMutex
	hooks []document.ChangeHook
}

// NewDocumentStore creates the root document store.
func NewDocumentStore(storage *Storage, log *slog.Logger) *DocumentStore {
	return &DocumentStore{
		db:   storage.Pool(),
		pool: storage.Pool(),
		log:  log.With(slog.String("component", "document_store")),
	}
}

// RegisterChangeHook subscribes a hook to full-path writes.
func (s *DocumentStore) RegisterChangeHook(h document.ChangeHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, h)
}

func (s *DocumentStore) notify(ctx context.Context, doc *document.Document, mutation document.Mutation) {
	s.mu.RLock()
	hooks := make([]document.ChangeHook, len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.RUnlock()
	for _, h := range hooks {
		h(ctx, doc, mutation)
	}
}

// Exists reports whether a document with this identity is stored.
func (s *DocumentStore) Exists(ctx context.Context, doctype, name string) (bool, error) {
	var one int
	err := s.db.QueryRow(ctx,
		`SELECT 1 FROM documents WHERE doctype = $1 AND name = $2`,
		doctype, name,
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query document: %w", err)
	}
	return true, nil
}

// Get loads a document with all of its child tables.
func (s *DocumentStore) Get(ctx context.Context, doctype, name string) (*document.Document, error) {
	doc := document.New(doctype, name)
	var fieldsJSON []byte
	err := s.db.QueryRow(ctx,
		`SELECT docstatus, owner, creation, modified, modified_by, fields
		 FROM documents WHERE doctype = $1 AND name = $2`,
		doctype, name,
	).Scan(&doc.Docstatus, &doc.Owner, &doc.Creation, &doc.Modified, &doc.ModifiedBy, &fieldsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, document.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}
	if err := json.Unmarshal(fieldsJSON, doc.Fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT fieldname, name, idx, fields
		 FROM child_rows WHERE parent_doctype = $1 AND parent_name = $2
		 ORDER BY fieldname, idx`,
		doctype, name,
	)
	if err != nil {
		return nil, fmt.Errorf("query child rows: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			fieldname string
			row       document.ChildRow
			rowJSON   []byte
		)
		if err := rows.Scan(&fieldname, &row.Name, &row.Idx, &rowJSON); err != nil {
			return nil, fmt.Errorf("scan child row: %w", err)
		}
		row.Fields = document.NewFieldMap()
		if err := json.Unmarshal(rowJSON, row.Fields); err != nil {
			return nil, fmt.Errorf("decode child row: %w", err)
		}
		doc.Children[fieldname] = append(doc.Children[fieldname], row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate child rows: %w", err)
	}
	return doc, nil
}

// Save writes a document through the full path: it stamps audit fields,
// upserts the record with its child tables, and notifies change hooks.
func (s *DocumentStore) Save(ctx context.Context, doc *document.Document) error {
	exists, err := s.Exists(ctx, doc.Doctype, doc.Name)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if doc.Creation.IsZero() {
		doc.Creation = now
	}
	doc.Modified = now

	err = s.InTransaction(ctx, func(ctx context.Context, tx document.Store) error {
		if exists {
			if err := tx.UpdateDirect(ctx, doc); err != nil {
				return err
			}
			if err := tx.SetDocstatusDirect(ctx, doc.Doctype, doc.Name, doc.Docstatus); err != nil {
				return err
			}
		} else if err := tx.InsertDirect(ctx, doc); err != nil {
			return err
		}
		return replaceChildren(ctx, tx, doc)
	})
	if err != nil {
		return err
	}

	mutation := document.MutationInsert
	if exists {
		mutation = document.MutationUpdate
	}
	s.notify(ctx, doc, mutation)
	return nil
}

// Delete removes a document through the full path and notifies change
// hooks with the last stored state.
func (s *DocumentStore) Delete(ctx context.Context, doctype, name string) error {
	doc, err := s.Get(ctx, doctype, name)
	if err != nil {
		return err
	}
	if err := s.DeleteDirect(ctx, doctype, name); err != nil {
		return err
	}
	s.notify(ctx, doc, document.MutationDelete)
	return nil
}

func replaceChildren(ctx context.Context, tx document.Store, doc *document.Document) error {
	for fieldname, incoming := range doc.Children {
		existing, err := tx.ChildRows(ctx, doc.Doctype, doc.Name, fieldname)
		if err != nil {
			return err
		}
		keep := make(map[string]struct{}, len(incoming))
		for i := range incoming {
			if incoming[i].Name == "" {
				incoming[i].Name = uuid.NewString()
			}
			keep[incoming[i].Name] = struct{}{}
		}
		for _, row := range existing {
			if _, ok := keep[row.Name]; !ok {
				if err := tx.DeleteChildDirect(ctx, doc.Doctype, doc.Name, fieldname, row.Name); err != nil {
					return err
				}
			}
		}
		for i, row := range incoming {
			row.Idx = i + 1
			if err := tx.UpsertChildDirect(ctx, doc.Doctype, doc.Name, fieldname, row); err != nil {
				return err
			}
		}
	}
	return nil
}

// InsertDirect writes a new document row without hooks.
func (s *DocumentStore) InsertDirect(ctx context.Context, doc *document.Document) error {
	fieldsJSON, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	creation := doc.Creation
	if creation.IsZero() {
		creation = time.Now().UTC()
	}
	modified := doc.Modified
	if modified.IsZero() {
		modified = creation
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO documents (doctype, name, docstatus, owner, creation, modified, modified_by, fields)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		doc.Doctype, doc.Name, int(doc.Docstatus), doc.Owner, creation, modified, doc.ModifiedBy, fieldsJSON,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// UpdateDirect overwrites scalar fields and audit columns without hooks.
func (s *DocumentStore) UpdateDirect(ctx context.Context, doc *document.Document) error {
	fieldsJSON, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	modified := doc.Modified
	if modified.IsZero() {
		modified = time.Now().UTC()
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE documents SET fields = $3, modified = $4, modified_by = $5
		 WHERE doctype = $1 AND name = $2`,
		doc.Doctype, doc.Name, fieldsJSON, modified, doc.ModifiedBy,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return document.ErrNotFound
	}
	return nil
}

// SetDocstatusDirect writes the workflow status column directly, so
// replicated submits and cancels skip local transition side effects.
func (s *DocumentStore) SetDocstatusDirect(ctx context.Context, doctype, name string, status document.Docstatus) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE documents SET docstatus = $3 WHERE doctype = $1 AND name = $2`,
		doctype, name, int(status),
	)
	if err != nil {
		return fmt.Errorf("update docstatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return document.ErrNotFound
	}
	return nil
}

// DeleteDirect removes a document; child rows go with it via cascade.
func (s *DocumentStore) DeleteDirect(ctx context.Context, doctype, name string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM documents WHERE doctype = $1 AND name = $2`,
		doctype, name,
	)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return document.ErrNotFound
	}
	return nil
}

// ChildRows loads one child table ordered by position.
func (s *DocumentStore) ChildRows(ctx context.Context, doctype, name, fieldname string) ([]document.ChildRow, error) {
	rows, err := s.db.Query(ctx,
		`SELECT name, idx, fields FROM child_rows
		 WHERE parent_doctype = $1 AND parent_name = $2 AND fieldname = $3
		 ORDER BY idx`,
		doctype, name, fieldname,
	)
	if err != nil {
		return nil, fmt.Errorf("query child rows: %w", err)
	}
	defer rows.Close()

	var out []document.ChildRow
	for rows.Next() {
		var (
			row     document.ChildRow
			rowJSON []byte
		)
		if err := rows.Scan(&row.Name, &row.Idx, &rowJSON); err != nil {
			return nil, fmt.Errorf("scan child row: %w", err)
		}
		row.Fields = document.NewFieldMap()
		if err := json.Unmarshal(rowJSON, row.Fields); err != nil {
			return nil, fmt.Errorf("decode child row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate child rows: %w", err)
	}
	return out, nil
}

// UpsertChildDirect inserts or overwrites one child row by its stable
// row name.
func (s *DocumentStore) UpsertChildDirect(ctx context.Context, doctype, name, fieldname string, row document.ChildRow) error {
	rowJSON, err := json.Marshal(row.Fields)
	if err != nil {
		return fmt.Errorf("encode child row: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO child_rows (parent_doctype, parent_name, fieldname, name, idx, fields)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (parent_doctype, parent_name, fieldname, name)
		 DO UPDATE SET idx = EXCLUDED.idx, fields = EXCLUDED.fields`,
		doctype, name, fieldname, row.Name, row.Idx, rowJSON,
	)
	if err != nil {
		return fmt.Errorf("upsert child row: %w", err)
	}
	return nil
}

// DeleteChildDirect removes one child row.
func (s *DocumentStore) DeleteChildDirect(ctx context.Context, doctype, name, fieldname, rowName string) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM child_rows
		 WHERE parent_doctype = $1 AND parent_name = $2 AND fieldname = $3 AND name = $4`,
		doctype, name, fieldname, rowName,
	)
	if err != nil {
		return fmt.Errorf("delete child row: %w", err)
	}
	return nil
}

// InTransaction runs fn against a transaction-bound store. A store that
// is already transaction-bound reuses its transaction.
func (s *DocumentStore) InTransaction(ctx context.Context, fn func(ctx context.Context, tx document.Store) error) error {
	if s.pool == nil {
		return fn(ctx, s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	txStore := &DocumentStore{db: tx, log: s.log}
	if err := fn(ctx, txStore); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

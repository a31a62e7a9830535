package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"syncmesh/internal/domain/sync"
)

// SyncLogRepository persists sync audit records in the sync_logs table.
// Log writes run on the pool, never inside a document transaction.
type SyncLogRepository struct {
	db dbtx
}

// NewSyncLogRepository creates a log repository.
func NewSyncLogRepository(storage *Storage) *SyncLogRepository {
	return &SyncLogRepository{db: storage.Pool()}
}

const logColumns = `id, doctype, document_name, event, direction, status, peer,
	origin_site_id, modified_timestamp, retry_count, next_retry_at,
	request_payload, error, created_at`

// Create inserts a new log entry.
func (r *SyncLogRepository) Create(ctx context.Context, l *sync.Log) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	var nextRetry *time.Time
	if !l.NextRetryAt.IsZero() {
		nextRetry = &l.NextRetryAt
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO sync_logs (`+logColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		l.ID, l.Doctype, l.DocumentName, l.Event, string(l.Direction), string(l.Status),
		l.Peer, l.OriginSiteID, l.ModifiedTimestamp, l.RetryCount, nextRetry,
		l.RequestPayload, l.Error, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sync log: %w", err)
	}
	return nil
}

// Get loads one log entry by id.
func (r *SyncLogRepository) Get(ctx context.Context, id string) (*sync.Log, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+logColumns+` FROM sync_logs WHERE id = $1`, id)
	l, err := scanLog(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sync.ErrLogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query sync log: %w", err)
	}
	return l, nil
}

// SetStatus moves a log entry to a terminal or queued state and clears
// any previous error text.
func (r *SyncLogRepository) SetStatus(ctx context.Context, id string, status sync.Status) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE sync_logs SET status = $2, error = '' WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return fmt.Errorf("update sync log status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sync.ErrLogNotFound
	}
	return nil
}

// SetFailure records a failed attempt with its error text, new retry
// count, and the time of the next retry. A zero nextRetryAt stores
// NULL: incoming failures are never swept, so they carry no schedule.
func (r *SyncLogRepository) SetFailure(ctx context.Context, id string, errText string, retryCount int, nextRetryAt time.Time) error {
	var nextRetry *time.Time
	if !nextRetryAt.IsZero() {
		nextRetry = &nextRetryAt
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE sync_logs
		 SET status = $2, error = $3, retry_count = $4, next_retry_at = $5
		 WHERE id = $1`,
		id, string(sync.StatusFailed), errText, retryCount, nextRetry,
	)
	if err != nil {
		return fmt.Errorf("update sync log failure: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sync.ErrLogNotFound
	}
	return nil
}

// List returns log entries matching the filter, newest first.
func (r *SyncLogRepository) List(ctx context.Context, filter sync.LogFilter) ([]*sync.Log, error) {
	var (
		conds []string
		args  []any
	)
	add := func(column string, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("status", string(filter.Status))
	add("direction", string(filter.Direction))
	add("doctype", filter.Doctype)
	add("peer", filter.Peer)

	query := `SELECT ` + logColumns + ` FROM sync_logs`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sync logs: %w", err)
	}
	defer rows.Close()
	return collectLogs(rows)
}

// DueForRetry selects failed outgoing entries whose retry window has
// opened and whose retry count is below the ceiling, oldest first.
func (r *SyncLogRepository) DueForRetry(ctx context.Context, now time.Time, limit int) ([]*sync.Log, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+logColumns+` FROM sync_logs
		 WHERE status = $1 AND direction = $2 AND retry_count < $3
		   AND (next_retry_at IS NULL OR next_retry_at <= $4)
		 ORDER BY created_at
		 LIMIT $5`,
		string(sync.StatusFailed), string(sync.DirectionOutgoing), sync.MaxRetries, now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query retryable sync logs: %w", err)
	}
	defer rows.Close()
	return collectLogs(rows)
}

// DeleteSuccessfulBefore removes up to limit successful entries older
// than cutoff and reports how many went.
func (r *SyncLogRepository) DeleteSuccessfulBefore(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM sync_logs
		 WHERE id IN (
		   SELECT id FROM sync_logs
		   WHERE status = $1 AND created_at < $2
		   ORDER BY created_at
		   LIMIT $3
		 )`,
		string(sync.StatusSuccess), cutoff, limit,
	)
	if err != nil {
		return 0, fmt.Errorf("delete sync logs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func collectLogs(rows pgx.Rows) ([]*sync.Log, error) {
	var out []*sync.Log
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sync log: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync logs: %w", err)
	}
	return out, nil
}

func scanLog(row pgx.Row) (*sync.Log, error) {
	var (
		l         sync.Log
		nextRetry *time.Time
	)
	err := row.Scan(
		&l.ID, &l.Doctype, &l.DocumentName, &l.Event, &l.Direction, &l.Status,
		&l.Peer, &l.OriginSiteID, &l.ModifiedTimestamp, &l.RetryCount, &nextRetry,
		&l.RequestPayload, &l.Error, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if nextRetry != nil {
		l.NextRetryAt = *nextRetry
	}
	return &l, nil
}

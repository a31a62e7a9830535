package sync

import (
	"context"
	"time"
)

// LogFilter narrows log listings for the admin surface.
type LogFilter struct {
	Status    Status
	Direction Direction
	Doctype   string
	Peer      string
	Limit     int
}

// LogRepository persists sync audit records. Log writes always commit
// independently of the document transaction they describe, so failures
// are never silently dropped.
type LogRepository interface {
	Create(ctx context.Context, l *Log) error
	Get(ctx context.Context, id string) (*Log, error)
	SetStatus(ctx context.Context, id string, status Status) error
	SetFailure(ctx context.Context, id string, errText string, retryCount int, nextRetryAt time.Time) error
	List(ctx context.Context, filter LogFilter) ([]*Log, error)

	// DueForRetry selects up to limit Outgoing Failed logs with
	// retry_count below the ceiling and next_retry_at at or before now.
	DueForRetry(ctx context.Context, now time.Time, limit int) ([]*Log, error)

	// DeleteSuccessfulBefore garbage-collects terminal Success rows
	// older than cutoff, at most limit per call. Returns rows removed.
	DeleteSuccessfulBefore(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// PolicyRepository reads per-doctype sync policy. Owned by
// configuration; read-only to the engine.
type PolicyRepository interface {
	Get(ctx context.Context, doctype string) (*Policy, error)
	List(ctx context.Context) ([]*Policy, error)
}

// SettingsRepository reads global engine settings and performs the
// one-time site id bootstrap.
type SettingsRepository interface {
	Get(ctx context.Context) (*Settings, error)

	// EnsureSiteID persists candidate as the instance's site id only if
	// none exists yet, and returns the durable id either way.
	EnsureSiteID(ctx context.Context, candidate string) (string, error)
}

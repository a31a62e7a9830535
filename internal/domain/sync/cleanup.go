package sync

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/slog"
)

const (
	// DefaultRetentionDays is how long terminal Success logs are kept
	// when settings carry no explicit retention.
	DefaultRetentionDays = 30

	cleanupBatchSize = 1000
)

// Cleaner garbage-collects successful sync logs past the retention
// window. Failed and Skipped logs are kept: Failed rows past the retry
// ceiling are the only surface for manual attention.
type Cleaner struct {
	logs     LogRepository
	settings SettingsRepository
	now      func() time.Time
	log      *slog.Logger
}

// NewCleaner creates a log cleaner.
func NewCleaner(logs LogRepository, settings SettingsRepository, log *slog.Logger) *Cleaner {
	return &Cleaner{
		logs:     logs,
		settings: settings,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log.With(slog.String("component", "cleanup")),
	}
}

// CleanupLogs is the periodic cleanup sweep; it is idempotent and safe
// to run concurrently with itself.
func (c *Cleaner) CleanupLogs(ctx context.Context) error {
	settings, err := c.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	days := settings.LogRetentionDays
	if days <= 0 {
		days = DefaultRetentionDays
	}

	cutoff := c.now().AddDate(0, 0, -days)
	removed, err := c.logs.DeleteSuccessfulBefore(ctx, cutoff, cleanupBatchSize)
	if err != nil {
		return fmt.Errorf("delete old logs: %w", err)
	}
	if removed > 0 {
		c.log.Info("old sync logs removed", slog.Int("count", removed), slog.Time("cutoff", cutoff))
	}
	return nil
}

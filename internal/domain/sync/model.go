package sync

import (
	"time"
)

// Direction of a sync log entry.
type Direction string

const (
	DirectionIncoming Direction = "Incoming"
	DirectionOutgoing Direction = "Outgoing"
)

// Status is the lifecycle state of a sync log entry. Success and
// Skipped are terminal; Failed is retryable until the retry ceiling.
type Status string

const (
	StatusQueued  Status = "Queued"
	StatusSuccess Status = "Success"
	StatusFailed  Status = "Failed"
	StatusSkipped Status = "Skipped"
)

// ConflictStrategy decides how an incoming change meets existing local
// state for a doctype.
type ConflictStrategy string

const (
	// StrategyLastWriteWins applies the change unless the local
	// modification timestamp is strictly newer.
	StrategyLastWriteWins ConflictStrategy = "Last Write Wins"
	// StrategySkip never applies incoming updates.
	StrategySkip ConflictStrategy = "Skip"
)

// MaxRetries is the retry ceiling for failed outgoing deliveries. Past
// it a log stays permanently Failed and is surfaced for manual
// attention.
const MaxRetries = 5

// Log is one audit record per attempted delivery or receipt. It is
// created at the start of each attempt, mutated in place as the attempt
// progresses, and never touched by anything but the engine.
type Log struct {
	ID                string    `json:"id"`
	Doctype           string    `json:"doctype"`
	DocumentName      string    `json:"document_name"`
	Event             string    `json:"event"`
	Direction         Direction `json:"direction"`
	Status            Status    `json:"status"`
	Peer              string    `json:"peer,omitempty"`
	OriginSiteID      string    `json:"origin_site_id"`
	ModifiedTimestamp string    `json:"modified_timestamp"`
	RetryCount        int       `json:"retry_count"`
	NextRetryAt       time.Time `json:"next_retry_at,omitempty"`
	RequestPayload    []byte    `json:"request_payload,omitempty"`
	Error             string    `json:"error,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Policy is the per-doctype sync configuration: which events are
// forwarded and which conflict strategy applies. Read-only to the
// engine.
type Policy struct {
	Doctype          string           `json:"doctype"`
	SyncInsert       bool             `json:"sync_insert"`
	SyncUpdate       bool             `json:"sync_update"`
	SyncDelete       bool             `json:"sync_delete"`
	ConflictStrategy ConflictStrategy `json:"conflict_strategy"`
}

// Settings is the global engine configuration. SiteID is the durable
// random identifier generated once at install and never regenerated.
type Settings struct {
	Enabled          bool   `json:"enabled"`
	SiteID           string `json:"site_id"`
	LogRetentionDays int    `json:"log_retention_days"`
}

// excludedDoctypes are the engine's own bookkeeping types plus system
// audit types. Changes to them are never dispatched.
var excludedDoctypes = map[string]struct{}{
	"Sync Settings":     {},
	"Sync Peer":         {},
	"Sync Policy":       {},
	"Sync Log":          {},
	"DocType":           {},
	"Error Log":         {},
	"Scheduled Job Log": {},
	"Activity Log":      {},
	"Access Log":        {},
	"Version":           {},
	"Comment":           {},
	"Communication":     {},
}

// IsExcludedDoctype reports whether doctype is internal bookkeeping
// that must never be replicated.
func IsExcludedDoctype(doctype string) bool {
	_, ok := excludedDoctypes[doctype]
	return ok
}

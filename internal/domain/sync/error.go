package sync

import "errors"

var (
	ErrLogNotFound     = errors.New("sync log not found")
	ErrPolicyNotFound  = errors.New("sync policy not found")
	ErrUnknownEvent    = errors.New("unknown sync event")
	ErrInvalidPayload  = errors.New("invalid sync payload")
	ErrSyncDisabled    = errors.New("sync is disabled")
	ErrRetryNotAllowed = errors.New("log is not eligible for retry")
)

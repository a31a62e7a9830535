package sync

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"syncmesh/internal/domain/payload"
	"syncmesh/internal/domain/peer"
)

// RetryBatchSize bounds how many failed logs one sweep picks up.
const RetryBatchSize = 50

// Retrier replays failed outgoing deliveries from their persisted
// payloads. Sweeps are idempotent: each row's retry is conditioned on
// its persisted status, retry count and due time, so a concurrent or
// repeated sweep converges instead of double-delivering.
type Retrier struct {
	logs     LogRepository
	peers    peer.Repository
	delivery *Delivery
	now      func() time.Time
	log      *slog.Logger
}

// NewRetrier creates a retry manager.
func NewRetrier(logs LogRepository, peers peer.Repository, delivery *Delivery, log *slog.Logger) *Retrier {
	return &Retrier{
		logs:     logs,
		peers:    peers,
		delivery: delivery,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log.With(slog.String("component", "retry")),
	}
}

// ProcessFailed is the periodic retry sweep. A sweep with zero eligible
// rows is a no-op.
func (r *Retrier) ProcessFailed(ctx context.Context) error {
	due, err := r.logs.DueForRetry(ctx, r.now(), RetryBatchSize)
	if err != nil {
		return fmt.Errorf("select due retries: %w", err)
	}
	for _, l := range due {
		r.retryOne(ctx, l)
	}
	if len(due) > 0 {
		r.log.Info("retry sweep finished", slog.Int("attempted", len(due)))
	}
	return nil
}

// RetryNow replays one failed outgoing log immediately, ignoring its
// schedule. Used by the admin surface for manual intervention,
// including logs past the retry ceiling.
func (r *Retrier) RetryNow(ctx context.Context, id string) error {
	l, err := r.logs.Get(ctx, id)
	if err != nil {
		return err
	}
	if l.Direction != DirectionOutgoing || l.Status != StatusFailed {
		return fmt.Errorf("%w: %s is %s %s", ErrRetryNotAllowed, id, l.Direction, l.Status)
	}
	r.retryOne(ctx, l)

	updated, err := r.logs.Get(ctx, id)
	if err != nil {
		return err
	}
	if updated.Status != StatusSuccess {
		return fmt.Errorf("retry of %s failed: %s", id, updated.Error)
	}
	return nil
}

// retryOne replays a single failed delivery from its persisted payload.
// The outcome lands on the original log: Success resolves it, failure
// advances its retry count and schedule.
func (r *Retrier) retryOne(ctx context.Context, l *Log) {
	pr, err := r.peers.Get(ctx, l.Peer)
	if err != nil {
		r.recordFailure(ctx, l, fmt.Errorf("peer %s: %w", l.Peer, err))
		return
	}

	err = r.delivery.attempt(ctx, pr, l.RequestPayload, payload.Event(l.Event), l.OriginSiteID, l.ModifiedTimestamp)
	if err != nil {
		r.recordFailure(ctx, l, err)
		return
	}
	if serr := r.logs.SetStatus(ctx, l.ID, StatusSuccess); serr != nil {
		r.log.Error("failed to resolve retried log", "log", l.ID, "error", serr)
	}
}

func (r *Retrier) recordFailure(ctx context.Context, l *Log, cause error) {
	retryCount := l.RetryCount + 1
	if err := r.logs.SetFailure(ctx, l.ID, cause.Error(), retryCount, NextRetryAt(r.now(), retryCount)); err != nil {
		r.log.Error("failed to record retry failure", "log", l.ID, "error", err)
		return
	}
	if retryCount >= MaxRetries {
		r.log.Warn("retry ceiling reached, log needs manual attention",
			slog.String("log", l.ID),
			slog.String("peer", l.Peer),
			slog.String("doctype", l.Doctype),
			slog.String("name", l.DocumentName),
		)
	}
}

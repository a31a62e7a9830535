package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/slog"
)

func TestScheduler_RunsSweepsOnInterval(t *testing.T) {
	var retries, cleanups atomic.Int32
	s := New(Config{
		RetryInterval:   10 * time.Millisecond,
		CleanupInterval: 10 * time.Millisecond,
	}, func(ctx context.Context) error {
		retries.Add(1)
		return nil
	}, func(ctx context.Context) error {
		cleanups.Add(1)
		return nil
	}, slog.Default())

	s.Start(context.Background())
	assert.Eventually(t, func() bool {
		return retries.Load() >= 2 && cleanups.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestScheduler_StopHaltsSweeps(t *testing.T) {
	var retries atomic.Int32
	noop := func(ctx context.Context) error { return nil }
	s := New(Config{
		RetryInterval:   10 * time.Millisecond,
		CleanupInterval: time.Hour,
	}, func(ctx context.Context) error {
		retries.Add(1)
		return nil
	}, noop, slog.Default())

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return retries.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	after := retries.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, retries.Load())

	// Stop again is a no-op.
	s.Stop()
}

func TestScheduler_SweepErrorDoesNotStopLoop(t *testing.T) {
	var calls atomic.Int32
	s := New(Config{
		RetryInterval:   10 * time.Millisecond,
		CleanupInterval: time.Hour,
	}, func(ctx context.Context) error {
		calls.Add(1)
		return context.DeadlineExceeded
	}, func(ctx context.Context) error { return nil }, slog.Default())

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()
}

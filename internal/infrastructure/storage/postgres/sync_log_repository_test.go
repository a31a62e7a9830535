package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockDB struct {
	mock.Mock
}

func (m *MockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *MockDB) Query(ctx context.Context, sql string, queryArgs ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, queryArgs)
	if rows := args.Get(0); rows != nil {
		return rows.(pgx.Rows), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDB) QueryRow(ctx context.Context, sql string, queryArgs ...any) pgx.Row {
	args := m.Called(ctx, sql, queryArgs)
	return args.Get(0).(pgx.Row)
}

func TestSyncLogRepository_SetFailure_ZeroRetryTimeStoresNull(t *testing.T) {
	db := new(MockDB)
	repo := &SyncLogRepository{db: db}

	// An incoming failure has no schedule; next_retry_at must stay NULL
	// rather than a zero-value timestamp.
	db.On("Exec", mock.Anything, mock.Anything, mock.MatchedBy(func(args []any) bool {
		return len(args) == 5 && args[0] == "log-1" && args[4] == (*time.Time)(nil)
	})).Return(pgconn.NewCommandTag("UPDATE 1"), nil)

	err := repo.SetFailure(context.Background(), "log-1", "apply failed", 0, time.Time{})

	assert.NoError(t, err)
	db.AssertExpectations(t)
}

func TestSyncLogRepository_SetFailure_ScheduledRetryTimeIsKept(t *testing.T) {
	db := new(MockDB)
	repo := &SyncLogRepository{db: db}

	due := time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC)
	db.On("Exec", mock.Anything, mock.Anything, mock.MatchedBy(func(args []any) bool {
		next, ok := args[4].(*time.Time)
		return ok && next != nil && next.Equal(due)
	})).Return(pgconn.NewCommandTag("UPDATE 1"), nil)

	err := repo.SetFailure(context.Background(), "log-1", "connection refused", 1, due)

	assert.NoError(t, err)
	db.AssertExpectations(t)
}

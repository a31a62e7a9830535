package synclog

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"syncmesh/internal/domain/sync"
)

// Retryer re-runs one failed outgoing delivery. Implemented by the
// engine's retrier.
type Retryer interface {
	RetryNow(ctx context.Context, id string) error
}

type Handler struct {
	logs       sync.LogRepository
	retryer    Retryer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(logs sync.LogRepository, retryer Retryer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		logs:       logs,
		retryer:    retryer,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.retryOp(), h.retry)
}

func (h *Handler) list(ctx context.Context, input *listInput) (*listOutput, error) {
	logs, err := h.logs.List(ctx, sync.LogFilter{
		Status:    sync.Status(input.Status),
		Direction: sync.Direction(input.Direction),
		Doctype:   input.Doctype,
		Peer:      input.Peer,
		Limit:     input.Limit,
	})
	if err != nil {
		return nil, huma.Error500InternalServerError(err.Error())
	}
	return &listOutput{Body: logs}, nil
}

func (h *Handler) retry(ctx context.Context, input *retryInput) (*retryOutput, error) {
	if err := h.retryer.RetryNow(ctx, input.ID); err != nil {
		switch {
		case errors.Is(err, sync.ErrLogNotFound):
			return nil, huma.Error404NotFound("sync log not found")
		case errors.Is(err, sync.ErrRetryNotAllowed):
			return nil, huma.Error422UnprocessableEntity(err.Error())
		default:
			return &retryOutput{
				Body: RetryResponse{
					Status: "error",
					Error:  err.Error(),
				},
			}, nil
		}
	}
	return &retryOutput{
		Body: RetryResponse{Status: "ok"},
	}, nil
}

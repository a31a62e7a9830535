package policy

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"syncmesh/internal/domain/sync"
)

type Handler struct {
	policies   sync.PolicyRepository
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(policies sync.PolicyRepository, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		policies:   policies,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.listOp(), h.list)
}

func (h *Handler) list(ctx context.Context, _ *listInput) (*listOutput, error) {
	policies, err := h.policies.List(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError(err.Error())
	}
	return &listOutput{Body: policies}, nil
}

package peer

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"syncmesh/internal/domain/peer"
)

type Handler struct {
	service    peer.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service peer.Servicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.createOp(), h.create)
	huma.Register(api, h.testOp(), h.test)
}

func (h *Handler) list(ctx context.Context, _ *listInput) (*listOutput, error) {
	peers, err := h.service.List(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError(err.Error())
	}
	return &listOutput{Body: peers}, nil
}

func (h *Handler) create(ctx context.Context, input *createInput) (*createOutput, error) {
	p := &peer.Peer{
		Name:      input.Body.Name,
		URL:       input.Body.URL,
		APIKey:    input.Body.APIKey,
		APISecret: input.Body.APISecret,
		SiteName:  input.Body.SiteName,
		Enabled:   input.Body.Enabled,
	}
	if err := h.service.Register(ctx, p); err != nil {
		switch {
		case errors.Is(err, peer.ErrInvalidPeer):
			return nil, huma.Error422UnprocessableEntity(err.Error())
		case errors.Is(err, peer.ErrAlreadyExists):
			return nil, huma.Error409Conflict(err.Error())
		default:
			return nil, huma.Error500InternalServerError(err.Error())
		}
	}

	return &createOutput{
		Body: CreateResponse{
			Status: "ok",
			Peer:   p,
		},
	}, nil
}

func (h *Handler) test(ctx context.Context, input *testInput) (*testOutput, error) {
	p, err := h.service.TestConnection(ctx, input.Name)
	if err != nil {
		if errors.Is(err, peer.ErrNotFound) {
			return nil, huma.Error404NotFound("peer not found")
		}
		// A failed handshake is a valid outcome, not a server error.
		return &testOutput{
			Body: TestResponse{
				Status: "error",
				Error:  err.Error(),
			},
		}, nil
	}

	return &testOutput{
		Body: TestResponse{
			Status:       "ok",
			RemoteSiteID: p.RemoteSiteID,
		},
	}, nil
}

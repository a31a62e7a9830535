package health

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"syncmesh/internal/domain/peer"
	"syncmesh/internal/domain/sync"
)

type Handler struct {
	service    sync.Servicer
	peers      peer.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service sync.Servicer, peers peer.Servicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		peers:      peers,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.pingOp(), h.ping)
	huma.Register(api, h.statusOp(), h.status)
}

func (h *Handler) ping(ctx context.Context, _ *pingInput) (*pingOutput, error) {
	settings, err := h.service.Settings(ctx)
	if err != nil {
		h.log.Error("settings lookup failed", "error", err)
		return nil, huma.Error500InternalServerError("settings unavailable")
	}

	return &pingOutput{
		Body: PingResponse{
			SiteID: settings.SiteID,
			Status: "ok",
		},
	}, nil
}

func (h *Handler) status(ctx context.Context, _ *statusInput) (*statusOutput, error) {
	settings, err := h.service.Settings(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("settings unavailable")
	}
	peers, err := h.peers.List(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("peer listing failed")
	}

	out := StatusResponse{
		Enabled: settings.Enabled,
		SiteID:  settings.SiteID,
		Peers:   make([]PeerStatus, 0, len(peers)),
	}
	for _, p := range peers {
		ps := PeerStatus{
			Name:    p.Name,
			Status:  string(p.Status),
			Enabled: p.Enabled,
		}
		if !p.LastSyncAt.IsZero() {
			at := p.LastSyncAt
			ps.LastSyncAt = &at
		}
		out.Peers = append(out.Peers, ps)
	}
	return &statusOutput{Body: out}, nil
}

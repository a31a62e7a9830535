package sync

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"syncmesh/internal/domain/document"
	"syncmesh/internal/domain/sync"
)

type Handler struct {
	service    sync.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service sync.Servicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.receiveOp(), h.receive)
	huma.Register(api, h.getDocumentOp(), h.getDocument)
}

func (h *Handler) receive(ctx context.Context, input *receiveInput) (*receiveOutput, error) {
	if err := h.service.Receive(ctx, input.Body); err != nil {
		if errors.Is(err, sync.ErrInvalidPayload) || errors.Is(err, sync.ErrUnknownEvent) {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		return nil, huma.Error500InternalServerError(err.Error())
	}

	return &receiveOutput{
		Body: sync.ReceiveResponse{Status: "ok"},
	}, nil
}

func (h *Handler) getDocument(ctx context.Context, input *getDocumentInput) (*getDocumentOutput, error) {
	doc, err := h.service.GetDocument(ctx, input.Doctype, input.Name)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			return nil, huma.Error404NotFound("document not found")
		}
		return nil, huma.Error500InternalServerError(err.Error())
	}

	return &getDocumentOutput{
		Body: DocumentResponse{
			Doctype:   doc.Doctype,
			Name:      doc.Name,
			Docstatus: int(doc.Docstatus),
			Owner:     doc.Owner,
			Modified:  doc.ModifiedString(),
			Fields:    doc.Fields,
			Children:  doc.Children,
		},
	}, nil
}

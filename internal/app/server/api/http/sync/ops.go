package sync

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) receiveOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-receive",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/receive",
		Summary:     "Receive one replicated change",
		Description: "Applies an incoming change synchronously; the change is committed before the response is sent.",
		Tags:        []string{"sync"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) getDocumentOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-get-document",
		Method:      http.MethodGet,
		Path:        "/api/v1/sync/document/{doctype}/{name}",
		Summary:     "Fetch a document snapshot",
		Description: "Serves a full local snapshot for on-demand dependency resolution by a peer.",
		Tags:        []string{"sync"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

package synclog

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-logs-list",
		Method:      http.MethodGet,
		Path:        "/api/v1/logs",
		Summary:     "List sync log entries",
		Tags:        []string{"logs"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) retryOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-logs-retry",
		Method:      http.MethodPost,
		Path:        "/api/v1/logs/{id}/retry",
		Summary:     "Retry a failed delivery now",
		Description: "Re-runs one failed outgoing delivery immediately, outside the scheduled retry sweep.",
		Tags:        []string{"logs"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

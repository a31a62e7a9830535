package policy

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "policies-list",
		Method:      http.MethodGet,
		Path:        "/api/v1/policies",
		Summary:     "List per-doctype sync policies",
		Tags:        []string{"policies"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

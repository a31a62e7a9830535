package peer

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "peers-list",
		Method:      http.MethodGet,
		Path:        "/api/v1/peers",
		Summary:     "List registered peers",
		Tags:        []string{"peers"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) createOp() huma.Operation {
	return huma.Operation{
		OperationID: "peers-create",
		Method:      http.MethodPost,
		Path:        "/api/v1/peers",
		Summary:     "Register a peer",
		Description: "Registers a remote instance. The remote site id is learned by the connection test, not configured.",
		Tags:        []string{"peers"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) testOp() huma.Operation {
	return huma.Operation{
		OperationID: "peers-test",
		Method:      http.MethodPost,
		Path:        "/api/v1/peers/{name}/test",
		Summary:     "Test the connection to a peer",
		Description: "Pings the peer, records its health, and stores the learned remote site id.",
		Tags:        []string{"peers"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

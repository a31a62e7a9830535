package sync

import (
	"encoding/json"

	"syncmesh/internal/domain/payload"
)

// ReceiveRequest is the wire form of one replicated change as posted to
// a peer's receive operation.
type ReceiveRequest struct {
	DocData           json.RawMessage `json:"doc_data"`
	Event             payload.Event   `json:"event"`
	OriginSiteID      string          `json:"origin_site_id"`
	ModifiedTimestamp string          `json:"modified_timestamp"`
}

// ReceiveResponse acknowledges an applied change.
type ReceiveResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// PingResponse is the health/handshake reply carrying this instance's
// site id.
type PingResponse struct {
	SiteID string `json:"site_id"`
	Status string `json:"status"`
}

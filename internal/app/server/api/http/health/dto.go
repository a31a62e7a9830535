package health

import (
	"time"
)

type pingInput struct{}

type pingOutput struct {
	Body PingResponse
}

// PingResponse is the handshake reply. SiteID lets the caller record
// which instance answered.
type PingResponse struct {
	SiteID string `json:"site_id" doc:"Durable identifier of this instance"`
	Status string `json:"status" example:"ok" doc:"Health status of the service"`
}

type statusInput struct{}

type statusOutput struct {
	Body StatusResponse
}

// StatusResponse is the admin view of the engine: global switch, own
// identity, and per-peer health.
type StatusResponse struct {
	Enabled bool         `json:"enabled"`
	SiteID  string       `json:"site_id"`
	Peers   []PeerStatus `json:"peers"`
}

// PeerStatus is one peer's health summary.
type PeerStatus struct {
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	Enabled    bool       `json:"enabled"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
}

package peer

import (
	"time"
)

// Status is the health of a peer connection as observed by the engine.
type Status string

const (
	StatusActive   Status = "Active"
	StatusError    Status = "Error"
	StatusDisabled Status = "Disabled"
)

// Peer is the registration of one remote instance. Name is the local
// registration key; RemoteSiteID is learned from the peer's ping
// handshake, never configured by hand. The engine reads enabled peers
// and writes back Status and LastSyncAt as a side effect of deliveries.
type Peer struct {
	Name         string    `json:"name"`
	URL          string    `json:"url"`
	APIKey       string    `json:"api_key"`
	APISecret    string    `json:"-"`
	SiteName     string    `json:"site_name,omitempty"`
	RemoteSiteID string    `json:"remote_site_id,omitempty"`
	Enabled      bool      `json:"enabled"`
	Status       Status    `json:"status"`
	LastSyncAt   time.Time `json:"last_sync_at,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

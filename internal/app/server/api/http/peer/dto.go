package peer

import (
	"syncmesh/internal/domain/peer"
)

type listInput struct{}

type listOutput struct {
	Body []*peer.Peer
}

type createInput struct {
	Body CreateRequest
}

type createOutput struct {
	Body CreateResponse
}

// CreateRequest registers one remote instance. The secret is accepted
// here, stored, and never rendered back.
type CreateRequest struct {
	Name      string `json:"name" minLength:"1" doc:"Local registration name"`
	URL       string `json:"url" minLength:"1" doc:"Base URL of the remote instance"`
	APIKey    string `json:"api_key,omitempty"`
	APISecret string `json:"api_secret,omitempty"`
	SiteName  string `json:"site_name,omitempty" doc:"Host header for multi-tenant peers"`
	Enabled   bool   `json:"enabled"`
}

type CreateResponse struct {
	Status string     `json:"status"`
	Peer   *peer.Peer `json:"peer"`
}

type testInput struct {
	Name string `path:"name"`
}

type testOutput struct {
	Body TestResponse
}

// TestResponse reports the handshake outcome with the learned remote
// site id.
type TestResponse struct {
	Status       string `json:"status"`
	RemoteSiteID string `json:"remote_site_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

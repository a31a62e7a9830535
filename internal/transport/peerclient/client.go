package peerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/exp/slog"

	"syncmesh/internal/domain/peer"
	"syncmesh/internal/domain/sync"
)

// Client is the authenticated HTTP client for calling a remote
// instance's replication operations. It implements peer.Pinger and
// sync.PeerCaller.
type Client struct {
	client    *http.Client
	log       *slog.Logger
	userAgent string
}

// New creates a peer client with connection pooling suited to repeated
// background deliveries.
func New(log *slog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
		log:       log.With(slog.String("component", "peer_client")),
		userAgent: "SyncMesh/1.0",
	}
}

// Ping calls the peer's health operation and returns its site id. Used
// by the connection-test handshake to learn the remote identity.
func (c *Client) Ping(ctx context.Context, p *peer.Peer) (string, error) {
	var out sync.PingResponse
	if err := c.do(ctx, p, http.MethodGet, "/api/v1/ping", nil, &out); err != nil {
		return "", err
	}
	if out.SiteID == "" {
		return "", fmt.Errorf("%w: ping response carries no site id", ErrInvalidResponse)
	}
	return out.SiteID, nil
}

// ReceiveSync posts one change to the peer's receive operation. The
// peer applies and commits before responding.
func (c *Client) ReceiveSync(ctx context.Context, p *peer.Peer, req sync.ReceiveRequest) error {
	var out sync.ReceiveResponse
	if err := c.do(ctx, p, http.MethodPost, "/api/v1/sync/receive", req, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("%w: %s", ErrRemoteRejected, out.Error)
	}
	return nil
}

// GetDocument fetches a full document snapshot from the peer for
// on-demand dependency resolution.
func (c *Client) GetDocument(ctx context.Context, p *peer.Peer, doctype, name string) (json.RawMessage, error) {
	path := fmt.Sprintf("/api/v1/sync/document/%s/%s", doctype, name)
	var out json.RawMessage
	if err := c.do(ctx, p, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, p *peer.Peer, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	url := strings.TrimRight(p.URL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Authorization", "Bearer "+p.APIKey+":"+p.APISecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// Multi-tenant peers route by Host header.
	if p.SiteName != "" {
		req.Host = p.SiteName
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPeerUnreachable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s: %s", ErrRemoteRejected, resp.Status, errorMessage(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// errorMessage pulls a human-readable message out of an error response
// body, falling back to the raw body.
func errorMessage(data []byte) string {
	var e struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &e); err == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Detail != "" {
			return e.Detail
		}
	}
	const max = 200
	s := string(data)
	if len(s) > max {
		s = s[:max]
	}
	return s
}

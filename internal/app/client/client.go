// Package client is the admin CLI's view of one running instance: a
// thin authenticated HTTP client over the admin API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/exp/slog"

	"syncmesh/internal/app/client/config"
	"syncmesh/internal/domain/peer"
	"syncmesh/internal/domain/sync"
)

type App struct {
	config    *config.Config
	log       *slog.Logger
	client    *http.Client
	baseURL   string
	userAgent string
}

// StatusInfo mirrors the server's status operation.
type StatusInfo struct {
	Enabled bool         `json:"enabled"`
	SiteID  string       `json:"site_id"`
	Peers   []PeerStatus `json:"peers"`
}

type PeerStatus struct {
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	Enabled    bool       `json:"enabled"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
}

// AddPeerRequest registers a remote instance.
type AddPeerRequest struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	APIKey    string `json:"api_key,omitempty"`
	APISecret string `json:"api_secret,omitempty"`
	SiteName  string `json:"site_name,omitempty"`
	Enabled   bool   `json:"enabled"`
}

// TestResult reports a connection test outcome.
type TestResult struct {
	Status       string `json:"status"`
	RemoteSiteID string `json:"remote_site_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

// LogFilter narrows the server-side log listing.
type LogFilter struct {
	Status    string
	Direction string
	Doctype   string
	Peer      string
	Limit     int
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	scheme := "http://"
	if cfg.EnableTLS {
		scheme = "https://"
	}

	return &App{
		config: cfg,
		log:    log,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
		baseURL:   scheme + cfg.ServerAddress,
		userAgent: "SyncMesh-CLI/1.0",
	}, nil
}

// CheckConnection pings the server.
func (a *App) CheckConnection(ctx context.Context) error {
	var out sync.PingResponse
	if err := a.do(ctx, http.MethodGet, "/api/v1/ping", nil, &out); err != nil {
		return err
	}
	return nil
}

// Status fetches the engine overview.
func (a *App) Status(ctx context.Context) (*StatusInfo, error) {
	var out StatusInfo
	if err := a.do(ctx, http.MethodGet, "/api/v1/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPeers returns all registered peers.
func (a *App) ListPeers(ctx context.Context) ([]*peer.Peer, error) {
	var out []*peer.Peer
	if err := a.do(ctx, http.MethodGet, "/api/v1/peers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddPeer registers a new peer.
func (a *App) AddPeer(ctx context.Context, req AddPeerRequest) (*peer.Peer, error) {
	var out struct {
		Status string     `json:"status"`
		Peer   *peer.Peer `json:"peer"`
	}
	if err := a.do(ctx, http.MethodPost, "/api/v1/peers", req, &out); err != nil {
		return nil, err
	}
	return out.Peer, nil
}

// TestPeer runs the connection handshake against one peer.
func (a *App) TestPeer(ctx context.Context, name string) (*TestResult, error) {
	var out TestResult
	path := "/api/v1/peers/" + url.PathEscape(name) + "/test"
	if err := a.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListLogs returns sync log entries matching the filter.
func (a *App) ListLogs(ctx context.Context, filter LogFilter) ([]*sync.Log, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.Direction != "" {
		q.Set("direction", filter.Direction)
	}
	if filter.Doctype != "" {
		q.Set("doctype", filter.Doctype)
	}
	if filter.Peer != "" {
		q.Set("peer", filter.Peer)
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	path := "/api/v1/logs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []*sync.Log
	if err := a.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RetryLog re-runs one failed outgoing delivery immediately.
func (a *App) RetryLog(ctx context.Context, id string) error {
	var out struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	}
	path := "/api/v1/logs/" + url.PathEscape(id) + "/retry"
	if err := a.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("retry failed: %s", out.Error)
	}
	return nil
}

// ListPolicies returns the configured per-doctype policies.
func (a *App) ListPolicies(ctx context.Context) ([]*sync.Policy, error) {
	var out []*sync.Policy
	if err := a.do(ctx, http.MethodGet, "/api/v1/policies", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *App) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)
	if a.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.config.APIKey+":"+a.config.APISecret)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("server returned %s: %s", resp.Status, apiError(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func apiError(data []byte) string {
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

package peer

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/slog"
)

// Pinger calls a remote instance's ping operation and returns its site
// id. Implemented by the peer transport client.
type Pinger interface {
	Ping(ctx context.Context, p *Peer) (siteID string, err error)
}

// Servicer is the peer management service contract.
type Servicer interface {
	Get(ctx context.Context, name string) (*Peer, error)
	List(ctx context.Context) ([]*Peer, error)
	Register(ctx context.Context, p *Peer) error
	TestConnection(ctx context.Context, name string) (*Peer, error)
}

// Service manages peer registrations and the connection handshake.
type Service struct {
	repo   Repository
	pinger Pinger
	log    *slog.Logger
}

// NewService creates a peer service.
func NewService(repo Repository, pinger Pinger, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		pinger: pinger,
		log:    log.With(slog.String("component", "peer_service")),
	}
}

// Get returns one peer by name.
func (s *Service) Get(ctx context.Context, name string) (*Peer, error) {
	return s.repo.Get(ctx, name)
}

// List returns all registered peers.
func (s *Service) List(ctx context.Context) ([]*Peer, error) {
	return s.repo.List(ctx)
}

// Register stores a new peer registration. The remote site id is left
// empty until the first successful connection test.
func (s *Service) Register(ctx context.Context, p *Peer) error {
	if p.Name == "" || p.URL == "" {
		return fmt.Errorf("%w: name and url are required", ErrInvalidPeer)
	}
	if p.Status == "" {
		p.Status = StatusDisabled
		if p.Enabled {
			p.Status = StatusActive
		}
	}
	p.CreatedAt = time.Now().UTC()
	if err := s.repo.Create(ctx, p); err != nil {
		return fmt.Errorf("create peer %s: %w", p.Name, err)
	}
	s.log.Info("peer registered", slog.String("peer", p.Name), slog.String("url", p.URL))
	return nil
}

// TestConnection pings the peer and persists the learned remote site id
// and health. A failed ping marks the peer Error and returns the error.
func (s *Service) TestConnection(ctx context.Context, name string) (*Peer, error) {
	p, err := s.repo.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	siteID, err := s.pinger.Ping(ctx, p)
	if err != nil {
		if serr := s.repo.SetStatus(ctx, name, StatusError); serr != nil {
			s.log.Warn("failed to record peer status", "peer", name, "error", serr)
		}
		return nil, fmt.Errorf("connection test for %s: %w", name, err)
	}

	if err := s.repo.SetRemoteSiteID(ctx, name, siteID); err != nil {
		return nil, fmt.Errorf("persist remote site id for %s: %w", name, err)
	}
	if err := s.repo.SetStatus(ctx, name, StatusActive); err != nil {
		return nil, fmt.Errorf("persist peer status for %s: %w", name, err)
	}

	p.RemoteSiteID = siteID
	p.Status = StatusActive
	s.log.Info("connection test succeeded", slog.String("peer", name), slog.String("remote_site_id", siteID))
	return p, nil
}

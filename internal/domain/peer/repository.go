package peer

import (
	"context"
	"time"
)

// Repository persists peer registrations. Configuration (URL,
// credentials, enabled flag) is owned by the admin surface; the engine
// only lists enabled peers and records health and last-sync time.
type Repository interface {
	Get(ctx context.Context, name string) (*Peer, error)
	List(ctx context.Context) ([]*Peer, error)
	ListEnabled(ctx context.Context) ([]*Peer, error)
	Create(ctx context.Context, p *Peer) error
	SetStatus(ctx context.Context, name string, status Status) error
	SetRemoteSiteID(ctx context.Context, name, siteID string) error
	SetLastSyncAt(ctx context.Context, name string, at time.Time) error
}

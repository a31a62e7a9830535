package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"syncmesh/internal/domain/peer"
)

// PeerRepository persists peer registrations in the sync_peers table.
type PeerRepository struct {
	db dbtx
}

// NewPeerRepository creates a peer repository.
func NewPeerRepository(storage *Storage) *PeerRepository {
	return &PeerRepository{db: storage.Pool()}
}

const peerColumns = `name, url, api_key, api_secret, site_name, remote_site_id,
	enabled, status, last_sync_at, created_at`

// Get loads one peer by registration name.
func (r *PeerRepository) Get(ctx context.Context, name string) (*peer.Peer, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+peerColumns+` FROM sync_peers WHERE name = $1`, name)
	p, err := scanPeer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, peer.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query peer: %w", err)
	}
	return p, nil
}

// List returns all registered peers.
func (r *PeerRepository) List(ctx context.Context) ([]*peer.Peer, error) {
	return r.list(ctx, `SELECT `+peerColumns+` FROM sync_peers ORDER BY name`)
}

// ListEnabled returns the peers eligible for deliveries.
func (r *PeerRepository) ListEnabled(ctx context.Context) ([]*peer.Peer, error) {
	return r.list(ctx, `SELECT `+peerColumns+` FROM sync_peers WHERE enabled ORDER BY name`)
}

func (r *PeerRepository) list(ctx context.Context, query string) ([]*peer.Peer, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query peers: %w", err)
	}
	defer rows.Close()

	var out []*peer.Peer
	for rows.Next() {
		p, err := scanPeer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan peer: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate peers: %w", err)
	}
	return out, nil
}

// Create registers a new peer.
func (r *PeerRepository) Create(ctx context.Context, p *peer.Peer) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO sync_peers (name, url, api_key, api_secret, site_name, enabled, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.Name, p.URL, p.APIKey, p.APISecret, p.SiteName, p.Enabled, string(p.Status), p.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return peer.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert peer: %w", err)
	}
	return nil
}

// SetStatus records the observed health of a peer.
func (r *PeerRepository) SetStatus(ctx context.Context, name string, status peer.Status) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE sync_peers SET status = $2 WHERE name = $1`,
		name, string(status),
	)
	if err != nil {
		return fmt.Errorf("update peer status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return peer.ErrNotFound
	}
	return nil
}

// SetRemoteSiteID stores the site id learned from the peer handshake.
func (r *PeerRepository) SetRemoteSiteID(ctx context.Context, name, siteID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE sync_peers SET remote_site_id = $2 WHERE name = $1`,
		name, siteID,
	)
	if err != nil {
		return fmt.Errorf("update peer site id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return peer.ErrNotFound
	}
	return nil
}

// SetLastSyncAt records the time of the last successful delivery.
func (r *PeerRepository) SetLastSyncAt(ctx context.Context, name string, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE sync_peers SET last_sync_at = $2 WHERE name = $1`,
		name, at,
	)
	if err != nil {
		return fmt.Errorf("update peer last sync: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return peer.ErrNotFound
	}
	return nil
}

func scanPeer(row pgx.Row) (*peer.Peer, error) {
	var (
		p        peer.Peer
		lastSync *time.Time
	)
	err := row.Scan(
		&p.Name, &p.URL, &p.APIKey, &p.APISecret, &p.SiteName, &p.RemoteSiteID,
		&p.Enabled, &p.Status, &lastSync, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastSync != nil {
		p.LastSyncAt = *lastSync
	}
	return &p, nil
}

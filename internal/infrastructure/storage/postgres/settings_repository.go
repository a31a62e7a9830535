package postgres

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"syncmesh/internal/domain/sync"
)

// SettingsRepository reads global engine settings from the single-row
// sync_settings table and owns the site id bootstrap.
type SettingsRepository struct {
	db dbtx
}

// NewSettingsRepository creates a settings repository.
func NewSettingsRepository(storage *Storage) *SettingsRepository {
	return &SettingsRepository{db: storage.Pool()}
}

// Get returns the current engine settings.
func (r *SettingsRepository) Get(ctx context.Context) (*sync.Settings, error) {
	var s sync.Settings
	err := r.db.QueryRow(ctx,
		`SELECT enabled, site_id, log_retention_days FROM sync_settings WHERE id`,
	).Scan(&s.Enabled, &s.SiteID, &s.LogRetentionDays)
	if err != nil {
		return nil, fmt.Errorf("query sync settings: %w", err)
	}
	return &s, nil
}

// EnsureSiteID persists candidate as this instance's site id only if no
// id exists yet, and returns the durable one either way. The id is
// generated once at install and never regenerated.
func (r *SettingsRepository) EnsureSiteID(ctx context.Context, candidate string) (string, error) {
	var siteID string
	err := r.db.QueryRow(ctx,
		`UPDATE sync_settings
		 SET site_id = CASE WHEN site_id = '' THEN $1 ELSE site_id END
		 WHERE id
		 RETURNING site_id`,
		candidate,
	).Scan(&siteID)
	if err != nil {
		return "", fmt.Errorf("ensure site id: %w", err)
	}
	return siteID, nil
}

// SetAccessKey stores the inbound API credentials, hashing the secret
// before it touches the database.
func (r *SettingsRepository) SetAccessKey(ctx context.Context, key, secret string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash api secret: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`UPDATE sync_settings SET api_key = $1, api_secret_hash = $2 WHERE id`,
		key, string(hash),
	)
	if err != nil {
		return fmt.Errorf("update access key: %w", err)
	}
	return nil
}

// VerifyAccessKey checks inbound credentials against the stored key and
// secret hash. An instance with no key configured accepts any caller,
// which keeps single-machine development setups working.
func (r *SettingsRepository) VerifyAccessKey(ctx context.Context, key, secret string) (bool, error) {
	var storedKey, storedHash string
	err := r.db.QueryRow(ctx,
		`SELECT api_key, api_secret_hash FROM sync_settings WHERE id`,
	).Scan(&storedKey, &storedHash)
	if err != nil {
		return false, fmt.Errorf("query access key: %w", err)
	}
	if storedKey == "" {
		return true, nil
	}
	if key != storedKey {
		return false, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(secret)); err != nil {
		return false, nil
	}
	return true, nil
}

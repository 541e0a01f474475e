package adapters

import (
	"context"
	"errors"

	"salescrm_backend/internal/leads/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TenantSetting is one tenant's value for a setting key.
type TenantSetting struct {
	TenantID uuid.UUID
	Value    string
}

// SettingsStore reads the tenant_settings table.
type SettingsStore struct {
	pool *pgxpool.Pool
}

// NewSettingsStore creates a new adapter.
func NewSettingsStore(pool *pgxpool.Pool) *SettingsStore {
	return &SettingsStore{pool: pool}
}

// GetSetting returns the value for key, with ok=false when the tenant has none.
func (s *SettingsStore) GetSetting(ctx context.Context, tenantID uuid.UUID, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM tenant_settings WHERE tenant_id = $1 AND key = $2`,
		tenantID, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// ListTenantSettings returns every tenant that has a value for key.
func (s *SettingsStore) ListTenantSettings(ctx context.Context, key string) ([]TenantSetting, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT tenant_id, value FROM tenant_settings WHERE key = $1 ORDER BY tenant_id`,
		key,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (TenantSetting, error) {
		var item TenantSetting
		err := row.Scan(&item.TenantID, &item.Value)
		return item, err
	})
}

// Compile-time check.
var _ ports.SettingsReader = (*SettingsStore)(nil)

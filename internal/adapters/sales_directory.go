package adapters

import (
	"context"

	"salescrm_backend/internal/leads/domain"
	"salescrm_backend/internal/leads/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	listActiveSalesQuery = `
		SELECT id, name FROM sales_users
		WHERE tenant_id = $1 AND is_active
		ORDER BY id`

	listActiveChannelSalesQuery = `
		SELECT su.id, su.name FROM sales_users su
		JOIN sales_user_channels suc ON suc.sales_user_id = su.id AND suc.tenant_id = su.tenant_id
		WHERE su.tenant_id = $1 AND suc.channel_id = $2 AND su.is_active
		ORDER BY su.id`
)

// SalesDirectory lists active sales users from the sales_users table.
type SalesDirectory struct {
	pool *pgxpool.Pool
}

// NewSalesDirectory creates a new adapter.
func NewSalesDirectory(pool *pgxpool.Pool) *SalesDirectory {
	return &SalesDirectory{pool: pool}
}

// ListActiveSalesUsers returns the tenant's active sales users, limited to
// those bound to channelID when it is set.
func (d *SalesDirectory) ListActiveSalesUsers(ctx context.Context, tenantID uuid.UUID, channelID *uuid.UUID) ([]domain.SalesUser, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if channelID != nil {
		rows, err = d.pool.Query(ctx, listActiveChannelSalesQuery, tenantID, *channelID)
	} else {
		rows, err = d.pool.Query(ctx, listActiveSalesQuery, tenantID)
	}
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.SalesUser, error) {
		var u domain.SalesUser
		err := row.Scan(&u.ID, &u.Name)
		return u, err
	})
}

// Compile-time check.
var _ ports.SalesDirectory = (*SalesDirectory)(nil)

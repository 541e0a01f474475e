// Package repository is the lead state store: tenant-scoped reads and the
// transactional writes and row locks the lifecycle service builds on.
package repository

import (
	"context"
	"errors"
	"time"

	"salescrm_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the Postgres Store.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a Postgres-backed Store.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Store = (*Repository)(nil)

// WithTx runs fn inside one transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		// A cancelled caller context must not prevent the rollback.
		_ = tx.Rollback(context.WithoutCancel(ctx))
	}()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) GetByID(ctx context.Context, id, tenantID uuid.UUID) (domain.Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, getLeadQuery, id, tenantID))
}

func (r *Repository) ListPool(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]domain.Lead, error) {
	rows, err := r.pool.Query(ctx, listPoolQuery, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectLeads(rows)
}

func (r *Repository) ListActivities(ctx context.Context, leadID, tenantID uuid.UUID) ([]domain.Activity, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, leadExistsQuery, leadID, tenantID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := r.pool.Query(ctx, listActivitiesQuery, leadID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Activity, 0)
	for rows.Next() {
		item, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

func (r *Repository) ListStaleAssigned(ctx context.Context, tenantID uuid.UUID, cutoff time.Time, limit int) ([]domain.Lead, error) {
	rows, err := r.pool.Query(ctx, listStaleAssignedQuery, tenantID, cutoff, limit)
	if err != nil {
		return nil, err
	}
	return collectLeads(rows)
}

type pgTx struct {
	tx pgx.Tx
}

var _ Tx = (*pgTx)(nil)

func (t *pgTx) DB() DBTX { return t.tx }

func (t *pgTx) LockLead(ctx context.Context, id, tenantID uuid.UUID) (domain.Lead, error) {
	return scanLead(t.tx.QueryRow(ctx, lockLeadQuery, id, tenantID))
}

func (t *pgTx) LockPhone(ctx context.Context, tenantID uuid.UUID, phone string) error {
	_, err := t.tx.Exec(ctx, lockPhoneQuery, tenantID.String(), phone)
	return err
}

func (t *pgTx) FindActiveByPhone(ctx context.Context, tenantID uuid.UUID, phone string) (domain.Lead, error) {
	return scanLead(t.tx.QueryRow(ctx, findActiveByPhoneQuery, tenantID, phone))
}

func (t *pgTx) InsertLead(ctx context.Context, lead *domain.Lead) error {
	return t.tx.QueryRow(ctx, insertLeadQuery,
		lead.TenantID,
		lead.CustomerName,
		lead.CustomerPhone,
		lead.CustomerWechat,
		lead.Address,
		lead.Notes,
		lead.ChannelID,
		lead.ContactID,
		lead.Source,
		lead.IntentLevel,
		string(lead.Status),
		lead.AssignedSalesID,
		lead.Score,
		lead.EstimatedAmount,
	).Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
}

func (t *pgTx) UpdateLead(ctx context.Context, lead domain.Lead) error {
	tag, err := t.tx.Exec(ctx, updateLeadQuery,
		lead.ID,
		lead.TenantID,
		string(lead.Status),
		lead.AssignedSalesID,
		lead.VoidReason,
		lead.ConvertedCustomerID,
		lead.LastActivityAt,
		lead.NextFollowupAt,
		lead.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) InsertActivity(ctx context.Context, activity *domain.Activity) error {
	var override *string
	if activity.StatusOverride != nil {
		s := string(*activity.StatusOverride)
		override = &s
	}
	return t.tx.QueryRow(ctx, insertActivityQuery,
		activity.LeadID,
		activity.TenantID,
		activity.Type,
		activity.Content,
		activity.CreatedByUserID,
		activity.NextFollowupAt,
		override,
	).Scan(&activity.ID, &activity.CreatedAt)
}

func (t *pgTx) LockCursor(ctx context.Context, tenantID uuid.UUID, scopeKey string) (*uuid.UUID, error) {
	if _, err := t.tx.Exec(ctx, ensureCursorQuery, tenantID, scopeKey); err != nil {
		return nil, err
	}
	var last *uuid.UUID
	if err := t.tx.QueryRow(ctx, lockCursorQuery, tenantID, scopeKey).Scan(&last); err != nil {
		return nil, err
	}
	return last, nil
}

func (t *pgTx) SaveCursor(ctx context.Context, tenantID uuid.UUID, scopeKey string, salesID uuid.UUID) error {
	_, err := t.tx.Exec(ctx, saveCursorQuery, tenantID, scopeKey, salesID)
	return err
}

func scanLead(row pgx.Row) (domain.Lead, error) {
	var (
		lead   domain.Lead
		status string
	)
	err := row.Scan(
		&lead.ID,
		&lead.TenantID,
		&lead.CustomerName,
		&lead.CustomerPhone,
		&lead.CustomerWechat,
		&lead.Address,
		&lead.Notes,
		&lead.ChannelID,
		&lead.ContactID,
		&lead.Source,
		&lead.IntentLevel,
		&status,
		&lead.AssignedSalesID,
		&lead.Score,
		&lead.EstimatedAmount,
		&lead.VoidReason,
		&lead.ConvertedCustomerID,
		&lead.LastActivityAt,
		&lead.NextFollowupAt,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	if err != nil {
		return domain.Lead{}, err
	}
	lead.Status = domain.Status(status)
	return lead, nil
}

func collectLeads(rows pgx.Rows) ([]domain.Lead, error) {
	defer rows.Close()

	items := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

func scanActivity(row pgx.Row) (domain.Activity, error) {
	var (
		item     domain.Activity
		override *string
	)
	if err := row.Scan(
		&item.ID,
		&item.LeadID,
		&item.TenantID,
		&item.Type,
		&item.Content,
		&item.CreatedByUserID,
		&item.NextFollowupAt,
		&override,
		&item.CreatedAt,
	); err != nil {
		return domain.Activity{}, err
	}
	if override != nil {
		s := domain.Status(*override)
		item.StatusOverride = &s
	}
	return item, nil
}

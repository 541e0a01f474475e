package repository

import (
	"context"
	"errors"
	"time"

	"salescrm_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a lead does not exist within the requested tenant.
var ErrNotFound = errors.New("lead not found")

// DBTX is the subset of pgx shared by pools and transactions. Collaborators
// that must write inside a lead transaction (audit, customer creation) use it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadReader provides tenant-scoped reads outside a transaction.
type LeadReader interface {
	GetByID(ctx context.Context, id, tenantID uuid.UUID) (domain.Lead, error)
	ListPool(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]domain.Lead, error)
	ListActivities(ctx context.Context, leadID, tenantID uuid.UUID) ([]domain.Activity, error)
}

// StaleLeadLister finds owned leads without recent activity.
type StaleLeadLister interface {
	ListStaleAssigned(ctx context.Context, tenantID uuid.UUID, cutoff time.Time, limit int) ([]domain.Lead, error)
}

// LeadLocker takes exclusive locks that are held until the transaction ends.
type LeadLocker interface {
	// LockLead reads the lead with SELECT ... FOR UPDATE, blocking while
	// another transaction holds it. Returns ErrNotFound across tenants.
	LockLead(ctx context.Context, id, tenantID uuid.UUID) (domain.Lead, error)
	// LockPhone serialises creates for one (tenant, phone) pair.
	LockPhone(ctx context.Context, tenantID uuid.UUID, phone string) error
}

// LeadWriter provides writes inside a transaction.
type LeadWriter interface {
	// InsertLead stores a new lead and fills ID, CreatedAt and UpdatedAt.
	InsertLead(ctx context.Context, lead *domain.Lead) error
	UpdateLead(ctx context.Context, lead domain.Lead) error
	// InsertActivity stores an activity and fills ID and CreatedAt.
	InsertActivity(ctx context.Context, activity *domain.Activity) error
	// FindActiveByPhone returns the oldest non-terminal lead with phone.
	FindActiveByPhone(ctx context.Context, tenantID uuid.UUID, phone string) (domain.Lead, error)
}

// CursorStore persists round-robin cursors.
type CursorStore interface {
	// LockCursor returns the last selected sales id for the scope, creating
	// the row when missing, and holds it until the transaction ends.
	LockCursor(ctx context.Context, tenantID uuid.UUID, scopeKey string) (*uuid.UUID, error)
	SaveCursor(ctx context.Context, tenantID uuid.UUID, scopeKey string, salesID uuid.UUID) error
}

// Tx is one storage transaction.
type Tx interface {
	LeadLocker
	LeadWriter
	CursorStore
	// DB exposes the underlying transaction, or nil for stores without SQL.
	DB() DBTX
}

// Store is the lead state store.
type Store interface {
	LeadReader
	StaleLeadLister
	// WithTx runs fn in one transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

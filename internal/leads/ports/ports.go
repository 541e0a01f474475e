// Package ports defines consumer-driven interfaces for external dependencies.
// These interfaces are defined in the Leads domain based on what it needs,
// rather than what other domains choose to offer.
package ports

import (
	"context"

	"salescrm_backend/internal/leads/domain"
	"salescrm_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// SettingsReader reads tenant-scoped settings.
type SettingsReader interface {
	// GetSetting returns the value and whether it is set.
	GetSetting(ctx context.Context, tenantID uuid.UUID, key string) (string, bool, error)
}

// SalesDirectory lists distribution candidates.
type SalesDirectory interface {
	// ListActiveSalesUsers returns active sales users of the tenant. When
	// channelID is set only users serving that channel are returned.
	ListActiveSalesUsers(ctx context.Context, tenantID uuid.UUID, channelID *uuid.UUID) ([]domain.SalesUser, error)
}

// CustomerAttributes is what a converted lead hands to customer creation.
type CustomerAttributes struct {
	Name         string
	Phone        string
	Wechat       *string
	Address      *string
	SourceLeadID uuid.UUID
	OwnerSalesID *uuid.UUID
	CreatedBy    uuid.UUID
}

// CustomerCreator creates the customer record for a won lead. It runs inside
// the lead transaction so conversion is all-or-nothing.
type CustomerCreator interface {
	CreateCustomer(ctx context.Context, tx repository.Tx, tenantID uuid.UUID, attrs CustomerAttributes) (uuid.UUID, error)
}

// AuditEntry is one append-only audit record.
type AuditEntry struct {
	TenantID  uuid.UUID
	ActorID   uuid.UUID
	TableName string
	RecordID  uuid.UUID
	Action    string
	OldValues map[string]any
	NewValues map[string]any
}

// AuditSink records mutations inside the transaction that performs them.
type AuditSink interface {
	Record(ctx context.Context, tx repository.Tx, entry AuditEntry) error
}

package adapters

import (
	"context"
	"errors"

	"salescrm_backend/internal/leads/ports"
	"salescrm_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// ErrNoTransaction is returned when a write needs a SQL transaction but the
// store provides none.
var ErrNoTransaction = errors.New("adapters: transaction has no database handle")

const insertCustomerQuery = `
	INSERT INTO customers (tenant_id, name, phone, wechat, address, source_lead_id, owner_sales_id, created_by)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id`

// CustomerCreator inserts customers inside the lead conversion transaction.
type CustomerCreator struct{}

// NewCustomerCreator creates a new adapter.
func NewCustomerCreator() *CustomerCreator {
	return &CustomerCreator{}
}

// CreateCustomer inserts the customer with tx so a failed conversion leaves no row behind.
func (c *CustomerCreator) CreateCustomer(ctx context.Context, tx repository.Tx, tenantID uuid.UUID, attrs ports.CustomerAttributes) (uuid.UUID, error) {
	db := tx.DB()
	if db == nil {
		return uuid.Nil, ErrNoTransaction
	}
	var id uuid.UUID
	err := db.QueryRow(ctx, insertCustomerQuery,
		tenantID, attrs.Name, attrs.Phone, attrs.Wechat, attrs.Address,
		attrs.SourceLeadID, attrs.OwnerSalesID, attrs.CreatedBy,
	).Scan(&id)
	return id, err
}

// Compile-time check.
var _ ports.CustomerCreator = (*CustomerCreator)(nil)

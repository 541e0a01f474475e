// Package audit writes audit_logs rows inside the caller's transaction.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"salescrm_backend/internal/leads/ports"
	"salescrm_backend/internal/leads/repository"
)

// ErrNoTransaction is returned when the transaction exposes no SQL handle.
var ErrNoTransaction = errors.New("audit: transaction has no database handle")

const insertAuditQuery = `
	INSERT INTO audit_logs (tenant_id, actor_id, table_name, record_id, action, old_values, new_values)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

// Sink is the Postgres audit sink.
type Sink struct{}

// NewSink creates a Sink.
func NewSink() *Sink {
	return &Sink{}
}

var _ ports.AuditSink = (*Sink)(nil)

// Record inserts entry using tx, so it commits or rolls back with the lead change.
func (s *Sink) Record(ctx context.Context, tx repository.Tx, entry ports.AuditEntry) error {
	db := tx.DB()
	if db == nil {
		return ErrNoTransaction
	}

	oldValues, err := encodeValues(entry.OldValues)
	if err != nil {
		return fmt.Errorf("encode old values: %w", err)
	}
	newValues, err := encodeValues(entry.NewValues)
	if err != nil {
		return fmt.Errorf("encode new values: %w", err)
	}

	_, err = db.Exec(ctx, insertAuditQuery,
		entry.TenantID, entry.ActorID, entry.TableName, entry.RecordID, entry.Action,
		oldValues, newValues,
	)
	return err
}

// encodeValues returns nil for empty maps so the column stays NULL.
func encodeValues(values map[string]any) ([]byte, error) {
	if len(values) == 0 {
		return nil, nil
	}
	return json.Marshal(values)
}

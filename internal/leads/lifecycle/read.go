package lifecycle

import (
	"context"
	"errors"

	"salescrm_backend/internal/leads/domain"
	"salescrm_backend/internal/leads/repository"

	"github.com/google/uuid"
)

const (
	defaultPoolLimit = 50
	maxPoolLimit     = 200
)

// GetLead returns the lead, or nil when it does not exist in the tenant.
func (s *Service) GetLead(ctx context.Context, id, tenantID uuid.UUID) (*domain.Lead, error) {
	lead, err := s.store.GetByID(ctx, id, tenantID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, infra(err, "get lead")
	}
	return &lead, nil
}

// ListPool returns the tenant's unassigned leads, newest first.
func (s *Service) ListPool(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]domain.Lead, error) {
	if limit <= 0 {
		limit = defaultPoolLimit
	}
	if limit > maxPoolLimit {
		limit = maxPoolLimit
	}
	if offset < 0 {
		offset = 0
	}
	items, err := s.store.ListPool(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, infra(err, "list pool")
	}
	return items, nil
}

package lifecycle

import (
	"context"
	"slices"
	"time"

	"salescrm_backend/internal/events"
	"salescrm_backend/internal/leads/domain"
	"salescrm_backend/internal/leads/repository"
	"salescrm_backend/platform/apperr"

	"github.com/google/uuid"
)

// ClaimFromPool gives a pooled lead to salesID. Preconditions are evaluated
// on the locked row, so of several concurrent claims exactly one succeeds and
// the others fail with a state conflict.
func (s *Service) ClaimFromPool(ctx context.Context, id, tenantID, salesID uuid.UUID) (lead domain.Lead, err error) {
	defer s.observe("claim", &err)

	active, err := s.isActiveSales(ctx, tenantID, salesID)
	if err != nil {
		return domain.Lead{}, err
	}
	if !active {
		return domain.Lead{}, apperr.Forbidden("only active sales users of this tenant may claim leads")
	}

	err = s.withLockedLead(ctx, id, tenantID, func(tx repository.Tx, l *domain.Lead) error {
		before := snapshot(*l)
		if err := l.Claim(salesID, s.now()); err != nil {
			if s.metrics != nil {
				s.metrics.ObserveClaimConflict()
			}
			return err
		}
		if err := tx.UpdateLead(ctx, *l); err != nil {
			return infra(err, "update lead")
		}
		if err := s.record(ctx, tx, *l, salesID, ActionClaim, before, snapshot(*l)); err != nil {
			return err
		}
		lead = *l
		return nil
	})
	if err != nil {
		return domain.Lead{}, err
	}

	s.log.LeadTransition("claim", tenantID.String(), id.String(), string(domain.StatusPendingAssignment), string(lead.Status))
	s.publish(ctx, events.LeadAssigned{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    id,
		TenantID:  tenantID,
		ActorID:   salesID,
		SalesID:   salesID,
		Source:    events.AssignSourceClaim,
	})
	return lead, nil
}

// AssignLead sets the owner of any non-terminal lead, replacing a current
// owner. salesID must be an active sales user of the tenant.
func (s *Service) AssignLead(ctx context.Context, id, salesID, tenantID, actorID uuid.UUID, reason *string) (lead domain.Lead, err error) {
	defer s.observe("assign", &err)

	reason = trimmed(reason)
	if err := s.requireActiveSales(ctx, tenantID, salesID); err != nil {
		return domain.Lead{}, err
	}

	var (
		previous   *uuid.UUID
		fromStatus domain.Status
	)
	err = s.withLockedLead(ctx, id, tenantID, func(tx repository.Tx, l *domain.Lead) error {
		previous, fromStatus = l.AssignedSalesID, l.Status
		before := snapshot(*l)
		if err := l.Assign(salesID, s.now()); err != nil {
			return err
		}
		if err := tx.UpdateLead(ctx, *l); err != nil {
			return infra(err, "update lead")
		}
		after := snapshot(*l)
		if reason != nil {
			after["reason"] = *reason
		}
		if err := s.record(ctx, tx, *l, actorID, ActionAssign, before, after); err != nil {
			return err
		}
		lead = *l
		return nil
	})
	if err != nil {
		return domain.Lead{}, err
	}

	s.log.LeadTransition("assign", tenantID.String(), id.String(), string(fromStatus), string(lead.Status))
	s.publish(ctx, events.LeadAssigned{
		BaseEvent:       events.NewBaseEvent(),
		LeadID:          id,
		TenantID:        tenantID,
		ActorID:         actorID,
		SalesID:         salesID,
		PreviousSalesID: previous,
		Source:          events.AssignSourceManual,
		Reason:          reason,
	})
	return lead, nil
}

// ReleaseToPool returns an assigned, non-terminal lead to the pool. Without
// force only the current owner may release it.
func (s *Service) ReleaseToPool(ctx context.Context, id, tenantID, actorID uuid.UUID, force bool) (err error) {
	defer s.observe("release", &err)

	return s.release(ctx, id, tenantID, actorID, force, func(l *domain.Lead) error {
		return requireOwner(l, actorID, force)
	})
}

// ReleaseIfStale is the reclaim path of the stale-lead sweeper. The lead is
// released by the system only if, under the row lock, it is still owned by
// expectedOwner and was last touched before cutoff.
func (s *Service) ReleaseIfStale(ctx context.Context, id, tenantID uuid.UUID, cutoff time.Time, expectedOwner uuid.UUID) (err error) {
	defer s.observe("reclaim", &err)

	return s.release(ctx, id, tenantID, domain.SystemActorID, true, func(l *domain.Lead) error {
		return l.CheckReclaimable(cutoff, expectedOwner)
	})
}

func (s *Service) release(ctx context.Context, id, tenantID, actorID uuid.UUID, force bool, check func(*domain.Lead) error) error {
	var (
		previous   uuid.UUID
		fromStatus domain.Status
	)
	err := s.withLockedLead(ctx, id, tenantID, func(tx repository.Tx, l *domain.Lead) error {
		if err := l.CheckMutable(); err != nil {
			return err
		}
		if err := check(l); err != nil {
			return err
		}
		before := snapshot(*l)
		fromStatus = l.Status
		if l.AssignedSalesID != nil {
			previous = *l.AssignedSalesID
		}
		if err := l.Release(s.now()); err != nil {
			return err
		}
		if err := tx.UpdateLead(ctx, *l); err != nil {
			return infra(err, "update lead")
		}
		after := snapshot(*l)
		after["forced"] = force
		return s.record(ctx, tx, *l, actorID, ActionRelease, before, after)
	})
	if err != nil {
		return err
	}

	s.log.LeadTransition("release", tenantID.String(), id.String(), string(fromStatus), string(domain.StatusPendingAssignment))
	s.publish(ctx, events.LeadReleased{
		BaseEvent:       events.NewBaseEvent(),
		LeadID:          id,
		TenantID:        tenantID,
		ActorID:         actorID,
		PreviousSalesID: previous,
		Forced:          force,
	})
	return nil
}

func (s *Service) requireActiveSales(ctx context.Context, tenantID, salesID uuid.UUID) error {
	active, err := s.isActiveSales(ctx, tenantID, salesID)
	if err != nil {
		return err
	}
	if !active {
		return apperr.Validation("sales user is not active in this tenant")
	}
	return nil
}

// isActiveSales reports true when no directory is configured.
func (s *Service) isActiveSales(ctx context.Context, tenantID, salesID uuid.UUID) (bool, error) {
	if s.directory == nil {
		return true, nil
	}
	users, err := s.directory.ListActiveSalesUsers(ctx, tenantID, nil)
	if err != nil {
		return false, infra(err, "list sales users")
	}
	return slices.ContainsFunc(users, func(u domain.SalesUser) bool { return u.ID == salesID }), nil
}

package lifecycle

import (
	"context"
	"strings"

	"salescrm_backend/internal/events"
	"salescrm_backend/internal/leads/domain"
	"salescrm_backend/internal/leads/ports"
	"salescrm_backend/internal/leads/repository"
	"salescrm_backend/platform/apperr"

	"github.com/google/uuid"
)

// CustomerOverrides replace lead attributes on the created customer.
type CustomerOverrides struct {
	Name    *string
	Phone   *string
	Wechat  *string
	Address *string
}

// VoidLead closes a non-terminal lead as VOID. A reason is mandatory. Without
// force an assigned lead may only be voided by its owner.
func (s *Service) VoidLead(ctx context.Context, id uuid.UUID, reason string, tenantID, actorID uuid.UUID, force bool) (err error) {
	defer s.observe("void", &err)

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperr.Policy("void reason is required")
	}

	var fromStatus domain.Status
	err = s.withLockedLead(ctx, id, tenantID, func(tx repository.Tx, l *domain.Lead) error {
		if err := l.CheckMutable(); err != nil {
			return err
		}
		if err := requireOwner(l, actorID, force); err != nil {
			return err
		}
		fromStatus = l.Status
		before := snapshot(*l)
		if err := l.Void(reason, s.now()); err != nil {
			return err
		}
		if err := tx.UpdateLead(ctx, *l); err != nil {
			return infra(err, "update lead")
		}
		after := snapshot(*l)
		after["forced"] = force
		return s.record(ctx, tx, *l, actorID, ActionVoid, before, after)
	})
	if err != nil {
		return err
	}

	s.log.LeadTransition("void", tenantID.String(), id.String(), string(fromStatus), string(domain.StatusVoid))
	s.publish(ctx, events.LeadVoided{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    id,
		TenantID:  tenantID,
		ActorID:   actorID,
		Reason:    reason,
	})
	return nil
}

// ConvertLead creates a customer from a non-terminal lead and marks it WON.
// The customer and the status change commit together.
func (s *Service) ConvertLead(ctx context.Context, id uuid.UUID, overrides *CustomerOverrides, tenantID, actorID uuid.UUID) (customerID uuid.UUID, err error) {
	defer s.observe("convert", &err)

	var fromStatus domain.Status
	err = s.withLockedLead(ctx, id, tenantID, func(tx repository.Tx, l *domain.Lead) error {
		if err := l.CheckMutable(); err != nil {
			return err
		}
		fromStatus = l.Status
		before := snapshot(*l)

		attrs := customerAttributes(*l, overrides, actorID)
		if attrs.Name == "" || attrs.Phone == "" {
			return apperr.Validation("customer name and phone must not be empty")
		}
		created, err := s.customers.CreateCustomer(ctx, tx, tenantID, attrs)
		if err != nil {
			return infra(err, "create customer")
		}
		if err := l.MarkWon(created, actorID, s.now()); err != nil {
			return err
		}
		if err := tx.UpdateLead(ctx, *l); err != nil {
			return infra(err, "update lead")
		}
		if err := s.record(ctx, tx, *l, actorID, ActionConvert, before, snapshot(*l)); err != nil {
			return err
		}
		customerID = created
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.log.LeadTransition("convert", tenantID.String(), id.String(), string(fromStatus), string(domain.StatusWon))
	s.publish(ctx, events.LeadConverted{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     id,
		TenantID:   tenantID,
		ActorID:    actorID,
		CustomerID: customerID,
	})
	return customerID, nil
}

func customerAttributes(l domain.Lead, o *CustomerOverrides, actorID uuid.UUID) ports.CustomerAttributes {
	attrs := ports.CustomerAttributes{
		Name:         l.CustomerName,
		Phone:        l.CustomerPhone,
		Wechat:       l.CustomerWechat,
		Address:      l.Address,
		SourceLeadID: l.ID,
		OwnerSalesID: l.AssignedSalesID,
		CreatedBy:    actorID,
	}
	if l.AssignedSalesID == nil {
		attrs.OwnerSalesID = &actorID
	}
	if o == nil {
		return attrs
	}
	if o.Name != nil {
		attrs.Name = strings.TrimSpace(*o.Name)
	}
	if o.Phone != nil {
		attrs.Phone = strings.TrimSpace(*o.Phone)
	}
	if v := trimmed(o.Wechat); v != nil {
		attrs.Wechat = v
	}
	if v := trimmed(o.Address); v != nil {
		attrs.Address = v
	}
	return attrs
}

package lifecycle

import (
	"context"
	"errors"
	"math"
	"strings"

	"salescrm_backend/internal/events"
	"salescrm_backend/internal/leads/domain"
	"salescrm_backend/internal/leads/repository"
	"salescrm_backend/internal/leads/scoring"
	"salescrm_backend/platform/apperr"

	"github.com/google/uuid"
)

// CreateLeadInput is the caller-supplied data for a new lead.
type CreateLeadInput struct {
	CustomerName    string
	CustomerPhone   string
	CustomerWechat  *string
	Address         *string
	Notes           *string
	ChannelID       *uuid.UUID
	ContactID       *uuid.UUID
	Source          *string
	IntentLevel     *string
	EstimatedAmount *float64
}

// CreateLeadResult is the stored or linked lead.
type CreateLeadResult struct {
	Lead            domain.Lead
	IsDuplicate     bool
	DuplicateReason string
}

// CreateLead stores a new lead, or links to the tenant's active lead with the
// same phone when the dedup strategy is AUTO_LINK. With ROUND_ROBIN the lead
// is assigned in the same transaction; finding no eligible sales user leaves
// it in the pool.
func (s *Service) CreateLead(ctx context.Context, in CreateLeadInput, tenantID, actorID uuid.UUID) (result CreateLeadResult, err error) {
	defer s.observe("create", &err)

	lead, err := s.newLead(in, tenantID)
	if err != nil {
		return CreateLeadResult{}, err
	}

	policy, err := s.policy.Resolve(ctx, tenantID)
	if err != nil {
		return CreateLeadResult{}, infra(err, "resolve distribution policy")
	}

	var assignedTo *uuid.UUID
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		assignedTo = nil

		if policy.Dedup == domain.DedupAutoLink {
			existing, found, err := s.findDuplicate(ctx, tx, tenantID, lead.CustomerPhone)
			if err != nil {
				return err
			}
			if found {
				result = CreateLeadResult{Lead: existing, IsDuplicate: true, DuplicateReason: domain.DuplicateReasonPhone}
				return s.record(ctx, tx, existing, actorID, ActionDedupLink, nil, map[string]any{
					"customer_name":  lead.CustomerName,
					"customer_phone": lead.CustomerPhone,
					"reason":         domain.DuplicateReasonPhone,
				})
			}
		}

		created := lead.Clone()
		if err := tx.InsertLead(ctx, &created); err != nil {
			return infra(err, "insert lead")
		}
		if err := s.record(ctx, tx, created, actorID, ActionCreate, nil, createdValues(created)); err != nil {
			return err
		}

		if policy.Assign == domain.AssignRoundRobin {
			assignment, err := s.distributor.NextInTx(ctx, tx, tenantID, created.ChannelID)
			if err != nil {
				return infra(err, "distribute lead")
			}
			if assignment != nil {
				before := snapshot(created)
				if err := created.Assign(assignment.SalesID, s.now()); err != nil {
					return err
				}
				if err := tx.UpdateLead(ctx, created); err != nil {
					return infra(err, "update lead")
				}
				after := snapshot(created)
				after["scope"] = assignment.ScopeKey
				if err := s.record(ctx, tx, created, actorID, ActionAutoAssign, before, after); err != nil {
					return err
				}
				assignedTo = &assignment.SalesID
			}
		}

		result = CreateLeadResult{Lead: created}
		return nil
	})
	if err != nil {
		return CreateLeadResult{}, infra(err, "commit lead transaction")
	}

	if result.IsDuplicate {
		s.log.Info("lead linked to existing lead", "tenant_id", tenantID.String(), "lead_id", result.Lead.ID.String())
		return result, nil
	}

	created := result.Lead
	s.log.LeadTransition("create", tenantID.String(), created.ID.String(), "", string(created.Status))
	s.publish(ctx, events.LeadCreated{
		BaseEvent:       events.NewBaseEvent(),
		LeadID:          created.ID,
		TenantID:        tenantID,
		ActorID:         actorID,
		Score:           created.Score,
		ChannelID:       created.ChannelID,
		AssignedSalesID: assignedTo,
	})
	if assignedTo != nil {
		s.publish(ctx, events.LeadAssigned{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    created.ID,
			TenantID:  tenantID,
			ActorID:   actorID,
			SalesID:   *assignedTo,
			Source:    events.AssignSourceAuto,
		})
	}
	return result, nil
}

// findDuplicate serialises creates for the phone, then looks for an active lead.
func (s *Service) findDuplicate(ctx context.Context, tx repository.Tx, tenantID uuid.UUID, phone string) (domain.Lead, bool, error) {
	if err := tx.LockPhone(ctx, tenantID, phone); err != nil {
		return domain.Lead{}, false, infra(err, "lock phone")
	}
	existing, err := tx.FindActiveByPhone(ctx, tenantID, phone)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Lead{}, false, nil
	}
	if err != nil {
		return domain.Lead{}, false, infra(err, "find lead by phone")
	}
	return existing, true, nil
}

// newLead validates the input and builds the unsaved lead.
func (s *Service) newLead(in CreateLeadInput, tenantID uuid.UUID) (domain.Lead, error) {
	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		return domain.Lead{}, apperr.Validation("customer name is required")
	}
	phoneNumber := s.phones.Normalize(in.CustomerPhone)
	if phoneNumber == "" {
		return domain.Lead{}, apperr.Validation("customer phone is required")
	}
	amount, err := estimatedAmount(in.EstimatedAmount)
	if err != nil {
		return domain.Lead{}, err
	}

	lead := domain.Lead{
		TenantID:        tenantID,
		CustomerName:    name,
		CustomerPhone:   phoneNumber,
		CustomerWechat:  trimmed(in.CustomerWechat),
		Address:         trimmed(in.Address),
		Notes:           trimmed(in.Notes),
		ChannelID:       in.ChannelID,
		ContactID:       in.ContactID,
		Source:          trimmed(in.Source),
		IntentLevel:     trimmed(in.IntentLevel),
		Status:          domain.StatusPendingAssignment,
		EstimatedAmount: amount,
	}
	lead.Score = scoring.Score(scoring.Input{
		Source:          deref(lead.Source),
		IntentLevel:     deref(lead.IntentLevel),
		EstimatedAmount: lead.EstimatedAmount,
		HasWechat:       lead.CustomerWechat != nil,
		HasAddress:      lead.Address != nil,
		HasChannel:      lead.ChannelID != nil,
		Notes:           deref(lead.Notes),
	}).Score
	return lead, nil
}

// estimatedAmount checks the amount fits the stored numeric(14,2) and rounds
// it to cents, so the stored value equals the returned one.
func estimatedAmount(v *float64) (*float64, error) {
	if v == nil {
		return nil, nil
	}
	switch {
	case math.IsNaN(*v) || math.IsInf(*v, 0):
		return nil, apperr.Validation("estimated amount must be a finite number")
	case *v < 0:
		return nil, apperr.Validation("estimated amount must not be negative")
	case *v > domain.MaxEstimatedAmount:
		return nil, apperr.Validation("estimated amount is too large")
	}
	rounded := math.Round(*v*100) / 100
	return &rounded, nil
}

func createdValues(l domain.Lead) map[string]any {
	return map[string]any{
		"customer_name":    l.CustomerName,
		"customer_phone":   l.CustomerPhone,
		"channel_id":       l.ChannelID,
		"source":           l.Source,
		"status":           string(l.Status),
		"score":            l.Score,
		"estimated_amount": l.EstimatedAmount,
	}
}

// trimmed returns nil for nil or blank values.
func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

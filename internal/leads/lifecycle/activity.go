package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"salescrm_backend/internal/leads/domain"
	"salescrm_backend/internal/leads/repository"
	"salescrm_backend/platform/apperr"

	"github.com/google/uuid"
)

// ActivityInput is a follow-up record. StatusOverride must be explicit; the
// lead status never changes as a side effect of the activity type.
type ActivityInput struct {
	Type           string
	Content        string
	NextFollowupAt *time.Time
	StatusOverride *domain.Status
}

// AddActivity appends an activity and copies its scheduling and status
// override onto the lead in the same transaction.
func (s *Service) AddActivity(ctx context.Context, id uuid.UUID, in ActivityInput, tenantID, actorID uuid.UUID) (activity domain.Activity, err error) {
	defer s.observe("add_activity", &err)

	activity = domain.Activity{
		LeadID:          id,
		TenantID:        tenantID,
		Type:            strings.ToUpper(strings.TrimSpace(in.Type)),
		Content:         strings.TrimSpace(in.Content),
		CreatedByUserID: actorID,
		NextFollowupAt:  in.NextFollowupAt,
		StatusOverride:  in.StatusOverride,
	}
	if activity.Type == "" {
		return domain.Activity{}, apperr.Validation("activity type is required")
	}
	if activity.Content == "" {
		return domain.Activity{}, apperr.Validation("activity content is required")
	}
	if in.StatusOverride != nil && !in.StatusOverride.IsOverridable() {
		return domain.Activity{}, apperr.Validation("status override must be PENDING_FOLLOWUP or FOLLOWING_UP")
	}

	var fromStatus, toStatus domain.Status
	err = s.withLockedLead(ctx, id, tenantID, func(tx repository.Tx, l *domain.Lead) error {
		fromStatus = l.Status
		before := snapshot(*l)
		if err := l.ApplyActivity(activity, s.now()); err != nil {
			return err
		}
		if err := tx.InsertActivity(ctx, &activity); err != nil {
			return infra(err, "insert activity")
		}
		if err := tx.UpdateLead(ctx, *l); err != nil {
			return infra(err, "update lead")
		}
		after := snapshot(*l)
		after["activity_id"] = activity.ID
		after["activity_type"] = activity.Type
		toStatus = l.Status
		return s.record(ctx, tx, *l, actorID, ActionAddActivity, before, after)
	})
	if err != nil {
		return domain.Activity{}, err
	}

	if fromStatus != toStatus {
		s.log.LeadTransition("add_activity", tenantID.String(), id.String(), string(fromStatus), string(toStatus))
	}
	return activity, nil
}

// ListActivities returns the lead's activities, oldest first.
func (s *Service) ListActivities(ctx context.Context, id, tenantID uuid.UUID) ([]domain.Activity, error) {
	items, err := s.store.ListActivities(ctx, id, tenantID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound(msgLeadNotFound)
	}
	if err != nil {
		return nil, infra(err, "list activities")
	}
	return items, nil
}

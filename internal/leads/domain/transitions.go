package domain

import (
	"strings"
	"time"

	"salescrm_backend/platform/apperr"

	"github.com/google/uuid"
)

const (
	msgNotClaimable  = "lead is not pending assignment or has already been claimed"
	msgTerminal      = "lead is closed and can no longer be changed"
	msgNotAssigned   = "lead is not assigned"
	msgReasonMissing = "void reason is required"
	msgOwnerChanged  = "lead owner changed since it was found stale"
	msgNotStale      = "lead was touched after the stale cutoff"
)

// CheckMutable rejects any change to a terminal lead.
func (l *Lead) CheckMutable() error {
	if l.Status.IsTerminal() {
		return apperr.StateConflict(msgTerminal)
	}
	return nil
}

// Claim gives a pooled lead to salesID.
func (l *Lead) Claim(salesID uuid.UUID, now time.Time) error {
	if !l.IsPooled() {
		return apperr.StateConflict(msgNotClaimable)
	}
	l.AssignedSalesID = &salesID
	l.Status = StatusPendingFollowup
	l.UpdatedAt = now
	return nil
}

// Assign sets the owner of a non-terminal lead. A pooled lead moves to
// PENDING_FOLLOWUP; otherwise the status is kept.
func (l *Lead) Assign(salesID uuid.UUID, now time.Time) error {
	if l.Status.IsTerminal() {
		return apperr.StateConflict(msgTerminal)
	}
	l.AssignedSalesID = &salesID
	if l.Status == StatusPendingAssignment {
		l.Status = StatusPendingFollowup
	}
	l.UpdatedAt = now
	return nil
}

// ApplyActivity copies an activity's scheduling and status override onto the lead.
func (l *Lead) ApplyActivity(a Activity, now time.Time) error {
	if l.Status.IsTerminal() {
		return apperr.StateConflict(msgTerminal)
	}
	if a.StatusOverride != nil && *a.StatusOverride != l.Status {
		override := *a.StatusOverride
		if !override.IsOverridable() {
			return apperr.Validation("status override must be PENDING_FOLLOWUP or FOLLOWING_UP")
		}
		if l.AssignedSalesID == nil {
			return apperr.StateConflict(msgNotAssigned)
		}
		l.Status = override
	}
	if a.NextFollowupAt != nil {
		next := *a.NextFollowupAt
		l.NextFollowupAt = &next
	}
	l.LastActivityAt = &now
	l.UpdatedAt = now
	return nil
}

// Void closes the lead with a reason.
func (l *Lead) Void(reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperr.Policy(msgReasonMissing)
	}
	if l.Status.IsTerminal() {
		return apperr.StateConflict(msgTerminal)
	}
	l.Status = StatusVoid
	l.VoidReason = &reason
	l.AssignedSalesID = nil
	l.NextFollowupAt = nil
	l.UpdatedAt = now
	return nil
}

// Release returns an assigned lead to the pool.
func (l *Lead) Release(now time.Time) error {
	if l.Status.IsTerminal() {
		return apperr.StateConflict(msgTerminal)
	}
	if l.AssignedSalesID == nil {
		return apperr.StateConflict(msgNotAssigned)
	}
	l.AssignedSalesID = nil
	l.Status = StatusPendingAssignment
	l.NextFollowupAt = nil
	l.UpdatedAt = now
	return nil
}

// CheckReclaimable confirms a lead found stale earlier is still owned by
// expectedOwner and has not been touched since cutoff.
func (l *Lead) CheckReclaimable(cutoff time.Time, expectedOwner uuid.UUID) error {
	if err := l.CheckMutable(); err != nil {
		return err
	}
	if !l.IsOwnedBy(expectedOwner) {
		return apperr.StateConflict(msgOwnerChanged)
	}
	if !l.LastTouched().Before(cutoff) {
		return apperr.StateConflict(msgNotStale)
	}
	return nil
}

// MarkWon records the conversion to customerID. A pooled lead is won by the
// converting user, who becomes its owner.
func (l *Lead) MarkWon(customerID, actorID uuid.UUID, now time.Time) error {
	if err := l.CheckMutable(); err != nil {
		return err
	}
	if l.AssignedSalesID == nil {
		l.AssignedSalesID = &actorID
	}
	l.Status = StatusWon
	l.ConvertedCustomerID = &customerID
	l.NextFollowupAt = nil
	l.UpdatedAt = now
	return nil
}

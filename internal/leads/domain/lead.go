// Package domain holds the lead lifecycle types and the state machine rules
// shared by the repository, distribution and lifecycle packages.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DuplicateReasonPhone marks a create that was linked to an existing lead by phone.
const DuplicateReasonPhone = "PHONE"

// MaxEstimatedAmount is the largest amount the numeric(14,2) column holds.
const MaxEstimatedAmount = 999999999999.99

// SystemActorID identifies mutations made by background jobs.
var SystemActorID = uuid.Nil

// Lead is a tenant-scoped sales inquiry.
type Lead struct {
	ID                  uuid.UUID
	TenantID            uuid.UUID
	CustomerName        string
	CustomerPhone       string
	CustomerWechat      *string
	Address             *string
	Notes               *string
	ChannelID           *uuid.UUID
	ContactID           *uuid.UUID
	Source              *string
	IntentLevel         *string
	Status              Status
	AssignedSalesID     *uuid.UUID
	Score               int
	EstimatedAmount     *float64
	VoidReason          *string
	ConvertedCustomerID *uuid.UUID
	LastActivityAt      *time.Time
	NextFollowupAt      *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsPooled reports whether the lead sits in the shared pool.
func (l Lead) IsPooled() bool {
	return l.Status == StatusPendingAssignment && l.AssignedSalesID == nil
}

// IsOwnedBy reports whether salesID is the current owner.
func (l Lead) IsOwnedBy(salesID uuid.UUID) bool {
	return l.AssignedSalesID != nil && *l.AssignedSalesID == salesID
}

// LastTouched is the last activity time, or the last update when the lead
// has no activity yet.
func (l Lead) LastTouched() time.Time {
	if l.LastActivityAt != nil {
		return *l.LastActivityAt
	}
	return l.UpdatedAt
}

// Clone returns a copy that shares no pointers with l.
func (l Lead) Clone() Lead {
	out := l
	out.CustomerWechat = cloneString(l.CustomerWechat)
	out.Address = cloneString(l.Address)
	out.Notes = cloneString(l.Notes)
	out.ChannelID = cloneUUID(l.ChannelID)
	out.ContactID = cloneUUID(l.ContactID)
	out.Source = cloneString(l.Source)
	out.IntentLevel = cloneString(l.IntentLevel)
	out.AssignedSalesID = cloneUUID(l.AssignedSalesID)
	out.VoidReason = cloneString(l.VoidReason)
	out.ConvertedCustomerID = cloneUUID(l.ConvertedCustomerID)
	out.LastActivityAt = cloneTime(l.LastActivityAt)
	out.NextFollowupAt = cloneTime(l.NextFollowupAt)
	if l.EstimatedAmount != nil {
		v := *l.EstimatedAmount
		out.EstimatedAmount = &v
	}
	return out
}

// Activity is an append-only follow-up record on a lead.
type Activity struct {
	ID              uuid.UUID
	LeadID          uuid.UUID
	TenantID        uuid.UUID
	Type            string
	Content         string
	CreatedByUserID uuid.UUID
	NextFollowupAt  *time.Time
	StatusOverride  *Status
	CreatedAt       time.Time
}

// SalesUser is a distribution candidate.
type SalesUser struct {
	ID   uuid.UUID
	Name string
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneUUID(v *uuid.UUID) *uuid.UUID {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Package events defines the lead lifecycle events published after commit.
package events

import (
	"salescrm_backend/platform/events"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Publisher   = events.Publisher
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Lifecycle Events
// =============================================================================

// Assignment sources carried by LeadAssigned.
const (
	AssignSourceAuto   = "auto"
	AssignSourceClaim  = "claim"
	AssignSourceManual = "manual"
)

// LeadCreated is published after a new lead row commits.
type LeadCreated struct {
	BaseEvent
	LeadID          uuid.UUID  `json:"leadId"`
	TenantID        uuid.UUID  `json:"tenantId"`
	ActorID         uuid.UUID  `json:"actorId"`
	Score           int        `json:"score"`
	ChannelID       *uuid.UUID `json:"channelId,omitempty"`
	AssignedSalesID *uuid.UUID `json:"assignedSalesId,omitempty"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadAssigned is published when a lead gets a new owner.
type LeadAssigned struct {
	BaseEvent
	LeadID          uuid.UUID  `json:"leadId"`
	TenantID        uuid.UUID  `json:"tenantId"`
	ActorID         uuid.UUID  `json:"actorId"`
	SalesID         uuid.UUID  `json:"salesId"`
	PreviousSalesID *uuid.UUID `json:"previousSalesId,omitempty"`
	Source          string     `json:"source"`
	Reason          *string    `json:"reason,omitempty"`
}

func (e LeadAssigned) EventName() string { return "leads.lead.assigned" }

// LeadReleased is published when a lead returns to the pool.
type LeadReleased struct {
	BaseEvent
	LeadID          uuid.UUID `json:"leadId"`
	TenantID        uuid.UUID `json:"tenantId"`
	ActorID         uuid.UUID `json:"actorId"`
	PreviousSalesID uuid.UUID `json:"previousSalesId"`
	Forced          bool      `json:"forced"`
}

func (e LeadReleased) EventName() string { return "leads.lead.released" }

// LeadVoided is published when a lead is closed as VOID.
type LeadVoided struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	TenantID uuid.UUID `json:"tenantId"`
	ActorID  uuid.UUID `json:"actorId"`
	Reason   string    `json:"reason"`
}

func (e LeadVoided) EventName() string { return "leads.lead.voided" }

// LeadConverted is published when a lead is won and a customer exists.
type LeadConverted struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	TenantID   uuid.UUID `json:"tenantId"`
	ActorID    uuid.UUID `json:"actorId"`
	CustomerID uuid.UUID `json:"customerId"`
}

func (e LeadConverted) EventName() string { return "leads.lead.converted" }

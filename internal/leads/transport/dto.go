package transport

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs
type CreateLeadRequest struct {
	CustomerName    string     `json:"customerName" validate:"required,min=1,max=100"`
	CustomerPhone   string     `json:"customerPhone" validate:"required,min=5,max=32"`
	CustomerWechat  *string    `json:"customerWechat,omitempty" validate:"omitempty,max=64"`
	Address         *string    `json:"address,omitempty" validate:"omitempty,max=300"`
	Notes           *string    `json:"notes,omitempty" validate:"omitempty,max=4000"`
	ChannelID       *uuid.UUID `json:"channelId,omitempty"`
	ContactID       *uuid.UUID `json:"contactId,omitempty"`
	Source          *string    `json:"source,omitempty" validate:"omitempty,max=100"`
	IntentLevel     *string    `json:"intentLevel,omitempty" validate:"omitempty,oneof=HIGH MEDIUM LOW"`
	EstimatedAmount *float64   `json:"estimatedAmount,omitempty" validate:"omitempty,gte=0,lte=999999999999.99"`
}

type AssignLeadRequest struct {
	SalesID uuid.UUID `json:"salesId" validate:"required"`
	Reason  *string   `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type AddActivityRequest struct {
	Type           string     `json:"type" validate:"required,min=1,max=32"`
	Content        string     `json:"content" validate:"required,min=1,max=4000"`
	NextFollowupAt *time.Time `json:"nextFollowupAt,omitempty"`
	StatusOverride *string    `json:"statusOverride,omitempty" validate:"omitempty,oneof=PENDING_FOLLOWUP FOLLOWING_UP"`
}

// VoidLeadRequest leaves Reason unvalidated; an empty reason is a policy
// violation reported by the lifecycle service.
type VoidLeadRequest struct {
	Reason string `json:"reason" validate:"max=500"`
	Force  bool   `json:"force"`
}

type ReleaseLeadRequest struct {
	Force bool `json:"force"`
}

type ConvertLeadRequest struct {
	CustomerName   *string `json:"customerName,omitempty" validate:"omitempty,min=1,max=100"`
	CustomerPhone  *string `json:"customerPhone,omitempty" validate:"omitempty,min=5,max=32"`
	CustomerWechat *string `json:"customerWechat,omitempty" validate:"omitempty,max=64"`
	Address        *string `json:"address,omitempty" validate:"omitempty,max=300"`
}

type DistributeRequest struct {
	ChannelID *uuid.UUID `json:"channelId,omitempty"`
}

type ListPoolRequest struct {
	Limit  int `form:"limit" validate:"omitempty,min=1,max=200"`
	Offset int `form:"offset" validate:"omitempty,min=0"`
}

// Response DTOs
type LeadResponse struct {
	ID                  uuid.UUID  `json:"id"`
	CustomerName        string     `json:"customerName"`
	CustomerPhone       string     `json:"customerPhone"`
	CustomerWechat      *string    `json:"customerWechat,omitempty"`
	Address             *string    `json:"address,omitempty"`
	Notes               *string    `json:"notes,omitempty"`
	ChannelID           *uuid.UUID `json:"channelId,omitempty"`
	ContactID           *uuid.UUID `json:"contactId,omitempty"`
	Source              *string    `json:"source,omitempty"`
	IntentLevel         *string    `json:"intentLevel,omitempty"`
	Status              string     `json:"status"`
	AssignedSalesID     *uuid.UUID `json:"assignedSalesId,omitempty"`
	Score               int        `json:"score"`
	EstimatedAmount     *float64   `json:"estimatedAmount,omitempty"`
	VoidReason          *string    `json:"voidReason,omitempty"`
	ConvertedCustomerID *uuid.UUID `json:"convertedCustomerId,omitempty"`
	LastActivityAt      *time.Time `json:"lastActivityAt,omitempty"`
	NextFollowupAt      *time.Time `json:"nextFollowupAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

type CreateLeadResponse struct {
	Lead            LeadResponse `json:"lead"`
	IsDuplicate     bool         `json:"isDuplicate"`
	DuplicateReason string       `json:"duplicateReason,omitempty"`
}

type LeadListResponse struct {
	Items  []LeadResponse `json:"items"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type ActivityResponse struct {
	ID              uuid.UUID  `json:"id"`
	LeadID          uuid.UUID  `json:"leadId"`
	Type            string     `json:"type"`
	Content         string     `json:"content"`
	CreatedByUserID uuid.UUID  `json:"createdByUserId"`
	NextFollowupAt  *time.Time `json:"nextFollowupAt,omitempty"`
	StatusOverride  *string    `json:"statusOverride,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type ActivityListResponse struct {
	Items []ActivityResponse `json:"items"`
}

type ConvertLeadResponse struct {
	CustomerID uuid.UUID `json:"customerId"`
}

// DistributionResponse has Assigned=false when no eligible sales user exists.
type DistributionResponse struct {
	Assigned  bool       `json:"assigned"`
	SalesID   *uuid.UUID `json:"salesId,omitempty"`
	SalesName string     `json:"salesName,omitempty"`
	Scope     string     `json:"scope,omitempty"`
}

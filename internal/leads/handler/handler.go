package handler

import (
	"context"
	"net/http"

	"salescrm_backend/internal/leads/distribution"
	"salescrm_backend/internal/leads/domain"
	"salescrm_backend/internal/leads/lifecycle"
	"salescrm_backend/internal/leads/transport"
	"salescrm_backend/platform/httpkit"
	"salescrm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgLeadNotFound     = "lead not found"

	// RoleManager may assign leads, trigger distribution and force void/release.
	RoleManager = "manager"
)

// Distributor picks the next sales user outside a lead transaction.
type Distributor interface {
	DistributeToNextSales(ctx context.Context, tenantID uuid.UUID, channelID *uuid.UUID) (*distribution.Assignment, error)
}

// Handler exposes the lead lifecycle over HTTP.
type Handler struct {
	svc         *lifecycle.Service
	distributor Distributor
	val         *validator.Validator
}

func New(svc *lifecycle.Service, distributor Distributor, val *validator.Validator) *Handler {
	return &Handler{svc: svc, distributor: distributor, val: val}
}

// RegisterRoutes registers the lead routes on an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	managerOnly := httpkit.RequireRole(RoleManager)

	rg.POST("", h.Create)
	rg.GET("/pool", h.ListPool)
	rg.POST("/distribution/next", managerOnly, h.DistributeNext)
	rg.GET("/:id", h.GetByID)
	rg.GET("/:id/activities", h.ListActivities)
	rg.POST("/:id/activities", h.AddActivity)
	rg.POST("/:id/claim", h.Claim)
	rg.PUT("/:id/assign", managerOnly, h.Assign)
	rg.POST("/:id/void", h.Void)
	rg.POST("/:id/release", h.Release)
	rg.POST("/:id/convert", h.Convert)
}

func (h *Handler) Create(c *gin.Context) {
	identity, tenantID := httpkit.MustGetTenant(c)
	if identity == nil {
		return
	}

	var req transport.CreateLeadRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.CreateLead(c.Request.Context(), lifecycle.CreateLeadInput{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerWechat:  req.CustomerWechat,
		Address:         req.Address,
		Notes:           req.Notes,
		ChannelID:       req.ChannelID,
		ContactID:       req.ContactID,
		Source:          req.Source,
		IntentLevel:     req.IntentLevel,
		EstimatedAmount: req.EstimatedAmount,
	}, tenantID, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	status := http.StatusCreated
	if result.IsDuplicate {
		status = http.StatusOK
	}
	httpkit.JSON(c, status, transport.CreateLeadResponse{
		Lead:            transport.ToLeadResponse(result.Lead),
		IsDuplicate:     result.IsDuplicate,
		DuplicateReason: result.DuplicateReason,
	})
}

func (h *Handler) GetByID(c *gin.Context) {
	identity, tenantID := httpkit.MustGetTenant(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	lead, err := h.svc.GetLead(c.Request.Context(), id, tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	if lead == nil {
		httpkit.Error(c, http.StatusNotFound, msgLeadNotFound, nil)
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(*lead))
}

func (h *Handler) ListPool(c *gin.Context) {
	identity, tenantID := httpkit.MustGetTenant(c)
	if identity == nil {
		return
	}

	var req transport.ListPoolRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	items, err := h.svc.ListPool(c.Request.Context(), tenantID, req.Limit, req.Offset)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.LeadListResponse{Items: transport.ToLeadResponses(items), Limit: req.Limit, Offset: req.Offset})
}

func (h *Handler) Claim(c *gin.Context) {
	identity, tenantID := httpkit.MustGetTenant(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	lead, err := h.svc.ClaimFromPool(c.Request.Context(), id, tenantID, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) Assign(c *gin.Context) {
	identity, tenantID := httpkit.MustGetTenant(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.AssignLeadRequest
	if !h.bind(c, &req) {
		return
	}

	lead, err := h.svc.AssignLead(c.Request.Context(), id, req.SalesID, tenantID, identity.UserID(), req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) AddActivity(c *gin.Context) {
	identity, tenantID := httpkit.MustGetTenant(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.AddActivityRequest
	if !h.bind(c, &req) {
		return
	}

	in := lifecycle.ActivityInput{
		Type:           req.Type,
		Content:        req.Content,
		NextFollowupAt: req.NextFollowupAt,
	}
	if req.StatusOverride != nil {
		status, ok := domain.ParseStatus(*req.StatusOverride)
		if !ok {
			httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, map[string]string{"statusOverride": "oneof"})
			return
		}
		in.StatusOverride = &status
	}

	activity, err := h.svc.AddActivity(c.Request.Context(), id, in, tenantID, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToActivityResponse(activity))
}

func (h *Handler) ListActivities(c *gin.Context) {
	identity, tenantID := httpkit.MustGetTenant(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	items, err := h.svc.ListActivities(c.Request.Context(), id, tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ActivityListResponse{Items: transport.ToActivityResponses(items)})
}

func (h *Handler) Void(c *gin.Context) {
	identity, tenantID := httpkit.MustGetTenant(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.VoidLeadRequest
	if !h.bind(c, &req) {
		return
	}

	err := h.svc.VoidLead(c.Request.Context(), id, req.Reason, tenantID, identity.UserID(), canForce(identity, req.Force))
	if httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Release(c *gin.Context) {
	identity, tenantID := httpkit.MustGetTenant(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.ReleaseLeadRequest
	if c.Request.ContentLength > 0 && !h.bind(c, &req) {
		return
	}

	err := h.svc.ReleaseToPool(c.Request.Context(), id, tenantID, identity.UserID(), canForce(identity, req.Force))
	if httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Convert(c *gin.Context) {
	identity, tenantID := httpkit.MustGetTenant(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.ConvertLeadRequest
	if c.Request.ContentLength > 0 && !h.bind(c, &req) {
		return
	}

	customerID, err := h.svc.ConvertLead(c.Request.Context(), id, &lifecycle.CustomerOverrides{
		Name:    req.CustomerName,
		Phone:   req.CustomerPhone,
		Wechat:  req.CustomerWechat,
		Address: req.Address,
	}, tenantID, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ConvertLeadResponse{CustomerID: customerID})
}

func (h *Handler) DistributeNext(c *gin.Context) {
	identity, tenantID := httpkit.MustGetTenant(c)
	if identity == nil {
		return
	}
	var req transport.DistributeRequest
	if c.Request.ContentLength > 0 && !h.bind(c, &req) {
		return
	}

	assignment, err := h.distributor.DistributeToNextSales(c.Request.Context(), tenantID, req.ChannelID)
	if httpkit.HandleError(c, err) {
		return
	}
	if assignment == nil {
		httpkit.OK(c, transport.DistributionResponse{Assigned: false})
		return
	}
	httpkit.OK(c, transport.DistributionResponse{
		Assigned:  true,
		SalesID:   &assignment.SalesID,
		SalesName: assignment.SalesName,
		Scope:     assignment.ScopeKey,
	})
}

// bind decodes and validates the JSON body, writing a 400 on failure.
func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.Nil, false
	}
	return id, true
}

// canForce honours force only for managers.
func canForce(identity httpkit.Identity, requested bool) bool {
	return requested && identity.HasRole(RoleManager)
}

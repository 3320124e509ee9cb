package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/apperr"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/middleware"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
)

func (h *Handler) ListPhoneNumbers(c *gin.Context) {
	businessID, ok := h.tenant(c)
	if !ok {
		return
	}
	numbers, err := h.svc.Phones.List(c.Request.Context(), businessID)
	if err != nil {
		h.respondError(c, err, "Failed to fetch phone numbers")
		return
	}
	c.JSON(http.StatusOK, numbers)
}

// AddPhoneNumber handles POST /api/businesses/:businessId/phone-numbers/add-existing
func (h *Handler) AddPhoneNumber(c *gin.Context) {
	businessID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req models.AddPhoneNumberRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, err, "Failed to add phone number")
		return
	}

	phone, err := h.svc.Phones.Add(c.Request.Context(), businessID, req)
	if err != nil {
		h.respondError(c, err, "Failed to add phone number")
		return
	}
	c.JSON(http.StatusCreated, phone)
}

// AssignPhoneNumber handles PUT /api/phone-numbers/:id/assign. A null
// agent_id unassigns the number.
func (h *Handler) AssignPhoneNumber(c *gin.Context) {
	var req models.AssignPhoneNumberRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, err, "Failed to assign phone number")
		return
	}
	if req.AgentID != nil && *req.AgentID == "" {
		req.AgentID = nil
	}

	phone, err := h.svc.Phones.Assign(c.Request.Context(), middleware.BusinessID(c), c.Param("id"), req.AgentID)
	if err != nil {
		h.respondError(c, err, "Failed to assign phone number")
		return
	}
	c.JSON(http.StatusOK, phone)
}

// GetAgentPhoneNumber handles GET /api/agents/:id/phone-number and answers
// null when the agent has no number.
func (h *Handler) GetAgentPhoneNumber(c *gin.Context) {
	phone, err := h.svc.Phones.ForAgent(c.Request.Context(), middleware.BusinessID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to fetch phone number")
		return
	}
	c.JSON(http.StatusOK, phone)
}

func (h *Handler) ListUsage(c *gin.Context) {
	entries, err := h.svc.Usage.List(c.Request.Context(), middleware.BusinessID(c), c.Param("businessId"))
	if err != nil {
		h.respondError(c, err, "Failed to fetch usage logs")
		return
	}
	c.JSON(http.StatusOK, entries)
}

// SetUsageLimit handles POST /api/businesses/:businessId/usage/limit
func (h *Handler) SetUsageLimit(c *gin.Context) {
	var req models.UsageLimitRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, err, "Failed to update usage limit")
		return
	}
	if req.AICredits == nil {
		h.respondError(c, apperr.Validation("ai_credits is required"), "Failed to update usage limit")
		return
	}

	if err := h.svc.Usage.SetLimit(c.Request.Context(), middleware.BusinessID(c), c.Param("businessId"), *req.AICredits); err != nil {
		h.respondError(c, err, "Failed to update usage limit")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "new_limit": *req.AICredits})
}

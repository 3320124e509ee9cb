package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/middleware"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
)

// RegisterBusiness handles POST /api/businesses. The owner token in the
// response is the only copy the caller will ever see.
func (h *Handler) RegisterBusiness(c *gin.Context) {
	var req models.CreateBusinessRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, err, "Failed to create business")
		return
	}

	resp, err := h.svc.Businesses.Register(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "Failed to create business")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// IssueToken handles POST /api/auth/token
func (h *Handler) IssueToken(c *gin.Context) {
	var req models.TokenRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, err, "Failed to issue token")
		return
	}

	token, err := h.svc.Auth.IssueToken(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "Failed to issue token")
		return
	}
	c.JSON(http.StatusOK, token)
}

// Me handles GET /api/me
func (h *Handler) Me(c *gin.Context) {
	caller := middleware.BusinessID(c)
	business, err := h.svc.Businesses.Get(c.Request.Context(), caller, caller)
	if err != nil {
		h.respondError(c, err, "Failed to fetch business")
		return
	}
	c.JSON(http.StatusOK, business)
}

// GetBusiness handles GET /api/businesses/:businessId
func (h *Handler) GetBusiness(c *gin.Context) {
	business, err := h.svc.Businesses.Get(c.Request.Context(), middleware.BusinessID(c), c.Param("businessId"))
	if err != nil {
		h.respondError(c, err, "Failed to fetch business")
		return
	}
	c.JSON(http.StatusOK, business)
}

// GetBusinessStats handles GET /api/businesses/:businessId/stats
func (h *Handler) GetBusinessStats(c *gin.Context) {
	stats, err := h.svc.Businesses.Stats(c.Request.Context(), middleware.BusinessID(c), c.Param("businessId"))
	if err != nil {
		h.respondError(c, err, "Failed to fetch stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

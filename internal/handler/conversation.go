package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/apperr"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/middleware"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
)

// ListConversations handles GET /api/businesses/:businessId/conversations
// Query parameters:
// - channel: filter by channel (optional)
// - status: filter by status (optional)
func (h *Handler) ListConversations(c *gin.Context) {
	businessID, ok := h.tenant(c)
	if !ok {
		return
	}
	filter := models.ConversationFilter{
		Channel: models.Channel(c.Query("channel")),
		Status:  models.ConversationStatus(c.Query("status")),
	}

	convs, err := h.svc.Conversations.List(c.Request.Context(), businessID, filter)
	if err != nil {
		h.respondError(c, err, "Failed to fetch conversations")
		return
	}
	c.JSON(http.StatusOK, convs)
}

func (h *Handler) CreateConversation(c *gin.Context) {
	businessID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req models.CreateConversationRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, err, "Failed to create conversation")
		return
	}

	conv, err := h.svc.Conversations.Create(c.Request.Context(), businessID, req)
	if err != nil {
		h.respondError(c, err, "Failed to create conversation")
		return
	}
	c.JSON(http.StatusCreated, conv)
}

// GetConversation handles GET /api/conversations/:id and includes every message.
func (h *Handler) GetConversation(c *gin.Context) {
	conv, err := h.svc.Conversations.Get(c.Request.Context(), middleware.BusinessID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to fetch conversation")
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (h *Handler) UpdateConversation(c *gin.Context) {
	var upd models.ConversationUpdate
	if err := bindStrict(c, &upd); err != nil {
		h.respondError(c, err, "Failed to update conversation")
		return
	}

	conv, err := h.svc.Conversations.Update(c.Request.Context(), middleware.BusinessID(c), c.Param("id"), upd)
	if err != nil {
		h.respondError(c, err, "Failed to update conversation")
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req models.SendMessageRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, err, "Failed to send message")
		return
	}

	msg, err := h.svc.Conversations.SendMessage(c.Request.Context(), middleware.BusinessID(c), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err, "Failed to send message")
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// GenerateResponse handles POST /api/conversations/:id/generate-response.
// The body is optional; pilot_mode overrides the agent's mode for this call.
func (h *Handler) GenerateResponse(c *gin.Context) {
	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.respondError(c, apperr.Validation("invalid request body: %v", err), "Failed to generate response")
		return
	}
	if req.PilotMode != "" && !req.PilotMode.Valid() {
		h.respondError(c, apperr.Validation("pilot_mode must be one of off, suggestive, autopilot"), "Failed to generate response")
		return
	}

	ctx := c.Request.Context()
	conv, err := h.svc.Conversations.Authorize(ctx, middleware.BusinessID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to generate response")
		return
	}

	result, err := h.svc.Responder.GenerateResponse(ctx, conv.ID, req.PilotMode)
	if err != nil {
		h.respondError(c, err, "Failed to generate response")
		return
	}
	c.JSON(http.StatusOK, result)
}

// ApproveResponse handles POST /api/conversations/:id/approve-response
func (h *Handler) ApproveResponse(c *gin.Context) {
	var req models.ApproveRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, err, "Failed to approve response")
		return
	}

	ctx := c.Request.Context()
	conv, err := h.svc.Conversations.Authorize(ctx, middleware.BusinessID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to approve response")
		return
	}

	msg, err := h.svc.Responder.ApproveResponse(ctx, conv.ID, req.Content)
	if err != nil {
		h.respondError(c, err, "Failed to approve response")
		return
	}
	c.JSON(http.StatusOK, msg)
}

// Summarize handles POST /api/conversations/:id/summarize
func (h *Handler) Summarize(c *gin.Context) {
	ctx := c.Request.Context()
	conv, err := h.svc.Conversations.Authorize(ctx, middleware.BusinessID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to summarize")
		return
	}

	summary, err := h.svc.Responder.Summarize(ctx, conv.ID)
	if err != nil {
		h.respondError(c, err, "Failed to summarize")
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// SummarizeConversations handles POST /api/businesses/:businessId/conversations/summarize.
// Every id is authorized before any model call is made.
func (h *Handler) SummarizeConversations(c *gin.Context) {
	businessID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req models.SummarizeBatchRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, err, "Failed to summarize conversations")
		return
	}
	if len(req.ConversationIDs) == 0 {
		h.respondError(c, apperr.Validation("conversation_ids are required"), "Failed to summarize conversations")
		return
	}

	ctx := c.Request.Context()
	for _, id := range req.ConversationIDs {
		if _, err := h.svc.Conversations.Authorize(ctx, businessID, id); err != nil {
			h.respondError(c, err, "Failed to summarize conversations")
			return
		}
	}

	results, err := h.svc.Responder.SummarizeMany(ctx, req.ConversationIDs)
	if err != nil {
		h.respondError(c, err, "Failed to summarize conversations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

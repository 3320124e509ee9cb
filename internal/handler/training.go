package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/apperr"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/middleware"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
)

func (h *Handler) ListBusinessTraining(c *gin.Context) {
	data, err := h.svc.Training.ListForBusiness(c.Request.Context(), middleware.BusinessID(c), c.Param("businessId"))
	if err != nil {
		h.respondError(c, err, "Failed to fetch training data")
		return
	}
	c.JSON(http.StatusOK, data)
}

// AddBusinessQA handles POST /api/businesses/:businessId/training/qa. An
// agent_id in the body scopes the pair to that agent.
func (h *Handler) AddBusinessQA(c *gin.Context) {
	businessID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req models.CreateQARequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, err, "Failed to add Q&A pair")
		return
	}

	datum, err := h.svc.Training.AddQA(c.Request.Context(), businessID, req)
	if err != nil {
		h.respondError(c, err, "Failed to add Q&A pair")
		return
	}
	c.JSON(http.StatusCreated, datum)
}

func (h *Handler) ListAgentTraining(c *gin.Context) {
	data, err := h.svc.Training.ListForAgent(c.Request.Context(), middleware.BusinessID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to fetch training data")
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *Handler) AddAgentQA(c *gin.Context) {
	var req models.CreateQARequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, err, "Failed to add Q&A pair")
		return
	}
	agentID := c.Param("id")
	req.AgentID = &agentID

	datum, err := h.svc.Training.AddQA(c.Request.Context(), middleware.BusinessID(c), req)
	if err != nil {
		h.respondError(c, err, "Failed to add Q&A pair")
		return
	}
	c.JSON(http.StatusCreated, datum)
}

// Crawl handles POST /api/agents/:id/training/crawl
func (h *Handler) Crawl(c *gin.Context) {
	var req models.CrawlRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, err, "Failed to crawl website")
		return
	}
	if req.URL == "" {
		h.respondError(c, apperr.Validation("URL is required"), "Failed to crawl website")
		return
	}

	result, err := h.svc.Training.Crawl(c.Request.Context(), middleware.BusinessID(c), c.Param("id"), req.URL)
	if err != nil {
		h.respondError(c, err, "Failed to crawl website")
		return
	}
	c.JSON(http.StatusCreated, result)
}

// BatchCrawl handles POST /api/agents/:id/training/crawl/batch and streams
// one server-sent event per step. Closing the connection stops the run.
func (h *Handler) BatchCrawl(c *gin.Context) {
	var req models.BatchCrawlRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, err, "Failed to crawl websites")
		return
	}

	agentID := c.Param("id")
	events, err := h.svc.Training.BatchCrawl(c.Request.Context(), middleware.BusinessID(c), agentID, req.URLs)
	if err != nil {
		h.respondError(c, err, "Failed to crawl websites")
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	clientGone := c.Stream(func(w io.Writer) bool {
		ev, ok := <-events
		if !ok {
			return false
		}
		c.SSEvent(string(ev.Type), ev)
		return true
	})
	if clientGone {
		h.logger.Info("Batch crawl client disconnected", zap.String("agent_id", agentID))
	}
}

func (h *Handler) DeleteTraining(c *gin.Context) {
	if err := h.svc.Training.Delete(c.Request.Context(), middleware.BusinessID(c), c.Param("id")); err != nil {
		h.respondError(c, err, "Failed to delete training data")
		return
	}
	c.Status(http.StatusNoContent)
}

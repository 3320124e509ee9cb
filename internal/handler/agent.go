package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/middleware"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
)

func (h *Handler) ListAgents(c *gin.Context) {
	businessID, ok := h.tenant(c)
	if !ok {
		return
	}
	agents, err := h.svc.Agents.List(c.Request.Context(), businessID)
	if err != nil {
		h.respondError(c, err, "Failed to fetch agents")
		return
	}
	c.JSON(http.StatusOK, agents)
}

func (h *Handler) CreateAgent(c *gin.Context) {
	businessID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req models.CreateAgentRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, err, "Failed to create agent")
		return
	}

	agent, err := h.svc.Agents.Create(c.Request.Context(), businessID, req)
	if err != nil {
		h.respondError(c, err, "Failed to create agent")
		return
	}
	c.JSON(http.StatusCreated, agent)
}

// GetAgent handles GET /api/agents/:id and includes the agent's goals.
func (h *Handler) GetAgent(c *gin.Context) {
	agent, err := h.svc.Agents.Get(c.Request.Context(), middleware.BusinessID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to fetch agent")
		return
	}
	c.JSON(http.StatusOK, agent)
}

// UpdateAgent handles PATCH /api/agents/:id. Unknown fields are rejected.
func (h *Handler) UpdateAgent(c *gin.Context) {
	var upd models.AgentUpdate
	if err := bindStrict(c, &upd); err != nil {
		h.respondError(c, err, "Failed to update agent")
		return
	}

	agent, err := h.svc.Agents.Update(c.Request.Context(), middleware.BusinessID(c), c.Param("id"), upd)
	if err != nil {
		h.respondError(c, err, "Failed to update agent")
		return
	}
	c.JSON(http.StatusOK, agent)
}

func (h *Handler) DeleteAgent(c *gin.Context) {
	if err := h.svc.Agents.Delete(c.Request.Context(), middleware.BusinessID(c), c.Param("id")); err != nil {
		h.respondError(c, err, "Failed to delete agent")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListGoals(c *gin.Context) {
	goals, err := h.svc.Agents.ListGoals(c.Request.Context(), middleware.BusinessID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to fetch goals")
		return
	}
	c.JSON(http.StatusOK, goals)
}

func (h *Handler) CreateGoal(c *gin.Context) {
	var req models.CreateGoalRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, err, "Failed to create goal")
		return
	}

	goal, err := h.svc.Agents.CreateGoal(c.Request.Context(), middleware.BusinessID(c), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err, "Failed to create goal")
		return
	}
	c.JSON(http.StatusCreated, goal)
}

func (h *Handler) UpdateGoal(c *gin.Context) {
	var upd models.GoalUpdate
	if err := bindStrict(c, &upd); err != nil {
		h.respondError(c, err, "Failed to update goal")
		return
	}

	goal, err := h.svc.Agents.UpdateGoal(c.Request.Context(), middleware.BusinessID(c), c.Param("id"), upd)
	if err != nil {
		h.respondError(c, err, "Failed to update goal")
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (h *Handler) DeleteGoal(c *gin.Context) {
	if err := h.svc.Agents.DeleteGoal(c.Request.Context(), middleware.BusinessID(c), c.Param("id")); err != nil {
		h.respondError(c, err, "Failed to delete goal")
		return
	}
	c.Status(http.StatusNoContent)
}

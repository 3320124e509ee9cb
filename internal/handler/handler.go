package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/apperr"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/metrics"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/middleware"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/service"
)

// Services bundles everything the API talks to.
type Services struct {
	Businesses    service.BusinessService
	Auth          service.AuthService
	Agents        service.AgentService
	Conversations service.ConversationService
	Training      service.TrainingService
	Usage         service.UsageService
	Phones        service.PhoneService
	Responder     *service.Responder
	Webhooks      *service.WebhookService
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler handles HTTP requests
type Handler struct {
	svc       Services
	db        Pinger
	publicURL string
	logger    *zap.Logger
}

// NewHandler creates a new API handler. publicURL prefixes the callback
// URLs handed to the carrier and may be empty.
func NewHandler(svc Services, db Pinger, publicURL string, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, db: db, publicURL: publicURL, logger: logger}
}

// RegisterRoutes registers all API routes. auth guards every tenant route.
func (h *Handler) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	public := r.Group("/api")
	{
		public.POST("/businesses", h.RegisterBusiness)
		public.POST("/auth/token", h.IssueToken)

		public.POST("/webhooks/sms", h.SMSWebhook)
		public.POST("/webhooks/voice", h.VoiceWebhook)
		public.POST("/webhooks/voice/process", h.VoiceProcessWebhook)
	}

	api := r.Group("/api")
	api.Use(auth)
	{
		api.GET("/me", h.Me)
		api.GET("/businesses/:businessId", h.GetBusiness)
		api.GET("/businesses/:businessId/stats", h.GetBusinessStats)

		api.GET("/businesses/:businessId/agents", h.ListAgents)
		api.POST("/businesses/:businessId/agents", h.CreateAgent)
		api.GET("/agents/:id", h.GetAgent)
		api.PATCH("/agents/:id", h.UpdateAgent)
		api.DELETE("/agents/:id", h.DeleteAgent)

		api.GET("/agents/:id/goals", h.ListGoals)
		api.POST("/agents/:id/goals", h.CreateGoal)
		api.PATCH("/goals/:id", h.UpdateGoal)
		api.DELETE("/goals/:id", h.DeleteGoal)

		api.GET("/businesses/:businessId/conversations", h.ListConversations)
		api.POST("/businesses/:businessId/conversations", h.CreateConversation)
		api.POST("/businesses/:businessId/conversations/summarize", h.SummarizeConversations)
		api.GET("/conversations/:id", h.GetConversation)
		api.PATCH("/conversations/:id", h.UpdateConversation)
		api.POST("/conversations/:id/messages", h.SendMessage)

		api.POST("/conversations/:id/generate-response", h.GenerateResponse)
		api.POST("/conversations/:id/approve-response", h.ApproveResponse)
		api.POST("/conversations/:id/summarize", h.Summarize)

		api.GET("/businesses/:businessId/training", h.ListBusinessTraining)
		api.POST("/businesses/:businessId/training/qa", h.AddBusinessQA)
		api.DELETE("/training/:id", h.DeleteTraining)
		api.GET("/agents/:id/training", h.ListAgentTraining)
		api.POST("/agents/:id/training/qa", h.AddAgentQA)
		api.POST("/agents/:id/training/crawl", h.Crawl)
		api.POST("/agents/:id/training/crawl/batch", h.BatchCrawl)

		api.GET("/businesses/:businessId/phone-numbers", h.ListPhoneNumbers)
		api.POST("/businesses/:businessId/phone-numbers/add-existing", h.AddPhoneNumber)
		api.PUT("/phone-numbers/:id/assign", h.AssignPhoneNumber)
		api.GET("/agents/:id/phone-number", h.GetAgentPhoneNumber)

		api.GET("/businesses/:businessId/usage", h.ListUsage)
		api.POST("/businesses/:businessId/usage/limit", h.SetUsageLimit)
	}

	r.GET("/health", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		h.logger.Error("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database unreachable"})
		return
	}

	info := gin.H{"status": "healthy", "service": "workmate"}
	if h.svc.Responder != nil {
		info["llm"] = h.svc.Responder.ModelInfo()
	}
	c.JSON(http.StatusOK, info)
}

// respondError writes err with the status its kind maps to. Server side
// and provider failures are logged and answered with msg only.
func (h *Handler) respondError(c *gin.Context, err error, msg string) {
	status := apperr.HTTPStatus(err)
	if errors.Is(err, service.ErrInvalidCredentials) {
		status = http.StatusUnauthorized
	}

	if status >= http.StatusInternalServerError || status == http.StatusTooManyRequests {
		h.logger.Error(msg, zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

// tenant returns the caller's business id and, for routes carrying a
// :businessId, checks that it is the caller's own.
func (h *Handler) tenant(c *gin.Context) (string, bool) {
	caller := middleware.BusinessID(c)
	if id := c.Param("businessId"); id != "" && id != caller {
		c.JSON(http.StatusForbidden, gin.H{"error": "business belongs to another tenant"})
		return "", false
	}
	return caller, true
}

// bindStrict decodes the JSON body and rejects fields v does not declare.
func bindStrict(c *gin.Context, v interface{}) error {
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}

// bind decodes the JSON body into v.
func bind(c *gin.Context, v interface{}) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}

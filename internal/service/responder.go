package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/apperr"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/batch"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/history"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/knowledge"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/lock"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/metering"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/metrics"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/policy"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/repository"
)

const (
	DefaultSystemPrompt = "You are a helpful AI assistant for a business. Be professional, friendly, and helpful."
	EmptySummary        = "No messages in this conversation yet."

	summaryPrompt = "Summarize this conversation in 2-3 sentences."
)

// LLMClient is any language model backend, usually the multi-provider client.
type LLMClient interface {
	Complete(ctx context.Context, systemPrompt string, messages []models.ChatMessage, maxTokens int) (string, error)
	GetModelInfo() map[string]interface{}
}

// ResponderConfig bounds every model call the responder makes.
type ResponderConfig struct {
	ChatMaxTokens     int
	VoiceMaxTokens    int
	SummaryMaxTokens  int
	DefaultPrompt     string
	VoiceHistoryLimit int
	VoiceTimeout      time.Duration
	Batch             batch.Options
}

func (c *ResponderConfig) applyDefaults() {
	if c.ChatMaxTokens <= 0 {
		c.ChatMaxTokens = 500
	}
	if c.VoiceMaxTokens <= 0 {
		c.VoiceMaxTokens = 150
	}
	if c.SummaryMaxTokens <= 0 {
		c.SummaryMaxTokens = 150
	}
	if c.DefaultPrompt == "" {
		c.DefaultPrompt = DefaultSystemPrompt
	}
	if c.VoiceHistoryLimit <= 0 {
		c.VoiceHistoryLimit = 6
	}
	if c.VoiceTimeout <= 0 {
		c.VoiceTimeout = 30 * time.Second
	}
}

// Responder produces agent replies and applies the pilot policy to them.
type Responder struct {
	store     *repository.Store
	history   *history.Store
	knowledge *knowledge.Assembler
	llm       LLMClient
	locker    lock.Locker
	cfg       ResponderConfig
	logger    *zap.Logger
}

func NewResponder(
	store *repository.Store,
	hist *history.Store,
	kb *knowledge.Assembler,
	llm LLMClient,
	locker lock.Locker,
	cfg ResponderConfig,
	logger *zap.Logger,
) *Responder {
	cfg.applyDefaults()
	if cfg.Batch.Logger == nil {
		cfg.Batch.Logger = logger
	}
	return &Responder{
		store:     store,
		history:   hist,
		knowledge: kb,
		llm:       llm,
		locker:    locker,
		cfg:       cfg,
		logger:    logger,
	}
}

// GenerateResponse drafts the next agent reply. requested overrides the
// agent's pilot mode when set; autopilot commits the reply, suggestive
// returns it untouched and off is rejected.
func (r *Responder) GenerateResponse(ctx context.Context, conversationID string, requested models.PilotMode) (*models.GenerateResult, error) {
	unlock, err := r.locker.Lock(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock conversation: %w", err)
	}
	defer unlock()

	return r.generateLocked(ctx, conversationID, requested, "autopilot")
}

func (r *Responder) generateLocked(ctx context.Context, conversationID string, requested models.PilotMode, source string) (*models.GenerateResult, error) {
	conv, err := r.store.Conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	agent := r.loadAgent(ctx, conv)

	mode := policy.Resolve(requested, agent)
	action, err := policy.Decide(mode)
	if err != nil {
		return nil, err
	}
	if action == policy.Skip {
		return nil, apperr.Validation("pilot mode is off; replies are handled by a human")
	}

	messages, err := r.history.Recent(ctx, conv.ID, 0)
	if err != nil {
		return nil, err
	}

	systemPrompt := r.systemPrompt(ctx, agent)
	reply, err := r.complete(ctx, "generate", systemPrompt, history.ToChat(messages), r.cfg.ChatMaxTokens)
	metrics.ObserveGeneration(string(mode), err)
	if err != nil {
		r.logger.Error("Failed to generate response",
			zap.String("conversation_id", conv.ID),
			zap.String("pilot_mode", string(mode)),
			zap.Error(err))
		return nil, err
	}

	if action == policy.Hold {
		r.logger.Info("Response held for approval", zap.String("conversation_id", conv.ID))
		return &models.GenerateResult{SuggestedResponse: reply, Sent: false}, nil
	}

	msg, err := r.commit(ctx, conv, reply, source)
	if err != nil {
		return nil, err
	}
	return &models.GenerateResult{Message: msg, Sent: true}, nil
}

// ApproveResponse commits content as an approved agent reply. The content
// may differ from whatever was suggested earlier.
func (r *Responder) ApproveResponse(ctx context.Context, conversationID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("content is required")
	}

	unlock, err := r.locker.Lock(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock conversation: %w", err)
	}
	defer unlock()

	conv, err := r.store.Conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return r.commit(ctx, conv, content, "approval")
}

// commit appends an approved, auto-generated agent message and meters it.
// Either both writes land or neither does.
func (r *Responder) commit(ctx context.Context, conv *models.Conversation, content, source string) (*models.Message, error) {
	approved := true
	var msg *models.Message
	err := r.store.InTx(ctx, func(tx *repository.Repositories) error {
		var err error
		msg, err = history.AppendWith(ctx, tx, conv.ID, history.Turn{
			Role:          models.RoleAgent,
			Content:       content,
			AutoGenerated: true,
			Approved:      &approved,
		})
		if err != nil {
			return err
		}
		_, err = metering.RecordWith(ctx, tx, conv.BusinessID, models.UsageAIMessage,
			metering.MessageQuantity, metering.MessageCredits)
		return err
	})
	if err != nil {
		r.logger.Error("Failed to commit agent message",
			zap.String("conversation_id", conv.ID),
			zap.String("business_id", conv.BusinessID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to commit agent message: %w", err)
	}

	metrics.ObserveCommit(source)
	r.logger.Info("Agent message committed",
		zap.String("conversation_id", conv.ID),
		zap.String("message_id", msg.ID),
		zap.String("source", source))
	return msg, nil
}

// Summarize stores and returns a short summary of the whole conversation.
// An empty conversation yields EmptySummary without calling the model.
func (r *Responder) Summarize(ctx context.Context, conversationID string) (string, error) {
	conv, err := r.store.Conversations.GetByID(ctx, conversationID)
	if err != nil {
		return "", err
	}

	messages, err := r.history.Recent(ctx, conv.ID, 0)
	if err != nil {
		return "", err
	}
	if len(messages) == 0 {
		return EmptySummary, nil
	}

	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}

	summary, err := r.complete(ctx, "summarize", summaryPrompt, []models.ChatMessage{
		{Role: models.ChatRoleUser, Content: strings.Join(lines, "\n")},
	}, r.cfg.SummaryMaxTokens)
	if err != nil {
		r.logger.Error("Failed to summarize conversation", zap.String("conversation_id", conv.ID), zap.Error(err))
		return "", err
	}

	if err := r.store.Conversations.SetSummary(ctx, conv.ID, summary); err != nil {
		return "", fmt.Errorf("failed to save summary: %w", err)
	}
	return summary, nil
}

// SummaryResult is one slot of a bulk summarize run.
type SummaryResult struct {
	ConversationID string `json:"conversation_id"`
	Summary        string `json:"summary"`
}

// SummarizeMany summarizes every conversation with the blocking batch
// mode. Results are aligned with ids; the call fails if any item runs out
// of retries.
func (r *Responder) SummarizeMany(ctx context.Context, ids []string) ([]SummaryResult, error) {
	results, err := batch.Process(ctx, ids, func(ctx context.Context, _ int, id string) (SummaryResult, error) {
		summary, err := r.Summarize(ctx, id)
		if err != nil {
			return SummaryResult{}, err
		}
		return SummaryResult{ConversationID: id, Summary: summary}, nil
	}, r.cfg.Batch)
	if err != nil {
		return results, fmt.Errorf("bulk summarize failed: %w", err)
	}
	return results, nil
}

// VoiceTurn appends the caller's utterance and answers it with the short
// spoken-style prompt over a bounded window of recent turns. Spoken replies
// cannot be held for approval, so they are committed directly.
func (r *Responder) VoiceTurn(ctx context.Context, conversationID, speech string) (*models.Message, error) {
	unlock, err := r.locker.Lock(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock conversation: %w", err)
	}
	defer unlock()

	conv, err := r.store.Conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	agent := r.loadAgent(ctx, conv)
	if agent != nil && agent.PilotMode == models.PilotOff {
		return nil, apperr.Validation("pilot mode is off; replies are handled by a human")
	}

	if _, err := r.history.Append(ctx, conv.ID, history.Turn{Role: models.RoleUser, Content: speech}); err != nil {
		return nil, err
	}

	voiceCtx, cancel := context.WithTimeout(ctx, r.cfg.VoiceTimeout)
	defer cancel()

	messages, err := r.history.Recent(voiceCtx, conv.ID, r.cfg.VoiceHistoryLimit)
	if err != nil {
		return nil, err
	}

	business, err := r.store.Businesses.GetByID(voiceCtx, conv.BusinessID)
	if err != nil {
		return nil, err
	}

	reply, err := r.complete(voiceCtx, "voice", r.voicePrompt(voiceCtx, business, agent), history.ToChat(messages), r.cfg.VoiceMaxTokens)
	metrics.ObserveGeneration("voice", err)
	if err != nil {
		r.logger.Error("Failed to generate voice reply", zap.String("conversation_id", conv.ID), zap.Error(err))
		return nil, err
	}
	return r.commit(ctx, conv, reply, "voice")
}

// ModelInfo describes the language model backend.
func (r *Responder) ModelInfo() map[string]interface{} {
	return r.llm.GetModelInfo()
}

func (r *Responder) loadAgent(ctx context.Context, conv *models.Conversation) *models.Agent {
	if conv.AgentID == nil {
		return nil
	}
	agent, err := r.store.Agents.GetByID(ctx, *conv.AgentID)
	if err != nil {
		r.logger.Warn("Conversation agent unavailable, using defaults",
			zap.String("conversation_id", conv.ID),
			zap.String("agent_id", *conv.AgentID),
			zap.Error(err))
		return nil
	}
	return agent
}

func (r *Responder) systemPrompt(ctx context.Context, agent *models.Agent) string {
	prompt := r.cfg.DefaultPrompt
	if agent == nil {
		return prompt
	}
	if agent.Personality != "" {
		prompt = agent.Personality
	}
	return prompt + r.knowledge.Build(ctx, agent.ID)
}

func (r *Responder) voicePrompt(ctx context.Context, business *models.Business, agent *models.Agent) string {
	name := "the assistant"
	if agent != nil && agent.Name != "" {
		name = agent.Name
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s, answering the phone for %s. ", name, business.Name)
	sb.WriteString("Your reply will be spoken aloud, so answer in one or two short sentences, ")
	sb.WriteString("without lists, links or formatting.")
	if agent != nil {
		if agent.Personality != "" {
			sb.WriteString("\n\n")
			sb.WriteString(agent.Personality)
		}
		sb.WriteString(r.knowledge.Build(ctx, agent.ID))
	}
	return sb.String()
}

// complete calls the model and classifies failures. Blank output counts as
// a failed generation so nothing empty is ever committed.
func (r *Responder) complete(ctx context.Context, op, systemPrompt string, messages []models.ChatMessage, maxTokens int) (string, error) {
	start := time.Now()
	reply, err := r.llm.Complete(ctx, systemPrompt, messages, maxTokens)
	metrics.ObserveGenerationSeconds(op, time.Since(start).Seconds())
	if err != nil {
		genErr := apperr.Generation(op, err)
		var ge *apperr.GenerationError
		if errors.As(genErr, &ge) && ge.IsRateLimit() {
			metrics.ObserveRateLimit(op)
		}
		return "", genErr
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", apperr.Generation(op, errors.New("model returned an empty reply"))
	}
	return reply, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/apperr"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/history"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/notify"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/repository"
)

const DefaultGreeting = "Hello, how can I help you?"

// ErrNoAgent means the dialled number is unknown or has no agent assigned.
var ErrNoAgent = errors.New("no agent assigned to this number")

// CallStart is what the voice webhook needs to greet a new caller.
type CallStart struct {
	ConversationID string
	Greeting       string
}

// WebhookService turns carrier callbacks into conversation turns.
type WebhookService struct {
	store     *repository.Store
	history   *history.Store
	responder *Responder
	notifier  notify.Notifier
	logger    *zap.Logger
}

func NewWebhookService(store *repository.Store, hist *history.Store, responder *Responder, notifier notify.Notifier, logger *zap.Logger) *WebhookService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &WebhookService{
		store:     store,
		history:   hist,
		responder: responder,
		notifier:  notifier,
		logger:    logger,
	}
}

// HandleSMS records an inbound text and, for autopilot agents, returns the
// committed reply. An empty reply means nothing should be sent back.
func (s *WebhookService) HandleSMS(ctx context.Context, to, from, body string) (string, error) {
	agent, err := s.agentForNumber(ctx, to)
	if errors.Is(err, ErrNoAgent) {
		s.logger.Warn("SMS to a number without an agent", zap.String("to", to))
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(body) == "" {
		return "", nil
	}

	conv, err := s.store.Conversations.FindActiveByContact(ctx, agent.ID, from)
	if err != nil {
		return "", err
	}
	if conv == nil {
		conv, err = s.openConversation(ctx, agent, models.ChannelSMS, from)
		if err != nil {
			return "", err
		}
	}

	unlock, err := s.responder.locker.Lock(ctx, conv.ID)
	if err != nil {
		return "", fmt.Errorf("failed to lock conversation: %w", err)
	}
	defer unlock()

	if _, err := s.history.Append(ctx, conv.ID, history.Turn{Role: models.RoleUser, Content: body}); err != nil {
		return "", err
	}

	if agent.PilotMode != models.PilotAutopilot {
		return "", nil
	}

	s.notifyBusiness(ctx, agent.BusinessID, notify.Notification{
		BusinessID: agent.BusinessID,
		Subject:    "New SMS from " + from,
		Body:       fmt.Sprintf("You received a new message: %s. AI is handling it.", body),
	})

	result, err := s.responder.generateLocked(ctx, conv.ID, models.PilotAutopilot, "sms")
	if err != nil {
		s.logger.Error("Failed to answer SMS", zap.String("conversation_id", conv.ID), zap.Error(err))
		return "", nil
	}
	return result.Message.Content, nil
}

// StartCall opens a phone conversation for an inbound call.
func (s *WebhookService) StartCall(ctx context.Context, to, from string) (*CallStart, error) {
	agent, err := s.agentForNumber(ctx, to)
	if err != nil {
		return nil, err
	}

	conv, err := s.openConversation(ctx, agent, models.ChannelPhone, from)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Inbound call started",
		zap.String("conversation_id", conv.ID),
		zap.String("agent_id", agent.ID),
		zap.String("from", from))

	greeting := strings.TrimSpace(agent.InitialMessage)
	if greeting == "" {
		greeting = DefaultGreeting
	}
	return &CallStart{ConversationID: conv.ID, Greeting: greeting}, nil
}

// ProcessSpeech answers one caller utterance.
func (s *WebhookService) ProcessSpeech(ctx context.Context, conversationID, speech string) (string, error) {
	if strings.TrimSpace(speech) == "" {
		return "", apperr.Validation("speech is required")
	}
	msg, err := s.responder.VoiceTurn(ctx, conversationID, speech)
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

func (s *WebhookService) agentForNumber(ctx context.Context, number string) (*models.Agent, error) {
	phone, err := s.store.PhoneNumbers.GetByNumber(ctx, NormalizeNumber(number))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, ErrNoAgent
	}
	if err != nil {
		return nil, err
	}
	if phone.AgentID == nil || !phone.IsActive {
		return nil, ErrNoAgent
	}

	agent, err := s.store.Agents.GetByID(ctx, *phone.AgentID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, ErrNoAgent
	}
	return agent, err
}

func (s *WebhookService) openConversation(ctx context.Context, agent *models.Agent, channel models.Channel, contact string) (*models.Conversation, error) {
	agentID := agent.ID
	conv := &models.Conversation{
		ID:           uuid.NewString(),
		BusinessID:   agent.BusinessID,
		AgentID:      &agentID,
		Channel:      channel,
		ContactPhone: contact,
		Status:       models.StatusActive,
	}
	if err := s.store.Conversations.Create(ctx, conv); err != nil {
		s.logger.Error("Failed to open conversation",
			zap.String("agent_id", agent.ID),
			zap.String("channel", string(channel)),
			zap.Error(err))
		return nil, err
	}
	return conv, nil
}

func (s *WebhookService) notifyBusiness(ctx context.Context, businessID string, n notify.Notification) {
	business, err := s.store.Businesses.GetByID(ctx, businessID)
	if err != nil {
		s.logger.Warn("Skipping notification, business unavailable", zap.String("business_id", businessID), zap.Error(err))
		return
	}
	if !business.NotificationsEnabled {
		return
	}
	notify.Async(s.notifier, s.logger, n)
}

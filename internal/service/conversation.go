package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/apperr"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/history"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/lock"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/repository"
)

type ConversationService interface {
	Create(ctx context.Context, businessID string, req models.CreateConversationRequest) (*models.Conversation, error)
	List(ctx context.Context, businessID string, filter models.ConversationFilter) ([]*models.Conversation, error)
	Get(ctx context.Context, businessID, id string) (*models.ConversationWithMessages, error)
	Update(ctx context.Context, businessID, id string, upd models.ConversationUpdate) (*models.Conversation, error)
	SendMessage(ctx context.Context, businessID, id string, req models.SendMessageRequest) (*models.Message, error)
	// Authorize loads a conversation and checks that businessID owns it.
	Authorize(ctx context.Context, businessID, id string) (*models.Conversation, error)
}

type conversationService struct {
	store   *repository.Store
	history *history.Store
	locker  lock.Locker
	logger  *zap.Logger
}

func NewConversationService(store *repository.Store, hist *history.Store, locker lock.Locker, logger *zap.Logger) ConversationService {
	return &conversationService{store: store, history: hist, locker: locker, logger: logger}
}

func (s *conversationService) Create(ctx context.Context, businessID string, req models.CreateConversationRequest) (*models.Conversation, error) {
	if req.Channel == "" {
		req.Channel = models.ChannelWebchat
	}
	if !req.Channel.Valid() {
		return nil, apperr.Validation("channel must be one of webchat, sms, phone, email")
	}
	if strings.TrimSpace(req.ContactName) == "" && strings.TrimSpace(req.ContactEmail) == "" && strings.TrimSpace(req.ContactPhone) == "" {
		return nil, apperr.Validation("at least one of contact_name, contact_email, contact_phone is required")
	}
	if req.AgentID != nil {
		agent, err := s.store.Agents.GetByID(ctx, *req.AgentID)
		if err != nil {
			return nil, err
		}
		if err := owned(businessID, agent.BusinessID, "agent"); err != nil {
			return nil, err
		}
	}

	conv := &models.Conversation{
		ID:           uuid.NewString(),
		BusinessID:   businessID,
		AgentID:      req.AgentID,
		Channel:      req.Channel,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Status:       models.StatusActive,
	}
	if err := s.store.Conversations.Create(ctx, conv); err != nil {
		s.logger.Error("Failed to create conversation", zap.String("business_id", businessID), zap.Error(err))
		return nil, err
	}
	return conv, nil
}

func (s *conversationService) List(ctx context.Context, businessID string, filter models.ConversationFilter) ([]*models.Conversation, error) {
	if filter.Channel != "" && !filter.Channel.Valid() {
		return nil, apperr.Validation("unknown channel %q", filter.Channel)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperr.Validation("unknown status %q", filter.Status)
	}
	return s.store.Conversations.ListByBusiness(ctx, businessID, filter)
}

func (s *conversationService) Get(ctx context.Context, businessID, id string) (*models.ConversationWithMessages, error) {
	conv, err := s.Authorize(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	messages, err := s.store.Messages.ListByConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.ConversationWithMessages{Conversation: conv, Messages: messages}, nil
}

// Update changes status and sentiment. Status only moves forward:
// active to resolved or transferred, transferred to resolved.
func (s *conversationService) Update(ctx context.Context, businessID, id string, upd models.ConversationUpdate) (*models.Conversation, error) {
	conv, err := s.Authorize(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return nil, apperr.Validation("unknown status %q", *upd.Status)
		}
		if !conv.Status.CanTransition(*upd.Status) {
			return nil, apperr.Validation("cannot move conversation from %s to %s", conv.Status, *upd.Status)
		}
	}

	updated, err := s.store.Conversations.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if upd.Status != nil && *upd.Status != conv.Status {
		s.logger.Info("Conversation status changed",
			zap.String("conversation_id", id),
			zap.String("from", string(conv.Status)),
			zap.String("to", string(*upd.Status)))
	}
	return updated, nil
}

// SendMessage appends a human-written turn.
func (s *conversationService) SendMessage(ctx context.Context, businessID, id string, req models.SendMessageRequest) (*models.Message, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, apperr.Validation("content is required")
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	if !req.Role.Valid() {
		return nil, apperr.Validation("role must be one of user, agent, system")
	}
	if _, err := s.Authorize(ctx, businessID, id); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return s.history.Append(ctx, id, history.Turn{
		Role:     req.Role,
		Content:  req.Content,
		AudioURL: req.AudioURL,
	})
}

func (s *conversationService) Authorize(ctx context.Context, businessID, id string) (*models.Conversation, error) {
	conv, err := s.store.Conversations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := owned(businessID, conv.BusinessID, "conversation"); err != nil {
		return nil, err
	}
	return conv, nil
}

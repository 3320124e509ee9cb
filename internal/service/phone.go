package service

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/apperr"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/repository"
)

type PhoneService interface {
	List(ctx context.Context, businessID string) ([]*models.PhoneNumber, error)
	// Add registers a number the business already owns at its carrier.
	Add(ctx context.Context, businessID string, req models.AddPhoneNumberRequest) (*models.PhoneNumber, error)
	// Assign routes a number to an agent. A nil agentID unassigns it.
	Assign(ctx context.Context, businessID, id string, agentID *string) (*models.PhoneNumber, error)
	// ForAgent returns the agent's number, or nil when it has none.
	ForAgent(ctx context.Context, businessID, agentID string) (*models.PhoneNumber, error)
}

type phoneService struct {
	store  *repository.Store
	logger *zap.Logger
}

func NewPhoneService(store *repository.Store, logger *zap.Logger) PhoneService {
	return &phoneService{store: store, logger: logger}
}

// NormalizeNumber keeps numbers already in +E.164 form and otherwise strips
// everything but digits and prefixes a plus.
func NormalizeNumber(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "+") {
		return raw
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
	if digits == "" {
		return ""
	}
	return "+" + digits
}

func (s *phoneService) List(ctx context.Context, businessID string) ([]*models.PhoneNumber, error) {
	return s.store.PhoneNumbers.ListByBusiness(ctx, businessID)
}

func (s *phoneService) Add(ctx context.Context, businessID string, req models.AddPhoneNumberRequest) (*models.PhoneNumber, error) {
	number := NormalizeNumber(req.Number)
	if len(number) < 2 {
		return nil, apperr.Validation("phone number is required")
	}
	if req.AgentID != nil {
		if err := s.checkAgent(ctx, businessID, *req.AgentID); err != nil {
			return nil, err
		}
	}

	_, err := s.store.PhoneNumbers.GetByNumber(ctx, number)
	switch {
	case err == nil:
		return nil, apperr.Validation("This phone number is already registered")
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	}

	phone := &models.PhoneNumber{
		ID:         uuid.NewString(),
		BusinessID: businessID,
		AgentID:    req.AgentID,
		Number:     number,
		IsActive:   true,
	}
	if err := s.store.PhoneNumbers.Create(ctx, phone); err != nil {
		s.logger.Error("Failed to add phone number", zap.String("business_id", businessID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("Phone number added", zap.String("phone_id", phone.ID), zap.String("business_id", businessID))
	return phone, nil
}

func (s *phoneService) Assign(ctx context.Context, businessID, id string, agentID *string) (*models.PhoneNumber, error) {
	phone, err := s.store.PhoneNumbers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := owned(businessID, phone.BusinessID, "phone number"); err != nil {
		return nil, err
	}
	if agentID != nil {
		if err := s.checkAgent(ctx, businessID, *agentID); err != nil {
			return nil, err
		}
	}

	if err := s.store.PhoneNumbers.AssignAgent(ctx, id, agentID); err != nil {
		return nil, err
	}
	phone.AgentID = agentID
	return phone, nil
}

func (s *phoneService) ForAgent(ctx context.Context, businessID, agentID string) (*models.PhoneNumber, error) {
	if err := s.checkAgent(ctx, businessID, agentID); err != nil {
		return nil, err
	}
	numbers, err := s.store.PhoneNumbers.ListByAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if len(numbers) == 0 {
		return nil, nil
	}
	return numbers[0], nil
}

func (s *phoneService) checkAgent(ctx context.Context, businessID, agentID string) error {
	agent, err := s.store.Agents.GetByID(ctx, agentID)
	if err != nil {
		return err
	}
	return owned(businessID, agent.BusinessID, "agent")
}

package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/apperr"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/metering"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/repository"
)

type UsageService interface {
	List(ctx context.Context, callerID, businessID string) ([]*models.UsageLogEntry, error)
	SetLimit(ctx context.Context, callerID, businessID string, credits int) error
}

type usageService struct {
	meter      *metering.Meter
	businesses repository.BusinessRepository
	logger     *zap.Logger
}

func NewUsageService(meter *metering.Meter, businesses repository.BusinessRepository, logger *zap.Logger) UsageService {
	return &usageService{meter: meter, businesses: businesses, logger: logger}
}

func (s *usageService) List(ctx context.Context, callerID, businessID string) ([]*models.UsageLogEntry, error) {
	if err := owned(callerID, businessID, "business"); err != nil {
		return nil, err
	}
	return s.meter.List(ctx, businessID, metering.DefaultListLimit)
}

func (s *usageService) SetLimit(ctx context.Context, callerID, businessID string, credits int) error {
	if err := owned(callerID, businessID, "business"); err != nil {
		return err
	}
	if credits < 0 {
		return apperr.Validation("ai_credits cannot be negative")
	}
	if err := s.businesses.SetCredits(ctx, businessID, credits); err != nil {
		return err
	}
	s.logger.Info("Credit limit updated", zap.String("business_id", businessID), zap.Int("ai_credits", credits))
	return nil
}

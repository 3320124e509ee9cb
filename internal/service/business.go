package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/apperr"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/repository"
)

type BusinessService interface {
	Register(ctx context.Context, req models.CreateBusinessRequest) (*models.CreateBusinessResponse, error)
	Get(ctx context.Context, callerID, id string) (*models.Business, error)
	Stats(ctx context.Context, callerID, id string) (*models.BusinessStats, error)
}

type businessService struct {
	repo   repository.BusinessRepository
	logger *zap.Logger
}

func NewBusinessService(repo repository.BusinessRepository, logger *zap.Logger) BusinessService {
	return &businessService{repo: repo, logger: logger}
}

func (s *businessService) Register(ctx context.Context, req models.CreateBusinessRequest) (*models.CreateBusinessResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}

	token, hash, err := newOwnerToken()
	if err != nil {
		s.logger.Error("Failed to create owner token", zap.Error(err))
		return nil, fmt.Errorf("failed to create owner token: %w", err)
	}
	slug, err := newSlug(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create slug: %w", err)
	}

	b := &models.Business{
		ID:                   uuid.NewString(),
		Name:                 name,
		Slug:                 slug,
		OwnerTokenHash:       hash,
		Email:                req.Email,
		Phone:                req.Phone,
		Website:              req.Website,
		SubscriptionTier:     models.DefaultSubscriptionTier,
		AICreditsRemaining:   models.DefaultAICredits,
		NotificationsEnabled: true,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		s.logger.Error("Failed to create business", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Business registered", zap.String("business_id", b.ID), zap.String("slug", b.Slug))
	return &models.CreateBusinessResponse{Business: b, OwnerToken: token}, nil
}

func (s *businessService) Get(ctx context.Context, callerID, id string) (*models.Business, error) {
	if err := owned(callerID, id, "business"); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *businessService) Stats(ctx context.Context, callerID, id string) (*models.BusinessStats, error) {
	if err := owned(callerID, id, "business"); err != nil {
		return nil, err
	}
	return s.repo.Stats(ctx, id)
}

// owned fails with ErrUnauthorized unless the caller is the owning business.
func owned(callerID, ownerID, entity string) error {
	if callerID == "" || callerID != ownerID {
		return fmt.Errorf("%s belongs to another business: %w", entity, apperr.ErrUnauthorized)
	}
	return nil
}

// newSlug kebab-cases name and appends 8 random hex characters.
func newSlug(name string) (string, error) {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			dash = false
			continue
		}
		if !dash && sb.Len() > 0 {
			sb.WriteByte('-')
			dash = true
		}
	}
	base := strings.TrimSuffix(sb.String(), "-")
	if base == "" {
		base = "business"
	}

	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	return base + "-" + hex.EncodeToString(suffix), nil
}

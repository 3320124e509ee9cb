package repository

import (
	"context"
	"fmt"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"

	"go.uber.org/zap"
)

type UsageRepository interface {
	Create(ctx context.Context, e *models.UsageLogEntry) error
	ListByBusiness(ctx context.Context, businessID string, limit int) ([]*models.UsageLogEntry, error)
}

type usageRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewUsageRepository(db DBTX, logger *zap.Logger) UsageRepository {
	return &usageRepository{db: db, logger: logger}
}

func (r *usageRepository) Create(ctx context.Context, e *models.UsageLogEntry) error {
	e.CreatedAt = now()
	query := r.db.Rebind(`INSERT INTO usage_logs (id, business_id, type, quantity, credits_used, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, e.ID, e.BusinessID, e.Type, e.Quantity, e.CreditsUsed, e.CreatedAt); err != nil {
		return fmt.Errorf("failed to create usage log: %w", err)
	}
	return nil
}

func (r *usageRepository) ListByBusiness(ctx context.Context, businessID string, limit int) ([]*models.UsageLogEntry, error) {
	entries := []*models.UsageLogEntry{}
	query := r.db.Rebind(`SELECT id, business_id, type, quantity, credits_used, created_at
		FROM usage_logs WHERE business_id = ? ORDER BY created_at DESC LIMIT ?`)
	if err := r.db.SelectContext(ctx, &entries, query, businessID, limit); err != nil {
		return nil, fmt.Errorf("failed to list usage logs: %w", err)
	}
	return entries, nil
}

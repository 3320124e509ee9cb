package repository

import (
	"context"
	"fmt"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"

	"go.uber.org/zap"
)

type BusinessRepository interface {
	Create(ctx context.Context, b *models.Business) error
	GetByID(ctx context.Context, id string) (*models.Business, error)
	SetCredits(ctx context.Context, id string, credits int) error
	DecrementCredits(ctx context.Context, id string, credits int) error
	Stats(ctx context.Context, id string) (*models.BusinessStats, error)
}

type businessRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewBusinessRepository(db DBTX, logger *zap.Logger) BusinessRepository {
	return &businessRepository{db: db, logger: logger}
}

const businessColumns = `id, name, slug, owner_token_hash, email, phone, website, subscription_tier,
	ai_credits_remaining, notifications_enabled, created_at, updated_at`

func (r *businessRepository) Create(ctx context.Context, b *models.Business) error {
	ts := now()
	b.CreatedAt, b.UpdatedAt = ts, ts
	query := r.db.Rebind(`INSERT INTO businesses (` + businessColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query, b.ID, b.Name, b.Slug, b.OwnerTokenHash, b.Email, b.Phone,
		b.Website, b.SubscriptionTier, b.AICreditsRemaining, b.NotificationsEnabled, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create business: %w", err)
	}
	return nil
}

func (r *businessRepository) GetByID(ctx context.Context, id string) (*models.Business, error) {
	var b models.Business
	query := r.db.Rebind(`SELECT ` + businessColumns + ` FROM businesses WHERE id = ?`)
	if err := r.db.GetContext(ctx, &b, query, id); err != nil {
		return nil, notFound(err, "business")
	}
	return &b, nil
}

func (r *businessRepository) SetCredits(ctx context.Context, id string, credits int) error {
	query := r.db.Rebind(`UPDATE businesses SET ai_credits_remaining = ?, updated_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, credits, now(), id)
	if err != nil {
		return fmt.Errorf("failed to set credits: %w", err)
	}
	return checkAffected(res, "business")
}

// DecrementCredits subtracts credits in a single statement keyed by id.
func (r *businessRepository) DecrementCredits(ctx context.Context, id string, credits int) error {
	query := r.db.Rebind(`UPDATE businesses SET ai_credits_remaining = ai_credits_remaining - ?, updated_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, credits, now(), id)
	if err != nil {
		return fmt.Errorf("failed to decrement credits: %w", err)
	}
	return checkAffected(res, "business")
}

func (r *businessRepository) Stats(ctx context.Context, id string) (*models.BusinessStats, error) {
	b, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	stats := models.BusinessStats{
		AICreditsRemaining: b.AICreditsRemaining,
		SubscriptionTier:   b.SubscriptionTier,
	}
	query := r.db.Rebind(`
		SELECT
			(SELECT COUNT(*) FROM agents WHERE business_id = ?) AS agent_count,
			(SELECT COUNT(*) FROM conversations WHERE business_id = ?) AS conversation_count,
			(SELECT COUNT(*) FROM conversations WHERE business_id = ? AND status = 'active') AS active_conversations`)
	if err := r.db.GetContext(ctx, &stats, query, id, id, id); err != nil {
		return nil, fmt.Errorf("failed to count business stats: %w", err)
	}
	return &stats, nil
}

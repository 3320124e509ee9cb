package repository

import (
	"context"
	"fmt"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"

	"go.uber.org/zap"
)

type PhoneNumberRepository interface {
	Create(ctx context.Context, p *models.PhoneNumber) error
	GetByID(ctx context.Context, id string) (*models.PhoneNumber, error)
	GetByNumber(ctx context.Context, number string) (*models.PhoneNumber, error)
	ListByBusiness(ctx context.Context, businessID string) ([]*models.PhoneNumber, error)
	ListByAgent(ctx context.Context, agentID string) ([]*models.PhoneNumber, error)
	AssignAgent(ctx context.Context, id string, agentID *string) error
}

type phoneNumberRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewPhoneNumberRepository(db DBTX, logger *zap.Logger) PhoneNumberRepository {
	return &phoneNumberRepository{db: db, logger: logger}
}

const phoneColumns = `id, business_id, agent_id, number, is_active, created_at`

func (r *phoneNumberRepository) Create(ctx context.Context, p *models.PhoneNumber) error {
	p.CreatedAt = now()
	query := r.db.Rebind(`INSERT INTO phone_numbers (` + phoneColumns + `) VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, p.ID, p.BusinessID, p.AgentID, p.Number, p.IsActive, p.CreatedAt); err != nil {
		return fmt.Errorf("failed to create phone number: %w", err)
	}
	return nil
}

func (r *phoneNumberRepository) GetByID(ctx context.Context, id string) (*models.PhoneNumber, error) {
	var p models.PhoneNumber
	query := r.db.Rebind(`SELECT ` + phoneColumns + ` FROM phone_numbers WHERE id = ?`)
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, notFound(err, "phone number")
	}
	return &p, nil
}

func (r *phoneNumberRepository) GetByNumber(ctx context.Context, number string) (*models.PhoneNumber, error) {
	var p models.PhoneNumber
	query := r.db.Rebind(`SELECT ` + phoneColumns + ` FROM phone_numbers WHERE number = ?`)
	if err := r.db.GetContext(ctx, &p, query, number); err != nil {
		return nil, notFound(err, "phone number")
	}
	return &p, nil
}

func (r *phoneNumberRepository) ListByBusiness(ctx context.Context, businessID string) ([]*models.PhoneNumber, error) {
	numbers := []*models.PhoneNumber{}
	query := r.db.Rebind(`SELECT ` + phoneColumns + ` FROM phone_numbers WHERE business_id = ? ORDER BY created_at DESC`)
	if err := r.db.SelectContext(ctx, &numbers, query, businessID); err != nil {
		return nil, fmt.Errorf("failed to list phone numbers: %w", err)
	}
	return numbers, nil
}

func (r *phoneNumberRepository) ListByAgent(ctx context.Context, agentID string) ([]*models.PhoneNumber, error) {
	numbers := []*models.PhoneNumber{}
	query := r.db.Rebind(`SELECT ` + phoneColumns + ` FROM phone_numbers WHERE agent_id = ? ORDER BY created_at DESC`)
	if err := r.db.SelectContext(ctx, &numbers, query, agentID); err != nil {
		return nil, fmt.Errorf("failed to list agent phone numbers: %w", err)
	}
	return numbers, nil
}

func (r *phoneNumberRepository) AssignAgent(ctx context.Context, id string, agentID *string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE phone_numbers SET agent_id = ? WHERE id = ?`), agentID, id)
	if err != nil {
		return fmt.Errorf("failed to assign phone number: %w", err)
	}
	return checkAffected(res, "phone number")
}

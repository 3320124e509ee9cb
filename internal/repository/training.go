package repository

import (
	"context"
	"fmt"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"

	"go.uber.org/zap"
)

type TrainingRepository interface {
	Create(ctx context.Context, t *models.TrainingDatum) error
	GetByID(ctx context.Context, id string) (*models.TrainingDatum, error)
	ListByBusiness(ctx context.Context, businessID string) ([]*models.TrainingDatum, error)
	ListByAgent(ctx context.Context, agentID string, limit int) ([]*models.TrainingDatum, error)
	Delete(ctx context.Context, id string) error
}

type trainingRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewTrainingRepository(db DBTX, logger *zap.Logger) TrainingRepository {
	return &trainingRepository{db: db, logger: logger}
}

const trainingColumns = `id, business_id, agent_id, type, question, answer, title, source_url, content, status, created_at`

func (r *trainingRepository) Create(ctx context.Context, t *models.TrainingDatum) error {
	t.CreatedAt = now()
	if t.Status == "" {
		t.Status = models.TrainingActive
	}
	query := r.db.Rebind(`INSERT INTO training_data (` + trainingColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query, t.ID, t.BusinessID, t.AgentID, t.Type, t.Question, t.Answer,
		t.Title, t.SourceURL, t.Content, t.Status, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create training data: %w", err)
	}
	return nil
}

func (r *trainingRepository) GetByID(ctx context.Context, id string) (*models.TrainingDatum, error) {
	var t models.TrainingDatum
	query := r.db.Rebind(`SELECT ` + trainingColumns + ` FROM training_data WHERE id = ?`)
	if err := r.db.GetContext(ctx, &t, query, id); err != nil {
		return nil, notFound(err, "training data")
	}
	return &t, nil
}

func (r *trainingRepository) ListByBusiness(ctx context.Context, businessID string) ([]*models.TrainingDatum, error) {
	data := []*models.TrainingDatum{}
	query := r.db.Rebind(`SELECT ` + trainingColumns + ` FROM training_data WHERE business_id = ? ORDER BY created_at DESC`)
	if err := r.db.SelectContext(ctx, &data, query, businessID); err != nil {
		return nil, fmt.Errorf("failed to list training data: %w", err)
	}
	return data, nil
}

// ListByAgent returns the newest rows first; limit <= 0 means no limit.
func (r *trainingRepository) ListByAgent(ctx context.Context, agentID string, limit int) ([]*models.TrainingDatum, error) {
	data := []*models.TrainingDatum{}
	query := `SELECT ` + trainingColumns + ` FROM training_data WHERE agent_id = ? ORDER BY created_at DESC`
	args := []interface{}{agentID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	if err := r.db.SelectContext(ctx, &data, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list agent training data: %w", err)
	}
	return data, nil
}

func (r *trainingRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM training_data WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete training data: %w", err)
	}
	return checkAffected(res, "training data")
}

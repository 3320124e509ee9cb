package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"

	"go.uber.org/zap"
)

type GoalRepository interface {
	Create(ctx context.Context, g *models.AgentGoal) error
	GetByID(ctx context.Context, id string) (*models.AgentGoal, error)
	ListByAgent(ctx context.Context, agentID string) ([]*models.AgentGoal, error)
	Update(ctx context.Context, id string, upd models.GoalUpdate) (*models.AgentGoal, error)
	Delete(ctx context.Context, id string) error
}

type goalRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewGoalRepository(db DBTX, logger *zap.Logger) GoalRepository {
	return &goalRepository{db: db, logger: logger}
}

const goalColumns = `id, agent_id, goal_type, fields_to_collect, custom_instructions, priority, created_at`

func (r *goalRepository) Create(ctx context.Context, g *models.AgentGoal) error {
	g.CreatedAt = now()
	if g.FieldsToCollect == nil {
		g.FieldsToCollect = pq.StringArray{}
	}
	query := r.db.Rebind(`INSERT INTO agent_goals (` + goalColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query, g.ID, g.AgentID, g.GoalType, g.FieldsToCollect,
		g.CustomInstructions, g.Priority, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}
	return nil
}

func (r *goalRepository) GetByID(ctx context.Context, id string) (*models.AgentGoal, error) {
	var g models.AgentGoal
	query := r.db.Rebind(`SELECT ` + goalColumns + ` FROM agent_goals WHERE id = ?`)
	if err := r.db.GetContext(ctx, &g, query, id); err != nil {
		return nil, notFound(err, "goal")
	}
	return &g, nil
}

// ListByAgent returns goals in ascending priority order.
func (r *goalRepository) ListByAgent(ctx context.Context, agentID string) ([]*models.AgentGoal, error) {
	goals := []*models.AgentGoal{}
	query := r.db.Rebind(`SELECT ` + goalColumns + ` FROM agent_goals WHERE agent_id = ? ORDER BY priority, created_at`)
	if err := r.db.SelectContext(ctx, &goals, query, agentID); err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	return goals, nil
}

func (r *goalRepository) Update(ctx context.Context, id string, upd models.GoalUpdate) (*models.AgentGoal, error) {
	var set setClause
	if upd.GoalType != nil {
		set.add("goal_type", *upd.GoalType)
	}
	if upd.FieldsToCollect != nil {
		set.add("fields_to_collect", pq.StringArray(*upd.FieldsToCollect))
	}
	if upd.CustomInstructions != nil {
		set.add("custom_instructions", *upd.CustomInstructions)
	}
	if upd.Priority != nil {
		set.add("priority", *upd.Priority)
	}
	if set.empty() {
		return r.GetByID(ctx, id)
	}

	query := r.db.Rebind(`UPDATE agent_goals SET ` + set.sql() + ` WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, append(set.args, id)...)
	if err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}
	if err := checkAffected(res, "goal"); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *goalRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM agent_goals WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return checkAffected(res, "goal")
}

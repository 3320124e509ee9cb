package repository

import (
	"context"
	"fmt"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"

	"go.uber.org/zap"
)

type AgentRepository interface {
	Create(ctx context.Context, a *models.Agent) error
	GetByID(ctx context.Context, id string) (*models.Agent, error)
	ListByBusiness(ctx context.Context, businessID string) ([]*models.Agent, error)
	Update(ctx context.Context, id string, upd models.AgentUpdate) (*models.Agent, error)
	Delete(ctx context.Context, id string) error
}

type agentRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewAgentRepository(db DBTX, logger *zap.Logger) AgentRepository {
	return &agentRepository{db: db, logger: logger}
}

const agentColumns = `id, business_id, name, type, direction, initial_message, personality,
	is_active, pilot_mode, created_at, updated_at`

func (r *agentRepository) Create(ctx context.Context, a *models.Agent) error {
	ts := now()
	a.CreatedAt, a.UpdatedAt = ts, ts
	query := r.db.Rebind(`INSERT INTO agents (` + agentColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query, a.ID, a.BusinessID, a.Name, a.Type, a.Direction,
		a.InitialMessage, a.Personality, a.IsActive, a.PilotMode, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}
	return nil
}

func (r *agentRepository) GetByID(ctx context.Context, id string) (*models.Agent, error) {
	var a models.Agent
	query := r.db.Rebind(`SELECT ` + agentColumns + ` FROM agents WHERE id = ?`)
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		return nil, notFound(err, "agent")
	}
	return &a, nil
}

func (r *agentRepository) ListByBusiness(ctx context.Context, businessID string) ([]*models.Agent, error) {
	agents := []*models.Agent{}
	query := r.db.Rebind(`SELECT ` + agentColumns + ` FROM agents WHERE business_id = ? ORDER BY created_at DESC`)
	if err := r.db.SelectContext(ctx, &agents, query, businessID); err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	return agents, nil
}

func (r *agentRepository) Update(ctx context.Context, id string, upd models.AgentUpdate) (*models.Agent, error) {
	var set setClause
	if upd.Name != nil {
		set.add("name", *upd.Name)
	}
	if upd.Type != nil {
		set.add("type", *upd.Type)
	}
	if upd.Direction != nil {
		set.add("direction", *upd.Direction)
	}
	if upd.InitialMessage != nil {
		set.add("initial_message", *upd.InitialMessage)
	}
	if upd.Personality != nil {
		set.add("personality", *upd.Personality)
	}
	if upd.IsActive != nil {
		set.add("is_active", *upd.IsActive)
	}
	if upd.PilotMode != nil {
		set.add("pilot_mode", *upd.PilotMode)
	}
	if set.empty() {
		return r.GetByID(ctx, id)
	}
	set.add("updated_at", now())

	query := r.db.Rebind(`UPDATE agents SET ` + set.sql() + ` WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, append(set.args, id)...)
	if err != nil {
		return nil, fmt.Errorf("failed to update agent: %w", err)
	}
	if err := checkAffected(res, "agent"); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes the agent and its goals. Phone numbers and conversations that
// pointed at the agent are detached rather than removed.
func (r *agentRepository) Delete(ctx context.Context, id string) error {
	stmts := []string{
		`DELETE FROM agent_goals WHERE agent_id = ?`,
		`UPDATE phone_numbers SET agent_id = NULL WHERE agent_id = ?`,
		`UPDATE conversations SET agent_id = NULL WHERE agent_id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, r.db.Rebind(stmt), id); err != nil {
			return fmt.Errorf("failed to delete agent dependents: %w", err)
		}
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM agents WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
	}
	return checkAffected(res, "agent")
}

package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/apperr"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/repository"
)

type AgentService interface {
	Create(ctx context.Context, businessID string, req models.CreateAgentRequest) (*models.Agent, error)
	List(ctx context.Context, businessID string) ([]*models.Agent, error)
	Get(ctx context.Context, businessID, id string) (*models.AgentWithGoals, error)
	Update(ctx context.Context, businessID, id string, upd models.AgentUpdate) (*models.Agent, error)
	Delete(ctx context.Context, businessID, id string) error

	ListGoals(ctx context.Context, businessID, agentID string) ([]*models.AgentGoal, error)
	CreateGoal(ctx context.Context, businessID, agentID string, req models.CreateGoalRequest) (*models.AgentGoal, error)
	UpdateGoal(ctx context.Context, businessID, goalID string, upd models.GoalUpdate) (*models.AgentGoal, error)
	DeleteGoal(ctx context.Context, businessID, goalID string) error
}

type agentService struct {
	store  *repository.Store
	logger *zap.Logger
}

func NewAgentService(store *repository.Store, logger *zap.Logger) AgentService {
	return &agentService{store: store, logger: logger}
}

func (s *agentService) Create(ctx context.Context, businessID string, req models.CreateAgentRequest) (*models.Agent, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	if !req.Type.Valid() {
		return nil, apperr.Validation("type must be one of voice, chat, sms")
	}
	if req.Direction == "" {
		req.Direction = models.DirectionInbound
	}
	if !req.Direction.Valid() {
		return nil, apperr.Validation("direction must be inbound or outbound")
	}
	if req.PilotMode == "" {
		req.PilotMode = models.PilotSuggestive
	}
	if !req.PilotMode.Valid() {
		return nil, apperr.Validation("pilot_mode must be one of off, suggestive, autopilot")
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	agent := &models.Agent{
		ID:             uuid.NewString(),
		BusinessID:     businessID,
		Name:           strings.TrimSpace(req.Name),
		Type:           req.Type,
		Direction:      req.Direction,
		InitialMessage: req.InitialMessage,
		Personality:    req.Personality,
		IsActive:       active,
		PilotMode:      req.PilotMode,
	}
	if err := s.store.Agents.Create(ctx, agent); err != nil {
		s.logger.Error("Failed to create agent", zap.String("business_id", businessID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Agent created",
		zap.String("agent_id", agent.ID),
		zap.String("business_id", businessID),
		zap.String("pilot_mode", string(agent.PilotMode)))
	return agent, nil
}

func (s *agentService) List(ctx context.Context, businessID string) ([]*models.Agent, error) {
	return s.store.Agents.ListByBusiness(ctx, businessID)
}

func (s *agentService) Get(ctx context.Context, businessID, id string) (*models.AgentWithGoals, error) {
	agent, err := s.ownedAgent(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	goals, err := s.store.Goals.ListByAgent(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.AgentWithGoals{Agent: agent, Goals: goals}, nil
}

func (s *agentService) Update(ctx context.Context, businessID, id string, upd models.AgentUpdate) (*models.Agent, error) {
	if _, err := s.ownedAgent(ctx, businessID, id); err != nil {
		return nil, err
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, apperr.Validation("name cannot be empty")
	}
	if upd.Type != nil && !upd.Type.Valid() {
		return nil, apperr.Validation("type must be one of voice, chat, sms")
	}
	if upd.Direction != nil && !upd.Direction.Valid() {
		return nil, apperr.Validation("direction must be inbound or outbound")
	}
	if upd.PilotMode != nil && !upd.PilotMode.Valid() {
		return nil, apperr.Validation("pilot_mode must be one of off, suggestive, autopilot")
	}

	agent, err := s.store.Agents.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if upd.PilotMode != nil {
		s.logger.Info("Agent pilot mode changed", zap.String("agent_id", id), zap.String("pilot_mode", string(*upd.PilotMode)))
	}
	return agent, nil
}

func (s *agentService) Delete(ctx context.Context, businessID, id string) error {
	if _, err := s.ownedAgent(ctx, businessID, id); err != nil {
		return err
	}
	err := s.store.InTx(ctx, func(tx *repository.Repositories) error {
		return tx.Agents.Delete(ctx, id)
	})
	if err != nil {
		s.logger.Error("Failed to delete agent", zap.String("agent_id", id), zap.Error(err))
		return err
	}
	s.logger.Info("Agent deleted", zap.String("agent_id", id))
	return nil
}

func (s *agentService) ListGoals(ctx context.Context, businessID, agentID string) ([]*models.AgentGoal, error) {
	if _, err := s.ownedAgent(ctx, businessID, agentID); err != nil {
		return nil, err
	}
	return s.store.Goals.ListByAgent(ctx, agentID)
}

func (s *agentService) CreateGoal(ctx context.Context, businessID, agentID string, req models.CreateGoalRequest) (*models.AgentGoal, error) {
	if _, err := s.ownedAgent(ctx, businessID, agentID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.GoalType) == "" {
		return nil, apperr.Validation("goal_type is required")
	}

	goal := &models.AgentGoal{
		ID:                 uuid.NewString(),
		AgentID:            agentID,
		GoalType:           strings.TrimSpace(req.GoalType),
		FieldsToCollect:    req.FieldsToCollect,
		CustomInstructions: req.CustomInstructions,
		Priority:           req.Priority,
	}
	if err := s.store.Goals.Create(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *agentService) UpdateGoal(ctx context.Context, businessID, goalID string, upd models.GoalUpdate) (*models.AgentGoal, error) {
	if _, err := s.ownedGoal(ctx, businessID, goalID); err != nil {
		return nil, err
	}
	if upd.GoalType != nil && strings.TrimSpace(*upd.GoalType) == "" {
		return nil, apperr.Validation("goal_type cannot be empty")
	}
	return s.store.Goals.Update(ctx, goalID, upd)
}

func (s *agentService) DeleteGoal(ctx context.Context, businessID, goalID string) error {
	if _, err := s.ownedGoal(ctx, businessID, goalID); err != nil {
		return err
	}
	return s.store.Goals.Delete(ctx, goalID)
}

func (s *agentService) ownedAgent(ctx context.Context, businessID, id string) (*models.Agent, error) {
	agent, err := s.store.Agents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := owned(businessID, agent.BusinessID, "agent"); err != nil {
		return nil, err
	}
	return agent, nil
}

func (s *agentService) ownedGoal(ctx context.Context, businessID, id string) (*models.AgentGoal, error) {
	goal, err := s.store.Goals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedAgent(ctx, businessID, goal.AgentID); err != nil {
		return nil, err
	}
	return goal, nil
}

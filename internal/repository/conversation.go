package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"

	"go.uber.org/zap"
)

type ConversationRepository interface {
	Create(ctx context.Context, c *models.Conversation) error
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	ListByBusiness(ctx context.Context, businessID string, filter models.ConversationFilter) ([]*models.Conversation, error)
	FindActiveByContact(ctx context.Context, agentID, contactPhone string) (*models.Conversation, error)
	Update(ctx context.Context, id string, upd models.ConversationUpdate) (*models.Conversation, error)
	SetSummary(ctx context.Context, id, summary string) error
	Touch(ctx context.Context, id string, at time.Time) error
}

type conversationRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewConversationRepository(db DBTX, logger *zap.Logger) ConversationRepository {
	return &conversationRepository{db: db, logger: logger}
}

const conversationColumns = `id, business_id, agent_id, channel, contact_name, contact_email, contact_phone,
	status, sentiment, summary, created_at, updated_at`

func (r *conversationRepository) Create(ctx context.Context, c *models.Conversation) error {
	ts := now()
	c.CreatedAt, c.UpdatedAt = ts, ts
	if c.Status == "" {
		c.Status = models.StatusActive
	}
	query := r.db.Rebind(`INSERT INTO conversations (` + conversationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query, c.ID, c.BusinessID, c.AgentID, c.Channel, c.ContactName,
		c.ContactEmail, c.ContactPhone, c.Status, c.Sentiment, c.Summary, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

func (r *conversationRepository) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	var c models.Conversation
	query := r.db.Rebind(`SELECT ` + conversationColumns + ` FROM conversations WHERE id = ?`)
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		return nil, notFound(err, "conversation")
	}
	return &c, nil
}

func (r *conversationRepository) ListByBusiness(ctx context.Context, businessID string, filter models.ConversationFilter) ([]*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE business_id = ?`
	args := []interface{}{businessID}
	if filter.Channel != "" {
		query += ` AND channel = ?`
		args = append(args, filter.Channel)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY updated_at DESC`

	conversations := []*models.Conversation{}
	if err := r.db.SelectContext(ctx, &conversations, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return conversations, nil
}

// FindActiveByContact returns the open thread for a phone contact, or nil when there is none.
func (r *conversationRepository) FindActiveByContact(ctx context.Context, agentID, contactPhone string) (*models.Conversation, error) {
	conversations := []*models.Conversation{}
	query := r.db.Rebind(`SELECT ` + conversationColumns + ` FROM conversations
		WHERE agent_id = ? AND contact_phone = ? AND status = ?
		ORDER BY updated_at DESC LIMIT 1`)
	if err := r.db.SelectContext(ctx, &conversations, query, agentID, contactPhone, models.StatusActive); err != nil {
		return nil, fmt.Errorf("failed to find conversation by contact: %w", err)
	}
	if len(conversations) == 0 {
		return nil, nil
	}
	return conversations[0], nil
}

func (r *conversationRepository) Update(ctx context.Context, id string, upd models.ConversationUpdate) (*models.Conversation, error) {
	var set setClause
	if upd.Status != nil {
		set.add("status", *upd.Status)
	}
	if upd.Sentiment != nil {
		set.add("sentiment", *upd.Sentiment)
	}
	if set.empty() {
		return r.GetByID(ctx, id)
	}
	set.add("updated_at", now())

	query := r.db.Rebind(`UPDATE conversations SET ` + set.sql() + ` WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, append(set.args, id)...)
	if err != nil {
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}
	if err := checkAffected(res, "conversation"); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *conversationRepository) SetSummary(ctx context.Context, id, summary string) error {
	query := r.db.Rebind(`UPDATE conversations SET summary = ?, updated_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, summary, now(), id)
	if err != nil {
		return fmt.Errorf("failed to set summary: %w", err)
	}
	return checkAffected(res, "conversation")
}

// Touch bumps updated_at without changing status.
func (r *conversationRepository) Touch(ctx context.Context, id string, at time.Time) error {
	query := r.db.Rebind(`UPDATE conversations SET updated_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	return checkAffected(res, "conversation")
}

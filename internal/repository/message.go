package repository

import (
	"context"
	"fmt"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"

	"go.uber.org/zap"
)

// MessageRepository is append-only: there is no update or delete.
type MessageRepository interface {
	Create(ctx context.Context, m *models.Message) error
	ListByConversation(ctx context.Context, conversationID string) ([]*models.Message, error)
	Recent(ctx context.Context, conversationID string, limit int) ([]*models.Message, error)
}

type messageRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewMessageRepository(db DBTX, logger *zap.Logger) MessageRepository {
	return &messageRepository{db: db, logger: logger}
}

const messageColumns = `id, conversation_id, role, content, audio_url, was_auto_generated, was_approved, created_at`

func (r *messageRepository) Create(ctx context.Context, m *models.Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now()
	}
	query := r.db.Rebind(`INSERT INTO messages (` + messageColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query, m.ID, m.ConversationID, m.Role, m.Content, m.AudioURL,
		m.WasAutoGenerated, m.WasApproved, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListByConversation returns the whole history oldest first.
func (r *messageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*models.Message, error) {
	messages := []*models.Message{}
	query := r.db.Rebind(`SELECT ` + messageColumns + ` FROM messages WHERE conversation_id = ? ORDER BY created_at, id`)
	if err := r.db.SelectContext(ctx, &messages, query, conversationID); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// Recent returns at most limit of the latest messages, oldest first.
// A non-positive limit returns the whole history.
func (r *messageRepository) Recent(ctx context.Context, conversationID string, limit int) ([]*models.Message, error) {
	if limit <= 0 {
		return r.ListByConversation(ctx, conversationID)
	}

	messages := []*models.Message{}
	query := r.db.Rebind(`SELECT ` + messageColumns + ` FROM (
			SELECT ` + messageColumns + ` FROM messages WHERE conversation_id = ?
			ORDER BY created_at DESC, id DESC LIMIT ?
		) AS recent ORDER BY created_at, id`)
	if err := r.db.SelectContext(ctx, &messages, query, conversationID, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent messages: %w", err)
	}
	return messages, nil
}

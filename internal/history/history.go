// Package history is the append-only, time ordered message log of a conversation.
package history

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/repository"
)

// Turn describes a message to append.
type Turn struct {
	Role          models.MessageRole
	Content       string
	AudioURL      *string
	AutoGenerated bool
	Approved      *bool
}

// Store appends turns and reads bounded recent context.
type Store struct {
	store  *repository.Store
	logger *zap.Logger
}

func NewStore(store *repository.Store, logger *zap.Logger) *Store {
	return &Store{store: store, logger: logger}
}

// Append writes turn in its own transaction.
func (s *Store) Append(ctx context.Context, conversationID string, turn Turn) (*models.Message, error) {
	var msg *models.Message
	err := s.store.InTx(ctx, func(tx *repository.Repositories) error {
		var err error
		msg, err = AppendWith(ctx, tx, conversationID, turn)
		return err
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// AppendWith writes turn through repositories the caller already holds,
// typically bound to a transaction that also meters the message.
// The conversation's updated_at is moved to the message timestamp; its
// status is left alone.
func AppendWith(ctx context.Context, repos *repository.Repositories, conversationID string, turn Turn) (*models.Message, error) {
	if !turn.Role.Valid() {
		return nil, fmt.Errorf("invalid message role %q", turn.Role)
	}

	msg := &models.Message{
		ID:               uuid.NewString(),
		ConversationID:   conversationID,
		Role:             turn.Role,
		Content:          turn.Content,
		AudioURL:         turn.AudioURL,
		WasAutoGenerated: turn.AutoGenerated,
		WasApproved:      turn.Approved,
	}
	if err := repos.Messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	if err := repos.Conversations.Touch(ctx, conversationID, msg.CreatedAt); err != nil {
		return nil, err
	}
	return msg, nil
}

// Recent returns up to limit of the latest messages oldest first; a
// non-positive limit returns the whole conversation.
func (s *Store) Recent(ctx context.Context, conversationID string, limit int) ([]*models.Message, error) {
	messages, err := s.store.Messages.Recent(ctx, conversationID, limit)
	if err != nil {
		s.logger.Error("Failed to read history",
			zap.String("conversation_id", conversationID),
			zap.Int("limit", limit),
			zap.Error(err))
		return nil, err
	}
	return messages, nil
}

// ToChat maps stored messages onto model turns. Agent messages become
// assistant turns; user and system turns keep their role.
func ToChat(messages []*models.Message) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(messages))
	for _, m := range messages {
		role := models.ChatRoleUser
		switch m.Role {
		case models.RoleAgent:
			role = models.ChatRoleAssistant
		case models.RoleSystem:
			role = models.ChatRoleSystem
		}
		out = append(out, models.ChatMessage{Role: role, Content: m.Content})
	}
	return out
}

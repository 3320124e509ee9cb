package models

import "time"

// Business is the tenant that owns agents, conversations and training data.
type Business struct {
	ID                   string    `db:"id" json:"id"`
	Name                 string    `db:"name" json:"name"`
	Slug                 string    `db:"slug" json:"slug"`
	OwnerTokenHash       string    `db:"owner_token_hash" json:"-"`
	Email                string    `db:"email" json:"email,omitempty"`
	Phone                string    `db:"phone" json:"phone,omitempty"`
	Website              string    `db:"website" json:"website,omitempty"`
	SubscriptionTier     string    `db:"subscription_tier" json:"subscription_tier"`
	AICreditsRemaining   int       `db:"ai_credits_remaining" json:"ai_credits_remaining"`
	NotificationsEnabled bool      `db:"notifications_enabled" json:"notifications_enabled"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

const (
	DefaultSubscriptionTier = "free"
	DefaultAICredits        = 100
)

// CreateBusinessRequest registers a new tenant.
type CreateBusinessRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
}

// CreateBusinessResponse carries the owner token, which is only ever shown once.
type CreateBusinessResponse struct {
	Business   *Business `json:"business"`
	OwnerToken string    `json:"owner_token"`
}

// BusinessStats is the dashboard summary for one tenant.
type BusinessStats struct {
	AICreditsRemaining  int    `json:"ai_credits_remaining"`
	SubscriptionTier    string `json:"subscription_tier"`
	AgentCount          int    `db:"agent_count" json:"agent_count"`
	ConversationCount   int    `db:"conversation_count" json:"conversation_count"`
	ActiveConversations int    `db:"active_conversations" json:"active_conversations"`
}

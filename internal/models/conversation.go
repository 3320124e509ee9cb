package models

import "time"

type Channel string

const (
	ChannelWebchat Channel = "webchat"
	ChannelSMS     Channel = "sms"
	ChannelPhone   Channel = "phone"
	ChannelEmail   Channel = "email"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelWebchat, ChannelSMS, ChannelPhone, ChannelEmail:
		return true
	}
	return false
}

type ConversationStatus string

const (
	StatusActive      ConversationStatus = "active"
	StatusResolved    ConversationStatus = "resolved"
	StatusTransferred ConversationStatus = "transferred"
)

// CanTransition reports whether a conversation may move from s to next.
// Resolved is terminal and transferred can only be resolved.
func (s ConversationStatus) CanTransition(next ConversationStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusActive:
		return next == StatusResolved || next == StatusTransferred
	case StatusTransferred:
		return next == StatusResolved
	}
	return false
}

func (s ConversationStatus) Valid() bool {
	switch s {
	case StatusActive, StatusResolved, StatusTransferred:
		return true
	}
	return false
}

// Conversation is one thread with one external contact over one channel.
type Conversation struct {
	ID           string             `db:"id" json:"id"`
	BusinessID   string             `db:"business_id" json:"business_id"`
	AgentID      *string            `db:"agent_id" json:"agent_id,omitempty"`
	Channel      Channel            `db:"channel" json:"channel"`
	ContactName  string             `db:"contact_name" json:"contact_name,omitempty"`
	ContactEmail string             `db:"contact_email" json:"contact_email,omitempty"`
	ContactPhone string             `db:"contact_phone" json:"contact_phone,omitempty"`
	Status       ConversationStatus `db:"status" json:"status"`
	Sentiment    *string            `db:"sentiment" json:"sentiment,omitempty"`
	Summary      *string            `db:"summary" json:"summary,omitempty"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `db:"updated_at" json:"updated_at"`
}

type MessageRole string

const (
	RoleUser   MessageRole = "user"
	RoleAgent  MessageRole = "agent"
	RoleSystem MessageRole = "system"
)

func (r MessageRole) Valid() bool {
	return r == RoleUser || r == RoleAgent || r == RoleSystem
}

// Message is one immutable turn of a conversation.
type Message struct {
	ID               string      `db:"id" json:"id"`
	ConversationID   string      `db:"conversation_id" json:"conversation_id"`
	Role             MessageRole `db:"role" json:"role"`
	Content          string      `db:"content" json:"content"`
	AudioURL         *string     `db:"audio_url" json:"audio_url,omitempty"`
	WasAutoGenerated bool        `db:"was_auto_generated" json:"was_auto_generated"`
	WasApproved      *bool       `db:"was_approved" json:"was_approved"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
}

type ConversationWithMessages struct {
	*Conversation
	Messages []*Message `json:"messages"`
}

type CreateConversationRequest struct {
	AgentID      *string `json:"agent_id"`
	Channel      Channel `json:"channel"`
	ContactName  string  `json:"contact_name"`
	ContactEmail string  `json:"contact_email"`
	ContactPhone string  `json:"contact_phone"`
}

type ConversationUpdate struct {
	Status    *ConversationStatus `json:"status"`
	Sentiment *string             `json:"sentiment"`
}

// ConversationFilter narrows a conversation listing; zero values match all.
type ConversationFilter struct {
	Channel Channel
	Status  ConversationStatus
}

type SendMessageRequest struct {
	Role     MessageRole `json:"role"`
	Content  string      `json:"content"`
	AudioURL *string     `json:"audio_url"`
}

type GenerateRequest struct {
	PilotMode PilotMode `json:"pilot_mode"`
}

// GenerateResult is returned by generate-response: Message is set when the
// reply was committed, SuggestedResponse when it is held for approval.
type GenerateResult struct {
	Message           *Message `json:"message,omitempty"`
	SuggestedResponse string   `json:"suggested_response,omitempty"`
	Sent              bool     `json:"sent"`
}

type ApproveRequest struct {
	Content string `json:"content"`
}

type SummarizeBatchRequest struct {
	ConversationIDs []string `json:"conversation_ids"`
}

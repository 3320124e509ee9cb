package models

import "time"

// PhoneNumber is a carrier number already owned by a business.
type PhoneNumber struct {
	ID         string    `db:"id" json:"id"`
	BusinessID string    `db:"business_id" json:"business_id"`
	AgentID    *string   `db:"agent_id" json:"agent_id,omitempty"`
	Number     string    `db:"number" json:"number"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type AddPhoneNumberRequest struct {
	Number  string  `json:"number"`
	AgentID *string `json:"agent_id"`
}

type AssignPhoneNumberRequest struct {
	AgentID *string `json:"agent_id"`
}

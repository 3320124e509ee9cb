package models

import "time"

type UsageType string

const (
	UsageAIMessage   UsageType = "ai_message"
	UsageVoiceMinute UsageType = "voice_minute"
	UsageSMSSent     UsageType = "sms_sent"
	UsageCallMade    UsageType = "call_made"
)

// UsageLogEntry is an append-only accounting record.
type UsageLogEntry struct {
	ID          string    `db:"id" json:"id"`
	BusinessID  string    `db:"business_id" json:"business_id"`
	Type        UsageType `db:"type" json:"type"`
	Quantity    int       `db:"quantity" json:"quantity"`
	CreditsUsed int       `db:"credits_used" json:"credits_used"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type UsageLimitRequest struct {
	AICredits *int `json:"ai_credits"`
}

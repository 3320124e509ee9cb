package models

import (
	"time"

	"github.com/lib/pq"
)

type AgentType string

const (
	AgentTypeVoice AgentType = "voice"
	AgentTypeChat  AgentType = "chat"
	AgentTypeSMS   AgentType = "sms"
)

func (t AgentType) Valid() bool {
	switch t {
	case AgentTypeVoice, AgentTypeChat, AgentTypeSMS:
		return true
	}
	return false
}

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

func (d Direction) Valid() bool {
	return d == DirectionInbound || d == DirectionOutbound
}

// PilotMode controls how much autonomy an agent has over its own replies.
type PilotMode string

const (
	PilotOff        PilotMode = "off"
	PilotSuggestive PilotMode = "suggestive"
	PilotAutopilot  PilotMode = "autopilot"
)

func (m PilotMode) Valid() bool {
	switch m {
	case PilotOff, PilotSuggestive, PilotAutopilot:
		return true
	}
	return false
}

// Agent is an AI persona bound to one business and one channel type.
type Agent struct {
	ID             string    `db:"id" json:"id"`
	BusinessID     string    `db:"business_id" json:"business_id"`
	Name           string    `db:"name" json:"name"`
	Type           AgentType `db:"type" json:"type"`
	Direction      Direction `db:"direction" json:"direction"`
	InitialMessage string    `db:"initial_message" json:"initial_message,omitempty"`
	Personality    string    `db:"personality" json:"personality,omitempty"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	PilotMode      PilotMode `db:"pilot_mode" json:"pilot_mode"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// AgentGoal is one prioritised objective of an agent.
type AgentGoal struct {
	ID                 string         `db:"id" json:"id"`
	AgentID            string         `db:"agent_id" json:"agent_id"`
	GoalType           string         `db:"goal_type" json:"goal_type"`
	FieldsToCollect    pq.StringArray `db:"fields_to_collect" json:"fields_to_collect"`
	CustomInstructions string         `db:"custom_instructions" json:"custom_instructions,omitempty"`
	Priority           int            `db:"priority" json:"priority"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
}

type AgentWithGoals struct {
	*Agent
	Goals []*AgentGoal `json:"goals"`
}

type CreateAgentRequest struct {
	Name           string    `json:"name"`
	Type           AgentType `json:"type"`
	Direction      Direction `json:"direction"`
	InitialMessage string    `json:"initial_message"`
	Personality    string    `json:"personality"`
	IsActive       *bool     `json:"is_active"`
	PilotMode      PilotMode `json:"pilot_mode"`
}

// AgentUpdate lists the only agent fields a client may change.
type AgentUpdate struct {
	Name           *string    `json:"name"`
	Type           *AgentType `json:"type"`
	Direction      *Direction `json:"direction"`
	InitialMessage *string    `json:"initial_message"`
	Personality    *string    `json:"personality"`
	IsActive       *bool      `json:"is_active"`
	PilotMode      *PilotMode `json:"pilot_mode"`
}

type CreateGoalRequest struct {
	GoalType           string   `json:"goal_type"`
	FieldsToCollect    []string `json:"fields_to_collect"`
	CustomInstructions string   `json:"custom_instructions"`
	Priority           int      `json:"priority"`
}

type GoalUpdate struct {
	GoalType           *string   `json:"goal_type"`
	FieldsToCollect    *[]string `json:"fields_to_collect"`
	CustomInstructions *string   `json:"custom_instructions"`
	Priority           *int      `json:"priority"`
}

// Package policy decides what happens to a generated reply under an agent's pilot mode.
package policy

import (
	"github.com/wealthmastermind7-svg/AIEmployee/internal/apperr"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
)

// Action is the fate of a candidate reply.
type Action int

const (
	// Skip means no generation is attempted; a human handles the conversation.
	Skip Action = iota
	// Hold means the candidate is returned to the caller and nothing is persisted.
	Hold
	// Commit means the candidate is appended to history and metered in one unit.
	Commit
)

func (a Action) String() string {
	switch a {
	case Skip:
		return "skip"
	case Hold:
		return "hold"
	case Commit:
		return "commit"
	}
	return "unknown"
}

// Decide maps a pilot mode onto an action. Unknown modes are rejected.
func Decide(mode models.PilotMode) (Action, error) {
	switch mode {
	case models.PilotOff:
		return Skip, nil
	case models.PilotSuggestive:
		return Hold, nil
	case models.PilotAutopilot:
		return Commit, nil
	}
	return Skip, apperr.Validation("unknown pilot mode %q", mode)
}

// Resolve picks the mode that governs one invocation: an explicit request
// value wins, then the agent's configured mode, then suggestive.
func Resolve(requested models.PilotMode, agent *models.Agent) models.PilotMode {
	if requested != "" {
		return requested
	}
	if agent != nil && agent.PilotMode != "" {
		return agent.PilotMode
	}
	return models.PilotSuggestive
}

package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/apperr"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/service"
)

func TestGenerateSuggestiveHoldsReply(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)
	b := env.business(t)
	agent := env.agent(t, b.ID, models.PilotSuggestive)
	conv := env.conversation(t, b, &agent.ID)
	env.say(t, conv.ID, models.RoleUser, "What are your hours?")

	result, err := env.responder.GenerateResponse(ctx, conv.ID, "")
	require.NoError(t, err)
	assert.False(t, result.Sent)
	assert.Nil(t, result.Message)
	assert.Equal(t, "We are open 9 to 5.", result.SuggestedResponse)

	messages, usage, credits := env.counts(t, b, conv.ID)
	assert.Equal(t, 1, messages)
	assert.Equal(t, 0, usage)
	assert.Equal(t, models.DefaultAICredits, credits)

	call := env.llm.lastCall()
	assert.Equal(t, "You are the Acme front desk.", call.system)
	assert.Equal(t, 500, call.maxTokens)
	assert.Equal(t, []models.ChatMessage{{Role: models.ChatRoleUser, Content: "What are your hours?"}}, call.messages)
}

func TestGenerateAutopilotCommitsAndMeters(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)
	b := env.business(t)
	agent := env.agent(t, b.ID, models.PilotAutopilot)
	conv := env.conversation(t, b, &agent.ID)
	env.say(t, conv.ID, models.RoleUser, "What are your hours?")

	result, err := env.responder.GenerateResponse(ctx, conv.ID, "")
	require.NoError(t, err)
	require.True(t, result.Sent)
	require.NotNil(t, result.Message)
	assert.Equal(t, models.RoleAgent, result.Message.Role)
	assert.True(t, result.Message.WasAutoGenerated)
	require.NotNil(t, result.Message.WasApproved)
	assert.True(t, *result.Message.WasApproved)

	messages, usage, credits := env.counts(t, b, conv.ID)
	assert.Equal(t, 2, messages)
	assert.Equal(t, 1, usage)
	assert.Equal(t, models.DefaultAICredits-1, credits)

	entries, err := env.store.Usage.ListByBusiness(ctx, b.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, models.UsageAIMessage, entries[0].Type)
	assert.Equal(t, 1, entries[0].Quantity)
	assert.Equal(t, 1, entries[0].CreditsUsed)
}

func TestGenerateRequestedModeOverridesAgent(t *testing.T) {
	env := setupEnv(t)
	b := env.business(t)
	agent := env.agent(t, b.ID, models.PilotAutopilot)
	conv := env.conversation(t, b, &agent.ID)
	env.say(t, conv.ID, models.RoleUser, "Hi")

	result, err := env.responder.GenerateResponse(context.Background(), conv.ID, models.PilotSuggestive)
	require.NoError(t, err)
	assert.False(t, result.Sent)

	_, usage, _ := env.counts(t, b, conv.ID)
	assert.Equal(t, 0, usage)
}

func TestGenerateWithoutAgentUsesDefaultPrompt(t *testing.T) {
	env := setupEnv(t)
	b := env.business(t)
	conv := env.conversation(t, b, nil)
	env.say(t, conv.ID, models.RoleUser, "Hi")

	result, err := env.responder.GenerateResponse(context.Background(), conv.ID, "")
	require.NoError(t, err)
	assert.False(t, result.Sent)
	assert.Equal(t, service.DefaultSystemPrompt, env.llm.lastCall().system)
}

func TestGenerateIncludesKnowledgeBase(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)
	b := env.business(t)
	agent := env.agent(t, b.ID, models.PilotSuggestive)
	conv := env.conversation(t, b, &agent.ID)
	env.say(t, conv.ID, models.RoleUser, "Do you work weekends?")

	require.NoError(t, env.store.Training.Create(ctx, &models.TrainingDatum{
		ID:         uuid.NewString(),
		BusinessID: b.ID,
		AgentID:    &agent.ID,
		Type:       models.TrainingQAPair,
		Question:   "Weekend hours?",
		Answer:     "Saturdays 10 to 2.",
		Status:     models.TrainingActive,
	}))

	_, err := env.responder.GenerateResponse(ctx, conv.ID, "")
	require.NoError(t, err)

	system := env.llm.lastCall().system
	assert.True(t, strings.HasPrefix(system, "You are the Acme front desk."))
	assert.Contains(t, system, "Q: Weekend hours?\nA: Saturdays 10 to 2.")
}

func TestGeneratePilotOffIsRejected(t *testing.T) {
	env := setupEnv(t)
	b := env.business(t)
	agent := env.agent(t, b.ID, models.PilotOff)
	conv := env.conversation(t, b, &agent.ID)
	env.say(t, conv.ID, models.RoleUser, "Hi")

	_, err := env.responder.GenerateResponse(context.Background(), conv.ID, "")
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 0, env.llm.callCount())
}

func TestGenerateFailureCommitsNothing(t *testing.T) {
	env := setupEnv(t)
	b := env.business(t)
	agent := env.agent(t, b.ID, models.PilotAutopilot)
	conv := env.conversation(t, b, &agent.ID)
	env.say(t, conv.ID, models.RoleUser, "Hi")
	env.llm.err = errors.New("status 429: rate limit exceeded")

	_, err := env.responder.GenerateResponse(context.Background(), conv.ID, "")
	var genErr *apperr.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.True(t, genErr.IsRateLimit())

	messages, usage, credits := env.counts(t, b, conv.ID)
	assert.Equal(t, 1, messages)
	assert.Equal(t, 0, usage)
	assert.Equal(t, models.DefaultAICredits, credits)
}

func TestGenerateBlankReplyIsAFailure(t *testing.T) {
	env := setupEnv(t)
	b := env.business(t)
	agent := env.agent(t, b.ID, models.PilotAutopilot)
	conv := env.conversation(t, b, &agent.ID)
	env.say(t, conv.ID, models.RoleUser, "Hi")
	env.llm.replies = []string{"   "}

	_, err := env.responder.GenerateResponse(context.Background(), conv.ID, "")
	var genErr *apperr.GenerationError
	require.ErrorAs(t, err, &genErr)

	messages, usage, _ := env.counts(t, b, conv.ID)
	assert.Equal(t, 1, messages)
	assert.Equal(t, 0, usage)
}

func TestGenerateUnknownConversation(t *testing.T) {
	env := setupEnv(t)
	_, err := env.responder.GenerateResponse(context.Background(), "missing", "")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestApproveCommitsEditedContent(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)
	b := env.business(t)
	agent := env.agent(t, b.ID, models.PilotSuggestive)
	conv := env.conversation(t, b, &agent.ID)
	env.say(t, conv.ID, models.RoleUser, "What are your hours?")

	msg, err := env.responder.ApproveResponse(ctx, conv.ID, "Open 9 to 5, Monday to Friday.")
	require.NoError(t, err)
	assert.Equal(t, "Open 9 to 5, Monday to Friday.", msg.Content)
	assert.True(t, msg.WasAutoGenerated)
	require.NotNil(t, msg.WasApproved)
	assert.True(t, *msg.WasApproved)

	messages, usage, credits := env.counts(t, b, conv.ID)
	assert.Equal(t, 2, messages)
	assert.Equal(t, 1, usage)
	assert.Equal(t, models.DefaultAICredits-1, credits)
	assert.Equal(t, 0, env.llm.callCount())
}

func TestApproveRejectsBlankContent(t *testing.T) {
	env := setupEnv(t)
	b := env.business(t)
	conv := env.conversation(t, b, nil)

	_, err := env.responder.ApproveResponse(context.Background(), conv.ID, " \n")
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSummarizeEmptyConversation(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)
	b := env.business(t)
	conv := env.conversation(t, b, nil)

	summary, err := env.responder.Summarize(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, service.EmptySummary, summary)
	assert.Equal(t, 0, env.llm.callCount())

	got, err := env.store.Conversations.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Summary)
}

func TestSummarizeStoresSummary(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)
	b := env.business(t)
	conv := env.conversation(t, b, nil)
	env.say(t, conv.ID, models.RoleUser, "My sink is leaking")
	env.say(t, conv.ID, models.RoleAgent, "We can visit tomorrow")
	env.llm.replies = []string{"Customer reported a leak; a visit was offered."}

	summary, err := env.responder.Summarize(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Customer reported a leak; a visit was offered.", summary)

	call := env.llm.lastCall()
	assert.Equal(t, "Summarize this conversation in 2-3 sentences.", call.system)
	assert.Equal(t, 150, call.maxTokens)
	require.Len(t, call.messages, 1)
	assert.Equal(t, "user: My sink is leaking\nagent: We can visit tomorrow", call.messages[0].Content)

	got, err := env.store.Conversations.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Summary)
	assert.Equal(t, summary, *got.Summary)
}

func TestSummarizeManyKeepsOrder(t *testing.T) {
	env := setupEnv(t)
	b := env.business(t)
	ids := make([]string, 4)
	for i := range ids {
		conv := env.conversation(t, b, nil)
		env.say(t, conv.ID, models.RoleUser, "Hello")
		ids[i] = conv.ID
	}

	results, err := env.responder.SummarizeMany(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, results, len(ids))
	for i, r := range results {
		assert.Equal(t, ids[i], r.ConversationID)
		assert.Equal(t, "We are open 9 to 5.", r.Summary)
	}
}

func TestSummarizeManyReportsExhaustedItems(t *testing.T) {
	env := setupEnv(t)
	b := env.business(t)
	conv := env.conversation(t, b, nil)
	env.say(t, conv.ID, models.RoleUser, "Hello")
	env.llm.err = errors.New("upstream returned 500")

	results, err := env.responder.SummarizeMany(context.Background(), []string{conv.ID})
	require.Error(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Summary)
	// One attempt plus three retries.
	assert.Equal(t, 4, env.llm.callCount())
}

func TestVoiceTurnUsesBoundedHistory(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)
	b := env.business(t)
	agent := env.agent(t, b.ID, models.PilotSuggestive)
	conv := env.conversation(t, b, &agent.ID)
	for i := 0; i < 8; i++ {
		env.say(t, conv.ID, models.RoleUser, "earlier turn")
	}

	msg, err := env.responder.VoiceTurn(ctx, conv.ID, "Can someone come today?")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAgent, msg.Role)

	call := env.llm.lastCall()
	assert.Equal(t, 150, call.maxTokens)
	require.Len(t, call.messages, 6)
	assert.Equal(t, "Can someone come today?", call.messages[5].Content)
	assert.Contains(t, call.system, "answering the phone for Acme Plumbing")

	// Voice replies are spoken immediately, so they commit even for suggestive agents.
	messages, usage, _ := env.counts(t, b, conv.ID)
	assert.Equal(t, 10, messages)
	assert.Equal(t, 1, usage)
}

func TestVoiceTurnPilotOff(t *testing.T) {
	env := setupEnv(t)
	b := env.business(t)
	agent := env.agent(t, b.ID, models.PilotOff)
	conv := env.conversation(t, b, &agent.ID)

	_, err := env.responder.VoiceTurn(context.Background(), conv.ID, "Hello?")
	require.ErrorIs(t, err, apperr.ErrValidation)

	messages, _, _ := env.counts(t, b, conv.ID)
	assert.Equal(t, 0, messages)
}

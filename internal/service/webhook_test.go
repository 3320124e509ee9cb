package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/notify"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/service"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingNotifier) notifications() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notification(nil), r.sent...)
}

const carrierNumber = "+15557654321"

func setupWebhooks(t *testing.T, mode models.PilotMode) (*testEnv, *models.Business, *models.Agent, *recordingNotifier, *service.WebhookService) {
	t.Helper()
	env := setupEnv(t)
	b := env.business(t)
	agent := env.agent(t, b.ID, mode)

	require.NoError(t, env.store.PhoneNumbers.Create(context.Background(), &models.PhoneNumber{
		ID:         uuid.NewString(),
		BusinessID: b.ID,
		AgentID:    &agent.ID,
		Number:     carrierNumber,
		IsActive:   true,
	}))

	notifier := &recordingNotifier{}
	svc := service.NewWebhookService(env.store, env.history, env.responder, notifier, zap.NewNop())
	return env, b, agent, notifier, svc
}

func TestSMSAutopilotRepliesAndNotifies(t *testing.T) {
	ctx := context.Background()
	env, b, agent, notifier, svc := setupWebhooks(t, models.PilotAutopilot)

	reply, err := svc.HandleSMS(ctx, carrierNumber, "+15550001111", "Are you open?")
	require.NoError(t, err)
	assert.Equal(t, "We are open 9 to 5.", reply)

	convs, err := env.store.Conversations.ListByBusiness(ctx, b.ID, models.ConversationFilter{})
	require.NoError(t, err)
	require.Len(t, convs, 1)
	conv := convs[0]
	assert.Equal(t, models.ChannelSMS, conv.Channel)
	assert.Equal(t, agent.ID, *conv.AgentID)

	messages, usage, _ := env.counts(t, b, conv.ID)
	assert.Equal(t, 2, messages)
	assert.Equal(t, 1, usage)

	// A second text from the same contact lands in the same conversation.
	_, err = svc.HandleSMS(ctx, carrierNumber, "+15550001111", "Thanks")
	require.NoError(t, err)
	convs, err = env.store.Conversations.ListByBusiness(ctx, b.ID, models.ConversationFilter{})
	require.NoError(t, err)
	assert.Len(t, convs, 1)

	require.Eventually(t, func() bool { return len(notifier.notifications()) == 2 }, time.Second, 10*time.Millisecond)
	first := notifier.notifications()[0]
	assert.Equal(t, b.ID, first.BusinessID)
	assert.Equal(t, "New SMS from +15550001111", first.Subject)
	assert.Equal(t, "You received a new message: Are you open?. AI is handling it.", first.Body)
}

func TestSMSSuggestiveOnlyRecords(t *testing.T) {
	ctx := context.Background()
	env, b, _, notifier, svc := setupWebhooks(t, models.PilotSuggestive)

	reply, err := svc.HandleSMS(ctx, carrierNumber, "+15550001111", "Are you open?")
	require.NoError(t, err)
	assert.Empty(t, reply)
	assert.Equal(t, 0, env.llm.callCount())

	convs, err := env.store.Conversations.ListByBusiness(ctx, b.ID, models.ConversationFilter{})
	require.NoError(t, err)
	require.Len(t, convs, 1)
	messages, usage, _ := env.counts(t, b, convs[0].ID)
	assert.Equal(t, 1, messages)
	assert.Equal(t, 0, usage)
	assert.Empty(t, notifier.notifications())
}

func TestSMSToUnknownNumber(t *testing.T) {
	_, _, _, _, svc := setupWebhooks(t, models.PilotAutopilot)

	reply, err := svc.HandleSMS(context.Background(), "+19990000000", "+15550001111", "Hello")
	require.NoError(t, err)
	assert.Empty(t, reply)
}

func TestSMSGenerationFailureKeepsUserTurn(t *testing.T) {
	ctx := context.Background()
	env, b, _, _, svc := setupWebhooks(t, models.PilotAutopilot)
	env.llm.err = errors.New("upstream returned 500")

	reply, err := svc.HandleSMS(ctx, carrierNumber, "+15550001111", "Hello")
	require.NoError(t, err)
	assert.Empty(t, reply)

	convs, err := env.store.Conversations.ListByBusiness(ctx, b.ID, models.ConversationFilter{})
	require.NoError(t, err)
	require.Len(t, convs, 1)
	messages, usage, _ := env.counts(t, b, convs[0].ID)
	assert.Equal(t, 1, messages)
	assert.Equal(t, 0, usage)
}

func TestStartCallGreets(t *testing.T) {
	ctx := context.Background()
	env, b, _, _, svc := setupWebhooks(t, models.PilotSuggestive)

	call, err := svc.StartCall(ctx, carrierNumber, "+15550002222")
	require.NoError(t, err)
	assert.Equal(t, service.DefaultGreeting, call.Greeting)

	conv, err := env.store.Conversations.GetByID(ctx, call.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelPhone, conv.Channel)
	assert.Equal(t, "+15550002222", conv.ContactPhone)
	assert.Equal(t, b.ID, conv.BusinessID)

	_, err = svc.StartCall(ctx, "+19990000000", "+15550002222")
	assert.ErrorIs(t, err, service.ErrNoAgent)
}

func TestProcessSpeechAnswers(t *testing.T) {
	ctx := context.Background()
	env, b, _, _, svc := setupWebhooks(t, models.PilotSuggestive)
	env.llm.replies = []string{"Yes, we can come at noon."}

	call, err := svc.StartCall(ctx, carrierNumber, "+15550002222")
	require.NoError(t, err)

	reply, err := svc.ProcessSpeech(ctx, call.ConversationID, "Can you come today?")
	require.NoError(t, err)
	assert.Equal(t, "Yes, we can come at noon.", reply)

	messages, usage, _ := env.counts(t, b, call.ConversationID)
	assert.Equal(t, 2, messages)
	assert.Equal(t, 1, usage)
}

package service_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/batch"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/history"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/knowledge"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/lock"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/repository"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/service"
)

type llmCall struct {
	system    string
	messages  []models.ChatMessage
	maxTokens int
}

// fakeLLM replays replies in order and repeats the last one.
type fakeLLM struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   []llmCall
}

func (f *fakeLLM) Complete(_ context.Context, system string, messages []models.ChatMessage, maxTokens int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(f.calls)
	f.calls = append(f.calls, llmCall{system: system, messages: messages, maxTokens: maxTokens})
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	if n >= len(f.replies) {
		n = len(f.replies) - 1
	}
	return f.replies[n], nil
}

func (f *fakeLLM) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{"provider": "fake"}
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeLLM) lastCall() llmCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type testEnv struct {
	store     *repository.Store
	history   *history.Store
	llm       *fakeLLM
	locker    *lock.KeyedMutex
	responder *service.Responder
}

func fastBatch() batch.Options {
	return batch.Options{
		Concurrency: 2,
		Retries:     3,
		MinTimeout:  time.Millisecond,
		MaxTimeout:  2 * time.Millisecond,
	}
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	db, err := repository.NewSQLiteDB(ctx, filepath.Join(t.TempDir(), "service.db"), logger)
	require.NoError(t, err)
	store := repository.NewStore(db, logger)
	t.Cleanup(func() { store.Close() })

	env := &testEnv{
		store:   store,
		history: history.NewStore(store, logger),
		llm:     &fakeLLM{replies: []string{"We are open 9 to 5."}},
		locker:  lock.NewKeyedMutex(),
	}
	env.responder = service.NewResponder(
		store,
		env.history,
		knowledge.NewAssembler(store.Training, 0, logger),
		env.llm,
		env.locker,
		service.ResponderConfig{Batch: fastBatch()},
		logger,
	)
	return env
}

func (e *testEnv) business(t *testing.T) *models.Business {
	t.Helper()
	b := &models.Business{
		ID:                   uuid.NewString(),
		Name:                 "Acme Plumbing",
		Slug:                 "acme-" + uuid.NewString()[:8],
		OwnerTokenHash:       "unused",
		SubscriptionTier:     models.DefaultSubscriptionTier,
		AICreditsRemaining:   models.DefaultAICredits,
		NotificationsEnabled: true,
	}
	require.NoError(t, e.store.Businesses.Create(context.Background(), b))
	return b
}

func (e *testEnv) agent(t *testing.T, businessID string, mode models.PilotMode) *models.Agent {
	t.Helper()
	a := &models.Agent{
		ID:          uuid.NewString(),
		BusinessID:  businessID,
		Name:        "Front desk",
		Type:        models.AgentTypeChat,
		Direction:   models.DirectionInbound,
		Personality: "You are the Acme front desk.",
		IsActive:    true,
		PilotMode:   mode,
	}
	require.NoError(t, e.store.Agents.Create(context.Background(), a))
	return a
}

func (e *testEnv) conversation(t *testing.T, b *models.Business, agentID *string) *models.Conversation {
	t.Helper()
	c := &models.Conversation{
		ID:          uuid.NewString(),
		BusinessID:  b.ID,
		AgentID:     agentID,
		Channel:     models.ChannelWebchat,
		ContactName: "Dana",
		Status:      models.StatusActive,
	}
	require.NoError(t, e.store.Conversations.Create(context.Background(), c))
	return c
}

func (e *testEnv) say(t *testing.T, convID string, role models.MessageRole, content string) {
	t.Helper()
	_, err := e.history.Append(context.Background(), convID, history.Turn{Role: role, Content: content})
	require.NoError(t, err)
}

func (e *testEnv) counts(t *testing.T, b *models.Business, convID string) (messages, usage, credits int) {
	t.Helper()
	ctx := context.Background()

	msgs, err := e.store.Messages.ListByConversation(ctx, convID)
	require.NoError(t, err)
	entries, err := e.store.Usage.ListByBusiness(ctx, b.ID, 100)
	require.NoError(t, err)
	got, err := e.store.Businesses.GetByID(ctx, b.ID)
	require.NoError(t, err)
	return len(msgs), len(entries), got.AICreditsRemaining
}

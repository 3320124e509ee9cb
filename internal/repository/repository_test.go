package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/apperr"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/repository"
)

func setupStore(t *testing.T) *repository.Store {
	t.Helper()

	db, err := repository.NewSQLiteDB(context.Background(), filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	store := repository.NewStore(db, zap.NewNop())
	t.Cleanup(func() { store.Close() })
	return store
}

func seedBusiness(t *testing.T, store *repository.Store) *models.Business {
	t.Helper()

	b := &models.Business{
		ID:                 uuid.NewString(),
		Name:               "Acme Plumbing",
		Slug:               "acme-plumbing-" + uuid.NewString()[:8],
		OwnerTokenHash:     "hash",
		SubscriptionTier:   models.DefaultSubscriptionTier,
		AICreditsRemaining: models.DefaultAICredits,
	}
	require.NoError(t, store.Businesses.Create(context.Background(), b))
	return b
}

func seedAgent(t *testing.T, store *repository.Store, businessID string) *models.Agent {
	t.Helper()

	a := &models.Agent{
		ID:         uuid.NewString(),
		BusinessID: businessID,
		Name:       "Front desk",
		Type:       models.AgentTypeChat,
		Direction:  models.DirectionInbound,
		IsActive:   true,
		PilotMode:  models.PilotSuggestive,
	}
	require.NoError(t, store.Agents.Create(context.Background(), a))
	return a
}

func seedConversation(t *testing.T, store *repository.Store, b *models.Business, agentID *string) *models.Conversation {
	t.Helper()

	c := &models.Conversation{
		ID:           uuid.NewString(),
		BusinessID:   b.ID,
		AgentID:      agentID,
		Channel:      models.ChannelSMS,
		ContactPhone: "+15550001111",
	}
	require.NoError(t, store.Conversations.Create(context.Background(), c))
	return c
}

func TestBusinessCreditsAndStats(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	b := seedBusiness(t, store)
	a := seedAgent(t, store, b.ID)
	seedConversation(t, store, b, &a.ID)
	resolved := seedConversation(t, store, b, &a.ID)
	status := models.StatusResolved
	_, err := store.Conversations.Update(ctx, resolved.ID, models.ConversationUpdate{Status: &status})
	require.NoError(t, err)

	require.NoError(t, store.Businesses.DecrementCredits(ctx, b.ID, 3))
	stats, err := store.Businesses.Stats(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAICredits-3, stats.AICreditsRemaining)
	assert.Equal(t, 1, stats.AgentCount)
	assert.Equal(t, 2, stats.ConversationCount)
	assert.Equal(t, 1, stats.ActiveConversations)

	require.NoError(t, store.Businesses.SetCredits(ctx, b.ID, 500))
	got, err := store.Businesses.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 500, got.AICreditsRemaining)

	_, err = store.Businesses.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAgentUpdateOnlyTouchesGivenFields(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	b := seedBusiness(t, store)
	a := seedAgent(t, store, b.ID)

	mode := models.PilotAutopilot
	updated, err := store.Agents.Update(ctx, a.ID, models.AgentUpdate{PilotMode: &mode})
	require.NoError(t, err)
	assert.Equal(t, models.PilotAutopilot, updated.PilotMode)
	assert.Equal(t, a.Name, updated.Name)
	assert.True(t, updated.IsActive)

	_, err = store.Agents.Update(ctx, "missing", models.AgentUpdate{PilotMode: &mode})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAgentDeleteCascadesGoals(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	b := seedBusiness(t, store)
	a := seedAgent(t, store, b.ID)

	for i, goalType := range []string{"book_appointment", "collect_contact"} {
		require.NoError(t, store.Goals.Create(ctx, &models.AgentGoal{
			ID:              uuid.NewString(),
			AgentID:         a.ID,
			GoalType:        goalType,
			FieldsToCollect: []string{"name", "phone"},
			Priority:        2 - i,
		}))
	}
	goals, err := store.Goals.ListByAgent(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, "collect_contact", goals[0].GoalType)
	assert.Equal(t, []string{"name", "phone"}, []string(goals[0].FieldsToCollect))

	conv := seedConversation(t, store, b, &a.ID)
	require.NoError(t, store.InTx(ctx, func(tx *repository.Repositories) error {
		return tx.Agents.Delete(ctx, a.ID)
	}))

	goals, err = store.Goals.ListByAgent(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, goals)

	got, err := store.Conversations.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AgentID)
}

func TestRecentMessagesAreChronological(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	b := seedBusiness(t, store)
	conv := seedConversation(t, store, b, nil)

	contents := []string{"one", "two", "three", "four", "five"}
	for _, c := range contents {
		require.NoError(t, store.Messages.Create(ctx, &models.Message{
			ID:             uuid.NewString(),
			ConversationID: conv.ID,
			Role:           models.RoleUser,
			Content:        c,
		}))
	}

	recent, err := store.Messages.Recent(ctx, conv.ID, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "three", recent[0].Content)
	assert.Equal(t, "five", recent[2].Content)

	all, err := store.Messages.Recent(ctx, conv.ID, 0)
	require.NoError(t, err)
	require.Len(t, all, len(contents))
	for i, m := range all {
		assert.Equal(t, contents[i], m.Content)
		assert.Nil(t, m.WasApproved)
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	b := seedBusiness(t, store)
	conv := seedConversation(t, store, b, nil)

	boom := errors.New("boom")
	err := store.InTx(ctx, func(tx *repository.Repositories) error {
		approved := true
		if err := tx.Messages.Create(ctx, &models.Message{
			ID:               uuid.NewString(),
			ConversationID:   conv.ID,
			Role:             models.RoleAgent,
			Content:          "hello",
			WasAutoGenerated: true,
			WasApproved:      &approved,
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	msgs, err := store.Messages.ListByConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestFindActiveByContact(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	b := seedBusiness(t, store)
	a := seedAgent(t, store, b.ID)

	none, err := store.Conversations.FindActiveByContact(ctx, a.ID, "+15550001111")
	require.NoError(t, err)
	assert.Nil(t, none)

	conv := seedConversation(t, store, b, &a.ID)
	found, err := store.Conversations.FindActiveByContact(ctx, a.ID, "+15550001111")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, conv.ID, found.ID)

	status := models.StatusResolved
	_, err = store.Conversations.Update(ctx, conv.ID, models.ConversationUpdate{Status: &status})
	require.NoError(t, err)
	found, err = store.Conversations.FindActiveByContact(ctx, a.ID, "+15550001111")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestTrainingListByAgentHonoursLimit(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	b := seedBusiness(t, store)
	a := seedAgent(t, store, b.ID)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Training.Create(ctx, &models.TrainingDatum{
			ID:         uuid.NewString(),
			BusinessID: b.ID,
			AgentID:    &a.ID,
			Type:       models.TrainingQAPair,
			Question:   "q",
			Answer:     string(rune('a' + i)),
		}))
	}

	rows, err := store.Training.ListByAgent(ctx, a.ID, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "e", rows[0].Answer)
	assert.Equal(t, "d", rows[1].Answer)

	require.NoError(t, store.Training.Delete(ctx, rows[0].ID))
	assert.ErrorIs(t, store.Training.Delete(ctx, rows[0].ID), apperr.ErrNotFound)
}

func TestUsageLogsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	b := seedBusiness(t, store)

	for _, typ := range []models.UsageType{models.UsageAIMessage, models.UsageSMSSent} {
		require.NoError(t, store.Usage.Create(ctx, &models.UsageLogEntry{
			ID:          uuid.NewString(),
			BusinessID:  b.ID,
			Type:        typ,
			Quantity:    1,
			CreditsUsed: 1,
		}))
	}

	entries, err := store.Usage.ListByBusiness(ctx, b.ID, 50)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.UsageSMSSent, entries[0].Type)
}

func TestPhoneNumberLookup(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	b := seedBusiness(t, store)
	a := seedAgent(t, store, b.ID)

	p := &models.PhoneNumber{ID: uuid.NewString(), BusinessID: b.ID, Number: "+15559990000", IsActive: true}
	require.NoError(t, store.PhoneNumbers.Create(ctx, p))
	require.NoError(t, store.PhoneNumbers.AssignAgent(ctx, p.ID, &a.ID))

	got, err := store.PhoneNumbers.GetByNumber(ctx, "+15559990000")
	require.NoError(t, err)
	require.NotNil(t, got.AgentID)
	assert.Equal(t, a.ID, *got.AgentID)

	byAgent, err := store.PhoneNumbers.ListByAgent(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, byAgent, 1)

	_, err = store.PhoneNumbers.GetByNumber(ctx, "+10000000000")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

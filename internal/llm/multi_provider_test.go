package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
)

type stubProvider struct {
	name  string
	err   error
	calls int
}

func (p *stubProvider) Complete(_ context.Context, _ string, _ []models.ChatMessage, _ int) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return "reply from " + p.name, nil
}

func (p *stubProvider) Close() error { return nil }

func (p *stubProvider) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{"provider": p.name}
}

func TestMultiProviderSwitchesOnRateLimit(t *testing.T) {
	primary := &stubProvider{name: "primary", err: errors.New("status 429: rate limit")}
	backup := &stubProvider{name: "backup"}
	client := newMultiProviderClient([]Provider{primary, backup}, 3, zap.NewNop())

	reply, err := client.Complete(context.Background(), "sys", nil, 100)
	require.NoError(t, err)
	assert.Equal(t, "reply from backup", reply)
	assert.Equal(t, 1, primary.calls)

	// The backup stays current for following calls.
	_, err = client.Complete(context.Background(), "sys", nil, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 2, backup.calls)
	assert.Equal(t, 1, client.GetModelInfo()["provider_index"])
}

func TestMultiProviderJoinsErrorsWhenAllFail(t *testing.T) {
	a := &stubProvider{name: "a", err: errors.New("quota exhausted")}
	b := &stubProvider{name: "b", err: errors.New("connection refused")}
	client := newMultiProviderClient([]Provider{a, b}, 1, zap.NewNop())

	_, err := client.Complete(context.Background(), "sys", nil, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exhausted")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRateLimiterWaitHonoursContext(t *testing.T) {
	rl := NewRateLimiter(1)
	require.NoError(t, rl.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := rl.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(60_000) // one token per millisecond
	rl.tokens = 0
	start := time.Now()
	require.NoError(t, rl.Wait(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
}

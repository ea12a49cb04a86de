package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/autopilot/internal/config"
)

func TestNew_OpenAI(t *testing.T) {
	client, err := New(config.LLMConfig{
		Provider: "openai",
		APIKey:   config.Secret("sk-test"),
	})
	require.NoError(t, err)

	lc, ok := client.(*langchainClient)
	require.True(t, ok)
	assert.NotNil(t, lc.model)
	assert.NotNil(t, lc.limiter)
}

func TestNew_EmptyProviderDefaultsToOpenAI(t *testing.T) {
	client, err := New(config.LLMConfig{APIKey: config.Secret("sk-test")})
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNew_UnsupportedProvider(t *testing.T) {
	_, err := New(config.LLMConfig{Provider: "bedrock", APIKey: config.Secret("k")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bedrock")
}

func TestComplete_EmptyPrompt(t *testing.T) {
	c := newLangchainClient(nil)

	_, err := c.Complete(context.Background(), CompletionRequest{})
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestComplete_RateLimiterHonorsContext(t *testing.T) {
	c := &langchainClient{limiter: rate.NewLimiter(rate.Every(time.Hour), 0)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Complete(ctx, CompletionRequest{Prompt: "hello"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
}

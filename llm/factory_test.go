package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/flowcanvas/config"
	"github.com/BaSui01/flowcanvas/testutil/mocks"
	"github.com/BaSui01/flowcanvas/workflow"
)

func TestFromConfig_EchoDefaults(t *testing.T) {
	rec := &mocks.MockRecorder{}
	cfg := config.DefaultLLMConfig()
	cfg.SummaryModel = "sum"

	stack, err := FromConfig(cfg, Deps{Metrics: rec})
	require.NoError(t, err)
	require.NotNil(t, stack.Breaker)
	require.NotNil(t, stack.Summarizer)

	resp, err := stack.Invoker.Invoke(context.Background(), workflow.ModelRequest{Model: "m", Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "[m] hi", resp.Text)
	assert.Equal(t, []string{"echo/m/success"}, rec.ModelRequests())
}

func TestFromConfig_WithCacheAndRateLimit(t *testing.T) {
	_, store := newCacheManager(t)
	rec := &mocks.MockRecorder{}
	cfg := config.DefaultLLMConfig()
	cfg.RateLimitRPS = 100
	cfg.RateLimitBurst = 10
	cfg.BreakerThreshold = 0

	stack, err := FromConfig(cfg, Deps{Store: store, Metrics: rec})
	require.NoError(t, err)
	assert.Nil(t, stack.Breaker)
	assert.Nil(t, stack.Summarizer)

	req := workflow.ModelRequest{Model: "m", Prompt: "hi"}
	for i := 0; i < 2; i++ {
		_, err := stack.Invoker.Invoke(context.Background(), req)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, rec.CacheHits())
	assert.Equal(t, 1, rec.CacheMisses())

	deps := stack.HandlerDeps(nil, 3)
	assert.Equal(t, 3, deps.MaxParallelModels)
	assert.NotNil(t, deps.Invoker)
}

func TestFromConfig_UnknownProvider(t *testing.T) {
	_, err := FromConfig(config.LLMConfig{Provider: "bard"}, Deps{})
	assert.ErrorContains(t, err, "unknown llm provider")
}

func TestNewBaseInvoker_OpenAI(t *testing.T) {
	inv, err := NewBaseInvoker(config.LLMConfig{Provider: ProviderOpenAI, APIKey: "k"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIInvoker{}, inv)
}

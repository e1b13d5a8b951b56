package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/flowcanvas/types"
	"github.com/BaSui01/flowcanvas/workflow"
)

func TestEchoInvoker(t *testing.T) {
	resp, err := (&EchoInvoker{}).Invoke(context.Background(), workflow.ModelRequest{Model: "m1", Prompt: "hello there"})
	require.NoError(t, err)
	assert.Equal(t, "m1", resp.Model)
	assert.Equal(t, "[m1] hello there", resp.Text)
	assert.Equal(t, workflow.Usage{PromptTokens: 2, CompletionTokens: 3, TotalTokens: 5}, resp.Usage)
}

func TestEchoInvoker_LatencyHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&EchoInvoker{Latency: time.Hour}).Invoke(ctx, workflow.ModelRequest{Model: "m"})
	require.Error(t, err)
	assert.Equal(t, types.ErrTimeout, types.GetErrorCode(err))
	assert.ErrorIs(t, err, context.Canceled)
}

package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestExecutor_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	e := newTestExecutor(WithTracer(provider.Tracer("test")))
	nodes := []Node{
		NewInputNode("input1", "x"),
		{ID: "llm1", Type: NodeTypeLLM, Config: &LLMConfig{Prompt: "p"}},
	}
	edges := []Edge{NewEdge("input1", "llm1")}

	res, err := e.RunUnchecked(context.Background(), nodes, edges, RunOptions{})
	require.NoError(t, err)
	require.Equal(t, StatusFailed, res.Status)

	spans := recorder.Ended()
	require.Len(t, spans, 3)

	byNode := map[string]sdktrace.ReadOnlySpan{}
	var run sdktrace.ReadOnlySpan
	for _, s := range spans {
		if s.Name() == "workflow.run" {
			run = s
			continue
		}
		for _, kv := range s.Attributes() {
			if kv.Key == "workflow.node_id" {
				byNode[kv.Value.AsString()] = s
			}
		}
	}

	require.NotNil(t, run)
	assert.Equal(t, codes.Error, run.Status().Code)
	assert.Contains(t, run.Attributes(), attribute.String("workflow.run_id", res.RunID))
	assert.Contains(t, run.Attributes(), attribute.String("workflow.status", "failed"))

	require.Contains(t, byNode, "llm1")
	assert.Equal(t, codes.Error, byNode["llm1"].Status().Code)
	assert.Equal(t, codes.Unset, byNode["input1"].Status().Code)
	assert.Equal(t, run.SpanContext().SpanID(), byNode["input1"].Parent().SpanID())
}

package workflow

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// echoInvoker answers every request with "<model>: <prompt>".
func echoInvoker() ModelInvoker {
	return ModelInvokerFunc(func(_ context.Context, req ModelRequest) (*ModelResponse, error) {
		return &ModelResponse{
			Model: req.Model,
			Text:  fmt.Sprintf("%s: %s", req.Model, req.Prompt),
			Usage: Usage{PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2},
		}, nil
	})
}

func newTestExecutor(opts ...ExecutorOption) *Executor {
	registry := NewDefaultRegistry(HandlerDeps{Invoker: echoInvoker()})
	return NewExecutor(registry, append([]ExecutorOption{WithLogger(zap.NewNop())}, opts...)...)
}

func linearGraph() ([]Node, []Edge) {
	nodes := []Node{
		NewInputNode("input1", "hello"),
		NewLLMNode("llm1", "Echo: {input}", "gpt-4o"),
		NewOutputNode("output1", OutputFormatText),
	}
	edges := []Edge{
		NewEdge("input1", "llm1"),
		NewEdge("llm1", "output1"),
	}
	return nodes, edges
}

func diamondGraph() ([]Node, []Edge) {
	nodes := []Node{
		NewInputNode("input1", "topic"),
		NewLLMNode("llm1", "A {input}", "model-a"),
		NewLLMNode("llm2", "B {input}", "model-b"),
		NewCompareNode("compare1", ComparisonDifferences),
	}
	edges := []Edge{
		NewEdge("input1", "llm1"),
		NewEdge("input1", "llm2"),
		NewEdge("llm1", "compare1"),
		NewEdge("llm2", "compare1"),
	}
	return nodes, edges
}

// callRecorder collects hook invocations.
type callRecorder struct {
	mu       sync.Mutex
	started  []string
	done     []string
	failed   []string
	progress []Progress
}

func (r *callRecorder) options() RunOptions {
	return RunOptions{
		OnProgress: func(p Progress) {
			r.mu.Lock()
			r.progress = append(r.progress, p)
			r.mu.Unlock()
		},
		OnNodeStart: func(id string) {
			r.mu.Lock()
			r.started = append(r.started, id)
			r.mu.Unlock()
		},
		OnNodeComplete: func(id string, _ ExecutionResult) {
			r.mu.Lock()
			r.done = append(r.done, id)
			r.mu.Unlock()
		},
		OnNodeError: func(id string, _ error) {
			r.mu.Lock()
			r.failed = append(r.failed, id)
			r.mu.Unlock()
		},
	}
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

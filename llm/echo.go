package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BaSui01/flowcanvas/types"
	"github.com/BaSui01/flowcanvas/workflow"
)

// EchoInvoker 回显 "[model] prompt"，不访问任何外部服务
type EchoInvoker struct {
	// Latency 模拟调用耗时，0 表示立即返回
	Latency time.Duration
}

var _ workflow.ModelInvoker = (*EchoInvoker)(nil)

// Invoke 实现 workflow.ModelInvoker
func (e *EchoInvoker) Invoke(ctx context.Context, req workflow.ModelRequest) (*workflow.ModelResponse, error) {
	if e.Latency > 0 {
		timer := time.NewTimer(e.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, types.NewError(types.ErrTimeout, "echo invocation interrupted").WithCause(ctx.Err())
		case <-timer.C:
		}
	}

	text := fmt.Sprintf("[%s] %s", req.Model, req.Prompt)
	prompt := len(strings.Fields(req.Prompt))
	completion := len(strings.Fields(text))
	return &workflow.ModelResponse{
		Model: req.Model,
		Text:  text,
		Usage: workflow.Usage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		},
	}, nil
}

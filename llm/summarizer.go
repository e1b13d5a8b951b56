package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/BaSui01/flowcanvas/types"
	"github.com/BaSui01/flowcanvas/workflow"
)

// ModelSummarizer 借助模型实现 workflow.Summarizer
type ModelSummarizer struct {
	Invoker workflow.ModelInvoker
	Model   string
}

var _ workflow.Summarizer = (*ModelSummarizer)(nil)

// Summarize 按长度与风格要求压缩文本；空文本直接返回
func (s *ModelSummarizer) Summarize(ctx context.Context, text string, cfg workflow.SummarizeConfig) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if s.Invoker == nil || s.Model == "" {
		return "", types.NewError(types.ErrModelNotConfigured, "summarizer has no model configured")
	}

	resp, err := s.Invoker.Invoke(ctx, workflow.ModelRequest{
		Model:  s.Model,
		Prompt: SummaryPrompt(text, cfg),
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// SummaryPrompt 构造摘要提示词
func SummaryPrompt(text string, cfg workflow.SummarizeConfig) string {
	var b strings.Builder
	b.WriteString("Summarize the following text")
	if cfg.Length != "" {
		fmt.Fprintf(&b, " in a %s length", cfg.Length)
	}
	if cfg.Style != "" {
		fmt.Fprintf(&b, " using a %s style", cfg.Style)
	}
	b.WriteString(".\n\n")
	b.WriteString(text)
	return b.String()
}

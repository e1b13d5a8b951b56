package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/BaSui01/flowcanvas/internal/tlsutil"
	"github.com/BaSui01/flowcanvas/types"
	"github.com/BaSui01/flowcanvas/workflow"
)

// OpenAIConfig 配置 OpenAI 兼容的 Chat Completions 端点
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// HTTPClient 覆盖默认的加固客户端
	HTTPClient *http.Client
}

// OpenAIInvoker 通过 go-openai 调用 Chat Completions
type OpenAIInvoker struct {
	client *openai.Client
	logger *zap.Logger
}

var _ workflow.ModelInvoker = (*OpenAIInvoker)(nil)

// NewOpenAIInvoker 创建 OpenAI 调用器
func NewOpenAIInvoker(cfg OpenAIConfig, logger *zap.Logger) *OpenAIInvoker {
	if logger == nil {
		logger = zap.NewNop()
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	} else {
		oc.HTTPClient = tlsutil.HTTPClient(cfg.Timeout)
	}
	return &OpenAIInvoker{
		client: openai.NewClientWithConfig(oc),
		logger: logger.With(zap.String("component", "openai_invoker")),
	}
}

// Invoke 实现 workflow.ModelInvoker，提示词作为单条 user 消息发送
func (o *OpenAIInvoker) Invoke(ctx context.Context, req workflow.ModelRequest) (*workflow.ModelResponse, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, mapOpenAIError(ctx, req.Model, err)
	}
	if len(resp.Choices) == 0 {
		return nil, types.Errorf(types.ErrUpstreamError, "model %s returned no choices", req.Model)
	}

	model := resp.Model
	if model == "" {
		model = req.Model
	}
	return &workflow.ModelResponse{
		Model: model,
		Text:  strings.TrimSpace(resp.Choices[0].Message.Content),
		Usage: workflow.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// mapOpenAIError 把 go-openai 的错误归一为 types.Error
func mapOpenAIError(ctx context.Context, model string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil || errors.Is(err, context.DeadlineExceeded) {
		return types.Errorf(types.ErrTimeout, "model %s request did not complete", model).WithCause(err)
	}

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusTooManyRequests:
		return types.Errorf(types.ErrRateLimited, "model %s rate limited", model).
			WithCause(err).WithHTTPStatus(status).WithRetryable(true)
	case status >= 500:
		return types.Errorf(types.ErrUpstreamError, "model %s upstream error", model).
			WithCause(err).WithHTTPStatus(status).WithRetryable(true)
	case status >= 400:
		return types.Errorf(types.ErrInvalidRequest, "model %s rejected the request", model).
			WithCause(err).WithHTTPStatus(status)
	default:
		return types.Errorf(types.ErrUpstreamError, "model %s request failed", model).
			WithCause(err).WithRetryable(true)
	}
}

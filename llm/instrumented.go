package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/flowcanvas/internal/ctxkeys"
	"github.com/BaSui01/flowcanvas/types"
	"github.com/BaSui01/flowcanvas/workflow"
)

const tracerName = "github.com/BaSui01/flowcanvas/llm"

// ModelRecorder 接收模型调用指标，metrics.Collector 实现了它
type ModelRecorder interface {
	RecordModelRequest(provider, model, status string, duration time.Duration, promptTokens, completionTokens int)
}

// InstrumentedInvoker 为每次模型调用记录指标、span 与日志
type InstrumentedInvoker struct {
	next     workflow.ModelInvoker
	provider string
	recorder ModelRecorder
	tracer   trace.Tracer
	logger   *zap.Logger
	now      func() time.Time
}

var _ workflow.ModelInvoker = (*InstrumentedInvoker)(nil)

// NewInstrumentedInvoker 创建观测装饰器；recorder 可为 nil
func NewInstrumentedInvoker(next workflow.ModelInvoker, provider string, recorder ModelRecorder, logger *zap.Logger) *InstrumentedInvoker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedInvoker{
		next:     next,
		provider: provider,
		recorder: recorder,
		tracer:   otel.Tracer(tracerName),
		logger:   logger.With(zap.String("component", "model_invoker"), zap.String("provider", provider)),
		now:      time.Now,
	}
}

// Invoke 实现 workflow.ModelInvoker
func (i *InstrumentedInvoker) Invoke(ctx context.Context, req workflow.ModelRequest) (*workflow.ModelResponse, error) {
	ctx, span := i.tracer.Start(ctx, "llm.invoke", trace.WithAttributes(
		attribute.String("llm.provider", i.provider),
		attribute.String("llm.model", req.Model),
		attribute.Int("llm.prompt_chars", len(req.Prompt)),
	))
	defer span.End()

	start := i.now()
	resp, err := i.next.Invoke(ctx, req)
	duration := i.now().Sub(start)

	fields := append(ctxkeys.LogFields(ctx),
		zap.String("model", req.Model),
		zap.Duration("duration", duration),
	)

	if err != nil {
		status := string(types.GetErrorCode(err))
		if status == "" {
			status = "error"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		i.record(req.Model, status, duration, 0, 0)
		i.logger.Warn("model request failed", append(fields, zap.String("status", status), zap.Error(err))...)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("llm.prompt_tokens", resp.Usage.PromptTokens),
		attribute.Int("llm.completion_tokens", resp.Usage.CompletionTokens),
	)
	i.record(req.Model, "success", duration, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	i.logger.Debug("model request completed", append(fields, zap.Int("total_tokens", resp.Usage.TotalTokens))...)
	return resp, nil
}

func (i *InstrumentedInvoker) record(model, status string, d time.Duration, prompt, completion int) {
	if i.recorder != nil {
		i.recorder.RecordModelRequest(i.provider, model, status, d, prompt, completion)
	}
}

package llm

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/BaSui01/flowcanvas/types"
	"github.com/BaSui01/flowcanvas/workflow"
)

// RateLimitedInvoker 用令牌桶限制下游调用速率，所有模型共享一个桶
type RateLimitedInvoker struct {
	next    workflow.ModelInvoker
	limiter *rate.Limiter
}

var _ workflow.ModelInvoker = (*RateLimitedInvoker)(nil)

// NewRateLimitedInvoker 创建限流装饰器；burst 小于 1 时按 1 处理
func NewRateLimitedInvoker(next workflow.ModelInvoker, rps float64, burst int) *RateLimitedInvoker {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedInvoker{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Invoke 等待令牌后转发请求。等待被 ctx 打断或必然超出 deadline 时返回 RATE_LIMITED。
func (r *RateLimitedInvoker) Invoke(ctx context.Context, req workflow.ModelRequest) (*workflow.ModelResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, types.Errorf(types.ErrRateLimited, "rate limit wait for model %s aborted", req.Model).
			WithCause(err).WithRetryable(true)
	}
	return r.next.Invoke(ctx, req)
}

package llm

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/flowcanvas/types"
	"github.com/BaSui01/flowcanvas/workflow"
)

// =============================================================================
// 🔌 按模型熔断
// =============================================================================

// BreakerState 熔断器状态
type BreakerState int

const (
	// BreakerClosed 正常放行
	BreakerClosed BreakerState = iota
	// BreakerOpen 快速失败
	BreakerOpen
	// BreakerHalfOpen 放行有限的探测请求
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// BreakerConfig 熔断器配置
type BreakerConfig struct {
	// FailureThreshold 连续失败次数阈值
	FailureThreshold int
	// Cooldown 打开后到允许探测的等待时间
	Cooldown time.Duration
	// HalfOpenProbes 半开状态下允许同时在途的探测数
	HalfOpenProbes int
	// HalfOpenSuccesses 半开状态下恢复所需的连续成功次数
	HalfOpenSuccesses int
}

// DefaultBreakerConfig 返回默认熔断配置
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold:  5,
		Cooldown:          30 * time.Second,
		HalfOpenProbes:    1,
		HalfOpenSuccesses: 1,
	}
}

// TransitionFunc 接收状态变更通知，在锁外同步调用
type TransitionFunc func(model string, from, to BreakerState)

type breaker struct {
	state     BreakerState
	failures  int
	successes int
	probes    int
	openedAt  time.Time
}

type transition struct {
	from, to BreakerState
}

// BreakerInvoker 为每个模型维护独立的熔断器
type BreakerInvoker struct {
	next         workflow.ModelInvoker
	config       BreakerConfig
	onTransition TransitionFunc
	now          func() time.Time
	logger       *zap.Logger

	mu       sync.Mutex
	breakers map[string]*breaker
}

var _ workflow.ModelInvoker = (*BreakerInvoker)(nil)

// BreakerOption 配置 BreakerInvoker
type BreakerOption func(*BreakerInvoker)

// WithTransitionFunc 设置状态变更回调
func WithTransitionFunc(fn TransitionFunc) BreakerOption {
	return func(b *BreakerInvoker) { b.onTransition = fn }
}

// WithBreakerClock 替换时钟，用于测试
func WithBreakerClock(now func() time.Time) BreakerOption {
	return func(b *BreakerInvoker) { b.now = now }
}

// WithBreakerLogger 设置日志
func WithBreakerLogger(logger *zap.Logger) BreakerOption {
	return func(b *BreakerInvoker) {
		if logger != nil {
			b.logger = logger.With(zap.String("component", "model_breaker"))
		}
	}
}

// NewBreakerInvoker 创建熔断装饰器
func NewBreakerInvoker(next workflow.ModelInvoker, config BreakerConfig, opts ...BreakerOption) *BreakerInvoker {
	def := DefaultBreakerConfig()
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = def.FailureThreshold
	}
	if config.Cooldown <= 0 {
		config.Cooldown = def.Cooldown
	}
	if config.HalfOpenProbes <= 0 {
		config.HalfOpenProbes = def.HalfOpenProbes
	}
	if config.HalfOpenSuccesses <= 0 {
		config.HalfOpenSuccesses = def.HalfOpenSuccesses
	}
	b := &BreakerInvoker{
		next:     next,
		config:   config,
		now:      time.Now,
		logger:   zap.NewNop(),
		breakers: make(map[string]*breaker),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Invoke 实现 workflow.ModelInvoker
func (b *BreakerInvoker) Invoke(ctx context.Context, req workflow.ModelRequest) (*workflow.ModelResponse, error) {
	if err := b.allow(req.Model); err != nil {
		return nil, err
	}
	resp, err := b.next.Invoke(ctx, req)
	b.record(req.Model, err)
	return resp, err
}

// State 返回模型当前的熔断状态；未见过的模型为 closed
func (b *BreakerInvoker) State(model string) BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if br, ok := b.breakers[model]; ok {
		return br.state
	}
	return BreakerClosed
}

// States 返回所有已知模型的熔断状态
func (b *BreakerInvoker) States() map[string]BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]BreakerState, len(b.breakers))
	for model, br := range b.breakers {
		out[model] = br.state
	}
	return out
}

func (b *BreakerInvoker) allow(model string) error {
	b.mu.Lock()
	br := b.get(model)
	var moved *transition

	switch br.state {
	case BreakerOpen:
		if b.now().Sub(br.openedAt) < b.config.Cooldown {
			b.mu.Unlock()
			return types.Errorf(types.ErrUpstreamError, "circuit open for model %s", model).WithRetryable(true)
		}
		moved = b.setState(br, BreakerHalfOpen)
		br.probes = 1
	case BreakerHalfOpen:
		if br.probes >= b.config.HalfOpenProbes {
			b.mu.Unlock()
			return types.Errorf(types.ErrUpstreamError, "circuit half-open for model %s, probe in flight", model).WithRetryable(true)
		}
		br.probes++
	}
	b.mu.Unlock()

	b.notify(model, moved)
	return nil
}

func (b *BreakerInvoker) record(model string, err error) {
	b.mu.Lock()
	br := b.get(model)
	var moved *transition

	if br.state == BreakerHalfOpen && br.probes > 0 {
		br.probes--
	}

	if err == nil || !countsAsFailure(err) {
		switch br.state {
		case BreakerClosed:
			br.failures = 0
		case BreakerHalfOpen:
			br.successes++
			if br.successes >= b.config.HalfOpenSuccesses {
				moved = b.setState(br, BreakerClosed)
			}
		}
	} else {
		br.failures++
		switch br.state {
		case BreakerClosed:
			if br.failures >= b.config.FailureThreshold {
				moved = b.setState(br, BreakerOpen)
			}
		case BreakerHalfOpen:
			moved = b.setState(br, BreakerOpen)
		}
	}
	b.mu.Unlock()

	b.notify(model, moved)
}

// get 必须在持锁时调用
func (b *BreakerInvoker) get(model string) *breaker {
	br, ok := b.breakers[model]
	if !ok {
		br = &breaker{}
		b.breakers[model] = br
	}
	return br
}

// setState 必须在持锁时调用
func (b *BreakerInvoker) setState(br *breaker, to BreakerState) *transition {
	from := br.state
	br.state = to
	switch to {
	case BreakerOpen:
		br.openedAt = b.now()
		br.successes = 0
		br.probes = 0
	case BreakerClosed:
		br.failures = 0
		br.successes = 0
		br.probes = 0
	case BreakerHalfOpen:
		br.successes = 0
	}
	return &transition{from: from, to: to}
}

func (b *BreakerInvoker) notify(model string, t *transition) {
	if t == nil {
		return
	}
	b.logger.Info("circuit breaker state change",
		zap.String("model", model),
		zap.String("from", t.from.String()),
		zap.String("to", t.to.String()),
	)
	if b.onTransition != nil {
		b.onTransition(model, t.from, t.to)
	}
}

// countsAsFailure 调用方自身的问题（请求非法、主动取消）不计入熔断
func countsAsFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return !types.IsErrorCode(err, types.ErrInvalidRequest)
}

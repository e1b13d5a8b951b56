package llm

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/flowcanvas/config"
	"github.com/BaSui01/flowcanvas/workflow"
)

// 支持的提供方
const (
	ProviderEcho   = "echo"
	ProviderOpenAI = "openai"
)

// Recorder 汇总调用链需要的全部指标接口
type Recorder interface {
	ModelRecorder
	CacheRecorder
	RecordBreakerTransition(model, toState string)
}

// Deps 组装调用链所需的外部依赖，均可为空
type Deps struct {
	// Store 响应缓存，nil 表示不缓存
	Store ResponseStore
	// CacheTTL 缓存过期时间
	CacheTTL time.Duration
	Metrics  Recorder
	Logger   *zap.Logger
}

// Stack 是组装好的调用链
type Stack struct {
	Invoker    workflow.ModelInvoker
	Summarizer workflow.Summarizer
	// Breaker 熔断层，阈值为 0 时为 nil
	Breaker *BreakerInvoker
}

// HandlerDeps 返回供 workflow.NewDefaultRegistry 使用的依赖
func (s *Stack) HandlerDeps(loader workflow.ContentLoader, maxParallel int) workflow.HandlerDeps {
	return workflow.HandlerDeps{
		Invoker:           s.Invoker,
		Summarizer:        s.Summarizer,
		Loader:            loader,
		MaxParallelModels: maxParallel,
	}
}

// NewBaseInvoker 按提供方创建最内层调用器
func NewBaseInvoker(cfg config.LLMConfig, logger *zap.Logger) (workflow.ModelInvoker, error) {
	switch cfg.Provider {
	case ProviderEcho, "":
		return &EchoInvoker{}, nil
	case ProviderOpenAI:
		return NewOpenAIInvoker(OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// FromConfig 由配置组装完整调用链
func FromConfig(cfg config.LLMConfig, deps Deps) (*Stack, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	base, err := NewBaseInvoker(cfg, logger)
	if err != nil {
		return nil, err
	}
	stack := &Stack{}
	invoker := base

	if cfg.BreakerThreshold > 0 {
		opts := []BreakerOption{WithBreakerLogger(logger)}
		if deps.Metrics != nil {
			m := deps.Metrics
			opts = append(opts, WithTransitionFunc(func(model string, _, to BreakerState) {
				m.RecordBreakerTransition(model, to.String())
			}))
		}
		stack.Breaker = NewBreakerInvoker(invoker, BreakerConfig{
			FailureThreshold: cfg.BreakerThreshold,
			Cooldown:         cfg.BreakerCooldown,
		}, opts...)
		invoker = stack.Breaker
	}

	if cfg.RateLimitRPS > 0 {
		invoker = NewRateLimitedInvoker(invoker, cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	var cacheRec CacheRecorder
	var modelRec ModelRecorder
	if deps.Metrics != nil {
		cacheRec = deps.Metrics
		modelRec = deps.Metrics
	}
	if deps.Store != nil {
		invoker = NewCachedInvoker(invoker, deps.Store, deps.CacheTTL, cacheRec, logger)
	}

	provider := cfg.Provider
	if provider == "" {
		provider = ProviderEcho
	}
	stack.Invoker = NewInstrumentedInvoker(invoker, provider, modelRec, logger)

	if cfg.SummaryModel != "" {
		stack.Summarizer = &ModelSummarizer{Invoker: stack.Invoker, Model: cfg.SummaryModel}
	}

	logger.Info("model invoker assembled",
		zap.String("provider", provider),
		zap.Bool("breaker", stack.Breaker != nil),
		zap.Bool("rate_limited", cfg.RateLimitRPS > 0),
		zap.Bool("cached", deps.Store != nil),
	)
	return stack, nil
}

package main

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/flowcanvas/config"
	"github.com/BaSui01/flowcanvas/content"
	"github.com/BaSui01/flowcanvas/internal/cache"
	"github.com/BaSui01/flowcanvas/internal/metrics"
	"github.com/BaSui01/flowcanvas/llm"
	"github.com/BaSui01/flowcanvas/workflow"
)

// engine 是按配置装配好的执行器及其协作者
type engine struct {
	executor *workflow.Executor
	stack    *llm.Stack
	cache    *cache.Manager
	logger   *zap.Logger
}

// newEngine 装配执行器：缓存（可选）→ 模型调用链 → 内容加载 → 处理器注册表。
// collector 与 tracer 可为 nil。
func newEngine(cfg *config.Config, collector *metrics.Collector, tracer trace.Tracer, logger *zap.Logger) (*engine, error) {
	e := &engine{logger: logger}

	deps := llm.Deps{CacheTTL: cfg.Cache.TTL, Logger: logger}
	if collector != nil {
		deps.Metrics = collector
	}

	if cfg.Cache.Enabled {
		cacheCfg := cache.DefaultConfig()
		cacheCfg.Addr = cfg.Cache.Addr
		cacheCfg.Password = cfg.Cache.Password
		cacheCfg.DB = cfg.Cache.DB
		cacheCfg.KeyPrefix = cfg.Cache.KeyPrefix
		cacheCfg.DefaultTTL = cfg.Cache.TTL

		cm, err := cache.NewManager(cacheCfg, logger)
		if err != nil {
			// 缓存只是加速手段，不可用时继续运行
			logger.Warn("response cache unavailable, continuing without it", zap.Error(err))
		} else {
			e.cache = cm
			deps.Store = cm
		}
	}

	stack, err := llm.FromConfig(cfg.LLM, deps)
	if err != nil {
		_ = e.Close()
		return nil, fmt.Errorf("build model invoker: %w", err)
	}
	e.stack = stack

	loader, err := content.NewLoader(cfg.Content, content.WithLogger(logger))
	if err != nil {
		_ = e.Close()
		return nil, fmt.Errorf("build content loader: %w", err)
	}

	registry := workflow.NewDefaultRegistry(stack.HandlerDeps(loader, cfg.Engine.MaxParallelModels))

	opts := []workflow.ExecutorOption{
		workflow.WithLogger(logger),
		workflow.WithMaxConcurrency(cfg.Engine.MaxConcurrency),
		workflow.WithNodeTimeout(cfg.Engine.NodeTimeout),
	}
	if collector != nil {
		opts = append(opts, workflow.WithMetrics(collector))
	}
	if tracer != nil {
		opts = append(opts, workflow.WithTracer(tracer))
	}
	e.executor = workflow.NewExecutor(registry, opts...)

	logger.Info("engine ready",
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.Bool("response_cache", e.cache != nil),
		zap.Bool("circuit_breaker", stack.Breaker != nil),
		zap.Int("max_concurrency", cfg.Engine.MaxConcurrency),
	)
	return e, nil
}

// Close 释放缓存连接
func (e *engine) Close() error {
	var errs []error
	if e.cache != nil {
		errs = append(errs, e.cache.Close())
	}
	return errors.Join(errs...)
}

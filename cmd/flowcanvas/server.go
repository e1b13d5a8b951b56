package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/flowcanvas/api/handlers"
	"github.com/BaSui01/flowcanvas/config"
	"github.com/BaSui01/flowcanvas/internal/database"
	"github.com/BaSui01/flowcanvas/internal/metrics"
	"github.com/BaSui01/flowcanvas/internal/server"
	"github.com/BaSui01/flowcanvas/internal/store"
	"github.com/BaSui01/flowcanvas/internal/telemetry"
	"github.com/BaSui01/flowcanvas/workflow"
)

// =============================================================================
// 🖥️ serve 命令
// =============================================================================

func runServe(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to config file")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return exitInvalid
	}

	logger, level := newLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting FlowCanvas",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := NewServer(cfg, *configPath, logger, level)
	if err := srv.Start(ctx); err != nil {
		logger.Error("Failed to start server", zap.Error(err))
		srv.Shutdown(context.Background())
		return exitFailed
	}

	code := exitOK
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-srv.Errors():
		logger.Error("Server stopped unexpectedly", zap.Error(err))
		code = exitFailed
	}

	srv.Shutdown(context.Background())
	logger.Info("FlowCanvas stopped")
	return code
}

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 持有 serve 命令的全部组件
type Server struct {
	cfg        *config.Config
	configPath string
	logger     *zap.Logger
	level      zap.AtomicLevel

	telemetry *telemetry.Providers
	collector *metrics.Collector
	engine    *engine
	db        *database.PoolManager

	healthHandler   *handlers.HealthHandler
	workflowHandler *handlers.WorkflowHandler

	httpManager    *server.Manager
	metricsManager *server.Manager
	watcher        *config.FileWatcher

	errCh  chan error
	cancel context.CancelFunc
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config, configPath string, logger *zap.Logger, level zap.AtomicLevel) *Server {
	return &Server{
		cfg:        cfg,
		configPath: configPath,
		logger:     logger,
		level:      level,
		errCh:      make(chan error, 2),
	}
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 按依赖顺序初始化并启动所有组件
func (s *Server) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	providers, err := telemetry.Init(s.cfg.Telemetry, s.logger)
	if err != nil {
		s.logger.Warn("failed to initialize telemetry", zap.Error(err))
		providers = &telemetry.Providers{}
	}
	s.telemetry = providers

	if s.cfg.Metrics.Enabled {
		s.collector = metrics.NewCollector(s.cfg.Metrics.Namespace, s.logger)
	}

	s.engine, err = newEngine(s.cfg, s.collector, s.telemetry.Tracer("github.com/BaSui01/flowcanvas/workflow"), s.logger)
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}

	runStore, err := s.openRunStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}

	s.initHandlers(runStore)

	if err := s.startHTTPServer(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	if err := s.startMetricsServer(ctx); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}
	if err := s.startConfigWatcher(ctx); err != nil {
		s.logger.Warn("config watcher disabled", zap.Error(err))
	}

	s.logger.Info("All servers started",
		zap.String("http_addr", s.httpManager.Addr()),
		zap.Bool("metrics_enabled", s.metricsManager != nil),
		zap.String("store_driver", s.cfg.Store.Driver),
	)
	return nil
}

// openRunStore 内存驱动使用 RunHistory，其余驱动使用 SQL 存储
func (s *Server) openRunStore(ctx context.Context) (workflow.RunStore, error) {
	switch s.cfg.Store.Driver {
	case "", "memory":
		return workflow.NewRunHistory(s.cfg.Server.HistorySize), nil
	}

	db, err := database.Open(s.cfg.Store, s.logger)
	if err != nil {
		return nil, err
	}
	s.db = db

	return store.NewSQLRunStore(ctx, db, s.logger)
}

func (s *Server) initHandlers(runStore workflow.RunStore) {
	s.healthHandler = handlers.NewHealthHandler(s.logger)
	if s.engine.cache != nil {
		s.healthHandler.RegisterCheck(handlers.NewPingCheck("cache", s.engine.cache.Ping))
	}
	if s.db != nil {
		s.healthHandler.RegisterCheck(handlers.NewPingCheck("store", s.db.Ping))
	}

	hub := handlers.NewEventHub(128, s.logger)
	s.workflowHandler = handlers.NewWorkflowHandler(s.engine.executor, runStore, hub, s.logger,
		handlers.WithOriginPatterns(originPatterns(s.cfg.Server.CORSAllowedOrigins)...),
	)
	s.logger.Info("Handlers initialized")
}

// originPatterns 把 CORS 来源转换为 websocket 的 host 匹配模式
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(strings.TrimPrefix(o, "https://"), "http://")
		patterns = append(patterns, o)
	}
	return patterns
}

// =============================================================================
// 🌐 HTTP 服务器
// =============================================================================

// routes 构建 API 路由与中间件链
func (s *Server) routes(ctx context.Context) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("GET /ready", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /readyz", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	s.workflowHandler.Register(mux)

	middlewares := []Middleware{
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		OTelTracing(s.telemetry.Tracer("github.com/BaSui01/flowcanvas/http")),
		RequestLogger(s.logger),
	}
	if s.collector != nil {
		middlewares = append(middlewares, MetricsMiddleware(s.collector))
	}
	middlewares = append(middlewares,
		CORS(s.cfg.Server.CORSAllowedOrigins),
		RateLimiter(ctx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger),
		APIKeyAuth(s.cfg.Server.APIKeys, s.logger),
	)
	return Chain(mux, middlewares...)
}

func (s *Server) startHTTPServer(ctx context.Context) error {
	s.httpManager = server.NewManager("api", s.routes(ctx),
		server.FromServerConfig(s.cfg.Server, s.cfg.Server.HTTPPort), s.logger)
	if err := s.httpManager.Start(); err != nil {
		return err
	}
	go s.forwardErrors(ctx, s.httpManager)
	return nil
}

// startMetricsServer 在独立端口暴露 /metrics
func (s *Server) startMetricsServer(ctx context.Context) error {
	if s.collector == nil || s.cfg.Server.MetricsPort == 0 {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s.metricsManager = server.NewManager("metrics", mux,
		server.FromServerConfig(s.cfg.Server, s.cfg.Server.MetricsPort), s.logger)
	if err := s.metricsManager.Start(); err != nil {
		return err
	}
	go s.forwardErrors(ctx, s.metricsManager)
	return nil
}

func (s *Server) forwardErrors(ctx context.Context, m *server.Manager) {
	select {
	case <-ctx.Done():
	case err := <-m.Errors():
		select {
		case s.errCh <- err:
		default:
		}
	}
}

// Errors 返回服务器运行期错误
func (s *Server) Errors() <-chan error { return s.errCh }

// =============================================================================
// 🔄 配置热更新
// =============================================================================

// startConfigWatcher 配置文件变更时重新加载；日志级别立即生效，其余字段需要重启
func (s *Server) startConfigWatcher(ctx context.Context) error {
	if s.configPath == "" {
		return nil
	}
	w, err := config.NewFileWatcher([]string{s.configPath}, config.WithWatcherLogger(s.logger))
	if err != nil {
		return err
	}
	w.OnChange(func(evt config.FileEvent) {
		if evt.Op == config.FileOpRemove {
			return
		}
		s.reloadConfig()
	})
	if err := w.Start(ctx); err != nil {
		return err
	}
	s.watcher = w
	return nil
}

func (s *Server) reloadConfig() {
	next, err := loadConfig(s.configPath)
	if err != nil {
		s.logger.Warn("Ignoring invalid configuration change", zap.Error(err))
		return
	}
	if lvl, err := zap.ParseAtomicLevel(next.Log.Level); err == nil && lvl.Level() != s.level.Level() {
		s.level.SetLevel(lvl.Level())
		s.logger.Info("Log level changed", zap.String("level", lvl.Level().String()))
	}
	if next.Engine != s.cfg.Engine || next.LLM != s.cfg.LLM || next.Store != s.cfg.Store {
		s.logger.Warn("Engine, llm or store configuration changed; restart to apply")
	}
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// Shutdown 优雅关闭所有组件，可重复调用
func (s *Server) Shutdown(ctx context.Context) {
	s.logger.Info("Starting graceful shutdown...")

	if s.cancel != nil {
		s.cancel()
	}
	if s.watcher != nil {
		_ = s.watcher.Stop()
	}

	// 先停止运行中的工作流并断开事件流，HTTP Shutdown 不等待被劫持的连接
	if s.engine != nil {
		s.engine.executor.Cancel()
	}
	if s.workflowHandler != nil {
		s.workflowHandler.Hub().Close()
	}

	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	var errs []error
	if s.engine != nil {
		errs = append(errs, s.engine.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	if s.telemetry != nil {
		errs = append(errs, s.telemetry.Shutdown(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Error("Component shutdown error", zap.Error(err))
	}

	s.logger.Info("Graceful shutdown completed")
}

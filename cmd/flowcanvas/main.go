// =============================================================================
// FlowCanvas 主入口
// =============================================================================
// 命令行执行工作流，或启动供画布 UI 使用的 HTTP 服务
//
// 使用方法:
//
//	flowcanvas run -f workflow.yaml               # 执行工作流，结果 JSON 输出到 stdout
//	flowcanvas run -f workflow.json --watch       # 文件变更时重新执行
//	flowcanvas validate -f workflow.yaml          # 只校验并打印执行层级
//	flowcanvas serve --config flowcanvas.yaml     # 启动服务
//	flowcanvas health --addr http://localhost:8080
//	flowcanvas version
// =============================================================================

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/flowcanvas/config"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// 退出码
const (
	exitOK        = 0
	exitFailed    = 1 // 运行结束但有节点失败
	exitUsage     = 2
	exitInvalid   = 3 // 配置或工作流无效
	exitCancelled = 130
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	os.Exit(dispatch(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func dispatch(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return exitUsage
	}

	switch args[0] {
	case "run":
		return runWorkflow(ctx, args[1:], stdout, stderr)
	case "validate":
		return runValidate(args[1:], stdout, stderr)
	case "serve":
		return runServe(ctx, args[1:], stderr)
	case "health":
		return runHealthCheck(args[1:], stdout, stderr)
	case "version":
		printVersion(stdout)
		return exitOK
	case "help", "-h", "--help":
		printUsage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		printUsage(stderr)
		return exitUsage
	}
}

// =============================================================================
// 🏥 健康检查命令
// =============================================================================

func runHealthCheck(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", "http://localhost:8080", "Server address")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(*addr + "/health")
	if err != nil {
		fmt.Fprintf(stderr, "Health check failed: %v\n", err)
		return exitFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(stderr, "Health check failed: status %d\n", resp.StatusCode)
		return exitFailed
	}

	fmt.Fprintln(stdout, "OK")
	return exitOK
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "FlowCanvas %s\n", Version)
	fmt.Fprintf(w, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git Commit: %s\n", GitCommit)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `FlowCanvas - visual LLM workflow engine

Usage:
  flowcanvas <command> [options]

Commands:
  run       Execute a workflow definition
  validate  Validate a workflow definition
  serve     Start the HTTP API server
  health    Check server health
  version   Show version information
  help      Show this help message

Options for 'run':
  -f <path>          Workflow definition (.json, .yaml, .yml)
  --config <path>    Path to configuration file (YAML)
  --concurrency <n>  Max concurrent nodes per level (overrides engine.max_concurrency)
  --watch            Re-run whenever the definition file changes
  --quiet            Do not print progress to stderr

Options for 'validate':
  -f <path>          Workflow definition

Options for 'serve':
  --config <path>    Path to configuration file (YAML)

Exit codes:
  0 completed, 1 node failed, 2 usage error, 3 invalid workflow or config, 130 cancelled

Examples:
  flowcanvas run -f examples/compare.yaml
  flowcanvas run -f flow.json --concurrency 4 --config /etc/flowcanvas/config.yaml
  flowcanvas validate -f flow.json
  flowcanvas serve --config /etc/flowcanvas/config.yaml`)
}

// =============================================================================
// 🔧 配置与日志初始化
// =============================================================================

func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader().WithValidator((*config.Config).Validate)
	if path != "" {
		loader = loader.WithConfigPath(path)
	}
	return loader.Load()
}

func initLogger(cfg config.LogConfig) *zap.Logger {
	logger, _ := newLogger(cfg)
	return logger
}

// newLogger 返回的 AtomicLevel 可在配置热更新时调整级别
func newLogger(cfg config.LogConfig) (*zap.Logger, zap.AtomicLevel) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	atomic := zap.NewAtomicLevelAt(level)
	zapConfig := zap.Config{
		Level:             atomic,
		Development:       cfg.Format == "console",
		Encoding:          encoding,
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: !cfg.EnableStacktrace,
	}

	logger, err := zapConfig.Build()
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}
	return logger, atomic
}

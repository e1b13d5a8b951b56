package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/flowcanvas/config"
	"github.com/BaSui01/flowcanvas/workflow"
)

// =============================================================================
// ▶️ run 命令
// =============================================================================

func runWorkflow(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("f", "", "Workflow definition file (.json, .yaml, .yml)")
	configPath := fs.String("config", "", "Path to config file")
	concurrency := fs.Int("concurrency", 0, "Max concurrent nodes per level (0 keeps the configured value)")
	watch := fs.Bool("watch", false, "Re-run whenever the definition file changes")
	quiet := fs.Bool("quiet", false, "Do not print progress to stderr")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *file == "" {
		fmt.Fprintln(stderr, "run: -f is required")
		return exitUsage
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return exitInvalid
	}
	if *concurrency > 0 {
		cfg.Engine.MaxConcurrency = *concurrency
	}

	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	eng, err := newEngine(cfg, nil, nil, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to build engine: %v\n", err)
		return exitInvalid
	}
	defer eng.Close()

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	intr := &interrupter{executor: eng.executor, stop: stop, stderr: stderr}
	go intr.loop(ctx, sigs)

	r := &runner{executor: eng.executor, interrupts: intr, quiet: *quiet, stdout: stdout, stderr: stderr}
	code := r.runFile(ctx, *file)
	if !*watch {
		return code
	}
	return r.watch(ctx, *file, logger)
}

// runCanceller 是 interrupter 需要的执行器子集
type runCanceller interface {
	IsExecuting() bool
	Cancel()
}

// interrupter 第一次中断取消当前运行（协作式），空闲时或同一运行内再次中断则退出。
// 取消请求按运行序号记录，--watch 模式下每次新运行都重新获得一次协作式取消。
type interrupter struct {
	executor runCanceller
	stop     context.CancelFunc
	stderr   io.Writer

	run       atomic.Uint64
	cancelled atomic.Uint64
}

// beginRun 在每次运行前调用
func (i *interrupter) beginRun() { i.run.Add(1) }

// interrupt 处理一次中断信号，返回 true 表示进程应退出
func (i *interrupter) interrupt() bool {
	run := i.run.Load()
	if i.executor.IsExecuting() && i.cancelled.Swap(run) != run {
		fmt.Fprintln(i.stderr, "cancelling run (interrupt again to abort)")
		i.executor.Cancel()
		return false
	}
	i.stop()
	return true
}

func (i *interrupter) loop(ctx context.Context, sigs <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sigs:
			if i.interrupt() {
				return
			}
		}
	}
}

// runner 执行定义文件并输出结果
type runner struct {
	executor   *workflow.Executor
	interrupts *interrupter
	quiet      bool
	stdout     io.Writer
	stderr     io.Writer
}

func (r *runner) runFile(ctx context.Context, path string) int {
	def, err := workflow.LoadDefinition(path)
	if err != nil {
		fmt.Fprintf(r.stderr, "run: %v\n", err)
		return exitInvalid
	}
	nodes, edges, err := def.Compile()
	if err != nil {
		fmt.Fprintf(r.stderr, "run: %v\n", err)
		return exitInvalid
	}

	if r.interrupts != nil {
		r.interrupts.beginRun()
	}
	result, err := r.executor.Run(ctx, nodes, edges, r.options())
	if err != nil {
		fmt.Fprintf(r.stderr, "run: %v\n", err)
		return exitInvalid
	}

	enc := json.NewEncoder(r.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(r.stderr, "run: encode result: %v\n", err)
		return exitFailed
	}

	switch result.Status {
	case workflow.StatusCompleted:
		return exitOK
	case workflow.StatusCancelled:
		return exitCancelled
	default:
		return exitFailed
	}
}

func (r *runner) options() workflow.RunOptions {
	if r.quiet {
		return workflow.RunOptions{}
	}
	return workflow.RunOptions{
		OnProgress: func(p workflow.Progress) {
			line := fmt.Sprintf("[%3d%%] %d/%d", p.Percentage, p.Completed, p.Total)
			if p.Current != "" {
				line += " " + p.Current
			}
			if p.EstimatedTimeRemaining != nil {
				line += fmt.Sprintf(" (~%ds left)", *p.EstimatedTimeRemaining)
			}
			fmt.Fprintln(r.stderr, line)
		},
		OnNodeError: func(nodeID string, err error) {
			fmt.Fprintf(r.stderr, "node %s failed: %v\n", nodeID, err)
		},
	}
}

// watch 在定义文件变更时重新执行，直到 ctx 结束
func (r *runner) watch(ctx context.Context, path string, logger *zap.Logger) int {
	watcher, err := config.NewFileWatcher([]string{path},
		config.WithPollInterval(500*time.Millisecond),
		config.WithDebounceDelay(200*time.Millisecond),
		config.WithWatcherLogger(logger),
	)
	if err != nil {
		fmt.Fprintf(r.stderr, "watch: %v\n", err)
		return exitInvalid
	}

	changed := make(chan struct{}, 1)
	watcher.OnChange(func(evt config.FileEvent) {
		if evt.Op == config.FileOpRemove {
			return
		}
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	if err := watcher.Start(ctx); err != nil {
		fmt.Fprintf(r.stderr, "watch: %v\n", err)
		return exitInvalid
	}
	defer watcher.Stop()

	fmt.Fprintf(r.stderr, "watching %s for changes\n", path)
	code := exitOK
	for {
		select {
		case <-ctx.Done():
			return code
		case <-changed:
			fmt.Fprintf(r.stderr, "%s changed, re-running\n", path)
			code = r.runFile(ctx, path)
		}
	}
}

// =============================================================================
// ✅ validate 命令
// =============================================================================

func runValidate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("f", "", "Workflow definition file")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *file == "" {
		fmt.Fprintln(stderr, "validate: -f is required")
		return exitUsage
	}

	def, err := workflow.LoadDefinition(*file)
	if err != nil {
		fmt.Fprintf(stderr, "invalid: %v\n", err)
		return exitInvalid
	}
	nodes, edges, err := def.Compile()
	if err == nil {
		err = workflow.Validate(nodes, edges)
	}
	if err != nil {
		fmt.Fprintf(stderr, "invalid: %v\n", err)
		return exitInvalid
	}

	levels, err := workflow.Levels(nodes, edges)
	if err != nil {
		fmt.Fprintf(stderr, "invalid: %v\n", err)
		return exitInvalid
	}
	fmt.Fprintf(stdout, "ok: %d nodes, %d edges\n", len(nodes), len(edges))
	for i, level := range levels {
		fmt.Fprintf(stdout, "  level %d: %s\n", i, strings.Join(level, ", "))
	}
	return exitOK
}

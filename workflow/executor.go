package workflow

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/flowcanvas/internal/ctxkeys"
	"github.com/BaSui01/flowcanvas/types"
)

const tracerName = "github.com/BaSui01/flowcanvas/workflow"

// ErrAlreadyRunning is returned by Run while another run is active on the same Executor.
var ErrAlreadyRunning = types.NewError(types.ErrExecutionInProgress, "workflow execution already in progress")

// ErrNodeHalted is passed to OnNodeError for nodes of a concurrent wave that
// had already started when an earlier node of the same wave failed.
var ErrNodeHalted = types.NewError(types.ErrNodeExecutionFailed, "run halted by an earlier node failure")

// ExecutorState is the lifecycle state of an Executor.
type ExecutorState string

const (
	StateIdle    ExecutorState = "idle"
	StateRunning ExecutorState = "running"
)

// RunOptions carries the notification hooks of one run. Hooks are called
// synchronously from the goroutine that called Run; any of them may be nil.
type RunOptions struct {
	// RunID names the run; a random id is generated when empty.
	RunID string

	OnProgress     func(Progress)
	OnNodeStart    func(nodeID string)
	OnNodeComplete func(nodeID string, result ExecutionResult)
	OnNodeError    func(nodeID string, err error)
}

func (o RunOptions) progress(p Progress) {
	if o.OnProgress != nil {
		o.OnProgress(p)
	}
}

func (o RunOptions) nodeStart(id string) {
	if o.OnNodeStart != nil {
		o.OnNodeStart(id)
	}
}

// MetricsRecorder receives run and node measurements.
type MetricsRecorder interface {
	RecordWorkflowRun(status string, duration time.Duration, nodesExecuted int)
	RecordNodeExecution(nodeType string, success bool, duration time.Duration)
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger.With(zap.String("component", "workflow_executor"))
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) ExecutorOption {
	return func(e *Executor) { e.metrics = m }
}

// WithTracer overrides the tracer taken from the global otel provider.
func WithTracer(t trace.Tracer) ExecutorOption {
	return func(e *Executor) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithMaxConcurrency dispatches independent nodes of one wave concurrently,
// at most n at a time. Values below 2 keep strictly sequential execution.
func WithMaxConcurrency(n int) ExecutorOption {
	return func(e *Executor) { e.maxConcurrency = n }
}

// WithNodeTimeout bounds every handler call. Zero disables the bound.
func WithNodeTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.nodeTimeout = d }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

// Executor validates, schedules and runs workflow graphs. At most one run
// is active per Executor; construct one Executor per independent caller.
type Executor struct {
	registry       *Registry
	logger         *zap.Logger
	metrics        MetricsRecorder
	tracer         trace.Tracer
	maxConcurrency int
	nodeTimeout    time.Duration
	now            func() time.Time

	running atomic.Bool

	// mu orders Cancel against the end of a run so a late Cancel cannot leak
	// into the next run.
	mu              sync.Mutex
	cancelRequested bool
	lastStatus      Status
}

// NewExecutor creates an executor dispatching through registry.
func NewExecutor(registry *Registry, opts ...ExecutorOption) *Executor {
	if registry == nil {
		registry = NewRegistry()
	}
	e := &Executor{
		registry: registry,
		logger:   zap.NewNop(),
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the handler registry.
func (e *Executor) Registry() *Registry { return e.registry }

// IsExecuting reports whether a run is in flight.
func (e *Executor) IsExecuting() bool { return e.running.Load() }

// State reports the lifecycle state.
func (e *Executor) State() ExecutorState {
	if e.running.Load() {
		return StateRunning
	}
	return StateIdle
}

// LastStatus returns the terminal status of the most recent finished run.
func (e *Executor) LastStatus() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastStatus
}

// Cancel asks the active run to stop before its next node. The node in
// flight is allowed to finish and is still recorded. Without an active run
// Cancel does nothing.
func (e *Executor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running.Load() {
		return
	}
	e.cancelRequested = true
	e.logger.Info("workflow cancellation requested")
}

func (e *Executor) cancelled(ctx context.Context) bool {
	e.mu.Lock()
	requested := e.cancelRequested
	e.mu.Unlock()
	return requested || ctx.Err() != nil
}

// Run validates the graph and executes it in topological order.
//
// Validation and concurrent-use errors are returned as the error value and
// no handler runs. Node failures are not errors: they end the walk and are
// reported through a WorkflowResult with StatusFailed.
func (e *Executor) Run(ctx context.Context, nodes []Node, edges []Edge, opts RunOptions) (*WorkflowResult, error) {
	return e.run(ctx, nodes, edges, opts, true)
}

// RunUnchecked executes without structural validation. Only a topological
// order is required; per-node configuration problems surface as node
// failures.
func (e *Executor) RunUnchecked(ctx context.Context, nodes []Node, edges []Edge, opts RunOptions) (*WorkflowResult, error) {
	return e.run(ctx, nodes, edges, opts, false)
}

func (e *Executor) run(ctx context.Context, nodes []Node, edges []Edge, opts RunOptions, validate bool) (*WorkflowResult, error) {
	if !e.running.CompareAndSwap(false, true) {
		e.logger.Warn("rejected concurrent workflow run")
		return nil, ErrAlreadyRunning
	}
	defer func() {
		e.mu.Lock()
		e.cancelRequested = false
		e.running.Store(false)
		e.mu.Unlock()
	}()

	if ctx == nil {
		ctx = context.Background()
	}

	if validate {
		if err := Validate(nodes, edges); err != nil {
			e.logger.Warn("workflow validation failed", zap.Error(err))
			return nil, err
		}
	}

	p, err := buildPlan(nodes, edges)
	if err != nil {
		e.logger.Warn("workflow scheduling failed", zap.Error(err))
		return nil, err
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = ctxkeys.WithRunID(ctx, runID)
	ctx, span := e.tracer.Start(ctx, "workflow.run", trace.WithAttributes(
		attribute.String("workflow.run_id", runID),
		attribute.Int("workflow.nodes", len(p.order)),
		attribute.Int("workflow.edges", len(edges)),
	))
	defer span.End()

	logger := e.logger.With(zap.String("run_id", runID))
	logger.Info("starting workflow run",
		zap.Int("nodes", len(p.order)),
		zap.Int("edges", len(edges)),
		zap.Int("max_concurrency", e.maxConcurrency),
	)

	start := e.now()
	result := &WorkflowResult{
		RunID:   runID,
		Results: make([]ExecutionResult, 0, len(p.order)),
	}
	tracker := newProgressTracker(len(p.order))
	opts.progress(tracker.start())

	w := &walk{
		executor: e,
		plan:     p,
		opts:     opts,
		result:   result,
		tracker:  tracker,
		outputs:  make(map[string]any, len(p.order)),
		logger:   logger,
	}
	if e.maxConcurrency > 1 {
		result.Status = w.runWaves(ctx)
	} else {
		result.Status = w.runSequential(ctx)
	}
	result.TotalDuration = e.now().Sub(start)

	e.mu.Lock()
	e.lastStatus = result.Status
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.RecordWorkflowRun(string(result.Status), result.TotalDuration, len(result.Results))
	}

	span.SetAttributes(attribute.String("workflow.status", string(result.Status)))
	if result.Status == StatusFailed {
		span.SetStatus(codes.Error, "node failed")
	}

	logger.Info("workflow run finished",
		zap.String("status", string(result.Status)),
		zap.Int("nodes_executed", len(result.Results)),
		zap.Duration("duration", result.TotalDuration),
	)

	return result, nil
}

// walk is the mutable state of one run. It is only touched by the Run goroutine.
type walk struct {
	executor *Executor
	plan     *plan
	opts     RunOptions
	result   *WorkflowResult
	tracker  *progressTracker
	outputs  map[string]any
	logger   *zap.Logger
}

func (w *walk) runSequential(ctx context.Context) Status {
	for _, id := range w.plan.order {
		if w.executor.cancelled(ctx) {
			w.logger.Info("workflow run cancelled", zap.String("next_node", id))
			return StatusCancelled
		}

		node := w.plan.nodes[id]
		in := w.plan.resolveInput(id, w.outputs)
		w.opts.nodeStart(id)
		res, err := w.executor.executeNode(ctx, node, in)
		if status, halt := w.settle(ctx, res, err); halt {
			return status
		}
	}
	return StatusCompleted
}

// runWaves dispatches each wave concurrently, then records its results in
// topological order. A failure halts at that node: results of later nodes
// of the same wave are discarded and those nodes get OnNodeError(ErrNodeHalted).
func (w *walk) runWaves(ctx context.Context) Status {
	for _, wave := range w.plan.levels {
		if w.executor.cancelled(ctx) {
			w.logger.Info("workflow run cancelled", zap.String("next_node", wave[0]))
			return StatusCancelled
		}

		results := make([]ExecutionResult, len(wave))
		errs := make([]error, len(wave))

		g := new(errgroup.Group)
		g.SetLimit(w.executor.maxConcurrency)
		for i, id := range wave {
			node := w.plan.nodes[id]
			in := w.plan.resolveInput(id, w.outputs)
			w.opts.nodeStart(id)
			g.Go(func() error {
				results[i], errs[i] = w.executor.executeNode(ctx, node, in)
				return nil
			})
		}
		_ = g.Wait()

		for i := range wave {
			if status, halt := w.settle(ctx, results[i], errs[i]); halt {
				w.haltStarted(wave[i+1:])
				return status
			}
		}
	}
	return StatusCompleted
}

// haltStarted closes the hooks of nodes that started but whose results are discarded.
func (w *walk) haltStarted(ids []string) {
	if w.opts.OnNodeError == nil {
		return
	}
	for _, id := range ids {
		w.opts.OnNodeError(id, ErrNodeHalted)
	}
}

// settle records a result, fires hooks and reports whether the walk must stop.
func (w *walk) settle(ctx context.Context, res ExecutionResult, err error) (Status, bool) {
	w.result.Results = append(w.result.Results, res)

	if res.Success {
		w.outputs[res.NodeID] = res.Data
		if w.opts.OnNodeComplete != nil {
			w.opts.OnNodeComplete(res.NodeID, res)
		}
	} else if w.opts.OnNodeError != nil {
		w.opts.OnNodeError(res.NodeID, err)
	}
	w.opts.progress(w.tracker.advance(res.NodeID, res.Duration))

	if res.Success {
		return "", false
	}
	if w.executor.cancelled(ctx) {
		return StatusCancelled, true
	}
	w.logger.Warn("workflow halted on node failure",
		zap.String("node_id", res.NodeID),
		zap.String("error", res.Error),
	)
	return StatusFailed, true
}

// executeNode runs one handler and converts its outcome into an
// ExecutionResult. The returned error is the raw handler error, or nil.
func (e *Executor) executeNode(ctx context.Context, node Node, in Input) (ExecutionResult, error) {
	ctx = ctxkeys.WithNodeID(ctx, node.ID)
	ctx, span := e.tracer.Start(ctx, "workflow.node", trace.WithAttributes(
		attribute.String("workflow.node_id", node.ID),
		attribute.String("workflow.node_type", string(node.Type)),
		attribute.Int("workflow.node_inputs", in.Len()),
	))
	defer span.End()

	if e.nodeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.nodeTimeout)
		defer cancel()
	}

	start := e.now()
	data, err := e.dispatch(ctx, node, in)
	res := ExecutionResult{
		NodeID:   node.ID,
		NodeType: node.Type,
		Duration: e.now().Sub(start),
	}

	if err != nil {
		res.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Error("node execution failed",
			zap.String("node_id", node.ID),
			zap.String("node_type", string(node.Type)),
			zap.Duration("duration", res.Duration),
			zap.Error(err),
		)
	} else {
		res.Success = true
		res.Data = data
		e.logger.Debug("node execution completed",
			zap.String("node_id", node.ID),
			zap.Duration("duration", res.Duration),
		)
	}

	if e.metrics != nil {
		e.metrics.RecordNodeExecution(string(node.Type), res.Success, res.Duration)
	}
	return res, err
}

func (e *Executor) dispatch(ctx context.Context, node Node, in Input) (data any, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("node handler panicked",
				zap.String("node_id", node.ID),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			data = nil
			err = types.Errorf(types.ErrNodeExecutionFailed, "node %s panicked: %v", node.ID, r).WithNode(node.ID)
		}
	}()

	h, ok := e.registry.Lookup(node.Type)
	if !ok {
		return nil, types.Errorf(types.ErrHandlerNotFound, "no handler registered for node type %q (registered: %v)",
			node.Type, e.registry.Types()).WithNode(node.ID)
	}
	data, err = h.Handle(ctx, node, in)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", node.ID, err)
	}
	return data, nil
}

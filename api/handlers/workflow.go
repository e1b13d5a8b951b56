package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/flowcanvas/api"
	"github.com/BaSui01/flowcanvas/types"
	"github.com/BaSui01/flowcanvas/workflow"
)

// =============================================================================
// 🔀 工作流 Handler
// =============================================================================

// WorkflowHandler 把画布请求桥接到唯一的执行器实例
type WorkflowHandler struct {
	executor *workflow.Executor
	store    workflow.RunStore
	hub      *EventHub
	logger   *zap.Logger

	originPatterns []string
	writeTimeout   time.Duration
	pingInterval   time.Duration

	mu       sync.RWMutex
	runID    string
	progress *workflow.Progress
}

// WorkflowHandlerOption 配置 WorkflowHandler
type WorkflowHandlerOption func(*WorkflowHandler)

// WithOriginPatterns 设置 WebSocket 允许的跨域来源
func WithOriginPatterns(patterns ...string) WorkflowHandlerOption {
	return func(h *WorkflowHandler) { h.originPatterns = patterns }
}

// WithEventWriteTimeout 设置单条事件的写超时
func WithEventWriteTimeout(d time.Duration) WorkflowHandlerOption {
	return func(h *WorkflowHandler) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// WithPingInterval 设置 WebSocket 心跳间隔
func WithPingInterval(d time.Duration) WorkflowHandlerOption {
	return func(h *WorkflowHandler) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

// NewWorkflowHandler 创建工作流处理器。store 为 nil 时使用内存记录，hub 为 nil 时新建。
func NewWorkflowHandler(executor *workflow.Executor, store workflow.RunStore, hub *EventHub, logger *zap.Logger, opts ...WorkflowHandlerOption) *WorkflowHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = workflow.NewRunHistory(0)
	}
	if hub == nil {
		hub = NewEventHub(0, logger)
	}
	h := &WorkflowHandler{
		executor:     executor,
		store:        store,
		hub:          hub,
		logger:       logger.With(zap.String("component", "workflow_handler")),
		writeTimeout: 5 * time.Second,
		pingInterval: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hub 返回事件广播器
func (h *WorkflowHandler) Hub() *EventHub { return h.hub }

// Register 在 mux 上注册全部路由
func (h *WorkflowHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/workflows/run", h.HandleRun)
	mux.HandleFunc("POST /api/v1/workflows/validate", h.HandleValidate)
	mux.HandleFunc("POST /api/v1/workflows/cancel", h.HandleCancel)
	mux.HandleFunc("GET /api/v1/workflows/status", h.HandleStatus)
	mux.HandleFunc("GET /api/v1/workflows/events", h.HandleEvents)
	mux.HandleFunc("GET /api/v1/runs", h.HandleListRuns)
	mux.HandleFunc("GET /api/v1/runs/{id}", h.HandleGetRun)
}

// =============================================================================
// 🎯 运行
// =============================================================================

// HandleRun 同步执行请求中的工作流并返回聚合结果。
// 校验失败返回 400，已有运行时返回 409。客户端断开会取消运行。
func (h *WorkflowHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}
	var req api.RunRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	nodes, edges, err := req.Compile()
	if err != nil {
		WriteErr(w, err, h.logger)
		return
	}

	runID := uuid.NewString()
	opts := h.runOptions(runID)

	start := time.Now()
	var result *workflow.WorkflowResult
	if req.SkipValidation {
		result, err = h.executor.RunUnchecked(r.Context(), nodes, edges, opts)
	} else {
		result, err = h.executor.Run(r.Context(), nodes, edges, opts)
	}
	end := time.Now()
	if err != nil {
		WriteErr(w, err, h.logger)
		return
	}
	h.finish(runID, result.Status)

	rec := &workflow.RunRecord{
		RunID:      result.RunID,
		WorkflowID: req.ID,
		StartTime:  start,
		EndTime:    end,
		Result:     result,
	}
	// 持久化失败不影响本次响应
	if err := h.store.SaveRun(context.WithoutCancel(r.Context()), rec); err != nil {
		h.logger.Warn("failed to save run", zap.String("run_id", rec.RunID), zap.Error(err))
	}

	WriteSuccess(w, api.RunResponse{
		RunID:      rec.RunID,
		WorkflowID: rec.WorkflowID,
		StartTime:  rec.StartTime,
		EndTime:    rec.EndTime,
		Result:     result,
	})
}

// runOptions 把执行器回调转换为广播事件
func (h *WorkflowHandler) runOptions(runID string) workflow.RunOptions {
	return workflow.RunOptions{
		RunID: runID,
		OnProgress: func(p workflow.Progress) {
			h.mu.Lock()
			first := h.runID != runID
			h.runID = runID
			h.progress = &p
			h.mu.Unlock()

			if first {
				h.publish(api.Event{Type: api.EventRunStarted, RunID: runID, Progress: &p})
				return
			}
			h.publish(api.Event{Type: api.EventProgress, RunID: runID, NodeID: p.Current, Progress: &p})
		},
		OnNodeStart: func(nodeID string) {
			h.publish(api.Event{Type: api.EventNodeStart, RunID: runID, NodeID: nodeID})
		},
		OnNodeComplete: func(nodeID string, res workflow.ExecutionResult) {
			h.publish(api.Event{Type: api.EventNodeComplete, RunID: runID, NodeID: nodeID, Result: &res})
		},
		OnNodeError: func(nodeID string, err error) {
			h.publish(api.Event{Type: api.EventNodeError, RunID: runID, NodeID: nodeID, Error: err.Error()})
		},
	}
}

func (h *WorkflowHandler) finish(runID string, status workflow.Status) {
	h.mu.Lock()
	if h.runID == runID {
		h.progress = nil
	}
	h.mu.Unlock()
	h.publish(api.Event{Type: api.EventRunFinished, RunID: runID, Status: status})
}

func (h *WorkflowHandler) publish(evt api.Event) {
	evt.Timestamp = time.Now()
	h.hub.Publish(evt)
}

// HandleValidate 只编译和校验，不执行
func (h *WorkflowHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}
	var req api.RunRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	nodes, edges, err := req.Compile()
	if err == nil {
		err = workflow.Validate(nodes, edges)
	}
	if err != nil {
		WriteErr(w, err, h.logger)
		return
	}
	WriteSuccess(w, api.ValidateResponse{Valid: true, Nodes: len(nodes), Edges: len(edges)})
}

// HandleCancel 请求取消当前运行；没有运行时什么也不做
func (h *WorkflowHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	running := h.executor.IsExecuting()
	h.executor.Cancel()

	resp := api.CancelResponse{Cancelled: running}
	if running {
		h.mu.RLock()
		resp.RunID = h.runID
		h.mu.RUnlock()
		h.logger.Info("workflow cancel requested", zap.String("run_id", resp.RunID))
	}
	WriteSuccess(w, resp)
}

// HandleStatus 返回执行器状态和当前进度
func (h *WorkflowHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp := api.StatusResponse{
		State:      h.executor.State(),
		Running:    h.executor.IsExecuting(),
		LastStatus: h.executor.LastStatus(),
	}
	if resp.Running {
		h.mu.RLock()
		resp.RunID = h.runID
		if h.progress != nil {
			p := *h.progress
			resp.Progress = &p
		}
		h.mu.RUnlock()
	}
	WriteSuccess(w, resp)
}

// =============================================================================
// 📚 运行记录
// =============================================================================

// HandleListRuns 列出已完成的运行，支持 ?status= 和 ?limit=
func (h *WorkflowHandler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	filter := workflow.RunFilter{Status: workflow.Status(r.URL.Query().Get("status"))}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "limit must be a non-negative integer", h.logger)
			return
		}
		filter.Limit = limit
	}

	records, err := h.store.ListRuns(r.Context(), filter)
	if err != nil {
		WriteErr(w, err, h.logger)
		return
	}
	summaries := make([]api.RunSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, api.NewRunSummary(rec))
	}
	WriteSuccess(w, summaries)
}

// HandleGetRun 返回单次运行的完整结果
func (h *WorkflowHandler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := h.store.GetRun(r.Context(), id)
	if errors.Is(err, workflow.ErrRunNotFound) {
		WriteError(w, types.Errorf(types.ErrNotFound, "run %s not found", id), h.logger)
		return
	}
	if err != nil {
		WriteErr(w, err, h.logger)
		return
	}
	WriteSuccess(w, api.RunResponse{
		RunID:      rec.RunID,
		WorkflowID: rec.WorkflowID,
		StartTime:  rec.StartTime,
		EndTime:    rec.EndTime,
		Result:     rec.Result,
	})
}

// =============================================================================
// 📡 WebSocket 事件流
// =============================================================================

// HandleEvents 升级为 WebSocket 并推送运行事件，直到客户端断开或服务关闭
func (h *WorkflowHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	events, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	// 只写不读；CloseRead 负责处理控制帧并在对端关闭时取消 ctx
	ctx := conn.CloseRead(r.Context())

	h.logger.Debug("event stream opened", zap.String("remote_addr", r.RemoteAddr))

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.ping(ctx, conn); err != nil {
				h.logger.Debug("event stream ping failed", zap.Error(err))
				return
			}
		case evt, ok := <-events:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := h.write(ctx, conn, evt); err != nil {
				h.logger.Debug("event stream write failed", zap.Error(err))
				return
			}
		}
	}
}

func (h *WorkflowHandler) write(ctx context.Context, conn *websocket.Conn, evt api.Event) error {
	ctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, evt)
}

func (h *WorkflowHandler) ping(ctx context.Context, conn *websocket.Conn) error {
	ctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
	defer cancel()
	return conn.Ping(ctx)
}

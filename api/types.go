package api

import (
	"time"

	"github.com/BaSui01/flowcanvas/workflow"
)

// =============================================================================
// 工作流运行类型
// =============================================================================

// RunRequest 是 POST /api/v1/workflows/run 的请求体。
// 画布文档直接作为请求体，附加字段控制本次运行。
type RunRequest struct {
	workflow.Definition
	// 跳过结构校验，节点配置问题会作为节点失败出现
	SkipValidation bool `json:"skipValidation,omitempty"`
}

// RunResponse 是一次完成运行的响应。
type RunResponse struct {
	RunID      string                   `json:"runId"`
	WorkflowID string                   `json:"workflowId,omitempty"`
	StartTime  time.Time                `json:"startTime"`
	EndTime    time.Time                `json:"endTime"`
	Result     *workflow.WorkflowResult `json:"result"`
}

// ValidateResponse 是 POST /api/v1/workflows/validate 的响应。
type ValidateResponse struct {
	Valid bool `json:"valid"`
	// 编译后的节点数
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
}

// StatusResponse 描述执行器当前状态。
type StatusResponse struct {
	State      workflow.ExecutorState `json:"state"`
	Running    bool                   `json:"running"`
	RunID      string                 `json:"runId,omitempty"`
	LastStatus workflow.Status        `json:"lastStatus,omitempty"`
	// 当前运行的最新进度
	Progress *workflow.Progress `json:"progress,omitempty"`
}

// CancelResponse 是取消请求的响应。
type CancelResponse struct {
	// 发出取消时是否存在正在进行的运行
	Cancelled bool   `json:"cancelled"`
	RunID     string `json:"runId,omitempty"`
}

// RunSummary 是运行列表中的一条记录。
type RunSummary struct {
	RunID         string          `json:"runId"`
	WorkflowID    string          `json:"workflowId,omitempty"`
	Status        workflow.Status `json:"status"`
	StartTime     time.Time       `json:"startTime"`
	EndTime       time.Time       `json:"endTime"`
	TotalDuration int64           `json:"totalDuration"`
	NodeCount     int             `json:"nodeCount"`
}

// NewRunSummary 从运行记录构建摘要。
func NewRunSummary(rec *workflow.RunRecord) RunSummary {
	s := RunSummary{
		RunID:      rec.RunID,
		WorkflowID: rec.WorkflowID,
		StartTime:  rec.StartTime,
		EndTime:    rec.EndTime,
	}
	if rec.Result != nil {
		s.Status = rec.Result.Status
		s.TotalDuration = rec.Result.TotalDuration.Milliseconds()
		s.NodeCount = len(rec.Result.Results)
	}
	return s
}

// =============================================================================
// 事件流类型
// =============================================================================

// EventType 是事件流中的事件种类。
type EventType string

const (
	EventRunStarted   EventType = "run_started"
	EventNodeStart    EventType = "node_start"
	EventNodeComplete EventType = "node_complete"
	EventNodeError    EventType = "node_error"
	EventProgress     EventType = "progress"
	EventRunFinished  EventType = "run_finished"
)

// Event 是通过 WebSocket 推送给画布的一条消息。
type Event struct {
	Type      EventType                 `json:"type"`
	RunID     string                    `json:"runId"`
	NodeID    string                    `json:"nodeId,omitempty"`
	Result    *workflow.ExecutionResult `json:"result,omitempty"`
	Error     string                    `json:"error,omitempty"`
	Progress  *workflow.Progress        `json:"progress,omitempty"`
	Status    workflow.Status           `json:"status,omitempty"`
	Timestamp time.Time                 `json:"timestamp"`
}

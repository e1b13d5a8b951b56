package workflow

import (
	"encoding/json"
	"time"
)

// Status is the terminal status of a workflow run.
type Status string

const (
	// StatusCompleted means every scheduled node succeeded
	StatusCompleted Status = "completed"
	// StatusFailed means a node failed and the walk halted there
	StatusFailed Status = "failed"
	// StatusCancelled means Cancel (or context cancellation) stopped the walk
	StatusCancelled Status = "cancelled"
)

// ExecutionResult records the outcome of one node. It is created when the
// node's handler settles and never modified afterwards.
type ExecutionResult struct {
	NodeID   string        `json:"nodeId"`
	NodeType NodeType      `json:"nodeType"`
	Success  bool          `json:"success"`
	Data     any           `json:"data,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"-"`
}

// MarshalJSON encodes Duration as milliseconds.
func (r ExecutionResult) MarshalJSON() ([]byte, error) {
	type Alias ExecutionResult
	return json.Marshal(struct {
		Alias
		Duration int64 `json:"duration"`
	}{Alias: Alias(r), Duration: r.Duration.Milliseconds()})
}

// UnmarshalJSON decodes the millisecond duration written by MarshalJSON.
func (r *ExecutionResult) UnmarshalJSON(data []byte) error {
	type Alias ExecutionResult
	aux := struct {
		*Alias
		Duration int64 `json:"duration"`
	}{Alias: (*Alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Duration = time.Duration(aux.Duration) * time.Millisecond
	return nil
}

// WorkflowResult is the aggregate outcome of one run.
type WorkflowResult struct {
	RunID         string            `json:"runId"`
	Status        Status            `json:"status"`
	Results       []ExecutionResult `json:"results"`
	TotalDuration time.Duration     `json:"-"`
}

// MarshalJSON encodes TotalDuration as milliseconds.
func (r WorkflowResult) MarshalJSON() ([]byte, error) {
	type Alias WorkflowResult
	return json.Marshal(struct {
		Alias
		TotalDuration int64 `json:"totalDuration"`
	}{Alias: Alias(r), TotalDuration: r.TotalDuration.Milliseconds()})
}

// UnmarshalJSON decodes the millisecond total duration written by MarshalJSON.
func (r *WorkflowResult) UnmarshalJSON(data []byte) error {
	type Alias WorkflowResult
	aux := struct {
		*Alias
		TotalDuration int64 `json:"totalDuration"`
	}{Alias: (*Alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.TotalDuration = time.Duration(aux.TotalDuration) * time.Millisecond
	return nil
}

// Result returns the result recorded for nodeID.
func (r *WorkflowResult) Result(nodeID string) (ExecutionResult, bool) {
	for _, res := range r.Results {
		if res.NodeID == nodeID {
			return res, true
		}
	}
	return ExecutionResult{}, false
}

// FailedNode returns the failing result of a failed run.
func (r *WorkflowResult) FailedNode() (ExecutionResult, bool) {
	for _, res := range r.Results {
		if !res.Success {
			return res, true
		}
	}
	return ExecutionResult{}, false
}

// NodeIDs returns the executed node ids in execution order.
func (r *WorkflowResult) NodeIDs() []string {
	ids := make([]string, len(r.Results))
	for i, res := range r.Results {
		ids[i] = res.NodeID
	}
	return ids
}

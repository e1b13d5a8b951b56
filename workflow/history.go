package workflow

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BaSui01/flowcanvas/types"
)

// ErrRunNotFound is returned by RunStore lookups for an unknown run id.
var ErrRunNotFound = &types.Error{Code: types.ErrNotFound}

// RunRecord is a finished run kept by a RunStore.
type RunRecord struct {
	RunID      string          `json:"runId"`
	WorkflowID string          `json:"workflowId,omitempty"`
	StartTime  time.Time       `json:"startTime"`
	EndTime    time.Time       `json:"endTime"`
	Result     *WorkflowResult `json:"result"`
}

// RunFilter narrows ListRuns. Zero values match everything.
type RunFilter struct {
	Status Status
	Limit  int
}

// RunStore persists finished runs. RunHistory is the in-memory
// implementation; internal/store provides a SQL-backed one.
type RunStore interface {
	SaveRun(ctx context.Context, rec *RunRecord) error
	GetRun(ctx context.Context, runID string) (*RunRecord, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*RunRecord, error)
}

// RunHistory keeps the most recent run results in memory.
type RunHistory struct {
	mu      sync.RWMutex
	limit   int
	records map[string]*RunRecord
	order   []string
}

var _ RunStore = (*RunHistory)(nil)

// NewRunHistory creates a history holding at most limit records; limit <= 0 means 100.
func NewRunHistory(limit int) *RunHistory {
	if limit <= 0 {
		limit = 100
	}
	return &RunHistory{
		limit:   limit,
		records: make(map[string]*RunRecord, limit),
	}
}

// Save stores a record, evicting the oldest one when full.
func (h *RunHistory) Save(rec *RunRecord) {
	if rec == nil || rec.RunID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.records[rec.RunID]; !exists {
		h.order = append(h.order, rec.RunID)
	}
	h.records[rec.RunID] = rec

	for len(h.order) > h.limit {
		oldest := h.order[0]
		h.order = h.order[1:]
		delete(h.records, oldest)
	}
}

// Get returns the record of runID.
func (h *RunHistory) Get(runID string) (*RunRecord, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rec, ok := h.records[runID]
	return rec, ok
}

// List returns all records, newest first.
func (h *RunHistory) List() []*RunRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*RunRecord, 0, len(h.records))
	for _, id := range h.order {
		out = append(out, h.records[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out
}

// ListByStatus returns the records whose run ended with status, newest first.
func (h *RunHistory) ListByStatus(status Status) []*RunRecord {
	var out []*RunRecord
	for _, rec := range h.List() {
		if rec.Result != nil && rec.Result.Status == status {
			out = append(out, rec)
		}
	}
	return out
}

// Len returns the number of stored records.
func (h *RunHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}

// SaveRun implements RunStore.
func (h *RunHistory) SaveRun(_ context.Context, rec *RunRecord) error {
	if rec == nil || rec.RunID == "" {
		return types.NewError(types.ErrInvalidRequest, "run record requires a run id")
	}
	h.Save(rec)
	return nil
}

// GetRun implements RunStore.
func (h *RunHistory) GetRun(_ context.Context, runID string) (*RunRecord, error) {
	rec, ok := h.Get(runID)
	if !ok {
		return nil, ErrRunNotFound
	}
	return rec, nil
}

// ListRuns implements RunStore.
func (h *RunHistory) ListRuns(_ context.Context, filter RunFilter) ([]*RunRecord, error) {
	var out []*RunRecord
	if filter.Status != "" {
		out = h.ListByStatus(filter.Status)
	} else {
		out = h.List()
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

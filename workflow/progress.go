package workflow

import (
	"math"
	"time"
)

// Progress is reported after every settled node. Current is the node whose
// settlement produced the event; it is empty on the initial event.
type Progress struct {
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
	Current    string `json:"current,omitempty"`
	// EstimatedTimeRemaining is in seconds; nil until a node has completed.
	EstimatedTimeRemaining *int `json:"estimatedTimeRemaining,omitempty"`
}

type progressTracker struct {
	total     int
	completed int
	elapsed   time.Duration
	lastPct   int
}

func newProgressTracker(total int) *progressTracker {
	return &progressTracker{total: total}
}

func (p *progressTracker) start() Progress {
	return Progress{Total: p.total}
}

// advance records one settled node and returns the resulting event.
func (p *progressTracker) advance(nodeID string, d time.Duration) Progress {
	p.completed++
	p.elapsed += d

	pct := 100
	if p.total > 0 {
		pct = p.completed * 100 / p.total
	}
	if pct < p.lastPct {
		pct = p.lastPct
	}
	p.lastPct = pct

	avg := p.elapsed / time.Duration(p.completed)
	remaining := p.total - p.completed
	if remaining < 0 {
		remaining = 0
	}
	eta := int(math.Ceil((avg * time.Duration(remaining)).Seconds()))

	return Progress{
		Completed:              p.completed,
		Total:                  p.total,
		Percentage:             pct,
		Current:                nodeID,
		EstimatedTimeRemaining: &eta,
	}
}

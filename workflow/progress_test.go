package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressTracker(t *testing.T) {
	p := newProgressTracker(4)

	first := p.start()
	assert.Equal(t, Progress{Total: 4}, first)

	ev := p.advance("a", 2*time.Second)
	assert.Equal(t, 1, ev.Completed)
	assert.Equal(t, 25, ev.Percentage)
	assert.Equal(t, "a", ev.Current)
	require.NotNil(t, ev.EstimatedTimeRemaining)
	assert.Equal(t, 6, *ev.EstimatedTimeRemaining)

	ev = p.advance("b", 1*time.Second)
	assert.Equal(t, 50, ev.Percentage)
	// avg 1.5s * 2 remaining
	assert.Equal(t, 3, *ev.EstimatedTimeRemaining)

	p.advance("c", 0)
	ev = p.advance("d", 0)
	assert.Equal(t, 100, ev.Percentage)
	assert.Equal(t, 0, *ev.EstimatedTimeRemaining)
}

func TestProgressTracker_RoundsETAUp(t *testing.T) {
	p := newProgressTracker(3)
	ev := p.advance("a", 100*time.Millisecond)
	assert.Equal(t, 33, ev.Percentage)
	assert.Equal(t, 1, *ev.EstimatedTimeRemaining)
}

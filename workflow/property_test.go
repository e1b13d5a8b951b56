package workflow

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// randomDAG builds n input nodes and forward-only edges, so the graph is acyclic.
func randomDAG(n int, seed int64) ([]Node, []Edge) {
	r := rand.New(rand.NewSource(seed))
	nodes := make([]Node, n)
	for i := range nodes {
		nodes[i] = NewInputNode(fmt.Sprintf("n%d", i), "x")
	}
	// shuffle declaration order so it does not follow the edges
	r.Shuffle(len(nodes), func(i, j int) { nodes[i], nodes[j] = nodes[j], nodes[i] })

	var edges []Edge
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if r.Intn(3) == 0 {
				edges = append(edges, NewEdge(fmt.Sprintf("n%d", i), fmt.Sprintf("n%d", j)))
			}
		}
	}
	return nodes, edges
}

func TestProperty_TopologicalCorrectness(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("every edge source executes before its target", prop.ForAll(
		func(n int, seed int64) bool {
			nodes, edges := randomDAG(n, seed)
			e := newTestExecutor()

			res, err := e.Run(context.Background(), nodes, edges, RunOptions{})
			if err != nil {
				t.Logf("run failed: %v", err)
				return false
			}
			if res.Status != StatusCompleted || len(res.Results) != n {
				return false
			}

			ids := res.NodeIDs()
			for _, edge := range edges {
				if indexOf(ids, edge.Source) >= indexOf(ids, edge.Target) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 12),
		gen.Int64(),
	))

	properties.Property("waves never place a node with its predecessor", prop.ForAll(
		func(n int, seed int64) bool {
			nodes, edges := randomDAG(n, seed)
			levels, err := Levels(nodes, edges)
			if err != nil {
				return false
			}
			wave := make(map[string]int)
			for i, level := range levels {
				for _, id := range level {
					wave[id] = i
				}
			}
			for _, edge := range edges {
				if wave[edge.Source] >= wave[edge.Target] {
					return false
				}
			}
			return len(wave) == n
		},
		gen.IntRange(1, 12),
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestProperty_CyclesRejectedBeforeAnyHandler(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("a back edge makes Run fail without dispatching", prop.ForAll(
		func(n int, seed int64, from, to int) bool {
			nodes, edges := randomDAG(n, seed)
			lo, hi := from%n, to%n
			if lo > hi {
				lo, hi = hi, lo
			}
			loID, hiID := fmt.Sprintf("n%d", lo), fmt.Sprintf("n%d", hi)
			edges = append(edges, NewEdge(loID, hiID), Edge{ID: "back", Source: hiID, Target: loID})

			calls := 0
			registry := NewRegistry().Register(NodeTypeInput, HandlerFunc(func(context.Context, Node, Input) (any, error) {
				calls++
				return nil, nil
			}))
			_, err := NewExecutor(registry).Run(context.Background(), nodes, edges, RunOptions{})
			return errors.Is(err, ErrCircularDependency) && calls == 0
		},
		gen.IntRange(1, 10),
		gen.Int64(),
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}

func TestProperty_FailFastPrefix(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 10).Draw(rt, "n")
		seed := rapid.Int64().Draw(rt, "seed")
		failAt := rapid.IntRange(0, n-1).Draw(rt, "failAt")
		nodes, edges := randomDAG(n, seed)

		order, err := TopologicalOrder(nodes, edges)
		require.NoError(rt, err)
		failing := order[failAt]

		var started []string
		registry := NewRegistry().Register(NodeTypeInput, HandlerFunc(func(_ context.Context, node Node, _ Input) (any, error) {
			if node.ID == failing {
				return nil, errors.New("injected failure")
			}
			return node.ID, nil
		}))
		opts := RunOptions{OnNodeStart: func(id string) { started = append(started, id) }}

		res, err := NewExecutor(registry).Run(context.Background(), nodes, edges, opts)
		require.NoError(rt, err)

		assert.Equal(rt, StatusFailed, res.Status)
		assert.Len(rt, res.Results, failAt+1)
		assert.Equal(rt, order[:failAt+1], res.NodeIDs())
		assert.Equal(rt, order[:failAt+1], started)
		assert.False(rt, res.Results[failAt].Success)
	})
}

func TestProperty_ProgressMonotonic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 10).Draw(rt, "n")
		seed := rapid.Int64().Draw(rt, "seed")
		concurrency := rapid.IntRange(1, 4).Draw(rt, "concurrency")
		nodes, edges := randomDAG(n, seed)

		var events []Progress
		e := newTestExecutor(WithMaxConcurrency(concurrency))
		res, err := e.Run(context.Background(), nodes, edges, RunOptions{
			OnProgress: func(p Progress) { events = append(events, p) },
		})
		require.NoError(rt, err)
		require.Equal(rt, StatusCompleted, res.Status)

		require.Len(rt, events, n+1)
		assert.Equal(rt, 0, events[0].Percentage)
		for i := 1; i < len(events); i++ {
			assert.GreaterOrEqual(rt, events[i].Percentage, events[i-1].Percentage)
		}
		assert.Equal(rt, 100, events[len(events)-1].Percentage)
	})
}

func TestProperty_CancellationContainment(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(2, 10).Draw(rt, "n")
		seed := rapid.Int64().Draw(rt, "seed")
		cancelAt := rapid.IntRange(0, n-2).Draw(rt, "cancelAt")
		nodes, edges := randomDAG(n, seed)

		full, err := TopologicalOrder(nodes, edges)
		require.NoError(rt, err)

		var e *Executor
		registry := NewRegistry().Register(NodeTypeInput, HandlerFunc(func(_ context.Context, node Node, _ Input) (any, error) {
			if node.ID == full[cancelAt] {
				e.Cancel()
			}
			return node.ID, nil
		}))
		e = NewExecutor(registry)

		res, err := e.Run(context.Background(), nodes, edges, RunOptions{})
		require.NoError(rt, err)

		assert.Equal(rt, StatusCancelled, res.Status)
		assert.Less(rt, len(res.Results), n)
		assert.Equal(rt, full[:cancelAt+1], res.NodeIDs())
	})
}

package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopologicalOrder_Linear(t *testing.T) {
	nodes, edges := linearGraph()
	order, err := TopologicalOrder(nodes, edges)
	require.NoError(t, err)
	assert.Equal(t, []string{"input1", "llm1", "output1"}, order)
}

func TestTopologicalOrder_DeclarationOrderBreaksTies(t *testing.T) {
	nodes, edges := diamondGraph()
	order, err := TopologicalOrder(nodes, edges)
	require.NoError(t, err)
	assert.Equal(t, []string{"input1", "llm1", "llm2", "compare1"}, order)

	// reversed declaration flips only the independent pair
	nodes[1], nodes[2] = nodes[2], nodes[1]
	order, err = TopologicalOrder(nodes, edges)
	require.NoError(t, err)
	assert.Equal(t, []string{"input1", "llm2", "llm1", "compare1"}, order)
}

func TestTopologicalOrder_EdgesDeclaredBeforeNodes(t *testing.T) {
	nodes := []Node{
		NewOutputNode("out", OutputFormatText),
		NewInputNode("in", "x"),
	}
	order, err := TopologicalOrder(nodes, []Edge{NewEdge("in", "out")})
	require.NoError(t, err)
	assert.Equal(t, []string{"in", "out"}, order)
}

func TestTopologicalOrder_Cycle(t *testing.T) {
	nodes := []Node{NewInputNode("a", "x"), NewInputNode("b", "y"), NewInputNode("c", "z")}
	edges := []Edge{NewEdge("a", "b"), NewEdge("b", "c"), NewEdge("c", "b")}

	_, err := TopologicalOrder(nodes, edges)
	assert.ErrorIs(t, err, ErrCircularDependency)
}

func TestTopologicalOrder_DisconnectedNodes(t *testing.T) {
	nodes := []Node{NewInputNode("a", "x"), NewInputNode("b", "y")}
	order, err := TopologicalOrder(nodes, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestLevels(t *testing.T) {
	nodes, edges := diamondGraph()
	nodes = append(nodes, NewOutputNode("out", OutputFormatJSON))
	edges = append(edges, NewEdge("compare1", "out"), NewEdge("input1", "out"))

	levels, err := Levels(nodes, edges)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"input1"},
		{"llm1", "llm2"},
		{"compare1"},
		{"out"},
	}, levels)
}

func TestBuildPlan_PredecessorsFollowEdgeOrder(t *testing.T) {
	nodes, edges := diamondGraph()
	// declare the llm2 edge first
	edges[2], edges[3] = edges[3], edges[2]
	// parallel edge must not duplicate the source
	edges = append(edges, Edge{ID: "dup", Source: "llm1", Target: "compare1"})

	p, err := buildPlan(nodes, edges)
	require.NoError(t, err)
	assert.Equal(t, []string{"llm2", "llm1"}, p.preds["compare1"])

	in := p.resolveInput("compare1", map[string]any{"llm1": "one", "llm2": "two"})
	assert.Equal(t, []SourceOutput{{NodeID: "llm2", Data: "two"}, {NodeID: "llm1", Data: "one"}}, in.Sources)
}

func TestBuildPlan_DuplicateIDIsNotACycle(t *testing.T) {
	nodes := []Node{NewInputNode("a", "x"), NewInputNode("a", "y")}
	_, err := buildPlan(nodes, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCircularDependency)
	assert.Contains(t, err.Error(), "duplicate node id")
}

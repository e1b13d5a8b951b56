package workflow

import (
	"github.com/BaSui01/flowcanvas/types"
)

var (
	// ErrEmptyWorkflow is returned when a graph has no nodes.
	ErrEmptyWorkflow = types.NewError(types.ErrValidationFailed, "workflow must contain at least one node")
	// ErrCircularDependency is returned when the edges form a directed cycle.
	ErrCircularDependency = types.NewError(types.ErrCircularDependency, "workflow contains circular dependencies")
	// ErrMissingConfig matches every per-node missing-field error.
	ErrMissingConfig = &types.Error{Code: types.ErrMissingConfiguration}
	// ErrInvalidGraph matches structural errors other than emptiness and cycles.
	ErrInvalidGraph = &types.Error{Code: types.ErrValidationFailed}
)

// Validate checks that nodes and edges form a well-formed workflow. It
// returns the first violation found, in this order: empty graph, cycles,
// dangling or duplicate references, per-node required configuration.
// Validate never mutates its arguments.
func Validate(nodes []Node, edges []Edge) error {
	if len(nodes) == 0 {
		return ErrEmptyWorkflow
	}

	if hasCycle(nodes, edges) {
		return ErrCircularDependency
	}

	if err := validateStructure(nodes, edges); err != nil {
		return err
	}

	for _, node := range nodes {
		if err := validateNode(node); err != nil {
			return err
		}
	}

	return nil
}

// hasCycle runs a recursion-stack DFS from every node.
func hasCycle(nodes []Node, edges []Edge) bool {
	adjacency := make(map[string][]string, len(nodes))
	for _, e := range edges {
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
	}

	visited := make(map[string]bool, len(nodes))
	recStack := make(map[string]bool, len(nodes))

	var visit func(id string) bool
	visit = func(id string) bool {
		visited[id] = true
		recStack[id] = true

		for _, next := range adjacency[id] {
			if !visited[next] {
				if visit(next) {
					return true
				}
			} else if recStack[next] {
				// back edge
				return true
			}
		}

		recStack[id] = false
		return false
	}

	for _, node := range nodes {
		if !visited[node.ID] && visit(node.ID) {
			return true
		}
	}
	return false
}

func validateStructure(nodes []Node, edges []Edge) error {
	seen := make(map[string]bool, len(nodes))
	for _, node := range nodes {
		if node.ID == "" {
			return types.NewError(types.ErrValidationFailed, "node id must not be empty")
		}
		if seen[node.ID] {
			return types.Errorf(types.ErrValidationFailed, "duplicate node id: %s", node.ID).WithNode(node.ID)
		}
		seen[node.ID] = true
	}

	for _, e := range edges {
		if !seen[e.Source] {
			return types.Errorf(types.ErrValidationFailed, "edge %s references unknown source: %s", e.ID, e.Source)
		}
		if !seen[e.Target] {
			return types.Errorf(types.ErrValidationFailed, "edge %s references unknown target: %s", e.ID, e.Target)
		}
	}
	return nil
}

func missing(nodeID, what string) error {
	return types.Errorf(types.ErrMissingConfiguration, "node %s: missing %s", nodeID, what).WithNode(nodeID)
}

func validateNode(node Node) error {
	if !node.Type.Valid() {
		return types.Errorf(types.ErrValidationFailed, "node %s: unknown node type %q", node.ID, node.Type).WithNode(node.ID)
	}
	if nilConfig(node.Config) {
		return missing(node.ID, string(node.Type)+" configuration")
	}
	if node.Config.nodeType() != node.Type {
		return types.Errorf(types.ErrValidationFailed, "node %s: %s configuration attached to %s node",
			node.ID, node.Config.nodeType(), node.Type).WithNode(node.ID)
	}

	switch cfg := node.Config.(type) {
	case *InputConfig:
		if cfg.InputType == "" {
			return missing(node.ID, "input type")
		}
	case *LLMConfig:
		if len(cfg.Models) == 0 {
			return missing(node.ID, "model configuration")
		}
		if cfg.Prompt == "" {
			return missing(node.ID, "prompt")
		}
	case *CompareConfig:
		if cfg.ComparisonType == "" {
			return missing(node.ID, "comparison type")
		}
		if !cfg.ComparisonType.Valid() {
			return types.Errorf(types.ErrValidationFailed, "node %s: unknown comparison type %q",
				node.ID, cfg.ComparisonType).WithNode(node.ID)
		}
	case *SummarizeConfig:
		if cfg.Length == "" {
			return missing(node.ID, "summary length")
		}
		if cfg.Style == "" {
			return missing(node.ID, "summary style")
		}
	case *OutputConfig:
		if cfg.OutputFormat == "" {
			return missing(node.ID, "output format")
		}
		if !cfg.OutputFormat.Valid() {
			return types.Errorf(types.ErrValidationFailed, "node %s: unsupported output format %q",
				node.ID, cfg.OutputFormat).WithNode(node.ID)
		}
	}
	return nil
}

// nilConfig reports whether c is nil or a typed nil pointer.
func nilConfig(c NodeConfig) bool {
	switch cfg := c.(type) {
	case nil:
		return true
	case *InputConfig:
		return cfg == nil
	case *LLMConfig:
		return cfg == nil
	case *CompareConfig:
		return cfg == nil
	case *SummarizeConfig:
		return cfg == nil
	case *OutputConfig:
		return cfg == nil
	}
	return false
}

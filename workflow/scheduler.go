package workflow

import "github.com/BaSui01/flowcanvas/types"

// plan is the resolved execution layout of one run.
type plan struct {
	order  []string
	levels [][]string
	nodes  map[string]Node
	// preds lists distinct direct predecessors in edge declaration order
	preds map[string][]string
}

// TopologicalOrder returns the execution order computed with Kahn's
// algorithm. Nodes that become ready together keep their declaration order.
func TopologicalOrder(nodes []Node, edges []Edge) ([]string, error) {
	p, err := buildPlan(nodes, edges)
	if err != nil {
		return nil, err
	}
	return p.order, nil
}

// Levels groups nodes into waves: every node sits one wave after its deepest
// predecessor, so nodes inside one wave are independent of each other.
func Levels(nodes []Node, edges []Edge) ([][]string, error) {
	p, err := buildPlan(nodes, edges)
	if err != nil {
		return nil, err
	}
	return p.levels, nil
}

func buildPlan(nodes []Node, edges []Edge) (*plan, error) {
	p := &plan{
		nodes: make(map[string]Node, len(nodes)),
		preds: make(map[string][]string, len(nodes)),
	}

	indeg := make(map[string]int, len(nodes))
	out := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		if _, dup := p.nodes[n.ID]; dup {
			return nil, types.Errorf(types.ErrValidationFailed, "duplicate node id: %s", n.ID).WithNode(n.ID)
		}
		p.nodes[n.ID] = n
		indeg[n.ID] = 0
	}

	seenPred := make(map[[2]string]bool, len(edges))
	for _, e := range edges {
		if _, ok := p.nodes[e.Source]; !ok {
			continue
		}
		if _, ok := p.nodes[e.Target]; !ok {
			continue
		}
		out[e.Source] = append(out[e.Source], e.Target)
		indeg[e.Target]++
		key := [2]string{e.Source, e.Target}
		if !seenPred[key] {
			seenPred[key] = true
			p.preds[e.Target] = append(p.preds[e.Target], e.Source)
		}
	}

	// Kahn
	queue := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if indeg[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	depth := make(map[string]int, len(nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		p.order = append(p.order, id)

		for _, next := range out[id] {
			if depth[id]+1 > depth[next] {
				depth[next] = depth[id] + 1
			}
			indeg[next]--
			if indeg[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(p.order) != len(p.nodes) {
		return nil, ErrCircularDependency
	}

	for _, id := range p.order {
		d := depth[id]
		for len(p.levels) <= d {
			p.levels = append(p.levels, nil)
		}
		p.levels[d] = append(p.levels[d], id)
	}

	return p, nil
}

// resolveInput collects the recorded outputs of id's predecessors.
func (p *plan) resolveInput(id string, outputs map[string]any) Input {
	preds := p.preds[id]
	in := Input{Sources: make([]SourceOutput, 0, len(preds))}
	for _, src := range preds {
		in.Sources = append(in.Sources, SourceOutput{NodeID: src, Data: outputs[src]})
	}
	return in
}

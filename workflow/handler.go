package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// SourceOutput is the recorded output of one predecessor node.
type SourceOutput struct {
	NodeID string `json:"nodeId"`
	Data   any    `json:"data"`
}

// Input is the resolved input of a node: the outputs of its direct
// predecessors, ordered by edge declaration.
type Input struct {
	Sources []SourceOutput
}

// Len returns the number of predecessor outputs.
func (in Input) Len() int { return len(in.Sources) }

// First returns the first predecessor output, or nil.
func (in Input) First() any {
	if len(in.Sources) == 0 {
		return nil
	}
	return in.Sources[0].Data
}

// Text renders every predecessor output as text, joined by a blank line.
func (in Input) Text() string {
	parts := make([]string, 0, len(in.Sources))
	for _, s := range in.Sources {
		if text := stringify(s.Data); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Payload returns the single predecessor output as is, or the full source
// list when there are several.
func (in Input) Payload() any {
	switch len(in.Sources) {
	case 0:
		return nil
	case 1:
		return in.Sources[0].Data
	default:
		return in.Sources
	}
}

// Texter is implemented by handler outputs that have a natural text form.
type Texter interface {
	Text() string
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case Texter:
		return val.Text()
	case fmt.Stringer:
		return val.String()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// Handler runs the logic of one node type.
type Handler interface {
	Handle(ctx context.Context, node Node, in Input) (any, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, node Node, in Input) (any, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, node Node, in Input) (any, error) {
	return f(ctx, node, in)
}

// Registry maps node types to their handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[NodeType]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[NodeType]Handler)}
}

// Register sets the handler for a node type, replacing any previous one.
func (r *Registry) Register(nodeType NodeType, h Handler) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[nodeType] = h
	return r
}

// Lookup returns the handler for a node type.
func (r *Registry) Lookup(nodeType NodeType) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[nodeType]
	return h, ok
}

// Types lists the registered node types in sorted order.
func (r *Registry) Types() []NodeType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]NodeType, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

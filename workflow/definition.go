package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/flowcanvas/types"
)

// Definition is the canvas representation of a workflow, as saved by the
// editor: nodes carry their configuration as a loosely typed data map.
type Definition struct {
	ID          string           `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string           `json:"name,omitempty" yaml:"name,omitempty"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Nodes       []NodeDefinition `json:"nodes" yaml:"nodes"`
	Edges       []Edge           `json:"edges" yaml:"edges"`
	Metadata    map[string]any   `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Position is a node's location on the canvas. The engine ignores it.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NodeDefinition is one canvas node.
type NodeDefinition struct {
	ID       string         `json:"id" yaml:"id"`
	Type     NodeType       `json:"type" yaml:"type"`
	Label    string         `json:"label,omitempty" yaml:"label,omitempty"`
	Position *Position      `json:"position,omitempty" yaml:"position,omitempty"`
	Data     map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}

// Format names a definition encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// newConfig returns an empty config of the variant matching t.
func newConfig(t NodeType) (NodeConfig, bool) {
	switch t {
	case NodeTypeInput:
		return &InputConfig{}, true
	case NodeTypeLLM:
		return &LLMConfig{}, true
	case NodeTypeCompare:
		return &CompareConfig{}, true
	case NodeTypeSummarize:
		return &SummarizeConfig{}, true
	case NodeTypeOutput:
		return &OutputConfig{}, true
	}
	return nil, false
}

// Compile converts the definition into engine nodes and edges. A node
// without data gets a nil config, which Validate reports as missing
// configuration. Edges without an id get one derived from their endpoints.
func (d *Definition) Compile() ([]Node, []Edge, error) {
	nodes := make([]Node, 0, len(d.Nodes))
	for _, nd := range d.Nodes {
		node, err := nd.compile()
		if err != nil {
			return nil, nil, err
		}
		nodes = append(nodes, node)
	}

	edges := make([]Edge, len(d.Edges))
	for i, e := range d.Edges {
		if e.ID == "" {
			e.ID = e.Source + "->" + e.Target
		}
		edges[i] = e
	}
	return nodes, edges, nil
}

func (nd NodeDefinition) compile() (Node, error) {
	node := Node{ID: nd.ID, Type: nd.Type}
	cfg, ok := newConfig(nd.Type)
	if !ok {
		return Node{}, types.Errorf(types.ErrValidationFailed, "node %s: unknown node type %q", nd.ID, nd.Type).WithNode(nd.ID)
	}
	if len(nd.Data) == 0 {
		return node, nil
	}

	// the data map may come from YAML, so round-trip through JSON to reach the json tags
	raw, err := json.Marshal(nd.Data)
	if err != nil {
		return Node{}, types.Errorf(types.ErrInvalidRequest, "node %s: encode data", nd.ID).WithCause(err).WithNode(nd.ID)
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return Node{}, types.Errorf(types.ErrInvalidRequest, "node %s: decode %s configuration", nd.ID, nd.Type).WithCause(err).WithNode(nd.ID)
	}
	node.Config = cfg
	return node, nil
}

// NewDefinition builds a canvas definition from engine nodes and edges.
func NewDefinition(name string, nodes []Node, edges []Edge) (*Definition, error) {
	d := &Definition{Name: name, Edges: append([]Edge(nil), edges...)}
	for _, n := range nodes {
		nd := NodeDefinition{ID: n.ID, Type: n.Type}
		if n.Config != nil {
			raw, err := json.Marshal(n.Config)
			if err != nil {
				return nil, fmt.Errorf("encode node %s: %w", n.ID, err)
			}
			if err := json.Unmarshal(raw, &nd.Data); err != nil {
				return nil, fmt.Errorf("decode node %s: %w", n.ID, err)
			}
		}
		d.Nodes = append(d.Nodes, nd)
	}
	return d, nil
}

// ToJSON encodes the definition as indented JSON.
func (d *Definition) ToJSON() (string, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	return string(data), nil
}

// ToYAML encodes the definition as YAML.
func (d *Definition) ToYAML() (string, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal to YAML: %w", err)
	}
	return string(data), nil
}

// ParseDefinition decodes a definition in the given format.
func ParseDefinition(data []byte, format Format) (*Definition, error) {
	var def Definition
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &def); err != nil {
			return nil, types.NewError(types.ErrInvalidRequest, "failed to unmarshal definition from JSON").WithCause(err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, types.NewError(types.ErrInvalidRequest, "failed to unmarshal definition from YAML").WithCause(err)
		}
	default:
		return nil, types.Errorf(types.ErrInvalidRequest, "unsupported definition format %q", format)
	}
	return &def, nil
}

// FormatFromPath picks the format by file extension; anything that is not
// .yaml or .yml is read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadDefinition reads a definition file.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	def, err := ParseDefinition(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return def, nil
}

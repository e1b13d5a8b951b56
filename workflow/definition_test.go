package workflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/flowcanvas/types"
)

const canvasJSON = `{
  "id": "wf-1",
  "name": "compare models",
  "nodes": [
    {"id": "input1", "type": "input", "position": {"x": 0, "y": 0},
     "data": {"inputType": "text", "defaultContent": "What is Go?"}},
    {"id": "llm1", "type": "llm", "data": {"models": ["gpt-4o", "claude"], "prompt": "Answer: {input}", "temperature": 0.2}},
    {"id": "output1", "type": "output", "data": {"outputFormat": "markdown"}}
  ],
  "edges": [
    {"id": "e1", "source": "input1", "target": "llm1"},
    {"source": "llm1", "target": "output1"}
  ]
}`

const canvasYAML = `
name: summarize
nodes:
  - id: in
    type: input
    data:
      inputType: text
      defaultContent: long text
  - id: sum
    type: summarize
    data:
      length: short
      style: bullets
edges:
  - source: in
    target: sum
`

func TestDefinition_CompileJSON(t *testing.T) {
	def, err := ParseDefinition([]byte(canvasJSON), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "compare models", def.Name)

	nodes, edges, err := def.Compile()
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	assert.Equal(t, &InputConfig{InputType: InputTypeText, DefaultContent: "What is Go?"}, nodes[0].Config)
	assert.Equal(t, &LLMConfig{Models: []string{"gpt-4o", "claude"}, Prompt: "Answer: {input}", Temperature: 0.2}, nodes[1].Config)
	assert.Equal(t, &OutputConfig{OutputFormat: OutputFormatMarkdown}, nodes[2].Config)

	assert.Equal(t, "e1", edges[0].ID)
	assert.Equal(t, "llm1->output1", edges[1].ID)
	assert.NoError(t, Validate(nodes, edges))
}

func TestDefinition_CompileYAML(t *testing.T) {
	def, err := ParseDefinition([]byte(canvasYAML), FormatYAML)
	require.NoError(t, err)

	nodes, edges, err := def.Compile()
	require.NoError(t, err)
	assert.Equal(t, &SummarizeConfig{Length: "short", Style: "bullets"}, nodes[1].Config)
	assert.Equal(t, []Edge{{ID: "in->sum", Source: "in", Target: "sum"}}, edges)
}

func TestDefinition_NodeWithoutDataFailsValidation(t *testing.T) {
	def := &Definition{Nodes: []NodeDefinition{{ID: "llm1", Type: NodeTypeLLM}}}
	nodes, edges, err := def.Compile()
	require.NoError(t, err)
	assert.Nil(t, nodes[0].Config)

	err = Validate(nodes, edges)
	assert.ErrorIs(t, err, ErrMissingConfig)
}

func TestDefinition_Errors(t *testing.T) {
	def := &Definition{Nodes: []NodeDefinition{{ID: "x", Type: "transform"}}}
	_, _, err := def.Compile()
	assert.True(t, types.IsErrorCode(err, types.ErrValidationFailed))

	def = &Definition{Nodes: []NodeDefinition{{ID: "x", Type: NodeTypeLLM, Data: map[string]any{"models": "not-a-list"}}}}
	_, _, err = def.Compile()
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidRequest))

	_, err = ParseDefinition([]byte("{"), FormatJSON)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidRequest))

	_, err = ParseDefinition([]byte("{}"), "toml")
	assert.ErrorContains(t, err, "unsupported definition format")
}

func TestDefinition_RoundTrip(t *testing.T) {
	nodes, edges := diamondGraph()
	def, err := NewDefinition("diamond", nodes, edges)
	require.NoError(t, err)

	for _, encode := range []func() (string, error){def.ToJSON, def.ToYAML} {
		text, err := encode()
		require.NoError(t, err)

		format := FormatJSON
		if text[0] != '{' {
			format = FormatYAML
		}
		parsed, err := ParseDefinition([]byte(text), format)
		require.NoError(t, err)

		gotNodes, gotEdges, err := parsed.Compile()
		require.NoError(t, err)
		assert.Equal(t, nodes, gotNodes)
		assert.Equal(t, edges, gotEdges)
	}
}

func TestLoadDefinition(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "flow.json")
	yamlPath := filepath.Join(dir, "flow.yml")
	require.NoError(t, os.WriteFile(jsonPath, []byte(canvasJSON), 0o600))
	require.NoError(t, os.WriteFile(yamlPath, []byte(canvasYAML), 0o600))

	def, err := LoadDefinition(jsonPath)
	require.NoError(t, err)
	assert.Len(t, def.Nodes, 3)

	def, err = LoadDefinition(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "summarize", def.Name)

	_, err = LoadDefinition(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("a.YAML"))
	assert.Equal(t, FormatYAML, FormatFromPath("a.yml"))
	assert.Equal(t, FormatJSON, FormatFromPath("a.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("noext"))
}

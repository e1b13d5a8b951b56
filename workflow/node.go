package workflow

// NodeType defines the type of a workflow node
type NodeType string

const (
	// NodeTypeInput supplies literal content to the graph
	NodeTypeInput NodeType = "input"
	// NodeTypeLLM calls one or more models with a prompt template
	NodeTypeLLM NodeType = "llm"
	// NodeTypeCompare collects the outputs of several branches
	NodeTypeCompare NodeType = "compare"
	// NodeTypeSummarize condenses its input
	NodeTypeSummarize NodeType = "summarize"
	// NodeTypeOutput renders the final content in a chosen format
	NodeTypeOutput NodeType = "output"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeInput, NodeTypeLLM, NodeTypeCompare, NodeTypeSummarize, NodeTypeOutput:
		return true
	}
	return false
}

// InputType selects where an input node gets its content from.
type InputType string

const (
	InputTypeText InputType = "text"
	InputTypeFile InputType = "file"
	InputTypeURL  InputType = "url"
)

// ComparisonType selects what a compare node looks for across its inputs.
type ComparisonType string

const (
	ComparisonConflicts   ComparisonType = "conflicts"
	ComparisonConsensus   ComparisonType = "consensus"
	ComparisonDifferences ComparisonType = "differences"
)

// Valid reports whether c is a known comparison type.
func (c ComparisonType) Valid() bool {
	switch c {
	case ComparisonConflicts, ComparisonConsensus, ComparisonDifferences:
		return true
	}
	return false
}

// OutputFormat selects how an output node encodes its content.
type OutputFormat string

const (
	OutputFormatJSON     OutputFormat = "json"
	OutputFormatMarkdown OutputFormat = "markdown"
	OutputFormatText     OutputFormat = "text"
	OutputFormatYAML     OutputFormat = "yaml"
)

// Valid reports whether f is a supported output format.
func (f OutputFormat) Valid() bool {
	switch f {
	case OutputFormatJSON, OutputFormatMarkdown, OutputFormatText, OutputFormatYAML:
		return true
	}
	return false
}

// NodeConfig is the type-specific configuration of a node. The set of
// implementations is closed: one struct per NodeType.
type NodeConfig interface {
	nodeType() NodeType
}

// InputConfig configures an input node.
type InputConfig struct {
	InputType      InputType `json:"inputType"`
	DefaultContent string    `json:"defaultContent,omitempty"`
	FileName       string    `json:"fileName,omitempty"`
	FileContent    string    `json:"fileContent,omitempty"`
	URL            string    `json:"url,omitempty"`
	URLContent     string    `json:"urlContent,omitempty"`
}

// LLMConfig configures an llm node. Prompt may contain the {input} placeholder.
type LLMConfig struct {
	Models      []string `json:"models"`
	Prompt      string   `json:"prompt"`
	Temperature float64  `json:"temperature,omitempty"`
	MaxTokens   int      `json:"maxTokens,omitempty"`
}

// CompareConfig configures a compare node.
type CompareConfig struct {
	ComparisonType ComparisonType `json:"comparisonType"`
}

// SummarizeConfig configures a summarize node.
type SummarizeConfig struct {
	Length string `json:"length"`
	Style  string `json:"style"`
}

// OutputConfig configures an output node.
type OutputConfig struct {
	OutputFormat OutputFormat `json:"outputFormat"`
}

func (*InputConfig) nodeType() NodeType     { return NodeTypeInput }
func (*LLMConfig) nodeType() NodeType       { return NodeTypeLLM }
func (*CompareConfig) nodeType() NodeType   { return NodeTypeCompare }
func (*SummarizeConfig) nodeType() NodeType { return NodeTypeSummarize }
func (*OutputConfig) nodeType() NodeType    { return NodeTypeOutput }

// Node is a single unit of work in the workflow graph. Nodes are owned by the
// caller and never mutated by the engine.
type Node struct {
	ID     string
	Type   NodeType
	Config NodeConfig
}

// Edge is a directed dependency: Target consumes the output of Source.
type Edge struct {
	ID     string `json:"id" yaml:"id"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// NewInputNode creates a text input node.
func NewInputNode(id, content string) Node {
	return Node{ID: id, Type: NodeTypeInput, Config: &InputConfig{InputType: InputTypeText, DefaultContent: content}}
}

// NewLLMNode creates an llm node calling the given models.
func NewLLMNode(id, prompt string, models ...string) Node {
	return Node{ID: id, Type: NodeTypeLLM, Config: &LLMConfig{Models: models, Prompt: prompt}}
}

// NewCompareNode creates a compare node.
func NewCompareNode(id string, comparison ComparisonType) Node {
	return Node{ID: id, Type: NodeTypeCompare, Config: &CompareConfig{ComparisonType: comparison}}
}

// NewSummarizeNode creates a summarize node.
func NewSummarizeNode(id, length, style string) Node {
	return Node{ID: id, Type: NodeTypeSummarize, Config: &SummarizeConfig{Length: length, Style: style}}
}

// NewOutputNode creates an output node.
func NewOutputNode(id string, format OutputFormat) Node {
	return Node{ID: id, Type: NodeTypeOutput, Config: &OutputConfig{OutputFormat: format}}
}

// NewEdge creates an edge with a derived id.
func NewEdge(source, target string) Edge {
	return Edge{ID: source + "->" + target, Source: source, Target: target}
}

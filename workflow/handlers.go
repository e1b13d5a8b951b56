package workflow

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/flowcanvas/types"
)

// InputPlaceholder is replaced in llm prompts by the resolved node input.
const InputPlaceholder = "{input}"

// RenderPrompt substitutes every InputPlaceholder in prompt with the text of in.
func RenderPrompt(prompt string, in Input) string {
	if !strings.Contains(prompt, InputPlaceholder) {
		return prompt
	}
	return strings.ReplaceAll(prompt, InputPlaceholder, in.Text())
}

// ModelRequest is one model call issued by an llm node.
type ModelRequest struct {
	NodeID      string  `json:"nodeId"`
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"maxTokens,omitempty"`
}

// Usage reports token accounting for a model call.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// ModelResponse is the text and usage returned by a model.
type ModelResponse struct {
	Model string `json:"model"`
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
}

// ModelInvoker performs the actual model request. The engine never talks to
// a provider itself.
type ModelInvoker interface {
	Invoke(ctx context.Context, req ModelRequest) (*ModelResponse, error)
}

// ModelInvokerFunc adapts a function to ModelInvoker.
type ModelInvokerFunc func(ctx context.Context, req ModelRequest) (*ModelResponse, error)

// Invoke calls f.
func (f ModelInvokerFunc) Invoke(ctx context.Context, req ModelRequest) (*ModelResponse, error) {
	return f(ctx, req)
}

// Summarizer condenses text for summarize nodes.
type Summarizer interface {
	Summarize(ctx context.Context, text string, cfg SummarizeConfig) (string, error)
}

// SummarizerFunc adapts a function to Summarizer.
type SummarizerFunc func(ctx context.Context, text string, cfg SummarizeConfig) (string, error)

// Summarize calls f.
func (f SummarizerFunc) Summarize(ctx context.Context, text string, cfg SummarizeConfig) (string, error) {
	return f(ctx, text, cfg)
}

// ContentLoader resolves file and url inputs that carry no inline content.
type ContentLoader interface {
	LoadContent(ctx context.Context, cfg InputConfig) (string, error)
}

// HandlerDeps are the collaborators used by the built-in handlers.
type HandlerDeps struct {
	Invoker    ModelInvoker
	Summarizer Summarizer
	Loader     ContentLoader
	// MaxParallelModels bounds concurrent model calls within one llm node (0 = unbounded).
	MaxParallelModels int
}

// NewDefaultRegistry returns a registry with the five built-in handlers.
func NewDefaultRegistry(deps HandlerDeps) *Registry {
	return NewRegistry().
		Register(NodeTypeInput, &InputHandler{Loader: deps.Loader}).
		Register(NodeTypeLLM, &LLMHandler{Invoker: deps.Invoker, MaxParallel: deps.MaxParallelModels}).
		Register(NodeTypeCompare, &CompareHandler{}).
		Register(NodeTypeSummarize, &SummarizeHandler{Summarizer: deps.Summarizer}).
		Register(NodeTypeOutput, &OutputHandler{})
}

func configMismatch(node Node, want NodeType) error {
	return types.Errorf(types.ErrValidationFailed, "node %s: expected %s configuration", node.ID, want).WithNode(node.ID)
}

// ============================================================
// input
// ============================================================

// InputHandler returns the configured literal content.
type InputHandler struct {
	Loader ContentLoader
}

func (h *InputHandler) Handle(ctx context.Context, node Node, _ Input) (any, error) {
	cfg, ok := node.Config.(*InputConfig)
	if !ok {
		return nil, configMismatch(node, NodeTypeInput)
	}

	switch cfg.InputType {
	case InputTypeFile:
		if cfg.FileContent != "" {
			return cfg.FileContent, nil
		}
		if h.Loader != nil && cfg.FileName != "" {
			return h.load(ctx, node, cfg)
		}
	case InputTypeURL:
		if cfg.URLContent != "" {
			return cfg.URLContent, nil
		}
		if h.Loader != nil && cfg.URL != "" {
			return h.load(ctx, node, cfg)
		}
	}
	return cfg.DefaultContent, nil
}

func (h *InputHandler) load(ctx context.Context, node Node, cfg *InputConfig) (any, error) {
	content, err := h.Loader.LoadContent(ctx, *cfg)
	if err != nil {
		return nil, fmt.Errorf("load %s content for node %s: %w", cfg.InputType, node.ID, err)
	}
	return content, nil
}

// ============================================================
// llm
// ============================================================

// LLMOutput is the data produced by an llm node.
type LLMOutput struct {
	Prompt    string          `json:"prompt"`
	Responses []ModelResponse `json:"responses"`
}

// Text returns the response text; several responses are labelled by model.
func (o LLMOutput) Text() string {
	if len(o.Responses) == 1 {
		return o.Responses[0].Text
	}
	parts := make([]string, 0, len(o.Responses))
	for _, r := range o.Responses {
		parts = append(parts, fmt.Sprintf("[%s]\n%s", r.Model, r.Text))
	}
	return strings.Join(parts, "\n\n")
}

// LLMHandler renders the prompt and calls every configured model.
type LLMHandler struct {
	Invoker     ModelInvoker
	MaxParallel int
}

func (h *LLMHandler) Handle(ctx context.Context, node Node, in Input) (any, error) {
	cfg, ok := node.Config.(*LLMConfig)
	if !ok {
		return nil, configMismatch(node, NodeTypeLLM)
	}
	// Checked here as well as in Validate: RunUnchecked skips validation.
	if len(cfg.Models) == 0 {
		return nil, types.Errorf(types.ErrModelNotConfigured, "No models configured for node %s", node.ID).WithNode(node.ID)
	}
	if h.Invoker == nil {
		return nil, types.Errorf(types.ErrModelNotConfigured, "no model invoker available for node %s", node.ID).WithNode(node.ID)
	}

	prompt := RenderPrompt(cfg.Prompt, in)
	responses := make([]ModelResponse, len(cfg.Models))

	g, gctx := errgroup.WithContext(ctx)
	if h.MaxParallel > 0 {
		g.SetLimit(h.MaxParallel)
	}
	for i, model := range cfg.Models {
		g.Go(func() error {
			resp, err := h.Invoker.Invoke(gctx, ModelRequest{
				NodeID:      node.ID,
				Model:       model,
				Prompt:      prompt,
				Temperature: cfg.Temperature,
				MaxTokens:   cfg.MaxTokens,
			})
			if err != nil {
				return fmt.Errorf("model %s: %w", model, err)
			}
			if resp == nil {
				return types.Errorf(types.ErrUpstreamError, "model %s returned no response", model)
			}
			r := *resp
			if r.Model == "" {
				r.Model = model
			}
			responses[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return LLMOutput{Prompt: prompt, Responses: responses}, nil
}

// ============================================================
// compare
// ============================================================

// CompareOutput is the data produced by a compare node.
type CompareOutput struct {
	ComparisonType ComparisonType `json:"comparisonType"`
	Inputs         []SourceOutput `json:"inputs"`
}

// Text lists every compared input under its source node.
func (o CompareOutput) Text() string {
	parts := make([]string, 0, len(o.Inputs))
	for _, s := range o.Inputs {
		parts = append(parts, fmt.Sprintf("[%s]\n%s", s.NodeID, stringify(s.Data)))
	}
	return strings.Join(parts, "\n\n")
}

// CompareHandler gathers all predecessor outputs.
type CompareHandler struct{}

func (h *CompareHandler) Handle(_ context.Context, node Node, in Input) (any, error) {
	cfg, ok := node.Config.(*CompareConfig)
	if !ok {
		return nil, configMismatch(node, NodeTypeCompare)
	}
	inputs := make([]SourceOutput, len(in.Sources))
	copy(inputs, in.Sources)
	return CompareOutput{ComparisonType: cfg.ComparisonType, Inputs: inputs}, nil
}

// ============================================================
// summarize
// ============================================================

// SummaryOutput is the data produced by a summarize node.
type SummaryOutput struct {
	Length  string `json:"length"`
	Style   string `json:"style"`
	Summary string `json:"summary"`
}

// Text returns the summary.
func (o SummaryOutput) Text() string { return o.Summary }

// SummarizeHandler delegates to a Summarizer; without one the input text is used verbatim.
type SummarizeHandler struct {
	Summarizer Summarizer
}

func (h *SummarizeHandler) Handle(ctx context.Context, node Node, in Input) (any, error) {
	cfg, ok := node.Config.(*SummarizeConfig)
	if !ok {
		return nil, configMismatch(node, NodeTypeSummarize)
	}

	summary := in.Text()
	if h.Summarizer != nil {
		var err error
		summary, err = h.Summarizer.Summarize(ctx, summary, *cfg)
		if err != nil {
			return nil, fmt.Errorf("summarize node %s: %w", node.ID, err)
		}
	}
	return SummaryOutput{Length: cfg.Length, Style: cfg.Style, Summary: summary}, nil
}

// ============================================================
// output
// ============================================================

// OutputResult is the data produced by an output node.
type OutputResult struct {
	Format  OutputFormat `json:"format"`
	Content string       `json:"content"`
}

// Text returns the encoded content.
func (o OutputResult) Text() string { return o.Content }

// OutputHandler encodes the resolved input in the configured format.
type OutputHandler struct{}

func (h *OutputHandler) Handle(_ context.Context, node Node, in Input) (any, error) {
	cfg, ok := node.Config.(*OutputConfig)
	if !ok {
		return nil, configMismatch(node, NodeTypeOutput)
	}
	content, err := EncodeContent(cfg.OutputFormat, in.Payload())
	if err != nil {
		return nil, fmt.Errorf("output node %s: %w", node.ID, err)
	}
	return OutputResult{Format: cfg.OutputFormat, Content: content}, nil
}

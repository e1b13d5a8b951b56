package workflow

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/flowcanvas/types"
)

// EncodeContent renders v in the given output format.
func EncodeContent(format OutputFormat, v any) (string, error) {
	switch format {
	case OutputFormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode json: %w", err)
		}
		return string(data), nil

	case OutputFormatYAML:
		// go through JSON so field names follow the json tags
		generic, err := toGeneric(v)
		if err != nil {
			return "", err
		}
		data, err := yaml.Marshal(generic)
		if err != nil {
			return "", fmt.Errorf("encode yaml: %w", err)
		}
		return string(data), nil

	case OutputFormatMarkdown:
		return markdown(v)

	case OutputFormatText, "":
		return stringify(v), nil

	default:
		return "", types.Errorf(types.ErrInvalidRequest, "unsupported output format %q", format)
	}
}

func toGeneric(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return generic, nil
}

func markdown(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case LLMOutput:
		if len(val.Responses) == 1 {
			return val.Responses[0].Text, nil
		}
		var b strings.Builder
		for i, r := range val.Responses {
			if i > 0 {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "## %s\n\n%s", r.Model, r.Text)
		}
		return b.String(), nil
	case []SourceOutput:
		var b strings.Builder
		for i, s := range val {
			if i > 0 {
				b.WriteString("\n\n")
			}
			body, err := markdown(s.Data)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&b, "## %s\n\n%s", s.NodeID, body)
		}
		return b.String(), nil
	case Texter:
		return val.Text(), nil
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode markdown: %w", err)
	}
	return "```json\n" + string(data) + "\n```", nil
}

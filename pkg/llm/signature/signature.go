// Package signature provides declarative structured-output calls on top of
// chat providers. A Signature names typed input and output fields; Predict
// renders them into a prompt, asks the model for a JSON object, and decodes
// the reply into a caller-supplied struct.
package signature

import (
	"context"
	"fmt"
	"strings"

	"github.com/kart-io/advisor-x/pkg/llm"
	"github.com/kart-io/advisor-x/pkg/utils/json"
)

// Field describes one input or output field of a signature.
type Field struct {
	// Name is the JSON field name.
	Name string

	// Desc is the human-readable description shown to the model.
	Desc string

	// Enum restricts the field to one of the listed values.
	Enum []string
}

// Signature describes a structured LLM task.
type Signature struct {
	// Name identifies the task in logs and errors.
	Name string

	// Instructions is the task statement placed in the system prompt.
	Instructions string

	// Inputs are the fields supplied by the caller.
	Inputs []Field

	// Outputs are the fields the model must produce.
	Outputs []Field
}

// Validator lets output types verify model output after decoding.
type Validator interface {
	Validate() error
}

// Predict executes the signature against the chat provider. The model reply
// is decoded into out, which must be a pointer. If out implements Validator,
// validation runs after decoding and its error is returned as-is.
func Predict(ctx context.Context, chat llm.ChatProvider, sig *Signature, inputs map[string]string, out any) (*llm.TokenUsage, error) {
	systemPrompt := sig.systemPrompt()
	userPrompt := sig.userPrompt(inputs)

	resp, err := chat.Generate(ctx, userPrompt, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%s: generate failed: %w", sig.Name, err)
	}

	raw := ExtractJSON(resp.Content)
	if raw == "" {
		return resp.TokenUsage, fmt.Errorf("%s: no JSON object in model output", sig.Name)
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return resp.TokenUsage, fmt.Errorf("%s: failed to decode model output: %w", sig.Name, err)
	}

	if v, ok := out.(Validator); ok {
		if err := v.Validate(); err != nil {
			return resp.TokenUsage, err
		}
	}

	return resp.TokenUsage, nil
}

func (s *Signature) systemPrompt() string {
	var sb strings.Builder
	sb.WriteString(s.Instructions)
	sb.WriteString("\n\nRespond with a single JSON object containing exactly these fields:\n")
	for _, f := range s.Outputs {
		sb.WriteString("- ")
		sb.WriteString(f.Name)
		if f.Desc != "" {
			sb.WriteString(": ")
			sb.WriteString(f.Desc)
		}
		if len(f.Enum) > 0 {
			sb.WriteString(" (one of: ")
			sb.WriteString(strings.Join(f.Enum, ", "))
			sb.WriteString(")")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nOutput only the JSON object. No explanations, no markdown.")
	return sb.String()
}

func (s *Signature) userPrompt(inputs map[string]string) string {
	var sb strings.Builder
	for _, f := range s.Inputs {
		sb.WriteString(f.Name)
		sb.WriteString(":\n")
		sb.WriteString(inputs[f.Name])
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String())
}

// ExtractJSON returns the first JSON object embedded in text. Markdown code
// fences are stripped first since many models wrap JSON in them.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[idx+1:]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return ""
	}
	return text[start : end+1]
}

package agent

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var ErrParseFailure = errors.New("failed to parse control response from LLM output")

var codeBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)\\n\\s*```")

// controlResponse is the JSON envelope the runtime asks the model to emit:
// either a tool call or a final answer.
type controlResponse struct {
	Type     string         `json:"type"`
	Thought  string         `json:"thought,omitempty"`
	ToolName string         `json:"tool_name,omitempty"`
	Params   map[string]any `json:"tool_params,omitempty"`
	Output   any            `json:"output,omitempty"`
}

const (
	typeToolCall = "tool_call"
	typeFinal    = "final"
)

func parseControlResponse(text string) (*controlResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrParseFailure
	}

	candidates := []string{text}
	if s := ExtractFromCodeBlock(text); s != "" {
		candidates = append(candidates, s)
	}
	if s := ExtractJSONObject(text); s != "" {
		candidates = append(candidates, s)
	}

	var lastErr error
	for _, candidate := range candidates {
		var resp controlResponse
		if err := json.Unmarshal([]byte(candidate), &resp); err != nil {
			lastErr = err
			continue
		}
		switch resp.Type {
		case typeToolCall:
			if resp.ToolName == "" {
				lastErr = errors.New("tool_call response missing tool name")
				continue
			}
			return &resp, nil
		case typeFinal:
			return &resp, nil
		default:
			lastErr = ErrParseFailure
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrParseFailure
}

// ExtractFromCodeBlock returns the body of the first fenced code block, or
// "" when there is none.
func ExtractFromCodeBlock(text string) string {
	matches := codeBlockRe.FindStringSubmatch(text)
	if len(matches) >= 2 {
		return strings.TrimSpace(matches[1])
	}
	return ""
}

// ExtractJSONObject returns the first balanced top-level {...} block,
// skipping braces inside string literals, or "" when there is none.
func ExtractJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

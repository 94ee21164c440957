package agent

import "strings"

// Chunk is one turn of a streamed agent run. Exactly one of Agent, Tools,
// or Err is set: Agent carries assistant output, Tools carries a tool
// observation, Err reports a run failure and is always the last chunk.
type Chunk struct {
	Agent *AgentTurn
	Tools *ToolTurn
	Err   error
}

// AgentTurn holds assistant content, either as a plain string or as a list
// of typed content blocks.
type AgentTurn struct {
	Messages []AgentMessage
}

type AgentMessage struct {
	Text   string
	Blocks []ContentBlock
}

type ContentBlock struct {
	Type string
	Text string
}

// FirstText returns the plain content, or the first text block when the
// content is block-structured.
func (m AgentMessage) FirstText() string {
	if strings.TrimSpace(m.Text) != "" {
		return m.Text
	}
	for _, b := range m.Blocks {
		if b.Type == "text" && strings.TrimSpace(b.Text) != "" {
			return b.Text
		}
	}
	return ""
}

// ToolTurn holds the JSON string a tool returned; on-chain tools use the
// {"success": bool, "transactionHash"|"error": "..."} shape.
type ToolTurn struct {
	Messages []ToolMessage
}

type ToolMessage struct {
	ToolName string
	Content  string
}

// ToolResult is the decoded payload of an on-chain tool observation.
type ToolResult struct {
	Success         bool   `json:"success"`
	TransactionHash string `json:"transactionHash,omitempty"`
	Message         string `json:"message,omitempty"`
	Error           string `json:"error,omitempty"`
}

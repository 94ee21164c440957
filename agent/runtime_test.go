package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/HemangVora/LetsBet/llm"
	"github.com/HemangVora/LetsBet/tools"
)

type sequenceClient struct {
	responses []string
	calls     int
	lastReq   llm.Request
}

func (c *sequenceClient) Chat(_ context.Context, req llm.Request) (llm.Result, error) {
	c.lastReq = req
	if c.calls >= len(c.responses) {
		return llm.Result{}, errors.New("no scripted response left")
	}
	text := c.responses[c.calls]
	c.calls++
	return llm.Result{Text: text}, nil
}

type echoTool struct {
	executed bool
	params   map[string]any
}

func (t *echoTool) Name() string            { return "echo" }
func (t *echoTool) Description() string     { return "Echo the input back" }
func (t *echoTool) ParameterSchema() string { return `{"value": "string"}` }

func (t *echoTool) Execute(_ context.Context, params map[string]any) (string, error) {
	t.executed = true
	t.params = params
	value, _ := params["value"].(string)
	return "echo: " + value, nil
}

func collect(ch <-chan Chunk) []Chunk {
	var out []Chunk
	for c := range ch {
		out = append(out, c)
	}
	return out
}

func TestRunToolCallLoop(t *testing.T) {
	client := &sequenceClient{responses: []string{
		`{"type": "tool_call", "thought": "echo it", "tool_name": "echo", "tool_params": {"value": "hi"}}`,
		`{"type": "final", "output": "done"}`,
	}}
	tool := &echoTool{}
	reg := tools.NewRegistry()
	reg.Register(tool)

	r := New(client)
	chunks := collect(r.Run(context.Background(), "say hi", reg, "thread-1"))

	if !tool.executed {
		t.Fatalf("tool should have been executed")
	}
	if v, _ := tool.params["value"].(string); v != "hi" {
		t.Fatalf("tool params not forwarded, got %v", tool.params)
	}

	var toolChunks, agentChunks int
	for _, c := range chunks {
		if c.Err != nil {
			t.Fatalf("unexpected error chunk: %v", c.Err)
		}
		if c.Tools != nil {
			toolChunks++
			if c.Tools.Messages[0].ToolName != "echo" {
				t.Fatalf("unexpected tool name %q", c.Tools.Messages[0].ToolName)
			}
			if c.Tools.Messages[0].Content != "echo: hi" {
				t.Fatalf("unexpected observation %q", c.Tools.Messages[0].Content)
			}
		}
		if c.Agent != nil {
			agentChunks++
		}
	}
	if toolChunks != 1 {
		t.Fatalf("expected one tool chunk, got %d", toolChunks)
	}
	if agentChunks != 2 {
		t.Fatalf("expected two agent chunks, got %d", agentChunks)
	}
}

func TestRunRawTextEndsRun(t *testing.T) {
	client := &sequenceClient{responses: []string{"just plain prose"}}
	r := New(client)
	chunks := collect(r.Run(context.Background(), "hello", nil, "thread-1"))

	if len(chunks) != 1 || chunks[0].Agent == nil {
		t.Fatalf("expected a single agent chunk, got %v", chunks)
	}
	if client.calls != 1 {
		t.Fatalf("raw text should end the run after one call, got %d", client.calls)
	}
}

func TestRunEmitsErrChunkOnLLMFailure(t *testing.T) {
	client := &sequenceClient{} // no responses: first call errors
	r := New(client)
	chunks := collect(r.Run(context.Background(), "hello", nil, "thread-1"))

	if len(chunks) != 1 || chunks[0].Err == nil {
		t.Fatalf("expected one error chunk, got %v", chunks)
	}
}

func TestRunUnknownToolObservation(t *testing.T) {
	client := &sequenceClient{responses: []string{
		`{"type": "tool_call", "tool_name": "missing", "tool_params": {}}`,
		`{"type": "final", "output": "ok"}`,
	}}
	r := New(client)
	chunks := collect(r.Run(context.Background(), "hello", tools.NewRegistry(), "thread-1"))

	var observation string
	for _, c := range chunks {
		if c.Tools != nil {
			observation = c.Tools.Messages[0].Content
		}
	}
	if observation == "" || !strings.Contains(observation, `"success":false`) || !strings.Contains(observation, "unknown tool") {
		t.Fatalf("unexpected observation %q", observation)
	}
}

func TestThreadHistoryCarriesOver(t *testing.T) {
	client := &sequenceClient{responses: []string{
		`{"type": "final", "output": "first answer"}`,
		`{"type": "final", "output": "second answer"}`,
	}}
	r := New(client)
	collect(r.Run(context.Background(), "first", nil, "thread-1"))
	collect(r.Run(context.Background(), "second", nil, "thread-1"))

	if len(client.lastReq.Messages) != 3 {
		t.Fatalf("second run should carry 2 history messages plus the new prompt, got %d", len(client.lastReq.Messages))
	}
	if client.lastReq.Messages[0].Content != "first" {
		t.Fatalf("history should start with the first prompt, got %q", client.lastReq.Messages[0].Content)
	}

	r.Reset("thread-1")
	client.responses = append(client.responses, `{"type": "final", "output": "third"}`)
	collect(r.Run(context.Background(), "third", nil, "thread-1"))
	if len(client.lastReq.Messages) != 1 {
		t.Fatalf("reset should drop history, got %d messages", len(client.lastReq.Messages))
	}
}

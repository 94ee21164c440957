package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/HemangVora/LetsBet/llm"
	"github.com/HemangVora/LetsBet/tools"
)

const (
	defaultMaxSteps   = 8
	defaultHistoryCap = 20
)

type Option func(*Runtime)

func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.log = l
		}
	}
}

func WithModel(model string) Option {
	return func(r *Runtime) {
		if strings.TrimSpace(model) != "" {
			r.model = model
		}
	}
}

func WithMaxSteps(n int) Option {
	return func(r *Runtime) {
		if n > 0 {
			r.maxSteps = n
		}
	}
}

// Runtime drives the tool-calling loop: the model either calls a registered
// tool or answers directly, and every turn is streamed to the caller as a
// Chunk. Conversation history is kept per thread so follow-up messages have
// context.
type Runtime struct {
	client     llm.Client
	model      string
	maxSteps   int
	historyCap int
	log        *slog.Logger

	mu      sync.Mutex
	threads map[string][]llm.Message
}

func New(client llm.Client, opts ...Option) *Runtime {
	r := &Runtime{
		client:     client,
		maxSteps:   defaultMaxSteps,
		historyCap: defaultHistoryCap,
		log:        slog.Default(),
		threads:    make(map[string][]llm.Message),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Run starts an agent run and returns the chunk stream. The channel is
// closed when the run finishes, fails, or the context is cancelled; callers
// that stop reading early must cancel the context to release the run.
func (r *Runtime) Run(ctx context.Context, prompt string, reg *tools.Registry, threadID string) <-chan Chunk {
	out := make(chan Chunk, 4)
	go func() {
		defer close(out)
		r.run(ctx, out, prompt, reg, threadID)
	}()
	return out
}

func (r *Runtime) run(ctx context.Context, out chan<- Chunk, prompt string, reg *tools.Registry, threadID string) {
	system := buildSystemPrompt(reg)

	r.mu.Lock()
	messages := append([]llm.Message(nil), r.threads[threadID]...)
	r.mu.Unlock()
	messages = append(messages, llm.Message{Role: "user", Content: prompt})

	log := r.log.With("thread_id", threadID)

	for step := 0; step < r.maxSteps; step++ {
		if ctx.Err() != nil {
			log.Warn("run_cancelled", "step", step, "error", ctx.Err().Error())
			return
		}

		start := time.Now()
		result, err := r.client.Chat(ctx, llm.Request{
			Model:    r.model,
			System:   system,
			Messages: messages,
		})
		if err != nil {
			log.Error("llm_call_error", "step", step, "error", err.Error())
			send(ctx, out, Chunk{Err: err})
			return
		}
		log.Debug("llm_call_done", "step", step, "duration_ms", time.Since(start).Milliseconds(), "total_tokens", result.Usage.TotalTokens)

		if !send(ctx, out, Chunk{Agent: &AgentTurn{Messages: []AgentMessage{{Text: result.Text}}}}) {
			return
		}

		resp, parseErr := parseControlResponse(result.Text)
		if parseErr != nil || resp.Type == typeFinal {
			// Raw text (or a final answer) ends the run.
			final := result.Text
			if parseErr == nil {
				final = outputString(resp.Output)
			}
			r.saveTurn(threadID, prompt, final)
			return
		}

		observation := r.executeTool(ctx, reg, resp, log, step)
		if !send(ctx, out, Chunk{Tools: &ToolTurn{Messages: []ToolMessage{{ToolName: resp.ToolName, Content: observation}}}}) {
			return
		}
		messages = append(messages,
			llm.Message{Role: "assistant", Content: result.Text},
			llm.Message{Role: "user", Content: "Observation: " + observation},
		)
	}
	log.Warn("run_step_limit", "max_steps", r.maxSteps)
	r.saveTurn(threadID, prompt, "")
}

func (r *Runtime) executeTool(ctx context.Context, reg *tools.Registry, resp *controlResponse, log *slog.Logger, step int) string {
	tool, ok := lookupTool(reg, resp.ToolName)
	if !ok {
		log.Warn("unknown_tool", "step", step, "tool", resp.ToolName)
		return toolErrorJSON(fmt.Sprintf("unknown tool: %s", resp.ToolName))
	}
	log.Info("tool_call", "step", step, "tool", resp.ToolName)
	observation, err := tool.Execute(ctx, resp.Params)
	if err != nil {
		log.Warn("tool_error", "step", step, "tool", resp.ToolName, "error", err.Error())
		return toolErrorJSON(err.Error())
	}
	return observation
}

func (r *Runtime) saveTurn(threadID, prompt, reply string) {
	if strings.TrimSpace(reply) == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := append(r.threads[threadID],
		llm.Message{Role: "user", Content: prompt},
		llm.Message{Role: "assistant", Content: reply},
	)
	if len(cur) > r.historyCap {
		cur = cur[len(cur)-r.historyCap:]
	}
	r.threads[threadID] = cur
}

// Reset drops the conversation history for a thread.
func (r *Runtime) Reset(threadID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.threads, threadID)
}

func lookupTool(reg *tools.Registry, name string) (tools.Tool, bool) {
	if reg == nil {
		return nil, false
	}
	return reg.Get(name)
}

func send(ctx context.Context, out chan<- Chunk, c Chunk) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

func toolErrorJSON(msg string) string {
	b, _ := json.Marshal(ToolResult{Success: false, Error: msg})
	return string(b)
}

func outputString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

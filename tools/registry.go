package tools

import (
	"fmt"
	"sort"
	"strings"
)

// Registry is the set of tools exposed to a single agent run. The bot builds
// one per user so on-chain tools sign with that user's account; extraction
// runs use no registry at all.
type Registry struct {
	byName map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Tool)}
}

// Register adds the tool under its name, replacing any previous entry.
func (r *Registry) Register(tool Tool) {
	r.byName[tool.Name()] = tool
}

func (r *Registry) Get(name string) (Tool, bool) {
	tool, ok := r.byName[name]
	return tool, ok
}

// All returns the registered tools sorted by name, so the rendered system
// prompt is stable across runs.
func (r *Registry) All() []Tool {
	out := make([]Tool, 0, len(r.byName))
	for _, tool := range r.byName {
		out = append(out, tool)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// FormatToolDescriptions renders each tool's name, description, and JSON
// parameter schema for the system prompt.
func (r *Registry) FormatToolDescriptions() string {
	var b strings.Builder
	for _, tool := range r.All() {
		fmt.Fprintf(&b, "### %s\n%s\nParameters:\n```json\n%s\n```\n\n", tool.Name(), tool.Description(), tool.ParameterSchema())
	}
	return b.String()
}

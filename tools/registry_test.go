package tools

import (
	"context"
	"strings"
	"testing"
)

type stubTool struct {
	name   string
	desc   string
	schema string
}

func (t *stubTool) Name() string            { return t.name }
func (t *stubTool) Description() string     { return t.desc }
func (t *stubTool) ParameterSchema() string { return t.schema }

func (t *stubTool) Execute(_ context.Context, _ map[string]any) (string, error) {
	return "", nil
}

func TestRegistryGet(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubTool{name: "place_bet"})

	if _, ok := reg.Get("place_bet"); !ok {
		t.Fatalf("registered tool should be found")
	}
	if _, ok := reg.Get("create_prediction_market"); ok {
		t.Fatalf("unregistered tool should not be found")
	}
}

func TestRegistryAllSorted(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubTool{name: "place_bet"})
	reg.Register(&stubTool{name: "create_prediction_market"})
	reg.Register(&stubTool{name: "get_wallet_address"})

	all := reg.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(all))
	}
	want := []string{"create_prediction_market", "get_wallet_address", "place_bet"}
	for i, tool := range all {
		if tool.Name() != want[i] {
			t.Fatalf("position %d = %q, want %q", i, tool.Name(), want[i])
		}
	}
}

func TestRegistryRegisterReplaces(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubTool{name: "place_bet", desc: "old"})
	reg.Register(&stubTool{name: "place_bet", desc: "new"})

	tool, ok := reg.Get("place_bet")
	if !ok || tool.Description() != "new" {
		t.Fatalf("re-registration should replace the entry")
	}
	if len(reg.All()) != 1 {
		t.Fatalf("replaced tool should not be duplicated")
	}
}

func TestFormatToolDescriptions(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubTool{
		name:   "place_bet",
		desc:   "Place a bet on a prediction market",
		schema: `{"marketId": "string"}`,
	})

	out := reg.FormatToolDescriptions()
	for _, want := range []string{"### place_bet", "Place a bet on a prediction market", `{"marketId": "string"}`} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered descriptions missing %q:\n%s", want, out)
		}
	}
}

package bot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/HemangVora/LetsBet/agent"
	"github.com/HemangVora/LetsBet/aptos"
	"github.com/HemangVora/LetsBet/market"
	"github.com/HemangVora/LetsBet/tools"
)

// toolsetFor builds the per-user tool registry the agent runtime can call
// during conversational runs. Every on-chain tool signs with the user's own
// account.
func toolsetFor(submitter *market.Submitter, account *aptos.Account) *tools.Registry {
	reg := tools.NewRegistry()
	reg.Register(&createMarketTool{submitter: submitter, account: account})
	reg.Register(&placeBetTool{submitter: submitter, account: account})
	reg.Register(&walletAddressTool{account: account})
	return reg
}

type createMarketTool struct {
	submitter *market.Submitter
	account   *aptos.Account
}

func (t *createMarketTool) Name() string { return "create_prediction_market" }

func (t *createMarketTool) Description() string {
	return "Create a prediction market on Aptos blockchain"
}

func (t *createMarketTool) ParameterSchema() string {
	return `{"question": "string", "description": "string", "endTimestamp": "number (epoch seconds)"}`
}

func (t *createMarketTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	intent := market.MarketIntent{
		Question:     stringParam(params, "question"),
		Description:  stringParam(params, "description"),
		EndTimestamp: int64Param(params, "endTimestamp"),
	}
	hash, err := t.submitter.CreateMarket(ctx, t.account, intent)
	if err != nil {
		return toolFailure(err), nil
	}
	return toolSuccess(hash, fmt.Sprintf("Successfully created prediction market for: %q", intent.Question)), nil
}

type placeBetTool struct {
	submitter *market.Submitter
	account   *aptos.Account
}

func (t *placeBetTool) Name() string { return "place_bet" }

func (t *placeBetTool) Description() string {
	return "Place a bet on a prediction market on Aptos blockchain"
}

func (t *placeBetTool) ParameterSchema() string {
	return `{"marketId": "string", "betAmount": "number (APT)", "betOnYes": "boolean"}`
}

func (t *placeBetTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	betOnYes := true
	if v, ok := params["betOnYes"].(bool); ok {
		betOnYes = v
	}
	intent := market.BetIntent{
		MarketID:  stringParam(params, "marketId"),
		BetAmount: decimal.NewFromFloat(floatParam(params, "betAmount")),
		BetOnYes:  betOnYes,
	}
	hash, err := t.submitter.PlaceBet(ctx, t.account, intent)
	if err != nil {
		return toolFailure(err), nil
	}
	side := "NO"
	if intent.BetOnYes {
		side = "YES"
	}
	return toolSuccess(hash, fmt.Sprintf("Successfully placed bet of %s APT on %s for market %s",
		intent.BetAmount.String(), side, intent.MarketID)), nil
}

type walletAddressTool struct {
	account *aptos.Account
}

func (t *walletAddressTool) Name() string { return "get_wallet_address" }

func (t *walletAddressTool) Description() string {
	return "Get the wallet address of the current user"
}

func (t *walletAddressTool) ParameterSchema() string { return `{}` }

func (t *walletAddressTool) Execute(_ context.Context, _ map[string]any) (string, error) {
	return t.account.Address, nil
}

func toolSuccess(hash, message string) string {
	b, _ := json.Marshal(agent.ToolResult{Success: true, TransactionHash: hash, Message: message})
	return string(b)
}

func toolFailure(err error) string {
	b, _ := json.Marshal(agent.ToolResult{Success: false, Error: err.Error()})
	return string(b)
}

func stringParam(params map[string]any, key string) string {
	v, _ := params[key].(string)
	return v
}

func floatParam(params map[string]any, key string) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func int64Param(params map[string]any, key string) int64 {
	switch v := params[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case string:
		var n int64
		_, _ = fmt.Sscan(v, &n)
		return n
	default:
		return 0
	}
}

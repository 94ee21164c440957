package tools

import "context"

// Tool is an action the agent runtime may invoke on behalf of a user.
// Execute returns a JSON string observation; on-chain tools return
// {"success": bool, "transactionHash": "...", ...} per the tool contract.
type Tool interface {
	Name() string
	Description() string
	ParameterSchema() string
	Execute(ctx context.Context, params map[string]any) (string, error)
}

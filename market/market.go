package market

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Market mirrors the on-chain record returned by the
// prediction_market::get_all_markets_data view function.
type Market struct {
	ID             json.Number `json:"id"`
	Question       string      `json:"question"`
	Description    string      `json:"description"`
	EndTime        json.Number `json:"end_time"`
	Status         int         `json:"status"`
	Outcome        int         `json:"outcome"`
	TotalYesAmount json.Number `json:"total_yes_amount"`
	TotalNoAmount  json.Number `json:"total_no_amount"`
}

// MarketIntent is a parsed market-creation request. EndTimestamp is epoch
// seconds.
type MarketIntent struct {
	Question     string
	Description  string
	EndTimestamp int64
}

// BetIntent is a parsed bet-placement request. An empty MarketID means
// "resolve to the latest market". BetAmount is in APT.
type BetIntent struct {
	MarketID  string
	BetAmount decimal.Decimal
	BetOnYes  bool
}

var octasPerAPT = decimal.New(100_000_000, 0)

// Octas converts an APT amount to the chain's smallest unit, truncating
// fractional octas.
func Octas(amount decimal.Decimal) uint64 {
	floored := amount.Mul(octasPerAPT).Floor()
	if floored.IsNegative() {
		return 0
	}
	return uint64(floored.IntPart())
}

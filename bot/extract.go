package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HemangVora/LetsBet/agent"
	"github.com/HemangVora/LetsBet/market"
)

// ExtractionError means the LLM output did not contain recoverable
// structured data. It aborts the current request only.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return "extraction failed: " + e.Reason + ": " + e.Err.Error()
	}
	return "extraction failed: " + e.Reason
}

func (e *ExtractionError) Unwrap() error { return e.Err }

const marketExtractionPrompt = `Extract the prediction market information from this message: %q

I need:
1. The prediction question (what are people betting on)
2. A brief description of the market
3. When this prediction should resolve (end date)

Format your response EXACTLY like this JSON, with no other text:
{
  "question": "Will X happen by Y date?",
  "description": "Brief description here",
  "endTimestamp": 1234567890
}

If no end date is specified, use 3 months from now.`

const betExtractionPrompt = `Extract the bet placement information from this message: %q

I need:
1. The bet amount in APT
2. Whether the user is betting on "yes" or "no"
3. Any market ID mentioned (if none, assume it's the latest market)

Format your response EXACTLY like this JSON, with no other text:
{
  "betAmount": 0.5,
  "betOnYes": true,
  "marketId": "optional_market_id_if_mentioned"
}

If no market ID is specified, leave it as an empty string.
If no bet amount is specified, default to 0.1 APT.
If no yes/no preference is specified, default to "yes".`

type rawMarketDetails struct {
	Question     string `json:"question"`
	Description  string `json:"description"`
	EndTimestamp int64  `json:"endTimestamp"`
}

type rawBetDetails struct {
	BetAmount float64 `json:"betAmount"`
	BetOnYes  *bool   `json:"betOnYes"`
	MarketID  string  `json:"marketId"`
}

// Extractor turns free text into structured intents by prompting the agent
// runtime for strict JSON and recovering it from the response stream.
type Extractor struct {
	runtime *agent.Runtime
}

func NewExtractor(runtime *agent.Runtime) *Extractor {
	return &Extractor{runtime: runtime}
}

func (e *Extractor) ExtractMarket(ctx context.Context, text, userID string) (market.MarketIntent, error) {
	response, err := e.firstAgentText(ctx, fmt.Sprintf(marketExtractionPrompt, text), userID)
	if err != nil {
		return market.MarketIntent{}, err
	}
	jsonStr, err := recoverJSON(response)
	if err != nil {
		return market.MarketIntent{}, err
	}
	fields, err := objectFields(jsonStr)
	if err != nil {
		return market.MarketIntent{}, &ExtractionError{Reason: "malformed JSON", Err: err}
	}
	if isControlEnvelope(fields) {
		return market.MarketIntent{}, &ExtractionError{Reason: "response is a protocol envelope, not market details"}
	}
	var raw rawMarketDetails
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return market.MarketIntent{}, &ExtractionError{Reason: "malformed JSON", Err: err}
	}
	if strings.TrimSpace(raw.Question) == "" {
		return market.MarketIntent{}, &ExtractionError{Reason: "response has no question"}
	}
	intent := market.MarketIntent{
		Question:     raw.Question,
		Description:  raw.Description,
		EndTimestamp: raw.EndTimestamp,
	}
	if intent.EndTimestamp == 0 {
		intent.EndTimestamp = time.Now().AddDate(0, 3, 0).Unix()
	}
	return intent, nil
}

func (e *Extractor) ExtractBet(ctx context.Context, text, userID string) (market.BetIntent, error) {
	response, err := e.firstAgentText(ctx, fmt.Sprintf(betExtractionPrompt, text), userID)
	if err != nil {
		return market.BetIntent{}, err
	}
	jsonStr, err := recoverJSON(response)
	if err != nil {
		return market.BetIntent{}, err
	}
	fields, err := objectFields(jsonStr)
	if err != nil {
		return market.BetIntent{}, &ExtractionError{Reason: "malformed JSON", Err: err}
	}
	if isControlEnvelope(fields) {
		return market.BetIntent{}, &ExtractionError{Reason: "response is a protocol envelope, not bet details"}
	}
	if !hasAnyField(fields, "betAmount", "betOnYes", "marketId") {
		return market.BetIntent{}, &ExtractionError{Reason: "response has no bet fields"}
	}
	var raw rawBetDetails
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return market.BetIntent{}, &ExtractionError{Reason: "malformed JSON", Err: err}
	}
	intent := market.BetIntent{
		MarketID:  raw.MarketID,
		BetAmount: decimal.NewFromFloat(raw.BetAmount),
		BetOnYes:  true,
	}
	if raw.BetAmount == 0 {
		intent.BetAmount = decimal.NewFromFloat(0.1)
	}
	if raw.BetOnYes != nil {
		intent.BetOnYes = *raw.BetOnYes
	}
	return intent, nil
}

// firstAgentText drains the run stream until the first non-empty assistant
// text, then abandons the rest of the stream. Extraction runs carry no tool
// registry: without one the runtime never appends the tool-call protocol to
// the system prompt, so the strict-JSON extraction prompt stands alone.
func (e *Extractor) firstAgentText(ctx context.Context, prompt, userID string) (string, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for chunk := range e.runtime.Run(runCtx, prompt, nil, userID) {
		if chunk.Err != nil {
			return "", &ExtractionError{Reason: "agent run failed", Err: chunk.Err}
		}
		if chunk.Agent == nil {
			continue
		}
		for _, msg := range chunk.Agent.Messages {
			if text := msg.FirstText(); strings.TrimSpace(text) != "" {
				return text, nil
			}
		}
	}
	return "", &ExtractionError{Reason: "no response from agent"}
}

// objectFields decodes the top-level keys of the recovered object so that
// structurally wrong responses are rejected before any default fires.
func objectFields(jsonStr string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// isControlEnvelope reports whether the object is a tool-call/final protocol
// envelope rather than extracted details. A conversational follow-up like
// {"type": "final", "output": "which market?"} must abort the request, not
// decode into zero values.
func isControlEnvelope(fields map[string]json.RawMessage) bool {
	_, ok := fields["type"]
	return ok
}

func hasAnyField(fields map[string]json.RawMessage, names ...string) bool {
	for _, name := range names {
		if _, ok := fields[name]; ok {
			return true
		}
	}
	return false
}

// recoverJSON strips narration around the model's answer: first a fenced
// code block, then the first balanced {...} object.
func recoverJSON(response string) (string, error) {
	if s := agent.ExtractFromCodeBlock(response); s != "" && strings.HasPrefix(s, "{") {
		return s, nil
	}
	if s := agent.ExtractJSONObject(response); s != "" {
		return s, nil
	}
	return "", &ExtractionError{Reason: "no JSON found in response"}
}

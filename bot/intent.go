package bot

import (
	"regexp"
	"strings"
)

// Intent is the routing decision for an inbound message.
type Intent int

const (
	IntentConversation Intent = iota
	IntentCreateMarket
	IntentPlaceBet
)

func (i Intent) String() string {
	switch i {
	case IntentCreateMarket:
		return "create_market"
	case IntentPlaceBet:
		return "place_bet"
	default:
		return "conversation"
	}
}

var marketKeywords = []string{
	"bet",
	"wager",
	"prediction market",
	"create a market",
	"let's bet",
	"betting",
	"odds",
	"gamble",
	"predict",
	"prediction",
	"make a bet",
	"create a wager",
	"place a bet",
}

var betPhrases = []string{
	"place my bet",
	"place bet",
	"bet on",
	"i bet",
	"i want to bet",
	"put money on",
	"wager on",
	"stake on",
	"i'll take",
	"going with",
	"putting down",
	"placing",
	"betting on",
	"i'm in for",
	"i'd like to bet",
	"let me bet",
}

var (
	amountRe   = regexp.MustCompile(`\d+(\.\d+)?\s*(apt|aptos|coins|tokens)`)
	positionRe = regexp.MustCompile(`\b(yes|no|true|false|for|against)\b`)
)

// Classify maps free text to an intent. Bet placement takes precedence over
// market creation: its structural requirements (a bet phrase plus an amount,
// position, or market reference) make it the more specific match.
func Classify(text string) Intent {
	lower := strings.ToLower(text)
	if isBetPlacement(lower) {
		return IntentPlaceBet
	}
	if isMarketCreation(lower) {
		return IntentCreateMarket
	}
	return IntentConversation
}

func isMarketCreation(lower string) bool {
	for _, kw := range marketKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func isBetPlacement(lower string) bool {
	hasPhrase := false
	for _, phrase := range betPhrases {
		if strings.Contains(lower, phrase) {
			hasPhrase = true
			break
		}
	}
	if !hasPhrase {
		return false
	}
	return amountRe.MatchString(lower) ||
		positionRe.MatchString(lower) ||
		strings.Contains(lower, "market")
}

package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/HemangVora/LetsBet/aptos"
)

const (
	// DefaultModuleAddress hosts the prediction_market Move module on testnet.
	DefaultModuleAddress = "0x7b32fe02523c311724de5e267ee56b6cca31f2ee04f15bfc10dbf1b23f95c6cb"

	defaultPollInterval = 100 * time.Millisecond
	defaultPollTimeout  = 10 * time.Second
)

// ErrNoMarkets means the on-chain market list is empty.
var ErrNoMarkets = errors.New("no prediction markets found")

// SubmissionError wraps any failure while building, submitting, or
// confirming a transaction. Submissions are never retried.
type SubmissionError struct {
	Message string
}

func (e *SubmissionError) Error() string {
	return "submission failed: " + e.Message
}

func submissionErr(format string, args ...any) error {
	return &SubmissionError{Message: fmt.Sprintf(format, args...)}
}

// Submitter signs and submits prediction-market transactions and reads
// market state through the module's view functions.
type Submitter struct {
	client        *aptos.Client
	moduleAddress string
	pollInterval  time.Duration
	pollTimeout   time.Duration
	log           *slog.Logger
}

func NewSubmitter(client *aptos.Client, moduleAddress string, log *slog.Logger) *Submitter {
	if strings.TrimSpace(moduleAddress) == "" {
		moduleAddress = DefaultModuleAddress
	}
	if log == nil {
		log = slog.Default()
	}
	return &Submitter{
		client:        client,
		moduleAddress: moduleAddress,
		pollInterval:  defaultPollInterval,
		pollTimeout:   defaultPollTimeout,
		log:           log,
	}
}

func (s *Submitter) functionID(name string) string {
	return s.moduleAddress + "::prediction_market::" + name
}

// CreateMarket submits a create_market transaction and returns its hash.
func (s *Submitter) CreateMarket(ctx context.Context, signer *aptos.Account, intent MarketIntent) (string, error) {
	payload := aptos.NewEntryFunctionPayload(
		s.functionID("create_market"),
		intent.Question,
		intent.Description,
		strconv.FormatInt(intent.EndTimestamp, 10),
	)
	return s.submit(ctx, signer, payload)
}

// PlaceBet submits a place_bet transaction, converting the APT amount to
// octas, and returns its hash.
func (s *Submitter) PlaceBet(ctx context.Context, signer *aptos.Account, intent BetIntent) (string, error) {
	payload := aptos.NewEntryFunctionPayload(
		s.functionID("place_bet"),
		intent.MarketID,
		strconv.FormatUint(Octas(intent.BetAmount), 10),
		intent.BetOnYes,
	)
	return s.submit(ctx, signer, payload)
}

func (s *Submitter) submit(ctx context.Context, signer *aptos.Account, payload aptos.EntryFunctionPayload) (string, error) {
	hash, err := s.client.SignAndSubmit(ctx, signer, payload)
	if err != nil {
		return "", submissionErr("%s", err.Error())
	}
	s.log.Info("txn_submitted", "function", payload.Function, "hash", hash)
	if err := s.waitForTransaction(ctx, hash); err != nil {
		return "", err
	}
	return hash, nil
}

// waitForTransaction polls until the node reports the submitted hash.
// The poll is bounded: the original flow waited forever.
func (s *Submitter) waitForTransaction(ctx context.Context, hash string) error {
	deadline := time.Now().Add(s.pollTimeout)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		known, err := s.client.TransactionKnown(ctx, hash)
		if err != nil {
			return submissionErr("poll transaction %s: %s", hash, err.Error())
		}
		if known {
			return nil
		}
		if time.Now().After(deadline) {
			return submissionErr("transaction %s not visible after %s", hash, s.pollTimeout)
		}
		select {
		case <-ctx.Done():
			return submissionErr("poll transaction %s: %s", hash, ctx.Err().Error())
		case <-ticker.C:
		}
	}
}

// FetchAllMarkets reads every market from the on-chain view function.
func (s *Submitter) FetchAllMarkets(ctx context.Context) ([]Market, error) {
	values, err := s.client.View(ctx, s.functionID("get_all_markets_data"), nil, nil)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	var markets []Market
	if err := json.Unmarshal(values[0], &markets); err != nil {
		return nil, fmt.Errorf("decode markets: %w", err)
	}
	return markets, nil
}

// LatestMarket returns the market with the numerically highest id, or
// ErrNoMarkets when the chain has none.
func (s *Submitter) LatestMarket(ctx context.Context) (Market, error) {
	markets, err := s.FetchAllMarkets(ctx)
	if err != nil {
		return Market{}, err
	}
	return Latest(markets)
}

func Latest(markets []Market) (Market, error) {
	var (
		latest    Market
		highestID int64 = -1
	)
	for _, m := range markets {
		id, err := m.ID.Int64()
		if err != nil {
			continue
		}
		if id > highestID {
			highestID = id
			latest = m
		}
	}
	if highestID < 0 {
		return Market{}, ErrNoMarkets
	}
	return latest, nil
}

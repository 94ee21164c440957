package market

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HemangVora/LetsBet/aptos"
)

func newTestChain(t *testing.T, handler http.Handler) *aptos.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := aptos.NewClient(srv.URL)
	client.HTTP = srv.Client()
	return client
}

func newSigner(t *testing.T) *aptos.Account {
	t.Helper()
	account, err := aptos.GenerateAccount()
	if err != nil {
		t.Fatalf("generate account: %v", err)
	}
	return account
}

func happyNode(marketsJSON string, hashKnownAfter int) http.Handler {
	polls := 0
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/view":
			_, _ = w.Write([]byte(`[` + marketsJSON + `]`))
		case strings.HasPrefix(r.URL.Path, "/v1/accounts/"):
			_, _ = w.Write([]byte(`{"sequence_number": "7"}`))
		case r.URL.Path == "/v1/transactions/encode_submission":
			_, _ = w.Write([]byte(`"0x00ff"`))
		case r.URL.Path == "/v1/transactions":
			_, _ = w.Write([]byte(`{"hash": "0xabc123"}`))
		case strings.HasPrefix(r.URL.Path, "/v1/transactions/by_hash/"):
			polls++
			if polls <= hashKnownAfter {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(`{"type": "user_transaction"}`))
		default:
			http.NotFound(w, r)
		}
	})
}

func TestCreateMarketSubmitsAndConfirms(t *testing.T) {
	chain := newTestChain(t, happyNode("[]", 2))
	s := NewSubmitter(chain, "", nil)

	hash, err := s.CreateMarket(context.Background(), newSigner(t), MarketIntent{
		Question:     "Will it rain?",
		Description:  "Weather",
		EndTimestamp: 1767225600,
	})
	if err != nil {
		t.Fatalf("CreateMarket: %v", err)
	}
	if hash != "0xabc123" {
		t.Fatalf("hash = %q, want 0xabc123", hash)
	}
}

func TestPlaceBetConvertsToOctas(t *testing.T) {
	var submitted struct {
		Payload submittedPayload `json:"payload"`
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/v1/accounts/"):
			_, _ = w.Write([]byte(`{"sequence_number": "0"}`))
		case r.URL.Path == "/v1/transactions/encode_submission":
			_, _ = w.Write([]byte(`"0x00ff"`))
		case r.URL.Path == "/v1/transactions":
			_ = json.NewDecoder(r.Body).Decode(&submitted)
			_, _ = w.Write([]byte(`{"hash": "0xabc"}`))
		case strings.HasPrefix(r.URL.Path, "/v1/transactions/by_hash/"):
			_, _ = w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	})
	chain := newTestChain(t, handler)
	s := NewSubmitter(chain, "", nil)

	_, err := s.PlaceBet(context.Background(), newSigner(t), BetIntent{
		MarketID:  "3",
		BetAmount: decimal.NewFromFloat(0.5),
		BetOnYes:  true,
	})
	if err != nil {
		t.Fatalf("PlaceBet: %v", err)
	}
	args := submitted.Payload.Arguments
	if len(args) != 3 {
		t.Fatalf("expected 3 arguments, got %v", args)
	}
	if args[1] != "50000000" {
		t.Fatalf("0.5 APT should submit as 50000000 octas, got %v", args[1])
	}
	if !strings.HasSuffix(submitted.Payload.Function, "::prediction_market::place_bet") {
		t.Fatalf("unexpected function %q", submitted.Payload.Function)
	}
}

// submittedPayload mirrors the submitted payload for assertions.
type submittedPayload struct {
	Function  string `json:"function"`
	Arguments []any  `json:"arguments"`
}

func TestWaitForTransactionTimesOut(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/v1/accounts/"):
			_, _ = w.Write([]byte(`{"sequence_number": "0"}`))
		case r.URL.Path == "/v1/transactions/encode_submission":
			_, _ = w.Write([]byte(`"0x00ff"`))
		case r.URL.Path == "/v1/transactions":
			_, _ = w.Write([]byte(`{"hash": "0xabc"}`))
		default:
			// Hash never becomes visible.
			http.NotFound(w, r)
		}
	})
	chain := newTestChain(t, handler)
	s := NewSubmitter(chain, "", nil)
	s.pollInterval = 10 * time.Millisecond
	s.pollTimeout = 50 * time.Millisecond

	_, err := s.CreateMarket(context.Background(), newSigner(t), MarketIntent{Question: "q"})
	var subErr *SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("expected SubmissionError, got %v", err)
	}
	if !strings.Contains(subErr.Message, "not visible") {
		t.Fatalf("unexpected message %q", subErr.Message)
	}
}

func TestLatestPicksHighestID(t *testing.T) {
	markets := []Market{
		{ID: "2", Question: "two"},
		{ID: "10", Question: "ten"},
		{ID: "9", Question: "nine"},
	}
	latest, err := Latest(markets)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.Question != "ten" {
		t.Fatalf("latest = %q, want the market with id 10", latest.Question)
	}
}

func TestLatestEmpty(t *testing.T) {
	if _, err := Latest(nil); !errors.Is(err, ErrNoMarkets) {
		t.Fatalf("expected ErrNoMarkets, got %v", err)
	}
}

func TestFetchAllMarkets(t *testing.T) {
	chain := newTestChain(t, happyNode(`[{"id": "1", "question": "q1", "total_yes_amount": "100", "total_no_amount": "0"}]`, 0))
	s := NewSubmitter(chain, "", nil)

	markets, err := s.FetchAllMarkets(context.Background())
	if err != nil {
		t.Fatalf("FetchAllMarkets: %v", err)
	}
	if len(markets) != 1 || markets[0].Question != "q1" {
		t.Fatalf("unexpected markets %v", markets)
	}
}

func TestOctas(t *testing.T) {
	cases := []struct {
		apt  string
		want uint64
	}{
		{"0.5", 50_000_000},
		{"0.1", 10_000_000},
		{"1", 100_000_000},
		{"0.000000019", 1},
		{"0", 0},
	}
	for _, tc := range cases {
		amount, err := decimal.NewFromString(tc.apt)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.apt, err)
		}
		if got := Octas(amount); got != tc.want {
			t.Fatalf("Octas(%s) = %d, want %d", tc.apt, got, tc.want)
		}
	}
}

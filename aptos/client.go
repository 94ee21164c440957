package aptos

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	TestnetNodeURL = "https://fullnode.testnet.aptoslabs.com"
	MainnetNodeURL = "https://fullnode.mainnet.aptoslabs.com"

	defaultMaxGasAmount = 20000
	defaultGasUnitPrice = 100
	txnExpirySecs       = 600
)

// Client talks to an Aptos fullnode over its REST API. Transactions are
// signed locally: the node encodes the signing message via
// /transactions/encode_submission, the account signs it, and the signed
// payload goes back as JSON.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(nodeURL string) *Client {
	if strings.TrimSpace(nodeURL) == "" {
		nodeURL = TestnetNodeURL
	}
	return &Client{
		BaseURL: strings.TrimRight(nodeURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

type EntryFunctionPayload struct {
	Type          string   `json:"type"`
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []any    `json:"arguments"`
}

func NewEntryFunctionPayload(function string, args ...any) EntryFunctionPayload {
	if args == nil {
		args = []any{}
	}
	return EntryFunctionPayload{
		Type:          "entry_function_payload",
		Function:      function,
		TypeArguments: []string{},
		Arguments:     args,
	}
}

type rawTransaction struct {
	Sender                  string               `json:"sender"`
	SequenceNumber          string               `json:"sequence_number"`
	MaxGasAmount            string               `json:"max_gas_amount"`
	GasUnitPrice            string               `json:"gas_unit_price"`
	ExpirationTimestampSecs string               `json:"expiration_timestamp_secs"`
	Payload                 EntryFunctionPayload `json:"payload"`
}

type transactionSignature struct {
	Type      string `json:"type"`
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
}

type signedTransaction struct {
	rawTransaction
	Signature transactionSignature `json:"signature"`
}

type PendingTransaction struct {
	Hash string `json:"hash"`
}

type accountResource struct {
	SequenceNumber string `json:"sequence_number"`
}

type nodeError struct {
	Message   string `json:"message"`
	ErrorCode string `json:"error_code"`
}

func (c *Client) get(ctx context.Context, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return 0, nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, raw, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (int, []byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, raw, nil
}

func nodeErrorFrom(status int, raw []byte) error {
	var ne nodeError
	if json.Unmarshal(raw, &ne) == nil && ne.Message != "" {
		return fmt.Errorf("aptos http %d: %s", status, ne.Message)
	}
	return fmt.Errorf("aptos http %d: %s", status, strings.TrimSpace(string(raw)))
}

// View calls a read-only view function and returns the raw JSON values.
func (c *Client) View(ctx context.Context, function string, typeArgs []string, args []any) ([]json.RawMessage, error) {
	if typeArgs == nil {
		typeArgs = []string{}
	}
	if args == nil {
		args = []any{}
	}
	status, raw, err := c.post(ctx, "/v1/view", map[string]any{
		"function":       function,
		"type_arguments": typeArgs,
		"arguments":      args,
	})
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, nodeErrorFrom(status, raw)
	}
	var out []json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("aptos view: %w", err)
	}
	return out, nil
}

func (c *Client) SequenceNumber(ctx context.Context, address string) (uint64, error) {
	status, raw, err := c.get(ctx, "/v1/accounts/"+address)
	if err != nil {
		return 0, err
	}
	if status < 200 || status >= 300 {
		return 0, nodeErrorFrom(status, raw)
	}
	var out accountResource
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, err
	}
	return strconv.ParseUint(out.SequenceNumber, 10, 64)
}

// SignAndSubmit builds, signs, and submits an entry-function transaction,
// returning the pending transaction hash.
func (c *Client) SignAndSubmit(ctx context.Context, signer *Account, payload EntryFunctionPayload) (string, error) {
	seq, err := c.SequenceNumber(ctx, signer.Address)
	if err != nil {
		return "", fmt.Errorf("fetch sequence number: %w", err)
	}

	tx := rawTransaction{
		Sender:                  signer.Address,
		SequenceNumber:          strconv.FormatUint(seq, 10),
		MaxGasAmount:            strconv.Itoa(defaultMaxGasAmount),
		GasUnitPrice:            strconv.Itoa(defaultGasUnitPrice),
		ExpirationTimestampSecs: strconv.FormatInt(time.Now().Unix()+txnExpirySecs, 10),
		Payload:                 payload,
	}

	status, raw, err := c.post(ctx, "/v1/transactions/encode_submission", tx)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", nodeErrorFrom(status, raw)
	}
	var signingMessageHex string
	if err := json.Unmarshal(raw, &signingMessageHex); err != nil {
		return "", fmt.Errorf("aptos encode_submission: %w", err)
	}
	signingMessage, err := hex.DecodeString(strings.TrimPrefix(signingMessageHex, "0x"))
	if err != nil {
		return "", fmt.Errorf("aptos encode_submission: %w", err)
	}

	signed := signedTransaction{
		rawTransaction: tx,
		Signature: transactionSignature{
			Type:      "ed25519_signature",
			PublicKey: signer.PublicKeyHex(),
			Signature: "0x" + hex.EncodeToString(signer.Sign(signingMessage)),
		},
	}
	status, raw, err = c.post(ctx, "/v1/transactions", signed)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", nodeErrorFrom(status, raw)
	}
	var pending PendingTransaction
	if err := json.Unmarshal(raw, &pending); err != nil {
		return "", fmt.Errorf("aptos submit: %w", err)
	}
	if pending.Hash == "" {
		return "", fmt.Errorf("aptos submit: missing transaction hash")
	}
	return pending.Hash, nil
}

// TransactionKnown reports whether the node has seen the transaction
// (pending or committed).
func (c *Client) TransactionKnown(ctx context.Context, hash string) (bool, error) {
	status, raw, err := c.get(ctx, "/v1/transactions/by_hash/"+hash)
	if err != nil {
		return false, err
	}
	switch {
	case status == http.StatusNotFound:
		return false, nil
	case status < 200 || status >= 300:
		return false, nodeErrorFrom(status, raw)
	default:
		return true, nil
	}
}

// Transfer moves octas from the signer to a recipient via
// 0x1::aptos_account::transfer.
func (c *Client) Transfer(ctx context.Context, from *Account, to string, octas uint64) (string, error) {
	payload := NewEntryFunctionPayload(
		"0x1::aptos_account::transfer",
		to,
		strconv.FormatUint(octas, 10),
	)
	return c.SignAndSubmit(ctx, from, payload)
}

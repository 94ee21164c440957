package aptos

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

var privateKeyHexRe = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// Account is an ed25519 keypair plus its derived on-chain address
// (single-signer authentication scheme).
type Account struct {
	priv    ed25519.PrivateKey
	Address string
}

func GenerateAccount() (*Account, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return newAccount(priv), nil
}

// AccountFromPrivateKeyHex reconstructs an account from a 64-character hex
// seed, with or without a 0x prefix.
func AccountFromPrivateKeyHex(s string) (*Account, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if !privateKeyHexRe.MatchString(s) {
		return nil, fmt.Errorf("invalid private key: want 64 hex characters")
	}
	seed, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return newAccount(ed25519.NewKeyFromSeed(seed)), nil
}

func newAccount(priv ed25519.PrivateKey) *Account {
	return &Account{priv: priv, Address: deriveAddress(priv.Public().(ed25519.PublicKey))}
}

// deriveAddress computes the authentication key: sha3-256 of the public key
// followed by the single-signature scheme byte 0x00.
func deriveAddress(pub ed25519.PublicKey) string {
	h := sha3.New256()
	h.Write(pub)
	h.Write([]byte{0x00})
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

func (a *Account) PublicKeyHex() string {
	return "0x" + hex.EncodeToString(a.priv.Public().(ed25519.PublicKey))
}

func (a *Account) PrivateKeyHex() string {
	return hex.EncodeToString(a.priv.Seed())
}

func (a *Account) Sign(message []byte) []byte {
	return ed25519.Sign(a.priv, message)
}

func IsValidPrivateKeyHex(s string) bool {
	return privateKeyHexRe.MatchString(strings.TrimSpace(s))
}

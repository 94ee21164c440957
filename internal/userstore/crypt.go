package userstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// Cipher encrypts private keys at rest with AES-256-GCM. The stored form is
// hex(nonce || ciphertext).
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher takes a 64-character hex key (32 bytes).
func NewCipher(keyHex string) (*Cipher, error) {
	key, err := hex.DecodeString(strings.TrimSpace(keyHex))
	if err != nil {
		return nil, fmt.Errorf("wallet encryption key is not hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("wallet encryption key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

func (c *Cipher) Encrypt(plain string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plain), nil)
	return hex.EncodeToString(sealed), nil
}

func (c *Cipher) Decrypt(stored string) (string, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(stored))
	if err != nil {
		return "", fmt.Errorf("stored key is not hex: %w", err)
	}
	if len(raw) < c.aead.NonceSize() {
		return "", fmt.Errorf("stored key too short")
	}
	nonce, ciphertext := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plain), nil
}

package userstore

import (
	"strings"
	"testing"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestCipherRoundTrip(t *testing.T) {
	c, err := NewCipher(testKeyHex)
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	plain := "c0ffee0000000000000000000000000000000000000000000000000000000000"
	sealed, err := c.Encrypt(plain)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if sealed == plain || strings.Contains(sealed, plain) {
		t.Fatalf("ciphertext must not contain the plaintext")
	}
	got, err := c.Decrypt(sealed)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if got != plain {
		t.Fatalf("round trip mismatch: %q", got)
	}
}

func TestCipherNonceVaries(t *testing.T) {
	c, err := NewCipher(testKeyHex)
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	a, _ := c.Encrypt("same input")
	b, _ := c.Encrypt("same input")
	if a == b {
		t.Fatalf("two encryptions of the same input should differ")
	}
}

func TestCipherRejectsBadKey(t *testing.T) {
	if _, err := NewCipher("abcd"); err == nil {
		t.Fatalf("short key should be rejected")
	}
	if _, err := NewCipher("zz0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1eff"); err == nil {
		t.Fatalf("non-hex key should be rejected")
	}
}

func TestCipherRejectsTamperedCiphertext(t *testing.T) {
	c, err := NewCipher(testKeyHex)
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	sealed, err := c.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	tampered := []byte(sealed)
	last := tampered[len(tampered)-1]
	if last == 'a' {
		tampered[len(tampered)-1] = 'b'
	} else {
		tampered[len(tampered)-1] = 'a'
	}
	if _, err := c.Decrypt(string(tampered)); err == nil {
		t.Fatalf("tampered ciphertext should fail authentication")
	}
}

package employee

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jalh2/healthyubackend/internal/apperror"
)

const testKey = "0123456789abcdef0123456789abcdef"

func newTestCipher(t *testing.T) *Cipher {
	t.Helper()
	c, err := NewCipher(testKey)
	if err != nil {
		t.Fatalf("Failed to create cipher: %v", err)
	}
	return c
}

func TestNewCipher_KeyLength(t *testing.T) {
	for _, key := range []string{"", "short", testKey + "x"} {
		_, err := NewCipher(key)
		if !apperror.Is(err, apperror.KindConfig) {
			t.Errorf("Expected config error for key of length %d, got: %v", len(key), err)
		}
	}
}

func TestCipher_RoundTrip(t *testing.T) {
	c := newTestCipher(t)

	for _, plain := range []string{"a", "cashier-pass", "exactly16bytes!!", strings.Repeat("long", 20)} {
		stored, err := c.Encrypt(plain)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		got, err := c.Decrypt(stored)
		if err != nil {
			t.Fatalf("Expected no error decrypting %q, got: %v", plain, err)
		}
		if got != plain {
			t.Errorf("Expected %q, got %q", plain, got)
		}
	}
}

func TestCipher_Format(t *testing.T) {
	c := newTestCipher(t)
	c.rand = bytes.NewReader(make([]byte, 16))

	stored, err := c.Encrypt("secret")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	iv, data, ok := strings.Cut(stored, ":")
	if !ok {
		t.Fatalf("Expected iv:ciphertext, got %q", stored)
	}
	if iv != strings.Repeat("00", 16) {
		t.Errorf("Expected hex encoded iv, got %q", iv)
	}
	// one block for a 6 byte password
	if len(data) != 32 {
		t.Errorf("Expected 32 hex chars of ciphertext, got %d", len(data))
	}
}

func TestCipher_FreshIVPerEncryption(t *testing.T) {
	c := newTestCipher(t)

	a, _ := c.Encrypt("same")
	b, _ := c.Encrypt("same")
	if a == b {
		t.Error("Expected different ciphertexts for the same plaintext")
	}
}

func TestCipher_DecryptMalformed(t *testing.T) {
	c := newTestCipher(t)
	valid, _ := c.Encrypt("secret")
	iv, data, _ := strings.Cut(valid, ":")

	testCases := []struct {
		name   string
		stored string
	}{
		{"No separator", iv + data},
		{"Bad iv hex", "zz" + iv[2:] + ":" + data},
		{"Short iv", iv[:8] + ":" + data},
		{"Bad data hex", iv + ":" + "xyz"},
		{"Empty data", iv + ":"},
		{"Partial block", iv + ":" + data[:10]},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := c.Decrypt(tc.stored); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestCipher_WrongKey(t *testing.T) {
	stored, _ := newTestCipher(t).Encrypt("secret")

	other, err := NewCipher("fedcba9876543210fedcba9876543210")
	if err != nil {
		t.Fatalf("Failed to create cipher: %v", err)
	}
	if got, err := other.Decrypt(stored); err == nil && got == "secret" {
		t.Error("Expected a different key not to recover the password")
	}
}

package secrets

import (
	"errors"
	"testing"
)

func TestKeeperRoundTrip(t *testing.T) {
	encoded, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	keeper, err := NewKeeper(encoded)
	if err != nil {
		t.Fatalf("NewKeeper failed: %v", err)
	}

	token, err := keeper.Encrypt("api-key-value")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if token == "api-key-value" {
		t.Fatal("token equals the plaintext")
	}

	plaintext, err := keeper.Decrypt(token)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if plaintext != "api-key-value" {
		t.Errorf("Decrypt = %q, want the original plaintext", plaintext)
	}
}

func TestKeeperRejectsForeignToken(t *testing.T) {
	first, _ := GenerateKey()
	second, _ := GenerateKey()
	keeperA, err := NewKeeper(first)
	if err != nil {
		t.Fatalf("NewKeeper failed: %v", err)
	}
	keeperB, err := NewKeeper(second)
	if err != nil {
		t.Fatalf("NewKeeper failed: %v", err)
	}

	token, err := keeperA.Encrypt("value")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if _, err := keeperB.Decrypt(token); !errors.Is(err, ErrDecryptFailed) {
		t.Errorf("Decrypt with the wrong key error = %v, want ErrDecryptFailed", err)
	}
}

func TestNewKeeperRejectsMalformedKey(t *testing.T) {
	if _, err := NewKeeper("not-a-key"); err == nil {
		t.Error("NewKeeper accepted a malformed key")
	}
}

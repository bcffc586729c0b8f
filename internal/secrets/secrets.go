// Package secrets encrypts provider API keys before they reach the settings
// table, so a copied database file does not leak credentials.
package secrets

import (
	"errors"
	"fmt"

	"github.com/fernet/fernet-go"
)

// ErrDecryptFailed indicates a token that does not verify against the
// configured key, typically because the key was rotated.
var ErrDecryptFailed = errors.New("failed to decrypt secret")

// Keeper encrypts and decrypts short secret strings using a fernet key.
type Keeper struct {
	key *fernet.Key
}

// NewKeeper creates a Keeper from a base64-encoded 32-byte fernet key.
func NewKeeper(encodedKey string) (*Keeper, error) {
	key, err := fernet.DecodeKey(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode secret key: %w", err)
	}
	return &Keeper{key: key}, nil
}

// GenerateKey produces a new random key in the encoding NewKeeper accepts.
func GenerateKey() (string, error) {
	var key fernet.Key
	if err := key.Generate(); err != nil {
		return "", fmt.Errorf("failed to generate secret key: %w", err)
	}
	return key.Encode(), nil
}

// Encrypt seals a plaintext secret into a fernet token.
func (k *Keeper) Encrypt(plaintext string) (string, error) {
	token, err := fernet.EncryptAndSign([]byte(plaintext), k.key)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt secret: %w", err)
	}
	return string(token), nil
}

// Decrypt opens a fernet token. Tokens do not expire; a stored API key stays
// valid until replaced.
func (k *Keeper) Decrypt(token string) (string, error) {
	plaintext := fernet.VerifyAndDecrypt([]byte(token), 0, []*fernet.Key{k.key})
	if plaintext == nil {
		return "", ErrDecryptFailed
	}
	return string(plaintext), nil
}

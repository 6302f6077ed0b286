package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// TextEncryptor reversibly encrypts token material before it reaches the
// backing store. Implementations must return the original plaintext from
// Decrypt(Encrypt(s)).
type TextEncryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// ErrDecrypt is returned when a ciphertext cannot be authenticated or parsed.
var ErrDecrypt = errors.New("cannot decrypt ciphertext")

// NoOpEncryptor passes values through unchanged. For development and tests
// only.
type NoOpEncryptor struct{}

func (NoOpEncryptor) Encrypt(plaintext string) (string, error) { return plaintext, nil }

func (NoOpEncryptor) Decrypt(ciphertext string) (string, error) { return ciphertext, nil }

const (
	keyIterations = 10000
	keyLength     = 32 // AES-256
)

// AESEncryptor encrypts with AES-256-GCM under a key derived from a password
// and salt via PBKDF2. Ciphertexts are base64 of nonce||sealed.
type AESEncryptor struct {
	aead cipher.AEAD
}

var _ TextEncryptor = (*AESEncryptor)(nil)

// NewAESEncryptor derives the encryption key and prepares the cipher.
func NewAESEncryptor(password, salt string) (*AESEncryptor, error) {
	if password == "" || salt == "" {
		return nil, errors.New("encryption password and salt are required")
	}
	key := pbkdf2.Key([]byte(password), []byte(salt), keyIterations, keyLength, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &AESEncryptor{aead: aead}, nil
}

func (e *AESEncryptor) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (e *AESEncryptor) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if len(raw) < e.aead.NonceSize() {
		return "", ErrDecrypt
	}
	nonce, sealed := raw[:e.aead.NonceSize()], raw[e.aead.NonceSize():]
	plaintext, err := e.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return string(plaintext), nil
}

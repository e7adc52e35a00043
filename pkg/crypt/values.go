// Package crypt encrypts settings values before they hit the database.
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SizeOfKey   int = 32
	SizeOfNonce int = 12
	Iterations  int = 4096
)

var keySalt = []byte("smsvault.settings.v1")

type Crypter struct {
	key []byte
}

func New(secret string) *Crypter {
	key := pbkdf2.Key([]byte(secret), keySalt, Iterations, SizeOfKey, sha256.New)
	return &Crypter{key: key}
}

// Encrypt seals a value with AES-GCM and encodes it as
// base64(nonce).base64(ciphertext).
func (c *Crypter) Encrypt(value string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("creating AES cipher: %w", err)
	}

	nonce := make([]byte, SizeOfNonce)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("creating AES nonce: %w", err)
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("creating GCM cipher: %w", err)
	}

	ciphertext := aesgcm.Seal(nil, nonce, []byte(value), nil)
	sb := strings.Builder{}
	sb.WriteString(base64.StdEncoding.EncodeToString(nonce))
	sb.WriteRune('.')
	sb.WriteString(base64.StdEncoding.EncodeToString(ciphertext))

	return sb.String(), nil
}

// Decrypt reverses Encrypt. Any tampering or key mismatch returns an error;
// callers treat that as "value absent" rather than fatal.
func (c *Crypter) Decrypt(encrypted string) (string, error) {
	parts := strings.Split(encrypted, ".")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid encrypted value")
	}

	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("decoding nonce: %w", err)
	}
	if len(nonce) != SizeOfNonce {
		return "", fmt.Errorf("invalid nonce length %d", len(nonce))
	}

	ciphertext, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("decoding ciphertext: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("creating AES cipher: %w", err)
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("creating GCM cipher: %w", err)
	}

	value, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decrypting value: %w", err)
	}
	return string(value), nil
}

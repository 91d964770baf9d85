// Package secretbox encrypts service auth tokens at rest with a key derived
// from the process-wide encryption key.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"

	"github.com/dwizi/review-vir/internal/reviewerr"
)

const (
	saltSize = 16
	keySize  = 32
	info     = "review-vir service auth token"
)

// Seal encrypts plaintext and returns base64(salt || nonce || ciphertext).
func Seal(secretKey string, plaintext []byte) (string, error) {
	if strings.TrimSpace(secretKey) == "" {
		return "", reviewerr.ErrMissingEncryptionKey
	}
	salt, err := randomBytes(saltSize)
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	aead, err := newAEAD(secretKey, salt)
	if err != nil {
		return "", err
	}
	nonce, err := randomBytes(aead.NonceSize())
	if err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	out := make([]byte, 0, saltSize+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, plaintext, salt)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Open reverses Seal. A wrong key or a tampered payload yields
// reviewerr.ErrDecrypt.
func Open(secretKey, sealed string) ([]byte, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, reviewerr.ErrMissingEncryptionKey
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(sealed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", reviewerr.ErrDecrypt, err)
	}
	if len(raw) < saltSize {
		return nil, fmt.Errorf("%w: payload too short", reviewerr.ErrDecrypt)
	}
	salt := raw[:saltSize]
	aead, err := newAEAD(secretKey, salt)
	if err != nil {
		return nil, err
	}
	rest := raw[saltSize:]
	if len(rest) < aead.NonceSize()+aead.Overhead() {
		return nil, fmt.Errorf("%w: payload too short", reviewerr.ErrDecrypt)
	}
	nonce, ciphertext := rest[:aead.NonceSize()], rest[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, salt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", reviewerr.ErrDecrypt, err)
	}
	return plaintext, nil
}

func newAEAD(secretKey string, salt []byte) (cipher.AEAD, error) {
	derived := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secretKey), salt, []byte(info)), derived); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return aead, nil
}

func randomBytes(n int) ([]byte, error) {
	out := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Package util holds helpers shared by the server and the CLI.
package util

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

var (
	ErrEmptySecret     = errors.New("util: secret is empty")
	ErrShortCiphertext = errors.New("util: ciphertext too short")
)

const (
	hashScheme     = "pbkdf2-sha256"
	hashIterations = 100_000
	saltLen        = 16
	derivedLen     = 32
)

var b64 = base64.RawStdEncoding

// HashPassword derives a salted PBKDF2-SHA256 hash of a local secret such as
// the unlock PIN, encoded as "pbkdf2-sha256$<iterations>$<salt>$<hash>".
// Server account passwords use bcrypt instead.
func HashPassword(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	sum := pbkdf2.Key([]byte(secret), salt, hashIterations, derivedLen, sha256.New)
	return strings.Join([]string{
		hashScheme,
		strconv.Itoa(hashIterations),
		b64.EncodeToString(salt),
		b64.EncodeToString(sum),
	}, "$"), nil
}

// CheckPassword reports whether secret matches an encoded HashPassword result.
// Malformed input never matches.
func CheckPassword(secret, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if secret == "" || len(parts) != 4 || parts[0] != hashScheme {
		return false
	}
	iter, err := strconv.Atoi(parts[1])
	if err != nil || iter <= 0 {
		return false
	}
	salt, err := b64.DecodeString(parts[2])
	if err != nil {
		return false
	}
	want, err := b64.DecodeString(parts[3])
	if err != nil || len(want) == 0 {
		return false
	}
	got := pbkdf2.Key([]byte(secret), salt, iter, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// ---------- AES-256-GCM ----------

// newAEAD keys AES-256-GCM with the SHA-256 digest of key, so any
// configured string works.
func newAEAD(key string) (cipher.AEAD, error) {
	sum := sha256.Sum256([]byte(key))
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// EncryptAES seals plaintext and returns nonce || ciphertext.
func EncryptAES(key string, plaintext []byte) ([]byte, error) {
	gcm, err := newAEAD(key)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize(), gcm.NonceSize()+len(plaintext)+gcm.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// DecryptAES opens data produced by EncryptAES.
func DecryptAES(key string, data []byte) ([]byte, error) {
	gcm, err := newAEAD(key)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	n := gcm.NonceSize()
	if len(data) < n+gcm.Overhead() {
		return nil, ErrShortCiphertext
	}
	plain, err := gcm.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plain, nil
}

// EncryptString is EncryptAES with standard base64 output, for text columns.
func EncryptString(key string, plaintext []byte) (string, error) {
	sealed, err := EncryptAES(key, plaintext)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptString reverses EncryptString.
func DecryptString(key, encoded string) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return DecryptAES(key, sealed)
}

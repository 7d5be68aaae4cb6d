package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize     = 32
	KeySize      = 32
	NonceSize    = 12
	TagSize      = 16
	DefaultIters = 210000
	MinIters     = 10000
)

var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrAuthFailed        = errors.New("authentication failed")
	ErrWeakParameters    = errors.New("kdf parameters below minimum")
)

// Sealed is a password-encrypted secret together with its KDF parameters
type Sealed struct {
	Salt       []byte `json:"salt"`
	Iterations int    `json:"iterations"`
	Ciphertext []byte `json:"ciphertext"`
}

func deriveKey(password, salt []byte, iterations int) []byte {
	return pbkdf2.Key(password, salt, iterations, KeySize, sha256.New)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// Seal encrypts secret under password. ad is authenticated but not stored;
// the same ad must be passed to Open.
func Seal(password, secret, ad []byte) (*Sealed, error) {
	return sealWith(password, secret, ad, DefaultIters)
}

func sealWith(password, secret, ad []byte, iterations int) (*Sealed, error) {
	salt, err := GenerateRandom(SaltSize)
	if err != nil {
		return nil, err
	}
	key := deriveKey(password, salt, iterations)
	defer ClearBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce, err := GenerateRandom(NonceSize)
	if err != nil {
		return nil, err
	}

	out := make([]byte, NonceSize, NonceSize+len(secret)+TagSize)
	copy(out, nonce)
	out = gcm.Seal(out, nonce, secret, ad)

	return &Sealed{Salt: salt, Iterations: iterations, Ciphertext: out}, nil
}

// Open decrypts s with password. A wrong password or tampered data yields
// ErrAuthFailed.
func Open(password []byte, s *Sealed, ad []byte) ([]byte, error) {
	if s.Iterations < MinIters {
		return nil, fmt.Errorf("%w: %d iterations", ErrWeakParameters, s.Iterations)
	}
	if len(s.Salt) != SaltSize || len(s.Ciphertext) < NonceSize+TagSize {
		return nil, ErrInvalidCiphertext
	}

	key := deriveKey(password, s.Salt, s.Iterations)
	defer ClearBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce, body := s.Ciphertext[:NonceSize], s.Ciphertext[NonceSize:]
	plaintext, err := gcm.Open(nil, nonce, body, ad)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

// ClearBytes zeroes b
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare reports whether a and b are equal without leaking timing
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom returns n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}

package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/mr-tron/base58/base58"
)

// Size is the length of an identity in bytes
const Size = 32

var ErrInvalidIdentity = errors.New("invalid identity")

// Identity is a 32-byte public identifier
type Identity [Size]byte

// Zero is the empty identity
var Zero Identity

// Parse decodes a base58 identity
func Parse(s string) (Identity, error) {
	var id Identity
	raw, err := base58.Decode(s)
	if err != nil {
		return id, fmt.Errorf("%w: %s: %v", ErrInvalidIdentity, s, err)
	}
	if len(raw) != Size {
		return id, fmt.Errorf("%w: %s decodes to %d bytes", ErrInvalidIdentity, s, len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

func (id Identity) String() string {
	return base58.Encode(id[:])
}

// Short returns an abbreviated form for log lines
func (id Identity) Short() string {
	s := id.String()
	if len(s) <= 10 {
		return s
	}
	return s[:4] + ".." + s[len(s)-4:]
}

func (id Identity) IsZero() bool {
	return id == Zero
}

func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Signer is anything able to authorize a ledger debit for an address.
type Signer interface {
	Address() Identity
}

// Keypair is an ed25519 signing key
type Keypair struct {
	private ed25519.PrivateKey
}

// Generate creates a random keypair
func Generate() (*Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}
	return &Keypair{private: priv}, nil
}

// FromSeed rebuilds a keypair from its 32-byte seed
func FromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid seed size: %d", len(seed))
	}
	return &Keypair{private: ed25519.NewKeyFromSeed(seed)}, nil
}

// Address returns the public identity of the keypair
func (k *Keypair) Address() Identity {
	var id Identity
	copy(id[:], k.private.Public().(ed25519.PublicKey))
	return id
}

// Seed returns a copy of the private seed. The caller should clear it after use.
func (k *Keypair) Seed() []byte {
	return append([]byte(nil), k.private.Seed()...)
}

// Destroy zeroes the private key
func (k *Keypair) Destroy() {
	for i := range k.private {
		k.private[i] = 0
	}
}

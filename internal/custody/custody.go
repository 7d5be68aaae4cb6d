package custody

import (
	"errors"
	"fmt"

	"github.com/illarion/timelock/internal/identity"
	"go.dedis.ch/kyber/v3/group/edwards25519"
	"golang.org/x/crypto/blake2b"
)

const (
	MaxSeeds   = 16
	MaxSeedLen = 32
	domain     = "timelock/derived-address/v1"
)

// Seed tags
var (
	VaultTag          = []byte("vault")
	AdminSettingsTag  = []byte("admin_settings")
	SupportedAssetTag = []byte("supported_asset")
)

var (
	ErrOnCurve         = errors.New("derived address lies on the ed25519 curve")
	ErrNoBump          = errors.New("no viable bump seed")
	ErrInvalidSeeds    = errors.New("invalid seeds")
	ErrBumpMismatch    = errors.New("bump does not match derived address")
	ErrAddressMismatch = errors.New("address does not match derivation")
)

var suite = edwards25519.NewBlakeSHA256Ed25519()

func hashSeeds(seeds [][]byte, bump uint8) (identity.Identity, error) {
	if len(seeds) > MaxSeeds {
		return identity.Zero, fmt.Errorf("%w: %d seeds, max %d", ErrInvalidSeeds, len(seeds), MaxSeeds)
	}
	h, err := blake2b.New256(nil)
	if err != nil {
		return identity.Zero, err
	}
	h.Write([]byte(domain))
	for _, s := range seeds {
		if len(s) > MaxSeedLen {
			return identity.Zero, fmt.Errorf("%w: seed of %d bytes, max %d", ErrInvalidSeeds, len(s), MaxSeedLen)
		}
		h.Write([]byte{byte(len(s))})
		h.Write(s)
	}
	h.Write([]byte{bump})

	var out identity.Identity
	copy(out[:], h.Sum(nil))
	return out, nil
}

// IsOnCurve reports whether b decodes as an ed25519 point
func IsOnCurve(id identity.Identity) bool {
	return suite.Point().UnmarshalBinary(id[:]) == nil
}

// CreateAddress computes the address for seeds and an explicit bump.
// It fails with ErrOnCurve when the hash is a usable public key.
func CreateAddress(seeds [][]byte, bump uint8) (identity.Identity, error) {
	addr, err := hashSeeds(seeds, bump)
	if err != nil {
		return identity.Zero, err
	}
	if IsOnCurve(addr) {
		return identity.Zero, ErrOnCurve
	}
	return addr, nil
}

// FindAddress returns the first off-curve address for seeds, searching the
// bump from 255 downward, along with the bump that produced it.
func FindAddress(seeds ...[]byte) (identity.Identity, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		addr, err := CreateAddress(seeds, uint8(bump))
		if errors.Is(err, ErrOnCurve) {
			continue
		}
		if err != nil {
			return identity.Zero, 0, err
		}
		return addr, uint8(bump), nil
	}
	return identity.Zero, 0, ErrNoBump
}

// Authority is the derived signer for one (owner, asset) vault
type Authority struct {
	Owner   identity.Identity
	Asset   identity.Identity
	Bump    uint8
	address identity.Identity
}

// Derive computes the authority for owner and asset
func Derive(owner, asset identity.Identity) (*Authority, error) {
	addr, bump, err := FindAddress(VaultTag, owner[:], asset[:])
	if err != nil {
		return nil, fmt.Errorf("failed to derive custody authority: %w", err)
	}
	return &Authority{Owner: owner, Asset: asset, Bump: bump, address: addr}, nil
}

// Rebuild recreates the authority from a stored bump, failing when the bump
// is not the canonical one for owner and asset.
func Rebuild(owner, asset identity.Identity, bump uint8) (*Authority, error) {
	a, err := Derive(owner, asset)
	if err != nil {
		return nil, err
	}
	if a.Bump != bump {
		return nil, fmt.Errorf("%w: stored %d, derived %d", ErrBumpMismatch, bump, a.Bump)
	}
	return a, nil
}

// Address implements identity.Signer
func (a *Authority) Address() identity.Identity {
	return a.address
}

// Controls reports whether addr is the address this authority signs for
func (a *Authority) Controls(addr identity.Identity) bool {
	return a.address == addr
}

func (a *Authority) String() string {
	return fmt.Sprintf("%s (bump %d)", a.address, a.Bump)
}

// Check fails with ErrAddressMismatch unless controller is this authority's address
func (a *Authority) Check(controller identity.Identity) error {
	if !a.Controls(controller) {
		return fmt.Errorf("%w: controller %s, authority %s", ErrAddressMismatch, controller, a.address)
	}
	return nil
}

package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/illarion/timelock/internal/identity"
)

// Encoded record sizes
const (
	AdminSettingsSize  = 32 + 8 + 1
	SupportedAssetSize = 32 + 1
	VaultSize          = 32 + 32 + 8 + 8 + 8 + 1 + 32
	AccountSize        = 32 + 32 + 32 + 8
)

var ErrRecordSize = errors.New("unexpected record size")

var le = binary.LittleEndian

// AdminSettings is the configuration singleton
type AdminSettings struct {
	Admin               identity.Identity
	DefaultLockDuration uint64 // seconds
	Bump                uint8
}

// SupportedAsset marks an asset as eligible for locking
type SupportedAsset struct {
	AssetID identity.Identity
	Bump    uint8
}

// Vault tracks the locked balance of one owner for one asset.
// LockedAmount == 0 means the vault is dormant.
type Vault struct {
	Owner          identity.Identity
	AssetID        identity.Identity
	LockStart      uint64 // unix seconds
	LockEnd        uint64 // unix seconds
	LockedAmount   uint64
	Bump           uint8
	CustodyAccount identity.Identity
}

// Dormant reports whether nothing is currently locked
func (v *Vault) Dormant() bool {
	return v.LockedAmount == 0
}

// Account is a ledger balance of one asset. Only Controller may debit it.
type Account struct {
	Address    identity.Identity
	Controller identity.Identity
	AssetID    identity.Identity
	Amount     uint64
}

func checkSize(kind string, data []byte, want int) error {
	if len(data) != want {
		return fmt.Errorf("%w: %s record is %d bytes, want %d", ErrRecordSize, kind, len(data), want)
	}
	return nil
}

func (s *AdminSettings) MarshalBinary() ([]byte, error) {
	buf := make([]byte, AdminSettingsSize)
	copy(buf[0:32], s.Admin[:])
	le.PutUint64(buf[32:40], s.DefaultLockDuration)
	buf[40] = s.Bump
	return buf, nil
}

func (s *AdminSettings) UnmarshalBinary(data []byte) error {
	if err := checkSize("admin settings", data, AdminSettingsSize); err != nil {
		return err
	}
	copy(s.Admin[:], data[0:32])
	s.DefaultLockDuration = le.Uint64(data[32:40])
	s.Bump = data[40]
	return nil
}

func (a *SupportedAsset) MarshalBinary() ([]byte, error) {
	buf := make([]byte, SupportedAssetSize)
	copy(buf[0:32], a.AssetID[:])
	buf[32] = a.Bump
	return buf, nil
}

func (a *SupportedAsset) UnmarshalBinary(data []byte) error {
	if err := checkSize("supported asset", data, SupportedAssetSize); err != nil {
		return err
	}
	copy(a.AssetID[:], data[0:32])
	a.Bump = data[32]
	return nil
}

func (v *Vault) MarshalBinary() ([]byte, error) {
	buf := make([]byte, VaultSize)
	copy(buf[0:32], v.Owner[:])
	copy(buf[32:64], v.AssetID[:])
	le.PutUint64(buf[64:72], v.LockStart)
	le.PutUint64(buf[72:80], v.LockEnd)
	le.PutUint64(buf[80:88], v.LockedAmount)
	buf[88] = v.Bump
	copy(buf[89:121], v.CustodyAccount[:])
	return buf, nil
}

func (v *Vault) UnmarshalBinary(data []byte) error {
	if err := checkSize("vault", data, VaultSize); err != nil {
		return err
	}
	copy(v.Owner[:], data[0:32])
	copy(v.AssetID[:], data[32:64])
	v.LockStart = le.Uint64(data[64:72])
	v.LockEnd = le.Uint64(data[72:80])
	v.LockedAmount = le.Uint64(data[80:88])
	v.Bump = data[88]
	copy(v.CustodyAccount[:], data[89:121])
	return nil
}

func (a *Account) MarshalBinary() ([]byte, error) {
	buf := make([]byte, AccountSize)
	copy(buf[0:32], a.Address[:])
	copy(buf[32:64], a.Controller[:])
	copy(buf[64:96], a.AssetID[:])
	le.PutUint64(buf[96:104], a.Amount)
	return buf, nil
}

func (a *Account) UnmarshalBinary(data []byte) error {
	if err := checkSize("account", data, AccountSize); err != nil {
		return err
	}
	copy(a.Address[:], data[0:32])
	copy(a.Controller[:], data[32:64])
	copy(a.AssetID[:], data[64:96])
	a.Amount = le.Uint64(data[96:104])
	return nil
}

// VaultKey is the vaults bucket key for owner and asset
func VaultKey(owner, asset identity.Identity) []byte {
	key := make([]byte, 0, 2*identity.Size)
	key = append(key, owner[:]...)
	return append(key, asset[:]...)
}

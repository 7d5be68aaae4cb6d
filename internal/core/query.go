package core

import (
	"context"
	"fmt"
	"time"

	"github.com/illarion/timelock/internal/custody"
	"github.com/illarion/timelock/internal/identity"
	"github.com/illarion/timelock/internal/ledger"
	"github.com/illarion/timelock/internal/storage"
)

// Settings returns the admin settings, ErrNotInitialized if absent
func (t *TimeLock) Settings(ctx context.Context) (*storage.AdminSettings, error) {
	var settings *storage.AdminSettings
	err := t.view(ctx, func(tx *storage.Tx) error {
		var err error
		settings, err = loadSettings(tx)
		return err
	})
	return settings, err
}

// SupportedAssets lists the asset allow-list
func (t *TimeLock) SupportedAssets(ctx context.Context) ([]storage.SupportedAsset, error) {
	var assets []storage.SupportedAsset
	err := t.view(ctx, func(tx *storage.Tx) error {
		var err error
		assets, err = tx.SupportedAssets()
		return err
	})
	return assets, err
}

// IsSupported reports whether asset is on the allow-list
func (t *TimeLock) IsSupported(ctx context.Context, asset identity.Identity) (bool, error) {
	var ok bool
	err := t.view(ctx, func(tx *storage.Tx) error {
		rec, err := tx.SupportedAsset(asset)
		ok = rec != nil
		return err
	})
	return ok, err
}

// Vault returns the vault of owner for asset, nil if it was never created
func (t *TimeLock) Vault(ctx context.Context, owner, asset identity.Identity) (*storage.Vault, error) {
	var vault *storage.Vault
	err := t.view(ctx, func(tx *storage.Tx) error {
		var err error
		vault, err = tx.Vault(owner, asset)
		return err
	})
	return vault, err
}

// Vaults lists the vaults of owner, or every vault for the zero identity
func (t *TimeLock) Vaults(ctx context.Context, owner identity.Identity) ([]storage.Vault, error) {
	var vaults []storage.Vault
	err := t.view(ctx, func(tx *storage.Tx) error {
		var err error
		vaults, err = tx.Vaults(owner)
		return err
	})
	return vaults, err
}

// Balance returns the ledger balance of holder for asset
func (t *TimeLock) Balance(ctx context.Context, holder, asset identity.Identity) (uint64, error) {
	var amount uint64
	err := t.view(ctx, func(tx *storage.Tx) error {
		var err error
		amount, err = ledger.Balance(tx, holder, asset)
		return err
	})
	return amount, err
}

// AuthorityInfo previews the custody derivation for an owner and asset
type AuthorityInfo struct {
	Address        identity.Identity
	Bump           uint8
	CustodyAccount identity.Identity
}

// Authority derives the custody authority for owner and asset without
// touching storage
func (t *TimeLock) Authority(owner, asset identity.Identity) (*AuthorityInfo, error) {
	auth, err := custody.Derive(owner, asset)
	if err != nil {
		return nil, err
	}
	return &AuthorityInfo{
		Address:        auth.Address(),
		Bump:           auth.Bump,
		CustodyAccount: ledger.AccountAddress(auth.Address(), asset),
	}, nil
}

// Remaining returns how long until v can be unlocked, zero when it already can
func (t *TimeLock) Remaining(v *storage.Vault) time.Duration {
	now := t.Now()
	if v.Dormant() || now >= v.LockEnd {
		return 0
	}
	return Seconds(v.LockEnd - now)
}

// VaultState is a short human label for a vault
func (t *TimeLock) VaultState(v *storage.Vault) string {
	switch {
	case v.Dormant():
		return "dormant"
	case t.Now() >= v.LockEnd:
		return "unlockable"
	default:
		return fmt.Sprintf("locked %s", t.Remaining(v).Round(time.Second))
	}
}

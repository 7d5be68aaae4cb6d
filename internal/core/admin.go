package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/illarion/timelock/internal/custody"
	"github.com/illarion/timelock/internal/identity"
	"github.com/illarion/timelock/internal/ledger"
	"github.com/illarion/timelock/internal/storage"
)

// DefaultLockDuration is the lock duration set by Initialize, in seconds
const DefaultLockDuration uint64 = 86400

// Initialize creates the admin settings with caller as admin. It fails with
// ErrAlreadyInitialized if the settings already exist.
func (t *TimeLock) Initialize(ctx context.Context, caller identity.Signer) (*storage.AdminSettings, error) {
	_, bump, err := custody.FindAddress(custody.AdminSettingsTag)
	if err != nil {
		return nil, fmt.Errorf("failed to derive settings address: %w", err)
	}
	settings := &storage.AdminSettings{
		Admin:               caller.Address(),
		DefaultLockDuration: DefaultLockDuration,
		Bump:                bump,
	}

	err = t.update(ctx, OpInitialize, func(tx *storage.Tx) error {
		if err := tx.CreateAdminSettings(settings); err != nil {
			if errors.Is(err, storage.ErrExists) {
				return ErrAlreadyInitialized
			}
			return fmt.Errorf("failed to store admin settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	t.log.Info("admin settings initialized",
		"admin", settings.Admin.String(),
		"default_lock_duration", settings.DefaultLockDuration)
	return settings, nil
}

// SetLockDuration changes the default lock duration. Running locks keep
// their current window; the new value applies from the next lock on.
func (t *TimeLock) SetLockDuration(ctx context.Context, caller identity.Signer, duration uint64) error {
	var previous uint64
	err := t.update(ctx, OpSetLockDuration, func(tx *storage.Tx) error {
		settings, err := requireAdmin(tx, caller.Address())
		if err != nil {
			return err
		}
		if duration == 0 {
			return ErrInvalidDuration
		}
		previous = settings.DefaultLockDuration
		settings.DefaultLockDuration = duration
		return tx.PutAdminSettings(settings)
	})
	if err != nil {
		return err
	}

	t.log.Info("lock duration set", "seconds", duration, "previous", previous)
	return nil
}

// AddSupportedAsset adds asset to the allow-list. Entries are permanent.
func (t *TimeLock) AddSupportedAsset(ctx context.Context, caller identity.Signer, asset identity.Identity) (*storage.SupportedAsset, error) {
	_, bump, err := custody.FindAddress(custody.SupportedAssetTag, asset[:])
	if err != nil {
		return nil, fmt.Errorf("failed to derive asset address: %w", err)
	}
	rec := &storage.SupportedAsset{AssetID: asset, Bump: bump}

	err = t.update(ctx, OpAddAsset, func(tx *storage.Tx) error {
		if _, err := requireAdmin(tx, caller.Address()); err != nil {
			return err
		}
		if err := tx.CreateSupportedAsset(rec); err != nil {
			if errors.Is(err, storage.ErrExists) {
				return fmt.Errorf("%w: %s", ErrAssetAlreadyRegistered, asset)
			}
			return fmt.Errorf("failed to store supported asset: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	t.log.Info("asset added to supported assets", "asset", asset.String())
	return rec, nil
}

// Issue credits amount of asset to holder's ledger account. Only the admin
// may issue.
func (t *TimeLock) Issue(ctx context.Context, caller identity.Signer, holder, asset identity.Identity, amount uint64) (uint64, error) {
	var balance uint64
	err := t.update(ctx, OpIssue, func(tx *storage.Tx) error {
		if _, err := requireAdmin(tx, caller.Address()); err != nil {
			return err
		}
		if amount == 0 {
			return ErrInvalidAmount
		}
		acct, err := ledger.Issue(tx, holder, asset, amount)
		if err != nil {
			if errors.Is(err, ledger.ErrBalanceOverflow) {
				return fmt.Errorf("%w: %w", ErrOverflow, err)
			}
			return err
		}
		balance = acct.Amount
		return nil
	})
	if err != nil {
		return 0, err
	}

	t.log.Info("issued", "holder", holder.String(), "asset", asset.String(), "amount", amount, "balance", balance)
	return balance, nil
}

package core

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"time"

	"github.com/illarion/timelock/internal/custody"
	"github.com/illarion/timelock/internal/identity"
	"github.com/illarion/timelock/internal/ledger"
	"github.com/illarion/timelock/internal/storage"
)

// Receipt describes the effect of a lock or unlock
type Receipt struct {
	Operation string
	Amount    uint64
	Before    storage.Vault // zero when the vault did not exist
	After     storage.Vault
	Authority identity.Identity
	DryRun    bool
}

// UnlockTime returns the end of the lock window in After
func (r *Receipt) UnlockTime() time.Time {
	return UnixTime(r.After.LockEnd)
}

// LockTokens moves amount of asset from the caller's ledger account into
// custody and starts (or restarts) the lock window. Locking into an active
// vault adds to it and resets the window from now with the current duration.
func (t *TimeLock) LockTokens(ctx context.Context, caller identity.Signer, asset identity.Identity, amount uint64) (*Receipt, error) {
	owner := caller.Address()
	now := t.Now()

	var receipt *Receipt
	err := t.update(ctx, OpLock, func(tx *storage.Tx) error {
		if amount == 0 {
			return ErrInvalidAmount
		}
		settings, err := loadSettings(tx)
		if err != nil {
			return err
		}
		supported, err := tx.SupportedAsset(asset)
		if err != nil {
			return err
		}
		if supported == nil {
			return fmt.Errorf("%w: %s", ErrAssetNotSupported, asset)
		}

		auth, err := custody.Derive(owner, asset)
		if err != nil {
			return err
		}
		custodyAcct, err := ledger.Open(tx, auth.Address(), asset)
		if err != nil {
			return err
		}

		vault, err := tx.Vault(owner, asset)
		if err != nil {
			return err
		}
		var before storage.Vault
		if vault == nil {
			vault = &storage.Vault{}
		} else {
			before = *vault
		}
		if !vault.Dormant() && vault.CustodyAccount != custodyAcct.Address {
			return fmt.Errorf("%w: vault holds %s, derived %s", ErrCustodyMismatch, vault.CustodyAccount, custodyAcct.Address)
		}

		end, carry := bits.Add64(now, settings.DefaultLockDuration, 0)
		if carry != 0 {
			return fmt.Errorf("%w: lock end %d + %d", ErrOverflow, now, settings.DefaultLockDuration)
		}

		if vault.Dormant() {
			*vault = storage.Vault{
				Owner:          owner,
				AssetID:        asset,
				LockStart:      now,
				LockEnd:        end,
				LockedAmount:   amount,
				Bump:           auth.Bump,
				CustodyAccount: custodyAcct.Address,
			}
		} else {
			total, carry := bits.Add64(vault.LockedAmount, amount, 0)
			if carry != 0 {
				return fmt.Errorf("%w: locked %d + %d", ErrOverflow, vault.LockedAmount, amount)
			}
			vault.LockedAmount = total
			vault.LockStart = now
			vault.LockEnd = end
		}

		if err := ledger.Transfer(tx, ledger.AccountAddress(owner, asset), custodyAcct.Address, amount, caller); err != nil {
			if errors.Is(err, ledger.ErrBalanceOverflow) {
				return fmt.Errorf("%w: %w", ErrOverflow, err)
			}
			return fmt.Errorf("failed to move funds into custody: %w", err)
		}
		if err := tx.PutVault(vault); err != nil {
			return fmt.Errorf("failed to store vault: %w", err)
		}

		receipt = &Receipt{
			Operation: OpLock,
			Amount:    amount,
			Before:    before,
			After:     *vault,
			Authority: auth.Address(),
			DryRun:    t.dryRun,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	t.log.Info("tokens locked",
		"owner", owner.String(),
		"asset", asset.String(),
		"amount", amount,
		"locked", receipt.After.LockedAmount,
		"until", receipt.UnlockTime().UTC().Format(time.RFC3339))
	return receipt, nil
}

package core

import (
	"context"
	"fmt"

	"github.com/illarion/timelock/internal/custody"
	"github.com/illarion/timelock/internal/identity"
	"github.com/illarion/timelock/internal/ledger"
	"github.com/illarion/timelock/internal/storage"
)

// UnlockTokens releases the whole locked amount of the caller's vault for
// asset once the lock window has ended. The vault goes dormant; LockStart
// keeps its last value.
func (t *TimeLock) UnlockTokens(ctx context.Context, caller identity.Signer, asset identity.Identity) (*Receipt, error) {
	owner := caller.Address()
	now := t.Now()

	var receipt *Receipt
	err := t.update(ctx, OpUnlock, func(tx *storage.Tx) error {
		vault, err := tx.Vault(owner, asset)
		if err != nil {
			return err
		}
		if vault == nil || vault.Dormant() {
			return fmt.Errorf("%w: %s has nothing locked in %s", ErrNoLockedTokens, owner, asset)
		}
		if now < vault.LockEnd {
			return fmt.Errorf("%w: unlocks at %d, now %d", ErrLockPeriodNotOver, vault.LockEnd, now)
		}

		auth, err := custody.Rebuild(vault.Owner, vault.AssetID, vault.Bump)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCustodyMismatch, err)
		}
		if want := ledger.AccountAddress(auth.Address(), asset); vault.CustodyAccount != want {
			return fmt.Errorf("%w: vault holds %s, derived %s", ErrCustodyMismatch, vault.CustodyAccount, want)
		}
		src, err := tx.Account(vault.CustodyAccount)
		if err != nil {
			return err
		}
		if src == nil {
			return fmt.Errorf("%w: custody account %s missing", ErrCustodyMismatch, vault.CustodyAccount)
		}
		if err := auth.Check(src.Controller); err != nil {
			return fmt.Errorf("%w: %w", ErrCustodyMismatch, err)
		}

		dst, err := ledger.Open(tx, owner, asset)
		if err != nil {
			return err
		}
		amount := vault.LockedAmount
		if err := ledger.Transfer(tx, vault.CustodyAccount, dst.Address, amount, auth); err != nil {
			return fmt.Errorf("%w: %w", ErrCustodyMismatch, err)
		}

		before := *vault
		vault.LockedAmount = 0
		vault.LockEnd = 0
		if err := tx.PutVault(vault); err != nil {
			return fmt.Errorf("failed to store vault: %w", err)
		}

		receipt = &Receipt{
			Operation: OpUnlock,
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

	t.log.Info("tokens unlocked",
		"owner", owner.String(),
		"asset", asset.String(),
		"amount", receipt.Amount)
	return receipt, nil
}

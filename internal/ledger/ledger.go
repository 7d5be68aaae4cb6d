// Package ledger is the asset ledger that vault custody sits on: per-holder
// asset accounts and a transfer primitive that only the account controller
// may authorize. All functions run inside the caller's storage transaction,
// so a transfer commits or rolls back together with the rest of the
// operation that issued it.
package ledger

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/illarion/timelock/internal/identity"
	"github.com/illarion/timelock/internal/storage"
	"golang.org/x/crypto/blake2b"
)

const accountDomain = "timelock/ledger/account/v1"

var (
	ErrAccountNotFound   = errors.New("ledger account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrWrongController   = errors.New("signer does not control account")
	ErrAssetMismatch     = errors.New("account asset mismatch")
	ErrBalanceOverflow   = errors.New("balance overflow")
)

// AccountAddress is the address of holder's account for asset
func AccountAddress(holder, asset identity.Identity) identity.Identity {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(accountDomain))
	h.Write(holder[:])
	h.Write(asset[:])

	var addr identity.Identity
	copy(addr[:], h.Sum(nil))
	return addr
}

// Open returns holder's account for asset, creating an empty one
// controlled by holder if it does not exist yet.
func Open(tx *storage.Tx, holder, asset identity.Identity) (*storage.Account, error) {
	addr := AccountAddress(holder, asset)
	acct, err := tx.Account(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to read account %s: %w", addr, err)
	}
	if acct != nil {
		return acct, nil
	}

	acct = &storage.Account{Address: addr, Controller: holder, AssetID: asset}
	if err := tx.CreateAccount(acct); err != nil {
		return nil, fmt.Errorf("failed to create account %s: %w", addr, err)
	}
	return acct, nil
}

// Balance returns holder's balance of asset, zero when no account exists
func Balance(tx *storage.Tx, holder, asset identity.Identity) (uint64, error) {
	acct, err := tx.Account(AccountAddress(holder, asset))
	if err != nil {
		return 0, err
	}
	if acct == nil {
		return 0, nil
	}
	return acct.Amount, nil
}

// Issue credits newly created units of asset to holder
func Issue(tx *storage.Tx, holder, asset identity.Identity, amount uint64) (*storage.Account, error) {
	acct, err := Open(tx, holder, asset)
	if err != nil {
		return nil, err
	}
	sum, carry := bits.Add64(acct.Amount, amount, 0)
	if carry != 0 {
		return nil, fmt.Errorf("%w: %s", ErrBalanceOverflow, acct.Address)
	}
	acct.Amount = sum
	if err := tx.PutAccount(acct); err != nil {
		return nil, fmt.Errorf("failed to store account %s: %w", acct.Address, err)
	}
	return acct, nil
}

// Transfer moves amount from one account to another. signer must be the
// controller of the source account.
func Transfer(tx *storage.Tx, from, to identity.Identity, amount uint64, signer identity.Signer) error {
	src, err := tx.Account(from)
	if err != nil {
		return fmt.Errorf("failed to read account %s: %w", from, err)
	}
	if src == nil {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, from)
	}
	dst, err := tx.Account(to)
	if err != nil {
		return fmt.Errorf("failed to read account %s: %w", to, err)
	}
	if dst == nil {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, to)
	}

	if src.Controller != signer.Address() {
		return fmt.Errorf("%w: %s is controlled by %s, not %s", ErrWrongController, from, src.Controller, signer.Address())
	}
	if src.AssetID != dst.AssetID {
		return fmt.Errorf("%w: %s holds %s, %s holds %s", ErrAssetMismatch, from, src.AssetID, to, dst.AssetID)
	}
	if src.Amount < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, from, src.Amount, amount)
	}
	if from == to {
		return nil
	}

	sum, carry := bits.Add64(dst.Amount, amount, 0)
	if carry != 0 {
		return fmt.Errorf("%w: %s", ErrBalanceOverflow, to)
	}
	src.Amount -= amount
	dst.Amount = sum

	if err := tx.PutAccount(src); err != nil {
		return fmt.Errorf("failed to store account %s: %w", from, err)
	}
	if err := tx.PutAccount(dst); err != nil {
		return fmt.Errorf("failed to store account %s: %w", to, err)
	}
	return nil
}

package core

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illarion/timelock/internal/identity"
	"github.com/illarion/timelock/internal/ledger"
	"github.com/illarion/timelock/internal/storage"
)

type fakeClock struct {
	now int64
}

func (c *fakeClock) Now() time.Time {
	return time.Unix(c.now, 0)
}

type fixture struct {
	tl    *TimeLock
	db    *storage.Storage
	clock *fakeClock
	admin *identity.Keypair
	user  *identity.Keypair
	asset identity.Identity
}

func keypair(t *testing.T) *identity.Keypair {
	t.Helper()
	kp, err := identity.Generate()
	require.NoError(t, err)
	return kp
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "core.timelock"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := &fakeClock{}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return &fixture{
		tl:    New(db, opts...),
		db:    db,
		clock: clock,
		admin: keypair(t),
		user:  keypair(t),
		asset: keypair(t).Address(),
	}
}

// ready initializes the timelock, registers the asset and funds the user
func (f *fixture) ready(t *testing.T, balance uint64) {
	t.Helper()
	ctx := context.Background()
	_, err := f.tl.Initialize(ctx, f.admin)
	require.NoError(t, err)
	_, err = f.tl.AddSupportedAsset(ctx, f.admin, f.asset)
	require.NoError(t, err)
	if balance > 0 {
		_, err = f.tl.Issue(ctx, f.admin, f.user.Address(), f.asset, balance)
		require.NoError(t, err)
	}
}

func (f *fixture) balance(t *testing.T, holder identity.Identity) uint64 {
	t.Helper()
	b, err := f.tl.Balance(context.Background(), holder, f.asset)
	require.NoError(t, err)
	return b
}

func (f *fixture) custodyBalance(t *testing.T, owner identity.Identity) uint64 {
	t.Helper()
	info, err := f.tl.Authority(owner, f.asset)
	require.NoError(t, err)
	return f.balance(t, info.Address)
}

func TestInitialize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tl.Settings(ctx)
	require.ErrorIs(t, err, ErrNotInitialized)

	settings, err := f.tl.Initialize(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, f.admin.Address(), settings.Admin)
	assert.Equal(t, uint64(86400), settings.DefaultLockDuration)

	stored, err := f.tl.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, *settings, *stored)

	_, err = f.tl.Initialize(ctx, f.user)
	require.ErrorIs(t, err, ErrAlreadyInitialized)

	stored, err = f.tl.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.admin.Address(), stored.Admin, "second initialize must not replace the admin")
}

func TestSetLockDuration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.ErrorIs(t, f.tl.SetLockDuration(ctx, f.admin, 60), ErrNotInitialized)

	_, err := f.tl.Initialize(ctx, f.admin)
	require.NoError(t, err)

	require.ErrorIs(t, f.tl.SetLockDuration(ctx, f.user, 60), ErrUnauthorized)
	require.ErrorIs(t, f.tl.SetLockDuration(ctx, f.admin, 0), ErrInvalidDuration)
	require.ErrorIs(t, f.tl.SetLockDuration(ctx, f.user, 0), ErrUnauthorized)

	require.NoError(t, f.tl.SetLockDuration(ctx, f.admin, 3600))
	settings, err := f.tl.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3600), settings.DefaultLockDuration)
}

func TestAddSupportedAsset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tl.AddSupportedAsset(ctx, f.admin, f.asset)
	require.ErrorIs(t, err, ErrNotInitialized)

	_, err = f.tl.Initialize(ctx, f.admin)
	require.NoError(t, err)

	_, err = f.tl.AddSupportedAsset(ctx, f.user, f.asset)
	require.ErrorIs(t, err, ErrUnauthorized)

	rec, err := f.tl.AddSupportedAsset(ctx, f.admin, f.asset)
	require.NoError(t, err)
	assert.Equal(t, f.asset, rec.AssetID)

	_, err = f.tl.AddSupportedAsset(ctx, f.admin, f.asset)
	require.ErrorIs(t, err, ErrAssetAlreadyRegistered)

	ok, err := f.tl.IsSupported(ctx, f.asset)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.tl.IsSupported(ctx, keypair(t).Address())
	require.NoError(t, err)
	assert.False(t, ok)

	assets, err := f.tl.SupportedAssets(ctx)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, *rec, assets[0])
}

func TestLockUnlockScenario(t *testing.T) {
	f := newFixture(t)
	f.ready(t, 1000)
	ctx := context.Background()
	owner := f.user.Address()

	receipt, err := f.tl.LockTokens(ctx, f.user, f.asset, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), receipt.After.LockStart)
	assert.Equal(t, uint64(86400), receipt.After.LockEnd)
	assert.Equal(t, uint64(100), receipt.After.LockedAmount)
	assert.Equal(t, uint64(900), f.balance(t, owner))
	assert.Equal(t, uint64(100), f.custodyBalance(t, owner))

	f.clock.now = 1000
	receipt, err = f.tl.LockTokens(ctx, f.user, f.asset, 50)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), receipt.Before.LockedAmount)
	assert.Equal(t, uint64(150), receipt.After.LockedAmount)
	assert.Equal(t, uint64(1000), receipt.After.LockStart)
	assert.Equal(t, uint64(87400), receipt.After.LockEnd)

	f.clock.now = 50000
	_, err = f.tl.UnlockTokens(ctx, f.user, f.asset)
	require.ErrorIs(t, err, ErrLockPeriodNotOver)

	f.clock.now = 87400
	receipt, err = f.tl.UnlockTokens(ctx, f.user, f.asset)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), receipt.Amount)
	assert.Equal(t, uint64(1000), f.balance(t, owner))
	assert.Equal(t, uint64(0), f.custodyBalance(t, owner))

	vault, err := f.tl.Vault(ctx, owner, f.asset)
	require.NoError(t, err)
	require.NotNil(t, vault)
	assert.Equal(t, uint64(0), vault.LockedAmount)
	assert.Equal(t, uint64(0), vault.LockEnd)
	assert.Equal(t, uint64(1000), vault.LockStart, "lock start survives unlock")

	_, err = f.tl.UnlockTokens(ctx, f.user, f.asset)
	require.ErrorIs(t, err, ErrNoLockedTokens)
}

func TestLockAfterUnlockStartsFresh(t *testing.T) {
	f := newFixture(t)
	f.ready(t, 100)
	ctx := context.Background()

	_, err := f.tl.LockTokens(ctx, f.user, f.asset, 40)
	require.NoError(t, err)
	f.clock.now = 86400
	_, err = f.tl.UnlockTokens(ctx, f.user, f.asset)
	require.NoError(t, err)

	f.clock.now = 90000
	receipt, err := f.tl.LockTokens(ctx, f.user, f.asset, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), receipt.After.LockedAmount)
	assert.Equal(t, uint64(90000), receipt.After.LockStart)
	assert.Equal(t, uint64(90000+86400), receipt.After.LockEnd)
}

func TestLockUsesCurrentDuration(t *testing.T) {
	f := newFixture(t)
	f.ready(t, 100)
	ctx := context.Background()

	_, err := f.tl.LockTokens(ctx, f.user, f.asset, 10)
	require.NoError(t, err)

	require.NoError(t, f.tl.SetLockDuration(ctx, f.admin, 60))

	vault, err := f.tl.Vault(ctx, f.user.Address(), f.asset)
	require.NoError(t, err)
	assert.Equal(t, uint64(86400), vault.LockEnd, "running lock keeps its window")

	f.clock.now = 100
	receipt, err := f.tl.LockTokens(ctx, f.user, f.asset, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(160), receipt.After.LockEnd)

	f.clock.now = 159
	_, err = f.tl.UnlockTokens(ctx, f.user, f.asset)
	require.ErrorIs(t, err, ErrLockPeriodNotOver)

	f.clock.now = 160
	receipt, err = f.tl.UnlockTokens(ctx, f.user, f.asset)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), receipt.Amount)
}

func TestLockRejections(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, f *fixture)
		asset   func(f *fixture) identity.Identity
		amount  uint64
		wantErr error
	}{
		{
			name:    "zero amount",
			prepare: func(t *testing.T, f *fixture) { f.ready(t, 100) },
			amount:  0,
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "not initialized",
			prepare: func(t *testing.T, f *fixture) {},
			amount:  10,
			wantErr: ErrNotInitialized,
		},
		{
			name:    "unsupported asset",
			prepare: func(t *testing.T, f *fixture) { f.ready(t, 100) },
			asset:   func(f *fixture) identity.Identity { return f.admin.Address() },
			amount:  10,
			wantErr: ErrAssetNotSupported,
		},
		{
			name:    "no ledger account",
			prepare: func(t *testing.T, f *fixture) { f.ready(t, 0) },
			amount:  10,
			wantErr: ledger.ErrAccountNotFound,
		},
		{
			name:    "insufficient funds",
			prepare: func(t *testing.T, f *fixture) { f.ready(t, 5) },
			amount:  10,
			wantErr: ledger.ErrInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.prepare(t, f)
			asset := f.asset
			if tt.asset != nil {
				asset = tt.asset(f)
			}
			before := f.balance(t, f.user.Address())

			_, err := f.tl.LockTokens(context.Background(), f.user, asset, tt.amount)
			require.ErrorIs(t, err, tt.wantErr)

			assert.Equal(t, before, f.balance(t, f.user.Address()))
			vault, err := f.tl.Vault(context.Background(), f.user.Address(), asset)
			require.NoError(t, err)
			assert.Nil(t, vault)
		})
	}
}

func TestLockOverflow(t *testing.T) {
	t.Run("locked amount", func(t *testing.T) {
		f := newFixture(t)
		f.ready(t, math.MaxUint64)
		ctx := context.Background()

		_, err := f.tl.LockTokens(ctx, f.user, f.asset, math.MaxUint64-1)
		require.NoError(t, err)
		_, err = f.tl.LockTokens(ctx, f.user, f.asset, 1)
		require.NoError(t, err)

		_, err = f.tl.Issue(ctx, f.admin, f.user.Address(), f.asset, 1)
		require.NoError(t, err)
		before, err := f.tl.Vault(ctx, f.user.Address(), f.asset)
		require.NoError(t, err)

		_, err = f.tl.LockTokens(ctx, f.user, f.asset, 1)
		require.ErrorIs(t, err, ErrOverflow)
		assert.Equal(t, KindArithmetic, KindOf(err))
		assert.Equal(t, uint64(1), f.balance(t, f.user.Address()))
		assert.Equal(t, uint64(math.MaxUint64), f.custodyBalance(t, f.user.Address()))

		after, err := f.tl.Vault(ctx, f.user.Address(), f.asset)
		require.NoError(t, err)
		assert.Equal(t, before, after)
		assert.Equal(t, uint64(math.MaxUint64), after.LockedAmount)
	})

	t.Run("lock end", func(t *testing.T) {
		f := newFixture(t)
		f.ready(t, 10)
		ctx := context.Background()
		require.NoError(t, f.tl.SetLockDuration(ctx, f.admin, math.MaxUint64))

		f.clock.now = 1
		_, err := f.tl.LockTokens(ctx, f.user, f.asset, 10)
		require.ErrorIs(t, err, ErrOverflow)
		assert.Equal(t, uint64(10), f.balance(t, f.user.Address()))

		vault, err := f.tl.Vault(ctx, f.user.Address(), f.asset)
		require.NoError(t, err)
		assert.Nil(t, vault)
	})

	t.Run("lock end of an active vault", func(t *testing.T) {
		f := newFixture(t)
		f.ready(t, 10)
		ctx := context.Background()

		_, err := f.tl.LockTokens(ctx, f.user, f.asset, 4)
		require.NoError(t, err)
		require.NoError(t, f.tl.SetLockDuration(ctx, f.admin, math.MaxUint64))

		f.clock.now = 1
		_, err = f.tl.LockTokens(ctx, f.user, f.asset, 6)
		require.ErrorIs(t, err, ErrOverflow)

		vault, err := f.tl.Vault(ctx, f.user.Address(), f.asset)
		require.NoError(t, err)
		require.NotNil(t, vault)
		assert.Equal(t, uint64(4), vault.LockedAmount)
		assert.Equal(t, uint64(0), vault.LockStart)
		assert.Equal(t, uint64(86400), vault.LockEnd)
		assert.Equal(t, uint64(6), f.balance(t, f.user.Address()))
	})
}

func TestUnlockRejections(t *testing.T) {
	f := newFixture(t)
	f.ready(t, 100)
	ctx := context.Background()

	_, err := f.tl.UnlockTokens(ctx, f.user, f.asset)
	require.ErrorIs(t, err, ErrNoLockedTokens, "never-created vault")

	_, err = f.tl.LockTokens(ctx, f.user, f.asset, 30)
	require.NoError(t, err)

	other := keypair(t)
	f.clock.now = 86400
	_, err = f.tl.UnlockTokens(ctx, other, f.asset)
	require.ErrorIs(t, err, ErrNoLockedTokens, "vaults are per owner")
	assert.Equal(t, uint64(30), f.custodyBalance(t, f.user.Address()))

	f.clock.now = 86399
	_, err = f.tl.UnlockTokens(ctx, f.user, f.asset)
	require.ErrorIs(t, err, ErrLockPeriodNotOver)
	assert.Equal(t, KindState, KindOf(err))

	vault, err := f.tl.Vault(ctx, f.user.Address(), f.asset)
	require.NoError(t, err)
	require.NotNil(t, vault)
	assert.Equal(t, uint64(30), vault.LockedAmount)
	assert.Equal(t, uint64(86400), vault.LockEnd)
	assert.Equal(t, uint64(30), f.custodyBalance(t, f.user.Address()))
	assert.Equal(t, uint64(70), f.balance(t, f.user.Address()))
}

func TestUnlockCustodyMismatch(t *testing.T) {
	f := newFixture(t)
	f.ready(t, 100)
	ctx := context.Background()
	owner := f.user.Address()

	_, err := f.tl.LockTokens(ctx, f.user, f.asset, 30)
	require.NoError(t, err)

	// Drain custody behind the vault's back
	info, err := f.tl.Authority(owner, f.asset)
	require.NoError(t, err)
	require.NoError(t, f.db.Update(func(tx *storage.Tx) error {
		acct, err := tx.Account(info.CustodyAccount)
		if err != nil {
			return err
		}
		acct.Amount = 10
		return tx.PutAccount(acct)
	}))

	f.clock.now = 86400
	_, err = f.tl.UnlockTokens(ctx, f.user, f.asset)
	require.ErrorIs(t, err, ErrCustodyMismatch)
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	assert.Equal(t, KindInternal, KindOf(err))

	vault, err := f.tl.Vault(ctx, owner, f.asset)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), vault.LockedAmount, "failed unlock leaves the vault alone")

	require.NoError(t, f.db.Update(func(tx *storage.Tx) error {
		v, err := tx.Vault(owner, f.asset)
		if err != nil {
			return err
		}
		v.Bump++
		return tx.PutVault(v)
	}))
	_, err = f.tl.UnlockTokens(ctx, f.user, f.asset)
	require.ErrorIs(t, err, ErrCustodyMismatch)
}

func TestDryRun(t *testing.T) {
	f := newFixture(t)
	f.ready(t, 100)
	ctx := context.Background()
	owner := f.user.Address()

	receipt, err := f.tl.DryRun().LockTokens(ctx, f.user, f.asset, 60)
	require.NoError(t, err)
	assert.True(t, receipt.DryRun)
	assert.Equal(t, uint64(60), receipt.After.LockedAmount)

	assert.Equal(t, uint64(100), f.balance(t, owner))
	vault, err := f.tl.Vault(ctx, owner, f.asset)
	require.NoError(t, err)
	assert.Nil(t, vault)

	_, err = f.tl.LockTokens(ctx, f.user, f.asset, 60)
	require.NoError(t, err)

	f.clock.now = 86400
	receipt, err = f.tl.DryRun().UnlockTokens(ctx, f.user, f.asset)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), receipt.Amount)
	assert.Equal(t, uint64(40), f.balance(t, owner))

	_, err = f.tl.DryRun().UnlockTokens(ctx, keypair(t), f.asset)
	require.ErrorIs(t, err, ErrNoLockedTokens, "dry runs still report failures")
}

type recordingObserver struct {
	ops  []string
	errs []error
}

func (r *recordingObserver) ObserveOperation(op string, err error) {
	r.ops = append(r.ops, op)
	r.errs = append(r.errs, err)
}

func TestObserver(t *testing.T) {
	obs := &recordingObserver{}
	f := newFixture(t, WithObserver(obs))
	ctx := context.Background()

	_, err := f.tl.Initialize(ctx, f.admin)
	require.NoError(t, err)
	_, err = f.tl.Initialize(ctx, f.admin)
	require.Error(t, err)
	_, err = f.tl.DryRun().AddSupportedAsset(ctx, f.admin, f.asset)
	require.NoError(t, err)

	assert.Equal(t, []string{OpInitialize, OpInitialize}, obs.ops)
	assert.NoError(t, obs.errs[0])
	assert.ErrorIs(t, obs.errs[1], ErrAlreadyInitialized)
}

func TestCanceledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.tl.Initialize(ctx, f.admin)
	require.ErrorIs(t, err, context.Canceled)
	_, err = f.tl.Settings(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRemainingAndState(t *testing.T) {
	f := newFixture(t)
	f.clock.now = 100
	v := &storage.Vault{LockedAmount: 5, LockEnd: 160}

	assert.Equal(t, 60*time.Second, f.tl.Remaining(v))
	assert.Equal(t, "locked 1m0s", f.tl.VaultState(v))

	f.clock.now = 160
	assert.Equal(t, time.Duration(0), f.tl.Remaining(v))
	assert.Equal(t, "unlockable", f.tl.VaultState(v))

	v.LockedAmount = 0
	assert.Equal(t, "dormant", f.tl.VaultState(v))
}

func TestRemainingSaturates(t *testing.T) {
	f := newFixture(t)
	f.ready(t, 10)
	ctx := context.Background()
	require.NoError(t, f.tl.SetLockDuration(ctx, f.admin, 1<<62))

	receipt, err := f.tl.LockTokens(ctx, f.user, f.asset, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<62), receipt.After.LockEnd)

	v := &receipt.After
	assert.Equal(t, time.Duration(math.MaxInt64), f.tl.Remaining(v))
	assert.True(t, strings.HasPrefix(f.tl.VaultState(v), "locked 2562047h"), f.tl.VaultState(v))
	assert.Equal(t, 9999, receipt.UnlockTime().UTC().Year())
}

func TestSecondsAndUnixTime(t *testing.T) {
	assert.Equal(t, 90*time.Second, Seconds(90))
	assert.Equal(t, time.Duration(math.MaxInt64), Seconds(math.MaxUint64))
	assert.Equal(t, time.Duration(math.MaxInt64), Seconds(1<<62))
	assert.Equal(t, 9223372036*time.Second, Seconds(9223372036))

	assert.Equal(t, int64(1700000000), UnixTime(1700000000).Unix())
	assert.Equal(t, "9999-12-31T23:59:59Z", UnixTime(math.MaxUint64).UTC().Format(time.RFC3339))
	assert.Equal(t, "9999-12-31T23:59:59Z", UnixTime(1<<63).UTC().Format(time.RFC3339))
}

func TestNegativeClockClamps(t *testing.T) {
	f := newFixture(t)
	f.clock.now = -5
	assert.Equal(t, uint64(0), f.tl.Now())
}

func TestErrorClassification(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), ErrLockPeriodNotOver)
	assert.Equal(t, KindState, KindOf(wrapped))
	assert.Equal(t, "LockPeriodNotOver", CodeOf(wrapped))

	plain := errors.New("boom")
	assert.Equal(t, KindUnknown, KindOf(plain))
	assert.Equal(t, "", CodeOf(plain))

	dup := &Error{Code: "Overflow"}
	assert.ErrorIs(t, dup, ErrOverflow)
	assert.NotErrorIs(t, ErrInvalidAmount, ErrInvalidDuration)
}

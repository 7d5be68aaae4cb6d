package core

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/illarion/timelock/internal/identity"
	"github.com/illarion/timelock/internal/storage"
)

// Operation names, used in logs and metrics
const (
	OpInitialize      = "initialize"
	OpAddAsset        = "add_supported_asset"
	OpSetLockDuration = "set_lock_duration"
	OpLock            = "lock_tokens"
	OpUnlock          = "unlock_tokens"
	OpIssue           = "issue"
)

var errRollback = errors.New("dry run rollback")

// Observer is notified once per finished operation
type Observer interface {
	ObserveOperation(op string, err error)
}

// TimeLock runs custody operations against a store
type TimeLock struct {
	db       *storage.Storage
	now      func() time.Time
	log      *slog.Logger
	observer Observer
	dryRun   bool
}

// Option configures a TimeLock
type Option func(*TimeLock)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(t *TimeLock) { t.now = now }
}

// WithLogger sets the logger for operation events
func WithLogger(log *slog.Logger) Option {
	return func(t *TimeLock) { t.log = log }
}

// WithObserver registers an operation observer, e.g. metrics
func WithObserver(o Observer) Option {
	return func(t *TimeLock) { t.observer = o }
}

// New creates a TimeLock over an open store
func New(db *storage.Storage, opts ...Option) *TimeLock {
	t := &TimeLock{
		db:  db,
		now: time.Now,
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// DryRun returns a TimeLock whose mutating operations are rolled back
// after they succeed. Receipts still describe what would have happened.
func (t *TimeLock) DryRun() *TimeLock {
	c := *t
	c.dryRun = true
	c.log = t.log.With("dry_run", true)
	return &c
}

// Now returns the current timestamp in unix seconds as seen by operations
func (t *TimeLock) Now() uint64 {
	sec := t.now().Unix()
	if sec < 0 {
		return 0
	}
	return uint64(sec)
}

// maxUnix is 9999-12-31T23:59:59Z, the last instant time.Time formats sanely
const maxUnix = 253402300799

// Seconds converts a count of seconds to a Duration, saturating at the
// largest Duration instead of wrapping
func Seconds(s uint64) time.Duration {
	if s > uint64(math.MaxInt64/int64(time.Second)) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(s) * time.Second
}

// UnixTime converts a stored timestamp to a time, saturating at maxUnix
func UnixTime(ts uint64) time.Time {
	if ts > maxUnix {
		ts = maxUnix
	}
	return time.Unix(int64(ts), 0)
}

// update runs fn as one atomic operation
func (t *TimeLock) update(ctx context.Context, op string, fn func(tx *storage.Tx) error) (err error) {
	defer func() {
		if t.observer != nil && !t.dryRun {
			t.observer.ObserveOperation(op, err)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	err = t.db.Update(func(tx *storage.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		if t.dryRun {
			return errRollback
		}
		return nil
	})
	if errors.Is(err, errRollback) {
		return nil
	}
	return err
}

func (t *TimeLock) view(ctx context.Context, fn func(tx *storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.db.View(fn)
}

// requireAdmin loads the settings and checks caller against the admin
func requireAdmin(tx *storage.Tx, caller identity.Identity) (*storage.AdminSettings, error) {
	settings, err := loadSettings(tx)
	if err != nil {
		return nil, err
	}
	if settings.Admin != caller {
		return nil, ErrUnauthorized
	}
	return settings, nil
}

func loadSettings(tx *storage.Tx) (*storage.AdminSettings, error) {
	settings, err := tx.AdminSettings()
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, ErrNotInitialized
	}
	return settings, nil
}

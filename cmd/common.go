package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/illarion/timelock/internal/amount"
	"github.com/illarion/timelock/internal/config"
	"github.com/illarion/timelock/internal/core"
	"github.com/illarion/timelock/internal/crypto"
	"github.com/illarion/timelock/internal/identity"
	"github.com/illarion/timelock/internal/keyring"
	"github.com/illarion/timelock/internal/keystore"
	"github.com/illarion/timelock/internal/ledger"
	"github.com/illarion/timelock/internal/storage"
	"github.com/illarion/timelock/internal/telemetry"
)

// App bundles the opened resources a command works with
type App struct {
	Config   *config.Config
	Log      *slog.Logger
	DB       *storage.Storage
	Metrics  *telemetry.Metrics
	TimeLock *core.TimeLock

	closed bool
}

// current is the open App, closed by HandleError before it exits
var current *App

// LoadConfig loads the configuration or exits
func LoadConfig() *config.Config {
	cfg, err := config.Load(os.Getenv(config.PathEnv))
	if err != nil {
		HandleError(err)
	}
	return cfg
}

// OpenApp opens the database and wires logging and metrics around it
func OpenApp() *App {
	cfg := LoadConfig()
	log := cfg.Log.NewLogger(os.Stderr)

	db, err := storage.Open(cfg.Database)
	if err != nil {
		HandleError(err)
	}

	metrics := telemetry.New()
	if err := metrics.RegisterState(db); err != nil {
		db.Close()
		HandleError(err)
	}

	tl := core.New(db,
		core.WithLogger(log),
		core.WithObserver(metrics))

	current = &App{
		Config:   cfg,
		Log:      log,
		DB:       db,
		Metrics:  metrics,
		TimeLock: tl,
	}
	return current
}

// Close exports metrics when a metrics file is configured and closes the
// database. Calling it again is a no-op.
func (a *App) Close() {
	if a.closed {
		return
	}
	a.closed = true
	if current == a {
		current = nil
	}

	if a.Config.MetricsFile != "" {
		if err := a.Metrics.WriteTextfile(a.Config.MetricsFile); err != nil {
			a.Log.Warn("metrics export failed", "error", err)
		}
	}
	if err := a.DB.Close(); err != nil {
		a.Log.Warn("failed to close database", "error", err)
	}
}

// OpenKeystore opens the configured keystore or exits
func OpenKeystore(cfg *config.Config) *keystore.Store {
	ks, err := keystore.Open(cfg.Keystore)
	if err != nil {
		HandleError(err)
	}
	return ks
}

// LoadSigner unseals the key called name. The password comes from
// TIMELOCK_PASSWORD, then the OS keyring entry of this database, then a prompt.
func (a *App) LoadSigner(name string) *identity.Keypair {
	if name == "" {
		HandleError(errors.New("--key is required"))
	}
	ks := OpenKeystore(a.Config)
	defer ks.Close()

	if password := keystore.PasswordFromEnv(); password != nil {
		defer crypto.ClearBytes(password)
		kp, err := ks.Load(name, password)
		if err != nil {
			HandleError(err)
		}
		return kp
	}

	if cached, ok := a.cachedPassword(name); ok {
		kp, err := ks.Load(name, []byte(cached))
		if err == nil {
			return kp
		}
		if !errors.Is(err, keystore.ErrWrongPassword) {
			HandleError(err)
		}
		fmt.Fprintln(os.Stderr, "Keyring password is stale, please enter it")
	}

	password, err := keystore.ReadPassword(fmt.Sprintf("Password for %s: ", name))
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(password)

	kp, err := ks.Load(name, password)
	if err != nil {
		HandleError(err)
	}
	return kp
}

func (a *App) cachedPassword(name string) (string, bool) {
	if !a.Config.UseKeyring {
		return "", false
	}
	storeID, err := a.DB.GetStoreID()
	if err != nil {
		return "", false
	}
	cached, err := keyring.GetPassword(storeID, name)
	if err != nil {
		return "", false
	}
	return cached, true
}

// GetPasswordForKeygen reads a new password from the environment or a
// confirmed prompt. The caller clears it.
func GetPasswordForKeygen() ([]byte, error) {
	if password := keystore.PasswordFromEnv(); password != nil {
		return password, nil
	}
	return keystore.ReadPasswordConfirm()
}

// ResolveIdentity accepts a base58 identity or the name of a stored key
func ResolveIdentity(cfg *config.Config, s string) identity.Identity {
	id, err := identity.Parse(s)
	if err == nil {
		return id
	}

	ks, ksErr := keystore.Open(cfg.Keystore)
	if ksErr == nil {
		defer ks.Close()
		if addr, err := ks.Address(s); err == nil {
			return addr
		}
	}
	fmt.Fprintf(os.Stderr, "Error: %q is neither an identity nor a known key\n", s)
	os.Exit(1)
	return identity.Zero
}

// ParseAmount parses a decimal amount scaled by the configured decimals
func ParseAmount(cfg *config.Config, s string) uint64 {
	v, err := amount.Parse(s, cfg.Decimals)
	if err != nil {
		HandleError(err)
	}
	return v
}

// FormatAmount renders a raw amount with the configured decimals
func FormatAmount(cfg *config.Config, v uint64) string {
	return amount.Format(v, cfg.Decimals)
}

// ParseDuration accepts whole seconds ("86400") or a Go duration ("24h")
func ParseDuration(s string) (uint64, error) {
	if secs, err := strconv.ParseUint(s, 10, 64); err == nil {
		return secs, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: use seconds or a value like 24h", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid duration %q: negative", s)
	}
	if d%time.Second != 0 {
		return 0, fmt.Errorf("invalid duration %q: must be whole seconds", s)
	}
	return uint64(d / time.Second), nil
}

// HandleError prints err with a hint and exits. An App that is still open
// is closed first so its metrics are exported.
func HandleError(err error) {
	if current != nil {
		current.Close()
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	if hint := errorHint(err); hint != "" {
		fmt.Fprintln(os.Stderr, hint)
	}
	os.Exit(1)
}

func errorHint(err error) string {
	switch {
	case errors.Is(err, core.ErrNotInitialized):
		return "Run 'timelock init --key <admin>' first"
	case errors.Is(err, core.ErrAlreadyInitialized):
		return "Use 'timelock status' to see the current settings"
	case errors.Is(err, core.ErrUnauthorized):
		return "Only the admin key may do this"
	case errors.Is(err, core.ErrAssetNotSupported):
		return "The admin must run 'timelock add-asset' for it first"
	case errors.Is(err, core.ErrLockPeriodNotOver):
		return "Try again after the lock ends; 'timelock status' shows when"
	case errors.Is(err, core.ErrNoLockedTokens):
		return "Nothing is locked for this key and asset"
	case errors.Is(err, ledger.ErrInsufficientFunds), errors.Is(err, ledger.ErrAccountNotFound):
		return "Check the balance with 'timelock balance'"
	case errors.Is(err, keystore.ErrKeyNotFound):
		return "Create one with 'timelock keygen <name>' or list them with 'timelock keys'"
	case errors.Is(err, keystore.ErrWrongPassword):
		return "Wrong password"
	case errors.Is(err, fs.ErrPermission):
		return "Check file permissions of the database and keystore"
	}

	switch core.KindOf(err) {
	case core.KindInternal:
		return "Stored state is inconsistent; please report this"
	case core.KindArithmetic:
		return "The resulting amount or time does not fit"
	}
	return ""
}

func shortTime(ts uint64) string {
	if ts == 0 {
		return "-"
	}
	return core.UnixTime(ts).Local().Format("2006-01-02 15:04:05")
}

func pad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}

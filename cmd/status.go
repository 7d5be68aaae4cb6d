package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/illarion/timelock/internal/core"
	"github.com/illarion/timelock/internal/git"
	"github.com/illarion/timelock/internal/identity"
)

// Status shows settings, supported assets and vaults. No password needed.
func Status(ctx context.Context, ownerArg string) {
	cfg := LoadConfig()
	if _, err := os.Stat(cfg.Database); err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("No timelock database at %s\n", cfg.Database)
			fmt.Println("Run 'timelock init --key <admin>' to create one")
			return
		}
		HandleError(err)
	}

	app := OpenApp()
	defer app.Close()
	tl := app.TimeLock

	owner := identity.Zero
	if ownerArg != "" {
		owner = ResolveIdentity(app.Config, ownerArg)
	}

	settings, err := tl.Settings(ctx)
	switch {
	case errors.Is(err, core.ErrNotInitialized):
		fmt.Println("Settings: not initialized")
	case err != nil:
		HandleError(err)
	default:
		fmt.Println("Settings:")
		fmt.Printf("  Admin:         %s\n", settings.Admin)
		fmt.Printf("  Lock duration: %ds (%s)\n", settings.DefaultLockDuration,
			core.Seconds(settings.DefaultLockDuration))
	}

	assets, err := tl.SupportedAssets(ctx)
	if err != nil {
		HandleError(err)
	}
	fmt.Println("\nSupported assets:")
	if len(assets) == 0 {
		fmt.Println("  (none)")
	}
	for _, a := range assets {
		fmt.Printf("  %s\n", a.AssetID)
	}

	vaults, err := tl.Vaults(ctx, owner)
	if err != nil {
		HandleError(err)
	}
	fmt.Println("\nVaults:")
	if len(vaults) == 0 {
		fmt.Println("  (none)")
	}
	for i := range vaults {
		v := &vaults[i]
		fmt.Printf("  %s / %s  %s  ends %s  [%s]\n",
			v.Owner.Short(), v.AssetID.Short(),
			pad(FormatAmount(app.Config, v.LockedAmount), 12),
			shortTime(v.LockEnd), tl.VaultState(v))
	}

	if modified, err := app.DB.GetModified(); err == nil && !modified.IsZero() {
		fmt.Printf("\nDatabase: %s (last modified: %s)\n", app.Config.Database, modified.Format(time.RFC3339))
	}

	wd, err := os.Getwd()
	if err == nil {
		fmt.Print(git.Check(wd, relTo(wd, app.Config.Database), relTo(wd, app.Config.Keystore)).Format())
	}
}

func relTo(base, path string) string {
	if !filepath.IsAbs(path) {
		return path
	}
	if rel, err := filepath.Rel(base, path); err == nil {
		return rel
	}
	return path
}

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/illarion/timelock/internal/config"
	"github.com/illarion/timelock/internal/core"
)

// Lock moves amount of asset into custody for the key's owner
func Lock(ctx context.Context, key, assetArg, amountArg string, dryRun bool) error {
	app := OpenApp()
	defer app.Close()

	asset := ResolveIdentity(app.Config, assetArg)
	value := ParseAmount(app.Config, amountArg)

	owner := app.LoadSigner(key)
	defer owner.Destroy()

	tl := app.TimeLock
	if dryRun {
		tl = tl.DryRun()
	}
	receipt, err := tl.LockTokens(ctx, owner, asset, value)
	if err != nil {
		return err
	}

	printReceipt(app.Config, receipt)
	return nil
}

func printReceipt(cfg *config.Config, r *core.Receipt) {
	if r.DryRun {
		fmt.Println("Dry run, nothing was changed:")
		fmt.Print(core.DiffVaults(r.Before, r.After))
		fmt.Println()
	}

	switch r.Operation {
	case core.OpLock:
		fmt.Printf("✓ Locked %s tokens until %s\n",
			FormatAmount(cfg, r.Amount), r.UnlockTime().Local().Format(time.RFC1123))
		if !r.Before.Dormant() {
			fmt.Printf("  Vault now holds %s; the lock window restarted\n", FormatAmount(cfg, r.After.LockedAmount))
		}
	case core.OpUnlock:
		fmt.Printf("✓ Unlocked %s tokens\n", FormatAmount(cfg, r.Amount))
	}
	fmt.Printf("  Custody authority: %s\n", r.Authority)
}

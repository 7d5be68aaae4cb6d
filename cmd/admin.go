package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/timelock/internal/core"
)

// AddAsset registers asset as lockable
func AddAsset(ctx context.Context, key, assetArg string) error {
	app := OpenApp()
	defer app.Close()

	asset := ResolveIdentity(app.Config, assetArg)
	admin := app.LoadSigner(key)
	defer admin.Destroy()

	if _, err := app.TimeLock.AddSupportedAsset(ctx, admin, asset); err != nil {
		return err
	}
	fmt.Printf("✓ Asset %s is now supported\n", asset)
	return nil
}

// SetDuration changes the default lock duration
func SetDuration(ctx context.Context, key, value string) error {
	seconds, err := ParseDuration(value)
	if err != nil {
		return err
	}

	app := OpenApp()
	defer app.Close()

	admin := app.LoadSigner(key)
	defer admin.Destroy()

	if err := app.TimeLock.SetLockDuration(ctx, admin, seconds); err != nil {
		return err
	}
	fmt.Printf("✓ Lock duration set to %ds (%s)\n", seconds, core.Seconds(seconds))
	fmt.Println("Existing locks keep their current end time")
	return nil
}

// Fund issues amount of asset to holder
func Fund(ctx context.Context, key, holderArg, assetArg, amountArg string) error {
	app := OpenApp()
	defer app.Close()

	holder := ResolveIdentity(app.Config, holderArg)
	asset := ResolveIdentity(app.Config, assetArg)
	value := ParseAmount(app.Config, amountArg)

	admin := app.LoadSigner(key)
	defer admin.Destroy()

	balance, err := app.TimeLock.Issue(ctx, admin, holder, asset, value)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Issued %s to %s (balance %s)\n",
		FormatAmount(app.Config, value), holder.Short(), FormatAmount(app.Config, balance))
	return nil
}

package cmd

import (
	"context"
)

// Unlock releases the key owner's vault for asset once its window is over
func Unlock(ctx context.Context, key, assetArg string, dryRun bool) error {
	app := OpenApp()
	defer app.Close()

	asset := ResolveIdentity(app.Config, assetArg)

	owner := app.LoadSigner(key)
	defer owner.Destroy()

	tl := app.TimeLock
	if dryRun {
		tl = tl.DryRun()
	}
	receipt, err := tl.UnlockTokens(ctx, owner, asset)
	if err != nil {
		return err
	}

	printReceipt(app.Config, receipt)
	return nil
}

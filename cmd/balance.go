package cmd

import (
	"context"
	"fmt"
)

// Balance prints the ledger balance of holder for asset
func Balance(ctx context.Context, holderArg, assetArg string) {
	app := OpenApp()
	defer app.Close()

	holder := ResolveIdentity(app.Config, holderArg)
	asset := ResolveIdentity(app.Config, assetArg)

	balance, err := app.TimeLock.Balance(ctx, holder, asset)
	if err != nil {
		HandleError(err)
	}
	fmt.Println(FormatAmount(app.Config, balance))
}

// Authority previews the custody derivation for owner and asset
func Authority(ownerArg, assetArg string) {
	app := OpenApp()
	defer app.Close()

	owner := ResolveIdentity(app.Config, ownerArg)
	asset := ResolveIdentity(app.Config, assetArg)

	info, err := app.TimeLock.Authority(owner, asset)
	if err != nil {
		HandleError(err)
	}
	fmt.Printf("Authority:       %s\n", info.Address)
	fmt.Printf("Bump:            %d\n", info.Bump)
	fmt.Printf("Custody account: %s\n", info.CustodyAccount)
}

package cmd

import (
	"context"
	"fmt"
)

// Init creates the admin settings with key as admin
func Init(ctx context.Context, key string) error {
	app := OpenApp()
	defer app.Close()

	admin := app.LoadSigner(key)
	defer admin.Destroy()

	settings, err := app.TimeLock.Initialize(ctx, admin)
	if err != nil {
		return err
	}

	fmt.Println("✓ Initialized timelock")
	fmt.Printf("Admin:         %s\n", settings.Admin)
	fmt.Printf("Lock duration: %ds\n", settings.DefaultLockDuration)
	return nil
}

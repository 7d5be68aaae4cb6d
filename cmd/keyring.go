package cmd

import (
	"fmt"

	"github.com/illarion/timelock/internal/config"
	"github.com/illarion/timelock/internal/crypto"
	"github.com/illarion/timelock/internal/keyring"
	"github.com/illarion/timelock/internal/keystore"
	"github.com/illarion/timelock/internal/storage"
)

// storeID returns the ID keyring entries of the configured database are
// scoped to. With create unset a database without one yields "".
func storeID(cfg *config.Config, create bool) (string, error) {
	db, err := storage.Open(cfg.Database)
	if err != nil {
		return "", err
	}
	defer db.Close()

	if create {
		return db.GetOrCreateStoreID()
	}
	id, err := db.GetStoreID()
	if err != nil {
		return "", nil
	}
	return id, nil
}

// KeyringSave verifies the password of key and caches it in the OS keyring
func KeyringSave(key string) error {
	cfg := LoadConfig()
	ks := OpenKeystore(cfg)
	defer ks.Close()

	password, err := keystore.ReadPassword(fmt.Sprintf("Password for %s: ", key))
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(password)

	kp, err := ks.Load(key, password)
	if err != nil {
		return err
	}
	kp.Destroy()

	id, err := storeID(cfg, true)
	if err != nil {
		return err
	}
	if err := keyring.SavePassword(id, key, string(password)); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	fmt.Println("Password saved to keyring")
	return nil
}

// KeyringDelete removes the cached password of key
func KeyringDelete(key string) error {
	id, err := storeID(LoadConfig(), false)
	if err != nil {
		return err
	}
	if id != "" {
		if err := keyring.DeletePassword(id, key); err != nil {
			return err
		}
	}
	fmt.Println("Password removed from keyring")
	return nil
}

// KeyringStatus reports whether a password is cached for key
func KeyringStatus(key string) error {
	id, err := storeID(LoadConfig(), false)
	if err != nil {
		return err
	}
	if id != "" && keyring.HasPassword(id, key) {
		fmt.Println("Password: stored in keyring")
	} else {
		fmt.Println("Password: not stored")
	}
	return nil
}

// Package keyring caches keystore passwords in the OS keyring. Entries are
// scoped to a timelock database by its store ID, so keys with the same name
// in different workspaces do not share a password.
package keyring

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const serviceName = "timelock"

var ErrNotFound = keyring.ErrNotFound

func account(storeID, name string) string {
	return storeID + "/" + name
}

// SavePassword stores the password of key name for the given store
func SavePassword(storeID, name, password string) error {
	return keyring.Set(serviceName, account(storeID, name), password)
}

// GetPassword returns the cached password of key name, ErrNotFound if none
func GetPassword(storeID, name string) (string, error) {
	return keyring.Get(serviceName, account(storeID, name))
}

// DeletePassword removes the cached password of key name
func DeletePassword(storeID, name string) error {
	err := keyring.Delete(serviceName, account(storeID, name))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

func HasPassword(storeID, name string) bool {
	_, err := keyring.Get(serviceName, account(storeID, name))
	return err == nil
}

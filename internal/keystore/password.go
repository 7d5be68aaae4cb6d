package keystore

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/illarion/timelock/internal/crypto"
)

// PasswordEnv names the variable checked before prompting
const PasswordEnv = "TIMELOCK_PASSWORD"

// ReadPassword reads a password from the terminal without echoing
func ReadPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return password, nil
}

// ReadPasswordConfirm reads a password twice and ensures both match
func ReadPasswordConfirm() ([]byte, error) {
	first, err := ReadPassword("Enter password: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(first)

	second, err := ReadPassword("Confirm password: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(second)

	if !crypto.ConstantTimeCompare(first, second) {
		return nil, fmt.Errorf("passwords do not match")
	}
	return append([]byte(nil), first...), nil
}

// PasswordFromEnv returns a copy of TIMELOCK_PASSWORD, nil when unset
func PasswordFromEnv() []byte {
	password := os.Getenv(PasswordEnv)
	if password == "" {
		return nil
	}
	return []byte(password)
}

package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/timelock/internal/crypto"
)

// Keygen creates a new sealed signing key
func Keygen(name string) {
	cfg := LoadConfig()
	ks := OpenKeystore(cfg)
	defer ks.Close()

	password, err := GetPasswordForKeygen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	defer crypto.ClearBytes(password)

	kp, err := ks.Create(name, password)
	if err != nil {
		HandleError(err)
	}
	defer kp.Destroy()

	fmt.Printf("Created key %s\n", name)
	fmt.Printf("Address: %s\n", kp.Address())
}

// Keys lists stored keys
func Keys() {
	cfg := LoadConfig()
	ks := OpenKeystore(cfg)
	defer ks.Close()

	entries, err := ks.List()
	if err != nil {
		HandleError(err)
	}
	if len(entries) == 0 {
		fmt.Printf("No keys in %s\n", ks.Dir())
		fmt.Println("Run 'timelock keygen <name>' to create one")
		return
	}
	for _, e := range entries {
		fmt.Printf("%s %s\n", pad(e.Name, 16), e.Address)
	}
}

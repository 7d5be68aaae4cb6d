// Package identity defines the 32-byte identities used for administrators,
// owners, assets and ledger accounts.
//
// Identities are printed in base58, the same text form wallets use for
// ed25519 public keys. A Keypair is an ed25519 key whose public half is its
// identity; it satisfies Signer and is how callers prove who they are.
package identity

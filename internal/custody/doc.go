// Package custody derives the addresses that control vault custody accounts.
//
// An address is blake2b-256 over a domain prefix, the seeds and a one-byte
// bump. Derivation walks the bump down from 255 and keeps the first hash
// that is NOT a valid ed25519 point, so no private key can exist for it.
// The resulting Authority is a capability built on demand from public
// inputs; the ledger accepts it as the signer of a custody account whose
// controller equals Authority.Address.
package custody

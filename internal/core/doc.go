// Package core implements the time-locked custody state machine.
//
// Operations:
//   - Initialize: create the admin settings singleton (caller becomes admin)
//   - AddSupportedAsset: admin adds an asset to the lock allow-list
//   - SetLockDuration: admin changes the duration applied to future locks
//   - LockTokens: move funds into custody, creating or extending the vault
//   - UnlockTokens: once the window has elapsed, return everything to the owner
//
// Each operation runs in exactly one storage transaction. A vault with a
// zero locked amount is dormant and is reused by the next lock; vaults are
// never deleted.
//
// Every lock, including a top-up of an active vault, restarts the window
// from the current time using the current default duration.
package core

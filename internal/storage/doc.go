// Package storage provides the BBolt database behind timelock.
//
// Database structure uses five buckets:
//   - meta: schema version, creation and modification timestamps, store ID
//   - config: the admin settings singleton
//   - assets: supported asset records keyed by asset ID
//   - vaults: vault records keyed by owner || asset
//   - accounts: ledger accounts keyed by account address
//
// Records use fixed little-endian layouts (see records.go) so the byte form
// of every record is stable across versions.
//
// Every operation runs inside one BBolt read-write transaction through
// Storage.Update: either all of its writes land or none do. BBolt also
// serializes writers and holds a file lock, so two processes never
// interleave partial updates of the same vault.
package storage

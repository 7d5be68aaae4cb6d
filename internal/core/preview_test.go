package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/illarion/timelock/internal/storage"
)

func TestDiffVaults(t *testing.T) {
	before := storage.Vault{LockStart: 0, LockEnd: 86400, LockedAmount: 100, Bump: 254}
	after := before
	after.LockedAmount = 150
	after.LockStart = 1000
	after.LockEnd = 87400

	diff := DiffVaults(before, after)
	assert.Contains(t, diff, "--- vault (before)")
	assert.Contains(t, diff, "-locked_amount:   100\n")
	assert.Contains(t, diff, "+locked_amount:   150\n")
	assert.Contains(t, diff, " bump:            254\n")
	assert.True(t, strings.Contains(diff, "+lock_end:        87400 ("))

	assert.Empty(t, DiffVaults(before, before))
}

func TestRenderVaultZeroTimestamps(t *testing.T) {
	out := RenderVault(storage.Vault{})
	assert.Contains(t, out, "lock_start:      0\n")
	assert.Contains(t, out, "lock_end:        0\n")
}

func TestRenderVaultFarTimestamp(t *testing.T) {
	out := RenderVault(storage.Vault{LockEnd: 1 << 63})
	assert.Contains(t, out, "lock_end:        9223372036854775808 (9999-12-31T23:59:59Z)\n")
}

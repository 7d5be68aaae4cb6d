package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/illarion/timelock/internal/storage"
)

// RenderVault formats a vault as one field per line
func RenderVault(v storage.Vault) string {
	var b strings.Builder
	fmt.Fprintf(&b, "owner:           %s\n", v.Owner)
	fmt.Fprintf(&b, "asset:           %s\n", v.AssetID)
	fmt.Fprintf(&b, "lock_start:      %s\n", formatTimestamp(v.LockStart))
	fmt.Fprintf(&b, "lock_end:        %s\n", formatTimestamp(v.LockEnd))
	fmt.Fprintf(&b, "locked_amount:   %d\n", v.LockedAmount)
	fmt.Fprintf(&b, "bump:            %d\n", v.Bump)
	fmt.Fprintf(&b, "custody_account: %s\n", v.CustodyAccount)
	return b.String()
}

func formatTimestamp(ts uint64) string {
	if ts == 0 {
		return "0"
	}
	return fmt.Sprintf("%d (%s)", ts, UnixTime(ts).UTC().Format(time.RFC3339))
}

// DiffVaults returns a line diff of two vault states, or "" if they are equal
func DiffVaults(before, after storage.Vault) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(RenderVault(before), RenderVault(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	out.WriteString("--- vault (before)\n")
	out.WriteString("+++ vault (after)\n")
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(line)
		}
	}
	return out.String()
}

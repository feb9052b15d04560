package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ligun0805/crowdsale-console/internal/crowdsale"
)

var tierColumns = []string{"#", "Name", "Start", "End", "Rate", "Supply", "Whitelist", "Pending", "Edit"}

const editCol = 8

// tierCell is the text shown at column col for tier t at index i.
func tierCell(i int, t crowdsale.Tier, col int) string {
	switch col {
	case 0:
		return strconv.Itoa(i)
	case 1:
		if t.Tier == "" { return "-" }
		return t.Tier
	case 2:
		return t.StartTime
	case 3:
		return t.EndTime
	case 4:
		return t.Rate
	case 5:
		return t.Supply
	case 6:
		return fmt.Sprintf("%s (%d)", t.WhitelistEnabled, len(t.Whitelist))
	case 7:
		if n := len(crowdsale.PendingWhitelist(t.Whitelist)); n > 0 {
			return strconv.Itoa(n)
		}
		return ""
	}
	return ""
}

func describeUpdate(u crowdsale.Update) string {
	if u.Key == crowdsale.AttrWhitelist {
		return fmt.Sprintf("tier %d: whitelist +%d address(es)", u.Tier, len(u.Whitelist))
	}
	return fmt.Sprintf("tier %d: %s -> %s", u.Tier, u.Key, u.Time)
}

func describeUpdates(updates []crowdsale.Update) string {
	lines := make([]string, 0, len(updates))
	for _, u := range updates {
		lines = append(lines, "• "+describeUpdate(u))
	}
	return strings.Join(lines, "\n")
}

func pendingText(n int) string {
	switch n {
	case 0:
		return "No pending changes"
	case 1:
		return "1 pending change"
	}
	return fmt.Sprintf("%d pending changes", n)
}

func reservedText(r crowdsale.ReservedToken) string {
	if r.Dim == "percentage" {
		return fmt.Sprintf("%s: %s%%", r.Addr, r.Val)
	}
	return fmt.Sprintf("%s: %s %s", r.Addr, r.Val, r.Dim)
}

func shortAddr(a string) string {
	if len(a) <= 12 { return a }
	return a[:6] + "…" + a[len(a)-4:]
}

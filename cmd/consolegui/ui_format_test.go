package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ligun0805/crowdsale-console/internal/crowdsale"
)

func TestTierCell(t *testing.T) {
	tier := crowdsale.Tier{
		Tier:             "Tier 1",
		StartTime:        "2024-01-01T00:00",
		EndTime:          "2024-01-02T00:00",
		Rate:             "1000",
		Supply:           "500",
		WhitelistEnabled: "yes",
		Whitelist: []crowdsale.WhitelistEntry{
			{Addr: "0xaa", Stored: true},
			{Addr: "0xbb"},
		},
	}
	want := []string{"3", "Tier 1", "2024-01-01T00:00", "2024-01-02T00:00", "1000", "500", "yes (2)", "1", ""}
	for col, w := range want {
		assert.Equal(t, w, tierCell(3, tier, col), "col %d", col)
	}

	tier.Tier = ""
	tier.Whitelist = nil
	assert.Equal(t, "-", tierCell(0, tier, 1))
	assert.Equal(t, "", tierCell(0, tier, 7))
	assert.Len(t, tierColumns, editCol+1)
}

func TestDescribeUpdates(t *testing.T) {
	got := describeUpdates([]crowdsale.Update{
		{Key: crowdsale.AttrEndTime, Tier: 0, Time: "2024-01-03T00:00"},
		{Key: crowdsale.AttrWhitelist, Tier: 2, Whitelist: make([]crowdsale.WhitelistEntry, 3)},
	})
	assert.Equal(t, "• tier 0: endTime -> 2024-01-03T00:00\n• tier 2: whitelist +3 address(es)", got)
}

func TestPendingText(t *testing.T) {
	assert.Equal(t, "No pending changes", pendingText(0))
	assert.Equal(t, "1 pending change", pendingText(1))
	assert.Equal(t, "4 pending changes", pendingText(4))
}

func TestReservedText(t *testing.T) {
	assert.Equal(t, "0x01: 2.5%", reservedText(crowdsale.ReservedToken{Addr: "0x01", Dim: "percentage", Val: "2.5"}))
	assert.Equal(t, "0x01: 10 tokens", reservedText(crowdsale.ReservedToken{Addr: "0x01", Dim: "tokens", Val: "10"}))
}

func TestShortAddr(t *testing.T) {
	assert.Equal(t, "0x1234…cdef", shortAddr("0x1234567890abcdef"))
	assert.Equal(t, "0x12", shortAddr("0x12"))
}

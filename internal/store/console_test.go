package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ligun0805/crowdsale-console/internal/crowdsale"
)

const (
	addrA = "0x00000000000000000000000000000000000000Aa"
	addrB = "0x00000000000000000000000000000000000000bB"
)

func processed(idx int, updatable bool) crowdsale.ProcessedTier {
	tier := crowdsale.Tier{
		Tier:      "Tier",
		StartTime: "2024-01-01T00:00",
		EndTime:   "2024-01-02T00:00",
		Rate:      "1000",
		Updatable: updatable,
		Whitelist: []crowdsale.WhitelistEntry{{Addr: addrA, Min: "1", Max: "2", Stored: true}},
	}
	p := crowdsale.ProcessedTier{
		Tier:      tier,
		Token:     crowdsale.TokenInfo{Ticker: "CTK", Decimals: 18},
		Updatable: updatable,
		Initial:   crowdsale.InitialValues{Index: idx, Duration: 86_400_000, Updatable: updatable},
	}
	if updatable {
		p.Initial.StartTime = tier.StartTime
		p.Initial.EndTime = tier.EndTime
		p.Initial.Whitelist = tier.Whitelist
	}
	return p
}

func loaded(t *testing.T, strategy crowdsale.Strategy) *Console {
	t.Helper()
	c := New(time.UTC)
	c.Reset(strategy, "0xexec")
	c.Apply(processed(1, false))
	c.Apply(processed(0, true))
	return c
}

func TestConsole_Apply(t *testing.T) {
	c := loaded(t, crowdsale.MintedCapped)
	require.Len(t, c.Tiers(), 2)
	require.Len(t, c.InitialValues(), 1, "only updatable tiers are tracked")
	assert.Equal(t, 0, c.InitialValues()[0].Index)
	assert.True(t, c.Updatable())
	assert.Equal(t, "CTK", c.Token().Ticker)

	tiers := c.Tiers()
	tiers[0].EndTime = "changed"
	tier, err := c.Tier(0)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02T00:00", tier.EndTime, "Tiers returns copies")

	_, err = c.Tier(5)
	assert.ErrorIs(t, err, ErrNoTier)

	c.Reset(crowdsale.DutchAuction, "0xother")
	assert.Empty(t, c.Tiers())
	assert.False(t, c.Updatable())
}

func TestConsole_SetTimes(t *testing.T) {
	c := loaded(t, crowdsale.MintedCapped)

	require.NoError(t, c.SetEndTime(0, "2024-01-03T00:00"))
	tier, _ := c.Tier(0)
	assert.Equal(t, "2024-01-03T00:00", tier.EndTime)

	assert.ErrorIs(t, c.SetEndTime(0, "2023-12-31T00:00"), crowdsale.ErrBadTime)
	assert.ErrorIs(t, c.SetEndTime(0, "soon"), crowdsale.ErrBadTime)
	assert.ErrorIs(t, c.SetEndTime(1, "2024-01-03T00:00"), ErrReadOnly)
	assert.ErrorIs(t, c.SetStartTime(0, "2024-01-01T01:00"), crowdsale.ErrNotUpdatable)

	d := loaded(t, crowdsale.DutchAuction)
	require.NoError(t, d.SetStartTime(0, "2024-01-01T01:00"))
	assert.ErrorIs(t, d.SetStartTime(0, "2024-01-02T01:00"), crowdsale.ErrBadTime)
}

func TestConsole_Whitelist(t *testing.T) {
	c := loaded(t, crowdsale.MintedCapped)

	assert.ErrorIs(t, c.AddWhitelistEntry(0, crowdsale.WhitelistEntry{Addr: "0xAA", Min: "1", Max: "2"}), crowdsale.ErrBadWhitelist)
	assert.ErrorIs(t, c.AddWhitelistEntry(0, crowdsale.WhitelistEntry{Addr: addrB, Min: "3", Max: "2"}), crowdsale.ErrBadWhitelist)
	assert.ErrorIs(t, c.AddWhitelistEntry(0, crowdsale.WhitelistEntry{Addr: "0x00000000000000000000000000000000000000aa", Min: "1", Max: "2"}), ErrDuplicate)

	require.NoError(t, c.AddWhitelistEntry(0, crowdsale.WhitelistEntry{Addr: addrB, Min: "1", Max: "5", Stored: true}))
	tier, _ := c.Tier(0)
	require.Len(t, tier.Whitelist, 2)
	assert.False(t, tier.Whitelist[1].Stored, "new entries are pending")

	assert.ErrorIs(t, c.RemoveWhitelistEntry(0, addrA), ErrStored)
	require.NoError(t, c.RemoveWhitelistEntry(0, addrB))
	assert.Error(t, c.RemoveWhitelistEntry(0, addrB))

	require.NoError(t, c.AddWhitelistEntry(0, crowdsale.WhitelistEntry{Addr: addrB, Min: "1", Max: "5"}))
	c.MarkWhitelistStored(0, []crowdsale.WhitelistEntry{{Addr: addrB}})
	tier, _ = c.Tier(0)
	assert.Empty(t, crowdsale.PendingWhitelist(tier.Whitelist))
}

func TestConsole_RefreshInitial(t *testing.T) {
	c := loaded(t, crowdsale.MintedCapped)
	require.NoError(t, c.SetEndTime(0, "2024-01-01T12:00"))
	require.NoError(t, c.RefreshInitial(0))

	iv := c.InitialValues()[0]
	assert.Equal(t, int64(12*3600*1000), iv.Duration)
	assert.Equal(t, "2024-01-01T12:00", iv.EndTime)

	got, err := crowdsale.FieldsToUpdate(crowdsale.MintedCapped, c.InitialValues(), c.Tiers(), time.UTC)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestConsole_SessionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	c := loaded(t, crowdsale.MintedCapped)
	require.NoError(t, c.SetEndTime(0, "2024-01-05T00:00"))
	require.NoError(t, c.AddWhitelistEntry(0, crowdsale.WhitelistEntry{Addr: addrB, Min: "1", Max: "5"}))
	require.NoError(t, c.SaveSession(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var s Session
	require.NoError(t, json.Unmarshal(raw, &s))
	assert.Equal(t, "0xexec", s.ExecID)
	require.Len(t, s.Tiers, 1)
	assert.Empty(t, s.Tiers[0].StartTime)
	assert.Len(t, s.Tiers[0].Pending, 1)

	fresh := loaded(t, crowdsale.MintedCapped)
	n, err := fresh.LoadSession(path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, c.Tiers(), fresh.Tiers())

	other := New(time.UTC)
	other.Reset(crowdsale.MintedCapped, "0xdifferent")
	n, err = other.LoadSession(path)
	require.NoError(t, err)
	assert.Zero(t, n, "sessions of another crowdsale are ignored")

	n, err = fresh.LoadSession(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTelemetry(t *testing.T) {
	tel := NewTelemetry()
	tel.Add(TelemetryItem{Action: "update", Tier: 1, OK: true})
	items := tel.Items()
	require.Len(t, items, 1)
	assert.NotEmpty(t, items[0].ID)
	assert.NotEmpty(t, items[0].Time)

	path, err := tel.Export(t.TempDir())
	require.NoError(t, err)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var out struct {
		Session   string          `json:"session"`
		Telemetry []TelemetryItem `json:"telemetry"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, tel.Session(), out.Session)
	assert.Len(t, out.Telemetry, 1)
}

func TestConsole_Replace(t *testing.T) {
	c := loaded(t, crowdsale.MintedCapped)
	require.NoError(t, c.SetEndTime(0, "2024-01-05T00:00"))

	c.Replace(crowdsale.DutchAuction, "0xother", []crowdsale.ProcessedTier{processed(0, true)})
	assert.Equal(t, crowdsale.DutchAuction, c.Strategy())
	assert.Equal(t, "0xother", c.ExecID())
	require.Len(t, c.Tiers(), 1)
	assert.Equal(t, "2024-01-02T00:00", c.Tiers()[0].EndTime, "previous edits are dropped")
	assert.Len(t, c.InitialValues(), 1)
}

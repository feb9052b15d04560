package crowdsale

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedTier(start, end string, wl ...WhitelistEntry) (Tier, InitialValues) {
	tier := Tier{StartTime: start, EndTime: end, Rate: "1000", Whitelist: wl}
	d, _ := DurationMs(start, end, time.UTC)
	return tier, InitialValues{
		Duration:  d,
		Updatable: true,
		StartTime: start,
		EndTime:   end,
		Whitelist: wl,
	}
}

func TestFieldsToUpdate(t *testing.T) {
	stored := WhitelistEntry{Addr: addrA.Hex(), Min: "1", Max: "2", Stored: true}
	pending := WhitelistEntry{Addr: addrB.Hex(), Min: "1", Max: "2"}

	t0, iv0 := loadedTier("2024-01-01T00:00", "2024-01-02T00:00", stored)
	t1, iv1 := loadedTier("2024-01-02T00:00", "2024-01-03T00:00", stored)
	t2, iv2 := loadedTier("2024-01-03T00:00", "2024-01-04T00:00")
	iv0.Index, iv1.Index, iv2.Index = 0, 1, 2
	iv2.Updatable = false

	t0.EndTime = "2024-01-02T06:00"
	t1.Whitelist = append(t1.Whitelist, pending)
	t2.EndTime = "2024-01-05T00:00" // not updatable, ignored

	got, err := FieldsToUpdate(MintedCapped, []InitialValues{iv0, iv1, iv2}, []Tier{t0, t1, t2}, time.UTC)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, Update{Key: AttrEndTime, Tier: 0, Time: "2024-01-02T06:00"}, got[0])
	assert.Equal(t, AttrWhitelist, got[1].Key)
	assert.Equal(t, 1, got[1].Tier)
	assert.Equal(t, []WhitelistEntry{pending}, got[1].Whitelist)
}

func TestFieldsToUpdate_NoChanges(t *testing.T) {
	tier, iv := loadedTier("2024-01-01T00:00", "2024-01-02T00:00")
	got, err := FieldsToUpdate(MintedCapped, []InitialValues{iv}, []Tier{tier}, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = FieldsToUpdate(MintedCapped, nil, nil, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFieldsToUpdate_ShiftedWindowKeepsDuration(t *testing.T) {
	tier, iv := loadedTier("2024-01-01T00:00", "2024-01-02T00:00")
	tier.StartTime = "2024-01-01T01:00"
	tier.EndTime = "2024-01-02T01:00"

	got, err := FieldsToUpdate(MintedCapped, []InitialValues{iv}, []Tier{tier}, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, got, "only the duration is compared for end time")
}

func TestFieldsToUpdate_DutchStartTime(t *testing.T) {
	tier, iv := loadedTier("2024-01-01T00:00", "2024-01-02T00:00")
	tier.StartTime = "2024-01-01T02:00"

	got, err := FieldsToUpdate(DutchAuction, []InitialValues{iv}, []Tier{tier}, time.UTC)
	require.NoError(t, err)
	require.Len(t, got, 1, "start change already carries the new duration")
	assert.Equal(t, Update{Key: AttrStartTime, Tier: 0, Time: "2024-01-01T02:00"}, got[0])

	// minted capped never updates start time
	got, err = FieldsToUpdate(MintedCapped, []InitialValues{iv}, []Tier{tier}, time.UTC)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, AttrEndTime, got[0].Key)
}

func TestFieldsToUpdate_Errors(t *testing.T) {
	tier, iv := loadedTier("2024-01-01T00:00", "2024-01-02T00:00")
	iv.Index = 4
	_, err := FieldsToUpdate(MintedCapped, []InitialValues{iv}, []Tier{tier}, time.UTC)
	assert.Error(t, err)

	iv.Index = 0
	tier.EndTime = "tomorrow"
	_, err = FieldsToUpdate(MintedCapped, []InitialValues{iv}, []Tier{tier}, time.UTC)
	assert.ErrorIs(t, err, ErrBadTime)
}

func TestFieldsToUpdate_UnalignedChainTimes(t *testing.T) {
	// 2024-01-01T00:00:30Z .. 2024-01-02T00:00:00Z, 86370 s on chain
	p, err := ProcessTier(TierInput{
		Strategy: MintedCapped,
		Tier: RawTier{
			TierStart:            big.NewInt(1704067230),
			TierEnd:              big.NewInt(1704153600),
			TierPrice:            big.NewInt(1_000_000_000_000_000),
			DurationIsModifiable: true,
		},
		Crowdsale: RawCrowdsale{TeamWallet: team},
		Token:     testToken(),
		Location:  time.UTC,
	})
	require.NoError(t, err)
	require.Equal(t, int64(86_370_000), p.Initial.Duration)

	got, err := FieldsToUpdate(MintedCapped, []InitialValues{p.Initial}, []Tier{p.Tier}, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, got, "untouched tier must not produce an endTime update")

	edited := p.Tier.Clone()
	edited.EndTime = "2024-01-03T00:00"
	got, err = FieldsToUpdate(MintedCapped, []InitialValues{p.Initial}, []Tier{edited}, time.UTC)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Update{Key: AttrEndTime, Tier: 0, Time: "2024-01-03T00:00"}, got[0])
}

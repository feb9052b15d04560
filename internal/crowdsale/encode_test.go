package crowdsale

import (
	"bytes"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unpack(t *testing.T, iface []string, data []byte) []any {
	t.Helper()
	args := make(abi.Arguments, 0, len(iface))
	for _, s := range iface {
		typ, err := abi.NewType(s, "", nil)
		require.NoError(t, err)
		args = append(args, abi.Argument{Type: typ})
	}
	out, err := args.Unpack(data)
	require.NoError(t, err)
	return out
}

func bigStrings(vs []*big.Int) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	return out
}

func editedTier() Tier {
	return Tier{
		StartTime: "2024-01-01T00:00",
		EndTime:   "2024-01-02T00:00",
		Rate:      "1000",
	}
}

func TestMethodFor(t *testing.T) {
	tests := []struct {
		strategy Strategy
		attr     Attribute
		want     string
		wantErr  bool
	}{
		{MintedCapped, AttrStartTime, "", true},
		{MintedCapped, AttrEndTime, "updateTierDuration", false},
		{MintedCapped, AttrWhitelist, "whitelistMultiForTier", false},
		{MintedCapped, AttrSupply, "", true},
		{DutchAuction, AttrStartTime, "setCrowdsaleStartAndDuration", false},
		{DutchAuction, AttrEndTime, "setCrowdsaleStartAndDuration", false},
		{DutchAuction, AttrWhitelist, "whitelistMultiForTier", false},
		{DutchAuction, AttrSupply, "", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.strategy)+"/"+string(tt.attr), func(t *testing.T) {
			got, err := MethodFor(tt.strategy, tt.attr)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotUpdatable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildUpdate_MintedCappedEndTime(t *testing.T) {
	ctx := Context(common.HexToHash("0x01"), addrA, nil)
	call, err := BuildUpdate(UpdateRequest{
		Strategy:  MintedCapped,
		Attribute: AttrEndTime,
		TierIndex: 2,
		Tier:      editedTier(),
		Context:   ctx,
		Location:  time.UTC,
	})
	require.NoError(t, err)

	assert.Equal(t, "updateTierDuration(uint256,uint256,bytes)", call.Signature())
	assert.Equal(t, Selector(call.Signature()), call.Data[:4])

	vals := unpack(t, call.Interface, call.Data[4:])
	assert.Equal(t, big.NewInt(2), vals[0])
	assert.Equal(t, big.NewInt(86400), vals[1])
	assert.Equal(t, ctx, vals[2])
}

func TestBuildUpdate_DutchStartTime(t *testing.T) {
	call, err := BuildUpdate(UpdateRequest{
		Strategy:  DutchAuction,
		Attribute: AttrStartTime,
		Tier:      editedTier(),
		StartTime: "2024-01-01T12:00",
		Location:  time.UTC,
	})
	require.NoError(t, err)
	assert.Equal(t, "setCrowdsaleStartAndDuration(uint256,uint256,bytes)", call.Signature())

	vals := unpack(t, call.Interface, call.Data[4:])
	assert.Equal(t, big.NewInt(1704110400), vals[0])
	assert.Equal(t, big.NewInt(86400), vals[1])
}

func TestBuildUpdate_DutchEndTimeUsesCurrentStart(t *testing.T) {
	call, err := BuildUpdate(UpdateRequest{
		Strategy:  DutchAuction,
		Attribute: AttrEndTime,
		TierIndex: 5,
		Tier:      editedTier(),
		Location:  time.UTC,
	})
	require.NoError(t, err)
	vals := unpack(t, call.Interface, call.Data[4:])
	assert.Equal(t, big.NewInt(1704067200), vals[0])
	assert.Equal(t, big.NewInt(86400), vals[1])
}

func TestBuildUpdate_RejectsInvertedTimes(t *testing.T) {
	tier := editedTier()
	tier.EndTime = "2023-12-31T00:00"
	_, err := BuildUpdate(UpdateRequest{Strategy: MintedCapped, Attribute: AttrEndTime, Tier: tier, Location: time.UTC})
	assert.ErrorIs(t, err, ErrBadTime)
}

func TestBuildUpdate_Whitelist(t *testing.T) {
	entries := []WhitelistEntry{
		{Addr: addrA.Hex(), Min: "1.5", Max: "10"},
		{Addr: addrB.Hex(), Min: "0", Max: "0.5"},
	}
	for _, tc := range []struct {
		strategy Strategy
		wantIdx  int64
	}{
		{MintedCapped, 3},
		{DutchAuction, 0},
	} {
		t.Run(string(tc.strategy), func(t *testing.T) {
			call, err := BuildUpdate(UpdateRequest{
				Strategy:  tc.strategy,
				Attribute: AttrWhitelist,
				TierIndex: 3,
				Tier:      editedTier(),
				Whitelist: entries,
				Decimals:  18,
				Location:  time.UTC,
			})
			require.NoError(t, err)
			assert.Equal(t, "whitelistMultiForTier(uint256,address[],uint256[],uint256[],bytes)", call.Signature())

			vals := unpack(t, call.Interface, call.Data[4:])
			assert.Equal(t, big.NewInt(tc.wantIdx).String(), vals[0].(*big.Int).String())
			assert.Equal(t, []common.Address{addrA, addrB}, vals[1])

			assert.Equal(t, []string{"1500000000000000000", "0"}, bigStrings(vals[2].([]*big.Int)))
			// one token = 1e15 wei at rate 1000
			assert.Equal(t, []string{"10000000000000000", "500000000000000"}, bigStrings(vals[3].([]*big.Int)))
		})
	}
}

func TestEncodeWhitelist_Errors(t *testing.T) {
	_, _, _, err := EncodeWhitelist([]WhitelistEntry{{Addr: "nope", Min: "1", Max: "1"}}, "1000", 18)
	assert.ErrorIs(t, err, ErrBadWhitelist)

	_, _, _, err = EncodeWhitelist([]WhitelistEntry{{Addr: addrA.Hex(), Min: "x", Max: "1"}}, "1000", 18)
	assert.ErrorIs(t, err, ErrBadWhitelist)

	_, _, _, err = EncodeWhitelist(nil, "0", 18)
	assert.ErrorIs(t, err, ErrZeroRate)
}

func TestValidateWhitelistEntry(t *testing.T) {
	assert.NoError(t, ValidateWhitelistEntry(WhitelistEntry{Addr: addrA.Hex(), Min: "1", Max: "2"}))
	assert.ErrorIs(t, ValidateWhitelistEntry(WhitelistEntry{Addr: addrA.Hex(), Min: "3", Max: "2"}), ErrBadWhitelist)
	assert.ErrorIs(t, ValidateWhitelistEntry(WhitelistEntry{Addr: "0x12", Min: "1", Max: "2"}), ErrBadWhitelist)
}

func TestContext(t *testing.T) {
	execID := common.HexToHash("0xdeadbeef")
	ctx := Context(execID, addrB, big.NewInt(7))
	require.Len(t, ctx, 96)
	assert.Equal(t, execID.Bytes(), ctx[:32])
	assert.Equal(t, addrB.Bytes(), ctx[44:64])
	assert.True(t, bytes.Equal(make([]byte, 12), ctx[32:44]))
	assert.Equal(t, byte(7), ctx[95])
}

func TestEncodeExec(t *testing.T) {
	target := common.HexToAddress("0x2222222222222222222222222222222222222222")
	inner := []byte{0xde, 0xad}
	data, err := EncodeExec(target, inner)
	require.NoError(t, err)

	m := execABI.Methods["exec"]
	assert.Equal(t, m.ID, data[:4])
	vals, err := m.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	assert.Equal(t, target, vals[0])
	assert.Equal(t, inner, vals[1])
}

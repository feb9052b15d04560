package crowdsale

import (
	"math/big"
	"sort"
	"strings"
	"time"
)

// TierInput bundles what ProcessTier reads for one tier.
type TierInput struct {
	Strategy      Strategy
	Tier          RawTier
	Crowdsale     RawCrowdsale
	Token         RawToken
	Reserved      []ReservedToken
	TierNum       int
	ExecID        string
	PrevUpdatable bool // crowdsale-wide updatable flag before this tier
	Location      *time.Location
}

// ProcessedTier is the view-model produced for one tier.
type ProcessedTier struct {
	Tier      Tier
	Initial   InitialValues
	Token     TokenInfo
	Reserved  []ReservedToken
	Finalized bool
	Updatable bool // crowdsale-wide, OR-ed over tiers
}

type tierFields struct {
	startsAt, endsAt *big.Int
	rate             *big.Int
	maxSellable      *big.Int
	name             string
	whitelisted      bool
}

func selectFields(in TierInput) (tierFields, error) {
	t := in.Tier
	switch in.Strategy {
	case MintedCapped:
		return tierFields{
			startsAt:    t.TierStart,
			endsAt:      t.TierEnd,
			rate:        t.TierPrice,
			maxSellable: t.TierSellCap,
			name:        TrimNUL(t.TierName),
			whitelisted: t.WhitelistEnabled,
		}, nil
	case DutchAuction:
		return tierFields{
			startsAt:    t.StartTime,
			endsAt:      t.EndTime,
			rate:        t.CurrentRate,
			maxSellable: in.Token.TotalSupply,
			whitelisted: len(t.Whitelist) > 0,
		}, nil
	}
	return tierFields{}, ErrUnknownStrategy
}

// ProcessTier maps raw on-chain structs into the tier view-model and the
// initial values snapshot used for change detection.
func ProcessTier(in TierInput) (ProcessedTier, error) {
	f, err := selectFields(in)
	if err != nil {
		return ProcessedTier{}, err
	}
	startsAt, endsAt := bigOrZero(f.startsAt), bigOrZero(f.endsAt)
	decimals := int(in.Token.TokenDecimals)

	out := ProcessedTier{
		Reserved:  append([]ReservedToken(nil), in.Reserved...),
		Finalized: in.Crowdsale.IsFinalized,
		Updatable: in.PrevUpdatable || in.Tier.DurationIsModifiable,
	}

	out.Token = TokenInfo{
		Name:     TrimNUL(in.Token.TokenName),
		Ticker:   TrimNUL(in.Token.TokenSymbol),
		Decimals: decimals,
		Supply:   ScaleDown(bigOrZero(in.Token.TotalSupply), decimals),
	}

	tier := Tier{
		Tier:             f.name,
		WalletAddress:    in.Crowdsale.TeamWallet.Hex(),
		StartTime:        FormatDate(startsAt, in.Location),
		EndTime:          FormatDate(endsAt, in.Location),
		Updatable:        in.Tier.DurationIsModifiable,
		WhitelistEnabled: "no",
		Supply:           ScaleDown(bigOrZero(f.maxSellable), decimals),
		Rate:             InvertRate(f.rate),
	}
	if f.whitelisted {
		tier.WhitelistEnabled = "yes"
	}

	rate, _ := ParseDecimal(tier.Rate)
	whitelist := make([]WhitelistEntry, 0, len(in.Tier.Whitelist))
	for _, w := range in.Tier.Whitelist {
		maxTokens := new(big.Rat).SetFrac(bigOrZero(w.Max), weiPerEther)
		maxTokens.Mul(maxTokens, rate)
		whitelist = append(whitelist, WhitelistEntry{
			Addr:   w.Addr.Hex(),
			Min:    ScaleDown(bigOrZero(w.Min), decimals),
			Max:    RatString(maxTokens),
			Stored: true,
		})
	}
	SortWhitelist(whitelist)
	tier.Whitelist = whitelist

	initial := InitialValues{
		Duration:  (endsAt.Int64() - startsAt.Int64()) * 1000,
		Index:     in.TierNum,
		Addresses: Addresses{CrowdsaleAddress: in.ExecID},
	}
	switch in.Strategy {
	case MintedCapped:
		initial.Updatable = tier.Updatable
	case DutchAuction:
		initial.Updatable = true
	}
	if initial.Updatable {
		initial.StartTime = tier.StartTime
		initial.EndTime = tier.EndTime
		initial.Whitelist = append([]WhitelistEntry(nil), whitelist...)
		initial.IsWhitelisted = f.whitelisted
	}

	out.Tier = tier
	out.Initial = initial
	return out, nil
}

// SortWhitelist orders entries by address, case-insensitively.
func SortWhitelist(w []WhitelistEntry) {
	sort.SliceStable(w, func(i, j int) bool {
		return strings.ToLower(w[i].Addr) < strings.ToLower(w[j].Addr)
	})
}

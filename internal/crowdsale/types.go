package crowdsale

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Strategy selects which auth_os crowdsale application a sale was deployed with.
type Strategy string

const (
	MintedCapped Strategy = "minted-capped"
	DutchAuction Strategy = "dutch-auction"
)

// ParseStrategy accepts the config spellings used in .env files.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minted-capped", "mintedcapped", "minted_capped", "mintedcappedcrowdsale":
		return MintedCapped, nil
	case "dutch-auction", "dutchauction", "dutch_auction", "dutch":
		return DutchAuction, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// TargetSuffix is appended to "crowdsaleConsole" to name the console contract.
func (s Strategy) TargetSuffix() string {
	switch s {
	case MintedCapped:
		return "MintedCapped"
	case DutchAuction:
		return "DutchAuction"
	}
	return ""
}

// Attribute names an editable tier field.
type Attribute string

const (
	AttrStartTime Attribute = "startTime"
	AttrEndTime   Attribute = "endTime"
	AttrWhitelist Attribute = "whitelist"
	AttrSupply    Attribute = "supply"
)

// WhitelistEntry is one address allowed into a tier. Min is in tokens,
// Max in tokens as well (converted to wei through the tier rate on submit).
type WhitelistEntry struct {
	Addr   string `json:"addr"`
	Min    string `json:"min"`
	Max    string `json:"max"`
	Stored bool   `json:"stored"`
}

// Tier is the UI-facing record of a crowdsale tier.
type Tier struct {
	Tier             string           `json:"tier"`
	WalletAddress    string           `json:"walletAddress"`
	StartTime        string           `json:"startTime"`
	EndTime          string           `json:"endTime"`
	Rate             string           `json:"rate"`
	Supply           string           `json:"supply"`
	Updatable        bool             `json:"updatable"`
	WhitelistEnabled string           `json:"whitelistEnabled"`
	Whitelist        []WhitelistEntry `json:"whitelist"`
}

// Clone returns a deep copy (whitelist slice included).
func (t Tier) Clone() Tier {
	out := t
	out.Whitelist = append([]WhitelistEntry(nil), t.Whitelist...)
	return out
}

type Addresses struct {
	CrowdsaleAddress string `json:"crowdsaleAddress"`
}

// InitialValues is captured once per tier when it is loaded and used
// later to decide which edits need a transaction.
type InitialValues struct {
	Duration      int64            `json:"duration"` // ms
	Updatable     bool             `json:"updatable"`
	Index         int              `json:"index"`
	Addresses     Addresses        `json:"addresses"`
	StartTime     string           `json:"startTime,omitempty"`
	EndTime       string           `json:"endTime,omitempty"`
	Whitelist     []WhitelistEntry `json:"whitelist,omitempty"`
	IsWhitelisted bool             `json:"isWhitelisted,omitempty"`
}

// TokenInfo is the token view-model.
type TokenInfo struct {
	Name     string `json:"name"`
	Ticker   string `json:"ticker"`
	Decimals int    `json:"decimals"`
	Supply   string `json:"supply"`
}

// ReservedToken is a reserved-tokens destination. Dim is "tokens" or "percentage".
type ReservedToken struct {
	Addr string `json:"addr"`
	Dim  string `json:"dim"`
	Val  string `json:"val"`
}

// Raw on-chain structs, as returned by the InitCrowdsale getters.

type RawWhitelistEntry struct {
	Addr common.Address
	Min  *big.Int // token units
	Max  *big.Int // wei
}

type RawTier struct {
	// MintedCapped
	TierName             [32]byte
	TierStart            *big.Int
	TierEnd              *big.Int
	TierPrice            *big.Int
	TierSellCap          *big.Int
	DurationIsModifiable bool
	WhitelistEnabled     bool

	// DutchAuction
	StartTime   *big.Int
	EndTime     *big.Int
	CurrentRate *big.Int

	Whitelist []RawWhitelistEntry
}

type RawCrowdsale struct {
	TeamWallet  common.Address
	WeiRaised   *big.Int
	IsFinalized bool
}

type RawToken struct {
	TokenName     [32]byte
	TokenSymbol   [32]byte
	TokenDecimals uint64
	TotalSupply   *big.Int
}

// Update is one pending on-chain change produced by FieldsToUpdate.
type Update struct {
	Key       Attribute
	Tier      int
	Time      string           // startTime / endTime
	Whitelist []WhitelistEntry // whitelist
}

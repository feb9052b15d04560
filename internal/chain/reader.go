package chain

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jellydator/ttlcache/v3"
	w3 "github.com/lmittmann/w3"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ligun0805/crowdsale-console/internal/crowdsale"
)

type getter struct {
	sig string
	fn  *w3.Func
}

func newGetter(sig, returns string) getter {
	return getter{sig: sig, fn: w3.MustNewFunc(sig, returns)}
}

// InitCrowdsale read functions (auth_os). Every getter takes the registry
// storage address and the exec id first.
var (
	getCrowdsaleInfoMC     = newGetter("getCrowdsaleInfo(address,bytes32)", "uint256,address,uint256,bool,bool")
	getCrowdsaleInfoDA     = newGetter("getCrowdsaleInfo(address,bytes32)", "uint256,address,bool,bool")
	getTokenInfo           = newGetter("getTokenInfo(address,bytes32)", "bytes32,bytes32,uint256,uint256")
	getCrowdsaleTierList   = newGetter("getCrowdsaleTierList(address,bytes32)", "bytes32[]")
	getCrowdsaleTier       = newGetter("getCrowdsaleTier(address,bytes32,uint256)", "bytes32,uint256,uint256,uint256,bool,bool")
	getTierStartAndEnd     = newGetter("getTierStartAndEndDates(address,bytes32,uint256)", "uint256,uint256")
	getTierWhitelist       = newGetter("getTierWhitelist(address,bytes32,uint256)", "uint256,address[]")
	getTierWhitelistStatus = newGetter("getWhitelistStatus(address,bytes32,uint256,address)", "uint256,uint256")
	getReservedList        = newGetter("getReservedTokenDestinationList(address,bytes32)", "uint256,address[]")
	getReservedInfo        = newGetter("getReservedDestinationInfo(address,bytes32,address)", "uint256,uint256,uint256,uint256")

	getCrowdsaleStatus     = newGetter("getCrowdsaleStatus(address,bytes32)", "uint256,uint256,uint256,uint256,uint256,uint256")
	getCrowdsaleStartEnd   = newGetter("getCrowdsaleStartAndEndTimes(address,bytes32)", "uint256,uint256")
	getCrowdsaleWhitelist  = newGetter("getCrowdsaleWhitelist(address,bytes32)", "uint256,address[]")
	getSaleWhitelistStatus = newGetter("getWhitelistStatus(address,bytes32,address)", "uint256,uint256")
)

// ReaderConfig locates one crowdsale.
type ReaderConfig struct {
	Strategy      crowdsale.Strategy
	Storage       common.Address // auth_os registry storage
	InitCrowdsale common.Address // read-only getters
	ExecID        common.Hash
	TokenTTL      time.Duration
	Parallel      int // concurrent tier reads, default 4
	Logf          func(string, ...any)
}

// Reader fetches raw crowdsale state through eth_call.
type Reader struct {
	c      Caller
	cfg    ReaderConfig
	tokens *ttlcache.Cache[common.Hash, crowdsale.RawToken]
	mu     sync.Mutex
}

func NewReader(c Caller, cfg ReaderConfig) *Reader {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Minute
	}
	if cfg.Parallel <= 0 {
		cfg.Parallel = 4
	}
	if cfg.Logf == nil {
		cfg.Logf = func(string, ...any) {}
	}
	return &Reader{
		c:   c,
		cfg: cfg,
		tokens: ttlcache.New[common.Hash, crowdsale.RawToken](
			ttlcache.WithTTL[common.Hash, crowdsale.RawToken](cfg.TokenTTL),
		),
	}
}

func (r *Reader) Strategy() crowdsale.Strategy { return r.cfg.Strategy }

func (r *Reader) call(ctx context.Context, g getter, returns []any, args ...any) error {
	input, err := g.fn.EncodeArgs(append([]any{r.cfg.Storage, r.cfg.ExecID}, args...)...)
	if err != nil {
		return errors.Wrapf(err, "encode %s", g.sig)
	}
	to := r.cfg.InitCrowdsale
	out, err := callWithRetry(ctx, r.c, ethereum.CallMsg{To: &to, Data: input})
	if err != nil {
		return errors.Wrapf(err, "%s: %s", g.sig, RevertReason(err))
	}
	if err := g.fn.DecodeReturns(out, returns...); err != nil {
		return errors.Wrapf(err, "decode %s", g.sig)
	}
	return nil
}

// Crowdsale reads team wallet, wei raised and the finalized flag.
func (r *Reader) Crowdsale(ctx context.Context) (crowdsale.RawCrowdsale, error) {
	var (
		weiRaised   big.Int
		wallet      common.Address
		minContrib  big.Int
		initialized bool
		finalized   bool
	)
	switch r.cfg.Strategy {
	case crowdsale.MintedCapped:
		if err := r.call(ctx, getCrowdsaleInfoMC, []any{&weiRaised, &wallet, &minContrib, &initialized, &finalized}); err != nil {
			return crowdsale.RawCrowdsale{}, err
		}
	case crowdsale.DutchAuction:
		if err := r.call(ctx, getCrowdsaleInfoDA, []any{&weiRaised, &wallet, &initialized, &finalized}); err != nil {
			return crowdsale.RawCrowdsale{}, err
		}
	default:
		return crowdsale.RawCrowdsale{}, crowdsale.ErrUnknownStrategy
	}
	return crowdsale.RawCrowdsale{TeamWallet: wallet, WeiRaised: &weiRaised, IsFinalized: finalized}, nil
}

// Token reads token info, cached per exec id.
func (r *Reader) Token(ctx context.Context) (crowdsale.RawToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item := r.tokens.Get(r.cfg.ExecID); item != nil {
		return item.Value(), nil
	}
	var (
		name, symbol [32]byte
		decimals     big.Int
		supply       big.Int
	)
	if err := r.call(ctx, getTokenInfo, []any{&name, &symbol, &decimals, &supply}); err != nil {
		return crowdsale.RawToken{}, err
	}
	tok := crowdsale.RawToken{
		TokenName:     name,
		TokenSymbol:   symbol,
		TokenDecimals: decimals.Uint64(),
		TotalSupply:   &supply,
	}
	r.tokens.Set(r.cfg.ExecID, tok, ttlcache.DefaultTTL)
	return tok, nil
}

// InvalidateToken drops the cached token info.
func (r *Reader) InvalidateToken() {
	r.tokens.Delete(r.cfg.ExecID)
}

// Reserved lists reserved-token destinations. Only MintedCapped sales
// carry them.
func (r *Reader) Reserved(ctx context.Context, decimals int) ([]crowdsale.ReservedToken, error) {
	if r.cfg.Strategy != crowdsale.MintedCapped {
		return nil, nil
	}
	var (
		num   big.Int
		dests []common.Address
	)
	if err := r.call(ctx, getReservedList, []any{&num, &dests}); err != nil {
		return nil, err
	}
	var out []crowdsale.ReservedToken
	for _, d := range dests {
		var idx, tokens, percent, percentDecimals big.Int
		if err := r.call(ctx, getReservedInfo, []any{&idx, &tokens, &percent, &percentDecimals}, d); err != nil {
			return nil, err
		}
		if tokens.Sign() > 0 {
			out = append(out, crowdsale.ReservedToken{Addr: d.Hex(), Dim: "tokens", Val: crowdsale.ScaleDown(&tokens, decimals)})
		}
		if percent.Sign() > 0 {
			out = append(out, crowdsale.ReservedToken{Addr: d.Hex(), Dim: "percentage", Val: crowdsale.ScaleDown(&percent, int(percentDecimals.Int64()))})
		}
	}
	return out, nil
}

// TierCount is the number of tiers; a Dutch auction has one.
func (r *Reader) TierCount(ctx context.Context) (int, error) {
	switch r.cfg.Strategy {
	case crowdsale.MintedCapped:
		var names [][32]byte
		if err := r.call(ctx, getCrowdsaleTierList, []any{&names}); err != nil {
			return 0, err
		}
		return len(names), nil
	case crowdsale.DutchAuction:
		return 1, nil
	}
	return 0, crowdsale.ErrUnknownStrategy
}

// Tier reads one tier with its whitelist.
func (r *Reader) Tier(ctx context.Context, index int) (crowdsale.RawTier, error) {
	switch r.cfg.Strategy {
	case crowdsale.MintedCapped:
		return r.mintedCappedTier(ctx, index)
	case crowdsale.DutchAuction:
		return r.dutchTier(ctx)
	}
	return crowdsale.RawTier{}, crowdsale.ErrUnknownStrategy
}

func (r *Reader) mintedCappedTier(ctx context.Context, index int) (crowdsale.RawTier, error) {
	i := big.NewInt(int64(index))
	var (
		name                  [32]byte
		sellCap, price, dur   big.Int
		modifiable, whitelist bool
		start, end            big.Int
	)
	if err := r.call(ctx, getCrowdsaleTier, []any{&name, &sellCap, &price, &dur, &modifiable, &whitelist}, i); err != nil {
		return crowdsale.RawTier{}, err
	}
	if err := r.call(ctx, getTierStartAndEnd, []any{&start, &end}, i); err != nil {
		return crowdsale.RawTier{}, err
	}
	tier := crowdsale.RawTier{
		TierName:             name,
		TierStart:            &start,
		TierEnd:              &end,
		TierPrice:            &price,
		TierSellCap:          &sellCap,
		DurationIsModifiable: modifiable,
		WhitelistEnabled:     whitelist,
	}
	if !whitelist {
		return tier, nil
	}

	var (
		num   big.Int
		addrs []common.Address
	)
	if err := r.call(ctx, getTierWhitelist, []any{&num, &addrs}, i); err != nil {
		return crowdsale.RawTier{}, err
	}
	for _, a := range addrs {
		var mn, mx big.Int
		if err := r.call(ctx, getTierWhitelistStatus, []any{&mn, &mx}, i, a); err != nil {
			return crowdsale.RawTier{}, err
		}
		tier.Whitelist = append(tier.Whitelist, crowdsale.RawWhitelistEntry{Addr: a, Min: &mn, Max: &mx})
	}
	return tier, nil
}

func (r *Reader) dutchTier(ctx context.Context) (crowdsale.RawTier, error) {
	var (
		startRate, endRate, currentRate big.Int
		dur, remaining, tokensLeft      big.Int
		start, end                      big.Int
		num                             big.Int
		addrs                           []common.Address
	)
	if err := r.call(ctx, getCrowdsaleStatus, []any{&startRate, &endRate, &currentRate, &dur, &remaining, &tokensLeft}); err != nil {
		return crowdsale.RawTier{}, err
	}
	if err := r.call(ctx, getCrowdsaleStartEnd, []any{&start, &end}); err != nil {
		return crowdsale.RawTier{}, err
	}
	if err := r.call(ctx, getCrowdsaleWhitelist, []any{&num, &addrs}); err != nil {
		return crowdsale.RawTier{}, err
	}
	tier := crowdsale.RawTier{StartTime: &start, EndTime: &end, CurrentRate: &currentRate}
	for _, a := range addrs {
		var mn, mx big.Int
		if err := r.call(ctx, getSaleWhitelistStatus, []any{&mn, &mx}, a); err != nil {
			return crowdsale.RawTier{}, err
		}
		tier.Whitelist = append(tier.Whitelist, crowdsale.RawWhitelistEntry{Addr: a, Min: &mn, Max: &mx})
	}
	return tier, nil
}

// Snapshot is everything the console loads for one crowdsale.
type Snapshot struct {
	Crowdsale crowdsale.RawCrowdsale
	Token     crowdsale.RawToken
	Reserved  []crowdsale.ReservedToken
	Tiers     []crowdsale.RawTier
}

// Load reads the whole crowdsale. Tiers are fetched concurrently.
func (r *Reader) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Crowdsale, err = r.Crowdsale(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Token, err = r.Token(gctx)
		return err
	})
	var count int
	g.Go(func() error {
		var err error
		count, err = r.TierCount(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	r.cfg.Logf("crowdsale %s: %d tier(s), finalized=%v", r.cfg.ExecID.Hex(), count, snap.Crowdsale.IsFinalized)

	reserved, err := r.Reserved(ctx, int(snap.Token.TokenDecimals))
	if err != nil {
		return nil, err
	}
	snap.Reserved = reserved

	snap.Tiers = make([]crowdsale.RawTier, count)
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Parallel)
	for i := 0; i < count; i++ {
		i := i
		g.Go(func() error {
			t, err := r.Tier(gctx, i)
			if err != nil {
				return errors.Wrapf(err, "tier %d", i)
			}
			snap.Tiers[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

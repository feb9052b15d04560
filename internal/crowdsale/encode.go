package crowdsale

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	methodSetStartAndDuration = "setCrowdsaleStartAndDuration"
	methodUpdateTierDuration  = "updateTierDuration"
	methodWhitelistMulti      = "whitelistMultiForTier"
)

var (
	durationInterface  = []string{"uint256", "uint256", "bytes"}
	whitelistInterface = []string{"uint256", "address[]", "uint256[]", "uint256[]", "bytes"}
)

// MethodFor returns the console method that updates attr, or ErrNotUpdatable.
func MethodFor(strategy Strategy, attr Attribute) (string, error) {
	switch attr {
	case AttrStartTime:
		// start time is fixed once a MintedCapped sale is initialized
		if strategy == DutchAuction {
			return methodSetStartAndDuration, nil
		}
	case AttrEndTime:
		switch strategy {
		case MintedCapped:
			return methodUpdateTierDuration, nil
		case DutchAuction:
			return methodSetStartAndDuration, nil
		}
	case AttrWhitelist:
		if strategy == MintedCapped || strategy == DutchAuction {
			return methodWhitelistMulti, nil
		}
	}
	return "", fmt.Errorf("%w: %s/%s", ErrNotUpdatable, strategy, attr)
}

// UpdateRequest describes one attribute change to encode.
type UpdateRequest struct {
	Strategy  Strategy
	Attribute Attribute
	TierIndex int
	Tier      Tier             // current (edited) tier
	StartTime string           // new start, AttrStartTime only
	Whitelist []WhitelistEntry // AttrWhitelist only
	Decimals  int
	Context   []byte
	Location  *time.Location
}

// Call is an encoded console call.
type Call struct {
	Method    string
	Interface []string
	Args      []any
	Data      []byte // selector ‖ abi-encoded args
}

// Signature is "method(type,...)".
func (c *Call) Signature() string {
	return c.Method + "(" + strings.Join(c.Interface, ",") + ")"
}

// BuildUpdate selects the console method and parameter layout for the
// strategy and encodes the call.
func BuildUpdate(req UpdateRequest) (*Call, error) {
	method, err := MethodFor(req.Strategy, req.Attribute)
	if err != nil {
		return nil, err
	}
	ctx := req.Context
	if ctx == nil {
		ctx = []byte{}
	}

	var (
		iface []string
		args  []any
	)
	switch req.Attribute {
	case AttrStartTime, AttrEndTime:
		st, err := ParseDate(req.Tier.StartTime, req.Location)
		if err != nil {
			return nil, err
		}
		et, err := ParseDate(req.Tier.EndTime, req.Location)
		if err != nil {
			return nil, err
		}
		duration := int64(et.Sub(st) / time.Second)
		if duration <= 0 {
			return nil, fmt.Errorf("%w: end %s is not after start %s", ErrBadTime, req.Tier.EndTime, req.Tier.StartTime)
		}
		first := big.NewInt(int64(req.TierIndex))
		if req.Strategy == DutchAuction {
			start := st
			if req.Attribute == AttrStartTime {
				if start, err = ParseDate(req.StartTime, req.Location); err != nil {
					return nil, err
				}
			}
			first = big.NewInt(start.Unix())
		}
		iface = durationInterface
		args = []any{first, big.NewInt(duration), ctx}

	case AttrWhitelist:
		addrs, mins, maxs, err := EncodeWhitelist(req.Whitelist, req.Tier.Rate, req.Decimals)
		if err != nil {
			return nil, err
		}
		// dutch auctions have a single sale phase
		idx := int64(req.TierIndex)
		if req.Strategy == DutchAuction {
			idx = 0
		}
		iface = whitelistInterface
		args = []any{big.NewInt(idx), addrs, mins, maxs, ctx}
	}

	data, err := EncodeParameters(method, iface, args...)
	if err != nil {
		return nil, err
	}
	return &Call{Method: method, Interface: iface, Args: args, Data: data}, nil
}

// EncodeWhitelist converts display entries into the three parallel arrays
// the console expects: addresses, minimum in token base units and
// maximum spend in wei (max tokens * price of one token).
func EncodeWhitelist(entries []WhitelistEntry, rate string, decimals int) ([]common.Address, []*big.Int, []*big.Int, error) {
	oneTokenInWei, err := OneTokenInWei(rate)
	if err != nil {
		return nil, nil, nil, err
	}
	scale := new(big.Rat).SetInt(pow10(decimals))
	addrs := make([]common.Address, 0, len(entries))
	mins := make([]*big.Int, 0, len(entries))
	maxs := make([]*big.Int, 0, len(entries))
	for _, e := range entries {
		if !common.IsHexAddress(e.Addr) {
			return nil, nil, nil, fmt.Errorf("%w: address %q", ErrBadWhitelist, e.Addr)
		}
		mn, err := ParseDecimal(e.Min)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%w: min: %v", ErrBadWhitelist, err)
		}
		mx, err := ParseDecimal(e.Max)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%w: max: %v", ErrBadWhitelist, err)
		}
		addrs = append(addrs, common.HexToAddress(e.Addr))
		mins = append(mins, floorRat(new(big.Rat).Mul(mn, scale)))
		maxs = append(maxs, floorRat(new(big.Rat).Mul(mx, new(big.Rat).SetInt(oneTokenInWei))))
	}
	return addrs, mins, maxs, nil
}

// ValidateWhitelistEntry checks an entry before it is queued.
func ValidateWhitelistEntry(e WhitelistEntry) error {
	if !common.IsHexAddress(e.Addr) {
		return fmt.Errorf("%w: address %q", ErrBadWhitelist, e.Addr)
	}
	mn, err := ParseDecimal(e.Min)
	if err != nil {
		return fmt.Errorf("%w: min: %v", ErrBadWhitelist, err)
	}
	mx, err := ParseDecimal(e.Max)
	if err != nil {
		return fmt.Errorf("%w: max: %v", ErrBadWhitelist, err)
	}
	if mn.Cmp(mx) > 0 {
		return fmt.Errorf("%w: min %s > max %s", ErrBadWhitelist, e.Min, e.Max)
	}
	return nil
}

// EncodeParameters returns selector(method(iface)) ‖ abi.encode(args).
func EncodeParameters(method string, iface []string, args ...any) ([]byte, error) {
	arguments := make(abi.Arguments, 0, len(iface))
	for _, t := range iface {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			return nil, fmt.Errorf("abi type %s: %w", t, err)
		}
		arguments = append(arguments, abi.Argument{Type: typ})
	}
	packed, err := arguments.Pack(args...)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", method, err)
	}
	sig := method + "(" + strings.Join(iface, ",") + ")"
	return append(Selector(sig), packed...), nil
}

// Selector is the 4-byte function selector of sig.
func Selector(sig string) []byte {
	return crypto.Keccak256([]byte(sig))[:4]
}

// Context builds the 96-byte auth_os execution context:
// exec id ‖ sender (left-padded) ‖ wei sent.
func Context(execID common.Hash, sender common.Address, wei *big.Int) []byte {
	out := make([]byte, 0, 96)
	out = append(out, execID.Bytes()...)
	out = append(out, common.LeftPadBytes(sender.Bytes(), 32)...)
	out = append(out, common.LeftPadBytes(bigOrZero(wei).Bytes(), 32)...)
	return out
}

const scriptExecABI = `[{"type":"function","stateMutability":"payable","name":"exec",
 "inputs":[{"name":"target","type":"address"},{"name":"calldata","type":"bytes"}],
 "outputs":[{"name":"success","type":"bool"}]}]`

var execABI abi.ABI

func init() {
	ab, err := abi.JSON(strings.NewReader(scriptExecABI))
	if err != nil {
		panic(err)
	}
	execABI = ab
}

// EncodeExec wraps console calldata into a script executor exec() call.
func EncodeExec(target common.Address, calldata []byte) ([]byte, error) {
	return execABI.Pack("exec", target, calldata)
}

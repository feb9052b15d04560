package chain

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"github.com/ligun0805/crowdsale-console/internal/crowdsale"
)

// HeaderReader is satisfied by ethclient.Client.
type HeaderReader interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// GasPricer is satisfied by ethclient.Client.
type GasPricer interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	HeaderReader
}

// Latest base fee and head number.
func latestBaseFee(ctx context.Context, h HeaderReader) (*big.Int, *big.Int, error) {
	head, err := h.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	if head.BaseFee == nil {
		return nil, head.Number, errors.New("no baseFee (pre-1559?)")
	}
	return new(big.Int).Set(head.BaseFee), new(big.Int).Set(head.Number), nil
}

// GasPrice returns fixed when set, otherwise the node suggestion, falling
// back to twice the latest base fee.
func GasPrice(ctx context.Context, p GasPricer, fixed *big.Int) (*big.Int, error) {
	if fixed != nil && fixed.Sign() > 0 {
		return new(big.Int).Set(fixed), nil
	}
	if price, err := p.SuggestGasPrice(ctx); err == nil && price != nil && price.Sign() > 0 {
		return price, nil
	}
	bf, _, err := latestBaseFee(ctx, p)
	if err != nil {
		return nil, errors.Wrap(err, "gas price")
	}
	return new(big.Int).Mul(bf, big.NewInt(2)), nil
}

// ParseGwei converts a decimal gwei amount ("1.5") to wei. Empty input is nil.
func ParseGwei(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	wei, err := crowdsale.ScaleUp(s, 9)
	if err != nil {
		return nil, errors.Wrapf(err, "gas price %q", s)
	}
	return wei, nil
}

func FormatGwei(x *big.Int) string {
	if x == nil {
		return "0"
	}
	r := new(big.Rat).SetFrac(new(big.Int).Set(x), big.NewInt(1_000_000_000))
	return r.FloatString(2)
}

// NetworkState is a snapshot of the node's fee conditions.
type NetworkState struct {
	Head     *big.Int
	BaseFee  *big.Int
	GasPrice *big.Int
}

// ReadNetworkState reads the head, its base fee and the gas price the
// transactor would use with fixed.
func ReadNetworkState(ctx context.Context, p GasPricer, fixed *big.Int) (NetworkState, error) {
	var ns NetworkState
	bf, head, err := latestBaseFee(ctx, p)
	if err != nil && head == nil {
		return ns, errors.Wrap(err, "latest header")
	}
	ns.Head, ns.BaseFee = head, bf
	if ns.GasPrice, err = GasPrice(ctx, p, fixed); err != nil {
		return ns, err
	}
	return ns, nil
}

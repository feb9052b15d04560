package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/ligun0805/crowdsale-console/internal/crowdsale"
)

// fakeChain answers eth_call by 4-byte selector.
type fakeChain struct {
	t        *testing.T
	mu       sync.Mutex
	handlers map[string]func(args []byte) ([]byte, error)
	calls    map[string]int

	estimate  uint64
	suggested *big.Int
	baseFee   *big.Int
	receipts  []*types.Receipt // returned in order, nil means not found
}

func newFakeChain(t *testing.T) *fakeChain {
	return &fakeChain{t: t, handlers: map[string]func([]byte) ([]byte, error){}, calls: map[string]int{}}
}

func (f *fakeChain) on(sig string, fn func(args []byte) ([]byte, error)) {
	f.handlers[string(crowdsale.Selector(sig))] = fn
}

func (f *fakeChain) returns(sig, types string, vals ...any) {
	out := pack(f.t, types, vals...)
	f.on(sig, func([]byte) ([]byte, error) { return out, nil })
}

func (f *fakeChain) count(sig string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[string(crowdsale.Selector(sig))]
}

func (f *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	key := string(msg.Data[:4])
	f.mu.Lock()
	f.calls[key]++
	h, ok := f.handlers[key]
	f.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("execution reverted: unknown selector %x", msg.Data[:4])
	}
	return h(msg.Data[4:])
}

func (f *fakeChain) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return f.estimate, nil
}

func (f *fakeChain) SuggestGasPrice(context.Context) (*big.Int, error) {
	if f.suggested == nil {
		return nil, fmt.Errorf("method not supported")
	}
	return f.suggested, nil
}

func (f *fakeChain) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(100), BaseFee: f.baseFee}, nil
}

func (f *fakeChain) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.receipts) == 0 {
		return nil, ethereum.NotFound
	}
	r := f.receipts[0]
	f.receipts = f.receipts[1:]
	if r == nil {
		return nil, ethereum.NotFound
	}
	return r, nil
}

// pack abi-encodes vals for a comma separated type list.
func pack(t *testing.T, typeList string, vals ...any) []byte {
	t.Helper()
	var args abi.Arguments
	for _, s := range strings.Split(typeList, ",") {
		typ, err := abi.NewType(s, "", nil)
		require.NoError(t, err)
		args = append(args, abi.Argument{Type: typ})
	}
	out, err := args.Pack(vals...)
	require.NoError(t, err)
	return out
}

// word returns the i-th 32-byte argument as an integer.
func word(args []byte, i int) int64 {
	return new(big.Int).SetBytes(args[i*32 : (i+1)*32]).Int64()
}

func addrWord(args []byte, i int) common.Address {
	return common.BytesToAddress(args[i*32 : (i+1)*32])
}

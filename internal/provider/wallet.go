package provider

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/ligun0805/crowdsale-console/internal/chain"
)

var ErrNoAccount = errors.New("no wallet account selected")

// Kind tells how the wallet was found.
type Kind string

const (
	KindInjected Kind = "injected" // supports eth_requestAccounts
	KindLegacy   Kind = "legacy"   // plain eth_accounts
	KindKey      Kind = "key"      // local private key
	KindNone     Kind = "none"
)

// Wallet lists the operator accounts and submits transactions for them.
type Wallet interface {
	chain.Sender
	Kind() Kind
	Accounts(ctx context.Context) ([]common.Address, error)
	Close()
}

// RPC is the part of *rpc.Client the node-backed wallets use.
type RPC interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
	Close()
}

// RPCWallet delegates accounts and signing to a node or wallet endpoint.
type RPCWallet struct {
	rpc  RPC
	kind Kind
}

func NewRPCWallet(c RPC, kind Kind) *RPCWallet {
	return &RPCWallet{rpc: c, kind: kind}
}

func (w *RPCWallet) Kind() Kind { return w.kind }

// RequestAccess asks the wallet to expose its accounts (eth_requestAccounts).
func (w *RPCWallet) RequestAccess(ctx context.Context) ([]common.Address, error) {
	var out []common.Address
	if err := w.rpc.CallContext(ctx, &out, "eth_requestAccounts"); err != nil {
		return nil, err
	}
	return out, nil
}

func (w *RPCWallet) Accounts(ctx context.Context) ([]common.Address, error) {
	var out []common.Address
	if err := w.rpc.CallContext(ctx, &out, "eth_accounts"); err != nil {
		return nil, fmt.Errorf("eth_accounts: %w", err)
	}
	return out, nil
}

type sendTxArgs struct {
	From     common.Address  `json:"from"`
	To       *common.Address `json:"to"`
	Gas      hexutil.Uint64  `json:"gas"`
	GasPrice *hexutil.Big    `json:"gasPrice"`
	Value    *hexutil.Big    `json:"value"`
	Data     hexutil.Bytes   `json:"data"`
}

// SendTransaction hands the request to the wallet via eth_sendTransaction.
func (w *RPCWallet) SendTransaction(ctx context.Context, req chain.TxRequest) (common.Hash, error) {
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	to := req.To
	args := sendTxArgs{
		From:     req.From,
		To:       &to,
		Gas:      hexutil.Uint64(req.Gas),
		GasPrice: (*hexutil.Big)(req.GasPrice),
		Value:    (*hexutil.Big)(value),
		Data:     req.Data,
	}
	var hash common.Hash
	if err := w.rpc.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, fmt.Errorf("eth_sendTransaction: %w", err)
	}
	return hash, nil
}

func (w *RPCWallet) Close() { w.rpc.Close() }

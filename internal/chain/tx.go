package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

var ErrTxFailed = errors.New("transaction failed")

// Backend is the subset of ethclient.Client the console needs.
type Backend interface {
	Caller
	GasEstimator
	GasPricer
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// TxRequest is a fully priced transaction ready for a wallet.
type TxRequest struct {
	From     common.Address
	To       common.Address
	Data     []byte
	Value    *big.Int
	Gas      uint64
	GasPrice *big.Int
}

// Sender submits a transaction on behalf of From and returns its hash.
type Sender interface {
	SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error)
}

// Transactor prices, estimates, submits and waits for console transactions.
type Transactor struct {
	Backend     Backend
	Sender      Sender
	GasPrice    *big.Int // fixed price, nil asks the node
	ReceiptPoll time.Duration
	Logf        func(string, ...any)
}

func (t *Transactor) logf(format string, a ...any) {
	if t.Logf != nil {
		t.Logf(format, a...)
	}
}

// Send estimates gas for data from -> to, submits it and waits for the
// receipt. A reverted receipt yields ErrTxFailed. Nothing is retried once
// the transaction has been handed to the sender.
func (t *Transactor) Send(ctx context.Context, from, to common.Address, data []byte) (*types.Receipt, error) {
	price, err := GasPrice(ctx, t.Backend, t.GasPrice)
	if err != nil {
		return nil, err
	}
	msg := ethereum.CallMsg{From: from, To: &to, Data: data, GasPrice: price, Value: big.NewInt(0)}
	gas, err := estimateGasWithRetry(ctx, t.Backend, msg)
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %s: %w", RevertReason(err), err)
	}
	t.logf("tx from=%s to=%s gas=%d gasPrice=%s gwei", from.Hex(), to.Hex(), gas, FormatGwei(price))

	hash, err := t.Sender.SendTransaction(ctx, TxRequest{
		From:     from,
		To:       to,
		Data:     data,
		Value:    big.NewInt(0),
		Gas:      gas,
		GasPrice: price,
	})
	if err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}
	t.logf("tx sent %s", hash.Hex())
	return t.WaitMined(ctx, hash)
}

// WaitMined polls for the receipt of hash.
func (t *Transactor) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	poll := t.ReceiptPoll
	if poll <= 0 {
		poll = time.Second
	}
	for {
		rcpt, err := t.Backend.TransactionReceipt(ctx, hash)
		switch {
		case err == nil && rcpt != nil:
			if rcpt.Status != types.ReceiptStatusSuccessful {
				return rcpt, fmt.Errorf("%w: %s reverted in block %v", ErrTxFailed, hash.Hex(), rcpt.BlockNumber)
			}
			t.logf("tx mined %s block=%v gasUsed=%d", hash.Hex(), rcpt.BlockNumber, rcpt.GasUsed)
			return rcpt, nil
		case err != nil && !errors.Is(err, ethereum.NotFound):
			return nil, fmt.Errorf("receipt %s: %w", hash.Hex(), err)
		}
		if err := sleep(ctx, poll); err != nil {
			return nil, err
		}
	}
}

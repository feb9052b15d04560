package provider

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/ligun0805/crowdsale-console/internal/chain"
)

// KeyBackend is the part of ethclient.Client a key wallet needs.
type KeyBackend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// KeyWallet signs locally with a single private key.
type KeyWallet struct {
	prv     *ecdsa.PrivateKey
	addr    common.Address
	chainID *big.Int
	backend KeyBackend
	closeFn func()
}

// Parse hex ECDSA private key (with / without 0x).
func hexToECDSAPriv(s string) (*ecdsa.PrivateKey, error) {
	h := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if len(h) == 0 {
		return nil, errors.New("empty private key")
	}
	return gethcrypto.HexToECDSA(h)
}

func NewKeyWallet(pkHex string, chainID *big.Int, backend KeyBackend, closeFn func()) (*KeyWallet, error) {
	prv, err := hexToECDSAPriv(pkHex)
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, errors.New("key wallet needs a chain id")
	}
	return &KeyWallet{
		prv:     prv,
		addr:    gethcrypto.PubkeyToAddress(prv.PublicKey),
		chainID: new(big.Int).Set(chainID),
		backend: backend,
		closeFn: closeFn,
	}, nil
}

func (w *KeyWallet) Kind() Kind { return KindKey }

func (w *KeyWallet) Address() common.Address { return w.addr }

func (w *KeyWallet) Accounts(context.Context) ([]common.Address, error) {
	return []common.Address{w.addr}, nil
}

// SendTransaction signs a legacy transaction at the pending nonce and
// broadcasts it.
func (w *KeyWallet) SendTransaction(ctx context.Context, req chain.TxRequest) (common.Hash, error) {
	if req.From != w.addr {
		return common.Hash{}, fmt.Errorf("key wallet holds %s, not %s", w.addr.Hex(), req.From.Hex())
	}
	if req.GasPrice == nil {
		return common.Hash{}, errors.New("gas price not set")
	}
	nonce, err := w.backend.PendingNonceAt(ctx, w.addr)
	if err != nil {
		return common.Hash{}, fmt.Errorf("nonce: %w", err)
	}
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	to := req.To
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: new(big.Int).Set(req.GasPrice),
		Gas:      req.Gas,
		To:       &to,
		Value:    new(big.Int).Set(value),
		Data:     req.Data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(w.chainID), w.prv)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign: %w", err)
	}
	if err := w.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("broadcast: %w", err)
	}
	return signed.Hash(), nil
}

func (w *KeyWallet) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

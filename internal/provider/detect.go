package provider

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

const codeMethodNotFound = -32601

// Config chooses and locates the wallet.
type Config struct {
	Mode       string // injected|legacy|key|none, empty detects
	RPCURL     string
	PrivateKey string
	ChainID    *big.Int
	Logf       func(string, ...any)
	Dial       func(ctx context.Context, url string) (*rpc.Client, error)
}

func (c *Config) logf(format string, a ...any) {
	if c.Logf != nil {
		c.Logf(format, a...)
	}
}

func isMethodNotFound(err error) bool {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode() == codeMethodNotFound
	}
	return strings.Contains(strings.ToLower(err.Error()), "method not found") ||
		strings.Contains(err.Error(), "does not exist/is not available")
}

// Detect finds the operator wallet. A nil wallet with a nil error means no
// provider is available; only misconfiguration is an error.
func Detect(ctx context.Context, cfg Config) (Wallet, error) {
	dial := cfg.Dial
	if dial == nil {
		dial = rpc.DialContext
	}
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
		if strings.TrimSpace(cfg.PrivateKey) != "" {
			mode = string(KindKey)
		}
	}

	switch mode {
	case string(KindNone):
		cfg.logf("wallet disabled")
		return nil, nil
	case string(KindKey), string(KindInjected), string(KindLegacy), "auto":
	default:
		return nil, fmt.Errorf("unknown wallet mode %q", cfg.Mode)
	}

	if strings.TrimSpace(cfg.RPCURL) == "" {
		cfg.logf("no RPC_URL, wallet unavailable")
		return nil, nil
	}
	rc, err := dial(ctx, cfg.RPCURL)
	if err != nil {
		cfg.logf("wallet endpoint %s unreachable: %v", cfg.RPCURL, err)
		return nil, nil
	}

	if mode == string(KindKey) {
		ec := ethclient.NewClient(rc)
		chainID := cfg.ChainID
		if chainID == nil || chainID.Sign() == 0 {
			if chainID, err = ec.ChainID(ctx); err != nil {
				rc.Close()
				cfg.logf("chain id: %v", err)
				return nil, nil
			}
		}
		w, err := NewKeyWallet(cfg.PrivateKey, chainID, ec, rc.Close)
		if err != nil {
			rc.Close()
			return nil, err
		}
		cfg.logf("using local key wallet %s (chain %s)", w.Address().Hex(), chainID)
		return w, nil
	}

	if mode == string(KindLegacy) {
		cfg.logf("using legacy wallet at %s", cfg.RPCURL)
		return NewRPCWallet(rc, KindLegacy), nil
	}

	w := NewRPCWallet(rc, KindInjected)
	if _, err := w.RequestAccess(ctx); err != nil {
		if isMethodNotFound(err) {
			if mode == string(KindInjected) {
				cfg.logf("eth_requestAccounts not supported, falling back to eth_accounts")
			}
			cfg.logf("using legacy wallet at %s", cfg.RPCURL)
			return NewRPCWallet(rc, KindLegacy), nil
		}
		// access denied keeps the provider; accounts stay empty
		cfg.logf("user denied account access: %v", err)
	}
	cfg.logf("using injected wallet at %s", cfg.RPCURL)
	return w, nil
}

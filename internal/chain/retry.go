package chain

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
)

// Caller is the read side of an ethclient.Client.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// GasEstimator is satisfied by ethclient.Client.
type GasEstimator interface {
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
}

const maxAttempts = 3

var retryBackoff = 200 * time.Millisecond

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "Too Many Requests") || strings.Contains(s, "-32005")
}

func isRevert(err error) bool {
	return err != nil && strings.Contains(err.Error(), "execution reverted")
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// callWithRetry performs eth_call with small exponential backoff.
// Reverts are returned immediately.
func callWithRetry(ctx context.Context, c Caller, msg ethereum.CallMsg) ([]byte, error) {
	backoff := retryBackoff
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ret, err := c.CallContract(ctx, msg, nil)
		if err == nil {
			return ret, nil
		}
		lastErr = err
		if isRevert(err) {
			break
		}
		if attempt < maxAttempts {
			if e := sleep(ctx, backoff); e != nil {
				return nil, e
			}
			if isRateLimitError(err) {
				backoff *= 2
			}
		}
	}
	return nil, lastErr
}

func estimateGasWithRetry(ctx context.Context, g GasEstimator, msg ethereum.CallMsg) (uint64, error) {
	backoff := retryBackoff
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		gas, err := g.EstimateGas(ctx, msg)
		if err == nil {
			return gas, nil
		}
		lastErr = err
		if isRevert(err) {
			break
		}
		if attempt < maxAttempts {
			if e := sleep(ctx, backoff); e != nil {
				return 0, e
			}
			if isRateLimitError(err) {
				backoff *= 2
			}
		}
	}
	return 0, lastErr
}

// RevertReason trims node error text down to the revert message when present.
func RevertReason(e error) string {
	if e == nil {
		return ""
	}
	s := e.Error()
	if i := strings.Index(s, "execution reverted"); i >= 0 {
		return s[i:]
	}
	return s
}

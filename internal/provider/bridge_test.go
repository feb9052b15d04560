package provider

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ligun0805/crowdsale-console/internal/chain"
)

type fakeWallet struct {
	mu       sync.Mutex
	accounts []common.Address
	err      error
	calls    int
}

func (w *fakeWallet) Kind() Kind { return KindLegacy }

func (w *fakeWallet) set(a ...common.Address) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.accounts = a
}

func (w *fakeWallet) Accounts(context.Context) ([]common.Address, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	return w.accounts, w.err
}

func (w *fakeWallet) callCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

func (w *fakeWallet) SendTransaction(context.Context, chain.TxRequest) (common.Hash, error) {
	return common.Hash{}, nil
}

func (w *fakeWallet) Close() {}

var (
	acct1 = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	acct2 = common.HexToAddress("0x00000000000000000000000000000000000000a2")
)

func TestBridge_PollDetectsAccountChange(t *testing.T) {
	w := &fakeWallet{}
	var changes []common.Address
	b := NewBridge(w, Options{OnChangeAccount: func(next common.Address) { changes = append(changes, next) }})
	ctx := context.Background()

	b.poll(ctx)
	_, err := b.Account()
	assert.ErrorIs(t, err, ErrNoAccount, "empty account list keeps nothing selected")

	w.set(acct1)
	b.poll(ctx)
	got, ok := b.SelectedAccount()
	require.True(t, ok)
	assert.Equal(t, acct1, got)
	assert.Empty(t, changes, "first account is not a change")

	b.poll(ctx)
	assert.Empty(t, changes)

	w.set(acct2, acct1)
	b.poll(ctx)
	assert.Equal(t, []common.Address{acct2}, changes)
	got, _ = b.SelectedAccount()
	assert.Equal(t, acct2, got)

	w.set()
	b.poll(ctx)
	got, _ = b.SelectedAccount()
	assert.Equal(t, acct2, got, "an empty list keeps the last account")
}

func TestBridge_PollErrorIsLogged(t *testing.T) {
	w := &fakeWallet{err: errors.New("locked")}
	var logged []string
	b := NewBridge(w, Options{Logf: func(f string, a ...any) { logged = append(logged, f) }})
	b.poll(context.Background())
	assert.Equal(t, []string{"accounts: %v"}, logged)
	_, ok := b.SelectedAccount()
	assert.False(t, ok)
}

func TestBridge_RenderGating(t *testing.T) {
	var (
		mu     sync.Mutex
		states []State
	)
	record := func(s State) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, s)
	}

	b := NewBridge(&fakeWallet{accounts: []common.Address{acct1}}, Options{
		PollInterval:  5 * time.Millisecond,
		RenderDelay:   30 * time.Millisecond,
		OnStateChange: record,
	})
	assert.Equal(t, StateLoading, b.State())
	b.Start(context.Background())
	defer b.Close()

	assert.Eventually(t, func() bool { return b.State() == StateReady }, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Equal(t, []State{StateReady}, states)
	mu.Unlock()

	none := NewBridge(nil, Options{RenderDelay: 10 * time.Millisecond})
	none.Start(context.Background())
	defer none.Close()
	assert.Eventually(t, func() bool { return none.State() == StateUnavailable }, time.Second, 5*time.Millisecond)
	assert.Nil(t, none.Client())
}

func TestBridge_CloseStopsPolling(t *testing.T) {
	w := &fakeWallet{accounts: []common.Address{acct1}}
	b := NewBridge(w, Options{PollInterval: 2 * time.Millisecond, RenderDelay: time.Hour})
	b.Start(context.Background())
	assert.Eventually(t, func() bool { return w.callCount() >= 3 }, time.Second, time.Millisecond)

	b.Close()
	n := w.callCount()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, w.callCount())
	assert.Equal(t, StateLoading, b.State(), "render timer stopped")
	b.Close()
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "unavailable", StateUnavailable.String())
}

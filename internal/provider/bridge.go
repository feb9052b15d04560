package provider

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// State gates rendering of the console.
type State int

const (
	StateLoading State = iota
	StateReady
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateUnavailable:
		return "unavailable"
	}
	return "loading"
}

const (
	DefaultPollInterval = time.Second
	DefaultRenderDelay  = 1500 * time.Millisecond
)

type Options struct {
	PollInterval    time.Duration
	RenderDelay     time.Duration
	OnChangeAccount func(next common.Address)
	OnStateChange   func(State)
	Logf            func(string, ...any)
}

// Bridge watches the wallet's selected account and reports when the
// console may render.
type Bridge struct {
	wallet Wallet
	opts   Options

	mu       sync.RWMutex
	selected common.Address
	hasSel   bool
	state    State

	startOnce sync.Once
	closeOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
	timer     *time.Timer
}

// NewBridge wraps w, which may be nil when no provider was detected.
func NewBridge(w Wallet, opts Options) *Bridge {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.RenderDelay <= 0 {
		opts.RenderDelay = DefaultRenderDelay
	}
	if opts.Logf == nil {
		opts.Logf = func(string, ...any) {}
	}
	return &Bridge{wallet: w, opts: opts, done: make(chan struct{})}
}

// Start reads the accounts once, then polls every PollInterval and arms
// the render delay.
func (b *Bridge) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		ctx, b.cancel = context.WithCancel(ctx)

		b.mu.Lock()
		b.timer = time.AfterFunc(b.opts.RenderDelay, b.render)
		b.mu.Unlock()

		if b.wallet == nil {
			close(b.done)
			return
		}
		// Account() is valid once Start returns
		b.poll(ctx)
		go b.loop(ctx)
	})
}

func (b *Bridge) loop(ctx context.Context) {
	defer close(b.done)
	t := time.NewTicker(b.opts.PollInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			b.poll(ctx)
		}
	}
}

func (b *Bridge) render() {
	next := StateUnavailable
	if b.wallet != nil {
		next = StateReady
	}
	b.mu.Lock()
	b.state = next
	b.mu.Unlock()
	if b.opts.OnStateChange != nil {
		b.opts.OnStateChange(next)
	}
}

// poll reads the wallet accounts once and fires OnChangeAccount when the
// first account differs from the selected one.
func (b *Bridge) poll(ctx context.Context) {
	if b.wallet == nil {
		return
	}
	accounts, err := b.wallet.Accounts(ctx)
	if err != nil {
		if ctx.Err() == nil {
			b.opts.Logf("accounts: %v", err)
		}
		return
	}
	if len(accounts) == 0 {
		return
	}
	next := accounts[0]

	b.mu.Lock()
	cur, had := b.selected, b.hasSel
	b.selected, b.hasSel = next, true
	b.mu.Unlock()

	if had && strings.ToLower(cur.Hex()) != strings.ToLower(next.Hex()) {
		b.opts.Logf("account changed %s -> %s", cur.Hex(), next.Hex())
		if b.opts.OnChangeAccount != nil {
			b.opts.OnChangeAccount(next)
		}
	}
}

// Client is the detected wallet, nil when unavailable.
func (b *Bridge) Client() Wallet { return b.wallet }

func (b *Bridge) SelectedAccount() (common.Address, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.selected, b.hasSel
}

// Account returns the selected account or ErrNoAccount.
func (b *Bridge) Account() (common.Address, error) {
	if a, ok := b.SelectedAccount(); ok {
		return a, nil
	}
	return common.Address{}, ErrNoAccount
}

func (b *Bridge) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Close stops polling. The wallet itself is left open.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		if b.timer != nil {
			b.timer.Stop()
		}
		b.mu.Unlock()
		if b.cancel != nil {
			b.cancel()
			<-b.done
		}
	})
}

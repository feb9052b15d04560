package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ligun0805/crowdsale-console/internal/crowdsale"
)

var (
	ErrNoTier    = errors.New("no such tier")
	ErrReadOnly  = errors.New("tier is not updatable")
	ErrDuplicate = errors.New("address already whitelisted")
	ErrStored    = errors.New("whitelist entry already on chain")
)

// Console holds the loaded crowdsale: tiers being edited, the initial
// values captured at load time, token and reserved tokens.
type Console struct {
	mu        sync.RWMutex
	strategy  crowdsale.Strategy
	execID    string
	loc       *time.Location
	tiers     []crowdsale.Tier
	initial   []crowdsale.InitialValues
	token     crowdsale.TokenInfo
	reserved  []crowdsale.ReservedToken
	finalized bool
	updatable bool
}

func New(loc *time.Location) *Console {
	return &Console{loc: loc}
}

// Reset clears everything before a (re)load.
func (c *Console) Reset(strategy crowdsale.Strategy, execID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset(strategy, execID)
}

func (c *Console) reset(strategy crowdsale.Strategy, execID string) {
	c.strategy, c.execID = strategy, execID
	c.tiers, c.initial, c.reserved = nil, nil, nil
	c.token = crowdsale.TokenInfo{}
	c.finalized, c.updatable = false, false
}

// Replace swaps in a whole loaded crowdsale at once, so readers never see
// a partially filled store.
func (c *Console) Replace(strategy crowdsale.Strategy, execID string, tiers []crowdsale.ProcessedTier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset(strategy, execID)
	for _, p := range tiers {
		c.apply(p)
	}
}

// Apply stores one processed tier at its index.
func (c *Console) Apply(p crowdsale.ProcessedTier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(p)
}

func (c *Console) apply(p crowdsale.ProcessedTier) {
	idx := p.Initial.Index
	for len(c.tiers) <= idx {
		c.tiers = append(c.tiers, crowdsale.Tier{})
	}
	c.tiers[idx] = p.Tier.Clone()
	if p.Initial.Updatable {
		c.setInitial(p.Initial)
	}
	c.token = p.Token
	c.reserved = append([]crowdsale.ReservedToken(nil), p.Reserved...)
	c.finalized = p.Finalized
	c.updatable = c.updatable || p.Updatable
}

func (c *Console) setInitial(iv crowdsale.InitialValues) {
	for i := range c.initial {
		if c.initial[i].Index == iv.Index {
			c.initial[i] = iv
			return
		}
	}
	c.initial = append(c.initial, iv)
}

func (c *Console) Strategy() crowdsale.Strategy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.strategy
}

func (c *Console) ExecID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.execID
}

func (c *Console) Location() *time.Location { return c.loc }

func (c *Console) Tiers() []crowdsale.Tier {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]crowdsale.Tier, len(c.tiers))
	for i, t := range c.tiers {
		out[i] = t.Clone()
	}
	return out
}

func (c *Console) Tier(i int) (crowdsale.Tier, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i < 0 || i >= len(c.tiers) {
		return crowdsale.Tier{}, fmt.Errorf("%w: %d", ErrNoTier, i)
	}
	return c.tiers[i].Clone(), nil
}

func (c *Console) InitialValues() []crowdsale.InitialValues {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]crowdsale.InitialValues(nil), c.initial...)
}

func (c *Console) Token() crowdsale.TokenInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Console) Reserved() []crowdsale.ReservedToken {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]crowdsale.ReservedToken(nil), c.reserved...)
}

func (c *Console) Finalized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.finalized
}

// Updatable reports whether any tier can still be changed.
func (c *Console) Updatable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatable
}

// editable returns the tier for in-place edits; caller holds c.mu.
func (c *Console) editable(i int) (*crowdsale.Tier, error) {
	if i < 0 || i >= len(c.tiers) {
		return nil, fmt.Errorf("%w: %d", ErrNoTier, i)
	}
	if c.strategy == crowdsale.MintedCapped && !c.tiers[i].Updatable {
		return nil, fmt.Errorf("%w: %d", ErrReadOnly, i)
	}
	return &c.tiers[i], nil
}

// SetStartTime edits a tier start. Only Dutch auctions can move it.
func (c *Console) SetStartTime(i int, v string) error {
	if _, err := crowdsale.MethodFor(c.Strategy(), crowdsale.AttrStartTime); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	t, err := c.editable(i)
	if err != nil {
		return err
	}
	if err := c.checkWindow(v, t.EndTime); err != nil {
		return err
	}
	t.StartTime = v
	return nil
}

// SetEndTime edits a tier end; it must stay after the start.
func (c *Console) SetEndTime(i int, v string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, err := c.editable(i)
	if err != nil {
		return err
	}
	if err := c.checkWindow(t.StartTime, v); err != nil {
		return err
	}
	t.EndTime = v
	return nil
}

func (c *Console) checkWindow(start, end string) error {
	st, err := crowdsale.ParseDate(start, c.loc)
	if err != nil {
		return err
	}
	et, err := crowdsale.ParseDate(end, c.loc)
	if err != nil {
		return err
	}
	if !et.After(st) {
		return fmt.Errorf("%w: end %s is not after start %s", crowdsale.ErrBadTime, end, start)
	}
	return nil
}

// AddWhitelistEntry queues a new (not stored) whitelist entry.
func (c *Console) AddWhitelistEntry(i int, e crowdsale.WhitelistEntry) error {
	if err := crowdsale.ValidateWhitelistEntry(e); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	t, err := c.editable(i)
	if err != nil {
		return err
	}
	for _, w := range t.Whitelist {
		if strings.EqualFold(w.Addr, e.Addr) {
			return fmt.Errorf("%w: %s", ErrDuplicate, e.Addr)
		}
	}
	e.Stored = false
	t.Whitelist = append(t.Whitelist, e)
	crowdsale.SortWhitelist(t.Whitelist)
	return nil
}

// RemoveWhitelistEntry drops a pending entry. Stored entries stay.
func (c *Console) RemoveWhitelistEntry(i int, addr string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, err := c.editable(i)
	if err != nil {
		return err
	}
	for j, w := range t.Whitelist {
		if !strings.EqualFold(w.Addr, addr) {
			continue
		}
		if w.Stored {
			return fmt.Errorf("%w: %s", ErrStored, addr)
		}
		t.Whitelist = append(t.Whitelist[:j], t.Whitelist[j+1:]...)
		return nil
	}
	return fmt.Errorf("%s not in tier %d whitelist", addr, i)
}

// MarkWhitelistStored flags the given entries of tier i as on chain.
func (c *Console) MarkWhitelistStored(i int, entries []crowdsale.WhitelistEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.tiers) {
		return
	}
	for j := range c.tiers[i].Whitelist {
		for _, e := range entries {
			if strings.EqualFold(c.tiers[i].Whitelist[j].Addr, e.Addr) {
				c.tiers[i].Whitelist[j].Stored = true
			}
		}
	}
}

// RefreshInitial recaptures the initial values of tier i from its
// current state, after its updates were mined.
func (c *Console) RefreshInitial(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.tiers) {
		return fmt.Errorf("%w: %d", ErrNoTier, i)
	}
	t := c.tiers[i]
	d, err := crowdsale.DurationMs(t.StartTime, t.EndTime, c.loc)
	if err != nil {
		return err
	}
	for j := range c.initial {
		iv := &c.initial[j]
		if iv.Index != i {
			continue
		}
		iv.Duration = d
		iv.StartTime = t.StartTime
		iv.EndTime = t.EndTime
		iv.Whitelist = append([]crowdsale.WhitelistEntry(nil), t.Whitelist...)
	}
	return nil
}

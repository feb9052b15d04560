package manage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ligun0805/crowdsale-console/internal/chain"
	"github.com/ligun0805/crowdsale-console/internal/crowdsale"
	"github.com/ligun0805/crowdsale-console/internal/store"
)

var (
	ErrFinalized = errors.New("crowdsale is finalized")
	ErrNoTarget  = errors.New("no console contract configured")
)

// Loader reads a full crowdsale snapshot (chain.Reader).
type Loader interface {
	Load(ctx context.Context) (*chain.Snapshot, error)
}

// Submitter sends one transaction and waits for it (chain.Transactor).
type Submitter interface {
	Send(ctx context.Context, from, to common.Address, data []byte) (*types.Receipt, error)
}

// Accounts yields the operator account (provider.Bridge).
type Accounts interface {
	Account() (common.Address, error)
}

type Config struct {
	Strategy       crowdsale.Strategy
	ExecID         common.Hash
	ScriptExecutor common.Address
	Targets        map[crowdsale.Strategy]common.Address
	Location       *time.Location
	Logf           func(string, ...any)
}

// Console ties the reader, the tier store and the transactor together.
type Console struct {
	cfg       Config
	loader    Loader
	tx        Submitter
	accounts  Accounts
	store     *store.Console
	telemetry *store.Telemetry
}

func New(cfg Config, loader Loader, tx Submitter, accounts Accounts, st *store.Console, tel *store.Telemetry) *Console {
	if cfg.Logf == nil {
		cfg.Logf = func(string, ...any) {}
	}
	if st == nil {
		st = store.New(cfg.Location)
	}
	if tel == nil {
		tel = store.NewTelemetry()
	}
	return &Console{cfg: cfg, loader: loader, tx: tx, accounts: accounts, store: st, telemetry: tel}
}

func (c *Console) Store() *store.Console { return c.store }

func (c *Console) Telemetry() *store.Telemetry { return c.telemetry }

// Load reads the crowdsale and maps every tier into the store.
func (c *Console) Load(ctx context.Context) error {
	snap, err := c.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load crowdsale: %w", err)
	}
	updatable := false
	processed := make([]crowdsale.ProcessedTier, 0, len(snap.Tiers))
	for i, raw := range snap.Tiers {
		p, err := crowdsale.ProcessTier(crowdsale.TierInput{
			Strategy:      c.cfg.Strategy,
			Tier:          raw,
			Crowdsale:     snap.Crowdsale,
			Token:         snap.Token,
			Reserved:      snap.Reserved,
			TierNum:       i,
			ExecID:        c.cfg.ExecID.Hex(),
			PrevUpdatable: updatable,
			Location:      c.cfg.Location,
		})
		if err != nil {
			return fmt.Errorf("tier %d: %w", i, err)
		}
		processed = append(processed, p)
		updatable = p.Updatable
	}
	// a failed load keeps the previous state
	c.store.Replace(c.cfg.Strategy, c.cfg.ExecID.Hex(), processed)
	c.cfg.Logf("loaded %d tier(s) for %s, updatable=%v finalized=%v",
		len(snap.Tiers), c.cfg.ExecID.Hex(), c.store.Updatable(), c.store.Finalized())
	return nil
}

// OnAccountChange reloads the crowdsale for the newly selected account.
func (c *Console) OnAccountChange(ctx context.Context, next common.Address) error {
	c.cfg.Logf("account changed to %s, reloading", next.Hex())
	return c.Load(ctx)
}

// PendingUpdates lists the edits that need a transaction.
func (c *Console) PendingUpdates() ([]crowdsale.Update, error) {
	return crowdsale.FieldsToUpdate(c.cfg.Strategy, c.store.InitialValues(), c.store.Tiers(), c.cfg.Location)
}

// UpdateTierAttribute encodes one update, wraps it into a script executor
// call and submits it from the selected account.
func (c *Console) UpdateTierAttribute(ctx context.Context, u crowdsale.Update) (*types.Receipt, error) {
	if c.store.Finalized() {
		return nil, ErrFinalized
	}
	from, err := c.accounts.Account()
	if err != nil {
		return nil, err
	}
	target, ok := c.cfg.Targets[c.cfg.Strategy]
	if !ok || target == (common.Address{}) {
		return nil, fmt.Errorf("%w: crowdsaleConsole%s", ErrNoTarget, c.cfg.Strategy.TargetSuffix())
	}
	tier, err := c.store.Tier(u.Tier)
	if err != nil {
		return nil, err
	}

	call, err := crowdsale.BuildUpdate(crowdsale.UpdateRequest{
		Strategy:  c.cfg.Strategy,
		Attribute: u.Key,
		TierIndex: u.Tier,
		Tier:      tier,
		StartTime: u.Time,
		Whitelist: u.Whitelist,
		Decimals:  c.store.Token().Decimals,
		Context:   crowdsale.Context(c.cfg.ExecID, from, nil),
		Location:  c.cfg.Location,
	})
	if err != nil {
		return nil, err
	}
	data, err := crowdsale.EncodeExec(target, call.Data)
	if err != nil {
		return nil, fmt.Errorf("encode exec: %w", err)
	}
	c.cfg.Logf("tier %d: %s via %s", u.Tier, call.Signature(), target.Hex())

	item := store.TelemetryItem{Action: "update", Tier: u.Tier, Attribute: string(u.Key), Account: from.Hex()}
	rcpt, err := c.tx.Send(ctx, from, c.cfg.ScriptExecutor, data)
	if rcpt != nil {
		item.TxHash = rcpt.TxHash.Hex()
	}
	if err != nil {
		item.Error = err.Error()
		c.telemetry.Add(item)
		return rcpt, fmt.Errorf("tier %d %s: %w", u.Tier, u.Key, err)
	}
	item.OK = true
	c.telemetry.Add(item)
	return rcpt, nil
}

// Save submits every pending update in order. It stops at the first
// failure; updates already mined stay applied.
func (c *Console) Save(ctx context.Context) ([]*types.Receipt, error) {
	if c.store.Finalized() {
		return nil, ErrFinalized
	}
	updates, err := c.PendingUpdates()
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		c.cfg.Logf("nothing to save")
		return nil, nil
	}
	var receipts []*types.Receipt
	for _, u := range updates {
		rcpt, err := c.UpdateTierAttribute(ctx, u)
		if err != nil {
			return receipts, err
		}
		receipts = append(receipts, rcpt)
		if u.Key == crowdsale.AttrWhitelist {
			c.store.MarkWhitelistStored(u.Tier, u.Whitelist)
		}
		if err := c.store.RefreshInitial(u.Tier); err != nil {
			return receipts, err
		}
	}
	c.cfg.Logf("saved %d update(s)", len(receipts))
	return receipts, nil
}

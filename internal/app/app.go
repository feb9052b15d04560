package app

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/ligun0805/crowdsale-console/internal/chain"
	"github.com/ligun0805/crowdsale-console/internal/config"
	"github.com/ligun0805/crowdsale-console/internal/manage"
	"github.com/ligun0805/crowdsale-console/internal/provider"
	"github.com/ligun0805/crowdsale-console/internal/store"
)

// App is a wired console: node client, wallet bridge and the manage
// orchestrator.
type App struct {
	Settings  config.Settings
	Client    *ethclient.Client
	Bridge    *provider.Bridge
	Console   *manage.Console
	Telemetry *store.Telemetry
}

type Options struct {
	Logf            func(string, ...any)
	OnStateChange   func(provider.State)
	OnChangeAccount func(app *App, next common.Address)
}

// Open dials the node, detects the wallet and builds the console. The
// bridge is started; call Close when done.
func Open(ctx context.Context, st config.Settings, opts Options) (*App, error) {
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	cs, err := st.Crowdsale()
	if err != nil {
		return nil, err
	}
	loc, err := st.Location()
	if err != nil {
		return nil, err
	}
	chainID, err := st.ChainIDBig()
	if err != nil {
		return nil, err
	}
	gasPrice, err := chain.ParseGwei(st.GasPriceGwei)
	if err != nil {
		return nil, err
	}

	rc, err := rpc.DialContext(ctx, st.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial RPC: %w", err)
	}
	ec := ethclient.NewClient(rc)

	wallet, err := provider.Detect(ctx, provider.Config{
		Mode:       st.WalletMode,
		RPCURL:     st.RPCURL,
		PrivateKey: st.PrivateKeyHex,
		ChainID:    chainID,
		Logf:       logf,
	})
	if err != nil {
		ec.Close()
		return nil, err
	}

	a := &App{Settings: st, Client: ec, Telemetry: store.NewTelemetry()}

	reader := chain.NewReader(ec, chain.ReaderConfig{
		Strategy:      cs.Strategy,
		Storage:       cs.RegistryStorage,
		InitCrowdsale: cs.InitCrowdsale,
		ExecID:        cs.ExecID,
		TokenTTL:      st.TokenTTL(),
		Logf:          logf,
	})
	var sender chain.Sender
	if wallet != nil {
		sender = wallet
	}
	tx := &chain.Transactor{Backend: ec, Sender: sender, GasPrice: gasPrice, Logf: logf}

	a.Bridge = provider.NewBridge(wallet, provider.Options{
		PollInterval:  st.PollInterval(),
		RenderDelay:   st.RenderDelay(),
		OnStateChange: opts.OnStateChange,
		Logf:          logf,
		OnChangeAccount: func(next common.Address) {
			if opts.OnChangeAccount != nil {
				opts.OnChangeAccount(a, next)
			}
		},
	})
	a.Console = manage.New(manage.Config{
		Strategy:       cs.Strategy,
		ExecID:         cs.ExecID,
		ScriptExecutor: cs.ScriptExecutor,
		Targets:        cs.Targets,
		Location:       loc,
		Logf:           logf,
	}, reader, tx, a.Bridge, store.New(loc), a.Telemetry)

	a.Bridge.Start(ctx)
	return a, nil
}

func (a *App) Close() {
	a.Bridge.Close()
	if w := a.Bridge.Client(); w != nil {
		w.Close()
	}
	a.Client.Close()
}

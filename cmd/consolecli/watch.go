package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/ligun0805/crowdsale-console/internal/app"
	"github.com/ligun0805/crowdsale-console/internal/provider"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the wallet account and reload the crowdsale when it changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.Open(ctx, env.settings, app.Options{
				Logf: app.Logf(env.log),
				OnStateChange: func(s provider.State) {
					env.log.Infof("provider %s", s)
					if s == provider.StateUnavailable {
						env.log.Warn("no wallet provider found, set RPC_URL or WALLET_MODE")
					}
				},
				OnChangeAccount: func(a *app.App, next common.Address) {
					if err := reloadAccount(ctx, a, next); err != nil {
						env.log.Errorf("reload: %v", err)
						return
					}
					printTiers(os.Stdout, a.Console.Store().Tiers())
				},
			})
			if err != nil {
				return err
			}
			defer a.Close()

			if acct, ok := a.Bridge.SelectedAccount(); ok {
				env.log.Infof("account %s", acct.Hex())
			}
			if err := a.Console.Load(ctx); err != nil {
				return err
			}
			restoreSession(a.Console.Store(), a.Settings.SessionFile)
			printTiers(os.Stdout, a.Console.Store().Tiers())

			<-ctx.Done()
			if ctx.Err() == context.Canceled {
				env.log.Info("stopped")
			}
			return nil
		},
	}
}

// reloadAccount reloads the crowdsale for next and re-applies the session.
func reloadAccount(ctx context.Context, a *app.App, next common.Address) error {
	if err := a.Console.OnAccountChange(ctx, next); err != nil {
		return err
	}
	restoreSession(a.Console.Store(), a.Settings.SessionFile)
	return nil
}

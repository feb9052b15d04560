package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/ligun0805/crowdsale-console/internal/app"
	"github.com/ligun0805/crowdsale-console/internal/config"
	"github.com/ligun0805/crowdsale-console/internal/store"
)

type cliEnv struct {
	settings config.Settings
	log      *zap.SugaredLogger
	logLevel string
}

var env cliEnv

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "consolecli",
		Short: "Manage a deployed auth_os crowdsale",
		Long: `Inspect and update the tiers of a Minted Capped or Dutch Auction crowdsale.

Configuration is read from .env and .env.local (RPC_URL, STRATEGY, EXEC_ID,
REGISTRY_STORAGE, INIT_CROWDSALE, SCRIPT_EXECUTOR, CONSOLE_* ...).

Edits are kept in SESSION_FILE until "save" submits them:
  consolecli set-end --tier 0 --time 2024-03-01T12:00
  consolecli whitelist add --tier 0 --addr 0x... --min 1 --max 100
  consolecli pending
  consolecli save`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnvFiles()
			env.settings = config.Load()
			level := env.settings.LogLevel
			if env.logLevel != "" {
				level = env.logLevel
			}
			l, err := app.NewLogger(level)
			if err != nil {
				return err
			}
			env.log = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if env.log != nil {
				_ = env.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&env.logLevel, "log-level", "", "debug|info|warn|error (default LOG_LEVEL)")

	root.AddCommand(
		newTiersCmd(),
		newWhitelistCmd(),
		newSetTimeCmd("set-start", "Move the sale start (Dutch Auction only)", true),
		newSetTimeCmd("set-end", "Change a tier end time", false),
		newPendingCmd(),
		newSaveCmd(),
		newWatchCmd(),
		newStatusCmd(),
	)
	return root
}

// openConsole wires the app, loads the crowdsale and restores the session.
func openConsole(ctx context.Context) (*app.App, error) {
	st := env.settings
	if strings.EqualFold(st.WalletMode, "key") && strings.TrimSpace(st.PrivateKeyHex) == "" && term.IsTerminal(stdinFd()) {
		st.PrivateKeyHex = readPassword("Private key: ")
	}
	a, err := app.Open(ctx, st, app.Options{Logf: app.Logf(env.log)})
	if err != nil {
		return nil, err
	}
	if err := a.Console.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}
	restoreSession(a.Console.Store(), st.SessionFile)
	return a, nil
}

// restoreSession re-applies unsaved edits after a load.
func restoreSession(st *store.Console, path string) int {
	n, err := st.LoadSession(path)
	if err != nil {
		env.log.Warnf("session %s: %v", path, err)
	}
	if n > 0 {
		env.log.Infof("restored unsaved edits for %d tier(s) from %s", n, path)
	}
	return n
}

func saveSession(a *app.App) error {
	if err := a.Console.Store().SaveSession(a.Settings.SessionFile); err != nil {
		return err
	}
	env.log.Debugf("session written to %s", a.Settings.SessionFile)
	return nil
}

func tierFlag(cmd *cobra.Command, p *int) {
	cmd.Flags().IntVar(p, "tier", 0, "tier index")
}

func requireFlag(cmd *cobra.Command, names ...string) {
	for _, n := range names {
		_ = cmd.MarkFlagRequired(n)
	}
}


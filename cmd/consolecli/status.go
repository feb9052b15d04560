package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ligun0805/crowdsale-console/internal/app"
	"github.com/ligun0805/crowdsale-console/internal/chain"
	"github.com/ligun0805/crowdsale-console/internal/config"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show node, fee and wallet state without loading the crowdsale",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := app.Open(ctx, env.settings, app.Options{Logf: app.Logf(env.log)})
			if err != nil {
				return fmt.Errorf("%s", friendlyErr(err))
			}
			defer a.Close()
			printStatus(ctx, os.Stdout, a)
			return nil
		},
	}
}

func printStatus(ctx context.Context, w io.Writer, a *app.App) {
	st := a.Settings
	fmt.Fprintf(w, "[net] rpc: %s\n", st.RPCURL)
	if id, err := a.Client.ChainID(ctx); err == nil {
		fmt.Fprintf(w, "[net] chainId: %s (configured %s)\n", id, st.ChainID)
	} else {
		fmt.Fprintln(w, "[net] chainId error:", friendlyErr(err))
	}
	fixed, _ := chain.ParseGwei(st.GasPriceGwei)
	if ns, err := chain.ReadNetworkState(ctx, a.Client, fixed); err == nil {
		fmt.Fprintf(w, "[net] head: %s  baseFee: %s gwei  gasPrice: %s gwei\n",
			ns.Head, chain.FormatGwei(ns.BaseFee), chain.FormatGwei(ns.GasPrice))
	} else {
		fmt.Fprintln(w, "[net] fee error:", friendlyErr(err))
	}
	if wl := a.Bridge.Client(); wl != nil {
		fmt.Fprintf(w, "[wallet] provider: %s\n", wl.Kind())
	} else {
		fmt.Fprintln(w, "[wallet] provider: none")
	}
	if acct, ok := a.Bridge.SelectedAccount(); ok {
		fmt.Fprintf(w, "[wallet] account: %s\n", acct.Hex())
	}
	fmt.Fprintf(w, "[sale] strategy: %s  exec: %s\n", st.Strategy, config.MaskHex(st.ExecID))
}

// friendlyErr normalizes common node errors for the CLI.
func friendlyErr(err error) string {
	s := err.Error()
	ls := strings.ToLower(s)
	switch {
	case strings.Contains(ls, "invalid character '<'"):
		return "non-JSON/HTML response (proxy/cf?)"
	case strings.Contains(ls, "dial tcp"), strings.Contains(ls, "lookup "), strings.Contains(ls, "connection refused"):
		return "network/DNS error: " + s
	case strings.Contains(ls, "429"), strings.Contains(ls, "too many requests"):
		return "rate limited by RPC: " + s
	}
	return s
}

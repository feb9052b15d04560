package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ligun0805/crowdsale-console/internal/crowdsale"
	"github.com/ligun0805/crowdsale-console/internal/store"
)

func newTiersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tiers",
		Short: "Show token, reserved tokens and tiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openConsole(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			st := a.Console.Store()
			printToken(os.Stdout, st)
			printTiers(os.Stdout, st.Tiers())
			return nil
		},
	}
}

func printToken(w io.Writer, st *store.Console) {
	tok := st.Token()
	fmt.Fprintf(w, "Token     : %s (%s), %d decimals, supply %s\n", tok.Name, tok.Ticker, tok.Decimals, tok.Supply)
	fmt.Fprintf(w, "Strategy  : %s\n", st.Strategy())
	fmt.Fprintf(w, "Finalized : %v   Updatable: %v\n", st.Finalized(), st.Updatable())
	if res := st.Reserved(); len(res) > 0 {
		table := tablewriter.NewWriter(w)
		table.Header("Reserved to", "Dim", "Value")
		for _, r := range res {
			_ = table.Append([]string{r.Addr, r.Dim, r.Val})
		}
		_ = table.Render()
	}
}

func printTiers(w io.Writer, tiers []crowdsale.Tier) {
	table := tablewriter.NewWriter(w)
	table.Header("#", "Name", "Start", "End", "Rate", "Supply", "Updatable", "Whitelist", "Pending")
	for i, t := range tiers {
		_ = table.Append([]string{
			strconv.Itoa(i),
			t.Tier,
			t.StartTime,
			t.EndTime,
			t.Rate,
			t.Supply,
			strconv.FormatBool(t.Updatable),
			fmt.Sprintf("%s (%d)", t.WhitelistEnabled, len(t.Whitelist)),
			strconv.Itoa(len(crowdsale.PendingWhitelist(t.Whitelist))),
		})
	}
	_ = table.Render()
}

func printWhitelist(w io.Writer, entries []crowdsale.WhitelistEntry) {
	table := tablewriter.NewWriter(w)
	table.Header("Address", "Min", "Max", "Stored")
	for _, e := range entries {
		_ = table.Append([]string{e.Addr, e.Min, e.Max, strconv.FormatBool(e.Stored)})
	}
	_ = table.Render()
}

func printUpdates(w io.Writer, updates []crowdsale.Update) {
	table := tablewriter.NewWriter(w)
	table.Header("Tier", "Attribute", "Value")
	for _, u := range updates {
		val := u.Time
		if u.Key == crowdsale.AttrWhitelist {
			val = fmt.Sprintf("%d new address(es)", len(u.Whitelist))
		}
		_ = table.Append([]string{strconv.Itoa(u.Tier), string(u.Key), val})
	}
	_ = table.Render()
}

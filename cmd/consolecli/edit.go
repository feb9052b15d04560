package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ligun0805/crowdsale-console/internal/crowdsale"
)

func newSetTimeCmd(use, short string, start bool) *cobra.Command {
	var (
		tier int
		when string
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openConsole(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			st := a.Console.Store()
			if start {
				err = st.SetStartTime(tier, when)
			} else {
				err = st.SetEndTime(tier, when)
			}
			if err != nil {
				return err
			}
			env.log.Infof("tier %d %s -> %s (run save to submit)", tier, use, when)
			return saveSession(a)
		},
	}
	tierFlag(cmd, &tier)
	cmd.Flags().StringVar(&when, "time", "", "new time, "+crowdsale.DisplayLayout)
	requireFlag(cmd, "time")
	return cmd
}

func newWhitelistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whitelist",
		Short: "List and edit tier whitelists",
	}

	var listTier int
	list := &cobra.Command{
		Use:   "list",
		Short: "Show a tier whitelist",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openConsole(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			t, err := a.Console.Store().Tier(listTier)
			if err != nil {
				return err
			}
			printWhitelist(os.Stdout, t.Whitelist)
			return nil
		},
	}
	tierFlag(list, &listTier)

	var (
		addTier int
		entry   crowdsale.WhitelistEntry
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Queue an address for a tier whitelist",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openConsole(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.Console.Store().AddWhitelistEntry(addTier, entry); err != nil {
				return err
			}
			env.log.Infof("tier %d: queued %s min=%s max=%s", addTier, entry.Addr, entry.Min, entry.Max)
			return saveSession(a)
		},
	}
	tierFlag(add, &addTier)
	add.Flags().StringVar(&entry.Addr, "addr", "", "address")
	add.Flags().StringVar(&entry.Min, "min", "0", "minimum purchase, tokens")
	add.Flags().StringVar(&entry.Max, "max", "", "maximum purchase, tokens")
	requireFlag(add, "addr", "max")

	var (
		rmTier int
		rmAddr string
	)
	rm := &cobra.Command{
		Use:   "rm",
		Short: "Drop a queued (not yet saved) address",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openConsole(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.Console.Store().RemoveWhitelistEntry(rmTier, rmAddr); err != nil {
				return err
			}
			return saveSession(a)
		},
	}
	tierFlag(rm, &rmTier)
	rm.Flags().StringVar(&rmAddr, "addr", "", "address")
	requireFlag(rm, "addr")

	cmd.AddCommand(list, add, rm)
	return cmd
}

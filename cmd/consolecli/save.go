package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List edits that need a transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openConsole(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			updates, err := a.Console.PendingUpdates()
			if err != nil {
				return err
			}
			if len(updates) == 0 {
				fmt.Println("No pending changes.")
				return nil
			}
			printUpdates(os.Stdout, updates)
			return nil
		},
	}
}

func newSaveCmd() *cobra.Command {
	var assumeYes bool
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Submit pending edits, one transaction per change",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openConsole(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			updates, err := a.Console.PendingUpdates()
			if err != nil {
				return err
			}
			if len(updates) == 0 {
				fmt.Println("No pending changes.")
				return nil
			}
			printUpdates(os.Stdout, updates)
			account, err := a.Bridge.Account()
			if err != nil {
				return err
			}
			if !assumeYes {
				r := bufio.NewReader(os.Stdin)
				if !yes(readLine(r, fmt.Sprintf("Send %d transaction(s) from %s? [y/N]: ", len(updates), account.Hex()))) {
					fmt.Println("Aborted.")
					return nil
				}
			}

			receipts, saveErr := a.Console.Save(ctx)
			for _, r := range receipts {
				env.log.Infof("mined %s in block %v", r.TxHash.Hex(), r.BlockNumber)
			}
			// keep whatever is still pending for the next run
			if err := saveSession(a); err != nil {
				env.log.Warnf("session: %v", err)
			}
			if saveErr != nil {
				return saveErr
			}
			fmt.Printf("Saved %d change(s).\n", len(receipts))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

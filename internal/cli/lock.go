package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ─── lock ───────────────────────────────────────────────────────────────────

func newLockCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Protect the local ledger with a PIN",
	}

	set := &cobra.Command{
		Use:   "set PIN",
		Short: "Require a 4-digit PIN for every command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.lock.SetPIN(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "PIN lock enabled")
			return nil
		},
	}

	rm := &cobra.Command{
		Use:     "clear",
		Aliases: []string{"rm"},
		Short:   "Remove the PIN lock",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.lock.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "PIN lock removed")
			return nil
		},
	}

	cmd.AddCommand(set, rm)
	return cmd
}

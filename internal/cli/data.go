package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/KumarDhananjaya/Spendly/internal/export"
	"github.com/KumarDhananjaya/Spendly/internal/ledger"

	"github.com/spf13/cobra"
)

// ─── export ─────────────────────────────────────────────────────────────────

func newExportCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:       "export json|csv|xlsx|backup",
		Short:     "Export the ledger",
		Long:      "Export writes the ledger as JSON, CSV, an Excel sheet or an encrypted backup.\nThe backup uses client.encryption_key.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"json", "csv", "xlsx", "backup"},
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := a.store.Snapshot()
			var buf bytes.Buffer
			switch args[0] {
			case "json":
				data, err := export.JSON(snap, a.now())
				if err != nil {
					return err
				}
				buf.Write(data)
			case "csv":
				if err := export.WriteCSV(&buf, snap); err != nil {
					return err
				}
			case "xlsx":
				if out == "" {
					return fmt.Errorf("xlsx export needs --out")
				}
				if err := export.WriteXLSX(&buf, snap); err != nil {
					return err
				}
			case "backup":
				data, err := export.Seal(a.cfg.Client.EncryptionKey, snap, a.now())
				if err != nil {
					return err
				}
				buf.Write(data)
			default:
				return fmt.Errorf("unknown format %q", args[0])
			}

			if out == "" {
				_, err := io.Copy(cmd.OutOrStdout(), &buf)
				return err
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o600); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d transaction(s) to %s\n", len(snap.Transactions), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

// ─── import / erase ─────────────────────────────────────────────────────────

func newImportCmd(a *app) *cobra.Command {
	var sealed bool

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the ledger with a JSON export or backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var snap ledger.Snapshot
			if sealed {
				snap, err = export.Open(a.cfg.Client.EncryptionKey, data)
			} else {
				snap, err = export.ParseJSON(data)
			}
			if err != nil {
				return err
			}
			a.store.Restore(snap)
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d transaction(s), %d account(s), %d categories\n",
				len(a.store.Transactions()), len(a.store.Accounts()), len(a.store.Categories()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&sealed, "sealed", false, "file is an encrypted backup")
	return cmd
}

func newEraseCmd(a *app) *cobra.Command {
	var yes, resetSync bool

	cmd := &cobra.Command{
		Use:   "erase",
		Short: "Delete every transaction, account, category and budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("erase is permanent; pass --yes to confirm")
			}
			a.store.Restore(ledger.Snapshot{
				Transactions: []ledger.Transaction{},
				Accounts:     []ledger.Account{},
				Categories:   []ledger.Category{},
				Budgets:      []ledger.Budget{},
				Currency:     a.store.Currency(),
			})
			if resetSync {
				a.queue.Reset()
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All local data erased")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm")
	cmd.Flags().BoolVar(&resetSync, "reset-sync", false, "also drop pending changes and pull everything again on the next sync")
	return cmd
}

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/KumarDhananjaya/Spendly/internal/parser"

	"github.com/spf13/cobra"
)

// ─── scan ───────────────────────────────────────────────────────────────────

func newScanCmd(a *app) *cobra.Command {
	var account string
	var commit bool
	var skip []int

	cmd := &cobra.Command{
		Use:   "scan [FILE|-]",
		Short: "Find transactions in pasted bank SMS text",
		Long: `Scan reads bank messages, one per line, from FILE or stdin and lists the
transactions it recognises. With --commit they are added to the ledger,
except the rows listed by --skip.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			matches := parser.ParseBulk(string(text))
			out := cmd.OutOrStdout()
			if len(matches) == 0 {
				fmt.Fprintln(out, "No transactions found")
				return nil
			}

			w := table(out)
			fmt.Fprintln(w, "#\tTYPE\tAMOUNT\tCATEGORY\tRULE")
			for i, m := range matches {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, m.Direction, a.money(m.Amount), m.Category, m.Rule)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if !commit {
				fmt.Fprintf(out, "%d match(es); rerun with --commit to import\n", len(matches))
				return nil
			}
			selected, err := deselect(matches, skip)
			if err != nil {
				return err
			}
			if len(selected) == 0 {
				fmt.Fprintln(out, "Nothing to import")
				return nil
			}
			txs, err := a.store.ImportMatches(selected, account)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			fmt.Fprintf(out, "Imported %d transaction(s)\n", len(txs))
			return nil
		},
	}
	cmd.Flags().StringVarP(&account, "account", "a", "", "account to book onto (default first account)")
	cmd.Flags().BoolVar(&commit, "commit", false, "add the matches to the ledger")
	cmd.Flags().IntSliceVar(&skip, "skip", nil, "row numbers to leave out of the import, e.g. 2,5")
	return cmd
}

// deselect drops the 1-based rows in skip from matches.
func deselect(matches []parser.Match, skip []int) ([]parser.Match, error) {
	drop := make(map[int]bool, len(skip))
	for _, n := range skip {
		if n < 1 || n > len(matches) {
			return nil, fmt.Errorf("skip: no row %d (found %d)", n, len(matches))
		}
		drop[n-1] = true
	}
	kept := make([]parser.Match, 0, len(matches))
	for i, m := range matches {
		if !drop[i] {
			kept = append(kept, m)
		}
	}
	return kept, nil
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(args[0])
}

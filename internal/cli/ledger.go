package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/KumarDhananjaya/Spendly/internal/ledger"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func (a *app) money(d decimal.Decimal) string {
	return a.store.Currency() + d.StringFixed(2)
}

func (a *app) categoryName(id string) string {
	if c, ok := a.store.Category(id); ok {
		return c.Name
	}
	return "Unknown"
}

func (a *app) accountName(id string) string {
	if acct, ok := a.store.Account(id); ok {
		return acct.Name
	}
	return "Unknown"
}

// ─── summary ────────────────────────────────────────────────────────────────

func newSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show balances, totals and this month's budgets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := table(cmd.OutOrStdout())
			fmt.Fprintf(w, "Balance\t%s\n", a.money(a.store.TotalBalance()))
			fmt.Fprintf(w, "Earnings\t%s\n", a.money(a.store.Earnings()))
			fmt.Fprintf(w, "Expenses\t%s\n", a.money(a.store.Expenses()))
			fmt.Fprintf(w, "Net worth\t%s\n", a.money(a.store.NetWorth()))
			if budgets := a.store.Budgets(); len(budgets) > 0 {
				fmt.Fprintln(w, "\nBUDGET\tSPENT\tLIMIT")
				for _, b := range budgets {
					fmt.Fprintf(w, "%s\t%s\t%s\n", a.categoryName(b.CategoryID),
						a.money(a.store.CategorySpent(b.CategoryID)), a.money(b.Amount))
				}
			}
			if n := a.queue.Len(); n > 0 {
				fmt.Fprintf(w, "\n%d change(s) waiting to sync\n", n)
			}
			return w.Flush()
		},
	}
}

// ─── account ────────────────────────────────────────────────────────────────

func newAccountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}

	var typ, balance, color string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add an account with an opening balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opening := decimal.Zero
			if balance != "" {
				d, err := decimal.NewFromString(balance)
				if err != nil {
					return fmt.Errorf("invalid balance %q", balance)
				}
				opening = d
			}
			acct, err := a.store.AddAccount(ledger.AccountDraft{
				Name:    args[0],
				Type:    ledger.AccountType(typ),
				Balance: opening,
				Color:   color,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added account %s (%s)\n", acct.Name, acct.ID)
			return nil
		},
	}
	add.Flags().StringVarP(&typ, "type", "t", string(ledger.AccountBank), "bank, cash, card or upi")
	add.Flags().StringVarP(&balance, "balance", "b", "", "opening balance")
	add.Flags().StringVar(&color, "color", "", "display color")

	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tBALANCE")
			for _, acct := range a.store.Accounts() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", acct.ID, acct.Name, acct.Type, a.money(acct.Balance))
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

// ─── category ───────────────────────────────────────────────────────────────

func newCategoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage categories",
	}

	var typ, icon, color string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.store.AddCategory(ledger.CategoryDraft{
				Name:  args[0],
				Icon:  icon,
				Color: color,
				Type:  ledger.Direction(typ),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added category %s (%s)\n", c.Name, c.ID)
			return nil
		},
	}
	add.Flags().StringVarP(&typ, "type", "t", string(ledger.Expense), "expense or earning")
	add.Flags().StringVar(&icon, "icon", "", "icon name")
	add.Flags().StringVar(&color, "color", "", "display color")

	rm := &cobra.Command{
		Use:   "rm ID",
		Short: "Remove a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := a.store.Category(args[0]); !ok {
				return fmt.Errorf("category %q not found", args[0])
			}
			a.store.DeleteCategory(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Removed category %s\n", args[0])
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tSPENT THIS MONTH")
			for _, c := range a.store.Categories() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Type, a.money(a.store.CategorySpent(c.ID)))
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(add, rm, list)
	return cmd
}

// ─── tx ─────────────────────────────────────────────────────────────────────

type txFlags struct {
	typ, category, account, to, note string
	recurring                        bool
}

func (f *txFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.typ, "type", "t", string(ledger.Expense), "expense, earning or transfer")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "category id (not for transfers)")
	cmd.Flags().StringVarP(&f.account, "account", "a", "main-cash", "account id")
	cmd.Flags().StringVar(&f.to, "to", "", "destination account id for transfers")
	cmd.Flags().StringVarP(&f.note, "note", "n", "", "note")
	cmd.Flags().BoolVar(&f.recurring, "recurring", false, "mark as recurring")
}

func newTxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transaction"},
		Short:   "Record and edit transactions",
	}

	var addFlags txFlags
	add := &cobra.Command{
		Use:   "add AMOUNT",
		Short: "Record a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := ledger.ParseAmount(args[0])
			if err != nil {
				return err
			}
			t, err := a.store.AddTransaction(ledger.Draft{
				Amount:      amount,
				Direction:   ledger.Direction(addFlags.typ),
				CategoryID:  addFlags.category,
				AccountID:   addFlags.account,
				ToAccountID: addFlags.to,
				Note:        addFlags.note,
				Recurring:   addFlags.recurring,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s (%s)\n", t.Direction, a.money(t.Amount), t.ID)
			return nil
		},
	}
	addFlags.register(add)

	var editFlags txFlags
	var editAmount string
	edit := &cobra.Command{
		Use:   "edit ID",
		Short: "Change fields of a transaction; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, ok := a.store.Transaction(args[0])
			if !ok {
				return fmt.Errorf("transaction %q not found", args[0])
			}
			d := ledger.DraftOf(t)
			fl := cmd.Flags()
			if fl.Changed("amount") {
				amount, err := ledger.ParseAmount(editAmount)
				if err != nil {
					return err
				}
				d.Amount = amount
			}
			if fl.Changed("type") {
				d.Direction = ledger.Direction(editFlags.typ)
			}
			if fl.Changed("category") {
				d.CategoryID = editFlags.category
			}
			if fl.Changed("account") {
				d.AccountID = editFlags.account
			}
			if fl.Changed("to") {
				d.ToAccountID = editFlags.to
			}
			if fl.Changed("note") {
				d.Note = editFlags.note
			}
			if fl.Changed("recurring") {
				d.Recurring = editFlags.recurring
			}
			if err := a.store.UpdateTransaction(t.ID, d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", t.ID)
			return nil
		},
	}
	editFlags.register(edit)
	edit.Flags().StringVar(&editAmount, "amount", "", "new amount")

	rm := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a transaction and reverse its balance effect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := a.store.Transaction(args[0]); !ok {
				return fmt.Errorf("transaction %q not found", args[0])
			}
			a.store.DeleteTransaction(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List transactions, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tDATE\tTYPE\tAMOUNT\tCATEGORY\tACCOUNT\tNOTE")
			for i, t := range a.store.Transactions() {
				if limit > 0 && i >= limit {
					break
				}
				category := a.categoryName(t.CategoryID)
				if t.Direction == ledger.Transfer {
					category = "→ " + a.accountName(t.ToAccountID)
				}
				note := t.Note
				if t.Recurring {
					note = "↻ " + note
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.CreatedAt.Local().Format("2006-01-02 15:04"),
					t.Direction, a.money(t.Amount), category, a.accountName(t.AccountID), note)
			}
			return w.Flush()
		},
	}
	list.Flags().IntVarP(&limit, "limit", "l", 20, "maximum rows, 0 for all")

	cmd.AddCommand(add, edit, rm, list)
	return cmd
}

// ─── budget ─────────────────────────────────────────────────────────────────

func newBudgetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage monthly category budgets",
	}

	set := &cobra.Command{
		Use:   "set CATEGORY_ID AMOUNT",
		Short: "Set the monthly limit of a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := a.store.Category(args[0]); !ok {
				return fmt.Errorf("category %q not found", args[0])
			}
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid amount %q", args[1])
			}
			if err := a.store.SetBudget(args[0], amount); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Budget for %s set to %s\n", a.categoryName(args[0]), a.money(amount))
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List budgets with this month's spending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "CATEGORY\tSPENT\tLIMIT\tLEFT")
			for _, b := range a.store.Budgets() {
				spent := a.store.CategorySpent(b.CategoryID)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.categoryName(b.CategoryID),
					a.money(spent), a.money(b.Amount), a.money(b.Amount.Sub(spent)))
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(set, list)
	return cmd
}

// ─── currency / recurring ───────────────────────────────────────────────────

func newCurrencyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "currency [SYMBOL]",
		Short: "Show or set the display currency symbol",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				a.store.SetCurrency(args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.store.Currency())
			return nil
		},
	}
}

func newRecurringCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recurring",
		Short: "Flag transactions that repeat with the same amount and note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n := a.store.DetectRecurring()
			fmt.Fprintf(cmd.OutOrStdout(), "Flagged %d transaction(s) as recurring\n", n)
			return nil
		},
	}
}

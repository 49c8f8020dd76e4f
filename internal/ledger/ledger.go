// Package ledger holds one user's accounts, categories, transactions and
// budgets and keeps account balances consistent with every mutation.
package ledger

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Direction of a transaction or category.
type Direction string

const (
	Expense  Direction = "expense"
	Earning  Direction = "earning"
	Transfer Direction = "transfer"
)

// AccountType is the kind of money holder.
type AccountType string

const (
	AccountBank AccountType = "bank"
	AccountCash AccountType = "cash"
	AccountCard AccountType = "card"
	AccountUPI  AccountType = "upi"
)

// Source tags where a transaction came from.
type Source string

const (
	SourceManual Source = "MANUAL"
	SourceSMS    Source = "SMS"
	SourceUPI    Source = "UPI"
)

// MonthlyPeriod is the only budget period.
const MonthlyPeriod = "monthly"

// DefaultCurrency is used when a snapshot carries none.
const DefaultCurrency = "₹"

var (
	ErrInvalidAmount       = errors.New("ledger: amount must be positive")
	ErrInvalidDirection    = errors.New("ledger: invalid direction")
	ErrMissingCategory     = errors.New("ledger: category is required")
	ErrMissingAccount      = errors.New("ledger: account is required")
	ErrUnknownAccount      = errors.New("ledger: unknown account")
	ErrSameAccountTransfer = errors.New("ledger: transfer source and destination must differ")
	ErrInvalidAccountType  = errors.New("ledger: invalid account type")
	ErrEmptyName           = errors.New("ledger: name is required")
)

type Account struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Type    AccountType     `json:"type"`
	Balance decimal.Decimal `json:"balance"`
	Color   string          `json:"color"`
}

type Category struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Icon  string    `json:"icon"`
	Color string    `json:"color"`
	Type  Direction `json:"type"`
}

// Transaction is a committed ledger entry. CategoryID is empty for
// transfers and ToAccountID is set only for transfers.
type Transaction struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Direction   Direction       `json:"type"`
	CategoryID  string          `json:"categoryId,omitempty"`
	AccountID   string          `json:"accountId"`
	ToAccountID string          `json:"toAccountId,omitempty"`
	Note        string          `json:"note"`
	CreatedAt   time.Time       `json:"date"`
	Recurring   bool            `json:"isRecurring"`
	Source      Source          `json:"source,omitempty"`
}

type Budget struct {
	CategoryID string          `json:"categoryId"`
	Amount     decimal.Decimal `json:"amount"`
	Period     string          `json:"period"`
}

// Snapshot is the full persisted state. A nil collection means "absent"
// and an empty one means "erased"; Restore treats them differently.
type Snapshot struct {
	Transactions []Transaction `json:"transactions"`
	Accounts     []Account     `json:"accounts"`
	Categories   []Category    `json:"categories"`
	Budgets      []Budget      `json:"budgets"`
	Currency     string        `json:"currency"`
}

// Draft is the caller-supplied part of a transaction.
type Draft struct {
	Amount      decimal.Decimal
	Direction   Direction
	CategoryID  string
	AccountID   string
	ToAccountID string
	Note        string
	Recurring   bool
	Source      Source
}

// DraftOf returns the draft that would recreate t.
func DraftOf(t Transaction) Draft {
	return Draft{
		Amount:      t.Amount,
		Direction:   t.Direction,
		CategoryID:  t.CategoryID,
		AccountID:   t.AccountID,
		ToAccountID: t.ToAccountID,
		Note:        t.Note,
		Recurring:   t.Recurring,
		Source:      t.Source,
	}
}

type AccountDraft struct {
	Name    string
	Type    AccountType
	Balance decimal.Decimal
	Color   string
}

type CategoryDraft struct {
	Name  string
	Icon  string
	Color string
	Type  Direction
}

// DefaultCategories returns a fresh copy of the built-in categories.
func DefaultCategories() []Category {
	return []Category{
		{ID: "1", Name: "Food", Icon: "Utensils", Color: "#FF9500", Type: Expense},
		{ID: "2", Name: "Transport", Icon: "Car", Color: "#5856D6", Type: Expense},
		{ID: "3", Name: "Shopping", Icon: "ShoppingBag", Color: "#FF2D55", Type: Expense},
		{ID: "4", Name: "Entertainment", Icon: "Gamepad2", Color: "#AF52DE", Type: Expense},
		{ID: "5", Name: "Health", Icon: "Heart", Color: "#FF3B30", Type: Expense},
		{ID: "6", Name: "Bills", Icon: "Receipt", Color: "#007AFF", Type: Expense},
		{ID: "7", Name: "Salary", Icon: "Briefcase", Color: "#34C759", Type: Earning},
		{ID: "8", Name: "Other", Icon: "MoreHorizontal", Color: "#8E8E93", Type: Expense},
	}
}

// DefaultAccounts returns a fresh copy of the built-in accounts.
func DefaultAccounts() []Account {
	return []Account{
		{ID: "main-cash", Name: "Cash Wallet", Type: AccountCash, Balance: decimal.Zero, Color: "#34C759"},
	}
}

func validDirection(d Direction) bool {
	switch d {
	case Expense, Earning, Transfer:
		return true
	}
	return false
}

func validAccountType(t AccountType) bool {
	switch t {
	case AccountBank, AccountCash, AccountCard, AccountUPI:
		return true
	}
	return false
}

// ParseAmount parses a user-entered amount and rejects non-positive or
// non-numeric input.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ---------- balance effects ----------

type delta struct {
	account string
	amount  decimal.Decimal
}

// effects is the single place that maps a transaction to per-account
// balance changes.
func effects(t Transaction) []delta {
	switch t.Direction {
	case Earning:
		return []delta{{t.AccountID, t.Amount}}
	case Expense:
		return []delta{{t.AccountID, t.Amount.Neg()}}
	case Transfer:
		return []delta{{t.AccountID, t.Amount.Neg()}, {t.ToAccountID, t.Amount}}
	}
	return nil
}

package ledger

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/KumarDhananjaya/Spendly/internal/syncproto"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Persister writes the full snapshot to durable storage.
type Persister interface {
	Save(Snapshot) error
}

// Recorder receives one change event per synced mutation.
type Recorder interface {
	Record(entity, action string, payload any) error
}

// Store is the in-memory ledger. Every mutation adjusts balances, flushes
// the snapshot and records a change event while holding the lock.
type Store struct {
	mu sync.RWMutex

	txs        []Transaction
	accounts   []Account
	categories []Category
	budgets    []Budget
	currency   string

	persist Persister
	record  Recorder
	now     func() time.Time
	log     *slog.Logger
}

type Option func(*Store)

func WithPersister(p Persister) Option { return func(s *Store) { s.persist = p } }

func WithRecorder(r Recorder) Option { return func(s *Store) { s.record = r } }

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.log = l } }

// WithSnapshot seeds the store from a previously persisted snapshot using the
// same fallbacks as Restore, without flushing.
func WithSnapshot(snap Snapshot) Option {
	return func(s *Store) { s.load(snap) }
}

// New returns a store holding the default categories and account unless a
// snapshot option says otherwise.
func New(opts ...Option) *Store {
	s := &Store{
		now: time.Now,
		log: slog.Default(),
	}
	s.load(Snapshot{})
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) load(snap Snapshot) {
	s.txs = cloneOr(snap.Transactions, nil)
	s.accounts = cloneOr(snap.Accounts, DefaultAccounts())
	s.categories = cloneOr(snap.Categories, DefaultCategories())
	s.budgets = cloneOr(snap.Budgets, nil)
	s.currency = snap.Currency
	if s.currency == "" {
		s.currency = DefaultCurrency
	}
}

func cloneOr[T any](src, fallback []T) []T {
	if src == nil {
		if fallback == nil {
			return []T{}
		}
		return fallback
	}
	out := make([]T, len(src))
	copy(out, src)
	return out
}

// ---------- transactions ----------

// AddTransaction validates d, commits it as the most recent transaction and
// applies its balance effect.
func (s *Store) AddTransaction(d Draft) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.validate(d)
	if err != nil {
		return Transaction{}, err
	}
	tx := fromDraft(uuid.NewString(), s.now(), d)
	s.txs = append([]Transaction{tx}, s.txs...)
	s.applyLocked(tx, false)

	s.flushLocked()
	if tx.Direction != Transfer {
		s.emitLocked(syncproto.EntityExpense, syncproto.ActionCreate, expensePayload(tx))
	}
	return tx, nil
}

// UpdateTransaction replaces the transaction with id by d, keeping its id
// and creation time. The old effect is reverted before the new one is
// applied. Unknown ids are ignored.
func (s *Store) UpdateTransaction(id string, d Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.txIndex(id)
	if i < 0 {
		return nil
	}
	d, err := s.validate(d)
	if err != nil {
		return err
	}
	old := s.txs[i]
	next := fromDraft(old.ID, old.CreatedAt, d)

	s.applyLocked(old, true)
	s.applyLocked(next, false)
	s.txs[i] = next

	s.flushLocked()
	switch {
	case next.Direction != Transfer:
		s.emitLocked(syncproto.EntityExpense, syncproto.ActionUpdate, expensePayload(next))
	case old.Direction != Transfer:
		s.emitLocked(syncproto.EntityExpense, syncproto.ActionDelete, syncproto.DeleteKey{ClientID: old.ID})
	}
	return nil
}

// DeleteTransaction reverts and removes the transaction with id. Unknown
// ids are ignored.
func (s *Store) DeleteTransaction(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.txIndex(id)
	if i < 0 {
		return
	}
	old := s.txs[i]
	s.applyLocked(old, true)
	s.txs = append(s.txs[:i], s.txs[i+1:]...)

	s.flushLocked()
	if old.Direction != Transfer {
		s.emitLocked(syncproto.EntityExpense, syncproto.ActionDelete, syncproto.DeleteKey{ClientID: old.ID})
	}
}

// DetectRecurring flags every transaction that shares amount, category and
// day of month with at least one other transaction. Expenses and earnings
// whose flag changed are queued as updates.
func (s *Store) DetectRecurring() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	flagged := 0
	var changed []Transaction
	for i := range s.txs {
		a := s.txs[i]
		match := false
		for j := range s.txs {
			b := s.txs[j]
			if i != j && a.Amount.Equal(b.Amount) && a.CategoryID == b.CategoryID &&
				a.CreatedAt.Day() == b.CreatedAt.Day() {
				match = true
				break
			}
		}
		if a.Recurring != match {
			s.txs[i].Recurring = match
			if a.Direction != Transfer {
				changed = append(changed, s.txs[i])
			}
		}
		if match {
			flagged++
		}
	}
	s.flushLocked()
	for _, tx := range changed {
		s.emitLocked(syncproto.EntityExpense, syncproto.ActionUpdate, expensePayload(tx))
	}
	return flagged
}

// ---------- accounts, categories, budgets ----------

func (s *Store) AddAccount(d AccountDraft) (Account, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return Account{}, ErrEmptyName
	}
	if !validAccountType(d.Type) {
		return Account{}, fmt.Errorf("%w: %q", ErrInvalidAccountType, d.Type)
	}
	color := d.Color
	if color == "" {
		color = "#007AFF"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := Account{ID: uuid.NewString(), Name: name, Type: d.Type, Balance: d.Balance, Color: color}
	s.accounts = append(s.accounts, acc)
	s.flushLocked()
	return acc, nil
}

func (s *Store) AddCategory(d CategoryDraft) (Category, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return Category{}, ErrEmptyName
	}
	if d.Type != Expense && d.Type != Earning {
		return Category{}, fmt.Errorf("%w: %q", ErrInvalidDirection, d.Type)
	}
	color := d.Color
	if color == "" {
		color = "#8E8E93"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := Category{ID: uuid.NewString(), Name: name, Icon: d.Icon, Color: color, Type: d.Type}
	s.categories = append(s.categories, c)
	s.flushLocked()
	s.emitLocked(syncproto.EntityCategory, syncproto.ActionCreate, categoryPayload(c))
	return c, nil
}

// DeleteCategory removes the category. Transactions keep their reference.
func (s *Store) DeleteCategory(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.categories {
		if c.ID != id {
			continue
		}
		s.categories = append(s.categories[:i], s.categories[i+1:]...)
		s.flushLocked()
		s.emitLocked(syncproto.EntityCategory, syncproto.ActionDelete, syncproto.DeleteKey{ClientID: id})
		return
	}
}

// SetBudget upserts the monthly limit of a category. Zero is allowed.
func (s *Store) SetBudget(categoryID string, amount decimal.Decimal) error {
	if categoryID == "" {
		return ErrMissingCategory
	}
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := Budget{CategoryID: categoryID, Amount: amount, Period: MonthlyPeriod}
	action := syncproto.ActionCreate
	replaced := false
	for i := range s.budgets {
		if s.budgets[i].CategoryID == categoryID {
			s.budgets[i] = b
			replaced = true
			action = syncproto.ActionUpdate
			break
		}
	}
	if !replaced {
		s.budgets = append(s.budgets, b)
	}
	s.flushLocked()
	s.emitLocked(syncproto.EntityBudget, action, syncproto.BudgetPayload{
		CategoryID: b.CategoryID, Amount: b.Amount, Period: b.Period,
	})
	return nil
}

func (s *Store) SetCurrency(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if symbol == "" {
		symbol = DefaultCurrency
	}
	s.currency = symbol
	s.flushLocked()
}

// Restore replaces the whole state. Absent (nil) accounts and categories
// fall back to the defaults; empty ones stay empty. No events are recorded.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(snap)
	s.flushLocked()
}

// ---------- internals ----------

func (s *Store) validate(d Draft) (Draft, error) {
	if !d.Amount.IsPositive() {
		return d, ErrInvalidAmount
	}
	if !validDirection(d.Direction) {
		return d, fmt.Errorf("%w: %q", ErrInvalidDirection, d.Direction)
	}
	if d.AccountID == "" {
		return d, ErrMissingAccount
	}
	if s.accountIndex(d.AccountID) < 0 {
		return d, fmt.Errorf("%w: %s", ErrUnknownAccount, d.AccountID)
	}
	if d.Direction == Transfer {
		if d.ToAccountID == "" {
			return d, ErrMissingAccount
		}
		if d.ToAccountID == d.AccountID {
			return d, ErrSameAccountTransfer
		}
		if s.accountIndex(d.ToAccountID) < 0 {
			return d, fmt.Errorf("%w: %s", ErrUnknownAccount, d.ToAccountID)
		}
		d.CategoryID = ""
	} else {
		if d.CategoryID == "" {
			return d, ErrMissingCategory
		}
		d.ToAccountID = ""
	}
	if d.Source == "" {
		d.Source = SourceManual
	}
	return d, nil
}

func fromDraft(id string, at time.Time, d Draft) Transaction {
	return Transaction{
		ID:          id,
		Amount:      d.Amount,
		Direction:   d.Direction,
		CategoryID:  d.CategoryID,
		AccountID:   d.AccountID,
		ToAccountID: d.ToAccountID,
		Note:        d.Note,
		CreatedAt:   at,
		Recurring:   d.Recurring,
		Source:      d.Source,
	}
}

// applyLocked adds the effect of t to the referenced accounts, or removes it
// when revert is set. Accounts that do not exist locally are skipped.
func (s *Store) applyLocked(t Transaction, revert bool) {
	for _, d := range effects(t) {
		i := s.accountIndex(d.account)
		if i < 0 {
			s.log.Debug("ledger: balance effect on unknown account", "account", d.account, "tx", t.ID)
			continue
		}
		amount := d.amount
		if revert {
			amount = amount.Neg()
		}
		s.accounts[i].Balance = s.accounts[i].Balance.Add(amount)
	}
}

func (s *Store) txIndex(id string) int {
	for i := range s.txs {
		if s.txs[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) accountIndex(id string) int {
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Transactions: cloneOr(s.txs, nil),
		Accounts:     cloneOr(s.accounts, nil),
		Categories:   cloneOr(s.categories, nil),
		Budgets:      cloneOr(s.budgets, nil),
		Currency:     s.currency,
	}
}

// flushLocked persists the current state. A failed write is only logged;
// the in-memory state stays authoritative.
func (s *Store) flushLocked() {
	if s.persist == nil {
		return
	}
	if err := s.persist.Save(s.snapshotLocked()); err != nil {
		s.log.Warn("ledger: flush snapshot failed", "error", err)
	}
}

func (s *Store) emitLocked(entity, action string, payload any) {
	if s.record == nil {
		return
	}
	if err := s.record.Record(entity, action, payload); err != nil {
		s.log.Warn("ledger: record change event failed", "entity", entity, "action", action, "error", err)
	}
}

func expensePayload(t Transaction) syncproto.ExpensePayload {
	return syncproto.ExpensePayload{
		ClientID:   t.ID,
		Amount:     t.Amount,
		Type:       string(t.Direction),
		CategoryID: t.CategoryID,
		AccountID:  t.AccountID,
		Note:       t.Note,
		Source:     string(t.Source),
		Recurring:  t.Recurring,
		SpentAt:    t.CreatedAt.UnixMilli(),
	}
}

func categoryPayload(c Category) syncproto.CategoryPayload {
	return syncproto.CategoryPayload{
		ClientID: c.ID,
		Name:     c.Name,
		Icon:     c.Icon,
		Color:    c.Color,
		Type:     string(c.Type),
	}
}

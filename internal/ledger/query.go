package ledger

import (
	"github.com/shopspring/decimal"
)

// TotalBalance is earnings minus expenses over all non-transfer
// transactions. It is derived from history and is independent of the
// materialized per-account balances.
func (s *Store) TotalBalance() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, t := range s.txs {
		switch t.Direction {
		case Earning:
			total = total.Add(t.Amount)
		case Expense:
			total = total.Sub(t.Amount)
		}
	}
	return total
}

// Expenses is the all-time sum of expense amounts.
func (s *Store) Expenses() decimal.Decimal { return s.sumDirection(Expense) }

// Earnings is the all-time sum of earning amounts.
func (s *Store) Earnings() decimal.Decimal { return s.sumDirection(Earning) }

func (s *Store) sumDirection(d Direction) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, t := range s.txs {
		if t.Direction == d {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// NetWorth sums the materialized account balances.
func (s *Store) NetWorth() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, a := range s.accounts {
		total = total.Add(a.Balance)
	}
	return total
}

// CategorySpent sums transactions of the category created in the current
// calendar month, evaluated against the store clock at call time.
func (s *Store) CategorySpent(categoryID string) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	total := decimal.Zero
	for _, t := range s.txs {
		if t.CategoryID != categoryID {
			continue
		}
		at := t.CreatedAt.In(now.Location())
		if at.Year() == now.Year() && at.Month() == now.Month() {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// Transactions returns a copy, most recent first.
func (s *Store) Transactions() []Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneOr(s.txs, nil)
}

func (s *Store) Transaction(id string) (Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.txIndex(id); i >= 0 {
		return s.txs[i], true
	}
	return Transaction{}, false
}

func (s *Store) Accounts() []Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneOr(s.accounts, nil)
}

func (s *Store) Account(id string) (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.accountIndex(id); i >= 0 {
		return s.accounts[i], true
	}
	return Account{}, false
}

func (s *Store) Categories() []Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneOr(s.categories, nil)
}

func (s *Store) Category(id string) (Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

func (s *Store) Budgets() []Budget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneOr(s.budgets, nil)
}

func (s *Store) Budget(categoryID string) (Budget, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.budgets {
		if b.CategoryID == categoryID {
			return b, true
		}
	}
	return Budget{}, false
}

func (s *Store) Currency() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currency
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

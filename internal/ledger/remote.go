package ledger

import (
	"time"

	"github.com/KumarDhananjaya/Spendly/internal/syncproto"

	"github.com/shopspring/decimal"
)

// remoteExpense mirrors syncproto.ExpensePayload with optional fields so a
// returned record can be merged field by field onto the local one.
type remoteExpense struct {
	ClientID   string           `json:"clientId"`
	Amount     *decimal.Decimal `json:"amount"`
	Type       *string          `json:"type"`
	CategoryID *string          `json:"categoryId"`
	AccountID  *string          `json:"accountId"`
	Note       *string          `json:"note"`
	Source     *string          `json:"source"`
	Recurring  *bool            `json:"recurring"`
	SpentAt    *int64           `json:"spentAt"`
}

// ApplyRemote merges server change events into the ledger and returns how
// many were applied. Only expense events are pulled back; other entities
// are skipped. Balance effects go through the same revert/apply path as
// local edits. No change events are recorded.
func (s *Store) ApplyRemote(events []syncproto.ChangeEvent) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied := 0
	for _, ev := range events {
		if ev.Entity != syncproto.EntityExpense {
			s.log.Debug("ledger: skip remote event", "entity", ev.Entity, "action", ev.Action, "id", ev.ID)
			continue
		}
		var ok bool
		switch ev.Action {
		case syncproto.ActionCreate, syncproto.ActionUpdate:
			ok = s.upsertRemoteLocked(ev)
		case syncproto.ActionDelete:
			ok = s.deleteRemoteLocked(ev)
		default:
			s.log.Warn("ledger: unknown remote action", "action", ev.Action, "id", ev.ID)
		}
		if ok {
			applied++
		}
	}
	if applied > 0 {
		s.flushLocked()
	}
	return applied
}

func (s *Store) upsertRemoteLocked(ev syncproto.ChangeEvent) bool {
	var p remoteExpense
	if err := ev.Decode(&p); err != nil {
		s.log.Warn("ledger: bad remote expense", "error", err)
		return false
	}
	if p.ClientID == "" {
		s.log.Warn("ledger: remote expense without client id", "id", ev.ID)
		return false
	}

	var merged Transaction
	i := s.txIndex(p.ClientID)
	if i >= 0 {
		merged = s.txs[i]
	} else {
		merged = Transaction{ID: p.ClientID, CreatedAt: s.now(), Source: SourceManual}
	}
	if p.Amount != nil {
		merged.Amount = *p.Amount
	}
	if p.Type != nil {
		merged.Direction = Direction(*p.Type)
	}
	if p.CategoryID != nil {
		merged.CategoryID = *p.CategoryID
	}
	if p.AccountID != nil {
		merged.AccountID = *p.AccountID
	}
	if p.Note != nil {
		merged.Note = *p.Note
	}
	if p.Source != nil && *p.Source != "" {
		merged.Source = Source(*p.Source)
	}
	if p.Recurring != nil {
		merged.Recurring = *p.Recurring
	}
	if p.SpentAt != nil && *p.SpentAt > 0 {
		merged.CreatedAt = time.UnixMilli(*p.SpentAt)
	}

	if !merged.Amount.IsPositive() || (merged.Direction != Expense && merged.Direction != Earning) {
		s.log.Warn("ledger: reject remote expense", "client_id", p.ClientID,
			"amount", merged.Amount.String(), "type", merged.Direction)
		return false
	}

	if i >= 0 {
		s.applyLocked(s.txs[i], true)
		s.applyLocked(merged, false)
		s.txs[i] = merged
		return true
	}
	s.applyLocked(merged, false)
	s.insertByTimeLocked(merged)
	return true
}

func (s *Store) deleteRemoteLocked(ev syncproto.ChangeEvent) bool {
	var key syncproto.DeleteKey
	if err := ev.Decode(&key); err != nil {
		s.log.Warn("ledger: bad remote delete", "error", err)
		return false
	}
	i := s.txIndex(key.ClientID)
	if i < 0 {
		return false
	}
	s.applyLocked(s.txs[i], true)
	s.txs = append(s.txs[:i], s.txs[i+1:]...)
	return true
}

// insertByTimeLocked keeps the list ordered most recent first.
func (s *Store) insertByTimeLocked(t Transaction) {
	pos := len(s.txs)
	for i := range s.txs {
		if s.txs[i].CreatedAt.Before(t.CreatedAt) {
			pos = i
			break
		}
	}
	s.txs = append(s.txs, Transaction{})
	copy(s.txs[pos+1:], s.txs[pos:])
	s.txs[pos] = t
}

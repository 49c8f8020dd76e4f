// Package syncproto defines the JSON contract shared by the sync client and
// the server: a batch of change events plus a watermark in each direction.
package syncproto

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Entity kinds carried by a change event.
const (
	EntityExpense  = "expense"
	EntityCategory = "category"
	EntityBudget   = "budget"
)

// Actions carried by a change event.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// ErrUnauthorized is returned by transports when the server rejects the
// bearer credential.
var ErrUnauthorized = errors.New("sync: unauthorized")

// ChangeEvent is one queued local mutation or one server-side change.
// Payload holds an entity snapshot (create/update) or a DeleteKey (delete)
// as raw JSON, so events never alias live ledger records.
type ChangeEvent struct {
	ID        string          `json:"id"`
	Entity    string          `json:"entity"`
	Action    string          `json:"action"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

// Request is sent by the client: everything queued plus the last watermark
// (0 means never synced).
type Request struct {
	Watermark int64         `json:"watermark"`
	Changes   []ChangeEvent `json:"changes"`
}

// Response carries server changes newer than the request watermark and the
// server's new watermark.
type Response struct {
	Watermark int64         `json:"watermark"`
	Changes   []ChangeEvent `json:"changes"`
}

// ExpensePayload is the synced shape of a non-transfer transaction.
type ExpensePayload struct {
	ClientID   string          `json:"clientId"`
	Amount     decimal.Decimal `json:"amount"`
	Type       string          `json:"type"`
	CategoryID string          `json:"categoryId"`
	AccountID  string          `json:"accountId"`
	Note       string          `json:"note"`
	Source     string          `json:"source"`
	Recurring  bool            `json:"recurring"`
	SpentAt    int64           `json:"spentAt"`
	UpdatedAt  int64           `json:"updatedAt,omitempty"`
}

// CategoryPayload is the synced shape of a category.
type CategoryPayload struct {
	ClientID string `json:"clientId"`
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	Color    string `json:"color"`
	Type     string `json:"type"`
}

// BudgetPayload is the synced shape of a monthly budget.
type BudgetPayload struct {
	CategoryID string          `json:"categoryId"`
	Amount     decimal.Decimal `json:"amount"`
	Period     string          `json:"period"`
}

// DeleteKey identifies the record a delete event removes. Expenses and
// categories use ClientID, budgets use CategoryID.
type DeleteKey struct {
	ClientID   string `json:"clientId,omitempty"`
	CategoryID string `json:"categoryId,omitempty"`
}

// ValidEntity reports whether entity is one of the synced kinds.
func ValidEntity(entity string) bool {
	switch entity {
	case EntityExpense, EntityCategory, EntityBudget:
		return true
	}
	return false
}

// ValidAction reports whether action is create, update or delete.
func ValidAction(action string) bool {
	switch action {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Decode unmarshals the event payload into v.
func (e ChangeEvent) Decode(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("event %s: empty payload", e.ID)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("event %s: decode %s payload: %w", e.ID, e.Entity, err)
	}
	return nil
}

// NewEvent marshals payload by value into a ChangeEvent.
func NewEvent(id, entity, action string, payload any, ts int64) (ChangeEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return ChangeEvent{}, fmt.Errorf("marshal %s payload: %w", entity, err)
	}
	return ChangeEvent{ID: id, Entity: entity, Action: action, Payload: raw, Timestamp: ts}, nil
}

// Package authority is the server side of sync: it applies each uploaded
// change event with last-write-wins upserts and returns the user's expenses
// changed since the client's watermark.
package authority

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/KumarDhananjaya/Spendly/internal/ledger"
	"github.com/KumarDhananjaya/Spendly/internal/metrics"
	"github.com/KumarDhananjaya/Spendly/internal/models"
	"github.com/KumarDhananjaya/Spendly/internal/syncproto"
	"github.com/KumarDhananjaya/Spendly/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUnknownEntity = errors.New("authority: unknown entity")
	ErrUnknownAction = errors.New("authority: unknown action")
	ErrInvalidEvent  = errors.New("authority: invalid event")
	ErrNotFound      = errors.New("authority: not found")
)

type Authority struct {
	db         *gorm.DB
	log        *slog.Logger
	now        func() time.Time
	encryptKey string
}

type Option func(*Authority)

func WithLogger(l *slog.Logger) Option { return func(a *Authority) { a.log = l } }

func WithClock(now func() time.Time) Option { return func(a *Authority) { a.now = now } }

// WithEncryptionKey seals the per-event failure list stored in sync logs.
func WithEncryptionKey(key string) Option { return func(a *Authority) { a.encryptKey = key } }

func New(db *gorm.DB, opts ...Option) *Authority {
	a := &Authority{db: db, log: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Meta carries request details recorded in the sync log.
type Meta struct {
	IP string
}

// Sync processes req for userID. Events are applied in order; a failing
// event is logged and skipped without aborting the batch. The returned
// watermark is taken before the change query and one millisecond back, so
// a write racing the query, even within the same millisecond, is returned
// again next time rather than lost.
func (a *Authority) Sync(ctx context.Context, userID uint, req syncproto.Request, meta Meta) (syncproto.Response, error) {
	db := a.db.WithContext(ctx)

	applied := 0
	var failures []string
	for _, ev := range req.Changes {
		if err := a.apply(db, userID, ev); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", ev.ID, err))
			metrics.SyncEvents.WithLabelValues(ev.Entity, ev.Action, metrics.ResultFailed).Inc()
			a.log.Warn("sync event skipped", "user_id", userID, "event", ev.ID,
				"entity", ev.Entity, "action", ev.Action, "error", err)
			continue
		}
		applied++
		metrics.SyncEvents.WithLabelValues(ev.Entity, ev.Action, metrics.ResultApplied).Inc()
	}

	watermark := a.now().UnixMilli() - 1

	var rows []models.Expense
	if err := db.Where("user_id = ? AND changed_at > ?", userID, req.Watermark).
		Order("changed_at ASC").
		Find(&rows).Error; err != nil {
		return syncproto.Response{}, fmt.Errorf("query changes: %w", err)
	}

	changes := make([]syncproto.ChangeEvent, 0, len(rows))
	for _, row := range rows {
		ev, err := syncproto.NewEvent(strconv.FormatUint(uint64(row.ID), 10),
			syncproto.EntityExpense, syncproto.ActionUpdate, expensePayload(row), row.ChangedAt)
		if err != nil {
			return syncproto.Response{}, err
		}
		changes = append(changes, ev)
	}
	metrics.SyncReturned.Add(float64(len(changes)))

	a.writeLog(db, models.SyncLog{
		UserID:    userID,
		Received:  len(req.Changes),
		Applied:   applied,
		Failed:    len(failures),
		Returned:  len(changes),
		Watermark: watermark,
		IP:        meta.IP,
	}, failures)

	return syncproto.Response{Watermark: watermark, Changes: changes}, nil
}

// Expenses lists a user's synced expenses, most recent first.
func (a *Authority) Expenses(ctx context.Context, userID uint, limit, offset int) ([]models.Expense, int64, error) {
	db := a.db.WithContext(ctx).Model(&models.Expense{}).Where("user_id = ?", userID)
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count expenses: %w", err)
	}
	var rows []models.Expense
	q := db.Order("spent_at DESC").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list expenses: %w", err)
	}
	return rows, total, nil
}

// Expense returns one expense by its client id.
func (a *Authority) Expense(ctx context.Context, userID uint, clientID string) (models.Expense, error) {
	var row models.Expense
	err := a.db.WithContext(ctx).Where("user_id = ? AND client_id = ?", userID, clientID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return row, fmt.Errorf("%w: expense %s", ErrNotFound, clientID)
	}
	if err != nil {
		return row, fmt.Errorf("get expense: %w", err)
	}
	return row, nil
}

// Snapshot renders the user's synced data as a ledger snapshot for export.
// Accounts are not synced, so only the built-in ones are included; synced
// categories overlay the built-in set.
func (a *Authority) Snapshot(ctx context.Context, userID uint) (ledger.Snapshot, error) {
	db := a.db.WithContext(ctx)

	var rows []models.Expense
	if err := db.Where("user_id = ?", userID).Order("spent_at DESC").Find(&rows).Error; err != nil {
		return ledger.Snapshot{}, fmt.Errorf("list expenses: %w", err)
	}
	var cats []models.Category
	if err := db.Where("user_id = ?", userID).Order("id ASC").Find(&cats).Error; err != nil {
		return ledger.Snapshot{}, fmt.Errorf("list categories: %w", err)
	}
	var budgets []models.Budget
	if err := db.Where("user_id = ?", userID).Order("id ASC").Find(&budgets).Error; err != nil {
		return ledger.Snapshot{}, fmt.Errorf("list budgets: %w", err)
	}

	snap := ledger.Snapshot{
		Transactions: make([]ledger.Transaction, 0, len(rows)),
		Accounts:     ledger.DefaultAccounts(),
		Categories:   ledger.DefaultCategories(),
		Budgets:      make([]ledger.Budget, 0, len(budgets)),
		Currency:     ledger.DefaultCurrency,
	}
	for _, r := range rows {
		snap.Transactions = append(snap.Transactions, ledger.Transaction{
			ID:         r.ClientID,
			Amount:     r.Amount,
			Direction:  ledger.Direction(r.Type),
			CategoryID: r.CategoryID,
			AccountID:  r.AccountID,
			Note:       r.Note,
			CreatedAt:  time.UnixMilli(r.SpentAt).UTC(),
			Recurring:  r.Recurring,
			Source:     ledger.Source(r.Source),
		})
	}
	for _, c := range cats {
		cat := ledger.Category{ID: c.ClientID, Name: c.Name, Icon: c.Icon, Color: c.Color, Type: ledger.Direction(c.Type)}
		replaced := false
		for i := range snap.Categories {
			if snap.Categories[i].ID == cat.ID {
				snap.Categories[i] = cat
				replaced = true
			}
		}
		if !replaced {
			snap.Categories = append(snap.Categories, cat)
		}
	}
	for _, b := range budgets {
		snap.Budgets = append(snap.Budgets, ledger.Budget{CategoryID: b.CategoryID, Amount: b.Amount, Period: b.Period})
	}
	return snap, nil
}

// ApplyEvent runs a single event outside a sync batch, used by the direct
// expense API.
func (a *Authority) ApplyEvent(ctx context.Context, userID uint, ev syncproto.ChangeEvent) error {
	err := a.apply(a.db.WithContext(ctx), userID, ev)
	result := metrics.ResultApplied
	if err != nil {
		result = metrics.ResultFailed
	}
	metrics.SyncEvents.WithLabelValues(ev.Entity, ev.Action, result).Inc()
	return err
}

func (a *Authority) apply(db *gorm.DB, userID uint, ev syncproto.ChangeEvent) error {
	if !syncproto.ValidEntity(ev.Entity) {
		return fmt.Errorf("%w: %q", ErrUnknownEntity, ev.Entity)
	}
	if !syncproto.ValidAction(ev.Action) {
		return fmt.Errorf("%w: %q", ErrUnknownAction, ev.Action)
	}

	changedAt := a.now().UnixMilli()
	deleting := ev.Action == syncproto.ActionDelete

	switch {
	case ev.Entity == syncproto.EntityExpense && deleting:
		return a.deleteBy(db, &models.Expense{}, ev, "user_id = ? AND client_id = ?", userID, clientKey)
	case ev.Entity == syncproto.EntityExpense:
		return a.upsertExpense(db, userID, ev, changedAt)
	case ev.Entity == syncproto.EntityCategory && deleting:
		return a.deleteBy(db, &models.Category{}, ev, "user_id = ? AND client_id = ?", userID, clientKey)
	case ev.Entity == syncproto.EntityCategory:
		return a.upsertCategory(db, userID, ev, changedAt)
	case ev.Entity == syncproto.EntityBudget && deleting:
		return a.deleteBy(db, &models.Budget{}, ev, "user_id = ? AND category_id = ?", userID, budgetKey)
	default:
		return a.upsertBudget(db, userID, ev, changedAt)
	}
}

func (a *Authority) upsertExpense(db *gorm.DB, userID uint, ev syncproto.ChangeEvent, changedAt int64) error {
	var p syncproto.ExpensePayload
	if err := ev.Decode(&p); err != nil {
		return err
	}
	if p.ClientID == "" {
		return fmt.Errorf("%w: missing clientId", ErrInvalidEvent)
	}
	if !p.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidEvent)
	}
	if p.Type != "expense" && p.Type != "earning" {
		return fmt.Errorf("%w: type %q", ErrInvalidEvent, p.Type)
	}
	spentAt := p.SpentAt
	if spentAt == 0 {
		spentAt = ev.Timestamp
	}

	row := models.Expense{
		UserID:          userID,
		ClientID:        p.ClientID,
		Type:            p.Type,
		Amount:          p.Amount,
		CategoryID:      p.CategoryID,
		AccountID:       p.AccountID,
		Note:            p.Note,
		Source:          p.Source,
		Recurring:       p.Recurring,
		SpentAt:         spentAt,
		ClientUpdatedAt: ev.Timestamp,
		ChangedAt:       changedAt,
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "client_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"type", "amount", "category_id", "account_id", "note", "source",
			"recurring", "spent_at", "client_updated_at", "changed_at", "updated_at",
		}),
	}).Create(&row).Error
}

func (a *Authority) upsertCategory(db *gorm.DB, userID uint, ev syncproto.ChangeEvent, changedAt int64) error {
	var p syncproto.CategoryPayload
	if err := ev.Decode(&p); err != nil {
		return err
	}
	if p.ClientID == "" || p.Name == "" {
		return fmt.Errorf("%w: category needs clientId and name", ErrInvalidEvent)
	}
	row := models.Category{
		UserID:    userID,
		ClientID:  p.ClientID,
		Name:      p.Name,
		Icon:      p.Icon,
		Color:     p.Color,
		Type:      p.Type,
		ChangedAt: changedAt,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "client_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "icon", "color", "type", "changed_at", "updated_at"}),
	}).Create(&row).Error
}

func (a *Authority) upsertBudget(db *gorm.DB, userID uint, ev syncproto.ChangeEvent, changedAt int64) error {
	var p syncproto.BudgetPayload
	if err := ev.Decode(&p); err != nil {
		return err
	}
	if p.CategoryID == "" || p.Amount.IsNegative() {
		return fmt.Errorf("%w: budget needs categoryId and a non-negative amount", ErrInvalidEvent)
	}
	period := p.Period
	if period == "" {
		period = "monthly"
	}
	row := models.Budget{
		UserID:     userID,
		CategoryID: p.CategoryID,
		Amount:     p.Amount,
		Period:     period,
		ChangedAt:  changedAt,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "category_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "period", "changed_at", "updated_at"}),
	}).Create(&row).Error
}

func clientKey(k syncproto.DeleteKey) string { return k.ClientID }

func budgetKey(k syncproto.DeleteKey) string {
	if k.CategoryID != "" {
		return k.CategoryID
	}
	return k.ClientID
}

// deleteBy removes the keyed row. A missing row is not an error.
func (a *Authority) deleteBy(db *gorm.DB, model any, ev syncproto.ChangeEvent, where string,
	userID uint, key func(syncproto.DeleteKey) string) error {
	var k syncproto.DeleteKey
	if err := ev.Decode(&k); err != nil {
		return err
	}
	id := key(k)
	if id == "" {
		return fmt.Errorf("%w: delete without key", ErrInvalidEvent)
	}
	return db.Where(where, userID, id).Delete(model).Error
}

func (a *Authority) writeLog(db *gorm.DB, entry models.SyncLog, failures []string) {
	if len(failures) > 0 {
		raw, _ := json.Marshal(failures)
		if len(raw) > 2048 {
			raw = raw[:2048]
		}
		if a.encryptKey != "" {
			if enc, err := util.EncryptString(a.encryptKey, raw); err == nil {
				raw = []byte(enc)
			}
		}
		entry.FailuresEnc = string(raw)
	}
	if err := db.Create(&entry).Error; err != nil {
		a.log.Warn("write sync log failed", "user_id", entry.UserID, "error", err)
	}
}

func expensePayload(row models.Expense) syncproto.ExpensePayload {
	return syncproto.ExpensePayload{
		ClientID:   row.ClientID,
		Amount:     row.Amount,
		Type:       row.Type,
		CategoryID: row.CategoryID,
		AccountID:  row.AccountID,
		Note:       row.Note,
		Source:     row.Source,
		Recurring:  row.Recurring,
		SpentAt:    row.SpentAt,
		UpdatedAt:  row.ClientUpdatedAt,
	}
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/KumarDhananjaya/Spendly/internal/authority"
	"github.com/KumarDhananjaya/Spendly/internal/ledger"
	"github.com/KumarDhananjaya/Spendly/internal/models"
	"github.com/KumarDhananjaya/Spendly/internal/syncproto"
	"github.com/KumarDhananjaya/Spendly/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExpenseHandler serves the synced expenses of the current user. Writes go
// through the authority so they follow the same upsert rules as sync.
type ExpenseHandler struct {
	DB        *gorm.DB
	Authority *authority.Authority
	PageSize  int
}

func NewExpenseHandler(db *gorm.DB, a *authority.Authority, pageSize int) *ExpenseHandler {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return &ExpenseHandler{DB: db, Authority: a, PageSize: pageSize}
}

type expenseResp struct {
	ClientID   string    `json:"client_id"`
	Type       string    `json:"type"`
	Amount     string    `json:"amount"`
	CategoryID string    `json:"category_id"`
	AccountID  string    `json:"account_id"`
	Note       string    `json:"note"`
	Source     string    `json:"source"`
	Recurring  bool      `json:"recurring"`
	SpentAt    time.Time `json:"spent_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toExpenseResp(e *models.Expense) expenseResp {
	return expenseResp{
		ClientID:   e.ClientID,
		Type:       e.Type,
		Amount:     e.Amount.StringFixed(2),
		CategoryID: e.CategoryID,
		AccountID:  e.AccountID,
		Note:       e.Note,
		Source:     e.Source,
		Recurring:  e.Recurring,
		SpentAt:    time.UnixMilli(e.SpentAt).UTC(),
		UpdatedAt:  e.UpdatedAt,
	}
}

// ---------- create ----------

type createExpenseReq struct {
	ClientID   string          `json:"client_id"`
	Type       string          `json:"type" binding:"required"`
	Amount     decimal.Decimal `json:"amount"`
	CategoryID string          `json:"category_id"`
	AccountID  string          `json:"account_id"`
	Note       string          `json:"note" binding:"max=512"`
	Recurring  bool            `json:"recurring"`
	SpentAt    string          `json:"spent_at"` // YYYY-MM-DD, defaults to now
}

// CreateExpense stores an expense or earning. Posting an existing client_id
// overwrites it.
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req createExpenseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	if req.Type != string(ledger.Expense) && req.Type != string(ledger.Earning) {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "type must be expense or earning")
		return
	}
	if err := util.ValidateAmount(req.Amount); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	if err := util.ValidateCategory(req.CategoryID); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	now := time.Now()
	spentAt := now
	if req.SpentAt != "" {
		if err := util.ValidateDate(req.SpentAt); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "spent_at must be YYYY-MM-DD")
			return
		}
		spentAt, _ = time.Parse("2006-01-02", req.SpentAt)
	}
	if req.ClientID == "" {
		req.ClientID = uuid.NewString()
	}
	if req.AccountID == "" {
		req.AccountID = ledger.DefaultAccounts()[0].ID
	}

	ev, err := syncproto.NewEvent(uuid.NewString(), syncproto.EntityExpense, syncproto.ActionCreate,
		syncproto.ExpensePayload{
			ClientID:   req.ClientID,
			Amount:     req.Amount,
			Type:       req.Type,
			CategoryID: req.CategoryID,
			AccountID:  req.AccountID,
			Note:       strings.TrimSpace(req.Note),
			Source:     string(ledger.SourceManual),
			Recurring:  req.Recurring,
			SpentAt:    spentAt.UnixMilli(),
		}, now.UnixMilli())
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to build event")
		return
	}
	if err := h.Authority.ApplyEvent(c.Request.Context(), user.ID, ev); err != nil {
		if errors.Is(err, authority.ErrInvalidEvent) {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
			return
		}
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save, please retry")
		return
	}

	row, err := h.Authority.Expense(c.Request.Context(), user.ID, req.ClientID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load saved expense")
		return
	}
	util.Success(c, util.Response{
		"expense": toExpenseResp(&row),
	})
}

// ---------- delete ----------

func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	clientID := c.Param("id")

	if _, err := h.Authority.Expense(c.Request.Context(), user.ID, clientID); err != nil {
		if errors.Is(err, authority.ErrNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "expense not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		}
		return
	}

	ev, _ := syncproto.NewEvent(uuid.NewString(), syncproto.EntityExpense, syncproto.ActionDelete,
		syncproto.DeleteKey{ClientID: clientID}, time.Now().UnixMilli())
	if err := h.Authority.ApplyEvent(c.Request.Context(), user.ID, ev); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to delete, please retry")
		return
	}
	util.Success(c, util.Response{"message": "deleted"})
}

// ---------- list ----------

// ListExpenses pages through the user's expenses, most recent first.
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	page := util.ParsePage(c, h.PageSize)
	rows, total, err := h.Authority.Expenses(c.Request.Context(), user.ID, page.Size, page.Offset())
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	items := make([]expenseResp, 0, len(rows))
	for i := range rows {
		items = append(items, toExpenseResp(&rows[i]))
	}
	util.Paged(c, page, total, items)
}

// ---------- monthly stats ----------

type dailyStat struct {
	Date    string `json:"date"` // YYYY-MM-DD
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Balance string `json:"balance"`
}

type categoryStat struct {
	CategoryID string `json:"category_id"`
	Category   string `json:"category"`
	Income     string `json:"income"`
	Expense    string `json:"expense"`
	Balance    string `json:"balance"`
}

type sums struct{ income, expense decimal.Decimal }

func (s *sums) add(e *models.Expense) {
	if e.Type == string(ledger.Earning) {
		s.income = s.income.Add(e.Amount)
	} else {
		s.expense = s.expense.Add(e.Amount)
	}
}

// GetMonthlyStats returns per-day and per-category totals for ?month=YYYY-MM
// (UTC, default current month).
func (h *ExpenseHandler) GetMonthlyStats(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	monthStr := c.Query("month")
	if monthStr == "" {
		monthStr = time.Now().UTC().Format("2006-01")
	}
	t, err := time.Parse("2006-01", monthStr)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "month must be YYYY-MM")
		return
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var rows []models.Expense
	if err := h.DB.WithContext(c.Request.Context()).
		Where("user_id = ? AND spent_at >= ? AND spent_at < ?", user.ID, start.UnixMilli(), end.UnixMilli()).
		Order("spent_at ASC").
		Find(&rows).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}
	names, err := h.categoryNames(c.Request.Context(), user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	daily := map[string]*sums{}
	byCat := map[string]*sums{}
	var total sums
	for i := range rows {
		e := &rows[i]
		day := time.UnixMilli(e.SpentAt).UTC().Format("2006-01-02")
		if daily[day] == nil {
			daily[day] = &sums{}
		}
		if byCat[e.CategoryID] == nil {
			byCat[e.CategoryID] = &sums{}
		}
		daily[day].add(e)
		byCat[e.CategoryID].add(e)
		total.add(e)
	}

	dailyList := make([]dailyStat, 0, len(daily))
	for day, s := range daily {
		dailyList = append(dailyList, dailyStat{
			Date:    day,
			Income:  s.income.StringFixed(2),
			Expense: s.expense.StringFixed(2),
			Balance: s.income.Sub(s.expense).StringFixed(2),
		})
	}
	sort.Slice(dailyList, func(i, j int) bool { return dailyList[i].Date < dailyList[j].Date })

	catList := make([]categoryStat, 0, len(byCat))
	for id, s := range byCat {
		name, ok := names[id]
		if !ok {
			name = "Unknown"
		}
		catList = append(catList, categoryStat{
			CategoryID: id,
			Category:   name,
			Income:     s.income.StringFixed(2),
			Expense:    s.expense.StringFixed(2),
			Balance:    s.income.Sub(s.expense).StringFixed(2),
		})
	}
	sort.Slice(catList, func(i, j int) bool { return catList[i].CategoryID < catList[j].CategoryID })

	util.Success(c, util.Response{
		"month":         monthStr,
		"daily":         dailyList,
		"by_category":   catList,
		"total_income":  total.income.StringFixed(2),
		"total_expense": total.expense.StringFixed(2),
		"total_balance": total.income.Sub(total.expense).StringFixed(2),
	})
}

// categoryNames maps category ids to names: the built-in set overlaid with
// the user's synced categories.
func (h *ExpenseHandler) categoryNames(ctx context.Context, userID uint) (map[string]string, error) {
	names := map[string]string{}
	for _, cat := range ledger.DefaultCategories() {
		names[cat.ID] = cat.Name
	}
	var cats []models.Category
	if err := h.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&cats).Error; err != nil {
		return nil, err
	}
	for _, cat := range cats {
		names[cat.ClientID] = cat.Name
	}
	return names, nil
}

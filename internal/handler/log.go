package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/KumarDhananjaya/Spendly/internal/models"
	"github.com/KumarDhananjaya/Spendly/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LogHandler serves the user's sync history.
type LogHandler struct {
	DB         *gorm.DB
	EncryptKey string
}

func NewLogHandler(db *gorm.DB, encryptKey string) *LogHandler {
	return &LogHandler{
		DB:         db,
		EncryptKey: encryptKey,
	}
}

// failures opens the stored per-event failure list. Rows written without a
// key hold plain JSON.
func (h *LogHandler) failures(stored string) []string {
	if stored == "" {
		return nil
	}
	raw := []byte(stored)
	if h.EncryptKey != "" {
		if plain, err := util.DecryptString(h.EncryptKey, stored); err == nil {
			raw = plain
		}
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return []string{"(unreadable)"}
	}
	return out
}

type syncLogResp struct {
	ID        uint      `json:"id"`
	Received  int       `json:"received"`
	Applied   int       `json:"applied"`
	Failed    int       `json:"failed"`
	Returned  int       `json:"returned"`
	Watermark int64     `json:"watermark"`
	IP        string    `json:"ip"`
	Failures  []string  `json:"failures,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ListSyncLogs pages through the user's sync requests, newest first.
func (h *LogHandler) ListSyncLogs(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	page := util.ParsePage(c, 20)

	base := h.DB.WithContext(c.Request.Context()).Model(&models.SyncLog{}).Where("user_id = ?", user.ID)
	if c.Query("failed") == "1" {
		base = base.Where("failed > 0")
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	var logs []models.SyncLog
	if err := base.
		Order("created_at DESC, id DESC").
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&logs).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	items := make([]syncLogResp, 0, len(logs))
	for i := range logs {
		l := &logs[i]
		items = append(items, syncLogResp{
			ID:        l.ID,
			Received:  l.Received,
			Applied:   l.Applied,
			Failed:    l.Failed,
			Returned:  l.Returned,
			Watermark: l.Watermark,
			IP:        l.IP,
			Failures:  h.failures(l.FailuresEnc),
			CreatedAt: l.CreatedAt,
		})
	}

	util.Paged(c, page, total, items)
}

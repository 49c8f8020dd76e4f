package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/KumarDhananjaya/Spendly/internal/authority"
	"github.com/KumarDhananjaya/Spendly/internal/export"
	"github.com/KumarDhananjaya/Spendly/internal/util"

	"github.com/gin-gonic/gin"
)

// ExportHandler downloads the user's synced data.
type ExportHandler struct {
	Authority *authority.Authority
}

func NewExportHandler(a *authority.Authority) *ExportHandler {
	return &ExportHandler{Authority: a}
}

func attachment(c *gin.Context, contentType, ext string) {
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"spendly_transactions_%s.%s\"",
		time.Now().Format("20060102"), ext))
}

// ExportCSV streams the user's expenses as CSV.
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	snap, err := h.Authority.Snapshot(c.Request.Context(), user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	attachment(c, "text/csv; charset=utf-8", "csv")
	c.Status(http.StatusOK)
	_ = export.WriteCSV(c.Writer, snap)
}

// ExportXLSX streams the user's expenses as a workbook.
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	snap, err := h.Authority.Snapshot(c.Request.Context(), user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	attachment(c, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx")
	c.Status(http.StatusOK)
	_ = export.WriteXLSX(c.Writer, snap)
}

// ExportJSON returns the backup document, importable by the CLI.
func (h *ExportHandler) ExportJSON(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	snap, err := h.Authority.Snapshot(c.Request.Context(), user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}
	data, err := export.JSON(snap, time.Now())
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "export failed")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"spendly_backup_%d.json\"", time.Now().UnixMilli()))
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

package handler

import (
	"net/http"

	"github.com/KumarDhananjaya/Spendly/internal/authority"
	"github.com/KumarDhananjaya/Spendly/internal/syncproto"
	"github.com/KumarDhananjaya/Spendly/internal/util"

	"github.com/gin-gonic/gin"
)

// SyncHandler exposes the sync contract. Request and response bodies are
// the raw wire types, not the {code, data} envelope.
type SyncHandler struct {
	Authority *authority.Authority
}

func NewSyncHandler(a *authority.Authority) *SyncHandler {
	return &SyncHandler{Authority: a}
}

func (h *SyncHandler) Sync(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req syncproto.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid sync request")
		return
	}
	if req.Watermark < 0 {
		req.Watermark = 0
	}

	resp, err := h.Authority.Sync(c.Request.Context(), user.ID, req, authority.Meta{IP: c.ClientIP()})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "sync failed")
		return
	}
	c.JSON(http.StatusOK, resp)
}

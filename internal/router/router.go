package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/KumarDhananjaya/Spendly/internal/authority"
	"github.com/KumarDhananjaya/Spendly/internal/config"
	"github.com/KumarDhananjaya/Spendly/internal/handler"
	"github.com/KumarDhananjaya/Spendly/internal/middleware"
	"github.com/KumarDhananjaya/Spendly/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// SetupRouter configures the gin engine with the sync and account API.
func SetupRouter(cfg *config.Config, db *gorm.DB, log *slog.Logger) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(log), middleware.Metrics(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Server.Metrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	auth := authority.New(db,
		authority.WithLogger(log),
		authority.WithEncryptionKey(cfg.Security.EncryptionKey),
	)

	// ====== API ======
	api := r.Group("/api")

	tokens := util.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpireHours)*time.Hour)
	authHandler := handler.NewAuthHandler(db, tokens, cfg.Security.BcryptCost)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(tokens, db))

	protected.GET("/me", handler.GetMe)
	protected.POST("/profile/password", handler.ChangePassword(db, cfg.Security.BcryptCost))
	protected.POST("/profile/delete", handler.DeleteAccount(db))

	syncHandler := handler.NewSyncHandler(auth)
	protected.POST("/sync", syncHandler.Sync)

	expenseHandler := handler.NewExpenseHandler(db, auth, cfg.App.PageSize)
	protected.GET("/expenses", expenseHandler.ListExpenses)
	protected.POST("/expenses", expenseHandler.CreateExpense)
	protected.DELETE("/expenses/:id", expenseHandler.DeleteExpense)
	protected.GET("/stats/monthly", expenseHandler.GetMonthlyStats)

	logHandler := handler.NewLogHandler(db, cfg.Security.EncryptionKey)
	protected.GET("/sync/logs", logHandler.ListSyncLogs)

	exportHandler := handler.NewExportHandler(auth)
	protected.GET("/export/csv", exportHandler.ExportCSV)
	protected.GET("/export/xlsx", exportHandler.ExportXLSX)
	protected.GET("/export/json", exportHandler.ExportJSON)

	return r
}

package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/KumarDhananjaya/Spendly/internal/models"
	"github.com/KumarDhananjaya/Spendly/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthMiddleware verifies the bearer JWT and stores the user in the context
// under "currentUser".
func AuthMiddleware(tokens *util.TokenIssuer, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenStr string

		// 1) Authorization: Bearer xxx
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenStr = strings.TrimSpace(parts[1])
			}
		}

		// 2) ?token=xxx for downloads opened without custom headers
		if tokenStr == "" {
			tokenStr = c.Query("token")
		}

		if tokenStr == "" {
			util.Abort(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
			return
		}

		claims, err := tokens.Parse(tokenStr)
		if err != nil {
			util.Abort(c, http.StatusUnauthorized, util.CodeAuth, "session expired, please log in again")
			return
		}

		var user models.User
		if err := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				util.Abort(c, http.StatusUnauthorized, util.CodeAuth, "user does not exist")
			} else {
				util.Abort(c, http.StatusInternalServerError, util.CodeServerErr, "failed to look up user")
			}
			return
		}

		c.Set("currentUser", &user)
		c.Next()
	}
}

package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/strawberrymilktea0604/HealthSync-sub001/logger"
	"github.com/strawberrymilktea0604/HealthSync-sub001/utils"
)

// Context keys set by AuthMiddleware.
const (
	CtxUserID = "userID"
	CtxEmail  = "email"
	CtxRoles  = "roles"
)

// UserChecker reports whether a token's subject still exists and is active.
type UserChecker interface {
	IsActiveUser(ctx context.Context, userID uint) (bool, error)
}

// AuthMiddleware accepts "Authorization: Bearer <jwt>", or a ?token= query
// parameter for websocket upgrades where browsers cannot set headers.
// With a non-nil users checker, tokens of deactivated or deleted accounts
// are refused on every request.
func AuthMiddleware(secret string, users UserChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			tokenString = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		} else if q := c.Query("token"); q != "" {
			tokenString = q
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := utils.ParseJWT(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		if users != nil {
			active, err := users.IsActiveUser(c.Request.Context(), claims.UserID)
			if err != nil {
				logger.Error("user lookup failed", zap.Uint("user_id", claims.UserID), zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
			if !active {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account is disabled"})
				return
			}
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxEmail, claims.Email)
		c.Set(CtxRoles, claims.Roles)
		c.Next()
	}
}

package middlewares

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/strawberrymilktea0604/HealthSync-sub001/logger"
)

type PermissionChecker interface {
	HasPermission(ctx context.Context, userID uint, code string) (bool, error)
}

// RequirePermission must run after AuthMiddleware. Permissions are looked up
// on every request, so role changes apply without a new token.
func RequirePermission(checker PermissionChecker, code string) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetUint(CtxUserID)
		if uid == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		ok, err := checker.HasPermission(c.Request.Context(), uid, code)
		if err != nil {
			logger.Error("permission lookup failed", zap.Uint("user_id", uid), zap.String("permission", code), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing permission " + code})
			return
		}
		c.Next()
	}
}

package middleware

import (
	"net/http"
	"strings"

	"Rewards/pkg/context"
	"Rewards/pkg/jwt"
	"Rewards/pkg/response"

	"github.com/gin-gonic/gin"
)

// Auth 校验 Bearer token，把租户、用户、角色写入上下文
func Auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, http.StatusUnauthorized, response.KindUnauthorized, "missing Authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Abort(c, http.StatusUnauthorized, response.KindUnauthorized, "malformed Authorization header")
			return
		}

		claims, err := jwt.ParseToken(secret, jwt.TokenAccess, parts[1])
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, response.KindUnauthorized, err.Error())
			return
		}
		if claims.TenantID <= 0 {
			response.Abort(c, http.StatusUnauthorized, response.KindUnauthorized, "token carries no tenant")
			return
		}

		c.Set(context.CtxTenantID, claims.TenantID)
		c.Set(context.CtxUserID, claims.UserID)
		c.Set(context.CtxRole, claims.Role)
		c.Next()
	}
}

// RequireRole 必须挂在 Auth 之后
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(context.CtxRole)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		response.Abort(c, http.StatusForbidden, response.KindForbidden, "permission denied")
	}
}

package context

import (
	"Rewards/pkg/log"
	"Rewards/pkg/response"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	CtxTenantID  = "tenant_id"
	CtxUserID    = "user_id"
	CtxRole      = "role"
	CtxRequestID = "request_id"
)

type HandlerFunc func(*gin.Context) error

// Wrap 把返回 error 的处理函数转换成 gin.HandlerFunc，统一错误输出
func Wrap(h HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h(c); err != nil {
			// 如果已经写过响应，直接返回
			if c.Writer.Written() {
				return
			}
			var be *response.BizError
			if errors.As(err, &be) {
				response.Fail(c, be)
				return
			}
			log.L.Error("request failed",
				zap.String("path", c.FullPath()),
				zap.String("request_id", c.GetString(CtxRequestID)),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, response.Response{
				Code: http.StatusInternalServerError,
				Msg:  "internal server error",
			})
		}
	}
}

// Identity 认证层注入的调用方身份
type Identity struct {
	TenantID int64
	UserID   int64
	Role     string
}

func GetIdentity(c *gin.Context) (Identity, error) {
	tid, ok := c.Get(CtxTenantID)
	if !ok {
		return Identity{}, response.NewError(http.StatusUnauthorized, response.KindUnauthorized, "tenant_id missing")
	}
	tenantID, ok := tid.(int64)
	if !ok || tenantID <= 0 {
		return Identity{}, response.NewError(http.StatusUnauthorized, response.KindUnauthorized, "tenant_id invalid")
	}
	uid, _ := c.Get(CtxUserID)
	userID, _ := uid.(int64)
	return Identity{
		TenantID: tenantID,
		UserID:   userID,
		Role:     c.GetString(CtxRole),
	}, nil
}

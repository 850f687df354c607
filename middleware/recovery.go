package middleware

import (
	"net/http"

	"Rewards/pkg/context"
	"Rewards/pkg/log"
	"Rewards/pkg/response"
	"Rewards/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery 捕获 panic，记录调用栈后返回 500
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.L.Error("panic recovered",
					zap.String("request_id", c.GetString(context.CtxRequestID)),
					zap.String("path", c.Request.URL.Path),
					zap.String("trace", utils.PanicTrace(err)),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
					Code: http.StatusInternalServerError,
					Msg:  "internal server error",
				})
			}
		}()
		c.Next()
	}
}

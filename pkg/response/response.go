package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Code  int    `json:"code"`
	Error string `json:"error,omitempty"`
	Msg   string `json:"msg"`
	Data  any    `json:"data,omitempty"`
}

func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code: 0,
		Msg:  "success",
		Data: data,
	})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{
		Code: 0,
		Msg:  "success",
		Data: data,
	})
}

func Fail(c *gin.Context, be *BizError) {
	c.JSON(be.Code, Response{
		Code:  be.Code,
		Error: be.Kind,
		Msg:   be.Msg,
		Data:  be.Data,
	})
}

package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// 业务错误分类
const (
	KindValidation          = "VALIDATION_ERROR"
	KindNotFound            = "NOT_FOUND"
	KindInsufficientCredits = "INSUFFICIENT_CREDITS"
	KindInvalidTransition   = "INVALID_TRANSITION"
	KindGenerationFailure   = "GENERATION_FAILURE"
	KindConflict            = "CONFLICT"
	KindUnauthorized        = "UNAUTHORIZED"
	KindForbidden           = "FORBIDDEN"
	KindRateLimited         = "RATE_LIMITED"
)

// BizError 业务错误，Code 即 HTTP 状态码
type BizError struct {
	Code int
	Kind string
	Msg  string
	Data any
}

func (e *BizError) Error() string {
	return e.Msg
}

func NewError(code int, kind, msg string) *BizError {
	return &BizError{
		Code: code,
		Kind: kind,
		Msg:  msg,
	}
}

func Validation(format string, args ...any) *BizError {
	return NewError(http.StatusBadRequest, KindValidation, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) *BizError {
	return NewError(http.StatusNotFound, KindNotFound, fmt.Sprintf(format, args...))
}

// InsufficientCreditsData 余额不足时返回给调用方的明细
type InsufficientCreditsData struct {
	Required  int64 `json:"required"`
	Available int64 `json:"available"`
}

func InsufficientCredits(required, available int64) *BizError {
	be := NewError(http.StatusPaymentRequired, KindInsufficientCredits,
		fmt.Sprintf("insufficient credits: required %d, available %d", required, available))
	be.Data = InsufficientCreditsData{Required: required, Available: available}
	return be
}

func InvalidTransition(from, to string) *BizError {
	return NewError(http.StatusConflict, KindInvalidTransition,
		fmt.Sprintf("cannot change coupon status from %s to %s", from, to))
}

func GenerationFailure(format string, args ...any) *BizError {
	return NewError(http.StatusServiceUnavailable, KindGenerationFailure, fmt.Sprintf(format, args...))
}

func Conflict(format string, args ...any) *BizError {
	return NewError(http.StatusConflict, KindConflict, fmt.Sprintf(format, args...))
}

// IsKind 判断 err 链上是否存在指定分类的业务错误
func IsKind(err error, kind string) bool {
	var be *BizError
	return errors.As(err, &be) && be.Kind == kind
}

func Abort(c *gin.Context, httpStatus int, kind, msg string) {
	c.AbortWithStatusJSON(httpStatus, Response{
		Code:  httpStatus,
		Error: kind,
		Msg:   msg,
	})
}

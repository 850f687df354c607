package handler

import (
	"Rewards/config"
	"Rewards/dao/cache"
	"Rewards/middleware"
	"Rewards/models"
	"Rewards/pkg/context"
	"Rewards/pkg/response"
	"Rewards/service"
	"Rewards/types"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// 核销拒绝对应的 HTTP 状态码
var scanHTTPStatus = map[models.ScanStatus]int{
	models.ScanInvalid:    http.StatusNotFound,
	models.ScanExpired:    http.StatusGone,
	models.ScanUsed:       http.StatusConflict,
	models.ScanExhausted:  http.StatusConflict,
	models.ScanInactive:   http.StatusConflict,
	models.ScanNotActive:  http.StatusConflict,
	models.ScanNotPrinted: http.StatusConflict,
}

// Scan 公开的扫码核销入口，不需要登录
type Scan struct {
	Config   *config.Config
	Verifier service.IScanVerifier
	Limiter  *cache.RateLimiter
}

func (h *Scan) RegisterRouter(r gin.IRouter) {
	g := r.Group("/v1/scans")
	window := time.Duration(h.Config.Scan.RateWindowSeconds) * time.Second
	g.POST("/verify", middleware.ScanRateLimit(h.Limiter, h.Config.Scan.RateLimit, window), context.Wrap(h.Verify))
}

func (h *Scan) Verify(c *gin.Context) error {
	var req types.VerifyScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.VerifyScanResponse{
			Success: false,
			Error:   response.KindValidation,
			Message: err.Error(),
		})
		return nil
	}

	res, err := h.Verifier.Verify(c.Request.Context(), service.VerifyInput{
		Code:       req.CouponCode,
		Location:   req.Location,
		DeviceInfo: req.DeviceInfo,
		IP:         c.ClientIP(),
	})
	if err != nil {
		return err
	}

	if res.Success() {
		c.JSON(http.StatusOK, types.VerifyScanResponse{
			Success: true,
			Message: res.Message,
			Coupon:  res.Coupon,
		})
		return nil
	}
	status, ok := scanHTTPStatus[res.Status]
	if !ok {
		status = http.StatusConflict
	}
	c.JSON(status, types.VerifyScanResponse{
		Success: false,
		Error:   string(res.Status),
		Message: res.Message,
	})
	return nil
}

package handler

import (
	"Rewards/config"
	"Rewards/dao/cache"
	"Rewards/middleware"
	"Rewards/pkg/context"
	"Rewards/pkg/log"
	"Rewards/pkg/response"
	"Rewards/pkg/utils"
	"Rewards/service"
	"Rewards/types"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type Coupon struct {
	Config      *config.Config
	Batches     service.IBatchService
	Lifecycle   service.ILifecycle
	Bulk        service.IBulkService
	Scans       service.IScanVerifier
	Idempotency *cache.IdempotencyStore
}

func (h *Coupon) RegisterRouter(r gin.IRouter) {
	authorize := middleware.Auth([]byte(h.Config.Jwt.Secret))
	g := r.Group("/v1/coupons", authorize)
	g.POST("", context.Wrap(h.Create))
	g.POST("/multi-batch", context.Wrap(h.CreateMultiBatch))
	g.GET("", context.Wrap(h.List))
	g.GET("/:id", context.Wrap(h.Get))
	g.GET("/:id/scans", context.Wrap(h.ListScans))
	g.GET("/batches/:id", context.Wrap(h.GetBatch))
	g.PATCH("/:id/status", context.Wrap(h.UpdateStatus))
	g.PATCH("/:id/print", context.Wrap(h.Print))
	g.POST("/activate-range", context.Wrap(h.ActivateRange))
	g.POST("/deactivate-range", context.Wrap(h.DeactivateRange))
	g.POST("/bulk-print", context.Wrap(h.BulkPrint))
	g.POST("/bulk-activate", context.Wrap(h.BulkActivate))
}

func (h *Coupon) Create(c *gin.Context) error {
	id, err := context.GetIdentity(c)
	if err != nil {
		return err
	}
	var req types.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return response.Validation("%s", err.Error())
	}

	return h.idempotent(c, id.TenantID, func() (any, error) {
		res, err := h.Batches.CreateBatch(c.Request.Context(), id.TenantID, id.UserID, service.BatchSpec{
			VerificationAppID: req.VerificationAppID,
			DiscountValue:     req.DiscountValue,
			ExpiryDate:        req.ExpiryDate,
			Quantity:          req.Quantity,
			Description:       req.Description,
			TotalUsageLimit:   req.TotalUsageLimit,
			MaxScansPerCode:   req.MaxScansPerCode,
		})
		if err != nil {
			return nil, err
		}
		resp := types.CreateCouponResponse{CreditCost: res.CreditCost, NewBalance: res.NewBalance}
		if len(res.Coupons) == 1 {
			resp.Coupon = &res.Coupons[0]
		} else {
			resp.Coupons = res.Coupons
			resp.BatchID = res.BatchIDs[0]
		}
		return resp, nil
	})
}

func (h *Coupon) CreateMultiBatch(c *gin.Context) error {
	id, err := context.GetIdentity(c)
	if err != nil {
		return err
	}
	var req types.MultiBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return response.Validation("%s", err.Error())
	}

	specs := make([]service.BatchSpec, len(req.Batches))
	for i, b := range req.Batches {
		specs[i] = service.BatchSpec{
			DiscountValue: b.DiscountAmount,
			ExpiryDate:    b.ExpiryDate,
			Quantity:      b.Quantity,
			Description:   b.Description,
		}
	}
	return h.idempotent(c, id.TenantID, func() (any, error) {
		res, err := h.Batches.CreateMultiBatch(c.Request.Context(), id.TenantID, id.UserID, req.VerificationAppID, specs)
		if err != nil {
			return nil, err
		}
		return types.MultiBatchResponse{
			Coupons:    res.Coupons,
			BatchIDs:   res.BatchIDs,
			CreditCost: res.CreditCost,
			NewBalance: res.NewBalance,
		}, nil
	})
}

// idempotent 带 Idempotency-Key 的创建请求：首个成功响应按路由保存 24 小时并原样回放
func (h *Coupon) idempotent(c *gin.Context, tenantID int64, fn func() (any, error)) error {
	key := c.GetHeader(HeaderIdempotencyKey)
	if key == "" || h.Idempotency == nil {
		data, err := fn()
		if err != nil {
			return err
		}
		response.Created(c, data)
		return nil
	}

	ctx := c.Request.Context()
	scope := c.FullPath()
	saved, err := h.Idempotency.Begin(ctx, tenantID, scope, key)
	if errors.Is(err, cache.ErrRequestInFlight) {
		return response.Conflict("request with idempotency key %q is still in progress", key)
	}
	if err != nil {
		return err
	}
	if saved != nil {
		c.Header("Idempotent-Replayed", "true")
		c.Data(http.StatusCreated, gin.MIMEJSON+"; charset=utf-8", saved)
		return nil
	}

	data, err := fn()
	if err != nil {
		if abortErr := h.Idempotency.Abort(ctx, tenantID, scope, key); abortErr != nil {
			log.L.Warn("release idempotency key", zap.String("key", key), zap.Error(abortErr))
		}
		return err
	}
	body, err := json.Marshal(response.Response{Code: 0, Msg: "success", Data: data})
	if err != nil {
		return err
	}
	if err := h.Idempotency.Complete(ctx, tenantID, scope, key, body); err != nil {
		log.L.Warn("store idempotent response", zap.String("key", key), zap.Error(err))
	}
	c.Data(http.StatusCreated, gin.MIMEJSON+"; charset=utf-8", body)
	return nil
}

func (h *Coupon) List(c *gin.Context) error {
	id, err := context.GetIdentity(c)
	if err != nil {
		return err
	}
	var req types.ListCouponsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		return response.Validation("%s", err.Error())
	}
	resp, err := h.Batches.ListCoupons(c.Request.Context(), id.TenantID, &req)
	if err != nil {
		return err
	}
	response.Success(c, resp)
	return nil
}

func (h *Coupon) Get(c *gin.Context) error {
	id, err := context.GetIdentity(c)
	if err != nil {
		return err
	}
	couponID, err := pathID(c)
	if err != nil {
		return err
	}
	item, err := h.Batches.GetCoupon(c.Request.Context(), id.TenantID, couponID)
	if err != nil {
		return err
	}
	response.Success(c, gin.H{"coupon": item})
	return nil
}

func (h *Coupon) ListScans(c *gin.Context) error {
	id, err := context.GetIdentity(c)
	if err != nil {
		return err
	}
	couponID, err := pathID(c)
	if err != nil {
		return err
	}
	var req types.ListScansRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		return response.Validation("%s", err.Error())
	}
	resp, err := h.Scans.ListScans(c.Request.Context(), id.TenantID, couponID, req.Cursor, req.Limit)
	if err != nil {
		return err
	}
	response.Success(c, resp)
	return nil
}

func (h *Coupon) GetBatch(c *gin.Context) error {
	id, err := context.GetIdentity(c)
	if err != nil {
		return err
	}
	batchID, err := h.batchID(c)
	if err != nil {
		return err
	}
	detail, err := h.Batches.GetBatch(c.Request.Context(), id.TenantID, batchID)
	if err != nil {
		return err
	}
	response.Success(c, detail)
	return nil
}

func (h *Coupon) UpdateStatus(c *gin.Context) error {
	id, err := context.GetIdentity(c)
	if err != nil {
		return err
	}
	couponID, err := pathID(c)
	if err != nil {
		return err
	}
	var req types.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return response.Validation("%s", err.Error())
	}
	res, err := h.Lifecycle.UpdateStatus(c.Request.Context(), id.TenantID, id.UserID, couponID, &req)
	if err != nil {
		return err
	}
	response.Success(c, res)
	return nil
}

func (h *Coupon) Print(c *gin.Context) error {
	id, err := context.GetIdentity(c)
	if err != nil {
		return err
	}
	couponID, err := pathID(c)
	if err != nil {
		return err
	}
	coupon, err := h.Lifecycle.Print(c.Request.Context(), id.TenantID, couponID)
	if err != nil {
		return err
	}
	response.Success(c, gin.H{"coupon": coupon, "printed_count": coupon.PrintedCount})
	return nil
}

func (h *Coupon) ActivateRange(c *gin.Context) error {
	id, err := context.GetIdentity(c)
	if err != nil {
		return err
	}
	var req types.RangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return response.Validation("%s", err.Error())
	}
	res, err := h.Bulk.ActivateRange(c.Request.Context(), id.TenantID, id.UserID, &req)
	if err != nil {
		return err
	}
	response.Success(c, res)
	return nil
}

func (h *Coupon) DeactivateRange(c *gin.Context) error {
	id, err := context.GetIdentity(c)
	if err != nil {
		return err
	}
	var req types.RangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return response.Validation("%s", err.Error())
	}
	res, err := h.Bulk.DeactivateRange(c.Request.Context(), id.TenantID, id.UserID, &req)
	if err != nil {
		return err
	}
	response.Success(c, res)
	return nil
}

func (h *Coupon) BulkPrint(c *gin.Context) error {
	id, err := context.GetIdentity(c)
	if err != nil {
		return err
	}
	var req types.BulkPrintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return response.Validation("%s", err.Error())
	}
	res, err := h.Bulk.BulkPrint(c.Request.Context(), id.TenantID, req.CouponIDs)
	if err != nil {
		return err
	}
	response.Success(c, res)
	return nil
}

func (h *Coupon) BulkActivate(c *gin.Context) error {
	id, err := context.GetIdentity(c)
	if err != nil {
		return err
	}
	var req types.BulkActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return response.Validation("%s", err.Error())
	}
	res, err := h.Bulk.BulkActivate(c.Request.Context(), id.TenantID, req.CouponIDs, req.ActivationNote)
	if err != nil {
		return err
	}
	response.Success(c, res)
	return nil
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, response.Validation("invalid id %q", c.Param("id"))
	}
	return id, nil
}

// batchID 路径参数既可以是内部 id 也可以是对外的批次号
func (h *Coupon) batchID(c *gin.Context) (int64, error) {
	if id, err := pathID(c); err == nil {
		return id, nil
	}
	id, err := utils.DecodeHashID(h.Config.App.HashidSalt, c.Param("id"))
	if err != nil {
		return 0, response.Validation("invalid batch id %q", c.Param("id"))
	}
	return id, nil
}

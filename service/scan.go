package service

import (
	"Rewards/dao"
	"Rewards/models"
	"Rewards/pkg/geo"
	"Rewards/pkg/log"
	"Rewards/pkg/metrics"
	"Rewards/pkg/snowflake"
	"Rewards/types"
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var scanMessages = map[models.ScanStatus]string{
	models.ScanSuccess:    "Coupon redeemed successfully",
	models.ScanInvalid:    "Invalid coupon code",
	models.ScanNotPrinted: "Coupon has not been printed yet",
	models.ScanNotActive:  "Coupon is not activated yet",
	models.ScanUsed:       "Coupon has already been used",
	models.ScanInactive:   "Coupon has been deactivated",
	models.ScanExpired:    "Coupon has expired",
	models.ScanExhausted:  "Coupon usage limit reached",
}

// ScanMessage 核销结果对应的提示语
func ScanMessage(status models.ScanStatus) string {
	return scanMessages[status]
}

// VerifyInput 一次扫码请求
type VerifyInput struct {
	Code       string
	Location   []byte
	DeviceInfo []byte
	IP         string
}

type VerifyResult struct {
	Status  models.ScanStatus
	Message string
	Coupon  *models.Coupon
}

func (r *VerifyResult) Success() bool {
	return r.Status == models.ScanSuccess
}

type ScanVerifier struct {
	DB        *gorm.DB
	CouponDAO *dao.CouponDAO
	ScanDAO   *dao.ScanDAO
}

var _ IScanVerifier = (*ScanVerifier)(nil)

type IScanVerifier interface {
	Verify(ctx context.Context, in VerifyInput) (*VerifyResult, error)
	ListScans(ctx context.Context, tenantID, couponID int64, cursor int64, limit int) (*types.ListScansResponse, error)
}

// Verify 判定一次扫码并记录扫码日志，无论成功与否都会写一行 scans
func (s *ScanVerifier) Verify(ctx context.Context, in VerifyInput) (*VerifyResult, error) {
	code := NormalizeCode(in.Code)
	result := &VerifyResult{}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		status, coupon, err := s.evaluate(ctx, tx, code, now)
		if err != nil {
			return err
		}
		result.Status = status
		result.Coupon = coupon

		scan := &models.Scan{
			ID:         snowflake.GenID(),
			CouponCode: code,
			ScanStatus: status,
			ScannedAt:  now,
			IPAddress:  in.IP,
		}
		if coupon != nil {
			scan.CouponID = &coupon.ID
			scan.TenantID = &coupon.TenantID
		}
		if loc, ok := geo.ParseLocation(in.Location); ok {
			scan.Geo = datatypes.JSON(loc.JSON())
		}
		if len(in.DeviceInfo) > 0 {
			scan.DeviceInfo = datatypes.JSON(in.DeviceInfo)
		}
		return s.ScanDAO.Create(ctx, tx, scan)
	})
	if err != nil {
		return nil, err
	}

	result.Message = ScanMessage(result.Status)
	metrics.ScanResults.WithLabelValues(string(result.Status)).Inc()
	if result.Success() {
		log.L.Info("coupon redeemed",
			zap.Int64("tenant_id", result.Coupon.TenantID),
			zap.Int64("coupon_id", result.Coupon.ID),
			zap.Int("usage", result.Coupon.CurrentUsageCount),
		)
	} else {
		log.L.Debug("scan rejected",
			zap.String("code", code),
			zap.String("status", string(result.Status)),
			zap.String("ip", in.IP),
		)
	}
	return result, nil
}

// evaluate 依次检查：券是否存在、状态、单码扫码次数、有效期、总使用次数，全部通过后原子扣减次数
func (s *ScanVerifier) evaluate(ctx context.Context, tx *gorm.DB, code string, now time.Time) (models.ScanStatus, *models.Coupon, error) {
	if !IsCodeFormat(code) {
		return models.ScanInvalid, nil, nil
	}
	coupon, err := s.CouponDAO.FindByCode(ctx, tx, code)
	if err != nil {
		if dao.IsNotFound(err) {
			return models.ScanInvalid, nil, nil
		}
		return "", nil, err
	}

	if status, rejected := statusReject(coupon.Status); rejected {
		return status, coupon, nil
	}

	successes, err := s.ScanDAO.CountSuccess(ctx, tx, coupon.ID)
	if err != nil {
		return "", nil, err
	}
	if successes >= int64(coupon.MaxScansPerCode) {
		return models.ScanUsed, coupon, nil
	}

	if now.After(coupon.ExpiryDate) {
		// 顺手把过期状态落库，后续查询直接可见
		if _, err := s.CouponDAO.MarkExpired(ctx, tx, coupon.ID); err != nil {
			return "", nil, err
		}
		coupon.Status = models.CouponExpired
		return models.ScanExpired, coupon, nil
	}

	if coupon.CurrentUsageCount >= coupon.TotalUsageLimit {
		return models.ScanExhausted, coupon, nil
	}

	affected, err := s.CouponDAO.ConsumeUsage(ctx, tx, coupon.ID, now)
	if err != nil {
		return "", nil, err
	}

	// 加锁读拿到最新提交的版本，普通读在可重复读隔离级别下只能看到事务开始时的快照
	fresh, err := s.CouponDAO.FindByIDForUpdate(ctx, tx, coupon.TenantID, coupon.ID)
	if err != nil {
		return "", nil, err
	}
	if affected == 1 {
		return models.ScanSuccess, fresh, nil
	}
	return terminalReject(fresh), fresh, nil
}

// statusReject 非 active 状态直接拒绝
func statusReject(status models.CouponStatus) (models.ScanStatus, bool) {
	if status == models.CouponActive {
		return "", false
	}
	if !status.Final() {
		if status == models.CouponDraft {
			return models.ScanNotPrinted, true
		}
		return models.ScanNotActive, true
	}
	switch status {
	case models.CouponUsed:
		return models.ScanUsed, true
	case models.CouponInactive:
		return models.ScanInactive, true
	case models.CouponExpired:
		return models.ScanExpired, true
	case models.CouponExhausted:
		return models.ScanExhausted, true
	}
	return "", false
}

// terminalReject 并发扫码时额度被其他请求抢先用完
func terminalReject(c *models.Coupon) models.ScanStatus {
	if status, rejected := statusReject(c.Status); rejected {
		return status
	}
	if c.CurrentUsageCount >= c.MaxScansPerCode {
		return models.ScanUsed
	}
	if c.CurrentUsageCount >= c.TotalUsageLimit {
		return models.ScanExhausted
	}
	return models.ScanUsed
}

func (s *ScanVerifier) ListScans(ctx context.Context, tenantID, couponID int64, cursor int64, limit int) (*types.ListScansResponse, error) {
	if _, err := s.CouponDAO.FindByID(ctx, nil, tenantID, couponID); err != nil {
		if dao.IsNotFound(err) {
			return nil, notFoundCoupon(couponID)
		}
		return nil, err
	}
	scans, err := s.ScanDAO.ListByCoupon(ctx, couponID, cursor, limit+1)
	if err != nil {
		return nil, err
	}
	resp := &types.ListScansResponse{Scans: scans}
	if len(scans) > limit {
		resp.HasMore = true
		resp.Scans = scans[:limit]
	}
	if n := len(resp.Scans); n > 0 {
		resp.NextCursor = resp.Scans[n-1].ID
	}
	return resp, nil
}

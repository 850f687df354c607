package service

import (
	"Rewards/config"
	"Rewards/dao"
	"Rewards/models"
	"Rewards/pkg/log"
	"Rewards/pkg/response"
	"Rewards/types"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BulkService 按编号区间或 id 列表批量迁移状态，不符合条件的券跳过并计数
type BulkService struct {
	DB        *gorm.DB
	Config    *config.Config
	CouponDAO *dao.CouponDAO
	Lifecycle *Lifecycle
}

var _ IBulkService = (*BulkService)(nil)

type IBulkService interface {
	ActivateRange(ctx context.Context, tenantID, userID int64, req *types.RangeRequest) (*types.ActivateRangeResult, error)
	DeactivateRange(ctx context.Context, tenantID, userID int64, req *types.RangeRequest) (*types.DeactivateRangeResult, error)
	BulkPrint(ctx context.Context, tenantID int64, ids []int64) (*types.BulkPrintResult, error)
	BulkActivate(ctx context.Context, tenantID int64, ids []int64, note string) (*types.BulkActivateResult, error)
}

// parseRange 校验区间，返回起止序号
func (s *BulkService) parseRange(req *types.RangeRequest) (int64, int64, error) {
	prefix := s.Config.Coupon.ReferencePrefix
	from, err := ParseReference(prefix, req.FromReference)
	if err != nil {
		return 0, 0, err
	}
	to, err := ParseReference(prefix, req.ToReference)
	if err != nil {
		return 0, 0, err
	}
	if from > to {
		return 0, 0, response.Validation("invalid range: %s is after %s", req.FromReference, req.ToReference)
	}
	return from, to, nil
}

// ActivateRange 激活区间内状态等于 status_filter 的券，其余计入 skipped
func (s *BulkService) ActivateRange(ctx context.Context, tenantID, userID int64, req *types.RangeRequest) (*types.ActivateRangeResult, error) {
	filter := models.CouponPrinted
	if req.StatusFilter != "" {
		st, ok := models.ParseCouponStatus(req.StatusFilter)
		if !ok || (st != models.CouponDraft && st != models.CouponPrinted) {
			return nil, response.Validation("status_filter must be draft or printed")
		}
		filter = st
	}
	from, to, err := s.parseRange(req)
	if err != nil {
		return nil, err
	}

	result := &types.ActivateRangeResult{ActivatedReferences: []string{}, ActivatedCodes: []string{}}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		coupons, err := s.CouponDAO.FindRangeForUpdate(ctx, tx, tenantID, from, to)
		if err != nil {
			return err
		}
		now := time.Now()
		match, skipped := partition(coupons, func(c *models.Coupon) bool {
			return c.EffectiveStatus(now) == filter
		})
		done, err := s.Lifecycle.activate(ctx, tx, match, req.Note, now)
		if err != nil {
			return err
		}
		result.ActivatedCount = len(done)
		result.SkippedCount = len(skipped)
		for _, c := range done {
			result.ActivatedReferences = append(result.ActivatedReferences, c.CouponReference)
			result.ActivatedCodes = append(result.ActivatedCodes, c.CouponCode)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.L.Info("coupon range activated",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("operator", userID),
		zap.String("from", req.FromReference),
		zap.String("to", req.ToReference),
		zap.Int("activated", result.ActivatedCount),
		zap.Int("skipped", result.SkippedCount),
	)
	return result, nil
}

// DeactivateRange 停用区间内仍可停用的券（draft/printed/active），合计返还一笔积分
func (s *BulkService) DeactivateRange(ctx context.Context, tenantID, userID int64, req *types.RangeRequest) (*types.DeactivateRangeResult, error) {
	var filter models.CouponStatus
	if req.StatusFilter != "" {
		st, ok := models.ParseCouponStatus(req.StatusFilter)
		if !ok || !CanTransition(st, models.CouponInactive) {
			return nil, response.Validation("status_filter must be draft, printed or active")
		}
		filter = st
	}
	from, to, err := s.parseRange(req)
	if err != nil {
		return nil, err
	}

	result := &types.DeactivateRangeResult{DeactivatedReferences: []string{}, DeactivatedCodes: []string{}}
	var refund *models.CreditTransaction
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		coupons, err := s.CouponDAO.FindRangeForUpdate(ctx, tx, tenantID, from, to)
		if err != nil {
			return err
		}
		now := time.Now()
		match, skipped := partition(coupons, func(c *models.Coupon) bool {
			st := c.EffectiveStatus(now)
			if filter != "" && st != filter {
				return false
			}
			return CanTransition(st, models.CouponInactive)
		})
		res, err := s.Lifecycle.deactivate(ctx, tx, deactivation{
			TenantID:    tenantID,
			UserID:      userID,
			Coupons:     match,
			Reason:      req.Reason,
			RefType:     RefTypeRange,
			RefID:       req.FromReference + ".." + req.ToReference,
			Description: fmt.Sprintf("refund for %d coupons deactivated in %s..%s", len(match), req.FromReference, req.ToReference),
			Now:         now,
		})
		if err != nil {
			return err
		}
		refund = res.Record
		result.DeactivatedCount = len(res.Done)
		result.SkippedCount = len(skipped)
		result.RefundedCredits = res.Refunded
		for _, c := range res.Done {
			result.DeactivatedReferences = append(result.DeactivatedReferences, c.CouponReference)
			result.DeactivatedCodes = append(result.DeactivatedCodes, c.CouponCode)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Lifecycle.Ledger.Observe(refund)
	log.L.Info("coupon range deactivated",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("operator", userID),
		zap.String("from", req.FromReference),
		zap.String("to", req.ToReference),
		zap.Int("deactivated", result.DeactivatedCount),
		zap.Int("skipped", result.SkippedCount),
		zap.Int64("refunded", result.RefundedCredits),
	)
	return result, nil
}

// BulkPrint 打印指定的券，不存在或不可打印的计入 skipped
func (s *BulkService) BulkPrint(ctx context.Context, tenantID int64, ids []int64) (*types.BulkPrintResult, error) {
	ids = uniqueIDs(ids)
	result := &types.BulkPrintResult{Coupons: []*models.Coupon{}}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		coupons, err := s.CouponDAO.FindByIDsForUpdate(ctx, tx, tenantID, ids)
		if err != nil {
			return err
		}
		now := time.Now()
		match, _ := partition(coupons, func(c *models.Coupon) bool {
			return CanTransition(c.Status, models.CouponPrinted)
		})
		done, err := s.Lifecycle.print(ctx, tx, match, now)
		if err != nil {
			return err
		}
		result.PrintedCount = len(done)
		result.SkippedCount = len(ids) - len(done)
		if done != nil {
			result.Coupons = done
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.L.Info("coupons printed",
		zap.Int64("tenant_id", tenantID),
		zap.Int("printed", result.PrintedCount),
		zap.Int("skipped", result.SkippedCount),
	)
	return result, nil
}

// BulkActivate 激活指定的券，只处理 draft/printed
func (s *BulkService) BulkActivate(ctx context.Context, tenantID int64, ids []int64, note string) (*types.BulkActivateResult, error) {
	ids = uniqueIDs(ids)
	result := &types.BulkActivateResult{ActivatedCoupons: []*models.Coupon{}}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		coupons, err := s.CouponDAO.FindByIDsForUpdate(ctx, tx, tenantID, ids)
		if err != nil {
			return err
		}
		now := time.Now()
		match, _ := partition(coupons, func(c *models.Coupon) bool {
			return CanTransition(c.EffectiveStatus(now), models.CouponActive)
		})
		done, err := s.Lifecycle.activate(ctx, tx, match, note, now)
		if err != nil {
			return err
		}
		result.ActivatedCount = len(done)
		result.SkippedCount = len(ids) - len(done)
		if done != nil {
			result.ActivatedCoupons = done
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.L.Info("coupons activated",
		zap.Int64("tenant_id", tenantID),
		zap.Int("activated", result.ActivatedCount),
		zap.Int("skipped", result.SkippedCount),
	)
	return result, nil
}

func partition(coupons []*models.Coupon, keep func(*models.Coupon) bool) (match, rest []*models.Coupon) {
	for _, c := range coupons {
		if keep(c) {
			match = append(match, c)
		} else {
			rest = append(rest, c)
		}
	}
	return match, rest
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

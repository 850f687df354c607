package service

import (
	"Rewards/dao"
	"Rewards/models"
	"Rewards/pkg/log"
	"Rewards/pkg/response"
	"Rewards/types"
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 合法的状态迁移。expired 由时间推导，inactive 为终态不可再激活
var transitions = map[models.CouponStatus][]models.CouponStatus{
	models.CouponDraft:   {models.CouponPrinted, models.CouponActive, models.CouponInactive},
	models.CouponPrinted: {models.CouponPrinted, models.CouponActive, models.CouponInactive},
	models.CouponActive:  {models.CouponUsed, models.CouponExhausted, models.CouponExpired, models.CouponInactive},
}

// CanTransition 判断 from -> to 是否允许
func CanTransition(from, to models.CouponStatus) bool {
	if from.Final() {
		return false
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Lifecycle struct {
	DB        *gorm.DB
	CouponDAO *dao.CouponDAO
	Ledger    ICreditLedger
}

var _ ILifecycle = (*Lifecycle)(nil)

type ILifecycle interface {
	Print(ctx context.Context, tenantID, couponID int64) (*models.Coupon, error)
	UpdateStatus(ctx context.Context, tenantID, userID, couponID int64, req *types.UpdateStatusRequest) (*types.UpdateStatusResult, error)
}

// Print 打印（或重印）单张券
func (l *Lifecycle) Print(ctx context.Context, tenantID, couponID int64) (*models.Coupon, error) {
	var coupon *models.Coupon
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		coupon, err = l.lockOne(ctx, tx, tenantID, couponID)
		if err != nil {
			return err
		}
		// 打印不受有效期约束，按落库状态判断
		now := time.Now()
		if !CanTransition(coupon.Status, models.CouponPrinted) {
			return response.InvalidTransition(string(coupon.Status), string(models.CouponPrinted))
		}
		printed, err := l.print(ctx, tx, []*models.Coupon{coupon}, now)
		if err != nil {
			return err
		}
		if len(printed) != 1 {
			return fmt.Errorf("print coupon %d: row not updated", couponID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return coupon, nil
}

// UpdateStatus 单张券的激活/停用，非法迁移直接报错
func (l *Lifecycle) UpdateStatus(ctx context.Context, tenantID, userID, couponID int64, req *types.UpdateStatusRequest) (*types.UpdateStatusResult, error) {
	target, ok := models.ParseCouponStatus(req.Status)
	if !ok || (target != models.CouponActive && target != models.CouponInactive) {
		return nil, response.Validation("status must be one of active, inactive")
	}

	result := &types.UpdateStatusResult{}
	var refund *models.CreditTransaction
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		coupon, err := l.lockOne(ctx, tx, tenantID, couponID)
		if err != nil {
			return err
		}
		now := time.Now()
		from := coupon.EffectiveStatus(now)
		if !CanTransition(from, target) {
			return response.InvalidTransition(string(from), string(target))
		}
		result.Coupon = coupon

		if target == models.CouponActive {
			done, err := l.activate(ctx, tx, []*models.Coupon{coupon}, req.Note, now)
			if err != nil {
				return err
			}
			if len(done) != 1 {
				return fmt.Errorf("activate coupon %d: row not updated", couponID)
			}
			return nil
		}

		res, err := l.deactivate(ctx, tx, deactivation{
			TenantID:    tenantID,
			UserID:      userID,
			Coupons:     []*models.Coupon{coupon},
			Reason:      req.Reason,
			RefType:     RefTypeCoupon,
			RefID:       strconv.FormatInt(coupon.ID, 10),
			Description: fmt.Sprintf("refund for deactivated coupon %s", coupon.CouponReference),
			Now:         now,
		})
		if err != nil {
			return err
		}
		if len(res.Done) != 1 {
			return fmt.Errorf("deactivate coupon %d: row not updated", couponID)
		}
		result.RefundedCredits = res.Refunded
		refund = res.Record
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.Ledger.Observe(refund)
	log.L.Info("coupon status changed",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("coupon_id", couponID),
		zap.String("status", string(target)),
		zap.Int64("refunded", result.RefundedCredits),
	)
	return result, nil
}

func (l *Lifecycle) lockOne(ctx context.Context, tx *gorm.DB, tenantID, couponID int64) (*models.Coupon, error) {
	coupon, err := l.CouponDAO.FindByIDForUpdate(ctx, tx, tenantID, couponID)
	if err != nil {
		if dao.IsNotFound(err) {
			return nil, notFoundCoupon(couponID)
		}
		return nil, err
	}
	return coupon, nil
}

// 以下辅助方法要求 coupons 已在 tx 内加锁，并由调用方完成状态筛选

func (l *Lifecycle) print(ctx context.Context, tx *gorm.DB, coupons []*models.Coupon, now time.Time) ([]*models.Coupon, error) {
	if len(coupons) == 0 {
		return nil, nil
	}
	affected, err := l.CouponDAO.MarkPrinted(ctx, tx, couponIDs(coupons), now)
	if err != nil {
		return nil, fmt.Errorf("mark printed: %w", err)
	}
	if int(affected) != len(coupons) {
		return nil, fmt.Errorf("mark printed: expected %d rows, updated %d", len(coupons), affected)
	}
	for _, c := range coupons {
		c.Status = models.CouponPrinted
		c.PrintedCount++
		c.PrintedAt = &now
		c.UpdatedAt = now
	}
	return coupons, nil
}

func (l *Lifecycle) activate(ctx context.Context, tx *gorm.DB, coupons []*models.Coupon, note string, now time.Time) ([]*models.Coupon, error) {
	if len(coupons) == 0 {
		return nil, nil
	}
	affected, err := l.CouponDAO.Activate(ctx, tx, couponIDs(coupons), note, now)
	if err != nil {
		return nil, fmt.Errorf("activate coupons: %w", err)
	}
	if int(affected) != len(coupons) {
		return nil, fmt.Errorf("activate coupons: expected %d rows, updated %d", len(coupons), affected)
	}
	for _, c := range coupons {
		c.Status = models.CouponActive
		c.ActivatedAt = &now
		c.ActivationNote = note
		c.UpdatedAt = now
	}
	return coupons, nil
}

type deactivation struct {
	TenantID    int64
	UserID      int64
	Coupons     []*models.Coupon
	Reason      string
	RefType     string
	RefID       string
	Description string
	Now         time.Time
}

type deactivationResult struct {
	Done     []*models.Coupon
	Refunded int64
	Record   *models.CreditTransaction
}

// deactivate 停用并按 credit_cost 合计返还一笔积分
func (l *Lifecycle) deactivate(ctx context.Context, tx *gorm.DB, d deactivation) (*deactivationResult, error) {
	res := &deactivationResult{}
	if len(d.Coupons) == 0 {
		return res, nil
	}
	affected, err := l.CouponDAO.Deactivate(ctx, tx, couponIDs(d.Coupons), d.Reason)
	if err != nil {
		return nil, fmt.Errorf("deactivate coupons: %w", err)
	}
	if int(affected) != len(d.Coupons) {
		return nil, fmt.Errorf("deactivate coupons: expected %d rows, updated %d", len(d.Coupons), affected)
	}
	for _, c := range d.Coupons {
		c.Status = models.CouponInactive
		c.DeactivationReason = d.Reason
		c.UpdatedAt = d.Now
		res.Refunded += c.CreditCost
	}
	res.Done = d.Coupons

	if res.Refunded > 0 {
		res.Record, err = l.Ledger.Refund(ctx, tx, LedgerEntry{
			TenantID:      d.TenantID,
			Amount:        res.Refunded,
			ReferenceID:   d.RefID,
			ReferenceType: d.RefType,
			Description:   d.Description,
			CreatedBy:     d.UserID,
		})
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

func couponIDs(coupons []*models.Coupon) []int64 {
	ids := make([]int64, len(coupons))
	for i, c := range coupons {
		ids[i] = c.ID
	}
	return ids
}

func notFoundCoupon(id int64) error {
	return response.NotFound("coupon %d not found", id)
}

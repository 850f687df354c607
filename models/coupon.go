package models

import (
	"time"
)

// CouponStatus 券的生命周期状态，闭合枚举
type CouponStatus string

const (
	CouponDraft     CouponStatus = "draft"
	CouponPrinted   CouponStatus = "printed"
	CouponActive    CouponStatus = "active"
	CouponUsed      CouponStatus = "used"
	CouponExhausted CouponStatus = "exhausted"
	CouponExpired   CouponStatus = "expired"
	CouponInactive  CouponStatus = "inactive"
)

var allCouponStatuses = []CouponStatus{
	CouponDraft, CouponPrinted, CouponActive, CouponUsed, CouponExhausted, CouponExpired, CouponInactive,
}

func ParseCouponStatus(s string) (CouponStatus, bool) {
	for _, st := range allCouponStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Final 终态：不能再激活、扫码或退款
func (s CouponStatus) Final() bool {
	switch s {
	case CouponUsed, CouponExhausted, CouponExpired, CouponInactive:
		return true
	}
	return false
}

// DiscountType 目前只支持固定金额
type DiscountType string

const DiscountFixedAmount DiscountType = "FIXED_AMOUNT"

type Coupon struct {
	ID                 int64        `gorm:"primaryKey;autoIncrement:false;column:id" json:"id"`
	TenantID           int64        `gorm:"column:tenant_id;not null;uniqueIndex:uk_tenant_ref_seq,priority:1;index:idx_tenant_status,priority:1" json:"tenant_id"`
	VerificationAppID  int64        `gorm:"column:verification_app_id;not null" json:"verification_app_id"`
	CouponCode         string       `gorm:"column:coupon_code;type:varchar(16);not null;uniqueIndex:uk_coupon_code" json:"coupon_code"`
	CouponReference    string       `gorm:"column:coupon_reference;type:varchar(32);not null" json:"coupon_reference"`
	ReferenceSeq       int64        `gorm:"column:reference_seq;not null;uniqueIndex:uk_tenant_ref_seq,priority:2" json:"-"`
	DiscountType       DiscountType `gorm:"column:discount_type;type:varchar(16);not null;default:'FIXED_AMOUNT'" json:"discount_type"`
	DiscountValue      int64        `gorm:"column:discount_value;not null" json:"discount_value"`
	CreditCost         int64        `gorm:"column:credit_cost;not null" json:"credit_cost"`
	Status             CouponStatus `gorm:"column:status;type:varchar(16);not null;default:'draft';index:idx_tenant_status,priority:2" json:"status"`
	TotalUsageLimit    int          `gorm:"column:total_usage_limit;not null;default:1" json:"total_usage_limit"`
	CurrentUsageCount  int          `gorm:"column:current_usage_count;not null;default:0" json:"current_usage_count"`
	MaxScansPerCode    int          `gorm:"column:max_scans_per_code;not null;default:1" json:"max_scans_per_code"`
	BatchID            int64        `gorm:"column:batch_id;not null;index:idx_batch_id" json:"batch_id"`
	Description        string       `gorm:"column:description;type:varchar(255)" json:"description"`
	PrintedAt          *time.Time   `gorm:"column:printed_at" json:"printed_at"`
	PrintedCount       int          `gorm:"column:printed_count;not null;default:0" json:"printed_count"`
	ActivatedAt        *time.Time   `gorm:"column:activated_at" json:"activated_at"`
	ActivationNote     string       `gorm:"column:activation_note;type:varchar(255)" json:"activation_note"`
	DeactivationReason string       `gorm:"column:deactivation_reason;type:varchar(255)" json:"deactivation_reason"`
	ExpiryDate         time.Time    `gorm:"column:expiry_date;not null" json:"expiry_date"`
	CreatedBy          int64        `gorm:"column:created_by" json:"created_by"`
	CreatedAt          time.Time    `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time    `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Coupon) TableName() string {
	return "coupons"
}

// EffectiveStatus 过期是按时间推导出来的状态，不依赖后台任务写库。
// 已经进入 used/exhausted/inactive 的券保留原状态。
func (c *Coupon) EffectiveStatus(now time.Time) CouponStatus {
	switch c.Status {
	case CouponDraft, CouponPrinted, CouponActive:
		if now.After(c.ExpiryDate) {
			return CouponExpired
		}
	}
	return c.Status
}

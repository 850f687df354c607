package types

import (
	"Rewards/models"
	"time"
)

// CreateCouponRequest 单次创建，quantity 大于 1 时按批次创建
type CreateCouponRequest struct {
	VerificationAppID int64     `json:"verification_app_id" binding:"required,gt=0"`
	DiscountValue     int64     `json:"discount_value" binding:"required,gt=0"`
	ExpiryDate        time.Time `json:"expiry_date" binding:"required"`
	Quantity          int       `json:"quantity" binding:"omitempty,gte=1"`
	Description       string    `json:"description" binding:"max=255"`
	TotalUsageLimit   int       `json:"total_usage_limit" binding:"omitempty,gte=1"`
	MaxScansPerCode   int       `json:"max_scans_per_code" binding:"omitempty,gte=1"`
}

// MultiBatchItem 多批次创建中的一个子批次
type MultiBatchItem struct {
	Description    string    `json:"description" binding:"max=255"`
	Quantity       int       `json:"quantity"`
	DiscountAmount int64     `json:"discountAmount"`
	ExpiryDate     time.Time `json:"expiryDate"`
}

// 子批次的数量、面额、有效期在业务层统一校验，任何一个不合法整单拒绝
type MultiBatchRequest struct {
	VerificationAppID int64            `json:"verificationAppId" binding:"required,gt=0"`
	Batches           []MultiBatchItem `json:"batches" binding:"required,min=1,dive"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive"`
	Note   string `json:"note" binding:"max=255"`
	Reason string `json:"reason" binding:"max=255"`
}

// RangeRequest 按券编号区间批量激活/停用
type RangeRequest struct {
	FromReference string `json:"from_reference" binding:"required,coupon_ref"`
	ToReference   string `json:"to_reference" binding:"required,coupon_ref"`
	StatusFilter  string `json:"status_filter"`
	Note          string `json:"note" binding:"max=255"`
	Reason        string `json:"reason" binding:"max=255"`
}

type BulkPrintRequest struct {
	CouponIDs []int64 `json:"coupon_ids" binding:"required,min=1,max=500"`
}

type BulkActivateRequest struct {
	CouponIDs      []int64 `json:"coupon_ids" binding:"required,min=1,max=500"`
	ActivationNote string  `json:"activation_note" binding:"max=255"`
}

type ListCouponsRequest struct {
	Status  string `form:"status"`
	BatchID int64  `form:"batch_id"`
	Cursor  int64  `form:"cursor"`
	Limit   int    `form:"limit,default=20" binding:"gte=1,lte=100"`
}

// CouponItem 对外展示的券，status 为按当前时间推导后的状态
type CouponItem struct {
	*models.Coupon
	QRURL string `json:"qr_url,omitempty"`
}

type CreateCouponsResult struct {
	Coupons    []CouponItem `json:"coupons"`
	BatchIDs   []int64      `json:"batch_ids"`
	BatchNos   []string     `json:"batch_nos"`
	CreditCost int64        `json:"credit_cost"`
	NewBalance int64        `json:"new_balance"`
}

// CreateCouponResponse quantity 为 1 时返回 coupon，否则返回 coupons + batch_id
type CreateCouponResponse struct {
	Coupon     *CouponItem  `json:"coupon,omitempty"`
	Coupons    []CouponItem `json:"coupons,omitempty"`
	BatchID    int64        `json:"batch_id,omitempty"`
	CreditCost int64        `json:"credit_cost"`
	NewBalance int64        `json:"new_balance"`
}

type MultiBatchResponse struct {
	Coupons    []CouponItem `json:"coupons"`
	BatchIDs   []int64      `json:"batch_ids"`
	CreditCost int64        `json:"credit_cost"`
	NewBalance int64        `json:"new_balance"`
}

type UpdateStatusResult struct {
	Coupon          *models.Coupon `json:"coupon"`
	RefundedCredits int64          `json:"refunded_credits"`
}

type ActivateRangeResult struct {
	ActivatedCount      int      `json:"activated_count"`
	SkippedCount        int      `json:"skipped_count"`
	ActivatedReferences []string `json:"activated_references"`
	ActivatedCodes      []string `json:"activated_codes"`
}

type DeactivateRangeResult struct {
	DeactivatedCount      int      `json:"deactivated_count"`
	SkippedCount          int      `json:"skipped_count"`
	RefundedCredits       int64    `json:"refunded_credits"`
	DeactivatedReferences []string `json:"deactivated_references"`
	DeactivatedCodes      []string `json:"deactivated_codes"`
}

type BulkPrintResult struct {
	Coupons      []*models.Coupon `json:"coupons"`
	PrintedCount int              `json:"printed_count"`
	SkippedCount int              `json:"skipped_count"`
}

type BulkActivateResult struct {
	ActivatedCount   int              `json:"activated_count"`
	SkippedCount     int              `json:"skipped_count"`
	ActivatedCoupons []*models.Coupon `json:"activated_coupons"`
}

type ListCouponsResponse struct {
	Coupons    []*models.Coupon `json:"coupons"`
	NextCursor int64            `json:"next_cursor"`
	HasMore    bool             `json:"has_more"`
}

type BatchDetail struct {
	Batch   *models.CouponBatch `json:"batch"`
	Coupons []*models.Coupon    `json:"coupons"`
}

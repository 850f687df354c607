package models

import "time"

const BatchCompleted = "completed"

// CouponBatch 同一次请求内原子创建的一组券
type CouponBatch struct {
	ID                int64     `gorm:"primaryKey;autoIncrement:false;column:id" json:"id"`
	TenantID          int64     `gorm:"column:tenant_id;not null;index:idx_tenant_id" json:"tenant_id"`
	VerificationAppID int64     `gorm:"column:verification_app_id;not null" json:"verification_app_id"`
	BatchNo           string    `gorm:"column:batch_no;type:varchar(32);not null;uniqueIndex:uk_batch_no" json:"batch_no"`
	BatchName         string    `gorm:"column:batch_name;type:varchar(255)" json:"batch_name"`
	TotalCoupons      int       `gorm:"column:total_coupons;not null" json:"total_coupons"`
	DiscountValue     int64     `gorm:"column:discount_value;not null" json:"discount_value"`
	TotalCost         int64     `gorm:"column:total_cost;not null" json:"total_cost"`
	BatchStatus       string    `gorm:"column:batch_status;type:varchar(16);not null" json:"batch_status"`
	CreatedBy         int64     `gorm:"column:created_by" json:"created_by"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (CouponBatch) TableName() string {
	return "coupon_batches"
}

// CouponSequence 每个租户一行的券编号计数器
type CouponSequence struct {
	TenantID  int64     `gorm:"primaryKey;autoIncrement:false;column:tenant_id"`
	LastValue int64     `gorm:"column:last_value;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CouponSequence) TableName() string {
	return "coupon_sequences"
}

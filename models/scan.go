package models

import (
	"time"

	"gorm.io/datatypes"
)

// ScanStatus 一次核销尝试的结果
type ScanStatus string

const (
	ScanSuccess    ScanStatus = "SUCCESS"
	ScanInvalid    ScanStatus = "INVALID"
	ScanNotPrinted ScanStatus = "NOT_PRINTED"
	ScanNotActive  ScanStatus = "NOT_ACTIVE"
	ScanUsed       ScanStatus = "USED"
	ScanInactive   ScanStatus = "INACTIVE"
	ScanExpired    ScanStatus = "EXPIRED"
	ScanExhausted  ScanStatus = "EXHAUSTED"
)

// Scan 每次核销尝试一行，无论成功与否
type Scan struct {
	ID         int64          `gorm:"primaryKey;autoIncrement:false;column:id" json:"id"`
	CouponID   *int64         `gorm:"column:coupon_id;index:idx_coupon_status,priority:1" json:"coupon_id"`
	TenantID   *int64         `gorm:"column:tenant_id;index:idx_tenant_id" json:"tenant_id"`
	CouponCode string         `gorm:"column:coupon_code;type:varchar(32)" json:"coupon_code"`
	ScanStatus ScanStatus     `gorm:"column:scan_status;type:varchar(16);not null;index:idx_coupon_status,priority:2" json:"scan_status"`
	ScannedAt  time.Time      `gorm:"column:scanned_at;not null" json:"scanned_at"`
	Geo        datatypes.JSON `gorm:"column:geo" json:"geo,omitempty"`
	DeviceInfo datatypes.JSON `gorm:"column:device_info" json:"device_info,omitempty"`
	IPAddress  string         `gorm:"column:ip_address;type:varchar(64)" json:"ip_address"`
}

func (Scan) TableName() string {
	return "scans"
}

package dao

import (
	"Rewards/models"
	"context"

	"gorm.io/gorm"
)

type ScanDAO struct {
	Repo[models.Scan]
}

func NewScanDAO(db *gorm.DB) *ScanDAO {
	return &ScanDAO{
		Repo: NewRepo[models.Scan](db),
	}
}

// CountSuccess 该券历史成功核销次数
func (d *ScanDAO) CountSuccess(ctx context.Context, tx *gorm.DB, couponID int64) (int64, error) {
	var count int64
	err := d.Model(ctx, tx).
		Where("coupon_id = ? AND scan_status = ?", couponID, models.ScanSuccess).
		Count(&count).Error
	return count, err
}

// ListByCoupon 按 id 倒序分页
func (d *ScanDAO) ListByCoupon(ctx context.Context, couponID int64, cursor int64, limit int) ([]models.Scan, error) {
	var scans []models.Scan
	query := d.Db.WithContext(ctx).Where("coupon_id = ?", couponID)
	if cursor > 0 {
		query = query.Where("id < ?", cursor)
	}
	err := query.Order("id DESC").Limit(limit).Find(&scans).Error
	return scans, err
}

package dao

import (
	"Rewards/models"
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SequenceDAO struct {
	Repo[models.CouponSequence]
}

func NewSequenceDAO(db *gorm.DB) *SequenceDAO {
	return &SequenceDAO{
		Repo: NewRepo[models.CouponSequence](db),
	}
}

// Reserve 原子地把租户计数器加 n 并返回加后的值，必须在事务内调用。
// UPDATE 持有行锁直到事务结束，并发调用方拿到的区间互不重叠；事务回滚时区间一并回收。
func (d *SequenceDAO) Reserve(ctx context.Context, tx *gorm.DB, tenantID int64, n int) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("sequence reserve: n must be positive, got %d", n)
	}
	db := tx.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.CouponSequence{TenantID: tenantID}).Error; err != nil {
		return 0, err
	}

	res := db.Model(&models.CouponSequence{}).
		Where("tenant_id = ?", tenantID).
		UpdateColumn("last_value", gorm.Expr("last_value + ?", n))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("sequence reserve: no counter row for tenant %d", tenantID)
	}

	var seq models.CouponSequence
	if err := db.Where("tenant_id = ?", tenantID).First(&seq).Error; err != nil {
		return 0, err
	}
	return seq.LastValue, nil
}

package dao

import (
	"Rewards/models"
	"context"

	"gorm.io/gorm"
)

type BatchDAO struct {
	Repo[models.CouponBatch]
}

func NewBatchDAO(db *gorm.DB) *BatchDAO {
	return &BatchDAO{
		Repo: NewRepo[models.CouponBatch](db),
	}
}

func (d *BatchDAO) FindByID(ctx context.Context, tenantID, batchID int64) (*models.CouponBatch, error) {
	return d.FindByWhere(ctx, nil, "id = ? AND tenant_id = ?", batchID, tenantID)
}

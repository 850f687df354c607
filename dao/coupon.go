package dao

import (
	"Rewards/models"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const insertChunk = 100

type CouponDAO struct {
	Repo[models.Coupon]
}

func NewCouponDAO(db *gorm.DB) *CouponDAO {
	return &CouponDAO{
		Repo: NewRepo[models.Coupon](db),
	}
}

// CouponFilter 列表筛选条件
type CouponFilter struct {
	Status  string
	BatchID int64
}

func (d *CouponDAO) CreateMany(ctx context.Context, tx *gorm.DB, coupons []*models.Coupon) error {
	return d.conn(ctx, tx).CreateInBatches(coupons, insertChunk).Error
}

// ExistingCodes 返回 codes 中已被占用的券码
func (d *CouponDAO) ExistingCodes(ctx context.Context, tx *gorm.DB, codes []string) ([]string, error) {
	var taken []string
	if len(codes) == 0 {
		return taken, nil
	}
	err := d.Model(ctx, tx).Where("coupon_code IN ?", codes).Pluck("coupon_code", &taken).Error
	return taken, err
}

func (d *CouponDAO) FindByID(ctx context.Context, tx *gorm.DB, tenantID, id int64) (*models.Coupon, error) {
	return d.FindByWhere(ctx, tx, "id = ? AND tenant_id = ?", id, tenantID)
}

// FindByIDForUpdate 事务内加锁读取单张券
func (d *CouponDAO) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, tenantID, id int64) (*models.Coupon, error) {
	var coupon models.Coupon
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// FindByCode 核销入口按券码查找，不区分租户
func (d *CouponDAO) FindByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Coupon, error) {
	return d.FindByWhere(ctx, tx, "coupon_code = ?", code)
}

// FindByIDsForUpdate 批量加锁读取，按编号排序保证加锁顺序一致
func (d *CouponDAO) FindByIDsForUpdate(ctx context.Context, tx *gorm.DB, tenantID int64, ids []int64) ([]*models.Coupon, error) {
	var coupons []*models.Coupon
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Order("reference_seq ASC").
		Find(&coupons).Error
	return coupons, err
}

// FindRangeForUpdate 按编号区间 [from, to] 加锁读取
func (d *CouponDAO) FindRangeForUpdate(ctx context.Context, tx *gorm.DB, tenantID, from, to int64) ([]*models.Coupon, error) {
	var coupons []*models.Coupon
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND reference_seq BETWEEN ? AND ?", tenantID, from, to).
		Order("reference_seq ASC").
		Find(&coupons).Error
	return coupons, err
}

// MarkPrinted draft/printed -> printed，重复打印只累加次数
func (d *CouponDAO) MarkPrinted(ctx context.Context, tx *gorm.DB, ids []int64, now time.Time) (int64, error) {
	res := tx.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id IN ? AND status IN ?", ids, []models.CouponStatus{models.CouponDraft, models.CouponPrinted}).
		Updates(map[string]any{
			"status":        models.CouponPrinted,
			"printed_count": gorm.Expr("printed_count + 1"),
			"printed_at":    now,
		})
	return res.RowsAffected, res.Error
}

// Activate draft/printed -> active
func (d *CouponDAO) Activate(ctx context.Context, tx *gorm.DB, ids []int64, note string, now time.Time) (int64, error) {
	res := tx.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id IN ? AND status IN ?", ids, []models.CouponStatus{models.CouponDraft, models.CouponPrinted}).
		Updates(map[string]any{
			"status":          models.CouponActive,
			"activated_at":    now,
			"activation_note": note,
		})
	return res.RowsAffected, res.Error
}

// Deactivate draft/printed/active -> inactive
func (d *CouponDAO) Deactivate(ctx context.Context, tx *gorm.DB, ids []int64, reason string) (int64, error) {
	res := tx.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id IN ? AND status IN ?", ids, []models.CouponStatus{models.CouponDraft, models.CouponPrinted, models.CouponActive}).
		Updates(map[string]any{
			"status":              models.CouponInactive,
			"deactivation_reason": reason,
		})
	return res.RowsAffected, res.Error
}

// MarkExpired 扫码时发现已过期，顺手落库
func (d *CouponDAO) MarkExpired(ctx context.Context, tx *gorm.DB, id int64) (int64, error) {
	res := tx.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ? AND status = ?", id, models.CouponActive).
		Update("status", models.CouponExpired)
	return res.RowsAffected, res.Error
}

// consumeUsageSQL 单条语句完成"未超限才加一"和状态翻转。
// status 必须排在 current_usage_count 之前赋值，MySQL 按从左到右计算 SET，CASE 里读到的是加一之前的值。
// 两个上限同时达到时单码上限优先，记为 used。
const consumeUsageSQL = `UPDATE coupons SET
	status = CASE
		WHEN current_usage_count + 1 >= max_scans_per_code THEN ?
		WHEN current_usage_count + 1 >= total_usage_limit THEN ?
		ELSE status
	END,
	current_usage_count = current_usage_count + 1,
	updated_at = ?
WHERE id = ? AND status = ? AND current_usage_count < total_usage_limit AND current_usage_count < max_scans_per_code`

// ConsumeUsage 返回 0 表示额度已被并发请求用完或状态已变化
func (d *CouponDAO) ConsumeUsage(ctx context.Context, tx *gorm.DB, id int64, now time.Time) (int64, error) {
	res := tx.WithContext(ctx).Exec(consumeUsageSQL,
		models.CouponUsed, models.CouponExhausted, now, id, models.CouponActive)
	return res.RowsAffected, res.Error
}

// List 按编号倒序分页，cursor 为上一页最后一条的 reference_seq
func (d *CouponDAO) List(ctx context.Context, tenantID int64, filter CouponFilter, cursor int64, limit int) ([]*models.Coupon, error) {
	var coupons []*models.Coupon
	query := d.Db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.BatchID > 0 {
		query = query.Where("batch_id = ?", filter.BatchID)
	}
	if cursor > 0 {
		query = query.Where("reference_seq < ?", cursor)
	}
	err := query.Order("reference_seq DESC").Limit(limit).Find(&coupons).Error
	return coupons, err
}

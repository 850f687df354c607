package dao

import (
	"Rewards/models"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreditDAO struct {
	Repo[models.TenantCreditBalance]
}

func NewCreditDAO(db *gorm.DB) *CreditDAO {
	return &CreditDAO{
		Repo: NewRepo[models.TenantCreditBalance](db),
	}
}

// EnsureAccount 首次使用时创建余额行，已存在则忽略
func (d *CreditDAO) EnsureAccount(ctx context.Context, tx *gorm.DB, tenantID int64) error {
	return d.conn(ctx, tx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.TenantCreditBalance{TenantID: tenantID}).Error
}

// LockAccount 在事务内对租户余额行加行锁（SELECT ... FOR UPDATE），同租户的扣减/返还由此串行化
func (d *CreditDAO) LockAccount(ctx context.Context, tx *gorm.DB, tenantID int64) (*models.TenantCreditBalance, error) {
	var account models.TenantCreditBalance
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ?", tenantID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// SaveAccount 写回加锁读出并修改后的余额
func (d *CreditDAO) SaveAccount(ctx context.Context, tx *gorm.DB, account *models.TenantCreditBalance) error {
	return tx.WithContext(ctx).
		Model(&models.TenantCreditBalance{}).
		Where("tenant_id = ?", account.TenantID).
		Updates(map[string]any{
			"balance":        account.Balance,
			"total_received": account.TotalReceived,
			"total_spent":    account.TotalSpent,
			"entry_count":    account.EntryCount,
		}).Error
}

func (d *CreditDAO) GetAccount(ctx context.Context, tenantID int64) (*models.TenantCreditBalance, error) {
	return d.FindByWhere(ctx, nil, "tenant_id = ?", tenantID)
}

func (d *CreditDAO) CreateTransaction(ctx context.Context, tx *gorm.DB, record *models.CreditTransaction) error {
	return d.conn(ctx, tx).Create(record).Error
}

// ListTransactions 按流水号倒序分页，cursor 为上一页最后一条的 entry_no
func (d *CreditDAO) ListTransactions(ctx context.Context, tenantID int64, txType string, cursor int64, limit int) ([]models.CreditTransaction, error) {
	var records []models.CreditTransaction
	query := d.Db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if txType != "" {
		query = query.Where("type = ?", txType)
	}
	if cursor > 0 {
		query = query.Where("entry_no < ?", cursor)
	}
	err := query.Order("entry_no DESC").Limit(limit).Find(&records).Error
	return records, err
}

// AllTransactions 按写入顺序返回租户全部流水，用于对账重放
func (d *CreditDAO) AllTransactions(ctx context.Context, tenantID int64) ([]models.CreditTransaction, error) {
	var records []models.CreditTransaction
	err := d.Db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("entry_no ASC").
		Find(&records).Error
	return records, err
}

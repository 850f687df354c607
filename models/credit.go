package models

import "time"

// 积分变动类型
type CreditTxType string

const (
	CreditTxCredit CreditTxType = "CREDIT" // 充值/补偿
	CreditTxDebit  CreditTxType = "DEBIT"  // 创建券扣减
	CreditTxRefund CreditTxType = "REFUND" // 停用券返还
)

func ParseCreditTxType(s string) (CreditTxType, bool) {
	switch CreditTxType(s) {
	case CreditTxCredit, CreditTxDebit, CreditTxRefund:
		return CreditTxType(s), true
	}
	return "", false
}

// Sign 入账为正，扣减为负
func (t CreditTxType) Sign() int64 {
	if t == CreditTxDebit {
		return -1
	}
	return 1
}

type TenantCreditBalance struct {
	TenantID      int64     `gorm:"primaryKey;autoIncrement:false;column:tenant_id" json:"tenant_id"`
	Balance       int64     `gorm:"column:balance;not null;default:0" json:"balance"`
	TotalReceived int64     `gorm:"column:total_received;not null;default:0" json:"total_received"`
	TotalSpent    int64     `gorm:"column:total_spent;not null;default:0" json:"total_spent"`
	EntryCount    int64     `gorm:"column:entry_count;not null;default:0" json:"entry_count"`
	LastUpdated   time.Time `gorm:"column:last_updated;autoUpdateTime" json:"last_updated"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (TenantCreditBalance) TableName() string {
	return "tenant_credit_balances"
}

// CreditTransaction 只追加的积分流水，写入后不再修改
type CreditTransaction struct {
	ID            int64        `gorm:"primaryKey;autoIncrement:false;column:id" json:"id"`
	TenantID      int64        `gorm:"column:tenant_id;not null;uniqueIndex:uk_tenant_entry,priority:1" json:"tenant_id"`
	EntryNo       int64        `gorm:"column:entry_no;not null;uniqueIndex:uk_tenant_entry,priority:2" json:"entry_no"`
	Type          CreditTxType `gorm:"column:type;type:varchar(16);not null" json:"type"`
	Amount        int64        `gorm:"column:amount;not null" json:"amount"`
	BalanceBefore int64        `gorm:"column:balance_before;not null" json:"balance_before"`
	BalanceAfter  int64        `gorm:"column:balance_after;not null" json:"balance_after"`
	ReferenceID   string       `gorm:"column:reference_id;type:varchar(255);index:idx_reference" json:"reference_id"`
	ReferenceType string       `gorm:"column:reference_type;type:varchar(32)" json:"reference_type"`
	Description   string       `gorm:"column:description;type:varchar(255)" json:"description"`
	CreatedBy     int64        `gorm:"column:created_by" json:"created_by"`
	CreatedAt     time.Time    `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (CreditTransaction) TableName() string {
	return "credit_transactions"
}

// SignedAmount 余额的实际变化量
func (t *CreditTransaction) SignedAmount() int64 {
	return t.Type.Sign() * t.Amount
}

package service

import (
	"Rewards/dao"
	"Rewards/models"
	"Rewards/pkg/log"
	"Rewards/pkg/metrics"
	"Rewards/pkg/response"
	"Rewards/pkg/snowflake"
	"Rewards/types"
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 流水关联的业务类型
const (
	RefTypeBatch  = "coupon_batch"
	RefTypeCoupon = "coupon"
	RefTypeRange  = "coupon_range"
	RefTypeTopUp  = "top_up"
)

// LedgerEntry 一次余额变动的业务描述，Amount 恒为正
type LedgerEntry struct {
	TenantID      int64
	Amount        int64
	ReferenceID   string
	ReferenceType string
	Description   string
	CreatedBy     int64
}

type CreditLedger struct {
	DB        *gorm.DB
	CreditDAO *dao.CreditDAO
}

var _ ICreditLedger = (*CreditLedger)(nil)

type ICreditLedger interface {
	// Debit / Refund 必须在调用方事务内执行，与业务写入同生共死
	Debit(ctx context.Context, tx *gorm.DB, entry LedgerEntry) (*models.CreditTransaction, error)
	Refund(ctx context.Context, tx *gorm.DB, entry LedgerEntry) (*models.CreditTransaction, error)
	// Observe 事务提交后上报指标
	Observe(records ...*models.CreditTransaction)

	TopUp(ctx context.Context, entry LedgerEntry) (*models.CreditTransaction, error)
	Balance(ctx context.Context, tenantID int64) (*types.CreditBalance, error)
	ListTransactions(ctx context.Context, tenantID int64, txType string, cursor int64, limit int) (*types.ListCreditTransactions, error)
	Reconcile(ctx context.Context, tenantID int64) (*types.ReconcileReport, error)
}

func (l *CreditLedger) Debit(ctx context.Context, tx *gorm.DB, entry LedgerEntry) (*models.CreditTransaction, error) {
	return l.apply(ctx, tx, models.CreditTxDebit, entry)
}

func (l *CreditLedger) Credit(ctx context.Context, tx *gorm.DB, entry LedgerEntry) (*models.CreditTransaction, error) {
	return l.apply(ctx, tx, models.CreditTxCredit, entry)
}

func (l *CreditLedger) Refund(ctx context.Context, tx *gorm.DB, entry LedgerEntry) (*models.CreditTransaction, error) {
	return l.apply(ctx, tx, models.CreditTxRefund, entry)
}

// apply 锁住租户余额行后读-校验-写，并追加一条流水。
// 余额与流水在同一事务内，二者要么都落库要么都不落。
func (l *CreditLedger) apply(ctx context.Context, tx *gorm.DB, txType models.CreditTxType, entry LedgerEntry) (*models.CreditTransaction, error) {
	if entry.Amount <= 0 {
		return nil, response.Validation("credit amount must be positive, got %d", entry.Amount)
	}
	if err := l.CreditDAO.EnsureAccount(ctx, tx, entry.TenantID); err != nil {
		return nil, fmt.Errorf("ensure credit account: %w", err)
	}
	account, err := l.CreditDAO.LockAccount(ctx, tx, entry.TenantID)
	if err != nil {
		return nil, fmt.Errorf("lock credit account: %w", err)
	}

	before := account.Balance
	switch txType {
	case models.CreditTxDebit:
		if account.Balance < entry.Amount {
			return nil, response.InsufficientCredits(entry.Amount, account.Balance)
		}
		account.TotalSpent += entry.Amount
	default:
		account.TotalReceived += entry.Amount
	}
	account.Balance = before + txType.Sign()*entry.Amount
	account.EntryCount++

	if err := l.CreditDAO.SaveAccount(ctx, tx, account); err != nil {
		return nil, fmt.Errorf("save credit account: %w", err)
	}

	record := &models.CreditTransaction{
		ID:            snowflake.GenID(),
		TenantID:      entry.TenantID,
		EntryNo:       account.EntryCount,
		Type:          txType,
		Amount:        entry.Amount,
		BalanceBefore: before,
		BalanceAfter:  account.Balance,
		ReferenceID:   entry.ReferenceID,
		ReferenceType: entry.ReferenceType,
		Description:   entry.Description,
		CreatedBy:     entry.CreatedBy,
	}
	if err := l.CreditDAO.CreateTransaction(ctx, tx, record); err != nil {
		return nil, fmt.Errorf("append credit transaction: %w", err)
	}
	return record, nil
}

func (l *CreditLedger) Observe(records ...*models.CreditTransaction) {
	for _, r := range records {
		if r == nil {
			continue
		}
		metrics.CreditMovements.WithLabelValues(string(r.Type)).Add(float64(r.Amount))
	}
}

// TopUp 平台给租户充值
func (l *CreditLedger) TopUp(ctx context.Context, entry LedgerEntry) (*models.CreditTransaction, error) {
	if entry.ReferenceType == "" {
		entry.ReferenceType = RefTypeTopUp
	}
	var record *models.CreditTransaction
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		record, err = l.Credit(ctx, tx, entry)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.Observe(record)
	log.L.Info("credits topped up",
		zap.Int64("tenant_id", entry.TenantID),
		zap.Int64("amount", entry.Amount),
		zap.Int64("balance", record.BalanceAfter),
		zap.Int64("operator", entry.CreatedBy),
	)
	return record, nil
}

func (l *CreditLedger) Balance(ctx context.Context, tenantID int64) (*types.CreditBalance, error) {
	account, err := l.CreditDAO.GetAccount(ctx, tenantID)
	if err != nil {
		if dao.IsNotFound(err) {
			// 还没有任何积分变动的租户视为零余额
			return &types.CreditBalance{TenantID: tenantID}, nil
		}
		return nil, err
	}
	return &types.CreditBalance{
		TenantID:      account.TenantID,
		Balance:       account.Balance,
		TotalReceived: account.TotalReceived,
		TotalSpent:    account.TotalSpent,
	}, nil
}

func (l *CreditLedger) ListTransactions(ctx context.Context, tenantID int64, txType string, cursor int64, limit int) (*types.ListCreditTransactions, error) {
	if txType != "" {
		if _, ok := models.ParseCreditTxType(txType); !ok {
			return nil, response.Validation("unknown transaction type %q", txType)
		}
	}
	// 多取一条判断是否还有下一页
	records, err := l.CreditDAO.ListTransactions(ctx, tenantID, txType, cursor, limit+1)
	if err != nil {
		return nil, err
	}
	resp := &types.ListCreditTransactions{Records: records}
	if len(records) > limit {
		resp.HasMore = true
		resp.Records = records[:limit]
	}
	if n := len(resp.Records); n > 0 {
		resp.NextCursor = resp.Records[n-1].EntryNo
	}
	return resp, nil
}

// Reconcile 重放流水核对余额
func (l *CreditLedger) Reconcile(ctx context.Context, tenantID int64) (*types.ReconcileReport, error) {
	report := &types.ReconcileReport{TenantID: tenantID}

	account, err := l.CreditDAO.GetAccount(ctx, tenantID)
	switch {
	case err == nil:
		report.Balance = account.Balance
		report.TotalReceived = account.TotalReceived
		report.TotalSpent = account.TotalSpent
		report.EntryCount = account.EntryCount
	case dao.IsNotFound(err):
	default:
		return nil, err
	}

	records, err := l.CreditDAO.AllTransactions(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	report.Problems = checkChain(records)

	var replayed int64
	for i := range records {
		replayed += records[i].SignedAmount()
	}
	report.ReplayedBalance = replayed

	if replayed != report.Balance {
		report.Problems = append(report.Problems,
			fmt.Sprintf("replayed balance %d differs from stored balance %d", replayed, report.Balance))
	}
	if report.TotalReceived-report.TotalSpent != report.Balance {
		report.Problems = append(report.Problems,
			fmt.Sprintf("total_received %d - total_spent %d != balance %d", report.TotalReceived, report.TotalSpent, report.Balance))
	}
	if int64(len(records)) != report.EntryCount {
		report.Problems = append(report.Problems,
			fmt.Sprintf("%d transactions recorded, account counts %d", len(records), report.EntryCount))
	}
	report.Consistent = len(report.Problems) == 0

	if !report.Consistent {
		log.L.Error("credit ledger inconsistent",
			zap.Int64("tenant_id", tenantID),
			zap.Strings("problems", report.Problems),
		)
	}
	return report, nil
}

// checkChain 每条流水自身的前后余额差等于变动额，且首尾相接
func checkChain(records []models.CreditTransaction) []string {
	var problems []string
	var prev int64
	for i := range records {
		r := &records[i]
		if r.BalanceAfter-r.BalanceBefore != r.SignedAmount() {
			problems = append(problems, fmt.Sprintf("entry %d: balance_after - balance_before != %d", r.EntryNo, r.SignedAmount()))
		}
		if r.BalanceBefore != prev {
			problems = append(problems, fmt.Sprintf("entry %d: balance_before %d does not follow previous balance %d", r.EntryNo, r.BalanceBefore, prev))
		}
		if r.BalanceAfter < 0 {
			problems = append(problems, fmt.Sprintf("entry %d: negative balance %d", r.EntryNo, r.BalanceAfter))
		}
		prev = r.BalanceAfter
	}
	return problems
}

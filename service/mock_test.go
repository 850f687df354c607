package service

import (
	"Rewards/config"
	"Rewards/dao"
	"Rewards/models"
	"Rewards/pkg/qrcode"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testTenant int64 = 7

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		App: &config.App{HashidSalt: "test-salt"},
		Coupon: &config.Coupon{
			MaxBatchQuantity: 500,
			MinDiscount:      1,
			CodeAttempts:     10,
			ReferencePrefix:  "CP-",
			VerifyBaseURL:    "https://r.example.com/verify",
		},
		Scan: &config.Scan{RateLimit: 30, RateWindowSeconds: 60},
	}
}

type services struct {
	ledger    *CreditLedger
	lifecycle *Lifecycle
	batch     *BatchService
	scan      *ScanVerifier
	bulk      *BulkService
}

func newServices(db *gorm.DB) *services {
	cfg := testConfig()
	coupons := dao.NewCouponDAO(db)
	ledger := &CreditLedger{DB: db, CreditDAO: dao.NewCreditDAO(db)}
	lifecycle := &Lifecycle{DB: db, CouponDAO: coupons, Ledger: ledger}
	return &services{
		ledger:    ledger,
		lifecycle: lifecycle,
		batch: &BatchService{
			DB:        db,
			Config:    cfg,
			CouponDAO: coupons,
			BatchDAO:  dao.NewBatchDAO(db),
			Ledger:    ledger,
			Sequence:  &SequenceAllocator{SequenceDAO: dao.NewSequenceDAO(db)},
			Codes:     NewCodeGenerator(coupons, cfg.Coupon),
			Encoder:   qrcode.NewLinkEncoder(),
		},
		scan: &ScanVerifier{DB: db, CouponDAO: coupons, ScanDAO: dao.NewScanDAO(db)},
		bulk: &BulkService{DB: db, Config: cfg, CouponDAO: coupons, Lifecycle: lifecycle},
	}
}

// expectLedgerWrite 余额变动的完整 SQL 协议：建行、加锁读、写回、追加流水
func expectLedgerWrite(mock sqlmock.Sqlmock, acct models.TenantCreditBalance) {
	mock.ExpectExec("INSERT INTO `tenant_credit_balances`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT \\* FROM `tenant_credit_balances` WHERE tenant_id = \\?.*FOR UPDATE").
		WillReturnRows(accountRows(acct))
	mock.ExpectExec("UPDATE `tenant_credit_balances` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `credit_transactions`").WillReturnResult(sqlmock.NewResult(0, 1))
}

// expectLedgerLock 只走到加锁读，后续因业务校验失败回滚
func expectLedgerLock(mock sqlmock.Sqlmock, acct models.TenantCreditBalance) {
	mock.ExpectExec("INSERT INTO `tenant_credit_balances`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT \\* FROM `tenant_credit_balances` WHERE tenant_id = \\?.*FOR UPDATE").
		WillReturnRows(accountRows(acct))
}

func accountRows(accounts ...models.TenantCreditBalance) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"tenant_id", "balance", "total_received", "total_spent", "entry_count"})
	for _, a := range accounts {
		rows.AddRow(a.TenantID, a.Balance, a.TotalReceived, a.TotalSpent, a.EntryCount)
	}
	return rows
}

var couponColumns = []string{
	"id", "tenant_id", "coupon_code", "coupon_reference", "reference_seq", "status",
	"discount_value", "credit_cost", "total_usage_limit", "current_usage_count",
	"max_scans_per_code", "printed_count", "batch_id", "expiry_date",
}

func couponRows(coupons ...models.Coupon) *sqlmock.Rows {
	rows := sqlmock.NewRows(couponColumns)
	for _, c := range coupons {
		rows.AddRow(c.ID, c.TenantID, c.CouponCode, c.CouponReference, c.ReferenceSeq, string(c.Status),
			c.DiscountValue, c.CreditCost, c.TotalUsageLimit, c.CurrentUsageCount,
			c.MaxScansPerCode, c.PrintedCount, c.BatchID, c.ExpiryDate)
	}
	return rows
}

// testCoupon 构造一张默认可用的券
func testCoupon(id int64, seq int64, status models.CouponStatus) models.Coupon {
	return models.Coupon{
		ID:              id,
		TenantID:        testTenant,
		CouponCode:      "ABCD-EFGH",
		CouponReference: FormatReference("CP-", seq),
		ReferenceSeq:    seq,
		Status:          status,
		DiscountValue:   10,
		CreditCost:      10,
		TotalUsageLimit: 1,
		MaxScansPerCode: 1,
		BatchID:         99,
		ExpiryDate:      time.Now().Add(24 * time.Hour),
	}
}

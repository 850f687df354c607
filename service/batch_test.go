package service

import (
	"Rewards/models"
	"Rewards/pkg/response"
	"Rewards/types"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectSequence(mock sqlmock.Sqlmock, last int64) {
	mock.ExpectExec("INSERT INTO `coupon_sequences`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE `coupon_sequences` SET `last_value`=last_value \\+ \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT \\* FROM `coupon_sequences` WHERE tenant_id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id", "last_value"}).AddRow(testTenant, last))
}

func expectNoCodeCollision(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT `coupon_code` FROM `coupons` WHERE coupon_code IN").
		WillReturnRows(sqlmock.NewRows([]string{"coupon_code"}))
}

func TestBatchService_CreateBatch(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newServices(db)

	mock.ExpectBegin()
	expectLedgerWrite(mock, models.TenantCreditBalance{TenantID: testTenant, Balance: 1000, TotalReceived: 1000, EntryCount: 1})
	mock.ExpectExec("INSERT INTO `coupon_batches`").WillReturnResult(sqlmock.NewResult(0, 1))
	expectSequence(mock, 5)
	expectNoCodeCollision(mock)
	mock.ExpectExec("INSERT INTO `coupons`").WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectCommit()

	res, err := svc.batch.CreateBatch(context.Background(), testTenant, 1, BatchSpec{
		VerificationAppID: 3,
		DiscountValue:     10,
		ExpiryDate:        time.Now().Add(30 * 24 * time.Hour),
		Quantity:          5,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50), res.CreditCost)
	assert.Equal(t, int64(950), res.NewBalance)
	require.Len(t, res.BatchIDs, 1)
	require.Len(t, res.Coupons, 5)

	codes := map[string]struct{}{}
	for i, item := range res.Coupons {
		assert.Equal(t, fmt.Sprintf("CP-%03d", i+1), item.CouponReference)
		assert.Equal(t, models.CouponDraft, item.Status)
		assert.Regexp(t, codeRe, item.CouponCode)
		assert.Equal(t, res.BatchIDs[0], item.BatchID)
		assert.Equal(t, int64(10), item.CreditCost)
		assert.Equal(t, 1, item.TotalUsageLimit)
		assert.Equal(t, 1, item.MaxScansPerCode)
		assert.Equal(t, "https://r.example.com/verify?code="+item.CouponCode, item.QRURL)
		codes[item.CouponCode] = struct{}{}
	}
	assert.Len(t, codes, 5)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchService_CreateBatchInsufficientCredits(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newServices(db)

	mock.ExpectBegin()
	expectLedgerLock(mock, models.TenantCreditBalance{TenantID: testTenant, Balance: 20, TotalReceived: 20, EntryCount: 1})
	mock.ExpectRollback()

	_, err := svc.batch.CreateBatch(context.Background(), testTenant, 1, BatchSpec{
		VerificationAppID: 3,
		DiscountValue:     10,
		ExpiryDate:        time.Now().Add(time.Hour),
		Quantity:          5,
	})
	assert.True(t, response.IsKind(err, response.KindInsufficientCredits))
	// 回滚后没有任何批次或券写入
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchService_MultiBatchRejectsInvalidBeforeWriting(t *testing.T) {
	future := time.Now().Add(time.Hour)
	cases := map[string][]BatchSpec{
		"quantity over limit": {
			{DiscountValue: 10, ExpiryDate: future, Quantity: 5},
			{DiscountValue: 10, ExpiryDate: future, Quantity: 501},
		},
		"zero quantity":  {{DiscountValue: 10, ExpiryDate: future, Quantity: 0}},
		"zero discount":  {{DiscountValue: 0, ExpiryDate: future, Quantity: 1}},
		"expired":        {{DiscountValue: 10, ExpiryDate: time.Now().Add(-time.Minute), Quantity: 1}},
		"bad usage caps": {{DiscountValue: 10, ExpiryDate: future, Quantity: 1, TotalUsageLimit: -1}},
	}
	for name, specs := range cases {
		t.Run(name, func(t *testing.T) {
			db, mock := newMockDB(t)
			svc := newServices(db)

			_, err := svc.batch.CreateMultiBatch(context.Background(), testTenant, 1, 3, specs)
			assert.True(t, response.IsKind(err, response.KindValidation), err)
			// 没有开启事务，没有任何 SQL
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBatchService_CreateMultiBatch(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newServices(db)
	future := time.Now().Add(time.Hour)

	mock.ExpectBegin()
	// 两个子批次只扣一次：2*10 + 3*5 = 35
	expectLedgerWrite(mock, models.TenantCreditBalance{TenantID: testTenant, Balance: 100, TotalReceived: 100, EntryCount: 1})
	mock.ExpectExec("INSERT INTO `coupon_batches`").WillReturnResult(sqlmock.NewResult(0, 1))
	expectSequence(mock, 12)
	expectNoCodeCollision(mock)
	mock.ExpectExec("INSERT INTO `coupons`").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO `coupon_batches`").WillReturnResult(sqlmock.NewResult(0, 1))
	expectSequence(mock, 15)
	expectNoCodeCollision(mock)
	mock.ExpectExec("INSERT INTO `coupons`").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	res, err := svc.batch.CreateMultiBatch(context.Background(), testTenant, 1, 3, []BatchSpec{
		{Description: "gold", DiscountValue: 10, ExpiryDate: future, Quantity: 2},
		{Description: "silver", DiscountValue: 5, ExpiryDate: future, Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(35), res.CreditCost)
	assert.Equal(t, int64(65), res.NewBalance)
	assert.Len(t, res.BatchIDs, 2)
	require.Len(t, res.Coupons, 5)

	refs := make([]string, 0, 5)
	for _, c := range res.Coupons {
		refs = append(refs, c.CouponReference)
		assert.Equal(t, int64(3), c.VerificationAppID)
	}
	assert.Equal(t, []string{"CP-011", "CP-012", "CP-013", "CP-014", "CP-015"}, refs)
	assert.Equal(t, res.BatchIDs[1], res.Coupons[4].BatchID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchService_ListCoupons(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newServices(db)

	expired := testCoupon(2, 2, models.CouponActive)
	expired.ExpiryDate = time.Now().Add(-time.Hour)
	mock.ExpectQuery("SELECT \\* FROM `coupons` WHERE tenant_id = \\? AND status = \\? ORDER BY reference_seq DESC").
		WillReturnRows(couponRows(testCoupon(3, 3, models.CouponActive), expired, testCoupon(1, 1, models.CouponActive)))

	resp, err := svc.batch.ListCoupons(context.Background(), testTenant, &types.ListCouponsRequest{Status: "active", Limit: 2})
	require.NoError(t, err)
	assert.True(t, resp.HasMore)
	require.Len(t, resp.Coupons, 2)
	// 读取时按有效期推导状态，不写库
	assert.Equal(t, models.CouponExpired, resp.Coupons[1].Status)
	assert.Equal(t, int64(2), resp.NextCursor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchService_GetCouponNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newServices(db)

	mock.ExpectQuery("SELECT \\* FROM `coupons` WHERE id = \\? AND tenant_id = \\?").
		WillReturnRows(couponRows())

	_, err := svc.batch.GetCoupon(context.Background(), testTenant, 42)
	assert.True(t, response.IsKind(err, response.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

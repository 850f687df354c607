package service

import (
	"Rewards/models"
	"Rewards/pkg/response"
	"Rewards/types"
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	lockRangeSQL = "SELECT \\* FROM `coupons` WHERE tenant_id = \\? AND reference_seq BETWEEN \\? AND \\? ORDER BY reference_seq ASC.*FOR UPDATE"
	lockIDsSQL   = "SELECT \\* FROM `coupons` WHERE tenant_id = \\? AND id IN \\(.*\\) ORDER BY reference_seq ASC.*FOR UPDATE"
)

func withCode(c models.Coupon, code string) models.Coupon {
	c.CouponCode = code
	return c
}

func TestBulkService_ActivateRange(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newServices(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockRangeSQL).WillReturnRows(couponRows(
		withCode(testCoupon(1, 1, models.CouponPrinted), "AAAA-AAAA"),
		withCode(testCoupon(2, 2, models.CouponActive), "BBBB-BBBB"),
		withCode(testCoupon(3, 3, models.CouponPrinted), "CCCC-CCCC"),
	))
	mock.ExpectExec("UPDATE `coupons` SET .*WHERE id IN \\(\\?,\\?\\) AND status IN").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	res, err := svc.bulk.ActivateRange(context.Background(), testTenant, 2, &types.RangeRequest{
		FromReference: "CP-001",
		ToReference:   "CP-003",
		Note:          "wave 1",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ActivatedCount)
	// CP-002 在区间内但状态不符
	assert.Equal(t, 1, res.SkippedCount)
	assert.Equal(t, []string{"CP-001", "CP-003"}, res.ActivatedReferences)
	assert.Equal(t, []string{"AAAA-AAAA", "CCCC-CCCC"}, res.ActivatedCodes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkService_ActivateRangeNothingMatches(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newServices(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockRangeSQL).WillReturnRows(couponRows(testCoupon(1, 1, models.CouponUsed)))
	mock.ExpectCommit()

	res, err := svc.bulk.ActivateRange(context.Background(), testTenant, 2, &types.RangeRequest{
		FromReference: "CP-001",
		ToReference:   "CP-001",
		StatusFilter:  "draft",
	})
	require.NoError(t, err)
	assert.Zero(t, res.ActivatedCount)
	assert.Equal(t, 1, res.SkippedCount)
	assert.Empty(t, res.ActivatedReferences)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkService_RangeValidation(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newServices(db)
	ctx := context.Background()

	cases := []*types.RangeRequest{
		{FromReference: "CP-005", ToReference: "CP-001"},
		{FromReference: "CP-1", ToReference: "CP-002"},
		{FromReference: "XX-001", ToReference: "XX-002"},
		{FromReference: "CP-001", ToReference: "CP-002", StatusFilter: "inactive"},
		{FromReference: "CP-001", ToReference: "CP-002", StatusFilter: "active"},
	}
	for _, req := range cases {
		_, err := svc.bulk.ActivateRange(ctx, testTenant, 2, req)
		assert.True(t, response.IsKind(err, response.KindValidation), req)
	}
	_, err := svc.bulk.DeactivateRange(ctx, testTenant, 2, &types.RangeRequest{FromReference: "CP-002", ToReference: "CP-001"})
	assert.True(t, response.IsKind(err, response.KindValidation))
	_, err = svc.bulk.DeactivateRange(ctx, testTenant, 2, &types.RangeRequest{FromReference: "CP-001", ToReference: "CP-002", StatusFilter: "used"})
	assert.True(t, response.IsKind(err, response.KindValidation))

	assert.NoError(t, mock.ExpectationsWereMet())
}

// 编号超过 999 时按数值比较，CP-999..CP-1000 是合法区间
func TestBulkService_RangeBeyondThreeDigits(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newServices(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockRangeSQL).
		WithArgs(testTenant, int64(999), int64(1000)).
		WillReturnRows(couponRows(testCoupon(1, 999, models.CouponPrinted), testCoupon(2, 1000, models.CouponPrinted)))
	mock.ExpectExec(updateCouponSQL).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	res, err := svc.bulk.ActivateRange(context.Background(), testTenant, 2, &types.RangeRequest{
		FromReference: "CP-999",
		ToReference:   "CP-1000",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"CP-999", "CP-1000"}, res.ActivatedReferences)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkService_DeactivateRange(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newServices(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockRangeSQL).WillReturnRows(couponRows(
		testCoupon(1, 1, models.CouponActive),
		testCoupon(2, 2, models.CouponUsed),
		testCoupon(3, 3, models.CouponDraft),
		testCoupon(4, 4, models.CouponInactive),
		testCoupon(5, 5, models.CouponExhausted),
	))
	mock.ExpectExec(updateCouponSQL).WillReturnResult(sqlmock.NewResult(0, 2))
	// 两张券合计一笔退款
	expectLedgerWrite(mock, models.TenantCreditBalance{TenantID: testTenant, Balance: 950, TotalReceived: 1000, TotalSpent: 50, EntryCount: 2})
	mock.ExpectCommit()

	res, err := svc.bulk.DeactivateRange(context.Background(), testTenant, 2, &types.RangeRequest{
		FromReference: "CP-001",
		ToReference:   "CP-005",
		Reason:        "campaign ended",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.DeactivatedCount)
	assert.Equal(t, 3, res.SkippedCount)
	assert.Equal(t, int64(20), res.RefundedCredits)
	assert.Equal(t, []string{"CP-001", "CP-003"}, res.DeactivatedReferences)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkService_DeactivateRangeRollsBackOnLedgerFailure(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newServices(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockRangeSQL).WillReturnRows(couponRows(testCoupon(1, 1, models.CouponActive)))
	mock.ExpectExec(updateCouponSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `tenant_credit_balances`").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := svc.bulk.DeactivateRange(context.Background(), testTenant, 2, &types.RangeRequest{
		FromReference: "CP-001",
		ToReference:   "CP-001",
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkService_BulkPrint(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newServices(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockIDsSQL).WillReturnRows(couponRows(
		testCoupon(1, 1, models.CouponDraft),
		testCoupon(2, 2, models.CouponActive),
	))
	mock.ExpectExec("UPDATE `coupons` SET .*printed_count").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// id 3 不存在，重复的 2 只算一次
	res, err := svc.bulk.BulkPrint(context.Background(), testTenant, []int64{1, 2, 3, 2})
	require.NoError(t, err)
	assert.Equal(t, 1, res.PrintedCount)
	assert.Equal(t, 2, res.SkippedCount)
	require.Len(t, res.Coupons, 1)
	assert.Equal(t, models.CouponPrinted, res.Coupons[0].Status)
	assert.Equal(t, 1, res.Coupons[0].PrintedCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkService_BulkActivate(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newServices(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockIDsSQL).WillReturnRows(couponRows(
		testCoupon(1, 1, models.CouponDraft),
		testCoupon(2, 2, models.CouponPrinted),
		testCoupon(3, 3, models.CouponInactive),
	))
	mock.ExpectExec(updateCouponSQL).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	res, err := svc.bulk.BulkActivate(context.Background(), testTenant, []int64{1, 2, 3}, "go live")
	require.NoError(t, err)
	assert.Equal(t, 2, res.ActivatedCount)
	assert.Equal(t, 1, res.SkippedCount)
	for _, c := range res.ActivatedCoupons {
		assert.Equal(t, models.CouponActive, c.Status)
		assert.Equal(t, "go live", c.ActivationNote)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

// 行数与加锁读出的不一致说明状态被绕过锁修改，整单回滚
func TestBulkService_BulkActivateRowMismatchRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newServices(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockIDsSQL).WillReturnRows(couponRows(testCoupon(1, 1, models.CouponDraft), testCoupon(2, 2, models.CouponDraft)))
	mock.ExpectExec(updateCouponSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	_, err := svc.bulk.BulkActivate(context.Background(), testTenant, []int64{1, 2}, "")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

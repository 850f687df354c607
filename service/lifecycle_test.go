package service

import (
	"Rewards/models"
	"Rewards/pkg/response"
	"Rewards/types"
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	lockCouponSQL   = "SELECT \\* FROM `coupons` WHERE id = \\? AND tenant_id = \\?.*FOR UPDATE"
	updateCouponSQL = "UPDATE `coupons` SET"
)

func TestCanTransition(t *testing.T) {
	allowed := [][2]models.CouponStatus{
		{models.CouponDraft, models.CouponPrinted},
		{models.CouponPrinted, models.CouponPrinted},
		{models.CouponDraft, models.CouponActive},
		{models.CouponPrinted, models.CouponActive},
		{models.CouponActive, models.CouponInactive},
		{models.CouponDraft, models.CouponInactive},
		{models.CouponActive, models.CouponUsed},
		{models.CouponActive, models.CouponExhausted},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	denied := [][2]models.CouponStatus{
		{models.CouponInactive, models.CouponActive},
		{models.CouponUsed, models.CouponInactive},
		{models.CouponExpired, models.CouponInactive},
		{models.CouponExhausted, models.CouponInactive},
		{models.CouponActive, models.CouponPrinted},
		{models.CouponActive, models.CouponActive},
		{models.CouponInactive, models.CouponInactive},
	}
	for _, tr := range denied {
		assert.False(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	finals := []models.CouponStatus{models.CouponUsed, models.CouponExhausted, models.CouponExpired, models.CouponInactive}
	targets := []models.CouponStatus{models.CouponPrinted, models.CouponActive, models.CouponInactive, models.CouponUsed}
	for _, from := range finals {
		for _, to := range targets {
			assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestLifecycle_PrintIsRepeatable(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newServices(db)

	coupon := testCoupon(1, 1, models.CouponPrinted)
	coupon.PrintedCount = 1

	mock.ExpectBegin()
	mock.ExpectQuery(lockCouponSQL).WillReturnRows(couponRows(coupon))
	mock.ExpectExec("UPDATE `coupons` SET .*printed_count.*WHERE id IN").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := svc.lifecycle.Print(context.Background(), testTenant, 1)
	require.NoError(t, err)
	assert.Equal(t, models.CouponPrinted, got.Status)
	assert.Equal(t, 2, got.PrintedCount)
	assert.NotNil(t, got.PrintedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLifecycle_PrintIgnoresExpiry(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newServices(db)

	coupon := testCoupon(1, 1, models.CouponDraft)
	coupon.ExpiryDate = time.Now().Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(lockCouponSQL).WillReturnRows(couponRows(coupon))
	mock.ExpectExec("UPDATE `coupons` SET .*printed_count.*WHERE id IN").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := svc.lifecycle.Print(context.Background(), testTenant, 1)
	require.NoError(t, err)
	assert.Equal(t, models.CouponPrinted, got.Status)
	assert.Equal(t, 1, got.PrintedCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLifecycle_PrintActiveRejected(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newServices(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockCouponSQL).WillReturnRows(couponRows(testCoupon(1, 1, models.CouponActive)))
	mock.ExpectRollback()

	_, err := svc.lifecycle.Print(context.Background(), testTenant, 1)
	assert.True(t, response.IsKind(err, response.KindInvalidTransition))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLifecycle_Activate(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newServices(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockCouponSQL).WillReturnRows(couponRows(testCoupon(1, 1, models.CouponPrinted)))
	mock.ExpectExec(updateCouponSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.lifecycle.UpdateStatus(context.Background(), testTenant, 2, 1,
		&types.UpdateStatusRequest{Status: "active", Note: "store opening"})
	require.NoError(t, err)
	assert.Equal(t, models.CouponActive, res.Coupon.Status)
	assert.Equal(t, "store opening", res.Coupon.ActivationNote)
	assert.NotNil(t, res.Coupon.ActivatedAt)
	assert.Zero(t, res.RefundedCredits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLifecycle_DeactivateRefundsOnce(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newServices(db)

	coupon := testCoupon(1, 1, models.CouponActive)
	coupon.CreditCost = 50

	mock.ExpectBegin()
	mock.ExpectQuery(lockCouponSQL).WillReturnRows(couponRows(coupon))
	mock.ExpectExec(updateCouponSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	expectLedgerWrite(mock, models.TenantCreditBalance{TenantID: testTenant, Balance: 950, TotalReceived: 1000, TotalSpent: 50, EntryCount: 2})
	mock.ExpectCommit()

	res, err := svc.lifecycle.UpdateStatus(context.Background(), testTenant, 2, 1,
		&types.UpdateStatusRequest{Status: "inactive", Reason: "damaged"})
	require.NoError(t, err)
	assert.Equal(t, int64(50), res.RefundedCredits)
	assert.Equal(t, models.CouponInactive, res.Coupon.Status)
	assert.Equal(t, "damaged", res.Coupon.DeactivationReason)

	// 再次停用：已是 inactive，拒绝且不再退款
	coupon.Status = models.CouponInactive
	mock.ExpectBegin()
	mock.ExpectQuery(lockCouponSQL).WillReturnRows(couponRows(coupon))
	mock.ExpectRollback()

	_, err = svc.lifecycle.UpdateStatus(context.Background(), testTenant, 2, 1,
		&types.UpdateStatusRequest{Status: "inactive"})
	assert.True(t, response.IsKind(err, response.KindInvalidTransition))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLifecycle_TerminalStatesRejected(t *testing.T) {
	for _, status := range []models.CouponStatus{models.CouponUsed, models.CouponExhausted, models.CouponExpired} {
		t.Run(string(status), func(t *testing.T) {
			db, mock := newMockDB(t)
			svc := newServices(db)

			mock.ExpectBegin()
			mock.ExpectQuery(lockCouponSQL).WillReturnRows(couponRows(testCoupon(1, 1, status)))
			mock.ExpectRollback()

			_, err := svc.lifecycle.UpdateStatus(context.Background(), testTenant, 2, 1,
				&types.UpdateStatusRequest{Status: "inactive"})
			assert.True(t, response.IsKind(err, response.KindInvalidTransition))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLifecycle_ExpiredByTimeCannotActivate(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newServices(db)

	coupon := testCoupon(1, 1, models.CouponPrinted)
	coupon.ExpiryDate = time.Now().Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(lockCouponSQL).WillReturnRows(couponRows(coupon))
	mock.ExpectRollback()

	_, err := svc.lifecycle.UpdateStatus(context.Background(), testTenant, 2, 1, &types.UpdateStatusRequest{Status: "active"})
	var be *response.BizError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, response.KindInvalidTransition, be.Kind)
	assert.Contains(t, be.Msg, "expired")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLifecycle_UpdateStatusValidation(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newServices(db)

	for _, st := range []string{"used", "printed", "bogus", ""} {
		_, err := svc.lifecycle.UpdateStatus(context.Background(), testTenant, 2, 1, &types.UpdateStatusRequest{Status: st})
		assert.True(t, response.IsKind(err, response.KindValidation), st)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLifecycle_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newServices(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockCouponSQL).WillReturnRows(couponRows())
	mock.ExpectRollback()

	_, err := svc.lifecycle.UpdateStatus(context.Background(), testTenant, 2, 404, &types.UpdateStatusRequest{Status: "active"})
	assert.True(t, response.IsKind(err, response.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

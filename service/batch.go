package service

import (
	"Rewards/config"
	"Rewards/dao"
	"Rewards/models"
	"Rewards/pkg/database"
	"Rewards/pkg/log"
	"Rewards/pkg/qrcode"
	"Rewards/pkg/response"
	"Rewards/pkg/snowflake"
	"Rewards/pkg/utils"
	"Rewards/types"
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BatchSpec 一个批次的创建参数
type BatchSpec struct {
	VerificationAppID int64
	DiscountValue     int64
	ExpiryDate        time.Time
	Quantity          int
	Description       string
	TotalUsageLimit   int
	MaxScansPerCode   int
}

type BatchService struct {
	DB        *gorm.DB
	Config    *config.Config
	CouponDAO *dao.CouponDAO
	BatchDAO  *dao.BatchDAO
	Ledger    ICreditLedger
	Sequence  *SequenceAllocator
	Codes     *CodeGenerator
	Encoder   qrcode.Encoder
}

var _ IBatchService = (*BatchService)(nil)

type IBatchService interface {
	CreateBatch(ctx context.Context, tenantID, userID int64, spec BatchSpec) (*types.CreateCouponsResult, error)
	CreateMultiBatch(ctx context.Context, tenantID, userID, appID int64, specs []BatchSpec) (*types.CreateCouponsResult, error)

	GetCoupon(ctx context.Context, tenantID, couponID int64) (*types.CouponItem, error)
	ListCoupons(ctx context.Context, tenantID int64, req *types.ListCouponsRequest) (*types.ListCouponsResponse, error)
	GetBatch(ctx context.Context, tenantID, batchID int64) (*types.BatchDetail, error)
}

func (b *BatchService) CreateBatch(ctx context.Context, tenantID, userID int64, spec BatchSpec) (*types.CreateCouponsResult, error) {
	if spec.Quantity == 0 {
		spec.Quantity = 1
	}
	return b.create(ctx, tenantID, userID, []BatchSpec{spec})
}

// CreateMultiBatch 多个子批次共用一个应用，任一子批次不合法则整单拒绝
func (b *BatchService) CreateMultiBatch(ctx context.Context, tenantID, userID, appID int64, specs []BatchSpec) (*types.CreateCouponsResult, error) {
	if len(specs) == 0 {
		return nil, response.Validation("at least one batch is required")
	}
	for i := range specs {
		specs[i].VerificationAppID = appID
	}
	return b.create(ctx, tenantID, userID, specs)
}

func (b *BatchService) validate(specs []BatchSpec, now time.Time) error {
	conf := b.Config.Coupon
	for i := range specs {
		s := &specs[i]
		if s.VerificationAppID <= 0 {
			return response.Validation("batch %d: verification_app_id is required", i+1)
		}
		if s.Quantity < 1 || s.Quantity > conf.MaxBatchQuantity {
			return response.Validation("batch %d: quantity must be between 1 and %d, got %d", i+1, conf.MaxBatchQuantity, s.Quantity)
		}
		if s.DiscountValue < conf.MinDiscount {
			return response.Validation("batch %d: discount must be at least %d, got %d", i+1, conf.MinDiscount, s.DiscountValue)
		}
		if !s.ExpiryDate.After(now) {
			return response.Validation("batch %d: expiry date must be in the future", i+1)
		}
		if s.TotalUsageLimit == 0 {
			s.TotalUsageLimit = 1
		}
		if s.MaxScansPerCode == 0 {
			s.MaxScansPerCode = 1
		}
		if s.TotalUsageLimit < 1 || s.MaxScansPerCode < 1 {
			return response.Validation("batch %d: usage limits must be positive", i+1)
		}
	}
	return nil
}

// create 扣费、建批次、分配编号、生成券码、写入草稿券，全部在一个事务内完成
func (b *BatchService) create(ctx context.Context, tenantID, userID int64, specs []BatchSpec) (*types.CreateCouponsResult, error) {
	now := time.Now()
	if err := b.validate(specs, now); err != nil {
		return nil, err
	}

	var totalCost int64
	var totalCoupons int
	batches := make([]*models.CouponBatch, len(specs))
	for i, s := range specs {
		cost := CalculateCost(CostInput{DiscountValue: s.DiscountValue, IsBatch: true, BatchQuantity: s.Quantity})
		totalCost += cost.Total
		totalCoupons += s.Quantity

		id := snowflake.GenID()
		batchNo, err := utils.GenHashID(b.Config.App.HashidSalt, id)
		if err != nil {
			return nil, fmt.Errorf("encode batch no: %w", err)
		}
		batches[i] = &models.CouponBatch{
			ID:                id,
			TenantID:          tenantID,
			VerificationAppID: s.VerificationAppID,
			BatchNo:           batchNo,
			BatchName:         s.Description,
			TotalCoupons:      s.Quantity,
			DiscountValue:     s.DiscountValue,
			TotalCost:         cost.Total,
			BatchStatus:       models.BatchCompleted,
			CreatedBy:         userID,
		}
	}

	result := &types.CreateCouponsResult{CreditCost: totalCost}
	var coupons []*models.Coupon
	var debit *models.CreditTransaction

	err := b.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		// 先扣费：余额行锁同时把同租户的并发建券串行化
		debit, err = b.Ledger.Debit(ctx, tx, LedgerEntry{
			TenantID:      tenantID,
			Amount:        totalCost,
			ReferenceID:   batches[0].BatchNo,
			ReferenceType: RefTypeBatch,
			Description:   fmt.Sprintf("create %d coupons in %d batch(es)", totalCoupons, len(batches)),
			CreatedBy:     userID,
		})
		if err != nil {
			return err
		}

		for i, batch := range batches {
			created, err := b.createOne(ctx, tx, batch, specs[i])
			if err != nil {
				return err
			}
			coupons = append(coupons, created...)
		}
		return nil
	})
	if err != nil {
		if database.IsDuplicateKey(err) {
			return nil, response.GenerationFailure("coupon code collided with a concurrent request, please retry")
		}
		return nil, err
	}

	b.Ledger.Observe(debit)
	for _, batch := range batches {
		result.BatchIDs = append(result.BatchIDs, batch.ID)
		result.BatchNos = append(result.BatchNos, batch.BatchNo)
	}
	result.NewBalance = debit.BalanceAfter
	result.Coupons = b.toItems(coupons)

	log.L.Info("coupons created",
		zap.Int64("tenant_id", tenantID),
		zap.Int64s("batch_ids", result.BatchIDs),
		zap.Int("coupons", len(coupons)),
		zap.Int64("credit_cost", totalCost),
		zap.Int64("balance", result.NewBalance),
	)
	return result, nil
}

func (b *BatchService) createOne(ctx context.Context, tx *gorm.DB, batch *models.CouponBatch, spec BatchSpec) ([]*models.Coupon, error) {
	if err := b.BatchDAO.Create(ctx, tx, batch); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}

	first, err := b.Sequence.Reserve(ctx, tx, batch.TenantID, spec.Quantity)
	if err != nil {
		return nil, fmt.Errorf("reserve references: %w", err)
	}
	codes, err := b.Codes.Generate(ctx, tx, spec.Quantity)
	if err != nil {
		return nil, err
	}

	prefix := b.Config.Coupon.ReferencePrefix
	coupons := make([]*models.Coupon, spec.Quantity)
	for i := range coupons {
		seq := first + int64(i)
		coupons[i] = &models.Coupon{
			ID:                snowflake.GenID(),
			TenantID:          batch.TenantID,
			VerificationAppID: spec.VerificationAppID,
			CouponCode:        codes[i],
			CouponReference:   FormatReference(prefix, seq),
			ReferenceSeq:      seq,
			DiscountType:      models.DiscountFixedAmount,
			DiscountValue:     spec.DiscountValue,
			CreditCost:        spec.DiscountValue,
			Status:            models.CouponDraft,
			TotalUsageLimit:   spec.TotalUsageLimit,
			MaxScansPerCode:   spec.MaxScansPerCode,
			BatchID:           batch.ID,
			Description:       spec.Description,
			ExpiryDate:        spec.ExpiryDate,
			CreatedBy:         batch.CreatedBy,
		}
	}
	if err := b.CouponDAO.CreateMany(ctx, tx, coupons); err != nil {
		return nil, fmt.Errorf("insert coupons: %w", err)
	}
	return coupons, nil
}

// toItems 附带扫码链接，状态按当前时间推导
func (b *BatchService) toItems(coupons []*models.Coupon) []types.CouponItem {
	now := time.Now()
	base := b.Config.Coupon.VerifyBaseURL
	return iter.Map(coupons, func(c **models.Coupon) types.CouponItem {
		cp := **c
		cp.Status = cp.EffectiveStatus(now)
		item := types.CouponItem{Coupon: &cp}
		if b.Encoder != nil {
			item.QRURL = b.Encoder.Encode(cp.CouponCode, base)
		}
		return item
	})
}

func (b *BatchService) GetCoupon(ctx context.Context, tenantID, couponID int64) (*types.CouponItem, error) {
	coupon, err := b.CouponDAO.FindByID(ctx, nil, tenantID, couponID)
	if err != nil {
		if dao.IsNotFound(err) {
			return nil, notFoundCoupon(couponID)
		}
		return nil, err
	}
	item := b.toItems([]*models.Coupon{coupon})[0]
	return &item, nil
}

func (b *BatchService) ListCoupons(ctx context.Context, tenantID int64, req *types.ListCouponsRequest) (*types.ListCouponsResponse, error) {
	if req.Status != "" {
		if _, ok := models.ParseCouponStatus(req.Status); !ok {
			return nil, response.Validation("unknown coupon status %q", req.Status)
		}
	}
	coupons, err := b.CouponDAO.List(ctx, tenantID, dao.CouponFilter{Status: req.Status, BatchID: req.BatchID}, req.Cursor, req.Limit+1)
	if err != nil {
		return nil, err
	}
	resp := &types.ListCouponsResponse{Coupons: coupons}
	if len(coupons) > req.Limit {
		resp.HasMore = true
		resp.Coupons = coupons[:req.Limit]
	}
	now := time.Now()
	for _, c := range resp.Coupons {
		c.Status = c.EffectiveStatus(now)
	}
	if n := len(resp.Coupons); n > 0 {
		resp.NextCursor = resp.Coupons[n-1].ReferenceSeq
	}
	return resp, nil
}

func (b *BatchService) GetBatch(ctx context.Context, tenantID, batchID int64) (*types.BatchDetail, error) {
	batch, err := b.BatchDAO.FindByID(ctx, tenantID, batchID)
	if err != nil {
		if dao.IsNotFound(err) {
			return nil, response.NotFound("batch %d not found", batchID)
		}
		return nil, err
	}
	coupons, err := b.CouponDAO.List(ctx, tenantID, dao.CouponFilter{BatchID: batchID}, 0, batch.TotalCoupons)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for _, c := range coupons {
		c.Status = c.EffectiveStatus(now)
	}
	return &types.BatchDetail{Batch: batch, Coupons: coupons}, nil
}

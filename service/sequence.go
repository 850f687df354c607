package service

import (
	"Rewards/dao"
	"context"

	"gorm.io/gorm"
)

// SequenceAllocator 分配租户内连续递增的券编号
type SequenceAllocator struct {
	SequenceDAO *dao.SequenceDAO
}

// Reserve 在调用方事务内预留 n 个连续序号，返回第一个。
// 计数器行锁持有到事务结束，事务回滚时预留的号段一起作废，不会留下空洞。
func (s *SequenceAllocator) Reserve(ctx context.Context, tx *gorm.DB, tenantID int64, n int) (int64, error) {
	last, err := s.SequenceDAO.Reserve(ctx, tx, tenantID, n)
	if err != nil {
		return 0, err
	}
	return last - int64(n) + 1, nil
}

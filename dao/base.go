package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repo 通用的单表访问。带 tx 参数的方法在事务内调用时传入 tx，否则传 nil 使用默认连接。
type Repo[T any] struct {
	Db *gorm.DB
}

func NewRepo[T any](db *gorm.DB) Repo[T] {
	return Repo[T]{Db: db}
}

func (r *Repo[T]) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return r.Db.WithContext(ctx)
}

// Model 当前表的查询构造器
func (r *Repo[T]) Model(ctx context.Context, tx *gorm.DB) *gorm.DB {
	return r.conn(ctx, tx).Model(new(T))
}

func (r *Repo[T]) Create(ctx context.Context, tx *gorm.DB, data *T) error {
	return r.conn(ctx, tx).Create(data).Error
}

// FindByWhere 查询单条，不存在时返回 gorm.ErrRecordNotFound
func (r *Repo[T]) FindByWhere(ctx context.Context, tx *gorm.DB, where string, args ...any) (*T, error) {
	var item T
	if err := r.conn(ctx, tx).Where(where, args...).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repo[T]) IsExist(ctx context.Context, tx *gorm.DB, where string, args ...any) (bool, error) {
	var count int64
	err := r.Model(ctx, tx).Where(where, args...).Limit(1).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsNotFound 统一判断记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

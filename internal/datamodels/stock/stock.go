package stock

import (
	"context"
	"errors"
	"time"
)

// 库存操作错误，文案直接面向买家展示
var (
	ErrActivityClosed    = errors.New("活动未开始或已结束")
	ErrInsufficientStock = errors.New("秒杀库存不足")
	ErrActivityNotFound  = errors.New("活动不存在")
)

// LedgerEntry 库存台账，按 (活动, SKU) 维度记录剩余可购数量。
// Remaining 是唯一被并发争抢的共享资源，扣减必须走存储层的原子操作。
type LedgerEntry struct {
	ID         int64 `gorm:"primaryKey"`
	ActivityID int64 `gorm:"uniqueIndex:uk_activity_sku;not null"`
	SkuID      int64 `gorm:"uniqueIndex:uk_activity_sku;not null"`
	Remaining  int64 `gorm:"not null"` // 剩余库存，永不为负
	Configured int64 `gorm:"not null"` // 初始划拨库存，Release 封顶值
	Version    int64 `gorm:"default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Ledger 库存台账接口，Reserve 是系统中唯一的库存扣减入口
type Ledger interface {
	// Init 初始化或重置台账，剩余库存置为配置值
	Init(ctx context.Context, activityID, skuID, configured int64) error

	// Reserve 原子地检查并扣减库存：余量不足返回 ErrInsufficientStock 且不产生
	// 任何变更；活动不在可购买窗口内返回 ErrActivityClosed。
	Reserve(ctx context.Context, activityID, skuID, qty int64) error

	// Release 回补库存，封顶到初始划拨值，防止重复回补把库存抬高
	Release(ctx context.Context, activityID, skuID, qty int64) error

	// Snapshot 只读余量，仅供展示，不能作为下单依据
	Snapshot(ctx context.Context, activityID, skuID int64) (int64, error)
}

// PurchasableChecker 可购买窗口检查，由活动窗口服务实现
type PurchasableChecker interface {
	IsPurchasable(ctx context.Context, activityID int64, now time.Time) (bool, error)
}

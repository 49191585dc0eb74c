package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/seckill/internal/datamodels/stock"
)

type stockLedger struct {
	db      *gorm.DB
	checker stock.PurchasableChecker
}

// NewStockLedger 创建 MySQL 库存台账。
// 扣减通过单条带条件的 UPDATE 实现，依赖行级原子性保证不超卖。
// checker 为 nil 时跳过窗口校验，用于 worker 异步确认这类窗口已在入口校验过的场景。
func NewStockLedger(db *gorm.DB, checker stock.PurchasableChecker) stock.Ledger {
	return &stockLedger{db: db, checker: checker}
}

func (l *stockLedger) Init(ctx context.Context, activityID, skuID, configured int64) error {
	entry := &stock.LedgerEntry{
		ActivityID: activityID,
		SkuID:      skuID,
		Remaining:  configured,
		Configured: configured,
	}
	// 重复初始化按新配置重置
	return l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "activity_id"}, {Name: "sku_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"remaining", "configured"}),
		}).
		Create(entry).Error
}

func (l *stockLedger) Reserve(ctx context.Context, activityID, skuID, qty int64) error {
	if qty <= 0 {
		return errors.New("数量必须大于0")
	}
	if l.checker != nil {
		ok, err := l.checker.IsPurchasable(ctx, activityID, time.Now())
		if err != nil {
			return err
		}
		if !ok {
			return stock.ErrActivityClosed
		}
	}

	// 检查与扣减压进同一条语句，零行生效即库存不足
	res := l.db.WithContext(ctx).
		Model(&stock.LedgerEntry{}).
		Where("activity_id = ? AND sku_id = ? AND remaining >= ?", activityID, skuID, qty).
		Updates(map[string]any{
			"remaining": gorm.Expr("remaining - ?", qty),
			"version":   gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return stock.ErrInsufficientStock
	}
	return nil
}

func (l *stockLedger) Release(ctx context.Context, activityID, skuID, qty int64) error {
	if qty <= 0 {
		return errors.New("数量必须大于0")
	}
	// 回补封顶到初始划拨值，重复回补不会把库存抬高
	res := l.db.WithContext(ctx).
		Model(&stock.LedgerEntry{}).
		Where("activity_id = ? AND sku_id = ?", activityID, skuID).
		Updates(map[string]any{
			"remaining": gorm.Expr("LEAST(remaining + ?, configured)", qty),
			"version":   gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// version 必然自增，零行生效只可能是台账不存在
		return stock.ErrActivityNotFound
	}
	return nil
}

func (l *stockLedger) Snapshot(ctx context.Context, activityID, skuID int64) (int64, error) {
	var entry stock.LedgerEntry
	if err := l.db.WithContext(ctx).
		Where("activity_id = ? AND sku_id = ?", activityID, skuID).
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, stock.ErrActivityNotFound
		}
		return 0, err
	}
	return entry.Remaining, nil
}

// ListEntries 列出某活动的全部台账，stock-sync 修复任务使用
func ListLedgerEntries(ctx context.Context, db *gorm.DB, activityID int64) ([]*stock.LedgerEntry, error) {
	var list []*stock.LedgerEntry
	q := db.WithContext(ctx).Model(&stock.LedgerEntry{})
	if activityID > 0 {
		q = q.Where("activity_id = ?", activityID)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/seckill/internal/config"
	"github.com/example/seckill/internal/datamodels/activity"
	infraredis "github.com/example/seckill/internal/infra/redis"
	"github.com/example/seckill/internal/logger"
	"github.com/example/seckill/internal/repository/mysql"
	redisrepo "github.com/example/seckill/internal/repository/redis"
	"github.com/example/seckill/internal/service"
)

const checkInterval = 5 * time.Minute

// stock-sync 周期性对账：
//   - 进行中活动的 Redis 台账缺失或与 MySQL 权威值偏离时，以 MySQL 为准修复
//   - 已结束活动的 Redis 台账永久清零，不再接受任何预扣
func main() {
	cfg, err := config.Load("./config")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger.Init(false)

	db := mysql.Init(&cfg.MySQL)
	redisClient := infraredis.Init(&cfg.Redis)

	activityRepo := mysql.NewActivityRepository(db)
	redisLedger := redisrepo.NewLedger(redisClient, nil)

	zap.L().Info("stock sync started", zap.Duration("interval", checkInterval))

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	checkAndSync(context.Background(), db, activityRepo, redisLedger)
	for range ticker.C {
		checkAndSync(context.Background(), db, activityRepo, redisLedger)
	}
}

func checkAndSync(ctx context.Context, db *gorm.DB, activityRepo activity.Repository, redisLedger *redisrepo.Ledger) {
	activities, err := activityRepo.ListAll(ctx)
	if err != nil {
		zap.L().Error("list activities failed", zap.Error(err))
		return
	}

	now := time.Now()
	repaired := 0
	zeroed := 0

	for _, a := range activities {
		entries, err := mysql.ListLedgerEntries(ctx, db, a.ID)
		if err != nil {
			zap.L().Error("list ledger entries failed",
				zap.Int64("activity_id", a.ID), zap.Error(err))
			continue
		}

		status := service.Classify(a, now)
		for _, e := range entries {
			if status == activity.StatusEnded {
				// 结束即清零，防止窗口判定被绕过后还能扣到库存
				if err := redisLedger.Zero(ctx, e.ActivityID, e.SkuID); err != nil {
					zap.L().Error("zero ended ledger failed",
						zap.Int64("activity_id", e.ActivityID),
						zap.Int64("sku_id", e.SkuID), zap.Error(err))
					continue
				}
				zeroed++
				continue
			}

			left, err := redisLedger.Snapshot(ctx, e.ActivityID, e.SkuID)
			if err == nil && left == e.Remaining {
				continue
			}
			// 缺失或偏离，以 MySQL 权威值覆盖
			if err := redisLedger.Init(ctx, e.ActivityID, e.SkuID, e.Configured); err != nil {
				zap.L().Error("repair ledger failed",
					zap.Int64("activity_id", e.ActivityID),
					zap.Int64("sku_id", e.SkuID), zap.Error(err))
				continue
			}
			// Init 会把剩余量重置为配置值，这里再校正为权威剩余量
			if e.Remaining != e.Configured {
				if diff := e.Configured - e.Remaining; diff > 0 {
					if err := redisLedger.Reserve(ctx, e.ActivityID, e.SkuID, diff); err != nil {
						zap.L().Error("align ledger remaining failed",
							zap.Int64("activity_id", e.ActivityID),
							zap.Int64("sku_id", e.SkuID), zap.Error(err))
						continue
					}
				}
			}
			repaired++
			zap.L().Info("ledger repaired",
				zap.Int64("activity_id", e.ActivityID),
				zap.Int64("sku_id", e.SkuID),
				zap.Int64("remaining", e.Remaining))
		}
	}

	zap.L().Info("stock sync round done",
		zap.Int("repaired", repaired), zap.Int("zeroed", zeroed))
}

package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/seckill/internal/datamodels/activity"
	"github.com/example/seckill/internal/datamodels/participation"
)

// AggregateService 维护活动上的冗余计数。
// 计数一律整体重算而不做增量加减，漏触发一次也不会越积越偏。
type AggregateService struct {
	activityRepo activity.Repository
	partRepo     participation.Repository
}

// NewAggregateService 创建计数服务
func NewAggregateService(activityRepo activity.Repository, partRepo participation.Repository) *AggregateService {
	return &AggregateService{activityRepo: activityRepo, partRepo: partRepo}
}

// Recompute 重算活动的参与商户数与商品数。
// 活动已不存在时按无事发生处理：参与记录的清理动作不要求活动还活着。
func (s *AggregateService) Recompute(ctx context.Context, activityID int64) error {
	productCount, merchantCount, err := s.partRepo.CountByActivity(ctx, activityID)
	if err != nil {
		return err
	}

	err = s.activityRepo.UpdateCounters(ctx, activityID, merchantCount, productCount)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		zap.L().Debug("recompute skipped, activity gone",
			zap.Int64("activity_id", activityID))
		return nil
	}
	return err
}

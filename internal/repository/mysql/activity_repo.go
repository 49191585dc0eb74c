package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/seckill/internal/datamodels/activity"
)

type activityRepo struct {
	db *gorm.DB
}

// NewActivityRepository 创建秒杀活动仓储
func NewActivityRepository(db *gorm.DB) activity.Repository {
	return &activityRepo{db: db}
}

func (r *activityRepo) Create(ctx context.Context, a *activity.SeckillActivity) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *activityRepo) GetByID(ctx context.Context, id int64) (*activity.SeckillActivity, error) {
	var a activity.SeckillActivity
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *activityRepo) ListAll(ctx context.Context) ([]*activity.SeckillActivity, error) {
	var list []*activity.SeckillActivity
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *activityRepo) Update(ctx context.Context, a *activity.SeckillActivity) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *activityRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&activity.SeckillActivity{}, id).Error
}

func (r *activityRepo) UpdateCounters(ctx context.Context, id int64, merchantCount, productCount int64) error {
	res := r.db.WithContext(ctx).
		Model(&activity.SeckillActivity{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"merchant_count": merchantCount,
			"product_count":  productCount,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// 活动可能已被并发删除，交由上层决定是否当作错误
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&activity.SeckillActivity{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

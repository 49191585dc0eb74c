package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/seckill/internal/datamodels/participation"
)

type participationRepo struct {
	db *gorm.DB
}

// NewParticipationRepository 创建活动参与记录仓储
func NewParticipationRepository(db *gorm.DB) participation.Repository {
	return &participationRepo{db: db}
}

func (r *participationRepo) Create(ctx context.Context, p *participation.SeckillProduct) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *participationRepo) GetByID(ctx context.Context, id int64) (*participation.SeckillProduct, error) {
	var p participation.SeckillProduct
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *participationRepo) List(ctx context.Context, f participation.Filter) ([]*participation.SeckillProduct, error) {
	q := r.db.WithContext(ctx).Model(&participation.SeckillProduct{})
	if where, args := f.Clauses(); where != "" {
		q = q.Where(where, args...)
	}
	var list []*participation.SeckillProduct
	if err := q.Order("sort DESC, id").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *participationRepo) Update(ctx context.Context, p *participation.SeckillProduct) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *participationRepo) UpdateState(ctx context.Context, id int64, state participation.State) error {
	return r.db.WithContext(ctx).
		Model(&participation.SeckillProduct{}).
		Where("id = ?", id).
		Update("state", state).Error
}

func (r *participationRepo) Destroy(ctx context.Context, id int64) error {
	// 只允许销毁回收站中的记录，正常参与必须先回收
	res := r.db.WithContext(ctx).
		Where("id = ? AND state = ?", id, participation.StateRecycled).
		Delete(&participation.SeckillProduct{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("记录不在回收站，无法销毁")
	}
	return nil
}

func (r *participationRepo) CountByActivity(ctx context.Context, activityID int64) (int64, int64, error) {
	var productCount int64
	if err := r.db.WithContext(ctx).
		Model(&participation.SeckillProduct{}).
		Where("activity_id = ? AND state = ?", activityID, participation.StateActive).
		Count(&productCount).Error; err != nil {
		return 0, 0, err
	}

	var merchantCount int64
	if err := r.db.WithContext(ctx).
		Model(&participation.SeckillProduct{}).
		Where("activity_id = ? AND state = ?", activityID, participation.StateActive).
		Distinct("merchant_id").
		Count(&merchantCount).Error; err != nil {
		return 0, 0, err
	}

	return productCount, merchantCount, nil
}

package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/seckill/internal/datamodels/timeslot"
)

type timeslotRepo struct {
	db *gorm.DB
}

// NewTimeSlotRepository 创建时段仓储
func NewTimeSlotRepository(db *gorm.DB) timeslot.Repository {
	return &timeslotRepo{db: db}
}

func (r *timeslotRepo) Create(ctx context.Context, s *timeslot.SeckillTimeSlot) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *timeslotRepo) GetByID(ctx context.Context, id int64) (*timeslot.SeckillTimeSlot, error) {
	var s timeslot.SeckillTimeSlot
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *timeslotRepo) GetByIDs(ctx context.Context, ids []int64) ([]*timeslot.SeckillTimeSlot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []*timeslot.SeckillTimeSlot
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *timeslotRepo) ListAll(ctx context.Context) ([]*timeslot.SeckillTimeSlot, error) {
	var list []*timeslot.SeckillTimeSlot
	if err := r.db.WithContext(ctx).Order("start_hour").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *timeslotRepo) Update(ctx context.Context, s *timeslot.SeckillTimeSlot) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *timeslotRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&timeslot.SeckillTimeSlot{}, id).Error
}

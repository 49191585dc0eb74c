package timeslot

import (
	"context"
	"time"
)

// SeckillTimeSlot 每日可购买时段，小时区间为左闭右开 [StartHour, EndHour)
type SeckillTimeSlot struct {
	ID        int64 `gorm:"primaryKey"`
	StartHour int   `gorm:"not null"` // 开始小时 0-23
	EndHour   int   `gorm:"not null"` // 结束小时 1-24，必须大于 StartHour
	Enabled   bool  `gorm:"index;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Contains 判断某小时是否落在本时段内
func (s *SeckillTimeSlot) Contains(hour int) bool {
	return s.StartHour <= hour && hour < s.EndHour
}

// Valid 校验小时区间配置
func (s *SeckillTimeSlot) Valid() bool {
	return s.StartHour >= 0 && s.StartHour <= 23 && s.EndHour > s.StartHour && s.EndHour <= 24
}

// Repository 时段仓储接口
type Repository interface {
	Create(ctx context.Context, s *SeckillTimeSlot) error
	GetByID(ctx context.Context, id int64) (*SeckillTimeSlot, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*SeckillTimeSlot, error)
	ListAll(ctx context.Context) ([]*SeckillTimeSlot, error)
	Update(ctx context.Context, s *SeckillTimeSlot) error
	Delete(ctx context.Context, id int64) error
}

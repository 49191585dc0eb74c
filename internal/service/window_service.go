package service

import (
	"context"
	"time"

	"github.com/example/seckill/internal/datamodels/activity"
	"github.com/example/seckill/internal/datamodels/timeslot"
)

// Classify 按日期范围推导活动状态。
// 结束判定基于 EndDay 的次日零点，即结束日当天全天有效；
// 一旦越过结束时刻，无论存储的状态标记是什么，都视为已结束。
func Classify(a *activity.SeckillActivity, now time.Time) activity.Status {
	if !now.Before(endOfDay(a.EndDay, now.Location())) {
		return activity.StatusEnded
	}
	if now.Before(startOfDay(a.StartDay, now.Location())) {
		return activity.StatusPending
	}
	return activity.StatusActive
}

// CurrentSlot 返回当前命中的时段ID。
// 按活动配置的时段顺序取第一个命中的启用时段；
// 活动不在进行中、或当前小时落在所有时段之外时返回 false。
func CurrentSlot(a *activity.SeckillActivity, slots []*timeslot.SeckillTimeSlot, now time.Time) (int64, bool) {
	if Classify(a, now) != activity.StatusActive {
		return 0, false
	}
	byID := make(map[int64]*timeslot.SeckillTimeSlot, len(slots))
	for _, s := range slots {
		byID[s.ID] = s
	}
	hour := now.Hour()
	for _, id := range a.SlotIDList() {
		s, ok := byID[id]
		if !ok || !s.Enabled {
			continue
		}
		if s.Contains(hour) {
			return s.ID, true
		}
	}
	return 0, false
}

// IsPurchasable 活动按日期进行中且当前小时命中某个启用时段
func IsPurchasable(a *activity.SeckillActivity, slots []*timeslot.SeckillTimeSlot, now time.Time) bool {
	_, ok := CurrentSlot(a, slots, now)
	return ok
}

func startOfDay(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
}

func endOfDay(day time.Time, loc *time.Location) time.Time {
	return startOfDay(day, loc).AddDate(0, 0, 1)
}

// WindowService 活动时间窗口解析服务，负责取数并委托上面的纯函数判定
type WindowService struct {
	activityRepo activity.Repository
	slotRepo     timeslot.Repository
}

// NewWindowService 创建窗口解析服务
func NewWindowService(activityRepo activity.Repository, slotRepo timeslot.Repository) *WindowService {
	return &WindowService{activityRepo: activityRepo, slotRepo: slotRepo}
}

// Classify 查询活动并推导状态
func (s *WindowService) Classify(ctx context.Context, activityID int64, now time.Time) (activity.Status, error) {
	a, err := s.activityRepo.GetByID(ctx, activityID)
	if err != nil {
		return activity.StatusEnded, err
	}
	return Classify(a, now), nil
}

// IsPurchasable 查询活动与时段并判定当前是否可购买。
// 活动、时段数据读多写少，调用方可以放心加缓存：陈旧数据只影响展示，
// 不超卖的保证完全落在库存扣减的原子性上。
func (s *WindowService) IsPurchasable(ctx context.Context, activityID int64, now time.Time) (bool, error) {
	a, err := s.activityRepo.GetByID(ctx, activityID)
	if err != nil {
		return false, err
	}
	slots, err := s.slotRepo.GetByIDs(ctx, a.SlotIDList())
	if err != nil {
		return false, err
	}
	return IsPurchasable(a, slots, now), nil
}

package service

import (
	"testing"
	"time"

	"github.com/example/seckill/internal/datamodels/activity"
	"github.com/example/seckill/internal/datamodels/timeslot"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func at(y int, m time.Month, d, hour, min int) time.Time {
	return time.Date(y, m, d, hour, min, 0, 0, time.Local)
}

func TestClassify(t *testing.T) {
	a := &activity.SeckillActivity{
		StartDay: day(2025, 6, 10),
		EndDay:   day(2025, 6, 12),
	}

	cases := []struct {
		name string
		now  time.Time
		want activity.Status
	}{
		{"day before start", at(2025, 6, 9, 23, 59), activity.StatusPending},
		{"start day midnight", at(2025, 6, 10, 0, 0), activity.StatusActive},
		{"middle day", at(2025, 6, 11, 12, 0), activity.StatusActive},
		{"end day last minute", at(2025, 6, 12, 23, 59), activity.StatusActive},
		{"midnight after end day", at(2025, 6, 13, 0, 0), activity.StatusEnded},
		{"well after end", at(2025, 7, 1, 0, 0), activity.StatusEnded},
	}
	for _, tc := range cases {
		if got := Classify(a, tc.now); got != tc.want {
			t.Errorf("%s: Classify = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestClassifyMonotonicEnded(t *testing.T) {
	a := &activity.SeckillActivity{
		StartDay: day(2025, 6, 10),
		EndDay:   day(2025, 6, 10),
	}
	// 一旦越过结束时刻，之后任意时间都必须是已结束
	now := at(2025, 6, 11, 0, 0)
	for i := 0; i < 48; i++ {
		if got := Classify(a, now); got != activity.StatusEnded {
			t.Fatalf("Classify at %v = %d, want ended", now, got)
		}
		now = now.Add(time.Hour)
	}
}

func TestClassifyStoredStatusIgnored(t *testing.T) {
	// 存储的状态标记不影响推导结果
	a := &activity.SeckillActivity{
		StartDay: day(2025, 6, 1),
		EndDay:   day(2025, 6, 2),
		Status:   activity.StatusActive,
	}
	if got := Classify(a, at(2025, 6, 5, 10, 0)); got != activity.StatusEnded {
		t.Fatalf("Classify = %d, want ended regardless of stored status", got)
	}
}

func TestCurrentSlotHalfOpenInterval(t *testing.T) {
	a := &activity.SeckillActivity{
		StartDay: day(2025, 6, 10),
		EndDay:   day(2025, 6, 10),
	}
	a.SetSlotIDList([]int64{1})
	slots := []*timeslot.SeckillTimeSlot{
		{ID: 1, StartHour: 10, EndHour: 12, Enabled: true},
	}

	cases := []struct {
		hour int
		want bool
	}{
		{9, false},
		{10, true},
		{11, true},
		{12, false}, // 右开
		{13, false},
	}
	for _, tc := range cases {
		_, ok := CurrentSlot(a, slots, at(2025, 6, 10, tc.hour, 30))
		if ok != tc.want {
			t.Errorf("hour %d: matched = %v, want %v", tc.hour, ok, tc.want)
		}
	}
}

func TestCurrentSlotSkipsDisabled(t *testing.T) {
	a := &activity.SeckillActivity{
		StartDay: day(2025, 6, 10),
		EndDay:   day(2025, 6, 10),
	}
	a.SetSlotIDList([]int64{1, 2})
	slots := []*timeslot.SeckillTimeSlot{
		{ID: 1, StartHour: 10, EndHour: 12, Enabled: false},
		{ID: 2, StartHour: 10, EndHour: 14, Enabled: true},
	}
	id, ok := CurrentSlot(a, slots, at(2025, 6, 10, 11, 0))
	if !ok || id != 2 {
		t.Fatalf("CurrentSlot = (%d, %v), want (2, true)", id, ok)
	}
}

func TestCurrentSlotFirstMatchWins(t *testing.T) {
	a := &activity.SeckillActivity{
		StartDay: day(2025, 6, 10),
		EndDay:   day(2025, 6, 10),
	}
	// 两个时段都命中 11 点，按配置顺序取第一个
	a.SetSlotIDList([]int64{3, 1})
	slots := []*timeslot.SeckillTimeSlot{
		{ID: 1, StartHour: 10, EndHour: 12, Enabled: true},
		{ID: 3, StartHour: 11, EndHour: 13, Enabled: true},
	}
	id, ok := CurrentSlot(a, slots, at(2025, 6, 10, 11, 0))
	if !ok || id != 3 {
		t.Fatalf("CurrentSlot = (%d, %v), want (3, true)", id, ok)
	}
}

func TestCurrentSlotNoneWhenNotActive(t *testing.T) {
	a := &activity.SeckillActivity{
		StartDay: day(2025, 6, 10),
		EndDay:   day(2025, 6, 10),
	}
	a.SetSlotIDList([]int64{1})
	slots := []*timeslot.SeckillTimeSlot{
		{ID: 1, StartHour: 0, EndHour: 24, Enabled: true},
	}
	if _, ok := CurrentSlot(a, slots, at(2025, 6, 9, 12, 0)); ok {
		t.Fatal("pending activity must not match any slot")
	}
	if _, ok := CurrentSlot(a, slots, at(2025, 6, 11, 12, 0)); ok {
		t.Fatal("ended activity must not match any slot")
	}
}

func TestIsPurchasableGapHours(t *testing.T) {
	// 活动进行中但当前小时落在所有时段之外：今天的场次还没开始 / 已经结束
	a := &activity.SeckillActivity{
		StartDay: day(2025, 6, 10),
		EndDay:   day(2025, 6, 12),
	}
	a.SetSlotIDList([]int64{1, 2})
	slots := []*timeslot.SeckillTimeSlot{
		{ID: 1, StartHour: 10, EndHour: 12, Enabled: true},
		{ID: 2, StartHour: 20, EndHour: 22, Enabled: true},
	}

	if !IsPurchasable(a, slots, at(2025, 6, 11, 10, 30)) {
		t.Fatal("expected purchasable inside morning slot")
	}
	if IsPurchasable(a, slots, at(2025, 6, 11, 13, 0)) {
		t.Fatal("expected not purchasable between slots")
	}
	if !IsPurchasable(a, slots, at(2025, 6, 11, 21, 0)) {
		t.Fatal("expected purchasable inside evening slot")
	}
}

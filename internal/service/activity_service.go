package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/example/seckill/internal/datamodels/activity"
	"github.com/example/seckill/internal/datamodels/participation"
	"github.com/example/seckill/internal/datamodels/product"
	"github.com/example/seckill/internal/datamodels/stock"
	"github.com/example/seckill/internal/datamodels/timeslot"
)

var (
	ErrInvalidDateRange = errors.New("开始日期不能晚于结束日期")
	ErrInvalidSlot      = errors.New("时段配置不合法")
	ErrPriceTooHigh     = errors.New("秒杀价不能高于商品原价")
	ErrNotRecycled      = errors.New("记录不在回收站")
	ErrAlreadyRecycled  = errors.New("记录已在回收站")
)

// ActivityService 秒杀活动领域服务
// 负责：
//   - 活动与时段的创建 / 更新 / 删除
//   - 商户报名（参与记录）的回收站式生命周期维护
//   - 报名变更后触发冗余计数重算、初始化库存台账
type ActivityService struct {
	activityRepo activity.Repository
	slotRepo     timeslot.Repository
	partRepo     participation.Repository
	productRepo  product.Repository
	ledgers      []stock.Ledger
	aggregate    *AggregateService
}

// NewActivityService 创建活动服务。
// ledgers 依次收到库存初始化（通常为 MySQL 权威台账 + Redis 热点台账）。
func NewActivityService(
	activityRepo activity.Repository,
	slotRepo timeslot.Repository,
	partRepo participation.Repository,
	productRepo product.Repository,
	aggregate *AggregateService,
	ledgers ...stock.Ledger,
) *ActivityService {
	return &ActivityService{
		activityRepo: activityRepo,
		slotRepo:     slotRepo,
		partRepo:     partRepo,
		productRepo:  productRepo,
		aggregate:    aggregate,
		ledgers:      ledgers,
	}
}

// ----- 活动 -----

// CreateActivityRequest 创建活动请求
type CreateActivityRequest struct {
	Name     string
	StartDay time.Time
	EndDay   time.Time
	SlotIDs  []int64
}

// CreateActivity 创建秒杀活动
func (s *ActivityService) CreateActivity(ctx context.Context, req *CreateActivityRequest) (*activity.SeckillActivity, error) {
	if req.EndDay.Before(req.StartDay) {
		return nil, ErrInvalidDateRange
	}
	a := &activity.SeckillActivity{
		Name:     req.Name,
		StartDay: req.StartDay,
		EndDay:   req.EndDay,
		Status:   activity.StatusPending,
	}
	a.SetSlotIDList(req.SlotIDs)
	if err := s.activityRepo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateActivity 更新活动基础信息与时段列表
func (s *ActivityService) UpdateActivity(ctx context.Context, id int64, req *CreateActivityRequest) error {
	if req.EndDay.Before(req.StartDay) {
		return ErrInvalidDateRange
	}
	a, err := s.activityRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	a.Name = req.Name
	a.StartDay = req.StartDay
	a.EndDay = req.EndDay
	a.SetSlotIDList(req.SlotIDs)
	a.Status = Classify(a, time.Now())
	return s.activityRepo.Update(ctx, a)
}

// GetActivity 获取活动详情
func (s *ActivityService) GetActivity(ctx context.Context, id int64) (*activity.SeckillActivity, error) {
	return s.activityRepo.GetByID(ctx, id)
}

// ListActivities 列出所有活动，展示状态按当前时间现算
func (s *ActivityService) ListActivities(ctx context.Context) ([]*activity.SeckillActivity, error) {
	list, err := s.activityRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for _, a := range list {
		a.Status = Classify(a, now)
	}
	return list, nil
}

// RefreshActivityStatus 把推导状态刷回存储，供列表页直接读取。
// 存储的状态只是展示缓存，购买判定始终走 Classify。
func (s *ActivityService) RefreshActivityStatus(ctx context.Context) error {
	list, err := s.activityRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, a := range list {
		derived := Classify(a, now)
		if a.Status == derived {
			continue
		}
		a.Status = derived
		if err := s.activityRepo.Update(ctx, a); err != nil {
			// 单个活动失败不影响其他活动
			zap.L().Warn("refresh activity status failed",
				zap.Int64("activity_id", a.ID), zap.Error(err))
			continue
		}
	}
	return nil
}

// ----- 时段 -----

// CreateSlot 创建每日时段
func (s *ActivityService) CreateSlot(ctx context.Context, startHour, endHour int, enabled bool) (*timeslot.SeckillTimeSlot, error) {
	slot := &timeslot.SeckillTimeSlot{
		StartHour: startHour,
		EndHour:   endHour,
		Enabled:   enabled,
	}
	if !slot.Valid() {
		return nil, ErrInvalidSlot
	}
	if err := s.slotRepo.Create(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// UpdateSlot 更新时段
func (s *ActivityService) UpdateSlot(ctx context.Context, id int64, startHour, endHour int, enabled bool) error {
	slot, err := s.slotRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	slot.StartHour = startHour
	slot.EndHour = endHour
	slot.Enabled = enabled
	if !slot.Valid() {
		return ErrInvalidSlot
	}
	return s.slotRepo.Update(ctx, slot)
}

// ListSlots 列出所有时段
func (s *ActivityService) ListSlots(ctx context.Context) ([]*timeslot.SeckillTimeSlot, error) {
	return s.slotRepo.ListAll(ctx)
}

// ----- 商户报名（参与记录）-----

// JoinRequest 商户报名请求，按 SKU 维度配置秒杀价与库存
type JoinRequest struct {
	ActivityID   int64
	MerchantID   int64
	ProductID    int64
	SkuID        int64
	SeckillPrice int64
	SeckillStock int64
	Sort         int
	Visible      bool
}

// Join 商户携 SKU 报名活动：创建参与记录、初始化库存台账、重算计数。
// 秒杀价高于 SKU 日常价的报名在这里拦下，存储层不做这条业务校验。
func (s *ActivityService) Join(ctx context.Context, req *JoinRequest) (*participation.SeckillProduct, error) {
	if _, err := s.activityRepo.GetByID(ctx, req.ActivityID); err != nil {
		return nil, err
	}
	sku, err := s.productRepo.GetSku(ctx, req.SkuID)
	if err != nil {
		return nil, err
	}
	if req.SeckillPrice > sku.Price {
		return nil, ErrPriceTooHigh
	}
	if req.SeckillStock < 0 {
		req.SeckillStock = 0
	}

	p := &participation.SeckillProduct{
		ActivityID:   req.ActivityID,
		MerchantID:   req.MerchantID,
		ProductID:    req.ProductID,
		SkuID:        req.SkuID,
		SeckillPrice: req.SeckillPrice,
		SeckillStock: req.SeckillStock,
		Sort:         req.Sort,
		Visible:      req.Visible,
		State:        participation.StateActive,
	}
	if err := s.partRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	// 台账以配置库存初始化，剩余量从此只走 Reserve/Release 变更
	for _, ledger := range s.ledgers {
		if err := ledger.Init(ctx, req.ActivityID, req.SkuID, req.SeckillStock); err != nil {
			zap.L().Error("init stock ledger failed",
				zap.Int64("activity_id", req.ActivityID),
				zap.Int64("sku_id", req.SkuID),
				zap.Error(err))
			return nil, err
		}
	}

	if err := s.aggregate.Recompute(ctx, req.ActivityID); err != nil {
		return nil, err
	}
	return p, nil
}

// Recycle 把参与记录移入回收站，可恢复。库存台账保持不动，
// 只是前台不可见、不计入活动计数。
func (s *ActivityService) Recycle(ctx context.Context, id int64) error {
	p, err := s.partRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.State == participation.StateRecycled {
		return ErrAlreadyRecycled
	}
	if err := s.partRepo.UpdateState(ctx, id, participation.StateRecycled); err != nil {
		return err
	}
	return s.aggregate.Recompute(ctx, p.ActivityID)
}

// Restore 从回收站恢复参与记录
func (s *ActivityService) Restore(ctx context.Context, id int64) error {
	p, err := s.partRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.State != participation.StateRecycled {
		return ErrNotRecycled
	}
	if err := s.partRepo.UpdateState(ctx, id, participation.StateActive); err != nil {
		return err
	}
	return s.aggregate.Recompute(ctx, p.ActivityID)
}

// Destroy 物理删除回收站中的参与记录
func (s *ActivityService) Destroy(ctx context.Context, id int64) error {
	p, err := s.partRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.State != participation.StateRecycled {
		return ErrNotRecycled
	}
	if err := s.partRepo.Destroy(ctx, id); err != nil {
		return err
	}
	return s.aggregate.Recompute(ctx, p.ActivityID)
}

// ListParticipations 按条件查询参与记录
func (s *ActivityService) ListParticipations(ctx context.Context, f participation.Filter) ([]*participation.SeckillProduct, error) {
	return s.partRepo.List(ctx, f)
}

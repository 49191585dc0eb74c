package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/example/seckill/internal/datamodels/activity"
	"github.com/example/seckill/internal/datamodels/participation"
	"github.com/example/seckill/internal/datamodels/product"
	"github.com/example/seckill/internal/datamodels/timeslot"
)

// ResolvePrice 解析 SKU 的实时成交价：
// 活动可购买且该 SKU 正常参与时取秒杀价，其余一律回落到日常价。
// 必须在构造订单行的时刻调用，不能提前缓存——加购到结算之间窗口可能已关闭。
func ResolvePrice(sku *product.Sku, part *participation.SeckillProduct, a *activity.SeckillActivity, slots []*timeslot.SeckillTimeSlot, now time.Time) int64 {
	if part == nil || part.State != participation.StateActive || !part.Visible {
		return sku.Price
	}
	if a == nil || !IsPurchasable(a, slots, now) {
		return sku.Price
	}
	return part.SeckillPrice
}

// PriceService 价格解析服务
type PriceService struct {
	activityRepo activity.Repository
	slotRepo     timeslot.Repository
	partRepo     participation.Repository
	productRepo  product.Repository
}

// NewPriceService 创建价格解析服务
func NewPriceService(
	activityRepo activity.Repository,
	slotRepo timeslot.Repository,
	partRepo participation.Repository,
	productRepo product.Repository,
) *PriceService {
	return &PriceService{
		activityRepo: activityRepo,
		slotRepo:     slotRepo,
		partRepo:     partRepo,
		productRepo:  productRepo,
	}
}

// Price 查询 SKU 在指定活动下的实时成交价（分）
func (s *PriceService) Price(ctx context.Context, activityID, skuID int64, now time.Time) (int64, error) {
	sku, err := s.productRepo.GetSku(ctx, skuID)
	if err != nil {
		return 0, err
	}

	a, err := s.activityRepo.GetByID(ctx, activityID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// 活动不存在直接按日常价成交
			return sku.Price, nil
		}
		return 0, err
	}

	part, err := s.participationFor(ctx, activityID, skuID)
	if err != nil {
		return 0, err
	}

	slots, err := s.slotRepo.GetByIDs(ctx, a.SlotIDList())
	if err != nil {
		return 0, err
	}

	return ResolvePrice(sku, part, a, slots, now), nil
}

func (s *PriceService) participationFor(ctx context.Context, activityID, skuID int64) (*participation.SeckillProduct, error) {
	list, err := s.partRepo.List(ctx, participation.Filter{
		ActivityID: activityID,
		SkuID:      skuID,
	})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

package activity

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Status 活动状态，由日期范围动态推导，存储值仅作展示缓存
type Status int

const (
	StatusEnded   Status = -1 // 已结束
	StatusPending Status = 0  // 未开始
	StatusActive  Status = 1  // 进行中
)

// SeckillActivity 秒杀活动模型
// 活动按天配置起止日期，具体可购买的小时段由关联的时段列表决定，
// 同一个活动在多天内每天复用相同的时段配置。
type SeckillActivity struct {
	ID            int64     `gorm:"primaryKey"`
	Name          string    `gorm:"size:128;not null"` // 活动名称
	StartDay      time.Time `gorm:"index"`             // 开始日期（按天）
	EndDay        time.Time `gorm:"index"`             // 结束日期（按天，含当天）
	SlotIDs       string    `gorm:"size:255"`          // 时段ID列表，逗号分隔，保持配置顺序
	Status        Status    `gorm:"index;default:0"`   // 展示用状态缓存，权威状态以日期推导为准
	MerchantCount int64     `gorm:"default:0"`         // 参与商户数（冗余计数）
	ProductCount  int64     `gorm:"default:0"`         // 参与商品数（冗余计数）
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SlotIDList 解析时段ID列表，忽略非法片段
func (a *SeckillActivity) SlotIDList() []int64 {
	if a.SlotIDs == "" {
		return nil
	}
	parts := strings.Split(a.SlotIDs, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// SetSlotIDList 按配置顺序序列化时段ID列表
func (a *SeckillActivity) SetSlotIDList(ids []int64) {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	a.SlotIDs = strings.Join(parts, ",")
}

// Repository 秒杀活动仓储接口
type Repository interface {
	Create(ctx context.Context, a *SeckillActivity) error
	GetByID(ctx context.Context, id int64) (*SeckillActivity, error)
	ListAll(ctx context.Context) ([]*SeckillActivity, error)
	Update(ctx context.Context, a *SeckillActivity) error
	Delete(ctx context.Context, id int64) error

	// UpdateCounters 更新冗余计数；活动不存在时返回 gorm.ErrRecordNotFound
	UpdateCounters(ctx context.Context, id int64, merchantCount, productCount int64) error
}

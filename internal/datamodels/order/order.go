package order

import (
	"context"
	"time"
)

// Order 秒杀订单，由 worker 在确认预扣后落库
type Order struct {
	ID          int64  `gorm:"primaryKey"`
	UserID      int64  `gorm:"index;not null"`
	ActivityID  int64  `gorm:"index;not null"`
	ProductID   int64  `gorm:"index;not null"`
	SkuID       int64  `gorm:"index;not null"`
	Quantity    int64  `gorm:"not null"`
	Price       int64  `gorm:"not null"`                 // 成交单价（分），下单时刻解析
	Reservation string `gorm:"uniqueIndex;size:64"`      // 预扣凭证，保证消息重复投递不会重复下单
	Status      int    `gorm:"index;not null;default:0"` // 0:已创建 1:已支付 2:已取消
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Repository 订单仓储接口
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	GetByReservation(ctx context.Context, token string) (*Order, error)
	ListByUser(ctx context.Context, userID int64) ([]*Order, error)
	ListRecent(ctx context.Context, limit int) ([]*Order, error)
}

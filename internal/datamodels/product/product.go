package product

import (
	"context"
	"time"
)

// Product 商品主体，价格与库存落在 SKU 上
type Product struct {
	ID         int64  `gorm:"primaryKey"`
	MerchantID int64  `gorm:"index;not null"`
	Name       string `gorm:"size:128;not null"`
	Status     int    `gorm:"index;default:1"` // 0:下线 1:正常
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Sku 商品的属性组合规格，Price 为日常价（分）
type Sku struct {
	ID        int64  `gorm:"primaryKey"`
	ProductID int64  `gorm:"index;not null"`
	Spec      string `gorm:"size:255"` // 属性组合描述，如 "红色;XL"
	Price     int64  `gorm:"not null"` // 日常价，单位分
	Stock     int64  `gorm:"not null"` // 日常库存，与秒杀库存相互独立
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository 商品仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	ListByMerchant(ctx context.Context, merchantID int64) ([]*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error

	GetSku(ctx context.Context, skuID int64) (*Sku, error)
	ListSkus(ctx context.Context, productID int64) ([]*Sku, error)
	CreateSku(ctx context.Context, s *Sku) error
}

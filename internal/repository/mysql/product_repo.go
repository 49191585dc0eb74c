package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/seckill/internal/datamodels/product"
)

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) product.Repository {
	return &productRepo{db: db}
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	var p product.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) ListByMerchant(ctx context.Context, merchantID int64) ([]*product.Product, error) {
	var list []*product.Product
	if err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND status = ?", merchantID, 1).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) Create(ctx context.Context, p *product.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) Update(ctx context.Context, p *product.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepo) GetSku(ctx context.Context, skuID int64) (*product.Sku, error) {
	var s product.Sku
	if err := r.db.WithContext(ctx).First(&s, skuID).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *productRepo) ListSkus(ctx context.Context, productID int64) ([]*product.Sku, error) {
	var list []*product.Sku
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) CreateSku(ctx context.Context, s *product.Sku) error {
	return r.db.WithContext(ctx).Create(s).Error
}

package participation

import (
	"context"
	"time"
)

// State 参与记录状态，显式建模回收站流转：
// 正常参与 -> 回收（可恢复）-> 销毁（物理删除）
type State int

const (
	StateActive   State = 0 // 正常参与
	StateRecycled State = 1 // 已回收，等待恢复或销毁
)

// SeckillProduct 商品在某个活动中的参与记录（按 SKU 维度）
type SeckillProduct struct {
	ID           int64 `gorm:"primaryKey"`
	ActivityID   int64 `gorm:"index:idx_activity_sku;not null"` // 活动ID
	MerchantID   int64 `gorm:"index;not null"`                  // 商户ID
	ProductID    int64 `gorm:"index;not null"`                  // 商品ID
	SkuID        int64 `gorm:"index:idx_activity_sku;not null"` // SKU ID
	SeckillPrice int64 `gorm:"not null"`                        // 秒杀价，单位分，必须 <= SKU 原价
	SeckillStock int64 `gorm:"not null"`                        // 配置的秒杀库存上限
	Sort         int   `gorm:"default:0"`                       // 展示排序
	Visible      bool  `gorm:"default:true"`                    // 前台是否展示
	State        State `gorm:"index;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Filter 参与记录查询条件，零值字段不参与过滤
type Filter struct {
	ActivityID int64
	MerchantID int64
	ProductID  int64
	SkuID      int64
	State      *State
	Visible    *bool
	Keyword    string // 按商品名称模糊匹配
}

// Clauses 把过滤条件翻译为 WHERE 子句和参数，零值字段跳过。
// 单独拆出来是为了让条件拼接逻辑可以脱离数据库直接测试。
func (f Filter) Clauses() (string, []any) {
	conds := make([]string, 0, 7)
	args := make([]any, 0, 7)
	if f.ActivityID > 0 {
		conds = append(conds, "activity_id = ?")
		args = append(args, f.ActivityID)
	}
	if f.MerchantID > 0 {
		conds = append(conds, "merchant_id = ?")
		args = append(args, f.MerchantID)
	}
	if f.ProductID > 0 {
		conds = append(conds, "product_id = ?")
		args = append(args, f.ProductID)
	}
	if f.SkuID > 0 {
		conds = append(conds, "sku_id = ?")
		args = append(args, f.SkuID)
	}
	if f.State != nil {
		conds = append(conds, "state = ?")
		args = append(args, *f.State)
	}
	if f.Visible != nil {
		conds = append(conds, "visible = ?")
		args = append(args, *f.Visible)
	}
	if f.Keyword != "" {
		conds = append(conds, "product_id IN (SELECT id FROM products WHERE name LIKE ?)")
		args = append(args, "%"+f.Keyword+"%")
	}
	if len(conds) == 0 {
		return "", nil
	}
	query := conds[0]
	for _, c := range conds[1:] {
		query += " AND " + c
	}
	return query, args
}

// Repository 参与记录仓储接口
type Repository interface {
	Create(ctx context.Context, p *SeckillProduct) error
	GetByID(ctx context.Context, id int64) (*SeckillProduct, error)
	List(ctx context.Context, f Filter) ([]*SeckillProduct, error)
	Update(ctx context.Context, p *SeckillProduct) error

	// UpdateState 回收/恢复状态流转
	UpdateState(ctx context.Context, id int64, state State) error
	// Destroy 物理删除，仅允许处于回收状态的记录
	Destroy(ctx context.Context, id int64) error

	// CountByActivity 统计某活动的正常参与商品数与去重商户数
	CountByActivity(ctx context.Context, activityID int64) (productCount, merchantCount int64, err error)
}

package service

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/example/seckill/internal/datamodels/activity"
	"github.com/example/seckill/internal/datamodels/participation"
	"github.com/example/seckill/internal/datamodels/product"
	"github.com/example/seckill/internal/datamodels/timeslot"
)

// ----- 内存版仓储，供服务层测试使用 -----

type fakeActivityRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*activity.SeckillActivity
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{items: make(map[int64]*activity.SeckillActivity)}
}

func (r *fakeActivityRepo) Create(ctx context.Context, a *activity.SeckillActivity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	a.ID = r.nextID
	cp := *a
	r.items[a.ID] = &cp
	return nil
}

func (r *fakeActivityRepo) GetByID(ctx context.Context, id int64) (*activity.SeckillActivity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeActivityRepo) ListAll(ctx context.Context) ([]*activity.SeckillActivity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]*activity.SeckillActivity, 0, len(r.items))
	for _, a := range r.items {
		cp := *a
		list = append(list, &cp)
	}
	return list, nil
}

func (r *fakeActivityRepo) Update(ctx context.Context, a *activity.SeckillActivity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[a.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *a
	r.items[a.ID] = &cp
	return nil
}

func (r *fakeActivityRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *fakeActivityRepo) UpdateCounters(ctx context.Context, id int64, merchantCount, productCount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.MerchantCount = merchantCount
	a.ProductCount = productCount
	return nil
}

type fakeSlotRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*timeslot.SeckillTimeSlot
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{items: make(map[int64]*timeslot.SeckillTimeSlot)}
}

func (r *fakeSlotRepo) Create(ctx context.Context, s *timeslot.SeckillTimeSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	s.ID = r.nextID
	cp := *s
	r.items[s.ID] = &cp
	return nil
}

func (r *fakeSlotRepo) GetByID(ctx context.Context, id int64) (*timeslot.SeckillTimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSlotRepo) GetByIDs(ctx context.Context, ids []int64) ([]*timeslot.SeckillTimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]*timeslot.SeckillTimeSlot, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.items[id]; ok {
			cp := *s
			list = append(list, &cp)
		}
	}
	return list, nil
}

func (r *fakeSlotRepo) ListAll(ctx context.Context) ([]*timeslot.SeckillTimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]*timeslot.SeckillTimeSlot, 0, len(r.items))
	for _, s := range r.items {
		cp := *s
		list = append(list, &cp)
	}
	return list, nil
}

func (r *fakeSlotRepo) Update(ctx context.Context, s *timeslot.SeckillTimeSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.items[s.ID] = &cp
	return nil
}

func (r *fakeSlotRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

type fakePartRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*participation.SeckillProduct
}

func newFakePartRepo() *fakePartRepo {
	return &fakePartRepo{items: make(map[int64]*participation.SeckillProduct)}
}

func (r *fakePartRepo) Create(ctx context.Context, p *participation.SeckillProduct) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	cp := *p
	r.items[p.ID] = &cp
	return nil
}

func (r *fakePartRepo) GetByID(ctx context.Context, id int64) (*participation.SeckillProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePartRepo) List(ctx context.Context, f participation.Filter) ([]*participation.SeckillProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]*participation.SeckillProduct, 0)
	for _, p := range r.items {
		if f.ActivityID > 0 && p.ActivityID != f.ActivityID {
			continue
		}
		if f.MerchantID > 0 && p.MerchantID != f.MerchantID {
			continue
		}
		if f.ProductID > 0 && p.ProductID != f.ProductID {
			continue
		}
		if f.SkuID > 0 && p.SkuID != f.SkuID {
			continue
		}
		if f.State != nil && p.State != *f.State {
			continue
		}
		if f.Visible != nil && p.Visible != *f.Visible {
			continue
		}
		cp := *p
		list = append(list, &cp)
	}
	return list, nil
}

func (r *fakePartRepo) Update(ctx context.Context, p *participation.SeckillProduct) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.items[p.ID] = &cp
	return nil
}

func (r *fakePartRepo) UpdateState(ctx context.Context, id int64, state participation.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.State = state
	return nil
}

func (r *fakePartRepo) Destroy(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok || p.State != participation.StateRecycled {
		return gorm.ErrRecordNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakePartRepo) CountByActivity(ctx context.Context, activityID int64) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var productCount int64
	merchants := make(map[int64]struct{})
	for _, p := range r.items {
		if p.ActivityID != activityID || p.State != participation.StateActive {
			continue
		}
		productCount++
		merchants[p.MerchantID] = struct{}{}
	}
	return productCount, int64(len(merchants)), nil
}

type fakeProductRepo struct {
	mu   sync.Mutex
	skus map[int64]*product.Sku
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{skus: make(map[int64]*product.Sku)}
}

func (r *fakeProductRepo) addSku(s *product.Sku) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skus[s.ID] = s
}

func (r *fakeProductRepo) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProductRepo) ListByMerchant(ctx context.Context, merchantID int64) ([]*product.Product, error) {
	return nil, nil
}

func (r *fakeProductRepo) Create(ctx context.Context, p *product.Product) error { return nil }
func (r *fakeProductRepo) Update(ctx context.Context, p *product.Product) error { return nil }

func (r *fakeProductRepo) GetSku(ctx context.Context, skuID int64) (*product.Sku, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.skus[skuID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeProductRepo) ListSkus(ctx context.Context, productID int64) ([]*product.Sku, error) {
	return nil, nil
}

func (r *fakeProductRepo) CreateSku(ctx context.Context, s *product.Sku) error { return nil }

type fakeLedger struct {
	mu        sync.Mutex
	remaining map[[2]int64]int64
	initCalls int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{remaining: make(map[[2]int64]int64)}
}

func (l *fakeLedger) Init(ctx context.Context, activityID, skuID, configured int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.initCalls++
	l.remaining[[2]int64{activityID, skuID}] = configured
	return nil
}

func (l *fakeLedger) Reserve(ctx context.Context, activityID, skuID, qty int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.remaining[[2]int64{activityID, skuID}] -= qty
	return nil
}

func (l *fakeLedger) Release(ctx context.Context, activityID, skuID, qty int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.remaining[[2]int64{activityID, skuID}] += qty
	return nil
}

func (l *fakeLedger) Snapshot(ctx context.Context, activityID, skuID int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remaining[[2]int64{activityID, skuID}], nil
}

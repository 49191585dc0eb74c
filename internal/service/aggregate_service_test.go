package service

import (
	"context"
	"testing"

	"github.com/example/seckill/internal/datamodels/activity"
	"github.com/example/seckill/internal/datamodels/participation"
	"github.com/example/seckill/internal/datamodels/product"
)

func newTestActivity(t *testing.T, repo *fakeActivityRepo) *activity.SeckillActivity {
	t.Helper()
	a := &activity.SeckillActivity{
		Name:     "618大促",
		StartDay: day(2025, 6, 18),
		EndDay:   day(2025, 6, 20),
	}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("create activity: %v", err)
	}
	return a
}

func TestRecomputeCounts(t *testing.T) {
	ctx := context.Background()
	activityRepo := newFakeActivityRepo()
	partRepo := newFakePartRepo()
	svc := NewAggregateService(activityRepo, partRepo)

	a := newTestActivity(t, activityRepo)

	// 两个商户，三条参与记录，其中一条回收
	rows := []*participation.SeckillProduct{
		{ActivityID: a.ID, MerchantID: 1, SkuID: 11, State: participation.StateActive},
		{ActivityID: a.ID, MerchantID: 1, SkuID: 12, State: participation.StateActive},
		{ActivityID: a.ID, MerchantID: 2, SkuID: 21, State: participation.StateRecycled},
	}
	for _, p := range rows {
		if err := partRepo.Create(ctx, p); err != nil {
			t.Fatalf("create participation: %v", err)
		}
	}

	if err := svc.Recompute(ctx, a.ID); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	got, err := activityRepo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("get activity: %v", err)
	}
	if got.ProductCount != 2 {
		t.Errorf("product_count = %d, want 2", got.ProductCount)
	}
	if got.MerchantCount != 1 {
		t.Errorf("merchant_count = %d, want 1", got.MerchantCount)
	}
}

func TestRecomputeIdempotent(t *testing.T) {
	ctx := context.Background()
	activityRepo := newFakeActivityRepo()
	partRepo := newFakePartRepo()
	svc := NewAggregateService(activityRepo, partRepo)

	a := newTestActivity(t, activityRepo)
	_ = partRepo.Create(ctx, &participation.SeckillProduct{
		ActivityID: a.ID, MerchantID: 5, SkuID: 51, State: participation.StateActive,
	})

	if err := svc.Recompute(ctx, a.ID); err != nil {
		t.Fatalf("first recompute: %v", err)
	}
	first, _ := activityRepo.GetByID(ctx, a.ID)

	// 无任何成员变更，重复重算结果必须一致
	if err := svc.Recompute(ctx, a.ID); err != nil {
		t.Fatalf("second recompute: %v", err)
	}
	second, _ := activityRepo.GetByID(ctx, a.ID)

	if first.ProductCount != second.ProductCount || first.MerchantCount != second.MerchantCount {
		t.Fatalf("recompute not idempotent: (%d,%d) != (%d,%d)",
			first.ProductCount, first.MerchantCount, second.ProductCount, second.MerchantCount)
	}
}

func TestRecomputeMissingActivityIsNoop(t *testing.T) {
	svc := NewAggregateService(newFakeActivityRepo(), newFakePartRepo())
	// 活动不存在不是错误：清理动作不要求活动还活着
	if err := svc.Recompute(context.Background(), 404); err != nil {
		t.Fatalf("recompute on missing activity: %v", err)
	}
}

func TestRecycleRestoreLifecycle(t *testing.T) {
	ctx := context.Background()
	activityRepo := newFakeActivityRepo()
	slotRepo := newFakeSlotRepo()
	partRepo := newFakePartRepo()
	productRepo := newFakeProductRepo()
	ledger := newFakeLedger()
	aggregate := NewAggregateService(activityRepo, partRepo)
	svc := NewActivityService(activityRepo, slotRepo, partRepo, productRepo, aggregate, ledger)

	a := newTestActivity(t, activityRepo)
	productRepo.addSku(&product.Sku{ID: 7, Price: 9900})

	p, err := svc.Join(ctx, &JoinRequest{
		ActivityID:   a.ID,
		MerchantID:   3,
		ProductID:    1,
		SkuID:        7,
		SeckillPrice: 4900,
		SeckillStock: 10,
		Visible:      true,
	})
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	got, _ := activityRepo.GetByID(ctx, a.ID)
	if got.ProductCount != 1 || got.MerchantCount != 1 {
		t.Fatalf("after join counts = (%d,%d), want (1,1)", got.ProductCount, got.MerchantCount)
	}
	if left, _ := ledger.Snapshot(ctx, a.ID, 7); left != 10 {
		t.Fatalf("ledger seeded with %d, want 10", left)
	}

	// 回收：计数下降，台账保持不动
	if err := svc.Recycle(ctx, p.ID); err != nil {
		t.Fatalf("recycle: %v", err)
	}
	got, _ = activityRepo.GetByID(ctx, a.ID)
	if got.ProductCount != 0 || got.MerchantCount != 0 {
		t.Fatalf("after recycle counts = (%d,%d), want (0,0)", got.ProductCount, got.MerchantCount)
	}
	if left, _ := ledger.Snapshot(ctx, a.ID, 7); left != 10 {
		t.Fatalf("recycle must not touch ledger, remaining = %d", left)
	}

	// 重复回收报错
	if err := svc.Recycle(ctx, p.ID); err != ErrAlreadyRecycled {
		t.Fatalf("double recycle err = %v, want ErrAlreadyRecycled", err)
	}

	// 恢复：计数回来，台账仍然不动
	if err := svc.Restore(ctx, p.ID); err != nil {
		t.Fatalf("restore: %v", err)
	}
	got, _ = activityRepo.GetByID(ctx, a.ID)
	if got.ProductCount != 1 || got.MerchantCount != 1 {
		t.Fatalf("after restore counts = (%d,%d), want (1,1)", got.ProductCount, got.MerchantCount)
	}
	if left, _ := ledger.Snapshot(ctx, a.ID, 7); left != 10 {
		t.Fatalf("restore must not touch ledger, remaining = %d", left)
	}
	if ledger.initCalls != 1 {
		t.Fatalf("ledger re-seeded %d times, want exactly 1 init", ledger.initCalls)
	}

	// 正常状态不能直接销毁
	if err := svc.Destroy(ctx, p.ID); err != ErrNotRecycled {
		t.Fatalf("destroy active err = %v, want ErrNotRecycled", err)
	}

	// 回收后销毁
	if err := svc.Recycle(ctx, p.ID); err != nil {
		t.Fatalf("recycle before destroy: %v", err)
	}
	if err := svc.Destroy(ctx, p.ID); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	got, _ = activityRepo.GetByID(ctx, a.ID)
	if got.ProductCount != 0 {
		t.Fatalf("after destroy product_count = %d, want 0", got.ProductCount)
	}
}

func TestJoinRejectsPriceAboveRegular(t *testing.T) {
	ctx := context.Background()
	activityRepo := newFakeActivityRepo()
	partRepo := newFakePartRepo()
	productRepo := newFakeProductRepo()
	aggregate := NewAggregateService(activityRepo, partRepo)
	svc := NewActivityService(activityRepo, newFakeSlotRepo(), partRepo, productRepo, aggregate, newFakeLedger())

	a := newTestActivity(t, activityRepo)
	productRepo.addSku(&product.Sku{ID: 7, Price: 100})

	_, err := svc.Join(ctx, &JoinRequest{
		ActivityID:   a.ID,
		MerchantID:   3,
		SkuID:        7,
		SeckillPrice: 200,
		SeckillStock: 5,
	})
	if err != ErrPriceTooHigh {
		t.Fatalf("join err = %v, want ErrPriceTooHigh", err)
	}
}

func TestCreateActivityValidation(t *testing.T) {
	ctx := context.Background()
	activityRepo := newFakeActivityRepo()
	partRepo := newFakePartRepo()
	aggregate := NewAggregateService(activityRepo, partRepo)
	svc := NewActivityService(activityRepo, newFakeSlotRepo(), partRepo, newFakeProductRepo(), aggregate, newFakeLedger())

	_, err := svc.CreateActivity(ctx, &CreateActivityRequest{
		Name:     "倒置日期",
		StartDay: day(2025, 6, 20),
		EndDay:   day(2025, 6, 10),
	})
	if err != ErrInvalidDateRange {
		t.Fatalf("create err = %v, want ErrInvalidDateRange", err)
	}

	if _, err := svc.CreateSlot(ctx, 12, 10, true); err != ErrInvalidSlot {
		t.Fatalf("slot err = %v, want ErrInvalidSlot", err)
	}
	if _, err := svc.CreateSlot(ctx, -1, 10, true); err != ErrInvalidSlot {
		t.Fatalf("slot err = %v, want ErrInvalidSlot", err)
	}
	slot, err := svc.CreateSlot(ctx, 10, 12, true)
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}
	if !slot.Contains(10) || slot.Contains(12) {
		t.Fatal("slot interval must be half-open")
	}
}

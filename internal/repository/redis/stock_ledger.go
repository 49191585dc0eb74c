package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	radix "github.com/mediocregopher/radix/v3"

	"github.com/example/seckill/internal/datamodels/stock"
)

const (
	stockKeyFmt    = "seckill:stock:%d:%d"     // activityID, skuID
	stockCapKeyFmt = "seckill:stock:cap:%d:%d" // activityID, skuID
	releasedKeyFmt = "seckill:released:%s"     // reservation token

	defaultReleaseMarkTTL = 86400
)

// releaseScript 原子回补：加回数量后封顶到初始划拨值。
// 封顶判断和写回在同一脚本内执行，避免与并发扣减交错。
var releaseScript = radix.NewEvalScript(2, `
local v = redis.call('INCRBY', KEYS[1], ARGV[1])
local cap = tonumber(redis.call('GET', KEYS[2]))
if cap and v > cap then
	redis.call('SET', KEYS[1], cap)
	v = cap
end
return v
`)

// Ledger Redis 库存台账，承接秒杀下单的热点扣减。
// MySQL 台账是权威存储，本实现只负责抗住入口并发，由 worker 异步确认。
type Ledger struct {
	client  radix.Client
	checker stock.PurchasableChecker

	// ReleaseMarkTTL 回补幂等标记的过期秒数
	ReleaseMarkTTL int
}

// NewLedger 创建 Redis 库存台账
func NewLedger(client radix.Client, checker stock.PurchasableChecker) *Ledger {
	return &Ledger{
		client:         client,
		checker:        checker,
		ReleaseMarkTTL: defaultReleaseMarkTTL,
	}
}

func stockKey(activityID, skuID int64) string {
	return fmt.Sprintf(stockKeyFmt, activityID, skuID)
}

func stockCapKey(activityID, skuID int64) string {
	return fmt.Sprintf(stockCapKeyFmt, activityID, skuID)
}

func (l *Ledger) Init(ctx context.Context, activityID, skuID, configured int64) error {
	if err := l.client.Do(radix.FlatCmd(nil, "SET", stockCapKey(activityID, skuID), configured)); err != nil {
		return err
	}
	return l.client.Do(radix.FlatCmd(nil, "SET", stockKey(activityID, skuID), configured))
}

func (l *Ledger) Reserve(ctx context.Context, activityID, skuID, qty int64) error {
	if qty <= 0 {
		return errors.New("数量必须大于0")
	}
	if l.checker != nil {
		ok, err := l.checker.IsPurchasable(ctx, activityID, time.Now())
		if err != nil {
			return err
		}
		if !ok {
			return stock.ErrActivityClosed
		}
	}

	key := stockKey(activityID, skuID)
	var exists int
	if err := l.client.Do(radix.Cmd(&exists, "EXISTS", key)); err != nil {
		return err
	}
	if exists == 0 {
		return stock.ErrActivityNotFound
	}

	// 预扣：先减后看，减成负数说明抢超了，把本次扣的如数加回
	var left int64
	if err := l.client.Do(radix.FlatCmd(&left, "DECRBY", key, qty)); err != nil {
		return err
	}
	if left < 0 {
		if err := l.client.Do(radix.FlatCmd(nil, "INCRBY", key, qty)); err != nil {
			return err
		}
		return stock.ErrInsufficientStock
	}
	return nil
}

func (l *Ledger) Release(ctx context.Context, activityID, skuID, qty int64) error {
	if qty <= 0 {
		return errors.New("数量必须大于0")
	}
	return l.client.Do(releaseScript.FlatCmd(nil, []string{
		stockKey(activityID, skuID),
		stockCapKey(activityID, skuID),
	}, qty))
}

// ReleaseOnce 按预扣凭证幂等回补：同一凭证只生效一次，
// 重试的消费端重复投递回补信号不会重复加库存。
func (l *Ledger) ReleaseOnce(ctx context.Context, token string, activityID, skuID, qty int64) error {
	ttl := l.ReleaseMarkTTL
	if ttl <= 0 {
		ttl = defaultReleaseMarkTTL
	}
	var marked int
	err := l.client.Do(radix.FlatCmd(&marked, "SETNX", fmt.Sprintf(releasedKeyFmt, token), 1))
	if err != nil {
		return err
	}
	if marked == 0 {
		// 该凭证已经回补过
		return nil
	}
	_ = l.client.Do(radix.FlatCmd(nil, "EXPIRE", fmt.Sprintf(releasedKeyFmt, token), ttl))
	return l.Release(ctx, activityID, skuID, qty)
}

func (l *Ledger) Snapshot(ctx context.Context, activityID, skuID int64) (int64, error) {
	key := stockKey(activityID, skuID)
	var exists int
	if err := l.client.Do(radix.Cmd(&exists, "EXISTS", key)); err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, stock.ErrActivityNotFound
	}
	var left int64
	if err := l.client.Do(radix.Cmd(&left, "GET", key)); err != nil {
		return 0, err
	}
	return left, nil
}

// Zero 活动结束后永久清零，不再接受任何预扣
func (l *Ledger) Zero(ctx context.Context, activityID, skuID int64) error {
	return l.client.Do(radix.FlatCmd(nil, "SET", stockKey(activityID, skuID), 0))
}

var _ stock.Ledger = (*Ledger)(nil)

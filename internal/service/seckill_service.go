package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	radix "github.com/mediocregopher/radix/v3"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/example/seckill/internal/config"
	"github.com/example/seckill/internal/datamodels/stock"
	"github.com/example/seckill/internal/infra/mq"
	redisrepo "github.com/example/seckill/internal/repository/redis"
)

const (
	redisLimitKeyFmt = "seckill:limit:%d:%d:%d" // userID, activityID, skuID，每个活动单独计数
)

// ReserveMessage 预扣确认消息，worker 据此在权威存储中落单
type ReserveMessage struct {
	Reservation string `json:"reservation"`
	UserID      int64  `json:"user_id"`
	ActivityID  int64  `json:"activity_id"`
	ProductID   int64  `json:"product_id"`
	SkuID       int64  `json:"sku_id"`
	Quantity    int64  `json:"quantity"`
	Price       int64  `json:"price"`
}

// PurchaseResult 下单入口的受理结果
type PurchaseResult struct {
	Reservation string
	Price       int64
}

// SeckillService 秒杀下单编排：
// 窗口校验 -> 每人限购 -> 价格解析 -> Redis 预扣 -> 投递 MQ。
// 预扣成功即受理，真正的订单由 worker 在权威台账确认后创建。
type SeckillService struct {
	window  *WindowService
	price   *PriceService
	ledger  *redisrepo.Ledger
	redis   radix.Client
	mqConn  *amqp.Connection
	seckill *config.SeckillConfig
}

// NewSeckillService 创建秒杀下单服务
func NewSeckillService(
	window *WindowService,
	price *PriceService,
	ledger *redisrepo.Ledger,
	redis radix.Client,
	mqConn *amqp.Connection,
	seckill *config.SeckillConfig,
) *SeckillService {
	return &SeckillService{
		window:  window,
		price:   price,
		ledger:  ledger,
		redis:   redis,
		mqConn:  mqConn,
		seckill: seckill,
	}
}

// Purchase 发起秒杀购买
func (s *SeckillService) Purchase(ctx context.Context, userID, activityID, productID, skuID, qty int64) (*PurchaseResult, error) {
	GetMonitor().RecordSeckillRequest()
	if qty <= 0 {
		qty = 1
	}

	now := time.Now()

	// 0. 窗口校验：活动按日期进行中且当前小时命中时段
	ok, err := s.window.IsPurchasable(ctx, activityID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		GetMonitor().RecordSeckillError()
		return nil, stock.ErrActivityClosed
	}

	// 1. 每人限购：Redis 原子计数，超限回滚计数
	if err := s.checkUserLimit(userID, activityID, skuID, qty); err != nil {
		GetMonitor().RecordSeckillError()
		return nil, err
	}

	// 2. 价格解析：必须在此刻现算，不能沿用加购时的缓存价
	price, err := s.price.Price(ctx, activityID, skuID, now)
	if err != nil {
		s.rollbackUserLimit(userID, activityID, skuID, qty)
		return nil, err
	}

	// 3. 预扣库存：唯一的库存扣减入口
	if err := s.ledger.Reserve(ctx, activityID, skuID, qty); err != nil {
		s.rollbackUserLimit(userID, activityID, skuID, qty)
		if err == stock.ErrInsufficientStock || err == stock.ErrActivityClosed {
			GetMonitor().RecordSeckillError()
		} else {
			GetMonitor().RecordRedisError()
		}
		return nil, err
	}

	// 4. 投递确认消息，失败则如数回补预扣
	token := uuid.NewString()
	msg := &ReserveMessage{
		Reservation: token,
		UserID:      userID,
		ActivityID:  activityID,
		ProductID:   productID,
		SkuID:       skuID,
		Quantity:    qty,
		Price:       price,
	}
	if err := s.publish(ctx, msg); err != nil {
		GetMonitor().RecordMQError()
		if rbErr := s.ledger.Release(ctx, activityID, skuID, qty); rbErr != nil {
			zap.L().Error("rollback reserve failed",
				zap.String("reservation", token), zap.Error(rbErr))
		}
		s.rollbackUserLimit(userID, activityID, skuID, qty)
		return nil, err
	}

	GetMonitor().RecordSeckillSuccess()
	return &PurchaseResult{Reservation: token, Price: price}, nil
}

// Abandon 放弃一笔未确认的预扣（订单超时等），按凭证幂等回补
func (s *SeckillService) Abandon(ctx context.Context, token string, activityID, skuID, qty int64) error {
	return s.ledger.ReleaseOnce(ctx, token, activityID, skuID, qty)
}

func (s *SeckillService) limit() int64 {
	if s.seckill != nil && s.seckill.DefaultLimitPerUser > 0 {
		return s.seckill.DefaultLimitPerUser
	}
	return 1
}

func (s *SeckillService) limitTTL() int {
	if s.seckill != nil && s.seckill.LimitKeyTTLSeconds > 0 {
		return s.seckill.LimitKeyTTLSeconds
	}
	return 86400
}

func (s *SeckillService) checkUserLimit(userID, activityID, skuID, qty int64) error {
	key := fmt.Sprintf(redisLimitKeyFmt, userID, activityID, skuID)
	var used int64
	if err := s.redis.Do(radix.FlatCmd(&used, "INCRBY", key, qty)); err != nil {
		GetMonitor().RecordRedisError()
		return err
	}
	if used == qty {
		// 首次计数时设置过期，避免长期占用
		_ = s.redis.Do(radix.FlatCmd(nil, "EXPIRE", key, s.limitTTL()))
	}
	if used > s.limit() {
		s.rollbackUserLimit(userID, activityID, skuID, qty)
		return fmt.Errorf("超过每人限购数量，无法继续秒杀")
	}
	return nil
}

func (s *SeckillService) rollbackUserLimit(userID, activityID, skuID, qty int64) {
	key := fmt.Sprintf(redisLimitKeyFmt, userID, activityID, skuID)
	_ = s.redis.Do(radix.FlatCmd(nil, "DECRBY", key, qty))
}

func (s *SeckillService) publish(ctx context.Context, msg *ReserveMessage) error {
	ch, err := s.mqConn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(mq.ReserveQueue, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(
		ctx,
		"",
		mq.ReserveQueue,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

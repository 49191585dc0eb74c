package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/seckill/internal/config"
	"github.com/example/seckill/internal/datamodels/order"
	"github.com/example/seckill/internal/datamodels/stock"
	"github.com/example/seckill/internal/infra/mq"
	infraredis "github.com/example/seckill/internal/infra/redis"
	"github.com/example/seckill/internal/logger"
	"github.com/example/seckill/internal/repository/mysql"
	redisrepo "github.com/example/seckill/internal/repository/redis"
	"github.com/example/seckill/internal/service"
)

// worker 消费预扣确认消息：在权威台账上落实扣减并创建订单。
// 权威扣减失败时把 Redis 预扣按凭证幂等回补，消息重复投递不会重复下单。
func main() {
	cfg, err := config.Load("./config")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger.Init(false)

	db := mysql.Init(&cfg.MySQL)
	mqConn := mq.Init(&cfg.RabbitMQ)
	redisClient := infraredis.Init(&cfg.Redis)

	orderRepo := mysql.NewOrderRepository(db)
	// 窗口已在下单入口校验过，确认阶段不再拦截
	mysqlLedger := mysql.NewStockLedger(db, nil)
	redisLedger := redisrepo.NewLedger(redisClient, nil)
	redisLedger.ReleaseMarkTTL = cfg.Seckill.ReleaseMarkTTLSeconds

	ch, err := mqConn.Channel()
	if err != nil {
		log.Fatalf("failed to open channel: %v", err)
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(mq.ReserveQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("failed to declare queue: %v", err)
	}

	// 手动确认模式
	msgs, err := ch.Consume(mq.ReserveQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("failed to consume: %v", err)
	}

	zap.L().Info("seckill worker started, waiting for messages")

	for d := range msgs {
		var m service.ReserveMessage
		if err := json.Unmarshal(d.Body, &m); err != nil {
			zap.L().Warn("invalid message", zap.Error(err))
			// 消息格式错误，拒绝并丢弃
			_ = d.Nack(false, false)
			continue
		}
		handleMessage(context.Background(), orderRepo, mysqlLedger, redisLedger, &m, d)
	}
}

func handleMessage(
	ctx context.Context,
	orderRepo order.Repository,
	mysqlLedger stock.Ledger,
	redisLedger *redisrepo.Ledger,
	m *service.ReserveMessage,
	d amqp.Delivery,
) {
	// 幂等：同一预扣凭证只允许生成一笔订单
	if existing, err := orderRepo.GetByReservation(ctx, m.Reservation); err == nil && existing != nil {
		zap.L().Info("duplicate reservation, order exists",
			zap.String("reservation", m.Reservation),
			zap.Int64("order_id", existing.ID))
		_ = d.Ack(false)
		return
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		service.GetMonitor().RecordDBError()
		_ = d.Nack(false, true)
		return
	}

	// 权威台账确认扣减
	if err := mysqlLedger.Reserve(ctx, m.ActivityID, m.SkuID, m.Quantity); err != nil {
		if errors.Is(err, stock.ErrInsufficientStock) || errors.Is(err, stock.ErrActivityNotFound) {
			// 权威库存兜不住这笔预扣，按凭证回补 Redis 并丢弃消息
			zap.L().Warn("authoritative reserve rejected",
				zap.String("reservation", m.Reservation), zap.Error(err))
			if rbErr := redisLedger.ReleaseOnce(ctx, m.Reservation, m.ActivityID, m.SkuID, m.Quantity); rbErr != nil {
				zap.L().Error("release reserved stock failed",
					zap.String("reservation", m.Reservation), zap.Error(rbErr))
			}
			service.GetMonitor().RecordWorkerFailed()
			_ = d.Nack(false, false)
			return
		}
		service.GetMonitor().RecordDBError()
		_ = d.Nack(false, true)
		return
	}

	o := &order.Order{
		UserID:      m.UserID,
		ActivityID:  m.ActivityID,
		ProductID:   m.ProductID,
		SkuID:       m.SkuID,
		Quantity:    m.Quantity,
		Price:       m.Price,
		Reservation: m.Reservation,
	}
	if err := orderRepo.Create(ctx, o); err != nil {
		// 落单失败回滚权威扣减，Redis 预扣按凭证回补
		zap.L().Error("create order failed",
			zap.String("reservation", m.Reservation), zap.Error(err))
		if rbErr := mysqlLedger.Release(ctx, m.ActivityID, m.SkuID, m.Quantity); rbErr != nil {
			zap.L().Error("rollback authoritative reserve failed",
				zap.String("reservation", m.Reservation), zap.Error(rbErr))
		}
		if rbErr := redisLedger.ReleaseOnce(ctx, m.Reservation, m.ActivityID, m.SkuID, m.Quantity); rbErr != nil {
			zap.L().Error("release reserved stock failed",
				zap.String("reservation", m.Reservation), zap.Error(rbErr))
		}
		service.GetMonitor().RecordWorkerFailed()
		_ = d.Nack(false, false)
		return
	}

	zap.L().Info("order confirmed",
		zap.Int64("order_id", o.ID),
		zap.Int64("user_id", m.UserID),
		zap.Int64("activity_id", m.ActivityID),
		zap.Int64("sku_id", m.SkuID))
	service.GetMonitor().RecordWorkerConfirmed()

	if err := d.Ack(false); err != nil {
		zap.L().Warn("failed to ack message", zap.Error(err))
	}
}

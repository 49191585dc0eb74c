package server

import (
	"errors"
	"time"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"

	"github.com/example/seckill/internal/auth"
	"github.com/example/seckill/internal/config"
	"github.com/example/seckill/internal/datamodels/stock"
	"github.com/example/seckill/internal/infra/mq"
	"github.com/example/seckill/internal/infra/redis"
	"github.com/example/seckill/internal/middleware"
	"github.com/example/seckill/internal/repository/mysql"
	redisrepo "github.com/example/seckill/internal/repository/redis"
	"github.com/example/seckill/internal/service"
)

// RegisterRoutes 注册前台（买家）HTTP 路由
func RegisterRoutes(app *iris.Application, cfg *config.Config) {
	// 初始化基础设施
	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)
	mqConn := mq.Init(&cfg.RabbitMQ)

	// 仓储与服务
	userRepo := mysql.NewUserRepository(db)
	productRepo := mysql.NewProductRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	activityRepo := mysql.NewActivityRepository(db)
	slotRepo := mysql.NewTimeSlotRepository(db)
	partRepo := mysql.NewParticipationRepository(db)

	windowSvc := service.NewWindowService(activityRepo, slotRepo)
	priceSvc := service.NewPriceService(activityRepo, slotRepo, partRepo, productRepo)
	ledger := redisrepo.NewLedger(redisClient, windowSvc)
	ledger.ReleaseMarkTTL = cfg.Seckill.ReleaseMarkTTLSeconds
	userSvc := service.NewUserService(userRepo, &cfg.JWT)
	seckillSvc := service.NewSeckillService(windowSvc, priceSvc, ledger, redisClient, mqConn, &cfg.Seckill)

	// JWT 解析结果缓存，多节点部署时按一致性哈希分桶
	ring := auth.NewConsistentHashRing(cfg.Auth.Nodes, cfg.Auth.HashReplicas)
	tokenCache := auth.NewTokenCache(redisClient, ring, time.Duration(cfg.Auth.TokenCacheTTLSeconds)*time.Second)

	api := app.Party("/api")

	// 健康检查
	api.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"code": 0, "msg": "ok"})
	})

	api.Post("/register", func(ctx iris.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		u, err := userSvc.Register(ctx.Request().Context(), req.Username, req.Password)
		if err != nil {
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{"id": u.ID, "username": u.Username}})
	})

	api.Post("/login", func(ctx iris.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		token, err := userSvc.Login(ctx.Request().Context(), req.Username, req.Password)
		if err != nil {
			ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{"token": token}})
	})

	// 活动列表：状态按当前时间现算，展示数据允许陈旧
	api.Get("/activities", func(ctx iris.Context) {
		list, err := activityRepo.ListAll(ctx.Request().Context())
		if err != nil {
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		now := time.Now()
		data := make([]iris.Map, 0, len(list))
		for _, a := range list {
			slots, _ := slotRepo.GetByIDs(ctx.Request().Context(), a.SlotIDList())
			slotID, open := service.CurrentSlot(a, slots, now)
			data = append(data, iris.Map{
				"id":             a.ID,
				"name":           a.Name,
				"start_day":      a.StartDay.Format("2006-01-02"),
				"end_day":        a.EndDay.Format("2006-01-02"),
				"status":         service.Classify(a, now),
				"open":           open,
				"current_slot":   slotID,
				"merchant_count": a.MerchantCount,
				"product_count":  a.ProductCount,
			})
		}
		ctx.JSON(iris.Map{"code": 0, "data": data})
	})

	// 剩余库存快照：仅供展示，下单判定以预扣为准
	api.Get("/activities/{id:int64}/stock/{sku:int64}", func(ctx iris.Context) {
		activityID, _ := ctx.Params().GetInt64("id")
		skuID, _ := ctx.Params().GetInt64("sku")
		left, err := ledger.Snapshot(ctx.Request().Context(), activityID, skuID)
		if err != nil {
			if errors.Is(err, stock.ErrActivityNotFound) {
				ctx.StopWithJSON(404, iris.Map{"code": 404, "msg": err.Error()})
				return
			}
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{"remaining": left}})
	})

	// 需要登录的接口
	authAPI := api.Party("/", func(ctx iris.Context) {
		token := ctx.GetHeader("Authorization")
		if token == "" {
			ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "missing token"})
			return
		}
		claims, hit, err := tokenCache.Get(ctx.Request().Context(), token)
		if err != nil || !hit {
			claims, err = auth.ParseToken(&cfg.JWT, token)
			if err != nil {
				ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "invalid token"})
				return
			}
			_ = tokenCache.Set(ctx.Request().Context(), token, claims)
		}
		ctx.Values().Set("user_id", claims.UserID)
		ctx.Values().Set("username", claims.Username)
		ctx.Next()
	})

	bucket := middleware.NewTokenBucket(cfg.Seckill.RateLimitCapacity, cfg.Seckill.RateLimitPerSecond)

	// 发起秒杀购买
	authAPI.Post("/seckill/{id:int64}/purchase", middleware.RateLimit(bucket), func(ctx iris.Context) {
		activityID, _ := ctx.Params().GetInt64("id")
		userID := ctx.Values().GetInt64Default("user_id", 0)
		var req struct {
			ProductID int64 `json:"product_id"`
			SkuID     int64 `json:"sku_id"`
			Quantity  int64 `json:"quantity"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		result, err := seckillSvc.Purchase(ctx.Request().Context(), userID, activityID, req.ProductID, req.SkuID, req.Quantity)
		if err != nil {
			switch {
			case errors.Is(err, stock.ErrActivityClosed),
				errors.Is(err, stock.ErrInsufficientStock),
				errors.Is(err, stock.ErrActivityNotFound):
				ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			default:
				ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			}
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{
			"reservation": result.Reservation,
			"price":       result.Price,
		}})
	})

	// 放弃预扣（订单超时/主动取消），按凭证幂等
	authAPI.Post("/seckill/{id:int64}/abandon", func(ctx iris.Context) {
		activityID, _ := ctx.Params().GetInt64("id")
		var req struct {
			Reservation string `json:"reservation"`
			SkuID       int64  `json:"sku_id"`
			Quantity    int64  `json:"quantity"`
		}
		if err := ctx.ReadJSON(&req); err != nil || req.Reservation == "" {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": "参数不合法"})
			return
		}
		if err := seckillSvc.Abandon(ctx.Request().Context(), req.Reservation, activityID, req.SkuID, req.Quantity); err != nil {
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "released"})
	})

	// 我的订单
	authAPI.Get("/orders", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		list, err := orderRepo.ListByUser(ctx.Request().Context(), userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.JSON(iris.Map{"code": 0, "data": []any{}})
				return
			}
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})
}

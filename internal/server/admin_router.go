package server

import (
	"errors"
	"time"

	"github.com/kataras/iris/v12"

	"github.com/example/seckill/internal/config"
	"github.com/example/seckill/internal/datamodels/participation"
	"github.com/example/seckill/internal/infra/redis"
	"github.com/example/seckill/internal/repository/mysql"
	redisrepo "github.com/example/seckill/internal/repository/redis"
	"github.com/example/seckill/internal/service"
)

const dayLayout = "2006-01-02"

// RegisterAdminRoutes 注册后台管理端的 HTTP 路由
// 端口通常是 8081，与前台服务分离。
func RegisterAdminRoutes(app *iris.Application, cfg *config.Config) {
	// 初始化基础设施
	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)

	// 仓储与服务
	activityRepo := mysql.NewActivityRepository(db)
	slotRepo := mysql.NewTimeSlotRepository(db)
	partRepo := mysql.NewParticipationRepository(db)
	productRepo := mysql.NewProductRepository(db)
	orderRepo := mysql.NewOrderRepository(db)

	windowSvc := service.NewWindowService(activityRepo, slotRepo)
	aggregateSvc := service.NewAggregateService(activityRepo, partRepo)
	mysqlLedger := mysql.NewStockLedger(db, nil)
	redisLedger := redisrepo.NewLedger(redisClient, windowSvc)
	activitySvc := service.NewActivityService(
		activityRepo, slotRepo, partRepo, productRepo, aggregateSvc,
		mysqlLedger, redisLedger,
	)

	api := app.Party("/api")

	// ---------- 活动管理 ----------

	api.Get("/activities", func(ctx iris.Context) {
		list, err := activitySvc.ListActivities(ctx.Request().Context())
		if err != nil {
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	api.Post("/activities", func(ctx iris.Context) {
		req, err := readActivityRequest(ctx)
		if err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		a, err := activitySvc.CreateActivity(ctx.Request().Context(), req)
		if err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": a})
	})

	api.Put("/activities/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		req, err := readActivityRequest(ctx)
		if err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		if err := activitySvc.UpdateActivity(ctx.Request().Context(), id, req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "ok"})
	})

	// 手动触发状态刷新（定时任务之外的兜底入口）
	api.Post("/activities/refresh-status", func(ctx iris.Context) {
		if err := activitySvc.RefreshActivityStatus(ctx.Request().Context()); err != nil {
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "ok"})
	})

	// ---------- 时段管理 ----------

	api.Get("/slots", func(ctx iris.Context) {
		list, err := activitySvc.ListSlots(ctx.Request().Context())
		if err != nil {
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	api.Post("/slots", func(ctx iris.Context) {
		var req struct {
			StartHour int  `json:"start_hour"`
			EndHour   int  `json:"end_hour"`
			Enabled   bool `json:"enabled"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		slot, err := activitySvc.CreateSlot(ctx.Request().Context(), req.StartHour, req.EndHour, req.Enabled)
		if err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": slot})
	})

	api.Put("/slots/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var req struct {
			StartHour int  `json:"start_hour"`
			EndHour   int  `json:"end_hour"`
			Enabled   bool `json:"enabled"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		if err := activitySvc.UpdateSlot(ctx.Request().Context(), id, req.StartHour, req.EndHour, req.Enabled); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "ok"})
	})

	// ---------- 商户报名管理 ----------

	api.Get("/participations", func(ctx iris.Context) {
		f := participation.Filter{
			ActivityID: ctx.URLParamInt64Default("activity_id", 0),
			MerchantID: ctx.URLParamInt64Default("merchant_id", 0),
			Keyword:    ctx.URLParam("keyword"),
		}
		if state := ctx.URLParam("state"); state != "" {
			var st participation.State
			if state == "recycled" {
				st = participation.StateRecycled
			}
			f.State = &st
		}
		list, err := activitySvc.ListParticipations(ctx.Request().Context(), f)
		if err != nil {
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	api.Post("/participations", func(ctx iris.Context) {
		var req struct {
			ActivityID   int64 `json:"activity_id"`
			MerchantID   int64 `json:"merchant_id"`
			ProductID    int64 `json:"product_id"`
			SkuID        int64 `json:"sku_id"`
			SeckillPrice int64 `json:"seckill_price"`
			SeckillStock int64 `json:"seckill_stock"`
			Sort         int   `json:"sort"`
			Visible      bool  `json:"visible"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		p, err := activitySvc.Join(ctx.Request().Context(), &service.JoinRequest{
			ActivityID:   req.ActivityID,
			MerchantID:   req.MerchantID,
			ProductID:    req.ProductID,
			SkuID:        req.SkuID,
			SeckillPrice: req.SeckillPrice,
			SeckillStock: req.SeckillStock,
			Sort:         req.Sort,
			Visible:      req.Visible,
		})
		if err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": p})
	})

	// 回收（软删除，可恢复）
	api.Post("/participations/{id:int64}/recycle", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := activitySvc.Recycle(ctx.Request().Context(), id); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "ok"})
	})

	// 从回收站恢复
	api.Post("/participations/{id:int64}/restore", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := activitySvc.Restore(ctx.Request().Context(), id); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "ok"})
	})

	// 销毁（仅限回收站中的记录）
	api.Delete("/participations/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := activitySvc.Destroy(ctx.Request().Context(), id); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "ok"})
	})

	// ---------- 订单与监控 ----------

	api.Get("/orders", func(ctx iris.Context) {
		limit := ctx.URLParamIntDefault("limit", 20)
		list, err := orderRepo.ListRecent(ctx.Request().Context(), limit)
		if err != nil {
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	api.Get("/stats", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"code": 0, "data": service.GetMonitor().GetStats()})
	})
}

func readActivityRequest(ctx iris.Context) (*service.CreateActivityRequest, error) {
	var req struct {
		Name     string  `json:"name"`
		StartDay string  `json:"start_day"`
		EndDay   string  `json:"end_day"`
		SlotIDs  []int64 `json:"slot_ids"`
	}
	if err := ctx.ReadJSON(&req); err != nil {
		return nil, err
	}
	start, err := time.ParseInLocation(dayLayout, req.StartDay, time.Local)
	if err != nil {
		return nil, errors.New("开始日期格式不合法")
	}
	end, err := time.ParseInLocation(dayLayout, req.EndDay, time.Local)
	if err != nil {
		return nil, errors.New("结束日期格式不合法")
	}
	return &service.CreateActivityRequest{
		Name:     req.Name,
		StartDay: start,
		EndDay:   end,
		SlotIDs:  req.SlotIDs,
	}, nil
}

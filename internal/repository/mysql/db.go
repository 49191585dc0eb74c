package mysql

import (
	"log"
	"sync"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/example/seckill/internal/config"
	"github.com/example/seckill/internal/datamodels/activity"
	"github.com/example/seckill/internal/datamodels/order"
	"github.com/example/seckill/internal/datamodels/participation"
	"github.com/example/seckill/internal/datamodels/product"
	"github.com/example/seckill/internal/datamodels/stock"
	"github.com/example/seckill/internal/datamodels/timeslot"
	"github.com/example/seckill/internal/datamodels/user"
)

var (
	db   *gorm.DB
	once sync.Once
)

// Init 初始化全局 GORM 实例并自动迁移表结构
func Init(cfg *config.MySQLConfig) *gorm.DB {
	once.Do(func() {
		var err error
		db, err = gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to connect mysql: %v", err)
		}

		if err = db.AutoMigrate(
			&activity.SeckillActivity{},
			&timeslot.SeckillTimeSlot{},
			&participation.SeckillProduct{},
			&stock.LedgerEntry{},
			&product.Product{},
			&product.Sku{},
			&order.Order{},
			&user.User{},
		); err != nil {
			log.Fatalf("auto migrate failed: %v", err)
		}
	})
	return db
}

// DB 获取全局 DB
func DB() *gorm.DB {
	return db
}

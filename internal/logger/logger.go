package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var once sync.Once

// Init 初始化全局 zap logger，重复调用只生效一次。
// 之后各处直接使用 zap.L() 记录结构化日志。
func Init(debug bool) {
	once.Do(func() {
		var cfg zap.Config
		if debug {
			cfg = zap.NewDevelopmentConfig()
		} else {
			cfg = zap.NewProductionConfig()
			cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		}
		l, err := cfg.Build()
		if err != nil {
			panic(err)
		}
		zap.ReplaceGlobals(l)
	})
}

package service

import (
	"sync"
	"time"
)

// Monitor 进程内计数器，统计下单入口与 worker 的处理情况
type Monitor struct {
	mu sync.RWMutex

	// 错误统计
	RedisErrors   int64
	MQErrors      int64
	DBErrors      int64
	SeckillErrors int64

	// 处理统计
	SeckillRequests int64
	SeckillSuccess  int64
	WorkerConfirmed int64
	WorkerFailed    int64

	LastSeckillTime time.Time
	LastWorkerTime  time.Time
}

var globalMonitor = &Monitor{}

// GetMonitor 获取全局监控实例
func GetMonitor() *Monitor {
	return globalMonitor
}

// RecordRedisError 记录Redis错误
func (m *Monitor) RecordRedisError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RedisErrors++
}

// RecordMQError 记录MQ错误
func (m *Monitor) RecordMQError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MQErrors++
}

// RecordDBError 记录数据库错误
func (m *Monitor) RecordDBError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors++
}

// RecordSeckillRequest 记录秒杀请求
func (m *Monitor) RecordSeckillRequest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SeckillRequests++
	m.LastSeckillTime = time.Now()
}

// RecordSeckillSuccess 记录预扣受理成功
func (m *Monitor) RecordSeckillSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SeckillSuccess++
}

// RecordSeckillError 记录秒杀业务失败（窗口关闭/限购/库存不足）
func (m *Monitor) RecordSeckillError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SeckillErrors++
}

// RecordWorkerConfirmed 记录 worker 确认成功
func (m *Monitor) RecordWorkerConfirmed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WorkerConfirmed++
	m.LastWorkerTime = time.Now()
}

// RecordWorkerFailed 记录 worker 确认失败
func (m *Monitor) RecordWorkerFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WorkerFailed++
}

// GetStats 获取统计信息
func (m *Monitor) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	successRate := float64(0)
	if m.SeckillRequests > 0 {
		successRate = float64(m.SeckillSuccess) / float64(m.SeckillRequests) * 100
	}

	return map[string]interface{}{
		"errors": map[string]interface{}{
			"redis":   m.RedisErrors,
			"mq":      m.MQErrors,
			"db":      m.DBErrors,
			"seckill": m.SeckillErrors,
		},
		"performance": map[string]interface{}{
			"seckill_requests":     m.SeckillRequests,
			"seckill_success":      m.SeckillSuccess,
			"seckill_success_rate": successRate,
			"worker_confirmed":     m.WorkerConfirmed,
			"worker_failed":        m.WorkerFailed,
		},
		"last_events": map[string]interface{}{
			"last_seckill": m.LastSeckillTime,
			"last_worker":  m.LastWorkerTime,
		},
	}
}

// Reset 重置统计（测试用）
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RedisErrors = 0
	m.MQErrors = 0
	m.DBErrors = 0
	m.SeckillErrors = 0
	m.SeckillRequests = 0
	m.SeckillSuccess = 0
	m.WorkerConfirmed = 0
	m.WorkerFailed = 0
}

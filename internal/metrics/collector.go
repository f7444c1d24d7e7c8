// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// MySQL 指标
	dbQueryDuration   *prometheus.HistogramVec
	dbQueriesTotal    *prometheus.CounterVec
	dbRetriesTotal    *prometheus.CounterVec
	dbConnectionsOpen *prometheus.GaugeVec
	dbConnectionsIdle *prometheus.GaugeVec

	// 缓存指标
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// 推送指标
	pushSentTotal   *prometheus.CounterVec
	pushFailedTotal *prometheus.CounterVec
	pushQueueDepth  prometheus.Gauge

	logger *zap.Logger
}

// NewCollector 创建指标收集器。reg 为 nil 时注册到默认 Registry；
// 测试传入独立 Registry 避免重复注册冲突。
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// MySQL 指标
	c.dbQueryDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Database operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"database", "operation"},
	)

	c.dbQueriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_queries_total",
			Help:      "Total number of database operations",
		},
		[]string{"database", "operation", "status"},
	)

	c.dbRetriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_retries_total",
			Help:      "Total number of transient-failure retries",
		},
		[]string{"database", "operation"},
	)

	c.dbConnectionsOpen = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_in_use",
			Help:      "Number of database connections currently lent out",
		},
		[]string{"database"},
	)

	c.dbConnectionsIdle = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_idle",
			Help:      "Number of idle database connections",
		},
		[]string{"database"},
	)

	// 缓存指标
	c.cacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	c.cacheMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// 推送指标
	c.pushSentTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_sent_total",
			Help:      "Total number of push notifications delivered",
		},
		[]string{"channel"},
	)

	c.pushFailedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_failed_total",
			Help:      "Total number of push notification failures",
		},
		[]string{"channel"},
	)

	c.pushQueueDepth = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "push_queue_depth",
			Help:      "Number of queued push notifications",
		},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🗄️ MySQL 指标记录
// =============================================================================

// RecordQuery 记录一次数据库操作
func (c *Collector) RecordQuery(database, operation, status string, duration time.Duration) {
	c.dbQueryDuration.WithLabelValues(database, operation).Observe(duration.Seconds())
	c.dbQueriesTotal.WithLabelValues(database, operation, status).Inc()
}

// RecordRetry 记录一次瞬时故障重试
func (c *Collector) RecordRetry(database, operation string) {
	c.dbRetriesTotal.WithLabelValues(database, operation).Inc()
}

// RecordConnections 记录连接池占用情况
func (c *Collector) RecordConnections(database string, inUse, idle int) {
	c.dbConnectionsOpen.WithLabelValues(database).Set(float64(inUse))
	c.dbConnectionsIdle.WithLabelValues(database).Set(float64(idle))
}

// =============================================================================
// 💾 缓存指标记录
// =============================================================================

// RecordCacheHit 记录缓存命中
func (c *Collector) RecordCacheHit(cacheType string) {
	c.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (c *Collector) RecordCacheMiss(cacheType string) {
	c.cacheMisses.WithLabelValues(cacheType).Inc()
}

// =============================================================================
// 📨 推送指标记录
// =============================================================================

// RecordPushSent 记录一次成功推送
func (c *Collector) RecordPushSent(channel string) {
	c.pushSentTotal.WithLabelValues(channel).Inc()
}

// RecordPushFailed 记录一次失败推送
func (c *Collector) RecordPushFailed(channel string) {
	c.pushFailedTotal.WithLabelValues(channel).Inc()
}

// SetPushQueueDepth 更新推送队列深度
func (c *Collector) SetPushQueueDepth(depth int) {
	c.pushQueueDepth.Set(float64(depth))
}

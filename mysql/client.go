package mysql

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/goutil/internal/metrics"
)

// =============================================================================
// 🧩 MySQL 客户端
// =============================================================================

const tracerName = "github.com/BaSui01/goutil/mysql"

// Client MySQL 客户端。独占一个连接池，生命周期内配置不变，
// Close 之后池与所有在借连接一并失效。
type Client struct {
	pool    *Pool
	config  Config
	policy  RetryPolicy
	logger  *zap.Logger
	metrics *metrics.Collector
	tracer  trace.Tracer

	// sleep 重试间隔等待，测试注入以消除真实延迟
	sleep func(ctx context.Context, d time.Duration) error
}

// Option 客户端可选项
type Option func(*Client)

// WithRetryPolicy 覆盖默认重试策略
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.policy = p }
}

// WithMetrics 绑定指标收集器
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient 创建客户端并建立连接池
func NewClient(cfg Config, logger *zap.Logger, opts ...Option) (*Client, error) {
	pool, err := NewPool(cfg, logger)
	if err != nil {
		return nil, err
	}
	return newClient(pool, cfg, logger, opts...), nil
}

// newClient 在已有池上组装客户端，测试经由此注入 sqlmock
func newClient(pool *Pool, cfg Config, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		pool:   pool,
		config: cfg,
		policy: DefaultRetryPolicy(),
		logger: logger.With(zap.String("component", "mysql_client")),
		tracer: otel.Tracer(tracerName),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics != nil {
		pool.SetMetrics(c.metrics)
	}

	c.logger.Info("mysql client initialized",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.Int("pool_size", cfg.PoolSize),
		zap.Int("max_connections", cfg.MaxConnections),
	)
	return c
}

// Ping 检查数据库连接健康状态
func (c *Client) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// Stats 返回连接池统计信息
func (c *Client) Stats() sql.DBStats {
	return c.pool.Stats()
}

// Close 关闭客户端与连接池
func (c *Client) Close() error {
	c.logger.Info("closing mysql client")
	return c.pool.Close()
}

// observe 上报单次操作耗时
func (c *Client) observe(op string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordQuery(c.config.Database, op, status, time.Since(start))
}

// =============================================================================
// 🌐 进程级默认实例
// =============================================================================
//
// 显式 InitDefault / CloseDefault 管理生命周期，不做隐式构造：
// 客户端依赖配置与日志器，缺了哪个都不该悄悄用默认值起一个池。

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// InitDefault 初始化进程级默认客户端，重复调用会关闭旧实例
func InitDefault(cfg Config, logger *zap.Logger, opts ...Option) (*Client, error) {
	client, err := NewClient(cfg, logger, opts...)
	if err != nil {
		return nil, err
	}

	defaultMu.Lock()
	old := defaultClient
	defaultClient = client
	defaultMu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return client, nil
}

// Default 返回进程级默认客户端，未初始化返回 ErrNotInitialized
func Default() (*Client, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultClient == nil {
		return nil, ErrNotInitialized
	}
	return defaultClient, nil
}

// CloseDefault 关闭并清除进程级默认客户端
func CloseDefault() error {
	defaultMu.Lock()
	client := defaultClient
	defaultClient = nil
	defaultMu.Unlock()

	if client == nil {
		return nil
	}
	return client.Close()
}

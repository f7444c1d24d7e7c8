package mysql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/BaSui01/goutil/internal/metrics"
)

// =============================================================================
// 🗄️ 连接池
// =============================================================================

// Config MySQL 客户端配置，构造后不再修改
type Config struct {
	// 主机地址
	Host string `yaml:"host" json:"host" env:"HOST"`

	// 端口
	Port int `yaml:"port" json:"port" env:"PORT"`

	// 用户名
	User string `yaml:"user" json:"user" env:"USER"`

	// 密码
	Password string `yaml:"password" json:"password" env:"PASSWORD"`

	// 数据库名
	Database string `yaml:"database" json:"database" env:"DATABASE"`

	// 常驻（空闲）连接数
	PoolSize int `yaml:"pool_size" json:"pool_size" env:"POOL_SIZE"`

	// 最大连接数
	MaxConnections int `yaml:"max_connections" json:"max_connections" env:"MAX_CONNECTIONS"`

	// 建连超时
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout" env:"CONNECT_TIMEOUT"`

	// 读超时
	ReadTimeout time.Duration `yaml:"read_timeout" json:"read_timeout" env:"READ_TIMEOUT"`

	// 写超时
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout" env:"WRITE_TIMEOUT"`

	// 等待空闲连接的上限，超出返回 ErrPoolExhausted
	AcquireTimeout time.Duration `yaml:"acquire_timeout" json:"acquire_timeout" env:"ACQUIRE_TIMEOUT"`

	// 连接最大生命周期
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`

	// 连接最大空闲时间
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time" env:"CONN_MAX_IDLE_TIME"`

	// 健康检查间隔，0 表示不启动后台探活
	HealthCheckInterval time.Duration `yaml:"health_check_interval" json:"health_check_interval" env:"HEALTH_CHECK_INTERVAL"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Host:            "localhost",
		Port:            3306,
		User:            "root",
		Password:        "",
		Database:        "option_trade",
		PoolSize:        5,
		MaxConnections:  20,
		ConnectTimeout:  10 * time.Second,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		AcquireTimeout:  10 * time.Second,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 10 * time.Minute,
	}
}

// Validate 校验配置
func (c Config) Validate() error {
	var errs []string
	if c.Host == "" {
		errs = append(errs, "host must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, "invalid port")
	}
	if c.Database == "" {
		errs = append(errs, "database must not be empty")
	}
	if c.MaxConnections <= 0 {
		errs = append(errs, "max_connections must be positive")
	}
	if c.PoolSize <= 0 || c.PoolSize > c.MaxConnections {
		errs = append(errs, "pool_size must be in (0, max_connections]")
	}
	if len(errs) > 0 {
		return fmt.Errorf("mysql: invalid config: %s", joinReasons(errs))
	}
	return nil
}

// DSN 返回 go-sql-driver 连接串
func (c Config) DSN() string {
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	mc.DBName = c.Database
	mc.Timeout = c.ConnectTimeout
	mc.ReadTimeout = c.ReadTimeout
	mc.WriteTimeout = c.WriteTimeout
	mc.ParseTime = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

func joinReasons(reasons []string) string {
	out := reasons[0]
	for _, r := range reasons[1:] {
		out += "; " + r
	}
	return out
}

// Pool 有界连接池。借出的连接独占使用，归还或废弃前不会被
// 其他调用方看到。
type Pool struct {
	db      *sql.DB
	config  Config
	logger  *zap.Logger
	metrics *metrics.Collector
	mu      sync.RWMutex
	closed  bool
	stopCh  chan struct{}
}

// NewPool 创建连接池并校验首个连接
func NewPool(cfg Config, logger *zap.Logger) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("mysql: open failed: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql: initial ping failed: %w", err)
	}

	return newPool(db, cfg, logger), nil
}

// newPool 在已有 *sql.DB 上构建池，测试经由此注入 sqlmock
func newPool(db *sql.DB, cfg Config, logger *zap.Logger) *Pool {
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.PoolSize)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	p := &Pool{
		db:     db,
		config: cfg,
		logger: logger.With(zap.String("component", "mysql_pool")),
		stopCh: make(chan struct{}),
	}

	if cfg.HealthCheckInterval > 0 {
		go p.healthCheckLoop()
	}

	p.logger.Info("mysql pool initialized",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.Int("pool_size", cfg.PoolSize),
		zap.Int("max_connections", cfg.MaxConnections),
	)

	return p
}

// SetMetrics 绑定指标收集器
func (p *Pool) SetMetrics(c *metrics.Collector) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metrics = c
}

// =============================================================================
// 🎯 借出与归还
// =============================================================================

// Acquire 借出一条连接。等待超过 AcquireTimeout 返回 ErrPoolExhausted；
// 借出前做一次探活，空闲过久的陈旧 socket 不会交到调用方手里。
func (p *Pool) Acquire(ctx context.Context) (*sql.Conn, error) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, ErrPoolClosed
	}
	db := p.db
	p.mu.RUnlock()

	waitCtx := ctx
	if p.config.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, p.config.AcquireTimeout)
		defer cancel()
	}

	conn, err := db.Conn(waitCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: no connection within %s", ErrPoolExhausted, p.config.AcquireTimeout)
		}
		return nil, fmt.Errorf("mysql: acquire failed: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		p.Discard(conn)
		return nil, fmt.Errorf("mysql: checkout ping failed: %w", err)
	}

	return conn, nil
}

// Release 归还健康连接
func (p *Pool) Release(conn *sql.Conn) {
	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		p.logger.Warn("release connection failed", zap.Error(err))
	}
}

// Discard 废弃状态不明的连接，不让其回到空闲集合
func (p *Pool) Discard(conn *sql.Conn) {
	if conn == nil {
		return
	}
	// Raw 返回 ErrBadConn 会把底层驱动连接标记为坏连接
	_ = conn.Raw(func(any) error { return driver.ErrBadConn })
	_ = conn.Close()
}

// =============================================================================
// 🏥 生命周期与探活
// =============================================================================

// Ping 检查数据库连通性
func (p *Pool) Ping(ctx context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}
	return p.db.PingContext(ctx)
}

// Stats 返回底层连接池统计
func (p *Pool) Stats() sql.DBStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.db.Stats()
}

// Close 关闭连接池，终止全部空闲连接
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	close(p.stopCh)
	p.logger.Info("closing mysql pool")

	return p.db.Close()
}

// healthCheckLoop 后台定时探活并上报连接数指标
func (p *Pool) healthCheckLoop() {
	ticker := time.NewTicker(p.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := p.Ping(ctx)
		cancel()

		if errors.Is(err, ErrPoolClosed) {
			return
		}

		stats := p.Stats()
		p.mu.RLock()
		collector := p.metrics
		p.mu.RUnlock()
		if collector != nil {
			collector.RecordConnections(p.config.Database, stats.InUse, stats.Idle)
		}

		if err != nil {
			p.logger.Error("mysql health check failed", zap.Error(err))
		} else {
			p.logger.Debug("mysql health check passed",
				zap.Int("open", stats.OpenConnections),
				zap.Int("in_use", stats.InUse),
				zap.Int("idle", stats.Idle),
			)
		}
	}
}

// =============================================================================
// 📦 Goutil 配置结构
// =============================================================================
// 定义全部配置项及其校验逻辑
// =============================================================================
package config

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 goutil 的完整配置结构
type Config struct {
	// Env 运行环境: dev, test, prod
	Env string `yaml:"env" env:"ENV"`

	// Database 数据库配置
	Database DatabaseConfig `yaml:"database" env:"DATABASE"`

	// Redis 缓存配置
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Push 推送通知配置
	Push PushConfig `yaml:"push" env:"PUSH"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// DatabaseConfig MySQL 数据库配置
type DatabaseConfig struct {
	// 主机
	Host string `yaml:"host" env:"HOST"`
	// 端口
	Port int `yaml:"port" env:"PORT"`
	// 用户名
	User string `yaml:"user" env:"USER"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库名
	Name string `yaml:"name" env:"NAME"`
	// 字符集
	Charset string `yaml:"charset" env:"CHARSET"`
	// 连接池常驻连接数
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// 最大连接数（含突发）
	MaxConnections int `yaml:"max_connections" env:"MAX_CONNECTIONS"`
	// 建连超时
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"CONNECT_TIMEOUT"`
	// 获取连接超时
	AcquireTimeout time.Duration `yaml:"acquire_timeout" env:"ACQUIRE_TIMEOUT"`
	// 连接最大生命周期
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	// 地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
	// 连接池大小
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// 默认过期时间
	DefaultTTL time.Duration `yaml:"default_ttl" env:"DEFAULT_TTL"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 日志目录，为空则只输出到 stdout
	Dir string `yaml:"dir" env:"DIR"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// PushConfig 微信推送（虾推啥）配置
type PushConfig struct {
	// 推送 token
	Token string `yaml:"token" env:"TOKEN"`
	// 自定义端点，为空使用官方端点
	Endpoint string `yaml:"endpoint" env:"ENDPOINT"`
	// 队列容量
	QueueSize int `yaml:"queue_size" env:"QUEUE_SIZE"`
	// 发送协程数
	Workers int `yaml:"workers" env:"WORKERS"`
	// 每秒发送上限
	RatePerSecond float64 `yaml:"rate_per_second" env:"RATE_PER_SECOND"`
	// 单次请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// 🔍 校验与辅助
// =============================================================================

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Host == "" {
		errs = append(errs, "database host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, "invalid database port")
	}
	if c.Database.Name == "" {
		errs = append(errs, "database name is required")
	}
	if c.Database.PoolSize <= 0 {
		errs = append(errs, "database pool_size must be positive")
	}
	if c.Database.MaxConnections < c.Database.PoolSize {
		errs = append(errs, "database max_connections must be >= pool_size")
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, "telemetry sample_rate must be between 0 and 1")
	}
	if c.Push.RatePerSecond < 0 {
		errs = append(errs, "push rate_per_second must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// DSN 返回 MySQL 连接字符串
func (d *DatabaseConfig) DSN() string {
	charset := d.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=true",
		d.User, d.Password, d.Host, d.Port, d.Name, charset,
	)
}

// IsProd 报告当前是否为生产环境
func (c *Config) IsProd() bool {
	return strings.EqualFold(c.Env, "prod") || strings.EqualFold(c.Env, "production")
}

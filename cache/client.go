// =============================================================================
// 💾 Goutil Redis 缓存客户端
// =============================================================================
// 基于 go-redis 的轻量缓存封装，提供字符串与 JSON 两种读写方式，
// 未命中返回 ErrCacheMiss 哨兵错误，命中/未命中计入指标。
// =============================================================================
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/goutil/config"
	"github.com/BaSui01/goutil/internal/metrics"
)

// ErrCacheMiss 缓存未命中错误
var ErrCacheMiss = errors.New("cache: miss")

// ErrClosed 客户端已关闭
var ErrClosed = errors.New("cache: client is closed")

// IsCacheMiss 判断是否为缓存未命中错误
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

// Client 缓存客户端
type Client struct {
	redis   *redis.Client
	config  config.RedisConfig
	logger  *zap.Logger
	metrics *metrics.Collector
	mu      sync.RWMutex
	closed  bool
}

// Option 配置 Client 的可选项
type Option func(*Client)

// WithMetrics 注入指标收集器
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient 创建缓存客户端并验证连通性
func NewClient(cfg config.RedisConfig, logger *zap.Logger, opts ...Option) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	c := &Client{
		redis:  rdb,
		config: cfg,
		logger: logger.With(zap.String("component", "cache")),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.logger.Info("cache client initialized",
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB),
	)

	return c, nil
}

// =============================================================================
// 🎯 核心方法
// =============================================================================

// Get 获取缓存值，未命中返回 ErrCacheMiss。
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return "", ErrClosed
	}

	val, err := c.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		c.recordMiss()
		return "", ErrCacheMiss
	}
	if err != nil {
		c.logger.Error("cache get failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("cache get failed: %w", err)
	}

	c.recordHit()
	return val, nil
}

// Set 设置缓存值，ttl 为 0 时使用配置的默认过期时间。
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClosed
	}

	if ttl == 0 {
		ttl = c.config.DefaultTTL
	}

	if err := c.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Error("cache set failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set failed: %w", err)
	}

	return nil
}

// GetJSON 获取缓存值并反序列化到 dest。
func (c *Client) GetJSON(ctx context.Context, key string, dest any) error {
	val, err := c.Get(ctx, key)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return nil
}

// SetJSON 序列化 value 后写入缓存。
func (c *Client) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.Set(ctx, key, string(data), ttl)
}

// Delete 删除指定键，不存在的键不报错。
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClosed
	}

	if len(keys) == 0 {
		return nil
	}

	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.logger.Error("cache delete failed", zap.Strings("keys", keys), zap.Error(err))
		return fmt.Errorf("cache delete failed: %w", err)
	}

	return nil
}

// Exists 返回给定键中存在的数量。
func (c *Client) Exists(ctx context.Context, keys ...string) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return 0, ErrClosed
	}

	count, err := c.redis.Exists(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("cache exists check failed: %w", err)
	}

	return count, nil
}

// Expire 设置键的过期时间。
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClosed
	}

	if err := c.redis.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("cache expire failed: %w", err)
	}

	return nil
}

// Ping 检查 Redis 连接
func (c *Client) Ping(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClosed
	}

	return c.redis.Ping(ctx).Err()
}

// Close 关闭缓存客户端，可重复调用。
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	c.logger.Info("closing cache client")

	return c.redis.Close()
}

func (c *Client) recordHit() {
	if c.metrics != nil {
		c.metrics.RecordCacheHit("redis")
	}
}

func (c *Client) recordMiss() {
	if c.metrics != nil {
		c.metrics.RecordCacheMiss("redis")
	}
}

// =============================================================================
// 📦 Goutil 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Env:       "dev",
		Database:  DefaultDatabaseConfig(),
		Redis:     DefaultRedisConfig(),
		Log:       DefaultLogConfig(),
		Push:      DefaultPushConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultDatabaseConfig 返回默认数据库配置
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:            "localhost",
		Port:            3306,
		User:            "root",
		Password:        "",
		Name:            "option_trade",
		Charset:         "utf8mb4",
		PoolSize:        5,
		MaxConnections:  10,
		ConnectTimeout:  10 * time.Second,
		AcquireTimeout:  30 * time.Second,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:       "localhost:6379",
		Password:   "",
		DB:         0,
		PoolSize:   10,
		DefaultTTL: 10 * time.Minute,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "console",
		Dir:              "",
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultPushConfig 返回默认推送配置
func DefaultPushConfig() PushConfig {
	return PushConfig{
		Token:         "",
		Endpoint:      "",
		QueueSize:     64,
		Workers:       2,
		RatePerSecond: 1,
		Timeout:       10 * time.Second,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "goutil",
		SampleRate:   0.1,
	}
}

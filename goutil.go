// Package goutil provides a top-level convenience entry point for creating
// a resilient MySQL client with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/goutil"
//
//	client, err := goutil.Connect()                  // env / .env config
//	client, err := goutil.Connect(goutil.WithConfigFile("config.yaml"))
//
// This is a thin wrapper around [config.Loader] plus [mysql.NewClient];
// use the mysql package directly when you need full control.
package goutil

import (
	"github.com/BaSui01/goutil/config"
	"github.com/BaSui01/goutil/logging"
	"github.com/BaSui01/goutil/mysql"
)

// connectOptions collects the knobs for [Connect].
type connectOptions struct {
	configPath string
	mysqlOpts  []mysql.Option
}

// Option configures the client created by [Connect].
type Option func(*connectOptions)

// WithConfigFile loads settings from the given YAML file before
// applying environment variable overrides.
func WithConfigFile(path string) Option {
	return func(o *connectOptions) {
		o.configPath = path
	}
}

// WithClientOption forwards an option to [mysql.NewClient].
func WithClientOption(opt mysql.Option) Option {
	return func(o *connectOptions) {
		o.mysqlOpts = append(o.mysqlOpts, opt)
	}
}

// Connect loads configuration（默认值 → .env 文件 → YAML → GOUTIL_ 环境变量）
// and returns a connected MySQL client with retry and pooling enabled.
func Connect(opts ...Option) (*mysql.Client, error) {
	var o connectOptions
	for _, opt := range opts {
		opt(&o)
	}

	loader := config.NewLoader().
		WithValidator(func(c *config.Config) error { return c.Validate() })
	if o.configPath != "" {
		loader = loader.WithConfigPath(o.configPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	return mysql.NewClient(DatabaseConfig(cfg.Database), logger, o.mysqlOpts...)
}

// DatabaseConfig 将应用配置映射为 mysql 客户端配置
func DatabaseConfig(d config.DatabaseConfig) mysql.Config {
	mc := mysql.DefaultConfig()
	mc.Host = d.Host
	mc.Port = d.Port
	mc.User = d.User
	mc.Password = d.Password
	mc.Database = d.Name
	mc.PoolSize = d.PoolSize
	mc.MaxConnections = d.MaxConnections
	if d.ConnectTimeout > 0 {
		mc.ConnectTimeout = d.ConnectTimeout
	}
	if d.AcquireTimeout > 0 {
		mc.AcquireTimeout = d.AcquireTimeout
	}
	if d.ConnMaxLifetime > 0 {
		mc.ConnMaxLifetime = d.ConnMaxLifetime
	}
	return mc
}

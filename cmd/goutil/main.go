// =============================================================================
// Goutil 主入口
// =============================================================================
// 运维辅助命令入口，覆盖数据库连通性检查与推送测试
//
// 使用方法:
//
//	goutil ping                        # 检查 MySQL / Redis 连通性
//	goutil ping --config config.yaml   # 指定配置文件
//	goutil notify --text "标题"         # 发送一条测试推送
//	goutil version                     # 显示版本信息
// =============================================================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/goutil"
	"github.com/BaSui01/goutil/cache"
	"github.com/BaSui01/goutil/config"
	"github.com/BaSui01/goutil/internal/telemetry"
	"github.com/BaSui01/goutil/logging"
	"github.com/BaSui01/goutil/mysql"
	"github.com/BaSui01/goutil/push"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "ping":
		runPing(os.Args[2:])
	case "notify":
		runNotify(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// loadConfig 加载配置并构建 logger
func loadConfig(configPath string) (*config.Config, *zap.Logger) {
	loader := config.NewLoader().
		WithValidator(func(c *config.Config) error { return c.Validate() })
	if configPath != "" {
		loader = loader.WithConfigPath(configPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	return cfg, logging.MustNew(cfg.Log)
}

// =============================================================================
// 🏥 ping 命令
// =============================================================================

func runPing(args []string) {
	fs := flag.NewFlagSet("ping", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	withRedis := fs.Bool("redis", false, "Also check Redis connectivity")
	fs.Parse(args)

	cfg, logger := loadConfig(*configPath)
	defer logger.Sync()

	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := mysql.NewClient(goutil.DatabaseConfig(cfg.Database), logger)
	if err != nil {
		logger.Fatal("MySQL connection failed", zap.Error(err))
	}
	defer client.Close()

	if err := client.Ping(ctx); err != nil {
		logger.Fatal("MySQL ping failed", zap.Error(err))
	}
	fmt.Printf("MySQL OK (%s:%d/%s)\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	if *withRedis {
		cc, err := cache.NewClient(cfg.Redis, logger)
		if err != nil {
			logger.Fatal("Redis connection failed", zap.Error(err))
		}
		defer cc.Close()

		if err := cc.Ping(ctx); err != nil {
			logger.Fatal("Redis ping failed", zap.Error(err))
		}
		fmt.Printf("Redis OK (%s)\n", cfg.Redis.Addr)
	}

	if otelProviders != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = otelProviders.Shutdown(shutdownCtx)
	}
}

// =============================================================================
// 📨 notify 命令
// =============================================================================

func runNotify(args []string) {
	fs := flag.NewFlagSet("notify", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	text := fs.String("text", "goutil test", "Notification title")
	desp := fs.String("desp", "", "Notification body (Markdown)")
	fs.Parse(args)

	cfg, logger := loadConfig(*configPath)
	defer logger.Sync()

	notifier, err := push.NewNotifier(cfg.Push, logger)
	if err != nil {
		logger.Fatal("Failed to create notifier", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := notifier.Send(ctx, *text, *desp); err != nil {
		logger.Fatal("Push failed", zap.Error(err))
	}
	fmt.Println("Push delivered")
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

func printVersion() {
	fmt.Printf("goutil %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`goutil - resilient MySQL access toolkit

Usage:
  goutil <command> [options]

Commands:
  ping      Check MySQL (and optionally Redis) connectivity
  notify    Send a test push notification
  version   Show version information
  help      Show this help

Options:
  --config  Path to YAML config file (env vars use the GOUTIL_ prefix)`)
}

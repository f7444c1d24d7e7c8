package mysql

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// =============================================================================
// 🔄 重试策略
// =============================================================================

// RetryPolicy 单次逻辑操作的重试配置。
// 只有 IsTransient 判定的连接级故障才会重试，每次尝试都从池里
// 取一条全新连接——上一次失败的连接状态不明，不允许复用。
// 事务作用域不走本策略：事务中途重试可能重复施加副作用。
type RetryPolicy struct {
	// 总尝试次数（含首次），0 或负数按 1 处理
	MaxAttempts int

	// 第 i 次失败后的延迟为 BaseDelay << i
	BaseDelay time.Duration

	// 单次延迟上限，0 表示不设限
	MaxDelay time.Duration

	// 每次重试前的回调（测试与调用方观测用）
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultRetryPolicy 返回默认重试策略：3 次尝试，基础延迟 500ms
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
	}
}

// Backoff 返回第 attempt 次失败（从 0 计）后的等待时长
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	delay := p.BaseDelay << uint(attempt)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// doRetry 以重试策略包裹一次执行器调用。fn 内部自行完成
// 取连接、执行、释放的完整生命周期。
func doRetry[T any](ctx context.Context, c *Client, op, query string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	ctx, span := c.tracer.Start(ctx, "mysql."+op)
	span.SetAttributes(
		attribute.String("db.system", "mysql"),
		attribute.String("db.statement", truncateSQL(query)),
	)
	defer span.End()

	policy := c.policy
	maxAttempts := policy.attempts()
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				c.logger.Info("重试成功",
					zap.String("op", op),
					zap.Int("attempt", attempt+1),
				)
			}
			c.observe(op, start, nil)
			return result, nil
		}

		if !IsTransient(err) {
			c.logger.Error("SQL 执行失败",
				zap.String("op", op),
				zap.String("sql", truncateSQL(query)),
				zap.Error(err),
			)
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
			c.observe(op, start, err)
			return zero, err
		}

		lastErr = err
		if attempt == maxAttempts-1 {
			break
		}

		delay := policy.Backoff(attempt)
		c.logger.Warn("SQL 执行失败，准备重试",
			zap.String("op", op),
			zap.String("sql", truncateSQL(query)),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxAttempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if c.metrics != nil {
			c.metrics.RecordRetry(c.config.Database, op)
		}
		if policy.OnRetry != nil {
			policy.OnRetry(attempt+1, delay, err)
		}

		if err := c.sleep(ctx, delay); err != nil {
			return zero, err
		}
	}

	c.logger.Error("重试次数耗尽",
		zap.String("op", op),
		zap.String("sql", truncateSQL(query)),
		zap.Int("attempts", maxAttempts),
		zap.Error(lastErr),
	)
	exhausted := &RetryExhaustedError{Attempts: maxAttempts, Err: lastErr}
	span.SetStatus(codes.Error, exhausted.Error())
	span.RecordError(exhausted)
	c.observe(op, start, exhausted)
	return zero, exhausted
}

// sleepContext 可被 context 取消的等待
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("mysql: retry cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// truncateSQL 日志中 SQL 文本最多保留 100 字符
func truncateSQL(query string) string {
	const limit = 100
	if len(query) <= limit {
		return query
	}
	return query[:limit]
}

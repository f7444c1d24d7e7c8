package mysql

import (
	"context"
	"database/sql"

	"go.uber.org/zap"
)

// =============================================================================
// 🎯 游标作用域
// =============================================================================

// withConn 作用域化借用：取一条连接，执行闭包，任何退出路径
// （正常返回、错误、panic）都保证连接离开调用方之手。
// 闭包报告瞬时故障时连接按状态不明处理，废弃而非归还。
func (c *Client) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return err
	}

	finished := false
	defer func() {
		if !finished {
			// panic 路径：连接状态未知，直接废弃
			c.pool.Discard(conn)
		}
	}()

	err = fn(conn)
	finished = true

	if err != nil && IsTransient(err) {
		c.pool.Discard(conn)
	} else {
		c.pool.Release(conn)
	}
	return err
}

// rollbackQuiet 回滚已失败语句的事务。语句已经出错，回滚失败
// 只记日志，不覆盖原始错误。
func (c *Client) rollbackQuiet(tx *sql.Tx, op string) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		c.logger.Warn("rollback failed",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}

package mysql

import (
	"context"
	"database/sql"
	"sync"

	"go.uber.org/zap"
)

// =============================================================================
// 🔒 事务作用域
// =============================================================================

// Tx 显式多语句事务。Begin 借出一条连接并独占到作用域结束，
// 其间执行的语句不做单语句重试——半途重试可能让副作用落库两次。
// Commit 或 Rollback 后作用域关闭，连接恰好归还一次，不可复用。
type Tx struct {
	tx     *sql.Tx
	conn   *sql.Conn
	client *Client

	mu     sync.Mutex
	closed bool
}

// Begin 开启事务作用域
func (c *Client) Begin(ctx context.Context) (*Tx, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		c.pool.Discard(conn)
		return nil, err
	}

	c.logger.Debug("事务开启")
	return &Tx{tx: tx, conn: conn, client: c}, nil
}

// Exec 在事务内执行写语句，返回受影响行数
func (t *Tx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrTxClosed
	}

	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		t.client.logger.Error("事务内 SQL 执行失败",
			zap.String("sql", truncateSQL(query)),
			zap.Error(err),
		)
		return 0, err
	}
	return res.RowsAffected()
}

// Query 在事务内执行查询
func (t *Tx) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrTxClosed
	}

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRows(rows)
}

// QueryOne 在事务内查询首行，结果集为空时返回 nil
func (t *Tx) QueryOne(ctx context.Context, query string, args ...any) (Row, error) {
	rows, err := t.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Commit 提交事务并归还连接
func (t *Tx) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTxClosed
	}

	err := t.tx.Commit()
	t.finish(err != nil && IsTransient(err))

	if err != nil {
		t.client.logger.Error("事务提交失败", zap.Error(err))
		return err
	}
	t.client.logger.Debug("事务提交成功")
	return nil
}

// Rollback 回滚事务并归还连接
func (t *Tx) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTxClosed
	}

	err := t.tx.Rollback()
	t.finish(err != nil && IsTransient(err))

	if err != nil && err != sql.ErrTxDone {
		t.client.logger.Error("事务回滚失败", zap.Error(err))
		return err
	}
	t.client.logger.Debug("事务已回滚")
	return nil
}

// finish 关闭作用域并处置连接，调用方持有 t.mu
func (t *Tx) finish(discard bool) {
	t.closed = true
	if discard {
		t.client.pool.Discard(t.conn)
	} else {
		t.client.pool.Release(t.conn)
	}
	t.conn = nil
}

// WithinTx 作用域化事务：fn 返回 nil 则提交；fn 返回错误或 panic
// 则先回滚再原样上抛，原始错误不被吞掉或替换。
func (c *Client) WithinTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := c.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != ErrTxClosed {
			c.logger.Warn("rollback after error failed", zap.Error(rbErr))
		}
		return err
	}

	return tx.Commit()
}

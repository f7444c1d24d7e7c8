package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// =============================================================================
// ⚡ 语句执行器
// =============================================================================

// Row 一行查询结果，列名到值的映射
type Row map[string]any

// Execute 执行单条写语句（INSERT/UPDATE/DELETE），立即提交，
// 提交前出错则回滚并原样上抛。返回受影响行数。
func (c *Client) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	return doRetry(ctx, c, "execute", query, func(ctx context.Context) (int64, error) {
		var affected int64
		err := c.withConn(ctx, func(conn *sql.Conn) error {
			tx, err := conn.BeginTx(ctx, nil)
			if err != nil {
				return err
			}

			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				c.rollbackQuiet(tx, "execute")
				return err
			}

			affected, err = res.RowsAffected()
			if err != nil {
				c.rollbackQuiet(tx, "execute")
				return err
			}

			if err := tx.Commit(); err != nil {
				return err
			}

			c.logger.Debug("SQL 执行成功",
				zap.String("sql", truncateSQL(query)),
				zap.Int("params", len(args)),
				zap.Int64("affected_rows", affected),
			)
			return nil
		})
		return affected, err
	})
}

// ExecuteMany 在一次借用内批量执行同构语句。空参数列表直接返回 0，
// 不触碰连接池。整批在一个事务中，要么全部提交要么全部回滚。
func (c *Client) ExecuteMany(ctx context.Context, query string, argsList [][]any) (int64, error) {
	if len(argsList) == 0 {
		return 0, nil
	}

	return doRetry(ctx, c, "execute_many", query, func(ctx context.Context) (int64, error) {
		var total int64
		err := c.withConn(ctx, func(conn *sql.Conn) error {
			tx, err := conn.BeginTx(ctx, nil)
			if err != nil {
				return err
			}

			stmt, err := tx.PrepareContext(ctx, query)
			if err != nil {
				c.rollbackQuiet(tx, "execute_many")
				return err
			}
			defer stmt.Close()

			total = 0
			for _, args := range argsList {
				res, err := stmt.ExecContext(ctx, args...)
				if err != nil {
					c.rollbackQuiet(tx, "execute_many")
					return err
				}
				n, err := res.RowsAffected()
				if err != nil {
					c.rollbackQuiet(tx, "execute_many")
					return err
				}
				total += n
			}

			if err := tx.Commit(); err != nil {
				return err
			}

			c.logger.Debug("批量 SQL 执行成功",
				zap.String("sql", truncateSQL(query)),
				zap.Int("batch_size", len(argsList)),
				zap.Int64("affected_rows", total),
			)
			return nil
		})
		return total, err
	})
}

// Query 执行只读查询，按结果集顺序返回行
func (c *Client) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	return doRetry(ctx, c, "query", query, func(ctx context.Context) ([]Row, error) {
		var result []Row
		err := c.withConn(ctx, func(conn *sql.Conn) error {
			rows, err := conn.QueryContext(ctx, query, args...)
			if err != nil {
				return err
			}
			defer rows.Close()

			result, err = scanRows(rows)
			if err != nil {
				return err
			}

			c.logger.Debug("SQL 查询成功",
				zap.String("sql", truncateSQL(query)),
				zap.Int("params", len(args)),
				zap.Int("result_count", len(result)),
			)
			return nil
		})
		return result, err
	})
}

// QueryOne 执行查询并返回首行，结果集为空时返回 nil（不视为错误）
func (c *Client) QueryOne(ctx context.Context, query string, args ...any) (Row, error) {
	rows, err := c.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// scanRows 把结果集逐行装进列名映射
func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("mysql: read columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("mysql: scan row: %w", err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(values[i])
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// normalizeValue 驱动返回的 []byte 统一转成 string，调用方拿到的
// 值类型与列内容对应，不需要关心传输细节
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

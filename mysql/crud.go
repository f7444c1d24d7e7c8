package mysql

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// =============================================================================
// 🛠️ CRUD 辅助方法
// =============================================================================

// Insert 插入单条记录，返回服务端生成的自增 ID。
// 空 data 在任何网络 I/O 之前被 ValidationError 拒绝。
func (c *Client) Insert(ctx context.Context, table string, data map[string]any) (int64, error) {
	query, args, err := buildInsert(table, data)
	if err != nil {
		return 0, err
	}

	lastID, err := doRetry(ctx, c, "insert", query, func(ctx context.Context) (int64, error) {
		var id int64
		err := c.withConn(ctx, func(conn *sql.Conn) error {
			tx, err := conn.BeginTx(ctx, nil)
			if err != nil {
				return err
			}

			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				c.rollbackQuiet(tx, "insert")
				return err
			}

			id, err = res.LastInsertId()
			if err != nil {
				c.rollbackQuiet(tx, "insert")
				return err
			}

			return tx.Commit()
		})
		return id, err
	})
	if err != nil {
		return 0, err
	}

	c.logger.Debug("记录插入成功",
		zap.String("table", table),
		zap.Int64("last_id", lastID),
		zap.Int("columns", len(data)),
	)
	return lastID, nil
}

// Update 按 where 条件更新记录，返回受影响行数。
// 空 data 与空 where（等于全表更新）都被 ValidationError 拒绝。
func (c *Client) Update(ctx context.Context, table string, data map[string]any, where string, whereArgs ...any) (int64, error) {
	query, args, err := buildUpdate(table, data, where, whereArgs)
	if err != nil {
		return 0, err
	}

	affected, err := c.Execute(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	c.logger.Debug("记录更新成功",
		zap.String("table", table),
		zap.String("where", where),
		zap.Int64("affected_rows", affected),
	)
	return affected, nil
}

// Delete 按 where 条件删除记录，返回受影响行数。
// 空 where 被 ValidationError 拒绝，防止误删全表。
func (c *Client) Delete(ctx context.Context, table string, where string, whereArgs ...any) (int64, error) {
	query, err := buildDelete(table, where)
	if err != nil {
		return 0, err
	}

	affected, err := c.Execute(ctx, query, whereArgs...)
	if err != nil {
		return 0, err
	}

	c.logger.Debug("记录删除成功",
		zap.String("table", table),
		zap.String("where", where),
		zap.Int64("affected_rows", affected),
	)
	return affected, nil
}

// =============================================================================
// 🔧 SQL 构造
// =============================================================================
//
// 列按字典序排列，同一份 data 总是生成同一条 SQL，日志与测试
// 见到的语句文本稳定可比。

func buildInsert(table string, data map[string]any) (string, []any, error) {
	if len(data) == 0 {
		return "", nil, &ValidationError{Reason: "insert data must not be empty"}
	}

	cols := sortedKeys(data)
	args := make([]any, 0, len(cols))
	placeholders := make([]string, len(cols))
	for i, col := range cols {
		placeholders[i] = "?"
		args = append(args, data[col])
	}

	query := "INSERT INTO " + table +
		" (" + strings.Join(cols, ", ") + ")" +
		" VALUES (" + strings.Join(placeholders, ", ") + ")"
	return query, args, nil
}

func buildUpdate(table string, data map[string]any, where string, whereArgs []any) (string, []any, error) {
	if len(data) == 0 {
		return "", nil, &ValidationError{Reason: "update data must not be empty"}
	}
	if strings.TrimSpace(where) == "" {
		return "", nil, &ValidationError{Reason: "update requires a WHERE clause"}
	}

	cols := sortedKeys(data)
	assignments := make([]string, len(cols))
	args := make([]any, 0, len(cols)+len(whereArgs))
	for i, col := range cols {
		assignments[i] = col + " = ?"
		args = append(args, data[col])
	}
	args = append(args, whereArgs...)

	query := "UPDATE " + table +
		" SET " + strings.Join(assignments, ", ") +
		" WHERE " + where
	return query, args, nil
}

func buildDelete(table string, where string) (string, error) {
	if strings.TrimSpace(where) == "" {
		return "", &ValidationError{Reason: "delete requires a WHERE clause"}
	}
	return "DELETE FROM " + table + " WHERE " + where, nil
}

func sortedKeys(data map[string]any) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package mysql

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// 🧪 CRUD 辅助方法测试
// =============================================================================

func TestClient_Insert(t *testing.T) {
	client, mock := newTestClient(t)
	ctx := context.Background()

	// 列按字典序：age 在 name 之前
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (age, name) VALUES (?, ?)")).
		WithArgs(30, "alice").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	id, err := client.Insert(ctx, "users", map[string]any{"name": "alice", "age": 30})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_Insert_EmptyDataRejectedBeforeIO(t *testing.T) {
	client, mock := newTestClient(t)

	_, err := client.Insert(context.Background(), "users", nil)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	// 校验失败不触碰连接池
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_Update(t *testing.T) {
	client, mock := newTestClient(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET age = ?, name = ? WHERE id = ?")).
		WithArgs(31, "bob", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	affected, err := client.Update(ctx, "users", map[string]any{"name": "bob", "age": 31}, "id = ?", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_Update_Validation(t *testing.T) {
	client, mock := newTestClient(t)
	ctx := context.Background()

	_, err := client.Update(ctx, "users", nil, "id = ?", 1)
	assert.True(t, IsValidation(err))

	_, err = client.Update(ctx, "users", map[string]any{"a": 1}, "")
	assert.True(t, IsValidation(err))

	_, err = client.Update(ctx, "users", map[string]any{"a": 1}, "   ")
	assert.True(t, IsValidation(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_Delete(t *testing.T) {
	client, mock := newTestClient(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE user_id = ?")).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	affected, err := client.Delete(ctx, "sessions", "user_id = ?", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(4), affected)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_Delete_EmptyWhereRejected(t *testing.T) {
	client, mock := newTestClient(t)

	// 空 where 等于全表删除，触网前拒绝
	_, err := client.Delete(context.Background(), "sessions", "")
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

// =============================================================================
// 🧪 SQL 构造性质
// =============================================================================

func TestBuildInsert_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("placeholder count matches column count", prop.ForAll(
		func(keys []string) bool {
			data := make(map[string]any, len(keys))
			for i, k := range keys {
				data[k] = i
			}

			query, args, err := buildInsert("t", data)
			if len(data) == 0 {
				return IsValidation(err)
			}
			if err != nil {
				return false
			}
			return strings.Count(query, "?") == len(data) && len(args) == len(data)
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.Property("same data always yields same statement", prop.ForAll(
		func(keys []string) bool {
			if len(keys) == 0 {
				return true
			}
			data := make(map[string]any, len(keys))
			for i, k := range keys {
				data[k] = i
			}

			first, _, err := buildInsert("t", data)
			if err != nil {
				return false
			}
			for i := 0; i < 5; i++ {
				next, _, err := buildInsert("t", data)
				if err != nil || next != first {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(4, gen.Identifier()),
	))

	properties.TestingRun(t)
}

func TestBuildUpdate_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("empty where always rejected", prop.ForAll(
		func(key string, blanks int) bool {
			data := map[string]any{key: 1}
			where := strings.Repeat(" ", blanks%4)
			_, _, err := buildUpdate("t", data, where, nil)
			return IsValidation(err)
		},
		gen.Identifier(),
		gen.IntRange(0, 3),
	))

	properties.Property("where args follow data args", prop.ForAll(
		func(keys []string) bool {
			if len(keys) == 0 {
				return true
			}
			data := make(map[string]any, len(keys))
			for i, k := range keys {
				data[k] = i
			}

			_, args, err := buildUpdate("t", data, "id = ?", []any{"last"})
			if err != nil {
				return false
			}
			return len(args) == len(data)+1 && args[len(args)-1] == "last"
		},
		gen.SliceOfN(3, gen.Identifier()),
	))

	properties.TestingRun(t)
}

func TestBuildDelete(t *testing.T) {
	query, err := buildDelete("sessions", "expired = 1")
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM sessions WHERE expired = 1", query)

	_, err = buildDelete("sessions", "")
	assert.True(t, IsValidation(err))
}

func TestBuildInsert_ColumnOrder(t *testing.T) {
	data := map[string]any{"c": 3, "a": 1, "b": 2}

	query, args, err := buildInsert("t", data)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO t (a, b, c) VALUES (?, ?, ?)", query)
	assert.Equal(t, []any{1, 2, 3}, args)
}

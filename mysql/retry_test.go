package mysql

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"
)

// =============================================================================
// 🧪 重试策略测试
// =============================================================================

func TestClient_Execute_RetriesTransientThenSucceeds(t *testing.T) {
	client, mock := newTestClient(t)
	ctx := context.Background()

	var delays []time.Duration
	client.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	// 前两次尝试在 Begin 阶段遭遇连接级故障，第三次成功
	mock.ExpectBegin().WillReturnError(mysqldrv.ErrInvalidConn)
	mock.ExpectBegin().WillReturnError(mysqldrv.ErrInvalidConn)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE expired = 1")).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	affected, err := client.Execute(ctx, "DELETE FROM sessions WHERE expired = 1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)

	// delay_i = base * 2^i
	base := client.policy.BaseDelay
	require.Len(t, delays, 2)
	assert.Equal(t, base, delays[0])
	assert.Equal(t, base*2, delays[1])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_Execute_TransientExhaustion(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.AcquireTimeout = time.Second
	pool := newPool(mockDB, cfg, zap.NewNop())
	client := newClient(pool, cfg, zap.NewNop())
	client.sleep = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(func() { _ = client.Close() })

	// 每次尝试都是一次全新借用：恰好 3 次 checkout ping、3 次 Begin
	for i := 0; i < 3; i++ {
		mock.ExpectPing()
		mock.ExpectBegin().WillReturnError(mysqldrv.ErrInvalidConn)
	}

	_, err = client.Execute(context.Background(), "UPDATE t SET a = 1 WHERE id = 2")
	require.Error(t, err)

	assert.True(t, IsRetryExhausted(err))
	var exhausted *RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, err, mysqldrv.ErrInvalidConn)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_Execute_NonTransientSingleAttempt(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.AcquireTimeout = time.Second
	pool := newPool(mockDB, cfg, zap.NewNop())
	client := newClient(pool, cfg, zap.NewNop())
	client.sleep = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(func() { _ = client.Close() })

	mock.ExpectPing()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE t SET a = ?")).
		WillReturnError(newMySQLError(1054, "unknown column"))
	mock.ExpectRollback()

	_, err = client.Execute(context.Background(), "UPDATE t SET a = ?", 1)
	require.Error(t, err)
	assert.True(t, IsStatementError(err))

	// 单次借用，无重试
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_Execute_OnRetryCallback(t *testing.T) {
	var attempts []int
	policy := DefaultRetryPolicy()
	policy.OnRetry = func(attempt int, _ time.Duration, err error) {
		attempts = append(attempts, attempt)
		assert.Error(t, err)
	}

	client, mock := newTestClient(t, WithRetryPolicy(policy))

	mock.ExpectBegin().WillReturnError(mysqldrv.ErrInvalidConn)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM t WHERE id = ?")).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := client.Execute(context.Background(), "DELETE FROM t WHERE id = ?", 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, attempts)
}

func TestClient_RetryCancelledByContext(t *testing.T) {
	client, mock := newTestClient(t)
	client.sleep = sleepContext

	ctx, cancel := context.WithCancel(context.Background())

	mock.ExpectBegin().WillReturnError(mysqldrv.ErrInvalidConn)
	cancel()

	_, err := client.Execute(ctx, "DELETE FROM t WHERE id = 1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

// =============================================================================
// 🧪 退避计算
// =============================================================================

func TestRetryPolicy_Backoff(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond}

	assert.Equal(t, 500*time.Millisecond, p.Backoff(0))
	assert.Equal(t, 1*time.Second, p.Backoff(1))
	assert.Equal(t, 2*time.Second, p.Backoff(2))
}

func TestRetryPolicy_BackoffLaw(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		base := time.Duration(rapid.Int64Range(1, int64(time.Second)).Draw(rt, "base"))
		attempt := rapid.IntRange(0, 16).Draw(rt, "attempt")
		maxDelay := time.Duration(rapid.Int64Range(0, int64(time.Minute)).Draw(rt, "max_delay"))

		p := RetryPolicy{BaseDelay: base, MaxDelay: maxDelay}
		got := p.Backoff(attempt)

		want := base << uint(attempt)
		if maxDelay > 0 && want > maxDelay {
			want = maxDelay
		}
		if got != want {
			rt.Fatalf("Backoff(%d) = %v, want %v (base=%v max=%v)", attempt, got, want, base, maxDelay)
		}
	})
}

// =============================================================================
// 🧪 错误分类
// =============================================================================

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"driver invalid conn", mysqldrv.ErrInvalidConn, true},
		{"wrapped invalid conn", wrapErr(mysqldrv.ErrInvalidConn), true},
		{"pool exhausted", ErrPoolExhausted, true},
		{"pool closed", ErrPoolClosed, false},
		{"tx closed", ErrTxClosed, false},
		{"server statement error", newMySQLError(1064, "syntax error"), false},
		{"validation", &ValidationError{Reason: "empty"}, false},
		{"reset by peer text", errTransientText("read tcp: connection reset by peer"), true},
		{"broken pipe text", errTransientText("write: broken pipe"), true},
		{"server gone away text", errTransientText("MySQL server has gone away"), true},
		{"plain application error", errTransientText("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

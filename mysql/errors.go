package mysql

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"

	mysqldrv "github.com/go-sql-driver/mysql"
)

// =============================================================================
// ⚠️ 错误定义与分类
// =============================================================================

var (
	// ErrPoolClosed 连接池已关闭，后续 Acquire 一律失败
	ErrPoolClosed = errors.New("mysql: pool is closed")

	// ErrPoolExhausted 在等待超时内未能获取到连接
	ErrPoolExhausted = errors.New("mysql: pool exhausted")

	// ErrTxClosed 事务已提交或回滚，作用域不可复用
	ErrTxClosed = errors.New("mysql: transaction already closed")

	// ErrNotInitialized 全局客户端未经 InitDefault 初始化
	ErrNotInitialized = errors.New("mysql: default client not initialized")
)

// ValidationError 写辅助方法在任何网络 I/O 之前拒绝非法入参
// （空 data、空 where），避免误操作全表。
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "mysql: " + e.Reason
}

// IsValidation 判断错误是否为入参校验失败
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RetryExhaustedError 瞬时错误重试耗尽后包装最后一次底层错误
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("mysql: %d attempts exhausted: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// IsRetryExhausted 判断错误是否为重试耗尽
func IsRetryExhausted(err error) bool {
	var re *RetryExhaustedError
	return errors.As(err, &re)
}

// IsStatementError 判断错误是否来自服务端对语句本身的拒绝
// （语法错误、约束冲突、类型错误）。服务端既然给出了应答，
// 连接是完好的，重试没有意义。
func IsStatementError(err error) bool {
	var myErr *mysqldrv.MySQLError
	return errors.As(err, &myErr)
}

// transientSubstrings 驱动与网络栈未给出类型化错误时的兜底匹配
var transientSubstrings = []string{
	"broken pipe",
	"connection reset",
	"connection refused",
	"i/o timeout",
	"invalid connection",
	"bad connection",
	"unexpected eof",
	"server has gone away",
}

// IsTransient 判断错误是否为连接级瞬时故障。
// 瞬时故障换一条新连接重试有望成功；语句级错误与校验错误不在此列。
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// 自身的终态错误不重试
	if errors.Is(err, ErrPoolClosed) || errors.Is(err, ErrTxClosed) {
		return false
	}

	// 等待连接超时：下一次尝试可能正好有连接空出
	if errors.Is(err, ErrPoolExhausted) {
		return true
	}

	// 服务端应答过的语句错误永不重试
	if IsStatementError(err) {
		return false
	}

	// database/sql 与驱动层的坏连接信号
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, mysqldrv.ErrInvalidConn) {
		return true
	}

	// 连接中断时常见的 EOF
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	// 网络层错误（含超时）
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// 常见 socket 级 errno
	for _, errno := range []syscall.Errno{
		syscall.ECONNRESET,
		syscall.ECONNREFUSED,
		syscall.EPIPE,
		syscall.ETIMEDOUT,
		syscall.ENETUNREACH,
		syscall.EHOSTUNREACH,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, s := range transientSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}

	return false
}

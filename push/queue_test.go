package push

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/goutil/config"
)

// =============================================================================
// 🧪 推送队列测试
// =============================================================================

// fakeSender 记录发送内容的 Sender 实现
type fakeSender struct {
	mu    sync.Mutex
	sent  []Message
	fail  bool
	block chan struct{}
}

func (f *fakeSender) Send(ctx context.Context, text, desp string) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.fail {
		return errors.New("channel down")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, Message{Text: text, Desp: desp})
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestQueue(t *testing.T, sender Sender, mutate func(*config.PushConfig)) *Queue {
	t.Helper()

	cfg := config.DefaultPushConfig()
	cfg.RatePerSecond = 0 // 测试默认不限速
	cfg.Workers = 2
	if mutate != nil {
		mutate(&cfg)
	}

	q := NewQueue(cfg, sender, zap.NewNop())
	t.Cleanup(func() { q.Close() })
	return q
}

func TestQueue_EnqueueAndDeliver(t *testing.T) {
	sender := &fakeSender{}
	q := newTestQueue(t, sender, nil)

	id, err := q.Enqueue("标题", "正文")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.Eventually(t, func() bool { return sender.count() == 1 },
		2*time.Second, 10*time.Millisecond)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Equal(t, "标题", sender.sent[0].Text)
	assert.Equal(t, "正文", sender.sent[0].Desp)
}

func TestQueue_UniqueMessageIDs(t *testing.T) {
	sender := &fakeSender{}
	q := newTestQueue(t, sender, nil)

	id1, err := q.Enqueue("a", "")
	require.NoError(t, err)
	id2, err := q.Enqueue("b", "")
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
}

func TestQueue_FullReturnsError(t *testing.T) {
	blocked := make(chan struct{})
	sender := &fakeSender{block: blocked}
	q := newTestQueue(t, sender, func(c *config.PushConfig) {
		c.QueueSize = 1
		c.Workers = 1
	})

	// worker 卡在第一条上，第二条占满队列，第三条被拒绝
	_, err := q.Enqueue("first", "")
	require.NoError(t, err)

	// 等 worker 取走第一条
	require.Eventually(t, func() bool { return len(q.ch) == 0 },
		time.Second, 5*time.Millisecond)

	_, err = q.Enqueue("second", "")
	require.NoError(t, err)

	_, err = q.Enqueue("third", "")
	assert.ErrorIs(t, err, ErrQueueFull)

	stats := q.GetStats()
	assert.Equal(t, int64(1), stats.Dropped)

	close(blocked)
}

func TestQueue_CloseDrainsPending(t *testing.T) {
	sender := &fakeSender{}
	cfg := config.DefaultPushConfig()
	cfg.RatePerSecond = 0
	cfg.Workers = 1
	q := NewQueue(cfg, sender, zap.NewNop())

	for i := 0; i < 5; i++ {
		_, err := q.Enqueue("msg", "")
		require.NoError(t, err)
	}

	require.NoError(t, q.Close())
	assert.Equal(t, 5, sender.count())

	// 关闭后拒绝新消息，重复关闭无副作用
	_, err := q.Enqueue("late", "")
	assert.ErrorIs(t, err, ErrQueueClosed)
	require.NoError(t, q.Close())
}

func TestQueue_FailuresCounted(t *testing.T) {
	sender := &fakeSender{fail: true}
	q := newTestQueue(t, sender, nil)

	_, err := q.Enqueue("t", "d")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return q.GetStats().Failed == 1 },
		2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(0), q.GetStats().Sent)
}

func TestQueue_RateLimited(t *testing.T) {
	sender := &fakeSender{}
	q := newTestQueue(t, sender, func(c *config.PushConfig) {
		c.RatePerSecond = 20
		c.Workers = 1
	})

	start := time.Now()
	for i := 0; i < 4; i++ {
		_, err := q.Enqueue("m", "")
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return sender.count() == 4 },
		2*time.Second, 5*time.Millisecond)

	// 20/s 限速下 4 条至少需要 ~150ms（首条立即发出）
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

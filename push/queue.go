// =============================================================================
// 📨 Goutil 异步推送队列
// =============================================================================
// 带限速的异步发送队列：消息入队后由固定数量的 worker 协程消费，
// 通过令牌桶限制发送速率，避免触发推送通道的频控。
// =============================================================================
package push

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/BaSui01/goutil/config"
	"github.com/BaSui01/goutil/internal/metrics"
)

var (
	// ErrQueueClosed 队列已关闭
	ErrQueueClosed = errors.New("push: queue is closed")
	// ErrQueueFull 队列已满
	ErrQueueFull = errors.New("push: queue is full")
)

// Message 一条待发送的推送消息
type Message struct {
	ID   string
	Text string
	Desp string
}

// Queue 异步推送队列
type Queue struct {
	sender  Sender
	logger  *zap.Logger
	metrics *metrics.Collector

	ch      chan Message
	limiter *rate.Limiter
	group   *errgroup.Group
	cancel  context.CancelFunc
	closed  atomic.Bool

	// 统计
	enqueued atomic.Int64
	sent     atomic.Int64
	failed   atomic.Int64
	dropped  atomic.Int64
}

// QueueOption 配置 Queue 的可选项
type QueueOption func(*Queue)

// WithQueueMetrics 注入指标收集器
func WithQueueMetrics(m *metrics.Collector) QueueOption {
	return func(q *Queue) {
		q.metrics = m
	}
}

// NewQueue 创建推送队列并启动 worker 协程。
func NewQueue(cfg config.PushConfig, sender Sender, logger *zap.Logger, opts ...QueueOption) *Queue {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 2
	}

	limit := rate.Limit(cfg.RatePerSecond)
	if cfg.RatePerSecond <= 0 {
		limit = rate.Inf
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	q := &Queue{
		sender:  sender,
		logger:  logger.With(zap.String("component", "push_queue")),
		ch:      make(chan Message, queueSize),
		limiter: rate.NewLimiter(limit, 1),
		group:   group,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(q)
	}

	for i := 0; i < workers; i++ {
		group.Go(func() error {
			q.worker(ctx)
			return nil
		})
	}

	q.logger.Info("push queue started",
		zap.Int("queue_size", queueSize),
		zap.Int("workers", workers),
		zap.Float64("rate_per_second", cfg.RatePerSecond),
	)

	return q
}

// Enqueue 将消息放入队列，队列满时立即返回 ErrQueueFull。
// 返回消息 ID 用于日志追踪。
func (q *Queue) Enqueue(text, desp string) (string, error) {
	if q.closed.Load() {
		return "", ErrQueueClosed
	}

	msg := Message{
		ID:   uuid.NewString(),
		Text: text,
		Desp: desp,
	}

	select {
	case q.ch <- msg:
		q.enqueued.Add(1)
		q.updateDepth()
		return msg.ID, nil
	default:
		q.dropped.Add(1)
		return "", ErrQueueFull
	}
}

// worker 消费队列中的消息，按限速发送。
func (q *Queue) worker(ctx context.Context) {
	for {
		select {
		case msg, ok := <-q.ch:
			if !ok {
				return
			}
			q.updateDepth()
			q.deliver(ctx, msg)
		case <-ctx.Done():
			// 关闭时排空剩余消息
			for {
				select {
				case msg, ok := <-q.ch:
					if !ok {
						return
					}
					q.deliver(context.Background(), msg)
				default:
					return
				}
			}
		}
	}
}

// deliver 发送单条消息并记录结果。
func (q *Queue) deliver(ctx context.Context, msg Message) {
	if err := q.limiter.Wait(ctx); err != nil {
		// 关闭中，不再限速直接发送剩余消息
		ctx = context.Background()
	}

	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := q.sender.Send(sendCtx, msg.Text, msg.Desp); err != nil {
		q.failed.Add(1)
		if q.metrics != nil {
			q.metrics.RecordPushFailed("xiatui")
		}
		q.logger.Warn("push delivery failed",
			zap.String("message_id", msg.ID),
			zap.String("text", msg.Text),
			zap.Error(err),
		)
		return
	}

	q.sent.Add(1)
	if q.metrics != nil {
		q.metrics.RecordPushSent("xiatui")
	}
	q.logger.Debug("push delivered", zap.String("message_id", msg.ID))
}

func (q *Queue) updateDepth() {
	if q.metrics != nil {
		q.metrics.SetPushQueueDepth(len(q.ch))
	}
}

// Close 关闭队列：停止接收新消息，发送完已入队的消息后返回。
// 可重复调用。
func (q *Queue) Close() error {
	if q.closed.Swap(true) {
		return nil
	}

	close(q.ch)
	err := q.group.Wait()
	q.cancel()

	q.logger.Info("push queue closed",
		zap.Int64("sent", q.sent.Load()),
		zap.Int64("failed", q.failed.Load()),
		zap.Int64("dropped", q.dropped.Load()),
	)
	return err
}

// Stats 队列统计信息
type Stats struct {
	Enqueued int64 `json:"enqueued"`
	Sent     int64 `json:"sent"`
	Failed   int64 `json:"failed"`
	Dropped  int64 `json:"dropped"`
	Queued   int   `json:"queued"`
}

// GetStats 返回当前统计信息。
func (q *Queue) GetStats() Stats {
	return Stats{
		Enqueued: q.enqueued.Load(),
		Sent:     q.sent.Load(),
		Failed:   q.failed.Load(),
		Dropped:  q.dropped.Load(),
		Queued:   len(q.ch),
	}
}

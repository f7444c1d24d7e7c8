// =============================================================================
// 📨 Goutil 微信推送通知器
// =============================================================================
// 通过虾推啥（xtuis.cn）通道发送微信提醒，text 为标题，desp 为正文。
// =============================================================================
package push

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/goutil/config"
)

// defaultEndpoint 虾推啥官方端点，{token} 会被替换为实际 token。
const defaultEndpoint = "https://wx.xtuis.cn"

// ErrEmptyToken 未配置推送 token
var ErrEmptyToken = errors.New("push: token is empty")

// Sender 发送一条推送通知。Queue 通过该接口解耦具体通道。
type Sender interface {
	Send(ctx context.Context, text, desp string) error
}

// Notifier 虾推啥推送通知器，实现 Sender。
type Notifier struct {
	token    string
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewNotifier 创建推送通知器。
func NewNotifier(cfg config.PushConfig, logger *zap.Logger) (*Notifier, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrEmptyToken
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Notifier{
		token:    cfg.Token,
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With(zap.String("component", "push")),
	}, nil
}

// Send 发送一条推送。text 为消息标题，desp 为正文（支持 Markdown）。
func (n *Notifier) Send(ctx context.Context, text, desp string) error {
	form := url.Values{}
	form.Set("text", text)
	form.Set("desp", desp)

	reqURL := fmt.Sprintf("%s/%s.send", n.endpoint, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Error("push request failed", zap.String("text", text), zap.Error(err))
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		n.logger.Error("push rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return fmt.Errorf("push rejected: status %d", resp.StatusCode)
	}

	n.logger.Debug("push delivered", zap.String("text", text))
	return nil
}

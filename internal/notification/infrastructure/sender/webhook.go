// Package sender 通知发送的具体实现。
package sender

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/DominikK03/GiftCardSystem-sub001/internal/notification/domain"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/logger"
)

// SignatureHeader 携带请求体 HMAC-SHA256 签名（十六进制）的响应头
const SignatureHeader = "X-Webhook-Signature"

// WebhookSender 向租户端点投递签名后的 JSON 负载。
type WebhookSender struct {
	client *http.Client
}

func NewWebhookSender() domain.Sender {
	return &WebhookSender{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *WebhookSender) Send(ctx context.Context, url string, secret string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(secret, payload))

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}

	logger.Debug(ctx, "webhook delivered", "url", url, "status", resp.StatusCode)
	return nil
}

// Sign 计算负载的 HMAC-SHA256 签名，十六进制编码
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

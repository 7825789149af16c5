// Package webhook 将通知事件投递到外部 HTTP 接收端
package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client 带鉴权与超时的 webhook POST 客户端
type Client struct {
	endpoint   string
	token      string
	headers    map[string]string
	httpClient *http.Client
}

// NewClient 校验 endpoint 后创建客户端，token 为空则不带 Authorization
func NewClient(endpoint, token string, headers map[string]string, timeout time.Duration) (*Client, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %q: %w", endpoint, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid webhook url %q: scheme must be http or https", endpoint)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("invalid webhook url %q: missing host", endpoint)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		token:      token,
		headers:    headers,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// PostJSON 发送一段已序列化好的 JSON，非 2xx 视为失败
func (c *Client) PostJSON(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for name, value := range c.headers {
		req.Header.Set(name, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook rejected with HTTP %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

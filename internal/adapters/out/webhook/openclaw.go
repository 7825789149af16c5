package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Darkatse/StatusHub/internal/domain/entity"
	"github.com/Darkatse/StatusHub/internal/ports/out"
)

// 唤醒模式
const (
	WakeModeNow           = "now"
	WakeModeNextHeartbeat = "next-heartbeat"
)

// MessageOptions 通知文案的装饰配置
type MessageOptions struct {
	Prefix string
	Suffix string
}

// OpenClawWakeSender 以 OpenClaw 唤醒格式投递事件
// payload: {"text": "...", "mode": "now"}
type OpenClawWakeSender struct {
	client  *Client
	mode    string
	message MessageOptions
	catalog out.GameCatalog // 可为 nil，表示不做游戏详情富化
	timeout time.Duration
}

type wakePayload struct {
	Text string `json:"text"`
	Mode string `json:"mode"`
}

// NewOpenClawWakeSender 创建唤醒发送器，mode 非法时回退为 now
func NewOpenClawWakeSender(client *Client, mode string, message MessageOptions, catalog out.GameCatalog) *OpenClawWakeSender {
	if mode != WakeModeNow && mode != WakeModeNextHeartbeat {
		mode = WakeModeNow
	}
	return &OpenClawWakeSender{
		client:  client,
		mode:    mode,
		message: message,
		catalog: catalog,
		timeout: 8 * time.Second,
	}
}

// Send 渲染文案并 POST 到唤醒端点
func (s *OpenClawWakeSender) Send(ctx context.Context, event *entity.NotificationEvent) error {
	payload, err := json.Marshal(wakePayload{
		Text: s.renderText(ctx, event),
		Mode: s.mode,
	})
	if err != nil {
		return fmt.Errorf("marshal wake payload: %w", err)
	}
	return s.client.PostJSON(ctx, payload)
}

// renderText 拼接前缀、事件正文、游戏详情与后缀
// 游戏详情查询失败只降级为无富化文案
func (s *OpenClawWakeSender) renderText(ctx context.Context, event *entity.NotificationEvent) string {
	var b strings.Builder
	if s.message.Prefix != "" {
		b.WriteString(s.message.Prefix)
		b.WriteString(" ")
	}
	b.WriteString(event.Text())

	if line := s.gameLine(ctx, event.Activity); line != "" {
		b.WriteString("\n")
		b.WriteString(line)
	}

	if s.message.Suffix != "" {
		b.WriteString(" ")
		b.WriteString(s.message.Suffix)
	}
	return b.String()
}

func (s *OpenClawWakeSender) gameLine(ctx context.Context, activity *entity.ActivityContext) string {
	if s.catalog == nil || activity == nil || activity.SteamAppID == 0 {
		return ""
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	details, err := s.catalog.FetchGameDetails(lookupCtx, activity.SteamAppID)
	if err != nil {
		zap.L().Warn("enrich game details failed",
			zap.Uint32("app_id", activity.SteamAppID), zap.Error(err))
		return ""
	}
	if details == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Game: %s", details.Name)
	if details.CurrentPlayers != nil {
		fmt.Fprintf(&b, " (%d players online)", *details.CurrentPlayers)
	}
	if details.ShortDescription != "" {
		b.WriteString("\n")
		b.WriteString(details.ShortDescription)
	}
	return b.String()
}

var _ out.NotificationSender = (*OpenClawWakeSender)(nil)

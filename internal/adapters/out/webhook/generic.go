package webhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Darkatse/StatusHub/internal/domain/entity"
	"github.com/Darkatse/StatusHub/internal/ports/out"
)

// GenericJSONSender 把事件结构体原样 POST 出去，交给接收端自行解析
type GenericJSONSender struct {
	client *Client
}

func NewGenericJSONSender(client *Client) *GenericJSONSender {
	return &GenericJSONSender{client: client}
}

func (s *GenericJSONSender) Send(ctx context.Context, event *entity.NotificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification event: %w", err)
	}
	return s.client.PostJSON(ctx, payload)
}

var _ out.NotificationSender = (*GenericJSONSender)(nil)

package in

import (
	"context"
	"time"

	"github.com/Darkatse/StatusHub/internal/domain/entity"
)

// PresenceSnapshot 追踪器当前状态的一致性快照
type PresenceSnapshot struct {
	Known          bool                    `json:"known"` // 是否已收到过观察
	Status         entity.Status           `json:"status,omitempty"`
	GuildID        uint64                  `json:"guild_id,omitempty"`
	Activity       *entity.ActivityContext `json:"activity,omitempty"`
	AnchorKey      string                  `json:"anchor_key,omitempty"`
	AnchorSince    time.Time               `json:"anchor_since,omitempty"`
	AnchorSequence int64                   `json:"anchor_sequence"`
	UpdatedAt      time.Time               `json:"updated_at,omitempty"`
}

// PresenceUseCase 在线状态追踪用例接口
type PresenceUseCase interface {
	// Observe 处理一次上游观察，需要发事件时返回事件，否则返回 nil
	// 调用方负责在调用前过滤到目标身份
	Observe(ctx context.Context, obs entity.PresenceObservation) *entity.NotificationEvent
	// CollectReminder 按当前锚点计算本轮应否发提醒，不发返回 nil
	CollectReminder(now time.Time) *entity.NotificationEvent
	// Snapshot 返回一致性快照，用于查询接口
	Snapshot() PresenceSnapshot
}

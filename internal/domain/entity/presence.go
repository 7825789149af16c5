package entity

import (
	"fmt"
	"strings"
)

// Status 归一化后的状态枚举
type Status string

const (
	StatusOnline    Status = "online"
	StatusIdle      Status = "idle"
	StatusDnd       Status = "dnd"
	StatusOffline   Status = "offline"
	StatusInvisible Status = "invisible"
	StatusUnknown   Status = "unknown"
)

// ParseStatus 把上游原始状态映射到封闭枚举，未知值一律归为 unknown
func ParseStatus(raw string) Status {
	switch strings.ToLower(raw) {
	case "online":
		return StatusOnline
	case "idle":
		return StatusIdle
	case "dnd":
		return StatusDnd
	case "offline":
		return StatusOffline
	case "invisible":
		return StatusInvisible
	default:
		return StatusUnknown
	}
}

// 活动类型
const (
	ActivityKindPlaying   = "playing"
	ActivityKindStreaming = "streaming"
	ActivityKindListening = "listening"
	ActivityKindWatching  = "watching"
	ActivityKindCustom    = "custom"
	ActivityKindCompeting = "competing"
)

// ActivityContext 单个活动的上下文，相等性按结构比较
type ActivityContext struct {
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	Details    string `json:"details,omitempty"`
	State      string `json:"state,omitempty"`
	SteamAppID uint32 `json:"steam_app_id,omitempty"` // 0 表示无关联
}

// PresenceObservation 一次上游观察，不落盘
type PresenceObservation struct {
	UserID     uint64
	GuildID    uint64 // 0 表示不限定 guild
	RawStatus  string
	Activities []ActivityContext
}

// FingerprintActivities 把完整活动列表确定性地编码为指纹字符串
// 空列表返回空串，用来区分"无活动"、"活动变化"和"相同活动重复上报"
func FingerprintActivities(activities []ActivityContext) string {
	if len(activities) == 0 {
		return ""
	}

	parts := make([]string, 0, len(activities))
	for _, a := range activities {
		parts = append(parts, fmt.Sprintf("%s|%s|%s|%s|%d",
			a.Kind, a.Name, a.Details, a.State, a.SteamAppID))
	}
	return strings.Join(parts, ";")
}

// PrimaryActivity 选出用于展示和补全的主活动：
// playing 优先，其次 streaming/competing，再退到列表首个，没有则返回 nil
func PrimaryActivity(activities []ActivityContext) *ActivityContext {
	if len(activities) == 0 {
		return nil
	}

	for i := range activities {
		if activities[i].Kind == ActivityKindPlaying {
			return &activities[i]
		}
	}
	for i := range activities {
		switch activities[i].Kind {
		case ActivityKindStreaming, ActivityKindCompeting:
			return &activities[i]
		}
	}
	return &activities[0]
}

// StatusKey 持久化状态的复合键，guildID 为 0 时用通配符
func StatusKey(userID, guildID uint64) string {
	if guildID == 0 {
		return fmt.Sprintf("discord:%d:*", userID)
	}
	return fmt.Sprintf("discord:%d:%d", userID, guildID)
}

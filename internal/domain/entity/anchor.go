package entity

import (
	"fmt"
	"time"
)

// ReminderPolicy 提醒锚点派生策略
type ReminderPolicy struct {
	Enabled          bool // 总开关
	RequireSteamApp  bool // 仅当主活动带 Steam AppID 时才有锚点
	RichPresenceOnly bool // 无活动时不派生锚点
}

// ReminderAnchor 提醒锚点：键、起始时间和上次触发的序号
// 序号从 0 起，0 表示从未触发
type ReminderAnchor struct {
	Key          string
	StartedAt    time.Time
	LastSequence int64
}

// AnchorKey 按策略从当前状态和主活动派生锚点键，空串表示无锚点
// 任何导致键变化的输入变化都会让调用方重置锚点，
// 保证提醒节奏度量的始终是"当前状态"的持续时间
func (p ReminderPolicy) AnchorKey(status Status, primary *ActivityContext) string {
	if !p.Enabled {
		return ""
	}
	if p.RichPresenceOnly && primary == nil {
		return ""
	}
	if p.RequireSteamApp {
		if primary == nil || primary.SteamAppID == 0 {
			return ""
		}
		return fmt.Sprintf("%s:%d:%s", primary.Kind, primary.SteamAppID, status)
	}

	kind := "none"
	if primary != nil {
		kind = primary.Kind
	}
	return fmt.Sprintf("%s:%s", kind, status)
}

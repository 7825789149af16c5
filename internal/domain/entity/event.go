package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// 事件来源标记
const (
	EventSourceStatus   = "discord.status"
	EventSourceReminder = "discord.reminder"
)

// ReminderMeta 提醒事件附带的元数据
type ReminderMeta struct {
	ElapsedSeconds  int64 `json:"elapsed_seconds"`
	IntervalSeconds int64 `json:"interval_seconds"`
	Sequence        int64 `json:"sequence"`
}

// NotificationEvent 投递到 sink 的通知事件，构造后不可变
type NotificationEvent struct {
	ID             string           `json:"id"`
	Source         string           `json:"source"`
	UserID         uint64           `json:"user_id"`
	GuildID        uint64           `json:"guild_id,omitempty"`
	PreviousStatus Status           `json:"previous_status,omitempty"`
	CurrentStatus  Status           `json:"current_status"`
	Activity       *ActivityContext `json:"activity,omitempty"`
	Reminder       *ReminderMeta    `json:"reminder,omitempty"`
	ObservedAt     time.Time        `json:"observed_at"`
}

// NewStatusEvent 构造状态变更事件，previous 为空串表示首次观察
func NewStatusEvent(userID, guildID uint64, previous, current Status, activity *ActivityContext) *NotificationEvent {
	return &NotificationEvent{
		ID:             uuid.NewString(),
		Source:         EventSourceStatus,
		UserID:         userID,
		GuildID:        guildID,
		PreviousStatus: previous,
		CurrentStatus:  current,
		Activity:       activity,
		ObservedAt:     time.Now().UTC(),
	}
}

// NewReminderEvent 构造周期提醒事件，不携带 previous_status
func NewReminderEvent(userID, guildID uint64, current Status, activity *ActivityContext, meta ReminderMeta) *NotificationEvent {
	return &NotificationEvent{
		ID:            uuid.NewString(),
		Source:        EventSourceReminder,
		UserID:        userID,
		GuildID:       guildID,
		CurrentStatus: current,
		Activity:      activity,
		Reminder:      &meta,
		ObservedAt:    time.Now().UTC(),
	}
}

// Text 渲染人类可读文本，不含外部补全信息
func (e *NotificationEvent) Text() string {
	if e.Reminder != nil {
		minutes := e.Reminder.ElapsedSeconds / 60
		if e.Activity != nil {
			return fmt.Sprintf("Discord status reminder: user %d still %s playing %s for %d minutes (reminder #%d)",
				e.UserID, e.CurrentStatus, e.Activity.Name, minutes, e.Reminder.Sequence)
		}
		return fmt.Sprintf("Discord status reminder: user %d still %s for %d minutes (reminder #%d)",
			e.UserID, e.CurrentStatus, minutes, e.Reminder.Sequence)
	}

	previous := string(e.PreviousStatus)
	if previous == "" {
		previous = "unknown"
	}
	if e.GuildID != 0 {
		return fmt.Sprintf("Discord status changed: user %d in guild %d from %s to %s at %s",
			e.UserID, e.GuildID, previous, e.CurrentStatus, e.ObservedAt.Format(time.RFC3339))
	}
	return fmt.Sprintf("Discord status changed: user %d from %s to %s at %s",
		e.UserID, previous, e.CurrentStatus, e.ObservedAt.Format(time.RFC3339))
}

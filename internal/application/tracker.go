package application

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Darkatse/StatusHub/internal/domain/entity"
	"github.com/Darkatse/StatusHub/internal/ports/in"
	"github.com/Darkatse/StatusHub/internal/ports/out"
)

// TrackerConfig 追踪器行为配置
type TrackerConfig struct {
	UserID               uint64
	GuildID              uint64 // 0 表示不限定，持久化键随之取通配形式
	EmitInitialStatus    bool   // 首次观察是否发事件
	EmitOnActivityChange bool   // 活动指纹变化是否发事件
	RichPresenceOnly     bool   // 仅在有活动时才发事件
	ReminderPolicy       entity.ReminderPolicy
	ReminderInterval     time.Duration
}

// PresenceTracker 在线状态追踪器
// 单身份的权威内存视图，观察回调和提醒定时器都经由同一把锁串行化；
// 临界区内只做读改写，不做任何 I/O
type PresenceTracker struct {
	cfg         TrackerConfig
	statusStore out.StatusStore

	mu          sync.Mutex
	known       bool // 是否已有状态（含重启恢复的种子）
	status      entity.Status
	guildID     uint64
	activity    *entity.ActivityContext
	fingerprint string
	anchor      entity.ReminderAnchor
	updatedAt   time.Time
}

// NewPresenceTracker 创建追踪器，statusStore 可为 nil 表示不持久化
// 若持久层有上次状态则用作种子，重启后相同状态的首次观察不会重复播报
func NewPresenceTracker(cfg TrackerConfig, statusStore out.StatusStore) *PresenceTracker {
	t := &PresenceTracker{cfg: cfg, statusStore: statusStore}

	if statusStore != nil {
		key := entity.StatusKey(cfg.UserID, cfg.GuildID)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if status, ok := statusStore.GetStatus(ctx, key); ok {
			t.known = true
			t.status = status
			zap.L().Info("recovered last status from store",
				zap.String("key", key),
				zap.String("status", string(status)))
		}
	}
	return t
}

// Observe 处理一次上游观察
func (t *PresenceTracker) Observe(ctx context.Context, obs entity.PresenceObservation) *entity.NotificationEvent {
	next := entity.ParseStatus(obs.RawStatus)
	fingerprint := entity.FingerprintActivities(obs.Activities)
	primary := entity.PrimaryActivity(obs.Activities)

	t.mu.Lock()

	hadPrevious := t.known
	previous := t.status

	statusChanged := !hadPrevious || previous != next
	var activityChanged bool
	if hadPrevious {
		activityChanged = t.fingerprint != fingerprint
	} else {
		// 没有历史指纹时，仅当新指纹非空才视为变化
		activityChanged = fingerprint != ""
	}

	anchorKey := t.cfg.ReminderPolicy.AnchorKey(next, primary)
	if anchorKey != t.anchor.Key {
		t.anchor = entity.ReminderAnchor{Key: anchorKey, StartedAt: time.Now()}
	}

	t.known = true
	t.status = next
	t.guildID = obs.GuildID
	t.activity = primary
	t.fingerprint = fingerprint
	t.updatedAt = time.Now()

	t.mu.Unlock()

	if statusChanged {
		// 异步写穿持久层，失败只记日志，绝不阻塞或影响事件判定
		t.persistStatus(next)
	}

	emit := false
	if t.cfg.RichPresenceOnly {
		emit = t.cfg.EmitOnActivityChange && activityChanged && primary != nil
	} else {
		emit = statusChanged || (t.cfg.EmitOnActivityChange && activityChanged)
	}

	if !hadPrevious && !t.cfg.EmitInitialStatus {
		zap.L().Info("captured initial status without emitting",
			zap.String("status", string(next)))
		return nil
	}
	if !emit {
		return nil
	}

	var previousForEvent entity.Status
	if hadPrevious {
		previousForEvent = previous
	}
	return entity.NewStatusEvent(obs.UserID, obs.GuildID, previousForEvent, next, primary)
}

// persistStatus 发射后不管的写穿，与调用方解耦
// 键按配置的身份范围取定，这样重启恢复读到的就是同一个键
func (t *PresenceTracker) persistStatus(status entity.Status) {
	if t.statusStore == nil {
		return
	}
	key := entity.StatusKey(t.cfg.UserID, t.cfg.GuildID)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := t.statusStore.SetStatus(ctx, key, status); err != nil {
			zap.L().Warn("persist status failed",
				zap.String("key", key),
				zap.String("status", string(status)),
				zap.Error(err))
		}
	}()
}

// CollectReminder 提醒定时器每个 tick 调用一次
// 序号由挂钟耗时整除提醒间隔推出，迟到或合并的 tick 也只会
// 对每个错过的间隔边界各发一次，不会突发补发
func (t *PresenceTracker) CollectReminder(now time.Time) *entity.NotificationEvent {
	interval := int64(t.cfg.ReminderInterval / time.Second)
	if interval <= 0 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.known || t.anchor.Key == "" {
		return nil
	}

	elapsed := int64(now.Sub(t.anchor.StartedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	sequence := elapsed / interval
	if sequence == 0 || sequence <= t.anchor.LastSequence {
		return nil
	}
	t.anchor.LastSequence = sequence

	return entity.NewReminderEvent(t.cfg.UserID, t.guildID, t.status, t.activity, entity.ReminderMeta{
		ElapsedSeconds:  sequence * interval,
		IntervalSeconds: interval,
		Sequence:        sequence,
	})
}

// Snapshot 返回一致性快照
func (t *PresenceTracker) Snapshot() in.PresenceSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := in.PresenceSnapshot{
		Known:          t.known,
		GuildID:        t.guildID,
		AnchorKey:      t.anchor.Key,
		AnchorSince:    t.anchor.StartedAt,
		AnchorSequence: t.anchor.LastSequence,
		UpdatedAt:      t.updatedAt,
	}
	if t.known {
		snap.Status = t.status
	}
	if t.activity != nil {
		copied := *t.activity
		snap.Activity = &copied
	}
	return snap
}

var _ in.PresenceUseCase = (*PresenceTracker)(nil)

package out

import (
	"context"
	"time"

	"github.com/Darkatse/StatusHub/internal/domain/entity"
)

// CacheStore 带命名空间的持久缓存层接口
// 未配置后端时实现为全空操作，读一律 miss，写一律丢弃
type CacheStore interface {
	// Enabled 后端是否可用
	Enabled() bool
	// GetJSON 读取并反序列化到 dest，返回是否命中；过期条目按 miss 处理并顺手删除
	GetJSON(ctx context.Context, namespace, key string, dest any) (bool, error)
	// SetJSON 序列化写入，ttl <= 0 表示永不过期
	SetJSON(ctx context.Context, namespace, key string, value any, ttl time.Duration) error
	// Close 释放底层连接
	Close() error
}

// StatusStore 最近一次已知状态的持久存储
type StatusStore interface {
	// GetStatus 查询指定键的状态，返回是否存在
	GetStatus(ctx context.Context, key string) (entity.Status, bool)
	// SetStatus 写入状态；权威文件写失败时返回错误
	SetStatus(ctx context.Context, key string, status entity.Status) error
}

// NotificationSender 通知事件的投递目标
type NotificationSender interface {
	// Send 同步投递单个事件，失败返回描述性错误
	Send(ctx context.Context, event *entity.NotificationEvent) error
}

// GameDetails Steam 游戏详情
type GameDetails struct {
	AppID            uint32  `json:"app_id"`
	Name             string  `json:"name"`
	ShortDescription string  `json:"short_description,omitempty"`
	CurrentPlayers   *uint32 `json:"current_players,omitempty"`
}

// GameCatalog 按外部引用 ID 查询游戏详情
type GameCatalog interface {
	// FetchGameDetails 查不到返回 (nil, nil)，由调用方降级处理
	FetchGameDetails(ctx context.Context, appID uint32) (*GameDetails, error)
}

// Package config 服务配置的加载与校验
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Darkatse/StatusHub/pkg/zlog"
)

// webhook 投递模式
const (
	WebhookModeOpenClawWake = "openclaw_wake"
	WebhookModeGenericJSON  = "generic_json"
	WebhookModeKafka        = "kafka"
)

// 持久缓存后端
const (
	CacheBackendNone   = "none"
	CacheBackendSQLite = "sqlite"
	CacheBackendRedis  = "redis"
)

// Settings 服务完整配置
type Settings struct {
	Discord  DiscordSettings  `mapstructure:"discord"`
	Webhook  WebhookSettings  `mapstructure:"webhook"`
	Message  MessageSettings  `mapstructure:"message"`
	Steam    SteamSettings    `mapstructure:"steam"`
	Cache    CacheSettings    `mapstructure:"cache"`
	State    StateSettings    `mapstructure:"state"`
	Reminder ReminderSettings `mapstructure:"reminder"`
	Kafka    KafkaSettings    `mapstructure:"kafka"`
	Server   ServerSettings   `mapstructure:"server"`
	Log      zlog.Config      `mapstructure:"log"`
}

// DiscordSettings 网关与目标身份
type DiscordSettings struct {
	BotToken             string `mapstructure:"bot_token"`
	UserID               uint64 `mapstructure:"user_id"`
	GuildID              uint64 `mapstructure:"guild_id"` // 0 表示不限定
	EmitInitialStatus    bool   `mapstructure:"emit_initial_status"`
	EmitOnActivityChange bool   `mapstructure:"emit_on_activity_change"`
	RichPresenceOnly     bool   `mapstructure:"rich_presence_only"`
}

// WebhookSettings 通知出口
type WebhookSettings struct {
	Mode           string            `mapstructure:"mode"`
	URL            string            `mapstructure:"url"`
	Token          string            `mapstructure:"token"`
	Headers        map[string]string `mapstructure:"headers"`
	TimeoutSeconds int               `mapstructure:"timeout_seconds"`
	OpenClaw       OpenClawSettings  `mapstructure:"openclaw"`
}

func (w WebhookSettings) Timeout() time.Duration {
	return time.Duration(w.TimeoutSeconds) * time.Second
}

// OpenClawSettings OpenClaw 专属选项
type OpenClawSettings struct {
	WakeMode string `mapstructure:"wake_mode"` // now | next-heartbeat
}

// MessageSettings 通知文案装饰
type MessageSettings struct {
	Prefix string `mapstructure:"prefix"`
	Suffix string `mapstructure:"suffix"`
}

// SteamSettings 游戏详情补全
type SteamSettings struct {
	Enabled             bool   `mapstructure:"enabled"`
	APIKey              string `mapstructure:"api_key"`
	Language            string `mapstructure:"language"`
	DescriptionMaxChars int    `mapstructure:"description_max_chars"`
	TimeoutSeconds      int    `mapstructure:"timeout_seconds"`
	MemoryTTLSeconds    int    `mapstructure:"memory_ttl_seconds"`
	MemoryCapacity      int    `mapstructure:"memory_capacity"`
	DurableTTLSeconds   int    `mapstructure:"durable_ttl_seconds"`
}

// CacheSettings 持久缓存层
type CacheSettings struct {
	Backend string        `mapstructure:"backend"` // none | sqlite | redis
	SQLite  SQLiteCache   `mapstructure:"sqlite"`
	Redis   RedisSettings `mapstructure:"redis"`
}

type SQLiteCache struct {
	Path string `mapstructure:"path"`
}

type RedisSettings struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// StateSettings 状态落盘
type StateSettings struct {
	StatusFile string `mapstructure:"status_file"`
}

// ReminderSettings 周期提醒
type ReminderSettings struct {
	Enabled              bool  `mapstructure:"enabled"`
	IntervalSeconds      int64 `mapstructure:"interval_seconds"`
	CheckIntervalSeconds int64 `mapstructure:"check_interval_seconds"`
	RequireSteamApp      bool  `mapstructure:"require_steam_app"`
	RichPresenceOnly     bool  `mapstructure:"rich_presence_only"`
}

// KafkaSettings mode 为 kafka 时的出口配置
type KafkaSettings struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// ServerSettings 查询接口
type ServerSettings struct {
	HTTPAddr           string `mapstructure:"http_addr"`
	DispatcherCapacity int    `mapstructure:"dispatcher_capacity"`
}

// Load 读取并校验配置文件，STATUSHUB_ 前缀的环境变量可覆盖任意键
func Load(path string) (*Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("STATUSHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("webhook.mode", WebhookModeOpenClawWake)
	v.SetDefault("webhook.timeout_seconds", 10)
	v.SetDefault("webhook.openclaw.wake_mode", "now")

	v.SetDefault("steam.language", "schinese")
	v.SetDefault("steam.description_max_chars", 240)
	v.SetDefault("steam.timeout_seconds", 8)
	v.SetDefault("steam.memory_ttl_seconds", 600)
	v.SetDefault("steam.memory_capacity", 64)
	v.SetDefault("steam.durable_ttl_seconds", 7*24*3600)

	v.SetDefault("cache.backend", CacheBackendNone)
	v.SetDefault("cache.sqlite.path", "data/cache.db")
	v.SetDefault("cache.redis.pool_size", 10)

	v.SetDefault("state.status_file", "data/status.json")

	v.SetDefault("reminder.enabled", true)
	v.SetDefault("reminder.interval_seconds", 1800)
	v.SetDefault("reminder.check_interval_seconds", 30)

	v.SetDefault("kafka.topic", "statushub.notifications")

	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.dispatcher_capacity", 256)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.service", "statushub")
	v.SetDefault("log.stdout", true)
}

// Validate 配置合法性检查
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.Discord.BotToken) == "" {
		return fmt.Errorf("discord.bot_token cannot be empty")
	}
	if s.Discord.UserID == 0 {
		return fmt.Errorf("discord.user_id must be greater than 0")
	}

	switch s.Webhook.Mode {
	case WebhookModeOpenClawWake, WebhookModeGenericJSON:
		if strings.TrimSpace(s.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url cannot be empty")
		}
		parsed, err := url.Parse(s.Webhook.URL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("webhook.url is not a valid URL: %s", s.Webhook.URL)
		}
		if s.Webhook.TimeoutSeconds <= 0 {
			return fmt.Errorf("webhook.timeout_seconds must be greater than 0")
		}
	case WebhookModeKafka:
		if len(s.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when webhook.mode=kafka")
		}
		if strings.TrimSpace(s.Kafka.Topic) == "" {
			return fmt.Errorf("kafka.topic cannot be empty when webhook.mode=kafka")
		}
	default:
		return fmt.Errorf("webhook.mode must be one of %s, %s, %s",
			WebhookModeOpenClawWake, WebhookModeGenericJSON, WebhookModeKafka)
	}

	if mode := s.Webhook.OpenClaw.WakeMode; mode != "now" && mode != "next-heartbeat" {
		return fmt.Errorf("webhook.openclaw.wake_mode must be now or next-heartbeat")
	}

	if s.Steam.Enabled {
		if strings.TrimSpace(s.Steam.Language) == "" {
			return fmt.Errorf("steam.language cannot be empty when steam.enabled=true")
		}
		if s.Steam.DescriptionMaxChars <= 0 {
			return fmt.Errorf("steam.description_max_chars must be greater than 0")
		}
		if s.Steam.TimeoutSeconds <= 0 {
			return fmt.Errorf("steam.timeout_seconds must be greater than 0")
		}
	}

	switch s.Cache.Backend {
	case CacheBackendNone:
	case CacheBackendSQLite:
		if strings.TrimSpace(s.Cache.SQLite.Path) == "" {
			return fmt.Errorf("cache.sqlite.path cannot be empty when cache.backend=sqlite")
		}
	case CacheBackendRedis:
		if strings.TrimSpace(s.Cache.Redis.Addr) == "" {
			return fmt.Errorf("cache.redis.addr cannot be empty when cache.backend=redis")
		}
	default:
		return fmt.Errorf("cache.backend must be one of %s, %s, %s",
			CacheBackendNone, CacheBackendSQLite, CacheBackendRedis)
	}

	if strings.TrimSpace(s.State.StatusFile) == "" {
		return fmt.Errorf("state.status_file cannot be empty")
	}

	if s.Reminder.Enabled {
		if s.Reminder.IntervalSeconds <= 0 {
			return fmt.Errorf("reminder.interval_seconds must be greater than 0")
		}
		if s.Reminder.CheckIntervalSeconds <= 0 {
			return fmt.Errorf("reminder.check_interval_seconds must be greater than 0")
		}
	}

	return nil
}

// Package discord Discord 网关入站适配器
// 订阅目标用户的 presence 事件，转换后交给追踪用例
package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/Darkatse/StatusHub/internal/domain/entity"
	"github.com/Darkatse/StatusHub/internal/ports/in"
)

// 入队的有界等待；队列长时间满说明 sink 已经堵死，丢弃好过把
// 网关回调 goroutine 永久挂起
const publishWait = 5 * time.Second

// EventPublisher 事件出口，由通知分发器实现
type EventPublisher interface {
	Publish(ctx context.Context, event *entity.NotificationEvent) error
}

// Config 网关配置
type Config struct {
	BotToken string
	UserID   uint64 // 目标用户
	GuildID  uint64 // 0 表示不限定 guild
}

// Gateway Discord 网关连接
type Gateway struct {
	cfg       Config
	session   *discordgo.Session
	tracker   in.PresenceUseCase
	publisher EventPublisher
}

// NewGateway 创建网关适配器，只声明 presence 所需的 intents
func NewGateway(cfg Config, tracker in.PresenceUseCase, publisher EventPublisher) (*Gateway, error) {
	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildPresences

	g := &Gateway{
		cfg:       cfg,
		session:   session,
		tracker:   tracker,
		publisher: publisher,
	}
	session.AddHandler(g.onReady)
	session.AddHandler(g.onGuildCreate)
	session.AddHandler(g.onPresenceUpdate)
	return g, nil
}

// Open 建立网关连接
func (g *Gateway) Open() error {
	if err := g.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	return nil
}

// Close 断开网关连接
func (g *Gateway) Close() error {
	return g.session.Close()
}

func (g *Gateway) onReady(_ *discordgo.Session, event *discordgo.Ready) {
	zap.L().Info("discord gateway ready",
		zap.String("bot_user", event.User.Username),
		zap.Int("guilds", len(event.Guilds)))
}

// onGuildCreate 连接建立后 guild 会带一份当前 presence 快照，用它补上初始状态
func (g *Gateway) onGuildCreate(_ *discordgo.Session, event *discordgo.GuildCreate) {
	guildID := parseSnowflake(event.ID)
	if g.cfg.GuildID != 0 && guildID != g.cfg.GuildID {
		return
	}
	for _, presence := range event.Presences {
		if presence.User == nil || parseSnowflake(presence.User.ID) != g.cfg.UserID {
			continue
		}
		g.observe(guildID, string(presence.Status), presence.Activities)
		return
	}
}

func (g *Gateway) onPresenceUpdate(_ *discordgo.Session, event *discordgo.PresenceUpdate) {
	if event.User == nil || parseSnowflake(event.User.ID) != g.cfg.UserID {
		return
	}
	guildID := parseSnowflake(event.GuildID)
	if g.cfg.GuildID != 0 && guildID != g.cfg.GuildID {
		return
	}
	g.observe(guildID, string(event.Status), event.Activities)
}

func (g *Gateway) observe(guildID uint64, rawStatus string, activities []*discordgo.Activity) {
	obs := entity.PresenceObservation{
		UserID:     g.cfg.UserID,
		GuildID:    guildID,
		RawStatus:  rawStatus,
		Activities: convertActivities(activities),
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishWait)
	defer cancel()

	event := g.tracker.Observe(ctx, obs)
	if event == nil {
		return
	}
	if err := g.publisher.Publish(ctx, event); err != nil {
		zap.L().Error("publish status event failed, dropping event",
			zap.String("event_id", event.ID), zap.Error(err))
	}
}

func convertActivities(activities []*discordgo.Activity) []entity.ActivityContext {
	if len(activities) == 0 {
		return nil
	}
	converted := make([]entity.ActivityContext, 0, len(activities))
	for _, a := range activities {
		if a == nil {
			continue
		}
		converted = append(converted, entity.ActivityContext{
			Kind:       activityKind(a.Type),
			Name:       a.Name,
			Details:    a.Details,
			State:      a.State,
			SteamAppID: steamAppID(a),
		})
	}
	return converted
}

func activityKind(t discordgo.ActivityType) string {
	switch t {
	case discordgo.ActivityTypeGame:
		return entity.ActivityKindPlaying
	case discordgo.ActivityTypeStreaming:
		return entity.ActivityKindStreaming
	case discordgo.ActivityTypeListening:
		return entity.ActivityKindListening
	case discordgo.ActivityTypeWatching:
		return entity.ActivityKindWatching
	case discordgo.ActivityTypeCustom:
		return entity.ActivityKindCustom
	case discordgo.ActivityTypeCompeting:
		return entity.ActivityKindCompeting
	default:
		return entity.ActivityKindPlaying
	}
}

// steamAppID 从活动资源图标里解析 "steam:<appid>" 关联
func steamAppID(a *discordgo.Activity) uint32 {
	for _, asset := range []string{a.Assets.LargeImageID, a.Assets.SmallImageID} {
		raw, ok := strings.CutPrefix(asset, "steam:")
		if !ok {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			continue
		}
		return uint32(id)
	}
	return 0
}

func parseSnowflake(raw string) uint64 {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

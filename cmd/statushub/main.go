package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	discordgw "github.com/Darkatse/StatusHub/internal/adapters/in/discord"
	httpServer "github.com/Darkatse/StatusHub/internal/adapters/in/http"
	"github.com/Darkatse/StatusHub/internal/adapters/out/cachestore"
	"github.com/Darkatse/StatusHub/internal/adapters/out/mq"
	"github.com/Darkatse/StatusHub/internal/adapters/out/state"
	"github.com/Darkatse/StatusHub/internal/adapters/out/steam"
	"github.com/Darkatse/StatusHub/internal/adapters/out/webhook"
	"github.com/Darkatse/StatusHub/internal/application"
	"github.com/Darkatse/StatusHub/internal/config"
	"github.com/Darkatse/StatusHub/internal/domain/entity"
	"github.com/Darkatse/StatusHub/internal/ports/out"
	"github.com/Darkatse/StatusHub/pkg/zlog"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	path := *configPath
	if path == "" {
		path = os.Getenv("STATUSHUB_CONFIG")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	settings, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logCfg := settings.Log
	logCfg.ApplyDefaults()
	zlog.MustInitGlobal(logCfg)
	defer zap.L().Sync()
	zlog.RegisterMetrics(prometheus.DefaultRegisterer)

	logger := zap.L()
	logger.Info("statushub starting",
		zap.Uint64("user_id", settings.Discord.UserID),
		zap.String("webhook_mode", settings.Webhook.Mode))

	// 持久缓存层
	cache, err := buildCacheStore(settings)
	if err != nil {
		logger.Fatal("Failed to init cache store", zap.Error(err))
	}
	defer cache.Close()

	// 状态落盘
	statusStore, err := state.Load(settings.State.StatusFile, cache)
	if err != nil {
		logger.Fatal("Failed to load status store", zap.Error(err))
	}

	// 追踪用例
	tracker := application.NewPresenceTracker(application.TrackerConfig{
		UserID:               settings.Discord.UserID,
		GuildID:              settings.Discord.GuildID,
		EmitInitialStatus:    settings.Discord.EmitInitialStatus,
		EmitOnActivityChange: settings.Discord.EmitOnActivityChange,
		RichPresenceOnly:     settings.Discord.RichPresenceOnly,
		ReminderPolicy: entity.ReminderPolicy{
			Enabled:          settings.Reminder.Enabled,
			RequireSteamApp:  settings.Reminder.RequireSteamApp,
			RichPresenceOnly: settings.Reminder.RichPresenceOnly,
		},
		ReminderInterval: time.Duration(settings.Reminder.IntervalSeconds) * time.Second,
	}, statusStore)

	// 通知出口
	sender, senderCleanup, err := buildSender(settings, cache)
	if err != nil {
		logger.Fatal("Failed to init notification sender", zap.Error(err))
	}
	defer senderCleanup()

	dispatcher := application.NewDispatcher(sender, settings.Server.DispatcherCapacity)
	dispatcher.Start()

	// 周期提醒
	var reminderWorker *application.ReminderWorker
	if settings.Reminder.Enabled {
		reminderWorker = application.NewReminderWorker(tracker, dispatcher,
			time.Duration(settings.Reminder.CheckIntervalSeconds)*time.Second)
		if err := reminderWorker.Start(); err != nil {
			logger.Fatal("Failed to start reminder worker", zap.Error(err))
		}
	}

	// Discord 网关
	gateway, err := discordgw.NewGateway(discordgw.Config{
		BotToken: settings.Discord.BotToken,
		UserID:   settings.Discord.UserID,
		GuildID:  settings.Discord.GuildID,
	}, tracker, dispatcher)
	if err != nil {
		logger.Fatal("Failed to create discord gateway", zap.Error(err))
	}
	if err := gateway.Open(); err != nil {
		logger.Fatal("Failed to open discord gateway", zap.Error(err))
	}
	logger.Info("Discord 网关连接成功")

	// 查询接口，地址留空表示不开
	var server *httpServer.Server
	if settings.Server.HTTPAddr != "" {
		server = httpServer.NewServer(settings.Server.HTTPAddr, tracker)
		go func() {
			if err := server.Start(); err != nil {
				logger.Fatal("HTTP server failed", zap.Error(err))
			}
		}()
	}

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")

	if err := gateway.Close(); err != nil {
		logger.Warn("close discord gateway failed", zap.Error(err))
	}
	if reminderWorker != nil {
		reminderWorker.Stop()
	}
	// 先停上游再排空队列，保证已接收的事件投递完
	dispatcher.Close()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http server shutdown failed", zap.Error(err))
		}
	}

	logger.Info("Server exited properly")
}

func buildCacheStore(settings *config.Settings) (out.CacheStore, error) {
	switch settings.Cache.Backend {
	case config.CacheBackendSQLite:
		return cachestore.NewSQLite(settings.Cache.SQLite.Path)
	case config.CacheBackendRedis:
		return cachestore.NewRedis(cachestore.RedisOptions{
			Addr:     settings.Cache.Redis.Addr,
			Password: settings.Cache.Redis.Password,
			DB:       settings.Cache.Redis.DB,
			PoolSize: settings.Cache.Redis.PoolSize,
		})
	default:
		return cachestore.NewDisabled(), nil
	}
}

func buildSender(settings *config.Settings, cache out.CacheStore) (out.NotificationSender, func(), error) {
	noop := func() {}

	if settings.Webhook.Mode == config.WebhookModeKafka {
		sender, err := mq.NewKafkaNotificationSender(settings.Kafka.Brokers, settings.Kafka.Topic)
		if err != nil {
			return nil, noop, err
		}
		return sender, func() {
			if err := sender.Close(); err != nil {
				zap.L().Warn("close kafka producer failed", zap.Error(err))
			}
		}, nil
	}

	client, err := webhook.NewClient(
		settings.Webhook.URL,
		settings.Webhook.Token,
		settings.Webhook.Headers,
		settings.Webhook.Timeout(),
	)
	if err != nil {
		return nil, noop, err
	}

	if settings.Webhook.Mode == config.WebhookModeGenericJSON {
		return webhook.NewGenericJSONSender(client), noop, nil
	}

	var catalog out.GameCatalog
	if settings.Steam.Enabled {
		catalog = steam.NewClient(steam.Config{
			APIKey:              settings.Steam.APIKey,
			Language:            settings.Steam.Language,
			DescriptionMaxChars: settings.Steam.DescriptionMaxChars,
			Timeout:             time.Duration(settings.Steam.TimeoutSeconds) * time.Second,
			MemoryTTL:           time.Duration(settings.Steam.MemoryTTLSeconds) * time.Second,
			MemoryCapacity:      settings.Steam.MemoryCapacity,
			DurableTTL:          time.Duration(settings.Steam.DurableTTLSeconds) * time.Second,
		}, cache)
	}

	sender := webhook.NewOpenClawWakeSender(client, settings.Webhook.OpenClaw.WakeMode, webhook.MessageOptions{
		Prefix: settings.Message.Prefix,
		Suffix: settings.Message.Suffix,
	}, catalog)
	return sender, noop, nil
}

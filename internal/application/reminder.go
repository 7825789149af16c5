package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Darkatse/StatusHub/internal/ports/in"
)

// 管道入队的有界等待
const defaultPublishWait = 5 * time.Second

// ReminderWorker 周期提醒调度器
// 以检查节奏轮询追踪器，序号判定在追踪器的锁内完成
type ReminderWorker struct {
	tracker       in.PresenceUseCase
	dispatcher    *Dispatcher
	checkInterval time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewReminderWorker 创建调度器，checkInterval <= 0 时取 30s
func NewReminderWorker(tracker in.PresenceUseCase, dispatcher *Dispatcher, checkInterval time.Duration) *ReminderWorker {
	if checkInterval <= 0 {
		checkInterval = 30 * time.Second
	}
	return &ReminderWorker{
		tracker:       tracker,
		dispatcher:    dispatcher,
		checkInterval: checkInterval,
	}
}

// Start 启动轮询循环
func (w *ReminderWorker) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("reminder worker already running")
	}
	w.running = true
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.mu.Unlock()

	w.wg.Add(1)
	go w.tickLoop()

	zap.L().Info("reminder worker started",
		zap.Duration("check_interval", w.checkInterval))
	return nil
}

// Stop 停止轮询并等待当前 tick 结束
func (w *ReminderWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.cancel()
	w.wg.Wait()
	zap.L().Info("reminder worker stopped")
}

func (w *ReminderWorker) tickLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			event := w.tracker.CollectReminder(time.Now())
			if event == nil {
				continue
			}
			// 入队等待有上界，管道堵死时丢弃本轮提醒而不是卡住 tick
			publishCtx, cancel := context.WithTimeout(w.ctx, defaultPublishWait)
			err := w.dispatcher.Publish(publishCtx, event)
			cancel()
			if err != nil {
				zap.L().Warn("reminder publish failed, dropping event",
					zap.Int64("sequence", event.Reminder.Sequence),
					zap.Error(err))
			}
		}
	}
}

package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Darkatse/StatusHub/internal/domain/entity"
	"github.com/Darkatse/StatusHub/internal/ports/out"
)

const defaultSendTimeout = 30 * time.Second

// ErrPipelineClosed 管道已关闭后再入队返回的错误
var ErrPipelineClosed = errors.New("notification pipeline closed")

// Dispatcher 通知事件管道
// 有界有序，单消费者串行投递，把判定逻辑和 sink 的 I/O 延迟解耦；
// 单个事件投递失败只记日志，不影响后续事件
type Dispatcher struct {
	sender out.NotificationSender
	ch     chan *entity.NotificationEvent
	wg     sync.WaitGroup

	// 生产侧读锁入队、关闭侧写锁置位，保证 close 时没有在途发送
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher 创建管道，capacity <= 0 时取 256
func NewDispatcher(sender out.NotificationSender, capacity int) *Dispatcher {
	if capacity <= 0 {
		capacity = 256
	}
	return &Dispatcher{
		sender: sender,
		ch:     make(chan *entity.NotificationEvent, capacity),
	}
}

// Start 启动投递循环
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.drainLoop()
}

// Publish 入队事件，管道满时最多等到 ctx 超时
// 管道已关闭时返回 ErrPipelineClosed，迟到的生产者不会触发 panic
func (d *Dispatcher) Publish(ctx context.Context, event *entity.NotificationEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrPipelineClosed
	}
	select {
	case d.ch <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 关闭生产侧并等待已入队事件全部投递完，可重复调用
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.wg.Wait()
		return
	}
	d.closed = true
	d.mu.Unlock()

	close(d.ch)
	d.wg.Wait()
}

func (d *Dispatcher) drainLoop() {
	defer d.wg.Done()

	for event := range d.ch {
		ctx, cancel := context.WithTimeout(context.Background(), defaultSendTimeout)
		err := d.sender.Send(ctx, event)
		cancel()

		if err != nil {
			zap.L().Error("event delivery failed",
				zap.String("event_id", event.ID),
				zap.String("source", event.Source),
				zap.Uint64("user_id", event.UserID),
				zap.String("status", string(event.CurrentStatus)),
				zap.Error(err))
			continue
		}
		zap.L().Info("event delivered",
			zap.String("event_id", event.ID),
			zap.String("source", event.Source),
			zap.Uint64("user_id", event.UserID),
			zap.String("status", string(event.CurrentStatus)))
	}
}

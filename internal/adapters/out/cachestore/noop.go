// Package cachestore 提供持久缓存层的各个后端实现
package cachestore

import (
	"context"
	"time"

	"github.com/Darkatse/StatusHub/internal/ports/out"
)

// NoopStore 未配置后端时的空实现，读一律 miss，写一律丢弃
type NoopStore struct{}

// NewDisabled 创建空实现
func NewDisabled() out.CacheStore {
	return &NoopStore{}
}

func (s *NoopStore) Enabled() bool { return false }

func (s *NoopStore) GetJSON(_ context.Context, _, _ string, _ any) (bool, error) {
	return false, nil
}

func (s *NoopStore) SetJSON(_ context.Context, _, _ string, _ any, _ time.Duration) error {
	return nil
}

func (s *NoopStore) Close() error { return nil }

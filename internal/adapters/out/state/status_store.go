// Package state 实现"最近一次已知状态"的持久存储
// 权威数据是一个整体重写的 JSON 文件，持久缓存层作为旁路镜像
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Darkatse/StatusHub/internal/domain/entity"
	"github.com/Darkatse/StatusHub/internal/ports/out"
)

const (
	statusNamespace = "status.last"
	fileVersion     = 1
)

// statusRecord 单条持久化记录
type statusRecord struct {
	Status    entity.Status `json:"status"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// statusFile 文件整体布局
type statusFile struct {
	Version int                     `json:"version"`
	Records map[string]statusRecord `json:"records"`
}

// FileStatusStore 文件 + 持久缓存双写的状态存储
// 文件写失败向调用方传播，缓存镜像写失败只记日志
type FileStatusStore struct {
	path  string
	cache out.CacheStore

	mu      sync.Mutex
	records map[string]statusRecord
}

// Load 从文件加载已有状态，文件不存在视为空
func Load(path string, cache out.CacheStore) (*FileStatusStore, error) {
	records, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return &FileStatusStore{path: path, cache: cache, records: records}, nil
}

// GetStatus 先查内存快照，miss 再查持久缓存并回填
func (s *FileStatusStore) GetStatus(ctx context.Context, key string) (entity.Status, bool) {
	s.mu.Lock()
	if record, ok := s.records[key]; ok {
		s.mu.Unlock()
		return record.Status, true
	}
	s.mu.Unlock()

	var status entity.Status
	hit, err := s.cache.GetJSON(ctx, statusNamespace, key, &status)
	if err != nil {
		zap.L().Warn("read status from cache store failed",
			zap.String("key", key), zap.Error(err))
		return "", false
	}
	if !hit {
		return "", false
	}

	s.mu.Lock()
	s.records[key] = statusRecord{Status: status, UpdatedAt: time.Now().UTC()}
	s.mu.Unlock()
	return status, true
}

// SetStatus 更新快照并同步重写文件，再尽力镜像到持久缓存
func (s *FileStatusStore) SetStatus(ctx context.Context, key string, status entity.Status) error {
	// 锁内只做快照克隆，慢速的文件 I/O 在锁外进行
	s.mu.Lock()
	s.records[key] = statusRecord{Status: status, UpdatedAt: time.Now().UTC()}
	snapshot := make(map[string]statusRecord, len(s.records))
	for k, v := range s.records {
		snapshot[k] = v
	}
	s.mu.Unlock()

	if err := writeFile(s.path, snapshot); err != nil {
		return err
	}

	// 永不过期的镜像写，失败吞掉
	if err := s.cache.SetJSON(ctx, statusNamespace, key, status, 0); err != nil {
		zap.L().Warn("mirror status to cache store failed",
			zap.String("key", key), zap.Error(err))
	}
	return nil
}

func readFile(path string) (map[string]statusRecord, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return make(map[string]statusRecord), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read status file %s: %w", path, err)
	}

	var parsed statusFile
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse status file %s: %w", path, err)
	}
	if parsed.Records == nil {
		parsed.Records = make(map[string]statusRecord)
	}
	return parsed.Records, nil
}

// writeFile 先写临时文件再原子改名，任何时刻磁盘上都是完整文件
func writeFile(path string, records map[string]statusRecord) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create status directory %s: %w", dir, err)
		}
	}

	payload := statusFile{Version: fileVersion, Records: records}
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize status file: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, raw, 0o644); err != nil {
		return fmt.Errorf("write temp status file %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("replace status file %s: %w", path, err)
	}
	return nil
}

var _ out.StatusStore = (*FileStatusStore)(nil)

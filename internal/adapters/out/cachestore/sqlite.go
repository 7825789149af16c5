package cachestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/Darkatse/StatusHub/internal/ports/out"
)

// cacheEntryModel GORM模型，(namespace, key) 复合主键，expires_at 建索引支持清扫
type cacheEntryModel struct {
	Namespace string `gorm:"column:namespace;primaryKey;size:191"`
	Key       string `gorm:"column:key;primaryKey;size:191"`
	Value     string `gorm:"column:value;not null"`
	ExpiresAt *int64 `gorm:"column:expires_at;index:idx_cache_entries_expires_at"`
	UpdatedAt int64  `gorm:"column:updated_at;not null"`
}

func (cacheEntryModel) TableName() string {
	return "cache_entries"
}

// SQLiteStore 本地嵌入式持久缓存
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLite 打开（必要时创建）sqlite 数据库并迁移表结构
func NewSQLite(path string) (out.CacheStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", dir, err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache db %s: %w", path, err)
	}
	if err := db.AutoMigrate(&cacheEntryModel{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite cache schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Enabled() bool { return true }

// GetJSON 过期条目按 miss 处理并顺手删除
func (s *SQLiteStore) GetJSON(ctx context.Context, namespace, key string, dest any) (bool, error) {
	var row cacheEntryModel
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND key = ?", namespace, key).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query cache entry %s/%s: %w", namespace, key, err)
	}

	if row.ExpiresAt != nil && *row.ExpiresAt <= time.Now().Unix() {
		if err := s.db.WithContext(ctx).
			Where("namespace = ? AND key = ?", namespace, key).
			Delete(&cacheEntryModel{}).Error; err != nil {
			return false, fmt.Errorf("delete expired cache entry %s/%s: %w", namespace, key, err)
		}
		return false, nil
	}

	if err := json.Unmarshal([]byte(row.Value), dest); err != nil {
		return false, fmt.Errorf("unmarshal cache value %s/%s: %w", namespace, key, err)
	}
	return true, nil
}

// SetJSON 写入后全量清扫过期行
func (s *SQLiteStore) SetJSON(ctx context.Context, namespace, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value %s/%s: %w", namespace, key, err)
	}

	now := time.Now().Unix()
	var expiresAt *int64
	if ttl > 0 {
		ts := now + int64(ttl/time.Second)
		expiresAt = &ts
	}

	row := cacheEntryModel{
		Namespace: namespace,
		Key:       key,
		Value:     string(raw),
		ExpiresAt: expiresAt,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&row).Error; err != nil {
		return fmt.Errorf("upsert cache entry %s/%s: %w", namespace, key, err)
	}

	if err := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Delete(&cacheEntryModel{}).Error; err != nil {
		return fmt.Errorf("sweep expired cache entries: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

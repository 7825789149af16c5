package cachestore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name    string `json:"name"`
	Players uint32 `json:"players"`
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "cache.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store.(*SQLiteStore)
}

func TestSQLiteRoundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetJSON(ctx, "steam.game_details", "570", sample{Name: "Dota 2", Players: 400000}, time.Minute))

	var got sample
	hit, err := store.GetJSON(ctx, "steam.game_details", "570", &got)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "Dota 2", got.Name)
	assert.Equal(t, uint32(400000), got.Players)
}

func TestSQLiteMiss(t *testing.T) {
	store := newTestStore(t)

	var got sample
	hit, err := store.GetJSON(context.Background(), "steam.game_details", "absent", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestSQLiteNamespaceIsolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetJSON(ctx, "ns-a", "k", sample{Name: "a"}, time.Minute))

	var got sample
	hit, err := store.GetJSON(ctx, "ns-b", "k", &got)
	require.NoError(t, err)
	assert.False(t, hit, "不同命名空间互不可见")
}

func TestSQLiteExpiredEntryIsMissAndDeleted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetJSON(ctx, "ns", "k", sample{Name: "x"}, time.Second))

	// 直接把过期时间改到过去，避免测试里真实等待
	past := time.Now().Add(-time.Minute).Unix()
	require.NoError(t, store.db.Model(&cacheEntryModel{}).
		Where("namespace = ? AND key = ?", "ns", "k").
		Update("expires_at", past).Error)

	var got sample
	hit, err := store.GetJSON(ctx, "ns", "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	var count int64
	require.NoError(t, store.db.Model(&cacheEntryModel{}).Count(&count).Error)
	assert.Equal(t, int64(0), count, "过期条目读取后应当被删除")
}

func TestSQLiteSetSweepsExpiredRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetJSON(ctx, "ns", "old", sample{Name: "old"}, time.Second))
	past := time.Now().Add(-time.Minute).Unix()
	require.NoError(t, store.db.Model(&cacheEntryModel{}).
		Where("key = ?", "old").
		Update("expires_at", past).Error)

	require.NoError(t, store.SetJSON(ctx, "ns", "new", sample{Name: "new"}, time.Minute))

	var count int64
	require.NoError(t, store.db.Model(&cacheEntryModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSQLiteNoTTLNeverExpires(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetJSON(ctx, "status.last", "discord:1:*", "online", 0))

	var got string
	hit, err := store.GetJSON(ctx, "status.last", "discord:1:*", &got)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "online", got)
}

func TestNoopStoreDegradesSilently(t *testing.T) {
	store := NewDisabled()
	ctx := context.Background()

	assert.False(t, store.Enabled())
	require.NoError(t, store.SetJSON(ctx, "ns", "k", sample{Name: "x"}, time.Minute))

	var got sample
	hit, err := store.GetJSON(ctx, "ns", "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, store.Close())
}

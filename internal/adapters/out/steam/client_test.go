package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Darkatse/StatusHub/internal/adapters/out/cachestore"
	"github.com/Darkatse/StatusHub/internal/ports/out"
)

func testConfig() Config {
	return Config{
		Language:            "schinese",
		DescriptionMaxChars: 240,
		Timeout:             2 * time.Second,
		MemoryTTL:           time.Minute,
		MemoryCapacity:      8,
		DurableTTL:          time.Hour,
	}
}

func newStoreServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		appID := r.URL.Query().Get("appids")
		payload := map[string]any{
			appID: map[string]any{
				"success": true,
				"data": map[string]any{
					"name":              "Dota 2",
					"short_description": "Every day, millions of players worldwide enter battle.",
				},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(payload))
	}))
}

func TestFetchGameDetails(t *testing.T) {
	server := newStoreServer(t, nil)
	defer server.Close()

	client := NewClient(testConfig(), cachestore.NewDisabled())
	client.storeBaseURL = server.URL

	details, err := client.FetchGameDetails(context.Background(), 570)
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, uint32(570), details.AppID)
	assert.Equal(t, "Dota 2", details.Name)
	assert.Contains(t, details.ShortDescription, "millions of players")
	assert.Nil(t, details.CurrentPlayers)
}

func TestMemoryTierShortCircuitsAPI(t *testing.T) {
	var hits atomic.Int64
	server := newStoreServer(t, &hits)
	defer server.Close()

	client := NewClient(testConfig(), cachestore.NewDisabled())
	client.storeBaseURL = server.URL

	for i := 0; i < 3; i++ {
		_, err := client.FetchGameDetails(context.Background(), 570)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), hits.Load())
}

func TestDurableTierSurvivesFreshMemory(t *testing.T) {
	var hits atomic.Int64
	server := newStoreServer(t, &hits)
	defer server.Close()

	store, err := cachestore.NewSQLite(t.TempDir() + "/cache.db")
	require.NoError(t, err)
	defer store.Close()

	cfg := testConfig()

	first := NewClient(cfg, store)
	first.storeBaseURL = server.URL
	_, err = first.FetchGameDetails(context.Background(), 730)
	require.NoError(t, err)

	// 新客户端内存是空的，应命中持久层而非再打 API
	second := NewClient(cfg, store)
	second.storeBaseURL = server.URL
	details, err := second.FetchGameDetails(context.Background(), 730)
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, "Dota 2", details.Name)
	assert.Equal(t, int64(1), hits.Load())
}

// countingCache 统计持久层读写次数
type countingCache struct {
	enabled bool
	gets    int
	sets    int
}

func (c *countingCache) Enabled() bool { return c.enabled }

func (c *countingCache) GetJSON(context.Context, string, string, any) (bool, error) {
	c.gets++
	return false, nil
}

func (c *countingCache) SetJSON(context.Context, string, string, any, time.Duration) error {
	c.sets++
	return nil
}

func (c *countingCache) Close() error { return nil }

func TestDisabledDurableTierIsNeverQueried(t *testing.T) {
	server := newStoreServer(t, nil)
	defer server.Close()

	cache := &countingCache{enabled: false}
	client := NewClient(testConfig(), cache)
	client.storeBaseURL = server.URL

	_, err := client.FetchGameDetails(context.Background(), 570)
	require.NoError(t, err)
	assert.Zero(t, cache.gets)
	assert.Zero(t, cache.sets)

	// 后端可用时读写都要走到
	cache = &countingCache{enabled: true}
	client = NewClient(testConfig(), cache)
	client.storeBaseURL = server.URL

	_, err = client.FetchGameDetails(context.Background(), 570)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.gets)
	assert.Equal(t, 1, cache.sets)
}

func TestUnknownAppReturnsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		appID := r.URL.Query().Get("appids")
		payload := map[string]any{appID: map[string]any{"success": false}}
		require.NoError(t, json.NewEncoder(w).Encode(payload))
	}))
	defer server.Close()

	client := NewClient(testConfig(), cachestore.NewDisabled())
	client.storeBaseURL = server.URL

	details, err := client.FetchGameDetails(context.Background(), 99999999)
	require.NoError(t, err)
	assert.Nil(t, details)
}

func TestCurrentPlayersWithAPIKey(t *testing.T) {
	store := newStoreServer(t, nil)
	defer store.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.URL.Query().Get("key"))
		fmt.Fprint(w, `{"response":{"player_count":421337}}`)
	}))
	defer api.Close()

	cfg := testConfig()
	cfg.APIKey = "test-key"
	client := NewClient(cfg, cachestore.NewDisabled())
	client.storeBaseURL = store.URL
	client.apiBaseURL = api.URL

	details, err := client.FetchGameDetails(context.Background(), 570)
	require.NoError(t, err)
	require.NotNil(t, details)
	require.NotNil(t, details.CurrentPlayers)
	assert.Equal(t, uint32(421337), *details.CurrentPlayers)
}

func TestPlayerCountFailureDegrades(t *testing.T) {
	store := newStoreServer(t, nil)
	defer store.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "throttled", http.StatusTooManyRequests)
	}))
	defer api.Close()

	cfg := testConfig()
	cfg.APIKey = "test-key"
	client := NewClient(cfg, cachestore.NewDisabled())
	client.storeBaseURL = store.URL
	client.apiBaseURL = api.URL

	details, err := client.FetchGameDetails(context.Background(), 570)
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Nil(t, details.CurrentPlayers)
}

func TestHTTPErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(testConfig(), cachestore.NewDisabled())
	client.storeBaseURL = server.URL

	_, err := client.FetchGameDetails(context.Background(), 570)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestTruncateChars(t *testing.T) {
	assert.Equal(t, "short", TruncateChars("short", 10))
	assert.Equal(t, "exact", TruncateChars("exact", 5))
	assert.Equal(t, "abc...", TruncateChars("abcdef", 3))
	// 截断按字符计数而不是字节
	assert.Equal(t, "刀塔...", TruncateChars("刀塔自走棋", 2))

	truncated := TruncateChars("一二三四五六七八九十", 4)
	assert.LessOrEqual(t, len([]rune(truncated)), 4+3)
}

var _ out.GameCatalog = (*Client)(nil)

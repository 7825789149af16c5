// Package steam 按 Steam AppID 查询游戏详情，带两级缓存记忆化
package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Darkatse/StatusHub/internal/ports/out"
	"github.com/Darkatse/StatusHub/pkg/memcache"
)

const gameDetailsNamespace = "steam.game_details"

// Config Steam 客户端配置
type Config struct {
	APIKey              string        // 可选，配置后才查在线人数
	Language            string        // 商店文案语言
	DescriptionMaxChars int           // 简介截断长度
	Timeout             time.Duration // 单次请求超时
	MemoryTTL           time.Duration // 内存缓存 TTL
	MemoryCapacity      int           // 内存缓存容量
	DurableTTL          time.Duration // 持久缓存 TTL
}

// Client Steam 商店查询客户端
// 读路径：内存缓存 → 持久缓存（命中回填内存）→ 商店 API（两级都回填）
type Client struct {
	cfg        Config
	httpClient *http.Client
	memory     *memcache.Cache[uint32, out.GameDetails]
	cache      out.CacheStore

	// 测试时可替换
	storeBaseURL string
	apiBaseURL   string
}

// NewClient 创建客户端，cache 传 NewDisabled() 表示仅用内存缓存
func NewClient(cfg Config, cache out.CacheStore) *Client {
	return &Client{
		cfg:          cfg,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		memory:       memcache.New[uint32, out.GameDetails](cfg.MemoryTTL, cfg.MemoryCapacity),
		cache:        cache,
		storeBaseURL: "https://store.steampowered.com",
		apiBaseURL:   "https://api.steampowered.com",
	}
}

// FetchGameDetails 查询游戏详情，查不到返回 (nil, nil)
func (c *Client) FetchGameDetails(ctx context.Context, appID uint32) (*out.GameDetails, error) {
	if details, ok := c.memory.Get(appID); ok {
		return &details, nil
	}

	if details := c.getFromDurable(ctx, appID); details != nil {
		c.memory.Put(appID, *details)
		return details, nil
	}

	details, err := c.fetchFromAPI(ctx, appID)
	if err != nil {
		return nil, err
	}
	if details != nil {
		c.memory.Put(appID, *details)
		c.putToDurable(ctx, appID, details)
	}
	return details, nil
}

func (c *Client) getFromDurable(ctx context.Context, appID uint32) *out.GameDetails {
	if !c.cache.Enabled() {
		return nil
	}
	var details out.GameDetails
	hit, err := c.cache.GetJSON(ctx, gameDetailsNamespace, strconv.FormatUint(uint64(appID), 10), &details)
	if err != nil {
		zap.L().Warn("read steam cache failed",
			zap.Uint32("app_id", appID), zap.Error(err))
		return nil
	}
	if !hit {
		return nil
	}
	return &details
}

func (c *Client) putToDurable(ctx context.Context, appID uint32, details *out.GameDetails) {
	if !c.cache.Enabled() {
		return
	}
	key := strconv.FormatUint(uint64(appID), 10)
	if err := c.cache.SetJSON(ctx, gameDetailsNamespace, key, details, c.cfg.DurableTTL); err != nil {
		zap.L().Warn("write steam cache failed",
			zap.Uint32("app_id", appID), zap.Error(err))
	}
}

type appDetailsEnvelope struct {
	Success bool `json:"success"`
	Data    *struct {
		Name             string `json:"name"`
		ShortDescription string `json:"short_description"`
	} `json:"data"`
}

type currentPlayersRoot struct {
	Response struct {
		PlayerCount *uint32 `json:"player_count"`
	} `json:"response"`
}

func (c *Client) fetchFromAPI(ctx context.Context, appID uint32) (*out.GameDetails, error) {
	endpoint := fmt.Sprintf("%s/api/appdetails?%s", c.storeBaseURL, url.Values{
		"appids": {strconv.FormatUint(uint64(appID), 10)},
		"l":      {c.cfg.Language},
	}.Encode())

	var response map[string]appDetailsEnvelope
	if err := c.getJSON(ctx, endpoint, &response); err != nil {
		return nil, fmt.Errorf("query steam appdetails: %w", err)
	}

	entry, ok := response[strconv.FormatUint(uint64(appID), 10)]
	if !ok || !entry.Success || entry.Data == nil {
		return nil, nil
	}

	details := &out.GameDetails{
		AppID: appID,
		Name:  entry.Data.Name,
	}
	if trimmed := strings.TrimSpace(entry.Data.ShortDescription); trimmed != "" {
		details.ShortDescription = TruncateChars(trimmed, c.cfg.DescriptionMaxChars)
	}

	if c.cfg.APIKey != "" {
		// 在线人数查询失败只降级，不影响详情本身
		players, err := c.fetchCurrentPlayers(ctx, appID)
		if err != nil {
			zap.L().Warn("query steam current players failed",
				zap.Uint32("app_id", appID), zap.Error(err))
		} else {
			details.CurrentPlayers = players
		}
	}
	return details, nil
}

func (c *Client) fetchCurrentPlayers(ctx context.Context, appID uint32) (*uint32, error) {
	endpoint := fmt.Sprintf("%s/ISteamUserStats/GetNumberOfCurrentPlayers/v1/?%s", c.apiBaseURL, url.Values{
		"key":   {c.cfg.APIKey},
		"appid": {strconv.FormatUint(uint64(appID), 10)},
	}.Encode())

	var root currentPlayersRoot
	if err := c.getJSON(ctx, endpoint, &root); err != nil {
		return nil, err
	}
	return root.Response.PlayerCount, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "statushub/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected HTTP %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// TruncateChars 按字符数截断，超长时追加省略号
func TruncateChars(input string, maxChars int) string {
	runes := []rune(input)
	if len(runes) <= maxChars {
		return input
	}
	return string(runes[:maxChars]) + "..."
}

var _ out.GameCatalog = (*Client)(nil)

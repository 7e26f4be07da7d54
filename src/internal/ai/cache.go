package ai

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/VectorBits/GasGuardian/src/internal/logger"
	"github.com/VectorBits/GasGuardian/src/internal/report"
	"github.com/VectorBits/GasGuardian/src/internal/rules"
)

// DefaultCacheTTL 缓存的建议在 24 小时内有效
const DefaultCacheTTL = 24 * time.Hour

// Cache 以函数源码哈希为 key 的文件缓存，每个 key 一个 JSON 文件
type Cache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

type cacheEntry struct {
	Timestamp   int64              `json:"timestamp"` // unix 毫秒
	Suggestions []rules.Suggestion `json:"suggestions"`
}

// DefaultCacheDir ~/.gas-guardian/cache
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".gas-guardian", "cache")
	}
	return filepath.Join(home, ".gas-guardian", "cache")
}

func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		dir = DefaultCacheDir()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir, ttl: ttl, now: time.Now}, nil
}

// CacheKey sha256("optimization:" + 函数源码)
func CacheKey(functionCode string) string {
	sum := sha256.Sum256([]byte("optimization:" + functionCode))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Get 过期或损坏的条目视为未命中
func (c *Cache) Get(key string) ([]rules.Suggestion, bool) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Cache read error: %v", err)
		}
		return nil, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		logger.Warn("Cache read error: %v", err)
		return nil, false
	}
	if c.now().Sub(time.UnixMilli(entry.Timestamp)) >= c.ttl {
		return nil, false
	}
	return entry.Suggestions, true
}

func (c *Cache) Put(key string, suggestions []rules.Suggestion) error {
	if suggestions == nil {
		suggestions = []rules.Suggestion{}
	}
	data, err := json.Marshal(cacheEntry{
		Timestamp:   c.now().UnixMilli(),
		Suggestions: suggestions,
	})
	if err != nil {
		return err
	}
	return report.WriteFileAtomic(c.path(key), string(data))
}

package static_analyzer

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/VectorBits/GasGuardian/src/internal/logger"
)

// GasDataCache 按数据文件路径缓存 gas 数据；多个 worker 同时请求同一文件时只解析一次。
// generate 打开时，缺失的数据文件会在所属项目中生成一次
type GasDataCache struct {
	source   GasSource
	generate bool
	group    singleflight.Group

	mu        sync.RWMutex
	data      map[string]map[string]int
	attempted map[string]bool
}

func NewGasDataCache(source GasSource, generate bool) *GasDataCache {
	return &GasDataCache{
		source:    source,
		generate:  generate,
		data:      make(map[string]map[string]int),
		attempted: make(map[string]bool),
	}
}

// NewSnapshotCache 只读 Foundry 快照的缓存
func NewSnapshotCache(snapshotFile string) *GasDataCache {
	return NewGasDataCache(&FoundrySource{SnapshotFile: snapshotFile}, false)
}

// ForContract 返回合约所属项目的 gas 数据；没有数据时返回 nil
func (c *GasDataCache) ForContract(ctx context.Context, contractPath string) (map[string]int, error) {
	path, ok := c.source.Locate(contractPath)
	if !ok && c.generate {
		if err := c.generateOnce(ctx, path, contractPath); err != nil {
			return nil, err
		}
		path, ok = c.source.Locate(contractPath)
	}
	if !ok {
		logger.Debug("No gas data for %s", contractPath)
		return nil, nil
	}

	c.mu.RLock()
	gasData, cached := c.data[path]
	c.mu.RUnlock()
	if cached {
		return gasData, nil
	}

	v, err, _ := c.group.Do(path, func() (interface{}, error) {
		gasData, err := c.source.Load(path)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.data[path] = gasData
		c.mu.Unlock()
		logger.Info("Loaded %d gas measurements from %s", len(gasData), path)
		return gasData, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]int), nil
}

// generateOnce 每个期望路径最多生成一次，失败后同一项目的其它文件不再重试
func (c *GasDataCache) generateOnce(ctx context.Context, path, contractPath string) error {
	_, err, _ := c.group.Do("generate:"+path, func() (interface{}, error) {
		c.mu.Lock()
		if c.attempted[path] {
			c.mu.Unlock()
			return nil, nil
		}
		c.attempted[path] = true
		c.mu.Unlock()
		return nil, c.source.Generate(ctx, contractPath)
	})
	return err
}

// Loaded 已加载的数据文件数
func (c *GasDataCache) Loaded() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Hint 没有加载到任何数据时的提示
func (c *GasDataCache) Hint() string {
	return c.source.Hint()
}

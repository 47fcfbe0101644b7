package cache

import (
	"context"
	"fmt"

	"myfridge-api/internal/infrastructure/config"
	"myfridge-api/internal/pkg/common"

	"go.uber.org/zap"
)

// Store 快取儲存介面
//
// Get 在鍵不存在或已過期時回傳 common.ErrCacheMiss。
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Stats() map[string]interface{}
	Close() error
}

// NewStore 依設定建立快取；快取關閉時回傳 nil
func NewStore(cfg *config.Config) (Store, error) {
	if !cfg.Cache.Enabled {
		common.LogInfo("Cache disabled")
		return nil, nil
	}

	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		return NewRedisStore(cfg)
	case config.CacheBackendMemory:
		return NewManager(cfg.Cache), nil
	default:
		common.LogError("Unknown cache backend", zap.String("backend", cfg.Cache.Backend))
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

package cache

import (
	"context"

	"allergen-scanner/internal/infrastructure/config"
	"allergen-scanner/internal/pkg/common"

	"go.uber.org/zap"
)

// Store 鍵值快取，未命中時回傳 common.ErrCacheMiss
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	GetStats() map[string]interface{}
	Close() error
}

// NewStore 依設定建立快取：停用時回傳 nil，有 Redis 位址時使用 Redis，否則使用記憶體快取
func NewStore(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	if !cfg.Enabled {
		common.LogInfo("Cache disabled")
		return nil, nil
	}
	if cfg.RedisAddr != "" {
		store, err := NewRedisStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		common.LogInfo("使用 Redis 快取", zap.String("addr", cfg.RedisAddr), zap.Int("db", cfg.RedisDB))
		return store, nil
	}
	return NewManager(cfg.MaxSize, cfg.TTL, cfg.CleanupInterval), nil
}

// hitRatio 命中率，沒有任何查詢時為 0
func hitRatio(hits, misses int64) float64 {
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}


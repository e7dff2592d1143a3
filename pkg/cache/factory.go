package cache

import (
	"github.com/easyops/foodrag-go/pkg/core/config"
	"github.com/easyops/foodrag-go/pkg/otel"
)

// New 根据配置创建缓存
func New(cfg config.CacheConfig, logger otel.Logger) (Cache, error) {
	switch cfg.Backend {
	case "sqlite":
		return NewSQLiteCache(cfg.SQLitePath, cfg.Capacity, cfg.TTL, logger)
	case "memory":
		fallthrough
	default:
		return NewTTLCache(cfg.Capacity, cfg.TTL), nil
	}
}

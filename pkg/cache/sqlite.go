package cache

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/easyops/foodrag-go/pkg/otel"
)

// SQLiteCache 基于 SQLite 的持久化缓存。
//
// 与 TTLCache 保持相同的可观测语义：惰性 TTL 检查、
// 按最近访问时间淘汰。默认不启用，需在配置中显式选择
// sqlite 后端。
type SQLiteCache struct {
	db       *sql.DB
	capacity int
	ttl      time.Duration
	logger   otel.Logger
	mu       sync.Mutex
}

// NewSQLiteCache 创建 SQLite 缓存。
func NewSQLiteCache(dbPath string, capacity int, ttl time.Duration, logger otel.Logger) (*SQLiteCache, error) {
	if capacity <= 0 {
		capacity = 1000
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = otel.NewNoopLogger()
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	c := &SQLiteCache{
		db:       db,
		capacity: capacity,
		ttl:      ttl,
		logger:   logger,
	}

	if err := c.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return c, nil
}

// initSchema 初始化表结构
func (c *SQLiteCache) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS context_cache (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		inserted_at INTEGER NOT NULL,
		accessed_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_context_cache_accessed_at ON context_cache(accessed_at);
	`

	_, err := c.db.Exec(query)
	return err
}

// Get 返回键对应的值，过期条目删除后按未命中处理。
func (c *SQLiteCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var value string
	var insertedAt int64
	err := c.db.QueryRow(
		`SELECT value, inserted_at FROM context_cache WHERE key = ?`, key,
	).Scan(&value, &insertedAt)
	if err == sql.ErrNoRows {
		return "", false
	}
	if err != nil {
		c.logger.Error("cache read failed", "key", key, "error", err)
		return "", false
	}

	now := time.Now()
	if now.Sub(time.UnixMilli(insertedAt)) >= c.ttl {
		if _, err := c.db.Exec(`DELETE FROM context_cache WHERE key = ?`, key); err != nil {
			c.logger.Error("cache expiry delete failed", "key", key, "error", err)
		}
		return "", false
	}

	if _, err := c.db.Exec(
		`UPDATE context_cache SET accessed_at = ? WHERE key = ?`, now.UnixMilli(), key,
	); err != nil {
		c.logger.Error("cache access update failed", "key", key, "error", err)
	}

	return value, true
}

// Put 写入键值，超出容量时按最近访问时间淘汰。
func (c *SQLiteCache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixMilli()
	_, err := c.db.Exec(`
	INSERT INTO context_cache (key, value, inserted_at, accessed_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		inserted_at = excluded.inserted_at,
		accessed_at = excluded.accessed_at
	`, key, value, now, now)
	if err != nil {
		c.logger.Error("cache write failed", "key", key, "error", err)
		return
	}

	_, err = c.db.Exec(`
	DELETE FROM context_cache WHERE key IN (
		SELECT key FROM context_cache
		ORDER BY accessed_at DESC
		LIMIT -1 OFFSET ?
	)`, c.capacity)
	if err != nil {
		c.logger.Error("cache eviction failed", "error", err)
	}
}

// Len 返回当前条目数。
func (c *SQLiteCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var count int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM context_cache`).Scan(&count); err != nil {
		return 0
	}
	return count
}

// Close 关闭底层数据库。
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// 编译时接口检查
var _ Cache = (*SQLiteCache)(nil)

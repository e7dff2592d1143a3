// Package config 提供配置加载和管理功能
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/easyops/foodrag-go/pkg/otel"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "FOODRAG_"

// Config 全局配置结构
type Config struct {
	// Retrieval 检索配置
	Retrieval RetrievalConfig `koanf:"retrieval"`
	// Cache 缓存配置
	Cache CacheConfig `koanf:"cache"`
	// HTTP HTTP 客户端配置
	HTTP HTTPConfig `koanf:"http"`
	// Observability 可观测性配置
	Observability otel.Config `koanf:"observability"`
}

// RetrievalConfig 检索配置
type RetrievalConfig struct {
	// Workers 工作池大小
	Workers int `koanf:"workers"`
	// TokenLimit 单条上下文的 Token 上限
	TokenLimit int `koanf:"token_limit"`
	// GlobalTokenBudget 批量聚合的全局 Token 预算
	GlobalTokenBudget int `koanf:"global_token_budget"`
	// ScoreThreshold 段落保留的最低相似度分数
	ScoreThreshold float64 `koanf:"score_threshold"`
	// MaxPassages 每个查询词获取的段落数量
	MaxPassages int `koanf:"max_passages"`
	// PassageCharCap 段落在评分和拼接前的字符上限
	PassageCharCap int `koanf:"passage_char_cap"`
	// FoodDataAPIKey FoodData Central API 密钥
	FoodDataAPIKey string `koanf:"fooddata_api_key"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	// Backend 缓存后端（"memory" 或 "sqlite"）
	Backend string `koanf:"backend"`
	// Capacity 最大条目数，超出时按 LRU 淘汰
	Capacity int `koanf:"capacity"`
	// TTL 条目过期时间
	TTL time.Duration `koanf:"ttl"`
	// SQLitePath SQLite 数据库路径（backend 为 "sqlite" 时使用）
	SQLitePath string `koanf:"sqlite_path"`
}

// HTTPConfig HTTP 客户端配置
type HTTPConfig struct {
	// Timeout 单次请求超时
	Timeout time.Duration `koanf:"timeout"`
	// MaxRetries 最大重试次数
	MaxRetries int `koanf:"max_retries"`
	// BackoffFactor 指数退避的基础因子（秒）
	BackoffFactor float64 `koanf:"backoff_factor"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Retrieval: RetrievalConfig{
			Workers:           5,
			TokenLimit:        200,
			GlobalTokenBudget: 128000,
			ScoreThreshold:    0.2,
			MaxPassages:       2,
			PassageCharCap:    1000,
		},
		Cache: CacheConfig{
			Backend:  "memory",
			Capacity: 1000,
			TTL:      time.Hour,
		},
		HTTP: HTTPConfig{
			Timeout:       5 * time.Second,
			MaxRetries:    3,
			BackoffFactor: 0.5,
		},
		Observability: otel.DefaultConfig(),
	}
}

// Loader 配置加载器
type Loader struct {
	k *koanf.Koanf
}

// NewLoader 创建配置加载器
func NewLoader() *Loader {
	return &Loader{
		k: koanf.New("."),
	}
}

// observabilitySections observability 子树下还有一层配置段，
// 其叶子键需要三段路径才能寻址
var observabilitySections = map[string]bool{
	"exporter": true,
	"tracing":  true,
	"metrics":  true,
	"logging":  true,
}

// LoadEnv 从环境变量加载配置
func (l *Loader) LoadEnv(prefix string) error {
	return l.k.Load(env.Provider(prefix, ".", func(s string) string {
		// 转换环境变量名，只在段边界切分，叶子键里的下划线原样保留:
		//   FOODRAG_RETRIEVAL_TOKEN_LIMIT             -> retrieval.token_limit
		//   FOODRAG_OBSERVABILITY_TRACING_SAMPLE_RATE -> observability.tracing.sample_rate
		s = strings.ToLower(strings.TrimPrefix(s, prefix))
		section, rest, ok := strings.Cut(s, "_")
		if !ok {
			return s
		}
		if section == "observability" {
			if sub, leaf, ok := strings.Cut(rest, "_"); ok && observabilitySections[sub] {
				return section + "." + sub + "." + leaf
			}
		}
		return section + "." + rest
	}), nil)
}

// Unmarshal 解析配置到结构体
func (l *Loader) Unmarshal(cfg *Config) error {
	return l.k.Unmarshal("", cfg)
}

// Load 加载完整配置（默认值 + 环境变量）
func Load() (*Config, error) {
	cfg := Default()

	loader := NewLoader()
	if err := loader.LoadEnv(EnvPrefix); err != nil {
		return nil, err
	}
	if err := loader.Unmarshal(cfg); err != nil {
		return nil, err
	}

	// 凭证与原始部署保持同一变量名
	if cfg.Retrieval.FoodDataAPIKey == "" {
		cfg.Retrieval.FoodDataAPIKey = os.Getenv("FOODDATA_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

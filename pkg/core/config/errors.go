package config

import (
	"fmt"
)

// ValidationError 配置校验错误
type ValidationError struct {
	// Field 出错的配置项
	Field string
	// Message 错误描述
	Message string
}

// Error 实现 error 接口
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: invalid %s: %s", e.Field, e.Message)
}

// Validate 校验配置取值范围
//
// 凭证缺失不在此处校验：只有结构化检索路径需要凭证，
// 由 FoodDataClient 的构造函数负责报错。
func (c *Config) Validate() error {
	if c.Retrieval.Workers <= 0 {
		return &ValidationError{Field: "retrieval.workers", Message: "must be positive"}
	}
	if c.Retrieval.TokenLimit <= 0 {
		return &ValidationError{Field: "retrieval.token_limit", Message: "must be positive"}
	}
	if c.Retrieval.GlobalTokenBudget <= 0 {
		return &ValidationError{Field: "retrieval.global_token_budget", Message: "must be positive"}
	}
	if c.Retrieval.ScoreThreshold < 0 || c.Retrieval.ScoreThreshold > 1 {
		return &ValidationError{Field: "retrieval.score_threshold", Message: "must be in [0, 1]"}
	}
	if c.Retrieval.MaxPassages <= 0 {
		return &ValidationError{Field: "retrieval.max_passages", Message: "must be positive"}
	}
	if c.Cache.Capacity <= 0 {
		return &ValidationError{Field: "cache.capacity", Message: "must be positive"}
	}
	if c.Cache.TTL <= 0 {
		return &ValidationError{Field: "cache.ttl", Message: "must be positive"}
	}
	if c.Cache.Backend != "memory" && c.Cache.Backend != "sqlite" {
		return &ValidationError{Field: "cache.backend", Message: "must be \"memory\" or \"sqlite\""}
	}
	if c.Cache.Backend == "sqlite" && c.Cache.SQLitePath == "" {
		return &ValidationError{Field: "cache.sqlite_path", Message: "required for sqlite backend"}
	}
	if c.HTTP.Timeout <= 0 {
		return &ValidationError{Field: "http.timeout", Message: "must be positive"}
	}
	if c.HTTP.MaxRetries < 0 {
		return &ValidationError{Field: "http.max_retries", Message: "must not be negative"}
	}
	if c.HTTP.BackoffFactor < 0 {
		return &ValidationError{Field: "http.backoff_factor", Message: "must not be negative"}
	}
	if err := c.Observability.Validate(); err != nil {
		return &ValidationError{Field: "observability", Message: err.Error()}
	}
	return nil
}

package context

import (
	"context"

	"github.com/easyops/foodrag-go/pkg/retrieval"
)

// Fetcher 文献检索依赖。
// 由 retrieval.ArxivClient 实现。
type Fetcher interface {
	// Fetch 获取与查询词相关的段落，最多 maxItems 条。
	Fetch(ctx context.Context, term string, maxItems int) ([]retrieval.Passage, error)
}

// Summarizer 结构化检索依赖。
// 由 retrieval.FoodDataClient 实现。
type Summarizer interface {
	// FetchSummary 获取查询词对应的摘要。
	FetchSummary(ctx context.Context, term string) retrieval.Outcome
}

// Scorer 相似度评分依赖。
// 由 similarity 包的评分器实现。
type Scorer interface {
	// Score 返回两段文本的相似度分数，取值范围 [0, 1]。
	Score(a, b string) float64
}

// TokenCounter Token 计数依赖。
// 由 token 包的计数器实现。
type TokenCounter interface {
	// Count 返回给定文本的 Token 数量。
	Count(text string) int
	// Truncate 将文本截断到不超过 limit 个 Token。
	Truncate(text string, limit int) string
}

// Cache 按键缓存依赖。
// 由 cache 包的缓存实现。
type Cache interface {
	// Get 返回键对应的值。过期条目视为不存在。
	Get(key string) (string, bool)
	// Put 写入键值。
	Put(key, value string)
}

// TermResolver 单个查询词的解析依赖。
// 由 Resolver 实现，Orchestrator 通过它扇出任务。
type TermResolver interface {
	// Resolve 返回查询词对应的有界上下文文本。
	Resolve(ctx context.Context, term string) string
}

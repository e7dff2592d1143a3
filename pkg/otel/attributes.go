package otel

import "go.opentelemetry.io/otel/attribute"

// 预定义的语义属性键
const (
	// 查询相关属性
	AttrTerm    = "query.term"
	AttrBatchID = "query.batch_id"
	AttrBatch   = "query.batch_size"

	// 检索相关属性
	AttrSource       = "retrieval.source"
	AttrPassageCount = "retrieval.passage_count"
	AttrCacheHit     = "retrieval.cache_hit"

	// Token 相关属性
	AttrTokens      = "tokens.count"
	AttrTokenBudget = "tokens.budget"
	AttrTokensUsed  = "tokens.used"

	// 错误相关属性
	AttrErrorType = "error.type"
)

// Term 创建查询词属性
func Term(term string) attribute.KeyValue {
	return attribute.String(AttrTerm, term)
}

// BatchID 创建批次标识属性
func BatchID(id string) attribute.KeyValue {
	return attribute.String(AttrBatchID, id)
}

// BatchSize 创建批次大小属性
func BatchSize(n int) attribute.KeyValue {
	return attribute.Int(AttrBatch, n)
}

// Source 创建检索来源属性
func Source(source string) attribute.KeyValue {
	return attribute.String(AttrSource, source)
}

// PassageCount 创建段落数量属性
func PassageCount(n int) attribute.KeyValue {
	return attribute.Int(AttrPassageCount, n)
}

// CacheHit 创建缓存命中属性
func CacheHit(hit bool) attribute.KeyValue {
	return attribute.Bool(AttrCacheHit, hit)
}

// Tokens 创建 Token 数量属性
func Tokens(n int) attribute.KeyValue {
	return attribute.Int(AttrTokens, n)
}

// TokenBudget 创建 Token 预算属性
func TokenBudget(n int) attribute.KeyValue {
	return attribute.Int(AttrTokenBudget, n)
}

// TokensUsed 创建已用 Token 数量属性
func TokensUsed(n int) attribute.KeyValue {
	return attribute.Int(AttrTokensUsed, n)
}

package otel

// 预定义的指标名称
// 遵循 OpenTelemetry 语义约定
const (
	// 缓存指标
	MetricCacheHits   = "cache.hits"   // 计数器: 缓存命中次数
	MetricCacheMisses = "cache.misses" // 计数器: 缓存未命中次数

	// 检索指标
	MetricFetchRequests = "retrieval.fetches"        // 计数器: 检索请求次数
	MetricFetchErrors   = "retrieval.errors"         // 计数器: 检索失败次数
	MetricFetchRetries  = "retrieval.retries"        // 计数器: 检索重试次数
	MetricFetchDuration = "retrieval.fetch.duration" // 直方图: 检索耗时(ms)

	// 上下文解析指标
	MetricResolveDuration = "context.resolve.duration" // 直方图: 单词解析耗时(ms)
	MetricPassagesKept    = "context.passages.kept"    // 计数器: 通过相似度过滤的段落数
	MetricPassagesDropped = "context.passages.dropped" // 计数器: 被相似度过滤掉的段落数

	// 预算指标
	MetricBudgetAccepted = "budget.accepted.tokens" // 计数器: 已接受的 Token 总数
	MetricBudgetRejected = "budget.rejected"        // 计数器: 因预算拒绝的摘要数

	// 批量指标
	MetricBatchTerms    = "batch.terms"    // 计数器: 批量处理的查询词数
	MetricBatchDuration = "batch.duration" // 直方图: 批量处理耗时(ms)
)

package context

import (
	"context"
	"strings"
	"time"

	"github.com/easyops/foodrag-go/pkg/otel"
)

// passageSeparator 同一查询词下段落之间的分隔符
const passageSeparator = "\n\n"

// Resolver 单个查询词的上下文解析器。
//
// 流水线：缓存查询 → 获取段落 → 截断与评分过滤 →
// 拼接 → Token 截断 → 写入缓存。除构造时注入的依赖外
// 无内部状态，可安全并发调用。
type Resolver struct {
	fetcher Fetcher
	scorer  Scorer
	counter TokenCounter
	cache   Cache

	maxPassages    int
	passageCharCap int
	scoreThreshold float64
	tokenLimit     int

	logger  otel.Logger
	tracer  otel.Tracer
	metrics otel.Metrics
}

// ResolverOption 配置 Resolver。
type ResolverOption func(*Resolver)

// WithMaxPassages 设置每个查询词获取的段落数量。
func WithMaxPassages(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.maxPassages = n
		}
	}
}

// WithPassageCharCap 设置段落在评分和拼接前的字符上限。
func WithPassageCharCap(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.passageCharCap = n
		}
	}
}

// WithScoreThreshold 设置段落保留的最低相似度分数。
func WithScoreThreshold(threshold float64) ResolverOption {
	return func(r *Resolver) {
		r.scoreThreshold = threshold
	}
}

// WithTokenLimit 设置单条上下文的 Token 上限。
func WithTokenLimit(limit int) ResolverOption {
	return func(r *Resolver) {
		if limit > 0 {
			r.tokenLimit = limit
		}
	}
}

// WithResolverLogger 设置日志器。
func WithResolverLogger(logger otel.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithResolverTracer 设置追踪器。
func WithResolverTracer(tracer otel.Tracer) ResolverOption {
	return func(r *Resolver) {
		r.tracer = tracer
	}
}

// WithResolverMetrics 设置指标收集器。
func WithResolverMetrics(metrics otel.Metrics) ResolverOption {
	return func(r *Resolver) {
		r.metrics = metrics
	}
}

// NewResolver 创建上下文解析器。
func NewResolver(fetcher Fetcher, scorer Scorer, counter TokenCounter, cache Cache, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		fetcher:        fetcher,
		scorer:         scorer,
		counter:        counter,
		cache:          cache,
		maxPassages:    2,
		passageCharCap: 1000,
		scoreThreshold: 0.2,
		tokenLimit:     200,
		logger:         otel.NewNoopLogger(),
		tracer:         otel.NewNoopTracer(),
		metrics:        otel.NewNoopMetrics(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve 返回查询词对应的有界上下文文本。
//
// 所有失败都降级处理：检索失败等同于零结果，零结果
// 照常缓存并返回空字符串，绝不向调用方抛出错误。
func (r *Resolver) Resolve(ctx context.Context, term string) string {
	ctx, span := r.tracer.Start(ctx, "context.resolve", otel.Term(term))
	defer span.End()

	start := time.Now()
	defer func() {
		r.metrics.Histogram(otel.MetricResolveDuration).Record(ctx,
			float64(time.Since(start).Milliseconds()))
	}()

	if cached, ok := r.cache.Get(term); ok {
		r.metrics.Counter(otel.MetricCacheHits).Add(ctx, 1)
		span.SetAttributes(otel.CacheHit(true))
		return cached
	}
	r.metrics.Counter(otel.MetricCacheMisses).Add(ctx, 1)
	span.SetAttributes(otel.CacheHit(false))

	r.metrics.Counter(otel.MetricFetchRequests).Add(ctx, 1, otel.Source("arxiv"))
	passages, err := r.fetcher.Fetch(ctx, term, r.maxPassages)
	if err != nil {
		// 降级策略：检索失败视为零结果
		span.RecordError(err)
		r.metrics.Counter(otel.MetricFetchErrors).Add(ctx, 1, otel.Source("arxiv"))
		r.logger.WithContext(ctx).Warn("fetch failed, degrading to empty context",
			"term", term, "error", err)
		passages = nil
	}
	span.SetAttributes(otel.PassageCount(len(passages)))

	// 按原始获取顺序过滤，先截断字符再评分
	kept := make([]string, 0, len(passages))
	for _, p := range passages {
		text := capRunes(p.Text, r.passageCharCap)
		score := r.scorer.Score(term, text)
		if score >= r.scoreThreshold {
			kept = append(kept, text)
			r.metrics.Counter(otel.MetricPassagesKept).Add(ctx, 1)
		} else {
			r.metrics.Counter(otel.MetricPassagesDropped).Add(ctx, 1)
			r.logger.WithContext(ctx).Debug("passage below threshold",
				"term", term, "score", score)
		}
	}

	combined := strings.Join(kept, passageSeparator)
	truncated := r.counter.Truncate(combined, r.tokenLimit)

	r.cache.Put(term, truncated)
	span.SetAttributes(otel.Tokens(r.counter.Count(truncated)))

	return truncated
}

// capRunes 将文本截断到最多 n 个字符（按 rune 计）。
func capRunes(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}

// 编译时接口检查
var _ TermResolver = (*Resolver)(nil)

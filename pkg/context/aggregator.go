package context

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/easyops/foodrag-go/pkg/otel"
	"github.com/easyops/foodrag-go/pkg/retrieval"
)

// summarySeparator 聚合输出中摘要之间的分隔符
const summarySeparator = " "

// Aggregator 预算聚合器。
//
// 为每个查询词并发获取摘要，所有摘要共享一个全局
// Token 预算。摘要按完成顺序接受：预算放得下就追加
// 并扣减，放不下就停止接受（在途任务照常跑完，结果
// 丢弃）。因此输出中摘要的顺序依运行而定，属于
// 有意为之的非确定性。
type Aggregator struct {
	summarizer Summarizer
	counter    TokenCounter

	workers int
	budget  int

	logger  otel.Logger
	tracer  otel.Tracer
	metrics otel.Metrics
}

// AggregatorOption 配置 Aggregator。
type AggregatorOption func(*Aggregator)

// WithAggregatorWorkers 设置工作池大小。
func WithAggregatorWorkers(n int) AggregatorOption {
	return func(a *Aggregator) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithGlobalTokenBudget 设置整批共享的 Token 预算。
func WithGlobalTokenBudget(budget int) AggregatorOption {
	return func(a *Aggregator) {
		if budget > 0 {
			a.budget = budget
		}
	}
}

// WithAggregatorLogger 设置日志器。
func WithAggregatorLogger(logger otel.Logger) AggregatorOption {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// WithAggregatorTracer 设置追踪器。
func WithAggregatorTracer(tracer otel.Tracer) AggregatorOption {
	return func(a *Aggregator) {
		a.tracer = tracer
	}
}

// WithAggregatorMetrics 设置指标收集器。
func WithAggregatorMetrics(metrics otel.Metrics) AggregatorOption {
	return func(a *Aggregator) {
		a.metrics = metrics
	}
}

// NewAggregator 创建预算聚合器。
func NewAggregator(summarizer Summarizer, counter TokenCounter, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		summarizer: summarizer,
		counter:    counter,
		workers:    5,
		budget:     128000,
		logger:     otel.NewNoopLogger(),
		tracer:     otel.NewNoopTracer(),
		metrics:    otel.NewNoopMetrics(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// FetchFoodContext 并发获取所有查询词的摘要并在预算内聚合。
//
// 接受顺序是完成顺序而非提交顺序，输出顺序依运行而定。
// 已接受的 Token 总数绝不超过全局预算。
func (a *Aggregator) FetchFoodContext(ctx context.Context, terms []string) string {
	batchID := uuid.New().String()
	ctx, span := a.tracer.Start(ctx, "context.aggregate",
		otel.BatchID(batchID), otel.BatchSize(len(terms)), otel.TokenBudget(a.budget))
	defer span.End()

	start := time.Now()
	defer func() {
		a.metrics.Histogram(otel.MetricBatchDuration).Record(ctx,
			float64(time.Since(start).Milliseconds()))
	}()

	a.metrics.Counter(otel.MetricBatchTerms).Add(ctx, int64(len(terms)))

	jobs := make(chan string)
	outcomes := make(chan retrieval.Outcome)

	var wg sync.WaitGroup
	for w := 0; w < a.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for term := range jobs {
				outcomes <- a.summarizer.FetchSummary(ctx, term)
			}
		}()
	}

	go func() {
		for _, term := range terms {
			jobs <- term
		}
		close(jobs)
		wg.Wait()
		close(outcomes)
	}()

	// 唯一的消费循环：预算检查与追加在这里顺序执行，
	// 对并发完成的任务天然原子
	var summaries []string
	used := 0
	accepting := true

	for outcome := range outcomes {
		switch outcome.Status {
		case retrieval.StatusFailed:
			// 单个查询词的失败不影响批次
			a.logger.WithContext(ctx).Warn("summary failed, skipping term",
				"batch_id", batchID, "error", outcome.Err)
			continue
		case retrieval.StatusEmpty:
			continue
		}

		if !accepting {
			// 预算已收口，在途结果直接丢弃
			a.metrics.Counter(otel.MetricBudgetRejected).Add(ctx, 1)
			continue
		}

		tokens := a.counter.Count(outcome.Value)
		if used+tokens > a.budget {
			accepting = false
			a.metrics.Counter(otel.MetricBudgetRejected).Add(ctx, 1)
			a.logger.WithContext(ctx).Warn("token budget reached, skipping remaining items",
				"batch_id", batchID, "used", used, "budget", a.budget)
			continue
		}

		summaries = append(summaries, outcome.Value)
		used += tokens
		a.metrics.Counter(otel.MetricBudgetAccepted).Add(ctx, int64(tokens))
	}

	span.SetAttributes(otel.TokensUsed(used))
	return strings.Join(summaries, summarySeparator)
}

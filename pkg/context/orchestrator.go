package context

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/easyops/foodrag-go/pkg/otel"
)

// BatchSeparator 批量输出中各查询词上下文之间的分隔符。
//
// 空上下文也占一个位置，因此按该分隔符切分输出，
// 得到的序列与输入查询词等长且顺序一致。
const BatchSeparator = "\n\n---\n\n"

// Orchestrator 并发编排器。
//
// 在固定大小的工作池上为每个查询词扇出一次解析，
// 结果按输入顺序写入对应的位置槽，与 Aggregator 的
// 完成顺序策略不同，输出顺序是确定的。
type Orchestrator struct {
	resolver TermResolver
	workers  int

	logger  otel.Logger
	tracer  otel.Tracer
	metrics otel.Metrics
}

// OrchestratorOption 配置 Orchestrator。
type OrchestratorOption func(*Orchestrator)

// WithWorkers 设置工作池大小。
func WithWorkers(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithOrchestratorLogger 设置日志器。
func WithOrchestratorLogger(logger otel.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithOrchestratorTracer 设置追踪器。
func WithOrchestratorTracer(tracer otel.Tracer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.tracer = tracer
	}
}

// WithOrchestratorMetrics 设置指标收集器。
func WithOrchestratorMetrics(metrics otel.Metrics) OrchestratorOption {
	return func(o *Orchestrator) {
		o.metrics = metrics
	}
}

// NewOrchestrator 创建并发编排器。
func NewOrchestrator(resolver TermResolver, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		resolver: resolver,
		workers:  5,
		logger:   otel.NewNoopLogger(),
		tracer:   otel.NewNoopTracer(),
		metrics:  otel.NewNoopMetrics(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// FetchContext 并发解析所有查询词并拼接结果。
//
// 输出保持输入顺序；单个查询词的失败由 Resolver 内部
// 降级为空字符串，空位照常参与拼接，批次永不中断。
func (o *Orchestrator) FetchContext(ctx context.Context, terms []string) string {
	batchID := uuid.New().String()
	ctx, span := o.tracer.Start(ctx, "context.batch",
		otel.BatchID(batchID), otel.BatchSize(len(terms)))
	defer span.End()

	start := time.Now()
	defer func() {
		o.metrics.Histogram(otel.MetricBatchDuration).Record(ctx,
			float64(time.Since(start).Milliseconds()))
	}()

	o.metrics.Counter(otel.MetricBatchTerms).Add(ctx, int64(len(terms)))
	o.logger.WithContext(ctx).Info("resolving batch",
		"batch_id", batchID, "terms", len(terms))

	// 每个查询词一个位置槽，按输入下标落位
	results := make([]string, len(terms))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < o.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = o.resolver.Resolve(ctx, terms[i])
			}
		}()
	}

	for i := range terms {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return strings.Join(results, BatchSeparator)
}

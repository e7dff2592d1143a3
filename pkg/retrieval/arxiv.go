package retrieval

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/easyops/foodrag-go/pkg/core/errors"
	"github.com/easyops/foodrag-go/pkg/otel"
)

// defaultArxivBaseURL arXiv 导出 API 端点
const defaultArxivBaseURL = "http://export.arxiv.org/api/query"

// ArxivClient 文献检索客户端。
//
// arXiv 导出 API 不允许并发请求，所有 Fetch 调用
// 通过一把互斥锁串行执行；锁只覆盖 HTTP 往返本身，
// 解析、评分和缓存都在锁外并行进行。客户端构造一次后
// 注入各处共享，锁因此对整个进程生效。
type ArxivClient struct {
	baseURL    string
	httpClient *http.Client
	logger     otel.Logger
	metrics    otel.Metrics
	fetchMu    sync.Mutex
}

// ArxivOption 配置 ArxivClient。
type ArxivOption func(*ArxivClient)

// WithArxivBaseURL 覆盖 API 端点（用于测试）。
func WithArxivBaseURL(baseURL string) ArxivOption {
	return func(c *ArxivClient) {
		c.baseURL = baseURL
	}
}

// WithArxivHTTPClient 替换 HTTP 客户端。
func WithArxivHTTPClient(client *http.Client) ArxivOption {
	return func(c *ArxivClient) {
		c.httpClient = client
	}
}

// WithArxivLogger 设置日志器。
func WithArxivLogger(logger otel.Logger) ArxivOption {
	return func(c *ArxivClient) {
		c.logger = logger
	}
}

// WithArxivMetrics 设置指标收集器。
func WithArxivMetrics(metrics otel.Metrics) ArxivOption {
	return func(c *ArxivClient) {
		c.metrics = metrics
	}
}

// NewArxivClient 创建文献检索客户端。
func NewArxivClient(opts ...ArxivOption) *ArxivClient {
	c := &ArxivClient{
		baseURL:    defaultArxivBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     otel.NewNoopLogger(),
		metrics:    otel.NewNoopMetrics(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// atomFeed arXiv Atom 响应
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID      string `xml:"id"`
	Title   string `xml:"title"`
	Summary string `xml:"summary"`
}

// Fetch 获取与查询词相关的段落，最多 maxItems 条。
//
// 返回错误时段落列表一定为空；调用方按降级策略把错误
// 当作零结果处理，这里只负责把失败原因带出去并记日志。
func (c *ArxivClient) Fetch(ctx context.Context, term string, maxItems int) ([]Passage, error) {
	if maxItems <= 0 {
		return nil, nil
	}

	query := url.Values{}
	query.Set("search_query", fmt.Sprintf("all:%q", term))
	query.Set("start", "0")
	query.Set("max_results", fmt.Sprintf("%d", maxItems))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, errors.WrapError(err, "build arxiv request")
	}

	start := time.Now()
	body, err := c.doFetch(req)
	c.metrics.Histogram(otel.MetricFetchDuration).Record(ctx,
		float64(time.Since(start).Milliseconds()), otel.Source("arxiv"))
	if err != nil {
		c.logger.Error("arxiv fetch failed", "term", term, "error", err)
		return nil, err
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		c.logger.Error("arxiv response parse failed", "term", term, "error", err)
		return nil, errors.WrapError(errors.ErrMalformedResponse, err.Error())
	}

	passages := make([]Passage, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		text := strings.TrimSpace(entry.Summary)
		if text == "" {
			continue
		}
		passages = append(passages, Passage{
			Title:  strings.TrimSpace(entry.Title),
			Text:   text,
			Source: entry.ID,
		})
		if len(passages) >= maxItems {
			break
		}
	}

	return passages, nil
}

// doFetch 执行 HTTP 往返。锁只覆盖这一步。
func (c *ArxivClient) doFetch(req *http.Request) ([]byte, error) {
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WrapError(err, "arxiv request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: arxiv returned status %d", errors.ErrRequestFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapError(err, "read arxiv response")
	}

	return body, nil
}

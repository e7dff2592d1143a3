package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/easyops/foodrag-go/pkg/core/errors"
	"github.com/easyops/foodrag-go/pkg/otel"
)

// defaultFoodDataBaseURL FoodData Central 搜索端点
const defaultFoodDataBaseURL = "https://api.nal.usda.gov/fdc/v1/foods/search"

// unknownBrand 品牌字段缺失时的占位值
const unknownBrand = "Unknown brand"

// maxNutrients 摘要中最多包含的营养素条数
const maxNutrients = 3

// FoodDataClient 结构化检索客户端。
//
// 通过 FoodData Central 搜索 API 获取单条食品记录，
// 失败时按固定的瞬时状态集合做指数退避重试。
// 底层 http.Client 的连接池可安全并发使用，
// 不需要额外的全局锁。
type FoodDataClient struct {
	apiKey        string
	baseURL       string
	httpClient    *http.Client
	maxRetries    int
	backoffFactor float64
	logger        otel.Logger
	metrics       otel.Metrics
}

// FoodDataOption 配置 FoodDataClient。
type FoodDataOption func(*FoodDataClient)

// WithFoodDataBaseURL 覆盖 API 端点（用于测试）。
func WithFoodDataBaseURL(baseURL string) FoodDataOption {
	return func(c *FoodDataClient) {
		c.baseURL = baseURL
	}
}

// WithTimeout 设置单次请求超时。
func WithTimeout(timeout time.Duration) FoodDataOption {
	return func(c *FoodDataClient) {
		c.httpClient.Timeout = timeout
	}
}

// WithMaxRetries 设置最大重试次数。
func WithMaxRetries(maxRetries int) FoodDataOption {
	return func(c *FoodDataClient) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
	}
}

// WithBackoffFactor 设置指数退避的基础因子（秒）。
func WithBackoffFactor(factor float64) FoodDataOption {
	return func(c *FoodDataClient) {
		if factor >= 0 {
			c.backoffFactor = factor
		}
	}
}

// WithFoodDataLogger 设置日志器。
func WithFoodDataLogger(logger otel.Logger) FoodDataOption {
	return func(c *FoodDataClient) {
		c.logger = logger
	}
}

// WithFoodDataMetrics 设置指标收集器。
func WithFoodDataMetrics(metrics otel.Metrics) FoodDataOption {
	return func(c *FoodDataClient) {
		c.metrics = metrics
	}
}

// NewFoodDataClient 创建结构化检索客户端。
// 凭证缺失是致命配置错误，在此处立即返回，绝不重试。
func NewFoodDataClient(apiKey string, opts ...FoodDataOption) (*FoodDataClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set the FOODDATA_API_KEY environment variable", errors.ErrMissingAPIKey)
	}

	c := &FoodDataClient{
		apiKey:        apiKey,
		baseURL:       defaultFoodDataBaseURL,
		httpClient:    &http.Client{Timeout: 5 * time.Second},
		maxRetries:    3,
		backoffFactor: 0.5,
		logger:        otel.NewNoopLogger(),
		metrics:       otel.NewNoopMetrics(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// searchResponse FoodData Central 搜索响应
type searchResponse struct {
	Foods []foodRecord `json:"foods"`
}

type foodRecord struct {
	Description   string     `json:"description"`
	BrandOwner    string     `json:"brandOwner"`
	FoodNutrients []nutrient `json:"foodNutrients"`
}

type nutrient struct {
	NutrientName string  `json:"nutrientName"`
	Value        float64 `json:"value"`
	UnitName     string  `json:"unitName"`
}

// FetchSummary 获取查询词对应的食品摘要。
//
// 摘要由主描述、品牌和前三项营养素拼成。记录缺失主描述
// 或根本没有记录时返回 Empty（静默跳过，不是错误）；
// 重试耗尽后返回 Failed。
func (c *FoodDataClient) FetchSummary(ctx context.Context, term string) Outcome {
	start := time.Now()
	record, err := c.search(ctx, term)
	c.metrics.Histogram(otel.MetricFetchDuration).Record(ctx,
		float64(time.Since(start).Milliseconds()), otel.Source("fooddata"))
	if err != nil {
		c.metrics.Counter(otel.MetricFetchErrors).Add(ctx, 1, otel.Source("fooddata"))
		c.logger.Error("fooddata fetch failed", "term", term, "error", err)
		return Failed(err)
	}
	if record == nil || record.Description == "" {
		return Empty()
	}

	return Success(summarize(record))
}

// search 执行带重试的搜索请求，返回首条记录。
func (c *FoodDataClient) search(ctx context.Context, term string) (*foodRecord, error) {
	query := url.Values{}
	query.Set("query", term)
	query.Set("pageSize", "1")
	query.Set("api_key", c.apiKey)

	endpoint := c.baseURL + "?" + query.Encode()

	var result *foodRecord
	attempt := 0
	err := retry(ctx, c.maxRetries, c.backoffFactor, func() error {
		if attempt > 0 {
			c.metrics.Counter(otel.MetricFetchRetries).Add(ctx, 1, otel.Source("fooddata"))
		}
		attempt++

		record, err := c.doSearch(ctx, endpoint)
		if err != nil {
			return err
		}
		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// doSearch 执行单次搜索请求。
func (c *FoodDataClient) doSearch(ctx context.Context, endpoint string) (*foodRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.WrapError(err, "build fooddata request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WrapError(err, "fooddata request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapError(err, "read fooddata response")
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.WrapError(errors.ErrMalformedResponse, err.Error())
	}

	if len(parsed.Foods) == 0 {
		return nil, nil
	}
	return &parsed.Foods[0], nil
}

// statusError 将 HTTP 状态码映射为可分类的错误。
func statusError(status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", errors.ErrRateLimited, status)
	case errors.IsRetryableStatus(status):
		return fmt.Errorf("%w: status %d", errors.ErrServerUnavailable, status)
	default:
		return fmt.Errorf("%w: status %d", errors.ErrRequestFailed, status)
	}
}

// summarize 将食品记录压缩为一句话摘要。
func summarize(record *foodRecord) string {
	brand := record.BrandOwner
	if brand == "" {
		brand = unknownBrand
	}

	parts := make([]string, 0, maxNutrients)
	for i, n := range record.FoodNutrients {
		if i >= maxNutrients {
			break
		}
		parts = append(parts, fmt.Sprintf("%s: %s %s",
			n.NutrientName, strconv.FormatFloat(n.Value, 'g', -1, 64), n.UnitName))
	}

	return fmt.Sprintf("%s (Brand: %s). Key nutrients: %s.",
		record.Description, brand, strings.Join(parts, ", "))
}

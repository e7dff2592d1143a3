package similarity

import (
	"context"
	"math"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/easyops/foodrag-go/pkg/otel"
)

// EmbeddingScorer 基于向量嵌入的相似度评分器。
//
// 调用 OpenAI 兼容的嵌入接口，对两段文本各取一个向量后算余弦相似度。
// 相比 TF-IDF 能捕捉语义相近但用词不同的情况，代价是一次网络往返。
// 任何 API 失败都降级为 0.0，不向外传播。
type EmbeddingScorer struct {
	client  *openai.Client
	model   openai.EmbeddingModel
	timeout time.Duration
	logger  otel.Logger
}

// EmbeddingOption 配置 EmbeddingScorer。
type EmbeddingOption func(*EmbeddingScorer)

// WithEmbeddingModel 设置嵌入模型。
func WithEmbeddingModel(model openai.EmbeddingModel) EmbeddingOption {
	return func(s *EmbeddingScorer) {
		s.model = model
	}
}

// WithEmbeddingTimeout 设置单次嵌入请求的超时。
func WithEmbeddingTimeout(timeout time.Duration) EmbeddingOption {
	return func(s *EmbeddingScorer) {
		s.timeout = timeout
	}
}

// WithEmbeddingLogger 设置日志器。
func WithEmbeddingLogger(logger otel.Logger) EmbeddingOption {
	return func(s *EmbeddingScorer) {
		s.logger = logger
	}
}

// NewEmbeddingScorer 创建嵌入评分器。
func NewEmbeddingScorer(client *openai.Client, opts ...EmbeddingOption) *EmbeddingScorer {
	s := &EmbeddingScorer{
		client:  client,
		model:   openai.SmallEmbedding3,
		timeout: 10 * time.Second,
		logger:  otel.NewNoopLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score 计算两段文本嵌入向量的余弦相似度。
func (s *EmbeddingScorer) Score(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{a, b},
		Model: s.model,
	})
	if err != nil {
		s.logger.Error("embedding request failed", "error", err)
		return 0
	}
	if len(resp.Data) < 2 {
		s.logger.Error("embedding response incomplete", "vectors", len(resp.Data))
		return 0
	}

	return cosineFloat32(resp.Data[0].Embedding, resp.Data[1].Embedding)
}

// cosineFloat32 计算未归一化向量的余弦相似度，并收敛到 [0, 1]
func cosineFloat32(vec1, vec2 []float32) float64 {
	if len(vec1) != len(vec2) || len(vec1) == 0 {
		return 0
	}

	var dot, norm1, norm2 float64
	for i := range vec1 {
		dot += float64(vec1[i]) * float64(vec2[i])
		norm1 += float64(vec1[i]) * float64(vec1[i])
		norm2 += float64(vec2[i]) * float64(vec2[i])
	}
	if norm1 == 0 || norm2 == 0 {
		return 0
	}

	score := dot / (math.Sqrt(norm1) * math.Sqrt(norm2))
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// 编译时接口检查
var _ Scorer = (*EmbeddingScorer)(nil)

// Package token 提供文本的 Token 计数与截断能力。
//
// 上下文装配的所有预算判断都以这里的计数为准。
package token

import (
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/easyops/foodrag-go/pkg/otel"
)

// fallbackCharLimit 编码不可用时按字符截断的上限
const fallbackCharLimit = 1000

// TokenCounter 定义 Token 计数接口。
type TokenCounter interface {
	// Count 返回给定文本的 Token 数量。
	Count(text string) int

	// Truncate 将文本截断到不超过 limit 个 Token。
	// 截断只发生在完整 Token 边界上，不会在 Token 中间切断。
	Truncate(text string, limit int) string
}

// TiktokenCounter 使用 tiktoken 实现精确的 Token 计数。
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
	model    string
	logger   otel.Logger
}

// TiktokenOption 配置 TiktokenCounter。
type TiktokenOption func(*TiktokenCounter)

// WithModel 设置 Token 编码使用的模型。
// 支持的模型：gpt-4、gpt-4o、gpt-3.5-turbo 等。
func WithModel(model string) TiktokenOption {
	return func(c *TiktokenCounter) {
		c.model = model
	}
}

// WithLogger 设置日志器。
func WithLogger(logger otel.Logger) TiktokenOption {
	return func(c *TiktokenCounter) {
		c.logger = logger
	}
}

// NewTiktokenCounter 创建新的 TiktokenCounter。
// 默认使用 cl100k_base 编码（GPT-4、GPT-4o 等使用）。
func NewTiktokenCounter(opts ...TiktokenOption) (*TiktokenCounter, error) {
	c := &TiktokenCounter{
		logger: otel.NewNoopLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	var encoding *tiktoken.Tiktoken
	var err error
	if c.model != "" {
		encoding, err = tiktoken.EncodingForModel(c.model)
		if err != nil {
			// 降级到 cl100k_base 编码
			encoding, err = tiktoken.GetEncoding("cl100k_base")
		}
	} else {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err != nil {
		return nil, err
	}

	c.encoding = encoding
	return c, nil
}

// Count 返回给定文本的 Token 数量。
// 编码不可用时降级为字符估算。
func (c *TiktokenCounter) Count(text string) int {
	if c.encoding == nil {
		return estimateTokens(text)
	}
	return len(c.encoding.Encode(text, nil, nil))
}

// Truncate 将文本截断到不超过 limit 个 Token。
//
// 先编码为 Token 序列，截取前 limit 个，再解码回文本，
// 保证不会在 Token 中间切断。编码不可用时退化为
// 前 1000 个字符的朴素截断，并记录诊断日志。
func (c *TiktokenCounter) Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if c.encoding == nil {
		c.logger.Error("token encoding unavailable, falling back to character truncation",
			"limit", limit)
		return fallbackTruncate(text)
	}

	tokens := c.encoding.Encode(text, nil, nil)
	if len(tokens) <= limit {
		return text
	}
	return c.encoding.Decode(tokens[:limit])
}

// EstimatedCounter 使用字符估算实现 Token 计数。
// 这是当 tiktoken 不可用时的降级方案。
type EstimatedCounter struct {
	// CharsPerToken 是每个 Token 的平均字符数。
	// 默认值为 4，这是英文文本的合理估计。
	CharsPerToken float64
}

// NewEstimatedCounter 创建新的 EstimatedCounter。
func NewEstimatedCounter() *EstimatedCounter {
	return &EstimatedCounter{
		CharsPerToken: 4.0,
	}
}

// Count 返回估算的 Token 数量。
// 按字符（rune）而非字节计数，多字节文字不会虚高。
func (c *EstimatedCounter) Count(text string) int {
	if c.CharsPerToken <= 0 {
		c.CharsPerToken = 4.0
	}
	return int(float64(utf8.RuneCountInString(text)) / c.CharsPerToken)
}

// Truncate 按估算的字符预算截断文本。
func (c *EstimatedCounter) Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	charsPerToken := c.CharsPerToken
	if charsPerToken <= 0 {
		charsPerToken = 4.0
	}

	maxChars := int(float64(limit) * charsPerToken)
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars])
}

// estimateTokens 提供简单的 Token 估算降级方案。
func estimateTokens(text string) int {
	// 粗略估算：英文 1 token ≈ 4 字符，
	// 但中文/日文字符通常每个 1-2 个 token
	charCount := utf8.RuneCountInString(text)
	wordCount := len(strings.Fields(text))

	if wordCount == 0 {
		return charCount / 4
	}

	// 取字符估算和词估算的平均值，对混合内容效果更好
	charBasedTokens := charCount / 4
	wordBasedTokens := int(float64(wordCount) * 1.3)

	return (charBasedTokens + wordBasedTokens) / 2
}

// fallbackTruncate 返回文本的前 1000 个字符（按 rune 截断）。
func fallbackTruncate(text string) string {
	runes := []rune(text)
	if len(runes) <= fallbackCharLimit {
		return text
	}
	return string(runes[:fallbackCharLimit])
}

// DefaultTokenCounter 返回一个 TokenCounter，
// 优先使用 TiktokenCounter，如果不可用则降级到 EstimatedCounter。
func DefaultTokenCounter() TokenCounter {
	counter, err := NewTiktokenCounter()
	if err != nil {
		return NewEstimatedCounter()
	}
	return counter
}

// 编译时接口检查
var _ TokenCounter = (*TiktokenCounter)(nil)
var _ TokenCounter = (*EstimatedCounter)(nil)

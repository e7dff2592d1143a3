package similarity

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// TFIDFScorer 基于 TF-IDF 的成对相似度评分器。
//
// 每次调用只用参与比较的两段文本构建词汇表和 IDF，
// 不维护共享词汇表，因此分数只在单次调用内可比。
// 无内部状态，可安全并发调用。
type TFIDFScorer struct{}

// NewTFIDFScorer 创建 TF-IDF 评分器
func NewTFIDFScorer() *TFIDFScorer {
	return &TFIDFScorer{}
}

// Score 计算两段文本的余弦相似度。
// 任一文本分词后为空时返回 0.0。
func (s *TFIDFScorer) Score(a, b string) float64 {
	tokensA := tokenize(a)
	tokensB := tokenize(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	vocabulary, idf := buildVocabulary(tokensA, tokensB)

	vecA := vectorize(tokensA, vocabulary, idf)
	vecB := vectorize(tokensB, vocabulary, idf)

	return cosine(vecA, vecB)
}

// tokenize 分词
//
// 支持英文空格分词和中文字符分词。
func tokenize(text string) []string {
	text = strings.ToLower(text)
	var tokens []string
	var currentWord strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			// 中文字符单独成词
			if unicode.Is(unicode.Han, r) {
				if currentWord.Len() > 0 {
					tokens = append(tokens, currentWord.String())
					currentWord.Reset()
				}
				tokens = append(tokens, string(r))
			} else {
				currentWord.WriteRune(r)
			}
		} else {
			if currentWord.Len() > 0 {
				tokens = append(tokens, currentWord.String())
				currentWord.Reset()
			}
		}
	}

	if currentWord.Len() > 0 {
		tokens = append(tokens, currentWord.String())
	}

	return tokens
}

// buildVocabulary 用两个文档的词构建词汇表并计算 IDF
func buildVocabulary(docs ...[]string) (map[string]int, []float64) {
	wordDocCount := make(map[string]int)
	allWords := make(map[string]struct{})

	for _, tokens := range docs {
		seen := make(map[string]struct{})
		for _, tok := range tokens {
			allWords[tok] = struct{}{}
			if _, ok := seen[tok]; !ok {
				wordDocCount[tok]++
				seen[tok] = struct{}{}
			}
		}
	}

	// 按字母顺序排序以保证一致性
	words := make([]string, 0, len(allWords))
	for word := range allWords {
		words = append(words, word)
	}
	sort.Strings(words)

	vocabulary := make(map[string]int, len(words))
	for i, word := range words {
		vocabulary[word] = i
	}

	idf := make([]float64, len(words))
	n := float64(len(docs))
	for word, idx := range vocabulary {
		df := float64(wordDocCount[word])
		idf[idx] = math.Log(n/df) + 1.0
	}

	return vocabulary, idf
}

// vectorize 将分词结果转换为 L2 归一化的 TF-IDF 向量
func vectorize(tokens []string, vocabulary map[string]int, idf []float64) []float64 {
	tf := make(map[string]int)
	for _, tok := range tokens {
		tf[tok]++
	}

	vector := make([]float64, len(vocabulary))
	for word, count := range tf {
		if idx, ok := vocabulary[word]; ok {
			// TF = log(1 + count)
			vector[idx] = math.Log(1+float64(count)) * idf[idx]
		}
	}

	normalize(vector)
	return vector
}

// normalize L2 归一化
func normalize(vector []float64) {
	var norm float64
	for _, val := range vector {
		norm += val * val
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vector {
			vector[i] /= norm
		}
	}
}

// cosine 计算余弦相似度
func cosine(vec1, vec2 []float64) float64 {
	if len(vec1) != len(vec2) || len(vec1) == 0 {
		return 0
	}

	var dot float64
	for i := range vec1 {
		dot += vec1[i] * vec2[i]
	}

	// 向量已归一化，所以余弦相似度就是点积
	if dot < 0 {
		return 0
	}
	if dot > 1 {
		return 1
	}
	return dot
}

// 编译时接口检查
var _ Scorer = (*TFIDFScorer)(nil)

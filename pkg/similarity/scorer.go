// Package similarity 提供查询词与候选段落之间的相关性评分。
//
// 分数只在产生它的那一次成对比较内有意义，
// 不同调用之间的分数不可比较。
package similarity

// Scorer 定义相似度评分接口。
type Scorer interface {
	// Score 返回两段文本的相似度分数，取值范围 [0, 1]。
	// 任何内部失败都返回 0.0（视为不相关），不向外传播。
	Score(a, b string) float64
}

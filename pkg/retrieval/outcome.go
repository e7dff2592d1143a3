// Package retrieval 提供面向外部数据源的检索客户端。
package retrieval

// Status 检索结果的状态标签。
//
// 用显式标签代替哨兵值，由调用方按约定的降级策略处理
// Empty 和 Failed，而不是在客户端内部静默吞掉。
type Status int

const (
	// StatusSuccess 成功取得结果
	StatusSuccess Status = iota
	// StatusEmpty 数据源没有可用结果（不是错误）
	StatusEmpty
	// StatusFailed 检索失败
	StatusFailed
)

// Outcome 单个查询词的检索结果。
type Outcome struct {
	// Status 结果状态
	Status Status
	// Value 摘要文本（仅 StatusSuccess 时有效）
	Value string
	// Err 失败原因（仅 StatusFailed 时有效）
	Err error
}

// Success 构造成功结果
func Success(value string) Outcome {
	return Outcome{Status: StatusSuccess, Value: value}
}

// Empty 构造空结果
func Empty() Outcome {
	return Outcome{Status: StatusEmpty}
}

// Failed 构造失败结果
func Failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Err: err}
}

package retrieval

// Passage 候选段落：原始文本及其来源记录。
type Passage struct {
	// Title 来源记录的标题
	Title string
	// Text 段落正文
	Text string
	// Source 来源标识（如 arXiv 条目 ID）
	Source string
}

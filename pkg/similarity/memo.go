package similarity

import (
	"container/list"
	"sync"
)

// DefaultMemoSize 记忆化缓存的默认容量
const DefaultMemoSize = 100

// MemoScorer 带记忆化的评分器装饰器。
//
// 对完全相同的 (a, b) 文本对复用已算出的分数，
// 缓存按 LRU 淘汰，容量有界，不会无限增长。
// 可安全并发调用。
type MemoScorer struct {
	inner    Scorer
	capacity int
	entries  map[string]*list.Element
	order    *list.List
	mu       sync.Mutex
}

type memoEntry struct {
	key   string
	score float64
}

// MemoOption 配置 MemoScorer。
type MemoOption func(*MemoScorer)

// WithCapacity 设置记忆化缓存的最大条目数。
func WithCapacity(capacity int) MemoOption {
	return func(s *MemoScorer) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}

// NewMemoScorer 创建记忆化评分器。
func NewMemoScorer(inner Scorer, opts ...MemoOption) *MemoScorer {
	s := &MemoScorer{
		inner:    inner,
		capacity: DefaultMemoSize,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score 返回记忆化的相似度分数。
func (s *MemoScorer) Score(a, b string) float64 {
	key := a + "\x00" + b

	s.mu.Lock()
	if elem, ok := s.entries[key]; ok {
		s.order.MoveToFront(elem)
		score := elem.Value.(*memoEntry).score
		s.mu.Unlock()
		return score
	}
	s.mu.Unlock()

	// 计算在锁外进行，重复计算的窗口期由 LRU 去重兜底
	score := s.inner.Score(a, b)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; ok {
		return score
	}

	s.entries[key] = s.order.PushFront(&memoEntry{key: key, score: score})

	if s.order.Len() > s.capacity {
		oldest := s.order.Back()
		if oldest != nil {
			s.order.Remove(oldest)
			delete(s.entries, oldest.Value.(*memoEntry).key)
		}
	}

	return score
}

// Len 返回当前缓存的条目数。
func (s *MemoScorer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// 编译时接口检查
var _ Scorer = (*MemoScorer)(nil)

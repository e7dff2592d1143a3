package token_test

import (
	"strings"
	"testing"

	"github.com/easyops/foodrag-go/pkg/token"
)

func TestEstimatedCounter_Count(t *testing.T) {
	counter := token.NewEstimatedCounter()

	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{
			name:     "empty string",
			text:     "",
			expected: 0,
		},
		{
			name:     "short text",
			text:     "hello",
			expected: 1, // 5 chars / 4 = 1
		},
		{
			name:     "longer text",
			text:     "hello world, this is a test",
			expected: 6, // 27 chars / 4 = 6
		},
		{
			name:     "multibyte text counts runes",
			text:     "苹果营养成分表格",
			expected: 2, // 8 runes / 4 = 2, not 24 bytes / 4
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := counter.Count(tt.text)
			if result != tt.expected {
				t.Errorf("Count(%q) = %d, want %d", tt.text, result, tt.expected)
			}
		})
	}
}

func TestEstimatedCounter_Truncate(t *testing.T) {
	counter := token.NewEstimatedCounter()

	t.Run("under limit unchanged", func(t *testing.T) {
		text := "short"
		result := counter.Truncate(text, 100)
		if result != text {
			t.Errorf("Truncate should not modify text under limit, got %q", result)
		}
	})

	t.Run("over limit shortened", func(t *testing.T) {
		text := strings.Repeat("word ", 200)
		result := counter.Truncate(text, 10)
		if counter.Count(result) > 10 {
			t.Errorf("truncated text counts %d tokens, want <= 10", counter.Count(result))
		}
		if !strings.HasPrefix(text, result) {
			t.Error("truncation should keep a prefix of the original text")
		}
	})

	t.Run("zero limit yields empty", func(t *testing.T) {
		result := counter.Truncate("anything", 0)
		if result != "" {
			t.Errorf("Truncate with limit 0 = %q, want empty", result)
		}
	})
}

func TestTiktokenCounter(t *testing.T) {
	counter, err := token.NewTiktokenCounter()
	if err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}

	t.Run("count empty", func(t *testing.T) {
		if got := counter.Count(""); got != 0 {
			t.Errorf("Count(\"\") = %d, want 0", got)
		}
	})

	t.Run("count positive", func(t *testing.T) {
		if got := counter.Count("hello world"); got <= 0 {
			t.Errorf("Count should return positive count, got %d", got)
		}
	})

	t.Run("truncate respects limit", func(t *testing.T) {
		text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 50)
		result := counter.Truncate(text, 20)
		if got := counter.Count(result); got > 20 {
			t.Errorf("truncated text counts %d tokens, want <= 20", got)
		}
	})

	t.Run("truncate whole tokens only", func(t *testing.T) {
		text := "one two three four five"
		limit := counter.Count(text)
		result := counter.Truncate(text, limit)
		if result != text {
			t.Errorf("Truncate at exact token count should return text unchanged, got %q", result)
		}
	})
}

func TestDefaultTokenCounter(t *testing.T) {
	counter := token.DefaultTokenCounter()
	if counter == nil {
		t.Fatal("expected non-nil counter")
	}

	// Whatever backend was selected, the contract holds
	if got := counter.Count("hello"); got <= 0 {
		t.Errorf("Count should return positive count, got %d", got)
	}
}

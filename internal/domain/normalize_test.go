package domain_test

import (
	"strings"
	"testing"

	"reviewflow/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestTruncateSummary(t *testing.T) {
	tests := []struct {
		name     string
		summary  string
		expected string
	}{
		{
			name:     "short summary unchanged",
			summary:  "Fix crash on startup",
			expected: "Fix crash on startup",
		},
		{
			name:     "exactly max length unchanged",
			summary:  strings.Repeat("a", domain.MaxSummaryLength),
			expected: strings.Repeat("a", domain.MaxSummaryLength),
		},
		{
			name:     "cut at last period",
			summary:  strings.Repeat("a", 100) + "." + strings.Repeat("b", 250),
			expected: strings.Repeat("a", 100) + ".",
		},
		{
			name:     "no period keeps first 300 characters",
			summary:  strings.Repeat("x", 350),
			expected: strings.Repeat("x", domain.MaxSummaryLength),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, domain.TruncateSummary(tt.summary))
		})
	}
}

func TestTruncateSummary_CountsRunes(t *testing.T) {
	summary := strings.Repeat("я", 310)

	result := domain.TruncateSummary(summary)

	assert.Equal(t, domain.MaxSummaryLength, len([]rune(result)))
}

func TestTruncateSummary_Idempotent(t *testing.T) {
	summary := strings.Repeat("word. ", 80)

	once := domain.TruncateSummary(summary)

	assert.LessOrEqual(t, len([]rune(once)), domain.MaxSummaryLength)
	assert.Equal(t, once, domain.TruncateSummary(once))
}

func TestBugList(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{name: "empty", raw: "", expected: []string{}},
		{name: "spaces only", raw: "   ", expected: []string{}},
		{name: "numeric sorted numerically", raw: "10, 2,1", expected: []string{"1", "2", "10"}},
		{name: "mixed separators", raw: "3 1,,2", expected: []string{"1", "2", "3"}},
		{name: "duplicates removed", raw: "5,5 5", expected: []string{"5"}},
		{name: "non numeric sorted lexically", raw: "b-10, a-2, 3", expected: []string{"3", "a-2", "b-10"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, domain.BugList(tt.raw))
		})
	}
}

func TestNormalizeBugIDs_Idempotent(t *testing.T) {
	inputs := []string{"10,2,1", " 7  3 ,9", "abc, 12", ""}

	for _, raw := range inputs {
		once := domain.NormalizeBugIDs(raw)
		assert.Equal(t, once, domain.NormalizeBugIDs(once), "input %q", raw)
	}
}

func TestSameBugs(t *testing.T) {
	assert.True(t, domain.SameBugs([]string{"1", "2"}, []string{"2", "1"}))
	assert.True(t, domain.SameBugs([]string{}, nil))
	assert.False(t, domain.SameBugs([]string{"1"}, []string{"1", "2"}))
	assert.False(t, domain.SameBugs([]string{"1", "3"}, []string{"1", "2"}))
}

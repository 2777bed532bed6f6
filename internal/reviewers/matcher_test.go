package reviewers_test

import (
	"testing"

	"reviewflow/internal/domain"
	"reviewflow/internal/reviewers"

	"github.com/stretchr/testify/assert"
)

func TestMatch_PythonRule(t *testing.T) {
	// Arrange
	matcher := reviewers.NewMatcher()
	repoID := int64(1)
	rules := []domain.DefaultReviewer{
		{ID: 1, Name: "python", FileRegex: `.*\.py$`, RepositoryIDs: []int64{repoID}, GroupIDs: []int64{42}},
	}

	// Act
	result := matcher.Match(&repoID, rules, []string{"app/main.py", "README.md"})

	// Assert
	assert.Equal(t, []int64{42}, result.GroupIDs())
	assert.Empty(t, result.PeopleIDs())
}

func TestMatch_AnchoredAtStart(t *testing.T) {
	matcher := reviewers.NewMatcher()
	rules := []domain.DefaultReviewer{
		{ID: 1, FileRegex: `docs/`, PeopleIDs: []int64{1}},
	}

	assert.True(t, matcher.Match(nil, rules, []string{"src/docs/index.md"}).Empty())
	assert.Equal(t, []int64{1}, matcher.Match(nil, rules, []string{"docs/index.md"}).PeopleIDs())
}

func TestMatch_RepositoryScope(t *testing.T) {
	matcher := reviewers.NewMatcher()
	repoA, repoB := int64(1), int64(2)
	rules := []domain.DefaultReviewer{
		{ID: 1, FileRegex: `.*`, RepositoryIDs: []int64{repoA}, PeopleIDs: []int64{10}},
		{ID: 2, FileRegex: `.*`, PeopleIDs: []int64{20}},
	}

	assert.Equal(t, []int64{10, 20}, matcher.Match(&repoA, rules, []string{"x"}).PeopleIDs())
	assert.Equal(t, []int64{20}, matcher.Match(&repoB, rules, []string{"x"}).PeopleIDs())
	assert.Equal(t, []int64{20}, matcher.Match(nil, rules, []string{"x"}).PeopleIDs())
}

func TestMatch_InvalidPatternSkipped(t *testing.T) {
	matcher := reviewers.NewMatcher()
	rules := []domain.DefaultReviewer{
		{ID: 1, FileRegex: `([`, GroupIDs: []int64{1}},
		{ID: 2, FileRegex: `lib/`, GroupIDs: []int64{2}, PeopleIDs: []int64{5, 6}},
		{ID: 3, FileRegex: `lib/core`, GroupIDs: []int64{2}, PeopleIDs: []int64{6}},
	}

	// Повторный вызов использует кэш, включая отрицательный результат
	for i := 0; i < 2; i++ {
		result := matcher.Match(nil, rules, []string{"lib/core/a.go"})
		assert.Equal(t, []int64{2}, result.GroupIDs())
		assert.Equal(t, []int64{5, 6}, result.PeopleIDs())
	}
}

func TestMatch_NoPaths(t *testing.T) {
	matcher := reviewers.NewMatcher()
	rules := []domain.DefaultReviewer{{ID: 1, FileRegex: `.*`, PeopleIDs: []int64{1}}}

	assert.True(t, matcher.Match(nil, rules, nil).Empty())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, reviewers.Validate(`.*\.go$`))
	assert.Error(t, reviewers.Validate(`([`))
}

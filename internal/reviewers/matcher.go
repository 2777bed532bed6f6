// Package reviewers сопоставляет изменённые файлы с правилами default reviewers
package reviewers

import (
	"regexp"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"reviewflow/internal/domain"
)

// Result - объединение людей и групп всех сработавших правил
type Result struct {
	People map[int64]struct{}
	Groups map[int64]struct{}
}

// PeopleIDs возвращает отсортированные id людей
func (r Result) PeopleIDs() []int64 {
	return sortedKeys(r.People)
}

// GroupIDs возвращает отсортированные id групп
func (r Result) GroupIDs() []int64 {
	return sortedKeys(r.Groups)
}

// Empty сообщает, что ни одно правило не сработало
func (r Result) Empty() bool {
	return len(r.People) == 0 && len(r.Groups) == 0
}

// Matcher кэширует скомпилированные шаблоны. Безопасен для конкурентного использования.
type Matcher struct {
	// pattern -> *regexp.Regexp, nil для невалидного шаблона
	cache sync.Map
}

// NewMatcher создаёт Matcher
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Match применяет правила, относящиеся к репозиторию (или ко всем репозиториям сайта),
// к списку путей. Шаблон привязан к началу пути. Правило срабатывает на первом
// подходящем пути. Невалидные шаблоны пропускаются.
func (m *Matcher) Match(repositoryID *int64, rules []domain.DefaultReviewer, paths []string) Result {
	result := Result{
		People: make(map[int64]struct{}),
		Groups: make(map[int64]struct{}),
	}

	for i := range rules {
		rule := &rules[i]
		if !appliesTo(rule, repositoryID) {
			continue
		}

		re := m.compile(rule)
		if re == nil {
			continue
		}

		for _, path := range paths {
			if !re.MatchString(path) {
				continue
			}
			for _, id := range rule.PeopleIDs {
				result.People[id] = struct{}{}
			}
			for _, id := range rule.GroupIDs {
				result.Groups[id] = struct{}{}
			}
			break
		}
	}

	return result
}

// Validate проверяет, что шаблон компилируется
func Validate(pattern string) error {
	_, err := regexp.Compile(anchor(pattern))
	return err
}

func (m *Matcher) compile(rule *domain.DefaultReviewer) *regexp.Regexp {
	if cached, ok := m.cache.Load(rule.FileRegex); ok {
		re, _ := cached.(*regexp.Regexp)
		return re
	}

	re, err := regexp.Compile(anchor(rule.FileRegex))
	if err != nil {
		log.Warn().
			Str("layer", "reviewers").
			Int64("rule_id", rule.ID).
			Str("file_regex", rule.FileRegex).
			Err(err).
			Msg("Skipping default reviewer with invalid file regex")
		re = nil
	}

	m.cache.Store(rule.FileRegex, re)
	return re
}

// appliesTo: правило без репозиториев действует на все репозитории сайта
func appliesTo(rule *domain.DefaultReviewer, repositoryID *int64) bool {
	if len(rule.RepositoryIDs) == 0 {
		return true
	}
	if repositoryID == nil {
		return false
	}
	return slices.Contains(rule.RepositoryIDs, *repositoryID)
}

func anchor(pattern string) string {
	return `^(?:` + pattern + `)`
}

func sortedKeys(set map[int64]struct{}) []int64 {
	keys := make([]int64, 0, len(set))
	for id := range set {
		keys = append(keys, id)
	}
	slices.Sort(keys)
	return keys
}

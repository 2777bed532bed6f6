package domain

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// MaxSummaryLength - предельная длина summary
const MaxSummaryLength = 300

var bugSeparator = regexp.MustCompile(`[,\s]+`)

// TruncateSummary обрезает summary до MaxSummaryLength символов по последней точке
func TruncateSummary(summary string) string {
	runes := []rune(summary)
	if len(runes) <= MaxSummaryLength {
		return summary
	}

	cut := string(runes[:MaxSummaryLength])
	if i := strings.LastIndex(cut, "."); i != -1 {
		cut = cut[:i+1]
	}
	return cut
}

// BugList разбирает строку багов в отсортированный список без повторов.
// Если все id числовые, сортировка числовая, иначе лексикографическая.
func BugList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}

	seen := make(map[string]struct{})
	bugs := make([]string, 0)
	for _, bug := range bugSeparator.Split(raw, -1) {
		if bug == "" {
			continue
		}
		if _, ok := seen[bug]; ok {
			continue
		}
		seen[bug] = struct{}{}
		bugs = append(bugs, bug)
	}

	numbers := make(map[string]int64, len(bugs))
	numeric := true
	for _, bug := range bugs {
		n, err := strconv.ParseInt(bug, 10, 64)
		if err != nil {
			numeric = false
			break
		}
		numbers[bug] = n
	}

	if numeric {
		sort.SliceStable(bugs, func(i, j int) bool {
			return numbers[bugs[i]] < numbers[bugs[j]]
		})
	} else {
		sort.Strings(bugs)
	}

	return bugs
}

// NormalizeBugIDs приводит строку багов к каноническому виду "1,2,10"
func NormalizeBugIDs(raw string) string {
	return strings.Join(BugList(raw), ",")
}

// SameBugs сравнивает два списка багов как множества
func SameBugs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, bug := range a {
		set[bug] = struct{}{}
	}
	for _, bug := range b {
		if _, ok := set[bug]; !ok {
			return false
		}
	}
	return true
}

package schema

import (
	"math"
	"sort"
)

// Round2 rounds to two decimal places, matching the precision the summary
// report has always used.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SortedRules returns the rule names of a rule-count map in alphabetical
// order, for deterministic report output.
func SortedRules(rules map[string]int) []string {
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MergeRuleCounts adds src counts into dst, allocating dst if needed.
func MergeRuleCounts(dst map[string]int, src map[string]int) map[string]int {
	if dst == nil {
		dst = make(map[string]int, len(src))
	}
	for rule, count := range src {
		dst[rule] += count
	}
	return dst
}

// EntryFromReport folds one file's violations into a CacheEntry.
func EntryFromReport(violations []Violation) CacheEntry {
	entry := CacheEntry{Violations: len(violations)}
	if len(violations) > 0 {
		entry.Rules = make(map[string]int, len(violations))
		for _, v := range violations {
			entry.Rules[v.Rule]++
		}
	}
	return entry
}

package services

import (
	"strings"

	"github.com/cookshare/apiserver/types"
)

// Filter returns the entries that satisfy every condition of f, in their
// original order. The input slice is not modified.
func Filter(entries []types.DirectoryEntry, f types.DirectoryFilter) []types.DirectoryEntry {
	term := strings.ToLower(strings.TrimSpace(f.SearchTerm))
	out := make([]types.DirectoryEntry, 0, len(entries))
	for _, entry := range entries {
		if matches(entry, term, f.Difficulty, f.Category) {
			out = append(out, entry)
		}
	}
	return out
}

// MatchesFilter reports whether a single entry satisfies f.
func MatchesFilter(entry types.DirectoryEntry, f types.DirectoryFilter) bool {
	return matches(entry, strings.ToLower(strings.TrimSpace(f.SearchTerm)), f.Difficulty, f.Category)
}

func matches(entry types.DirectoryEntry, term, difficulty, category string) bool {
	if term != "" &&
		!strings.Contains(strings.ToLower(entry.Title), term) &&
		!strings.Contains(strings.ToLower(entry.Ingredients), term) {
		return false
	}
	if !isAll(difficulty) && string(entry.Difficulty) != difficulty {
		return false
	}
	if !isAll(category) && string(entry.Category) != category {
		return false
	}
	return true
}

// isAll treats the empty string like the FilterAll sentinel so that an
// omitted query parameter does not filter.
func isAll(value string) bool {
	return value == "" || value == types.FilterAll
}

package srcpack

import (
	"cmp"
	"slices"
	"strings"
)

// CompareEntries orders entries by dependency depth, then by path.
// It returns a negative number when a sorts before b, zero when they tie,
// and a positive number otherwise.
func CompareEntries(a, b Entry) int {
	if c := cmp.Compare(a.depth, b.depth); c != 0 {
		return c
	}
	return strings.Compare(a.path, b.path)
}

// SortEntries sorts entries in place into canonical order.
//
// Entries with equal depth and path keep their relative order; such ties
// only arise from duplicate paths.
func SortEntries(entries []Entry) {
	slices.SortStableFunc(entries, CompareEntries)
}

// IsCanonical reports whether entries are already in canonical order.
func IsCanonical(entries []Entry) bool {
	return slices.IsSortedFunc(entries, CompareEntries)
}

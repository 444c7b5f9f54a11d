package press

import (
	"iter"
	"slices"
)

// noMore is returned by indexFrom when the anchor token has no further occurrence.
const noMore = -1

// Occurrences yields, in ascending order, every index i such that
// seq[i:i+len(pattern)] equals pattern element-wise. Overlapping occurrences are
// all reported. The sequence is finite; ranging over it again rescans seq.
//
// Scanning jumps between occurrences of pattern[0] and verifies the rest of the
// pattern from each one. A pattern longer than seq never matches, and an empty
// pattern matches nowhere.
func Occurrences(seq, pattern []string) iter.Seq[int] {
	return func(yield func(int) bool) {
		if len(pattern) == 0 || len(pattern) > len(seq) {
			return
		}
		last := len(seq) - len(pattern)
		for s := indexFrom(seq, pattern[0], 0); s != noMore && s <= last; s = indexFrom(seq, pattern[0], s+1) {
			if !matchesAt(seq, pattern, s) {
				continue
			}
			if !yield(s) {
				return
			}
		}
	}
}

// FindAll returns the full match set of pattern in seq, in discovery order.
// Returns nil when there is no occurrence.
func FindAll(seq, pattern []string) []int {
	return slices.Collect(Occurrences(seq, pattern))
}

// indexFrom returns the first index >= from holding tok, or noMore.
func indexFrom(seq []string, tok string, from int) int {
	if from >= len(seq) {
		return noMore
	}
	if i := slices.Index(seq[from:], tok); i >= 0 {
		return from + i
	}
	return noMore
}

// matchesAt reports whether pattern occurs in seq starting at s.
// The caller guarantees s+len(pattern) <= len(seq).
func matchesAt(seq, pattern []string, s int) bool {
	return slices.Equal(seq[s:s+len(pattern)], pattern)
}

// Package abr picks one encoding out of a bandwidth ladder.
package abr

import "sort"

// Sort returns a copy of candidates ordered by ascending bandwidth.
// Candidates with equal bandwidth keep their source order.
func Sort[T any](candidates []T, bandwidth func(T) int64) []T {
	sorted := make([]T, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool { return bandwidth(sorted[i]) < bandwidth(sorted[j]) })
	return sorted
}

// Select returns the candidate with the largest bandwidth that does not exceed
// target. When every candidate is above target the lowest one is returned.
// The boolean is false only when candidates is empty.
func Select[T any](candidates []T, target int64, bandwidth func(T) int64) (T, bool) {
	var none T
	if len(candidates) == 0 {
		return none, false
	}

	sorted := Sort(candidates, bandwidth)
	for i := len(sorted) - 1; i >= 0; i-- {
		if bandwidth(sorted[i]) <= target {
			return sorted[i], true
		}
	}
	return sorted[0], true
}

// SelectIndex is Select reporting the position of the chosen candidate in the
// original, unsorted slice. It returns -1 for an empty slice.
func SelectIndex[T any](candidates []T, target int64, bandwidth func(T) int64) int {
	indexes := make([]int, len(candidates))
	for i := range indexes {
		indexes[i] = i
	}

	idx, ok := Select(indexes, target, func(i int) int64 { return bandwidth(candidates[i]) })
	if !ok {
		return -1
	}
	return idx
}

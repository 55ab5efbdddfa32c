package variant

import "slices"

// SortIDs sorts ids ascending and removes duplicates. The input slice is
// not modified. The result is never nil.
func SortIDs(ids []ID) []ID {
	out := make([]ID, len(ids))
	copy(out, ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// Intersect returns the ids present in every set, ascending.
// With no sets at all the result is empty, not "every id".
func Intersect(sets ...[]ID) []ID {
	if len(sets) == 0 {
		return []ID{}
	}

	counts := make(map[ID]int)
	for _, set := range sets {
		for _, id := range SortIDs(set) {
			counts[id]++
		}
	}

	out := []ID{}
	for id, n := range counts {
		if n == len(sets) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// Union returns the ids present in any set, ascending.
func Union(sets ...[]ID) []ID {
	var all []ID
	for _, set := range sets {
		all = append(all, set...)
	}
	return SortIDs(all)
}

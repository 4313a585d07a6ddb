package fiber

import "sort"

// lis marks the positions of seq that form a longest strictly increasing
// subsequence. When several exist, the one ending in the smallest values
// is chosen, which keeps the earliest-placed nodes in place.
func lis(seq []int) []bool {
	in := make([]bool, len(seq))
	if len(seq) == 0 {
		return in
	}

	// tails[k] is the position in seq of the smallest tail of an
	// increasing run of length k+1; prev links runs back together.
	tails := make([]int, 0, len(seq))
	prev := make([]int, len(seq))

	for i, v := range seq {
		k := sort.Search(len(tails), func(j int) bool {
			return seq[tails[j]] >= v
		})
		if k > 0 {
			prev[i] = tails[k-1]
		} else {
			prev[i] = -1
		}
		if k == len(tails) {
			tails = append(tails, i)
		} else {
			tails[k] = i
		}
	}

	for i := tails[len(tails)-1]; i >= 0; i = prev[i] {
		in[i] = true
	}
	return in
}

package fiber

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLIS(t *testing.T) {
	tests := []struct {
		name string
		seq  []int
		want []bool
	}{
		{"empty", nil, []bool{}},
		{"single", []int{3}, []bool{true}},
		{"sorted", []int{0, 1, 2, 3}, []bool{true, true, true, true}},
		{"reversed", []int{3, 2, 1, 0}, []bool{false, false, false, true}},
		{"rotate left", []int{1, 2, 0}, []bool{true, true, false}},
		{"rotate right", []int{2, 0, 1}, []bool{false, true, true}},
		{"mixed", []int{6, 1, 2, 5, 0}, []bool{false, true, true, true, false}},
		{"swap ends", []int{3, 1, 2, 0}, []bool{false, true, true, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, lis(tt.seq)); diff != "" {
				t.Errorf("lis(%v) mismatch (-want +got):\n%s", tt.seq, diff)
			}
		})
	}
}

func TestLISLength(t *testing.T) {
	seq := []int{5, 2, 8, 6, 3, 6, 9, 7}
	in := lis(seq)

	n, last := 0, -1
	for i, ok := range in {
		if !ok {
			continue
		}
		if seq[i] <= last {
			t.Fatalf("marked subsequence not increasing at %d: %v", i, in)
		}
		last = seq[i]
		n++
	}
	if n != 4 {
		t.Errorf("length = %d, want 4", n)
	}
}

package components

import (
	"testing"
)

func TestAllocateCellsFillsWidth(t *testing.T) {
	segs := []Segment{{Value: 50}, {Value: 1}, {Value: 30}, {Value: 19}}
	for _, width := range []int{4, 10, 37, 80} {
		cells := allocateCells(segs, 100, width)
		sum := 0
		for i, c := range cells {
			if c < 1 {
				t.Errorf("width %d: segment %d got %d cells, want >= 1", width, i, c)
			}
			sum += c
		}
		if sum != width {
			t.Errorf("width %d: cells sum to %d", width, sum)
		}
	}
}

func TestAllocateCellsNarrowerThanSegments(t *testing.T) {
	cells := allocateCells([]Segment{{Value: 1}, {Value: 1}, {Value: 1}}, 3, 2)
	if cells[0] != 1 || cells[1] != 1 || cells[2] != 0 {
		t.Errorf("cells = %v", cells)
	}
}

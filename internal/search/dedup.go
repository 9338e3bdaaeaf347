package search

import (
	"math"

	"github.com/roman-kulish/cellsearch/internal/lte"
)

// DefaultDedupWindow is the carrier frequency distance below which two
// detections with the same identity are taken to be one physical cell.
const DefaultDedupWindow = 1e6

// sameCell reports whether a and b are detections of one physical cell.
func sameCell(a, b lte.Cell, window float64) bool {
	ida, oka := a.ID()
	idb, okb := b.ID()
	if !oka || !okb || ida != idb {
		return false
	}
	return math.Abs(a.Frequency()-b.Frequency()) < window
}

// Deduplicate merges the confirmed cells of every sweep, given in sweep order.
// A detection that matches an earlier one replaces it in place only when its
// peak power is strictly greater; otherwise a new entry is appended.
func Deduplicate(detected [][]lte.Cell, window float64) []lte.Cell {
	var out []lte.Cell
	for _, cells := range detected {
		for _, c := range cells {
			merged := false
			for i := range out {
				if sameCell(out[i], c, window) {
					if c.PeakPower > out[i].PeakPower {
						out[i] = c
					}
					merged = true
					break
				}
			}
			if !merged {
				out = append(out, c)
			}
		}
	}
	return out
}

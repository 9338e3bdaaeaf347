package search

import (
	"fmt"

	"github.com/roman-kulish/cellsearch/internal/lte"
)

// CorrectionFactor returns the oscillator correction implied by a cell found
// at offset foff from nominal center frequency fc, given the correction in
// effect during the capture. The carrier is assumed to sit exactly on fc.
func CorrectionFactor(previous, fc, foff float64) float64 {
	return previous * fc / (fc - foff)
}

// RefineCorrection computes the correction factor from a cell whose identity
// was confirmed by a decoded MIB. Any other cell is refused.
func RefineCorrection(previous float64, cell lte.Cell) (float64, error) {
	if _, ok := cell.ID(); !ok || !cell.HasMIB() {
		return 0, fmt.Errorf("%w: %s", ErrUnconfirmedCell, cell)
	}
	return CorrectionFactor(previous, cell.CenterFrequency, cell.FrequencyOffset), nil
}

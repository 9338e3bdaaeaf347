package lte

// Kernel bundles the reference signal-processing stages behind method values
// so a searcher can depend on narrow interfaces.
type Kernel struct{}

// Correlate correlates the capture against all three PSS at every offset.
func (Kernel) Correlate(capture *Capture, offsets []float64, combArm int) (*Correlation, error) {
	return Correlate(capture, offsets, combArm)
}

// PeakSearch returns the cells whose correlation power exceeds threshold.
func (Kernel) PeakSearch(xc *Correlation, threshold []float64, offsets []float64) []Cell {
	return PeakSearch(xc, threshold, offsets)
}

// DetectSSS resolves NID1, CP type and frame timing, or sets NID1 to NotFound.
func (Kernel) DetectSSS(cell Cell, capture *Capture, nSigma float64) Cell {
	return DetectSSS(cell, capture, nSigma)
}

// EstimateFrequency refines the frequency offset from the PSS and SSS.
func (Kernel) EstimateFrequency(cell Cell, capture *Capture) Cell {
	return EstimateFrequency(cell, capture)
}

// ExtractGrid demodulates the 72 centre subcarriers of every OFDM symbol.
func (Kernel) ExtractGrid(cell Cell, capture *Capture) *Grid {
	return ExtractGrid(cell, capture)
}

// CompensateGrid removes residual frequency and timing error using the CRS.
func (Kernel) CompensateGrid(cell Cell, g *Grid, rs *ReferenceSignals) (Cell, *Grid) {
	return CompensateGrid(cell, g, rs)
}

// DecodeMIB decodes the PBCH, or leaves NRBDL at NotFound.
func (Kernel) DecodeMIB(cell Cell, g *Grid, rs *ReferenceSignals) Cell {
	return DecodeMIB(cell, g, rs)
}

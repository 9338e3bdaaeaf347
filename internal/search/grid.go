package search

import (
	"log/slog"
	"math"
)

const (
	// RasterStep is the LTE channel raster.
	RasterStep = 100e3

	// OffsetStep is the spacing of residual frequency offset hypotheses.
	OffsetStep = 5e3

	// MinFrequency is the lowest accepted start frequency.
	MinFrequency = 1e6
)

// GridConfig holds the requested frequency range and crystal accuracy.
type GridConfig struct {
	FreqStart float64
	FreqEnd   *float64 // nil searches FreqStart only
	PPM       float64
}

// Grid is the two-level search space: center frequencies on the channel
// raster and, for each, residual frequency offsets.
type Grid struct {
	CenterFrequencies []float64
	Offsets           []float64
}

// Coverage returns the largest absolute offset covered by the grid, counting
// the half step captured around the outermost hypothesis.
func (g *Grid) Coverage() float64 {
	if len(g.Offsets) == 0 {
		return 0
	}
	return g.Offsets[len(g.Offsets)-1] + OffsetStep/2
}

// roundToRaster snaps f to the nearest raster point, logging a warning if it moved.
func roundToRaster(f float64, name string, logger *slog.Logger) float64 {
	r := math.Round(f/RasterStep) * RasterStep
	if r != f {
		logger.Warn("frequency is not on the 100 kHz raster, rounding",
			slog.String("parameter", name),
			slog.Float64("requested", f),
			slog.Float64("rounded", r))
	}
	return r
}

// BuildGrid validates the frequency range and crystal accuracy and returns the search grid.
func BuildGrid(cfg GridConfig, logger *slog.Logger) (*Grid, error) {
	if logger == nil {
		logger = discardLogger()
	}

	if cfg.FreqStart < MinFrequency {
		return nil, newConfigError("freq-start", "must be at least 1 MHz: %.0f given", cfg.FreqStart)
	}
	start := roundToRaster(cfg.FreqStart, "freq-start", logger)

	end := start
	if cfg.FreqEnd != nil {
		end = *cfg.FreqEnd
		if end < start {
			return nil, newConfigError("freq-end", "must not be below start frequency %.0f: %.0f given", start, end)
		}
		end = roundToRaster(end, "freq-end", logger)
	}

	if cfg.PPM < 0 {
		return nil, newConfigError("ppm", "must not be negative: %g given", cfg.PPM)
	}

	g := &Grid{}
	n := int(math.Round((end - start) / RasterStep))
	for i := 0; i <= n; i++ {
		g.CenterFrequencies = append(g.CenterFrequencies, start+float64(i)*RasterStep)
	}

	excursion := start * cfg.PPM / 1e6
	extra := int(math.Floor((excursion + OffsetStep/2) / OffsetStep))
	for i := -extra; i <= extra; i++ {
		g.Offsets = append(g.Offsets, float64(i)*OffsetStep)
	}

	return g, nil
}

package app

import "math"

const (
	defaultMinPower = -20.0 // dB relative to the detection threshold
	defaultMaxPower = 10.0

	// For 20 values:
	// - 5% percentile  = 1 value
	// - 95% percentile = 19th value
	minimumSampleCount = 20

	minimumRange = 12 // dB
)

// PowerBounds represents the power range mapped onto the color scale
type PowerBounds struct {
	Min  float64 // 5th percentile, dB
	Max  float64 // 95th percentile, dB
	Mean float64
}

func defaultPowerBounds() PowerBounds {
	return PowerBounds{
		Min:  defaultMinPower,
		Max:  defaultMaxPower,
		Mean: (defaultMinPower + defaultMaxPower) / 2,
	}
}

// PowerHistogram maintains a histogram of power values with 1 dB bins
type PowerHistogram struct {
	bins       map[int]uint32
	totalCount uint64
	minBin     int
	maxBin     int
}

// NewPowerHistogram creates a new histogram
func NewPowerHistogram() *PowerHistogram {
	return &PowerHistogram{
		bins:   make(map[int]uint32),
		minBin: math.MaxInt32,
		maxBin: math.MinInt32,
	}
}

func getBinIndex(power float64) int {
	return int(math.Floor(power))
}

// Update adds a power value to the histogram
func (h *PowerHistogram) Update(power *float64) {
	if power == nil {
		return
	}

	bin := getBinIndex(*power)
	h.bins[bin]++
	h.totalCount++

	h.minBin = min(h.minBin, bin)
	h.maxBin = max(h.maxBin, bin)
}

// Count returns the number of values added
func (h *PowerHistogram) Count() uint64 {
	return h.totalCount
}

// Bounds returns power bounds based on the 5th and 95th percentiles, widened
// to at least minimumRange with a 10% margin.
func (h *PowerHistogram) Bounds() PowerBounds {
	if h.totalCount < minimumSampleCount {
		return defaultPowerBounds()
	}

	target := h.totalCount * 5 / 100

	var count uint64
	var min5th, max95th int

	for bin := h.minBin; bin <= h.maxBin; bin++ {
		count += uint64(h.bins[bin])
		if count >= target {
			min5th = bin
			break
		}
	}

	count = 0
	for bin := h.maxBin; bin >= h.minBin; bin-- {
		count += uint64(h.bins[bin])
		if count >= target {
			max95th = bin + 1
			break
		}
	}

	var sumProduct float64
	for bin, n := range h.bins {
		sumProduct += (float64(bin) + 0.5) * float64(n)
	}
	mean := sumProduct / float64(h.totalCount)

	if max95th-min5th < minimumRange {
		center := (max95th + min5th) / 2
		min5th = center - minimumRange/2
		max95th = center + minimumRange/2
	}

	margin := (max95th - min5th) / 10

	return PowerBounds{
		Min:  float64(min5th - margin),
		Max:  float64(max95th + margin),
		Mean: mean,
	}
}

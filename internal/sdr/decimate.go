package sdr

import (
	"math"

	"gonum.org/v1/gonum/dsp/window"
)

// halfBandTaps is the length of the anti-aliasing filter used by Decimate.
const halfBandTaps = 31

// lowPass returns a Hamming-windowed sinc filter with cutoff fs/(2*factor)
// and unit DC gain.
func lowPass(taps, factor int) []float64 {
	h := make([]float64, taps)
	mid := float64(taps-1) / 2
	for i := range h {
		x := (float64(i) - mid) / float64(factor)
		if x == 0 {
			h[i] = 1
		} else {
			h[i] = math.Sin(math.Pi*x) / (math.Pi * x)
		}
	}
	window.Hamming(h)

	var sum float64
	for _, v := range h {
		sum += v
	}
	for i := range h {
		h[i] /= sum
	}
	return h
}

// Decimate low-pass filters x and keeps every factor-th sample.
func Decimate(x []complex128, factor int) []complex128 {
	if factor <= 1 {
		return x
	}

	h := lowPass(halfBandTaps, factor)
	half := len(h) / 2

	y := make([]complex128, len(x)/factor)
	for m := range y {
		n := m * factor
		var acc complex128
		for j, c := range h {
			k := n + j - half
			if k < 0 || k >= len(x) {
				continue
			}
			acc += x[k] * complex(c, 0)
		}
		y[m] = acc
	}
	return y
}

package sdr

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/require"
)

func tone(n int, freq float64) []complex128 {
	x := make([]complex128, n)
	for i := range x {
		x[i] = cmplx.Rect(1, 2*math.Pi*freq*float64(i))
	}
	return x
}

func rms(x []complex128) float64 {
	var sum float64
	for _, v := range x {
		sum += real(v)*real(v) + imag(v)*imag(v)
	}
	return math.Sqrt(sum / float64(len(x)))
}

func TestDecimate(t *testing.T) {
	const n = 4096

	dc := Decimate(tone(n, 0), 2)
	require.Len(t, dc, n/2)
	require.InDelta(t, 1, real(dc[n/4]), 1e-9, "unit DC gain")

	// trim the filter edges before measuring
	pass := Decimate(tone(n, 0.05), 2)
	require.InDelta(t, 1, rms(pass[32:len(pass)-32]), 0.02)

	stop := Decimate(tone(n, 0.45), 2)
	require.Less(t, rms(stop[32:len(stop)-32]), 0.01)

	x := tone(10, 0.1)
	require.Equal(t, x, Decimate(x, 1))
}

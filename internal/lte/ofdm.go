package lte

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Downlink numerology at the 1.92 Msps capture rate (6 resource blocks).
const (
	SampleRate        = 1.92e6
	FFTSize           = 128
	SubcarrierSpacing = 15e3
	Subcarriers       = 72

	SlotLength      = 960
	HalfFrameLength = 9600
	FrameLength     = 19200
	CaptureLength   = 153600 // 80 ms

	cpNormalFirst = 10
	cpNormal      = 9
	cpExtended    = 32

	// PSSWindowLength is the correlation template length: one normal CP and the symbol.
	PSSWindowLength = FFTSize + cpNormal

	// pssSymbolStart is the FFT window start of the PSS symbol relative to its
	// slot, identical for both CP lengths.
	pssSymbolStart = 832
)

// subcarrierBin maps grid index k in [0,72) to an FFT bin, skipping DC.
func subcarrierBin(k int) int {
	if k < Subcarriers/2 {
		return FFTSize + k - Subcarriers/2
	}
	return k - Subcarriers/2 + 1
}

// subcarrierIndex returns the signed subcarrier number of grid index k relative to DC.
func subcarrierIndex(k int) int {
	if k < Subcarriers/2 {
		return k - Subcarriers/2
	}
	return k - Subcarriers/2 + 1
}

// symbolLayout returns the start (CP included) and CP length of symbol l within a slot.
func symbolLayout(cp CPType, l int) (start, cpLen int) {
	if cp == CPExtended {
		return l * (FFTSize + cpExtended), cpExtended
	}
	if l == 0 {
		return 0, cpNormalFirst
	}
	return cpNormalFirst + FFTSize + (l-1)*(FFTSize+cpNormal), cpNormal
}

// timeScale converts nominal sample distances into capture samples. The radio
// derives both its LO and its sample clock from one crystal, so a carrier
// offset foff at fc implies a proportional sample-rate error.
func timeScale(fc, foff float64) float64 {
	if fc == 0 {
		return 1
	}
	return (fc - foff) / fc
}

// demodulator turns 128-sample windows into 72 subcarrier values. It is not
// safe for concurrent use.
type demodulator struct {
	fft    *fourier.CmplxFFT
	window []complex128
	coeff  []complex128
}

func newDemodulator() *demodulator {
	return &demodulator{
		fft:    fourier.NewCmplxFFT(FFTSize),
		window: make([]complex128, FFTSize),
		coeff:  make([]complex128, FFTSize),
	}
}

// symbol demodulates the FFT window starting at sample start after removing
// a carrier offset of foff Hz. It returns nil if the window leaves the capture.
func (d *demodulator) symbol(samples []complex128, start int, foff float64) []complex128 {
	if start < 0 || start+FFTSize > len(samples) {
		return nil
	}

	w := -2 * math.Pi * foff / SampleRate
	for i := range d.window {
		n := start + i
		d.window[i] = samples[n] * cmplx.Rect(1, w*float64(n))
	}
	d.fft.Coefficients(d.coeff, d.window)

	out := make([]complex128, Subcarriers)
	for k := range out {
		out[k] = d.coeff[subcarrierBin(k)]
	}
	return out
}

// modulate builds one time-domain OFDM symbol (CP included) from 72
// subcarrier values. Used to synthesise reference waveforms.
func modulate(fft *fourier.CmplxFFT, grid []complex128, cpLen int) []complex128 {
	coeff := make([]complex128, FFTSize)
	for k, v := range grid {
		coeff[subcarrierBin(k)] = v
	}

	seq := fft.Sequence(nil, coeff)
	scale := complex(1/math.Sqrt(FFTSize), 0)
	for i := range seq {
		seq[i] *= scale
	}

	out := make([]complex128, 0, cpLen+FFTSize)
	out = append(out, seq[FFTSize-cpLen:]...)
	return append(out, seq...)
}

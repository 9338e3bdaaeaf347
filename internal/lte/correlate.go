package lte

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// MaxPeaks caps the number of candidates taken from one correlation.
const MaxPeaks = 16

var (
	// ErrShortCapture is returned when a capture cannot hold a single half frame of PSS.
	ErrShortCapture = errors.New("capture too short for PSS correlation")

	// ErrNoOffsets is returned when the offset hypothesis list is empty.
	ErrNoOffsets = errors.New("no frequency offset hypotheses")
)

// Correlation is the PSS correlation of a capture against every offset
// hypothesis, combined incoherently over half frames and +-CombArm timing bins
// and collapsed over offsets to the strongest hypothesis per timing bin.
type Correlation struct {
	CenterFrequency float64
	Offsets         []float64
	Periods         int // half frames combined
	CombArm         int

	Power       [3][]float64 // per NID2, per timing bin within a half frame
	OffsetIndex [3][]int     // index into Offsets of the strongest hypothesis
	Noise       []float64    // received power combined the same way as Power

	OffsetPeak []float64 // strongest combined power per offset hypothesis
}

// pssTemplates holds the time-domain PSS (normal CP plus symbol) with unit mean power.
var pssTemplates = func() [3][]complex128 {
	fft := fourier.NewCmplxFFT(FFTSize)

	var out [3][]complex128
	for nid2 := range out {
		grid := make([]complex128, Subcarriers)
		for n, v := range PSS(nid2) {
			grid[n+syncOffset] = v
		}
		t := modulate(fft, grid, cpNormal)

		var energy float64
		for _, v := range t {
			energy += real(v)*real(v) + imag(v)*imag(v)
		}
		scale := complex(1/math.Sqrt(energy/float64(len(t))), 0)
		for i := range t {
			t[i] *= scale
		}
		out[nid2] = t
	}
	return out
}()

// combinePeriods returns how many half frames fit into n valid correlation
// outputs when half frame m starts at round(m*HalfFrameLength*k).
func combinePeriods(n int, kmax float64) int {
	p := 0
	for {
		last := int(math.Round(float64(p)*HalfFrameLength*kmax)) + HalfFrameLength
		if last > n {
			return p
		}
		p++
	}
}

// combine folds a per-sample series into one half frame, averaging over
// periods and over +-arm neighbouring bins (circular within the half frame).
func combine(series []float64, periods, arm int, k float64, dst []float64) {
	folded := make([]float64, HalfFrameLength)
	for m := 0; m < periods; m++ {
		base := int(math.Round(float64(m) * HalfFrameLength * k))
		for t := range folded {
			folded[t] += series[base+t]
		}
	}

	norm := 1 / float64(periods*(2*arm+1))
	for t := range dst {
		var s float64
		for d := -arm; d <= arm; d++ {
			s += folded[(t+d+HalfFrameLength)%HalfFrameLength]
		}
		dst[t] = s * norm
	}
}

// Correlate searches capture for the three PSS sequences at every offset hypothesis.
func Correlate(capture *Capture, offsets []float64, combArm int) (*Correlation, error) {
	if len(offsets) == 0 {
		return nil, ErrNoOffsets
	}
	if combArm < 0 {
		return nil, fmt.Errorf("negative comb arm: %d", combArm)
	}

	n := len(capture.Samples)
	valid := n - PSSWindowLength + 1

	kmax := 1.0
	for _, f := range offsets {
		kmax = math.Max(kmax, timeScale(capture.CenterFrequency, f))
	}
	periods := combinePeriods(valid, kmax)
	if periods < 1 {
		return nil, fmt.Errorf("%w: %d samples", ErrShortCapture, n)
	}

	xc := &Correlation{
		CenterFrequency: capture.CenterFrequency,
		Offsets:         offsets,
		Periods:         periods,
		CombArm:         combArm,
		Noise:           make([]float64, HalfFrameLength),
		OffsetPeak:      make([]float64, len(offsets)),
	}
	for nid2 := range xc.Power {
		xc.Power[nid2] = make([]float64, HalfFrameLength)
		xc.OffsetIndex[nid2] = make([]int, HalfFrameLength)
	}

	// received power over each correlation window
	sp := make([]float64, valid)
	var acc float64
	for i := 0; i < n; i++ {
		v := capture.Samples[i]
		acc += real(v)*real(v) + imag(v)*imag(v)
		if i >= PSSWindowLength {
			w := capture.Samples[i-PSSWindowLength]
			acc -= real(w)*real(w) + imag(w)*imag(w)
		}
		if j := i - PSSWindowLength + 1; j >= 0 {
			sp[j] = math.Max(acc, 0) / PSSWindowLength
		}
	}
	combine(sp, periods, combArm, 1, xc.Noise)

	fft := fourier.NewCmplxFFT(n)
	spectrum := fft.Coefficients(nil, capture.Samples)

	template := make([]complex128, n)
	tspec := make([]complex128, n)
	prod := make([]complex128, n)
	out := make([]complex128, n)
	power := make([]float64, valid)
	combined := make([]float64, HalfFrameLength)
	norm := 1 / (float64(n) * PSSWindowLength)

	for i, f := range offsets {
		k := timeScale(capture.CenterFrequency, f)
		w := 2 * math.Pi * f / SampleRate

		for nid2, p := range pssTemplates {
			clear(template)
			for j, v := range p {
				template[j] = v * cmplx.Rect(1, w*float64(j))
			}
			fft.Coefficients(tspec, template)
			for j := range prod {
				prod[j] = spectrum[j] * cmplx.Conj(tspec[j])
			}
			fft.Sequence(out, prod)

			for j := range power {
				c := out[j] * complex(norm, 0)
				power[j] = real(c)*real(c) + imag(c)*imag(c)
			}
			combine(power, periods, combArm, k, combined)

			for t, v := range combined {
				if v > xc.Power[nid2][t] {
					xc.Power[nid2][t] = v
					xc.OffsetIndex[nid2][t] = i
				}
				if v > xc.OffsetPeak[i] {
					xc.OffsetPeak[i] = v
				}
			}
		}
	}

	return xc, nil
}

// PeakSearch returns the candidates whose combined correlation power exceeds
// threshold, strongest first. Bins within one PSS window of an accepted peak
// of the same NID2 are excluded.
func PeakSearch(xc *Correlation, threshold []float64, offsets []float64) []Cell {
	var ratio [3][]float64
	for nid2 := range ratio {
		ratio[nid2] = make([]float64, len(xc.Power[nid2]))
		for t, v := range xc.Power[nid2] {
			if t < len(threshold) && threshold[t] > 0 {
				ratio[nid2][t] = v / threshold[t]
			}
		}
	}

	var cells []Cell
	for len(cells) < MaxPeaks {
		best, bestNID2, bestT := 0.0, -1, -1
		for nid2 := range ratio {
			for t, r := range ratio[nid2] {
				if r > best {
					best, bestNID2, bestT = r, nid2, t
				}
			}
		}
		if best <= 1 {
			break
		}

		foff := offsets[xc.OffsetIndex[bestNID2][bestT]]
		cells = append(cells, NewCell(xc.CenterFrequency, bestT, bestNID2, xc.Power[bestNID2][bestT], foff))

		size := len(ratio[bestNID2])
		for d := -PSSWindowLength; d <= PSSWindowLength; d++ {
			ratio[bestNID2][((bestT+d)%size+size)%size] = 0
		}
	}

	return cells
}

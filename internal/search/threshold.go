package search

import (
	"math"

	"gonum.org/v1/gonum/mathext"

	"github.com/roman-kulish/cellsearch/internal/lte"
)

const (
	// DefaultNines is the false alarm exponent: a noise-only bin exceeds the
	// threshold with probability 10^-DefaultNines.
	DefaultNines = 12

	// DefaultCombArm is the number of neighbouring timing bins combined on each side.
	DefaultCombArm = 2

	// rxCutoff is the fraction of the sampled band passed by the receiver
	// filter: (6*12*15e3/2 + 4*15e3) / (1.92e6/2).
	rxCutoff = (6*12*15e3/2 + 4*15e3) / (lte.SampleRate / 2)
)

// ThresholdParams describes how the correlation power was combined.
type ThresholdParams struct {
	Periods    int // half frames combined incoherently
	CombArm    int
	Hypotheses int // offset hypotheses searched per timing bin, <= 1 disables the correction
	Nines      float64
}

// DegreesOfFreedom returns the chi-squared degrees of freedom of a combined
// noise-only correlation bin.
func (p ThresholdParams) DegreesOfFreedom() float64 {
	return float64(2 * p.Periods * (2*p.CombArm + 1))
}

// Ratio returns the chi-squared quantile R such that a noise-only bin exceeds
// it with probability 10^-Nines, split evenly across the offset hypotheses.
func (p ThresholdParams) Ratio() float64 {
	alpha := math.Pow(10, -p.Nines)
	if p.Hypotheses > 1 {
		alpha /= float64(p.Hypotheses)
	}
	return 2 * mathext.GammaIncRegCompInv(p.DegreesOfFreedom()/2, alpha)
}

// Threshold converts the per-bin noise estimate of a correlation into the
// power each bin must exceed to count as a PSS detection. Non-positive noise
// yields a zero threshold for that bin; callers guard against it.
func Threshold(noise []float64, p ThresholdParams) []float64 {
	scale := p.Ratio() / rxCutoff / lte.PSSWindowLength / 2 / float64(p.Periods) / float64(2*p.CombArm+1)

	th := make([]float64, len(noise))
	for t, sp := range noise {
		th[t] = math.Max(sp, 0) * scale
	}
	return th
}

package search

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/roman-kulish/cellsearch/internal/lte"
)

func TestThresholdRatio(t *testing.T) {
	tests := []struct {
		name  string
		p     ThresholdParams
		alpha float64
	}{
		{"single hypothesis", ThresholdParams{Periods: 15, CombArm: 2, Hypotheses: 1, Nines: 12}, 1e-12},
		{"no correction", ThresholdParams{Periods: 15, CombArm: 2, Hypotheses: 0, Nines: 12}, 1e-12},
		{"split across offsets", ThresholdParams{Periods: 15, CombArm: 2, Hypotheses: 41, Nines: 12}, 1e-12 / 41},
		{"loose", ThresholdParams{Periods: 8, CombArm: 1, Hypotheses: 1, Nines: 3}, 1e-3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.p.Ratio()
			tail := distuv.ChiSquared{K: tt.p.DegreesOfFreedom()}.Survival(r)
			require.InEpsilon(t, tt.alpha, tail, 1e-2)
		})
	}
}

func TestThresholdMonotonic(t *testing.T) {
	base := ThresholdParams{Periods: 15, CombArm: DefaultCombArm, Hypotheses: 1, Nines: DefaultNines}

	wider := base
	wider.Hypotheses = 81
	require.Greater(t, wider.Ratio(), base.Ratio(), "more hypotheses must raise the ratio")

	stricter := base
	stricter.Nines = 14
	require.Greater(t, stricter.Ratio(), base.Ratio())

	th := Threshold([]float64{0.5, 1, 2}, base)
	require.Less(t, th[0], th[1])
	require.Less(t, th[1], th[2])
}

func TestThresholdScale(t *testing.T) {
	p := ThresholdParams{Periods: 15, CombArm: 2, Hypotheses: 1, Nines: 12}
	want := p.Ratio() / rxCutoff / lte.PSSWindowLength / 2 / 15 / 5

	th := Threshold([]float64{1, 0, -3}, p)
	require.InDelta(t, want, th[0], want*1e-12)
	require.Zero(t, th[1])
	require.Zero(t, th[2])
	require.InDelta(t, 0.625, rxCutoff, 1e-12)
	require.False(t, math.IsNaN(th[0]))
}

package app

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPowerHistogramBounds(t *testing.T) {
	spread := func() []float64 {
		var values []float64
		for v := -10.0; v < 10; v++ {
			for i := 0; i < 5; i++ {
				values = append(values, v)
			}
		}
		return values
	}

	narrow := make([]float64, 20)
	for i := range narrow {
		narrow[i] = 3.2
	}

	tests := []struct {
		name   string
		values []float64
		want   PowerBounds
	}{
		{"too few values", []float64{1, 2, 3}, defaultPowerBounds()},
		{"spread", spread(), PowerBounds{Min: -12, Max: 12, Mean: 0}},
		{"narrow widened", narrow, PowerBounds{Min: -4, Max: 10, Mean: 3.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPowerHistogram()
			for i := range tt.values {
				h.Update(&tt.values[i])
			}
			h.Update(nil)

			if uint64(len(tt.values)) != h.Count() {
				t.Errorf("Count() = %d; want %d", h.Count(), len(tt.values))
			}
			if diff := cmp.Diff(tt.want, h.Bounds()); diff != "" {
				t.Errorf("Bounds() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

package app

import (
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/cellsearch/internal/spectrum"
)

func profileRow(index int, fc float64, powers ...float64) *spectrum.ProfileRow {
	row := &spectrum.ProfileRow{
		Index:           index,
		Timestamp:       time.Date(2024, 5, 1, 12, 0, index, 0, time.UTC),
		CenterFrequency: fc,
		Peaks:           1,
	}
	offset := -5000.0 * float64(len(powers)/2)
	for _, p := range powers {
		row.Points = append(row.Points, spectrum.OffsetPower{Offset: offset, Power: p, Threshold: 1})
		offset += 5000
	}
	return row
}

func testMap() *CellMap {
	m := NewCellMap()
	m.Update(profileRow(0, 739e6, 1, 10, 0))
	m.Update(profileRow(1, 739.1e6, 100, 1, 0.1))
	return m
}

func TestCellMapUpdate(t *testing.T) {
	m := testMap()

	require.Equal(t, 3, m.Width)
	require.Equal(t, 2, m.Height)
	require.Equal(t, -5000.0, m.OffsetMin)
	require.Equal(t, 5000.0, m.OffsetMax)
	require.Equal(t, 739e6, m.FrequencyMin)
	require.Equal(t, 739.1e6, m.FrequencyMax)
	require.Equal(t, 2, m.peaks)
	require.True(t, m.TimestampEnd.After(m.TimestampStart))

	require.InDelta(t, 0, *m.Value(0, 0), 1e-12)
	require.InDelta(t, 10, *m.Value(0, 1), 1e-12)
	require.Nil(t, m.Value(0, 2), "zero power has no value")
	require.InDelta(t, 20, *m.Value(1, 0), 1e-12)
	require.InDelta(t, -10, *m.Value(1, 2), 1e-12)
	require.Equal(t, uint64(5), m.Histogram.Count())
}

func TestCellMapNarrowRow(t *testing.T) {
	m := testMap()
	m.Update(profileRow(2, 739.2e6, 10))
	m.Update(&spectrum.ProfileRow{Index: 3, CenterFrequency: 739.3e6})

	require.Equal(t, 3, m.Width)
	require.Equal(t, 4, m.Height)
	require.Nil(t, m.Value(2, 0))
	require.InDelta(t, 10, *m.Value(2, 1), 1e-12)
	require.Nil(t, m.Value(2, 2))
	require.Nil(t, m.Value(3, 1))
}

func TestCellMapMark(t *testing.T) {
	m := testMap()
	m.Mark([]spectrum.DetectedCell{
		{CellID: 36, CenterFrequency: 739.1e6, FrequencyOffset: 5200},
		{CellID: 12, CenterFrequency: 739e6, FrequencyOffset: -20000},
		{CellID: 7, CenterFrequency: 800e6},
	})

	require.Len(t, m.Markers, 2)
	require.Equal(t, 1, m.Markers[0].Row)
	require.Equal(t, 2, m.Markers[0].Column)
	require.Equal(t, 0, m.Markers[1].Row)
	require.Equal(t, 0, m.Markers[1].Column, "clamped to the map")
}

func TestColorMapper(t *testing.T) {
	cm := NewColorMapper(GrayscaleTheme, PowerBounds{Min: 0, Max: 10})

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black := color.RGBA{A: 255}

	low, high, over := -5.0, 10.0, 50.0
	require.Equal(t, black, cm.GetColor(&low))
	require.Equal(t, white, cm.GetColor(&high))
	require.Equal(t, white, cm.GetColor(&over))
	require.Equal(t, NoDataColor, cm.GetColor(nil))
}

func TestHSV(t *testing.T) {
	tests := []struct {
		hsv  HSV
		want color.RGBA
	}{
		{HSV{H: 0, S: 1, V: 1}, color.RGBA{R: 255, A: 255}},
		{HSV{H: 120, S: 1, V: 1}, color.RGBA{G: 255, A: 255}},
		{HSV{H: 240, S: 1, V: 1}, color.RGBA{B: 255, A: 255}},
		{HSV{H: 90, S: 0, V: 1}, color.RGBA{R: 255, G: 255, B: 255, A: 255}},
	}

	for _, tt := range tests {
		if got := tt.hsv.RGB(); got != tt.want {
			t.Errorf("%+v.RGB() = %v; want %v", tt.hsv, got, tt.want)
		}
	}
}

package app

import (
	"math"
	"time"

	"github.com/roman-kulish/cellsearch/internal/search"
	"github.com/roman-kulish/cellsearch/internal/spectrum"
)

// CellMap is the center frequency x offset detection map of a session. Each
// value is the strongest correlation power at that hypothesis in dB relative
// to the detection threshold of its sweep; nil where the capture was silent.
type CellMap struct {
	Width, Height                int // offsets, center frequencies
	OffsetMin, OffsetMax         float64
	FrequencyMin, FrequencyMax   float64
	TimestampStart, TimestampEnd time.Time

	Frequencies []float64
	Rows        [][]*float64
	Histogram   *PowerHistogram
	Markers     []Marker

	peaks, rejected, confirmed int
}

// Marker locates a detected cell on the map
type Marker struct {
	Row, Column int
	Cell        spectrum.DetectedCell
}

func NewCellMap() *CellMap {
	return &CellMap{
		OffsetMin:    math.MaxFloat64,
		OffsetMax:    -math.MaxFloat64,
		FrequencyMin: math.MaxFloat64,
		Histogram:    NewPowerHistogram(),
	}
}

// Update appends the profile of the next center frequency. Rows must arrive
// in sweep order.
func (m *CellMap) Update(row *spectrum.ProfileRow) {
	m.Height++
	m.Frequencies = append(m.Frequencies, row.CenterFrequency)

	m.FrequencyMin = min(m.FrequencyMin, row.CenterFrequency)
	m.FrequencyMax = max(m.FrequencyMax, row.CenterFrequency)

	if m.TimestampStart.IsZero() || m.TimestampStart.After(row.Timestamp) {
		m.TimestampStart = row.Timestamp
	}
	if m.TimestampEnd.IsZero() || m.TimestampEnd.Before(row.Timestamp) {
		m.TimestampEnd = row.Timestamp
	}

	m.peaks += row.Peaks
	m.rejected += row.Rejected
	m.confirmed += row.Confirmed

	values := make([]*float64, len(row.Points))
	for i, p := range row.Points {
		m.OffsetMin = min(m.OffsetMin, p.Offset)
		m.OffsetMax = max(m.OffsetMax, p.Offset)

		if p.Power <= 0 || p.Threshold <= 0 {
			continue
		}
		v := 10 * math.Log10(p.Power/p.Threshold)
		values[i] = &v
		m.Histogram.Update(&v)
	}
	m.Rows = append(m.Rows, values)

	if m.OffsetMax >= m.OffsetMin {
		m.Width = m.column(m.OffsetMax) + 1
	}
}

// column returns the map column of a frequency offset
func (m *CellMap) column(offset float64) int {
	return int(math.Round((offset - m.OffsetMin) / search.OffsetStep))
}

// Value returns the value at (row, column) of the map. Rows that stored fewer
// offsets than the widest row are aligned by offset.
func (m *CellMap) Value(row, column int) *float64 {
	values := m.Rows[row]
	if len(values) == m.Width {
		return values[column]
	}
	// rows narrower than the map are centered, the grid is symmetric
	shift := (m.Width - len(values)) / 2
	if i := column - shift; i >= 0 && i < len(values) {
		return values[i]
	}
	return nil
}

// Mark places the detected cells on the rows of their center frequency.
// Cells outside the rendered frequency range are skipped.
func (m *CellMap) Mark(cells []spectrum.DetectedCell) {
	rows := make(map[float64]int, len(m.Frequencies))
	for i, f := range m.Frequencies {
		rows[f] = i
	}

	for _, c := range cells {
		row, ok := rows[c.CenterFrequency]
		if !ok || m.Width == 0 {
			continue
		}
		col := min(max(m.column(c.FrequencyOffset), 0), m.Width-1)
		m.Markers = append(m.Markers, Marker{Row: row, Column: col, Cell: c})
	}
}

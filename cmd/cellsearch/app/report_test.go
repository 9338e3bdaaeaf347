package app

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/cellsearch/internal/spectrum"
)

func TestWriteReport(t *testing.T) {
	cells := []spectrum.DetectedCell{
		{
			CellID:          36,
			CenterFrequency: 739e6,
			FrequencyOffset: 5200,
			PeakPower:       100,
			CP:              "normal",
			NRBDL:           50,
			PHICHDuration:   "normal",
			PHICHResource:   "one",
			Ports:           2,
			Correction:      1.5,
		},
		{
			CellID:          301,
			CenterFrequency: 1842e6,
			FrequencyOffset: -1200,
			PeakPower:       10,
			CP:              "extended",
			NRBDL:           100,
			PHICHDuration:   "extended",
			PHICHResource:   "1/6",
			Ports:           4,
			Correction:      0.75,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, cells))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	require.Equal(t, "Detected the following cells:", lines[0])
	require.Equal(t, reportLegend, lines[1])
	require.Equal(t, reportHeader, lines[2])
	require.Equal(t, " 36    739M  5.2k    20 N  50 N one 1.5", lines[3])
	require.Equal(t, "301  1.842G -1.2k    10 E 100 E 1/6 0.75", lines[4])
}

func TestWriteReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, nil))
	require.Equal(t, "No LTE cells were found...\n", buf.String())
}

func TestShortType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"normal", "N"},
		{"extended", "E"},
		{"unknown", "U"},
		{"", "U"},
	}

	for _, tt := range tests {
		if got := shortType(tt.in); got != tt.want {
			t.Errorf("shortType(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}

	require.Equal(t, "UNK", phichResource("unknown"))
	require.Equal(t, "1/2", phichResource("1/2"))
}

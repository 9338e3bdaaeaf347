package app

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/cellsearch/internal/spectrum"
)

const (
	reportLegend = "C: CP type ; P: PHICH duration ; PR: PHICH resource type"
	reportHeader = "CID      fc  foff RXPWR C nRB P  PR CrystalCorrectionFactor"
)

// WriteReport prints the detected cells as a fixed-width table
func WriteReport(w io.Writer, cells []spectrum.DetectedCell) error {
	bw := bufio.NewWriter(w)

	if len(cells) == 0 {
		fmt.Fprintln(bw, "No LTE cells were found...")
		return bw.Flush()
	}

	fmt.Fprintln(bw, "Detected the following cells:")
	fmt.Fprintln(bw, reportLegend)
	fmt.Fprintln(bw, reportHeader)
	for i := range cells {
		fmt.Fprintln(bw, reportLine(&cells[i]))
	}

	return bw.Flush()
}

func reportLine(c *spectrum.DetectedCell) string {
	fc, fcPrefix := humanize.ComputeSI(c.CenterFrequency)
	foff, foffPrefix := humanize.ComputeSI(c.FrequencyOffset)

	return fmt.Sprintf("%3d %6.4g%s %4.3g%-1s %5.3g %s %3d %s %3s %s",
		c.CellID,
		fc, fcPrefix,
		foff, foffPrefix,
		db10(c.PeakPower),
		shortType(c.CP),
		c.NRBDL,
		shortType(c.PHICHDuration),
		phichResource(c.PHICHResource),
		strconv.FormatFloat(c.Correction, 'g', -1, 64))
}

func db10(p float64) float64 {
	return 10 * math.Log10(p)
}

// shortType abbreviates CP and PHICH duration values to one letter
func shortType(s string) string {
	switch s {
	case "normal":
		return "N"
	case "extended":
		return "E"
	default:
		return "U"
	}
}

func phichResource(s string) string {
	if s == "unknown" {
		return "UNK"
	}
	return s
}

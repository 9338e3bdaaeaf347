package lte

import "fmt"

// NotFound marks an identity or bandwidth field that has not been resolved yet.
const NotFound = -1

// CPType is the cyclic prefix length used by a cell.
type CPType int

const (
	CPUnknown CPType = iota
	CPNormal
	CPExtended
)

func (c CPType) String() string {
	switch c {
	case CPNormal:
		return "normal"
	case CPExtended:
		return "extended"
	default:
		return "unknown"
	}
}

// SymbolsPerSlot returns the number of OFDM symbols in a 0.5 ms slot.
func (c CPType) SymbolsPerSlot() int {
	if c == CPExtended {
		return 6
	}
	return 7
}

// PHICHDuration is the PHICH duration signalled in the MIB.
type PHICHDuration int

const (
	PHICHDurationUnknown PHICHDuration = iota
	PHICHDurationNormal
	PHICHDurationExtended
)

func (d PHICHDuration) String() string {
	switch d {
	case PHICHDurationNormal:
		return "normal"
	case PHICHDurationExtended:
		return "extended"
	default:
		return "unknown"
	}
}

// PHICHResource is the Ng parameter signalled in the MIB.
type PHICHResource int

const (
	PHICHResourceUnknown PHICHResource = iota
	PHICHResourceOneSixth
	PHICHResourceHalf
	PHICHResourceOne
	PHICHResourceTwo
)

func (r PHICHResource) String() string {
	switch r {
	case PHICHResourceOneSixth:
		return "1/6"
	case PHICHResourceHalf:
		return "1/2"
	case PHICHResourceOne:
		return "one"
	case PHICHResourceTwo:
		return "two"
	default:
		return "unknown"
	}
}

// Cell is a candidate LTE cell. Each detection stage receives a copy, fills in
// what it learned and returns the updated value.
type Cell struct {
	CenterFrequency float64 // nominal fc of the sweep that found the cell, Hz
	FrequencyOffset float64 // residual offset from CenterFrequency, Hz
	PeakPower       float64
	PeakIndex       int // PSS correlation window start within a half frame

	NID2 int
	NID1 int
	CP   CPType

	FrameStart float64 // sample index of a frame boundary in the capture

	NRBDL         int
	PHICHDuration PHICHDuration
	PHICHResource PHICHResource
	Ports         int
	SFN           int
}

// NewCell returns a cell found by the PSS peak search, with every later field unresolved.
func NewCell(fc float64, peakIndex, nid2 int, power, offset float64) Cell {
	return Cell{
		CenterFrequency: fc,
		FrequencyOffset: offset,
		PeakPower:       power,
		PeakIndex:       peakIndex,
		NID2:            nid2,
		NID1:            NotFound,
		NRBDL:           NotFound,
		SFN:             NotFound,
	}
}

// ID returns the physical cell identity, which is valid once the SSS was detected.
func (c Cell) ID() (int, bool) {
	if c.NID1 == NotFound {
		return 0, false
	}
	return 3*c.NID1 + c.NID2, true
}

// HasMIB reports whether the MIB of the cell was decoded.
func (c Cell) HasMIB() bool {
	return c.NRBDL != NotFound
}

// Frequency returns the absolute carrier frequency estimate in Hz.
func (c Cell) Frequency() float64 {
	return c.CenterFrequency + c.FrequencyOffset
}

func (c Cell) String() string {
	id, ok := c.ID()
	if !ok {
		return fmt.Sprintf("nid2=%d fc=%.0f foff=%.1f", c.NID2, c.CenterFrequency, c.FrequencyOffset)
	}
	return fmt.Sprintf("cid=%d fc=%.0f foff=%.1f", id, c.CenterFrequency, c.FrequencyOffset)
}

// Capture is a block of complex baseband samples recorded at one center frequency.
type Capture struct {
	CenterFrequency float64
	Correction      float64
	SampleRate      float64
	Samples         []complex128
}

package lte

import (
	"math"
	"math/cmplx"
)

// SlotsPerFrame is the number of 0.5 ms slots in a 10 ms radio frame.
const SlotsPerFrame = 20

// fftEarly moves every FFT window this many samples into the cyclic prefix.
const fftEarly = 2

// ReferenceSignals holds the cell-specific reference signal values of a cell
// for every slot and reference-bearing symbol of a frame.
type ReferenceSignals struct {
	NIDCell int
	CP      CPType

	values map[[2]int][]complex128
}

// NewReferenceSignals builds the CRS descriptor of a cell on a 6 resource block carrier.
func NewReferenceSignals(nidCell int, cp CPType) *ReferenceSignals {
	rs := &ReferenceSignals{
		NIDCell: nidCell,
		CP:      cp,
		values:  make(map[[2]int][]complex128),
	}

	ncp := 1
	if cp == CPExtended {
		ncp = 0
	}

	const (
		maxRB  = 110
		gridRB = Subcarriers / 12
	)
	for ns := 0; ns < SlotsPerFrame; ns++ {
		for _, l := range []int{0, cp.SymbolsPerSlot() - 3} {
			cinit := uint32((1<<10)*(7*(ns+1)+l+1)*(2*nidCell+1) + 2*nidCell + ncp)
			c := pseudoRandom(cinit, 4*maxRB)

			v := make([]complex128, 2*gridRB)
			for m := range v {
				mp := m + maxRB - gridRB
				v[m] = complex(float64(1-2*int(c[2*mp])), float64(1-2*int(c[2*mp+1]))) / complex(math.Sqrt2, 0)
			}
			rs.values[[2]int{ns, l}] = v
		}
	}
	return rs
}

// Positions returns the grid indices and values of the port 0 or 1 reference
// signals in symbol l of slot ns. It returns nil for symbols without them.
func (rs *ReferenceSignals) Positions(port, ns, l int) ([]int, []complex128) {
	last := rs.CP.SymbolsPerSlot() - 3

	var v int
	switch {
	case l == 0 && port == 0, l == last && port == 1:
		v = 0
	case l == 0 && port == 1, l == last && port == 0:
		v = 3
	default:
		return nil, nil
	}

	values := rs.values[[2]int{ns % SlotsPerFrame, l}]
	idx := make([]int, len(values))
	shift := (v + rs.NIDCell%6) % 6
	for m := range idx {
		idx[m] = 6*m + shift
	}
	return idx, values
}

// Grid is the time-frequency resource grid of whole frames, starting at a
// frame boundary: one row of 72 subcarriers per OFDM symbol.
type Grid struct {
	CP             CPType
	SymbolsPerSlot int
	Rows           [][]complex128
	Times          []float64 // FFT window start of each row, in capture samples
}

// Frames returns the number of complete frames held by the grid.
func (g *Grid) Frames() int {
	return len(g.Rows) / (SlotsPerFrame * g.SymbolsPerSlot)
}

// Row returns the row index of symbol l in slot ns of frame f.
func (g *Grid) Row(f, ns, l int) int {
	return (f*SlotsPerFrame+ns)*g.SymbolsPerSlot + l
}

// Slot returns slot number within the frame and symbol number of row r.
func (g *Grid) Slot(r int) (ns, l int) {
	return (r / g.SymbolsPerSlot) % SlotsPerFrame, r % g.SymbolsPerSlot
}

// ExtractGrid demodulates every OFDM symbol of the whole frames that follow
// the cell's frame start. The cell must carry its CP type and frame timing.
func ExtractGrid(cell Cell, capture *Capture) *Grid {
	spS := cell.CP.SymbolsPerSlot()
	g := &Grid{CP: cell.CP, SymbolsPerSlot: spS}

	k := timeScale(capture.CenterFrequency, cell.FrequencyOffset)
	dem := newDemodulator()

extract:
	for slot := 0; ; slot++ {
		slotStart := cell.FrameStart + float64(slot*SlotLength)*k
		for l := 0; l < spS; l++ {
			start, cp := symbolLayout(cell.CP, l)
			at := int(math.Round(slotStart+float64(start+cp)*k)) - fftEarly

			sym := dem.symbol(capture.Samples, at, cell.FrequencyOffset)
			if sym == nil {
				break extract
			}
			g.Rows = append(g.Rows, sym)
			g.Times = append(g.Times, float64(at))
		}
	}

	whole := g.Frames() * SlotsPerFrame * spS
	g.Rows, g.Times = g.Rows[:whole], g.Times[:whole]
	return g
}

// channelAt returns the least-squares channel estimates at the reference
// signals of a port in row r, with their grid indices.
func channelAt(g *Grid, rs *ReferenceSignals, port, r int) ([]int, []complex128) {
	ns, l := g.Slot(r)
	idx, values := rs.Positions(port, ns, l)
	if idx == nil {
		return nil, nil
	}

	h := make([]complex128, len(idx))
	for m, k := range idx {
		h[m] = g.Rows[r][k] * cmplx.Conj(values[m])
	}
	return idx, h
}

// CompensateGrid removes the residual carrier offset and timing error seen on
// the port 0 reference signals. The returned cell carries the refined offset.
func CompensateGrid(cell Cell, g *Grid, rs *ReferenceSignals) (Cell, *Grid) {
	out := &Grid{
		CP:             g.CP,
		SymbolsPerSlot: g.SymbolsPerSlot,
		Rows:           make([][]complex128, len(g.Rows)),
		Times:          g.Times,
	}
	for r, row := range g.Rows {
		out.Rows[r] = append([]complex128(nil), row...)
	}

	// residual frequency from symbol 0 of consecutive slots
	var (
		freqAcc complex128
		dt      float64
		prevRow = -1
		prevH   []complex128
	)
	for r := 0; r < len(out.Rows); r += out.SymbolsPerSlot {
		_, h := channelAt(out, rs, 0, r)
		if prevH != nil {
			for m := range h {
				freqAcc += cmplx.Conj(prevH[m]) * h[m]
			}
			dt = out.Times[r] - out.Times[prevRow]
		}
		prevRow, prevH = r, h
	}

	var residual float64
	if freqAcc != 0 && dt > 0 {
		residual = cmplx.Phase(freqAcc) * SampleRate / (2 * math.Pi * dt)
		for r, row := range out.Rows {
			rot := cmplx.Rect(1, -2*math.Pi*residual*out.Times[r]/SampleRate)
			for k := range row {
				row[k] *= rot
			}
		}
	}

	// timing error from the phase slope across subcarriers
	var slopeAcc complex128
	for r := range out.Rows {
		idx, h := channelAt(out, rs, 0, r)
		for m := 1; m < len(idx); m++ {
			if subcarrierIndex(idx[m])-subcarrierIndex(idx[m-1]) != 6 {
				continue
			}
			slopeAcc += cmplx.Conj(h[m-1]) * h[m]
		}
	}
	if slopeAcc != 0 {
		delay := -cmplx.Phase(slopeAcc) * FFTSize / (2 * math.Pi * 6)
		for _, row := range out.Rows {
			for k := range row {
				row[k] *= cmplx.Rect(1, 2*math.Pi*float64(subcarrierIndex(k))*delay/FFTSize)
			}
		}
	}

	cell.FrequencyOffset += residual
	return cell, out
}

package lte

import "math/cmplx"

const (
	pbchSymbols  = 4
	framesPerTTI = 4
)

var bandwidths = [...]int{6, 15, 25, 50, 75, 100}

// MIB is the decoded master information block.
type MIB struct {
	NRBDL         int
	PHICHDuration PHICHDuration
	PHICHResource PHICHResource
	SFNHigh       int // eight most significant bits of the system frame number
}

// parseMIB decodes the 24 MIB bits, most significant bit first.
func parseMIB(b []uint8) (MIB, bool) {
	field := func(from, n int) int {
		var v int
		for _, x := range b[from : from+n] {
			v = v<<1 | int(x)
		}
		return v
	}

	bw := field(0, 3)
	if bw >= len(bandwidths) {
		return MIB{}, false
	}

	return MIB{
		NRBDL:         bandwidths[bw],
		PHICHDuration: PHICHDuration(field(3, 1) + int(PHICHDurationNormal)),
		PHICHResource: PHICHResource(field(4, 2) + int(PHICHResourceOneSixth)),
		SFNHigh:       field(6, 8),
	}, true
}

// pbchReserved reports whether grid index k of PBCH symbol l is set aside
// for reference signals of any antenna port.
func pbchReserved(cp CPType, nidCell, l, k int) bool {
	crs := l == 0 || l == 1 || l == cp.SymbolsPerSlot()-3
	return crs && k%3 == nidCell%3
}

// channelEstimate averages the reference signal estimates of a port over the
// whole grid and interpolates linearly across the 72 subcarriers.
func channelEstimate(g *Grid, rs *ReferenceSignals, port int) []complex128 {
	sum := make([]complex128, Subcarriers)
	count := make([]int, Subcarriers)
	for r := range g.Rows {
		idx, h := channelAt(g, rs, port, r)
		for m, k := range idx {
			sum[k] += h[m]
			count[k]++
		}
	}

	var known []int
	for k := range sum {
		if count[k] > 0 {
			sum[k] /= complex(float64(count[k]), 0)
			known = append(known, k)
		}
	}
	if len(known) == 0 {
		return sum
	}

	out := make([]complex128, Subcarriers)
	j := 0
	for k := range out {
		for j+1 < len(known) && known[j+1] <= k {
			j++
		}
		switch {
		case k <= known[0]:
			out[k] = sum[known[0]]
		case j+1 >= len(known):
			out[k] = sum[known[len(known)-1]]
		default:
			a, b := known[j], known[j+1]
			w := complex(float64(k-a)/float64(b-a), 0)
			out[k] = sum[a]*(1-w) + sum[b]*w
		}
	}
	return out
}

// pbchSoftBits equalises the PBCH of frame f for the given number of ports
// and returns two soft values per resource element, positive meaning bit 0.
func pbchSoftBits(g *Grid, nidCell, f, ports int, h [2][]complex128) []float64 {
	var (
		y  []complex128
		h0 []complex128
		h1 []complex128
	)
	for l := 0; l < pbchSymbols; l++ {
		row := g.Rows[g.Row(f, 1, l)]
		for k, v := range row {
			if pbchReserved(g.CP, nidCell, l, k) {
				continue
			}
			y = append(y, v)
			h0 = append(h0, h[0][k])
			h1 = append(h1, h[1][k])
		}
	}

	x := make([]complex128, len(y))
	if ports == 1 {
		for i := range y {
			x[i] = cmplx.Conj(h0[i]) * y[i]
		}
	} else {
		// space-frequency block code over resource element pairs
		for i := 0; i+1 < len(y); i += 2 {
			a0 := (h0[i] + h0[i+1]) / 2
			a1 := (h1[i] + h1[i+1]) / 2
			x[i] = cmplx.Conj(a0)*y[i] + a1*cmplx.Conj(y[i+1])
			x[i+1] = cmplx.Conj(a0)*y[i+1] - a1*cmplx.Conj(y[i])
		}
	}

	soft := make([]float64, 0, 2*len(x))
	for _, v := range x {
		soft = append(soft, real(v), imag(v))
	}
	return soft
}

// accumulateTTI descrambles the soft bits of one frame at position pos of
// its 40 ms TTI and folds them onto the BCH circular buffer.
func accumulateTTI(acc, soft []float64, pos int, scrambling []uint8) {
	offset := pos * len(soft)
	for j, v := range soft {
		if scrambling[offset+j] == 1 {
			v = -v
		}
		acc[(offset+j)%len(acc)] += v
	}
}

// DecodeMIB decodes the PBCH from a compensated grid. It tries one and two
// antenna ports and every TTI alignment of the captured frames; on success
// the cell receives the MIB contents, otherwise NRBDL stays NotFound.
func DecodeMIB(cell Cell, g *Grid, rs *ReferenceSignals) Cell {
	frames := g.Frames()
	if frames == 0 {
		return cell
	}

	h := [2][]complex128{channelEstimate(g, rs, 0), channelEstimate(g, rs, 1)}

	for _, ports := range []int{1, 2} {
		soft := make([][]float64, frames)
		for f := range soft {
			soft[f] = pbchSoftBits(g, rs.NIDCell, f, ports, h)
		}
		scrambling := pseudoRandom(uint32(rs.NIDCell), framesPerTTI*len(soft[0]))

		for align := 0; align < framesPerTTI; align++ {
			for first := 0; first < frames; {
				pos := (align + first) % framesPerTTI
				last := min(frames, first+framesPerTTI-pos)

				acc := make([]float64, len(bchPattern))
				for f := first; f < last; f++ {
					accumulateTTI(acc, soft[f], (align+f)%framesPerTTI, scrambling)
				}

				if bits, ok := decodeBCH(acc, ports); ok {
					if mib, ok := parseMIB(bits); ok {
						cell.NRBDL = mib.NRBDL
						cell.PHICHDuration = mib.PHICHDuration
						cell.PHICHResource = mib.PHICHResource
						cell.Ports = ports
						cell.SFN = ((mib.SFNHigh*framesPerTTI+pos-first)%1024 + 1024) % 1024
						return cell
					}
				}
				first = last
			}
		}
	}

	return cell
}

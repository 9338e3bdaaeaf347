package lte

import "math/bits"

const (
	mibLength   = 24
	crcLength   = 16
	bchLength   = mibLength + crcLength
	crcPoly     = 0x1021
	constraintK = 7
	numStates   = 1 << (constraintK - 1)
)

// antennaMasks maps the number of transmit antenna ports to the mask applied
// to the BCH CRC.
var antennaMasks = map[int]uint16{
	1: 0x0000,
	2: 0xffff,
	4: 0x5555,
}

// generatorMasks are the octal generators 133, 171 and 165 with bit j
// selecting the input delayed by j.
var generatorMasks = func() [3]uint8 {
	var out [3]uint8
	for i, g := range []uint8{0o133, 0o171, 0o165} {
		out[i] = bits.Reverse8(g) >> 1
	}
	return out
}()

var subblockPermutation = [32]int{
	1, 17, 9, 25, 5, 21, 13, 29, 3, 19, 11, 27, 7, 23, 15, 31,
	0, 16, 8, 24, 4, 20, 12, 28, 2, 18, 10, 26, 6, 22, 14, 30,
}

// crc16 computes the CRC of a bit sequence, most significant bit first.
func crc16(b []uint8) uint16 {
	var reg uint16
	for _, v := range b {
		fb := uint16(v&1) ^ reg>>15
		reg <<= 1
		if fb == 1 {
			reg ^= crcPoly
		}
	}
	return reg
}

func parity(v uint8) uint8 {
	return uint8(bits.OnesCount8(v) & 1)
}

// convEncode applies the rate 1/3 tail-biting convolutional code.
func convEncode(in []uint8) [3][]uint8 {
	var state uint8
	for j := 1; j < constraintK; j++ {
		state |= in[len(in)-j] << (j - 1)
	}

	var out [3][]uint8
	for i := range out {
		out[i] = make([]uint8, len(in))
	}
	for k, b := range in {
		reg := b | state<<1
		for i, mask := range generatorMasks {
			out[i][k] = parity(reg & mask)
		}
		state = reg & (numStates - 1)
	}
	return out
}

// viterbiDecode decodes the tail-biting code from soft values, positive
// meaning bit 0. The trellis runs over three copies of the block and the
// middle copy is returned.
func viterbiDecode(soft [3][]float64) []uint8 {
	n := len(soft[0])
	steps := 3 * n

	var metric, next [numStates]float64
	decisions := make([][numStates]uint8, steps)

	var outputs [numStates][2][3]float64
	for ps := 0; ps < numStates; ps++ {
		for b := 0; b < 2; b++ {
			reg := uint8(b) | uint8(ps)<<1
			for i, mask := range generatorMasks {
				outputs[ps][b][i] = float64(1 - 2*int(parity(reg&mask)))
			}
		}
	}

	for t := 0; t < steps; t++ {
		i := t % n
		for ns := 0; ns < numStates; ns++ {
			b := ns & 1
			best, bestX := 0.0, uint8(0)
			for x := 0; x < 2; x++ {
				ps := ns>>1 | x<<5
				o := &outputs[ps][b]
				m := metric[ps] + soft[0][i]*o[0] + soft[1][i]*o[1] + soft[2][i]*o[2]
				if x == 0 || m > best {
					best, bestX = m, uint8(x)
				}
			}
			next[ns] = best
			decisions[t][ns] = bestX
		}
		metric = next
	}

	state := 0
	for s := 1; s < numStates; s++ {
		if metric[s] > metric[state] {
			state = s
		}
	}

	decoded := make([]uint8, steps)
	for t := steps - 1; t >= 0; t-- {
		decoded[t] = uint8(state & 1)
		state = state>>1 | int(decisions[t][state])<<5
	}
	return decoded[n : 2*n]
}

// rateMatchPattern lists, in circular buffer order, the (stream, bit) pair
// carried by each non-null position for a code block of d bits per stream.
func rateMatchPattern(d int) [][2]int {
	const columns = len(subblockPermutation)
	rows := (d + columns - 1) / columns
	dummies := rows*columns - d

	var pattern [][2]int
	for stream := 0; stream < 3; stream++ {
		for _, col := range subblockPermutation {
			for r := 0; r < rows; r++ {
				if p := r*columns + col; p >= dummies {
					pattern = append(pattern, [2]int{stream, p - dummies})
				}
			}
		}
	}
	return pattern
}

var bchPattern = rateMatchPattern(bchLength)

// decodeBCH recovers the MIB from rate de-matched soft values (one per
// circular buffer position), checking the CRC against the mask of the given
// number of antenna ports.
func decodeBCH(acc []float64, ports int) (mib []uint8, ok bool) {
	var soft [3][]float64
	for i := range soft {
		soft[i] = make([]float64, bchLength)
	}
	for j, p := range bchPattern {
		soft[p[0]][p[1]] = acc[j]
	}

	decoded := viterbiDecode(soft)

	var received uint16
	for _, b := range decoded[mibLength:] {
		received = received<<1 | uint16(b)
	}
	if crc16(decoded[:mibLength])^antennaMasks[ports] != received {
		return nil, false
	}
	return decoded[:mibLength], true
}

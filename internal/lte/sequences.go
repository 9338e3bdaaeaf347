package lte

import (
	"math"
	"math/cmplx"
)

const (
	syncLength = 62
	syncOffset = 5 // grid index of the first PSS/SSS subcarrier
	numNID1    = 168
)

var pssRoots = [3]int{25, 29, 34}

// PSS returns the 62-element Zadoff-Chu primary synchronization sequence for nid2.
func PSS(nid2 int) []complex128 {
	u := float64(pssRoots[nid2])
	d := make([]complex128, syncLength)
	for n := range d {
		var phase float64
		if n < 31 {
			phase = -math.Pi * u * float64(n*(n+1)) / 63
		} else {
			phase = -math.Pi * u * float64((n+1)*(n+2)) / 63
		}
		d[n] = cmplx.Rect(1, phase)
	}
	return d
}

// mSequence generates the 31-chip +-1 sequence of the recursion
// x(i+5) = sum of x(i+t) over taps, mod 2, with x(0..4) = 0,0,0,0,1.
func mSequence(taps ...int) [31]float64 {
	var x [31]int
	x[4] = 1
	for i := 0; i+5 < 31; i++ {
		var s int
		for _, t := range taps {
			s += x[i+t]
		}
		x[i+5] = s % 2
	}

	var out [31]float64
	for i, b := range x {
		out[i] = float64(1 - 2*b)
	}
	return out
}

var (
	sTilde = mSequence(2, 0)
	cTilde = mSequence(3, 0)
	zTilde = mSequence(4, 2, 1, 0)
)

// sssIndices returns the m0, m1 cyclic shifts of the SSS for nid1.
func sssIndices(nid1 int) (m0, m1 int) {
	qp := nid1 / 30
	q := (nid1 + qp*(qp+1)/2) / 30
	mp := nid1 + q*(q+1)/2
	m0 = mp % 31
	m1 = (m0 + mp/31 + 1) % 31
	return m0, m1
}

// SSS returns the 62-element secondary synchronization sequence carried in
// subframe 0, or in subframe 5 when secondHalf is set.
func SSS(nid1, nid2 int, secondHalf bool) []float64 {
	m0, m1 := sssIndices(nid1)

	d := make([]float64, syncLength)
	for n := 0; n < 31; n++ {
		s0 := sTilde[(n+m0)%31]
		s1 := sTilde[(n+m1)%31]
		c0 := cTilde[(n+nid2)%31]
		c1 := cTilde[(n+nid2+3)%31]
		z0 := zTilde[(n+m0%8)%31]
		z1 := zTilde[(n+m1%8)%31]

		if secondHalf {
			d[2*n] = s1 * c0
			d[2*n+1] = s0 * c1 * z1
		} else {
			d[2*n] = s0 * c0
			d[2*n+1] = s1 * c1 * z0
		}
	}
	return d
}

// pseudoRandom returns n bits of the length-31 Gold sequence initialised with cinit.
func pseudoRandom(cinit uint32, n int) []uint8 {
	const nc = 1600

	total := n + nc + 31
	x1 := make([]uint8, total)
	x2 := make([]uint8, total)
	x1[0] = 1
	for i := 0; i < 31; i++ {
		x2[i] = uint8(cinit>>uint(i)) & 1
	}
	for i := 0; i+31 < total; i++ {
		x1[i+31] = (x1[i+3] + x1[i]) % 2
		x2[i+31] = (x2[i+3] + x2[i+2] + x2[i+1] + x2[i]) % 2
	}

	c := make([]uint8, n)
	for i := range c {
		c[i] = (x1[i+nc] + x2[i+nc]) % 2
	}
	return c
}

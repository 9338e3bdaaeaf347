package lte

import (
	"math"
	"math/cmplx"
)

// syncObservation holds the demodulated PSS and the two possible SSS symbol
// positions (normal and extended CP) of one half frame.
type syncObservation struct {
	halfFrame int
	pss       []complex128
	sss       [2][]complex128 // indexed by cpIndex
}

func cpIndex(cp CPType) int {
	if cp == CPExtended {
		return 1
	}
	return 0
}

// sssDistance is the distance in samples between the SSS and PSS FFT windows.
func sssDistance(cp CPType) int {
	if cp == CPExtended {
		return FFTSize + cpExtended
	}
	return FFTSize + cpNormal
}

func syncSubcarriers(row []complex128) []complex128 {
	return row[syncOffset : syncOffset+syncLength]
}

// observeSync demodulates the PSS and candidate SSS symbols of every half
// frame of the capture that holds them completely.
func observeSync(cell Cell, capture *Capture) []syncObservation {
	k := timeScale(capture.CenterFrequency, cell.FrequencyOffset)
	dem := newDemodulator()

	var obs []syncObservation
	for m := 0; ; m++ {
		start := cell.PeakIndex + cpNormal + int(math.Round(float64(m)*HalfFrameLength*k))
		if start+FFTSize > len(capture.Samples) {
			break
		}

		o := syncObservation{halfFrame: m}
		for _, cp := range []CPType{CPNormal, CPExtended} {
			sym := dem.symbol(capture.Samples, start-sssDistance(cp), cell.FrequencyOffset)
			if sym == nil {
				break
			}
			o.sss[cpIndex(cp)] = syncSubcarriers(sym)
		}
		if o.sss[0] == nil || o.sss[1] == nil {
			continue
		}

		o.pss = syncSubcarriers(dem.symbol(capture.Samples, start, cell.FrequencyOffset))
		obs = append(obs, o)
	}
	return obs
}

// DetectSSS searches all 168 NID1 values, both CP lengths and both half frame
// alignments. The best hypothesis is accepted when it stands nSigma standard
// deviations above the mean of all hypotheses; otherwise NID1 stays NotFound.
func DetectSSS(cell Cell, capture *Capture, nSigma float64) Cell {
	obs := observeSync(cell, capture)
	if len(obs) == 0 {
		return cell
	}
	pss := PSS(cell.NID2)

	// coherent SSS observations split by half frame parity
	var folded [2][2][]float64 // [cp][parity][subcarrier]
	for c := range folded {
		for p := range folded[c] {
			folded[c][p] = make([]float64, syncLength)
		}
	}
	for _, o := range obs {
		parity := o.halfFrame % 2
		for c := range folded {
			for n := 0; n < syncLength; n++ {
				h := o.pss[n] * cmplx.Conj(pss[n])
				folded[c][parity][n] += real(cmplx.Conj(h) * o.sss[c][n])
			}
		}
	}

	var (
		sum, sumSq   float64
		count        int
		best         = math.Inf(-1)
		bestNID1     = NotFound
		bestCP       = CPUnknown
		bestSecond   bool
		hypothesisCP = [2]CPType{CPNormal, CPExtended}
	)
	for nid1 := 0; nid1 < numNID1; nid1++ {
		first := SSS(nid1, cell.NID2, false)
		second := SSS(nid1, cell.NID2, true)

		for c := range folded {
			var evenFirst, evenSecond float64
			for n := 0; n < syncLength; n++ {
				evenFirst += folded[c][0][n]*first[n] + folded[c][1][n]*second[n]
				evenSecond += folded[c][0][n]*second[n] + folded[c][1][n]*first[n]
			}

			for i, l := range []float64{evenFirst, evenSecond} {
				sum += l
				sumSq += l * l
				count++
				if l > best {
					best, bestNID1, bestCP, bestSecond = l, nid1, hypothesisCP[c], i == 1
				}
			}
		}
	}

	mean := sum / float64(count)
	sigma := math.Sqrt(math.Max(sumSq/float64(count)-mean*mean, 0))
	if best < mean+nSigma*sigma {
		return cell
	}

	k := timeScale(capture.CenterFrequency, cell.FrequencyOffset)
	frameStart := float64(cell.PeakIndex + cpNormal - pssSymbolStart)
	if bestSecond {
		// half frame 0 carries subframe 5
		frameStart += HalfFrameLength * k
	}
	if frameStart < 0 {
		frameStart += FrameLength * k
	}

	cell.NID1 = bestNID1
	cell.CP = bestCP
	cell.FrameStart = frameStart
	return cell
}

// EstimateFrequency refines the carrier offset from the phase advance between
// the SSS and PSS symbols of every half frame. The cell must carry a resolved NID1.
func EstimateFrequency(cell Cell, capture *Capture) Cell {
	if _, ok := cell.ID(); !ok {
		return cell
	}

	pss := PSS(cell.NID2)
	first := SSS(cell.NID1, cell.NID2, false)
	second := SSS(cell.NID1, cell.NID2, true)

	// parity of the half frames carrying the subframe 0 SSS
	k := timeScale(capture.CenterFrequency, cell.FrequencyOffset)
	halfFrames := (cell.FrameStart - float64(cell.PeakIndex+cpNormal-pssSymbolStart)) / (HalfFrameLength * k)
	firstParity := int(math.Round(halfFrames)) % 2

	var acc complex128
	c := cpIndex(cell.CP)
	for _, o := range observeSync(cell, capture) {
		seq := second
		if o.halfFrame%2 == firstParity {
			seq = first
		}
		for n := 0; n < syncLength; n++ {
			hp := o.pss[n] * cmplx.Conj(pss[n])
			hs := o.sss[c][n] * complex(seq[n], 0)
			acc += cmplx.Conj(hs) * hp
		}
	}
	if acc == 0 {
		return cell
	}

	cell.FrequencyOffset += cmplx.Phase(acc) * SampleRate / (2 * math.Pi * float64(sssDistance(cell.CP)))
	return cell
}

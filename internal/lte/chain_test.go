package lte

import (
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/dsp/fourier"
)

type synthConfig struct {
	nid1, nid2 int
	cp         CPType
	lead       int     // samples before the first frame boundary
	offset     float64 // carrier offset, Hz
	noise      float64 // noise standard deviation per component
	sfn        int     // SFN of the first frame
	mib        *MIB    // PBCH is transmitted when set
}

// synthesize builds a single-port downlink carrying PSS, SSS, CRS and
// optionally PBCH, sampled at 1.92 Msps.
func synthesize(cfg synthConfig) *Capture {
	fft := fourier.NewCmplxFFT(FFTSize)
	nid := 3*cfg.nid1 + cfg.nid2
	rs := NewReferenceSignals(nid, cfg.cp)
	spS := cfg.cp.SymbolsPerSlot()

	var frameBits int
	for l := 0; l < pbchSymbols; l++ {
		for k := 0; k < Subcarriers; k++ {
			if !pbchReserved(cfg.cp, nid, l, k) {
				frameBits += 2
			}
		}
	}

	samples := make([]complex128, cfg.lead, CaptureLength+FrameLength)
	for f := 0; len(samples) < CaptureLength; f++ {
		var pbch []complex128
		if cfg.mib != nil {
			sfn := cfg.sfn + f
			m := *cfg.mib
			m.SFNHigh = (sfn >> 2) & 0xff
			e := encodeBCH(m, 1, nid, frameBits)
			pos := sfn % framesPerTTI
			for j := pos * frameBits; j < (pos+1)*frameBits; j += 2 {
				pbch = append(pbch, complex(1-2*float64(e[j]), 1-2*float64(e[j+1]))/complex(math.Sqrt2, 0))
			}
		}

		for ns := 0; ns < SlotsPerFrame; ns++ {
			for l := 0; l < spS; l++ {
				grid := make([]complex128, Subcarriers)
				if ns == 0 || ns == 10 {
					switch l {
					case spS - 1:
						for n, v := range PSS(cfg.nid2) {
							grid[n+syncOffset] = v
						}
					case spS - 2:
						for n, v := range SSS(cfg.nid1, cfg.nid2, ns == 10) {
							grid[n+syncOffset] = complex(v, 0)
						}
					}
				}
				if idx, values := rs.Positions(0, ns, l); idx != nil {
					for m, k := range idx {
						grid[k] = values[m]
					}
				}
				if ns == 1 && l < pbchSymbols && pbch != nil {
					for k := range grid {
						if !pbchReserved(cfg.cp, nid, l, k) {
							grid[k], pbch = pbch[0], pbch[1:]
						}
					}
				}

				_, cpLen := symbolLayout(cfg.cp, l)
				samples = append(samples, modulate(fft, grid, cpLen)...)
			}
		}
	}
	samples = samples[:CaptureLength]

	rng := rand.New(rand.NewSource(3<<32 | 5))
	for n := range samples {
		samples[n] *= cmplx.Rect(1, 2*math.Pi*cfg.offset*float64(n)/SampleRate)
		samples[n] += complex(rng.NormFloat64()*cfg.noise, rng.NormFloat64()*cfg.noise)
	}

	return &Capture{
		CenterFrequency: 2e9,
		Correction:      1,
		SampleRate:      SampleRate,
		Samples:         samples,
	}
}

func constantThreshold(v float64) []float64 {
	th := make([]float64, HalfFrameLength)
	for i := range th {
		th[i] = v
	}
	return th
}

func TestCorrelatePeakSearch(t *testing.T) {
	capture := synthesize(synthConfig{nid1: 40, nid2: 1, cp: CPNormal, lead: 1000, offset: 5000, noise: 0.01})
	offsets := []float64{-5000, 0, 5000}

	xc, err := Correlate(capture, offsets, 2)
	require.NoError(t, err)
	require.Equal(t, 15, xc.Periods)
	require.Len(t, xc.Noise, HalfFrameLength)

	cells := PeakSearch(xc, constantThreshold(0.02), offsets)
	require.NotEmpty(t, cells)

	c := cells[0]
	require.Equal(t, 1, c.NID2)
	require.Equal(t, 5000.0, c.FrequencyOffset)
	require.InDelta(t, 1000+pssSymbolStart-cpNormal, c.PeakIndex, 1)
	require.Equal(t, NotFound, c.NID1)
	require.Equal(t, NotFound, c.NRBDL)

	require.Greater(t, xc.OffsetPeak[2], xc.OffsetPeak[0])
}

func TestCorrelateErrors(t *testing.T) {
	short := &Capture{CenterFrequency: 1e9, Samples: make([]complex128, 5000)}

	_, err := Correlate(short, []float64{0}, 2)
	require.ErrorIs(t, err, ErrShortCapture)

	_, err = Correlate(short, nil, 2)
	require.ErrorIs(t, err, ErrNoOffsets)
}

func TestPeakSearchBelowThreshold(t *testing.T) {
	capture := synthesize(synthConfig{nid1: 1, nid2: 0, cp: CPNormal, lead: 500, noise: 0.01})

	xc, err := Correlate(capture, []float64{0}, 2)
	require.NoError(t, err)
	require.Empty(t, PeakSearch(xc, constantThreshold(1e6), []float64{0}))
}

func TestDetectSSSAndFrequency(t *testing.T) {
	tests := []struct {
		name string
		cp   CPType
	}{
		{"normal", CPNormal},
		{"extended", CPExtended},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capture := synthesize(synthConfig{nid1: 97, nid2: 2, cp: tt.cp, lead: 1000, offset: 5300, noise: 0.01})
			offsets := []float64{0, 5000, 10000}

			xc, err := Correlate(capture, offsets, 2)
			require.NoError(t, err)
			cells := PeakSearch(xc, constantThreshold(0.02), offsets)
			require.NotEmpty(t, cells)

			cell := DetectSSS(cells[0], capture, 3)
			id, ok := cell.ID()
			require.True(t, ok)
			require.Equal(t, 3*97+2, id)
			require.Equal(t, tt.cp, cell.CP)
			require.InDelta(t, 1000, cell.FrameStart, 2)

			cell = EstimateFrequency(cell, capture)
			require.InDelta(t, 5300, cell.FrequencyOffset, 30)
		})
	}
}

func TestDetectSSSNoise(t *testing.T) {
	rng := rand.New(rand.NewSource(9<<32 | 9))
	samples := make([]complex128, CaptureLength)
	for n := range samples {
		samples[n] = complex(rng.NormFloat64(), rng.NormFloat64())
	}
	capture := &Capture{CenterFrequency: 1e9, SampleRate: SampleRate, Samples: samples}

	cell := DetectSSS(NewCell(1e9, 4000, 0, 1, 0), capture, 6)
	_, ok := cell.ID()
	require.False(t, ok)
}

func TestFullChain(t *testing.T) {
	mib := MIB{NRBDL: 50, PHICHDuration: PHICHDurationNormal, PHICHResource: PHICHResourceOneSixth}
	capture := synthesize(synthConfig{
		nid1: 12, nid2: 0, cp: CPNormal, lead: 1000, offset: 5200, noise: 0.02, sfn: 101, mib: &mib,
	})
	offsets := []float64{0, 5000, 10000}

	xc, err := Correlate(capture, offsets, 2)
	require.NoError(t, err)
	cells := PeakSearch(xc, constantThreshold(0.02), offsets)
	require.NotEmpty(t, cells)

	cell := DetectSSS(cells[0], capture, 3)
	id, ok := cell.ID()
	require.True(t, ok)
	require.Equal(t, 36, id)

	cell = EstimateFrequency(cell, capture)
	g := ExtractGrid(cell, capture)
	require.Equal(t, 7, g.Frames())

	rs := NewReferenceSignals(id, cell.CP)
	cell, g = CompensateGrid(cell, g, rs)
	require.InDelta(t, 5200, cell.FrequencyOffset, 20)

	cell = DecodeMIB(cell, g, rs)
	require.True(t, cell.HasMIB())
	require.Equal(t, 50, cell.NRBDL)
	require.Equal(t, PHICHDurationNormal, cell.PHICHDuration)
	require.Equal(t, PHICHResourceOneSixth, cell.PHICHResource)
	require.Equal(t, 1, cell.Ports)
	require.Equal(t, 101, cell.SFN)
}

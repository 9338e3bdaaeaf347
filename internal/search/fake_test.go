package search

import (
	"context"
	"errors"
	"sync"

	"github.com/roman-kulish/cellsearch/internal/lte"
)

// script describes how the fake kernel treats one PSS peak.
type script struct {
	nid1   int // lte.NotFound fails SSS detection
	mib    bool
	power  float64
	offset float64 // coarse offset reported by the peak search
	fine   float64 // added by the fine offset stage
	comp   float64 // added by grid compensation
}

type fakeKernel struct {
	peaks map[float64][]script
	noise float64

	mu     sync.Mutex
	stages []Stage
}

func (k *fakeKernel) lookup(cell lte.Cell) script {
	return k.peaks[cell.CenterFrequency][cell.PeakIndex]
}

func (k *fakeKernel) record(s Stage) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.stages = append(k.stages, s)
}

func (k *fakeKernel) Correlate(capture *lte.Capture, offsets []float64, combArm int) (*lte.Correlation, error) {
	noise := make([]float64, 8)
	for i := range noise {
		noise[i] = k.noise
	}
	return &lte.Correlation{
		CenterFrequency: capture.CenterFrequency,
		Offsets:         offsets,
		Periods:         15,
		CombArm:         combArm,
		Noise:           noise,
		OffsetPeak:      make([]float64, len(offsets)),
	}, nil
}

func (k *fakeKernel) PeakSearch(xc *lte.Correlation, _ []float64, _ []float64) []lte.Cell {
	var cells []lte.Cell
	for i, s := range k.peaks[xc.CenterFrequency] {
		cells = append(cells, lte.NewCell(xc.CenterFrequency, i, 1, s.power, s.offset))
	}
	return cells
}

func (k *fakeKernel) DetectSSS(cell lte.Cell, _ *lte.Capture, _ float64) lte.Cell {
	k.record(StageSecondarySync)
	cell.NID1 = k.lookup(cell).nid1
	cell.CP = lte.CPNormal
	return cell
}

func (k *fakeKernel) EstimateFrequency(cell lte.Cell, _ *lte.Capture) lte.Cell {
	k.record(StageFineOffset)
	cell.FrequencyOffset += k.lookup(cell).fine
	return cell
}

func (k *fakeKernel) ExtractGrid(cell lte.Cell, _ *lte.Capture) *lte.Grid {
	k.record(StageGridExtracted)
	return &lte.Grid{CP: cell.CP, SymbolsPerSlot: cell.CP.SymbolsPerSlot()}
}

func (k *fakeKernel) CompensateGrid(cell lte.Cell, g *lte.Grid, _ *lte.ReferenceSignals) (lte.Cell, *lte.Grid) {
	k.record(StageGridCompensated)
	cell.FrequencyOffset += k.lookup(cell).comp
	return cell, g
}

func (k *fakeKernel) DecodeMIB(cell lte.Cell, _ *lte.Grid, _ *lte.ReferenceSignals) lte.Cell {
	k.record(StageConfirmed)
	if k.lookup(cell).mib {
		cell.NRBDL = 50
		cell.PHICHDuration = lte.PHICHDurationNormal
		cell.PHICHResource = lte.PHICHResourceOne
		cell.Ports = 2
	}
	return cell
}

var errRadio = errors.New("radio unplugged")

type fakeCapturer struct {
	failAt   float64
	recorded float64 // correction reported with the capture instead of the requested one

	mu    sync.Mutex
	tuned []float64
}

func (c *fakeCapturer) Capture(ctx context.Context, fc, correction float64) (*lte.Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fc == c.failAt {
		return nil, errRadio
	}

	c.mu.Lock()
	c.tuned = append(c.tuned, fc*correction)
	c.mu.Unlock()

	if c.recorded != 0 {
		correction = c.recorded
	}
	return &lte.Capture{CenterFrequency: fc, Correction: correction, SampleRate: lte.SampleRate}, nil
}

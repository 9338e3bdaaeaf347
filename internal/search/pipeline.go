package search

import (
	"log/slog"

	"github.com/roman-kulish/cellsearch/internal/lte"
)

// DefaultSSSThreshold is the number of standard deviations the best SSS
// hypothesis must stand above the mean of all hypotheses.
const DefaultSSSThreshold = 3

// Stage is a state of the per-candidate detection pipeline.
type Stage int

const (
	StagePeakFound Stage = iota
	StageSecondarySync
	StageFineOffset
	StageGridExtracted
	StageGridCompensated
	StageConfirmed
	StageRejected
)

func (s Stage) String() string {
	switch s {
	case StagePeakFound:
		return "peak-found"
	case StageSecondarySync:
		return "sss-resolved"
	case StageFineOffset:
		return "fine-offset"
	case StageGridExtracted:
		return "grid-extracted"
	case StageGridCompensated:
		return "grid-compensated"
	case StageConfirmed:
		return "confirmed"
	case StageRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Outcome is the terminal state of one candidate. Err holds a *RejectedError
// when the candidate was dropped.
type Outcome struct {
	Cell  lte.Cell
	Stage Stage
	Err   error
}

// Confirmed reports whether the candidate completed every stage.
func (o Outcome) Confirmed() bool {
	return o.Stage == StageConfirmed
}

// Stage collaborators, implemented by lte.Kernel.
type (
	SSSDetector interface {
		DetectSSS(cell lte.Cell, capture *lte.Capture, nSigma float64) lte.Cell
	}

	FrequencyEstimator interface {
		EstimateFrequency(cell lte.Cell, capture *lte.Capture) lte.Cell
	}

	GridExtractor interface {
		ExtractGrid(cell lte.Cell, capture *lte.Capture) *lte.Grid
	}

	GridCompensator interface {
		CompensateGrid(cell lte.Cell, g *lte.Grid, rs *lte.ReferenceSignals) (lte.Cell, *lte.Grid)
	}

	MIBDecoder interface {
		DecodeMIB(cell lte.Cell, g *lte.Grid, rs *lte.ReferenceSignals) lte.Cell
	}

	// Decoder is every collaborator the pipeline needs.
	Decoder interface {
		SSSDetector
		FrequencyEstimator
		GridExtractor
		GridCompensator
		MIBDecoder
	}
)

// candidate carries the intermediate products of one pipeline run.
type candidate struct {
	cell    lte.Cell
	capture *lte.Capture
	grid    *lte.Grid
	rs      *lte.ReferenceSignals
}

// Pipeline drives one PSS peak through SSS detection, frequency refinement,
// grid extraction and compensation, and MIB decoding.
type Pipeline struct {
	decoder Decoder
	nSigma  float64
	logger  *slog.Logger

	steps []struct {
		stage Stage
		fn    func(c *candidate) error
	}
}

// NewPipeline creates a pipeline around the stage collaborators.
func NewPipeline(decoder Decoder, nSigma float64, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = discardLogger()
	}

	p := &Pipeline{decoder: decoder, nSigma: nSigma, logger: logger}
	p.steps = []struct {
		stage Stage
		fn    func(c *candidate) error
	}{
		{StageSecondarySync, p.detectSSS},
		{StageFineOffset, p.estimateFrequency},
		{StageGridExtracted, p.extractGrid},
		{StageGridCompensated, p.compensateGrid},
		{StageConfirmed, p.decodeMIB},
	}
	return p
}

func (p *Pipeline) detectSSS(c *candidate) error {
	c.cell = p.decoder.DetectSSS(c.cell, c.capture, p.nSigma)
	if c.cell.NID1 == lte.NotFound {
		return ErrNoSSS
	}
	return nil
}

func (p *Pipeline) estimateFrequency(c *candidate) error {
	c.cell = p.decoder.EstimateFrequency(c.cell, c.capture)
	id, _ := c.cell.ID()
	c.rs = lte.NewReferenceSignals(id, c.cell.CP)
	return nil
}

func (p *Pipeline) extractGrid(c *candidate) error {
	c.grid = p.decoder.ExtractGrid(c.cell, c.capture)
	return nil
}

func (p *Pipeline) compensateGrid(c *candidate) error {
	c.cell, c.grid = p.decoder.CompensateGrid(c.cell, c.grid, c.rs)
	return nil
}

func (p *Pipeline) decodeMIB(c *candidate) error {
	c.cell = p.decoder.DecodeMIB(c.cell, c.grid, c.rs)
	if c.cell.NRBDL == lte.NotFound {
		return ErrNoMIB
	}
	return nil
}

// Run processes one candidate found by the peak search. A candidate either
// reaches StageConfirmed or is rejected at the first failing stage; no stage is retried.
func (p *Pipeline) Run(cell lte.Cell, capture *lte.Capture) Outcome {
	c := &candidate{cell: cell, capture: capture}
	reached := StagePeakFound

	for _, step := range p.steps {
		if err := step.fn(c); err != nil {
			p.logger.Debug("candidate rejected",
				slog.String("stage", step.stage.String()),
				slog.String("cell", c.cell.String()),
				slog.String("reason", err.Error()))

			return Outcome{
				Cell:  c.cell,
				Stage: StageRejected,
				Err:   &RejectedError{Stage: step.stage, Err: err},
			}
		}
		reached = step.stage
	}

	return Outcome{Cell: c.cell, Stage: reached}
}

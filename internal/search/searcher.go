package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roman-kulish/cellsearch/internal/lte"
)

// Capturer records one block of baseband samples at a center frequency,
// tuning the radio to fc*correction.
type Capturer interface {
	Capture(ctx context.Context, fc, correction float64) (*lte.Capture, error)
}

// Correlator correlates a capture against the PSS at every offset hypothesis.
type Correlator interface {
	Correlate(capture *lte.Capture, offsets []float64, combArm int) (*lte.Correlation, error)
}

// PeakSearcher extracts candidate cells from a correlation.
type PeakSearcher interface {
	PeakSearch(xc *lte.Correlation, threshold []float64, offsets []float64) []lte.Cell
}

// Kernel is the full set of signal-processing stages used by a Searcher.
type Kernel interface {
	Correlator
	PeakSearcher
	Decoder
}

// OffsetPower is the strongest combined correlation power seen at one offset
// hypothesis of a sweep, with the mean detection threshold of that sweep.
type OffsetPower struct {
	Offset    float64
	Power     float64
	Threshold float64
}

// SweepResult is the outcome of searching one center frequency.
type SweepResult struct {
	Index           int // position in the sweep order
	CenterFrequency float64
	Correction      float64 // in effect when the capture was taken
	Timestamp       time.Time
	Peaks           int // candidates above threshold
	Rejected        int
	Confirmed       []lte.Cell // in discovery order
	Profile         []OffsetPower
}

// Detection is a deduplicated cell with the oscillator correction it implies.
type Detection struct {
	Cell       lte.Cell
	Correction float64
}

// Result holds everything a search run produced.
type Result struct {
	Detections []Detection
	Sweeps     []*SweepResult
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithLogger sets the logger for the searcher
func WithLogger(logger *slog.Logger) func(s *Searcher) {
	return func(s *Searcher) {
		s.logger = logger
	}
}

// WithWorkers sets how many center frequencies are processed concurrently.
// Capture stays sequential.
func WithWorkers(n int) func(s *Searcher) {
	return func(s *Searcher) {
		s.workers = max(n, 1)
	}
}

// WithCombArm sets the number of neighbouring timing bins combined on each side
func WithCombArm(arm int) func(s *Searcher) {
	return func(s *Searcher) {
		s.combArm = arm
	}
}

// WithNines sets the false alarm exponent of the detection threshold
func WithNines(nines float64) func(s *Searcher) {
	return func(s *Searcher) {
		s.nines = nines
	}
}

// WithSSSThreshold sets the SSS acceptance level in standard deviations
func WithSSSThreshold(nSigma float64) func(s *Searcher) {
	return func(s *Searcher) {
		s.nSigma = nSigma
	}
}

// WithDedupWindow sets the frequency window within which equal identities merge
func WithDedupWindow(window float64) func(s *Searcher) {
	return func(s *Searcher) {
		s.dedupWindow = window
	}
}

// WithMultipleComparison toggles splitting the false alarm rate across offset
// hypotheses. Off by default.
func WithMultipleComparison(enabled bool) func(s *Searcher) {
	return func(s *Searcher) {
		s.multipleComparison = enabled
	}
}

// WithSweepHandler registers a function receiving every sweep result in
// sweep order as soon as it and all its predecessors are complete. An error
// returned by the handler aborts the search.
func WithSweepHandler(fn func(*SweepResult) error) func(s *Searcher) {
	return func(s *Searcher) {
		s.onSweep = fn
	}
}

// Searcher drives the blind cell search over a grid.
type Searcher struct {
	capturer Capturer
	kernel   Kernel

	workers            int
	combArm            int
	nines              float64
	nSigma             float64
	dedupWindow        float64
	multipleComparison bool
	onSweep            func(*SweepResult) error

	logger *slog.Logger
}

// NewSearcher creates a searcher with a discard logger and the default
// detection parameters.
func NewSearcher(capturer Capturer, kernel Kernel, options ...func(s *Searcher)) *Searcher {
	s := Searcher{
		capturer:           capturer,
		kernel:             kernel,
		workers:            1,
		combArm:            DefaultCombArm,
		nines:              DefaultNines,
		nSigma:             DefaultSSSThreshold,
		dedupWindow:        DefaultDedupWindow,
		multipleComparison: false,
		logger:             discardLogger(),
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

type sweepJob struct {
	index   int
	capture *lte.Capture
}

// Run searches every center frequency of the grid, deduplicates the
// confirmed cells and derives a refined correction factor for each. Capture
// and kernel errors abort the run; rejected candidates do not.
func (s *Searcher) Run(ctx context.Context, grid *Grid, correction float64) (*Result, error) {
	pipeline := NewPipeline(s.kernel, s.nSigma, s.logger)
	buffer := NewSweepBuffer(0)

	var (
		mu     sync.Mutex
		sweeps []*SweepResult
	)
	deliver := func(sr *SweepResult) error {
		mu.Lock()
		defer mu.Unlock()

		if err := buffer.Insert(sr); err != nil {
			return err
		}
		for _, ready := range buffer.Flush() {
			sweeps = append(sweeps, ready)
			if s.onSweep == nil {
				continue
			}
			if err := s.onSweep(ready); err != nil {
				return fmt.Errorf("handling sweep at %.0f Hz: %w", ready.CenterFrequency, err)
			}
		}
		return nil
	}

	s.logger.Info("starting cell search",
		slog.Int("centerFrequencies", len(grid.CenterFrequencies)),
		slog.Int("offsets", len(grid.Offsets)),
		slog.Int("workers", s.workers))

	if s.workers <= 1 {
		for i, fc := range grid.CenterFrequencies {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			capture, err := s.capturer.Capture(ctx, fc, correction)
			if err != nil {
				return nil, fmt.Errorf("capturing at %.0f Hz: %w", fc, err)
			}

			sr, err := s.process(i, capture, grid.Offsets, pipeline)
			if err != nil {
				return nil, err
			}
			if err = deliver(sr); err != nil {
				return nil, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		jobs := make(chan sweepJob)

		g.Go(func() error {
			defer close(jobs)
			for i, fc := range grid.CenterFrequencies {
				capture, err := s.capturer.Capture(gctx, fc, correction)
				if err != nil {
					return fmt.Errorf("capturing at %.0f Hz: %w", fc, err)
				}
				select {
				case jobs <- sweepJob{index: i, capture: capture}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})

		for w := 0; w < s.workers; w++ {
			g.Go(func() error {
				for job := range jobs {
					sr, err := s.process(job.index, job.capture, grid.Offsets, pipeline)
					if err != nil {
						return err
					}
					if err = deliver(sr); err != nil {
						return err
					}
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// a replayed capture carries the correction it was recorded with
	detected := make([][]lte.Cell, len(sweeps))
	corrections := make(map[float64]float64, len(sweeps))
	for i, sr := range sweeps {
		detected[i] = sr.Confirmed
		if sr.Correction > 0 {
			corrections[sr.CenterFrequency] = sr.Correction
		}
	}

	result := &Result{Sweeps: sweeps}
	for _, cell := range Deduplicate(detected, s.dedupWindow) {
		previous, ok := corrections[cell.CenterFrequency]
		if !ok {
			previous = correction
		}
		c, err := RefineCorrection(previous, cell)
		if err != nil {
			return nil, err
		}
		result.Detections = append(result.Detections, Detection{Cell: cell, Correction: c})
	}

	s.logger.Info("cell search complete", slog.Int("cells", len(result.Detections)))
	return result, nil
}

// process runs the detection chain over one capture.
func (s *Searcher) process(index int, capture *lte.Capture, offsets []float64, pipeline *Pipeline) (*SweepResult, error) {
	fc := capture.CenterFrequency
	logger := s.logger.With(slog.Float64("fc", fc))

	xc, err := s.kernel.Correlate(capture, offsets, s.combArm)
	if err != nil {
		return nil, fmt.Errorf("correlating capture at %.0f Hz: %w", fc, err)
	}

	sr := &SweepResult{
		Index:           index,
		CenterFrequency: fc,
		Correction:      capture.Correction,
		Timestamp:       time.Now(),
	}

	var noise float64
	for _, v := range xc.Noise {
		noise += v
	}
	if noise <= 0 {
		logger.Warn("capture carries no power, skipping")
		return sr, nil
	}

	params := ThresholdParams{Periods: xc.Periods, CombArm: s.combArm, Nines: s.nines}
	if s.multipleComparison {
		params.Hypotheses = len(offsets)
	}
	threshold := Threshold(xc.Noise, params)

	var meanThreshold float64
	for _, v := range threshold {
		meanThreshold += v
	}
	meanThreshold /= float64(len(threshold))

	sr.Profile = make([]OffsetPower, len(offsets))
	for i, f := range offsets {
		sr.Profile[i] = OffsetPower{Offset: f, Threshold: meanThreshold}
		if i < len(xc.OffsetPeak) {
			sr.Profile[i].Power = xc.OffsetPeak[i]
		}
	}

	peaks := s.kernel.PeakSearch(xc, threshold, offsets)
	sr.Peaks = len(peaks)

	for _, peak := range peaks {
		outcome := pipeline.Run(peak, capture)
		if !outcome.Confirmed() {
			sr.Rejected++
			continue
		}

		logger.Info("cell confirmed", slog.String("cell", outcome.Cell.String()), slog.Int("nRB", outcome.Cell.NRBDL))
		sr.Confirmed = append(sr.Confirmed, outcome.Cell)
	}

	logger.Debug("sweep complete",
		slog.Int("peaks", sr.Peaks),
		slog.Int("rejected", sr.Rejected),
		slog.Int("confirmed", len(sr.Confirmed)))

	return sr, nil
}

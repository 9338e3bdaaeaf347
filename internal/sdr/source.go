package sdr

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roman-kulish/cellsearch/internal/lte"
)

// Mode selects where a Source gets its samples from.
type Mode int

const (
	ModeLive Mode = iota
	ModeRecord
	ModeReplay
)

func (m Mode) String() string {
	switch m {
	case ModeLive:
		return "live"
	case ModeRecord:
		return "record"
	case ModeReplay:
		return "replay"
	default:
		return "unknown"
	}
}

// SampleCapturer returns baseband samples at 1.92 Msps tuned to a frequency.
// Device implements it.
type SampleCapturer interface {
	Capture(ctx context.Context, frequency float64, numSamples int) ([]complex128, error)
}

// WithSourceLogger sets the logger for the source
func WithSourceLogger(logger *slog.Logger) func(s *Source) {
	return func(s *Source) {
		s.logger = logger.With(slog.String("mode", s.mode.String()))
	}
}

// Source provides one 80 ms capture per center frequency, from the radio,
// from the radio while saving it, or from earlier recordings.
type Source struct {
	device   SampleCapturer
	recorder *Recorder
	mode     Mode
	logger   *slog.Logger
}

// NewSource creates a capture source. Live and record modes need a device;
// record and replay modes need a recorder.
func NewSource(mode Mode, device SampleCapturer, recorder *Recorder, options ...func(s *Source)) (*Source, error) {
	if mode != ModeReplay && device == nil {
		return nil, fmt.Errorf("%s mode requires a device", mode)
	}
	if mode != ModeLive && recorder == nil {
		return nil, fmt.Errorf("%s mode requires a recorder", mode)
	}

	s := Source{
		device:   device,
		recorder: recorder,
		mode:     mode,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&s)
	}

	return &s, nil
}

// Capture returns the capture for center frequency fc, tuning the radio to
// fc*correction in live and record modes.
func (s *Source) Capture(ctx context.Context, fc, correction float64) (*lte.Capture, error) {
	if s.mode == ModeReplay {
		capture, err := s.recorder.Load(fc)
		if err != nil {
			return nil, err
		}
		if capture.SampleRate != lte.SampleRate {
			return nil, fmt.Errorf("%w: %s recorded at %g sps, need %g sps",
				ErrSampleRate, s.recorder.Path(fc), capture.SampleRate, float64(lte.SampleRate))
		}
		if len(capture.Samples) < lte.CaptureLength {
			s.logger.Warn("recording is shorter than a full capture",
				slog.String("path", s.recorder.Path(fc)),
				slog.Int("samples", len(capture.Samples)))
		}
		return capture, nil
	}

	samples, err := s.device.Capture(ctx, fc*correction, lte.CaptureLength)
	if err != nil {
		return nil, err
	}

	capture := &lte.Capture{
		CenterFrequency: fc,
		Correction:      correction,
		SampleRate:      lte.SampleRate,
		Samples:         samples,
	}

	if s.mode == ModeRecord {
		if err = s.recorder.Save(capture); err != nil {
			return nil, fmt.Errorf("recording capture: %w", err)
		}
		s.logger.Debug("capture recorded", slog.String("path", s.recorder.Path(fc)))
	}

	return capture, nil
}

package hackrf

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/roman-kulish/cellsearch/internal/sdr"
	"github.com/roman-kulish/cellsearch/internal/sdr/driver"
)

const (
	Runtime = "hackrf_transfer"
	Device  = "HackRF"
)

// handler struct represents a HackRF handler
type handler struct {
	binPath string
	config  Config
}

// New creates a new HackRF handler
func New(config *Config) (sdr.Handler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	binPath, err := driver.FindRuntime(Runtime)
	if err != nil {
		return nil, fmt.Errorf("error finding runtime: %w", err)
	}

	return &handler{binPath, *config}, nil
}

// Cmd returns an exec.Cmd for the HackRF handler
func (h handler) Cmd(ctx context.Context, frequency float64, numSamples int) (*exec.Cmd, error) {
	args, err := h.config.Args(frequency, numSamples)
	if err != nil {
		return nil, fmt.Errorf("error creating args: %w", err)
	}
	return exec.CommandContext(ctx, h.binPath, args...), nil
}

// RawSize returns the byte count of the signed 8-bit I/Q pairs written for
// numSamples output samples.
func (h handler) RawSize(numSamples int) int {
	return 2 * rawSamples(numSamples)
}

// Decode drops the settle samples, converts signed 8-bit I/Q pairs and
// decimates to 1.92 Msps.
func (h handler) Decode(raw []byte, numSamples int) ([]complex128, error) {
	if len(raw) != h.RawSize(numSamples) {
		return nil, fmt.Errorf("hackrf: expected %d bytes, got %d", h.RawSize(numSamples), len(raw))
	}

	samples := sdr.Decimate(DecodeInt8(raw[2*settleSamples:]), Decimation)
	return samples[:numSamples], nil
}

// Device returns the device type
func (h handler) Device() string {
	return Device
}

// DecodeInt8 converts hackrf_transfer output, two's complement bytes, to
// samples in [-1, 1).
func DecodeInt8(raw []byte) []complex128 {
	samples := make([]complex128, len(raw)/2)
	for i := range samples {
		samples[i] = complex(float64(int8(raw[2*i]))/128, float64(int8(raw[2*i+1]))/128)
	}
	return samples
}

package rtl

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/roman-kulish/cellsearch/internal/sdr"
	"github.com/roman-kulish/cellsearch/internal/sdr/driver"
)

const (
	Runtime = "rtl_sdr"
	Device  = "RTL-SDR"
)

// handler struct represents an RTL-SDR handler
type handler struct {
	binPath string
	config  Config
}

// New creates a new RTL-SDR handler
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

// Cmd returns an exec.Cmd for the RTL-SDR handler
func (h handler) Cmd(ctx context.Context, frequency float64, numSamples int) (*exec.Cmd, error) {
	args, err := h.config.Args(frequency, numSamples)
	if err != nil {
		return nil, fmt.Errorf("error creating args: %w", err)
	}
	return exec.CommandContext(ctx, h.binPath, args...), nil
}

// RawSize returns the byte count of numSamples interleaved 8-bit I/Q samples
// plus the settle samples.
func (h handler) RawSize(numSamples int) int {
	return 2 * (numSamples + h.config.SettleTime.Samples())
}

// Decode drops the settle samples and converts unsigned 8-bit I/Q pairs.
func (h handler) Decode(raw []byte, numSamples int) ([]complex128, error) {
	if len(raw) != h.RawSize(numSamples) {
		return nil, fmt.Errorf("rtl: expected %d bytes, got %d", h.RawSize(numSamples), len(raw))
	}
	return DecodeUint8(raw[2*h.config.SettleTime.Samples():]), nil
}

func (h handler) Device() string {
	return Device
}

// DecodeUint8 converts rtl_sdr output, offset binary with 127.5 at zero, to
// samples in [-1, 1].
func DecodeUint8(raw []byte) []complex128 {
	samples := make([]complex128, len(raw)/2)
	for i := range samples {
		re := (float64(raw[2*i]) - 127.5) / 128
		im := (float64(raw[2*i+1]) - 127.5) / 128
		samples[i] = complex(re, im)
	}
	return samples
}

package sdr

import (
	"context"
	"os/exec"
)

// Handler adapts one capture tool to a Device.
type Handler interface {
	// Cmd returns the command capturing numSamples samples at frequency (Hz).
	Cmd(ctx context.Context, frequency float64, numSamples int) (*exec.Cmd, error)

	// RawSize is the number of bytes the tool writes for numSamples samples.
	RawSize(numSamples int) int

	// Decode converts the raw tool output to baseband samples at 1.92 Msps.
	Decode(raw []byte, numSamples int) ([]complex128, error)

	Device() string
}

// CmdArgsBuilder is an interface for building command line arguments for SDR tools
type CmdArgsBuilder interface {
	Args(frequency float64, numSamples int) ([]string, error)
}

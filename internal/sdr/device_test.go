package sdr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// helperHandler runs this test binary as a fake capture tool.
type helperHandler struct {
	mode string
}

func (h helperHandler) Cmd(ctx context.Context, _ float64, numSamples int) (*exec.Cmd, error) {
	cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess", "--", h.mode, strconv.Itoa(2*numSamples))
	cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
	return cmd, nil
}

func (h helperHandler) RawSize(numSamples int) int {
	return 2 * numSamples
}

func (h helperHandler) Decode(raw []byte, numSamples int) ([]complex128, error) {
	samples := make([]complex128, numSamples)
	for i := range samples {
		samples[i] = complex(float64(raw[2*i]), float64(raw[2*i+1]))
	}
	return samples, nil
}

func (h helperHandler) Device() string {
	return "helper"
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	mode := args[1]
	n, _ := strconv.Atoi(args[2])

	fmt.Fprintln(os.Stderr, "Found 1 device(s)")
	switch mode {
	case "ok":
		out := make([]byte, n)
		for i := range out {
			out[i] = byte(i % 3)
		}
		os.Stdout.Write(out)
	case "short":
		os.Stdout.Write(make([]byte, n/2))
		os.Exit(3)
	}
}

func TestDeviceCapture(t *testing.T) {
	d := NewDevice("0", helperHandler{mode: "ok"})

	samples, err := d.Capture(context.Background(), 739e6, 6)
	require.NoError(t, err)
	require.Equal(t, []complex128{0 + 1i, 2 + 0i, 1 + 2i, 0 + 1i, 2 + 0i, 1 + 2i}, samples)
	require.False(t, d.IsSampling())
}

func TestDeviceCaptureShortRead(t *testing.T) {
	d := NewDevice("0", helperHandler{mode: "short"})

	_, err := d.Capture(context.Background(), 739e6, 100)
	require.ErrorIs(t, err, ErrShortRead)
	require.False(t, d.IsSampling())
}

func TestDeviceCaptureCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDevice("0", helperHandler{mode: "ok"}).Capture(ctx, 739e6, 10)
	require.Error(t, err)
}

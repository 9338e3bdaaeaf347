package sdr

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

const (
	// DefaultTimeout bounds a single capture, tool start-up included
	DefaultTimeout = 30 * time.Second
)

var (
	// ErrDeviceBusy is returned when a capture is requested while another one is running
	ErrDeviceBusy = errors.New("device is already capturing")

	// ErrShortRead is returned when the tool exits before writing all samples
	ErrShortRead = errors.New("short read")

	// ErrBrokenPipe is returned when there's an error reading from stdout or stderr
	ErrBrokenPipe = errors.New("broken pipe")
)

// WithLogger sets the logger for the device
func WithLogger(logger *slog.Logger) func(d *Device) {
	return func(d *Device) {
		d.logger = logger.With(
			slog.String("device", d.handler.Device()),
			slog.String("deviceID", d.deviceID),
		)
	}
}

// WithTimeout sets the deadline of a single capture
func WithTimeout(timeout time.Duration) func(d *Device) {
	return func(d *Device) {
		d.timeout = timeout
	}
}

// Device represents an SDR driven by an external capture tool. Captures are
// exclusive: one tool process runs at a time.
type Device struct {
	deviceID string
	handler  Handler

	isSampling atomic.Bool
	timeout    time.Duration
	logger     *slog.Logger
}

// NewDevice creates a new Device instance with a discard logger
func NewDevice(deviceID string, h Handler, options ...func(d *Device)) *Device {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // nil logger

	d := Device{
		deviceID: deviceID,
		handler:  h,
		timeout:  DefaultTimeout,
		logger:   logger,
	}

	for _, option := range options {
		option(&d)
	}

	return &d
}

// Capture tunes to frequency (Hz), runs the capture tool once and returns
// numSamples baseband samples.
func (d *Device) Capture(ctx context.Context, frequency float64, numSamples int) ([]complex128, error) {
	if !d.isSampling.CompareAndSwap(false, true) {
		return nil, ErrDeviceBusy
	}
	defer d.isSampling.Store(false)

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	cmd, err := d.handler.Cmd(ctx, frequency, numSamples)
	if err != nil {
		return nil, fmt.Errorf("error building command: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("error creating stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("error creating stderr pipe: %w", err)
	}

	if err = cmd.Start(); err != nil {
		return nil, fmt.Errorf("error starting command: %w", err)
	}

	d.logger.Debug("capturing samples", slog.Float64("frequency", frequency), slog.Int("samples", numSamples))

	done := make(chan error, 1)
	go d.handleStderr(stderr, done)

	raw := make([]byte, d.handler.RawSize(numSamples))
	readErr := d.handleStdout(stdout, raw)
	ctxErr := ctx.Err()

	cancel() // the tool may keep streaming after the requested block
	waitErr := cmd.Wait()

	var errs []error
	if readErr != nil {
		errs = append(errs, readErr)
		if ctxErr != nil {
			errs = append(errs, fmt.Errorf("capture interrupted: %w", ctxErr))
		} else if waitErr != nil {
			errs = append(errs, fmt.Errorf("command exited with error: %w", waitErr))
		}
	}
	if err = <-done; err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		err = errors.Join(errs...)
		d.logger.Error("capture failed", slog.Float64("frequency", frequency), slog.String("error", err.Error()))
		return nil, err
	}

	samples, err := d.handler.Decode(raw, numSamples)
	if err != nil {
		return nil, fmt.Errorf("error decoding samples: %w", err)
	}
	return samples, nil
}

// IsSampling returns true if a capture is running
func (d *Device) IsSampling() bool {
	return d.isSampling.Load()
}

// handleStdout fills raw from the tool's stdout.
func (d *Device) handleStdout(stdout io.Reader, raw []byte) error {
	n, err := io.ReadFull(stdout, raw)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%w: %d of %d bytes received", ErrShortRead, n, len(raw))
	default:
		return fmt.Errorf("%w: error reading stdout: %w", ErrBrokenPipe, err)
	}
}

// handleStderr reads from stderr and logs tool messages.
func (d *Device) handleStderr(stderr io.Reader, done chan<- error) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		d.logger.Debug(fmt.Sprintf("%s >> %s", d.handler.Device(), line))
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, fs.ErrClosed) {
		done <- fmt.Errorf("%w: error reading stderr: %w", ErrBrokenPipe, err)
		return
	}

	done <- nil
}

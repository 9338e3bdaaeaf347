package search

import (
	"errors"
	"fmt"
)

// Search errors
var (
	// ErrInvalidConfig indicates a search parameter outside its valid range
	ErrInvalidConfig = errors.New("invalid search configuration")

	// ErrNoSSS indicates no secondary synchronization signal matched a PSS peak
	ErrNoSSS = errors.New("no SSS detected")

	// ErrNoMIB indicates the PBCH of a synchronized cell could not be decoded
	ErrNoMIB = errors.New("MIB decoding failed")

	// ErrUnconfirmedCell indicates a correction was requested from a cell without decoded MIB
	ErrUnconfirmedCell = errors.New("cell identity not confirmed")
)

// ConfigError reports an invalid search parameter. It matches ErrInvalidConfig
// with errors.Is.
type ConfigError struct {
	Field string
	msg   string
}

func newConfigError(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, msg: fmt.Sprintf(format, args...)}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.msg)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// RejectedError records the pipeline stage at which a candidate was dropped.
type RejectedError struct {
	Stage Stage
	Err   error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("candidate rejected at %s: %s", e.Stage, e.Err)
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

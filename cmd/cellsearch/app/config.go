package app

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/cellsearch/internal/sdr"
	"github.com/roman-kulish/cellsearch/internal/sdr/hackrf"
	"github.com/roman-kulish/cellsearch/internal/sdr/rtl"
	"github.com/roman-kulish/cellsearch/internal/search"
)

const (
	DeviceRTLSDR = "rtl-sdr"
	DeviceHackRF = "hackrf"
)

const (
	DefaultPPM        = 100
	DefaultCorrection = 1.0

	// Above these a warning is logged; the search still runs.
	suspiciousPPM        = 200
	suspiciousCorrection = 1000e-6
)

// ErrRecordAndLoad is returned when both record and load modes are requested
var ErrRecordAndLoad = errors.New("record and load are mutually exclusive")

// Config represents the main application configuration
type Config struct {
	Settings Settings      `yaml:"settings" json:"settings"`
	Search   SearchConfig  `yaml:"search" json:"search"`
	Device   DeviceConfig  `yaml:"device" json:"device"`
	Storage  StorageConfig `yaml:"storage" json:"storage"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel" json:"logLevel"`
	JSON     bool   `yaml:"json" json:"json"` // print detected cells as JSON
}

// SearchConfig holds the search range, oscillator parameters and detector tuning
type SearchConfig struct {
	FreqStart  float64  `yaml:"freqStart" json:"freqStart"`
	FreqEnd    *float64 `yaml:"freqEnd" json:"freqEnd,omitempty"`
	PPM        float64  `yaml:"ppm" json:"ppm"`
	Correction float64  `yaml:"correction" json:"correction"`
	Workers    int      `yaml:"workers" json:"workers"`

	Nines              float64 `yaml:"nines" json:"nines"`
	CombArm            int     `yaml:"combArm" json:"combArm"`
	SSSThreshold       float64 `yaml:"sssThreshold" json:"sssThreshold"`
	DedupWindow        float64 `yaml:"dedupWindow" json:"dedupWindow"`
	MultipleComparison bool    `yaml:"multipleComparison" json:"multipleComparison"`
}

// DeviceConfig selects the radio and holds the settings of its capture tool
type DeviceConfig struct {
	Name   string         `yaml:"name" json:"name"`
	Type   string         `yaml:"type" json:"type"`
	RTLSDR *rtl.Config    `yaml:"rtlsdr" json:"rtlsdr,omitempty"`
	HackRF *hackrf.Config `yaml:"hackrf" json:"hackrf,omitempty"`
}

// StorageConfig represents recording and result storage settings
type StorageConfig struct {
	DataDirectory     string `yaml:"dataDirectory" json:"dataDirectory"`         // capture recordings
	DatabaseDirectory string `yaml:"databaseDirectory" json:"databaseDirectory"` // empty disables result storage
	Record            bool   `yaml:"record" json:"record"`
	Load              bool   `yaml:"load" json:"load"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{LogLevel: "info"},
		Search: SearchConfig{
			PPM:                DefaultPPM,
			Correction:         DefaultCorrection,
			Workers:            1,
			Nines:              search.DefaultNines,
			CombArm:            search.DefaultCombArm,
			SSSThreshold:       search.DefaultSSSThreshold,
			DedupWindow:        search.DefaultDedupWindow,
			MultipleComparison: false,
		},
		Device: DeviceConfig{
			Name: "sdr0",
			Type: DeviceRTLSDR,
		},
		Storage: StorageConfig{
			DataDirectory: ".",
		},
	}
}

// LoadConfig reads a YAML configuration file on top of the defaults
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	if err = yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	return config, nil
}

// Mode returns the capture source mode selected by the storage settings
func (c *Config) Mode() sdr.Mode {
	switch {
	case c.Storage.Load:
		return sdr.ModeReplay
	case c.Storage.Record:
		return sdr.ModeRecord
	default:
		return sdr.ModeLive
	}
}

// GridConfig returns the search grid parameters
func (c *Config) GridConfig() search.GridConfig {
	return search.GridConfig{
		FreqStart: c.Search.FreqStart,
		FreqEnd:   c.Search.FreqEnd,
		PPM:       c.Search.PPM,
	}
}

// Validate checks the settings that are not covered by the search grid and
// the device configuration. Suspicious oscillator values are logged.
func (c *Config) Validate(logger *slog.Logger) error {
	if c.Storage.Record && c.Storage.Load {
		return ErrRecordAndLoad
	}

	if c.Search.Correction <= 0 {
		return fmt.Errorf("correction must be positive: %g given: %w", c.Search.Correction, search.ErrInvalidConfig)
	}
	if c.Search.Workers < 1 {
		return fmt.Errorf("workers must be at least 1: %d given: %w", c.Search.Workers, search.ErrInvalidConfig)
	}
	if c.Search.Nines <= 0 {
		return fmt.Errorf("nines must be positive: %g given: %w", c.Search.Nines, search.ErrInvalidConfig)
	}
	if c.Search.CombArm < 0 {
		return fmt.Errorf("comb arm must not be negative: %d given: %w", c.Search.CombArm, search.ErrInvalidConfig)
	}

	switch c.Device.Type {
	case DeviceRTLSDR, DeviceHackRF:
	default:
		return fmt.Errorf("unknown device type '%s'", c.Device.Type)
	}

	if c.Search.PPM > suspiciousPPM {
		logger.Warn("ppm value appears to be unreasonable", slog.Float64("ppm", c.Search.PPM))
	}
	if math.Abs(c.Search.Correction-1) > suspiciousCorrection {
		logger.Warn("crystal correction factor appears to be unreasonable", slog.Float64("correction", c.Search.Correction))
	}

	return nil
}

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roman-kulish/cellsearch/internal/lte"
	"github.com/roman-kulish/cellsearch/internal/sdr"
	"github.com/roman-kulish/cellsearch/internal/sdr/hackrf"
	"github.com/roman-kulish/cellsearch/internal/sdr/rtl"
	"github.com/roman-kulish/cellsearch/internal/search"
	"github.com/roman-kulish/cellsearch/internal/spectrum"
	"github.com/roman-kulish/cellsearch/internal/storage"
)

// Run builds the search grid, opens the capture source and the optional
// result store, runs the search and prints the detected cells to out.
func Run(ctx context.Context, config *Config, out io.Writer, logger *slog.Logger) (err error) {
	grid, err := search.BuildGrid(config.GridConfig(), logger)
	if err != nil {
		return fmt.Errorf("building search grid: %w", err)
	}

	source, device, err := createSource(config, logger)
	if err != nil {
		return err
	}

	options := []func(*search.Searcher){
		search.WithLogger(logger),
		search.WithWorkers(config.Search.Workers),
		search.WithCombArm(config.Search.CombArm),
		search.WithNines(config.Search.Nines),
		search.WithSSSThreshold(config.Search.SSSThreshold),
		search.WithDedupWindow(config.Search.DedupWindow),
		search.WithMultipleComparison(config.Search.MultipleComparison),
	}

	var (
		store     *storage.SqliteStore
		sessionID int64
	)
	if config.Storage.DatabaseDirectory != "" {
		if store, err = createStorage(&config.Storage); err != nil {
			return fmt.Errorf("failed to create storage: %w", err)
		}
		defer func() {
			if cerr := store.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing storage: %w", cerr)
			}
		}()

		session := &spectrum.ScanSession{
			DeviceType: device,
			DeviceID:   config.Device.Name,
			Mode:       config.Mode().String(),
			Correction: config.Search.Correction,
		}
		if sessionID, err = store.CreateSession(ctx, session, config); err != nil {
			return fmt.Errorf("creating session: %w", err)
		}
		logger = logger.With(slog.String("runID", session.RunID))

		options = append(options, search.WithSweepHandler(func(sr *search.SweepResult) error {
			return store.StoreProfile(ctx, sessionID, toProfileRow(sr))
		}))
	}

	logger.Info("searching for LTE cells",
		slog.Float64("freqStart", grid.CenterFrequencies[0]),
		slog.Float64("freqEnd", grid.CenterFrequencies[len(grid.CenterFrequencies)-1]),
		slog.Float64("ppm", config.Search.PPM),
		slog.Float64("coverage", grid.Coverage()),
		slog.String("mode", config.Mode().String()))

	searcher := search.NewSearcher(source, lte.Kernel{}, options...)
	result, err := searcher.Run(ctx, grid, config.Search.Correction)
	if err != nil {
		return err
	}

	cells := toDetectedCells(result.Detections)
	if store != nil {
		if err = store.StoreCells(ctx, sessionID, cells); err != nil {
			return fmt.Errorf("storing cells: %w", err)
		}
	}

	if config.Settings.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cells)
	}
	return WriteReport(out, cells)
}

// createSource returns the capture source and the device type recorded with
// the session. Replay needs no radio.
func createSource(config *Config, logger *slog.Logger) (*sdr.Source, string, error) {
	mode := config.Mode()

	var recorder *sdr.Recorder
	if mode != sdr.ModeLive {
		recorder = sdr.NewRecorder(config.Storage.DataDirectory)
	}

	if mode == sdr.ModeReplay {
		source, err := sdr.NewSource(mode, nil, recorder, sdr.WithSourceLogger(logger))
		return source, "replay", err
	}

	handler, err := createHandler(&config.Device)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create device: %w", err)
	}

	device := sdr.NewDevice(config.Device.Name, handler, sdr.WithLogger(logger))
	source, err := sdr.NewSource(mode, device, recorder, sdr.WithSourceLogger(logger))
	return source, handler.Device(), err
}

func createHandler(config *DeviceConfig) (sdr.Handler, error) {
	var handler sdr.Handler
	var err error
	switch config.Type {
	case DeviceRTLSDR:
		if config.RTLSDR == nil {
			config.RTLSDR = &rtl.Config{}
		}
		if handler, err = rtl.New(config.RTLSDR); err != nil {
			return nil, fmt.Errorf("creating RTL-SDR device: %w", err)
		}

	case DeviceHackRF:
		if config.HackRF == nil {
			config.HackRF = &hackrf.Config{}
		}
		if handler, err = hackrf.New(config.HackRF); err != nil {
			return nil, fmt.Errorf("creating HackRF device: %w", err)
		}

	default:
		return nil, fmt.Errorf("creating device: unknown type '%s'", config.Type)
	}

	return handler, nil
}

func createStorage(config *StorageConfig) (*storage.SqliteStore, error) {
	dir, err := filepath.Abs(config.DatabaseDirectory)
	if err != nil {
		return nil, fmt.Errorf("resolving storage directory: %w", err)
	}

	stat, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage directory '%s' does not exist: %w", dir, err)
		}
		return nil, err
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("invalid storage directory '%s'", dir)
	}

	dbPath := filepath.Join(dir, fmt.Sprintf("cellsearch_%s.sqlite", time.Now().UTC().Format("20060102_150405")))
	return storage.NewSqliteStore(dbPath), nil
}

func toProfileRow(sr *search.SweepResult) *spectrum.ProfileRow {
	row := &spectrum.ProfileRow{
		Index:           sr.Index,
		Timestamp:       sr.Timestamp.UTC(),
		CenterFrequency: sr.CenterFrequency,
		Peaks:           sr.Peaks,
		Rejected:        sr.Rejected,
		Confirmed:       len(sr.Confirmed),
		Points:          make([]spectrum.OffsetPower, len(sr.Profile)),
	}
	for i, p := range sr.Profile {
		row.Points[i] = spectrum.OffsetPower{Offset: p.Offset, Power: p.Power, Threshold: p.Threshold}
	}
	return row
}

func toDetectedCells(detections []search.Detection) []spectrum.DetectedCell {
	cells := make([]spectrum.DetectedCell, 0, len(detections))
	for _, d := range detections {
		id, _ := d.Cell.ID()
		cells = append(cells, spectrum.DetectedCell{
			CellID:          id,
			CenterFrequency: d.Cell.CenterFrequency,
			FrequencyOffset: d.Cell.FrequencyOffset,
			PeakPower:       d.Cell.PeakPower,
			CP:              d.Cell.CP.String(),
			NRBDL:           d.Cell.NRBDL,
			PHICHDuration:   d.Cell.PHICHDuration.String(),
			PHICHResource:   d.Cell.PHICHResource.String(),
			Ports:           d.Cell.Ports,
			SFN:             d.Cell.SFN,
			Correction:      d.Correction,
		})
	}
	return cells
}

package app

import (
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/cellsearch/internal/spectrum"
	"github.com/roman-kulish/cellsearch/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	m, session, err := readCellMap(ctx, store, config, logger)
	if err != nil {
		return err
	}

	renderConfig := RenderConfig{
		CellWidth:     config.CellWidth,
		CellHeight:    config.CellHeight,
		ColorTheme:    config.Theme,
		NoAnnotations: config.NoAnnotations,
		Session:       session,
	}
	if config.MinPower != nil || config.MaxPower != nil {
		bounds := m.Histogram.Bounds()
		if config.MinPower != nil {
			bounds.Min = *config.MinPower
		}
		if config.MaxPower != nil {
			bounds.Max = *config.MaxPower
		}
		if bounds.Min >= bounds.Max {
			return fmt.Errorf("invalid power range: %.1f..%.1f dB", bounds.Min, bounds.Max)
		}
		renderConfig.Bounds = &bounds
	}

	renderer := NewRenderer(renderConfig)
	bounds := renderer.Bounds(m)

	logger.Info("rendering cell map",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.String("theme", string(config.Theme)),
			slog.Int("columns", m.Width),
			slog.Int("rows", m.Height),
			slog.Int("cells", len(m.Markers)),
			slog.String("power", fmt.Sprintf("%.1f..%.1fdB", bounds.Min, bounds.Max)),
		))

	img, err := renderer.Render(m)
	if err != nil {
		return fmt.Errorf("rendering cell map: %w", err)
	}

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer out.Close()

	switch config.Format {
	case ImagePNG:
		err = png.Encode(out, img)
	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{Quality: 98})
	}
	if err != nil {
		return fmt.Errorf("encoding image: %w", err)
	}
	return out.Close()
}

func readCellMap(ctx context.Context, store *storage.SqliteStore, config *Config, logger *slog.Logger) (*CellMap, *spectrum.ScanSession, error) {
	var opts []storage.ReaderOption
	var filters []any
	switch {
	case config.MinFrequency != nil && config.MaxFrequency != nil:
		opts = append(opts, storage.WithFreqRange(*config.MinFrequency, *config.MaxFrequency))
		filters = append(filters,
			slog.String("minFreq", humanize.SIWithDigits(*config.MinFrequency, 4, "Hz")),
			slog.String("maxFreq", humanize.SIWithDigits(*config.MaxFrequency, 4, "Hz")))

	case config.MinFrequency != nil:
		opts = append(opts, storage.WithMinFreq(*config.MinFrequency))
		filters = append(filters, slog.String("minFreq", humanize.SIWithDigits(*config.MinFrequency, 4, "Hz")))

	case config.MaxFrequency != nil:
		opts = append(opts, storage.WithMaxFreq(*config.MaxFrequency))
		filters = append(filters, slog.String("maxFreq", humanize.SIWithDigits(*config.MaxFrequency, 4, "Hz")))
	}

	logger.Debug("reader configuration", filters...)

	iter, err := store.ReadProfile(ctx, config.SessionID, opts...)
	if err != nil {
		return nil, nil, err
	}
	defer iter.Close()

	m := NewCellMap()
	for iter.Next(ctx) {
		m.Update(iter.Current())
	}
	if err = iter.Error(); err != nil {
		return nil, nil, err
	}

	cells, err := store.Cells(ctx, config.SessionID)
	if err != nil {
		return nil, nil, err
	}
	m.Mark(cells)

	logger.Info("finished reading correlation profile",
		slog.Group("stats",
			slog.String("minFreq", humanize.SIWithDigits(m.FrequencyMin, 4, "Hz")),
			slog.String("maxFreq", humanize.SIWithDigits(m.FrequencyMax, 4, "Hz")),
			slog.String("values", humanize.Comma(int64(m.Histogram.Count()))),
			slog.Int("cells", len(cells)),
		))

	return m, iter.Session(), nil
}

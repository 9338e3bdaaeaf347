package app

import (
	"context"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/cellsearch/internal/spectrum"
	"github.com/roman-kulish/cellsearch/internal/storage"
)

func TestRenderNoAnnotations(t *testing.T) {
	m := testMap()
	r := NewRenderer(RenderConfig{
		CellWidth:     4,
		CellHeight:    2,
		ColorTheme:    GrayscaleTheme,
		Bounds:        &PowerBounds{Min: 0, Max: 10},
		NoAnnotations: true,
	})

	img, err := r.Render(m)
	require.NoError(t, err)
	require.Equal(t, 12, img.Bounds().Dx())
	require.Equal(t, 4, img.Bounds().Dy())

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	require.Equal(t, color.RGBA{A: 255}, img.RGBAAt(0, 0))
	require.Equal(t, white, img.RGBAAt(4, 0))
	require.Equal(t, white, img.RGBAAt(7, 1))
	require.Equal(t, NoDataColor, img.RGBAAt(8, 0))
}

func TestRenderAnnotations(t *testing.T) {
	m := testMap()
	m.Mark([]spectrum.DetectedCell{{CellID: 36, CenterFrequency: 739.1e6, FrequencyOffset: 0}})

	r := NewRenderer(RenderConfig{
		CellWidth:  10,
		CellHeight: 10,
		ColorTheme: ThermalTheme,
		Session:    &spectrum.ScanSession{ID: 1, DeviceType: "RTL-SDR", Mode: "live"},
	})

	img, err := r.Render(m)
	require.NoError(t, err)
	require.Equal(t, defaultLeftBorder+30+defaultRightBorder, img.Bounds().Dx())
	require.Equal(t, defaultTopBorder+20+defaultBottomBorder, img.Bounds().Dy())

	// outline of the marked cell at row 1, column 1
	x0, y0 := defaultLeftBorder+10, defaultTopBorder+10
	require.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, img.RGBAAt(x0-1, y0+5))
}

func TestRenderEmpty(t *testing.T) {
	_, err := NewRenderer(RenderConfig{}).Render(NewCellMap())
	require.ErrorIs(t, err, ErrEmptyMap)
}

func TestLabelStep(t *testing.T) {
	tests := []struct {
		n, px, gap int
		want       int
	}{
		{41, 12, 70, 6},
		{41, 100, 70, 1},
		{3, 1, 70, 3},
		{0, 5, 10, 1},
	}

	for _, tt := range tests {
		if got := labelStep(tt.n, tt.px, tt.gap); got != tt.want {
			t.Errorf("labelStep(%d, %d, %d) = %d; want %d", tt.n, tt.px, tt.gap, got, tt.want)
		}
	}

	require.Equal(t, "0", formatOffset(0))
	require.Equal(t, "+5k", formatOffset(5000))
	require.Equal(t, "-12.5k", formatOffset(-12500))
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "results.sqlite")
	ctx := context.Background()

	store := storage.NewSqliteStore(dbPath)
	sessionID, err := store.CreateSession(ctx, &spectrum.ScanSession{DeviceType: "RTL-SDR", DeviceID: "sdr0", Mode: "live", Correction: 1}, nil)
	require.NoError(t, err)
	for i, fc := range []float64{739e6, 739.1e6, 739.2e6} {
		require.NoError(t, store.StoreProfile(ctx, sessionID, profileRow(i, fc, 0.5, 3, 0.8)))
	}
	require.NoError(t, store.StoreCells(ctx, sessionID, []spectrum.DetectedCell{
		{CellID: 36, CenterFrequency: 739.1e6, FrequencyOffset: 120, CP: "normal", NRBDL: 50, Correction: 1},
	}))
	require.NoError(t, store.Close())

	config := NewConfig()
	config.DBPath = dbPath
	config.SessionID = sessionID
	config.OutputFile = filepath.Join(dir, "map.png")
	config.CellWidth, config.CellHeight = 8, 8

	require.NoError(t, Run(ctx, config, slog.New(slog.NewTextHandler(io.Discard, nil))))

	f, err := os.Open(config.OutputFile)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	require.Equal(t, defaultLeftBorder+3*8+defaultRightBorder, img.Bounds().Dx())
	require.Equal(t, defaultTopBorder+3*8+defaultBottomBorder, img.Bounds().Dy())
}

func TestRunMissingDatabase(t *testing.T) {
	config := NewConfig()
	config.DBPath = filepath.Join(t.TempDir(), "missing.sqlite")
	config.OutputFile = filepath.Join(t.TempDir(), "map.png")

	require.Error(t, Run(context.Background(), config, slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestNewConfigFromArgs(t *testing.T) {
	config, err := NewConfigFromArgs([]string{
		"-db", "results.sqlite", "-s", "3", "-o", "map", "-f", "JPEG", "-theme", "marine",
		"-cell-width", "5", "-min-freq", "7e8", "-max-power", "15", "-no-annotations",
	}, io.Discard)
	require.NoError(t, err)

	require.Equal(t, "results.sqlite", config.DBPath)
	require.Equal(t, int64(3), config.SessionID)
	require.Equal(t, "map.jpeg", config.OutputFile)
	require.Equal(t, ImageJPEG, config.Format)
	require.Equal(t, MarineTheme, config.Theme)
	require.Equal(t, 5, config.CellWidth)
	require.Equal(t, defaultCellHeight, config.CellHeight)
	require.Equal(t, 7e8, *config.MinFrequency)
	require.Nil(t, config.MaxFrequency)
	require.Nil(t, config.MinPower)
	require.Equal(t, 15.0, *config.MaxPower)
	require.True(t, config.NoAnnotations)
}

func TestNewConfigFromArgsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no db", []string{"-o", "map"}},
		{"no output", []string{"-db", "x.sqlite"}},
		{"bad session", []string{"-db", "x.sqlite", "-o", "map", "-s", "0"}},
		{"bad format", []string{"-db", "x.sqlite", "-o", "map", "-f", "gif"}},
		{"bad theme", []string{"-db", "x.sqlite", "-o", "map", "-theme", "neon"}},
		{"bad cell size", []string{"-db", "x.sqlite", "-o", "map", "-cell-height", "0"}},
		{"inverted power", []string{"-db", "x.sqlite", "-o", "map", "-min-power", "5", "-max-power", "1"}},
		{"unknown flag", []string{"-db", "x.sqlite", "-o", "map", "-z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfigFromArgs(tt.args, io.Discard)
			require.Error(t, err)
		})
	}
}

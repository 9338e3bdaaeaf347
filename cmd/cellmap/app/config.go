package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"

	defaultCellWidth  = 12
	defaultCellHeight = 6
)

type ImageFormat string

type Config struct {
	DBPath        string
	SessionID     int64
	OutputFile    string
	Format        ImageFormat
	Theme         ColorTheme
	CellWidth     int // pixels per offset hypothesis
	CellHeight    int // pixels per center frequency
	MinFrequency  *float64
	MaxFrequency  *float64
	MinPower      *float64 // dB above threshold
	MaxPower      *float64
	Verbose       bool
	NoAnnotations bool
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

var validThemes = map[ColorTheme]struct{}{
	DefaultTheme:   {},
	ClassicTheme:   {},
	GrayscaleTheme: {},
	JungleTheme:    {},
	ThermalTheme:   {},
	MarineTheme:    {},
}

func NewConfig() *Config {
	return &Config{
		Format:     ImagePNG,
		Theme:      DefaultTheme,
		CellWidth:  defaultCellWidth,
		CellHeight: defaultCellHeight,
	}
}

// NewConfigFromArgs parses the command line arguments, without the program name
func NewConfigFromArgs(args []string, output io.Writer) (*Config, error) {
	c := NewConfig()

	fs := flag.NewFlagSet("cellmap", flag.ContinueOnError)
	fs.SetOutput(output)

	var imageFormat, theme string
	var minFreq, maxFreq, minPower, maxPower float64
	fs.StringVar(&c.DBPath, "db", "", "Path to the database file")
	fs.Int64Var(&c.SessionID, "s", 1, "Session ID")
	fs.StringVar(&c.OutputFile, "o", "", "Path to the output file, without extension")
	fs.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	fs.StringVar(&theme, "theme", string(DefaultTheme), "Color theme. [default, classic, grayscale, jungle, thermal, marine]")
	fs.IntVar(&c.CellWidth, "cell-width", defaultCellWidth, "Width of an offset hypothesis in pixels")
	fs.IntVar(&c.CellHeight, "cell-height", defaultCellHeight, "Height of a center frequency in pixels")
	fs.Float64Var(&minFreq, "min-freq", 0, "Lowest center frequency to render (Hz)")
	fs.Float64Var(&maxFreq, "max-freq", 0, "Highest center frequency to render (Hz)")
	fs.Float64Var(&minPower, "min-power", 0, "Define a manual minimum power, dB relative to the threshold")
	fs.Float64Var(&maxPower, "max-power", 0, "Define a manual maximum power, dB relative to the threshold")
	fs.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	fs.BoolVar(&c.NoAnnotations, "no-annotations", false, "Disable annotations such as frequency scales and cell markers")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "min-freq":
			c.MinFrequency = &minFreq
		case "max-freq":
			c.MaxFrequency = &maxFreq
		case "min-power":
			c.MinPower = &minPower
		case "max-power":
			c.MaxPower = &maxPower
		}
	})

	imageFormat = strings.ToLower(imageFormat)
	theme = strings.ToLower(theme)

	var err error
	if c.DBPath == "" {
		err = errors.New("db path is required")
	} else if c.SessionID <= 0 {
		err = errors.New("session id is required")
	} else if c.OutputFile == "" {
		err = errors.New("output file is required")
	} else if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
		err = fmt.Errorf("invalid image format: %s", imageFormat)
	} else if _, ok := validThemes[ColorTheme(theme)]; !ok {
		err = fmt.Errorf("invalid color theme: %s", theme)
	} else if c.CellWidth <= 0 || c.CellHeight <= 0 {
		err = fmt.Errorf("cell size must be positive: %dx%d given", c.CellWidth, c.CellHeight)
	} else if c.MinPower != nil && c.MaxPower != nil && *c.MinPower >= *c.MaxPower {
		err = fmt.Errorf("min power must be below max power: %.1f >= %.1f", *c.MinPower, *c.MaxPower)
	}

	if err != nil {
		fs.Usage()
		return nil, err
	}

	c.Format = ImageFormat(imageFormat)
	c.Theme = ColorTheme(theme)
	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return c, nil
}

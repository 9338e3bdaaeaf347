package app

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/roman-kulish/cellsearch/internal/search"
	"github.com/roman-kulish/cellsearch/internal/spectrum"
)

const (
	dpi            = 72.0
	fontSize       = 12.0
	tickMarkLength = 5
	minLabelGap    = 70 // pixels between offset labels

	defaultTopBorder    = 30
	defaultLeftBorder   = 90
	defaultBottomBorder = 30
	defaultRightBorder  = 70
)

// ErrEmptyMap is returned when the session has no profile to render
var ErrEmptyMap = errors.New("no correlation profile to render")

var markerColor = color.White

// BorderConfig defines the sizes of white space around the map
type BorderConfig struct {
	Top    int // offset scale
	Left   int // center frequency scale
	Bottom int // information bar
	Right  int // cell labels
}

// RenderConfig holds all configuration options of the map image
type RenderConfig struct {
	CellWidth     int
	CellHeight    int
	ColorTheme    ColorTheme
	Bounds        *PowerBounds // nil derives the bounds from the data
	NoAnnotations bool
	Session       *spectrum.ScanSession

	BorderConfig BorderConfig
}

// Renderer draws a CellMap
type Renderer struct {
	config RenderConfig
}

// NewRenderer creates a renderer, filling in defaults for zero values
func NewRenderer(config RenderConfig) *Renderer {
	if config.CellWidth <= 0 {
		config.CellWidth = defaultCellWidth
	}
	if config.CellHeight <= 0 {
		config.CellHeight = defaultCellHeight
	}

	if config.NoAnnotations {
		config.BorderConfig = BorderConfig{}
	} else {
		if config.BorderConfig.Top == 0 {
			config.BorderConfig.Top = defaultTopBorder
		}
		if config.BorderConfig.Left == 0 {
			config.BorderConfig.Left = defaultLeftBorder
		}
		if config.BorderConfig.Bottom == 0 {
			config.BorderConfig.Bottom = defaultBottomBorder
		}
		if config.BorderConfig.Right == 0 {
			config.BorderConfig.Right = defaultRightBorder
		}
	}

	return &Renderer{config: config}
}

// Bounds returns the power range the colors span
func (r *Renderer) Bounds(m *CellMap) PowerBounds {
	if r.config.Bounds != nil {
		return *r.config.Bounds
	}
	return m.Histogram.Bounds()
}

// Render creates an image of the map with annotations
func (r *Renderer) Render(m *CellMap) (*image.RGBA, error) {
	if m.Width == 0 || m.Height == 0 {
		return nil, ErrEmptyMap
	}

	b := r.config.BorderConfig
	mapArea := image.Rect(b.Left, b.Top, b.Left+m.Width*r.config.CellWidth, b.Top+m.Height*r.config.CellHeight)
	img := image.NewRGBA(image.Rect(0, 0, mapArea.Max.X+b.Right, mapArea.Max.Y+b.Bottom))

	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	colorMap := NewColorMapper(r.config.ColorTheme, r.Bounds(m))
	r.renderMap(img, mapArea, m, colorMap)

	if r.config.NoAnnotations {
		return img, nil
	}

	ann, err := newAnnotator(r.config, mapArea)
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}
	defer ann.Close()

	if err = ann.annotate(img, m, r.Bounds(m)); err != nil {
		return nil, fmt.Errorf("drawing annotations: %w", err)
	}

	return img, nil
}

func (r *Renderer) renderMap(img *image.RGBA, area image.Rectangle, m *CellMap, colorMap *ColorMapper) {
	for row := 0; row < m.Height; row++ {
		for col := 0; col < m.Width; col++ {
			c := colorMap.GetColor(m.Value(row, col))
			x0 := area.Min.X + col*r.config.CellWidth
			y0 := area.Min.Y + row*r.config.CellHeight
			draw.Draw(img, image.Rect(x0, y0, x0+r.config.CellWidth, y0+r.config.CellHeight), image.NewUniform(c), image.Point{}, draw.Src)
		}
	}
}

type annotator struct {
	context  *freetype.Context
	fontFace font.Face
	config   RenderConfig
	area     image.Rectangle
}

func newAnnotator(config RenderConfig, area image.Rectangle) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(fontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		config:  config,
		area:    area,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    fontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	return a.fontFace.Close()
}

func (a *annotator) annotate(img *image.RGBA, m *CellMap, bounds PowerBounds) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	ops := []struct {
		msg string
		fn  func(*image.RGBA, *CellMap) error
	}{
		{"drawing offset scale", a.drawOffsetScale},
		{"drawing frequency scale", a.drawFrequencyScale},
		{"drawing cell markers", a.drawMarkers},
		{"drawing info bar", func(img *image.RGBA, m *CellMap) error {
			return a.drawInfoBar(img, m, bounds)
		}},
	}
	for _, op := range ops {
		if err := op.fn(img, m); err != nil {
			return fmt.Errorf("%s: %w", op.msg, err)
		}
	}

	return nil
}

func (a *annotator) fontHeight() int {
	metrics := a.fontFace.Metrics()
	return (metrics.Ascent + metrics.Descent).Round()
}

func (a *annotator) drawOffsetScale(img *image.RGBA, m *CellMap) error {
	w := a.config.CellWidth
	every := labelStep(m.Width, w, minLabelGap)
	center := m.column(0)
	textY := a.area.Min.Y - tickMarkLength - a.fontHeight()/3

	// labels are anchored on the zero offset column
	for col := (center%every + every) % every; col < m.Width; col += every {
		x := a.area.Min.X + col*w + w/2
		for y := a.area.Min.Y - tickMarkLength; y < a.area.Min.Y; y++ {
			img.Set(x, y, color.Black)
		}

		label := formatOffset(m.OffsetMin + float64(col)*search.OffsetStep)
		width := font.MeasureString(a.fontFace, label).Round()
		if _, err := a.context.DrawString(label, freetype.Pt(x-width/2, textY)); err != nil {
			return err
		}
	}
	return nil
}

func (a *annotator) drawFrequencyScale(img *image.RGBA, m *CellMap) error {
	h := a.config.CellHeight
	fontHeight := a.fontHeight()
	every := labelStep(m.Height, h, fontHeight+4)
	descent := a.fontFace.Metrics().Descent.Round()

	for row := 0; row < m.Height; row += every {
		y := a.area.Min.Y + row*h + h/2
		for x := a.area.Min.X - tickMarkLength; x < a.area.Min.X; x++ {
			img.Set(x, y, color.Black)
		}

		label := humanize.SIWithDigits(m.Frequencies[row], 4, "Hz")
		width := font.MeasureString(a.fontFace, label).Round()
		pt := freetype.Pt(a.area.Min.X-tickMarkLength-3-width, y+fontHeight/2-descent)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return err
		}
	}
	return nil
}

func (a *annotator) drawMarkers(img *image.RGBA, m *CellMap) error {
	w, h := a.config.CellWidth, a.config.CellHeight
	fontHeight := a.fontHeight()

	for _, mk := range m.Markers {
		x0 := a.area.Min.X + mk.Column*w
		y0 := a.area.Min.Y + mk.Row*h
		outline(img, image.Rect(x0-1, y0-1, x0+w+1, y0+h+1), markerColor)

		label := fmt.Sprintf("%d", mk.Cell.CellID)
		pt := freetype.Pt(a.area.Max.X+4, y0+h/2+fontHeight/3)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return err
		}
		for x := x0 + w + 1; x < a.area.Max.X+2; x++ {
			img.Set(x, y0+h/2, markerColor)
		}
	}
	return nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, m *CellMap, bounds PowerBounds) error {
	var sb strings.Builder

	if s := a.config.Session; s != nil {
		sb.WriteString(fmt.Sprintf("Session %d (%s, %s); ", s.ID, s.DeviceType, s.Mode))
	}
	sb.WriteString(fmt.Sprintf("%s - %s; ",
		humanize.SIWithDigits(m.FrequencyMin, 4, "Hz"),
		humanize.SIWithDigits(m.FrequencyMax, 4, "Hz")))
	sb.WriteString(fmt.Sprintf("%s x %s hypotheses; ", humanize.Comma(int64(m.Height)), humanize.Comma(int64(m.Width))))
	sb.WriteString(fmt.Sprintf("peaks %s, rejected %s, confirmed %s; ",
		humanize.Comma(int64(m.peaks)), humanize.Comma(int64(m.rejected)), humanize.Comma(int64(m.confirmed))))
	sb.WriteString(fmt.Sprintf("%.1f..%.1f dB over threshold; ", bounds.Min, bounds.Max))
	sb.WriteString(m.TimestampStart.Local().Format(time.DateTime))

	fontHeight := a.fontHeight()
	textY := img.Bounds().Max.Y - (a.config.BorderConfig.Bottom-fontHeight)/2 - a.fontFace.Metrics().Descent.Round()

	_, err := a.context.DrawString(sb.String(), freetype.Pt(4, textY))
	return err
}

func outline(img *image.RGBA, r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}

// labelStep returns how many rows or columns of size px separate labels at
// least gap pixels apart.
func labelStep(n, px, gap int) int {
	return max(1, min(n, int(math.Ceil(float64(gap)/float64(px)))))
}

func formatOffset(offset float64) string {
	if offset == 0 {
		return "0"
	}
	return fmt.Sprintf("%+gk", offset/1e3)
}

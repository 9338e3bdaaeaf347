package app

import (
	"image/color"
	"math"
)

// ColorTheme represents a predefined color scheme for power visualization
type ColorTheme string

const (
	DefaultTheme   ColorTheme = "default"   // Black to blue to yellow to red
	ClassicTheme   ColorTheme = "classic"   // Blue to red transition
	GrayscaleTheme ColorTheme = "grayscale" // Black to white transition
	JungleTheme    ColorTheme = "jungle"    // Dark green to yellow transition
	ThermalTheme   ColorTheme = "thermal"   // Black to red to yellow to white
	MarineTheme    ColorTheme = "marine"    // Deep blue to cyan to white

	DefaultColorMapSize = 256
)

// NoDataColor fills the offsets of a center frequency that carried no power
var NoDataColor = color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}

// ColorMapper maps power values onto a pre-computed gradient
type ColorMapper struct {
	colorMap      []color.Color
	bounds        PowerBounds
	size          int
	powerPerIndex float64
}

// NewColorMapper creates a color mapper for the theme spanning bounds
func NewColorMapper(theme ColorTheme, bounds PowerBounds) *ColorMapper {
	return NewColorMapperWithSize(theme, bounds, DefaultColorMapSize)
}

// NewColorMapperWithSize creates a color mapper with size gradient steps
func NewColorMapperWithSize(theme ColorTheme, bounds PowerBounds, size int) *ColorMapper {
	if size < 2 {
		size = DefaultColorMapSize
	}

	cm := &ColorMapper{
		colorMap:      make([]color.Color, size),
		bounds:        bounds,
		size:          size,
		powerPerIndex: (bounds.Max - bounds.Min) / float64(size-1),
	}

	fn := getColorTheme(theme)
	for i := range cm.colorMap {
		cm.colorMap[i] = fn(float64(i) / float64(size-1))
	}
	return cm
}

// GetColor returns the color of a power value, clamped to the bounds
func (cm *ColorMapper) GetColor(power *float64) color.Color {
	if power == nil {
		return NoDataColor
	}

	pwr := math.Max(cm.bounds.Min, math.Min(*power, cm.bounds.Max))
	index := int(math.Round((pwr - cm.bounds.Min) / cm.powerPerIndex))
	if index >= cm.size {
		index = cm.size - 1
	}
	return cm.colorMap[index]
}

// HSV represents a color in HSV color space
type HSV struct {
	H float64 // Hue [0-360]
	S float64 // Saturation [0-1]
	V float64 // Value [0-1]
}

// RGB converts HSV color space to RGB
func (hsv HSV) RGB() color.Color {
	v := math.Max(0, math.Min(1, hsv.V))
	s := hsv.S

	if s <= 0.0 {
		rgb := uint8(v * 255)
		return color.RGBA{R: rgb, G: rgb, B: rgb, A: 0xff}
	}

	h := math.Mod(hsv.H, 360) / 60
	i := math.Floor(h)
	f := h - i

	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var r, g, b float64
	switch int(i) {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}

	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 0xff}
}

// enhancedColor spreads the low end of the scale, where most offsets sit
func enhancedColor(power float64) color.Color {
	power = math.Max(0, math.Min(1, power))
	enhanced := math.Pow(power, 0.7)

	switch {
	case power < 0.25:
		return HSV{H: 240, S: 1.0, V: enhanced * 4}.RGB()
	case power < 0.5:
		return HSV{H: 240 - ((power - 0.25) * 240), S: 1.0, V: enhanced * 1.5}.RGB()
	case power < 0.75:
		p := (power - 0.5) * 4
		return HSV{H: 180 - (p * 120), S: 1.0, V: math.Min(1.0, enhanced*1.5)}.RGB()
	default:
		p := (power - 0.75) * 4
		return HSV{H: 60 - (p * 60), S: 1.0, V: 1.0}.RGB()
	}
}

func getColorTheme(theme ColorTheme) func(float64) color.Color {
	switch theme {
	case ClassicTheme:
		return func(power float64) color.Color {
			return HSV{H: 240 - (power * 240), S: 0.9 + (power * 0.1), V: math.Pow(power, 0.7)}.RGB()
		}

	case GrayscaleTheme:
		return func(power float64) color.Color {
			v := uint8(math.Pow(power, 0.7) * 255)
			return color.RGBA{R: v, G: v, B: v, A: 0xff}
		}

	case JungleTheme:
		return func(power float64) color.Color {
			return HSV{H: 120 - (power * 60), S: 1.0, V: 0.3 + (math.Pow(power, 0.6) * 0.7)}.RGB()
		}

	case ThermalTheme:
		return func(power float64) color.Color {
			switch {
			case power < 1.0/3:
				return color.RGBA{R: uint8(power * 3 * 255), A: 0xff}
			case power < 2.0/3:
				return color.RGBA{R: 255, G: uint8((power - 1.0/3) * 3 * 255), A: 0xff}
			default:
				return color.RGBA{R: 255, G: 255, B: uint8(math.Min(1, (power-2.0/3)*3) * 255), A: 0xff}
			}
		}

	case MarineTheme:
		return func(power float64) color.Color {
			return HSV{H: 240 - (power * 60), S: 1.0 - (power * 0.8), V: 0.3 + (math.Pow(power, 0.6) * 0.7)}.RGB()
		}

	default:
		return enhancedColor
	}
}

package utils

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
)

// BaseColors is the per-ticker palette, assigned by ticker index.
var BaseColors = []string{
	"#1E88E5", // blue
	"#E53935", // red
	"#43A047", // green
	"#FB8C00", // orange
	"#8E24AA", // purple
	"#00ACC1", // cyan
	"#FDD835", // yellow
	"#6D4C41", // brown
	"#3949AB", // indigo
	"#00897B", // teal
}

var (
	hexRGBPattern   = regexp.MustCompile(`^#?([0-9a-fA-F]{2})([0-9a-fA-F]{2})([0-9a-fA-F]{2})$`)
	shortHexPattern = regexp.MustCompile(`^#?([0-9a-fA-F])([0-9a-fA-F])([0-9a-fA-F])$`)
	validHexPattern = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)
)

// RGB is a color split into 0-255 channels.
type RGB struct {
	R, G, B int
}

// -----------------------------------------------------------------------------

// BaseColor returns the palette color of the ticker at index i, wrapping around.
func BaseColor(i int) string {
	if i < 0 {
		i = -i
	}
	return BaseColors[i%len(BaseColors)]
}

// -----------------------------------------------------------------------------

// HexToRGB parses "#rrggbb" or "rrggbb".
func HexToRGB(hex string) (RGB, bool) {
	m := hexRGBPattern.FindStringSubmatch(hex)
	if m == nil {
		// #abc is shorthand for #aabbcc
		short := shortHexPattern.FindStringSubmatch(hex)
		if short == nil {
			return RGB{}, false
		}
		m = []string{hex, short[1] + short[1], short[2] + short[2], short[3] + short[3]}
	}
	r, _ := strconv.ParseUint(m[1], 16, 8)
	g, _ := strconv.ParseUint(m[2], 16, 8)
	b, _ := strconv.ParseUint(m[3], 16, 8)
	return RGB{int(r), int(g), int(b)}, true
}

// -----------------------------------------------------------------------------

// HexToRGBA renders hex with the given opacity; unparsable input becomes grey.
func HexToRGBA(hex string, opacity float64) string {
	rgb, ok := HexToRGB(hex)
	if !ok {
		rgb = RGB{153, 153, 153}
	}
	return rgbaString(rgb, opacity)
}

// -----------------------------------------------------------------------------

// RGBToHex clamps and rounds each channel.
func RGBToHex(r, g, b float64) string {
	return "#" + channelHex(r) + channelHex(g) + channelHex(b)
}

func channelHex(c float64) string {
	v := int(math.Floor(math.Max(0, math.Min(255, c)) + 0.5))
	return fmt.Sprintf("%02x", v)
}

func rgbaString(rgb RGB, alpha float64) string {
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", rgb.R, rgb.G, rgb.B, strconv.FormatFloat(alpha, 'f', -1, 64))
}

// -----------------------------------------------------------------------------

// LightenColor moves each channel amount percent of the way to white.
func LightenColor(color string, amount float64) string {
	rgb, ok := HexToRGB(color)
	if !ok {
		return color
	}
	f := amount / 100
	return RGBToHex(
		float64(rgb.R)+(255-float64(rgb.R))*f,
		float64(rgb.G)+(255-float64(rgb.G))*f,
		float64(rgb.B)+(255-float64(rgb.B))*f,
	)
}

// -----------------------------------------------------------------------------

// DarkenColor scales each channel down by amount percent.
func DarkenColor(color string, amount float64) string {
	rgb, ok := HexToRGB(color)
	if !ok {
		return color
	}
	f := 1 - amount/100
	return RGBToHex(float64(rgb.R)*f, float64(rgb.G)*f, float64(rgb.B)*f)
}

// -----------------------------------------------------------------------------

// AddAlpha renders color as rgba with alpha clamped to [0, 1]. Unparsable
// colors are returned unchanged.
func AddAlpha(color string, alpha float64) string {
	rgb, ok := HexToRGB(color)
	if !ok {
		return color
	}
	return rgbaString(rgb, math.Max(0, math.Min(1, alpha)))
}

// AddAlphaToHex is AddAlpha for the volume histogram.
func AddAlphaToHex(hex string, alpha float64) string {
	return AddAlpha(hex, alpha)
}

// -----------------------------------------------------------------------------

// GenerateEmaColor derives an EMA line color from the ticker color: shorter
// periods are lighter, longer ones darker.
func GenerateEmaColor(baseColor string, period int, allPeriods []int) string {
	if len(allPeriods) <= 1 {
		return baseColor
	}

	sorted := append([]int(nil), allPeriods...)
	sort.Ints(sorted)

	index := -1
	for i, p := range sorted {
		if p == period {
			index = i
			break
		}
	}
	if index == -1 {
		return baseColor
	}

	n := len(sorted)
	factor := float64(index) / float64(n-1) * 40
	if float64(index) < float64(n)/2 {
		return LightenColor(baseColor, 30-factor)
	}
	return DarkenColor(baseColor, factor-10)
}

// -----------------------------------------------------------------------------

func GenerateRsiColor(baseColor string) string {
	return AddAlpha(baseColor, 0.8)
}

// -----------------------------------------------------------------------------

// ContrastColor picks black or white text for a background.
func ContrastColor(background string) string {
	rgb, ok := HexToRGB(background)
	if !ok {
		return "#000000"
	}
	luminance := (0.299*float64(rgb.R) + 0.587*float64(rgb.G) + 0.114*float64(rgb.B)) / 255
	if luminance > 0.5 {
		return "#000000"
	}
	return "#FFFFFF"
}

// -----------------------------------------------------------------------------

func IsValidHexColor(color string) bool {
	return validHexPattern.MatchString(color)
}

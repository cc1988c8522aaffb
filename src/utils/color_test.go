package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHexToRGB(t *testing.T) {
	rgb, ok := HexToRGB("#1E88E5")
	assert.True(t, ok)
	assert.Equal(t, RGB{30, 136, 229}, rgb)

	rgb, ok = HexToRGB("ff5544")
	assert.True(t, ok)
	assert.Equal(t, RGB{255, 85, 68}, rgb)

	rgb, ok = HexToRGB("#abc")
	assert.True(t, ok)
	assert.Equal(t, RGB{170, 187, 204}, rgb)

	_, ok = HexToRGB("#abcd")
	assert.False(t, ok)
	_, ok = HexToRGB("not-a-color")
	assert.False(t, ok)
}

func TestHexToRGBAFallsBackToGrey(t *testing.T) {
	assert.Equal(t, "rgba(30, 136, 229, 0.5)", HexToRGBA("#1E88E5", 0.5))
	assert.Equal(t, "rgba(153, 153, 153, 1)", HexToRGBA("oops", 1))
}

func TestRGBToHexClamps(t *testing.T) {
	assert.Equal(t, "#ff0000", RGBToHex(300, -5, 0))
	assert.Equal(t, "#010203", RGBToHex(1.2, 1.6, 3))
}

func TestLightenDarken(t *testing.T) {
	assert.Equal(t, "#808080", LightenColor("#000000", 50.2))
	assert.Equal(t, "#ffffff", LightenColor("#123456", 100))
	assert.Equal(t, "#000000", DarkenColor("#123456", 100))
	assert.Equal(t, "#804020", DarkenColor("#ff8040", 50))
	assert.Equal(t, "bad", LightenColor("bad", 10))
}

func TestAddAlphaClamps(t *testing.T) {
	assert.Equal(t, "rgba(255, 0, 0, 1)", AddAlpha("#FF0000", 3))
	assert.Equal(t, "rgba(255, 0, 0, 0)", AddAlpha("#FF0000", -1))
	assert.Equal(t, "rgba(67, 160, 71, 0.7)", AddAlphaToHex("#43A047", 0.7))
	assert.Equal(t, "nope", AddAlpha("nope", 0.5))
}

func TestGenerateEmaColor(t *testing.T) {
	periods := []int{200, 20, 50}

	// single period or unknown period keep the base color
	assert.Equal(t, "#1E88E5", GenerateEmaColor("#1E88E5", 20, []int{20}))
	assert.Equal(t, "#1E88E5", GenerateEmaColor("#1E88E5", 9, periods))

	// index 0 of 3: lighten by 30
	assert.Equal(t, LightenColor("#1E88E5", 30), GenerateEmaColor("#1E88E5", 20, periods))
	// index 1 of 3: factor 20, 1 < 1.5 so lighten by 10
	assert.Equal(t, LightenColor("#1E88E5", 10), GenerateEmaColor("#1E88E5", 50, periods))
	// index 2 of 3: factor 40, darken by 30
	assert.Equal(t, DarkenColor("#1E88E5", 30), GenerateEmaColor("#1E88E5", 200, periods))
}

func TestContrastColor(t *testing.T) {
	assert.Equal(t, "#000000", ContrastColor("#FFFFFF"))
	assert.Equal(t, "#FFFFFF", ContrastColor("#000000"))
	assert.Equal(t, "#000000", ContrastColor("garbage"))
	assert.Equal(t, "#000000", ContrastColor("#fff"))
}

func TestIsValidHexColor(t *testing.T) {
	assert.True(t, IsValidHexColor("#abc"))
	assert.True(t, IsValidHexColor("#A1B2C3"))
	assert.False(t, IsValidHexColor("A1B2C3"))
	assert.False(t, IsValidHexColor("#abcd"))
}

func TestBaseColorWraps(t *testing.T) {
	assert.Equal(t, "#1E88E5", BaseColor(0))
	assert.Equal(t, "#E53935", BaseColor(11))
}

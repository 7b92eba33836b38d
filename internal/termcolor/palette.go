package termcolor

import (
	"fmt"
	"strings"

	"github.com/phyten/bracketx/internal/colorutil"
)

// Palette holds the rainbow colors; nesting level i uses entry i mod len.
type Palette []colorutil.RGB

var defaultPalette = Palette{
	{R: 0xff, G: 0xd7, B: 0x00}, // gold
	{R: 0xda, G: 0x70, B: 0xd6}, // orchid
	{R: 0x17, G: 0x9f, B: 0xff}, // blue
	{R: 0x3c, G: 0xb3, B: 0x71}, // green
	{R: 0xff, G: 0x8c, B: 0x00}, // orange
	{R: 0x00, G: 0xce, B: 0xd1}, // turquoise
}

// yellow, magenta, blue, green, red, cyan
var basicRainbow = []int{3, 5, 4, 2, 1, 6}

// minLightContrast is the ratio rainbow colors must reach on a light background.
const minLightContrast = 3.0

func DefaultPalette() Palette {
	return append(Palette(nil), defaultPalette...)
}

// ParsePalette reads hex colors separated by commas or spaces.
func ParsePalette(spec string) (Palette, error) {
	fields := strings.FieldsFunc(spec, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("palette is empty")
	}
	out := make(Palette, 0, len(fields))
	for _, f := range fields {
		c, err := colorutil.ParseHex(f)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// RainbowStyle picks the color for a bracket at the given color level.
func RainbowStyle(level int, pal Palette, scheme Scheme, profile Profile) Style {
	if level < 0 {
		level = 0
	}
	if profile == ProfileBasic8 {
		return Style{FG: &Color{Profile: profile, Index: basicRainbow[level%len(basicRainbow)]}}
	}
	if len(pal) == 0 {
		pal = defaultPalette
	}
	rgb := pal[level%len(pal)]
	if scheme == SchemeLight {
		rgb = colorutil.EnsureContrast(rgb, colorutil.White(), minLightContrast)
	}
	if profile == ProfileTrueColor {
		return Style{FG: &Color{Profile: profile, RGB: rgb}}
	}
	return Style{FG: &Color{Profile: profile, Index: rgbToANSI256(rgb.R, rgb.G, rgb.B)}}
}

// ErrorStyle marks unmatched brackets.
func ErrorStyle(profile Profile) Style {
	c := Color{Profile: profile, Index: 1}
	switch profile {
	case ProfileTrueColor:
		c.RGB = colorutil.RGB{R: 0xff, G: 0x33, B: 0x33}
	case ProfileANSI256:
		c.Index = 196
	}
	return Style{Emphasis: true, FG: &c}
}

func rgbToANSI256(r, g, b uint8) int {
	if r == g && g == b {
		if r < 8 {
			return 16
		}
		if r > 248 {
			return 231
		}
		return 232 + (int(r)-8)*24/247
	}
	rr := int(r) * 5 / 255
	gg := int(g) * 5 / 255
	bb := int(b) * 5 / 255
	return 16 + 36*rr + 6*gg + bb
}

package termcolor

import (
	"strconv"
	"strings"

	"github.com/phyten/bracketx/internal/colorutil"
)

// Color is a foreground already reduced to what one Profile can show.
// Index is 0..7 for ProfileBasic8 and 0..255 for ProfileANSI256; RGB is used
// only by ProfileTrueColor.
type Color struct {
	Profile Profile
	Index   int
	RGB     colorutil.RGB
}

// Style is how one bracket role is drawn. Emphasis is bold plus underline;
// a nil FG keeps the terminal's foreground.
type Style struct {
	Emphasis bool
	FG       *Color
}

func (c Color) sgr() string {
	switch c.Profile {
	case ProfileTrueColor:
		return "38;2;" + strconv.Itoa(int(c.RGB.R)) + ";" + strconv.Itoa(int(c.RGB.G)) + ";" + strconv.Itoa(int(c.RGB.B))
	case ProfileANSI256:
		return "38;5;" + strconv.Itoa(c.Index)
	default:
		return "3" + strconv.Itoa(c.Index)
	}
}

// Wrap surrounds text with the style's escape sequence and a reset.
func (s Style) Wrap(text string) string {
	if text == "" {
		return text
	}
	codes := make([]string, 0, 3)
	if s.Emphasis {
		codes = append(codes, "1", "4")
	}
	if s.FG != nil {
		codes = append(codes, s.FG.sgr())
	}
	if len(codes) == 0 {
		return text
	}
	return "\x1b[" + strings.Join(codes, ";") + "m" + text + "\x1b[0m"
}

// Paint applies s when the terminal accepts colors.
func (t Terminal) Paint(s Style, text string) string {
	if !t.Enabled {
		return text
	}
	return s.Wrap(text)
}

// Level paints text in the rainbow color for a nesting level.
func (t Terminal) Level(level int, pal Palette, text string) string {
	return t.Paint(RainbowStyle(level, pal, t.Scheme, t.Profile), text)
}

// Unmatched paints text in the style used for unmatched brackets.
func (t Terminal) Unmatched(text string) string {
	return t.Paint(ErrorStyle(t.Profile), text)
}

// Header paints a table heading.
func (t Terminal) Header(text string) string {
	return t.Paint(Style{Emphasis: true}, text)
}

package bracket

import (
	"errors"
	"fmt"
)

// DefaultColorCount is the size of the default rainbow palette.
const DefaultColorCount = 6

var ErrInvalidColorCount = errors.New("color count must be at least 1")

// ColorScheme configures how many distinct rainbow levels are cycled through.
type ColorScheme struct {
	count int
}

func NewColorScheme(count int) (ColorScheme, error) {
	if count < 1 {
		return ColorScheme{}, fmt.Errorf("%w: got %d", ErrInvalidColorCount, count)
	}
	return ColorScheme{count: count}, nil
}

// DefaultRainbow returns the six-color scheme used when nothing is configured.
func DefaultRainbow() ColorScheme {
	return ColorScheme{count: DefaultColorCount}
}

// Count returns the number of color levels. A zero ColorScheme reports the default.
func (c ColorScheme) Count() int {
	if c.count < 1 {
		return DefaultColorCount
	}
	return c.count
}

func (c ColorScheme) LevelFor(depth int) int {
	return ColorLevelFor(depth, c.Count())
}

// ColorLevelFor maps a nesting depth onto a cyclic color index.
func ColorLevelFor(depth, colorCount int) int {
	if colorCount < 1 {
		colorCount = DefaultColorCount
	}
	if depth < 0 {
		depth = 0
	}
	return depth % colorCount
}

package state

import (
	"errors"
	"fmt"
	"math"
	"regexp"
)

// Point is a position on the board in buffer pixels.
type Point struct{ X, Y float64 }

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Mode is the active drawing tool.
type Mode string

const (
	ModePen       Mode = "pen"
	ModeEraser    Mode = "eraser"
	ModeLine      Mode = "line"
	ModeRectangle Mode = "rectangle"
	ModeCircle    Mode = "circle"
	ModeText      Mode = "text"
)

// Modes lists every drawing mode in toolbar order.
var Modes = []Mode{ModePen, ModeEraser, ModeLine, ModeRectangle, ModeCircle, ModeText}

// IsPreview reports whether the mode redraws a single shape from a snapshot
// while dragging, as opposed to painting pixels directly.
func (m Mode) IsPreview() bool {
	switch m {
	case ModeLine, ModeRectangle, ModeCircle, ModeText:
		return true
	}
	return false
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	for _, known := range Modes {
		if m == known {
			return true
		}
	}
	return false
}

// ParseMode converts a toolbar or config string into a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}

const (
	MinWidth = 1
	MaxWidth = 20
)

var (
	ErrUnknownMode  = errors.New("unknown drawing mode")
	ErrInvalidColor = errors.New("color must be #rrggbb")
	ErrInvalidWidth = errors.New("stroke width out of range")
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Style is applied to every stroke and shape drawn after it is set.
type Style struct {
	Color string // #rrggbb
	Width int
}

// Validate checks the color format and the width range.
func (s Style) Validate() error {
	if !hexColor.MatchString(s.Color) {
		return fmt.Errorf("%w: %q", ErrInvalidColor, s.Color)
	}
	if s.Width < MinWidth || s.Width > MaxWidth {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidWidth, s.Width, MinWidth, MaxWidth)
	}
	return nil
}

// Tool is the read-only view of the toolbar handed to the board on every
// pointer event.
type Tool struct {
	Mode  Mode
	Style Style
}

package grid

import "github.com/matzehuels/brickgrid/pkg/errors"

// Config is the pixel geometry of one container at one breakpoint.
// It is derived from a measurement and never persisted.
type Config struct {
	Columns   int     `json:"columns"`
	ColWidth  float64 `json:"colWidth"`
	RowHeight float64 `json:"rowHeight"`

	// Height is the measured content height of the container in pixels,
	// or 0 when the container grows with its content.
	Height float64 `json:"height,omitempty"`
}

// Valid reports whether the config can be used for conversions.
func (c Config) Valid() bool {
	return c.Columns > 0 && c.ColWidth > 0 && c.RowHeight > 0
}

// ContentWidth returns the width spanned by all columns.
func (c Config) ContentWidth() float64 { return float64(c.Columns) * c.ColWidth }

// Measurement is the rendered box of a container.
type Measurement struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height,omitempty"`
	PaddingX float64 `json:"paddingX,omitempty"`
}

// ConfigFor derives the grid config of a container measured at bp.
// Column width divides the content box (width minus horizontal padding on
// both sides) evenly; row height is the fixed RowHeight.
func ConfigFor(bp Breakpoint, m Measurement) (Config, error) {
	if !bp.Valid() {
		return Config{}, errors.New(errors.ErrCodeInvalidBreakpoint, "unknown breakpoint %q", bp)
	}
	content := m.Width - 2*m.PaddingX
	if content <= 0 {
		return Config{}, errors.New(errors.ErrCodeInvalidInput,
			"container is not measured (width %.1f, padding %.1f)", m.Width, m.PaddingX)
	}
	cols := bp.Columns()
	return Config{
		Columns:   cols,
		ColWidth:  content / float64(cols),
		RowHeight: RowHeight,
		Height:    max(m.Height, 0),
	}, nil
}

package grid

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/matzehuels/brickgrid/pkg/errors"
)

const (
	// Columns is the column count of both breakpoints. It is part of the
	// persisted format: stored positions assume a 24-column grid.
	Columns = 24

	// RowHeight is the pixel height of one grid row.
	RowHeight = 24
)

// Breakpoint selects one of the two independent layout contexts.
type Breakpoint string

const (
	Desktop Breakpoint = "desktop"
	Mobile  Breakpoint = "mobile"
)

// Breakpoints lists every breakpoint in a stable order.
var Breakpoints = []Breakpoint{Desktop, Mobile}

// ParseBreakpoint converts a string to a Breakpoint.
func ParseBreakpoint(s string) (Breakpoint, error) {
	switch Breakpoint(s) {
	case Desktop, Mobile:
		return Breakpoint(s), nil
	}
	return "", errors.New(errors.ErrCodeInvalidBreakpoint, "unknown breakpoint %q", s)
}

// Valid reports whether b is a known breakpoint.
func (b Breakpoint) Valid() bool { return b == Desktop || b == Mobile }

// Columns returns the column count of the breakpoint.
func (b Breakpoint) Columns() int { return Columns }

// String implements fmt.Stringer.
func (b Breakpoint) String() string { return string(b) }

// Extent is a size along one axis in grid cells. [Full] spans the whole
// axis: all columns for a width, the viewport for a section height.
type Extent int

// Full is the extent that spans the entire axis.
const Full Extent = -1

// fullRows is what a full height resolves to when a concrete row count is
// needed for collision tests.
const fullRows = math.MaxInt32 / 2

// IsFull reports whether e spans the whole axis.
func (e Extent) IsFull() bool { return e == Full }

// Valid reports whether e is a positive cell count or Full.
func (e Extent) Valid() bool { return e > 0 || e == Full }

// Resolve returns the concrete cell count, substituting total for Full.
func (e Extent) Resolve(total int) int {
	if e == Full {
		return total
	}
	return int(e)
}

// String implements fmt.Stringer.
func (e Extent) String() string {
	if e == Full {
		return "full"
	}
	return strconv.Itoa(int(e))
}

// MarshalJSON encodes Full as the string "full" and everything else as an integer.
func (e Extent) MarshalJSON() ([]byte, error) {
	if e == Full {
		return []byte(`"full"`), nil
	}
	return []byte(strconv.Itoa(int(e))), nil
}

// UnmarshalJSON accepts a positive integer or the string "full". Integers
// below one are rejected so that no number can alias Full.
func (e *Extent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != "full" {
			return fmt.Errorf("extent: unknown keyword %q", s)
		}
		*e = Full
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("extent: %w", err)
	}
	if n < 1 {
		return fmt.Errorf("extent: %d is not a positive cell count", n)
	}
	*e = Extent(n)
	return nil
}

// Point is a grid origin.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size is a concrete grid size.
type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

// GridRect is a rectangle in grid cells as it is persisted.
type GridRect struct {
	X int    `json:"x"`
	Y int    `json:"y"`
	W Extent `json:"w"`
	H Extent `json:"h"`
}

// Origin returns the top-left corner.
func (r GridRect) Origin() Point { return Point{X: r.X, Y: r.Y} }

// WithOrigin returns a copy of r moved to p.
func (r GridRect) WithOrigin(p Point) GridRect {
	r.X, r.Y = p.X, p.Y
	return r
}

// Resolve substitutes concrete cell counts for Full extents.
func (r GridRect) Resolve(columns int) Rect {
	h := fullRows
	if !r.H.IsFull() {
		h = int(r.H)
	}
	return Rect{X: r.X, Y: r.Y, W: r.W.Resolve(columns), H: h}
}

// Validate checks the brick geometry invariants: non-negative origin,
// positive width (or full) and positive height. Full height is only
// legal on sections and is rejected here.
func (r GridRect) Validate() error {
	if r.X < 0 || r.Y < 0 {
		return errors.New(errors.ErrCodeInvalidPosition, "origin (%d,%d) is negative", r.X, r.Y)
	}
	if !r.W.Valid() {
		return errors.New(errors.ErrCodeInvalidPosition, "width %d must be positive", int(r.W))
	}
	if r.H.IsFull() {
		return errors.New(errors.ErrCodeInvalidPosition, "full height is only allowed on sections")
	}
	if r.H <= 0 {
		return errors.New(errors.ErrCodeInvalidPosition, "height %d must be positive", int(r.H))
	}
	return nil
}

// String implements fmt.Stringer.
func (r GridRect) String() string {
	return fmt.Sprintf("{x:%d y:%d w:%s h:%s}", r.X, r.Y, r.W, r.H)
}

// Rect is a resolved grid rectangle with concrete extents.
type Rect struct {
	X, Y, W, H int
}

// Right returns the exclusive right edge.
func (r Rect) Right() int { return r.X + r.W }

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() int { return r.Y + r.H }

// Empty reports whether the rect covers no cells.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Overlaps reports whether r and o share at least one cell.
// Rects that only touch along an edge do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return !(r.Right() <= o.X || o.Right() <= r.X || r.Bottom() <= o.Y || o.Bottom() <= r.Y)
}

// GridRect converts r back to a persisted rectangle.
func (r Rect) GridRect() GridRect {
	return GridRect{X: r.X, Y: r.Y, W: Extent(r.W), H: Extent(r.H)}
}

// Package manifest provides brick manifests: per brick type resize
// capabilities and size bounds.
//
// Manifests are consumed by the layout store (to clamp resizes) and by the
// resize engine (to decide which edge handles are live). A [Registry] is the
// in-process [Provider]; [LoadYAML] reads a catalog such as:
//
//	bricks:
//	  - type: text
//	    resizable: true
//	    minW: 2
//	  - type: divider
//	    resizable: horizontal
//	    maxH: 1
package manifest

import (
	"encoding/json"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/brickgrid/pkg/errors"
	"github.com/matzehuels/brickgrid/pkg/grid"
)

// Resize is the set of axes along which a brick may be resized.
type Resize int

const (
	ResizeNone Resize = iota
	ResizeHorizontal
	ResizeVertical
	ResizeBoth
)

// String returns the catalog spelling of r.
func (r Resize) String() string {
	switch r {
	case ResizeHorizontal:
		return "horizontal"
	case ResizeVertical:
		return "vertical"
	case ResizeBoth:
		return "both"
	default:
		return "none"
	}
}

// ParseResize accepts a boolean or one of "horizontal", "vertical", "both"
// and "none".
func ParseResize(v any) (Resize, error) {
	switch t := v.(type) {
	case bool:
		if t {
			return ResizeBoth, nil
		}
		return ResizeNone, nil
	case string:
		switch t {
		case "horizontal":
			return ResizeHorizontal, nil
		case "vertical":
			return ResizeVertical, nil
		case "both", "true":
			return ResizeBoth, nil
		case "none", "false", "":
			return ResizeNone, nil
		}
	case nil:
		return ResizeNone, nil
	}
	return ResizeNone, errors.New(errors.ErrCodeInvalidManifest, "invalid resizable value %v", v)
}

// MarshalJSON writes true/false for both/none and the axis name otherwise.
func (r Resize) MarshalJSON() ([]byte, error) {
	switch r {
	case ResizeBoth:
		return []byte("true"), nil
	case ResizeNone:
		return []byte("false"), nil
	}
	return json.Marshal(r.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Resize) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := ParseResize(v)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Resize) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	parsed, err := ParseResize(v)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*r = parsed
	return nil
}

// Manifest describes how bricks of one type may be resized.
// Zero bounds are undeclared.
type Manifest struct {
	Type      string `json:"type" yaml:"type"`
	Resizable Resize `json:"resizable" yaml:"resizable"`
	MinW      int    `json:"minW,omitempty" yaml:"minW,omitempty"`
	MaxW      int    `json:"maxW,omitempty" yaml:"maxW,omitempty"`
	MinH      int    `json:"minH,omitempty" yaml:"minH,omitempty"`
	MaxH      int    `json:"maxH,omitempty" yaml:"maxH,omitempty"`
}

// Fallback is used for brick types without a manifest: freely resizable and
// unbounded.
func Fallback(brickType string) Manifest {
	return Manifest{Type: brickType, Resizable: ResizeBoth}
}

// Validate reports INVALID_MANIFEST for a malformed type and OUT_OF_BOUNDS
// when a declared min exceeds the declared max.
func (m Manifest) Validate() error {
	if err := errors.ValidateBrickType(m.Type); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidManifest, err, "manifest")
	}
	_, err := Effective(m, Bounds{}, grid.Columns)
	return err
}

// Capabilities reports which edges may move in which direction.
type Capabilities struct {
	CanGrowHorizontal   bool
	CanShrinkHorizontal bool
	CanGrowVertical     bool
	CanShrinkVertical   bool
}

// Capabilities derives edge capabilities from the resize mode. An axis
// whose bounds pin it to a single size can neither grow nor shrink.
func (m Manifest) Capabilities() Capabilities {
	h := m.Resizable == ResizeHorizontal || m.Resizable == ResizeBoth
	v := m.Resizable == ResizeVertical || m.Resizable == ResizeBoth
	c := Capabilities{
		CanGrowHorizontal:   h,
		CanShrinkHorizontal: h,
		CanGrowVertical:     v,
		CanShrinkVertical:   v,
	}
	if m.MinW > 0 && m.MinW == m.MaxW {
		c.CanGrowHorizontal, c.CanShrinkHorizontal = false, false
	}
	if m.MinH > 0 && m.MinH == m.MaxH {
		c.CanGrowVertical, c.CanShrinkVertical = false, false
	}
	return c
}

// Horizontal reports whether the width may change at all.
func (c Capabilities) Horizontal() bool { return c.CanGrowHorizontal || c.CanShrinkHorizontal }

// Vertical reports whether the height may change at all.
func (c Capabilities) Vertical() bool { return c.CanGrowVertical || c.CanShrinkVertical }

// Bounds are optional per-axis size limits in grid cells; zero is unset.
type Bounds struct {
	MinW, MaxW, MinH, MaxH int
}

// Unbounded is the MaxH of Limits when no maximum height is declared.
const Unbounded = math.MaxInt32

// Limits are fully resolved size limits in grid cells.
type Limits struct {
	MinW, MaxW, MinH, MaxH int
}

// Effective resolves the limits for a brick: each field of override wins
// when set, otherwise the manifest value, otherwise the default (one cell
// minimum, columns wide, unbounded height). It reports OUT_OF_BOUNDS when
// the result has min > max.
func Effective(m Manifest, override Bounds, columns int) (Limits, error) {
	pick := func(o, mv, def int) int {
		if o > 0 {
			return o
		}
		if mv > 0 {
			return mv
		}
		return def
	}
	l := Limits{
		MinW: pick(override.MinW, m.MinW, 1),
		MaxW: pick(override.MaxW, m.MaxW, columns),
		MinH: pick(override.MinH, m.MinH, 1),
		MaxH: pick(override.MaxH, m.MaxH, Unbounded),
	}
	if l.MinW > l.MaxW {
		return Limits{}, errors.New(errors.ErrCodeOutOfBounds,
			"%s: minW %d exceeds maxW %d", m.Type, l.MinW, l.MaxW)
	}
	if l.MinH > l.MaxH {
		return Limits{}, errors.New(errors.ErrCodeOutOfBounds,
			"%s: minH %d exceeds maxH %d", m.Type, l.MinH, l.MaxH)
	}
	return l, nil
}

// Clamp returns s limited to l on both axes.
func (l Limits) Clamp(s grid.Size) grid.Size {
	return grid.Size{
		W: min(max(s.W, l.MinW), l.MaxW),
		H: min(max(s.H, l.MinH), l.MaxH),
	}
}

package page

import (
	"sort"

	"github.com/matzehuels/brickgrid/pkg/grid"
)

// Page is a document of vertically stacked sections.
type Page struct {
	ID       string     `json:"id"`
	Title    string     `json:"title,omitempty"`
	Sections []*Section `json:"sections"`
}

// Section is a full-width region holding top-level bricks.
type Section struct {
	ID       string           `json:"id"`
	Order    int              `json:"order"`
	Position SectionPositions `json:"position"`
	Bricks   []*Brick         `json:"bricks"`
}

// SectionSize is the height of a section at one breakpoint, in rows or Full
// for the viewport height.
type SectionSize struct {
	H grid.Extent `json:"h"`
}

// SectionPositions holds a section height per breakpoint.
type SectionPositions struct {
	Desktop SectionSize `json:"desktop"`
	Mobile  SectionSize `json:"mobile"`
}

// At returns the size for bp.
func (p *SectionPositions) At(bp grid.Breakpoint) *SectionSize {
	if bp == grid.Mobile {
		return &p.Mobile
	}
	return &p.Desktop
}

// Brick is a positioned content unit.
type Brick struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	ParentID    string         `json:"parentId,omitempty"`
	IsContainer bool           `json:"isContainer,omitempty"`
	Position    Positions      `json:"position"`
	Props       map[string]any `json:"props,omitempty"`
	MobileProps map[string]any `json:"mobileProps,omitempty"`
	Datasource  *Binding       `json:"datasource,omitempty"`
	Children    []*Brick       `json:"children,omitempty"`
}

// Binding ties a container brick to a datasource. Sample rows are used when
// the resolver has no live snapshot for Ref.
type Binding struct {
	Ref    string           `json:"ref"`
	Sample []map[string]any `json:"sample,omitempty"`
}

// Position is a brick rectangle at one breakpoint plus optional resize
// bounds and, on mobile, a pixel height override.
//
// Zero bounds are unset and fall back to the brick manifest.
type Position struct {
	grid.GridRect

	ManualHeight float64 `json:"manualHeight,omitempty"`
	MinW         int     `json:"minW,omitempty"`
	MaxW         int     `json:"maxW,omitempty"`
	MinH         int     `json:"minH,omitempty"`
	MaxH         int     `json:"maxH,omitempty"`
}

// Positions holds one Position per breakpoint.
type Positions struct {
	Desktop Position `json:"desktop"`
	Mobile  Position `json:"mobile"`
}

// At returns a pointer to the position for bp, so callers can update it in
// place.
func (p *Positions) At(bp grid.Breakpoint) *Position {
	if bp == grid.Mobile {
		return &p.Mobile
	}
	return &p.Desktop
}

// Rect returns the brick rectangle at bp.
func (b *Brick) Rect(bp grid.Breakpoint) grid.GridRect {
	return b.Position.At(bp).GridRect
}

// Bound reports whether the brick is a container bound to a datasource.
func (b *Brick) Bound() bool {
	return b.IsContainer && b.Datasource != nil && b.Datasource.Ref != ""
}

// OrderedSections returns the sections sorted by Order. Ties keep their
// document order.
func (p *Page) OrderedSections() []*Section {
	out := append([]*Section(nil), p.Sections...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Normalize sorts sections by order and fills in missing child ParentIDs.
// Documents written by hand often omit parentId on container children.
func (p *Page) Normalize() {
	p.Sections = p.OrderedSections()
	for _, s := range p.Sections {
		for _, b := range s.Bricks {
			normalizeChildren(b)
		}
	}
}

func normalizeChildren(b *Brick) {
	for _, c := range b.Children {
		if c.ParentID == "" {
			c.ParentID = b.ID
		}
		normalizeChildren(c)
	}
}

package page

import "github.com/matzehuels/brickgrid/pkg/grid"

// HasAnyCollision reports whether target overlaps any other brick in
// siblings at bp. Only siblings sharing target's parent are considered, so
// container children never collide with section-level bricks.
func HasAnyCollision(target *Brick, siblings []*Brick, bp grid.Breakpoint) bool {
	r := target.Rect(bp)
	for _, s := range siblings {
		if s == target || s.ID == target.ID || s.ParentID != target.ParentID {
			continue
		}
		if grid.Overlaps(r, s.Rect(bp)) {
			return true
		}
	}
	return false
}

// BoundingBox returns the envelope of the bricks' rects at bp, or the zero
// rect for an empty set.
func BoundingBox(bricks []*Brick, bp grid.Breakpoint) grid.GridRect {
	rects := make([]grid.GridRect, len(bricks))
	for i, b := range bricks {
		rects[i] = b.Rect(bp)
	}
	return grid.Envelope(rects)
}

// MinContentHeight returns the number of rows a container needs to show all
// of children at bp.
func MinContentHeight(children []*Brick, bp grid.Breakpoint) int {
	if len(children) == 0 {
		return 0
	}
	box := BoundingBox(children, bp)
	return box.Y + int(box.H)
}

// Collision is a pair of overlapping siblings.
type Collision struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Collisions returns every overlapping pair among bricks at bp, in input
// order. Pairs with different parents are skipped.
func Collisions(bricks []*Brick, bp grid.Breakpoint) []Collision {
	var out []Collision
	for i, a := range bricks {
		for _, b := range bricks[i+1:] {
			if a.ParentID != b.ParentID {
				continue
			}
			if grid.Overlaps(a.Rect(bp), b.Rect(bp)) {
				out = append(out, Collision{A: a.ID, B: b.ID})
			}
		}
	}
	return out
}

// PageCollisions reports collisions in every sibling list of the page: the
// top level of each section and the children of each container.
func (p *Page) PageCollisions(bp grid.Breakpoint) []Collision {
	var out []Collision
	for _, s := range p.Sections {
		out = append(out, Collisions(s.Bricks, bp)...)
	}
	p.Walk(func(_ *Section, _ *Brick, b *Brick) bool {
		if len(b.Children) > 1 {
			out = append(out, Collisions(b.Children, bp)...)
		}
		return true
	})
	return out
}

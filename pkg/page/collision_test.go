package page

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/brickgrid/pkg/grid"
)

func TestHasAnyCollision(t *testing.T) {
	a := &Brick{ID: "a", Position: pos(0, 0, 2, 2)}
	b := &Brick{ID: "b", Position: pos(1, 1, 2, 2)}
	c := &Brick{ID: "c", Position: pos(2, 0, 2, 2)}
	nested := &Brick{ID: "n", ParentID: "box", Position: pos(0, 0, 4, 4)}

	tests := []struct {
		name     string
		target   *Brick
		siblings []*Brick
		want     bool
	}{
		{"overlapping sibling", a, []*Brick{a, b}, true},
		{"touching sibling", a, []*Brick{a, c}, false},
		{"self only", a, []*Brick{a}, false},
		{"different parent ignored", a, []*Brick{a, nested}, false},
		{"empty siblings", a, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasAnyCollision(tt.target, tt.siblings, grid.Desktop); got != tt.want {
				t.Errorf("HasAnyCollision() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasAnyCollisionPerBreakpoint(t *testing.T) {
	a := &Brick{ID: "a", Position: Positions{
		Desktop: Position{GridRect: grid.GridRect{X: 0, Y: 0, W: 4, H: 2}},
		Mobile:  Position{GridRect: grid.GridRect{X: 0, Y: 0, W: 24, H: 2}},
	}}
	b := &Brick{ID: "b", Position: Positions{
		Desktop: Position{GridRect: grid.GridRect{X: 8, Y: 0, W: 4, H: 2}},
		Mobile:  Position{GridRect: grid.GridRect{X: 0, Y: 1, W: 24, H: 2}},
	}}
	siblings := []*Brick{a, b}

	if HasAnyCollision(a, siblings, grid.Desktop) {
		t.Error("desktop rects are disjoint")
	}
	if !HasAnyCollision(a, siblings, grid.Mobile) {
		t.Error("mobile rects overlap")
	}
}

func TestBoundingBox(t *testing.T) {
	if got := BoundingBox(nil, grid.Desktop); got != (grid.GridRect{}) {
		t.Errorf("BoundingBox(nil) = %v, want zero rect", got)
	}

	bricks := []*Brick{
		{ID: "a", Position: pos(2, 5, 2, 2)},
		{ID: "b", Position: pos(5, 5, 3, 4)},
	}
	want := grid.GridRect{X: 2, Y: 5, W: 6, H: 4}
	if got := BoundingBox(bricks, grid.Desktop); got != want {
		t.Errorf("BoundingBox() = %v, want %v", got, want)
	}
	if got := MinContentHeight(bricks, grid.Desktop); got != 9 {
		t.Errorf("MinContentHeight() = %d, want 9", got)
	}
	if got := MinContentHeight(nil, grid.Desktop); got != 0 {
		t.Errorf("MinContentHeight(nil) = %d, want 0", got)
	}
}

func TestCollisions(t *testing.T) {
	bricks := []*Brick{
		{ID: "a", Position: pos(0, 0, 4, 4)},
		{ID: "b", Position: pos(2, 2, 4, 4)},
		{ID: "c", Position: pos(3, 3, 1, 1)},
		{ID: "d", Position: pos(10, 0, 2, 2)},
	}
	want := []Collision{{A: "a", B: "b"}, {A: "a", B: "c"}, {A: "b", B: "c"}}
	if diff := cmp.Diff(want, Collisions(bricks, grid.Desktop)); diff != "" {
		t.Errorf("Collisions mismatch (-want +got):\n%s", diff)
	}
}

func TestPageCollisions(t *testing.T) {
	p := samplePage()
	if got := p.PageCollisions(grid.Desktop); len(got) != 0 {
		t.Fatalf("sample page has collisions: %v", got)
	}

	hero := p.Sections[1]
	hero.Bricks[0].Position = pos(0, 5, 2, 2)
	cards := hero.Bricks[1]
	cards.Children = append(cards.Children, &Brick{ID: "card2", Type: "card", ParentID: "cards", Position: pos(3, 0, 6, 4)})

	want := []Collision{{A: "title", B: "cards"}, {A: "card", B: "card2"}}
	if diff := cmp.Diff(want, p.PageCollisions(grid.Desktop)); diff != "" {
		t.Errorf("PageCollisions mismatch (-want +got):\n%s", diff)
	}
}

package page

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/brickgrid/pkg/errors"
	"github.com/matzehuels/brickgrid/pkg/grid"
)

func pos(x, y int, w, h grid.Extent) Positions {
	r := grid.GridRect{X: x, Y: y, W: w, H: h}
	return Positions{Desktop: Position{GridRect: r}, Mobile: Position{GridRect: r}}
}

func samplePage() *Page {
	return &Page{
		ID:    "home",
		Title: "Home",
		Sections: []*Section{
			{
				ID:    "footer",
				Order: 2,
				Position: SectionPositions{
					Desktop: SectionSize{H: 4},
					Mobile:  SectionSize{H: 6},
				},
				Bricks: []*Brick{
					{ID: "copyright", Type: "text", Position: pos(0, 0, grid.Full, 2)},
				},
			},
			{
				ID:    "hero",
				Order: 1,
				Position: SectionPositions{
					Desktop: SectionSize{H: grid.Full},
					Mobile:  SectionSize{H: 20},
				},
				Bricks: []*Brick{
					{ID: "title", Type: "text", Position: pos(0, 0, 12, 2), Props: map[string]any{"text": "Hello"}},
					{
						ID:          "cards",
						Type:        "card-list",
						IsContainer: true,
						Position:    pos(0, 4, 24, 8),
						Datasource:  &Binding{Ref: "products"},
						Children: []*Brick{
							{ID: "card", Type: "card", ParentID: "cards", Position: pos(0, 0, 6, 4)},
						},
					},
				},
			},
		},
	}
}

func TestPositionsAt(t *testing.T) {
	p := Positions{
		Desktop: Position{GridRect: grid.GridRect{X: 1, W: 2, H: 3}},
		Mobile:  Position{GridRect: grid.GridRect{X: 4, W: 5, H: 6}},
	}
	if got := p.At(grid.Desktop).X; got != 1 {
		t.Errorf("At(desktop).X = %d, want 1", got)
	}
	if got := p.At(grid.Mobile).X; got != 4 {
		t.Errorf("At(mobile).X = %d, want 4", got)
	}

	p.At(grid.Mobile).ManualHeight = 300
	if p.Mobile.ManualHeight != 300 {
		t.Error("At should return a pointer into the record")
	}
	if p.Desktop.ManualHeight != 0 {
		t.Error("writing mobile must not touch desktop")
	}
}

func TestPositionJSON(t *testing.T) {
	in := `{"desktop":{"x":0,"y":1,"w":"full","h":3},"mobile":{"x":0,"y":2,"w":24,"h":5,"manualHeight":180,"minW":2,"maxW":6}}`
	var p Positions
	if err := json.Unmarshal([]byte(in), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := Positions{
		Desktop: Position{GridRect: grid.GridRect{X: 0, Y: 1, W: grid.Full, H: 3}},
		Mobile: Position{
			GridRect:     grid.GridRect{X: 0, Y: 2, W: 24, H: 5},
			ManualHeight: 180,
			MinW:         2,
			MaxW:         6,
		},
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("Positions mismatch (-want +got):\n%s", diff)
	}

	out, err := json.Marshal(p.Desktop)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `{"x":0,"y":1,"w":"full","h":3}` {
		t.Errorf("Marshal = %s", out)
	}
}

func TestNormalize(t *testing.T) {
	p := samplePage()
	p.Sections[1].Bricks[1].Children[0].ParentID = ""
	p.Normalize()

	if p.Sections[0].ID != "hero" || p.Sections[1].ID != "footer" {
		t.Errorf("sections not ordered: %s, %s", p.Sections[0].ID, p.Sections[1].ID)
	}
	if got := p.Sections[0].Bricks[1].Children[0].ParentID; got != "cards" {
		t.Errorf("child ParentID = %q, want cards", got)
	}
}

func TestFind(t *testing.T) {
	p := samplePage()

	loc, ok := p.Find("card")
	if !ok {
		t.Fatal("Find(card) not found")
	}
	if loc.Parent == nil || loc.Parent.ID != "cards" {
		t.Errorf("Parent = %v, want cards", loc.Parent)
	}
	if loc.Section.ID != "hero" || loc.Index != 0 {
		t.Errorf("Section = %s, Index = %d", loc.Section.ID, loc.Index)
	}
	if len(loc.Siblings()) != 1 {
		t.Errorf("Siblings() = %d bricks, want 1", len(loc.Siblings()))
	}

	loc, ok = p.Find("title")
	if !ok || loc.Parent != nil || loc.Index != 0 {
		t.Errorf("Find(title) = %+v, %v", loc, ok)
	}

	if _, ok := p.Find("missing"); ok {
		t.Error("Find(missing) should fail")
	}
	if p.Count() != 4 {
		t.Errorf("Count() = %d, want 4", p.Count())
	}
}

func TestContains(t *testing.T) {
	p := samplePage()
	loc, _ := p.Find("cards")
	if !loc.Brick.Contains("cards") || !loc.Brick.Contains("card") {
		t.Error("container should contain itself and its child")
	}
	if loc.Brick.Contains("title") {
		t.Error("container should not contain a sibling")
	}
	if got := len(loc.Brick.Descendants()); got != 1 {
		t.Errorf("Descendants() = %d, want 1", got)
	}
}

func TestClone(t *testing.T) {
	p := samplePage()
	p.Sections[1].Bricks[0].Props["nested"] = map[string]any{"list": []any{"a", "b"}}
	c := p.Clone()

	if diff := cmp.Diff(p, c); diff != "" {
		t.Fatalf("clone differs (-orig +clone):\n%s", diff)
	}

	c.Sections[1].Bricks[0].Props["text"] = "changed"
	c.Sections[1].Bricks[0].Props["nested"].(map[string]any)["list"].([]any)[0] = "z"
	c.Sections[1].Bricks[1].Children[0].Position.Desktop.X = 9
	c.Sections[1].Bricks[1].Datasource.Ref = "other"

	if p.Sections[1].Bricks[0].Props["text"] != "Hello" {
		t.Error("clone shares props")
	}
	if p.Sections[1].Bricks[0].Props["nested"].(map[string]any)["list"].([]any)[0] != "a" {
		t.Error("clone shares nested props")
	}
	if p.Sections[1].Bricks[1].Children[0].Position.Desktop.X != 0 {
		t.Error("clone shares children")
	}
	if p.Sections[1].Bricks[1].Datasource.Ref != "products" {
		t.Error("clone shares binding")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Page)
		wantErr bool
	}{
		{"valid", func(*Page) {}, false},
		{"overlap is allowed", func(p *Page) {
			p.Sections[1].Bricks[0].Position = pos(0, 4, 4, 4)
		}, false},
		{"duplicate id", func(p *Page) {
			p.Sections[0].Bricks[0].ID = "title"
		}, true},
		{"brick id reuses section id", func(p *Page) {
			p.Sections[0].Bricks[0].ID = "hero"
		}, true},
		{"negative origin", func(p *Page) {
			p.Sections[1].Bricks[0].Position.Mobile.X = -1
		}, true},
		{"full height brick", func(p *Page) {
			p.Sections[1].Bricks[0].Position.Desktop.H = grid.Full
		}, true},
		{"bad type", func(p *Page) {
			p.Sections[1].Bricks[0].Type = "Hero Image"
		}, true},
		{"min above max", func(p *Page) {
			p.Sections[1].Bricks[0].Position.Desktop.MinW = 8
			p.Sections[1].Bricks[0].Position.Desktop.MaxW = 4
		}, true},
		{"bound non-container", func(p *Page) {
			p.Sections[1].Bricks[0].Datasource = &Binding{Ref: "products"}
		}, true},
		{"malformed ref", func(p *Page) {
			p.Sections[1].Bricks[1].Datasource = &Binding{Ref: "a\x00b"}
		}, true},
		{"children on non-container", func(p *Page) {
			p.Sections[1].Bricks[1].IsContainer = false
		}, true},
		{"wrong parent id", func(p *Page) {
			p.Sections[1].Bricks[1].Children[0].ParentID = "title"
		}, true},
		{"top level with parent", func(p *Page) {
			p.Sections[1].Bricks[0].ParentID = "cards"
		}, true},
		{"zero section height", func(p *Page) {
			p.Sections[0].Position.Mobile.H = 0
		}, true},
		{"empty page id", func(p *Page) {
			p.ID = ""
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := samplePage()
			tt.mutate(p)
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidDocument) {
				t.Errorf("code = %s, want INVALID_DOCUMENT", errors.GetCode(err))
			}
		})
	}
}

func TestValidateBrick(t *testing.T) {
	tests := []struct {
		name  string
		brick *Brick
		code  errors.Code
	}{
		{"ok", &Brick{ID: "a", Type: "text", Position: pos(0, 0, 2, 2)}, ""},
		{"bound container", &Brick{ID: "a", Type: "card-list", IsContainer: true, Position: pos(0, 0, 4, 4), Datasource: &Binding{Ref: "products"}}, ""},
		{"empty id", &Brick{Type: "text", Position: pos(0, 0, 2, 2)}, errors.ErrCodeInvalidInput},
		{"zero width", &Brick{ID: "a", Type: "text", Position: pos(0, 0, 0, 2)}, errors.ErrCodeInvalidPosition},
		{"bound leaf", &Brick{ID: "a", Type: "text", Position: pos(0, 0, 2, 2), Datasource: &Binding{Ref: "products"}}, errors.ErrCodeInvalidParent},
		{"empty ref", &Brick{ID: "a", Type: "card-list", IsContainer: true, Position: pos(0, 0, 4, 4), Datasource: &Binding{}}, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBrick(tt.brick)
			if tt.code == "" {
				if err != nil {
					t.Fatalf("ValidateBrick() = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("ValidateBrick() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	p := samplePage()
	p.Sections[1].Bricks[0].Type = ""
	p.Sections[0].Bricks[0].Position.Desktop.W = 0

	err := p.Validate()
	var ve *ValidationError
	if !asValidation(err, &ve) {
		t.Fatalf("Validate() = %v, want *ValidationError cause", err)
	}
	if len(ve.Problems) != 2 {
		t.Errorf("Problems = %v, want 2", ve.Problems)
	}
}

func asValidation(err error, target **ValidationError) bool {
	e, ok := err.(*errors.Error)
	if !ok {
		return false
	}
	v, ok := e.Cause.(*ValidationError)
	*target = v
	return ok
}

package materialize

import (
	"github.com/matzehuels/brickgrid/pkg/grid"
	"github.com/matzehuels/brickgrid/pkg/page"
)

// Cell is a resolved grid rectangle.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Item is one entry of a render list.
type Item struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Section  string `json:"section"`
	ParentID string `json:"parentId,omitempty"`
	Depth    int    `json:"depth"`

	Rect         Cell           `json:"rect"`
	ManualHeight float64        `json:"manualHeight,omitempty"`
	Props        map[string]any `json:"props,omitempty"`

	// Source is the bound container an instance was materialized from.
	Source string `json:"source,omitempty"`
}

// RenderList flattens the expanded page for bp in document order: sections
// by order, then every brick before its children. Widths are resolved
// against the breakpoint's columns and props are the effective props at bp.
func (x *Expansion) RenderList(bp grid.Breakpoint) ([]Item, error) {
	var (
		items  []Item
		err    error
		depth  = make(map[string]int)
		source = make(map[string]string)
	)
	x.Page.Walk(func(s *page.Section, parent, b *page.Brick) bool {
		item := Item{ID: b.ID, Type: b.Type, Section: s.ID}
		if parent != nil {
			item.ParentID = parent.ID
			item.Depth = depth[parent.ID] + 1
			if _, bound := x.Snapshots[parent.ID]; bound {
				item.Source = parent.ID
			} else {
				item.Source = source[parent.ID]
			}
		}
		depth[b.ID] = item.Depth
		source[b.ID] = item.Source

		pos := b.Position.At(bp)
		r := pos.GridRect.Resolve(bp.Columns())
		item.Rect = Cell{X: r.X, Y: r.Y, W: r.W, H: r.H}
		if bp == grid.Mobile {
			item.ManualHeight = pos.ManualHeight
		}
		if item.Props, err = b.EffectiveProps(bp); err != nil {
			return false
		}
		items = append(items, item)
		return true
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

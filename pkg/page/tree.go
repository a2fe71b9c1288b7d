package page

// Visit is called for every brick during a walk. parent is nil for
// section-level bricks. Returning false stops the walk.
type Visit func(s *Section, parent, b *Brick) bool

// Walk visits every brick of the page depth-first in document order.
func (p *Page) Walk(fn Visit) {
	for _, s := range p.Sections {
		if !walk(s, nil, s.Bricks, fn) {
			return
		}
	}
}

func walk(s *Section, parent *Brick, bricks []*Brick, fn Visit) bool {
	for _, b := range bricks {
		if !fn(s, parent, b) {
			return false
		}
		if !walk(s, b, b.Children, fn) {
			return false
		}
	}
	return true
}

// Location is where a brick lives in the tree.
type Location struct {
	Section *Section
	Parent  *Brick // nil for section-level bricks
	Brick   *Brick
	Index   int
}

// Siblings returns the list that holds the brick.
func (l Location) Siblings() []*Brick {
	if l.Parent != nil {
		return l.Parent.Children
	}
	return l.Section.Bricks
}

// Find locates the brick with the given id.
func (p *Page) Find(id string) (Location, bool) {
	var loc Location
	found := false
	for _, s := range p.Sections {
		walk(s, nil, s.Bricks, func(s *Section, parent, b *Brick) bool {
			if b.ID != id {
				return true
			}
			list := s.Bricks
			if parent != nil {
				list = parent.Children
			}
			loc = Location{Section: s, Parent: parent, Brick: b, Index: indexOf(list, b)}
			found = true
			return false
		})
		if found {
			break
		}
	}
	return loc, found
}

// Section returns the section with the given id.
func (p *Page) Section(id string) (*Section, bool) {
	for _, s := range p.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// Contains reports whether id names b itself or one of its descendants.
func (b *Brick) Contains(id string) bool {
	if b.ID == id {
		return true
	}
	for _, c := range b.Children {
		if c.Contains(id) {
			return true
		}
	}
	return false
}

// Descendants returns every brick below b, depth-first.
func (b *Brick) Descendants() []*Brick {
	var out []*Brick
	for _, c := range b.Children {
		out = append(out, c)
		out = append(out, c.Descendants()...)
	}
	return out
}

// Count returns the number of bricks on the page, children included.
func (p *Page) Count() int {
	n := 0
	p.Walk(func(*Section, *Brick, *Brick) bool {
		n++
		return true
	})
	return n
}

func indexOf(list []*Brick, b *Brick) int {
	for i, x := range list {
		if x == b {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the page.
func (p *Page) Clone() *Page {
	if p == nil {
		return nil
	}
	out := &Page{ID: p.ID, Title: p.Title}
	if p.Sections != nil {
		out.Sections = make([]*Section, len(p.Sections))
		for i, s := range p.Sections {
			out.Sections[i] = s.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the section.
func (s *Section) Clone() *Section {
	if s == nil {
		return nil
	}
	out := *s
	out.Bricks = cloneBricks(s.Bricks)
	return &out
}

// Clone returns a deep copy of the brick and its descendants.
func (b *Brick) Clone() *Brick {
	if b == nil {
		return nil
	}
	out := *b
	out.Props = cloneMap(b.Props)
	out.MobileProps = cloneMap(b.MobileProps)
	if b.Datasource != nil {
		ds := *b.Datasource
		if ds.Sample != nil {
			ds.Sample = make([]map[string]any, len(b.Datasource.Sample))
			for i, row := range b.Datasource.Sample {
				ds.Sample[i] = cloneMap(row)
			}
		}
		out.Datasource = &ds
	}
	out.Children = cloneBricks(b.Children)
	return &out
}

func cloneBricks(in []*Brick) []*Brick {
	if in == nil {
		return nil
	}
	out := make([]*Brick, len(in))
	for i, b := range in {
		out[i] = b.Clone()
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = cloneValue(x)
		}
		return out
	default:
		return v
	}
}

package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/brickgrid/pkg/errors"
	"github.com/matzehuels/brickgrid/pkg/grid"
	"github.com/matzehuels/brickgrid/pkg/manifest"
	"github.com/matzehuels/brickgrid/pkg/page"
)

// Move sets the grid origin of one brick.
type Move struct {
	ID string     `json:"id"`
	To grid.Point `json:"to"`
}

// MoveBrick sets the origin of a brick at bp. It fails with
// INVALID_POSITION when the origin is negative. Overlapping siblings do not
// block the move.
func (s *Store) MoveBrick(id string, to grid.Point, bp grid.Breakpoint) error {
	return s.MoveBricks([]Move{{ID: id, To: to}}, bp)
}

// MoveBricks moves several bricks at once. Either every move is applied or,
// if any of them is invalid, none is.
func (s *Store) MoveBricks(moves []Move, bp grid.Breakpoint) (err error) {
	start := time.Now()
	defer func() { s.observe(OpMove, len(moves), start, err) }()

	if !bp.Valid() {
		return errors.New(errors.ErrCodeInvalidBreakpoint, "unknown breakpoint %q", bp)
	}
	if len(moves) == 0 {
		return nil
	}

	s.mu.Lock()
	targets := make([]*page.Position, len(moves))
	seen := make(map[string]bool, len(moves))
	for i, m := range moves {
		if m.To.X < 0 || m.To.Y < 0 {
			s.mu.Unlock()
			return errors.New(errors.ErrCodeInvalidPosition,
				"brick %q: origin (%d,%d) is negative", m.ID, m.To.X, m.To.Y)
		}
		if seen[m.ID] {
			s.mu.Unlock()
			return errors.New(errors.ErrCodeInvalidInput, "brick %q moved twice", m.ID)
		}
		seen[m.ID] = true
		loc, ferr := s.find(m.ID)
		if ferr != nil {
			s.mu.Unlock()
			return ferr
		}
		targets[i] = loc.Brick.Position.At(bp)
	}

	ids := make([]string, len(moves))
	for i, m := range moves {
		targets[i].X, targets[i].Y = m.To.X, m.To.Y
		ids[i] = m.ID
	}
	ev := s.commit(OpMove, bp, ids)
	s.mu.Unlock()

	s.notify(ev)
	return nil
}

// ResizeOption adjusts a resize command.
type ResizeOption func(*resizeOptions)

type resizeOptions struct {
	origin       *grid.Point
	manualHeight *float64
}

// WithOrigin moves the brick origin in the same commit, as needed when a
// north or west edge is dragged.
func WithOrigin(p grid.Point) ResizeOption {
	return func(o *resizeOptions) { o.origin = &p }
}

// WithManualHeight records a pixel height override; zero clears it.
func WithManualHeight(px float64) ResizeOption {
	return func(o *resizeOptions) { o.manualHeight = &px }
}

// ResizeBrick sets the size of a brick at bp, clamped to the effective
// bounds: the position's own bounds, then the manifest's, then the
// defaults. It fails with OUT_OF_BOUNDS only when those bounds have
// min > max. The committed position is returned.
func (s *Store) ResizeBrick(id string, size grid.Size, bp grid.Breakpoint, opts ...ResizeOption) (_ page.Position, err error) {
	start := time.Now()
	defer func() { s.observe(OpResize, 1, start, err) }()

	if !bp.Valid() {
		return page.Position{}, errors.New(errors.ErrCodeInvalidBreakpoint, "unknown breakpoint %q", bp)
	}
	var o resizeOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.origin != nil && (o.origin.X < 0 || o.origin.Y < 0) {
		return page.Position{}, errors.New(errors.ErrCodeInvalidPosition,
			"brick %q: origin (%d,%d) is negative", id, o.origin.X, o.origin.Y)
	}
	if o.manualHeight != nil && *o.manualHeight < 0 {
		return page.Position{}, errors.New(errors.ErrCodeInvalidPosition,
			"brick %q: manual height %.1f is negative", id, *o.manualHeight)
	}

	s.mu.Lock()
	loc, err := s.find(id)
	if err != nil {
		s.mu.Unlock()
		return page.Position{}, err
	}
	pos := loc.Brick.Position.At(bp)
	limits, err := manifest.Effective(
		manifest.Lookup(s.manifests, loc.Brick.Type),
		manifest.Bounds{MinW: pos.MinW, MaxW: pos.MaxW, MinH: pos.MinH, MaxH: pos.MaxH},
		bp.Columns(),
	)
	if err != nil {
		s.mu.Unlock()
		return page.Position{}, errors.Wrap(errors.ErrCodeOutOfBounds, err, "resize %q", id)
	}

	clamped := limits.Clamp(size)
	// A full width stays full unless the resize changed it.
	if !pos.W.IsFull() || clamped.W != pos.W.Resolve(bp.Columns()) {
		pos.W = grid.Extent(clamped.W)
	}
	pos.H = grid.Extent(clamped.H)
	if o.origin != nil {
		pos.X, pos.Y = o.origin.X, o.origin.Y
	}
	if o.manualHeight != nil {
		pos.ManualHeight = *o.manualHeight
	}
	out := *pos
	ev := s.commit(OpResize, bp, []string{id})
	s.mu.Unlock()

	s.notify(ev)
	return out, nil
}

// Reparent moves a brick to position index of a new list. newParentID may
// name a container brick, a section, or be empty for the top level of the
// brick's current section. The index is clamped to the target list.
//
// It fails with CYCLIC_PARENT when the target is the brick itself or one of
// its descendants and with INVALID_PARENT when the target is a brick that is
// not a container.
func (s *Store) Reparent(id, newParentID string, index int) (err error) {
	start := time.Now()
	defer func() { s.observe(OpReparent, 1, start, err) }()

	s.mu.Lock()
	loc, err := s.find(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if newParentID != "" && loc.Brick.Contains(newParentID) {
		s.mu.Unlock()
		return errors.New(errors.ErrCodeCyclicParent,
			"cannot move %q into %q: target is the brick or one of its descendants", id, newParentID)
	}

	dest, err := s.destination(newParentID, loc.Section)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	detach(loc)
	dest.insert(loc.Brick, index)
	ev := s.commit(OpReparent, "", []string{id})
	s.mu.Unlock()

	s.notify(ev)
	return nil
}

// Insert adds a brick (and any children it carries) at position index of
// the list named by parentID: a container brick, a section, or empty for the
// first section. A brick without id gets a random UUID. The stored id is
// returned.
func (s *Store) Insert(b *page.Brick, parentID string, index int) (_ string, err error) {
	start := time.Now()
	defer func() { s.observe(OpInsert, 1, start, err) }()

	if b == nil {
		return "", errors.New(errors.ErrCodeInvalidInput, "brick is nil")
	}
	nb := b.Clone()
	if nb.ID == "" {
		nb.ID = uuid.NewString()
	}
	if err := validateSubtree(nb); err != nil {
		return "", err
	}

	s.mu.Lock()
	for _, x := range append([]*page.Brick{nb}, nb.Descendants()...) {
		if _, exists := s.page.Find(x.ID); exists {
			s.mu.Unlock()
			return "", errors.New(errors.ErrCodeDuplicateID, "brick id %q already in use", x.ID)
		}
		if _, exists := s.page.Section(x.ID); exists {
			s.mu.Unlock()
			return "", errors.New(errors.ErrCodeDuplicateID, "id %q already names a section", x.ID)
		}
	}

	var home *page.Section
	if parentID == "" {
		secs := s.page.OrderedSections()
		if len(secs) == 0 {
			s.mu.Unlock()
			return "", errors.New(errors.ErrCodeNotFound, "page has no section to insert into")
		}
		home = secs[0]
	}
	dest, err := s.destination(parentID, home)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}

	dest.insert(nb, index)
	ids := []string{nb.ID}
	for _, d := range nb.Descendants() {
		ids = append(ids, d.ID)
	}
	ev := s.commit(OpInsert, "", ids)
	s.mu.Unlock()

	s.notify(ev)
	return nb.ID, nil
}

// Remove deletes a brick and all of its descendants.
func (s *Store) Remove(id string) (err error) {
	start := time.Now()
	removed := 0
	defer func() { s.observe(OpRemove, removed, start, err) }()

	s.mu.Lock()
	loc, err := s.find(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	ids := []string{id}
	for _, d := range loc.Brick.Descendants() {
		ids = append(ids, d.ID)
	}
	detach(loc)
	removed = len(ids)
	ev := s.commit(OpRemove, "", ids)
	s.mu.Unlock()

	s.notify(ev)
	return nil
}

// target is a resolved destination list.
type target struct {
	section   *page.Section
	container *page.Brick
}

func (t target) insert(b *page.Brick, index int) {
	list := t.section.Bricks
	parentID := ""
	if t.container != nil {
		list = t.container.Children
		parentID = t.container.ID
	}
	index = min(max(index, 0), len(list))
	list = append(list, nil)
	copy(list[index+1:], list[index:])
	list[index] = b

	if t.container != nil {
		t.container.Children = list
	} else {
		t.section.Bricks = list
	}
	b.ParentID = parentID
	setChildParents(b)
}

func setChildParents(b *page.Brick) {
	for _, c := range b.Children {
		c.ParentID = b.ID
		setChildParents(c)
	}
}

// destination resolves id to a list. An empty id selects the top level of
// home.
func (s *Store) destination(id string, home *page.Section) (target, error) {
	if id == "" {
		return target{section: home}, nil
	}
	if sec, ok := s.page.Section(id); ok {
		return target{section: sec}, nil
	}
	loc, ok := s.page.Find(id)
	if !ok {
		return target{}, errors.New(errors.ErrCodeNotFound, "no section or container %q", id)
	}
	if !loc.Brick.IsContainer {
		return target{}, errors.New(errors.ErrCodeInvalidParent, "brick %q is not a container", id)
	}
	return target{section: loc.Section, container: loc.Brick}, nil
}

// detach removes the brick at loc from its list.
func detach(loc page.Location) {
	if loc.Parent != nil {
		loc.Parent.Children = remove(loc.Parent.Children, loc.Index)
		return
	}
	loc.Section.Bricks = remove(loc.Section.Bricks, loc.Index)
}

func remove(list []*page.Brick, i int) []*page.Brick {
	out := make([]*page.Brick, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}

// validateSubtree checks a brick about to be inserted, and its
// descendants, with the per-brick rules of page.Validate.
func validateSubtree(b *page.Brick) error {
	seen := make(map[string]bool)
	var check func(b *page.Brick) error
	check = func(b *page.Brick) error {
		if err := page.ValidateBrick(b); err != nil {
			return err
		}
		if seen[b.ID] {
			return errors.New(errors.ErrCodeDuplicateID, "brick id %q appears twice", b.ID)
		}
		seen[b.ID] = true
		for _, c := range b.Children {
			if err := check(c); err != nil {
				return err
			}
		}
		return nil
	}
	return check(b)
}

package gesture

import (
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/brickgrid/pkg/errors"
	"github.com/matzehuels/brickgrid/pkg/grid"
	"github.com/matzehuels/brickgrid/pkg/manifest"
	"github.com/matzehuels/brickgrid/pkg/observability"
	"github.com/matzehuels/brickgrid/pkg/page"
	"github.com/matzehuels/brickgrid/pkg/store"
)

// Edge is a set of resize handles.
type Edge uint8

const (
	EdgeN Edge = 1 << iota
	EdgeS
	EdgeE
	EdgeW

	allEdges = EdgeN | EdgeS | EdgeE | EdgeW
)

// Has reports whether e includes any of x.
func (e Edge) Has(x Edge) bool { return e&x != 0 }

// Horizontal reports whether e moves a vertical side (east or west).
func (e Edge) Horizontal() bool { return e.Has(EdgeE | EdgeW) }

// Vertical reports whether e moves a horizontal side (north or south).
func (e Edge) Vertical() bool { return e.Has(EdgeN | EdgeS) }

func (e Edge) String() string {
	var b strings.Builder
	for _, x := range []struct {
		edge Edge
		name string
	}{{EdgeN, "n"}, {EdgeS, "s"}, {EdgeE, "e"}, {EdgeW, "w"}} {
		if e.Has(x.edge) {
			b.WriteString(x.name)
		}
	}
	return b.String()
}

// ParseEdges parses a handle name such as "e", "s" or "se".
func ParseEdges(s string) (Edge, error) {
	var e Edge
	for _, r := range strings.ToLower(s) {
		switch r {
		case 'n':
			e |= EdgeN
		case 's':
			e |= EdgeS
		case 'e':
			e |= EdgeE
		case 'w':
			e |= EdgeW
		default:
			return 0, errors.New(errors.ErrCodeInvalidInput, "unknown resize edge %q in %q", r, s)
		}
	}
	if e == 0 || (e.Has(EdgeN) && e.Has(EdgeS)) || (e.Has(EdgeE) && e.Has(EdgeW)) {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid resize handle %q", s)
	}
	return e, nil
}

// ResizeState is a state of the resize machine.
type ResizeState int

const (
	ResizeIdle ResizeState = iota
	Resizing
	ResizeCommitted
)

func (s ResizeState) String() string {
	switch s {
	case Resizing:
		return "resizing"
	case ResizeCommitted:
		return "committed"
	default:
		return "idle"
	}
}

// ResizeStart describes a pointer-down on a resize handle.
type ResizeStart struct {
	BrickID    string
	Edges      Edge
	Pointer    Pointer
	Breakpoint grid.Breakpoint

	// Container is the parent's outer box in page pixels and PaddingX its
	// horizontal padding.
	Container grid.PixelRect
	PaddingX  float64
}

// ResizeEngine runs one resize gesture at a time.
type ResizeEngine struct {
	layout  Layout
	configs ConfigSource
	logger  *log.Logger

	state     ResizeState
	start     ResizeStart
	rect      grid.GridRect
	caps      manifest.Capabilities
	limits    manifest.Limits
	candidate grid.PixelRect
	began     time.Time
	overlay   Overlay
}

// NewResizeEngine creates an idle resize engine committing to layout.
func NewResizeEngine(layout Layout, configs ConfigSource, opts ...Option) *ResizeEngine {
	o := buildOptions(opts)
	return &ResizeEngine{layout: layout, configs: configs, logger: o.logger}
}

// State returns the current state.
func (e *ResizeEngine) State() ResizeState { return e.state }

// Overlay returns a copy of the live overlay.
func (e *ResizeEngine) Overlay() Overlay { return e.overlay.clone() }

// Begin enters the resizing state. Only edges allowed by the brick's
// manifest are accepted (GESTURE_DISABLED otherwise); on mobile only the
// height may change. Inconsistent bounds fail with OUT_OF_BOUNDS.
func (e *ResizeEngine) Begin(s ResizeStart) error {
	if e.state != ResizeIdle {
		return errors.New(errors.ErrCodeGestureBusy, "a resize is already %s", e.state)
	}
	if !s.Breakpoint.Valid() {
		return errors.New(errors.ErrCodeInvalidBreakpoint, "unknown breakpoint %q", s.Breakpoint)
	}
	if s.Edges == 0 || s.Edges&^allEdges != 0 {
		return errors.New(errors.ErrCodeInvalidInput, "invalid resize edges %08b", uint8(s.Edges))
	}

	b, ok := e.layout.Brick(s.BrickID)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "brick %q not found", s.BrickID)
	}
	m, err := e.layout.Manifest(s.BrickID)
	if err != nil {
		return err
	}
	caps := m.Capabilities()
	if s.Edges.Horizontal() && (!caps.Horizontal() || s.Breakpoint == grid.Mobile) {
		return errors.New(errors.ErrCodeGestureDisabled, "%s cannot be resized horizontally at %s", b.Type, s.Breakpoint)
	}
	if s.Edges.Vertical() && !caps.Vertical() {
		return errors.New(errors.ErrCodeGestureDisabled, "%s cannot be resized vertically", b.Type)
	}

	pos := b.Position.At(s.Breakpoint)
	limits, err := manifest.Effective(m,
		manifest.Bounds{MinW: pos.MinW, MaxW: pos.MaxW, MinH: pos.MinH, MaxH: pos.MaxH},
		s.Breakpoint.Columns())
	if err != nil {
		return err
	}

	rect := pos.GridRect
	rect.W = grid.Extent(rect.W.Resolve(s.Breakpoint.Columns()))

	e.state = Resizing
	e.start = s
	e.rect = rect
	e.caps = caps
	e.limits = limits
	e.candidate = grid.PixelRect{}
	e.began = time.Now()
	e.overlay = Overlay{}
	observability.Gesture().OnGestureStart("resize", string(s.Breakpoint))
	e.logger.Debug("resize started", "brick", b.ID, "edges", s.Edges)
	return nil
}

// Move processes a pointer move and returns the live overlay. The
// candidate rect follows the active edges, honours the grow and shrink
// capabilities, is clamped to the size limits and to the parent box, and is
// not snapped. It returns false when no resize is active or no grid config
// is known yet.
func (e *ResizeEngine) Move(p Pointer) (Overlay, bool) {
	if e.state != Resizing {
		return Overlay{}, false
	}
	cfg, ok := e.configs.Config()
	if !ok {
		return Overlay{}, false
	}

	base := grid.GridRectToPixel(e.rect, cfg)
	dx := p.X - e.start.Pointer.X
	dy := p.Y - e.start.Pointer.Y
	edges := e.start.Edges

	w, h := base.W, base.H
	switch {
	case edges.Has(EdgeE):
		w = base.W + dx
	case edges.Has(EdgeW):
		w = base.W - dx
	}
	switch {
	case edges.Has(EdgeS):
		h = base.H + dy
	case edges.Has(EdgeN):
		h = base.H - dy
	}

	w = clampLength(w, base.W, e.caps.CanGrowHorizontal, e.caps.CanShrinkHorizontal,
		float64(e.limits.MinW)*cfg.ColWidth, float64(e.limits.MaxW)*cfg.ColWidth)
	h = clampLength(h, base.H, e.caps.CanGrowVertical, e.caps.CanShrinkVertical,
		float64(e.limits.MinH)*cfg.RowHeight, float64(e.limits.MaxH)*cfg.RowHeight)

	cols, rows := contentBox(cfg)
	x, y := base.X, base.Y
	if edges.Has(EdgeW) {
		x = base.Right() - w
		if x < 0 {
			w, x = w+x, 0
		}
	} else if limit := float64(cols) * cfg.ColWidth; x+w > limit {
		w = limit - x
	}
	if edges.Has(EdgeN) {
		y = base.Bottom() - h
		if y < 0 {
			h, y = h+y, 0
		}
	} else if rows > 0 {
		if limit := float64(rows) * cfg.RowHeight; y+h > limit {
			h = limit - y
		}
	}

	e.candidate = grid.PixelRect{X: x, Y: y, W: w, H: h}
	id := e.start.BrickID
	e.overlay = Overlay{Rects: map[string]grid.PixelRect{
		id: e.candidate.Translate(e.start.Container.X+e.start.PaddingX, e.start.Container.Y),
	}}
	return e.overlay.clone(), true
}

func clampLength(v, base float64, grow, shrink bool, lo, hi float64) float64 {
	if !grow {
		v = math.Min(v, base)
	}
	if !shrink {
		v = math.Max(v, base)
	}
	return math.Min(math.Max(v, lo), hi)
}

// End processes the pointer-up: the candidate is snapped to whole cells and
// committed with ResizeBrick, together with the new origin for north and
// west edges and, on mobile, the pixel height as a manual override. The
// committed position is returned, or nil when the gesture was cancelled or
// changed nothing.
func (e *ResizeEngine) End(p Pointer) (*page.Position, error) {
	if e.state != Resizing {
		return nil, errors.New(errors.ErrCodeGestureIdle, "no resize in progress")
	}
	if _, ok := e.Move(p); !ok {
		e.logger.Debug("resize released before grid config was known")
		e.finish(outcomeCancelled)
		return nil, nil
	}
	cfg, _ := e.configs.Config()
	edges := e.start.Edges
	r := e.rect
	c := e.candidate

	x, y, w, h := r.X, r.Y, int(r.W), int(r.H)
	switch {
	case edges.Has(EdgeW):
		x = int(math.Round(c.X / cfg.ColWidth))
		w = r.X + int(r.W) - x
	case edges.Has(EdgeE):
		w = grid.SnapLength(c.W, cfg.ColWidth)
	}
	switch {
	case edges.Has(EdgeN):
		y = int(math.Round(c.Y / cfg.RowHeight))
		h = r.Y + int(r.H) - y
	case edges.Has(EdgeS):
		h = grid.SnapLength(c.H, cfg.RowHeight)
	}

	mobile := e.start.Breakpoint == grid.Mobile
	if x == r.X && y == r.Y && w == int(r.W) && h == int(r.H) && !mobile {
		e.finish(outcomeNoop)
		return nil, nil
	}

	var opts []store.ResizeOption
	if edges.Has(EdgeN | EdgeW) {
		opts = append(opts, store.WithOrigin(grid.Point{X: x, Y: y}))
	}
	if mobile {
		opts = append(opts, store.WithManualHeight(c.H))
	}

	e.state = ResizeCommitted
	pos, err := e.layout.ResizeBrick(e.start.BrickID, grid.Size{W: max(w, 1), H: max(h, 1)}, e.start.Breakpoint, opts...)
	if err != nil {
		e.logger.Warn("resize commit rejected", "brick", e.start.BrickID, "err", err)
		e.finish(outcomeFailed)
		return nil, err
	}
	e.finish(outcomeCommitted)
	return &pos, nil
}

// Cancel aborts the active resize, if any, without touching the store.
func (e *ResizeEngine) Cancel() {
	if e.state == Resizing {
		e.finish(outcomeCancelled)
	}
}

// BreakpointChanged cancels the resize when the active breakpoint changes.
func (e *ResizeEngine) BreakpointChanged(bp grid.Breakpoint) {
	if e.state == Resizing && bp != e.start.Breakpoint {
		e.Cancel()
	}
}

// Unmount cancels the resize when the resized brick goes away.
func (e *ResizeEngine) Unmount(id string) {
	if e.state == Resizing && id == e.start.BrickID {
		e.Cancel()
	}
}

func (e *ResizeEngine) finish(outcome string) {
	e.logger.Debug("resize finished", "brick", e.start.BrickID, "outcome", outcome)
	observability.Gesture().OnGestureEnd("resize", outcome, time.Since(e.began))
	e.overlay = Overlay{}
	e.candidate = grid.PixelRect{}
	e.start = ResizeStart{}
	e.state = ResizeIdle
}

package gesture

import (
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/brickgrid/pkg/errors"
	"github.com/matzehuels/brickgrid/pkg/grid"
	"github.com/matzehuels/brickgrid/pkg/observability"
	"github.com/matzehuels/brickgrid/pkg/store"
)

// DragState is a state of the drag machine.
type DragState int

const (
	DragIdle DragState = iota
	Dragging
	DragCommitting
	DragCancelled
)

func (s DragState) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case DragCommitting:
		return "committing"
	case DragCancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// DragStart describes a pointer-down on a brick's drag handle.
type DragStart struct {
	// BrickID is the brick whose handle was grabbed.
	BrickID string

	// Group lists the other selected bricks that move along. The
	// initiator may be included; duplicates are ignored.
	Group []string

	Pointer    Pointer
	Breakpoint grid.Breakpoint

	// Container is the parent's outer box in page pixels and PaddingX its
	// horizontal padding.
	Container grid.PixelRect
	PaddingX  float64
}

type member struct {
	id   string
	rect grid.GridRect
}

// DragEngine runs one drag gesture at a time.
type DragEngine struct {
	layout  Layout
	configs ConfigSource
	logger  *log.Logger

	state   DragState
	start   DragStart
	members []member
	began   time.Time
	overlay Overlay
}

// NewDragEngine creates an idle drag engine committing to layout.
func NewDragEngine(layout Layout, configs ConfigSource, opts ...Option) *DragEngine {
	o := buildOptions(opts)
	return &DragEngine{layout: layout, configs: configs, logger: o.logger}
}

// State returns the current state.
func (e *DragEngine) State() DragState { return e.state }

// Overlay returns a copy of the live overlay.
func (e *DragEngine) Overlay() Overlay { return e.overlay.clone() }

// Begin enters the dragging state. It fails with GESTURE_DISABLED outside
// the desktop breakpoint, GESTURE_BUSY while another drag is active and
// NOT_FOUND for unknown bricks. Group members must share the initiator's
// parent.
func (e *DragEngine) Begin(s DragStart) error {
	if s.Breakpoint != grid.Desktop {
		return errors.New(errors.ErrCodeGestureDisabled, "drag is only available on desktop, not %q", s.Breakpoint)
	}
	if e.state != DragIdle {
		return errors.New(errors.ErrCodeGestureBusy, "a drag is already %s", e.state)
	}

	lead, ok := e.layout.Brick(s.BrickID)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "brick %q not found", s.BrickID)
	}
	members := []member{{id: lead.ID, rect: lead.Rect(s.Breakpoint)}}
	seen := map[string]bool{lead.ID: true}
	for _, id := range s.Group {
		if seen[id] {
			continue
		}
		seen[id] = true
		b, ok := e.layout.Brick(id)
		if !ok {
			return errors.New(errors.ErrCodeNotFound, "group brick %q not found", id)
		}
		if b.ParentID != lead.ParentID {
			return errors.New(errors.ErrCodeInvalidInput,
				"group brick %q is not a sibling of %q", id, lead.ID)
		}
		members = append(members, member{id: b.ID, rect: b.Rect(s.Breakpoint)})
	}

	e.state = Dragging
	e.start = s
	e.members = members
	e.began = time.Now()
	e.overlay = Overlay{}
	observability.Gesture().OnGestureStart("drag", string(s.Breakpoint))
	e.logger.Debug("drag started", "brick", lead.ID, "group", len(members))
	return nil
}

// Move processes a pointer move. It returns the updated overlay and true,
// or false when no drag is active or the grid config is not yet known, in
// which case the move is ignored. The store is never touched.
func (e *DragEngine) Move(p Pointer) (Overlay, bool) {
	if e.state != Dragging {
		return Overlay{}, false
	}
	cfg, ok := e.configs.Config()
	if !ok {
		return Overlay{}, false
	}

	dxCells, dyCells := e.restrict(e.snap(p, cfg), cfg)
	dx := float64(dxCells) * cfg.ColWidth
	dy := float64(dyCells) * cfg.RowHeight

	rects := make(map[string]grid.PixelRect, len(e.members))
	for _, m := range e.members {
		r := grid.GridRectToContainer(m.rect, e.start.Container, cfg, e.start.PaddingX)
		rects[m.id] = r.Translate(dx, dy)
	}
	e.overlay = Overlay{DX: dx, DY: dy, Rects: rects}
	return e.overlay.clone(), true
}

// snap rounds the raw pointer delta to whole cells.
func (e *DragEngine) snap(p Pointer, cfg grid.Config) grid.Point {
	dx := p.X - e.start.Pointer.X
	dy := p.Y - e.start.Pointer.Y
	return grid.Point{
		X: int(math.Round(dx / cfg.ColWidth)),
		Y: int(math.Round(dy / cfg.RowHeight)),
	}
}

// restrict clamps a cell delta so the group envelope stays inside the
// parent's content box. The bottom is open when the height is unknown.
func (e *DragEngine) restrict(d grid.Point, cfg grid.Config) (int, int) {
	rects := make([]grid.GridRect, len(e.members))
	for i, m := range e.members {
		rects[i] = m.rect
	}
	env := grid.Envelope(rects)
	cols, rows := contentBox(cfg)

	dx := min(d.X, cols-(env.X+int(env.W)))
	dx = max(dx, -env.X)

	dy := d.Y
	if rows > 0 {
		dy = min(dy, rows-(env.Y+int(env.H)))
	}
	dy = max(dy, -env.Y)
	return dx, dy
}

// End processes the pointer-up. When dropInside is false the drop landed
// outside any valid container and the gesture is cancelled. Otherwise every
// member's final pixel rect is converted to a grid origin and all of them
// are committed with one MoveBricks call.
//
// End returns the committed moves, or nil when the gesture was cancelled or
// nothing moved. A store error is returned as is; the store is unchanged in
// that case.
func (e *DragEngine) End(p Pointer, dropInside bool) ([]store.Move, error) {
	if e.state != Dragging {
		return nil, errors.New(errors.ErrCodeGestureIdle, "no drag in progress")
	}
	if !dropInside {
		e.finish(DragCancelled, outcomeCancelled)
		return nil, nil
	}
	if _, ok := e.Move(p); !ok {
		e.logger.Debug("drag dropped before grid config was known")
		e.finish(DragCancelled, outcomeCancelled)
		return nil, nil
	}
	if e.overlay.DX == 0 && e.overlay.DY == 0 {
		e.finish(DragIdle, outcomeNoop)
		return nil, nil
	}

	e.state = DragCommitting
	cfg, _ := e.configs.Config()
	moves := make([]store.Move, len(e.members))
	for i, m := range e.members {
		g := grid.PixelRectToGrid(e.overlay.Rects[m.id], e.start.Container, cfg, e.start.PaddingX)
		moves[i] = store.Move{ID: m.id, To: g.Origin()}
	}

	if err := e.layout.MoveBricks(moves, e.start.Breakpoint); err != nil {
		e.logger.Warn("drag commit rejected", "brick", e.start.BrickID, "err", err)
		e.finish(DragCommitting, outcomeFailed)
		return nil, err
	}
	e.finish(DragCommitting, outcomeCommitted)
	return moves, nil
}

// Cancel aborts the active drag, if any, without touching the store.
func (e *DragEngine) Cancel() {
	if e.state == Dragging {
		e.finish(DragCancelled, outcomeCancelled)
	}
}

// BreakpointChanged cancels the drag when the active breakpoint changes.
func (e *DragEngine) BreakpointChanged(bp grid.Breakpoint) {
	if e.state == Dragging && bp != e.start.Breakpoint {
		e.logger.Debug("drag cancelled by breakpoint change", "to", bp)
		e.Cancel()
	}
}

// Unmount cancels the drag when a participating brick goes away.
func (e *DragEngine) Unmount(id string) {
	if e.state != Dragging {
		return
	}
	for _, m := range e.members {
		if m.id == id {
			e.logger.Debug("drag cancelled by unmount", "brick", id)
			e.Cancel()
			return
		}
	}
}

// finish discards the gesture. Cancelled and committing are passing states;
// the engine always comes to rest in idle.
func (e *DragEngine) finish(via DragState, outcome string) {
	e.logger.Debug("drag finished", "via", via, "outcome", outcome)
	observability.Gesture().OnGestureEnd("drag", outcome, time.Since(e.began))
	e.overlay = Overlay{}
	e.members = nil
	e.start = DragStart{}
	e.state = DragIdle
}

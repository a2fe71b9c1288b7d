package gesture

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/brickgrid/pkg/grid"
	"github.com/matzehuels/brickgrid/pkg/manifest"
	"github.com/matzehuels/brickgrid/pkg/page"
	"github.com/matzehuels/brickgrid/pkg/store"
)

// ConfigSource supplies the grid config of the container a gesture runs
// in. ok is false while the container is not measured.
type ConfigSource interface {
	Config() (cfg grid.Config, ok bool)
}

// StaticConfig is a ConfigSource with a fixed config.
type StaticConfig grid.Config

// Config implements ConfigSource.
func (c StaticConfig) Config() (grid.Config, bool) {
	cfg := grid.Config(c)
	return cfg, cfg.Valid()
}

// Layout is the part of the layout store the engines read and commit to.
// *store.Store implements it.
type Layout interface {
	Brick(id string) (*page.Brick, bool)
	Manifest(id string) (manifest.Manifest, error)
	MoveBricks(moves []store.Move, bp grid.Breakpoint) error
	ResizeBrick(id string, size grid.Size, bp grid.Breakpoint, opts ...store.ResizeOption) (page.Position, error)
}

var _ Layout = (*store.Store)(nil)

// Pointer is a pointer location in page pixels.
type Pointer struct {
	X, Y float64
}

// Overlay is the transient visual state of an active gesture.
type Overlay struct {
	// DX and DY are the drag translation shared by every member, zero for
	// resizes.
	DX, DY float64

	// Rects holds the live pixel rect of each participating brick in page
	// coordinates.
	Rects map[string]grid.PixelRect
}

// Empty reports whether the overlay carries nothing to draw.
func (o Overlay) Empty() bool { return len(o.Rects) == 0 }

func (o Overlay) clone() Overlay {
	out := Overlay{DX: o.DX, DY: o.DY}
	if o.Rects != nil {
		out.Rects = make(map[string]grid.PixelRect, len(o.Rects))
		for k, v := range o.Rects {
			out.Rects[k] = v
		}
	}
	return out
}

// Option configures an engine.
type Option func(*options)

type options struct {
	logger *log.Logger
}

// WithLogger sets the engine logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// Outcomes reported to observability hooks.
const (
	outcomeCommitted = "committed"
	outcomeCancelled = "cancelled"
	outcomeFailed    = "failed"
	outcomeNoop      = "noop"
)

// contentBox returns the container's content box in cells: its column count
// and, when the height is known, its row count (0 for unbounded).
func contentBox(cfg grid.Config) (cols, rows int) {
	cols = cfg.Columns
	if cfg.Height > 0 {
		rows = int(cfg.Height / cfg.RowHeight)
	}
	return cols, rows
}

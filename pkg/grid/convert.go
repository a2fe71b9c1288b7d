package grid

import "math"

// eps absorbs float noise so that an exact multiple of a cell size does not
// round up into the next cell.
const eps = 1e-6

// PixelRectToGrid converts a pixel rect inside container into grid cells.
//
// The container origin and the horizontal padding are subtracted first. The
// origin rounds to the nearest cell and is clamped to be non-negative; width
// and height round up (a brick never becomes narrower than its footprint),
// are at least one cell, and the width is capped at cfg.Columns.
//
// cfg must be valid; an invalid config yields the zero rect.
func PixelRectToGrid(rect, container PixelRect, cfg Config, paddingX float64) GridRect {
	if !cfg.Valid() {
		return GridRect{}
	}
	x := int(math.Round((rect.X - container.X - paddingX) / cfg.ColWidth))
	y := int(math.Round((rect.Y - container.Y) / cfg.RowHeight))
	w := ceilCells(rect.W, cfg.ColWidth)
	h := ceilCells(rect.H, cfg.RowHeight)

	return GridRect{
		X: max(x, 0),
		Y: max(y, 0),
		W: Extent(min(w, cfg.Columns)),
		H: Extent(h),
	}
}

// GridRectToPixel converts a grid rect into pixels relative to the
// container's content origin. A full width spans cfg.Columns; a full height
// spans cfg.Height, or a single row when the container height is unknown.
func GridRectToPixel(rect GridRect, cfg Config) PixelRect {
	h := float64(rect.H) * cfg.RowHeight
	if rect.H.IsFull() {
		h = cfg.Height
		if h <= 0 {
			h = cfg.RowHeight
		}
	}
	return PixelRect{
		X: float64(rect.X) * cfg.ColWidth,
		Y: float64(rect.Y) * cfg.RowHeight,
		W: float64(rect.W.Resolve(cfg.Columns)) * cfg.ColWidth,
		H: h,
	}
}

// GridRectToContainer is GridRectToPixel translated into the coordinate space
// of container, the exact inverse of PixelRectToGrid for the same container
// and padding.
func GridRectToContainer(rect GridRect, container PixelRect, cfg Config, paddingX float64) PixelRect {
	return GridRectToPixel(rect, cfg).Translate(container.X+paddingX, container.Y)
}

// GetBrickPosition is the pixel to grid entry point for drops that do not go
// through the drag engine (for example dragging a new brick from a library).
// The grid config is derived from the container bounds at bp.
func GetBrickPosition(element PixelRect, bp Breakpoint, container PixelRect, paddingX float64) (GridRect, error) {
	cfg, err := ConfigFor(bp, Measurement{Width: container.W, Height: container.H, PaddingX: paddingX})
	if err != nil {
		return GridRect{}, err
	}
	return PixelRectToGrid(element, container, cfg, paddingX), nil
}

// SnapDelta rounds a pixel delta to the nearest whole number of cells.
func SnapDelta(dx, dy float64, cfg Config) (float64, float64) {
	if !cfg.Valid() {
		return dx, dy
	}
	return math.Round(dx/cfg.ColWidth) * cfg.ColWidth, math.Round(dy/cfg.RowHeight) * cfg.RowHeight
}

// SnapLength rounds a pixel length to a whole number of cells of size unit,
// never below one cell.
func SnapLength(px, unit float64) int {
	if unit <= 0 {
		return 1
	}
	return max(int(math.Round(px/unit)), 1)
}

func ceilCells(px, unit float64) int {
	n := int(math.Ceil(px/unit - eps))
	return max(n, 1)
}

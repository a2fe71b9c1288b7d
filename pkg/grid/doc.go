// Package grid implements the coordinate model of the brick layout engine.
//
// # Overview
//
// Every page is laid out on a grid of [Columns] columns. Rows have a fixed
// pixel height ([RowHeight]); column width is derived from the rendered width
// of the container and therefore differs between the two breakpoints
// ([Desktop] and [Mobile]) even though the column count does not.
//
// Persisted positions are always integer grid units ([GridRect]). Pixels only
// exist while something is being rendered or manipulated, and are derived
// from a [Config] that is recomputed whenever the container is measured.
//
// # Conversion
//
// [PixelRectToGrid] maps a pixel rectangle inside a container to grid cells.
// Origins round to the nearest cell, sizes round up so a brick is never
// narrower than its visual footprint. [GridRectToPixel] is the inverse
// multiplication. The pair is lossy but stable: converting a grid rect to
// pixels and back yields the same rect.
//
//	cfg, _ := grid.ConfigFor(grid.Desktop, grid.Measurement{Width: 1200})
//	px := grid.GridRectToPixel(grid.GridRect{X: 2, Y: 1, W: 6, H: 4}, cfg)
//	r := grid.PixelRectToGrid(px, grid.PixelRect{}, cfg, 0) // {2 1 6 4}
//
// # Collision
//
// [Overlaps] is a plain axis-aligned bounding box test on resolved rects.
// Rectangles that share an edge do not overlap. A [Full] width spans
// every column.
//
// # Resolver
//
// [Resolver] keeps the [Config] of one container current. It is fed
// measurements (resize observations, style mutations, breakpoint changes)
// and debounces bursts of them before recomputing column width.
package grid

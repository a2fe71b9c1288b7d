// Package page defines the persisted layout model: pages, sections and
// bricks, with one grid position per breakpoint.
//
// # Model
//
// A [Page] holds ordered [Section] values. A section owns its top-level
// bricks, which are positioned on the section grid. A [Brick] with
// IsContainer set may own child bricks; children are laid out by their
// container and are only ever compared against siblings of the same
// container.
//
// Every brick carries a fixed two-field [Positions] record. Code that reads
// or writes geometry always names the breakpoint explicitly:
//
//	pos := b.Position.At(grid.Mobile)
//	pos.ManualHeight = 320
//
// # Collisions
//
// [HasAnyCollision], [BoundingBox] and [Collisions] answer collision
// queries over sibling bricks. Overlap is advisory: the layout store never
// rejects a commit because two bricks overlap, and these helpers exist to
// drive highlighting and reports.
//
// # Mobile props
//
// [Brick.EffectiveProps] applies MobileProps to Props as an RFC 7386 JSON
// merge patch, so a mobile override may add, replace or (with null) delete
// individual properties.
package page

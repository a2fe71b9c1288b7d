// Package store implements the layout store: the single mutable source of
// truth for a page's brick tree and geometry.
//
// # Commands
//
// Every command is atomic. It validates its complete input against the
// current tree first and only then mutates, so a failed command leaves the
// store exactly as it was:
//
//   - [Store.MoveBrick] and [Store.MoveBricks] set grid origins
//     (INVALID_POSITION for a negative origin)
//   - [Store.ResizeBrick] clamps a size to the brick's bounds
//     (OUT_OF_BOUNDS when the bounds themselves are inconsistent)
//   - [Store.Reparent] moves a brick between a section and containers
//     (CYCLIC_PARENT, INVALID_PARENT)
//   - [Store.Insert] and [Store.Remove] add and delete subtrees
//
// # Overlap
//
// Moves are committed even when the new rect overlaps a sibling. Overlap is
// an advisory condition reported through [Store.Collisions] and highlighted
// by the editor; it is not a store invariant.
//
// # Reads and subscriptions
//
// Read methods return deep copies, so callers may keep or modify results
// freely. [Store.Subscribe] delivers an [Event] after every commit, outside
// the store lock, so subscribers may call back into the store.
package store

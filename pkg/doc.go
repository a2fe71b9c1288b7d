// Package pkg provides the core libraries for Brickgrid page layouts.
//
// # Overview
//
// Brickgrid lays out pages as sections of bricks on a responsive 24-column
// grid. Every brick carries one rectangle per breakpoint (desktop and
// mobile); containers hold child bricks on a grid of their own. Layout
// changes go through a store that validates them against the brick type's
// manifest, and interactive gestures (drag and resize) are state machines
// on top of that store.
//
// # Architecture
//
// The typical data flow:
//
//	Page document (JSON / YAML)
//	         ↓
//	    [page] types, normalization and validation
//	         ↓
//	    [store] layout commands (move, resize, reparent, insert, remove)
//	         ↑
//	    [gesture] drag and resize engines, driven by pointer events
//	         ↓
//	    [materialize] datasource-bound containers expanded into instances
//	         ↓
//	    Render list / expanded page
//
// # Quick Start
//
// Move a brick and resize another:
//
//	import (
//	    "github.com/matzehuels/brickgrid/pkg/grid"
//	    "github.com/matzehuels/brickgrid/pkg/io"
//	    "github.com/matzehuels/brickgrid/pkg/manifest"
//	    "github.com/matzehuels/brickgrid/pkg/store"
//	)
//
//	p, _ := io.ImportPage("landing.json")
//	st, _ := store.New(p, store.WithManifests(manifest.Builtin()))
//
//	_ = st.MoveBricks([]store.Move{{ID: "cta", To: grid.Point{X: 16, Y: 1}}}, grid.Desktop)
//	pos, _ := st.ResizeBrick("title", grid.Size{W: 10, H: 3}, grid.Desktop)
//
//	_ = io.ExportPage(st.Page(), "landing.json")
//
// # Main Packages
//
// ## Layout Model
//
// [grid] - Grid geometry: breakpoints, extents (including "full"), grid and
// pixel rectangles, the conversions between them and a debounced resolver
// that turns container measurements into a grid config.
//
// [page] - The page document: sections, bricks, per-breakpoint positions and
// props, normalization, validation and collision reports.
//
// [manifest] - Brick type manifests: resize capabilities and size bounds.
// [manifest.Builtin] holds the stock catalog.
//
// ## Editing
//
// [store] - The layout store. Every command is validated and applied
// atomically; subscribers are notified after each commit.
//
// [gesture] - Drag and resize engines. Drag is desktop only; mobile resizes
// change the height and record it as a manual override.
//
// ## Data Binding
//
// [datasource] - Row snapshots published under a reference, resolved from
// a cache or a static map.
//
// [materialize] - Expansion of bound containers: one instance of the
// template per row, with stable instance IDs and memoized results.
//
// ## Infrastructure
//
// [cache] - Memory, file and Redis caches behind one interface.
//
// [storage] - Page repositories: memory, SQLite and MongoDB.
//
// [io] - Page import and export in JSON and YAML, with schema validation.
//
// [observability] - Hooks for store commands and gestures.
//
// [errors] - Coded errors shared by every package.
//
// # Testing
//
//	go test ./pkg/...
//	go test ./pkg/store/...
package pkg

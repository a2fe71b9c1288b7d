// Package gesture implements the drag and resize state machines that turn
// pointer input into layout store commands.
//
// # Two layers
//
// While a gesture is active, nothing is written to the store. Each pointer
// move updates an [Overlay]: the live pixel rect of every brick taking part
// in the gesture. The overlay is what an editor draws. Only End converts the
// final overlay to grid units and commits it with a single store command;
// every other way out of a gesture (Cancel, a breakpoint change, the
// dragged brick unmounting, a drop outside any container) discards it.
//
// # Drag
//
//	idle → dragging → committing → idle
//	                ↘ cancelled  ↗
//
// A [DragEngine] moves the initiating brick and any selected group members
// by one shared, grid-snapped translation. The translation is restricted so
// that the group's envelope stays inside the parent's content box. Dragging
// is only available at the desktop breakpoint; the mobile layout is a
// linear stack edited through heights.
//
// # Resize
//
//	idle → resizing → committed → idle
//
// A [ResizeEngine] follows one or more edges. Live sizes are clamped to the
// brick's bounds and the parent box but not snapped; snapping happens once,
// at End.
//
// # Grid config
//
// Engines read the container geometry from a [ConfigSource], normally a
// grid.Resolver. Until it reports a config, pointer moves are ignored.
//
// Engines are not safe for concurrent use; feed them from one event loop.
package gesture

// Package materialize expands datasource-bound containers into the bricks
// that are actually rendered.
//
// A bound container holds exactly one child, the template. For every row of
// the container's snapshot, [Materialize] clones the template into an
// instance with id "<container>-<i>" and the row's fields laid over the
// template's props. Instances keep the template's positions: they flow
// inside their container rather than taking section grid cells of their
// own.
//
// Materialization is a pure function of the template and the rows. It never
// touches the layout store; [ExpandPage] returns a render copy of a page.
// A [Memo] caches results by template, template fingerprint and snapshot
// version.
package materialize

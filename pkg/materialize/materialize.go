package materialize

import (
	"fmt"
	"maps"

	"github.com/matzehuels/brickgrid/pkg/datasource"
	"github.com/matzehuels/brickgrid/pkg/errors"
	"github.com/matzehuels/brickgrid/pkg/page"
)

// Template returns the template brick of a bound container. It fails with
// INVALID_TEMPLATE unless container is a container with a datasource
// binding and exactly one child.
func Template(container *page.Brick) (*page.Brick, error) {
	if container == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "container is nil")
	}
	switch {
	case !container.IsContainer:
		return nil, errors.New(errors.ErrCodeInvalidTemplate, "brick %q is not a container", container.ID)
	case container.Datasource == nil:
		return nil, errors.New(errors.ErrCodeInvalidTemplate, "container %q has no datasource binding", container.ID)
	case len(container.Children) != 1:
		return nil, errors.New(errors.ErrCodeInvalidTemplate,
			"container %q must have exactly one template child, has %d", container.ID, len(container.Children))
	}
	return container.Children[0], nil
}

// Materialize produces one brick per snapshot row. Zero rows yield an empty,
// non-nil slice.
func Materialize(container *page.Brick, snap datasource.Snapshot) ([]*page.Brick, error) {
	tpl, err := Template(container)
	if err != nil {
		return nil, err
	}
	out := make([]*page.Brick, len(snap.Rows))
	for i, row := range snap.Rows {
		b := instance(tpl, fmt.Sprintf("%s-%d", container.ID, i), suffix(i))
		b.ParentID = container.ID
		b.Props = overlay(b.Props, row)
		out[i] = b
	}
	return out, nil
}

func suffix(i int) string { return fmt.Sprintf("-%d", i) }

// instance clones tpl as id. Descendant ids get sfx appended so instances
// never share ids.
func instance(tpl *page.Brick, id, sfx string) *page.Brick {
	b := tpl.Clone()
	b.ID = id
	renameChildren(b, sfx)
	return b
}

func renameChildren(b *page.Brick, sfx string) {
	for _, c := range b.Children {
		c.ID += sfx
		c.ParentID = b.ID
		renameChildren(c, sfx)
	}
}

// overlay returns props with row's fields on top. Neither input is
// modified.
func overlay(props, row map[string]any) map[string]any {
	out := make(map[string]any, len(props)+len(row))
	maps.Copy(out, props)
	maps.Copy(out, row)
	return out
}

package materialize

import (
	"context"
	"fmt"

	"github.com/matzehuels/brickgrid/pkg/datasource"
	"github.com/matzehuels/brickgrid/pkg/errors"
	"github.com/matzehuels/brickgrid/pkg/page"
)

// Expansion is a render copy of a page together with the snapshot used for
// each bound container.
type Expansion struct {
	Page      *page.Page
	Snapshots map[string]datasource.Snapshot // by container id

	// Skipped lists bound containers left unexpanded because their
	// template is not exactly one child.
	Skipped []string
}

// ExpandPage returns a copy of p in which every bound container's template
// is replaced by its instances. Rows come from r, or from the binding's
// samples when r has none. Instances are themselves expanded, so bound
// containers inside a template work. p is not modified.
//
// A bound container without exactly one template child, as left behind by
// removing or reparenting its template, is rendered as it stands, logged
// and listed in Skipped; the rest of the page still expands.
//
// A nil memo materializes without caching.
func ExpandPage(ctx context.Context, p *page.Page, r datasource.Resolver, memo *Memo) (*Expansion, error) {
	if memo == nil {
		memo = NewMemo(nil)
	}
	x := &Expansion{Page: p.Clone(), Snapshots: make(map[string]datasource.Snapshot)}
	for _, s := range x.Page.Sections {
		if err := x.expand(ctx, s.Bricks, r, memo); err != nil {
			return nil, err
		}
	}
	return x, nil
}

func (x *Expansion) expand(ctx context.Context, bricks []*page.Brick, r datasource.Resolver, memo *Memo) error {
	for _, b := range bricks {
		if b.Datasource != nil {
			if _, err := Template(b); err != nil {
				if !errors.Is(err, errors.ErrCodeInvalidTemplate) {
					return err
				}
				memo.logger.Warn("skipping bound container", "container", b.ID, "err", errors.UserMessage(err))
				x.Skipped = append(x.Skipped, b.ID)
				if err := x.expand(ctx, b.Children, r, memo); err != nil {
					return err
				}
				continue
			}
			snap, err := datasource.ResolveBinding(ctx, r, b.Datasource)
			if err != nil {
				return fmt.Errorf("container %q: %w", b.ID, err)
			}
			children, err := memo.Materialize(ctx, b, snap)
			if err != nil {
				return err
			}
			b.Children = children
			x.Snapshots[b.ID] = snap
		}
		if err := x.expand(ctx, b.Children, r, memo); err != nil {
			return err
		}
	}
	return nil
}

// Instances returns the materialized bricks of one container.
func (x *Expansion) Instances(containerID string) []*page.Brick {
	loc, ok := x.Page.Find(containerID)
	if !ok {
		return nil
	}
	return loc.Brick.Children
}

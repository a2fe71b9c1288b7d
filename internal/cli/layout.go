package cli

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/matzehuels/brickgrid/pkg/grid"
	"github.com/matzehuels/brickgrid/pkg/page"
	"github.com/matzehuels/brickgrid/pkg/store"
)

// layoutFlags are shared by the commands that edit a page file.
type layoutFlags struct {
	output     string
	breakpoint string
}

func (f *layoutFlags) register(cmd *cobra.Command, withBreakpoint bool) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default: overwrite the input)")
	if withBreakpoint {
		cmd.Flags().StringVarP(&f.breakpoint, "bp", "b", string(grid.Desktop), "breakpoint: desktop, mobile")
	}
}

func (f *layoutFlags) bp() (grid.Breakpoint, error) {
	return grid.ParseBreakpoint(f.breakpoint)
}

// edit loads input, applies fn and saves the page when fn succeeds.
func (c *CLI) edit(input string, f layoutFlags, fn func(st *store.Store) error) error {
	st, err := c.openStore(input)
	if err != nil {
		return err
	}
	if err := fn(st); err != nil {
		return err
	}
	path, err := savePage(st, input, f.output)
	if err != nil {
		return err
	}
	printFile(path)
	return nil
}

// moveCommand creates the move command.
func (c *CLI) moveCommand() *cobra.Command {
	var (
		f     layoutFlags
		to    string
		group []string
	)

	cmd := &cobra.Command{
		Use:   "move [page] [brick]",
		Short: "Move a brick to a new grid origin",
		Long: `Move a brick to a new grid origin at one breakpoint.

Bricks listed with --group move by the same offset, all or none. The other
breakpoint is not touched. Overlapping siblings are allowed.`,
		Example: `  brickgrid move landing.json hero --to 4,2
  brickgrid move landing.json title --to 0,6 --group subtitle,cta --bp mobile`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bp, err := f.bp()
			if err != nil {
				return err
			}
			p, err := parsePoint(to)
			if err != nil {
				return err
			}
			return c.edit(args[0], f, func(st *store.Store) error {
				moves, err := offsetMoves(st, args[1], p, group, bp)
				if err != nil {
					return err
				}
				if err := st.MoveBricks(moves, bp); err != nil {
					return err
				}
				for _, m := range moves {
					printSuccess("Moved %s to (%d,%d) on %s", m.ID, m.To.X, m.To.Y, bp)
				}
				return nil
			})
		},
	}

	f.register(cmd, true)
	cmd.Flags().StringVar(&to, "to", "", "new origin as x,y")
	cmd.Flags().StringSliceVarP(&group, "group", "g", nil, "further bricks that move along")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

// offsetMoves moves the lead brick to to and each group member by the same
// offset.
func offsetMoves(st *store.Store, lead string, to grid.Point, group []string, bp grid.Breakpoint) ([]store.Move, error) {
	moves := []store.Move{{ID: lead, To: to}}
	if len(group) == 0 {
		return moves, nil
	}
	from, err := st.Position(lead, bp)
	if err != nil {
		return nil, err
	}
	dx, dy := to.X-from.X, to.Y-from.Y
	for _, id := range group {
		if id == lead {
			continue
		}
		pos, err := st.Position(id, bp)
		if err != nil {
			return nil, err
		}
		moves = append(moves, store.Move{ID: id, To: grid.Point{X: pos.X + dx, Y: pos.Y + dy}})
	}
	return moves, nil
}

// resizeCommand creates the resize command.
func (c *CLI) resizeCommand() *cobra.Command {
	var (
		f            layoutFlags
		size         string
		origin       string
		manualHeight float64
	)

	cmd := &cobra.Command{
		Use:   "resize [page] [brick]",
		Short: "Resize a brick within its bounds",
		Long: `Resize a brick at one breakpoint.

The size is clamped to the brick's bounds: its own min/max fields first,
then its manifest, then one cell to full width. --origin moves the brick in
the same commit, as dragging a north or west handle does. --manual-height
records a pixel height override, used on mobile.`,
		Example: `  brickgrid resize landing.json hero --size 12,8
  brickgrid resize landing.json hero --size 24,9 --bp mobile --manual-height 210`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bp, err := f.bp()
			if err != nil {
				return err
			}
			sz, err := parseSize(size)
			if err != nil {
				return err
			}
			var opts []store.ResizeOption
			if origin != "" {
				p, err := parsePoint(origin)
				if err != nil {
					return err
				}
				opts = append(opts, store.WithOrigin(p))
			}
			if cmd.Flags().Changed("manual-height") {
				opts = append(opts, store.WithManualHeight(manualHeight))
			}
			return c.edit(args[0], f, func(st *store.Store) error {
				pos, err := st.ResizeBrick(args[1], sz, bp, opts...)
				if err != nil {
					return err
				}
				printSuccess("Resized %s to %s on %s", args[1], describeRect(pos.GridRect), bp)
				if int(pos.W) != sz.W || int(pos.H) != sz.H {
					printDetail("clamped from %dx%d", sz.W, sz.H)
				}
				return nil
			})
		},
	}

	f.register(cmd, true)
	cmd.Flags().StringVar(&size, "size", "", "new size as w,h in cells")
	cmd.Flags().StringVar(&origin, "origin", "", "new origin as x,y")
	cmd.Flags().Float64Var(&manualHeight, "manual-height", 0, "pixel height override")
	_ = cmd.MarkFlagRequired("size")

	return cmd
}

// reparentCommand creates the reparent command.
func (c *CLI) reparentCommand() *cobra.Command {
	var (
		f      layoutFlags
		parent string
		index  int
	)

	cmd := &cobra.Command{
		Use:   "reparent [page] [brick]",
		Short: "Move a brick into another container or section",
		Long: `Move a brick, with its descendants, into another container or section.

--parent names a container brick or a section; empty means the top level of
the brick's own section. A brick cannot move into itself or its
descendants.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.edit(args[0], f, func(st *store.Store) error {
				if err := st.Reparent(args[1], parent, index); err != nil {
					return err
				}
				parentID, section, err := st.Parent(args[1])
				if err != nil {
					return err
				}
				if parentID == "" {
					parentID = section
				}
				printSuccess("Moved %s into %s", args[1], parentID)
				return nil
			})
		},
	}

	f.register(cmd, false)
	cmd.Flags().StringVar(&parent, "parent", "", "container brick or section id")
	cmd.Flags().IntVar(&index, "index", math.MaxInt, "position among the new siblings (default: last)")

	return cmd
}

// insertCommand creates the insert command.
func (c *CLI) insertCommand() *cobra.Command {
	var (
		f         layoutFlags
		id        string
		brickType string
		parent    string
		index     int
		at        string
		width     string
		height    int
		container bool
	)

	cmd := &cobra.Command{
		Use:   "insert [page]",
		Short: "Add a brick to a page",
		Long: `Add a brick to a page.

The brick gets the same rectangle at both breakpoints; adjust the mobile one
with resize and move afterwards. Without --id a random id is assigned.`,
		Example: `  brickgrid insert landing.json --type text --at 0,4 --width 12 --height 2
  brickgrid insert landing.json --type image --parent gallery --width full --height 6`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			origin, err := parsePoint(at)
			if err != nil {
				return err
			}
			w, err := parseExtent(width)
			if err != nil {
				return err
			}
			r := grid.GridRect{X: origin.X, Y: origin.Y, W: w, H: grid.Extent(height)}
			b := &page.Brick{
				ID:          id,
				Type:        brickType,
				IsContainer: container,
				Position: page.Positions{
					Desktop: page.Position{GridRect: r},
					Mobile:  page.Position{GridRect: r},
				},
			}
			return c.edit(args[0], f, func(st *store.Store) error {
				got, err := st.Insert(b, parent, index)
				if err != nil {
					return err
				}
				printSuccess("Inserted %s %s at %s", brickType, got, describeRect(r))
				return nil
			})
		},
	}

	f.register(cmd, false)
	cmd.Flags().StringVar(&id, "id", "", "brick id (default: random)")
	cmd.Flags().StringVarP(&brickType, "type", "t", "", "brick type, e.g. text, image, container")
	cmd.Flags().StringVar(&parent, "parent", "", "container brick or section id (default: first section)")
	cmd.Flags().IntVar(&index, "index", math.MaxInt, "position among the siblings (default: last)")
	cmd.Flags().StringVar(&at, "at", "0,0", "origin as x,y")
	cmd.Flags().StringVar(&width, "width", "4", "width in cells or full")
	cmd.Flags().IntVar(&height, "height", 2, "height in cells")
	cmd.Flags().BoolVar(&container, "container", false, "the brick holds children")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

// removeCommand creates the remove command.
func (c *CLI) removeCommand() *cobra.Command {
	var f layoutFlags

	cmd := &cobra.Command{
		Use:   "remove [page] [brick]",
		Short: "Remove a brick and its descendants",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.edit(args[0], f, func(st *store.Store) error {
				before := st.Page().Count()
				if err := st.Remove(args[1]); err != nil {
					return err
				}
				printSuccess("Removed %s (%d bricks)", args[1], before-st.Page().Count())
				return nil
			})
		},
	}

	f.register(cmd, false)

	return cmd
}

// positionCommand creates the position command.
func (c *CLI) positionCommand() *cobra.Command {
	var (
		breakpoint string
		element    string
		container  string
		padding    float64
	)

	cmd := &cobra.Command{
		Use:   "position",
		Short: "Convert a rendered pixel rect to grid cells",
		Long: `Convert the rendered box of a brick to the grid rect it would be stored as.

Both boxes are in page pixels. The container's content box is its width
minus the horizontal padding on both sides, divided into 24 columns; rows
are 24 pixels high.`,
		Example: `  brickgrid position --element 130,48,200,96 --container 0,0,1240,800 --padding 20`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bp, err := grid.ParseBreakpoint(breakpoint)
			if err != nil {
				return err
			}
			el, err := parsePixelRect(element)
			if err != nil {
				return err
			}
			box, err := parsePixelRect(container)
			if err != nil {
				return err
			}
			r, err := grid.GetBrickPosition(el, bp, box, padding)
			if err != nil {
				return err
			}
			fmt.Println(describeRect(r))
			return nil
		},
	}

	cmd.Flags().StringVarP(&breakpoint, "bp", "b", string(grid.Desktop), "breakpoint: desktop, mobile")
	cmd.Flags().StringVar(&element, "element", "", "brick box as x,y,w,h")
	cmd.Flags().StringVar(&container, "container", "", "container box as x,y,w,h")
	cmd.Flags().Float64Var(&padding, "padding", 0, "container horizontal padding")
	_ = cmd.MarkFlagRequired("element")
	_ = cmd.MarkFlagRequired("container")

	return cmd
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/brickgrid/pkg/errors"
	"github.com/matzehuels/brickgrid/pkg/grid"
	"github.com/matzehuels/brickgrid/pkg/materialize"
	"github.com/matzehuels/brickgrid/pkg/page"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "validate [page...]",
		Short: "Validate page files and report overlapping bricks",
		Long: `Validate page files against the page schema and the layout rules.

Each file is checked for schema conformance, unique ids, legal positions,
consistent resize bounds and well-formed datasource templates. Overlapping
siblings are legal but reported as warnings, per breakpoint.

With --watch the files are re-validated whenever they change.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := c.runValidate(args)
			if !watch {
				return err
			}
			return c.watchValidate(cmd.Context(), args)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-validate files when they change")

	return cmd
}

// validationReport is the outcome of validating one page.
type validationReport struct {
	Sections   int
	Bricks     int
	Collisions map[grid.Breakpoint][]page.Collision
}

func (r validationReport) overlaps() int {
	n := 0
	for _, cs := range r.Collisions {
		n += len(cs)
	}
	return n
}

// validatePage checks a page file beyond what loading it into a store does:
// every bound container must carry a usable template.
func (c *CLI) validatePage(path string) (validationReport, error) {
	st, err := c.openStore(path)
	if err != nil {
		return validationReport{}, err
	}
	p := st.Page()

	var terr error
	p.Walk(func(_ *page.Section, _, b *page.Brick) bool {
		if b.Datasource == nil {
			return true
		}
		if _, terr = materialize.Template(b); terr != nil {
			return false
		}
		return true
	})
	if terr != nil {
		return validationReport{}, terr
	}

	report := validationReport{
		Sections:   len(p.Sections),
		Bricks:     p.Count(),
		Collisions: make(map[grid.Breakpoint][]page.Collision),
	}
	for _, bp := range []grid.Breakpoint{grid.Desktop, grid.Mobile} {
		report.Collisions[bp] = p.PageCollisions(bp)
	}
	return report, nil
}

func (c *CLI) runValidate(paths []string) error {
	failed := 0
	for _, path := range paths {
		prog := newProgress(c.Logger)
		report, err := c.validatePage(path)
		if err != nil {
			failed++
			printError("%s", path)
			printDetail("%s", errors.UserMessage(err))
			continue
		}
		printSuccess("%s", path)
		printStats(report.Sections, report.Bricks, report.overlaps())
		for _, bp := range []grid.Breakpoint{grid.Desktop, grid.Mobile} {
			for _, col := range report.Collisions[bp] {
				printWarning("%s overlaps %s on %s", col.A, col.B, bp)
			}
		}
		prog.done("Validated " + path)
	}
	if failed > 0 {
		return errors.New(errors.ErrCodeInvalidDocument, "%d of %d pages are invalid", failed, len(paths))
	}
	return nil
}

func (c *CLI) watchValidate(ctx context.Context, paths []string) error {
	w, err := newWatcher(paths, c.Logger, func(ch change) {
		if ch.Removed {
			printWarning("%s was removed", ch.Path)
			return
		}
		printNewline()
		_ = c.runValidate([]string{ch.Path})
	})
	if err != nil {
		return err
	}
	printInfo("Watching %d %s, press Ctrl+C to stop", len(paths), plural(len(paths), "file", "files"))
	if err := w.run(ctx); err != nil {
		return err
	}
	return ctx.Err()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// describeRect formats a grid rect for terminal output.
func describeRect(r grid.GridRect) string {
	return fmt.Sprintf("(%d,%d) %sx%s", r.X, r.Y, r.W, r.H)
}

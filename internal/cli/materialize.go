package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/brickgrid/pkg/datasource"
	"github.com/matzehuels/brickgrid/pkg/errors"
	"github.com/matzehuels/brickgrid/pkg/grid"
	pageio "github.com/matzehuels/brickgrid/pkg/io"
	"github.com/matzehuels/brickgrid/pkg/materialize"
)

// Output formats of the materialize command.
const (
	formatRender = "render"
	formatPage   = "page"
)

// materializeCommand creates the materialize command.
func (c *CLI) materializeCommand() *cobra.Command {
	var (
		rows       []string
		output     string
		format     string
		breakpoint string
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "materialize [page]",
		Short: "Expand datasource-bound containers into their instances",
		Long: `Expand every datasource-bound container of a page into one template
instance per row and print the result.

Rows come from --rows files when given, otherwise from the snapshots
published to the configured cache. Containers without rows fall back to
their sample rows. The default output is the render list for one
breakpoint; --format page prints the expanded page document instead.`,
		Example: `  brickgrid materialize shop.json --rows products=products.json
  brickgrid materialize shop.json --bp mobile -o render.json
  brickgrid materialize shop.json --format page`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatRender && format != formatPage {
				return errors.New(errors.ErrCodeInvalidInput, "format %q: want %s or %s", format, formatRender, formatPage)
			}
			bp, err := grid.ParseBreakpoint(breakpoint)
			if err != nil {
				return err
			}
			x, err := c.expandFile(cmd.Context(), args[0], rows, noCache)
			if err != nil {
				return err
			}

			w := io.Writer(os.Stdout)
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			if format == formatPage {
				err = pageio.WritePage(x.Page, w)
			} else {
				var items []materialize.Item
				if items, err = x.RenderList(bp); err == nil {
					enc := json.NewEncoder(w)
					enc.SetIndent("", "  ")
					err = enc.Encode(items)
				}
			}
			if err != nil {
				return err
			}
			for id, snap := range x.Snapshots {
				c.Logger.Debug("expanded", "container", id, "ref", snap.Ref, "rows", snap.Len(), "sample", snap.IsSample)
			}
			if output != "" {
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&rows, "rows", nil, "rows for a datasource as ref=file.json (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&format, "format", formatRender, "output format: render, page")
	cmd.Flags().StringVarP(&breakpoint, "bp", "b", string(grid.Desktop), "breakpoint of the render list")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "ignore published snapshots and memoized instances")

	return cmd
}

// expandFile loads a page file and expands its bound containers.
func (c *CLI) expandFile(ctx context.Context, path string, rowFiles []string, noCache bool) (*materialize.Expansion, error) {
	st, err := c.openStore(path)
	if err != nil {
		return nil, err
	}
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	defer ch.Close()

	var resolver datasource.Resolver = datasource.NewCacheResolver(ch, datasource.WithLogger(c.Logger))
	if len(rowFiles) > 0 {
		static := make(datasource.StaticResolver, len(rowFiles))
		for _, arg := range rowFiles {
			ref, file, err := parseRefFile(arg)
			if err != nil {
				return nil, err
			}
			if static[ref], err = readRows(file); err != nil {
				return nil, err
			}
		}
		resolver = static
	}

	memo := materialize.NewMemo(ch, materialize.WithLogger(c.Logger))
	return materialize.ExpandPage(ctx, st.Page(), resolver, memo)
}

func readRows(path string) ([]datasource.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := datasource.DecodeRows(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s", path)
	}
	return rows, nil
}

// publishCommand creates the publish command.
func (c *CLI) publishCommand() *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "publish [ref=file.json...]",
		Short: "Publish datasource rows to the configured cache",
		Long: `Publish datasource rows as the latest snapshot of a reference.

Each argument pairs a datasource reference with a JSON file holding either
an array of row objects or an object with a "rows" array. Pages bound to
the reference render the published rows from then on. With --remove the
arguments are references whose snapshots are withdrawn, so bound
containers fall back to their samples.`,
		Example: `  brickgrid publish products=products.json
  brickgrid publish --remove products`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ch, err := c.newCache(ctx, false)
			if err != nil {
				return err
			}
			defer ch.Close()
			r := datasource.NewCacheResolver(ch, datasource.WithLogger(c.Logger))

			if remove {
				for _, ref := range args {
					if err := errors.ValidateDatasourceRef(ref); err != nil {
						return err
					}
					if err := r.Unpublish(ctx, ref); err != nil {
						return err
					}
					printSuccess("Unpublished %s", ref)
				}
				return nil
			}

			for _, arg := range args {
				ref, file, err := parseRefFile(arg)
				if err != nil {
					return err
				}
				snap, err := publishFile(ctx, r, ref, file)
				if err != nil {
					return err
				}
				printSuccess("Published %s", ref)
				printDetail("%d %s, version %s", snap.Len(), plural(snap.Len(), "row", "rows"), snap.Version)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&remove, "remove", false, "withdraw the snapshots of the given references")

	return cmd
}

// publishFile publishes the rows of a file on disk.
func publishFile(ctx context.Context, r *datasource.CacheResolver, ref, path string) (datasource.Snapshot, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return datasource.Snapshot{}, err
	}
	return r.PublishFile(ctx, os.DirFS(filepath.Dir(abs)), filepath.Base(abs), ref)
}

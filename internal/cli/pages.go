package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	pageio "github.com/matzehuels/brickgrid/pkg/io"
	"github.com/matzehuels/brickgrid/pkg/storage"
)

// pagesCommand creates the pages command group.
func (c *CLI) pagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "Manage pages in the configured repository",
		Long: `Manage the pages stored in the repository configured under [storage]:
an in-memory store, a SQLite file or a MongoDB collection. This is the
repository the serve command works on.`,
	}

	cmd.AddCommand(c.pagesListCommand())
	cmd.AddCommand(c.pagesImportCommand())
	cmd.AddCommand(c.pagesExportCommand())
	cmd.AddCommand(c.pagesDeleteCommand())

	return cmd
}

// withRepo opens the configured repository for the duration of fn.
func (c *CLI) withRepo(ctx context.Context, fn func(storage.Repository) error) error {
	opts := c.config.StorageOptions()
	repo, err := storage.Open(ctx, opts)
	if err != nil {
		return err
	}
	defer repo.Close()
	c.Logger.Debug("opened repository", "driver", opts.Driver)
	return fn(repo)
}

func (c *CLI) pagesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRepo(cmd.Context(), func(repo storage.Repository) error {
				pages, err := repo.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(pages) == 0 {
					printInfo("No pages stored")
					return nil
				}
				rows := make([][]string, len(pages))
				for i, p := range pages {
					rows[i] = []string{
						p.ID,
						p.Title,
						strconv.Itoa(p.Bricks),
						strconv.FormatInt(p.Version, 10),
						p.UpdatedAt.Local().Format("2006-01-02 15:04"),
					}
				}
				headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
				t := table.New().
					Border(lipgloss.RoundedBorder()).
					BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
					Headers("Page", "Title", "Bricks", "Version", "Updated").
					Rows(rows...).
					StyleFunc(func(row, col int) lipgloss.Style {
						if row == -1 {
							return headerStyle
						}
						if col == 0 {
							return StyleHighlight
						}
						return lipgloss.NewStyle()
					})
				fmt.Println(t.Render())
				return nil
			})
		},
	}
}

func (c *CLI) pagesImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file...]",
		Short: "Store page files, replacing pages with the same id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRepo(cmd.Context(), func(repo storage.Repository) error {
				for _, path := range args {
					// Loading through a store applies the layout rules
					// before anything is written.
					st, err := c.openStore(path)
					if err != nil {
						return err
					}
					rec, err := repo.Put(cmd.Context(), st.Page())
					if err != nil {
						return err
					}
					printSuccess("Imported %s as %s", path, rec.Page.ID)
					printDetail("version %d", rec.Version)
				}
				return nil
			})
		},
	}
}

func (c *CLI) pagesExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export [page]",
		Short: "Write a stored page to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := output
			if path == "" {
				path = args[0] + ".json"
			}
			return c.withRepo(cmd.Context(), func(repo storage.Repository) error {
				rec, err := repo.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := pageio.ExportPage(rec.Page, path); err != nil {
					return err
				}
				printSuccess("Exported %s (version %d)", args[0], rec.Version)
				printFile(path)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, .json or .yaml (default: <page>.json)")

	return cmd
}

func (c *CLI) pagesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [page...]",
		Short: "Delete stored pages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRepo(cmd.Context(), func(repo storage.Repository) error {
				for _, id := range args {
					if err := repo.Delete(cmd.Context(), id); err != nil {
						return err
					}
					printSuccess("Deleted %s", id)
				}
				return nil
			})
		},
	}
}

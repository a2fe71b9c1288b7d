package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/brickgrid/internal/server"
	"github.com/matzehuels/brickgrid/pkg/datasource"
	"github.com/matzehuels/brickgrid/pkg/errors"
	"github.com/matzehuels/brickgrid/pkg/storage"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr        string
		datasources string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout API over HTTP",
		Long: `Serve the layout API over the configured page repository.

Every committed command is written back to the repository. Prometheus
metrics are served on /metrics.

With --datasources, every <ref>.json file in the directory is published as
the snapshot of <ref> at startup and again whenever it changes; deleting
the file withdraws the snapshot.`,
		Example: `  brickgrid serve --addr :9000
  brickgrid serve --datasources ./data`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.config.Server.Addr
			}
			return c.runServe(cmd.Context(), addr, datasources)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr from the config)")
	cmd.Flags().StringVar(&datasources, "datasources", "", "directory of <ref>.json row files to publish and watch")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, dir string) error {
	progress := newStartup(ctx, os.Stderr, "Opening "+c.config.Storage.Driver+" repository")
	repo, err := storage.Open(ctx, c.config.StorageOptions())
	if err != nil {
		progress.Fail(err)
		return err
	}
	defer repo.Close()
	progress.Next("Opened "+c.config.Storage.Driver+" repository", fmt.Sprintf("Connecting %s cache", c.config.Cache.Backend))

	ch, err := c.newCache(ctx, false)
	if err != nil {
		progress.Fail(err)
		return err
	}
	defer ch.Close()
	progress.Next(fmt.Sprintf("Connected %s cache", c.config.Cache.Backend), "Loading brick manifests")

	manifests, err := c.manifests()
	if err != nil {
		progress.Fail(err)
		return err
	}
	ready := "Loaded brick manifests"

	var (
		sources    *datasource.CacheResolver
		dirWatcher *watcher
	)
	if dir != "" {
		progress.Next(ready, "Publishing datasources from "+dir)
		sources = datasource.NewCacheResolver(ch, datasource.WithLogger(c.Logger))
		n, err := c.publishDir(ctx, sources, dir)
		if err != nil {
			progress.Fail(err)
			return err
		}
		dirWatcher, err = newWatcher([]string{dir}, c.Logger, func(chg change) {
			c.syncDatasource(ctx, sources, chg)
		})
		if err != nil {
			progress.Fail(err)
			return err
		}
		ready = fmt.Sprintf("Published %d datasources, watching %s", n, dir)
	}
	progress.Done(ready)

	metrics := server.NewMetrics()
	metrics.Install()

	srv := server.New(repo,
		server.WithLogger(c.Logger),
		server.WithManifests(manifests),
		server.WithCache(ch),
		server.WithMetrics(metrics),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx, addr, c.config.Server.ShutdownTimeout)
	})
	if dirWatcher != nil {
		g.Go(func() error { return dirWatcher.run(ctx) })
	}

	printInfo("Serving on %s, press Ctrl+C to stop", addr)
	return g.Wait()
}

// datasourceRef returns the reference a row file publishes, or false for
// files that are not row files.
func datasourceRef(path string) (string, bool) {
	name := filepath.Base(path)
	if filepath.Ext(name) != ".json" || strings.HasPrefix(name, ".") {
		return "", false
	}
	ref := strings.TrimSuffix(name, ".json")
	return ref, errors.ValidateDatasourceRef(ref) == nil
}

// publishDir publishes every row file in dir and returns how many were
// published. Unreadable row files are logged and skipped.
func (c *CLI) publishDir(ctx context.Context, sources *datasource.CacheResolver, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	fsys := os.DirFS(dir)
	for _, e := range entries {
		ref, ok := datasourceRef(e.Name())
		if e.IsDir() || !ok {
			continue
		}
		snap, err := sources.PublishFile(ctx, fsys, e.Name(), ref)
		if err != nil {
			c.Logger.Warn("skipping row file", "file", e.Name(), "err", err)
			continue
		}
		c.Logger.Info("published", "ref", ref, "rows", snap.Len(), "version", snap.Version)
		n++
	}
	return n, nil
}

// syncDatasource republishes or withdraws the snapshot of a changed row
// file.
func (c *CLI) syncDatasource(ctx context.Context, sources *datasource.CacheResolver, chg change) {
	ref, ok := datasourceRef(chg.Path)
	if !ok {
		return
	}
	if chg.Removed {
		if err := sources.Unpublish(ctx, ref); err != nil {
			c.Logger.Warn("unpublish failed", "ref", ref, "err", err)
			return
		}
		c.Logger.Info("unpublished", "ref", ref)
		return
	}
	snap, err := publishFile(ctx, sources, ref, chg.Path)
	if err != nil {
		c.Logger.Warn("publish failed", "ref", ref, "err", err)
		return
	}
	c.Logger.Info("published", "ref", ref, "rows", snap.Len(), "version", snap.Version)
}

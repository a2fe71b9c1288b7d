// Package cli implements the brickgrid command-line interface.
//
// Page commands (validate, move, resize, reparent, insert, remove,
// materialize, preview, edit) work on page files, JSON or YAML, and write
// the result back in place unless --output is given. Every edit goes
// through the layout store, so the same validation applies as in the HTTP
// API. The serve command runs that API over the configured repository.
//
// Settings are read by internal/config; --config names the TOML file.
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/brickgrid/internal/config"
	"github.com/matzehuels/brickgrid/pkg/buildinfo"
	"github.com/matzehuels/brickgrid/pkg/cache"
	pageio "github.com/matzehuels/brickgrid/pkg/io"
	"github.com/matzehuels/brickgrid/pkg/manifest"
	"github.com/matzehuels/brickgrid/pkg/page"
	"github.com/matzehuels/brickgrid/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "brickgrid"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	config     config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Brickgrid edits responsive grid page layouts",
		Long:         `Brickgrid validates, edits and serves page layouts built from bricks on a 24-column grid with independent desktop and mobile positions.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.config = cfg
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/brickgrid/config.toml)")

	// Page files
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.moveCommand())
	root.AddCommand(c.resizeCommand())
	root.AddCommand(c.reparentCommand())
	root.AddCommand(c.insertCommand())
	root.AddCommand(c.removeCommand())
	root.AddCommand(c.positionCommand())
	root.AddCommand(c.materializeCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.editCommand())

	// Repository, datasources and server
	root.AddCommand(c.pagesCommand())
	root.AddCommand(c.publishCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())

	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Factories
// =============================================================================

// manifests returns the configured manifest catalog.
func (c *CLI) manifests() (manifest.Provider, error) {
	if c.config.Editor.Manifests == "" {
		return manifest.Builtin(), nil
	}
	return manifest.LoadFile(c.config.Editor.Manifests)
}

// openStore loads a page file into a layout store.
func (c *CLI) openStore(path string) (*store.Store, error) {
	p, err := pageio.ImportPage(path)
	if err != nil {
		return nil, err
	}
	return c.newStore(p)
}

func (c *CLI) newStore(p *page.Page) (*store.Store, error) {
	m, err := c.manifests()
	if err != nil {
		return nil, err
	}
	return store.New(p, store.WithManifests(m), store.WithLogger(c.Logger))
}

// savePage writes the store's page to output, or back to input when output
// is empty, and returns the path written.
func savePage(st *store.Store, input, output string) (string, error) {
	path := output
	if path == "" {
		path = input
	}
	return path, pageio.ExportPage(st.Page(), path)
}

// newCache opens the configured cache backend. The cache is wrapped so
// lookups reach the observability hooks.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	backend := c.config.Cache.Backend
	if noCache {
		backend = config.CacheNone
	}
	switch backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheMemory:
		return cache.Observe(cache.NewMemoryCache()), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, c.config.RedisConfig())
		if err != nil {
			return nil, err
		}
		return cache.Observe(rc), nil
	default:
		dir, err := c.cacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return cache.Observe(fc), nil
	}
}

// cacheDir returns the configured cache directory or the XDG default
// (~/.cache/brickgrid/).
func (c *CLI) cacheDir() (string, error) {
	if c.config.Cache.Dir != "" {
		return c.config.Cache.Dir, nil
	}
	return cache.DefaultDir()
}

// Package config loads brickgrid settings.
//
// Settings come from four layers, later layers winning:
//
//  1. built-in defaults ([Default])
//  2. a TOML file, by default $XDG_CONFIG_HOME/brickgrid/config.toml
//  3. .env files in the working directory, loaded into the process
//     environment without overriding variables that are already set
//  4. BRICKGRID_* environment variables
//
// Command-line flags are applied on top by the CLI.
//
// Example config.toml:
//
//	[server]
//	addr = ":8080"
//
//	[storage]
//	driver = "sqlite"
//	dsn = "brickgrid.db"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[editor]
//	manifests = "catalog.yaml"
//	debounce = "150ms"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/brickgrid/pkg/cache"
	"github.com/matzehuels/brickgrid/pkg/errors"
	"github.com/matzehuels/brickgrid/pkg/grid"
	"github.com/matzehuels/brickgrid/pkg/storage"
)

const appName = "brickgrid"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BRICKGRID_"

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
)

// Config holds all settings.
type Config struct {
	Server  Server  `toml:"server"`
	Storage Storage `toml:"storage"`
	Cache   Cache   `toml:"cache"`
	Editor  Editor  `toml:"editor"`
}

// Server configures the HTTP API.
type Server struct {
	Addr            string        `toml:"addr"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// Storage selects the page repository.
type Storage struct {
	Driver     string `toml:"driver"`
	DSN        string `toml:"dsn"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Cache selects the snapshot and memo cache.
type Cache struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Prefix        string `toml:"prefix"`
}

// Editor configures layout editing.
type Editor struct {
	// Manifests is a YAML manifest catalog. Empty uses the built-in one.
	Manifests string        `toml:"manifests"`
	Debounce  time.Duration `toml:"debounce"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Server:  Server{Addr: ":8080", ShutdownTimeout: 5 * time.Second},
		Storage: Storage{Driver: storage.DriverSQLite, DSN: "brickgrid.db"},
		Cache:   Cache{Backend: CacheFile, Prefix: appName + ":"},
		Editor:  Editor{Debounce: grid.DefaultDebounce},
	}
}

// Load builds the config. An empty path loads the default config file when
// it exists; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.decodeFile(path, explicit); err != nil {
			return Config{}, err
		}
	}

	if err := loadDotenv(".env"); err != nil {
		return Config{}, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string, required bool) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidInput, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// loadDotenv loads the files that exist. Variables already present in the
// environment are kept.
func loadDotenv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// envBindings maps variable names (without EnvPrefix) to setters.
func (c *Config) envBindings() map[string]func(string) error {
	str := func(dst *string) func(string) error {
		return func(v string) error { *dst = v; return nil }
	}
	dur := func(dst *time.Duration) func(string) error {
		return func(v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return err
			}
			*dst = d
			return nil
		}
	}
	return map[string]func(string) error{
		"ADDR":             str(&c.Server.Addr),
		"SHUTDOWN_TIMEOUT": dur(&c.Server.ShutdownTimeout),
		"STORAGE_DRIVER":   str(&c.Storage.Driver),
		"STORAGE_DSN":      str(&c.Storage.DSN),
		"MONGO_DATABASE":   str(&c.Storage.Database),
		"MONGO_COLLECTION": str(&c.Storage.Collection),
		"CACHE":            str(&c.Cache.Backend),
		"CACHE_DIR":        str(&c.Cache.Dir),
		"REDIS_ADDR":       str(&c.Cache.RedisAddr),
		"REDIS_PASSWORD":   str(&c.Cache.RedisPassword),
		"REDIS_DB": func(v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			c.Cache.RedisDB = n
			return nil
		},
		"MANIFESTS": str(&c.Editor.Manifests),
		"DEBOUNCE":  dur(&c.Editor.Debounce),
	}
}

// ApplyEnv overrides settings from BRICKGRID_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	bindings := c.envBindings()
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		if err := bindings[name](v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s%s", EnvPrefix, name)
		}
	}
	return nil
}

// Validate checks the settings for values no component accepts.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case storage.DriverMemory, storage.DriverSQLite, storage.DriverMongo:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver != storage.DriverMemory && c.Storage.DSN == "" {
		return errors.New(errors.ErrCodeInvalidInput, "storage driver %s needs a dsn", c.Storage.Driver)
	}
	switch c.Cache.Backend {
	case CacheNone, CacheMemory, CacheFile:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "redis cache needs redis_addr")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Editor.Debounce < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "debounce must not be negative")
	}
	return nil
}

// StorageOptions returns the repository options.
func (c Config) StorageOptions() storage.Options {
	return storage.Options{
		Driver:     c.Storage.Driver,
		DSN:        c.Storage.DSN,
		Database:   c.Storage.Database,
		Collection: c.Storage.Collection,
	}
}

// RedisConfig returns the Redis cache settings.
func (c Config) RedisConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Addr:     c.Cache.RedisAddr,
		Password: c.Cache.RedisPassword,
		DB:       c.Cache.RedisDB,
		Prefix:   c.Cache.Prefix,
	}
}

// DefaultPath returns the config file location using the XDG standard
// (~/.config/brickgrid/config.toml).
func DefaultPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

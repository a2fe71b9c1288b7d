package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/matzehuels/brickgrid/pkg/errors"
	"github.com/matzehuels/brickgrid/pkg/page"
)

// Record is a stored page.
type Record struct {
	Page      *page.Page
	Version   int64
	UpdatedAt time.Time
}

// Summary describes a stored page without its document.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	Bricks    int       `json:"bricks"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Repository stores pages. Get and Delete report NOT_FOUND for unknown ids.
type Repository interface {
	Get(ctx context.Context, id string) (*Record, error)
	Put(ctx context.Context, p *page.Page) (*Record, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Drivers accepted by Open.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Options configures Open.
type Options struct {
	Driver string

	// DSN is the SQLite file path or the MongoDB URI.
	DSN string

	// Database and Collection name the MongoDB location.
	Database   string
	Collection string
}

// Open creates the repository selected by opts.Driver.
func Open(ctx context.Context, opts Options) (Repository, error) {
	switch opts.Driver {
	case "", DriverMemory:
		return NewMemoryRepository(), nil
	case DriverSQLite:
		return OpenSQLite(opts.DSN)
	case DriverMongo:
		return OpenMongo(ctx, opts.DSN, opts.Database, opts.Collection)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown storage driver %q", opts.Driver)
	}
}

func encode(p *page.Page) (string, error) {
	if p == nil {
		return "", errors.New(errors.ErrCodeInvalidInput, "page is nil")
	}
	if err := errors.ValidateID(p.ID); err != nil {
		return "", err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode page %s: %w", p.ID, err)
	}
	return string(data), nil
}

func decode(id, doc string) (*page.Page, error) {
	var p page.Page
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "stored page %s", id)
	}
	return &p, nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "page %q not found", id)
}

func summarize(p *page.Page, version int64, at time.Time) Summary {
	return Summary{ID: p.ID, Title: p.Title, Bricks: p.Count(), Version: version, UpdatedAt: at}
}

// MemoryRepository keeps pages in process. Stored pages are copies.
type MemoryRepository struct {
	mu    sync.RWMutex
	pages map[string]*Record
	now   func() time.Time
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{pages: make(map[string]*Record), now: time.Now}
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.pages[id]
	if !ok {
		return nil, notFound(id)
	}
	return &Record{Page: rec.Page.Clone(), Version: rec.Version, UpdatedAt: rec.UpdatedAt}, nil
}

func (r *MemoryRepository) Put(_ context.Context, p *page.Page) (*Record, error) {
	if _, err := encode(p); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var version int64 = 1
	if prev, ok := r.pages[p.ID]; ok {
		version = prev.Version + 1
	}
	rec := &Record{Page: p.Clone(), Version: version, UpdatedAt: r.now().UTC()}
	r.pages[p.ID] = rec
	return &Record{Page: p.Clone(), Version: version, UpdatedAt: rec.UpdatedAt}, nil
}

func (r *MemoryRepository) List(context.Context) ([]Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Summary, 0, len(r.pages))
	for _, rec := range r.pages {
		out = append(out, summarize(rec.Page, rec.Version, rec.UpdatedAt))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pages[id]; !ok {
		return notFound(id)
	}
	delete(r.pages, id)
	return nil
}

func (r *MemoryRepository) Close() error { return nil }

var _ Repository = (*MemoryRepository)(nil)

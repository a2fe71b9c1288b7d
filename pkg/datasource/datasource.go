package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/brickgrid/pkg/cache"
	"github.com/matzehuels/brickgrid/pkg/errors"
	"github.com/matzehuels/brickgrid/pkg/page"
)

// Row is one datasource record.
type Row = map[string]any

// Snapshot is the resolved data of a datasource at one point in time.
type Snapshot struct {
	Ref       string    `json:"ref"`
	Rows      []Row     `json:"rows"`
	IsSample  bool      `json:"isSample,omitempty"`
	Version   string    `json:"version"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// NewSnapshot builds a snapshot whose Version fingerprints rows. Equal rows
// always get the same version.
func NewSnapshot(ref string, rows []Row) (Snapshot, error) {
	if err := errors.ValidateDatasourceRef(ref); err != nil {
		return Snapshot{}, err
	}
	if rows == nil {
		rows = []Row{}
	}
	v, err := cache.HashJSON(rows)
	if err != nil {
		return Snapshot{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "datasource %q rows", ref)
	}
	return Snapshot{Ref: ref, Rows: rows, Version: v[:16]}, nil
}

// Len returns the number of rows.
func (s Snapshot) Len() int { return len(s.Rows) }

// Resolver returns the latest snapshot for a reference. It reports
// NOT_FOUND when nothing has been published.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (Snapshot, error)
}

// Sample returns the binding's sample rows as a snapshot.
func Sample(b *page.Binding) Snapshot {
	s, err := NewSnapshot(b.Ref, b.Sample)
	if err != nil {
		s = Snapshot{Ref: b.Ref, Rows: b.Sample}
	}
	s.IsSample = true
	return s
}

// ResolveBinding resolves the rows of a bound container. Without a resolver,
// or when the resolver has no snapshot, the binding's sample rows are used.
func ResolveBinding(ctx context.Context, r Resolver, b *page.Binding) (Snapshot, error) {
	if b == nil {
		return Snapshot{}, errors.New(errors.ErrCodeInvalidInput, "no datasource binding")
	}
	if r == nil {
		return Sample(b), nil
	}
	s, err := r.Resolve(ctx, b.Ref)
	if errors.Is(err, errors.ErrCodeNotFound) {
		return Sample(b), nil
	}
	return s, err
}

// DecodeRows reads rows from JSON: either an array of objects or an object
// with a "rows" array.
func DecodeRows(r io.Reader) ([]Row, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var rows []Row
	if err := json.Unmarshal(raw, &rows); err == nil {
		return rows, nil
	}
	var wrapped struct {
		Rows []Row `json:"rows"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "rows must be a JSON array of objects")
	}
	if wrapped.Rows == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, `rows object has no "rows" array`)
	}
	return wrapped.Rows, nil
}

// StaticResolver serves fixed rows per reference.
type StaticResolver map[string][]Row

// Resolve implements Resolver.
func (s StaticResolver) Resolve(_ context.Context, ref string) (Snapshot, error) {
	rows, ok := s[ref]
	if !ok {
		return Snapshot{}, errors.New(errors.ErrCodeNotFound, "no snapshot for datasource %q", ref)
	}
	return NewSnapshot(ref, rows)
}

// CacheResolver stores and reads snapshots through a cache.
type CacheResolver struct {
	cache  cache.Cache
	keys   cache.Keyer
	logger *log.Logger
	now    func() time.Time
}

// Option configures a CacheResolver.
type Option func(*CacheResolver)

// WithKeyer sets the keyer, e.g. a cache.ScopedKeyer per tenant.
func WithKeyer(k cache.Keyer) Option {
	return func(r *CacheResolver) { r.keys = k }
}

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(r *CacheResolver) { r.logger = l }
}

// NewCacheResolver creates a resolver over c.
func NewCacheResolver(c cache.Cache, opts ...Option) *CacheResolver {
	r := &CacheResolver{
		cache:  c,
		keys:   cache.NewDefaultKeyer(),
		logger: log.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve implements Resolver.
func (r *CacheResolver) Resolve(ctx context.Context, ref string) (Snapshot, error) {
	if err := errors.ValidateDatasourceRef(ref); err != nil {
		return Snapshot{}, err
	}
	data, ok, err := r.cache.Get(ctx, r.keys.SnapshotKey(ref))
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot %q: %w", ref, err)
	}
	if !ok {
		return Snapshot{}, errors.New(errors.ErrCodeNotFound, "no snapshot for datasource %q", ref)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		r.logger.Warn("discarding unreadable snapshot", "ref", ref, "err", err)
		_ = r.cache.Delete(ctx, r.keys.SnapshotKey(ref))
		return Snapshot{}, errors.New(errors.ErrCodeNotFound, "no snapshot for datasource %q", ref)
	}
	return s, nil
}

// Publish replaces the snapshot for ref and returns it.
func (r *CacheResolver) Publish(ctx context.Context, ref string, rows []Row) (Snapshot, error) {
	s, err := NewSnapshot(ref, rows)
	if err != nil {
		return Snapshot{}, err
	}
	s.UpdatedAt = r.now().UTC()
	data, err := json.Marshal(s)
	if err != nil {
		return Snapshot{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "encode snapshot %q", ref)
	}
	if err := r.cache.Set(ctx, r.keys.SnapshotKey(ref), data, cache.SnapshotTTL); err != nil {
		return Snapshot{}, fmt.Errorf("write snapshot %q: %w", ref, err)
	}
	r.logger.Debug("published snapshot", "ref", ref, "rows", s.Len(), "version", s.Version)
	return s, nil
}

// Unpublish removes the snapshot for ref, so bindings fall back to samples.
func (r *CacheResolver) Unpublish(ctx context.Context, ref string) error {
	return r.cache.Delete(ctx, r.keys.SnapshotKey(ref))
}

// PublishFile publishes the rows stored in a JSON file of fsys.
func (r *CacheResolver) PublishFile(ctx context.Context, fsys fs.FS, name, ref string) (Snapshot, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return Snapshot{}, err
	}
	defer f.Close()
	rows, err := DecodeRows(f)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", name, err)
	}
	return r.Publish(ctx, ref, rows)
}

var (
	_ Resolver = (*CacheResolver)(nil)
	_ Resolver = StaticResolver(nil)
)

package materialize

import (
	"context"
	"encoding/json"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/brickgrid/pkg/cache"
	"github.com/matzehuels/brickgrid/pkg/datasource"
	"github.com/matzehuels/brickgrid/pkg/page"
)

// Memo memoizes Materialize in a cache. Entries are keyed by template id,
// a fingerprint of the container and its template, and the snapshot
// version, so editing the template or publishing new rows misses.
type Memo struct {
	cache  cache.Cache
	keys   cache.Keyer
	logger *log.Logger
}

// Option configures a Memo.
type Option func(*Memo)

// WithKeyer sets the cache keyer.
func WithKeyer(k cache.Keyer) Option {
	return func(m *Memo) { m.keys = k }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(m *Memo) { m.logger = l }
}

// NewMemo creates a memo over c. A nil cache disables memoization.
func NewMemo(c cache.Cache, opts ...Option) *Memo {
	if c == nil {
		c = cache.NewNullCache()
	}
	m := &Memo{
		cache:  c,
		keys:   cache.NewDefaultKeyer(),
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Materialize is the memoized Materialize. Cache failures are logged and
// fall through to computing the result.
func (m *Memo) Materialize(ctx context.Context, container *page.Brick, snap datasource.Snapshot) ([]*page.Brick, error) {
	tpl, err := Template(container)
	if err != nil {
		return nil, err
	}
	if snap.Version == "" {
		return Materialize(container, snap)
	}
	fp, err := cache.HashJSON(struct {
		Container string      `json:"container"`
		Template  *page.Brick `json:"template"`
	}{container.ID, tpl})
	if err != nil {
		return Materialize(container, snap)
	}
	key := m.keys.MaterializeKey(tpl.ID, snap.Version, fp)

	if data, ok, err := m.cache.Get(ctx, key); err != nil {
		m.logger.Warn("materialize cache read failed", "container", container.ID, "err", err)
	} else if ok {
		var out []*page.Brick
		if err := json.Unmarshal(data, &out); err == nil {
			return out, nil
		}
		m.logger.Warn("discarding unreadable materialization", "container", container.ID)
	}

	out, err := Materialize(container, snap)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(out); err == nil {
		if err := m.cache.Set(ctx, key, data, cache.MaterializeTTL); err != nil {
			m.logger.Warn("materialize cache write failed", "container", container.ID, "err", err)
		}
	}
	return out, nil
}

package cache

import "time"

// TTLs for the entry kinds. Snapshots are replaced by publishing, so they
// live until overwritten; materializations are cheap to recompute.
const (
	SnapshotTTL    = time.Duration(0)
	MaterializeTTL = 24 * time.Hour
)

// Key types reported to observability hooks.
const (
	KeyTypeSnapshot    = "snapshot"
	KeyTypeMaterialize = "materialize"
)

// Keyer builds cache keys.
type Keyer interface {
	// SnapshotKey is the key of the latest snapshot of a datasource.
	SnapshotKey(ref string) string

	// MaterializeKey is the key of the bricks materialized from a template
	// for one snapshot version. templateHash fingerprints the template so
	// edits to it invalidate the entry.
	MaterializeKey(templateID, rowsVersion, templateHash string) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SnapshotKey returns "snapshot:<ref>". Refs are validated identifiers, so
// they are used verbatim.
func (DefaultKeyer) SnapshotKey(ref string) string {
	return KeyTypeSnapshot + ":" + ref
}

// MaterializeKey hashes its components.
func (DefaultKeyer) MaterializeKey(templateID, rowsVersion, templateHash string) string {
	return hashKey(KeyTypeMaterialize, templateID, rowsVersion, templateHash)
}

// ScopedKeyer prefixes every key of an inner keyer, for example to keep
// the snapshots of different tenants apart.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) SnapshotKey(ref string) string {
	return k.prefix + k.inner.SnapshotKey(ref)
}

func (k *ScopedKeyer) MaterializeKey(templateID, rowsVersion, templateHash string) string {
	return k.prefix + k.inner.MaterializeKey(templateID, rowsVersion, templateHash)
}

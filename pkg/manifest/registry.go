package manifest

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/brickgrid/pkg/errors"
)

// Provider returns the manifest of a brick type.
type Provider interface {
	Manifest(brickType string) (Manifest, bool)
}

// Lookup returns the manifest of brickType from p, or the Fallback when p is
// nil or does not know the type.
func Lookup(p Provider, brickType string) Manifest {
	if p != nil {
		if m, ok := p.Manifest(brickType); ok {
			return m
		}
	}
	return Fallback(brickType)
}

// Registry is a concurrency-safe in-memory Provider.
type Registry struct {
	mu        sync.RWMutex
	manifests map[string]Manifest
}

// NewRegistry creates a registry holding ms.
func NewRegistry(ms ...Manifest) (*Registry, error) {
	r := &Registry{manifests: make(map[string]Manifest, len(ms))}
	for _, m := range ms {
		if err := r.Register(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register validates m and adds or replaces it.
func (r *Registry) Register(m Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifests[m.Type] = m
	return nil
}

// Manifest implements Provider.
func (r *Registry) Manifest(brickType string) (Manifest, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.manifests[brickType]
	return m, ok
}

// Types returns the registered types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.manifests))
	for t := range r.manifests {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

type catalog struct {
	Bricks []Manifest `yaml:"bricks"`
}

// LoadYAML reads a manifest catalog. Duplicate types are rejected.
func LoadYAML(r io.Reader) (*Registry, error) {
	var c catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "decode catalog")
	}

	seen := make(map[string]bool, len(c.Bricks))
	for _, m := range c.Bricks {
		if seen[m.Type] {
			return nil, errors.New(errors.ErrCodeInvalidManifest, "duplicate manifest for %q", m.Type)
		}
		seen[m.Type] = true
	}
	return NewRegistry(c.Bricks...)
}

// LoadFile reads a manifest catalog from path.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

//go:embed catalog.yaml
var builtinCatalog string

// Builtin returns a registry with the manifests of the stock brick types.
func Builtin() *Registry {
	r, err := LoadYAML(strings.NewReader(builtinCatalog))
	if err != nil {
		panic(fmt.Sprintf("manifest: builtin catalog: %v", err))
	}
	return r
}

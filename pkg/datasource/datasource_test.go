package datasource

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/brickgrid/pkg/cache"
	"github.com/matzehuels/brickgrid/pkg/errors"
	"github.com/matzehuels/brickgrid/pkg/page"
)

var products = []Row{
	{"name": "Lamp", "price": 30.0},
	{"name": "Desk", "price": 120.0},
}

func TestNewSnapshotVersion(t *testing.T) {
	a, err := NewSnapshot("products", products)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewSnapshot("products", []Row{
		{"price": 30.0, "name": "Lamp"},
		{"price": 120.0, "name": "Desk"},
	})
	if a.Version != b.Version {
		t.Errorf("equal rows got versions %q and %q", a.Version, b.Version)
	}
	c, _ := NewSnapshot("products", products[:1])
	if a.Version == c.Version {
		t.Error("different rows share a version")
	}
	if _, err := NewSnapshot("", products); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty ref: %v", err)
	}
	empty, _ := NewSnapshot("none", nil)
	if empty.Rows == nil || empty.Len() != 0 {
		t.Errorf("nil rows not normalized: %#v", empty.Rows)
	}
}

func TestCacheResolverPublishAndResolve(t *testing.T) {
	ctx := context.Background()
	r := NewCacheResolver(cache.NewMemoryCache(), WithKeyer(cache.NewScopedKeyer(nil, "t1:")))
	r.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	if _, err := r.Resolve(ctx, "products"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("Resolve before publish: %v", err)
	}
	published, err := r.Publish(ctx, "products", products)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	got, err := r.Resolve(ctx, "products")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if diff := cmp.Diff(published, got); diff != "" {
		t.Errorf("resolved snapshot (-published +got):\n%s", diff)
	}
	if got.IsSample || got.UpdatedAt.Year() != 2026 {
		t.Errorf("unexpected metadata: %+v", got)
	}

	if err := r.Unpublish(ctx, "products"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Resolve(ctx, "products"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Resolve after unpublish: %v", err)
	}
}

func TestCacheResolverDropsCorruptEntries(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()
	_ = c.Set(ctx, cache.NewDefaultKeyer().SnapshotKey("products"), []byte("not json"), 0)
	r := NewCacheResolver(c)
	if _, err := r.Resolve(ctx, "products"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Resolve: %v", err)
	}
	if c.Len() != 0 {
		t.Error("corrupt entry was kept")
	}
}

func TestResolveBinding(t *testing.T) {
	ctx := context.Background()
	binding := &page.Binding{Ref: "products", Sample: []map[string]any{{"name": "Sample"}}}

	tests := []struct {
		name       string
		resolver   Resolver
		wantRows   int
		wantSample bool
	}{
		{"no resolver", nil, 1, true},
		{"nothing published", StaticResolver{}, 1, true},
		{"live rows", StaticResolver{"products": products}, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ResolveBinding(ctx, tt.resolver, binding)
			if err != nil {
				t.Fatal(err)
			}
			if s.Len() != tt.wantRows || s.IsSample != tt.wantSample {
				t.Errorf("got %d rows (sample %v), want %d (sample %v)", s.Len(), s.IsSample, tt.wantRows, tt.wantSample)
			}
		})
	}

	if _, err := ResolveBinding(ctx, nil, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("nil binding: %v", err)
	}
}

func TestDecodeRows(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int
		wantErr bool
	}{
		{"array", `[{"a":1},{"a":2}]`, 2, false},
		{"wrapped", `{"rows":[{"a":1}]}`, 1, false},
		{"empty array", `[]`, 0, false},
		{"scalars", `[1,2]`, 0, true},
		{"object without rows", `{"data":[]}`, 0, true},
		{"garbage", `{`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := DecodeRows(strings.NewReader(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeRows() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(rows) != tt.want {
				t.Errorf("len(rows) = %d, want %d", len(rows), tt.want)
			}
		})
	}
}

func TestPublishFile(t *testing.T) {
	fsys := fstest.MapFS{"rows.json": {Data: []byte(`{"rows":[{"a":1},{"a":2},{"a":3}]}`)}}
	r := NewCacheResolver(cache.NewMemoryCache())
	s, err := r.PublishFile(context.Background(), fsys, "rows.json", "numbers")
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 3 || s.Ref != "numbers" {
		t.Errorf("snapshot = %+v", s)
	}
	if _, err := r.PublishFile(context.Background(), fsys, "missing.json", "x"); err == nil {
		t.Error("missing file published")
	}
}

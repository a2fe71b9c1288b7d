package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/brickgrid/pkg/errors"
	"github.com/matzehuels/brickgrid/pkg/grid"
	"github.com/matzehuels/brickgrid/pkg/page"
)

func testPage(id string) *page.Page {
	r := grid.GridRect{X: 1, Y: 2, W: 6, H: grid.Extent(3)}
	return &page.Page{
		ID:    id,
		Title: "Page " + id,
		Sections: []*page.Section{{
			ID: "main",
			Position: page.SectionPositions{
				Desktop: page.SectionSize{H: grid.Full},
				Mobile:  page.SectionSize{H: 20},
			},
			Bricks: []*page.Brick{{
				ID:       "hello",
				Type:     "text",
				Position: page.Positions{Desktop: page.Position{GridRect: r}, Mobile: page.Position{GridRect: r, ManualHeight: 80}},
				Props:    map[string]any{"text": "Hello"},
			}},
		}},
	}
}

func repositories(t *testing.T) map[string]Repository {
	t.Helper()
	file, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "pages.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	mem, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite(:memory:): %v", err)
	}
	repos := map[string]Repository{
		"memory":        NewMemoryRepository(),
		"sqlite":        file,
		"sqlite-memory": mem,
	}
	t.Cleanup(func() {
		for _, r := range repos {
			r.Close()
		}
	})
	return repos
}

func TestRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := repo.Get(ctx, "home"); !errors.Is(err, errors.ErrCodeNotFound) {
				t.Fatalf("Get on empty repository: %v", err)
			}

			p := testPage("home")
			rec, err := repo.Put(ctx, p)
			if err != nil {
				t.Fatalf("Put: %v", err)
			}
			if rec.Version != 1 {
				t.Errorf("first version = %d, want 1", rec.Version)
			}

			got, err := repo.Get(ctx, "home")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if diff := cmp.Diff(p, got.Page); diff != "" {
				t.Errorf("stored page (-put +got):\n%s", diff)
			}

			p.Title = "Renamed"
			rec, err = repo.Put(ctx, p)
			if err != nil {
				t.Fatal(err)
			}
			if rec.Version != 2 {
				t.Errorf("second version = %d, want 2", rec.Version)
			}

			if _, err := repo.Put(ctx, testPage("about")); err != nil {
				t.Fatal(err)
			}
			list, err := repo.List(ctx)
			if err != nil {
				t.Fatal(err)
			}
			var ids []string
			for _, s := range list {
				ids = append(ids, s.ID)
			}
			if diff := cmp.Diff([]string{"about", "home"}, ids); diff != "" {
				t.Errorf("List ids (-want +got):\n%s", diff)
			}
			if list[1].Title != "Renamed" || list[1].Bricks != 1 || list[1].Version != 2 {
				t.Errorf("summary = %+v", list[1])
			}

			if err := repo.Delete(ctx, "home"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if err := repo.Delete(ctx, "home"); !errors.Is(err, errors.ErrCodeNotFound) {
				t.Errorf("second Delete: %v", err)
			}
		})
	}
}

func TestRepositoryRejectsInvalidPages(t *testing.T) {
	ctx := context.Background()
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := repo.Put(ctx, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("Put(nil): %v", err)
			}
			if _, err := repo.Put(ctx, &page.Page{ID: "a/b"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("Put with a bad id: %v", err)
			}
		})
	}
}

func TestMemoryRepositoryCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	p := testPage("home")
	if _, err := repo.Put(ctx, p); err != nil {
		t.Fatal(err)
	}
	p.Sections[0].Bricks[0].Props["text"] = "changed"
	got, _ := repo.Get(ctx, "home")
	if got.Page.Sections[0].Bricks[0].Props["text"] != "Hello" {
		t.Error("repository aliases the caller's page")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	repo, err := Open(ctx, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := repo.(*MemoryRepository); !ok {
		t.Errorf("default driver gave %T", repo)
	}

	repo, err = Open(ctx, Options{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "p.db")})
	if err != nil {
		t.Fatal(err)
	}
	repo.Close()

	if _, err := Open(ctx, Options{Driver: "oracle"}); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("unknown driver: %v", err)
	}
	if _, err := Open(ctx, Options{Driver: DriverSQLite}); err == nil {
		t.Error("sqlite without a path succeeded")
	}
}

func TestOpenMongoUnreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := OpenMongo(ctx, "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=100", "", ""); err == nil {
		t.Error("OpenMongo succeeded against a closed port")
	}
	if _, err := OpenMongo(context.Background(), "", "", ""); err == nil {
		t.Error("OpenMongo accepted an empty uri")
	}
}

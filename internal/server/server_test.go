package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/brickgrid/pkg/errors"
	"github.com/matzehuels/brickgrid/pkg/grid"
	"github.com/matzehuels/brickgrid/pkg/materialize"
	"github.com/matzehuels/brickgrid/pkg/page"
	"github.com/matzehuels/brickgrid/pkg/storage"
)

func rect(x, y int, w, h grid.Extent) page.Positions {
	r := grid.GridRect{X: x, Y: y, W: w, H: h}
	return page.Positions{Desktop: page.Position{GridRect: r}, Mobile: page.Position{GridRect: r}}
}

// shopPage:
//
//	main
//	  title  text       (0,0,12,2)
//	  list   card-list  (0,3,24,8)  bound to "products"
//	    card card       (0,0,6,4)
//	  box    container  (0,12,12,6)
//	  cta    button     (14,12,4,2)
func shopPage() *page.Page {
	return &page.Page{
		ID:    "shop",
		Title: "Shop",
		Sections: []*page.Section{{
			ID: "main",
			Position: page.SectionPositions{
				Desktop: page.SectionSize{H: 30},
				Mobile:  page.SectionSize{H: 60},
			},
			Bricks: []*page.Brick{
				{ID: "title", Type: "text", Position: rect(0, 0, 12, 2)},
				{
					ID: "list", Type: "card-list", IsContainer: true, Position: rect(0, 3, 24, 8),
					Datasource: &page.Binding{Ref: "products", Sample: []map[string]any{{"name": "Sample"}}},
					Children: []*page.Brick{
						{ID: "card", Type: "card", IsContainer: true, Position: rect(0, 0, 6, 4),
							Props: map[string]any{"name": "Untitled"}},
					},
				},
				{ID: "box", Type: "container", IsContainer: true, Position: rect(0, 12, 12, 6)},
				{ID: "cta", Type: "button", Position: rect(14, 12, 4, 2)},
			},
		}},
	}
}

func newTestServer(t *testing.T) (*Server, storage.Repository) {
	t.Helper()
	repo := storage.NewMemoryRepository()
	if _, err := repo.Put(context.Background(), shopPage()); err != nil {
		t.Fatal(err)
	}
	logger := log.NewWithOptions(io.Discard, log.Options{})
	return New(repo, WithLogger(logger)), repo
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode[map[string]string](t, rec); got["status"] != "ok" {
		t.Errorf("body = %v", got)
	}
}

func TestErrorResponses(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   errors.Code
	}{
		{"unknown page", http.MethodGet, "/pages/nope", "", http.StatusNotFound, errors.ErrCodeNotFound},
		{"unknown brick", http.MethodPost, "/pages/shop/bricks/ghost/move", `{"bp":"desktop","to":{"x":1,"y":1}}`,
			http.StatusNotFound, errors.ErrCodeNotFound},
		{"negative origin", http.MethodPost, "/pages/shop/bricks/title/move", `{"bp":"desktop","to":{"x":-1,"y":0}}`,
			http.StatusUnprocessableEntity, errors.ErrCodeInvalidPosition},
		{"bad breakpoint", http.MethodPost, "/pages/shop/bricks/title/move", `{"bp":"tablet","to":{"x":1,"y":0}}`,
			http.StatusUnprocessableEntity, errors.ErrCodeInvalidBreakpoint},
		{"malformed body", http.MethodPost, "/pages/shop/bricks/title/move", `{"bp":`,
			http.StatusUnprocessableEntity, errors.ErrCodeInvalidInput},
		{"unknown field", http.MethodPost, "/pages/shop/bricks/title/move", `{"where":"left"}`,
			http.StatusUnprocessableEntity, errors.ErrCodeInvalidInput},
		{"cyclic reparent", http.MethodPost, "/pages/shop/bricks/list/reparent", `{"parentId":"card"}`,
			http.StatusUnprocessableEntity, errors.ErrCodeCyclicParent},
		{"duplicate id", http.MethodPost, "/pages/shop/bricks",
			`{"brick":{"id":"title","type":"text","position":{"desktop":{"x":0,"y":0,"w":2,"h":2},"mobile":{"x":0,"y":0,"w":2,"h":2}}}}`,
			http.StatusConflict, errors.ErrCodeDuplicateID},
		{"bad render breakpoint", http.MethodGet, "/pages/shop/render?bp=watch", "",
			http.StatusUnprocessableEntity, errors.ErrCodeInvalidBreakpoint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got := decode[errorBody](t, rec); got.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", got.Code, tt.wantCode)
			}
		})
	}

	// None of the rejected commands reached the repository.
	rec, _ := s.repo.Get(context.Background(), "shop")
	if rec.Version != 1 {
		t.Errorf("repository version = %d after rejected commands, want 1", rec.Version)
	}
}

func TestMovePersists(t *testing.T) {
	s, repo := newTestServer(t)
	before, _ := repo.Get(context.Background(), "shop")

	rec := do(t, s, http.MethodPost, "/pages/shop/bricks/title/move",
		`{"bp":"desktop","to":{"x":4,"y":1},"group":["cta"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	pos := decode[page.Position](t, rec)
	if pos.X != 4 || pos.Y != 1 {
		t.Errorf("title at (%d,%d), want (4,1)", pos.X, pos.Y)
	}

	after, err := repo.Get(context.Background(), "shop")
	if err != nil {
		t.Fatal(err)
	}
	if after.Version != before.Version+1 {
		t.Errorf("repository version %d, want %d", after.Version, before.Version+1)
	}
	loc, _ := after.Page.Find("cta")
	if got := loc.Brick.Rect(grid.Desktop).Origin(); got != (grid.Point{X: 18, Y: 13}) {
		t.Errorf("group member cta at %+v, want (18,13)", got)
	}
	loc, _ = after.Page.Find("title")
	if got := loc.Brick.Rect(grid.Mobile).Origin(); got != (grid.Point{}) {
		t.Errorf("mobile position changed to %+v", got)
	}
}

func TestResizeClampsToManifest(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/pages/shop/bricks/cta/resize", `{"bp":"desktop","size":{"w":20,"h":5}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	pos := decode[page.Position](t, rec)
	if pos.W != 12 || pos.H != 2 {
		t.Errorf("button resized to %sx%s, want 12x2", pos.W, pos.H)
	}
}

func TestInsertReparentRemove(t *testing.T) {
	s, repo := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/pages/shop/bricks",
		`{"brick":{"type":"text","position":{"desktop":{"x":0,"y":0,"w":4,"h":2},"mobile":{"x":0,"y":0,"w":4,"h":2}}},"parentId":"box"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("insert status = %d: %s", rec.Code, rec.Body.String())
	}
	id, _ := decode[map[string]any](t, rec)["id"].(string)
	if id == "" {
		t.Fatal("insert returned no id")
	}

	rec = do(t, s, http.MethodPost, "/pages/shop/bricks/"+id+"/reparent", `{"parentId":""}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("reparent status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[map[string]string](t, rec); got["parentId"] != "" || got["section"] != "main" {
		t.Errorf("reparent result = %v", got)
	}

	rec = do(t, s, http.MethodDelete, "/pages/shop/bricks/"+id, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("remove status = %d: %s", rec.Code, rec.Body.String())
	}
	stored, _ := repo.Get(context.Background(), "shop")
	if _, ok := stored.Page.Find(id); ok {
		t.Error("removed brick still stored")
	}
	if stored.Page.Count() != shopPage().Count() {
		t.Errorf("stored %d bricks, want %d", stored.Page.Count(), shopPage().Count())
	}
}

func TestPublishAndRender(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/pages/shop/render?bp=desktop", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("render status = %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[renderResponse](t, rec)
	if !got.Sources["list"].IsSample || len(instances(got.Items, "list")) != 1 {
		t.Errorf("render before publish = %+v", got)
	}

	rec = do(t, s, http.MethodPut, "/datasources/products", `[{"name":"Lamp"},{"name":"Desk"},{"name":"Chair"}]`)
	if rec.Code != http.StatusOK {
		t.Fatalf("publish status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[map[string]any](t, rec); got["rows"] != float64(3) {
		t.Errorf("publish result = %v", got)
	}

	rec = do(t, s, http.MethodGet, "/pages/shop/render", "")
	got = decode[renderResponse](t, rec)
	items := instances(got.Items, "list")
	var names []any
	for _, it := range items {
		names = append(names, it.Props["name"])
	}
	if diff := cmp.Diff([]any{"Lamp", "Desk", "Chair"}, names); diff != "" {
		t.Errorf("instance names (-want +got):\n%s", diff)
	}
	if got.Breakpoint != grid.Desktop || got.Sources["list"].IsSample {
		t.Errorf("render meta = %s sample=%v", got.Breakpoint, got.Sources["list"].IsSample)
	}

	rec = do(t, s, http.MethodDelete, "/datasources/products", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("unpublish status = %d", rec.Code)
	}
}

func instances(items []materialize.Item, container string) []materialize.Item {
	var out []materialize.Item
	for _, it := range items {
		if it.ParentID == container {
			out = append(out, it)
		}
	}
	return out
}

func TestCollisions(t *testing.T) {
	s, _ := newTestServer(t)
	if rec := do(t, s, http.MethodPost, "/pages/shop/bricks/cta/move", `{"bp":"desktop","to":{"x":10,"y":13}}`); rec.Code != http.StatusOK {
		t.Fatalf("move status = %d: %s", rec.Code, rec.Body.String())
	}

	rec := do(t, s, http.MethodGet, "/pages/shop/collisions?bp=desktop", "")
	want := []page.Collision{{A: "box", B: "cta"}}
	if diff := cmp.Diff(want, decode[[]page.Collision](t, rec)); diff != "" {
		t.Errorf("collisions (-want +got):\n%s", diff)
	}

	rec = do(t, s, http.MethodGet, "/pages/shop/collisions?bp=mobile&parent=main", "")
	if got := decode[[]page.Collision](t, rec); len(got) != 0 {
		t.Errorf("mobile collisions = %v, want none", got)
	}
}

func TestPosition(t *testing.T) {
	s, _ := newTestServer(t)
	body := `{"bp":"desktop","element":{"x":60,"y":48,"w":40,"h":48},"container":{"x":0,"y":0,"w":240,"h":480},"paddingX":0}`
	rec := do(t, s, http.MethodPost, "/pages/shop/position", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	want := grid.GridRect{X: 6, Y: 2, W: 4, H: 2}
	if got := decode[grid.GridRect](t, rec); got != want {
		t.Errorf("position = %v, want %v", got, want)
	}
}

func TestPutPage(t *testing.T) {
	s, repo := newTestServer(t)

	var buf bytes.Buffer
	p := shopPage()
	p.Title = "Renamed"
	if err := json.NewEncoder(&buf).Encode(p); err != nil {
		t.Fatal(err)
	}
	rec := do(t, s, http.MethodPut, "/pages/shop", buf.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	stored, _ := repo.Get(context.Background(), "shop")
	if stored.Page.Title != "Renamed" {
		t.Errorf("title = %q", stored.Page.Title)
	}

	rec = do(t, s, http.MethodPut, "/pages/other", buf.String())
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("mismatched id status = %d", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/pages", "")
	if list := decode[[]storage.Summary](t, rec); len(list) != 1 || list[0].Title != "Renamed" {
		t.Errorf("list = %+v", list)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	do(t, s, http.MethodGet, "/health", "")
	rec := do(t, s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `brickgrid_http_requests_total{method="GET",route="/health",status="200"} 1`) {
		t.Errorf("metrics output lacks the health request:\n%s", rec.Body.String())
	}
}

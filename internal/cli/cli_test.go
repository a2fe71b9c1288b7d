package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/brickgrid/pkg/errors"
	"github.com/matzehuels/brickgrid/pkg/grid"
	pageio "github.com/matzehuels/brickgrid/pkg/io"
	"github.com/matzehuels/brickgrid/pkg/materialize"
	"github.com/matzehuels/brickgrid/pkg/page"
)

func rect(x, y int, w, h grid.Extent) page.Positions {
	r := grid.GridRect{X: x, Y: y, W: w, H: h}
	return page.Positions{Desktop: page.Position{GridRect: r}, Mobile: page.Position{GridRect: r}}
}

// testPage:
//
//	main (order 0)
//	  title      text       (0,0,12,2)
//	  cta        button     (14,0,4,2)
//	  gallery    container  (0,4,24,10)
//	    photo    image      (0,0,4,4)
//	aside (order 1)
//	  note       text       (0,0,6,2)
func testPage() *page.Page {
	return &page.Page{
		ID: "landing",
		Sections: []*page.Section{
			{
				ID: "main",
				Position: page.SectionPositions{
					Desktop: page.SectionSize{H: 20},
					Mobile:  page.SectionSize{H: 40},
				},
				Bricks: []*page.Brick{
					{ID: "title", Type: "text", Position: rect(0, 0, 12, 2)},
					{ID: "cta", Type: "button", Position: rect(14, 0, 4, 2)},
					{
						ID: "gallery", Type: "container", IsContainer: true, Position: rect(0, 4, 24, 10),
						Children: []*page.Brick{
							{ID: "photo", Type: "image", ParentID: "gallery", Position: rect(0, 0, 4, 4)},
						},
					},
				},
			},
			{
				ID:    "aside",
				Order: 1,
				Position: page.SectionPositions{
					Desktop: page.SectionSize{H: grid.Full},
					Mobile:  page.SectionSize{H: 10},
				},
				Bricks: []*page.Brick{
					{ID: "note", Type: "text", Position: rect(0, 0, 6, 2)},
				},
			},
		},
	}
}

// isolate keeps config, dotenv and cache lookups away from the user's
// environment.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Chdir(dir)
	return dir
}

func writePage(t *testing.T, dir string, p *page.Page) string {
	t.Helper()
	path := filepath.Join(dir, p.ID+".json")
	if err := pageio.ExportPage(p, path); err != nil {
		t.Fatalf("ExportPage: %v", err)
	}
	return path
}

func readPage(t *testing.T, path string) *page.Page {
	t.Helper()
	p, err := pageio.ImportPage(path)
	if err != nil {
		t.Fatalf("ImportPage: %v", err)
	}
	return p
}

func brick(t *testing.T, p *page.Page, id string) *page.Brick {
	t.Helper()
	var found *page.Brick
	p.Walk(func(_ *page.Section, _, b *page.Brick) bool {
		if b.ID == id {
			found = b
			return false
		}
		return true
	})
	if found == nil {
		t.Fatalf("brick %q not found", id)
	}
	return found
}

// execute runs the root command with args.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

// =============================================================================
// Flags
// =============================================================================

func TestParseFlags(t *testing.T) {
	if p, err := parsePoint("3, 4"); err != nil || p != (grid.Point{X: 3, Y: 4}) {
		t.Errorf("parsePoint = %v, %v", p, err)
	}
	if s, err := parseSize("6,2"); err != nil || s != (grid.Size{W: 6, H: 2}) {
		t.Errorf("parseSize = %v, %v", s, err)
	}
	if r, err := parsePixelRect("10,20.5,30,40"); err != nil || r != (grid.PixelRect{X: 10, Y: 20.5, W: 30, H: 40}) {
		t.Errorf("parsePixelRect = %v, %v", r, err)
	}
	if e, err := parseExtent("FULL"); err != nil || !e.IsFull() {
		t.Errorf("parseExtent(FULL) = %v, %v", e, err)
	}
	if e, err := parseExtent("7"); err != nil || e != 7 {
		t.Errorf("parseExtent(7) = %v, %v", e, err)
	}
	if ref, path, err := parseRefFile("products=data/p.json"); err != nil || ref != "products" || path != "data/p.json" {
		t.Errorf("parseRefFile = %q, %q, %v", ref, path, err)
	}

	bad := []struct {
		name string
		fn   func() error
	}{
		{"point arity", func() error { _, err := parsePoint("1"); return err }},
		{"point value", func() error { _, err := parsePoint("a,b"); return err }},
		{"size arity", func() error { _, err := parseSize("1,2,3"); return err }},
		{"pixel rect", func() error { _, err := parsePixelRect("1,2,3"); return err }},
		{"zero extent", func() error { _, err := parseExtent("0"); return err }},
		{"word extent", func() error { _, err := parseExtent("half"); return err }},
		{"ref without path", func() error { _, _, err := parseRefFile("products="); return err }},
		{"no separator", func() error { _, _, err := parseRefFile("products.json"); return err }},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("err = %v, want INVALID_INPUT", err)
			}
		})
	}
}

// =============================================================================
// Layout commands
// =============================================================================

func TestMoveCommand(t *testing.T) {
	dir := isolate(t)
	path := writePage(t, dir, testPage())

	if err := execute(t, "move", path, "title", "--to", "2,1", "--group", "cta"); err != nil {
		t.Fatalf("move: %v", err)
	}
	p := readPage(t, path)
	if got := brick(t, p, "title").Rect(grid.Desktop).Origin(); got != (grid.Point{X: 2, Y: 1}) {
		t.Errorf("title at %v, want (2,1)", got)
	}
	if got := brick(t, p, "cta").Rect(grid.Desktop).Origin(); got != (grid.Point{X: 16, Y: 1}) {
		t.Errorf("cta at %v, want (16,1)", got)
	}
	if got := brick(t, p, "title").Rect(grid.Mobile).Origin(); got != (grid.Point{}) {
		t.Errorf("mobile title moved to %v", got)
	}
}

func TestMoveCommandToOutput(t *testing.T) {
	dir := isolate(t)
	path := writePage(t, dir, testPage())
	out := filepath.Join(dir, "moved.yaml")

	if err := execute(t, "move", path, "note", "--to", "3,3", "--bp", "mobile", "-o", out); err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := brick(t, readPage(t, out), "note").Rect(grid.Mobile).Origin(); got != (grid.Point{X: 3, Y: 3}) {
		t.Errorf("note at %v, want (3,3)", got)
	}
	if got := brick(t, readPage(t, path), "note").Rect(grid.Mobile).Origin(); got != (grid.Point{}) {
		t.Errorf("input was rewritten: note at %v", got)
	}
}

func TestLayoutCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"negative origin", []string{"move", "PAGE", "title", "--to", "-1,0"}, errors.ErrCodeInvalidPosition},
		{"unknown brick", []string{"move", "PAGE", "ghost", "--to", "1,1"}, errors.ErrCodeNotFound},
		{"bad breakpoint", []string{"resize", "PAGE", "title", "--size", "4,2", "--bp", "tablet"}, errors.ErrCodeInvalidBreakpoint},
		{"into itself", []string{"reparent", "PAGE", "gallery", "--parent", "gallery"}, errors.ErrCodeCyclicParent},
		{"into a leaf", []string{"reparent", "PAGE", "note", "--parent", "title"}, errors.ErrCodeInvalidParent},
		{"duplicate id", []string{"insert", "PAGE", "--type", "text", "--id", "title"}, errors.ErrCodeDuplicateID},
		{"remove unknown", []string{"remove", "PAGE", "ghost"}, errors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			path := writePage(t, dir, testPage())
			args := append([]string(nil), tt.args...)
			args[1] = path

			err := execute(t, args...)
			if !errors.Is(err, tt.code) {
				t.Fatalf("err = %v, want %s", err, tt.code)
			}
			if diff := cmp.Diff(readPage(t, writePage(t, t.TempDir(), testPage())), readPage(t, path)); diff != "" {
				t.Errorf("page changed on failure (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResizeCommandClamps(t *testing.T) {
	dir := isolate(t)
	path := writePage(t, dir, testPage())

	if err := execute(t, "resize", path, "cta", "--size", "20,5"); err != nil {
		t.Fatalf("resize: %v", err)
	}
	got := brick(t, readPage(t, path), "cta").Rect(grid.Desktop)
	if got.W != 12 || got.H != 2 {
		t.Errorf("cta is %sx%s, want 12x2", got.W, got.H)
	}
}

func TestResizeCommandMobile(t *testing.T) {
	dir := isolate(t)
	path := writePage(t, dir, testPage())

	err := execute(t, "resize", path, "title", "--size", "12,5", "--bp", "mobile",
		"--origin", "0,1", "--manual-height", "118")
	if err != nil {
		t.Fatalf("resize: %v", err)
	}
	pos := brick(t, readPage(t, path), "title").Position.Mobile
	want := page.Position{GridRect: grid.GridRect{X: 0, Y: 1, W: 12, H: 5}, ManualHeight: 118}
	if diff := cmp.Diff(want, pos); diff != "" {
		t.Errorf("mobile position (-want +got):\n%s", diff)
	}
}

func TestInsertReparentRemove(t *testing.T) {
	dir := isolate(t)
	path := writePage(t, dir, testPage())

	steps := [][]string{
		{"insert", path, "--type", "text", "--id", "caption", "--at", "0,16", "--width", "full", "--height", "2"},
		{"reparent", path, "caption", "--parent", "gallery", "--index", "0"},
		{"remove", path, "photo"},
	}
	for _, args := range steps {
		if err := execute(t, args...); err != nil {
			t.Fatalf("%s: %v", args[0], err)
		}
	}

	p := readPage(t, path)
	gallery := brick(t, p, "gallery")
	if len(gallery.Children) != 1 || gallery.Children[0].ID != "caption" {
		t.Fatalf("gallery children = %v", gallery.Children)
	}
	caption := gallery.Children[0]
	if caption.ParentID != "gallery" {
		t.Errorf("caption parent = %q", caption.ParentID)
	}
	if !caption.Rect(grid.Desktop).W.IsFull() {
		t.Errorf("caption width = %s, want full", caption.Rect(grid.Desktop).W)
	}
	if n := p.Count(); n != 5 {
		t.Errorf("Count() = %d, want 5", n)
	}
}

func TestPositionCommand(t *testing.T) {
	isolate(t)
	err := execute(t, "position", "--element", "60,48,40,48", "--container", "0,0,240,480")
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	err = execute(t, "position", "--element", "0,0,10,10", "--container", "0,0,40,40", "--padding", "20")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("unmeasured container: err = %v, want INVALID_INPUT", err)
	}
}

// =============================================================================
// Validate
// =============================================================================

func TestValidatePage(t *testing.T) {
	dir := isolate(t)
	p := testPage()
	p.Sections[0].Bricks[1].Position.Desktop.X = 10 // cta over title
	path := writePage(t, dir, p)

	c := New(io.Discard, LogInfo)
	report, err := c.validatePage(path)
	if err != nil {
		t.Fatalf("validatePage: %v", err)
	}
	if report.Sections != 2 || report.Bricks != 5 {
		t.Errorf("report = %d sections, %d bricks", report.Sections, report.Bricks)
	}
	if got := report.Collisions[grid.Desktop]; len(got) != 1 {
		t.Errorf("desktop collisions = %v, want one", got)
	}
	if got := report.Collisions[grid.Mobile]; len(got) != 0 {
		t.Errorf("mobile collisions = %v, want none", got)
	}
	if report.overlaps() != 1 {
		t.Errorf("overlaps() = %d", report.overlaps())
	}
}

func TestRunValidate(t *testing.T) {
	dir := isolate(t)
	good := writePage(t, dir, testPage())
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"id": "bad", "sections": [{"id": "s"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, LogInfo)
	if err := c.runValidate([]string{good}); err != nil {
		t.Errorf("valid page: %v", err)
	}
	if err := c.runValidate([]string{good, bad}); !errors.Is(err, errors.ErrCodeInvalidDocument) {
		t.Errorf("invalid page: err = %v, want INVALID_DOCUMENT", err)
	}
}

// =============================================================================
// Materialize and preview
// =============================================================================

func shopPage() *page.Page {
	return &page.Page{
		ID: "shop",
		Sections: []*page.Section{{
			ID: "main",
			Position: page.SectionPositions{
				Desktop: page.SectionSize{H: 30},
				Mobile:  page.SectionSize{H: 60},
			},
			Bricks: []*page.Brick{
				{
					ID: "list", Type: "card-list", IsContainer: true, Position: rect(0, 0, 24, 8),
					Datasource: &page.Binding{Ref: "products", Sample: []map[string]any{{"name": "Sample"}}},
					Children: []*page.Brick{
						{ID: "card", Type: "card", IsContainer: true, ParentID: "list", Position: rect(0, 0, 6, 4),
							Props: map[string]any{"name": "Untitled"}},
					},
				},
			},
		}},
	}
}

func TestMaterializeCommand(t *testing.T) {
	dir := isolate(t)
	path := writePage(t, dir, shopPage())
	rows := filepath.Join(dir, "rows.json")
	if err := os.WriteFile(rows, []byte(`[{"name": "Lamp"}, {"name": "Desk"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "render.json")

	err := execute(t, "materialize", path, "--rows", "products="+rows, "--no-cache", "-o", out)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var items []materialize.Item
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("decode render list: %v", err)
	}

	var ids, names []string
	for _, it := range items {
		ids = append(ids, it.ID)
		if it.Source == "list" {
			names = append(names, it.Props["name"].(string))
		}
	}
	if diff := cmp.Diff([]string{"list", "list-0", "list-1"}, ids); diff != "" {
		t.Errorf("ids (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Lamp", "Desk"}, names); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
}

func TestMaterializeCommandFormat(t *testing.T) {
	dir := isolate(t)
	path := writePage(t, dir, shopPage())

	err := execute(t, "materialize", path, "--format", "svg")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestPublishThenMaterialize(t *testing.T) {
	dir := isolate(t)
	path := writePage(t, dir, shopPage())
	rows := filepath.Join(dir, "rows.json")
	if err := os.WriteFile(rows, []byte(`{"rows": [{"name": "Chair"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "publish", "products="+rows); err != nil {
		t.Fatalf("publish: %v", err)
	}

	out := filepath.Join(dir, "page.json")
	if err := execute(t, "materialize", path, "--format", "page", "-o", out); err != nil {
		t.Fatalf("materialize: %v", err)
	}
	list := brick(t, readPage(t, out), "list")
	if len(list.Children) != 1 || list.Children[0].Props["name"] != "Chair" {
		t.Errorf("list children = %+v", list.Children)
	}

	if err := execute(t, "publish", "--remove", "products"); err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	if err := execute(t, "materialize", path, "--format", "page", "-o", out); err != nil {
		t.Fatalf("materialize: %v", err)
	}
	list = brick(t, readPage(t, out), "list")
	if len(list.Children) != 1 || list.Children[0].Props["name"] != "Sample" {
		t.Errorf("after unpublish, list children = %+v", list.Children)
	}
}

func TestSectionCanvas(t *testing.T) {
	items := []materialize.Item{
		{ID: "a", Section: "s", Rect: materialize.Cell{X: 0, Y: 0, W: 4, H: 2}},
		{ID: "c", Section: "s", ParentID: "a", Depth: 1, Rect: materialize.Cell{X: 1, Y: 0, W: 1, H: 1}},
		{ID: "b", Section: "s", Rect: materialize.Cell{X: 2, Y: 1, W: 4, H: 2}},
		{ID: "z", Section: "other", Rect: materialize.Cell{X: 0, Y: 0, W: 24, H: 9}},
	}
	cv := sectionCanvas(items, "s", 2, grid.Columns)

	if cv.rows != 3 {
		t.Errorf("rows = %d, want 3 (grown to fit b)", cv.rows)
	}
	cases := []struct {
		x, y, want int
	}{
		{0, 0, 0},  // a
		{1, 0, 1},  // c over its container
		{2, 1, -2}, // a and b
		{5, 2, 2},  // b alone
		{8, 0, -1}, // empty, z is elsewhere
	}
	for _, tt := range cases {
		if got := cv.owner[tt.y][tt.x]; got != tt.want {
			t.Errorf("owner(%d,%d) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestAbsoluteCells(t *testing.T) {
	items := []materialize.Item{
		{ID: "box", Rect: materialize.Cell{X: 2, Y: 3, W: 10, H: 6}},
		{ID: "inner", ParentID: "box", Rect: materialize.Cell{X: 1, Y: 1, W: 4, H: 4}},
		{ID: "leaf", ParentID: "inner", Rect: materialize.Cell{X: 1, Y: 0, W: 1, H: 1}},
	}
	want := []materialize.Cell{
		{X: 2, Y: 3, W: 10, H: 6},
		{X: 3, Y: 4, W: 4, H: 4},
		{X: 4, Y: 4, W: 1, H: 1},
	}
	if diff := cmp.Diff(want, absoluteCells(items)); diff != "" {
		t.Errorf("absoluteCells (-want +got):\n%s", diff)
	}
}

// =============================================================================
// Serve
// =============================================================================

func TestDatasourceRef(t *testing.T) {
	tests := []struct {
		path string
		ref  string
		ok   bool
	}{
		{"/data/products.json", "products", true},
		{"orders.json", "orders", true},
		{"/data/.products.json", "", false},
		{"/data/notes.txt", "", false},
	}
	for _, tt := range tests {
		ref, ok := datasourceRef(tt.path)
		if ref != tt.ref && tt.ok || ok != tt.ok {
			t.Errorf("datasourceRef(%q) = %q, %v; want %q, %v", tt.path, ref, ok, tt.ref, tt.ok)
		}
	}
}

package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/brickgrid/pkg/errors"
	"github.com/matzehuels/brickgrid/pkg/gesture"
	"github.com/matzehuels/brickgrid/pkg/grid"
	"github.com/matzehuels/brickgrid/pkg/materialize"
	"github.com/matzehuels/brickgrid/pkg/page"
	"github.com/matzehuels/brickgrid/pkg/store"
)

// The editor draws one grid cell as cellChars terminal columns and one
// terminal line, and maps it to cellPx page pixels in both directions.
const (
	cellChars = 2
	cellPx    = float64(grid.RowHeight)

	// gridTop is the first terminal line of the grid.
	gridTop = 2
)

var (
	styleSelected = lipgloss.NewStyle().Reverse(true)
	styleGhost    = lipgloss.NewStyle().Foreground(colorCyan)
	styleHelp     = lipgloss.NewStyle().Foreground(colorDim)
	styleErrLine  = lipgloss.NewStyle().Foreground(colorRed)
)

// editCommand creates the edit command.
func (c *CLI) editCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "edit [page]",
		Short: "Edit a page layout interactively in the terminal",
		Long: `Open a page in a terminal grid editor.

Drag a brick with the mouse to move it and drag its right or bottom edge
to resize it; the keyboard does the same one cell at a time. Moves and
resizes run through the same gesture rules as the browser editor: drag is
desktop only and mobile resizes change the height only.

Keys:
  tab / shift+tab     select the next / previous brick
  arrows              move the selected brick
  shift+arrows        resize the selected brick
  [ / ]               previous / next section
  m                   switch between desktop and mobile
  s                   save
  esc                 cancel the active gesture
  q                   quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore(args[0])
			if err != nil {
				return err
			}
			save := func() (string, error) { return savePage(st, args[0], output) }
			m := newEditorModel(st, save, c.config.Editor.Debounce, gesture.WithLogger(c.Logger))

			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(cmd.Context()))
			final, err := p.Run()
			if err != nil {
				return err
			}
			if em, ok := final.(*editorModel); ok && em.dirty {
				printWarning("Quit with unsaved changes")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file for save (default: overwrite the input)")

	return cmd
}

// =============================================================================
// editorModel - Interactive grid editor
// =============================================================================

// editorModel edits the top-level bricks of one section at a time through
// the drag and resize engines.
type editorModel struct {
	st       *store.Store
	save     func() (string, error)
	resolver *grid.Resolver
	drag     *gesture.DragEngine
	resize   *gesture.ResizeEngine

	bp       grid.Breakpoint
	section  int
	selected string

	overlay gesture.Overlay
	status  string
	failed  bool
	dirty   bool
}

// newEditorModel creates the editor. Measurements reach the engines through
// a grid.Resolver debounced by debounce; switching section or breakpoint
// flushes it at once.
func newEditorModel(st *store.Store, save func() (string, error), debounce time.Duration, opts ...gesture.Option) *editorModel {
	m := &editorModel{
		st:       st,
		save:     save,
		resolver: grid.NewResolver(grid.Desktop, grid.WithDebounce(debounce)),
		bp:       grid.Desktop,
	}
	m.drag = gesture.NewDragEngine(st, m.resolver, opts...)
	m.resize = gesture.NewResizeEngine(st, m.resolver, opts...)
	st.Subscribe(func(store.Event) { m.dirty = true })
	m.measure()
	if bricks := m.bricks(); len(bricks) > 0 {
		m.selected = bricks[0].ID
	}
	return m
}

// current returns the section being edited.
func (m *editorModel) current() *page.Section {
	sections := m.st.Page().OrderedSections()
	if len(sections) == 0 {
		return nil
	}
	return sections[min(m.section, len(sections)-1)]
}

func (m *editorModel) bricks() []*page.Brick {
	if s := m.current(); s != nil {
		return s.Bricks
	}
	return nil
}

// box is the section's pixel box. The height is 0 for full-height sections,
// which leaves the bottom open.
func (m *editorModel) box() grid.PixelRect {
	w := float64(m.bp.Columns()) * cellPx
	var h float64
	if s := m.current(); s != nil {
		if ext := s.Position.At(m.bp).H; !ext.IsFull() {
			h = float64(ext) * cellPx
		}
	}
	return grid.PixelRect{W: w, H: h}
}

// measure feeds the section box to the resolver, as a resize observer does
// for a rendered container.
func (m *editorModel) measure() {
	b := m.box()
	m.resolver.SetBreakpoint(m.bp)
	m.resolver.Observe(grid.Measurement{Width: b.W, Height: b.H})
	m.resolver.Flush()
}

func (m *editorModel) Init() tea.Cmd {
	return nil
}

func (m *editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	}
	return m, nil
}

func (m *editorModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.cancel()
		return m, tea.Quit
	case "esc":
		m.cancel()
		m.setStatus("Cancelled", nil)
	case "tab":
		m.cycle(1)
	case "shift+tab":
		m.cycle(-1)
	case "[":
		m.switchSection(-1)
	case "]":
		m.switchSection(1)
	case "m":
		m.toggleBreakpoint()
	case "s":
		path, err := m.save()
		if err == nil {
			m.dirty = false
		}
		m.setStatus("Saved "+path, err)
	case "left":
		m.step(-1, 0)
	case "right":
		m.step(1, 0)
	case "up":
		m.step(0, -1)
	case "down":
		m.step(0, 1)
	case "shift+left":
		m.grow(gesture.EdgeE, -1, 0)
	case "shift+right":
		m.grow(gesture.EdgeE, 1, 0)
	case "shift+up":
		m.grow(gesture.EdgeS, 0, -1)
	case "shift+down":
		m.grow(gesture.EdgeS, 0, 1)
	}
	return m, nil
}

func (m *editorModel) setStatus(msg string, err error) {
	m.failed = err != nil
	if err != nil {
		msg = errors.UserMessage(err)
	}
	m.status = msg
}

func (m *editorModel) cancel() {
	m.drag.Cancel()
	m.resize.Cancel()
	m.overlay = gesture.Overlay{}
}

func (m *editorModel) cycle(d int) {
	bricks := m.bricks()
	if len(bricks) == 0 {
		return
	}
	i := 0
	for j, b := range bricks {
		if b.ID == m.selected {
			i = j
		}
	}
	i = (i + d + len(bricks)) % len(bricks)
	m.selected = bricks[i].ID
}

func (m *editorModel) switchSection(d int) {
	n := len(m.st.Page().Sections)
	if n == 0 {
		return
	}
	m.cancel()
	m.section = (m.section + d + n) % n
	m.selected = ""
	m.cycle(0)
	m.measure()
}

func (m *editorModel) toggleBreakpoint() {
	next := grid.Mobile
	if m.bp == grid.Mobile {
		next = grid.Desktop
	}
	m.bp = next
	m.drag.BreakpointChanged(next)
	m.resize.BreakpointChanged(next)
	m.overlay = gesture.Overlay{}
	m.measure()
	m.setStatus("Editing "+string(next), nil)
}

// center is the pixel center of a brick within the section box.
func (m *editorModel) center(id string) (gesture.Pointer, bool) {
	b, ok := m.st.Brick(id)
	if !ok {
		return gesture.Pointer{}, false
	}
	cfg, _ := m.resolver.Config()
	r := grid.GridRectToPixel(b.Rect(m.bp), cfg)
	return gesture.Pointer{X: r.CenterX(), Y: r.CenterY()}, true
}

// corner is the pixel bottom-right corner of a brick.
func (m *editorModel) corner(id string) (gesture.Pointer, bool) {
	b, ok := m.st.Brick(id)
	if !ok {
		return gesture.Pointer{}, false
	}
	cfg, _ := m.resolver.Config()
	r := grid.GridRectToPixel(b.Rect(m.bp), cfg)
	return gesture.Pointer{X: r.Right(), Y: r.Bottom()}, true
}

// step drags the selected brick by one cell.
func (m *editorModel) step(dx, dy int) {
	p, ok := m.center(m.selected)
	if !ok {
		return
	}
	err := m.drag.Begin(gesture.DragStart{
		BrickID:    m.selected,
		Pointer:    p,
		Breakpoint: m.bp,
		Container:  m.box(),
	})
	if err != nil {
		m.setStatus("", err)
		return
	}
	to := gesture.Pointer{X: p.X + float64(dx)*cellPx, Y: p.Y + float64(dy)*cellPx}
	moves, err := m.drag.End(to, true)
	m.reportMoves(moves, err)
}

// grow drags an edge of the selected brick by one cell.
func (m *editorModel) grow(edge gesture.Edge, dx, dy int) {
	p, ok := m.corner(m.selected)
	if !ok {
		return
	}
	err := m.resize.Begin(gesture.ResizeStart{
		BrickID:    m.selected,
		Edges:      edge,
		Pointer:    p,
		Breakpoint: m.bp,
		Container:  m.box(),
	})
	if err != nil {
		m.setStatus("", err)
		return
	}
	to := gesture.Pointer{X: p.X + float64(dx)*cellPx, Y: p.Y + float64(dy)*cellPx}
	pos, err := m.resize.End(to)
	m.reportResize(pos, err)
}

func (m *editorModel) reportMoves(moves []store.Move, err error) {
	m.overlay = gesture.Overlay{}
	switch {
	case err != nil:
		m.setStatus("", err)
	case len(moves) == 0:
		m.setStatus("Nothing moved", nil)
	default:
		to := moves[0].To
		m.setStatus(fmt.Sprintf("Moved %s to (%d,%d)", moves[0].ID, to.X, to.Y), nil)
	}
}

func (m *editorModel) reportResize(pos *page.Position, err error) {
	m.overlay = gesture.Overlay{}
	switch {
	case err != nil:
		m.setStatus("", err)
	case pos == nil:
		m.setStatus("Nothing resized", nil)
	default:
		m.setStatus(fmt.Sprintf("Resized %s to %sx%s", m.selected, pos.W, pos.H), nil)
	}
}

// =============================================================================
// Mouse
// =============================================================================

// toPointer maps a terminal position to section pixels, at the cell center.
func toPointer(x, y int) gesture.Pointer {
	return gesture.Pointer{
		X: (float64(x/cellChars) + 0.5) * cellPx,
		Y: (float64(y-gridTop) + 0.5) * cellPx,
	}
}

// hit returns the topmost brick at a grid cell and the resize edges of the
// cell within it: the last column is the east edge and the last row the
// south edge.
func (m *editorModel) hit(cx, cy int) (string, gesture.Edge) {
	bricks := m.bricks()
	for i := len(bricks) - 1; i >= 0; i-- {
		r := bricks[i].Rect(m.bp).Resolve(m.bp.Columns())
		if cx < r.X || cx >= r.Right() || cy < r.Y || cy >= r.Bottom() {
			continue
		}
		var e gesture.Edge
		if cx == r.Right()-1 && r.W > 1 {
			e |= gesture.EdgeE
		}
		if cy == r.Bottom()-1 && r.H > 1 {
			e |= gesture.EdgeS
		}
		return bricks[i].ID, e
	}
	return "", 0
}

func (m *editorModel) handleMouse(msg tea.MouseMsg) {
	p := toPointer(msg.X, msg.Y)
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		id, edges := m.hit(msg.X/cellChars, msg.Y-gridTop)
		if id == "" {
			return
		}
		m.selected = id
		var err error
		if edges != 0 {
			err = m.resize.Begin(gesture.ResizeStart{BrickID: id, Edges: edges, Pointer: p, Breakpoint: m.bp, Container: m.box()})
		} else {
			err = m.drag.Begin(gesture.DragStart{BrickID: id, Pointer: p, Breakpoint: m.bp, Container: m.box()})
		}
		if err != nil {
			m.setStatus("", err)
		}
	case tea.MouseActionMotion:
		if o, ok := m.drag.Move(p); ok {
			m.overlay = o
		} else if o, ok := m.resize.Move(p); ok {
			m.overlay = o
		}
	case tea.MouseActionRelease:
		switch {
		case m.drag.State() == gesture.Dragging:
			inside := msg.Y >= gridTop && msg.X/cellChars < m.bp.Columns()
			moves, err := m.drag.End(p, inside)
			m.reportMoves(moves, err)
		case m.resize.State() == gesture.Resizing:
			pos, err := m.resize.End(p)
			m.reportResize(pos, err)
		}
	}
}

// =============================================================================
// View
// =============================================================================

func (m *editorModel) View() string {
	var b strings.Builder

	s := m.current()
	if s == nil {
		return "The page has no sections.\n"
	}
	title := StyleTitle.Render(m.st.Page().ID)
	if m.dirty {
		title += StyleWarning.Render(" *")
	}
	b.WriteString(title + "\n")
	fmt.Fprintf(&b, "%s %s\n", styleSection.Render(s.ID),
		StyleDim.Render(fmt.Sprintf("(%s, h=%s, %d/%d)", m.bp, s.Position.At(m.bp).H, m.section+1, len(m.st.Page().Sections))))

	items, err := (&materialize.Expansion{Page: m.st.Page()}).RenderList(m.bp)
	if err != nil {
		return err.Error()
	}
	cv := sectionCanvas(items, s.ID, s.Position.At(m.bp).H, m.bp.Columns())
	ghost := m.ghostCells(cv.rows)
	for y, row := range cv.owner {
		for x, o := range row {
			cell := cellText(o)
			switch {
			case ghost[y][x]:
				cell = styleGhost.Render("░░")
			case o >= 0 && items[o].ID == m.selected:
				cell = styleSelected.Render(cell)
			}
			b.WriteString(cell)
		}
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	if m.status != "" {
		if m.failed {
			b.WriteString(styleErrLine.Render(iconError+" "+m.status) + "\n")
		} else {
			b.WriteString(StyleDim.Render(iconInfo+" "+m.status) + "\n")
		}
	}
	b.WriteString(styleHelp.Render("tab select · arrows move · shift+arrows resize · [ ] section · m breakpoint · s save · q quit"))
	return b.String()
}

// ghostCells marks the cells covered by the live gesture overlay.
func (m *editorModel) ghostCells(rows int) [][]bool {
	cols := m.bp.Columns()
	out := make([][]bool, rows)
	for y := range out {
		out[y] = make([]bool, cols)
	}
	cfg, ok := m.resolver.Config()
	if !ok {
		return out
	}
	for _, r := range m.overlay.Rects {
		g := grid.PixelRectToGrid(r, m.box(), cfg, 0).Resolve(cols)
		for y := max(g.Y, 0); y < min(g.Bottom(), rows); y++ {
			for x := max(g.X, 0); x < min(g.Right(), cols); x++ {
				out[y][x] = true
			}
		}
	}
	return out
}

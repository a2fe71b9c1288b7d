package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/brickgrid/pkg/grid"
	"github.com/matzehuels/brickgrid/pkg/materialize"
	"github.com/matzehuels/brickgrid/pkg/page"
)

// maxPreviewRows caps the rows drawn per section.
const maxPreviewRows = 120

const glyphs = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

var brickColors = []lipgloss.Color{"36", "75", "35", "220", "141", "209", "117", "150"}

var (
	styleEmptyCell   = lipgloss.NewStyle().Foreground(colorDim)
	styleOverlapCell = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	styleSection     = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// previewCommand creates the preview command.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		breakpoint string
		rows       []string
		noLegend   bool
	)

	cmd := &cobra.Command{
		Use:   "preview [page]",
		Short: "Draw a page's grid in the terminal",
		Long: `Draw every section of a page as a 24-column character grid.

Each brick is drawn with its own letter at its absolute position; children
are offset by their container's origin. Cells claimed by two bricks that
are not nested in each other are marked with #. Bound containers are
expanded first, from --rows files or the published snapshots.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bp, err := grid.ParseBreakpoint(breakpoint)
			if err != nil {
				return err
			}
			x, err := c.expandFile(cmd.Context(), args[0], rows, false)
			if err != nil {
				return err
			}
			items, err := x.RenderList(bp)
			if err != nil {
				return err
			}
			fmt.Print(renderPreview(x.Page, items, bp, !noLegend))
			return nil
		},
	}

	cmd.Flags().StringVarP(&breakpoint, "bp", "b", string(grid.Desktop), "breakpoint: desktop, mobile")
	cmd.Flags().StringArrayVar(&rows, "rows", nil, "rows for a datasource as ref=file.json (repeatable)")
	cmd.Flags().BoolVar(&noLegend, "no-legend", false, "omit the brick table")

	return cmd
}

// canvas is the character grid of one section.
type canvas struct {
	cols, rows int
	owner      [][]int // item index per cell, -1 when empty, -2 on overlap
}

func newCanvas(cols, rows int) *canvas {
	c := &canvas{cols: cols, rows: rows, owner: make([][]int, rows)}
	for y := range c.owner {
		c.owner[y] = make([]int, cols)
		for x := range c.owner[y] {
			c.owner[y][x] = -1
		}
	}
	return c
}

// sectionCanvas draws the items of one section. A brick drawn over its own
// container is not an overlap.
func sectionCanvas(items []materialize.Item, section string, height grid.Extent, cols int) *canvas {
	abs := absoluteCells(items)
	rows := 0
	if !height.IsFull() {
		rows = int(height)
	}
	for i, it := range items {
		if it.Section == section {
			rows = max(rows, abs[i].Y+abs[i].H)
		}
	}
	rows = min(max(rows, 1), maxPreviewRows)

	parent := make(map[string]string, len(items))
	for _, it := range items {
		parent[it.ID] = it.ParentID
	}
	nested := func(a, b string) bool {
		for p := parent[b]; p != ""; p = parent[p] {
			if p == a {
				return true
			}
		}
		return false
	}

	cv := newCanvas(cols, rows)
	for i, it := range items {
		if it.Section != section {
			continue
		}
		r := abs[i]
		for y := max(r.Y, 0); y < min(r.Y+r.H, rows); y++ {
			for x := max(r.X, 0); x < min(r.X+r.W, cols); x++ {
				prev := cv.owner[y][x]
				switch {
				case prev == -1:
					cv.owner[y][x] = i
				case prev >= 0 && nested(items[prev].ID, it.ID):
					cv.owner[y][x] = i
				default:
					cv.owner[y][x] = -2
				}
			}
		}
	}
	return cv
}

// absoluteCells offsets every item by the origins of its containers. Items
// are in document order, so a parent is always resolved before its
// children.
func absoluteCells(items []materialize.Item) []materialize.Cell {
	out := make([]materialize.Cell, len(items))
	at := make(map[string]materialize.Cell, len(items))
	for i, it := range items {
		c := it.Rect
		if p, ok := at[it.ParentID]; ok && it.ParentID != "" {
			c.X += p.X
			c.Y += p.Y
		}
		out[i] = c
		at[it.ID] = c
	}
	return out
}

func glyph(i int) string {
	if i < len(glyphs) {
		return string(glyphs[i])
	}
	return "*"
}

// cellText renders one cell by its owner.
func cellText(o int) string {
	switch o {
	case -1:
		return styleEmptyCell.Render("· ")
	case -2:
		return styleOverlapCell.Render("##")
	default:
		g := glyph(o)
		return lipgloss.NewStyle().Foreground(brickColors[o%len(brickColors)]).Render(g + g)
	}
}

func (cv *canvas) render() string {
	var b strings.Builder
	for _, row := range cv.owner {
		for _, o := range row {
			b.WriteString(cellText(o))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// renderPreview draws the sections of p in order, followed by an optional
// table of the bricks.
func renderPreview(p *page.Page, items []materialize.Item, bp grid.Breakpoint, legend bool) string {
	var b strings.Builder
	for _, s := range p.OrderedSections() {
		h := s.Position.At(bp).H
		fmt.Fprintf(&b, "%s %s\n", styleSection.Render(s.ID), StyleDim.Render(fmt.Sprintf("(%s, h=%s)", bp, h)))
		b.WriteString(sectionCanvas(items, s.ID, h, bp.Columns()).render())
		b.WriteByte('\n')
	}
	if legend && len(items) > 0 {
		b.WriteString(legendTable(items))
		b.WriteByte('\n')
	}
	return b.String()
}

func legendTable(items []materialize.Item) string {
	rows := make([][]string, len(items))
	for i, it := range items {
		id := strings.Repeat("  ", it.Depth) + it.ID
		rect := fmt.Sprintf("(%d,%d) %dx%d", it.Rect.X, it.Rect.Y, it.Rect.W, it.Rect.H)
		rows[i] = []string{glyph(i), id, it.Type, rect, it.Source}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Brick", "Type", "Rect", "From").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(brickColors[row%len(brickColors)]).Bold(true)
			}
			if col >= 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

// Exported styles are shared by the editor, the preview and the tables.
var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleClean       = lipgloss.NewStyle().Foreground(colorGreen)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status lines
// =============================================================================

// status writes one line led by a styled icon.
func status(w io.Writer, icon lipgloss.Style, glyph, msg string) {
	fmt.Fprintln(w, icon.Render(glyph)+" "+msg)
}

func printSuccess(format string, args ...any) {
	status(os.Stdout, styleIconSuccess, iconSuccess, fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	status(os.Stdout, styleIconError, iconError, fmt.Sprintf(format, args...))
}

// printWarning renders the whole line in the warning color, not just the
// icon.
func printWarning(format string, args ...any) {
	status(os.Stdout, StyleWarning, iconWarning, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	status(os.Stdout, styleIconInfo, iconInfo, fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line under a status line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile reports a written page or render file.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + path)
}

func printNewline() {
	fmt.Println()
}

// =============================================================================
// Page summary
// =============================================================================

// statsLine summarizes a validated page: section and brick counts and the
// number of overlapping sibling pairs.
func statsLine(sections, bricks, overlaps int) string {
	overlap := styleClean.Render("no overlaps")
	if overlaps > 0 {
		overlap = StyleWarning.Render(fmt.Sprintf("%d overlaps", overlaps))
	}
	parts := []string{
		StyleDim.Render(fmt.Sprintf("%d sections", sections)),
		StyleDim.Render(fmt.Sprintf("%d bricks", bricks)),
		overlap,
	}
	return "  " + strings.Join(parts, StyleDim.Render(" · "))
}

func printStats(sections, bricks, overlaps int) {
	fmt.Println(statsLine(sections, bricks, overlaps))
}

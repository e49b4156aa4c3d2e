package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/idilsaglam/itemboard/internal/model"
)

// Panel draws a framed box using the current theme.
func Panel(lines []string) {
	fmt.Fprint(stdout, PanelString(lines))
}

// PanelString renders what Panel prints.
func PanelString(lines []string) string {
	t := Current()
	// lipgloss.Width ignores escape codes and counts wide runes
	maxw := 0
	for _, ln := range lines {
		maxw = max(maxw, lipgloss.Width(ln))
	}
	pad := func(s string) string {
		if vis := lipgloss.Width(s); vis < maxw {
			s += strings.Repeat(" ", maxw-vis)
		}
		return s
	}
	var b strings.Builder
	b.WriteString(t.CornerTL + strings.Repeat(t.H, maxw+2) + t.CornerTR + "\n")
	for _, ln := range lines {
		b.WriteString(t.V + " " + pad(ln) + " " + t.V + "\n")
	}
	b.WriteString(t.CornerBL + strings.Repeat(t.H, maxw+2) + t.CornerBR + "\n")
	return b.String()
}

// maxNameWidth caps a listed name, in terminal cells.
const maxNameWidth = 80

// ItemLines renders the list body shown by `items ls`.
func ItemLines(items []model.Item, apiBase string) []string {
	t := Current()
	lines := []string{
		fmt.Sprintf("%s  %s %d", C(t.Title, "Items"), C(t.Accent, "Total"), len(items)),
		"",
	}
	if len(items) == 0 {
		lines = append(lines, C(t.Muted, "(no items yet)"))
	}
	for _, it := range items {
		name := ansi.Truncate(it.Name, maxNameWidth, "...")
		lines = append(lines, fmt.Sprintf("%s %s %s",
			C(t.Muted, fmt.Sprintf("#%-3d", it.ID)), C(t.Accent, t.Bullet), name))
	}
	lines = append(lines, "", C(t.Muted, "API base: "+apiBase))
	return lines
}

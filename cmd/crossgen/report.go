package main

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

var (
	yesColor = color.New(color.FgGreen)
	noColor  = color.New(color.FgRed)
)

// table renders left-aligned columns sized by display width.
type table struct {
	title   string
	headers []string
	rows    [][]string
	limit   int // max cell width, 0 = none
}

func (t *table) add(cells ...string) { t.rows = append(t.rows, cells) }

func (t *table) widths() []int {
	w := make([]int, len(t.headers))
	for i, h := range t.headers {
		w[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			w[i] = max(w[i], runewidth.StringWidth(truncate(cell, t.limit)))
		}
	}
	return w
}

func (t *table) render(out io.Writer) error {
	widths := t.widths()
	var sb strings.Builder
	if t.title != "" {
		sb.WriteString(titleStyle().Render(t.title))
		sb.WriteByte('\n')
	}
	sb.WriteString(headerStyle().Render(joinRow(t.headers, widths, 0)))
	sb.WriteByte('\n')
	for _, row := range t.rows {
		sb.WriteString(joinRow(row, widths, t.limit))
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(out, sb.String())
	return err
}

// joinRow pads every cell but the last. Padding is computed on the plain
// text so color escapes in verdict cells do not shift columns.
func joinRow(cells []string, widths []int, limit int) string {
	var sb strings.Builder
	for i, cell := range cells {
		cell = truncate(cell, limit)
		sb.WriteString(styleVerdict(cell))
		if i < len(cells)-1 {
			sb.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)+2))
		}
	}
	return strings.TrimRight(sb.String(), " ")
}

func verdict(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}

func styleVerdict(cell string) string {
	switch cell {
	case "yes":
		return yesColor.Sprint(cell)
	case "no":
		return noColor.Sprint(cell)
	default:
		return cell
	}
}

func titleStyle() lipgloss.Style {
	if color.NoColor {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
}

func headerStyle() lipgloss.Style {
	if color.NoColor {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}

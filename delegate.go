package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// ─── Rows ────────────────────────────────────────────────────────────────────

// row is one visible line of a pane.
type row struct {
	index int // position in the owning todoList
	depth int
	it    item
}

func (r row) FilterValue() string { return r.it.text }

// visibleRows flattens l for display and returns the row holding the cursor.
// With subtasks hidden only roots are listed.
func visibleRows(l *todoList, showSubtasks bool) ([]row, int) {
	var rows []row
	sel := 0
	depth := make([]int, l.len())
	for i, it := range l.items {
		if it.parent != noParent {
			depth[i] = depth[it.parent] + 1
		}
		if !showSubtasks && depth[i] > 0 {
			continue
		}
		if i == l.cursor {
			sel = len(rows)
		}
		rows = append(rows, row{index: i, depth: depth[i], it: it})
	}
	return rows, sel
}

// ─── Custom Delegate ─────────────────────────────────────────────────────────

var (
	todoStyle   = lipgloss.NewStyle()
	doneStyle   = lipgloss.NewStyle().Foreground(colorDim).Strikethrough(true)
	checkStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	boxStyle    = lipgloss.NewStyle().Foreground(colorDim)
	activeMark  = lipgloss.NewStyle().Bold(true).Foreground(colorYellow).SetString("*")
	dateStyle   = lipgloss.NewStyle().Foreground(colorDim)
	selectedBar = lipgloss.NewStyle().Foreground(colorAccent).SetString("│ ")
	blurredBar  = lipgloss.NewStyle().Foreground(colorDim).SetString("│ ")
	normalBar   = lipgloss.NewStyle().SetString("  ")
)

type rowDelegate struct {
	focused bool

	// Set while the cursor row of the focused pane is being edited.
	editing    bool
	editText   []rune
	editCursor int
	caretView  string
}

func (d rowDelegate) Height() int                             { return 1 }
func (d rowDelegate) Spacing() int                            { return 0 }
func (d rowDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

// stampLabel shows MM-DD HH:MM for the current year, YYYY-MM-DD otherwise.
func stampLabel(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	if ts.Year() == time.Now().Year() {
		return ts.Format("01-02 15:04")
	}
	return ts.Format("2006-01-02")
}

// editWindow returns the slice of text around the caret that fits in width
// cells, with the caret rendered in place.
func (d rowDelegate) editWindow(width int) string {
	text := d.editText
	start := 0
	if width > 0 && d.editCursor+1 > width {
		start = d.editCursor + 1 - width
	}
	before := string(text[start:d.editCursor])
	after := ""
	if d.editCursor < len(text) {
		after = string(text[d.editCursor+1:])
	}
	return before + d.caretView + ansi.Truncate(after, max(width-(d.editCursor-start)-1, 0), "")
}

func (d rowDelegate) Render(w io.Writer, m list.Model, index int, li list.Item) {
	r, ok := li.(row)
	if !ok {
		return
	}
	isCursor := index == m.Index()

	bar := normalBar
	switch {
	case isCursor && d.focused:
		bar = selectedBar
	case isCursor:
		bar = blurredBar
	}

	maxW := m.Width() - 3 // -2 for bar prefix, -1 for right padding
	if maxW < 10 {
		maxW = 10
	}

	indent := strings.Repeat("  ", r.depth)
	box := boxStyle.Render("[ ]")
	if r.it.done {
		box = checkStyle.Render("[x]")
	}
	marker := " "
	if r.it.active > 0 {
		marker = activeMark.String()
	}
	prefix := indent + box + marker
	prefixW := lipgloss.Width(prefix)

	var date string
	if r.it.done {
		date = stampLabel(r.it.stamp)
	}
	dateW := 0
	if date != "" {
		dateW = lipgloss.Width(date) + 1
	}

	avail := maxW - prefixW - dateW
	var text string
	switch {
	case d.editing && isCursor:
		text = d.editWindow(avail)
	case r.it.done:
		text = doneStyle.Render(ansi.Truncate(r.it.text, avail, "…"))
	default:
		text = todoStyle.Render(ansi.Truncate(r.it.text, avail, "…"))
	}
	pad := ""
	if tw := lipgloss.Width(text); avail > tw {
		pad = strings.Repeat(" ", avail-tw)
	}

	line := prefix + text + pad
	if date != "" {
		line += " " + dateStyle.Render(date)
	}
	fmt.Fprintf(w, "%s%s", bar, line)
}

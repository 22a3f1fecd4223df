package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ─── Colors ──────────────────────────────────────────────────────────────────

var (
	colorBlack   = lipgloss.Color("0")
	colorAccent  = lipgloss.Color("5")  // magenta: titles, focused borders, keys
	colorDim     = lipgloss.Color("8")  // gray: secondary text, unfocused borders
	colorFull    = lipgloss.Color("7")  // white: full help descriptions
	colorGreen   = lipgloss.Color("10") // done checkboxes
	colorYellow  = lipgloss.Color("11") // unfinished-subtask marker
	colorMagenta = lipgloss.Color("13") // status bar messages
)

// ─── Styles ──────────────────────────────────────────────────────────────────

var (
	focusedBorder   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent)
	unfocusedBorder = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
	focusedTitle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	unfocusedTitle  = lipgloss.NewStyle().Bold(true).Foreground(colorDim)
	helpTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).MarginBottom(1)
	helpBoxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(1, 3)
	statusTextStyle = lipgloss.NewStyle().Bold(true).Foreground(colorMagenta)
	editHintStyle   = lipgloss.NewStyle().Foreground(colorDim)
)

func truncateForWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	if maxWidth == 1 {
		return "…"
	}
	limit := maxWidth - 1
	var b strings.Builder
	width := 0
	for _, r := range s {
		rw := lipgloss.Width(string(r))
		if width+rw > limit {
			break
		}
		b.WriteRune(r)
		width += rw
	}
	return b.String() + "…"
}

// paneWidth splits the terminal 50/50; the DONE pane takes the odd column.
func (m model) paneWidth(f focus) int {
	left := m.width / 2
	if f == activeFocus {
		return left
	}
	return m.width - left
}

// paneAt returns the pane under terminal column x.
func (m model) paneAt(x int) focus {
	if x < m.paneWidth(activeFocus) {
		return activeFocus
	}
	return completedFocus
}

var emptyHints = [2]string{
	"Nothing to do\n\ni  add a task",
	"Nothing done yet\n\nenter on a task marks it done",
}

// ─── View ────────────────────────────────────────────────────────────────────

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}

	innerH := m.height - 3 // -2 for borders, -1 for status bar

	var rendered [2]string
	for f := range m.panes {
		w := m.paneWidth(focus(f))
		style, title := unfocusedBorder, unfocusedTitle
		if focus(f) == m.engine.focus {
			style, title = focusedBorder, focusedTitle
		}
		p := m.panes[f]
		p.Styles.Title = title
		var content string
		if len(p.Items()) == 0 {
			hint := lipgloss.NewStyle().Foreground(colorDim).
				Width(w - 4).Align(lipgloss.Center).
				Render(emptyHints[f])
			content = lipgloss.Place(w-2, innerH, lipgloss.Center, lipgloss.Center, hint)
		} else {
			content = p.View()
		}
		rendered[f] = style.Width(w - 2).Height(innerH).Render(content)
	}
	panes := lipgloss.JoinHorizontal(lipgloss.Top, rendered[0], rendered[1])

	var statusBar string
	switch {
	case m.engine.editing():
		hint := editHintStyle.Render("enter save · esc cancel")
		text := ""
		if m.status.text != "" {
			text = statusTextStyle.Render(m.status.text) + "  "
		}
		statusBar = " " + text + hint
	case m.status.text != "":
		statusBar = " " + m.status.spinner.View() + " " + statusTextStyle.Render(truncateForWidth(m.status.text, m.width-4))
	default:
		statusBar = " " + m.help.ShortHelpView(m.keys.ShortHelp())
	}
	base := panes + "\n" + statusBar

	if m.help.ShowAll {
		content := helpTitleStyle.Render("Keybindings") + "\n" + m.help.FullHelpView(m.keys.FullHelp())

		// Keep the help modal comfortably narrow on wide terminals while still
		// fitting on small screens.
		modalMaxW := m.width - 4
		if modalMaxW > 76 {
			modalMaxW = 76
		}
		if modalMaxW < 20 {
			modalMaxW = 20
		}

		// helpBoxStyle uses 1-cell borders and 3-cell horizontal padding.
		contentMaxW := modalMaxW - 8
		if contentMaxW < 12 {
			contentMaxW = 12
		}

		content = lipgloss.NewStyle().MaxWidth(contentMaxW).Render(content)
		overlay := helpBoxStyle.MaxWidth(modalMaxW).Render(content)
		base = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, overlay,
			lipgloss.WithWhitespaceChars(" "),
			lipgloss.WithWhitespaceForeground(colorBlack),
		)
	}

	return base
}

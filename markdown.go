package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// markdownChecklist renders items as a nested GitHub-style task list.
func markdownChecklist(b *strings.Builder, items []item) {
	depth := make([]int, len(items))
	for i, it := range items {
		if it.parent != noParent {
			depth[i] = depth[it.parent] + 1
		}
		box := "[ ]"
		if it.done {
			box = "[x]"
		}
		b.WriteString(strings.Repeat("  ", depth[i]))
		fmt.Fprintf(b, "- %s %s", box, escapeMarkdown(it.text))
		if it.done && !it.stamp.IsZero() {
			fmt.Fprintf(b, " _(%s)_", it.stamp.Format(stampLayout))
		}
		b.WriteString("\n")
	}
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "<", `\<`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// documentMarkdown renders both collections as markdown.
func documentMarkdown(active, completed []item) string {
	var b strings.Builder
	b.WriteString("# TODO\n\n")
	if len(active) == 0 {
		b.WriteString("_Nothing to do._\n")
	}
	markdownChecklist(&b, active)
	b.WriteString("\n# DONE\n\n")
	if len(completed) == 0 {
		b.WriteString("_Nothing done yet._\n")
	}
	markdownChecklist(&b, completed)
	return b.String()
}

func renderMarkdownBody(markdown, style string, width int) string {
	pw := width
	if pw < 20 {
		pw = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(pw),
	)
	if err != nil {
		return markdown
	}
	rendered, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return rendered
}

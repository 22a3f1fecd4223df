package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSaveTodosWritesSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "TODO")
	active := []item{{text: "A", parent: noParent}}

	cmd := saveTodos(path, active, nil, 3)
	// Later edits must not leak into the pending write.
	active[0].text = "changed"

	msg := cmd()
	saved, ok := msg.(savedMsg)
	if !ok {
		t.Fatalf("saveTodos returned %T, want savedMsg", msg)
	}
	if saved.path != path || saved.rev != 3 {
		t.Errorf("saved = %+v, want path %q rev 3", saved, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "TODO(): A\n<--->\n" {
		t.Errorf("file = %q", data)
	}
	if time.Since(time.UnixMilli(lastSelfWrite.Load())) > time.Minute {
		t.Error("save did not record a self write")
	}
}

func TestSaveTodosReportsErrors(t *testing.T) {
	// A regular file where a directory is expected.
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	msg := saveTodos(filepath.Join(blocker, "TODO"), nil, nil, 0)()
	if _, ok := msg.(errMsg); !ok {
		t.Fatalf("saveTodos returned %T, want errMsg", msg)
	}
}

func TestLoadTodos(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "TODO")
	if err := os.WriteFile(path, []byte(sampleFile), 0644); err != nil {
		t.Fatal(err)
	}
	msg := loadTodos(path)()
	loaded, ok := msg.(loadedMsg)
	if !ok {
		t.Fatalf("loadTodos returned %T, want loadedMsg", msg)
	}
	if len(loaded.doc.active) != 5 || len(loaded.doc.completed) != 2 {
		t.Errorf("loaded %d active, %d completed", len(loaded.doc.active), len(loaded.doc.completed))
	}

	if err := os.WriteFile(path, []byte("nonsense\n"), 0644); err != nil {
		t.Fatal(err)
	}
	msg = loadTodos(path)()
	em, ok := msg.(errMsg)
	if !ok {
		t.Fatalf("loadTodos on bad file returned %T, want errMsg", msg)
	}
	if !strings.Contains(em.err.Error(), path+":1:") {
		t.Errorf("error %q lacks position", em.err)
	}
}

func TestDocumentMarkdown(t *testing.T) {
	doc, err := decode(strings.NewReader(sampleFile), "TODO")
	if err != nil {
		t.Fatal(err)
	}
	md := documentMarkdown(doc.active, doc.completed)
	for _, want := range []string{
		"# TODO\n\n- [ ] write report\n  - [ ] outline\n",
		"  - [x] gather numbers _(2024-05-01 09:30 +0200)_\n    - [x] ask finance",
		"# DONE\n\n- [x] book flights",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown lacks %q:\n%s", want, md)
		}
	}

	empty := documentMarkdown(nil, nil)
	if !strings.Contains(empty, "_Nothing to do._") || !strings.Contains(empty, "_Nothing done yet._") {
		t.Errorf("empty markdown = %q", empty)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain text", "plain text"},
		{"fix *all* the [links]", `fix \*all\* the \[links\]`},
		{"snake_case `code`", "snake\\_case \\`code\\`"},
		{`a\b <tag>`, `a\\b \<tag>`},
	}
	for _, tt := range tests {
		if got := escapeMarkdown(tt.in); got != tt.want {
			t.Errorf("escapeMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderMarkdownBody(t *testing.T) {
	out := renderMarkdownBody("# TODO\n\n- [ ] buy milk\n", "notty", 80)
	if !strings.Contains(out, "buy milk") {
		t.Errorf("rendered output lacks item text: %q", out)
	}
}

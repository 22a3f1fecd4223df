package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ─── Flat text format ────────────────────────────────────────────────────────
//
//	TODO(*): write report
//	    TODO(): outline
//	    DONE(2024-05-01 09:30 +0200): gather numbers
//	<--->
//	DONE(2024-04-30 18:00 +0200): book flights
//
// One item per line, four spaces per nesting level. The `*` marks an item
// with unfinished subtasks and is recomputed on load.

const (
	separator   = "<--->"
	indentUnit  = "    "
	stampLayout = "2006-01-02 15:04 -0700"
)

var (
	todoLineRe = regexp.MustCompile(`^TODO\((\*?)\): ?(.*)$`)
	doneLineRe = regexp.MustCompile(`^DONE\(([^)]*)\): ?(.*)$`)
)

type parseError struct {
	path string
	line int
	msg  string
}

func (e *parseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.path, e.line, e.msg)
}

// document is the decoded content of a todo file.
type document struct {
	active    []item
	completed []item
}

func (d document) lists(cfg config) (active, completed *todoList) {
	active = newTodoList(cfg.activePolicy())
	active.items = d.active
	completed = newTodoList(cfg.completedPolicy())
	completed.items = d.completed
	return active, completed
}

// section accumulates one collection while tracking the ancestor chain of
// the most recently added line.
type section struct {
	items []item
	lines []int
	chain []int // chain[d] is the last item seen at depth d
}

func (s *section) add(depth, line int, it item) error {
	if depth > len(s.chain) {
		if len(s.chain) == 0 {
			return fmt.Errorf("first item of a list can't be indented")
		}
		return fmt.Errorf("indented %d levels, expected at most %d", depth, len(s.chain))
	}
	s.chain = s.chain[:depth]
	at := len(s.items)
	it.parent = noParent
	if depth > 0 {
		p := s.chain[depth-1]
		it.parent = p
		s.items[p].children = append(s.items[p].children, at)
	}
	s.items = append(s.items, it)
	s.lines = append(s.lines, line)
	s.chain = append(s.chain, at)
	return nil
}

// finish computes activity counts bottom-up and rejects completed items
// that still have unfinished subtasks.
func (s *section) finish() (int, error) {
	for i := len(s.items) - 1; i >= 0; i-- {
		if p := s.items[i].parent; p != noParent {
			s.items[p].active += s.items[i].incomplete()
		}
	}
	for i, it := range s.items {
		if it.done && it.active > 0 {
			return s.lines[i], fmt.Errorf("completed item has %d unfinished subtasks", it.active)
		}
	}
	return 0, nil
}

// splitIndent returns the nesting depth of line and the rest of it.
func splitIndent(line string) (int, string, error) {
	depth := 0
	for strings.HasPrefix(line, indentUnit) {
		line = line[len(indentUnit):]
		depth++
	}
	if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
		return 0, "", errors.New("indentation must be a multiple of four spaces")
	}
	return depth, line, nil
}

func parseLine(body string) (item, error) {
	if m := todoLineRe.FindStringSubmatch(body); m != nil {
		return item{text: m[2]}, nil
	}
	if m := doneLineRe.FindStringSubmatch(body); m != nil {
		ts, err := time.Parse(stampLayout, m[1])
		if err != nil {
			return item{}, fmt.Errorf("bad timestamp %q, expected YYYY-MM-DD HH:MM ±HHMM", m[1])
		}
		return item{text: m[2], stamp: ts, done: true}, nil
	}
	return item{}, errors.New("expected TODO(...): or DONE(...): line")
}

// decode parses a todo file. path is only used in error positions.
func decode(r io.Reader, path string) (document, error) {
	var (
		active, completed section
		cur               = &active
		line              int
	)
	fail := func(line int, err error) (document, error) {
		return document{}, &parseError{path: path, line: line, msg: err.Error()}
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line++
		raw := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if raw == separator {
			if cur == &completed {
				return fail(line, errors.New("duplicate separator"))
			}
			cur = &completed
			continue
		}
		depth, body, err := splitIndent(raw)
		if err != nil {
			return fail(line, err)
		}
		it, err := parseLine(body)
		if err != nil {
			return fail(line, err)
		}
		switch {
		case cur == &completed && !it.done:
			return fail(line, errors.New("unfinished item below the separator"))
		case cur == &active && it.done && depth == 0:
			return fail(line, errors.New("completed task above the separator"))
		}
		if err := cur.add(depth, line, it); err != nil {
			return fail(line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	for _, s := range []*section{&active, &completed} {
		if at, err := s.finish(); err != nil {
			return fail(at, err)
		}
	}
	return document{active: active.items, completed: completed.items}, nil
}

func writeItems(w *bufio.Writer, items []item) {
	depth := make([]int, len(items))
	for i, it := range items {
		if it.parent != noParent {
			depth[i] = depth[it.parent] + 1
		}
		w.WriteString(strings.Repeat(indentUnit, depth[i]))
		switch {
		case it.done:
			fmt.Fprintf(w, "DONE(%s): %s\n", it.stamp.Format(stampLayout), it.text)
		case it.active > 0:
			fmt.Fprintf(w, "TODO(*): %s\n", it.text)
		default:
			fmt.Fprintf(w, "TODO(): %s\n", it.text)
		}
	}
}

// encode writes both collections in the flat text format.
func encode(w io.Writer, active, completed []item) error {
	bw := bufio.NewWriter(w)
	writeItems(bw, active)
	bw.WriteString(separator + "\n")
	writeItems(bw, completed)
	return bw.Flush()
}

// ─── File I/O ────────────────────────────────────────────────────────────────

// loadFile reads the todo file at path. A missing file yields an empty
// document and a status message saying it will be created.
func loadFile(path string) (document, string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("load %s: not found", path)
			return document{}, fmt.Sprintf("File '%s' not found. Creating new one.", path), nil
		}
		return document{}, "", fmt.Errorf("opening todo file: %w", err)
	}
	defer f.Close()
	doc, err := decode(f, path)
	if err != nil {
		return document{}, "", err
	}
	log.Printf("load %s: %d active, %d completed", path, len(doc.active), len(doc.completed))
	return doc, fmt.Sprintf("Loaded '%s' file.", path), nil
}

// saveFile atomically replaces the todo file at path.
func saveFile(path string, active, completed []item) error {
	var buf bytes.Buffer
	if err := encode(&buf, active, completed); err != nil {
		return err
	}
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("saving todo file: %w", err)
	}
	log.Printf("save %s: %d active, %d completed", path, len(active), len(completed))
	return nil
}

// writeFileAtomic writes to a temp file in the target directory and renames
// it over path, so a crash mid-write can't leave a truncated file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

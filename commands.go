package main

import (
	"path/filepath"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// lastSelfWrite tracks when we last wrote the todo file ourselves.
// The file watcher checks this to skip events caused by our own writes.
var lastSelfWrite atomic.Int64

// ─── Commands ────────────────────────────────────────────────────────────────

func loadTodos(path string) tea.Cmd {
	return func() tea.Msg {
		doc, status, err := loadFile(path)
		if err != nil {
			return errMsg{err}
		}
		return loadedMsg{doc: doc, status: status}
	}
}

// saveTodos writes copies of both collections so the Update loop can keep
// mutating its own items while the write is in flight. rev is echoed back
// in savedMsg.
func saveTodos(path string, active, completed []item, rev int) tea.Cmd {
	active, completed = cloneItems(active), cloneItems(completed)
	return func() tea.Msg {
		lastSelfWrite.Store(time.Now().UnixMilli())
		if err := saveFile(path, active, completed); err != nil {
			return errMsg{err}
		}
		lastSelfWrite.Store(time.Now().UnixMilli())
		return savedMsg{path: path, rev: rev}
	}
}

// watchFile watches the todo file's directory and reports changes to the
// file itself. Editors and our own atomic saves replace the file by rename,
// so the directory is watched rather than the file. Rapid events are
// coalesced with a small debounce.
func watchFile(watcher *fsnotify.Watcher, path string) tea.Cmd {
	base := filepath.Base(path)
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					time.Sleep(100 * time.Millisecond)
				drain:
					for {
						select {
						case _, ok := <-watcher.Events:
							if !ok {
								break drain
							}
						default:
							break drain
						}
					}
					// Skip events caused by our own saves
					if time.Since(time.UnixMilli(lastSelfWrite.Load())) < 500*time.Millisecond {
						continue
					}
					return fileChangedMsg{}
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
			}
		}
	}
}

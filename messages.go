package main

// ─── Messages ────────────────────────────────────────────────────────────────
//
// All messages are internal to the Update loop. Async tea.Cmd functions
// (in commands.go) produce these; Update handles them. Messages with an
// `id` field use generation counters to ignore stale timers.

// loadedMsg delivers a freshly parsed todo file after an external change.
type loadedMsg struct {
	doc    document
	status string
}

type savedMsg struct {
	path string
	rev  int // engine revision that was written
}

// fileChangedMsg is sent by the fsnotify watcher after debounce.
type fileChangedMsg struct{}

// configUpdatedMsg is sent after the setup wizard completes.
type configUpdatedMsg struct{}

type statusClearMsg struct {
	id int
}

type errMsg struct {
	err error
}

package main

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
)

// ─── Key Map ─────────────────────────────────────────────────────────────────

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Top        key.Binding
	Bottom     key.Binding
	Half       key.Binding
	DragUp     key.Binding
	DragDown   key.Binding
	SwitchPane key.Binding
	Subtasks   key.Binding
	Mark       key.Binding
	Delete     key.Binding
	Insert     key.Binding
	Append     key.Binding
	Edit       key.Binding
	Undo       key.Binding
	Copy       key.Binding
	Save       key.Binding
	Help       key.Binding
	Settings   key.Binding
	Quit       key.Binding
	ForceQuit  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Top:        key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:     key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Half:       key.NewBinding(key.WithKeys("M"), key.WithHelp("M", "middle")),
		DragUp:     key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "drag up")),
		DragDown:   key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "drag down")),
		SwitchPane: key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch list")),
		Subtasks:   key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "hide subtasks")),
		Mark:       key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "done / undone")),
		Delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Insert:     key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "new task")),
		Append:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add subtask")),
		Edit:       key.NewBinding(key.WithKeys("e", "r"), key.WithHelp("e", "edit")),
		Undo:       key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		Copy:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy text")),
		Save:       key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "save")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Settings:   key.NewBinding(key.WithKeys(","), key.WithHelp(",", "settings")),
		Quit:       key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "save & quit")),
		ForceQuit:  key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Insert, k.Append, k.Edit, k.Mark, k.Delete, k.Undo, k.SwitchPane, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		// Editing
		{k.Insert, k.Append, k.Edit, k.Mark, k.Delete, k.DragUp, k.DragDown, k.Undo, k.Copy},
		// Navigation / app
		{k.Up, k.Down, k.Top, k.Bottom, k.Half, k.SwitchPane, k.Subtasks, k.Save, k.Help, k.Settings, k.Quit},
	}
}

// command maps a normal-mode key to the engine command it triggers.
func (k keyMap) command(msg tea.KeyMsg) command {
	switch {
	case key.Matches(msg, k.Up):
		return cmdMoveUp
	case key.Matches(msg, k.Down):
		return cmdMoveDown
	case key.Matches(msg, k.Top):
		return cmdJumpTop
	case key.Matches(msg, k.Bottom):
		return cmdJumpBottom
	case key.Matches(msg, k.Half):
		return cmdJumpHalf
	case key.Matches(msg, k.DragUp):
		return cmdDragUp
	case key.Matches(msg, k.DragDown):
		return cmdDragDown
	case key.Matches(msg, k.SwitchPane):
		return cmdToggleFocus
	case key.Matches(msg, k.Subtasks):
		return cmdToggleSubtasks
	case key.Matches(msg, k.Mark):
		return cmdMark
	case key.Matches(msg, k.Delete):
		return cmdDelete
	case key.Matches(msg, k.Insert):
		return cmdBeginInsert
	case key.Matches(msg, k.Append):
		return cmdBeginAppend
	case key.Matches(msg, k.Edit):
		return cmdBeginEdit
	case key.Matches(msg, k.Undo):
		return cmdUndo
	}
	return cmdNone
}

// editInputs decodes an edit-mode key. Pasted text yields one input per rune.
func editInputs(msg tea.KeyMsg) []editInput {
	switch msg.Type {
	case tea.KeyEnter:
		return []editInput{{key: editCommit}}
	case tea.KeyEsc:
		return []editInput{{key: editCancel}}
	case tea.KeyLeft, tea.KeyCtrlB:
		return []editInput{{key: editLeft}}
	case tea.KeyRight, tea.KeyCtrlF:
		return []editInput{{key: editRight}}
	case tea.KeyHome, tea.KeyCtrlA:
		return []editInput{{key: editHome}}
	case tea.KeyEnd, tea.KeyCtrlE:
		return []editInput{{key: editEnd}}
	case tea.KeyBackspace:
		return []editInput{{key: editBackspace}}
	case tea.KeyDelete, tea.KeyCtrlD:
		return []editInput{{key: editDelete}}
	case tea.KeySpace:
		return []editInput{{key: editChar, r: ' '}}
	case tea.KeyRunes:
		in := make([]editInput, len(msg.Runes))
		for i, r := range msg.Runes {
			in[i] = editInput{key: editChar, r: r}
		}
		return in
	}
	return nil
}

// ─── Model ───────────────────────────────────────────────────────────────────

const statusTimeout = 3 * time.Second

type statusBarState struct {
	text    string
	id      int
	spinner spinner.Model
}

type model struct {
	// Layout
	panes  [2]list.Model // indexed by focus
	keys   keyMap
	help   help.Model
	caret  cursor.Model
	width  int
	height int
	ready  bool // true after first WindowSizeMsg

	// Todo data
	engine  *engine
	path    string
	cfg     config
	watcher *fsnotify.Watcher
	demo    bool // sample lists, never written

	status statusBarState
}

func newPane(f focus) list.Model {
	l := list.New(nil, rowDelegate{}, 0, 0)
	l.Title = f.String()
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = lipgloss.NewStyle().Padding(0, 0, 0, 0)
	l.Styles.TitleBar = lipgloss.NewStyle().Padding(0, 1, 1, 1)
	return l
}

func newModel(doc document, path string, cfg config, watcher *fsnotify.Watcher) model {
	active, completed := doc.lists(cfg)

	h := help.New()
	h.ShortSeparator = " | "
	h.Styles.ShortKey = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(colorDim)
	h.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(colorDim)
	h.Styles.FullKey = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Width(10)
	h.Styles.FullDesc = lipgloss.NewStyle().Foreground(colorFull)
	h.Styles.FullSeparator = lipgloss.NewStyle()

	s := spinner.New()
	s.Spinner = spinner.Pulse
	s.Style = lipgloss.NewStyle().Foreground(colorAccent)

	c := cursor.New()
	c.Style = lipgloss.NewStyle().Foreground(colorAccent)

	m := model{
		panes:   [2]list.Model{newPane(activeFocus), newPane(completedFocus)},
		keys:    newKeyMap(),
		help:    h,
		caret:   c,
		engine:  newEngine(active, completed, cfg),
		path:    path,
		cfg:     cfg,
		watcher: watcher,
		status:  statusBarState{spinner: s},
	}
	m.engine.snapToRoots()
	m.syncPanes()
	m.updateHelpKeys()
	return m
}

func (m model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.watcher != nil {
		cmds = append(cmds, watchFile(m.watcher, m.path))
	}
	if m.status.text != "" {
		cmds = append(cmds, m.status.spinner.Tick, clearStatusAfter(m.status.id, statusTimeout))
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// setStatus shows a transient message in the status bar with a spinner animation.
// If duration > 0, the message auto-clears after that time.
func (m *model) setStatus(text string, duration time.Duration) tea.Cmd {
	m.status.id++
	m.status.text = text
	var cmds []tea.Cmd
	cmds = append(cmds, m.status.spinner.Tick)
	if duration > 0 {
		cmds = append(cmds, clearStatusAfter(m.status.id, duration))
	}
	return tea.Batch(cmds...)
}

func clearStatusAfter(id int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return statusClearMsg{id: id}
	})
}

func (m *model) clearStatus() {
	m.status.text = ""
}

// updateHelpKeys refreshes toggle help texts to reflect current state.
func (m *model) updateHelpKeys() {
	if m.engine.showSubtasks {
		m.keys.Subtasks.SetHelp("z", "hide subtasks")
	} else {
		m.keys.Subtasks.SetHelp("z", "show subtasks")
	}
	if m.engine.focus == activeFocus {
		m.keys.Mark.SetHelp("enter", "done")
	} else {
		m.keys.Mark.SetHelp("enter", "not done")
	}
}

// syncPanes rebuilds both panes from the engine and slaves each list's
// selection to the engine cursor.
func (m *model) syncPanes() {
	for f := range m.panes {
		l := m.engine.listFor(focus(f))
		rows, sel := visibleRows(l, m.engine.showSubtasks)
		items := make([]list.Item, len(rows))
		for i, r := range rows {
			items[i] = r
		}
		m.panes[f].Title = fmt.Sprintf("%s (%d)", focus(f), len(l.roots()))
		m.panes[f].SetItems(items)
		m.panes[f].Select(sel)
	}
	m.refreshDelegates()
}

// refreshDelegates pushes focus and edit caret state into the row delegates.
func (m *model) refreshDelegates() {
	for f := range m.panes {
		d := rowDelegate{focused: focus(f) == m.engine.focus}
		if d.focused && m.engine.editing() {
			text := []rune(m.engine.editText())
			at := min(m.engine.editCursor, len(text))
			ch := " "
			if at < len(text) {
				ch = string(text[at])
			}
			m.caret.SetChar(ch)
			d.editing = true
			d.editText = text
			d.editCursor = at
			d.caretView = m.caret.View()
		}
		m.panes[f].SetDelegate(d)
	}
}

// afterEngine syncs the view with the engine and reports the status message.
func (m *model) afterEngine(wasEditing bool, status string) tea.Cmd {
	var cmds []tea.Cmd
	switch {
	case !wasEditing && m.engine.editing():
		cmds = append(cmds, m.caret.Focus())
	case wasEditing && !m.engine.editing():
		m.caret.Blur()
	}
	m.syncPanes()
	m.updateHelpKeys()
	if status != "" {
		duration := statusTimeout
		if m.engine.editing() {
			duration = 0
		}
		cmds = append(cmds, m.setStatus(status, duration))
	} else if wasEditing || m.engine.editing() {
		m.clearStatus()
	}
	return tea.Batch(cmds...)
}

func (m model) saveCmd() tea.Cmd {
	return saveTodos(m.path, m.engine.active.items, m.engine.completed.items, m.engine.rev)
}

func (m model) handleEditKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		m.engine.edit(editInput{key: editCancel})
		m.engine.apply(cmdQuit)
		return m, tea.Quit
	}
	var status string
	for _, in := range editInputs(msg) {
		if !m.engine.editing() {
			break
		}
		status = m.engine.edit(in)
	}
	cmd := m.afterEngine(true, status)
	if m.engine.editing() {
		cmd = tea.Batch(cmd, m.caret.BlinkCmd())
	}
	return m, cmd
}

func (m model) handleKeyMsg(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.engine.editing() {
		return m.handleEditKey(msg)
	}

	// Help modal swallows everything except ?, esc and q
	if m.help.ShowAll {
		switch {
		case key.Matches(msg, m.keys.Help) || msg.String() == "esc":
			m.help.ShowAll = false
		case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.ForceQuit):
			m.engine.apply(cmdQuit)
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.ForceQuit):
		m.engine.apply(cmdQuit)
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = true
		return m, nil
	case key.Matches(msg, m.keys.Save):
		if m.demo {
			return m, m.setStatus("Demo mode: nothing is saved.", statusTimeout)
		}
		return m, m.saveCmd()
	case key.Matches(msg, m.keys.Copy):
		cur, ok := m.engine.list().current()
		if !ok {
			return m, m.setStatus(sentence(errEmptyList.Error()), statusTimeout)
		}
		if err := clipboard.WriteAll(cur.text); err != nil {
			return m, func() tea.Msg { return errMsg{fmt.Errorf("clipboard: %w", err)} }
		}
		return m, m.setStatus("Copied: "+truncateForWidth(cur.text, 40), statusTimeout)
	case key.Matches(msg, m.keys.Settings):
		exe, err := os.Executable()
		if err != nil {
			return m, func() tea.Msg { return errMsg{fmt.Errorf("could not find executable: %w", err)} }
		}
		c := exec.Command(exe, "--setup")
		return m, tea.ExecProcess(c, func(err error) tea.Msg {
			if err != nil {
				return errMsg{fmt.Errorf("setup failed: %w", err)}
			}
			return configUpdatedMsg{}
		})
	}

	c := m.keys.command(msg)
	if c == cmdNone {
		return m, nil
	}
	status := m.engine.apply(c)
	return m, m.afterEngine(false, status)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		if m.engine.editing() || m.help.ShowAll || msg.Action != tea.MouseActionPress {
			return m, nil
		}
		var c command
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			c = cmdMoveUp
		case tea.MouseButtonWheelDown:
			c = cmdMoveDown
		default:
			return m, nil
		}
		if f := m.paneAt(msg.X); f != m.engine.focus {
			m.engine.apply(cmdToggleFocus)
		}
		m.engine.apply(c)
		m.syncPanes()
		m.updateHelpKeys()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		innerH := m.height - 3 // -2 for borders, -1 for status bar
		if innerH < 5 {
			innerH = 5
		}
		for f := range m.panes {
			w := m.paneWidth(focus(f)) - 2
			if w < 10 {
				w = 10
			}
			m.panes[f].SetSize(w, innerH)
		}
		m.syncPanes()
		return m, nil

	case loadedMsg:
		if m.engine.dirty() {
			return m, m.setStatus(fmt.Sprintf("'%s' changed on disk. Save with w to overwrite.", m.path), statusTimeout)
		}
		active, completed := msg.doc.lists(m.cfg)
		m.engine.replace(active, completed)
		m.syncPanes()
		return m, m.setStatus("Reloaded: "+msg.status, statusTimeout)

	case savedMsg:
		m.engine.markSaved(msg.rev)
		return m, m.setStatus(fmt.Sprintf("Saved '%s'.", msg.path), statusTimeout)

	case fileChangedMsg:
		var cmds []tea.Cmd
		if m.engine.dirty() {
			cmds = append(cmds, m.setStatus(fmt.Sprintf("'%s' changed on disk. Save with w to overwrite.", m.path), statusTimeout))
		} else {
			cmds = append(cmds, loadTodos(m.path))
		}
		if m.watcher != nil {
			cmds = append(cmds, watchFile(m.watcher, m.path))
		}
		return m, tea.Batch(cmds...)

	case configUpdatedMsg:
		cfg := loadConfig()
		m.cfg.UndoDepth = cfg.UndoDepth
		m.cfg.DeleteActive = cfg.DeleteActive
		m.cfg.DeleteCompleted = cfg.DeleteCompleted
		m.engine.setUndoDepth(cfg.UndoDepth)
		m.engine.active.policy = cfg.activePolicy()
		m.engine.completed.policy = cfg.completedPolicy()
		text := "Settings updated."
		if cfg.File != m.cfg.File {
			text = "Settings updated. The new file is used on next start."
		}
		return m, m.setStatus(text, statusTimeout)

	case spinner.TickMsg:
		if m.status.text != "" {
			var cmd tea.Cmd
			m.status.spinner, cmd = m.status.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case statusClearMsg:
		if msg.id == m.status.id && !m.engine.editing() {
			m.clearStatus()
		}
		return m, nil

	case errMsg:
		return m, m.setStatus(fmt.Sprintf("Error: %v", msg.err), statusTimeout)
	}

	// Caret blink messages.
	var cmd tea.Cmd
	m.caret, cmd = m.caret.Update(msg)
	if m.engine.editing() {
		m.refreshDelegates()
	}
	return m, cmd
}

package main

import (
	"errors"
	"log"
	"strings"
	"unicode"
)

// ─── Focus, mode and operations ──────────────────────────────────────────────

type focus int

const (
	activeFocus focus = iota
	completedFocus
)

func (f focus) toggle() focus {
	if f == activeFocus {
		return completedFocus
	}
	return activeFocus
}

func (f focus) String() string {
	if f == activeFocus {
		return "TODO"
	}
	return "DONE"
}

type mode int

const (
	normalMode mode = iota
	editingMode
)

type action int

const (
	actionInsert action = iota
	actionAppend
	actionEdit
	actionDelete
	actionDragUp
	actionDragDown
	actionMark
	actionTransfer
)

var actionNames = [...]string{
	actionInsert:   "Insert",
	actionAppend:   "Append",
	actionEdit:     "Edit",
	actionDelete:   "Delete",
	actionDragUp:   "Drag up",
	actionDragDown: "Drag down",
	actionMark:     "Mark",
	actionTransfer: "Transfer",
}

func (a action) String() string { return actionNames[a] }

// operation is one undoable step. Each list it touched holds exactly one
// snapshot for it, pushed in the same order as the ops stack.
type operation struct {
	action action
	focus  focus
}

// ─── Command surface ─────────────────────────────────────────────────────────

// command is a normal-mode request decoded from one key event.
type command int

const (
	cmdNone command = iota
	cmdMoveUp
	cmdMoveDown
	cmdJumpTop
	cmdJumpBottom
	cmdJumpHalf
	cmdDragUp
	cmdDragDown
	cmdToggleFocus
	cmdToggleSubtasks
	cmdMark
	cmdDelete
	cmdBeginInsert
	cmdBeginAppend
	cmdBeginEdit
	cmdUndo
	cmdQuit
)

type editKey int

const (
	editChar editKey = iota
	editLeft
	editRight
	editHome
	editEnd
	editBackspace
	editDelete
	editCommit
	editCancel
)

// editInput is an edit-mode request; r is only meaningful for editChar.
type editInput struct {
	key editKey
	r   rune
}

var (
	errDoneInsert = errors.New("new tasks go to the TODO list")
	errDoneAppend = errors.New("subtasks can only be added to TODO tasks")
	errEmptyText  = errors.New("item can't be empty")
)

// ─── Engine ──────────────────────────────────────────────────────────────────

type engine struct {
	active    *todoList
	completed *todoList
	focus     focus
	mode      mode
	status    string

	editCursor int    // rune offset into the edited text
	editOrig   string // text before an edit session started

	showSubtasks bool
	ops          []operation
	undoDepth    int // 0 keeps every operation
	quit         bool

	// rev counts settled changes and undos; savedRev is rev as of the
	// last successful save.
	rev      int
	savedRev int
}

func newEngine(active, completed *todoList, cfg config) *engine {
	return &engine{
		active:       active,
		completed:    completed,
		showSubtasks: cfg.ShowSubtasks,
		undoDepth:    cfg.UndoDepth,
	}
}

func (e *engine) listFor(f focus) *todoList {
	if f == activeFocus {
		return e.active
	}
	return e.completed
}

func (e *engine) list() *todoList  { return e.listFor(e.focus) }
func (e *engine) other() *todoList { return e.listFor(e.focus.toggle()) }

func (e *engine) editing() bool { return e.mode == editingMode }

// dirty reports whether there is local work that a reload would discard.
func (e *engine) dirty() bool { return e.rev != e.savedRev || e.editing() }

// markSaved records that the state at revision rev reached the disk.
func (e *engine) markSaved(rev int) { e.savedRev = rev }

// setUndoDepth changes the cap and drops history beyond it.
func (e *engine) setUndoDepth(n int) {
	e.undoDepth = n
	e.trim()
}

// replace swaps in freshly loaded lists and forgets all history.
func (e *engine) replace(active, completed *todoList) {
	if e.editing() {
		panic("todo: replace called in edit mode")
	}
	e.active, e.completed = active, completed
	e.ops = nil
	e.savedRev = e.rev
	e.snapToRoots()
}

func (e *engine) mustBeNormal(what string) {
	if e.mode != normalMode {
		panic("todo: " + what + " called in edit mode")
	}
}

func (e *engine) mustBeEditing(what string) {
	if e.mode != editingMode {
		panic("todo: " + what + " called outside edit mode")
	}
}

func (e *engine) setStatus(s string) string {
	e.status = s
	return s
}

func (e *engine) fail(err error) string {
	return e.setStatus(sentence(err.Error()))
}

// sentence capitalizes s and terminates it with a period.
func sentence(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r) + "."
}

// snapToRoots keeps cursors on root rows while subtasks are hidden.
func (e *engine) snapToRoots() {
	if e.showSubtasks {
		return
	}
	for _, l := range []*todoList{e.active, e.completed} {
		if !l.empty() {
			l.cursor = l.rootOf(l.cursor)
		}
	}
}

// ─── Undo bookkeeping ────────────────────────────────────────────────────────

func (e *engine) touched(op operation) []*todoList {
	if op.action == actionTransfer {
		return []*todoList{e.active, e.completed}
	}
	return []*todoList{e.listFor(op.focus)}
}

func (e *engine) begin(a action) operation {
	op := operation{action: a, focus: e.focus}
	for _, l := range e.touched(op) {
		l.snapshot()
	}
	return op
}

func (e *engine) rollback(op operation) {
	for _, l := range e.touched(op) {
		if err := l.restore(); err != nil {
			panic("todo: missing snapshot for " + op.action.String())
		}
	}
}

// push records op without enforcing the cap. An edit session may still
// take it back, so nothing older is evicted yet.
func (e *engine) push(op operation) {
	e.ops = append(e.ops, op)
}

// settle marks the newest op as final and enforces undoDepth.
func (e *engine) settle() {
	e.rev++
	e.trim()
}

func (e *engine) commit(op operation) {
	e.push(op)
	e.settle()
}

// trim drops the oldest ops, with their snapshots, until the cap holds.
func (e *engine) trim() {
	for e.undoDepth > 0 && len(e.ops) > e.undoDepth {
		for _, l := range e.touched(e.ops[0]) {
			l.dropOldest()
		}
		e.ops = e.ops[1:]
	}
}

// run applies f as one undoable action, rolling back on failure.
func (e *engine) run(a action, f func() error) error {
	op := e.begin(a)
	if err := f(); err != nil {
		e.rollback(op)
		return err
	}
	e.commit(op)
	e.snapToRoots()
	return nil
}

// ─── Normal mode ─────────────────────────────────────────────────────────────

// apply executes one normal-mode command and returns the status message.
func (e *engine) apply(c command) string {
	e.mustBeNormal("command")
	skip := !e.showSubtasks
	l := e.list()
	switch c {
	case cmdMoveUp:
		l.up(skip)
	case cmdMoveDown:
		l.down(skip)
	case cmdJumpTop:
		l.top()
	case cmdJumpBottom:
		l.bottom(skip)
	case cmdJumpHalf:
		l.half()
	case cmdDragUp:
		return e.drag(actionDragUp, l.dragUp)
	case cmdDragDown:
		return e.drag(actionDragDown, l.dragDown)
	case cmdToggleFocus:
		return e.toggleFocus()
	case cmdToggleSubtasks:
		return e.toggleSubtasks()
	case cmdMark:
		return e.mark()
	case cmdDelete:
		return e.delete()
	case cmdBeginInsert:
		return e.beginInsert()
	case cmdBeginAppend:
		return e.beginAppend()
	case cmdBeginEdit:
		return e.beginEdit()
	case cmdUndo:
		return e.undo()
	case cmdQuit:
		e.quit = true
	}
	return e.setStatus("")
}

func (e *engine) toggleFocus() string {
	e.mustBeNormal("toggleFocus")
	e.focus = e.focus.toggle()
	return e.setStatus("")
}

func (e *engine) toggleSubtasks() string {
	e.showSubtasks = !e.showSubtasks
	e.snapToRoots()
	if e.showSubtasks {
		return e.setStatus("Showing subtasks.")
	}
	return e.setStatus("Hiding subtasks.")
}

func (e *engine) drag(a action, f func() error) string {
	if err := e.run(a, f); err != nil {
		return e.fail(err)
	}
	return e.setStatus("")
}

func (e *engine) delete() string {
	if err := e.run(actionDelete, e.list().delete); err != nil {
		return e.fail(err)
	}
	return e.setStatus(e.focus.String() + " item deleted.")
}

// mark completes or reopens a subtask in place; roots move between lists.
func (e *engine) mark() string {
	cur, ok := e.list().current()
	if !ok {
		return e.fail(errEmptyList)
	}
	if cur.isRoot() {
		return e.transferCurrent()
	}
	if e.focus == completedFocus {
		return e.fail(errNotARoot)
	}
	if err := e.run(actionMark, e.list().mark); err != nil {
		return e.fail(err)
	}
	if cur.done {
		return e.setStatus("Subtask reopened.")
	}
	return e.setStatus("Subtask done.")
}

// transferCurrent completes and moves a TODO root to DONE, or moves a
// DONE root back and reopens it.
func (e *engine) transferCurrent() string {
	e.mustBeNormal("transfer")
	src, dst := e.list(), e.other()
	toDone := e.focus == activeFocus
	err := e.run(actionTransfer, func() error {
		if toDone {
			if err := src.mark(); err != nil {
				return err
			}
			return src.transfer(dst)
		}
		at := dst.len()
		if err := src.transfer(dst); err != nil {
			return err
		}
		return dst.markAt(at)
	})
	if err != nil {
		return e.fail(err)
	}
	if toDone {
		return e.setStatus("Done! Great job!")
	}
	return e.setStatus("Not done yet? Keep going!")
}

func (e *engine) undo() string {
	e.mustBeNormal("undo")
	if len(e.ops) == 0 {
		return e.fail(errNothingToUndo)
	}
	op := e.ops[len(e.ops)-1]
	e.ops = e.ops[:len(e.ops)-1]
	e.rollback(op)
	e.rev++
	e.focus = op.focus
	e.snapToRoots()
	log.Printf("undo %s on %s", op.action, op.focus)
	return e.setStatus("Undo: " + op.action.String())
}

// ─── Edit mode ───────────────────────────────────────────────────────────────

func (e *engine) startEditing(op operation, cursor int) {
	e.push(op)
	e.mode = editingMode
	e.editCursor = cursor
}

func (e *engine) beginInsert() string {
	e.mustBeNormal("beginInsert")
	if e.focus == completedFocus {
		return e.fail(errDoneInsert)
	}
	op := e.begin(actionInsert)
	if err := e.list().insertRoot(); err != nil {
		e.rollback(op)
		return e.fail(err)
	}
	e.editOrig = ""
	e.startEditing(op, 0)
	return e.setStatus("What needs to be done?")
}

func (e *engine) beginAppend() string {
	e.mustBeNormal("beginAppend")
	if e.focus == completedFocus {
		return e.fail(errDoneAppend)
	}
	op := e.begin(actionAppend)
	if err := e.list().appendChild(); err != nil {
		e.rollback(op)
		return e.fail(err)
	}
	e.showSubtasks = true
	e.editOrig = ""
	e.startEditing(op, 0)
	return e.setStatus("What needs to be done?")
}

func (e *engine) beginEdit() string {
	e.mustBeNormal("beginEdit")
	cur, ok := e.list().current()
	if !ok {
		return e.fail(errEmptyList)
	}
	op := e.begin(actionEdit)
	e.editOrig = cur.text
	e.startEditing(op, len([]rune(cur.text)))
	return e.setStatus("Editing current item.")
}

// editText returns the text buffer being edited.
func (e *engine) editText() string {
	e.mustBeEditing("editText")
	l := e.list()
	return l.items[l.cursor].text
}

// edit applies one edit-mode input and returns the status message.
func (e *engine) edit(in editInput) string {
	e.mustBeEditing("edit")
	switch in.key {
	case editCommit:
		e.finishEdit()
		return e.status
	case editCancel:
		e.cancelEdit()
		return e.setStatus("")
	}
	l := e.list()
	it := &l.items[l.cursor]
	text := []rune(it.text)
	e.editCursor = min(max(e.editCursor, 0), len(text))
	switch in.key {
	case editLeft:
		if e.editCursor > 0 {
			e.editCursor--
		}
	case editRight:
		if e.editCursor < len(text) {
			e.editCursor++
		}
	case editHome:
		e.editCursor = 0
	case editEnd:
		e.editCursor = len(text)
	case editBackspace:
		if e.editCursor > 0 {
			e.editCursor--
			text = append(text[:e.editCursor], text[e.editCursor+1:]...)
		}
	case editDelete:
		if e.editCursor < len(text) {
			text = append(text[:e.editCursor], text[e.editCursor+1:]...)
		}
	case editChar:
		if unicode.IsPrint(in.r) {
			text = append(text[:e.editCursor], append([]rune{in.r}, text[e.editCursor:]...)...)
			e.editCursor++
		}
	}
	it.text = string(text)
	return e.status
}

// finishEdit leaves edit mode and reports whether it did. An emptied new
// item is rolled back without a trace; an emptied existing item keeps the
// engine in edit mode.
func (e *engine) finishEdit() bool {
	e.mustBeEditing("finishEdit")
	l := e.list()
	it := &l.items[l.cursor]
	text := strings.TrimSpace(it.text)
	op := e.ops[len(e.ops)-1]
	switch {
	case text == "" && op.action == actionEdit:
		e.fail(errEmptyText)
		return false
	case text == "", op.action == actionEdit && text == e.editOrig:
		e.cancelEdit()
		e.setStatus("")
		return true
	}
	it.text = text
	e.mode = normalMode
	e.settle()
	e.setStatus("")
	return true
}

// cancelEdit discards the whole edit session, including a just-created item.
func (e *engine) cancelEdit() {
	e.mustBeEditing("cancelEdit")
	op := e.ops[len(e.ops)-1]
	e.ops = e.ops[:len(e.ops)-1]
	e.rollback(op)
	e.mode = normalMode
	e.snapToRoots()
}

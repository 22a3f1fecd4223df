package main

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// timeNow is swapped out by tests that need stable timestamps.
var timeNow = time.Now

var (
	errEmptyList         = errors.New("list is empty")
	errCannotInsert      = errors.New("can't insert a task inside another task's subtasks")
	errAlreadyAtTop      = errors.New("can't drag up, item is already at the top")
	errAlreadyAtBottom   = errors.New("can't drag down, item is already at the bottom")
	errCannotLeaveParent = errors.New("a subtask can't leave its parent")
	errHasActiveSubtasks = errors.New("finish the subtasks first")
	errStillActive       = errors.New("task still has unfinished subtasks")
	errNotARoot          = errors.New("only whole tasks can move between lists")
	errNothingToUndo     = errors.New("nothing to undo")
)

// ─── Delete policy ───────────────────────────────────────────────────────────

type deletePolicy int

const (
	deleteBoth deletePolicy = iota
	deleteRoots
	deleteSubtasks
	deleteNone
)

var deletePolicyNames = map[string]deletePolicy{
	"both":     deleteBoth,
	"roots":    deleteRoots,
	"subtasks": deleteSubtasks,
	"none":     deleteNone,
}

func parseDeletePolicy(s string) (deletePolicy, error) {
	p, ok := deletePolicyNames[s]
	if !ok {
		return deleteNone, fmt.Errorf("unknown delete policy %q (want roots, subtasks, both or none)", s)
	}
	return p, nil
}

func (p deletePolicy) String() string {
	for name, v := range deletePolicyNames {
		if v == p {
			return name
		}
	}
	return "unknown"
}

// check returns the policy violation for deleting a root (or subtask).
func (p deletePolicy) check(root bool) error {
	switch {
	case p == deleteNone:
		return errors.New("deleting is disabled for this list")
	case p == deleteRoots && !root:
		return errors.New("only whole tasks can be deleted here")
	case p == deleteSubtasks && root:
		return errors.New("can't delete a task here, mark it done first")
	}
	return nil
}

// ─── List ────────────────────────────────────────────────────────────────────

type snapshot struct {
	items  []item
	cursor int
}

// todoList stores a forest flattened in pre-order: every item's subtree
// occupies the contiguous range [i, i+size(i)).
type todoList struct {
	items   []item
	cursor  int
	history []snapshot
	policy  deletePolicy
}

func newTodoList(policy deletePolicy) *todoList {
	return &todoList{policy: policy}
}

func (l *todoList) len() int { return len(l.items) }

func (l *todoList) empty() bool { return len(l.items) == 0 }

// current returns the item under the cursor.
func (l *todoList) current() (item, bool) {
	if l.empty() {
		return item{}, false
	}
	return l.items[l.cursor], true
}

func (l *todoList) size(i int) int {
	n := 1
	for _, c := range l.items[i].children {
		n += l.size(c)
	}
	return n
}

func (l *todoList) depth(i int) int {
	d := 0
	for p := l.items[i].parent; p != noParent; p = l.items[p].parent {
		d++
	}
	return d
}

func (l *todoList) rootOf(i int) int {
	for l.items[i].parent != noParent {
		i = l.items[i].parent
	}
	return i
}

func (l *todoList) roots() []int {
	var out []int
	for i, it := range l.items {
		if it.isRoot() {
			out = append(out, i)
		}
	}
	return out
}

func (l *todoList) clamp() {
	switch {
	case l.empty():
		l.cursor = 0
	case l.cursor >= len(l.items):
		l.cursor = len(l.items) - 1
	case l.cursor < 0:
		l.cursor = 0
	}
}

// remap rewrites every parent and child index through f.
func (l *todoList) remap(f func(int) int) {
	for i := range l.items {
		it := &l.items[i]
		if it.parent != noParent {
			it.parent = mustIndex(f(it.parent))
		}
		for j, c := range it.children {
			it.children[j] = mustIndex(f(c))
		}
	}
}

func mustIndex(i int) int {
	if i < 0 {
		panic(fmt.Sprintf("todo: index underflow (%d)", i))
	}
	return i
}

// ─── Navigation ──────────────────────────────────────────────────────────────

func (l *todoList) up(skipChildren bool) {
	if l.empty() {
		return
	}
	if !skipChildren {
		if l.cursor > 0 {
			l.cursor--
		}
		return
	}
	r := l.rootOf(l.cursor)
	l.cursor = r
	for j := r - 1; j >= 0; j-- {
		if l.items[j].isRoot() {
			l.cursor = j
			return
		}
	}
}

func (l *todoList) down(skipChildren bool) {
	if l.empty() {
		return
	}
	if !skipChildren {
		if l.cursor < len(l.items)-1 {
			l.cursor++
		}
		return
	}
	r := l.rootOf(l.cursor)
	l.cursor = r
	if next := r + l.size(r); next < len(l.items) {
		l.cursor = next
	}
}

func (l *todoList) top() {
	l.cursor = 0
}

func (l *todoList) bottom(skipChildren bool) {
	if l.empty() {
		return
	}
	l.cursor = len(l.items) - 1
	if skipChildren {
		l.cursor = l.rootOf(l.cursor)
	}
}

// half jumps to the root at position rootCount/2.
func (l *todoList) half() {
	roots := l.roots()
	if len(roots) == 0 {
		return
	}
	l.cursor = roots[len(roots)/2]
}

// ─── Structural mutations ────────────────────────────────────────────────────

func (l *todoList) insertAt(at int, it item) {
	l.remap(func(i int) int {
		if i >= at {
			return i + 1
		}
		return i
	})
	l.items = slices.Insert(l.items, at, it)
}

// insertRoot places a new empty root directly before the cursor.
func (l *todoList) insertRoot() error {
	at := 0
	if cur, ok := l.current(); ok {
		if !cur.isRoot() {
			return errCannotInsert
		}
		at = l.cursor
	}
	l.insertAt(at, newItem(noParent, timeNow()))
	l.cursor = at
	return nil
}

// appendChild adds a new empty last child to the cursor item and moves
// the cursor onto it.
func (l *todoList) appendChild() error {
	if l.empty() {
		return errEmptyList
	}
	p := l.cursor
	at := p + l.size(p)
	l.insertAt(at, newItem(p, timeNow()))
	l.items[p].children = append(l.items[p].children, at)
	addIncomplete(l.items, p, 1)
	l.cursor = at
	return nil
}

// cut removes the subtree block starting at start and returns it rebased
// so the block root sits at index 0 with no parent.
func (l *todoList) cut(start int) []item {
	k := l.size(start)
	end := start + k
	head := l.items[start]
	if p := head.parent; p != noParent {
		l.items[p].children = slices.DeleteFunc(l.items[p].children, func(c int) bool { return c == start })
		removeIncomplete(l.items, p, head.incomplete())
	}
	block := cloneItems(l.items[start:end])
	l.items = slices.Delete(l.items, start, end)
	l.remap(func(i int) int {
		switch {
		case i >= end:
			return i - k
		case i >= start:
			panic(fmt.Sprintf("todo: dangling reference to removed item %d", i))
		}
		return i
	})
	for i := range block {
		if i == 0 {
			block[i].parent = noParent
		} else {
			block[i].parent = mustIndex(block[i].parent - start)
		}
		for j := range block[i].children {
			block[i].children[j] = mustIndex(block[i].children[j] - start)
		}
	}
	return block
}

// delete removes the cursor item together with all its descendants.
func (l *todoList) delete() error {
	cur, ok := l.current()
	if !ok {
		return errEmptyList
	}
	if err := l.policy.check(cur.isRoot()); err != nil {
		return err
	}
	l.cut(l.cursor)
	l.clamp()
	return nil
}

// mark toggles completion of the cursor item.
func (l *todoList) mark() error {
	if l.empty() {
		return errEmptyList
	}
	return l.markAt(l.cursor)
}

func (l *todoList) markAt(i int) error {
	it := &l.items[i]
	if it.done {
		it.done = false
		if it.parent != noParent {
			addIncomplete(l.items, it.parent, 1)
		}
		return nil
	}
	if it.active > 0 {
		return errHasActiveSubtasks
	}
	it.done = true
	it.stamp = timeNow()
	if it.parent != noParent {
		removeIncomplete(l.items, it.parent, 1)
	}
	return nil
}

func (l *todoList) prevSibling(c int) (int, error) {
	p := l.items[c].parent
	if p == noParent {
		for j := c - 1; j >= 0; j-- {
			if l.items[j].isRoot() {
				return j, nil
			}
		}
		return 0, errAlreadyAtTop
	}
	sibs := l.items[p].children
	if k := slices.Index(sibs, c); k > 0 {
		return sibs[k-1], nil
	}
	// The parent itself sits directly above the first child.
	return 0, errCannotLeaveParent
}

func (l *todoList) nextSibling(c int) (int, error) {
	end := c + l.size(c)
	p := l.items[c].parent
	if p == noParent {
		if end < len(l.items) {
			return end, nil
		}
		return 0, errAlreadyAtBottom
	}
	sibs := l.items[p].children
	if k := slices.Index(sibs, c); k >= 0 && k < len(sibs)-1 {
		return sibs[k+1], nil
	}
	if end < len(l.items) {
		return 0, errCannotLeaveParent
	}
	return 0, errAlreadyAtBottom
}

// swapBlocks exchanges two adjacent sibling blocks; b must start where
// a's block ends.
func (l *todoList) swapBlocks(a, b int) {
	ka, kb := l.size(a), l.size(b)
	if a+ka != b {
		panic(fmt.Sprintf("todo: blocks %d and %d are not adjacent", a, b))
	}
	end := b + kb
	l.remap(func(i int) int {
		switch {
		case i >= a && i < b:
			return i + kb
		case i >= b && i < end:
			return i - ka
		}
		return i
	})
	moved := make([]item, 0, ka+kb)
	moved = append(moved, l.items[b:end]...)
	moved = append(moved, l.items[a:b]...)
	copy(l.items[a:end], moved)
	if p := l.items[a].parent; p != noParent {
		slices.Sort(l.items[p].children)
	}
}

func (l *todoList) dragUp() error {
	if l.empty() {
		return errEmptyList
	}
	prev, err := l.prevSibling(l.cursor)
	if err != nil {
		return err
	}
	l.swapBlocks(prev, l.cursor)
	l.cursor = prev
	return nil
}

func (l *todoList) dragDown() error {
	if l.empty() {
		return errEmptyList
	}
	next, err := l.nextSibling(l.cursor)
	if err != nil {
		return err
	}
	kb := l.size(next)
	l.swapBlocks(l.cursor, next)
	l.cursor += kb
	return nil
}

// transfer moves the cursor root and its subtree to the end of dst.
func (l *todoList) transfer(dst *todoList) error {
	cur, ok := l.current()
	if !ok {
		return errEmptyList
	}
	if !cur.isRoot() {
		return errNotARoot
	}
	if cur.active > 0 {
		return errStillActive
	}
	block := l.cut(l.cursor)
	block[0].stamp = timeNow()
	base := len(dst.items)
	for i := range block {
		if block[i].parent != noParent {
			block[i].parent += base
		}
		for j := range block[i].children {
			block[i].children[j] += base
		}
	}
	dst.items = append(dst.items, block...)
	l.clamp()
	return nil
}

// ─── History ─────────────────────────────────────────────────────────────────

func (l *todoList) snapshot() {
	l.history = append(l.history, snapshot{items: cloneItems(l.items), cursor: l.cursor})
}

func (l *todoList) restore() error {
	if len(l.history) == 0 {
		return errNothingToUndo
	}
	s := l.history[len(l.history)-1]
	l.history = l.history[:len(l.history)-1]
	l.items, l.cursor = s.items, s.cursor
	return nil
}

func (l *todoList) dropOldest() {
	if len(l.history) > 0 {
		l.history = slices.Delete(l.history, 0, 1)
	}
}

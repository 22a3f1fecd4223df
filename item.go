package main

import (
	"slices"
	"time"
)

// ─── Item ────────────────────────────────────────────────────────────────────

// noParent marks a root item.
const noParent = -1

// item is one task or subtask. parent and children are absolute indices
// into the owning todoList's items slice and are rewritten on every
// structural change.
type item struct {
	text     string
	stamp    time.Time // creation time; completion time once done
	parent   int
	children []int
	active   int  // incomplete descendants, self excluded
	done     bool
}

func newItem(parent int, now time.Time) item {
	return item{parent: parent, stamp: now}
}

func (it item) isRoot() bool { return it.parent == noParent }

// incomplete is the number of incomplete items in its subtree, itself
// included.
func (it item) incomplete() int {
	if it.done {
		return it.active
	}
	return it.active + 1
}

// clone deep-copies the children slice so snapshots never alias live state.
func (it item) clone() item {
	it.children = slices.Clone(it.children)
	return it
}

func cloneItems(items []item) []item {
	if items == nil {
		return nil
	}
	out := make([]item, len(items))
	for i, it := range items {
		out[i] = it.clone()
	}
	return out
}

// ─── Activity propagation ────────────────────────────────────────────────────

// addIncomplete records n newly incomplete items directly beneath index
// from. Every ancestor gains n, and a done ancestor is reopened, which in
// turn adds itself to the count carried further up.
func addIncomplete(items []item, from, n int) {
	for i := from; i != noParent; i = items[i].parent {
		items[i].active += n
		if items[i].done {
			items[i].done = false
			n++
		}
	}
}

// removeIncomplete subtracts n from every ancestor starting at from.
func removeIncomplete(items []item, from, n int) {
	if n == 0 {
		return
	}
	for i := from; i != noParent; i = items[i].parent {
		items[i].active -= n
		if items[i].active < 0 {
			panic("todo: negative active count")
		}
	}
}

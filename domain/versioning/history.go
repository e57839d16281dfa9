package versioning

import (
	"fmt"
	"time"

	"mindboard/domain/core/entities"
	pkgerrors "mindboard/pkg/errors"
)

// PersistFunc receives every snapshot that becomes current through Commit,
// Undo or Redo. The slice is a private copy the receiver may keep.
type PersistFunc func(nodes []entities.Node)

// Entry is one snapshot in the history log
type Entry struct {
	Version   int
	Nodes     []entities.Node
	CreatedAt time.Time
}

// History is a bounded undo log over board snapshots with a cursor.
//
// The log always holds at least one entry. Committing discards any redo
// branch beyond the cursor; once the log exceeds its limit the oldest
// entries are evicted.
type History struct {
	entries []Entry
	cursor  int
	limit   int
	persist PersistFunc
	version int
}

// New seeds a history with the loaded node list. Seeding does not persist.
// A limit below 1 is raised to 1.
func New(initial []entities.Node, limit int, persist PersistFunc) *History {
	if limit < 1 {
		limit = 1
	}
	h := &History{
		limit:   limit,
		persist: persist,
	}
	h.entries = []Entry{h.newEntry(initial)}
	return h
}

// Commit appends a snapshot after the cursor, evicts past the limit and
// persists it
func (h *History) Commit(nodes []entities.Node) {
	h.entries = append(h.entries[:h.cursor+1], h.newEntry(nodes))
	h.cursor = len(h.entries) - 1

	if overflow := len(h.entries) - h.limit; overflow > 0 {
		// Drop references before reslicing so evicted nodes can be collected
		for i := 0; i < overflow; i++ {
			h.entries[i] = Entry{}
		}
		h.entries = h.entries[overflow:]
		h.cursor -= overflow
	}

	h.save()
}

// Undo steps the cursor back and persists the adopted snapshot. At the
// oldest entry it is a no-op: ok is false and the current snapshot is
// returned unchanged.
func (h *History) Undo() (nodes []entities.Node, ok bool) {
	if !h.CanUndo() {
		return h.Current(), false
	}
	h.cursor--
	h.save()
	return h.Current(), true
}

// Redo steps the cursor forward; the mirror of Undo
func (h *History) Redo() (nodes []entities.Node, ok bool) {
	if !h.CanRedo() {
		return h.Current(), false
	}
	h.cursor++
	h.save()
	return h.Current(), true
}

// Current returns a copy of the snapshot at the cursor
func (h *History) Current() []entities.Node {
	return entities.CloneNodes(h.entries[h.cursor].Nodes)
}

// CanUndo reports whether Undo would move the cursor
func (h *History) CanUndo() bool {
	return h.cursor > 0
}

// CanRedo reports whether Redo would move the cursor
func (h *History) CanRedo() bool {
	return h.cursor < len(h.entries)-1
}

// Len returns the number of retained snapshots
func (h *History) Len() int {
	return len(h.entries)
}

// Cursor returns the index of the current snapshot
func (h *History) Cursor() int {
	return h.cursor
}

// Limit returns the maximum number of retained snapshots
func (h *History) Limit() int {
	return h.limit
}

// Snapshot returns a copy of the entry at index i
func (h *History) Snapshot(i int) (Entry, error) {
	if i < 0 || i >= len(h.entries) {
		return Entry{}, pkgerrors.NewHistoryBoundary(fmt.Sprintf("history index %d out of range [0, %d)", i, len(h.entries)))
	}
	e := h.entries[i]
	e.Nodes = entities.CloneNodes(e.Nodes)
	return e, nil
}

func (h *History) newEntry(nodes []entities.Node) Entry {
	h.version++
	return Entry{
		Version:   h.version,
		Nodes:     entities.CloneNodes(nodes),
		CreatedAt: time.Now(),
	}
}

func (h *History) save() {
	if h.persist != nil {
		h.persist(h.Current())
	}
}

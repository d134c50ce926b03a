package chainsight

import "sort"

// Entry is a rendered decoration currently present in a host's decoration
// store. The owner tag is an explicit field so a later pass can recognize
// its own entries without inspecting how they are drawn.
type Entry struct {
	Offset int
	Label  string
	Tag    FeatureTag
}

// OverlayStore is the host editor's decoration store, narrowed to what
// reconciliation needs. The store is shared and host-owned; this package
// only ever creates and removes entries carrying its own feature tag.
type OverlayStore interface {
	// Query returns the entries with offsets in [start, end), in offset
	// order. It may include entries owned by other features.
	Query(start, end int) []*Entry

	// Insert creates a decoration at offset carrying the given tag.
	Insert(offset int, label string, tag FeatureTag) *Entry

	// Remove deletes an entry previously returned by Query.
	Remove(entry *Entry)
}

// BulkUpdater is an optional store capability: a batched-edit mode that
// defers layout recomputation until all changes in a reconciliation are
// applied. Used above the bulk threshold; purely a performance heuristic.
type BulkUpdater interface {
	BulkUpdate(apply func())
}

// ViewKeeper is an optional store capability for view-position
// preservation: CaptureView records the viewer's visual scroll/caret
// location and returns the function that restores it.
type ViewKeeper interface {
	CaptureView() (restore func())
}

// MemoryStore is an in-process OverlayStore keeping entries sorted by
// offset. It backs tests and headless hosts; it is not safe for concurrent
// use, matching the single-writer contract of reconciliation.
type MemoryStore struct {
	entries []*Entry
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Query implements OverlayStore.
func (s *MemoryStore) Query(start, end int) []*Entry {
	lo := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].Offset >= start })
	hi := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].Offset >= end })

	out := make([]*Entry, hi-lo)
	copy(out, s.entries[lo:hi])

	return out
}

// Insert implements OverlayStore.
func (s *MemoryStore) Insert(offset int, label string, tag FeatureTag) *Entry {
	e := &Entry{Offset: offset, Label: label, Tag: tag}
	i := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].Offset > offset })

	s.entries = append(s.entries, nil)
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = e

	return e
}

// Remove implements OverlayStore.
func (s *MemoryStore) Remove(entry *Entry) {
	for i, e := range s.entries {
		if e == entry {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)

			return
		}
	}
}

// Len returns the number of entries in the store.
func (s *MemoryStore) Len() int {
	return len(s.entries)
}

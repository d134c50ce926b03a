// Package preview renders a Go file in the terminal with chain hints
// inlined, reconciling the displayed decorations on every file change.
package preview

import (
	"sort"
	"strings"

	chainsight "github.com/hari6963/chainsight"
)

// RenderStore is the preview's decoration store. Unlike the plain in-memory
// store it behaves like a real editor surface: every mutation outside a bulk
// update triggers a layout recomputation that loses the scroll position, so
// reconciliation exercises both the bulk-update and view-preservation
// capabilities for real.
type RenderStore struct {
	entries []*chainsight.Entry

	scroll  int
	layouts int
	inBulk  bool
}

// NewRenderStore creates an empty store.
func NewRenderStore() *RenderStore {
	return &RenderStore{}
}

// Query implements chainsight.OverlayStore over [start, end).
func (s *RenderStore) Query(start, end int) []*chainsight.Entry {
	lo := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].Offset >= start })
	hi := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].Offset >= end })

	out := make([]*chainsight.Entry, hi-lo)
	copy(out, s.entries[lo:hi])

	return out
}

// Insert implements chainsight.OverlayStore.
func (s *RenderStore) Insert(offset int, label string, tag chainsight.FeatureTag) *chainsight.Entry {
	e := &chainsight.Entry{Offset: offset, Label: label, Tag: tag}
	i := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].Offset > offset })

	s.entries = append(s.entries, nil)
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = e

	s.relayout()

	return e
}

// Remove implements chainsight.OverlayStore.
func (s *RenderStore) Remove(entry *chainsight.Entry) {
	for i, e := range s.entries {
		if e == entry {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			s.relayout()

			return
		}
	}
}

// BulkUpdate implements chainsight.BulkUpdater: the changes inside apply
// trigger a single layout recomputation at the end.
func (s *RenderStore) BulkUpdate(apply func()) {
	s.inBulk = true
	apply()
	s.inBulk = false

	s.relayout()
}

// CaptureView implements chainsight.ViewKeeper. The returned function puts
// the scroll position back where it was, undoing whatever the intervening
// layouts did to it.
func (s *RenderStore) CaptureView() func() {
	saved := s.scroll

	return func() { s.scroll = saved }
}

// relayout models the editor recomputing line layout: the viewport snaps
// back to the top unless a captured view is restored afterwards.
func (s *RenderStore) relayout() {
	if s.inBulk {
		return
	}

	s.layouts++
	s.scroll = 0
}

// Scroll moves the viewport by delta lines, clamped to [0, maxTop].
func (s *RenderStore) Scroll(delta, maxTop int) {
	s.scroll += delta
	if s.scroll > maxTop {
		s.scroll = maxTop
	}

	if s.scroll < 0 {
		s.scroll = 0
	}
}

// ScrollTop returns the first visible line.
func (s *RenderStore) ScrollTop() int {
	return s.scroll
}

// Layouts returns how many layout recomputations mutations have caused.
func (s *RenderStore) Layouts() int {
	return s.layouts
}

// Len returns the number of entries in the store.
func (s *RenderStore) Len() int {
	return len(s.entries)
}

// Decorate renders content line by line with every entry's label injected
// at its offset, styled by render. Entries past the end of the content are
// skipped rather than clamped; they belong to an older revision and are
// about to be reconciled away.
func (s *RenderStore) Decorate(content string, render func(label string) string) []string {
	lines := strings.Split(content, "\n")
	out := make([]string, len(lines))

	next := 0
	lineStart := 0

	for i, line := range lines {
		lineEnd := lineStart + len(line)

		var b strings.Builder

		col := 0

		for ; next < len(s.entries) && s.entries[next].Offset <= lineEnd; next++ {
			e := s.entries[next]
			if e.Offset < lineStart {
				continue
			}

			b.WriteString(line[col : e.Offset-lineStart])
			b.WriteString(render(e.Label))
			col = e.Offset - lineStart
		}

		b.WriteString(line[col:])
		out[i] = b.String()

		lineStart = lineEnd + 1
	}

	return out
}

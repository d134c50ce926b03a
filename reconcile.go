package chainsight

import "sort"

// DefaultBulkThreshold is the combined change count above which a
// reconciliation is wrapped in the store's bulk-update mode, avoiding
// incremental layout recomputation per change. Tuning value only; it has no
// semantic effect.
const DefaultBulkThreshold = 1000

// Reconciler turns a freshly computed hint batch into a minimal update of
// the decorations already present in a store. It runs on whatever single
// thread owns the store and is intentionally not cancellable: its cost is
// proportional to the number of changed hints, not the document size. The
// host guarantees at most one in-flight reconciliation per region.
type Reconciler struct {
	// Store is the host decoration store.
	Store OverlayStore

	// Tag identifies this feature's entries. Entries with other tags are
	// never removed or altered.
	Tag FeatureTag

	// BulkThreshold overrides DefaultBulkThreshold when positive.
	BulkThreshold int
}

// ReconcileStats reports what one Apply changed. Applying the same batch
// twice yields Removed == 0 and Added == 0 on the second run.
type ReconcileStats struct {
	Removed int
	Added   int
	Kept    int
}

// Apply reconciles the batch against the store's tagged entries in
// [start, end): entries whose offset left the batch, or whose label changed,
// are removed; batch records not already displayed are inserted (a changed
// hint is removed then re-added, never mutated in place). The viewer's
// visual position, when the store can capture it, is restored after the
// edit so a decoration-only change does not shift the viewport.
func (r *Reconciler) Apply(batch HintBatch, start, end int) ReconcileStats {
	threshold := r.BulkThreshold
	if threshold <= 0 {
		threshold = DefaultBulkThreshold
	}

	var removals []*Entry

	unchanged := make(map[int]bool)

	for _, e := range r.Store.Query(start, end) {
		if e.Tag != r.Tag {
			continue
		}

		if rec, ok := batch[e.Offset]; ok && rec.Label == e.Label {
			unchanged[e.Offset] = true

			continue
		}

		removals = append(removals, e)
	}

	var additions []HintRecord

	for offset, rec := range batch {
		if offset < start || offset >= end || unchanged[offset] {
			continue
		}

		additions = append(additions, rec)
	}

	sort.Slice(additions, func(i, j int) bool { return additions[i].Offset < additions[j].Offset })

	apply := func() {
		for _, e := range removals {
			r.Store.Remove(e)
		}

		for _, rec := range additions {
			r.Store.Insert(rec.Offset, rec.Label, r.Tag)
		}
	}

	var restore func()
	if vk, ok := r.Store.(ViewKeeper); ok {
		restore = vk.CaptureView()
	}

	if bu, ok := r.Store.(BulkUpdater); ok && len(removals)+len(additions) > threshold {
		bu.BulkUpdate(apply)
	} else {
		apply()
	}

	if restore != nil {
		restore()
	}

	return ReconcileStats{
		Removed: len(removals),
		Added:   len(additions),
		Kept:    len(unchanged),
	}
}

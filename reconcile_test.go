package chainsight_test

import (
	"context"
	"math"
	"testing"

	chainsight "github.com/hari6963/chainsight"
)

// trackingStore wraps a MemoryStore and records capability use.
type trackingStore struct {
	*chainsight.MemoryStore

	bulkApplies int
	captures    int
	restores    int
}

func (s *trackingStore) BulkUpdate(apply func()) {
	s.bulkApplies++

	apply()
}

func (s *trackingStore) CaptureView() func() {
	s.captures++

	return func() { s.restores++ }
}

func batchOf(records ...chainsight.HintRecord) chainsight.HintBatch {
	batch := make(chainsight.HintBatch, len(records))
	for _, rec := range records {
		batch[rec.Offset] = rec
	}

	return batch
}

func TestReconciler_Apply(t *testing.T) {
	t.Parallel()

	t.Run("initial apply inserts every record", func(t *testing.T) {
		t.Parallel()

		store := chainsight.NewMemoryStore()
		r := &chainsight.Reconciler{Store: store, Tag: chainsight.TagMethodChainHints}

		stats := r.Apply(batchOf(
			chainsight.HintRecord{Offset: 10, Label: "[]User"},
			chainsight.HintRecord{Offset: 20, Label: "int"},
		), 0, math.MaxInt)

		if stats.Added != 2 || stats.Removed != 0 {
			t.Errorf("stats = %+v, want 2 added, 0 removed", stats)
		}

		if store.Len() != 2 {
			t.Errorf("store has %d entries, want 2", store.Len())
		}
	})

	t.Run("identical batch is a no-op", func(t *testing.T) {
		t.Parallel()

		store := chainsight.NewMemoryStore()
		r := &chainsight.Reconciler{Store: store, Tag: chainsight.TagMethodChainHints}

		batch := batchOf(
			chainsight.HintRecord{Offset: 10, Label: "[]User"},
			chainsight.HintRecord{Offset: 20, Label: "int"},
		)

		r.Apply(batch, 0, math.MaxInt)

		stats := r.Apply(batch, 0, math.MaxInt)
		if stats.Added != 0 || stats.Removed != 0 || stats.Kept != 2 {
			t.Errorf("second apply stats = %+v, want all kept", stats)
		}
	})

	t.Run("changed label is removed then re-added", func(t *testing.T) {
		t.Parallel()

		store := chainsight.NewMemoryStore()
		r := &chainsight.Reconciler{Store: store, Tag: chainsight.TagMethodChainHints}

		r.Apply(batchOf(chainsight.HintRecord{Offset: 10, Label: "[]User"}), 0, math.MaxInt)

		stats := r.Apply(batchOf(chainsight.HintRecord{Offset: 10, Label: "[]Admin"}), 0, math.MaxInt)
		if stats.Removed != 1 || stats.Added != 1 || stats.Kept != 0 {
			t.Errorf("stats = %+v, want one removal and one addition", stats)
		}

		entries := store.Query(0, math.MaxInt)
		if len(entries) != 1 || entries[0].Label != "[]Admin" {
			t.Errorf("store entries = %v, want single []Admin", entries)
		}
	})

	t.Run("empty batch removes every tagged entry", func(t *testing.T) {
		t.Parallel()

		store := chainsight.NewMemoryStore()
		r := &chainsight.Reconciler{Store: store, Tag: chainsight.TagMethodChainHints}

		r.Apply(batchOf(
			chainsight.HintRecord{Offset: 10, Label: "[]User"},
			chainsight.HintRecord{Offset: 20, Label: "int"},
		), 0, math.MaxInt)

		stats := r.Apply(chainsight.HintBatch{}, 0, math.MaxInt)
		if stats.Removed != 2 || store.Len() != 0 {
			t.Errorf("stats = %+v with %d entries left, want empty store", stats, store.Len())
		}
	})

	t.Run("foreign tags are never touched", func(t *testing.T) {
		t.Parallel()

		store := chainsight.NewMemoryStore()
		store.Insert(10, "breakpoint", "debugger.breakpoints")

		r := &chainsight.Reconciler{Store: store, Tag: chainsight.TagMethodChainHints}

		r.Apply(chainsight.HintBatch{}, 0, math.MaxInt)

		entries := store.Query(0, math.MaxInt)
		if len(entries) != 1 || entries[0].Tag != "debugger.breakpoints" {
			t.Fatalf("foreign entry was touched: %v", entries)
		}
	})

	t.Run("entries outside the reconciled range survive", func(t *testing.T) {
		t.Parallel()

		store := chainsight.NewMemoryStore()
		r := &chainsight.Reconciler{Store: store, Tag: chainsight.TagMethodChainHints}

		r.Apply(batchOf(
			chainsight.HintRecord{Offset: 10, Label: "[]User"},
			chainsight.HintRecord{Offset: 500, Label: "int"},
		), 0, math.MaxInt)

		// Reconcile only [0, 100): the entry at 500 is out of scope.
		stats := r.Apply(chainsight.HintBatch{}, 0, 100)
		if stats.Removed != 1 || store.Len() != 1 {
			t.Errorf("stats = %+v with %d entries, want only in-range removal", stats, store.Len())
		}
	})

	t.Run("view position is captured and restored", func(t *testing.T) {
		t.Parallel()

		store := &trackingStore{MemoryStore: chainsight.NewMemoryStore()}
		r := &chainsight.Reconciler{Store: store, Tag: chainsight.TagMethodChainHints}

		r.Apply(batchOf(chainsight.HintRecord{Offset: 10, Label: "int"}), 0, math.MaxInt)

		if store.captures != 1 || store.restores != 1 {
			t.Errorf("captures=%d restores=%d, want 1 and 1", store.captures, store.restores)
		}
	})

	t.Run("bulk mode engages above the threshold", func(t *testing.T) {
		t.Parallel()

		store := &trackingStore{MemoryStore: chainsight.NewMemoryStore()}
		r := &chainsight.Reconciler{
			Store:         store,
			Tag:           chainsight.TagMethodChainHints,
			BulkThreshold: 2,
		}

		r.Apply(batchOf(
			chainsight.HintRecord{Offset: 10, Label: "a"},
			chainsight.HintRecord{Offset: 20, Label: "b"},
			chainsight.HintRecord{Offset: 30, Label: "c"},
		), 0, math.MaxInt)

		if store.bulkApplies != 1 {
			t.Errorf("bulkApplies = %d, want 1", store.bulkApplies)
		}

		if store.Len() != 3 {
			t.Errorf("store has %d entries, want 3", store.Len())
		}

		// Two changes do not exceed the threshold of two.
		r.Apply(batchOf(
			chainsight.HintRecord{Offset: 10, Label: "a"},
			chainsight.HintRecord{Offset: 20, Label: "b"},
			chainsight.HintRecord{Offset: 40, Label: "d"},
		), 0, math.MaxInt)

		if store.bulkApplies != 1 {
			t.Errorf("bulkApplies = %d after small change, want still 1", store.bulkApplies)
		}
	})
}

func TestPipeline_Idempotence(t *testing.T) {
	t.Parallel()

	src := `package demo

func demo(list Seq) {
	_ = list.
		Filter().
		Names().
		Count()
}
`

	fset, file := parseFile(t, src)

	opts := chainsight.Options{
		Fset: fset,
		Src:  []byte(src),
		Resolver: methodResolver{
			"Filter": "[]User",
			"Names":  "[]string",
			"Count":  "int",
		},
		Enabled: true,
	}

	store := chainsight.NewMemoryStore()
	r := &chainsight.Reconciler{Store: store, Tag: chainsight.TagMethodChainHints}

	first, err := chainsight.ComputeHints(context.Background(), file, opts)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}

	r.Apply(first, 0, math.MaxInt)

	second, err := chainsight.ComputeHints(context.Background(), file, opts)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}

	stats := r.Apply(second, 0, math.MaxInt)
	if stats.Added != 0 || stats.Removed != 0 {
		t.Errorf("second run stats = %+v, want no changes", stats)
	}
}

func TestPipeline_DisabledRemovesHints(t *testing.T) {
	t.Parallel()

	src := `package demo

func demo(list Seq) {
	_ = list.
		Filter().
		Count()
}
`

	fset, file := parseFile(t, src)

	opts := chainsight.Options{
		Fset: fset,
		Src:  []byte(src),
		Resolver: methodResolver{
			"Filter": "[]User",
			"Count":  "int",
		},
		Enabled: true,
	}

	store := chainsight.NewMemoryStore()
	r := &chainsight.Reconciler{Store: store, Tag: chainsight.TagMethodChainHints}

	// Force acceptance of the two-link chain so something is displayed.
	rule, err := chainsight.CompileRule("links >= 2")
	if err != nil {
		t.Fatalf("CompileRule: %v", err)
	}

	opts.Rule = rule

	batch, err := chainsight.ComputeHints(context.Background(), file, opts)
	if err != nil {
		t.Fatalf("ComputeHints: %v", err)
	}

	r.Apply(batch, 0, math.MaxInt)

	if store.Len() == 0 {
		t.Fatal("expected hints to be displayed before disabling")
	}

	opts.Enabled = false

	batch, err = chainsight.ComputeHints(context.Background(), file, opts)
	if err != nil {
		t.Fatalf("disabled pass: %v", err)
	}

	if len(batch) != 0 {
		t.Fatalf("disabled pass produced %d hints", len(batch))
	}

	r.Apply(batch, 0, math.MaxInt)

	if store.Len() != 0 {
		t.Errorf("store still has %d entries after disabling", store.Len())
	}
}

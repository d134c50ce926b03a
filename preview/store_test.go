package preview_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	chainsight "github.com/hari6963/chainsight"
	"github.com/hari6963/chainsight/preview"
)

func TestRenderStore_Decorate(t *testing.T) {
	t.Parallel()

	content := "first().\n\tsecond().\n\tthird()"
	store := preview.NewRenderStore()

	store.Insert(strings.Index(content, "first()")+len("first()"), "A", chainsight.TagMethodChainHints)
	store.Insert(strings.Index(content, "second()")+len("second()"), "B", chainsight.TagMethodChainHints)

	lines := store.Decorate(content, func(label string) string { return "<" + label + ">" })

	require.Equal(t, []string{
		"first()<A>.",
		"\tsecond()<B>.",
		"\tthird()",
	}, lines)
}

func TestRenderStore_DecorateSkipsStaleOffsets(t *testing.T) {
	t.Parallel()

	store := preview.NewRenderStore()
	store.Insert(500, "stale", chainsight.TagMethodChainHints)

	lines := store.Decorate("short", func(label string) string { return label })

	require.Equal(t, []string{"short"}, lines)
}

func TestRenderStore_BulkUpdateSingleLayout(t *testing.T) {
	t.Parallel()

	store := preview.NewRenderStore()

	store.BulkUpdate(func() {
		for i := 0; i < 10; i++ {
			store.Insert(i*10, "x", chainsight.TagMethodChainHints)
		}
	})

	require.Equal(t, 10, store.Len())
	require.Equal(t, 1, store.Layouts())

	store.Insert(200, "y", chainsight.TagMethodChainHints)
	require.Equal(t, 2, store.Layouts())
}

func TestRenderStore_ReconcilePreservesScroll(t *testing.T) {
	t.Parallel()

	store := preview.NewRenderStore()
	rec := chainsight.Reconciler{Store: store, Tag: chainsight.TagMethodChainHints}

	rec.Apply(chainsight.HintBatch{
		10: {Offset: 10, Label: "A"},
		20: {Offset: 20, Label: "B"},
	}, 0, 100)

	store.Scroll(42, 1000)
	require.Equal(t, 42, store.ScrollTop())

	// The changed batch forces removals and insertions; each would snap
	// the viewport to the top without the captured view.
	rec.Apply(chainsight.HintBatch{
		10: {Offset: 10, Label: "A"},
		30: {Offset: 30, Label: "C"},
	}, 0, 100)

	require.Equal(t, 42, store.ScrollTop())
	require.Equal(t, 2, store.Len())
}

func TestRenderStore_BareInsertLosesScroll(t *testing.T) {
	t.Parallel()

	store := preview.NewRenderStore()
	store.Scroll(5, 1000)

	store.Insert(0, "x", chainsight.TagMethodChainHints)

	require.Zero(t, store.ScrollTop())
}

func TestRenderStore_ScrollClamps(t *testing.T) {
	t.Parallel()

	store := preview.NewRenderStore()

	store.Scroll(-3, 10)
	require.Zero(t, store.ScrollTop())

	store.Scroll(50, 10)
	require.Equal(t, 10, store.ScrollTop())
}

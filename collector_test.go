package chainsight_test

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	chainsight "github.com/hari6963/chainsight"
)

// parseFile parses a snippet and returns the fileset and file.
func parseFile(t *testing.T, src string) (*token.FileSet, *ast.File) {
	t.Helper()

	fset := token.NewFileSet()

	file, err := parser.ParseFile(fset, "demo.go", src, 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	return fset, file
}

// chainNames renders chains as the method names of their links.
func chainNames(chains []chainsight.Chain) [][]string {
	var out [][]string

	for _, chain := range chains {
		var names []string

		for _, l := range chain {
			sel := l.Call.Fun.(*ast.SelectorExpr)
			names = append(names, sel.Sel.Name)
		}

		out = append(out, names)
	}

	return out
}

func TestCollector_Collect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want [][]string
	}{
		{
			name: "multi-line chain with each call on its own line",
			src: `package demo

func demo(list Seq) {
	_ = list.
		Filter().
		Mapped().
		Sum()
}
`,
			want: [][]string{{"Filter", "Mapped", "Sum"}},
		},
		{
			name: "single-line chain is never collected",
			src: `package demo

func demo(b Builder) {
	_ = b.SetA(1).SetB(2).Build()
}
`,
			want: nil,
		},
		{
			name: "trailing calls not on their own line are dropped",
			src: `package demo

func demo(list Seq) {
	_ = list.
		Filter().
		Mapped().Sum()
}
`,
			want: [][]string{{"Filter"}},
		},
		{
			name: "chain starting mid-expression after a same-line prefix",
			src: `package demo

func demo(b Builder) {
	_ = b.SetA(1).SetB(2).
		SetC(3).
		Build()
}
`,
			// SetB is a same-line continuation of SetA, so the only
			// head is SetC's enclosing call laid out on a new line.
			want: [][]string{{"SetC", "Build"}},
		},
		{
			name: "two independent chains in one function",
			src: `package demo

func demo(a, b Seq) {
	_ = a.
		One().
		Two()
	_ = b.
		Three().
		Four()
}
`,
			want: [][]string{{"One", "Two"}, {"Three", "Four"}},
		},
		{
			name: "chain nested in an argument",
			src: `package demo

func demo(a Seq) {
	use(a.
		First().
		Second(),
	)
}
`,
			// Second is followed by "," on the same line, so only
			// First survives the layout filter.
			want: [][]string{{"First"}},
		},
		{
			name: "plain calls without selectors are ignored",
			src: `package demo

func demo() {
	one()
	two()
}
`,
			want: nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fset, file := parseFile(t, tt.src)
			collector := &chainsight.Collector{Fset: fset, Src: []byte(tt.src)}

			chains, err := collector.Collect(context.Background(), file)
			if err != nil {
				t.Fatalf("Collect: %v", err)
			}

			if diff := cmp.Diff(tt.want, chainNames(chains)); diff != "" {
				t.Errorf("chains mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCollector_EndOffsets(t *testing.T) {
	t.Parallel()

	src := `package demo

func demo(list Seq) {
	_ = list.
		Filter().
		Sum()
}
`

	fset, file := parseFile(t, src)
	collector := &chainsight.Collector{Fset: fset, Src: []byte(src)}

	chains, err := collector.Collect(context.Background(), file)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if len(chains) != 1 || len(chains[0]) != 2 {
		t.Fatalf("got chains %v, want one chain of two links", chainNames(chains))
	}

	wantFilter := strings.Index(src, "Filter()") + len("Filter()")
	wantSum := strings.Index(src, "Sum()") + len("Sum()")

	if got := chains[0][0].EndOffset; got != wantFilter {
		t.Errorf("Filter end offset = %d, want %d", got, wantFilter)
	}

	if got := chains[0][1].EndOffset; got != wantSum {
		t.Errorf("Sum end offset = %d, want %d", got, wantSum)
	}
}

func TestCollector_Cancellation(t *testing.T) {
	t.Parallel()

	src := `package demo

func demo(list Seq) {
	_ = list.
		Filter().
		Sum()
}
`

	fset, file := parseFile(t, src)
	collector := &chainsight.Collector{Fset: fset, Src: []byte(src)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chains, err := collector.Collect(ctx, file)
	if err == nil {
		t.Fatal("Collect with cancelled context: want error, got nil")
	}

	if chains != nil {
		t.Errorf("cancelled collection produced chains: %v", chainNames(chains))
	}
}

func TestCollector_NilRoot(t *testing.T) {
	t.Parallel()

	collector := &chainsight.Collector{Fset: token.NewFileSet()}

	chains, err := collector.Collect(context.Background(), nil)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if chains != nil {
		t.Errorf("got %d chains for nil root, want none", len(chains))
	}
}

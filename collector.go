package chainsight

import (
	"bytes"
	"context"
	"go/ast"
	"go/token"
	"sort"
)

// Collector finds multi-line call chains under a syntax subtree.
//
// A chain head is a method call that is not a same-line continuation of an
// earlier call and whose next chain step starts on a new line. From a head
// the collector walks forward through the calls that use it as their
// qualifier, then keeps only the links that are themselves laid out on their
// own line.
type Collector struct {
	// Fset maps node positions to file offsets. Required.
	Fset *token.FileSet

	// Src is the content of the file containing the analyzed subtree.
	Src []byte
}

// Collect returns the chains rooted under root, or nil when root has no
// originating file. Cancellation is polled once per visited node; a
// cancelled traversal returns ctx.Err() and no chains.
func (c *Collector) Collect(ctx context.Context, root ast.Node) ([]Chain, error) {
	if root == nil {
		return nil, nil
	}

	file := c.Fset.File(root.Pos())
	if file == nil {
		return nil, nil
	}

	calls, next, err := c.index(ctx, root)
	if err != nil {
		return nil, err
	}

	// Inner calls end before the calls chained onto them, so sorting by
	// end position visits every chain head before its continuations.
	sort.Slice(calls, func(i, j int) bool { return calls[i].End() < calls[j].End() })

	visited := make(map[*ast.CallExpr]bool)

	var chains []Chain

	for _, call := range calls {
		if visited[call] {
			continue
		}

		sel := call.Fun.(*ast.SelectorExpr)

		// A call whose qualifier is a same-line call is a continuation,
		// not a head; it is reached by walking forward from its head.
		if q, ok := sel.X.(*ast.CallExpr); ok && !c.hasLineBreak(file, q.End(), sel.Sel.Pos()) {
			continue
		}

		// The next chain step, if any, must start on a new line.
		if !c.lineTerminal(file, call) {
			continue
		}

		chain := Chain{c.link(file, call)}
		visited[call] = true

		for cur := call; ; {
			nx, ok := next[cur]
			if !ok {
				break
			}

			chain = append(chain, c.link(file, nx))
			visited[nx] = true
			cur = nx
		}

		// Drop links not laid out on their own line (e.g. a trailing
		// call followed by more tokens on the same line).
		kept := chain[:0]

		for _, l := range chain {
			if c.lineTerminal(file, l.Call) {
				kept = append(kept, l)
			}
		}

		if len(kept) > 0 {
			chains = append(chains, kept)
		}
	}

	return chains, nil
}

// index traverses the subtree once, collecting every method call and the
// qualifier relation between calls.
func (c *Collector) index(ctx context.Context, root ast.Node) ([]*ast.CallExpr, map[*ast.CallExpr]*ast.CallExpr, error) {
	var (
		calls    []*ast.CallExpr
		canceled error
	)

	// next maps a call to the call chained directly onto it.
	next := make(map[*ast.CallExpr]*ast.CallExpr)

	ast.Inspect(root, func(n ast.Node) bool {
		if err := ctx.Err(); err != nil {
			canceled = err

			return false
		}

		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}

		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}

		calls = append(calls, call)

		if q, ok := sel.X.(*ast.CallExpr); ok {
			next[q] = call
		}

		return true
	})

	if canceled != nil {
		return nil, nil, canceled
	}

	return calls, next, nil
}

func (c *Collector) link(file *token.File, call *ast.CallExpr) Link {
	return Link{Call: call, EndOffset: file.Offset(call.End())}
}

// hasLineBreak reports whether the source between two positions (the
// qualifier's end and the next selector identifier) contains a newline.
func (c *Collector) hasLineBreak(file *token.File, from, to token.Pos) bool {
	lo, hi := file.Offset(from), file.Offset(to)
	if lo < 0 || hi > len(c.Src) || lo > hi {
		return false
	}

	return bytes.IndexByte(c.Src[lo:hi], '\n') >= 0
}

// lineTerminal reports whether the call hands off to a new line: the source
// run immediately after it, consisting of at most one selector dot and
// horizontal whitespace, reaches a line break before any other token.
func (c *Collector) lineTerminal(file *token.File, call *ast.CallExpr) bool {
	offset := file.Offset(call.End())
	dot := false

	for i := offset; i < len(c.Src); i++ {
		switch c.Src[i] {
		case '\n':
			return true
		case ' ', '\t', '\r':
		case '.':
			if dot {
				return false
			}

			dot = true
		default:
			return false
		}
	}

	return false
}

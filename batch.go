package chainsight

import (
	"context"
	"go/ast"
	"go/token"
)

// Options configures one hint-computation pass.
type Options struct {
	// Fset maps node positions to offsets in Src.
	Fset *token.FileSet

	// Src is the content of the analyzed file.
	Src []byte

	// Resolver is the host's type-lookup capability.
	Resolver TypeResolver

	// Rule optionally overrides the built-in acceptance gate.
	Rule *Rule

	// Enabled is the feature flag, read once per pass. When false the
	// pass yields an empty batch, which reconciliation turns into
	// removal of every previously shown hint.
	Enabled bool
}

// BuildBatch flattens accepted chains into one batch keyed by offset.
func BuildBatch(chains []Chain) HintBatch {
	batch := make(HintBatch)

	for _, chain := range chains {
		for _, l := range chain {
			batch[l.EndOffset] = HintRecord{Offset: l.EndOffset, Label: l.Type.Label}
		}
	}

	return batch
}

// ComputeHints runs the full collection pipeline for the subtree rooted at
// root: collect chains, filter them, build the batch. It is pure with
// respect to editor state and safe to run off the interactive thread; the
// context is polled at node granularity and a cancelled pass returns
// ctx.Err() with no batch, so callers must not reconcile on error.
func ComputeHints(ctx context.Context, root ast.Node, opts Options) (HintBatch, error) {
	if !opts.Enabled {
		return HintBatch{}, nil
	}

	collector := &Collector{Fset: opts.Fset, Src: opts.Src}

	chains, err := collector.Collect(ctx, root)
	if err != nil {
		return nil, err
	}

	filter := &Filter{Resolver: opts.Resolver, Rule: opts.Rule}

	var accepted []Chain

	for _, chain := range chains {
		if resolved, ok := filter.Accept(chain); ok {
			accepted = append(accepted, resolved)
		}
	}

	return BuildBatch(accepted), nil
}

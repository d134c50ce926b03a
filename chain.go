// Package chainsight computes inline type hints for multi-line method-call
// chains in Go source. It detects chains whose calls are laid out one per
// line, resolves the intermediate type produced by each step, and reconciles
// the resulting hint set against an editor's decoration store.
package chainsight

import "go/ast"

// FeatureTag identifies the owner of an overlay entry. Entries carrying a
// foreign tag are never touched by this package.
type FeatureTag string

// TagMethodChainHints marks overlay entries created by this feature.
const TagMethodChainHints FeatureTag = "chainsight.methodChainHints"

// ContextMenuID is the stable identifier hosts use to route context-menu
// actions for a chain hint.
const ContextMenuID = "MethodChainHintsContextMenu"

// Type is the resolved static type of a call expression, as reported by the
// host's type system.
type Type struct {
	// Label is the presentable name rendered in a hint.
	Label string
}

// TypeResolver resolves the static type of a call expression.
// It is the boundary to the host's type system: the chain pipeline never
// performs type inference itself.
type TypeResolver interface {
	// ResolveType returns the type produced by the call, or ok=false when
	// the type cannot be determined.
	ResolveType(call *ast.CallExpr) (t Type, ok bool)
}

// Link is one call expression within a chain.
type Link struct {
	// Call is the call expression node.
	Call *ast.CallExpr

	// EndOffset is the byte offset just past the call in the source file.
	// The hint for this link renders there.
	EndOffset int

	// Type is the resolved result type. Zero until the chain passes
	// through a Filter.
	Type Type
}

// Chain is an ordered sequence of links, outermost/first call to the
// innermost/last call in source order (the order a reader encounters them).
type Chain []Link

// HintRecord is one computed hint: a label to render at a source offset.
type HintRecord struct {
	Offset int
	Label  string
}

// HintBatch maps source offsets to hint records for one analyzed subtree.
// A batch is rebuilt from scratch every pass; offsets are unique by
// construction since each chain member ends at a distinct offset.
type HintBatch map[int]HintRecord

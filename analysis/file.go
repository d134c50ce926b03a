package analysis

import (
	"context"
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/packages"

	chainsight "github.com/hari6963/chainsight"
)

// AnalyzedFile holds one type-checked Go file.
type AnalyzedFile struct {
	// Path is the absolute file path.
	Path string

	// Fset maps positions in File to offsets in Src.
	Fset *token.FileSet

	// File is the parsed syntax tree. Nil when the file could not be
	// found in its package (see LoadErrors).
	File *ast.File

	// Src is the analyzed content.
	Src []byte

	// Info carries resolved expression types. May be nil or partial
	// when loading failed; unresolved calls suppress their chains.
	Info *types.Info

	// Pkg is the file's package, used to qualify type names relative to
	// it in hint labels.
	Pkg *types.Package

	// LoadErrors are the problems encountered while loading the package.
	LoadErrors []packages.Error
}

// FromTypedFile wraps an already type-checked file, bypassing the package
// loader. Hosts that run their own type checking (and tests) use this.
func FromTypedFile(path string, src []byte, fset *token.FileSet, file *ast.File, info *types.Info, pkg *types.Package) *AnalyzedFile {
	return &AnalyzedFile{
		Path: path,
		Fset: fset,
		File: file,
		Src:  src,
		Info: info,
		Pkg:  pkg,
	}
}

// Resolver returns the type-lookup capability for this file.
func (f *AnalyzedFile) Resolver() chainsight.TypeResolver {
	return &infoResolver{info: f.Info, qualifier: types.RelativeTo(f.Pkg)}
}

// Hints computes the chain-hint batch for the whole file.
func (f *AnalyzedFile) Hints(ctx context.Context, enabled bool, rule *chainsight.Rule) (chainsight.HintBatch, error) {
	if f.File == nil {
		return chainsight.HintBatch{}, nil
	}

	return chainsight.ComputeHints(ctx, f.File, chainsight.Options{
		Fset:     f.Fset,
		Src:      f.Src,
		Resolver: f.Resolver(),
		Rule:     rule,
		Enabled:  enabled,
	})
}

// Package analysis loads Go files with full type information and exposes
// the type-lookup capability the chain-hint pipeline consumes.
package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"go/ast"
	"go/token"
	"path/filepath"
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"
)

// cacheTTL bounds how long an analysis for one (path, content) pair is
// reused. Content hashing already invalidates on edit; the TTL guards
// against staleness from changes elsewhere in the package.
const cacheTTL = time.Minute

// Analyzer loads and type-checks single Go files via go/packages, caching
// results keyed by file path and content hash.
type Analyzer struct {
	logger *zap.Logger
	cache  *ristretto.Cache
}

// NewAnalyzer creates an analyzer. The in-memory cache is best effort: if
// it cannot be constructed, analysis still works, just uncached.
func NewAnalyzer(logger *zap.Logger) *Analyzer {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     256, // analyses, at cost 1 each
		BufferItems: 64,
	})
	if err != nil {
		logger.Warn("Failed to create analysis cache, caching disabled", zap.Error(err))

		cache = nil
	}

	return &Analyzer{logger: logger, cache: cache}
}

// Close releases the cache.
func (a *Analyzer) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
}

// Analyze loads the package containing path and returns the analyzed file.
// src is the current (possibly unsaved) content and is presented to the
// loader as an overlay. Load problems do not fail the analysis; they are
// reported in the result's LoadErrors and generally leave some or all call
// types unresolved, which downstream suppresses hints for.
func (a *Analyzer) Analyze(ctx context.Context, path string, src []byte) (*AnalyzedFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path %s: %w", path, err)
	}

	key := cacheKey(abs, src)

	if a.cache != nil {
		if cached, ok := a.cache.Get(key); ok {
			if f, ok := cached.(*AnalyzedFile); ok {
				a.logger.Debug("Analysis cache hit", zap.String("path", abs))

				return f, nil
			}
		}
	}

	fset := token.NewFileSet()

	cfg := &packages.Config{
		Context: ctx,
		Dir:     filepath.Dir(abs),
		Fset:    fset,
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
			packages.NeedImports | packages.NeedTypes | packages.NeedSyntax |
			packages.NeedTypesInfo,
		Overlay: map[string][]byte{abs: src},
		Logf: func(format string, args ...interface{}) {
			a.logger.Debug(fmt.Sprintf(format, args...))
		},
	}

	pkgs, err := packages.Load(cfg, "file="+abs)
	if err != nil {
		return nil, fmt.Errorf("load package for %s: %w", abs, err)
	}

	result := &AnalyzedFile{
		Path: abs,
		Fset: fset,
		Src:  src,
	}

	for _, pkg := range pkgs {
		result.LoadErrors = append(result.LoadErrors, pkg.Errors...)

		file := fileIn(pkg, fset, abs)
		if file == nil {
			continue
		}

		result.File = file
		result.Info = pkg.TypesInfo

		if pkg.Types != nil {
			result.Pkg = pkg.Types
		}

		break
	}

	if result.File == nil {
		a.logger.Warn("Analyzed file not found in loaded packages", zap.String("path", abs))
	}

	if a.cache != nil {
		a.cache.SetWithTTL(key, result, 1, cacheTTL)
	}

	return result, nil
}

// fileIn finds the syntax tree for abs within a loaded package.
func fileIn(pkg *packages.Package, fset *token.FileSet, abs string) *ast.File {
	for _, file := range pkg.Syntax {
		pos := fset.Position(file.Pos())
		if !pos.IsValid() {
			continue
		}

		name, err := filepath.Abs(pos.Filename)
		if err != nil {
			continue
		}

		if name == abs {
			return file
		}
	}

	return nil
}

func cacheKey(abs string, src []byte) string {
	sum := sha256.Sum256(src)

	return abs + ":" + hex.EncodeToString(sum[:])
}

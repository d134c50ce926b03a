package analysis

import (
	"go/ast"
	"go/types"

	chainsight "github.com/hari6963/chainsight"
)

// infoResolver resolves call types from go/types type-check results.
type infoResolver struct {
	info      *types.Info
	qualifier types.Qualifier
}

func (r *infoResolver) ResolveType(call *ast.CallExpr) (chainsight.Type, bool) {
	if r.info == nil {
		return chainsight.Type{}, false
	}

	tv, ok := r.info.Types[call]
	if !ok || tv.Type == nil {
		return chainsight.Type{}, false
	}

	// A call with no results has no type worth showing; it also cannot
	// qualify a further call, so treating it as unresolved only ever
	// suppresses a chain it terminates.
	if tuple, ok := tv.Type.(*types.Tuple); ok && tuple.Len() == 0 {
		return chainsight.Type{}, false
	}

	return chainsight.Type{Label: types.TypeString(tv.Type, r.qualifier)}, true
}

package chainsight

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// minDistinctQualifierTypes is the built-in acceptance gate: a chain is shown
// only when the calls before the last one produce at least this many distinct
// types. Fluent builder chains, where every step returns the builder itself,
// fall below it and stay quiet.
const minDistinctQualifierTypes = 2

// Filter decides, per chain, whether hints should be shown at all.
type Filter struct {
	// Resolver resolves the result type of each link.
	Resolver TypeResolver

	// Rule optionally replaces the built-in distinct-type gate with a
	// user-supplied expression. The unresolved-type rejection below is
	// not subject to the rule.
	Rule *Rule
}

// Accept resolves the chain's types and applies the suppression policy.
// It returns the chain with types filled in, or ok=false when no hints
// should be emitted for it.
//
// The last link is excluded from the distinctness count but still emits a
// hint: the terminal call of a builder chain commonly returns a materially
// different type, and letting it dominate the decision would unsuppress
// chains that are otherwise pure builder noise.
func (f *Filter) Accept(chain Chain) (Chain, bool) {
	if len(chain) == 0 {
		return nil, false
	}

	resolved := make(Chain, len(chain))

	for i, l := range chain {
		t, ok := f.Resolver.ResolveType(l.Call)
		if !ok {
			// An unresolved link suppresses the whole chain. This
			// is policy, not an error: a partially annotated chain
			// reads worse than none.
			return nil, false
		}

		l.Type = t
		resolved[i] = l
	}

	labels := make([]string, 0, len(resolved)-1)
	seen := make(map[string]bool)

	for _, l := range resolved[:len(resolved)-1] {
		labels = append(labels, l.Type.Label)
		seen[l.Type.Label] = true
	}

	if f.Rule != nil {
		return resolved, f.Rule.accept(len(resolved), len(seen), labels)
	}

	if len(seen) < minDistinctQualifierTypes {
		return nil, false
	}

	return resolved, true
}

// Rule is a compiled chain-acceptance expression. The expression is
// evaluated once per chain with the environment:
//
//	links    int      total number of links in the chain
//	distinct int      distinct type labels among all links except the last
//	labels   []string those labels, in chain order
//
// and must yield a boolean.
type Rule struct {
	expression string
	program    *vm.Program
}

// CompileRule compiles an acceptance expression.
func CompileRule(expression string) (*Rule, error) {
	program, err := expr.Compile(expression, expr.Env(ruleEnv(0, 0, nil)), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile rule %q: %w", expression, err)
	}

	return &Rule{expression: expression, program: program}, nil
}

// Expression returns the source text the rule was compiled from.
func (r *Rule) Expression() string {
	return r.expression
}

// accept evaluates the rule for one chain. Evaluation failures suppress the
// chain, matching the package's suppression-over-error posture.
func (r *Rule) accept(links, distinct int, labels []string) bool {
	out, err := expr.Run(r.program, ruleEnv(links, distinct, labels))
	if err != nil {
		return false
	}

	accepted, ok := out.(bool)

	return ok && accepted
}

func ruleEnv(links, distinct int, labels []string) map[string]any {
	if labels == nil {
		labels = []string{}
	}

	return map[string]any{
		"links":    links,
		"distinct": distinct,
		"labels":   labels,
	}
}

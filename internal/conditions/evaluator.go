// Package conditions evaluates a package's structured boolean condition
// tree against the request context (C7). Grounded on
// original_source/pauschalen/expression_parser.py for the shunting-yard
// compile/evaluate pair and on spec.md §4.7 for the atom semantics and
// the implicit-AND/implicit-OR fallback used when any of a package's rows
// but the last lacks the Operator the structured parse needs.
package conditions

import (
	"sync"

	"github.com/arzttarif/tarifengine/internal/catalog"
	"github.com/arzttarif/tarifengine/internal/reqctx"
)

// Outcome is one condition row's evaluated truth value, the unit C8's
// explanation renderer annotates "met"/"not met".
type Outcome struct {
	Row catalog.ConditionRow
	Met bool
}

// Evaluator holds the process-wide structure-prepared index: compiled
// RPN per package, keyed by the package definition's pointer identity
// (packages are loaded once and never mutated, so pointer identity is a
// stable proxy for condition-row identity, §5). Safe for concurrent use.
type Evaluator struct {
	structures sync.Map // *catalog.PackageDefinition -> *compiledStructure
}

// NewEvaluator returns an Evaluator with an empty structure cache.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate reports whether pkg's conditions hold against ctx, along with
// the per-row outcomes C8 needs for its explanation/rationale HTML. A
// package with no condition rows is always applicable (§8 boundary
// behaviour).
func (e *Evaluator) Evaluate(store *catalog.Store, pkg *catalog.PackageDefinition, ctx *reqctx.Context, cache *RequestCache) (bool, []Outcome) {
	rows := pkg.Conditions
	if len(rows) == 0 {
		return true, nil
	}

	outcomes := make([]Outcome, len(rows))
	atoms := make(map[string]bool, len(rows))
	for i, row := range rows {
		met := evaluateAtom(store, row, ctx, cache)
		atoms[atomID(i)] = met
		outcomes[i] = Outcome{Row: row, Met: met}
	}

	cs := e.compile(pkg)
	if cs.valid {
		return evaluateRPN(cs.rpn, atoms), outcomes
	}
	return fallbackEvaluate(rows, outcomes), outcomes
}

func (e *Evaluator) compile(pkg *catalog.PackageDefinition) *compiledStructure {
	if cached, ok := e.structures.Load(pkg); ok {
		return cached.(*compiledStructure)
	}
	cs := buildStructure(pkg.Conditions)
	actual, _ := e.structures.LoadOrStore(pkg, cs)
	return actual.(*compiledStructure)
}

// Package selector implements C8: it enumerates candidate packages for
// a rule-passing code set, runs the structural condition evaluator (C7)
// over each, ranks survivors, and builds the winner's rationale —
// per-condition met/not-met HTML, a sibling-family diff, and the
// potential-ICD hint list.
package selector

import (
	"github.com/arzttarif/tarifengine/internal/catalog"
	"github.com/arzttarif/tarifengine/internal/conditions"
	"github.com/arzttarif/tarifengine/internal/i18n"
	"github.com/arzttarif/tarifengine/internal/reqctx"
)

// Selector runs the full C8 pipeline against one process-wide condition
// evaluator and message translator.
type Selector struct {
	evaluator  *conditions.Evaluator
	translator *i18n.Translator
}

// New builds a Selector.
func New(evaluator *conditions.Evaluator, translator *i18n.Translator) *Selector {
	return &Selector{evaluator: evaluator, translator: translator}
}

// Select runs §4.8 steps 1-8. ruleCodes is the set of rule-passing
// codes (TARDOC items plus any Stage-2-mapped package equivalents).
// rankOrder is Stage-2's advisory Ranking sub-operation's priority
// order over the same candidate codes (§4.5), highest priority first;
// pass nil when ranking was skipped or returned "NONE" ("fall back to
// deterministic order"). It returns the winner (nil if none is
// applicable) and the full evaluated-candidate list, which the Error
// response path needs for its "evaluated_pauschalen" diagnostic (§6)
// when no winner exists.
func (s *Selector) Select(store *catalog.Store, ruleCodes []string, ctx *reqctx.Context, cache *conditions.RequestCache, rankOrder []string) (*Result, []EvaluatedCandidate) {
	candidateCodes := EnumerateCandidates(store, ruleCodes)
	rankIndex := rankIndexOf(rankOrder)

	var applicable []scoredCandidate
	var evaluated []EvaluatedCandidate
	for _, code := range candidateCodes {
		pkg := store.Package(code)
		if pkg == nil {
			continue
		}
		ok, outcomes := s.evaluator.Evaluate(store, pkg, ctx, cache)
		conditionHTML := renderConditionHTML(s.translator, outcomes, ctx.Language)
		evaluated = append(evaluated, EvaluatedCandidate{Code: code, Applicable: ok, ConditionHTML: conditionHTML})
		if !ok {
			continue
		}
		rank, ranked := rankIndex[code]
		if !ranked {
			rank = len(rankOrder)
		}
		applicable = append(applicable, scoredCandidate{
			code:     code,
			pkg:      pkg,
			outcomes: outcomes,
			score:    matchScore(store, pkg, ruleCodes),
			hasICD:   hasICDCondition(pkg),
			fallback: isFallback(code),
			rank:     rank,
			ranked:   ranked,
		})
	}
	if len(applicable) == 0 {
		return nil, evaluated
	}

	winner := rankApplicable(applicable, ctx.UseICD)[0]

	explanation := renderConditionHTML(s.translator, winner.outcomes, ctx.Language)
	if diff := renderSiblingDiff(store, winner.pkg); diff != "" {
		explanation += diff
	}

	return &Result{
		Package:         winner.pkg,
		Title:           titleText(winner.pkg.Title, ctx.Language),
		Taxpunkte:       winner.pkg.Taxpunkte,
		ExplanationHTML: explanation,
		PotentialICDs:   potentialICDs(store, winner.pkg, ctx.Language),
	}, evaluated
}

package selector

import (
	"sort"

	"github.com/arzttarif/tarifengine/internal/catalog"
	"github.com/arzttarif/tarifengine/internal/conditions"
)

// scoredCandidate is one structurally-applicable package carrying
// everything the §4.8 steps 4-6 tie-break needs.
type scoredCandidate struct {
	code     string
	pkg      *catalog.PackageDefinition
	outcomes []conditions.Outcome
	score    int
	hasICD   bool
	fallback bool
	rank     int  // position in Stage-2's advisory ranking, lower is more preferred
	ranked   bool // false when rankOrder was empty or omitted this code
}

// rankIndexOf turns Stage-2's priority-ordered code list into a
// code->position lookup for rankApplicable's tie-break.
func rankIndexOf(rankOrder []string) map[string]int {
	idx := make(map[string]int, len(rankOrder))
	for i, code := range rankOrder {
		idx[code] = i
	}
	return idx
}

// rankApplicable orders applicable candidates per §4.8 steps 4-6: ICD
// preference (when useICD is false), then fallback demotion, then
// descending match score. Stage-2's advisory ranking (§4.5) only ever
// breaks a tie within equal match scores — it never overrides the
// structural signal — with ascending code remaining the final
// deterministic tie-break when ranking didn't distinguish the pair.
func rankApplicable(candidates []scoredCandidate, useICD bool) []scoredCandidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !useICD && a.hasICD != b.hasICD {
			return !a.hasICD
		}
		if a.fallback != b.fallback {
			return !a.fallback
		}
		if a.score != b.score {
			return a.score > b.score
		}
		if a.ranked != b.ranked {
			return a.ranked
		}
		if a.ranked && a.rank != b.rank {
			return a.rank < b.rank
		}
		return a.code < b.code
	})
	return candidates
}

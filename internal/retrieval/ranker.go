// Package retrieval builds the bounded LLM context window handed to
// Stage-1 (C2 in the design): it scores the catalogue against free text
// by term frequency weighted by inverse document frequency, optionally
// fused with embedding similarity, and always forces in any literal code
// found in the raw text.
package retrieval

import (
	"sort"

	"github.com/arzttarif/tarifengine/internal/catalog"
	"github.com/arzttarif/tarifengine/pkg/codes"
)

// ScoredLKN is one ranked catalogue entry.
type ScoredLKN struct {
	LKN   string
	Score float64
}

// Ranker scores catalogue entries against free text. It is built once
// against a loaded Store (document frequencies are precomputed) and is
// safe for concurrent use thereafter.
type Ranker struct {
	store       *catalog.Store
	docFreq     map[string]int // token -> number of LKNs whose description contains it
	tokensByLKN map[string][]string
	vectors     *EmbeddingIndex // optional, nil disables vector fusion
	fusionWeight float64
	synonyms    *catalog.SynonymStore // optional, nil disables synonym-forced expansion
}

// NewRanker builds a Ranker over every code_details entry in store,
// precomputing per-token document frequency across all configured
// languages. vectors may be nil to disable fusion. synonyms may be nil;
// when set, its curated base-term -> LKN mappings are consulted the same
// way forcedCodes handles literal codes, so a synonym hit is forced into
// the context rather than left to TF-IDF scoring alone.
func NewRanker(store *catalog.Store, allLKNs []string, languages []string, vectors *EmbeddingIndex, fusionWeight float64, synonyms *catalog.SynonymStore) *Ranker {
	r := &Ranker{
		store:        store,
		docFreq:      map[string]int{},
		tokensByLKN:  map[string][]string{},
		vectors:      vectors,
		fusionWeight: fusionWeight,
		synonyms:     synonyms,
	}
	for _, lkn := range allLKNs {
		cd := store.CodeDetails(lkn)
		if cd == nil {
			continue
		}
		seen := map[string]bool{}
		var all []string
		for _, lang := range languages {
			for _, tok := range Keywords(cd.Description[lang]) {
				all = append(all, tok)
				seen[tok] = true
			}
		}
		r.tokensByLKN[codes.Canonical(lkn)] = all
		for tok := range seen {
			r.docFreq[tok]++
		}
	}
	return r
}

// Rank scores every catalogue entry against text and returns the top
// topN entries descending by score, with any literal code found in the
// raw text forced to the front (deduplicated, present-in-catalogue only).
// queryVector is the optional embedding of text for vector fusion; pass
// nil to skip it regardless of configured weight.
func (r *Ranker) Rank(text string, topN int, queryVector []float32) []ScoredLKN {
	queryTokens := Keywords(text)
	tf := map[string]int{}
	for _, t := range queryTokens {
		tf[t]++
	}

	scores := map[string]float64{}
	for lkn, tokens := range r.tokensByLKN {
		var score float64
		seen := map[string]int{}
		for _, t := range tokens {
			seen[t]++
		}
		for tok, count := range tf {
			docCount, ok := seen[tok]
			if !ok {
				continue
			}
			df := r.docFreq[tok]
			if df == 0 {
				continue
			}
			score += float64(count*docCount) / float64(df)
		}
		if score > 0 {
			scores[lkn] = score
		}
	}

	if r.vectors != nil && queryVector != nil && r.fusionWeight > 0 {
		for lkn, sim := range r.vectors.SimilarityAll(queryVector) {
			lkn = codes.Canonical(lkn)
			scores[lkn] = scores[lkn] + r.fusionWeight*sim
		}
	}

	ranked := make([]ScoredLKN, 0, len(scores))
	for lkn, score := range scores {
		ranked = append(ranked, ScoredLKN{LKN: lkn, Score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].LKN < ranked[j].LKN
	})

	forced := r.forcedCodes(text)
	forced = append(forced, r.synonymForcedCodes(queryTokens)...)
	ranked = mergeForced(forced, ranked)

	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// forcedCodes extracts literal LKN-shaped substrings from text that are
// present in the catalogue, per §4.2's "forces them into the context".
func (r *Ranker) forcedCodes(text string) []string {
	var out []string
	for _, lkn := range codes.ExtractLKNs(text) {
		if r.store.CodeDetails(lkn) != nil {
			out = append(out, lkn)
		}
	}
	return out
}

// synonymForcedCodes expands each query token through the curated
// synonym store (if configured) and returns the union of LKNs it maps
// to, present-in-catalogue only. Lookup errors are treated as no match:
// the synonym store is an enrichment, not a dependency TF-IDF scoring
// needs to function.
func (r *Ranker) synonymForcedCodes(queryTokens []string) []string {
	if r.synonyms == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, tok := range queryTokens {
		lkns, err := r.synonyms.ExpandTerm(tok)
		if err != nil {
			continue
		}
		for _, lkn := range lkns {
			if seen[lkn] || r.store.CodeDetails(lkn) == nil {
				continue
			}
			seen[lkn] = true
			out = append(out, lkn)
		}
	}
	return out
}

func mergeForced(forced []string, ranked []ScoredLKN) []ScoredLKN {
	if len(forced) == 0 {
		return ranked
	}
	present := map[string]bool{}
	dedupedForced := make([]string, 0, len(forced))
	for _, f := range forced {
		if present[f] {
			continue
		}
		present[f] = true
		dedupedForced = append(dedupedForced, f)
	}
	out := make([]ScoredLKN, 0, len(ranked)+len(dedupedForced))
	maxScore := 0.0
	if len(ranked) > 0 {
		maxScore = ranked[0].Score
	}
	for _, f := range dedupedForced {
		out = append(out, ScoredLKN{LKN: f, Score: maxScore + 1})
	}
	for _, sc := range ranked {
		if !present[sc.LKN] {
			out = append(out, sc)
		}
	}
	return out
}

package selector

import (
	"sort"
	"strings"

	"github.com/arzttarif/tarifengine/internal/catalog"
)

// EnumerateCandidates implements §4.8 step 1: every package referenced
// by a rule-passing code. The precomputed service-links index already
// covers both the LKN_LIST-literal case and the LKN_TABLE-membership
// case, so enumeration is a union over it. Exported so the orchestrator
// can enumerate the same candidate set ahead of calling Select, to
// offer it to Stage-2's Ranking sub-operation (§4.5).
func EnumerateCandidates(store *catalog.Store, ruleCodes []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, code := range ruleCodes {
		for _, pkg := range store.ServiceLinks(code) {
			if !seen[pkg] {
				seen[pkg] = true
				out = append(out, pkg)
			}
		}
	}
	sort.Strings(out)
	return out
}

// matchScore implements §4.8 step 3: the count of distinct rule-passing
// codes that appear directly in pkg's LKN_LIST/LKN_TABLE atoms. A higher
// count means a more specific match.
func matchScore(store *catalog.Store, pkg *catalog.PackageDefinition, ruleCodes []string) int {
	matched := map[string]bool{}
	for _, row := range pkg.Conditions {
		switch row.Type {
		case catalog.AtomLKNList:
			for _, v := range row.Values {
				for _, code := range ruleCodes {
					if strings.EqualFold(v, code) {
						matched[strings.ToUpper(code)] = true
					}
				}
			}
		case catalog.AtomLKNTable:
			for _, tableName := range row.Values {
				for _, entry := range store.TableEntriesAnyType(tableName) {
					for _, code := range ruleCodes {
						if strings.EqualFold(entry.Code, code) {
							matched[strings.ToUpper(code)] = true
						}
					}
				}
			}
		}
	}
	return len(matched)
}

// hasICDCondition reports whether pkg carries any ICD-typed condition
// row (§4.8 step 4, "ICD preference").
func hasICDCondition(pkg *catalog.PackageDefinition) bool {
	for _, row := range pkg.Conditions {
		if row.Type == catalog.AtomICD || row.Type == catalog.AtomICDTable {
			return true
		}
	}
	return false
}

// isFallback reports whether code names a fallback package (§4.8 step
// 5: codes beginning with "C9").
func isFallback(code string) bool {
	return strings.HasPrefix(strings.ToUpper(code), "C9")
}

package orchestrator

import (
	"sort"
	"strings"

	"github.com/arzttarif/tarifengine/internal/catalog"
)

// hasPackagePotential reports whether any of codes is a package
// component (P/PZ) or is referenced by at least one package's
// conditions, the §4.10 step 5 check that decides whether package
// evaluation is even worth attempting.
func hasPackagePotential(store *catalog.Store, codes []string) bool {
	for _, code := range codes {
		if details := store.CodeDetails(code); details != nil && details.Type.IsPackageComponent() {
			return true
		}
		if len(store.ServiceLinks(code)) > 0 {
			return true
		}
	}
	return false
}

// candidatePackageLKNUniverse collects every LKN referenced, directly
// or via table membership, by the LKN_LIST/LKN_TABLE conditions of
// every package service-linked from codes. This is the "candidate set"
// Stage-2 mapping (§4.5) narrows and asks the model to pick equivalents
// from.
func candidatePackageLKNUniverse(store *catalog.Store, codes []string) []string {
	pkgSeen := map[string]bool{}
	var packages []string
	for _, code := range codes {
		for _, pkgCode := range store.ServiceLinks(code) {
			if !pkgSeen[pkgCode] {
				pkgSeen[pkgCode] = true
				packages = append(packages, pkgCode)
			}
		}
	}

	lknSeen := map[string]bool{}
	var universe []string
	add := func(lkn string) {
		lkn = strings.ToUpper(lkn)
		if !lknSeen[lkn] {
			lknSeen[lkn] = true
			universe = append(universe, lkn)
		}
	}
	for _, pkgCode := range packages {
		pkg := store.Package(pkgCode)
		if pkg == nil {
			continue
		}
		for _, row := range pkg.Conditions {
			switch row.Type {
			case catalog.AtomLKNList:
				for _, v := range row.Values {
					add(v)
				}
			case catalog.AtomLKNTable:
				for _, tableName := range row.Values {
					for _, entry := range store.TableEntriesAnyType(tableName) {
						add(entry.Code)
					}
				}
			}
		}
	}
	sort.Strings(universe)
	return universe
}

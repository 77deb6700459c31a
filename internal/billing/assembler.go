// Package billing implements C9: it filters C6's per-item rule results
// down to the billable TARDOC set and assembles the final line-item
// list, or reports that nothing survived.
package billing

import (
	"github.com/arzttarif/tarifengine/internal/catalog"
	"github.com/arzttarif/tarifengine/internal/i18n"
	"github.com/arzttarif/tarifengine/internal/rules"
)

// Item is one billable TARDOC line (§6 "leistungen:[{lkn, menge, typ,
// beschreibung}]").
type Item struct {
	LKN          string
	Menge        int
	Typ          catalog.ServiceType
	Beschreibung string
}

// Result is C9's output: either a non-empty billable item list, or an
// error message when nothing survives the filter (§4.9).
type Result struct {
	Billable     bool
	Items        []Item
	ErrorMessage string
}

// Assemble filters results to items where billable ∧ final_menge>0 ∧
// typ∈{E,EZ} (§4.9). An empty survivor set reports
// KeyNoBillableTARDOC, localised via translator.
func Assemble(store *catalog.Store, translator *i18n.Translator, lang string, results []rules.ItemResult) Result {
	var items []Item
	for _, r := range results {
		if !r.Billable || r.FinalMenge <= 0 {
			continue
		}
		details := store.CodeDetails(r.LKN)
		if details == nil || !details.Type.IsBillable() {
			continue
		}
		items = append(items, Item{
			LKN:          r.LKN,
			Menge:        r.FinalMenge,
			Typ:          details.Type,
			Beschreibung: details.Text(lang),
		})
	}
	if len(items) == 0 {
		return Result{ErrorMessage: translator.Render(lang, i18n.KeyNoBillableTARDOC, nil)}
	}
	return Result{Billable: true, Items: items}
}

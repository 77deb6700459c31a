package selector

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/arzttarif/tarifengine/internal/catalog"
	"github.com/arzttarif/tarifengine/internal/conditions"
	"github.com/arzttarif/tarifengine/internal/i18n"
)

// baseFamilyRe captures a package code's base family: everything before
// the trailing tier letter (§6 "base family captured by group
// ^[A-Z0-9.]+").
var baseFamilyRe = regexp.MustCompile(`^([A-Z0-9.]+)[A-Z]$`)

func baseFamily(code string) string {
	if m := baseFamilyRe.FindStringSubmatch(strings.ToUpper(code)); m != nil {
		return m[1]
	}
	return strings.ToUpper(code)
}

// renderConditionHTML builds the per-condition <li> list annotated
// "met"/"not met", localised via translator (§4.8 step 7).
func renderConditionHTML(translator *i18n.Translator, outcomes []conditions.Outcome, lang string) string {
	var b strings.Builder
	b.WriteString("<ul>")
	for _, o := range outcomes {
		key := i18n.KeyConditionNotMet
		if o.Met {
			key = i18n.KeyConditionMet
		}
		status := translator.Render(lang, key, nil)
		fmt.Fprintf(&b, "<li>%s: %s</li>", html.EscapeString(conditionLabel(o.Row)), html.EscapeString(status))
	}
	b.WriteString("</ul>")
	return b.String()
}

func conditionLabel(row catalog.ConditionRow) string {
	if len(row.Values) > 0 {
		return fmt.Sprintf("%s %s", row.Type, strings.Join(row.Values, ", "))
	}
	return string(row.Type)
}

// conditionTuple is the simplified per-row representation §4.8 step 7's
// sibling diff compares by: atom type plus sorted values, ignoring the
// group/operator bookkeeping that doesn't change what a reader would
// call "the same condition".
type conditionTuple struct {
	typ    catalog.AtomType
	values string
}

func tuplesOf(rows []catalog.ConditionRow) map[conditionTuple]bool {
	out := map[conditionTuple]bool{}
	for _, row := range rows {
		values := append([]string(nil), row.Values...)
		sort.Strings(values)
		out[conditionTuple{typ: row.Type, values: strings.Join(values, ",")}] = true
	}
	return out
}

// renderSiblingDiff implements §4.8 step 7's sibling comparison: for
// every other package sharing the winner's base code family, list how
// many conditions the winner has that the sibling lacks ("added") and
// vice versa ("missing").
func renderSiblingDiff(store *catalog.Store, winner *catalog.PackageDefinition) string {
	family := baseFamily(winner.Code)
	winnerTuples := tuplesOf(winner.Conditions)

	var siblings []string
	for _, code := range store.AllPackages() {
		if code == winner.Code || baseFamily(code) != family {
			continue
		}
		siblings = append(siblings, code)
	}
	if len(siblings) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("<ul>")
	for _, code := range siblings {
		sibling := store.Package(code)
		siblingTuples := tuplesOf(sibling.Conditions)
		added, missing := 0, 0
		for t := range winnerTuples {
			if !siblingTuples[t] {
				added++
			}
		}
		for t := range siblingTuples {
			if !winnerTuples[t] {
				missing++
			}
		}
		fmt.Fprintf(&b, "<li>%s: +%d/-%d</li>", html.EscapeString(code), added, missing)
	}
	b.WriteString("</ul>")
	return b.String()
}

// potentialICDs implements §4.8 step 8: every ICD referenced by the
// winner's ICD_TABLE conditions, deduplicated and sorted.
func potentialICDs(store *catalog.Store, winner *catalog.PackageDefinition, lang string) []ICDHint {
	seen := map[string]bool{}
	var out []ICDHint
	for _, row := range winner.Conditions {
		if row.Type != catalog.AtomICDTable {
			continue
		}
		for _, tableName := range row.Values {
			for _, entry := range store.TableEntries(tableName, catalog.TableICD, lang) {
				code := strings.ToUpper(entry.Code)
				if seen[code] {
					continue
				}
				seen[code] = true
				out = append(out, ICDHint{Code: code, Text: entry.CodeText[lang]})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

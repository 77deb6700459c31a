// Package rules implements the per-code rule engine (C6): quantity caps,
// prerequisite/cumulation filters, patient/diagnosis/package-exclusion
// checks. Grounded on original_source/regelpruefer.py's
// pruefe_abrechnungsfaehigkeit dispatch-by-Typ loop, reimplemented as a
// typed switch over catalog.RuleKind instead of Python's dict-of-strings.
package rules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/arzttarif/tarifengine/internal/catalog"
	"github.com/arzttarif/tarifengine/internal/i18n"
	"github.com/arzttarif/tarifengine/internal/reqctx"
)

// Fact is one identified item's fact record, the unit the engine checks
// against (§4.6 "construct a fact record").
type Fact struct {
	LKN     string
	Menge   int
	Ctx     *reqctx.Context
	store   *catalog.Store // for companion-type lookups
}

// NewFact builds a Fact for lkn/menge against the shared request context.
// Companion LKNs/types are derived from ctx.ServiceCodes minus lkn itself.
func NewFact(store *catalog.Store, lkn string, menge int, ctx *reqctx.Context) Fact {
	return Fact{LKN: lkn, Menge: menge, Ctx: ctx, store: store}
}

func (f Fact) companions() []string {
	out := make([]string, 0, len(f.Ctx.ServiceCodes))
	for _, c := range f.Ctx.ServiceCodes {
		if !strings.EqualFold(c, f.LKN) {
			out = append(out, c)
		}
	}
	return out
}

func (f Fact) companionType(lkn string) (catalog.ServiceType, bool) {
	cd := f.store.CodeDetails(lkn)
	if cd == nil {
		return "", false
	}
	return cd.Type, true
}

// Violation is one rule-check failure, tagged with the rule kind that
// produced it so the engine's quantity-reduction shortcut (§7) can tell
// whether a Quantity violation was the *only* one.
type Violation struct {
	Kind    catalog.RuleKind
	Message string
}

// ItemResult is the per-item outcome of Check (§4.6 "Result per item").
type ItemResult struct {
	LKN             string
	Billable        bool
	FinalMenge      int
	QuantityReduced bool
	Errors          []string
}

// Engine applies the rule book to fact records.
type Engine struct {
	translator         *i18n.Translator
	kumulationExplizit bool // §9 config flag: makes Cumulable/PossibleAddition lists restrictive
	strictUnknownRules bool // open question (a): strict -> unknown rule kinds are violations
}

// New builds an Engine. kumulationExplizit and strictUnknownRules mirror
// config.ini's KUMULATION_EXPLIZIT / STRICT_UNKNOWN_RULES flags.
func New(translator *i18n.Translator, kumulationExplizit, strictUnknownRules bool) *Engine {
	return &Engine{translator: translator, kumulationExplizit: kumulationExplizit, strictUnknownRules: strictUnknownRules}
}

// Check applies every rule for fact.LKN and returns the outcome,
// including the sole quantity-reduction recovery path: when a Quantity
// violation is the only one, FinalMenge is reduced to the cap and
// QuantityReduced is set instead of rejecting the item (§7).
func (e *Engine) Check(store *catalog.Store, fact Fact, lang string) (result ItemResult) {
	result = ItemResult{LKN: fact.LKN, FinalMenge: fact.Menge, Billable: true}
	ruleList := store.Rules(fact.LKN)
	if len(ruleList) == 0 {
		return result
	}

	var violations []Violation
	var quantityCap int
	hasQuantityCap := false

	for _, rule := range ruleList {
		v := e.checkOne(store, fact, rule, lang)
		if v == nil {
			continue
		}
		violations = append(violations, *v)
		if rule.Kind == catalog.RuleQuantity {
			quantityCap = rule.MaxMenge
			hasQuantityCap = true
		}
	}

	if len(violations) == 0 {
		return result
	}

	if hasQuantityCap && onlyQuantityViolations(violations) {
		result.FinalMenge = quantityCap
		result.QuantityReduced = true
		result.Billable = true
		return result
	}

	result.Billable = false
	for _, v := range violations {
		result.Errors = append(result.Errors, v.Message)
	}
	return result
}

func onlyQuantityViolations(violations []Violation) bool {
	for _, v := range violations {
		if v.Kind != catalog.RuleQuantity {
			return false
		}
	}
	return true
}

// checkOne dispatches one rule and returns a Violation if it fails, nil
// if satisfied. A panic inside a handler is recovered and surfaced as an
// InternalRuleError violation (§7 taxonomy item 7) rather than crashing
// the request.
func (e *Engine) checkOne(store *catalog.Store, fact Fact, rule catalog.Rule, lang string) (v *Violation) {
	defer func() {
		if r := recover(); r != nil {
			v = &Violation{
				Kind:    rule.Kind,
				Message: e.translator.Render(lang, i18n.KeyInternalRuleError, map[string]string{"error": fmt.Sprintf("%v", r)}),
			}
		}
	}()

	switch rule.Kind {
	case catalog.RuleQuantity:
		return e.checkQuantity(fact, rule, lang)
	case catalog.RuleOnlyAsSupplement:
		return e.checkOnlyAsSupplement(fact, rule, lang)
	case catalog.RuleNotCumulable:
		return e.checkNotCumulable(fact, rule, lang)
	case catalog.RuleOnlyCumulable:
		return e.checkCumulableList(fact, rule, lang, true)
	case catalog.RuleCumulable, catalog.RulePossibleAddition:
		if !e.kumulationExplizit {
			return nil // advisory only, per §3/§9
		}
		return e.checkCumulableList(fact, rule, lang, true)
	case catalog.RulePatient:
		return e.checkPatient(fact, rule, lang)
	case catalog.RuleDiagnosis:
		return e.checkDiagnosis(fact, rule, lang)
	case catalog.RulePackageExclusion:
		return e.checkPackageExclusion(fact, rule, lang)
	default:
		if e.strictUnknownRules {
			return &Violation{Kind: rule.Kind, Message: e.translator.Render(lang, i18n.KeyUnknownRuleType, map[string]string{"type": string(rule.Kind)})}
		}
		return nil // lenient: forward-compatibility, treated as satisfied
	}
}

func (e *Engine) checkQuantity(fact Fact, rule catalog.Rule, lang string) *Violation {
	if fact.Menge <= rule.MaxMenge {
		return nil
	}
	return &Violation{
		Kind: catalog.RuleQuantity,
		Message: e.translator.Render(lang, i18n.KeyQuantityExceeded, map[string]string{
			"max": strconv.Itoa(rule.MaxMenge), "requested": strconv.Itoa(fact.Menge),
		}),
	}
}

func (e *Engine) checkOnlyAsSupplement(fact Fact, rule catalog.Rule, lang string) *Violation {
	for _, companion := range fact.companions() {
		if containsFold(rule.Codes, companion) {
			return nil
		}
	}
	return &Violation{
		Kind:    catalog.RuleOnlyAsSupplement,
		Message: e.translator.Render(lang, i18n.KeySupplementMissing, map[string]string{"codes": strings.Join(rule.Codes, ", ")}),
	}
}

func (e *Engine) checkNotCumulable(fact Fact, rule catalog.Rule, lang string) *Violation {
	var conflicts []string
	for _, companion := range fact.companions() {
		if !containsFold(rule.Codes, companion) {
			continue
		}
		if len(rule.TypeFilter) == 0 {
			conflicts = append(conflicts, companion)
			continue
		}
		typ, ok := fact.companionType(companion)
		if ok && typeInFilter(typ, rule.TypeFilter) {
			conflicts = append(conflicts, companion)
		}
	}
	if len(conflicts) == 0 {
		return nil
	}
	sort.Strings(conflicts)
	return &Violation{
		Kind:    catalog.RuleNotCumulable,
		Message: e.translator.Render(lang, i18n.KeyNotCumulable, map[string]string{"codes": strings.Join(conflicts, ", ")}),
	}
}

// checkCumulableList implements Only-cumulable (and, when restrictive,
// Cumulable/Possible-additions): every companion must match at least one
// entry (literal code, "Kapitel <prefix>", or "Leistungsgruppe <id>").
func (e *Engine) checkCumulableList(fact Fact, rule catalog.Rule, lang string, restrictive bool) *Violation {
	if !restrictive {
		return nil
	}
	var unmatched []string
	for _, companion := range fact.companions() {
		if !matchesAnyEntry(companion, rule.Entries, fact.store) {
			unmatched = append(unmatched, companion)
		}
	}
	if len(unmatched) == 0 {
		return nil
	}
	sort.Strings(unmatched)
	return &Violation{
		Kind:    rule.Kind,
		Message: e.translator.Render(lang, i18n.KeyOnlyCumulableViolation, map[string]string{"codes": strings.Join(unmatched, ", ")}),
	}
}

func matchesAnyEntry(companion string, entries []catalog.CumulableEntry, store *catalog.Store) bool {
	for _, entry := range entries {
		switch entry.Kind {
		case catalog.EntryLiteral:
			if strings.EqualFold(companion, entry.Value) {
				return true
			}
		case catalog.EntryKapitel:
			if strings.HasPrefix(strings.ToUpper(companion), strings.ToUpper(entry.Value)) {
				return true
			}
		case catalog.EntryLeistungsgruppe:
			if containsFold(store.LeistungsgruppeMembers(entry.Value), companion) {
				return true
			}
		}
	}
	return false
}

func (e *Engine) checkPatient(fact Fact, rule catalog.Rule, lang string) *Violation {
	switch rule.Field {
	case catalog.FieldAlter:
		return e.checkPatientAge(fact, rule, lang)
	case catalog.FieldGeschlecht:
		return e.checkPatientGender(fact, rule, lang)
	case catalog.FieldMedikamente:
		return e.checkPatientMedication(fact, rule, lang)
	default:
		return &Violation{
			Kind:    catalog.RulePatient,
			Message: e.translator.Render(lang, i18n.KeyPatientContextMissing, map[string]string{"field": string(rule.Field)}),
		}
	}
}

func (e *Engine) checkPatientAge(fact Fact, rule catalog.Rule, lang string) *Violation {
	if !fact.Ctx.HasAge {
		return &Violation{
			Kind:    catalog.RulePatient,
			Message: e.translator.Render(lang, i18n.KeyPatientContextMissing, map[string]string{"field": "Alter"}),
		}
	}
	age := fact.Ctx.Age
	ok, constraint := evaluateAgeComparator(age, rule)
	if ok {
		return nil
	}
	return &Violation{
		Kind: catalog.RulePatient,
		Message: e.translator.Render(lang, i18n.KeyPatientAgeViolation, map[string]string{
			"constraint": constraint, "actual": strconv.Itoa(age),
		}),
	}
}

func evaluateAgeComparator(age int, rule catalog.Rule) (ok bool, constraintDesc string) {
	switch rule.Comparator {
	case catalog.CmpRange:
		return age >= rule.Min && age <= rule.Max, fmt.Sprintf("min. %d, max. %d", rule.Min, rule.Max)
	case catalog.CmpEQ:
		v, _ := strconv.Atoi(rule.Value)
		return age == v, fmt.Sprintf("exakt %d", v)
	case catalog.CmpLT:
		v, _ := strconv.Atoi(rule.Value)
		return age < v, fmt.Sprintf("< %d", v)
	case catalog.CmpLTE:
		v, _ := strconv.Atoi(rule.Value)
		return age <= v, fmt.Sprintf("<= %d", v)
	case catalog.CmpGT:
		v, _ := strconv.Atoi(rule.Value)
		return age > v, fmt.Sprintf("> %d", v)
	case catalog.CmpGTE:
		v, _ := strconv.Atoi(rule.Value)
		return age >= v, fmt.Sprintf(">= %d", v)
	default:
		return true, ""
	}
}

func (e *Engine) checkPatientGender(fact Fact, rule catalog.Rule, lang string) *Violation {
	if fact.Ctx.Gender == "" {
		return &Violation{
			Kind:    catalog.RulePatient,
			Message: e.translator.Render(lang, i18n.KeyPatientContextMissing, map[string]string{"field": "Geschlecht"}),
		}
	}
	if strings.EqualFold(fact.Ctx.Gender, rule.Value) {
		return nil
	}
	return &Violation{
		Kind: catalog.RulePatient,
		Message: e.translator.Render(lang, i18n.KeyPatientGenderViolation, map[string]string{
			"expected": rule.Value, "actual": fact.Ctx.Gender,
		}),
	}
}

func (e *Engine) checkPatientMedication(fact Fact, rule catalog.Rule, lang string) *Violation {
	for _, required := range rule.Codes {
		if fact.Ctx.HasMedication(required) {
			return nil
		}
	}
	return &Violation{
		Kind:    catalog.RulePatient,
		Message: e.translator.Render(lang, i18n.KeyPatientMedicationViolation, map[string]string{"codes": strings.Join(rule.Codes, ", ")}),
	}
}

func (e *Engine) checkDiagnosis(fact Fact, rule catalog.Rule, lang string) *Violation {
	for _, required := range rule.Codes {
		if fact.Ctx.HasICD(required) {
			return nil
		}
	}
	return &Violation{
		Kind:    catalog.RuleDiagnosis,
		Message: e.translator.Render(lang, i18n.KeyDiagnosisMissing, map[string]string{"codes": strings.Join(rule.Codes, ", ")}),
	}
}

func (e *Engine) checkPackageExclusion(fact Fact, rule catalog.Rule, lang string) *Violation {
	var active []string
	for _, forbidden := range rule.Codes {
		if fact.Ctx.HasActivePackage(forbidden) {
			active = append(active, forbidden)
		}
	}
	if len(active) == 0 {
		return nil
	}
	sort.Strings(active)
	return &Violation{
		Kind:    catalog.RulePackageExclusion,
		Message: e.translator.Render(lang, i18n.KeyPackageExclusion, map[string]string{"codes": strings.Join(active, ", ")}),
	}
}

func typeInFilter(typ catalog.ServiceType, filter []catalog.ServiceType) bool {
	for _, t := range filter {
		if t == typ {
			return true
		}
	}
	return false
}

func containsFold(list []string, v string) bool {
	for _, x := range list {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}

package rules

import (
	"testing"

	"github.com/arzttarif/tarifengine/internal/catalog"
	"github.com/arzttarif/tarifengine/internal/i18n"
	"github.com/arzttarif/tarifengine/internal/reqctx"
)

func newTestStore(rules map[string][]catalog.Rule) *catalog.Store {
	codeDetails := map[string]*catalog.CodeDetails{
		"AA.00.0010": {LKN: "AA.00.0010", Type: catalog.TypeE},
		"AA.00.0020": {LKN: "AA.00.0020", Type: catalog.TypeEZ},
		"CG.15.0010": {LKN: "CG.15.0010", Type: catalog.TypeE},
	}
	return catalog.NewStore(codeDetails, rules, nil, map[string]*catalog.PackageDefinition{}, map[string][]string{})
}

func TestCheckNoRulesIsBillable(t *testing.T) {
	store := newTestStore(nil)
	e := New(i18n.New(), false, false)
	ctx := &reqctx.Context{ServiceCodes: []string{"AA.00.0010"}}
	result := e.Check(store, NewFact(store, "AA.00.0010", 1, ctx), "de")
	if !result.Billable || result.FinalMenge != 1 {
		t.Fatalf("expected billable with unchanged quantity, got %+v", result)
	}
}

func TestQuantityAtCapIsBillable(t *testing.T) {
	store := newTestStore(map[string][]catalog.Rule{
		"AA.00.0010": {{Kind: catalog.RuleQuantity, MaxMenge: 3}},
	})
	e := New(i18n.New(), false, false)
	ctx := &reqctx.Context{ServiceCodes: []string{"AA.00.0010"}}
	result := e.Check(store, NewFact(store, "AA.00.0010", 3, ctx), "de")
	if !result.Billable || result.QuantityReduced {
		t.Fatalf("expected billable at cap, no reduction, got %+v", result)
	}
}

func TestQuantityOverCapReducesWhenSoleViolation(t *testing.T) {
	store := newTestStore(map[string][]catalog.Rule{
		"AA.00.0010": {{Kind: catalog.RuleQuantity, MaxMenge: 3}},
	})
	e := New(i18n.New(), false, false)
	ctx := &reqctx.Context{ServiceCodes: []string{"AA.00.0010"}}
	result := e.Check(store, NewFact(store, "AA.00.0010", 4, ctx), "de")
	if !result.Billable || !result.QuantityReduced || result.FinalMenge != 3 {
		t.Fatalf("expected reduction to cap, got %+v", result)
	}
}

func TestQuantityViolationCombinedWithOtherIsNotReduced(t *testing.T) {
	store := newTestStore(map[string][]catalog.Rule{
		"AA.00.0010": {
			{Kind: catalog.RuleQuantity, MaxMenge: 3},
			{Kind: catalog.RuleDiagnosis, Codes: []string{"Z00"}},
		},
	})
	e := New(i18n.New(), false, false)
	ctx := &reqctx.Context{ServiceCodes: []string{"AA.00.0010"}, ICDCodes: nil}
	result := e.Check(store, NewFact(store, "AA.00.0010", 4, ctx), "de")
	if result.Billable {
		t.Fatalf("expected not-billable with two distinct violations, got %+v", result)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected two errors, got %v", result.Errors)
	}
}

func TestNotCumulableWithTypeFilter(t *testing.T) {
	store := newTestStore(map[string][]catalog.Rule{
		"AA.00.0010": {{Kind: catalog.RuleNotCumulable, Codes: []string{"CG.15.0010"}, TypeFilter: []catalog.ServiceType{catalog.TypeE}}},
	})
	e := New(i18n.New(), false, false)
	ctx := &reqctx.Context{ServiceCodes: []string{"AA.00.0010", "CG.15.0010"}}
	result := e.Check(store, NewFact(store, "AA.00.0010", 1, ctx), "de")
	if result.Billable {
		t.Fatal("expected violation: CG.15.0010 is type E and in the filter")
	}
}

func TestOnlyAsSupplementRequiresBase(t *testing.T) {
	store := newTestStore(map[string][]catalog.Rule{
		"AA.00.0020": {{Kind: catalog.RuleOnlyAsSupplement, Codes: []string{"AA.00.0010"}}},
	})
	e := New(i18n.New(), false, false)
	ctx := &reqctx.Context{ServiceCodes: []string{"AA.00.0020"}}
	result := e.Check(store, NewFact(store, "AA.00.0020", 1, ctx), "de")
	if result.Billable {
		t.Fatal("expected violation: base code AA.00.0010 is missing")
	}
	ctx2 := &reqctx.Context{ServiceCodes: []string{"AA.00.0020", "AA.00.0010"}}
	result2 := e.Check(store, NewFact(store, "AA.00.0020", 1, ctx2), "de")
	if !result2.Billable {
		t.Fatal("expected billable once base code present")
	}
}

func TestPatientAgeMissingContext(t *testing.T) {
	store := newTestStore(map[string][]catalog.Rule{
		"AA.00.0010": {{Kind: catalog.RulePatient, Field: catalog.FieldAlter, Comparator: catalog.CmpLT, Value: "18"}},
	})
	e := New(i18n.New(), false, false)
	ctx := &reqctx.Context{ServiceCodes: []string{"AA.00.0010"}}
	result := e.Check(store, NewFact(store, "AA.00.0010", 1, ctx), "de")
	if result.Billable {
		t.Fatal("expected violation: age context missing")
	}
}

func TestCumulableAdvisoryUnlessExplicit(t *testing.T) {
	store := newTestStore(map[string][]catalog.Rule{
		"AA.00.0010": {{Kind: catalog.RuleCumulable, Entries: []catalog.CumulableEntry{{Kind: catalog.EntryLiteral, Value: "CG.15.0010"}}}},
	})
	advisory := New(i18n.New(), false, false)
	ctx := &reqctx.Context{ServiceCodes: []string{"AA.00.0010", "AA.00.0020"}}
	result := advisory.Check(store, NewFact(store, "AA.00.0010", 1, ctx), "de")
	if !result.Billable {
		t.Fatal("expected Cumulable to be advisory-only by default")
	}

	restrictive := New(i18n.New(), true, false)
	result2 := restrictive.Check(store, NewFact(store, "AA.00.0010", 1, ctx), "de")
	if result2.Billable {
		t.Fatal("expected Cumulable to become restrictive under kumulation_explizit")
	}
}

func TestUnknownRuleKindLenientByDefault(t *testing.T) {
	store := newTestStore(map[string][]catalog.Rule{
		"AA.00.0010": {{Kind: catalog.RuleKind("future_rule")}},
	})
	e := New(i18n.New(), false, false)
	ctx := &reqctx.Context{ServiceCodes: []string{"AA.00.0010"}}
	result := e.Check(store, NewFact(store, "AA.00.0010", 1, ctx), "de")
	if !result.Billable {
		t.Fatal("expected unknown rule kind to be treated as satisfied in lenient mode")
	}

	strict := New(i18n.New(), false, true)
	result2 := strict.Check(store, NewFact(store, "AA.00.0010", 1, ctx), "de")
	if result2.Billable {
		t.Fatal("expected unknown rule kind to be a violation in strict mode")
	}
}

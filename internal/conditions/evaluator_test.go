package conditions

import (
	"testing"

	"github.com/arzttarif/tarifengine/internal/catalog"
	"github.com/arzttarif/tarifengine/internal/reqctx"
)

func pkgWith(rows []catalog.ConditionRow) *catalog.PackageDefinition {
	return &catalog.PackageDefinition{Code: "C08.50E", Conditions: rows}
}

func TestEvaluateNoConditionsIsApplicable(t *testing.T) {
	ev := NewEvaluator()
	ok, outcomes := ev.Evaluate(nil, pkgWith(nil), &reqctx.Context{}, NewRequestCache())
	if !ok || outcomes != nil {
		t.Fatalf("expected applicable with no outcomes, got ok=%v outcomes=%v", ok, outcomes)
	}
}

func TestEvaluateStructuredAndGroup(t *testing.T) {
	rows := []catalog.ConditionRow{
		{Group: 1, Type: catalog.AtomLKNList, Values: []string{"WA.10.0010"}, Operator: catalog.OpAND},
		{Group: 1, Type: catalog.AtomICD, Values: []string{"M19.9"}},
	}
	ev := NewEvaluator()
	ctx := &reqctx.Context{ServiceCodes: []string{"WA.10.0010"}, ICDCodes: []string{"M19.9"}, UseICD: true}
	ok, outcomes := ev.Evaluate(nil, pkgWith(rows), ctx, NewRequestCache())
	if !ok {
		t.Fatal("expected both AND'd atoms true to be applicable")
	}
	if len(outcomes) != 2 || !outcomes[0].Met || !outcomes[1].Met {
		t.Fatalf("expected both outcomes met, got %+v", outcomes)
	}
}

func TestEvaluateOrAcrossGroups(t *testing.T) {
	rows := []catalog.ConditionRow{
		{Group: 1, Type: catalog.AtomLKNList, Values: []string{"XX.99.9999"}, Operator: catalog.OpOR},
		{Group: 2, Type: catalog.AtomICD, Values: []string{"M19.9"}},
	}
	ev := NewEvaluator()
	ctx := &reqctx.Context{ServiceCodes: nil, ICDCodes: []string{"M19.9"}, UseICD: true}
	ok, _ := ev.Evaluate(nil, pkgWith(rows), ctx, NewRequestCache())
	if !ok {
		t.Fatal("expected OR across groups to be applicable when the second group's atom is true")
	}
}

func TestEvaluateICDIgnoredWhenUseICDFalse(t *testing.T) {
	rows := []catalog.ConditionRow{
		{Group: 1, Type: catalog.AtomICD, Values: []string{"M19.9"}},
	}
	ev := NewEvaluator()
	ctx := &reqctx.Context{UseICD: false}
	ok, outcomes := ev.Evaluate(nil, pkgWith(rows), ctx, NewRequestCache())
	if !ok || !outcomes[0].Met {
		t.Fatal("expected ICD atom to be vacuously true when use_icd_flag is false")
	}
}

func TestEvaluateFallbackWhenOperatorsMissing(t *testing.T) {
	rows := []catalog.ConditionRow{
		{Group: 1, Type: catalog.AtomLKNList, Values: []string{"WA.10.0010"}},
		{Group: 1, Type: catalog.AtomICD, Values: []string{"M19.9"}},
		{Group: 2, Type: catalog.AtomLKNList, Values: []string{"ZZ.99.9999"}},
	}
	ev := NewEvaluator()
	ctx := &reqctx.Context{ServiceCodes: []string{"WA.10.0010"}, ICDCodes: []string{"M19.9"}, UseICD: true}
	ok, _ := ev.Evaluate(nil, pkgWith(rows), ctx, NewRequestCache())
	if !ok {
		t.Fatal("expected fallback semantics: group 1 fully true should make the package applicable")
	}
}

func TestEvaluateAndNotOperator(t *testing.T) {
	rows := []catalog.ConditionRow{
		{Group: 1, Type: catalog.AtomLKNList, Values: []string{"WA.10.0010"}, Operator: catalog.OpANDNOT},
		{Group: 1, Type: catalog.AtomICD, Values: []string{"M19.9"}},
	}
	ev := NewEvaluator()
	ctx := &reqctx.Context{ServiceCodes: []string{"WA.10.0010"}, ICDCodes: []string{"M19.9"}, UseICD: true}
	ok, _ := ev.Evaluate(nil, pkgWith(rows), ctx, NewRequestCache())
	if ok {
		t.Fatal("expected AND NOT to reject when the negated atom is true")
	}
}

func TestStructureIsCachedByPackageIdentity(t *testing.T) {
	pkg := pkgWith([]catalog.ConditionRow{
		{Group: 1, Type: catalog.AtomLKNList, Values: []string{"WA.10.0010"}},
	})
	ev := NewEvaluator()
	ctx := &reqctx.Context{ServiceCodes: []string{"WA.10.0010"}}
	cache := NewRequestCache()
	ok1, _ := ev.Evaluate(nil, pkg, ctx, cache)
	ok2, _ := ev.Evaluate(nil, pkg, ctx, cache)
	if ok1 != ok2 {
		t.Fatal("expected deterministic result across repeated evaluations of the same package")
	}
	if _, cached := ev.structures.Load(pkg); !cached {
		t.Fatal("expected the compiled structure to be cached by package pointer identity")
	}
}

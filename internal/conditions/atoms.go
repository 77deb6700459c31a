package conditions

import (
	"strconv"
	"strings"

	"github.com/arzttarif/tarifengine/internal/catalog"
	"github.com/arzttarif/tarifengine/internal/reqctx"
)

// evaluateAtom checks one condition row's atom type against the request
// context (§4.7 "Atom evaluation").
func evaluateAtom(store *catalog.Store, row catalog.ConditionRow, ctx *reqctx.Context, cache *RequestCache) bool {
	switch row.Type {
	case catalog.AtomICD:
		if !ctx.UseICD {
			return true // §4.7: ICD atoms are vacuously true when use_icd_flag is false
		}
		return anyFold(row.Values, ctx.ICDCodes)
	case catalog.AtomICDTable:
		if !ctx.UseICD {
			return true
		}
		entries := cache.TableEntries(store, row.Values, catalog.TableICD, ctx.Language)
		return anyEntryMatches(entries, ctx.ICDCodes)
	case catalog.AtomLKNList:
		return anyFold(row.Values, ctx.ServiceCodes)
	case catalog.AtomLKNTable:
		entries := cache.TableEntries(store, row.Values, catalog.TableServiceCatalog, ctx.Language)
		return anyEntryMatches(entries, ctx.ServiceCodes)
	case catalog.AtomMedicationList, catalog.AtomGTIN:
		return anyFold(row.Values, ctx.Medications)
	case catalog.AtomGenderList:
		if len(row.Values) == 0 && ctx.Gender == "" {
			return true
		}
		return containsFold(row.Values, ctx.Gender)
	case catalog.AtomPatient:
		return evaluatePatientAtom(row, ctx)
	case catalog.AtomCountCheck:
		ok, _ := evaluateNumericRow(ctx.ProcedureCount, row)
		return ok
	case catalog.AtomLateralityCheck:
		return evaluateLaterality(ctx.Laterality, row.Value)
	default:
		return false
	}
}

func evaluatePatientAtom(row catalog.ConditionRow, ctx *reqctx.Context) bool {
	switch row.Field {
	case catalog.FieldAlter:
		if !ctx.HasAge {
			return false
		}
		ok, _ := evaluateNumericRow(ctx.Age, row)
		return ok
	case catalog.FieldGeschlecht:
		if row.Value == "" && ctx.Gender == "" {
			return true
		}
		return strings.EqualFold(ctx.Gender, row.Value)
	default:
		return true
	}
}

// evaluateNumericRow compares value against a ConditionRow's
// Comparator/Value/Min/Max, used by both PATIENT(Alter) and COUNT_CHECK.
func evaluateNumericRow(value int, row catalog.ConditionRow) (ok bool, desc string) {
	switch row.Comparator {
	case catalog.CmpRange:
		return value >= row.Min && value <= row.Max, ""
	case catalog.CmpEQ:
		v, _ := strconv.Atoi(row.Value)
		return value == v, ""
	case catalog.CmpLT:
		v, _ := strconv.Atoi(row.Value)
		return value < v, ""
	case catalog.CmpLTE:
		v, _ := strconv.Atoi(row.Value)
		return value <= v, ""
	case catalog.CmpGT:
		v, _ := strconv.Atoi(row.Value)
		return value > v, ""
	case catalog.CmpGTE:
		v, _ := strconv.Atoi(row.Value)
		return value >= v, ""
	default:
		return true, ""
	}
}

// evaluateLaterality compares the context's laterality against a
// condition's expected value. "bilateral" is treated as its own
// distinct value rather than synonymous with either side, matching how
// Stage-1 already represents it (§4.4 point d doubles menge instead of
// collapsing it to a side).
func evaluateLaterality(actual, expected string) bool {
	if expected == "" {
		return true
	}
	return strings.EqualFold(actual, expected)
}

func anyFold(values []string, candidates []string) bool {
	for _, v := range values {
		for _, c := range candidates {
			if strings.EqualFold(v, c) {
				return true
			}
		}
	}
	return false
}

func anyEntryMatches(entries []catalog.TableEntry, candidates []string) bool {
	for _, e := range entries {
		for _, c := range candidates {
			if strings.EqualFold(e.Code, c) {
				return true
			}
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

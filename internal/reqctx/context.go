// Package reqctx is the normalised request context shared by the rule
// engine (C6) and the condition evaluator (C7): the patient/encounter
// facts every per-code and per-package check is evaluated against (§3
// "Request context").
package reqctx

import "strings"

// Context is one request's normalised facts. Medications are upper-cased
// by NormalizeMedications before they are stored (§3 "the rule engine
// normalises to upper-case");
// everything else is carried as the caller supplied it, already
// case-canonicalised by the orchestrator for codes (I5).
type Context struct {
	ServiceCodes   []string // every LKN Stage-1 identified, plus Stage-2-mapped codes once mapping ran, canonical
	ActivePackages []string // packages already billed concurrently (for Package-exclusion)
	ICDCodes       []string
	Medications    []string // normalised upper-case (ATC or brand)
	Age            int
	HasAge         bool
	Gender         string
	Laterality     string
	ProcedureCount int
	UseICD         bool
	Language       string
}

// New returns an empty Context; it normalises nothing (see
// NormalizeMedications).
func New() *Context {
	return &Context{}
}

// NormalizeMedications returns a copy of the medication list upper-cased
// and trimmed, the shape every rule/condition check compares against.
func NormalizeMedications(meds []string) []string {
	out := make([]string, 0, len(meds))
	for _, m := range meds {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}

// HasICD reports whether code (case-insensitive) is among the context's
// diagnoses.
func (c *Context) HasICD(code string) bool {
	return containsFold(c.ICDCodes, code)
}

// HasService reports whether lkn (case-insensitive) is among the
// context's service codes.
func (c *Context) HasService(lkn string) bool {
	return containsFold(c.ServiceCodes, lkn)
}

// HasMedication reports whether atc/brand (case-insensitive) is among the
// context's medications.
func (c *Context) HasMedication(v string) bool {
	return containsFold(c.Medications, v)
}

// HasActivePackage reports whether pkg (case-insensitive) is among the
// packages already concurrently billed.
func (c *Context) HasActivePackage(pkg string) bool {
	return containsFold(c.ActivePackages, pkg)
}

func containsFold(list []string, v string) bool {
	for _, x := range list {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}

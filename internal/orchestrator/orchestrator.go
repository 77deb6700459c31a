// Package orchestrator implements C10: it sequences every other
// component through one request's lifecycle (§4.10), from raw input to
// the final Pauschale/TARDOC/Error response.
package orchestrator

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/arzttarif/tarifengine/internal/billing"
	"github.com/arzttarif/tarifengine/internal/catalog"
	"github.com/arzttarif/tarifengine/internal/conditions"
	"github.com/arzttarif/tarifengine/internal/i18n"
	"github.com/arzttarif/tarifengine/internal/llmgateway"
	"github.com/arzttarif/tarifengine/internal/reqctx"
	"github.com/arzttarif/tarifengine/internal/retrieval"
	"github.com/arzttarif/tarifengine/internal/rules"
	"github.com/arzttarif/tarifengine/internal/selector"
	"github.com/arzttarif/tarifengine/internal/stage1"
	"github.com/arzttarif/tarifengine/internal/stage2"
	"github.com/arzttarif/tarifengine/pkg/codes"
)

// Orchestrator wires C1-C9 together and owns one request's lifecycle.
// All fields are built once at startup and reused concurrently across
// requests (every dependency documents its own concurrency safety).
type Orchestrator struct {
	log        zerolog.Logger
	store      *catalog.Store
	ranker     *retrieval.Ranker
	identifier *stage1.Identifier
	mapper     *stage2.Mapper
	engine     *rules.Engine
	selector   *selector.Selector
	translator *i18n.Translator

	contextWindow      int
	useICDDefault      bool
	mappingConcurrency int
}

// New builds an Orchestrator.
func New(
	log zerolog.Logger,
	store *catalog.Store,
	ranker *retrieval.Ranker,
	identifier *stage1.Identifier,
	mapper *stage2.Mapper,
	engine *rules.Engine,
	sel *selector.Selector,
	translator *i18n.Translator,
	contextWindow int,
	useICDDefault bool,
) *Orchestrator {
	if contextWindow <= 0 {
		contextWindow = 200
	}
	return &Orchestrator{
		log: log, store: store, ranker: ranker, identifier: identifier,
		mapper: mapper, engine: engine, selector: sel, translator: translator,
		contextWindow: contextWindow, useICDDefault: useICDDefault,
		mappingConcurrency: 4,
	}
}

// Run executes the full §4.10 lifecycle for one request.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Response, error) {
	lang := req.Lang
	if lang == "" {
		lang = "de"
	}

	// Step 1: validate/normalise.
	if strings.TrimSpace(req.InputText) == "" {
		return nil, &InputValidationError{Message: "inputText is required"}
	}
	useICD := o.useICDDefault
	if req.UseICD != nil {
		useICD = *req.UseICD
	}
	icdCodes := canonicalizeAll(req.ICD)
	medications := reqctx.NormalizeMedications(req.GTIN)

	// Step 2: C2 context window.
	ranked := o.ranker.Rank(req.InputText, o.contextWindow, nil)
	contextLines := make([]string, 0, len(ranked))
	for _, r := range ranked {
		details := o.store.CodeDetails(r.LKN)
		if details == nil {
			continue
		}
		contextLines = append(contextLines, r.LKN+": "+details.Text(lang))
	}

	structured := stage1.StructuredDemographics{Age: req.Age, Gender: req.Gender, Laterality: req.Laterality}

	// Step 3: C4.
	stage1Result, stage1Usage, err := o.identifier.IdentifyWithUsage(ctx, req.InputText, lang, contextLines, structured)
	if err != nil {
		return nil, err
	}
	resp := &Response{Stage1Result: stage1Result, TokenUsage: TokenUsage{Stage1: stage1Usage}}

	if len(stage1Result.IdentifiedLeistungen) == 0 {
		resp.Abrechnung = o.billingOnly(nil, lang)
		return resp, nil
	}

	// Build the shared request context (§3).
	rctx := &reqctx.Context{
		ICDCodes:       icdCodes,
		Medications:    medications,
		Gender:         req.Gender,
		Laterality:     req.Laterality,
		ProcedureCount: req.Count,
		UseICD:         useICD,
		Language:       lang,
	}
	if req.Age != nil {
		rctx.Age, rctx.HasAge = *req.Age, true
	}
	allCodes := make([]string, 0, len(stage1Result.IdentifiedLeistungen))
	for _, item := range stage1Result.IdentifiedLeistungen {
		allCodes = append(allCodes, codes.Canonical(item.LKN))
	}
	rctx.ServiceCodes = allCodes

	// Step 4: C6 on every identified item.
	ruleResults := make([]rules.ItemResult, 0, len(stage1Result.IdentifiedLeistungen))
	var survivors []string
	for _, item := range stage1Result.IdentifiedLeistungen {
		lkn := codes.Canonical(item.LKN)
		fact := rules.NewFact(o.store, lkn, item.Menge, rctx)
		result := o.engine.Check(o.store, fact, lang)
		ruleResults = append(ruleResults, result)
		if result.Billable {
			survivors = append(survivors, lkn)
		}
	}
	resp.RuleResults = ruleResults

	if len(survivors) == 0 {
		resp.Abrechnung = o.billingOnly(ruleResults, lang)
		return resp, nil
	}

	// Step 5: skip package evaluation entirely when nothing about the
	// surviving codes suggests a package is even reachable.
	if !hasPackagePotential(o.store, survivors) {
		resp.Abrechnung = o.billingOnly(ruleResults, lang)
		return resp, nil
	}

	// Step 6: candidate-enumerate, run Stage-2 mapping to enrich E/EZ
	// items with mapped package-equivalent codes, enrich the
	// package-eligibility context with those same mapped codes so C7's
	// LKN_LIST/LKN_TABLE atoms can see them, run Stage-2's advisory
	// Ranking sub-operation over the resulting candidate packages, then
	// C8.
	enriched := append([]string(nil), survivors...)
	mapped, stage2Usage := o.runMapping(ctx, req.InputText, lang, survivors)
	enriched = append(enriched, mapped...)
	rctx.ServiceCodes = dedupeUpper(append(append([]string(nil), rctx.ServiceCodes...), mapped...))
	resp.TokenUsage.Stage2 = stage2Usage
	resp.Stage2Applied = len(mapped) > 0

	ruleCodes := dedupeUpper(enriched)
	rankOrder, rankUsage := o.runRanking(ctx, req.InputText, lang, ruleCodes)
	resp.TokenUsage.Stage2.PromptTokens += rankUsage.PromptTokens
	resp.TokenUsage.Stage2.CompletionTokens += rankUsage.CompletionTokens
	resp.TokenUsage.Stage2.TotalTokens += rankUsage.TotalTokens

	cache := conditions.NewRequestCache()
	winner, evaluated := o.selector.Select(o.store, ruleCodes, rctx, cache, rankOrder)

	// Step 7: no winner -> downgrade to TARDOC/Error, carrying the
	// evaluated candidates for the Error path's diagnostic.
	if winner == nil {
		resp.Abrechnung = o.billingWithEvaluated(ruleResults, evaluated, lang)
		return resp, nil
	}

	// Step 8: assemble the Pauschale response.
	resp.Abrechnung = Abrechnung{
		Type: "Pauschale",
		Details: &PauschaleDetails{
			Pauschale:      winner.Package.Code,
			PauschaleText:  winner.Title,
			Taxpunkte:      winner.Taxpunkte,
			ErklaerungHTML: winner.ExplanationHTML,
			PotentialICDs:  winner.PotentialICDs,
		},
		ConditionHTML: winner.ExplanationHTML,
		ConditionsMet: true,
	}
	return resp, nil
}

// runMapping runs Stage-2 mapping concurrently (bounded) for every
// billable E/EZ survivor, against the LKN universe referenced by
// packages already service-linked from the survivor set.
func (o *Orchestrator) runMapping(ctx context.Context, text, lang string, survivors []string) ([]string, llmgateway.Usage) {
	universe := candidatePackageLKNUniverse(o.store, survivors)
	var ezCodes []string
	for _, code := range survivors {
		details := o.store.CodeDetails(code)
		if details != nil && details.Type.IsBillable() {
			ezCodes = append(ezCodes, code)
		}
	}
	if len(universe) == 0 || len(ezCodes) == 0 {
		return nil, llmgateway.Usage{}
	}

	var mu sync.Mutex
	var mapped []string
	var usage llmgateway.Usage

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.mappingConcurrency)
	for _, code := range ezCodes {
		code := code
		g.Go(func() error {
			equivalents, u, err := o.mapper.MapEquivalentsWithUsage(gctx, text, lang, code, universe)
			if err != nil {
				o.log.Warn().Err(err).Str("code", code).Msg("orchestrator: stage2 mapping failed for code")
				return nil
			}
			mu.Lock()
			mapped = append(mapped, equivalents...)
			usage.PromptTokens += u.PromptTokens
			usage.CompletionTokens += u.CompletionTokens
			usage.TotalTokens += u.TotalTokens
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // mapping failures degrade per-code, never fail the request

	return mapped, usage
}

// runRanking runs Stage-2's advisory Ranking sub-operation (§4.5) over
// every package candidate enumeration already reaches for ruleCodes,
// giving the selector a priority order to break equal-score ties with
// ahead of its ascending-code fallback. A "NONE" response, a gateway
// error, or fewer than two candidates to rank all return a nil order,
// which Select treats as "fall back to deterministic order".
func (o *Orchestrator) runRanking(ctx context.Context, text, lang string, ruleCodes []string) ([]string, llmgateway.Usage) {
	candidateCodes := selector.EnumerateCandidates(o.store, ruleCodes)
	if len(candidateCodes) < 2 {
		return nil, llmgateway.Usage{}
	}
	choices := make([]stage2.PackageChoice, 0, len(candidateCodes))
	for _, code := range candidateCodes {
		pkg := o.store.Package(code)
		if pkg == nil {
			continue
		}
		choices = append(choices, stage2.PackageChoice{Code: code, Title: packageTitle(pkg, lang)})
	}
	order, usage, err := o.mapper.RankPackagesWithUsage(ctx, text, lang, choices)
	if err != nil {
		o.log.Warn().Err(err).Msg("orchestrator: stage2 ranking failed, falling back to deterministic order")
		return nil, llmgateway.Usage{}
	}
	return order, usage
}

func packageTitle(pkg *catalog.PackageDefinition, lang string) string {
	if t, ok := pkg.Title[lang]; ok && t != "" {
		return t
	}
	return pkg.Title["de"]
}

// billingOnly assembles the C9-only response path.
func (o *Orchestrator) billingOnly(ruleResults []rules.ItemResult, lang string) Abrechnung {
	return o.billingWithEvaluated(ruleResults, nil, lang)
}

func (o *Orchestrator) billingWithEvaluated(ruleResults []rules.ItemResult, evaluated []selector.EvaluatedCandidate, lang string) Abrechnung {
	assembled := billing.Assemble(o.store, o.translator, lang, ruleResults)
	if assembled.Billable {
		return Abrechnung{Type: "TARDOC", Leistungen: assembled.Items}
	}
	var evalList []EvaluatedPauschale
	for _, e := range evaluated {
		evalList = append(evalList, EvaluatedPauschale{Code: e.Code, ConditionHTML: e.ConditionHTML})
	}
	return Abrechnung{Type: "Error", Message: assembled.ErrorMessage, EvaluatedPauschalen: evalList}
}

func canonicalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func dedupeUpper(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.ToUpper(v)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// Package stage2 implements C5: advisory mapping of individual TARDOC
// codes onto package-equivalent candidates, and advisory ranking of the
// resulting candidate packages. Neither sub-operation is authoritative;
// C8's structural/LKN-match selector always has the final say (§4.5).
package stage2

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arzttarif/tarifengine/internal/catalog"
	"github.com/arzttarif/tarifengine/internal/llmgateway"
)

// Chatter is the subset of llmgateway.Gateway Stage-2 needs, narrowed to
// ease testing with a stub (mirrors internal/stage1's Chatter).
type Chatter interface {
	Chat(ctx context.Context, provider llmgateway.Provider, model string, messages []llmgateway.Message, opts llmgateway.Options) (*llmgateway.Result, error)
}

// FamilyRule narrows a Mapping call's candidate set for codes in a known
// functional family before asking the model, e.g. anaesthesia codes
// (AG.*) only ever map onto the WA.10.* chapter or the ANAST table
// (§4.5 design note).
type FamilyRule struct {
	CodePrefix      string
	AllowedPrefixes []string
	AllowedTables   []string
}

// defaultFamilyRules is the one functional-family narrowing spec.md
// calls out by name; additional families can be added without touching
// the mapping algorithm itself.
var defaultFamilyRules = []FamilyRule{
	{CodePrefix: "AG", AllowedPrefixes: []string{"WA.10"}, AllowedTables: []string{"ANAST"}},
}

// Mapper runs C5's two advisory sub-operations.
type Mapper struct {
	log         zerolog.Logger
	store       *catalog.Store
	gateway     Chatter
	provider    llmgateway.Provider
	model       string
	familyRules []FamilyRule
}

// NewMapper builds a Mapper bound to one provider/model pair.
func NewMapper(log zerolog.Logger, store *catalog.Store, gateway Chatter, provider llmgateway.Provider, model string) *Mapper {
	return &Mapper{log: log, store: store, gateway: gateway, provider: provider, model: model, familyRules: defaultFamilyRules}
}

// MapEquivalents runs the Mapping sub-operation for one E/EZ code: it
// asks the model which of candidateLKNs are package-billing equivalents
// of code, then discards anything the model names that isn't in the
// candidate set (§4.5). When code falls into a known functional family,
// the candidate set is narrowed first; an empty narrowed result falls
// back to the unnarrowed set ("first survivor wins").
func (m *Mapper) MapEquivalents(ctx context.Context, text, lang, code string, candidateLKNs []string) ([]string, error) {
	result, _, err := m.MapEquivalentsWithUsage(ctx, text, lang, code, candidateLKNs)
	return result, err
}

// MapEquivalentsWithUsage is MapEquivalents plus the accumulated LLM
// token usage across its (at most two) gateway calls, for the
// orchestrator's per-stage token-usage report.
func (m *Mapper) MapEquivalentsWithUsage(ctx context.Context, text, lang, code string, candidateLKNs []string) ([]string, llmgateway.Usage, error) {
	if len(candidateLKNs) == 0 {
		return nil, llmgateway.Usage{}, nil
	}

	narrowed := m.narrow(code, candidateLKNs, lang)
	result, usage, err := m.mapAgainst(ctx, text, lang, code, narrowed)
	if err != nil {
		return nil, usage, err
	}
	if len(result) > 0 || len(narrowed) == len(candidateLKNs) {
		return result, usage, nil
	}
	result2, usage2, err := m.mapAgainst(ctx, text, lang, code, candidateLKNs)
	usage.PromptTokens += usage2.PromptTokens
	usage.CompletionTokens += usage2.CompletionTokens
	usage.TotalTokens += usage2.TotalTokens
	return result2, usage, err
}

func (m *Mapper) mapAgainst(ctx context.Context, text, lang, code string, candidates []string) ([]string, llmgateway.Usage, error) {
	if len(candidates) == 0 {
		return nil, llmgateway.Usage{}, nil
	}
	valid := make(map[string]bool, len(candidates))
	var list strings.Builder
	for i, c := range candidates {
		valid[c] = true
		if i > 0 {
			list.WriteString(", ")
		}
		list.WriteString(c)
		if details := m.store.CodeDetails(c); details != nil {
			fmt.Fprintf(&list, " (%s)", details.Text(lang))
		}
	}

	messages := []llmgateway.Message{
		{Role: llmgateway.RoleSystem, Content: mappingPrompt(lang, code, list.String())},
		{Role: llmgateway.RoleUser, Content: text},
	}
	resp, err := m.gateway.Chat(ctx, m.provider, m.model, messages, llmgateway.Options{})
	if err != nil {
		m.log.Warn().Err(err).Str("code", code).Msg("stage2: mapping call failed, treating as no equivalents")
		return nil, llmgateway.Usage{}, nil
	}
	return parseCodeList(resp.Content, valid), resp.Usage, nil
}

func (m *Mapper) narrow(code string, candidates []string, lang string) []string {
	for _, rule := range m.familyRules {
		if !strings.HasPrefix(strings.ToUpper(code), rule.CodePrefix) {
			continue
		}
		allowed := map[string]bool{}
		for _, c := range candidates {
			for _, prefix := range rule.AllowedPrefixes {
				if strings.HasPrefix(strings.ToUpper(c), prefix) {
					allowed[c] = true
				}
			}
		}
		for _, table := range rule.AllowedTables {
			for _, entry := range m.store.TableEntriesAnyType(table) {
				if containsFold(candidates, entry.Code) {
					allowed[entry.Code] = true
				}
			}
		}
		if len(allowed) == 0 {
			continue
		}
		out := make([]string, 0, len(allowed))
		for c := range allowed {
			out = append(out, c)
		}
		sort.Strings(out)
		return out
	}
	return candidates
}

// PackageChoice is one candidate package offered to the Ranking
// sub-operation.
type PackageChoice struct {
	Code  string
	Title string
}

// RankPackages runs the Ranking sub-operation: it asks the model to
// order candidates by priority. A "NONE" response, or any response that
// yields no recognised codes, means the caller should fall back to its
// own deterministic order (§4.5); callers distinguish the two cases by
// checking len(result) == 0.
func (m *Mapper) RankPackages(ctx context.Context, text, lang string, candidates []PackageChoice) ([]string, error) {
	result, _, err := m.RankPackagesWithUsage(ctx, text, lang, candidates)
	return result, err
}

// RankPackagesWithUsage is RankPackages plus the LLM token usage its
// gateway call spent, for the orchestrator's per-stage token-usage
// report.
func (m *Mapper) RankPackagesWithUsage(ctx context.Context, text, lang string, candidates []PackageChoice) ([]string, llmgateway.Usage, error) {
	if len(candidates) == 0 {
		return nil, llmgateway.Usage{}, nil
	}
	valid := make(map[string]bool, len(candidates))
	var list strings.Builder
	for i, c := range candidates {
		valid[c.Code] = true
		if i > 0 {
			list.WriteString("\n")
		}
		fmt.Fprintf(&list, "%s: %s", c.Code, c.Title)
	}

	messages := []llmgateway.Message{
		{Role: llmgateway.RoleSystem, Content: rankingPrompt(lang, list.String())},
		{Role: llmgateway.RoleUser, Content: text},
	}
	resp, err := m.gateway.Chat(ctx, m.provider, m.model, messages, llmgateway.Options{})
	if err != nil {
		m.log.Warn().Err(err).Msg("stage2: ranking call failed, falling back to deterministic order")
		return nil, llmgateway.Usage{}, nil
	}
	if isNoneResponse(resp.Content) {
		return nil, resp.Usage, nil
	}
	return parseCodeList(resp.Content, valid), resp.Usage, nil
}

func containsFold(list []string, v string) bool {
	for _, x := range list {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}

func mappingPrompt(lang, code, candidateList string) string {
	return fmt.Sprintf(
		"You map an individual tariff code onto package-billing equivalents.\n"+
			"Code under consideration: %s\n"+
			"Candidate equivalent codes: %s\n"+
			"Reply with a comma-separated list of the candidate codes that are billing-equivalent "+
			"to %s given the case description below, or an empty reply if none apply. Language: %s.",
		code, candidateList, code, lang)
}

func rankingPrompt(lang, candidateList string) string {
	return fmt.Sprintf(
		"You rank candidate billing packages by how well they fit the case described below.\n"+
			"Candidates:\n%s\n"+
			"Reply with the candidate codes in priority order, comma-separated, most fitting first. "+
			"Reply with exactly NONE if you cannot meaningfully distinguish them. Language: %s.",
		candidateList, lang)
}

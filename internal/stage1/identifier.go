package stage1

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/arzttarif/tarifengine/internal/catalog"
	"github.com/arzttarif/tarifengine/internal/llmgateway"
)

// Chatter is the subset of llmgateway.Gateway the identifier needs,
// narrowed to ease testing with a stub.
type Chatter interface {
	Chat(ctx context.Context, provider llmgateway.Provider, model string, messages []llmgateway.Message, opts llmgateway.Options) (*llmgateway.Result, error)
}

// Identifier runs C4: prompts the model with a bounded catalogue
// context and reconciles its answer against the catalogue and
// independent text extraction.
type Identifier struct {
	log      zerolog.Logger
	store    *catalog.Store
	gateway  Chatter
	provider llmgateway.Provider
	model    string
}

// NewIdentifier builds an Identifier bound to one provider/model pair
// (the orchestrator decides which stage runs against which configured
// model).
func NewIdentifier(log zerolog.Logger, store *catalog.Store, gateway Chatter, provider llmgateway.Provider, model string) *Identifier {
	return &Identifier{log: log, store: store, gateway: gateway, provider: provider, model: model}
}

// Identify runs the full C4 pipeline for one piece of free text: segment
// splitting on "und"/"oder", one LLM call per segment, reconciliation,
// and a final merge across segments.
func (id *Identifier) Identify(ctx context.Context, text, lang string, contextLines []string, structured StructuredDemographics) (Result, error) {
	result, _, err := id.IdentifyWithUsage(ctx, text, lang, contextLines, structured)
	return result, err
}

// IdentifyWithUsage runs the same pipeline as Identify and additionally
// returns the accumulated LLM token usage across every per-segment call,
// which the orchestrator threads into its per-stage token-usage report
// (§6 "token_usage").
func (id *Identifier) IdentifyWithUsage(ctx context.Context, text, lang string, contextLines []string, structured StructuredDemographics) (Result, llmgateway.Usage, error) {
	segments := SplitSegments(text)
	if len(segments) == 1 {
		return id.identifySegment(ctx, segments[0], lang, contextLines, structured)
	}

	merged := Result{ExtractedInfo: ExtractedInfo{MengeAllgemein: 1, AnzahlProzeduren: 1}}
	var usage llmgateway.Usage
	var explanations []string
	for _, seg := range segments {
		segResult, segUsage, err := id.identifySegment(ctx, seg, lang, contextLines, structured)
		if err != nil {
			return Result{}, usage, err
		}
		merged.IdentifiedLeistungen = append(merged.IdentifiedLeistungen, segResult.IdentifiedLeistungen...)
		if segResult.BegruendungLLM != "" {
			explanations = append(explanations, segResult.BegruendungLLM)
		}
		// Demographics are shared across segments (they describe one
		// patient); the first segment to find one wins.
		if merged.ExtractedInfo.Alter == 0 {
			merged.ExtractedInfo.Alter = segResult.ExtractedInfo.Alter
		}
		if merged.ExtractedInfo.Geschlecht == "" {
			merged.ExtractedInfo.Geschlecht = segResult.ExtractedInfo.Geschlecht
		}
		usage.PromptTokens += segUsage.PromptTokens
		usage.CompletionTokens += segUsage.CompletionTokens
		usage.TotalTokens += segUsage.TotalTokens
	}
	for i := range explanations {
		if i > 0 {
			merged.BegruendungLLM += " "
		}
		merged.BegruendungLLM += explanations[i]
	}
	return merged, usage, nil
}

func (id *Identifier) identifySegment(ctx context.Context, text, lang string, contextLines []string, structured StructuredDemographics) (Result, llmgateway.Usage, error) {
	prompt := BuildPrompt(lang, contextLines)
	messages := []llmgateway.Message{
		{Role: llmgateway.RoleSystem, Content: prompt},
		{Role: llmgateway.RoleUser, Content: text},
	}

	resp, err := id.gateway.Chat(ctx, id.provider, id.model, messages, llmgateway.Options{ResponseFormatJSON: true})
	if err != nil {
		return Result{}, llmgateway.Usage{}, fmt.Errorf("stage1 chat: %w", err)
	}

	jsonText, err := extractJSONObject(resp.Content)
	if err != nil {
		id.log.Warn().Err(err).Msg("stage1: no JSON object in model output")
		return Result{}, resp.Usage, err
	}

	raw, err := parseRaw(jsonText)
	if err != nil {
		return Result{}, resp.Usage, err
	}

	return reconcile(id.store, raw, text, structured), resp.Usage, nil
}

package stage1

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/arzttarif/tarifengine/internal/catalog"
	"github.com/arzttarif/tarifengine/internal/llmgateway"
)

type stubChatter struct {
	responses []string
	calls     int
}

func (s *stubChatter) Chat(ctx context.Context, provider llmgateway.Provider, model string, messages []llmgateway.Message, opts llmgateway.Options) (*llmgateway.Result, error) {
	idx := s.calls
	s.calls++
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	return &llmgateway.Result{Content: s.responses[idx]}, nil
}

func identifierTestStore() *catalog.Store {
	codeDetails := map[string]*catalog.CodeDetails{
		"CA.00.0010": {LKN: "CA.00.0010", Type: catalog.TypeE, Description: map[string]string{"de": "Konsultation"}},
		"XA.10.0010": {LKN: "XA.10.0010", Type: catalog.TypeE, Description: map[string]string{"de": "Fraktur"}},
	}
	return catalog.NewStore(codeDetails, nil, nil, nil, nil)
}

func TestIdentifier_Identify_SingleSegment(t *testing.T) {
	store := identifierTestStore()
	chatter := &stubChatter{responses: []string{
		`{"identified_leistungen":[{"lkn":"CA.00.0010","typ":"E","menge":1}],"extracted_info":{"alter":0,"geschlecht":"unbekannt"},"begruendung_llm":"Konsultation erkannt"}`,
	}}
	id := NewIdentifier(zerolog.Nop(), store, chatter, llmgateway.ProviderOpenAICompatible, "gpt-4o-mini")

	result, err := id.Identify(context.Background(), "10 Minuten Konsultation", "de", nil, StructuredDemographics{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.IdentifiedLeistungen) != 1 || result.IdentifiedLeistungen[0].LKN != "CA.00.0010" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestIdentifier_Identify_MultiSegmentMerges(t *testing.T) {
	store := identifierTestStore()
	chatter := &stubChatter{responses: []string{
		`{"identified_leistungen":[{"lkn":"CA.00.0010","typ":"E","menge":1}],"extracted_info":{},"begruendung_llm":"Konsultation"}`,
		`{"identified_leistungen":[{"lkn":"XA.10.0010","typ":"E","menge":1}],"extracted_info":{},"begruendung_llm":"Fraktur"}`,
	}}
	id := NewIdentifier(zerolog.Nop(), store, chatter, llmgateway.ProviderOpenAICompatible, "gpt-4o-mini")

	result, err := id.Identify(context.Background(), "Konsultation und Fraktur-Behandlung", "de", nil, StructuredDemographics{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.IdentifiedLeistungen) != 2 {
		t.Fatalf("expected both segments' codes merged, got %+v", result.IdentifiedLeistungen)
	}
	if chatter.calls != 2 {
		t.Errorf("expected one LLM call per segment, got %d", chatter.calls)
	}
}

func TestIdentifier_Identify_ParseErrorSurfaces(t *testing.T) {
	store := identifierTestStore()
	chatter := &stubChatter{responses: []string{"not json at all"}}
	id := NewIdentifier(zerolog.Nop(), store, chatter, llmgateway.ProviderOpenAICompatible, "gpt-4o-mini")

	_, err := id.Identify(context.Background(), "unklarer Text", "de", nil, StructuredDemographics{})
	if err == nil {
		t.Fatal("expected ParseError to surface")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Errorf("expected *ParseError, got %T", err)
	}
}

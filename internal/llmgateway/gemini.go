package llmgateway

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// geminiClient speaks the Gemini REST shape, which diverges enough from
// the OpenAI chat-completions format (roles, content parts, generation
// config) to warrant its own path rather than another branch in openai.go
// (§4.3 "a distinct path handles the Gemini REST shape").
type geminiClient struct {
	apiKey string
}

func (c *geminiClient) call(ctx context.Context, model string, messages []Message, p requestParams) (*Result, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: c.apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	var contents []*genai.Content
	var systemInstruction *genai.Content
	for _, m := range messages {
		part := genai.NewPartFromText(m.Content)
		switch m.Role {
		case RoleSystem:
			systemInstruction = genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser))
		}
	}

	cfg := &genai.GenerateContentConfig{SystemInstruction: systemInstruction}
	if p.temperature != nil {
		t := float32(*p.temperature)
		cfg.Temperature = &t
	}
	if p.maxTokens != nil {
		cfg.MaxOutputTokens = int32(*p.maxTokens)
	}
	if p.responseFormat != nil && p.responseFormat.Type == "json_object" {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	return &Result{
		Content: resp.Text(),
		Usage: Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		},
	}, nil
}

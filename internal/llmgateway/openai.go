package llmgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// openaiClient speaks the OpenAI-compatible chat-completions HTTP shape,
// addressed by base URL + API key so any compatible endpoint (OpenAI
// itself, Azure-fronted deployments, self-hosted clones) works the same
// way (§4.3 "provider-agnostic").
type openaiClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiRequest struct {
	Model          string          `json:"model"`
	Messages       []openaiMessage `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
	MaxCompletionTokens *int       `json:"max_completion_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type openaiChoice struct {
	Message openaiMessage `json:"message"`
}

type openaiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
	Usage   openaiUsage    `json:"usage"`
}

type openaiErrorDetail struct {
	Code    string `json:"code"`
	Param   string `json:"param"`
	Message string `json:"message"`
}

type openaiErrorEnvelope struct {
	Error openaiErrorDetail `json:"error"`
}

// requestParams is the mutable subset of an openaiRequest the retry
// logic strips or renames parameter-by-parameter.
type requestParams struct {
	temperature      *float64
	maxTokens        *int
	useNewMaxTokens  bool
	responseFormat   *responseFormat
}

func (c *openaiClient) call(ctx context.Context, model string, messages []Message, p requestParams) (*Result, error) {
	req := openaiRequest{
		Model:          model,
		Messages:       toOpenAIMessages(messages),
		Temperature:    p.temperature,
		ResponseFormat: p.responseFormat,
	}
	if p.maxTokens != nil {
		if p.useNewMaxTokens {
			req.MaxCompletionTokens = p.maxTokens
		} else {
			req.MaxTokens = p.maxTokens
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read chat response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var env openaiErrorEnvelope
		_ = json.Unmarshal(raw, &env)
		return nil, &apiError{
			StatusCode: resp.StatusCode,
			Code:       env.Error.Code,
			Param:      env.Error.Param,
			Message:    env.Error.Message,
			raw:        string(raw),
		}
	}

	var out openaiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse chat response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("chat response had no choices")
	}

	return &Result{
		Content: out.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     out.Usage.PromptTokens,
			CompletionTokens: out.Usage.CompletionTokens,
			TotalTokens:      out.Usage.TotalTokens,
		},
	}, nil
}

func toOpenAIMessages(messages []Message) []openaiMessage {
	out := make([]openaiMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openaiMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

package llmgateway

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/arzttarif/tarifengine/internal/config"
)

// Provider selects which wire protocol a model is addressed with.
type Provider string

const (
	ProviderOpenAICompatible Provider = "openai"
	ProviderGemini           Provider = "gemini"
)

// Gateway is the single chat entry point described in §4.3: it throttles
// calls process-wide, remembers per-model parameter support, and retries
// once without an offending parameter on a matching 400.
type Gateway struct {
	log         zerolog.Logger
	httpClient  *http.Client
	credentials Credentials
	capability  *capabilityStore
	throttle    *throttle
	userAgent   string
}

// New builds a Gateway. minInterval is the configured throttle window
// (0 disables throttling); runtime persists learned capability flags.
func New(log zerolog.Logger, credentials Credentials, runtime *config.RuntimeStore, minInterval time.Duration, userAgent string) *Gateway {
	return &Gateway{
		log:         log,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		credentials: credentials,
		capability:  newCapabilityStore(runtime),
		throttle:    newThrottle(minInterval),
		userAgent:   userAgent,
	}
}

// Chat dispatches a single chat call through the appropriate provider
// path, applying throttling, capability-aware parameter stripping, and a
// single parameter-stripping retry on a matching 400.
func (g *Gateway) Chat(ctx context.Context, provider Provider, model string, messages []Message, opts Options) (*Result, error) {
	params := g.initialParams(model, opts)

	g.throttle.wait()

	result, err := g.dispatch(ctx, provider, model, messages, params)
	if err == nil {
		return result, nil
	}

	apiErr, ok := err.(*apiError)
	if !ok {
		return nil, err
	}

	retryParams, param, retryable := g.adjustForError(model, params, apiErr)
	if !retryable {
		return nil, err
	}

	g.log.Warn().Str("model", string(model)).Str("param", param).Str("provider", string(provider)).
		Msg("llm rejected parameter, retrying without it")
	g.capability.markUnsupported(model, param)

	// No additional throttle wait on an immediate parameter retry, matching
	// the original wrapper's behaviour.
	return g.dispatch(ctx, provider, model, messages, retryParams)
}

func (g *Gateway) initialParams(model string, opts Options) requestParams {
	p := requestParams{useNewMaxTokens: g.capability.needsNewMaxTokensParam(model)}
	if opts.Temperature != nil && g.capability.supportsTemperature(model) {
		p.temperature = opts.Temperature
	}
	if opts.MaxTokens != nil {
		p.maxTokens = opts.MaxTokens
	}
	if opts.ResponseFormatJSON && g.capability.supportsResponseFormat(model) {
		p.responseFormat = &responseFormat{Type: "json_object"}
	}
	return p
}

// adjustForError inspects a 400 response and, if it names one of the
// three guarded parameters, returns params with that parameter stripped
// (or renamed, for max_tokens) and the parameter name to persist as
// unsupported.
func (g *Gateway) adjustForError(model string, p requestParams, apiErr *apiError) (requestParams, string, bool) {
	if p.maxTokens != nil && !p.useNewMaxTokens && apiErr.unsupportedParam("max_tokens") {
		p.useNewMaxTokens = true
		return p, "max_tokens_named_new", true
	}
	if p.temperature != nil && apiErr.unsupportedParam("temperature") {
		p.temperature = nil
		return p, "supports_temperature", true
	}
	if p.responseFormat != nil && apiErr.unsupportedParam("response_format") {
		p.responseFormat = nil
		return p, "supports_response_format", true
	}
	return p, "", false
}

func (g *Gateway) dispatch(ctx context.Context, provider Provider, model string, messages []Message, p requestParams) (*Result, error) {
	apiKey, baseURL := g.credentials.Resolve(string(provider))
	switch provider {
	case ProviderGemini:
		client := &geminiClient{apiKey: apiKey}
		return client.call(ctx, model, messages, p)
	default:
		client := &openaiClient{httpClient: g.httpClient, baseURL: baseURL, apiKey: apiKey, userAgent: g.userAgent}
		return client.call(ctx, model, messages, p)
	}
}

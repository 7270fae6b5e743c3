package advisor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/theopenlane/httpsling"
)

const (
	// ProviderNameGemini identifies the Google Gemini backend
	ProviderNameGemini = "gemini"
	// geminiDefaultBaseURL is the root endpoint for the Generative Language API
	geminiDefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	// geminiDefaultModel is used when no model is configured
	geminiDefaultModel = "gemini-2.0-flash"
	// geminiRequestTimeout bounds a single generateContent call
	geminiRequestTimeout = 30 * time.Second
	// geminiAPIKeyHeader carries the credential on generateContent calls
	geminiAPIKeyHeader = "x-goog-api-key"
)

// GeminiProvider calls the Google Generative Language API.
type GeminiProvider struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGemini creates a Gemini-backed provider. Empty model and baseURL
// fall back to the defaults.
func NewGemini(apiKey, model, baseURL string, opts ...Option) *GeminiProvider {
	options := &providerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	p := &GeminiProvider{
		apiKey:     apiKey,
		model:      geminiDefaultModel,
		baseURL:    geminiDefaultBaseURL,
		httpClient: options.httpClient,
	}

	if model != "" {
		p.model = model
	}
	if baseURL != "" {
		p.baseURL = baseURL
	}
	if p.httpClient == nil {
		p.httpClient = &http.Client{Timeout: geminiRequestTimeout}
	}

	return p
}

// Name implements Provider.
func (p *GeminiProvider) Name() string { return ProviderNameGemini }

// geminiRequest is the generateContent request payload.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// geminiResponse is the subset of the generateContent response we consume.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Advise implements Provider.
func (p *GeminiProvider) Advise(ctx context.Context, input Input) (*Advice, error) {
	// the key travels in a header, never the URL: transport errors quote
	// the full URL and end up in logs
	reqURL := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, p.model)

	body := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{{Text: buildPrompt(input)}},
		}},
	}

	requester := httpsling.MustNew(
		httpsling.URL(reqURL),
		httpsling.Post(),
		httpsling.Header(geminiAPIKeyHeader, p.apiKey),
		httpsling.JSONBody(body),
		httpsling.WithHTTPClient(p.httpClient),
	)

	var apiResp geminiResponse

	resp, err := requester.ReceiveWithContext(ctx, &apiResp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close error is non-critical

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyCompletion
	}

	return parseAdvice(apiResp.Candidates[0].Content.Parts[0].Text)
}

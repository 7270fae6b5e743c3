package advisor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/theopenlane/httpsling"
)

const (
	// ProviderNameOpenAI identifies the OpenAI backend
	ProviderNameOpenAI = "openai"
	// openaiDefaultBaseURL is the root endpoint for the OpenAI API
	openaiDefaultBaseURL = "https://api.openai.com/v1"
	// openaiDefaultModel is used when no model is configured
	openaiDefaultModel = "gpt-4o-mini"
	// openaiRequestTimeout bounds a single chat completion call
	openaiRequestTimeout = 30 * time.Second
	// openaiTemperature keeps completions close to the prompt instructions
	openaiTemperature = 0.2
)

// OpenAIProvider calls the OpenAI chat completions API.
type OpenAIProvider struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAI creates an OpenAI-backed provider. Empty model and baseURL
// fall back to the defaults.
func NewOpenAI(apiKey, model, baseURL string, opts ...Option) *OpenAIProvider {
	options := &providerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	p := &OpenAIProvider{
		apiKey:     apiKey,
		model:      openaiDefaultModel,
		baseURL:    openaiDefaultBaseURL,
		httpClient: options.httpClient,
	}

	if model != "" {
		p.model = model
	}
	if baseURL != "" {
		p.baseURL = baseURL
	}
	if p.httpClient == nil {
		p.httpClient = &http.Client{Timeout: openaiRequestTimeout}
	}

	return p
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return ProviderNameOpenAI }

// chatRequest is the chat completions request payload.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the subset of the chat completions response we consume.
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Advise implements Provider.
func (p *OpenAIProvider) Advise(ctx context.Context, input Input) (*Advice, error) {
	body := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "user", Content: buildPrompt(input)},
		},
		Temperature: openaiTemperature,
	}

	requester := httpsling.MustNew(
		httpsling.URL(p.baseURL+"/chat/completions"),
		httpsling.Post(),
		httpsling.BearerAuth(p.apiKey),
		httpsling.JSONBody(body),
		httpsling.WithHTTPClient(p.httpClient),
	)

	var apiResp chatResponse

	resp, err := requester.ReceiveWithContext(ctx, &apiResp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close error is non-critical

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	if len(apiResp.Choices) == 0 || apiResp.Choices[0].Message.Content == "" {
		return nil, ErrEmptyCompletion
	}

	return parseAdvice(apiResp.Choices[0].Message.Content)
}

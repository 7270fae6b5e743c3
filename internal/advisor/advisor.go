// Package advisor augments an analysis with AI-generated strategic
// recommendations from a configurable language-model provider. The step
// is strictly additive: every failure path degrades to an empty result
// instead of failing the analysis.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/reviewrise/healthscan/internal/types"
)

// Input is the structured summary of an analysis sent to the provider.
type Input struct {
	// URL is the analyzed page URL
	URL string
	// CategoryScores are the per-category sub-scores with findings
	CategoryScores []types.CategoryScore
	// Recommendations are the rule-derived recommendations
	Recommendations []types.Recommendation
}

// Advice is the validated provider output.
type Advice struct {
	// StrategicRecommendations are the provider's strategic initiatives
	StrategicRecommendations []types.StrategicRecommendation
	// Summary is the provider's narrative assessment
	Summary string
}

// Empty reports whether the advice carries no usable content.
func (a *Advice) Empty() bool {
	return a == nil || (len(a.StrategicRecommendations) == 0 && a.Summary == "")
}

// Provider is a language-model backend capable of strategic advice.
// Implementations must be safe for concurrent use and honor ctx
// cancellation on their network calls.
type Provider interface {
	// Name identifies the backend for logging and configuration
	Name() string
	// Advise requests strategic recommendations for the analysis
	Advise(ctx context.Context, input Input) (*Advice, error)
}

// Config selects and configures the provider at startup.
type Config struct {
	// Provider is the backend identifier: noop, gemini or openai
	Provider string
	// APIKey is the provider credential; empty selects the noop provider
	APIKey string
	// Model overrides the provider's default model
	Model string
	// BaseURL overrides the provider endpoint, used by tests
	BaseURL string
}

// FromConfig selects the provider once at startup. An absent credential
// is a valid configuration and yields the noop provider, not an error.
func FromConfig(cfg Config, opts ...Option) Provider {
	if cfg.APIKey == "" || cfg.Provider == "" || cfg.Provider == ProviderNameNoop {
		log.Info().Msg("ai advisor not configured, running in degraded mode")
		return &NoopProvider{}
	}

	switch cfg.Provider {
	case ProviderNameGemini:
		return NewGemini(cfg.APIKey, cfg.Model, cfg.BaseURL, opts...)
	case ProviderNameOpenAI:
		return NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL, opts...)
	default:
		log.Warn().Str("provider", cfg.Provider).Msg("unknown ai advisor provider, running in degraded mode")
		return &NoopProvider{}
	}
}

// Option configures the HTTP-backed providers.
type Option func(*providerOptions)

type providerOptions struct {
	httpClient *http.Client
}

// WithHTTPClient supplies a custom HTTP client for provider calls.
func WithHTTPClient(client *http.Client) Option {
	return func(o *providerOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// adviceEnvelope is the JSON shape providers are prompted to return. It
// is an untrusted boundary: fields are validated before use.
type adviceEnvelope struct {
	Summary                  string `json:"summary"`
	StrategicRecommendations []struct {
		Title          string `json:"title"`
		Rationale      string `json:"rationale"`
		ExpectedImpact string `json:"expected_impact"`
	} `json:"strategic_recommendations"`
}

// parseAdvice decodes a provider completion into validated advice.
// Models wrap JSON in markdown fences often enough that the fences are
// stripped first; entries without a title are dropped rather than
// trusted.
func parseAdvice(completion string) (*Advice, error) {
	completion = strings.TrimSpace(completion)
	completion = strings.TrimPrefix(completion, "```json")
	completion = strings.TrimPrefix(completion, "```")
	completion = strings.TrimSuffix(completion, "```")
	completion = strings.TrimSpace(completion)

	var envelope adviceEnvelope
	if err := json.Unmarshal([]byte(completion), &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	advice := &Advice{Summary: strings.TrimSpace(envelope.Summary)}

	for _, rec := range envelope.StrategicRecommendations {
		if strings.TrimSpace(rec.Title) == "" {
			continue
		}

		advice.StrategicRecommendations = append(advice.StrategicRecommendations, types.StrategicRecommendation{
			Title:          strings.TrimSpace(rec.Title),
			Rationale:      strings.TrimSpace(rec.Rationale),
			ExpectedImpact: strings.TrimSpace(rec.ExpectedImpact),
		})
	}

	if advice.Empty() {
		return nil, ErrMalformedResponse
	}

	return advice, nil
}

// buildPrompt renders the analysis summary into the instruction sent to
// the model.
func buildPrompt(input Input) string {
	var sb strings.Builder

	sb.WriteString("You are an SEO strategist. A website health audit produced the results below.\n\n")
	sb.WriteString("URL: " + input.URL + "\n\nCategory scores:\n")

	for _, cs := range input.CategoryScores {
		fmt.Fprintf(&sb, "- %s: %d/100\n", cs.Category, cs.Score)
		for _, f := range cs.Findings {
			fmt.Fprintf(&sb, "  - [%s] %s\n", f.Severity, f.Message)
		}
	}

	sb.WriteString("\nRule-derived recommendations already issued:\n")
	for _, rec := range input.Recommendations {
		fmt.Fprintf(&sb, "- (%s) %s\n", rec.Priority, rec.Title)
	}

	sb.WriteString(`
Respond with ONLY valid JSON, no markdown fences, in this shape:
{
  "summary": "two or three sentence narrative assessment of the site's health",
  "strategic_recommendations": [
    {"title": "...", "rationale": "...", "expected_impact": "..."}
  ]
}
Provide at most five strategic recommendations that go beyond the rule-derived ones.`)

	return sb.String()
}

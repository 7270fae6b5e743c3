// Package analysis sequences the health-analysis pipeline:
// fetch -> score -> recommend -> advise (optional) -> persist.
package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reviewrise/healthscan/internal/advisor"
	"github.com/reviewrise/healthscan/internal/fetcher"
	"github.com/reviewrise/healthscan/internal/recommend"
	"github.com/reviewrise/healthscan/internal/score"
	"github.com/reviewrise/healthscan/internal/scorer"
	"github.com/reviewrise/healthscan/internal/snapshot"
	"github.com/reviewrise/healthscan/internal/types"
)

// retryBackoff is the pause before the single optional fetch retry.
const retryBackoff = 300 * time.Millisecond

// PageFetcher retrieves page content. Satisfied by *fetcher.Fetcher.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Page, error)
}

// SnapshotStore persists analysis results. Satisfied by *snapshot.Store.
type SnapshotStore interface {
	Save(ctx context.Context, snap *types.HealthSnapshot) (string, error)
}

// Result is the outcome of one analysis run. The snapshot is always
// populated on success; Persisted distinguishes "we know the answer but
// could not save it" from a computation failure.
type Result struct {
	// Snapshot is the assembled analysis result
	Snapshot *types.HealthSnapshot
	// Persisted reports whether the snapshot was stored
	Persisted bool
	// PersistError carries the storage failure message when Persisted is false
	PersistError string
	// AdvisorDegraded reports whether the AI augmentation step was skipped or failed
	AdvisorDegraded bool
}

// Orchestrator runs the analysis pipeline. All analysis state is
// request-scoped; the orchestrator itself is safe for concurrent runs.
type Orchestrator struct {
	fetcher    PageFetcher
	provider   advisor.Provider
	store      SnapshotStore
	retryFetch bool
	strict     bool
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithFetcher supplies the page fetcher.
func WithFetcher(f PageFetcher) Option {
	return func(o *Orchestrator) {
		if f != nil {
			o.fetcher = f
		}
	}
}

// WithAdvisor supplies the AI strategic advisor provider.
func WithAdvisor(p advisor.Provider) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.provider = p
		}
	}
}

// WithStore supplies the snapshot store. A nil store disables persistence.
func WithStore(s SnapshotStore) Option {
	return func(o *Orchestrator) {
		o.store = s
	}
}

// WithFetchRetry enables one retry with backoff around transient fetch failures.
func WithFetchRetry(enabled bool) Option {
	return func(o *Orchestrator) {
		o.retryFetch = enabled
	}
}

// WithStrictPersistence makes a persistence failure fail the whole
// request instead of returning the unpersisted result best-effort.
func WithStrictPersistence(enabled bool) Option {
	return func(o *Orchestrator) {
		o.strict = enabled
	}
}

// New creates an Orchestrator. Without options it fetches with defaults,
// advises in degraded mode and skips persistence.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:  fetcher.New(),
		provider: &advisor.NoopProvider{},
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Analyze runs one full analysis for the URL. Fetch failure is the only
// hard failure below persistence: once content is in hand, scoring and
// advising degrade instead of failing. Cancellation propagates to the
// fetch and advisor calls; cancelled runs persist nothing.
func (o *Orchestrator) Analyze(ctx context.Context, url string) (*Result, error) {
	page, err := o.fetchWithRetry(ctx, url)
	if err != nil {
		if errors.Is(err, fetcher.ErrInvalidURL) {
			return nil, &AnalysisError{Kind: KindInvalidURL, Err: err}
		}
		return nil, &AnalysisError{Kind: KindFetch, Err: err}
	}

	content, err := scorer.Parse(page)
	if err != nil {
		// goquery tolerates arbitrary markup; a parse failure means the
		// body reader broke. Score a bodyless page instead: every scorer
		// short-circuits on empty content before touching the document.
		log.Warn().Err(err).Str("url", url).Msg("html parse failed, scoring empty content")

		content = &scorer.Content{Page: &fetcher.Page{URL: page.URL, FinalURL: page.FinalURL}}
	}

	categoryScores := scorer.RunAll(content)
	recommendations := recommend.Build(categoryScores)

	snap := &types.HealthSnapshot{
		URL:             url,
		HealthScore:     score.Aggregate(categoryScores),
		WeightsVersion:  score.WeightsVersion,
		CategoryScores:  categoryScores,
		Recommendations: recommendations,
	}

	result := &Result{Snapshot: snap}

	o.advise(ctx, snap, recommendations, result)

	if ctx.Err() != nil {
		// caller cancelled mid-flight: discard, never persist partial runs
		return nil, &AnalysisError{Kind: KindCanceled, Err: ctx.Err()}
	}

	if err := o.persist(ctx, snap, result); err != nil {
		return nil, err
	}

	return result, nil
}

// fetchWithRetry performs the fetch with at most one retry on transient
// failures when retries are enabled.
func (o *Orchestrator) fetchWithRetry(ctx context.Context, url string) (*fetcher.Page, error) {
	page, err := o.fetcher.Fetch(ctx, url)
	if err == nil || !o.retryFetch {
		return page, err
	}

	var fetchErr *fetcher.FetchError
	if !errors.As(err, &fetchErr) || !transientFetchReason(fetchErr.Reason) {
		return nil, err
	}

	log.Debug().Err(err).Str("url", url).Msg("fetch failed, retrying once")

	select {
	case <-ctx.Done():
		return nil, err
	case <-time.After(retryBackoff):
	}

	return o.fetcher.Fetch(ctx, url)
}

// transientFetchReason reports whether a fetch failure is worth one more
// attempt. Status errors and redirect loops are deterministic; retrying
// them only delays the response.
func transientFetchReason(reason fetcher.Reason) bool {
	switch reason {
	case fetcher.ReasonTimeout, fetcher.ReasonDNS, fetcher.ReasonTransport:
		return true
	default:
		return false
	}
}

// advise runs the optional AI augmentation step. It never fails the run:
// provider errors and schema mismatches are logged and degrade to an
// empty strategic set.
func (o *Orchestrator) advise(ctx context.Context, snap *types.HealthSnapshot, recommendations []types.Recommendation, result *Result) {
	advice, err := o.provider.Advise(ctx, advisor.Input{
		URL:             snap.URL,
		CategoryScores:  snap.CategoryScores,
		Recommendations: recommendations,
	})

	if err != nil {
		log.Warn().Err(err).Str("provider", o.provider.Name()).Str("url", snap.URL).Msg("ai advisor degraded")
		result.AdvisorDegraded = true
		return
	}

	if advice.Empty() {
		result.AdvisorDegraded = true
		return
	}

	snap.StrategicRecommendations = advice.StrategicRecommendations
	snap.Summary = advice.Summary
}

// persist stores the snapshot, applying the configured persistence
// failure policy.
func (o *Orchestrator) persist(ctx context.Context, snap *types.HealthSnapshot, result *Result) error {
	if o.store == nil {
		return nil
	}

	if _, err := o.store.Save(ctx, snap); err != nil {
		log.Error().Err(err).Str("url", snap.URL).Msg("snapshot persistence failed")

		if o.strict {
			return &AnalysisError{Kind: KindPersistence, Err: err}
		}

		result.PersistError = err.Error()
		return nil
	}

	result.Persisted = true

	return nil
}

var _ PageFetcher = (*fetcher.Fetcher)(nil)
var _ SnapshotStore = (*snapshot.Store)(nil)

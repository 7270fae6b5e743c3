// Package scorer evaluates fetched page content against fixed,
// versioned rule sets, one scorer per health category. Scorers are pure
// functions of the parsed page so results are reproducible for
// identical content.
package scorer

import (
	"sort"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/reviewrise/healthscan/internal/fetcher"
	"github.com/reviewrise/healthscan/internal/types"
)

// RulesVersion identifies the rule set applied by the scorers. Bump it
// whenever a rule or threshold changes so historical scores stay comparable.
const RulesVersion = "2024-09"

// Content is the shared, read-only input every scorer evaluates. The HTML
// is parsed once and the document handed to all scorers.
type Content struct {
	// Page is the fetched page with its load-proxy signals
	Page *fetcher.Page
	// Doc is the parsed HTML document
	Doc *goquery.Document
}

// Parse builds scorer input from a fetched page. Malformed markup never
// fails: goquery tolerates arbitrary third-party HTML.
func Parse(page *fetcher.Page) (*Content, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Body))
	if err != nil {
		return nil, err
	}

	return &Content{Page: page, Doc: doc}, nil
}

// Scorer produces the sub-score and findings for one category.
type Scorer interface {
	// Category identifies the health facet this scorer covers
	Category() types.Category
	// Score evaluates the rule set against the content
	Score(content *Content) types.CategoryScore
}

// All returns the complete, fixed set of category scorers. The union of
// their categories is the full category vocabulary; there is no
// zero-filling for categories without a scorer.
func All() []Scorer {
	return []Scorer{
		&TechnicalScorer{},
		&ContentScorer{},
		&PerformanceScorer{},
		&AuthorityScorer{},
		&LocalScorer{},
	}
}

// RunAll evaluates every scorer concurrently over the same content and
// joins the results sorted by category. A scorer that panics is isolated:
// its category reports a zero score with an explanatory finding instead
// of aborting the other scorers.
func RunAll(content *Content) []types.CategoryScore {
	scorers := All()
	results := make(chan types.CategoryScore, len(scorers))

	var wg sync.WaitGroup

	for _, s := range scorers {
		wg.Go(func() {
			results <- scoreSafely(s, content)
		})
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	scores := make([]types.CategoryScore, 0, len(scorers))
	for cs := range results {
		scores = append(scores, cs)
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Category < scores[j].Category
	})

	return scores
}

// scoreSafely runs one scorer with panic isolation.
func scoreSafely(s Scorer, content *Content) (cs types.CategoryScore) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Str("category", string(s.Category())).Msg("scorer panicked")

			cs = types.CategoryScore{
				Category: s.Category(),
				Score:    0,
				Findings: []types.Finding{{
					Category: s.Category(),
					Severity: types.SeverityWarning,
					Code:     "scorer_failed",
					Message:  "Category rules could not be evaluated for this page",
				}},
			}
		}
	}()

	return s.Score(content)
}

// clampScore keeps a deduction-based score inside the 0-100 range.
func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// emptyContentScore is the shared low-score outcome for scorers that
// cannot evaluate an empty or effectively blank page.
func emptyContentScore(category types.Category) types.CategoryScore {
	return types.CategoryScore{
		Category: category,
		Score:    10,
		Findings: []types.Finding{{
			Category: category,
			Severity: types.SeverityCritical,
			Code:     "empty_content",
			Message:  "Page returned no usable HTML content",
		}},
	}
}

// isEmpty reports whether the page has no markup worth evaluating.
func (c *Content) isEmpty() bool {
	return c.Page == nil || strings.TrimSpace(c.Page.Body) == ""
}

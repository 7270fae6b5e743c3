package scorer

import (
	"fmt"
	"time"

	"github.com/reviewrise/healthscan/internal/types"
)

// Page weight and fetch time bands. These are proxy signals derived from
// the single document fetch, not a full render measurement.
const (
	pageSizeMinorKB    = 500
	pageSizeModerateKB = 1024
	pageSizeMajorKB    = 2048

	fetchTimeMinor    = time.Second
	fetchTimeModerate = 1500 * time.Millisecond
	fetchTimeMajor    = 3 * time.Second

	// maxBlockingScripts is the tolerated number of synchronous script tags
	maxBlockingScripts = 10
	// maxStylesheets is the tolerated number of external stylesheets
	maxStylesheets = 8
)

// PerformanceScorer evaluates page-load proxy signals: document weight,
// fetch duration and render-blocking resource counts.
type PerformanceScorer struct{}

// Category implements Scorer.
func (s *PerformanceScorer) Category() types.Category {
	return types.CategoryPerformance
}

// Score implements Scorer.
func (s *PerformanceScorer) Score(content *Content) types.CategoryScore {
	if content.isEmpty() {
		return emptyContentScore(s.Category())
	}

	score := 100

	var findings []types.Finding

	add := func(penalty int, severity types.Severity, code, message string) {
		score -= penalty
		findings = append(findings, types.Finding{
			Category: s.Category(),
			Severity: severity,
			Code:     code,
			Message:  message,
		})
	}

	sizeKB := content.Page.ContentLength / 1024
	switch {
	case sizeKB > pageSizeMajorKB:
		add(30, types.SeverityCritical, "page_too_heavy",
			fmt.Sprintf("Document weighs %dKB; optimize images and strip unused resources", sizeKB))
	case sizeKB > pageSizeModerateKB:
		add(20, types.SeverityWarning, "page_heavy",
			fmt.Sprintf("Document weighs %dKB; look for compression opportunities", sizeKB))
	case sizeKB > pageSizeMinorKB:
		add(10, types.SeverityInfo, "page_above_optimal",
			fmt.Sprintf("Document weighs %dKB; consider basic optimization", sizeKB))
	}

	elapsed := content.Page.FetchDuration
	switch {
	case elapsed > fetchTimeMajor:
		add(30, types.SeverityCritical, "slow_response",
			fmt.Sprintf("Server took %dms to deliver the document", elapsed.Milliseconds()))
	case elapsed > fetchTimeModerate:
		add(20, types.SeverityWarning, "sluggish_response",
			fmt.Sprintf("Server took %dms to deliver the document", elapsed.Milliseconds()))
	case elapsed > fetchTimeMinor:
		add(10, types.SeverityInfo, "response_above_optimal",
			fmt.Sprintf("Server took %dms to deliver the document", elapsed.Milliseconds()))
	}

	blockingScripts := content.Doc.Find("script[src]:not([async]):not([defer])").Length()
	if blockingScripts > maxBlockingScripts {
		add(15, types.SeverityWarning, "blocking_scripts",
			fmt.Sprintf("%d synchronous script tags block rendering; add async or defer", blockingScripts))
	}

	stylesheets := content.Doc.Find("link[rel='stylesheet']").Length()
	if stylesheets > maxStylesheets {
		add(10, types.SeverityInfo, "many_stylesheets",
			fmt.Sprintf("%d external stylesheets found; consider bundling", stylesheets))
	}

	return types.CategoryScore{
		Category: s.Category(),
		Score:    clampScore(score),
		Findings: findings,
	}
}

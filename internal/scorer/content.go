package scorer

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/reviewrise/healthscan/internal/types"
)

const (
	// minWordCount is the threshold below which page copy is considered thin
	minWordCount = 300
)

// ContentScorer evaluates page copy: word count, heading structure and
// image alt-text coverage.
type ContentScorer struct{}

// Category implements Scorer.
func (s *ContentScorer) Category() types.Category {
	return types.CategoryContent
}

// Score implements Scorer.
func (s *ContentScorer) Score(content *Content) types.CategoryScore {
	if content.isEmpty() {
		return emptyContentScore(s.Category())
	}

	doc := content.Doc
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

	words := len(strings.Fields(doc.Find("body").Text()))
	switch {
	case words == 0:
		add(30, types.SeverityCritical, "no_body_text", "Page body contains no readable text")
	case words < minWordCount:
		add(15, types.SeverityWarning, "thin_content",
			fmt.Sprintf("Page has %d words of copy; aim for at least %d", words, minWordCount))
	}

	h1Count := doc.Find("h1").Length()
	switch {
	case h1Count == 0:
		add(20, types.SeverityCritical, "missing_h1", "Page has no h1 heading")
	case h1Count > 1:
		add(10, types.SeverityWarning, "multiple_h1",
			fmt.Sprintf("Page has %d h1 headings; use exactly one", h1Count))
	}

	if doc.Find("h2").Length() == 0 {
		add(10, types.SeverityWarning, "no_subheadings", "Page has no h2 subheadings to structure its copy")
	}

	images := doc.Find("img")
	totalImages := images.Length()

	withAlt := 0
	images.Each(func(_ int, sel *goquery.Selection) {
		if alt, exists := sel.Attr("alt"); exists && strings.TrimSpace(alt) != "" {
			withAlt++
		}
	})

	if totalImages > 0 && withAlt < totalImages {
		add(15, types.SeverityWarning, "images_missing_alt",
			fmt.Sprintf("%d of %d images have no alt text", totalImages-withAlt, totalImages))
	}

	if totalImages == 0 {
		add(5, types.SeverityInfo, "no_images", "Page has no images; consider adding supporting visuals")
	}

	return types.CategoryScore{
		Category: s.Category(),
		Score:    clampScore(score),
		Findings: findings,
	}
}

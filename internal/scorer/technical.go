package scorer

import (
	"fmt"
	"strings"

	"github.com/reviewrise/healthscan/internal/types"
)

const (
	// titleMinLength and titleMaxLength bound the recommended title tag length
	titleMinLength = 30
	titleMaxLength = 60
	// descriptionMinLength and descriptionMaxLength bound the recommended
	// meta description length
	descriptionMinLength = 120
	descriptionMaxLength = 160
)

// TechnicalScorer evaluates on-page technical SEO signals: title and meta
// tags, viewport, canonical link, robots directives, language and favicon.
type TechnicalScorer struct{}

// Category implements Scorer.
func (s *TechnicalScorer) Category() types.Category {
	return types.CategoryTechnical
}

// Score implements Scorer.
func (s *TechnicalScorer) Score(content *Content) types.CategoryScore {
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

	title := strings.TrimSpace(doc.Find("title").First().Text())
	switch {
	case title == "":
		add(20, types.SeverityCritical, "missing_title", "Page has no title tag")
	case len(title) < titleMinLength:
		add(8, types.SeverityWarning, "title_too_short",
			fmt.Sprintf("Title tag is %d characters; aim for %d-%d", len(title), titleMinLength, titleMaxLength))
	case len(title) > titleMaxLength:
		add(8, types.SeverityWarning, "title_too_long",
			fmt.Sprintf("Title tag is %d characters; aim for %d-%d", len(title), titleMinLength, titleMaxLength))
	}

	description, _ := doc.Find("meta[name='description']").Attr("content")
	description = strings.TrimSpace(description)
	switch {
	case description == "":
		add(25, types.SeverityCritical, "missing_meta_description", "Page has no meta description")
	case len(description) < descriptionMinLength:
		add(10, types.SeverityWarning, "meta_description_too_short",
			fmt.Sprintf("Meta description is %d characters; aim for %d-%d", len(description), descriptionMinLength, descriptionMaxLength))
	case len(description) > descriptionMaxLength:
		add(10, types.SeverityWarning, "meta_description_too_long",
			fmt.Sprintf("Meta description is %d characters; aim for %d-%d", len(description), descriptionMinLength, descriptionMaxLength))
	}

	viewport, _ := doc.Find("meta[name='viewport']").Attr("content")
	if !strings.Contains(strings.ToLower(viewport), "width=device-width") {
		add(25, types.SeverityCritical, "missing_viewport", "Page has no mobile viewport meta tag")
	}

	if doc.Find("link[rel='canonical']").Length() == 0 {
		add(8, types.SeverityWarning, "missing_canonical", "Page has no canonical link element")
	}

	robots, _ := doc.Find("meta[name='robots']").Attr("content")
	if strings.Contains(strings.ToLower(robots), "noindex") {
		add(10, types.SeverityWarning, "robots_noindex", "Page is excluded from indexing by a robots noindex directive")
	}

	if lang, exists := doc.Find("html").Attr("lang"); !exists || strings.TrimSpace(lang) == "" {
		add(7, types.SeverityWarning, "missing_html_lang", "Html element declares no lang attribute")
	}

	if doc.Find("link[rel='icon'], link[rel='shortcut icon'], link[rel='apple-touch-icon']").Length() == 0 {
		add(5, types.SeverityInfo, "missing_favicon", "Page declares no favicon link")
	}

	return types.CategoryScore{
		Category: s.Category(),
		Score:    clampScore(score),
		Findings: findings,
	}
}

package scorer

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"

	"github.com/reviewrise/healthscan/internal/types"
)

const (
	// minInternalLinks is the threshold below which site navigation is weak
	minInternalLinks = 3
	// maxExternalLinks is the point where outbound linking dilutes focus
	maxExternalLinks = 50
)

// socialHosts are registrable domains treated as social profile links.
var socialHosts = map[string]struct{}{
	"facebook.com":  {},
	"instagram.com": {},
	"linkedin.com":  {},
	"x.com":         {},
	"twitter.com":   {},
	"youtube.com":   {},
	"tiktok.com":    {},
}

// AuthorityScorer evaluates link-based authority signals: internal and
// external link profile, social presence and structured data.
type AuthorityScorer struct{}

// Category implements Scorer.
func (s *AuthorityScorer) Category() types.Category {
	return types.CategoryAuthority
}

// Score implements Scorer.
func (s *AuthorityScorer) Score(content *Content) types.CategoryScore {
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

	base := registrableDomain(content.Page.FinalURL)

	internal, external, social := classifyLinks(content.Doc, content.Page.FinalURL, base)

	switch {
	case internal == 0:
		add(25, types.SeverityCritical, "no_internal_links", "Page links to no other pages on its own site")
	case internal < minInternalLinks:
		add(15, types.SeverityWarning, "few_internal_links",
			fmt.Sprintf("Page has only %d internal links; aim for at least %d", internal, minInternalLinks))
	}

	switch {
	case external == 0:
		add(10, types.SeverityWarning, "no_external_links", "Page cites no external sources")
	case external > maxExternalLinks:
		add(10, types.SeverityWarning, "too_many_external_links",
			fmt.Sprintf("Page has %d outbound links; trim to keep topical focus", external))
	}

	if social == 0 {
		add(10, types.SeverityInfo, "no_social_links", "Page links to no social profiles")
	}

	if content.Doc.Find("script[type='application/ld+json']").Length() == 0 {
		add(15, types.SeverityWarning, "no_structured_data", "Page embeds no JSON-LD structured data")
	}

	return types.CategoryScore{
		Category: s.Category(),
		Score:    clampScore(score),
		Findings: findings,
	}
}

// classifyLinks counts internal, external and social anchor targets
// relative to the page's registrable domain.
func classifyLinks(doc *goquery.Document, pageURL, baseDomain string) (internal, external, social int) {
	baseParsed, _ := url.Parse(pageURL)
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)

		if href == "" || href == "#" || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
			return
		}

		parsed, err := url.Parse(href)
		if err != nil {
			return
		}

		if baseParsed != nil {
			parsed = baseParsed.ResolveReference(parsed)
		}

		key := parsed.String()
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}

		linkDomain := registrableDomain(parsed.String())

		switch {
		case linkDomain == "" || linkDomain == baseDomain:
			internal++
		default:
			external++
			if _, ok := socialHosts[linkDomain]; ok {
				social++
			}
		}
	})

	return internal, external, social
}

// registrableDomain extracts the eTLD+1 for a URL, or "" when it cannot
// be determined.
func registrableDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return ""
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(parsed.Hostname()))
	if err != nil {
		return strings.ToLower(parsed.Hostname())
	}

	return domain
}

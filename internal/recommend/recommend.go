// Package recommend maps scorer findings to prioritized, human-readable
// recommendation records. Output is a deterministic, pure function of
// the findings.
package recommend

import (
	"sort"

	"github.com/samber/lo"

	"github.com/reviewrise/healthscan/internal/types"
)

// entry holds the remediation text for one finding code.
type entry struct {
	title       string
	description string
}

// ruleTable maps finding codes to remediation copy. Findings without an
// entry fall back to their own message; info-level findings without an
// entry produce no recommendation.
var ruleTable = map[string]entry{
	"missing_title":              {"Add a title tag", "Every page needs a unique, descriptive title tag of 30-60 characters; it is the strongest on-page relevance signal."},
	"title_too_short":            {"Lengthen the title tag", "Short titles waste ranking signal; describe the page in 30-60 characters."},
	"title_too_long":             {"Shorten the title tag", "Titles over 60 characters are truncated in results; keep them to 30-60 characters."},
	"missing_meta_description":   {"Add a meta description", "Write a 120-160 character meta description; it drives click-through from search results."},
	"meta_description_too_short": {"Expand the meta description", "Descriptions under 120 characters under-sell the page; use the full 120-160 character window."},
	"meta_description_too_long":  {"Tighten the meta description", "Descriptions over 160 characters are truncated; keep them to 120-160 characters."},
	"missing_viewport":           {"Add a mobile viewport tag", "Add <meta name=\"viewport\" content=\"width=device-width, initial-scale=1\"> so the page renders correctly on mobile devices."},
	"missing_canonical":          {"Declare a canonical URL", "A canonical link prevents duplicate-content dilution across URL variants."},
	"robots_noindex":             {"Review the noindex directive", "The page asks search engines not to index it; remove the directive if that is unintentional."},
	"missing_html_lang":          {"Declare the page language", "Set the lang attribute on the html element so search engines and screen readers know the content language."},
	"no_body_text":               {"Add page copy", "The page renders no readable text; search engines cannot rank an empty page."},
	"thin_content":               {"Expand the page copy", "Pages with under 300 words rarely rank; add substantive copy covering the page topic."},
	"missing_h1":                 {"Add an h1 heading", "Every page needs exactly one h1 describing its topic."},
	"multiple_h1":                {"Use a single h1 heading", "Multiple h1 headings dilute the page topic; demote the extras to h2."},
	"no_subheadings":             {"Structure copy with subheadings", "Break the copy into sections with h2 headings to improve scannability and relevance."},
	"images_missing_alt":         {"Add alt text to images", "Alt text makes images indexable and accessible; describe each image briefly."},
	"page_too_heavy":             {"Reduce page weight", "Compress images, minify assets and remove unused resources to bring the document under 2MB."},
	"page_heavy":                 {"Optimize page weight", "The document exceeds 1MB; enable compression and lazy-load below-the-fold media."},
	"slow_response":              {"Improve server response time", "The server takes over 3 seconds to deliver the document; add caching or a CDN."},
	"sluggish_response":          {"Tune server response time", "Responses over 1.5 seconds hurt both ranking and conversion; profile the backend."},
	"blocking_scripts":           {"Defer render-blocking scripts", "Add async or defer to script tags so they stop blocking first paint."},
	"no_internal_links":          {"Add internal links", "Pages without internal links are crawl dead-ends; link to related pages on the site."},
	"few_internal_links":         {"Add more internal links", "Aim for at least 3-5 internal links to distribute authority and aid navigation."},
	"no_external_links":          {"Cite external sources", "Linking to authoritative external sources improves content credibility."},
	"too_many_external_links":    {"Trim outbound links", "Dozens of outbound links dilute topical focus; keep only the citations that add value."},
	"no_structured_data":         {"Add structured data", "Embed JSON-LD markup so search engines can render rich results for the page."},
	"no_business_schema":         {"Add LocalBusiness schema", "Embed LocalBusiness JSON-LD with name, address and phone to power local search results."},
	"no_phone_number":            {"Publish a phone number", "A visible phone number is a core local ranking and trust signal."},
	"no_address":                 {"Publish the business address", "A visible street address anchors the business in local search."},
	"empty_content":              {"Serve indexable HTML", "The URL returned no usable HTML; ensure the server delivers rendered content to crawlers."},
	"scorer_failed":              {"Re-run the analysis", "A category could not be evaluated for this page; re-run the analysis and investigate if it persists."},
}

// priorityFor maps a finding severity to a recommendation priority.
func priorityFor(severity types.Severity) types.Priority {
	switch severity {
	case types.SeverityCritical:
		return types.PriorityHigh
	case types.SeverityWarning:
		return types.PriorityMedium
	default:
		return types.PriorityLow
	}
}

// Build derives recommendations from the category scores. Duplicate
// findings with the same (category, code) yield a single recommendation,
// critical findings always yield a high priority, and the output is
// sorted priority high-to-low then by category for reproducible results.
func Build(scores []types.CategoryScore) []types.Recommendation {
	findings := lo.FlatMap(scores, func(cs types.CategoryScore, _ int) []types.Finding {
		return cs.Findings
	})

	findings = lo.UniqBy(findings, func(f types.Finding) string {
		return string(f.Category) + "|" + f.Code
	})

	recs := make([]types.Recommendation, 0, len(findings))

	for _, f := range findings {
		e, ok := ruleTable[f.Code]
		if !ok {
			// unmapped info findings are observations, not action items
			if f.Severity == types.SeverityInfo {
				continue
			}
			e = entry{title: f.Message, description: f.Message}
		}

		recs = append(recs, types.Recommendation{
			Category:    f.Category,
			Priority:    priorityFor(f.Severity),
			Title:       e.title,
			Description: e.description,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		ri, rj := types.PriorityRank(recs[i].Priority), types.PriorityRank(recs[j].Priority)
		if ri != rj {
			return ri > rj
		}
		return recs[i].Category < recs[j].Category
	})

	return recs
}

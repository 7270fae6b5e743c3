package scorer

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/reviewrise/healthscan/internal/types"
)

// localSchemaPattern matches JSON-LD @type values that signal a local
// business presence.
var localSchemaPattern = regexp.MustCompile(`(?i)"@type"\s*:\s*"[^"]*(LocalBusiness|Organization|Store|Restaurant|ProfessionalService)[^"]*"`)

// phonePattern is a loose match for visible phone numbers in page text.
var phonePattern = regexp.MustCompile(`(?:\+?\d{1,3}[\s.-]?)?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}`)

// addressPattern matches common visible street-address markers.
var addressPattern = regexp.MustCompile(`(?i)\b\d{1,5}\s+\w+(\s\w+)*\s+(street|st\.?|avenue|ave\.?|road|rd\.?|boulevard|blvd\.?|drive|dr\.?|lane|ln\.?|suite|ste\.?)\b`)

// LocalScorer evaluates local-presence signals: business schema markup,
// visible name/address/phone data, geo metadata and embedded maps.
type LocalScorer struct{}

// Category implements Scorer.
func (s *LocalScorer) Category() types.Category {
	return types.CategoryLocal
}

// Score implements Scorer.
func (s *LocalScorer) Score(content *Content) types.CategoryScore {
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

	if !hasLocalSchema(doc) {
		add(30, types.SeverityWarning, "no_business_schema",
			"Page embeds no LocalBusiness or Organization structured data")
	}

	bodyText := doc.Find("body").Text()

	if !phonePattern.MatchString(bodyText) && doc.Find("a[href^='tel:']").Length() == 0 {
		add(20, types.SeverityWarning, "no_phone_number", "Page shows no contact phone number")
	}

	hasAddress := addressPattern.MatchString(bodyText) ||
		doc.Find("address, [itemprop='address'], [itemtype*='PostalAddress']").Length() > 0
	if !hasAddress {
		add(20, types.SeverityWarning, "no_address", "Page shows no business address")
	}

	if doc.Find("meta[name='geo.region'], meta[name='geo.position'], meta[name='geo.placename']").Length() == 0 {
		add(15, types.SeverityInfo, "no_geo_meta", "Page declares no geo meta tags")
	}

	if doc.Find("iframe[src*='google.com/maps'], iframe[src*='maps.google'], iframe[src*='openstreetmap']").Length() == 0 {
		add(15, types.SeverityInfo, "no_embedded_map", "Page embeds no location map")
	}

	return types.CategoryScore{
		Category: s.Category(),
		Score:    clampScore(score),
		Findings: findings,
	}
}

// hasLocalSchema reports whether any JSON-LD block declares a business type.
func hasLocalSchema(doc *goquery.Document) bool {
	found := false

	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if localSchemaPattern.MatchString(sel.Text()) {
			found = true
			return false
		}
		return true
	})

	if found {
		return true
	}

	return doc.Find("[itemtype*='LocalBusiness'], [itemtype*='Organization']").Length() > 0
}

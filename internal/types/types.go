// Package types holds the shared result types produced by a health analysis run.
package types

import "time"

// Category identifies one facet of website health.
type Category string

const (
	CategoryTechnical   Category = "technical"
	CategoryContent     Category = "content"
	CategoryPerformance Category = "performance"
	CategoryAuthority   Category = "authority"
	CategoryLocal       Category = "local"
)

// Severity classifies how serious a finding is.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Priority ranks a recommendation for remediation ordering.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Finding is a single rule-evaluation outcome attached to a category.
// Findings are immutable once created.
type Finding struct {
	// Category is the health facet the rule belongs to
	Category Category `json:"category"`
	// Severity is the impact level of the outcome
	Severity Severity `json:"severity"`
	// Code is the stable rule identifier (e.g. missing_meta_description)
	Code string `json:"code"`
	// Message is the human-readable description of the outcome
	Message string `json:"message"`
}

// CategoryScore is the sub-score and findings for one category in a run.
type CategoryScore struct {
	// Category is the health facet this score covers
	Category Category `json:"category"`
	// Score is the 0-100 sub-score for the category
	Score int `json:"score"`
	// Findings are the rule outcomes that produced the score
	Findings []Finding `json:"findings,omitempty"`
}

// Recommendation is a prioritized, human-readable remediation derived from findings.
type Recommendation struct {
	// Category is the health facet the recommendation applies to
	Category Category `json:"category"`
	// Priority ranks the recommendation high to low
	Priority Priority `json:"priority"`
	// Title is the short remediation headline
	Title string `json:"title"`
	// Description explains what to change and why
	Description string `json:"description"`
}

// StrategicRecommendation is produced only by the AI strategic advisor.
type StrategicRecommendation struct {
	// Title is the strategic initiative headline
	Title string `json:"title"`
	// Rationale explains why the initiative matters for this site
	Rationale string `json:"rationale"`
	// ExpectedImpact describes the anticipated outcome
	ExpectedImpact string `json:"expected_impact"`
}

// HealthSnapshot is an immutable, timestamped record of one full analysis run.
// HealthScore is a deterministic function of CategoryScores under the weight
// table identified by WeightsVersion.
type HealthSnapshot struct {
	// ID is the store-assigned snapshot identifier
	ID string `json:"id"`
	// URL is the analyzed page URL
	URL string `json:"url"`
	// HealthScore is the overall 0-100 score
	HealthScore float64 `json:"health_score"`
	// WeightsVersion identifies the weight table used for aggregation
	WeightsVersion string `json:"weights_version"`
	// CategoryScores are the per-category sub-scores
	CategoryScores []CategoryScore `json:"category_scores"`
	// Recommendations are the rule-derived remediation records
	Recommendations []Recommendation `json:"recommendations"`
	// StrategicRecommendations are AI-generated; absent in degraded mode
	StrategicRecommendations []StrategicRecommendation `json:"strategic_recommendations,omitempty"`
	// Summary is the AI-generated narrative; absent in degraded mode
	Summary string `json:"summary,omitempty"`
	// CreatedAt is the persistence timestamp, monotonic per insert
	CreatedAt time.Time `json:"created_at"`
}

// SeverityRank orders severities from least to most serious for comparisons.
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// PriorityRank orders priorities from least to most urgent for sorting.
func PriorityRank(p Priority) int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

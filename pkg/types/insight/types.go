// Package insight defines the public data types of the interview-intel
// analytics engine: input records, normalized documents, extracted topics,
// trend results, recommendations, and per-run report metadata.  These types
// are pure data carriers; all behaviour lives in the internal engine
// packages.
package insight

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Outcome is the tri-state interview result attached to a record.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFail    Outcome = "fail"
	OutcomeUnknown Outcome = "unknown"
)

// ParseOutcome maps free-form outcome strings onto the closed Outcome set.
// Anything unrecognized becomes OutcomeUnknown.
func ParseOutcome(s string) Outcome {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "success", "offer", "accepted", "passed", "hired":
		return OutcomeSuccess
	case "fail", "failed", "rejected", "declined", "no offer":
		return OutcomeFail
	default:
		return OutcomeUnknown
	}
}

// Known reports whether the outcome carries signal (success or fail).
func (o Outcome) Known() bool {
	return o == OutcomeSuccess || o == OutcomeFail
}

// Category is the closed set of subject areas a topic can belong to.
// Unrecognized terms fall into CategoryOther rather than failing silently.
type Category string

const (
	CategorySystemDesign   Category = "system_design"
	CategoryDataStructures Category = "data_structures"
	CategoryAlgorithms     Category = "algorithms"
	CategoryConcepts       Category = "concepts"
	CategoryTechnologies   Category = "technologies"
	CategoryBehavioral     Category = "behavioral"
	CategoryOther          Category = "other"
)

// AllCategories lists every valid Category, CategoryOther last.
func AllCategories() []Category {
	return []Category{
		CategorySystemDesign,
		CategoryDataStructures,
		CategoryAlgorithms,
		CategoryConcepts,
		CategoryTechnologies,
		CategoryBehavioral,
		CategoryOther,
	}
}

// Valid reports whether c is a member of the closed category set.
func (c Category) Valid() bool {
	switch c {
	case CategorySystemDesign, CategoryDataStructures, CategoryAlgorithms,
		CategoryConcepts, CategoryTechnologies, CategoryBehavioral, CategoryOther:
		return true
	}
	return false
}

// ParseCategory maps a config string onto the closed Category set.
// The second return value is false for unrecognized names.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c, true
	}
	return CategoryOther, false
}

// PriorityLevel buckets a topic's combined frequency/confidence signal.
type PriorityLevel string

const (
	PriorityHigh   PriorityLevel = "HIGH"
	PriorityMedium PriorityLevel = "MEDIUM"
	PriorityLow    PriorityLevel = "LOW"
)

// TrendDirection is the monotonic tendency of a topic's frequency series.
type TrendDirection string

const (
	TrendRising  TrendDirection = "RISING"
	TrendFalling TrendDirection = "FALLING"
	TrendStable  TrendDirection = "STABLE"
)

// ExperienceRecord is one interview-experience report as delivered by the
// collection layer.  Records are read-only inputs; the engine never mutates
// them.  Validation tags define the malformed-record boundary: a record
// missing company, date, or text is skipped and tallied, never fatal.
type ExperienceRecord struct {
	ID             string    `json:"id"`
	Company        string    `json:"company" validate:"required"`
	Role           string    `json:"role,omitempty"`
	Date           time.Time `json:"date" validate:"required"`
	RawText        string    `json:"raw_text" validate:"required"`
	Outcome        Outcome   `json:"outcome,omitempty" validate:"omitempty,oneof=success fail unknown"`
	SourcePlatform string    `json:"source_platform,omitempty"`
	SourceURL      string    `json:"source_url,omitempty"`
}

// NormalizedDocument is the per-run tokenized form of one record.  It is
// derived by the normalizer and discarded after extraction and scoring.
type NormalizedDocument struct {
	Tokens  []string  `json:"tokens"`
	Company string    `json:"company"`
	Date    time.Time `json:"date"`
	Outcome Outcome   `json:"outcome"`
}

// Empty reports whether the document carries no usable tokens.
func (d NormalizedDocument) Empty() bool {
	return len(d.Tokens) == 0
}

// Topic is one clustered subject area extracted from a company's corpus.
// A Topic belongs to exactly one (company, run); results are never mutated
// across runs.  MemberTerms is always sorted ascending so identical inputs
// produce byte-identical output.
type Topic struct {
	ID                    string        `json:"id"`
	RepresentativeTerm    string        `json:"representative_term"`
	MemberTerms           []string      `json:"member_terms"`
	Category              Category      `json:"category"`
	WeightedFrequency     float64       `json:"weighted_frequency"`
	PriorityLevel         PriorityLevel `json:"priority_level"`
	ConfidenceScore       float64       `json:"confidence_score"`
	DifficultyScore       float64       `json:"difficulty_score"`
	TimeWeightedRelevance float64       `json:"time_weighted_relevance"`
	SampleSize            int           `json:"sample_size"`
	SuccessCorrelation    float64       `json:"success_correlation"`
}

// HasMember reports whether term is one of the topic's member terms.
func (t Topic) HasMember(term string) bool {
	for _, m := range t.MemberTerms {
		if m == term {
			return true
		}
	}
	return false
}

// TopicID builds the deterministic topic identifier from category and
// representative term.  Identical inputs must yield identical IDs across
// runs, so no randomness is involved.
func TopicID(category Category, representative string) string {
	slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(representative)), " ", "-")
	return string(category) + "/" + slug
}

// SortTerms returns a sorted copy of terms, the canonical member-term order.
func SortTerms(terms []string) []string {
	out := make([]string, len(terms))
	copy(out, terms)
	sort.Strings(out)
	return out
}

// TrendResult is the outcome of the monotonic-trend test for one topic.
type TrendResult struct {
	TopicID     string         `json:"topic_id"`
	Direction   TrendDirection `json:"direction"`
	Strength    float64        `json:"strength"`
	PValue      float64        `json:"p_value"`
	Significant bool           `json:"significant"`
	Buckets     int            `json:"buckets"`
}

// Recommendation is one ranked study suggestion.  Immutable output.
type Recommendation struct {
	Topic          Topic    `json:"topic"`
	PriorityScore  float64  `json:"priority_score"`
	EstimatedHours float64  `json:"estimated_hours"`
	Strategies     []string `json:"strategies"`
}

// DataQualityLevel grades how much trust a run's corpus deserves.
type DataQualityLevel string

const (
	QualityInsufficient DataQualityLevel = "INSUFFICIENT"
	QualityLow          DataQualityLevel = "LOW"
	QualityModerate     DataQualityLevel = "MODERATE"
	QualityHigh         DataQualityLevel = "HIGH"
)

// DataQuality summarizes the statistical usability of a run's corpus.
type DataQuality struct {
	SampleSize      int              `json:"sample_size"`
	TimeSpanDays    int              `json:"time_span_days"`
	OutcomeCoverage float64          `json:"outcome_coverage"`
	Level           DataQualityLevel `json:"level"`
}

// StudyPlan splits the ranked recommendations into an immediate block and a
// secondary block with a total hour estimate.
type StudyPlan struct {
	Immediate  []Recommendation `json:"immediate"`
	Secondary  []Recommendation `json:"secondary"`
	TotalHours float64          `json:"total_hours"`
}

// RunReport is the complete result of one (company, run) analysis, including
// the skip tally required for malformed-record accounting.
type RunReport struct {
	RunID           string           `json:"run_id"`
	Company         string           `json:"company"`
	GeneratedAt     time.Time        `json:"generated_at"`
	DocumentCount   int              `json:"document_count"`
	SkippedRecords  int              `json:"skipped_records"`
	SkipReasons     map[string]int   `json:"skip_reasons,omitempty"`
	DataQuality     DataQuality      `json:"data_quality"`
	Topics          []Topic          `json:"topics"`
	Trends          []TrendResult    `json:"trends,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
	StudyPlan       StudyPlan        `json:"study_plan"`
}

// NewRunID returns a fresh UUID v4 string for run metadata.  Run IDs are the
// only non-deterministic output field; analytic results never depend on them.
func NewRunID() string {
	return uuid.NewString()
}

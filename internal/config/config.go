// Package config provides configuration loading, defaults, and validation
// for the interview-intel analytics engine.  The file-level structs here
// mirror the per-package tuning knobs of the intelligence layer; the engine
// facade maps them onto each package's own Config at construction time.
package config

import (
	"fmt"
	"math"

	"github.com/prepwise/interview-intel/internal/infrastructure/monitoring/logging"
	"github.com/prepwise/interview-intel/pkg/types/insight"
)

// Config is the root configuration for the engine and its CLI.
type Config struct {
	Engine   EngineConfig      `mapstructure:"engine"`
	Taxonomy TaxonomyConfig    `mapstructure:"taxonomy"`
	Logging  logging.LogConfig `mapstructure:"logging"`
	Metrics  MetricsConfig     `mapstructure:"metrics"`
}

// EngineConfig groups the tunable parameters of each pipeline stage.
type EngineConfig struct {
	Normalizer NormalizerConfig `mapstructure:"normalizer"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Trend      TrendConfig      `mapstructure:"trend"`
	Insights   InsightsConfig   `mapstructure:"insights"`
	Runtime    RuntimeConfig    `mapstructure:"runtime"`
}

// NormalizerConfig tunes tokenization.
type NormalizerConfig struct {
	// MinTokenLength drops tokens shorter than this unless whitelisted.
	MinTokenLength int `mapstructure:"min_token_length"`

	// ExtraStopwords extends the built-in stopword set.
	ExtraStopwords []string `mapstructure:"extra_stopwords"`

	// ExtraKeepTerms extends the built-in technical whitelist that is exempt
	// from stopword and length filtering.
	ExtraKeepTerms []string `mapstructure:"extra_keep_terms"`
}

// ExtractionConfig tunes topic extraction and clustering.
type ExtractionConfig struct {
	// MinDocFrequency prunes non-taxonomy terms seen in fewer documents.
	MinDocFrequency int `mapstructure:"min_doc_frequency"`

	// MergeThreshold is the document-set Jaccard overlap at which two
	// non-taxonomy terms merge into one cluster.
	MergeThreshold float64 `mapstructure:"merge_threshold"`

	// SaturationPivot is the cluster-importance value at which the
	// weighted-frequency saturation factor reaches 0.5.
	SaturationPivot float64 `mapstructure:"saturation_pivot"`

	// MaxTopics caps the number of topics returned per run; 0 means no cap.
	MaxTopics int `mapstructure:"max_topics"`
}

// ScoringConfig tunes the statistical scorer.
type ScoringConfig struct {
	// HalfLifeDays sets the exponential time-decay half-life.
	HalfLifeDays float64 `mapstructure:"half_life_days"`

	// MinSampleSize is the sample size below which confidence is forced to 0.
	MinSampleSize int `mapstructure:"min_sample_size"`

	// ConfidenceLevel is the two-sided confidence level for the Student-t
	// critical value (0.95 → t at the 0.975 quantile).
	ConfidenceLevel float64 `mapstructure:"confidence_level"`

	// Difficulty blend weights.  They must sum to 1.
	KeywordWeight float64 `mapstructure:"keyword_weight"`
	RoundWeight   float64 `mapstructure:"round_weight"`
	DepthWeight   float64 `mapstructure:"depth_weight"`
	OutcomeWeight float64 `mapstructure:"outcome_weight"`

	// RoundCountPivot is the per-document round-marker count that maps to a
	// round sub-score of 1.
	RoundCountPivot float64 `mapstructure:"round_count_pivot"`

	// TechDepthPivot is the per-document distinct-taxonomy-term count that
	// maps to a depth sub-score of 1.
	TechDepthPivot float64 `mapstructure:"tech_depth_pivot"`

	// Priority-level blend and thresholds: level = bucket of
	// FrequencyBlend·(wf/100) + ConfidenceBlend·confidence.
	FrequencyBlend  float64 `mapstructure:"frequency_blend"`
	ConfidenceBlend float64 `mapstructure:"confidence_blend"`
	HighThreshold   float64 `mapstructure:"high_threshold"`
	MediumThreshold float64 `mapstructure:"medium_threshold"`
}

// TrendConfig tunes the monotonic-trend test.
type TrendConfig struct {
	// BucketMonths is the fixed bucket width for frequency series.
	BucketMonths int `mapstructure:"bucket_months"`

	// MinBuckets is the series length below which the test is skipped and
	// the topic reported STABLE.
	MinBuckets int `mapstructure:"min_buckets"`

	// SignificanceLevel is the p-value threshold for a significant trend.
	SignificanceLevel float64 `mapstructure:"significance_level"`

	// MinStrength is the |tau| below which the direction reports STABLE.
	MinStrength float64 `mapstructure:"min_strength"`
}

// InsightsConfig tunes recommendation ranking and the study-hours curve.
type InsightsConfig struct {
	// Priority score weights.  They must sum to 1.
	FrequencyWeight  float64 `mapstructure:"frequency_weight"`
	DifficultyWeight float64 `mapstructure:"difficulty_weight"`
	OutcomeWeight    float64 `mapstructure:"outcome_weight"`
	TrendWeight      float64 `mapstructure:"trend_weight"`

	// Study-hours curve: BaseHours × (1 + DifficultyFactor·difficulty) ×
	// (1 + BreadthFactor·ln(1 + memberTerms)).
	BaseHours        float64 `mapstructure:"base_hours"`
	DifficultyFactor float64 `mapstructure:"difficulty_factor"`
	BreadthFactor    float64 `mapstructure:"breadth_factor"`

	// Study plan block sizes.
	MaxImmediate int `mapstructure:"max_immediate"`
	MaxSecondary int `mapstructure:"max_secondary"`
}

// RuntimeConfig tunes batching and parallelism.
type RuntimeConfig struct {
	// BatchSize bounds how many documents are normalized and accumulated at
	// a time.
	BatchSize int `mapstructure:"batch_size"`

	// MaxConcurrentCompanies bounds parallel company analyses.
	MaxConcurrentCompanies int `mapstructure:"max_concurrent_companies"`
}

// TaxonomyConfig describes the domain taxonomy source.  When both Path and
// Categories are empty the built-in taxonomy is used.  The taxonomy is read
// once at startup and immutable afterwards.
type TaxonomyConfig struct {
	// Path optionally points at a standalone taxonomy YAML file.
	Path string `mapstructure:"path"`

	// Categories optionally defines the taxonomy inline.
	Categories []CategoryConfig `mapstructure:"categories"`
}

// CategoryConfig defines one category's weight multiplier and term families.
type CategoryConfig struct {
	Name       string         `mapstructure:"name"`
	Multiplier float64        `mapstructure:"multiplier"`
	Families   []FamilyConfig `mapstructure:"families"`
}

// FamilyConfig groups synonym terms under one canonical term.
type FamilyConfig struct {
	Canonical string   `mapstructure:"canonical"`
	Terms     []string `mapstructure:"terms"`
}

// MetricsConfig controls prometheus instrumentation.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// weightsSumToOne reports whether the given weights sum to 1 within epsilon.
func weightsSumToOne(weights ...float64) bool {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	return math.Abs(sum-1.0) < 1e-6
}

// Validate checks the configuration for structural and semantic problems.
// It must be called after ApplyDefaults; a validation failure at startup is
// fatal and no analysis run may execute.
func (c *Config) Validate() error {
	e := &c.Engine

	if e.Normalizer.MinTokenLength < 1 {
		return fmt.Errorf("normalizer.min_token_length must be >= 1, got %d", e.Normalizer.MinTokenLength)
	}

	if e.Extraction.MinDocFrequency < 1 {
		return fmt.Errorf("extraction.min_doc_frequency must be >= 1, got %d", e.Extraction.MinDocFrequency)
	}
	if e.Extraction.MergeThreshold <= 0 || e.Extraction.MergeThreshold > 1 {
		return fmt.Errorf("extraction.merge_threshold must be in (0,1], got %g", e.Extraction.MergeThreshold)
	}
	if e.Extraction.SaturationPivot <= 0 {
		return fmt.Errorf("extraction.saturation_pivot must be positive, got %g", e.Extraction.SaturationPivot)
	}
	if e.Extraction.MaxTopics < 0 {
		return fmt.Errorf("extraction.max_topics must be >= 0, got %d", e.Extraction.MaxTopics)
	}

	if e.Scoring.HalfLifeDays <= 0 {
		return fmt.Errorf("scoring.half_life_days must be positive, got %g", e.Scoring.HalfLifeDays)
	}
	if e.Scoring.MinSampleSize < 2 {
		return fmt.Errorf("scoring.min_sample_size must be >= 2, got %d", e.Scoring.MinSampleSize)
	}
	if e.Scoring.ConfidenceLevel <= 0 || e.Scoring.ConfidenceLevel >= 1 {
		return fmt.Errorf("scoring.confidence_level must be in (0,1), got %g", e.Scoring.ConfidenceLevel)
	}
	if !weightsSumToOne(e.Scoring.KeywordWeight, e.Scoring.RoundWeight, e.Scoring.DepthWeight, e.Scoring.OutcomeWeight) {
		return fmt.Errorf("scoring difficulty weights must sum to 1, got %g+%g+%g+%g",
			e.Scoring.KeywordWeight, e.Scoring.RoundWeight, e.Scoring.DepthWeight, e.Scoring.OutcomeWeight)
	}
	if !weightsSumToOne(e.Scoring.FrequencyBlend, e.Scoring.ConfidenceBlend) {
		return fmt.Errorf("scoring priority blend must sum to 1, got %g+%g",
			e.Scoring.FrequencyBlend, e.Scoring.ConfidenceBlend)
	}
	if e.Scoring.RoundCountPivot <= 0 || e.Scoring.TechDepthPivot <= 0 {
		return fmt.Errorf("scoring pivots must be positive, got round=%g depth=%g",
			e.Scoring.RoundCountPivot, e.Scoring.TechDepthPivot)
	}
	if e.Scoring.HighThreshold <= e.Scoring.MediumThreshold {
		return fmt.Errorf("scoring.high_threshold (%g) must exceed medium_threshold (%g)",
			e.Scoring.HighThreshold, e.Scoring.MediumThreshold)
	}

	if e.Trend.BucketMonths < 1 {
		return fmt.Errorf("trend.bucket_months must be >= 1, got %d", e.Trend.BucketMonths)
	}
	if e.Trend.MinBuckets < 2 {
		return fmt.Errorf("trend.min_buckets must be >= 2, got %d", e.Trend.MinBuckets)
	}
	if e.Trend.SignificanceLevel <= 0 || e.Trend.SignificanceLevel >= 1 {
		return fmt.Errorf("trend.significance_level must be in (0,1), got %g", e.Trend.SignificanceLevel)
	}
	if e.Trend.MinStrength < 0 || e.Trend.MinStrength >= 1 {
		return fmt.Errorf("trend.min_strength must be in [0,1), got %g", e.Trend.MinStrength)
	}

	if !weightsSumToOne(e.Insights.FrequencyWeight, e.Insights.DifficultyWeight, e.Insights.OutcomeWeight, e.Insights.TrendWeight) {
		return fmt.Errorf("insights priority weights must sum to 1, got %g+%g+%g+%g",
			e.Insights.FrequencyWeight, e.Insights.DifficultyWeight, e.Insights.OutcomeWeight, e.Insights.TrendWeight)
	}
	if e.Insights.BaseHours <= 0 {
		return fmt.Errorf("insights.base_hours must be positive, got %g", e.Insights.BaseHours)
	}
	if e.Insights.DifficultyFactor < 0 || e.Insights.BreadthFactor < 0 {
		return fmt.Errorf("insights hour factors must be >= 0, got difficulty=%g breadth=%g",
			e.Insights.DifficultyFactor, e.Insights.BreadthFactor)
	}
	if e.Insights.MaxImmediate < 1 || e.Insights.MaxSecondary < 0 {
		return fmt.Errorf("insights plan sizes invalid: immediate=%d secondary=%d",
			e.Insights.MaxImmediate, e.Insights.MaxSecondary)
	}

	if e.Runtime.BatchSize < 1 {
		return fmt.Errorf("runtime.batch_size must be >= 1, got %d", e.Runtime.BatchSize)
	}
	if e.Runtime.MaxConcurrentCompanies < 1 {
		return fmt.Errorf("runtime.max_concurrent_companies must be >= 1, got %d", e.Runtime.MaxConcurrentCompanies)
	}

	return c.Taxonomy.validate()
}

// validate checks inline taxonomy data.  Deep semantic validation (duplicate
// canonical terms, empty lookup) happens in the taxonomy package when the
// lookup table is built.
func (t *TaxonomyConfig) validate() error {
	for i, cat := range t.Categories {
		if cat.Name == "" {
			return fmt.Errorf("taxonomy.categories[%d]: name must not be empty", i)
		}
		if _, ok := insight.ParseCategory(cat.Name); !ok {
			return fmt.Errorf("taxonomy.categories[%d]: unknown category %q", i, cat.Name)
		}
		if cat.Multiplier <= 0 {
			return fmt.Errorf("taxonomy.categories[%d] (%s): multiplier must be positive, got %g", i, cat.Name, cat.Multiplier)
		}
		for j, fam := range cat.Families {
			if fam.Canonical == "" {
				return fmt.Errorf("taxonomy.categories[%d].families[%d]: canonical term must not be empty", i, j)
			}
			if len(fam.Terms) == 0 {
				return fmt.Errorf("taxonomy.categories[%d].families[%d] (%s): terms must not be empty", i, j, fam.Canonical)
			}
		}
	}
	return nil
}

package config

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultMinTokenLength = 2

	DefaultMinDocFrequency = 2
	DefaultMergeThreshold  = 0.6
	DefaultSaturationPivot = 2.0
	DefaultMaxTopics       = 50

	// DefaultHalfLifeDays gives the two-year half-life for time decay.
	DefaultHalfLifeDays    = 730.0
	DefaultMinSampleSize   = 3
	DefaultConfidenceLevel = 0.95

	DefaultKeywordWeight = 0.40
	DefaultRoundWeight   = 0.25
	DefaultDepthWeight   = 0.25
	DefaultOutcomeWeight = 0.10

	DefaultRoundCountPivot = 6.0
	DefaultTechDepthPivot  = 10.0

	DefaultFrequencyBlend  = 0.70
	DefaultConfidenceBlend = 0.30
	DefaultHighThreshold   = 0.66
	DefaultMediumThreshold = 0.33

	DefaultBucketMonths      = 3
	DefaultMinBuckets        = 4
	DefaultSignificanceLevel = 0.05
	DefaultMinStrength       = 0.1

	DefaultFrequencyWeight       = 0.40
	DefaultDifficultyWeight      = 0.30
	DefaultOutcomePriorityWeight = 0.20
	DefaultTrendWeight           = 0.10

	DefaultBaseHours        = 4.0
	DefaultDifficultyFactor = 2.0
	DefaultBreadthFactor    = 0.5
	DefaultMaxImmediate     = 3
	DefaultMaxSecondary     = 3

	DefaultBatchSize              = 50
	DefaultMaxConcurrentCompanies = 4

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "prepintel"
)

// ApplyDefaults fills zero-value fields in cfg with the engine defaults.
// Explicitly configured non-zero values always win.  Weight groups are
// all-or-nothing: when every weight in a group is zero the group is treated
// as unset and all of its defaults are applied, since a single explicit zero
// weight cannot be told apart from an omitted one.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	e := &cfg.Engine

	// ── Normalizer ───────────────────────────────────────────────────────────
	if e.Normalizer.MinTokenLength == 0 {
		e.Normalizer.MinTokenLength = DefaultMinTokenLength
	}

	// ── Extraction ───────────────────────────────────────────────────────────
	if e.Extraction.MinDocFrequency == 0 {
		e.Extraction.MinDocFrequency = DefaultMinDocFrequency
	}
	if e.Extraction.MergeThreshold == 0 {
		e.Extraction.MergeThreshold = DefaultMergeThreshold
	}
	if e.Extraction.SaturationPivot == 0 {
		e.Extraction.SaturationPivot = DefaultSaturationPivot
	}
	if e.Extraction.MaxTopics == 0 {
		e.Extraction.MaxTopics = DefaultMaxTopics
	}

	// ── Scoring ──────────────────────────────────────────────────────────────
	if e.Scoring.HalfLifeDays == 0 {
		e.Scoring.HalfLifeDays = DefaultHalfLifeDays
	}
	if e.Scoring.MinSampleSize == 0 {
		e.Scoring.MinSampleSize = DefaultMinSampleSize
	}
	if e.Scoring.ConfidenceLevel == 0 {
		e.Scoring.ConfidenceLevel = DefaultConfidenceLevel
	}
	if e.Scoring.KeywordWeight == 0 && e.Scoring.RoundWeight == 0 &&
		e.Scoring.DepthWeight == 0 && e.Scoring.OutcomeWeight == 0 {
		e.Scoring.KeywordWeight = DefaultKeywordWeight
		e.Scoring.RoundWeight = DefaultRoundWeight
		e.Scoring.DepthWeight = DefaultDepthWeight
		e.Scoring.OutcomeWeight = DefaultOutcomeWeight
	}
	if e.Scoring.RoundCountPivot == 0 {
		e.Scoring.RoundCountPivot = DefaultRoundCountPivot
	}
	if e.Scoring.TechDepthPivot == 0 {
		e.Scoring.TechDepthPivot = DefaultTechDepthPivot
	}
	if e.Scoring.FrequencyBlend == 0 && e.Scoring.ConfidenceBlend == 0 {
		e.Scoring.FrequencyBlend = DefaultFrequencyBlend
		e.Scoring.ConfidenceBlend = DefaultConfidenceBlend
	}
	if e.Scoring.HighThreshold == 0 {
		e.Scoring.HighThreshold = DefaultHighThreshold
	}
	if e.Scoring.MediumThreshold == 0 {
		e.Scoring.MediumThreshold = DefaultMediumThreshold
	}

	// ── Trend ────────────────────────────────────────────────────────────────
	if e.Trend.BucketMonths == 0 {
		e.Trend.BucketMonths = DefaultBucketMonths
	}
	if e.Trend.MinBuckets == 0 {
		e.Trend.MinBuckets = DefaultMinBuckets
	}
	if e.Trend.SignificanceLevel == 0 {
		e.Trend.SignificanceLevel = DefaultSignificanceLevel
	}
	if e.Trend.MinStrength == 0 {
		e.Trend.MinStrength = DefaultMinStrength
	}

	// ── Insights ─────────────────────────────────────────────────────────────
	if e.Insights.FrequencyWeight == 0 && e.Insights.DifficultyWeight == 0 &&
		e.Insights.OutcomeWeight == 0 && e.Insights.TrendWeight == 0 {
		e.Insights.FrequencyWeight = DefaultFrequencyWeight
		e.Insights.DifficultyWeight = DefaultDifficultyWeight
		e.Insights.OutcomeWeight = DefaultOutcomePriorityWeight
		e.Insights.TrendWeight = DefaultTrendWeight
	}
	if e.Insights.BaseHours == 0 {
		e.Insights.BaseHours = DefaultBaseHours
	}
	if e.Insights.DifficultyFactor == 0 {
		e.Insights.DifficultyFactor = DefaultDifficultyFactor
	}
	if e.Insights.BreadthFactor == 0 {
		e.Insights.BreadthFactor = DefaultBreadthFactor
	}
	if e.Insights.MaxImmediate == 0 {
		e.Insights.MaxImmediate = DefaultMaxImmediate
	}
	if e.Insights.MaxSecondary == 0 {
		e.Insights.MaxSecondary = DefaultMaxSecondary
	}

	// ── Runtime ──────────────────────────────────────────────────────────────
	if e.Runtime.BatchSize == 0 {
		e.Runtime.BatchSize = DefaultBatchSize
	}
	if e.Runtime.MaxConcurrentCompanies == 0 {
		e.Runtime.MaxConcurrentCompanies = DefaultMaxConcurrentCompanies
	}

	// ── Logging ──────────────────────────────────────────────────────────────
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}

	// ── Metrics ──────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
}

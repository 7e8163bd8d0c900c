// Package insight is the public entry point of the interview-intel engine.
// It assembles the pipeline stages from a validated configuration and
// exposes both the end-to-end analysis operations and the individual stages
// for callers that need finer control.
package insight

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	appinsight "github.com/prepwise/interview-intel/internal/application/insight"
	"github.com/prepwise/interview-intel/internal/config"
	"github.com/prepwise/interview-intel/internal/domain/taxonomy"
	"github.com/prepwise/interview-intel/internal/infrastructure/monitoring/logging"
	"github.com/prepwise/interview-intel/internal/intelligence/common"
	"github.com/prepwise/interview-intel/internal/intelligence/extractor"
	"github.com/prepwise/interview-intel/internal/intelligence/insights"
	"github.com/prepwise/interview-intel/internal/intelligence/normalizer"
	"github.com/prepwise/interview-intel/internal/intelligence/scoring"
	"github.com/prepwise/interview-intel/internal/intelligence/trend"
	"github.com/prepwise/interview-intel/pkg/errors"
	types "github.com/prepwise/interview-intel/pkg/types/insight"
)

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

type options struct {
	logger     logging.Logger
	registerer prometheus.Registerer
}

// Option customizes engine construction.
type Option func(*options)

// WithLogger overrides the logger built from the configuration's logging
// section.  Useful for tests and for embedding the engine in a host process
// that already owns a logger.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetricsRegisterer sets the prometheus registerer used when metrics are
// enabled.  Defaults to the global registerer.
func WithMetricsRegisterer(r prometheus.Registerer) Option {
	return func(o *options) { o.registerer = r }
}

// ---------------------------------------------------------------------------
// Engine
// ---------------------------------------------------------------------------

// Engine bundles the analysis pipeline behind one constructed-once value.
// An Engine is safe for concurrent use: all stages are stateless per call
// and share only the immutable taxonomy.
type Engine struct {
	cfg     *config.Config
	tax     *taxonomy.Taxonomy
	logger  logging.Logger
	norm    normalizer.Normalizer
	extract extractor.TopicExtractor
	score   scoring.TopicScorer
	trends  trend.TrendAnalyzer
	gen     insights.InsightsGenerator
	service appinsight.Service
}

// New builds an Engine from cfg.  A nil cfg gets the full defaults; a
// non-nil cfg must already be defaulted and is validated here, so a config
// loaded through the config package is accepted as-is.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = &config.Config{}
		config.ApplyDefaults(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "engine configuration invalid")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = logging.NewLogger(cfg.Logging)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "engine logger construction failed")
		}
	}

	var metrics common.AnalyticsMetrics
	if cfg.Metrics.Enabled {
		m, err := common.NewPrometheusAnalyticsMetrics(cfg.Metrics.Namespace, o.registerer)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "metrics registration failed")
		}
		metrics = m
	} else {
		metrics = common.NewNoopAnalyticsMetrics()
	}

	tax, err := BuildTaxonomy(cfg.Taxonomy)
	if err != nil {
		return nil, err
	}

	norm := normalizer.New(normalizer.Config{
		MinTokenLength: cfg.Engine.Normalizer.MinTokenLength,
		ExtraStopwords: cfg.Engine.Normalizer.ExtraStopwords,
		ExtraKeepTerms: cfg.Engine.Normalizer.ExtraKeepTerms,
	})
	stageLog := sugar{logger.Named("engine")}

	ext, err := extractor.NewTopicExtractor(tax, norm.NormalizePhrase, extractor.ExtractorConfig{
		MinDocFrequency: cfg.Engine.Extraction.MinDocFrequency,
		MergeThreshold:  cfg.Engine.Extraction.MergeThreshold,
		SaturationPivot: cfg.Engine.Extraction.SaturationPivot,
		MaxTopics:       cfg.Engine.Extraction.MaxTopics,
	}, metrics, stageLog)
	if err != nil {
		return nil, err
	}

	sc := cfg.Engine.Scoring
	scorer, err := scoring.NewTopicScorer(tax, norm.NormalizePhrase, scoring.ScorerConfig{
		HalfLifeDays:    sc.HalfLifeDays,
		MinSampleSize:   sc.MinSampleSize,
		ConfidenceLevel: sc.ConfidenceLevel,
		KeywordWeight:   sc.KeywordWeight,
		RoundWeight:     sc.RoundWeight,
		DepthWeight:     sc.DepthWeight,
		OutcomeWeight:   sc.OutcomeWeight,
		RoundCountPivot: sc.RoundCountPivot,
		TechDepthPivot:  sc.TechDepthPivot,
		FrequencyBlend:  sc.FrequencyBlend,
		ConfidenceBlend: sc.ConfidenceBlend,
		HighThreshold:   sc.HighThreshold,
		MediumThreshold: sc.MediumThreshold,
		BatchSize:       cfg.Engine.Runtime.BatchSize,
	}, metrics, stageLog)
	if err != nil {
		return nil, err
	}

	trendAnalyzer, err := trend.NewTrendAnalyzer(norm.NormalizePhrase, trend.AnalyzerConfig{
		BucketMonths:      cfg.Engine.Trend.BucketMonths,
		MinBuckets:        cfg.Engine.Trend.MinBuckets,
		SignificanceLevel: cfg.Engine.Trend.SignificanceLevel,
		MinStrength:       cfg.Engine.Trend.MinStrength,
	}, metrics, stageLog)
	if err != nil {
		return nil, err
	}

	ic := cfg.Engine.Insights
	gen, err := insights.NewInsightsGenerator(insights.GeneratorConfig{
		FrequencyWeight:  ic.FrequencyWeight,
		DifficultyWeight: ic.DifficultyWeight,
		OutcomeWeight:    ic.OutcomeWeight,
		TrendWeight:      ic.TrendWeight,
		BaseHours:        ic.BaseHours,
		DifficultyFactor: ic.DifficultyFactor,
		BreadthFactor:    ic.BreadthFactor,
		MaxImmediate:     ic.MaxImmediate,
		MaxSecondary:     ic.MaxSecondary,
	}, metrics, stageLog)
	if err != nil {
		return nil, err
	}

	service, err := appinsight.NewService(appinsight.ServiceConfig{
		BatchSize:              cfg.Engine.Runtime.BatchSize,
		MaxConcurrentCompanies: cfg.Engine.Runtime.MaxConcurrentCompanies,
	}, appinsight.Deps{
		Normalizer: norm,
		Extractor:  ext,
		Scorer:     scorer,
		Trends:     trendAnalyzer,
		Insights:   gen,
		Metrics:    metrics,
		Logger:     logger.Named("service"),
	})
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:     cfg,
		tax:     tax,
		logger:  logger,
		norm:    norm,
		extract: ext,
		score:   scorer,
		trends:  trendAnalyzer,
		gen:     gen,
		service: service,
	}, nil
}

// BuildTaxonomy resolves a taxonomy source in priority order: standalone
// file, inline config, built-in curriculum.
func BuildTaxonomy(tc config.TaxonomyConfig) (*taxonomy.Taxonomy, error) {
	switch {
	case tc.Path != "":
		cats, err := config.LoadTaxonomyFile(tc.Path)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeTaxonomyMissing, "taxonomy file load failed")
		}
		return taxonomy.New(categoryDefs(cats))
	case len(tc.Categories) > 0:
		return taxonomy.New(categoryDefs(tc.Categories))
	default:
		return taxonomy.Builtin(), nil
	}
}

func categoryDefs(cats []config.CategoryConfig) []taxonomy.CategoryDef {
	defs := make([]taxonomy.CategoryDef, 0, len(cats))
	for _, cat := range cats {
		category, _ := types.ParseCategory(cat.Name)
		def := taxonomy.CategoryDef{
			Category:   category,
			Multiplier: cat.Multiplier,
			Families:   make([]taxonomy.FamilyDef, 0, len(cat.Families)),
		}
		for _, fam := range cat.Families {
			def.Families = append(def.Families, taxonomy.FamilyDef{
				Canonical: fam.Canonical,
				Terms:     fam.Terms,
			})
		}
		defs = append(defs, def)
	}
	return defs
}

// ---------------------------------------------------------------------------
// End-to-end operations
// ---------------------------------------------------------------------------

// AnalyzeCompany runs the full pipeline over one company's records and
// returns the run report.  Malformed records are skipped and tallied.
func (e *Engine) AnalyzeCompany(ctx context.Context, company string, records []types.ExperienceRecord) (*types.RunReport, error) {
	return e.service.AnalyzeCompany(ctx, company, records)
}

// AnalyzeCompanies groups records by company and analyzes each group,
// returning reports ordered by company name.
func (e *Engine) AnalyzeCompanies(ctx context.Context, records []types.ExperienceRecord) ([]*types.RunReport, error) {
	return e.service.AnalyzeCompanies(ctx, records)
}

// ---------------------------------------------------------------------------
// Stage-level operations
// ---------------------------------------------------------------------------

// Normalize tokenizes records in order; output length equals input length.
func (e *Engine) Normalize(records []types.ExperienceRecord) []types.NormalizedDocument {
	return e.norm.NormalizeBatch(records)
}

// ExtractTopics clusters a normalized corpus into topics.
func (e *Engine) ExtractTopics(ctx context.Context, docs []types.NormalizedDocument) ([]types.Topic, error) {
	return e.extract.Extract(ctx, docs)
}

// ScoreTopic fills the statistical fields of a single topic.
func (e *Engine) ScoreTopic(ctx context.Context, topic types.Topic, docs []types.NormalizedDocument) (types.Topic, error) {
	return e.score.ScoreTopic(ctx, topic, docs)
}

// ScoreTopics fills the statistical fields of extracted topics.
func (e *Engine) ScoreTopics(ctx context.Context, topics []types.Topic, docs []types.NormalizedDocument) ([]types.Topic, error) {
	return e.score.ScoreTopics(ctx, topics, docs)
}

// BuildTrendSeries buckets a topic's document share over time.
func (e *Engine) BuildTrendSeries(topic types.Topic, docs []types.NormalizedDocument) []float64 {
	return e.trends.BuildSeries(topic, docs)
}

// AnalyzeTrend runs the monotonic-trend test over a frequency series.
func (e *Engine) AnalyzeTrend(ctx context.Context, topic types.Topic, series []float64) (types.TrendResult, error) {
	return e.trends.AnalyzeTrend(ctx, topic, series)
}

// GenerateRecommendations ranks scored topics into study suggestions.
func (e *Engine) GenerateRecommendations(ctx context.Context, topics []types.Topic, trends []types.TrendResult) ([]types.Recommendation, error) {
	return e.gen.GenerateRecommendations(ctx, topics, trends)
}

// BuildStudyPlan splits ranked recommendations into plan blocks.
func (e *Engine) BuildStudyPlan(recs []types.Recommendation) types.StudyPlan {
	return e.gen.BuildStudyPlan(recs)
}

// Taxonomy exposes the immutable term taxonomy the engine was built with.
func (e *Engine) Taxonomy() *taxonomy.Taxonomy {
	return e.tax
}

// ---------------------------------------------------------------------------
// Logger adaptation
// ---------------------------------------------------------------------------

// sugar adapts the structured Logger onto the intelligence layer's
// keysAndValues seam.
type sugar struct {
	l logging.Logger
}

func (s sugar) Debug(msg string, kv ...interface{}) { s.l.Debug(msg, kvFields(kv)...) }
func (s sugar) Info(msg string, kv ...interface{})  { s.l.Info(msg, kvFields(kv)...) }
func (s sugar) Warn(msg string, kv ...interface{})  { s.l.Warn(msg, kvFields(kv)...) }
func (s sugar) Error(msg string, kv ...interface{}) { s.l.Error(msg, kvFields(kv)...) }

func kvFields(kv []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		fields = append(fields, logging.Any(key, kv[i+1]))
	}
	return fields
}

var _ common.Logger = sugar{}

// Package insight orchestrates the analysis pipeline for one or more
// companies: record validation, normalization, topic extraction, statistical
// scoring, trend detection, and recommendation ranking, folded into a
// RunReport per (company, run).  Runs are stateless and isolated; the only
// shared state is the read-only taxonomy held by the pipeline stages.
package insight

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

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

// timeNow is swapped out by tests that pin report timestamps.
var timeNow = time.Now

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// ServiceConfig holds the runtime tunables of the orchestration layer.
type ServiceConfig struct {
	// BatchSize bounds how many records are normalized per batch.
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// MaxConcurrentCompanies bounds parallel company analyses.
	MaxConcurrentCompanies int `json:"max_concurrent_companies" yaml:"max_concurrent_companies"`
}

// DefaultServiceConfig returns production-ready defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		BatchSize:              50,
		MaxConcurrentCompanies: 4,
	}
}

// Data-quality sample-size thresholds.
const (
	qualityLowFloor      = 3
	qualityModerateFloor = 10
	qualityHighFloor     = 25
)

// Skip-reason labels tallied in RunReport.SkipReasons.
const (
	SkipReasonMissingCompany  = "missing_company"
	SkipReasonMissingDate     = "missing_date"
	SkipReasonEmptyText       = "empty_text"
	SkipReasonInvalidRecord   = "invalid_record"
	SkipReasonCompanyMismatch = "company_mismatch"
)

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

// Service is the application-facing entry point for analysis runs.
//
// Malformed records are skipped and tallied, never fatal; an empty or fully
// skipped record set still produces a (mostly empty) RunReport.  Errors are
// returned only for invalid arguments or context cancellation.
type Service interface {
	// AnalyzeCompany runs the full pipeline over one company's records.
	AnalyzeCompany(ctx context.Context, company string, records []types.ExperienceRecord) (*types.RunReport, error)

	// AnalyzeCompanies groups records by company and analyzes each group,
	// concurrently up to the configured limit.  Reports are ordered by
	// company name.  Records with a blank company belong to no group and
	// therefore to no report's skip tally; they are counted in metrics
	// under missing_company and logged with a warning.
	AnalyzeCompanies(ctx context.Context, records []types.ExperienceRecord) ([]*types.RunReport, error)
}

// Deps carries the pipeline stages the service coordinates.  Metrics and
// Logger may be nil; the stages themselves are required.
type Deps struct {
	Normalizer normalizer.Normalizer
	Extractor  extractor.TopicExtractor
	Scorer     scoring.TopicScorer
	Trends     trend.TrendAnalyzer
	Insights   insights.InsightsGenerator
	Metrics    common.AnalyticsMetrics
	Logger     logging.Logger
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type service struct {
	config   ServiceConfig
	deps     Deps
	runner   *common.BatchRunner[types.ExperienceRecord, types.NormalizedDocument]
	validate *validator.Validate
}

// NewService wires the pipeline stages into an orchestrator.
func NewService(config ServiceConfig, deps Deps) (Service, error) {
	switch {
	case deps.Normalizer == nil:
		return nil, errors.InvalidParam("service requires a normalizer")
	case deps.Extractor == nil:
		return nil, errors.InvalidParam("service requires a topic extractor")
	case deps.Scorer == nil:
		return nil, errors.InvalidParam("service requires a topic scorer")
	case deps.Trends == nil:
		return nil, errors.InvalidParam("service requires a trend analyzer")
	case deps.Insights == nil:
		return nil, errors.InvalidParam("service requires an insights generator")
	}
	if deps.Metrics == nil {
		deps.Metrics = common.NewNoopAnalyticsMetrics()
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}

	defaults := DefaultServiceConfig()
	if config.BatchSize < 1 {
		config.BatchSize = defaults.BatchSize
	}
	if config.MaxConcurrentCompanies < 1 {
		config.MaxConcurrentCompanies = defaults.MaxConcurrentCompanies
	}

	return &service{
		config:   config,
		deps:     deps,
		runner:   common.NewBatchRunner[types.ExperienceRecord, types.NormalizedDocument](config.BatchSize, 0, nil),
		validate: validator.New(),
	}, nil
}

// ---------------------------------------------------------------------------
// AnalyzeCompany
// ---------------------------------------------------------------------------

func (s *service) AnalyzeCompany(ctx context.Context, company string, records []types.ExperienceRecord) (*types.RunReport, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, errors.InvalidParam("company must not be empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := timeNow()
	log := s.deps.Logger.With(logging.String("company", company))

	accepted, skips := s.screenRecords(ctx, company, records)

	docs, err := s.normalize(ctx, accepted)
	if err != nil {
		return nil, err
	}

	topics, err := s.deps.Extractor.Extract(ctx, docs)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRunFailed, "topic extraction failed")
	}

	topics, err = s.deps.Scorer.ScoreTopics(ctx, topics, docs)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRunFailed, "statistical scoring failed")
	}

	trends, err := s.analyzeTrends(ctx, topics, docs)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRunFailed, "trend analysis failed")
	}

	recs, err := s.deps.Insights.GenerateRecommendations(ctx, topics, trends)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRunFailed, "recommendation generation failed")
	}

	report := &types.RunReport{
		RunID:           types.NewRunID(),
		Company:         company,
		GeneratedAt:     start.UTC(),
		DocumentCount:   len(docs),
		SkippedRecords:  skips.total(),
		SkipReasons:     skips.reasons,
		DataQuality:     assessDataQuality(docs),
		Topics:          topics,
		Trends:          trends,
		Recommendations: recs,
		StudyPlan:       s.deps.Insights.BuildStudyPlan(recs),
	}

	elapsed := float64(time.Since(start).Microseconds()) / 1000.0
	s.deps.Metrics.RecordCompanyAnalysis(ctx, &common.AnalysisMetricParams{
		Company:         company,
		TotalRecords:    len(records),
		AnalyzedRecords: len(docs),
		SkippedRecords:  report.SkippedRecords,
		Quality:         string(report.DataQuality.Level),
		DurationMs:      elapsed,
	})
	log.Info("company analysis complete",
		logging.Int("records", len(records)),
		logging.Int("documents", len(docs)),
		logging.Int("skipped", report.SkippedRecords),
		logging.Int("topics", len(topics)),
		logging.Int("recommendations", len(recs)),
		logging.String("quality", string(report.DataQuality.Level)),
		logging.Float64("duration_ms", elapsed),
	)
	return report, nil
}

// ---------------------------------------------------------------------------
// AnalyzeCompanies
// ---------------------------------------------------------------------------

func (s *service) AnalyzeCompanies(ctx context.Context, records []types.ExperienceRecord) ([]*types.RunReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	groups := make(map[string][]types.ExperienceRecord)
	orphans := 0
	for _, rec := range records {
		company := strings.TrimSpace(rec.Company)
		if company == "" {
			s.deps.Metrics.RecordSkippedRecord(ctx, SkipReasonMissingCompany)
			orphans++
			continue
		}
		groups[company] = append(groups[company], rec)
	}
	if orphans > 0 {
		s.deps.Logger.Warn("records without a company dropped before grouping",
			logging.Int("records", orphans))
	}

	companies := make([]string, 0, len(groups))
	for company := range groups {
		companies = append(companies, company)
	}
	sort.Strings(companies)

	reports := make([]*types.RunReport, len(companies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxConcurrentCompanies)
	for i, company := range companies {
		i, company := i, company
		g.Go(func() error {
			report, err := s.AnalyzeCompany(gctx, company, groups[company])
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// ---------------------------------------------------------------------------
// Record screening
// ---------------------------------------------------------------------------

// skipTally counts dropped records per reason.
type skipTally struct {
	reasons map[string]int
}

func (t *skipTally) add(reason string) {
	if t.reasons == nil {
		t.reasons = make(map[string]int)
	}
	t.reasons[reason]++
}

func (t *skipTally) total() int {
	n := 0
	for _, c := range t.reasons {
		n += c
	}
	return n
}

// screenRecords drops malformed or mismatched records and tallies each drop.
// Screening never fails; a fully dropped input yields an empty accepted set.
func (s *service) screenRecords(ctx context.Context, company string, records []types.ExperienceRecord) ([]types.ExperienceRecord, skipTally) {
	accepted := make([]types.ExperienceRecord, 0, len(records))
	var skips skipTally

	for _, rec := range records {
		reason, ok := s.screenRecord(company, rec)
		if !ok {
			skips.add(reason)
			s.deps.Metrics.RecordSkippedRecord(ctx, reason)
			s.deps.Logger.Debug("record skipped",
				logging.String("company", company),
				logging.String("record_id", rec.ID),
				logging.String("reason", reason),
			)
			continue
		}
		accepted = append(accepted, rec)
	}
	return accepted, skips
}

// screenRecord classifies one record; the returned reason is meaningful only
// when ok is false.
func (s *service) screenRecord(company string, rec types.ExperienceRecord) (reason string, ok bool) {
	switch {
	case strings.TrimSpace(rec.Company) == "":
		return SkipReasonMissingCompany, false
	case !strings.EqualFold(strings.TrimSpace(rec.Company), company):
		return SkipReasonCompanyMismatch, false
	case rec.Date.IsZero():
		return SkipReasonMissingDate, false
	case strings.TrimSpace(rec.RawText) == "":
		return SkipReasonEmptyText, false
	}
	if err := s.validate.Struct(rec); err != nil {
		return SkipReasonInvalidRecord, false
	}
	return "", true
}

// ---------------------------------------------------------------------------
// Pipeline stages
// ---------------------------------------------------------------------------

// normalize tokenizes accepted records in fixed-size batches.  Normalization
// itself cannot fail, so every accepted record yields a document, in input
// order; only context cancellation aborts.
func (s *service) normalize(ctx context.Context, records []types.ExperienceRecord) ([]types.NormalizedDocument, error) {
	if len(records) == 0 {
		return []types.NormalizedDocument{}, nil
	}

	result, err := s.runner.Run(ctx, records, func(_ context.Context, rec types.ExperienceRecord) (types.NormalizedDocument, error) {
		return s.deps.Normalizer.Normalize(rec), nil
	})
	if err != nil {
		return nil, err
	}
	return result.Succeeded(), nil
}

func (s *service) analyzeTrends(ctx context.Context, topics []types.Topic, docs []types.NormalizedDocument) ([]types.TrendResult, error) {
	if len(topics) == 0 {
		return []types.TrendResult{}, nil
	}

	trends := make([]types.TrendResult, 0, len(topics))
	for _, topic := range topics {
		series := s.deps.Trends.BuildSeries(topic, docs)
		result, err := s.deps.Trends.AnalyzeTrend(ctx, topic, series)
		if err != nil {
			return nil, err
		}
		trends = append(trends, result)
	}
	return trends, nil
}

// ---------------------------------------------------------------------------
// Data quality
// ---------------------------------------------------------------------------

// assessDataQuality grades the statistical usability of a run's corpus from
// sample size, covered time span, and outcome coverage.
func assessDataQuality(docs []types.NormalizedDocument) types.DataQuality {
	q := types.DataQuality{SampleSize: len(docs)}

	var earliest, latest time.Time
	known := 0
	for i := range docs {
		if docs[i].Outcome.Known() {
			known++
		}
		d := docs[i].Date
		if d.IsZero() {
			continue
		}
		if earliest.IsZero() || d.Before(earliest) {
			earliest = d
		}
		if latest.IsZero() || d.After(latest) {
			latest = d
		}
	}
	if !earliest.IsZero() {
		q.TimeSpanDays = int(latest.Sub(earliest).Hours() / 24)
	}
	if len(docs) > 0 {
		q.OutcomeCoverage = float64(known) / float64(len(docs))
	}

	switch {
	case q.SampleSize < qualityLowFloor:
		q.Level = types.QualityInsufficient
	case q.SampleSize < qualityModerateFloor:
		q.Level = types.QualityLow
	case q.SampleSize < qualityHighFloor:
		q.Level = types.QualityModerate
	default:
		q.Level = types.QualityHigh
	}
	return q
}

var _ Service = (*service)(nil)

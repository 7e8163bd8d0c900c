// Package trend detects temporal shifts in topic importance.  Topic-frequency
// values are bucketed into fixed time windows and run through the
// Mann-Kendall monotonic-trend test; short series are reported STABLE rather
// than failing, per the insufficient-data policy.
package trend

import (
	"context"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/prepwise/interview-intel/internal/intelligence/common"
	"github.com/prepwise/interview-intel/pkg/errors"
	"github.com/prepwise/interview-intel/pkg/types/insight"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// AnalyzerConfig holds tuneable parameters for trend detection.
type AnalyzerConfig struct {
	// BucketMonths is the fixed width of each time bucket.
	BucketMonths int `json:"bucket_months" yaml:"bucket_months"`

	// MinBuckets is the series length below which the test is skipped and
	// the topic reported STABLE.
	MinBuckets int `json:"min_buckets" yaml:"min_buckets"`

	// SignificanceLevel is the p-value threshold for a significant trend.
	SignificanceLevel float64 `json:"significance_level" yaml:"significance_level"`

	// MinStrength is the |tau| below which the direction reports STABLE.
	MinStrength float64 `json:"min_strength" yaml:"min_strength"`
}

// DefaultAnalyzerConfig returns production-ready defaults: quarterly buckets,
// at least four of them, and the conventional 0.05 significance level.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		BucketMonths:      3,
		MinBuckets:        4,
		SignificanceLevel: 0.05,
		MinStrength:       0.1,
	}
}

// TokenizeFunc converts a phrase to the token form used for matching.
type TokenizeFunc func(text string) []string

// ---------------------------------------------------------------------------
// TrendAnalyzer interface
// ---------------------------------------------------------------------------

// TrendAnalyzer runs the monotonic-trend test over bucketed topic-frequency
// series.
//
// AnalyzeTrend never fails on short input: fewer than MinBuckets values yield
// a STABLE, non-significant result.  BuildSeries derives the chronological
// bucket series for a topic from a document set.
type TrendAnalyzer interface {
	AnalyzeTrend(ctx context.Context, topic insight.Topic, series []float64) (insight.TrendResult, error)
	BuildSeries(topic insight.Topic, docs []insight.NormalizedDocument) []float64
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type trendAnalyzer struct {
	tokenize TokenizeFunc
	config   AnalyzerConfig
	metrics  common.AnalyticsMetrics
	logger   common.Logger
}

// NewTrendAnalyzer constructs an analyzer.  The tokenizer must be the one
// that produced the document token streams, so member-term matching in
// BuildSeries lines up.
func NewTrendAnalyzer(
	tokenize TokenizeFunc,
	config AnalyzerConfig,
	metrics common.AnalyticsMetrics,
	logger common.Logger,
) (TrendAnalyzer, error) {
	if tokenize == nil {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "trend analyzer requires a phrase tokenizer")
	}
	if metrics == nil {
		metrics = common.NewNoopAnalyticsMetrics()
	}
	if logger == nil {
		logger = common.NewNoopLogger()
	}

	defaults := DefaultAnalyzerConfig()
	if config.BucketMonths < 1 {
		config.BucketMonths = defaults.BucketMonths
	}
	if config.MinBuckets < 2 {
		config.MinBuckets = defaults.MinBuckets
	}
	if config.SignificanceLevel <= 0 || config.SignificanceLevel >= 1 {
		config.SignificanceLevel = defaults.SignificanceLevel
	}
	if config.MinStrength < 0 || config.MinStrength >= 1 {
		config.MinStrength = defaults.MinStrength
	}

	return &trendAnalyzer{
		tokenize: tokenize,
		config:   config,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// ---------------------------------------------------------------------------
// AnalyzeTrend
// ---------------------------------------------------------------------------

func (a *trendAnalyzer) AnalyzeTrend(ctx context.Context, topic insight.Topic, series []float64) (insight.TrendResult, error) {
	if err := ctx.Err(); err != nil {
		return insight.TrendResult{}, err
	}

	result := insight.TrendResult{
		TopicID:   topic.ID,
		Direction: insight.TrendStable,
		PValue:    1,
		Buckets:   len(series),
	}

	if len(series) < a.config.MinBuckets {
		a.logger.Debug("trend test skipped",
			"topic", topic.ID,
			"buckets", len(series),
			"min_buckets", a.config.MinBuckets,
		)
		a.metrics.RecordTrendDetection(ctx, string(result.Direction), false)
		return result, nil
	}

	s, tau := kendallStatistic(series)
	z := continuityCorrectedZ(s, series)
	p := twoSidedP(z)

	result.Strength = round4(math.Abs(tau))
	result.PValue = round4(p)
	result.Significant = p < a.config.SignificanceLevel

	switch {
	case s == 0 || math.Abs(tau) < a.config.MinStrength:
		result.Direction = insight.TrendStable
	case s > 0:
		result.Direction = insight.TrendRising
	default:
		result.Direction = insight.TrendFalling
	}

	a.metrics.RecordTrendDetection(ctx, string(result.Direction), result.Significant)
	return result, nil
}

// ---------------------------------------------------------------------------
// Mann-Kendall machinery
// ---------------------------------------------------------------------------

// kendallStatistic computes the Mann-Kendall S statistic and Kendall's tau
// over the chronologically ordered series.
func kendallStatistic(series []float64) (s int, tau float64) {
	n := len(series)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			switch {
			case series[j] > series[i]:
				s++
			case series[j] < series[i]:
				s--
			}
		}
	}
	pairs := n * (n - 1) / 2
	return s, float64(s) / float64(pairs)
}

// continuityCorrectedZ converts S into a standard-normal test statistic using
// the tie-corrected variance and the ±1 continuity correction.
func continuityCorrectedZ(s int, series []float64) float64 {
	variance := tieCorrectedVariance(series)
	if variance <= 0 {
		return 0
	}
	sd := math.Sqrt(variance)
	switch {
	case s > 0:
		return (float64(s) - 1) / sd
	case s < 0:
		return (float64(s) + 1) / sd
	default:
		return 0
	}
}

// tieCorrectedVariance is Var(S) = [n(n-1)(2n+5) - Σ t(t-1)(2t+5)] / 18,
// summing over tie groups of extent t.
func tieCorrectedVariance(series []float64) float64 {
	n := float64(len(series))
	variance := n * (n - 1) * (2*n + 5)

	counts := make(map[float64]int, len(series))
	for _, v := range series {
		counts[v]++
	}
	for _, t := range counts {
		if t > 1 {
			tf := float64(t)
			variance -= tf * (tf - 1) * (2*tf + 5)
		}
	}
	return variance / 18
}

// twoSidedP is 2·(1 − Φ(|z|)) under the standard normal.
func twoSidedP(z float64) float64 {
	if z == 0 {
		return 1
	}
	p := 2 * distuv.UnitNormal.Survival(math.Abs(z))
	if p > 1 {
		p = 1
	}
	return p
}

// ---------------------------------------------------------------------------
// Series construction
// ---------------------------------------------------------------------------

// BuildSeries buckets the document set into fixed BucketMonths windows
// anchored at the earliest document month and returns, chronologically, the
// share of each bucket's documents that reference the topic.  Buckets with no
// documents at all are treated as missing data and skipped rather than
// emitted as zero shares: a quarter nobody reported in says nothing about the
// topic, and a fabricated zero would bias the rank test.  The compressed
// series keeps chronological order, which is all the pairwise Mann-Kendall
// statistic reads; skipped buckets also do not count toward MinBuckets.
// Documents with a zero date are ignored.
func (a *trendAnalyzer) BuildSeries(topic insight.Topic, docs []insight.NormalizedDocument) []float64 {
	members := common.NewPhraseSet(topic.MemberTerms, func(s string) []string { return a.tokenize(s) })

	var earliest time.Time
	for i := range docs {
		if docs[i].Date.IsZero() {
			continue
		}
		if earliest.IsZero() || docs[i].Date.Before(earliest) {
			earliest = docs[i].Date
		}
	}
	if earliest.IsZero() {
		return nil
	}
	anchor := time.Date(earliest.Year(), earliest.Month(), 1, 0, 0, 0, 0, time.UTC)

	type bucketCount struct {
		total    int
		matching int
	}
	buckets := make(map[int]*bucketCount)
	for i := range docs {
		if docs[i].Date.IsZero() {
			continue
		}
		idx := monthsBetween(anchor, docs[i].Date) / a.config.BucketMonths
		b, ok := buckets[idx]
		if !ok {
			b = &bucketCount{}
			buckets[idx] = b
		}
		b.total++
		if matched, _ := members.Scan(docs[i].Tokens); len(matched) > 0 {
			b.matching++
		}
	}

	indices := make([]int, 0, len(buckets))
	for idx := range buckets {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	series := make([]float64, 0, len(indices))
	for _, idx := range indices {
		b := buckets[idx]
		series = append(series, round4(float64(b.matching)/float64(b.total)))
	}
	return series
}

// monthsBetween is the whole-month distance from anchor to t, floored at 0.
func monthsBetween(anchor, t time.Time) int {
	m := (t.Year()-anchor.Year())*12 + int(t.Month()) - int(anchor.Month())
	if m < 0 {
		return 0
	}
	return m
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}

var _ TrendAnalyzer = (*trendAnalyzer)(nil)

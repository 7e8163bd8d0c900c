// Package insights fuses scored topics and trend results into ranked study
// recommendations.  Ranking is total and deterministic: priority score
// descending, then confidence descending, then representative term ascending,
// with duplicate representative terms collapsed to their strongest entry.
package insights

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/prepwise/interview-intel/internal/intelligence/common"
	"github.com/prepwise/interview-intel/pkg/errors"
	"github.com/prepwise/interview-intel/pkg/types/insight"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// GeneratorConfig holds tuneable parameters for recommendation ranking and
// the study-hours curve.
type GeneratorConfig struct {
	// Priority score blend weights.  They should sum to 1.
	FrequencyWeight  float64 `json:"frequency_weight" yaml:"frequency_weight"`
	DifficultyWeight float64 `json:"difficulty_weight" yaml:"difficulty_weight"`
	OutcomeWeight    float64 `json:"outcome_weight" yaml:"outcome_weight"`
	TrendWeight      float64 `json:"trend_weight" yaml:"trend_weight"`

	// Study-hours curve: BaseHours × (1 + DifficultyFactor·difficulty) ×
	// (1 + BreadthFactor·ln(1 + memberTerms)), rounded to the half hour.
	BaseHours        float64 `json:"base_hours" yaml:"base_hours"`
	DifficultyFactor float64 `json:"difficulty_factor" yaml:"difficulty_factor"`
	BreadthFactor    float64 `json:"breadth_factor" yaml:"breadth_factor"`

	// Study plan block sizes.
	MaxImmediate int `json:"max_immediate" yaml:"max_immediate"`
	MaxSecondary int `json:"max_secondary" yaml:"max_secondary"`
}

// DefaultGeneratorConfig returns production-ready defaults.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		FrequencyWeight:  0.40,
		DifficultyWeight: 0.30,
		OutcomeWeight:    0.20,
		TrendWeight:      0.10,
		BaseHours:        4.0,
		DifficultyFactor: 2.0,
		BreadthFactor:    0.5,
		MaxImmediate:     3,
		MaxSecondary:     3,
	}
}

// Difficulty tiers for the strategy lines.
const (
	deepPracticeThreshold = 0.7
	refresherThreshold    = 0.3
)

// ---------------------------------------------------------------------------
// InsightsGenerator interface
// ---------------------------------------------------------------------------

// InsightsGenerator produces the ordered recommendation list and the study
// plan summary derived from it.
//
// GenerateRecommendations accepts a nil trend slice; topics then rank on the
// neutral trend signal.  An empty topic list yields an empty, non-nil slice.
type InsightsGenerator interface {
	GenerateRecommendations(ctx context.Context, topics []insight.Topic, trends []insight.TrendResult) ([]insight.Recommendation, error)
	BuildStudyPlan(recs []insight.Recommendation) insight.StudyPlan
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type insightsGenerator struct {
	config  GeneratorConfig
	metrics common.AnalyticsMetrics
	logger  common.Logger
}

// NewInsightsGenerator constructs a generator; zero or inconsistent config
// groups fall back to defaults.
func NewInsightsGenerator(
	config GeneratorConfig,
	metrics common.AnalyticsMetrics,
	logger common.Logger,
) (InsightsGenerator, error) {
	if metrics == nil {
		metrics = common.NewNoopAnalyticsMetrics()
	}
	if logger == nil {
		logger = common.NewNoopLogger()
	}

	defaults := DefaultGeneratorConfig()
	if config.FrequencyWeight+config.DifficultyWeight+config.OutcomeWeight+config.TrendWeight <= 0 {
		config.FrequencyWeight = defaults.FrequencyWeight
		config.DifficultyWeight = defaults.DifficultyWeight
		config.OutcomeWeight = defaults.OutcomeWeight
		config.TrendWeight = defaults.TrendWeight
	}
	if config.BaseHours <= 0 {
		config.BaseHours = defaults.BaseHours
	}
	if config.DifficultyFactor < 0 {
		config.DifficultyFactor = defaults.DifficultyFactor
	}
	if config.BreadthFactor < 0 {
		config.BreadthFactor = defaults.BreadthFactor
	}
	if config.MaxImmediate < 1 {
		config.MaxImmediate = defaults.MaxImmediate
	}
	if config.MaxSecondary < 0 {
		config.MaxSecondary = defaults.MaxSecondary
	}

	return &insightsGenerator{
		config:  config,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// ---------------------------------------------------------------------------
// GenerateRecommendations
// ---------------------------------------------------------------------------

func (g *insightsGenerator) GenerateRecommendations(ctx context.Context, topics []insight.Topic, trends []insight.TrendResult) ([]insight.Recommendation, error) {
	if len(topics) == 0 {
		return []insight.Recommendation{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validTopics(topics) {
		return nil, errors.New(errors.ErrCodeInsightsFailed, "topic list contains an empty representative term")
	}

	start := time.Now()

	trendByTopic := make(map[string]insight.TrendResult, len(trends))
	for _, tr := range trends {
		trendByTopic[tr.TopicID] = tr
	}

	recs := make([]insight.Recommendation, 0, len(topics))
	for _, topic := range topics {
		trend, hasTrend := trendByTopic[topic.ID]
		recs = append(recs, insight.Recommendation{
			Topic:          topic,
			PriorityScore:  g.priorityScore(topic, trend, hasTrend),
			EstimatedHours: g.estimatedHours(topic),
			Strategies:     g.strategies(topic, trend, hasTrend),
		})
	}

	sortRecommendations(recs)
	recs = dedupeByRepresentative(recs)

	g.logger.Debug("recommendations generated",
		"topics", len(topics),
		"recommendations", len(recs),
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	return recs, nil
}

func validTopics(topics []insight.Topic) bool {
	for i := range topics {
		if topics[i].RepresentativeTerm == "" {
			return false
		}
	}
	return true
}

// priorityScore blends normalized frequency, difficulty, outcome signal, and
// the trend signal into [0,1].
func (g *insightsGenerator) priorityScore(topic insight.Topic, trend insight.TrendResult, hasTrend bool) float64 {
	score := g.config.FrequencyWeight*clamp01(topic.WeightedFrequency/100) +
		g.config.DifficultyWeight*clamp01(topic.DifficultyScore) +
		g.config.OutcomeWeight*clamp01(topic.SuccessCorrelation) +
		g.config.TrendWeight*trendSignal(trend, hasTrend)
	return round4(clamp01(score))
}

// trendSignal is neutral 0.5 without a significant trend; a significant rise
// pushes it toward 1, a significant fall toward 0.
func trendSignal(trend insight.TrendResult, hasTrend bool) float64 {
	if !hasTrend || !trend.Significant {
		return 0.5
	}
	switch trend.Direction {
	case insight.TrendRising:
		return clamp01(0.5 + 0.5*trend.Strength)
	case insight.TrendFalling:
		return clamp01(0.5 - 0.5*trend.Strength)
	default:
		return 0.5
	}
}

// estimatedHours applies the fixed study-hours curve: monotonic in both
// difficulty and topic breadth, rounded to the nearest half hour.
func (g *insightsGenerator) estimatedHours(topic insight.Topic) float64 {
	breadth := float64(len(topic.MemberTerms))
	hours := g.config.BaseHours *
		(1 + g.config.DifficultyFactor*clamp01(topic.DifficultyScore)) *
		(1 + g.config.BreadthFactor*math.Log(1+breadth))
	return roundHalf(hours)
}

// ---------------------------------------------------------------------------
// Strategies
// ---------------------------------------------------------------------------

// categoryStrategies carries the per-category study lines, emitted in order.
var categoryStrategies = map[insight.Category][]string{
	insight.CategorySystemDesign: {
		"Work through end-to-end design exercises for %s under a time limit",
		"Review scalability trade-offs and failure modes relevant to %s",
	},
	insight.CategoryDataStructures: {
		"Implement %s from scratch and know the complexity of each operation",
		"Drill problems that require choosing %s under pressure",
	},
	insight.CategoryAlgorithms: {
		"Practice %s problems in increasing difficulty order",
		"Rehearse explaining the approach to %s out loud before coding",
	},
	insight.CategoryConcepts: {
		"Prepare concise explanations of %s with concrete examples",
	},
	insight.CategoryTechnologies: {
		"Refresh hands-on experience with %s and its common pitfalls",
	},
	insight.CategoryBehavioral: {
		"Prepare structured stories covering %s using real project outcomes",
	},
	insight.CategoryOther: {
		"Review recent interview reports mentioning %s for context",
	},
}

// strategies builds the ordered strategy list: category lines, then the
// difficulty-tier line, then the trend line when a significant rise exists.
func (g *insightsGenerator) strategies(topic insight.Topic, trend insight.TrendResult, hasTrend bool) []string {
	templates, ok := categoryStrategies[topic.Category]
	if !ok {
		templates = categoryStrategies[insight.CategoryOther]
	}

	out := make([]string, 0, len(templates)+2)
	for _, tpl := range templates {
		out = append(out, fmt.Sprintf(tpl, topic.RepresentativeTerm))
	}

	switch {
	case topic.DifficultyScore >= deepPracticeThreshold:
		out = append(out, fmt.Sprintf(
			"Schedule deep practice sessions: %s is reported as a high-difficulty area", topic.RepresentativeTerm))
	case topic.DifficultyScore <= refresherThreshold:
		out = append(out, fmt.Sprintf(
			"A short refresher should suffice: %s is reported as low difficulty", topic.RepresentativeTerm))
	}

	if hasTrend && trend.Significant && trend.Direction == insight.TrendRising {
		out = append(out, fmt.Sprintf(
			"Prioritize early: %s is appearing more often in recent interviews", topic.RepresentativeTerm))
	}
	return out
}

// ---------------------------------------------------------------------------
// Ordering
// ---------------------------------------------------------------------------

func sortRecommendations(recs []insight.Recommendation) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].PriorityScore != recs[j].PriorityScore {
			return recs[i].PriorityScore > recs[j].PriorityScore
		}
		if recs[i].Topic.ConfidenceScore != recs[j].Topic.ConfidenceScore {
			return recs[i].Topic.ConfidenceScore > recs[j].Topic.ConfidenceScore
		}
		return recs[i].Topic.RepresentativeTerm < recs[j].Topic.RepresentativeTerm
	})
}

// dedupeByRepresentative keeps the first (highest ranked) entry per
// representative term; the input must already be sorted.
func dedupeByRepresentative(recs []insight.Recommendation) []insight.Recommendation {
	seen := make(map[string]struct{}, len(recs))
	out := recs[:0]
	for _, rec := range recs {
		if _, dup := seen[rec.Topic.RepresentativeTerm]; dup {
			continue
		}
		seen[rec.Topic.RepresentativeTerm] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// ---------------------------------------------------------------------------
// Study plan
// ---------------------------------------------------------------------------

// BuildStudyPlan splits an already ranked recommendation list into the
// immediate and secondary blocks and totals their hour estimates.
func (g *insightsGenerator) BuildStudyPlan(recs []insight.Recommendation) insight.StudyPlan {
	plan := insight.StudyPlan{
		Immediate: []insight.Recommendation{},
		Secondary: []insight.Recommendation{},
	}

	for i, rec := range recs {
		switch {
		case i < g.config.MaxImmediate:
			plan.Immediate = append(plan.Immediate, rec)
		case i < g.config.MaxImmediate+g.config.MaxSecondary:
			plan.Secondary = append(plan.Secondary, rec)
		default:
			return plan
		}
		plan.TotalHours += rec.EstimatedHours
	}
	return plan
}

// ---------------------------------------------------------------------------
// Small helpers
// ---------------------------------------------------------------------------

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}

// roundHalf rounds to the nearest 0.5 so hour estimates read naturally.
func roundHalf(x float64) float64 {
	return math.Round(x*2) / 2
}

var _ InsightsGenerator = (*insightsGenerator)(nil)

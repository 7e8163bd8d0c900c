// Package scoring populates the statistical fields of extracted topics:
// difficulty, time-weighted relevance, confidence, outcome correlation, and
// the resulting priority level.  Scoring is a pure function of the topic and
// the run's documents; per-document contributions fold through mergeable
// accumulators so aggregation order never affects the result.
package scoring

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/prepwise/interview-intel/internal/domain/taxonomy"
	"github.com/prepwise/interview-intel/internal/intelligence/common"
	"github.com/prepwise/interview-intel/pkg/errors"
	"github.com/prepwise/interview-intel/pkg/types/insight"
)

// timeNow is swapped out by tests that pin the decay reference point.
var timeNow = time.Now

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// ScorerConfig holds tuneable parameters for statistical scoring.
type ScorerConfig struct {
	// HalfLifeDays sets the exponential time-decay half-life.
	HalfLifeDays float64 `json:"half_life_days" yaml:"half_life_days"`

	// MinSampleSize is the sample size below which confidence is forced
	// to zero.
	MinSampleSize int `json:"min_sample_size" yaml:"min_sample_size"`

	// ConfidenceLevel is the two-sided level for the Student-t critical
	// value (0.95 evaluates the 0.975 quantile).
	ConfidenceLevel float64 `json:"confidence_level" yaml:"confidence_level"`

	// Difficulty blend weights over the four sub-scores.
	KeywordWeight float64 `json:"keyword_weight" yaml:"keyword_weight"`
	RoundWeight   float64 `json:"round_weight" yaml:"round_weight"`
	DepthWeight   float64 `json:"depth_weight" yaml:"depth_weight"`
	OutcomeWeight float64 `json:"outcome_weight" yaml:"outcome_weight"`

	// RoundCountPivot is the per-document distinct-marker count mapping to
	// a round sub-score of 1.
	RoundCountPivot float64 `json:"round_count_pivot" yaml:"round_count_pivot"`

	// TechDepthPivot is the per-document distinct-taxonomy-term count
	// mapping to a depth sub-score of 1.
	TechDepthPivot float64 `json:"tech_depth_pivot" yaml:"tech_depth_pivot"`

	// Priority level = bucket of FrequencyBlend·(wf/100) +
	// ConfidenceBlend·confidence against the two thresholds.
	FrequencyBlend  float64 `json:"frequency_blend" yaml:"frequency_blend"`
	ConfidenceBlend float64 `json:"confidence_blend" yaml:"confidence_blend"`
	HighThreshold   float64 `json:"high_threshold" yaml:"high_threshold"`
	MediumThreshold float64 `json:"medium_threshold" yaml:"medium_threshold"`

	// BatchSize bounds the per-chunk document aggregation.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// DefaultScorerConfig returns production-ready defaults.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		HalfLifeDays:    730,
		MinSampleSize:   3,
		ConfidenceLevel: 0.95,
		KeywordWeight:   0.40,
		RoundWeight:     0.25,
		DepthWeight:     0.25,
		OutcomeWeight:   0.10,
		RoundCountPivot: 6,
		TechDepthPivot:  10,
		FrequencyBlend:  0.70,
		ConfidenceBlend: 0.30,
		HighThreshold:   0.66,
		MediumThreshold: 0.33,
		BatchSize:       50,
	}
}

// TokenizeFunc converts a phrase to the token form used for matching.
type TokenizeFunc func(text string) []string

// ---------------------------------------------------------------------------
// TopicScorer interface
// ---------------------------------------------------------------------------

// TopicScorer fills in the statistical fields of extracted topics.
//
// Scoring never fails on data: an empty corpus or an undersampled topic
// yields zeroed statistics, not an error.
type TopicScorer interface {
	ScoreTopic(ctx context.Context, topic insight.Topic, docs []insight.NormalizedDocument) (insight.Topic, error)
	ScoreTopics(ctx context.Context, topics []insight.Topic, docs []insight.NormalizedDocument) ([]insight.Topic, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type topicScorer struct {
	taxonomy *taxonomy.Taxonomy
	tokenize TokenizeFunc
	taxSet   *common.PhraseSet
	markers  *common.PhraseSet
	config   ScorerConfig
	lambda   float64
	metrics  common.AnalyticsMetrics
	logger   common.Logger
}

// NewTopicScorer constructs a scorer bound to one taxonomy.  The taxonomy
// and round-marker phrase sets are built once; member-term sets are built
// per topic.
func NewTopicScorer(
	tax *taxonomy.Taxonomy,
	tokenize TokenizeFunc,
	config ScorerConfig,
	metrics common.AnalyticsMetrics,
	logger common.Logger,
) (TopicScorer, error) {
	if tax == nil {
		return nil, errors.New(errors.ErrCodeTaxonomyMissing, "topic scorer requires a taxonomy")
	}
	if tokenize == nil {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "topic scorer requires a phrase tokenizer")
	}
	if metrics == nil {
		metrics = common.NewNoopAnalyticsMetrics()
	}
	if logger == nil {
		logger = common.NewNoopLogger()
	}

	defaults := DefaultScorerConfig()
	if config.HalfLifeDays <= 0 {
		config.HalfLifeDays = defaults.HalfLifeDays
	}
	if config.MinSampleSize < 1 {
		config.MinSampleSize = defaults.MinSampleSize
	}
	if config.ConfidenceLevel <= 0 || config.ConfidenceLevel >= 1 {
		config.ConfidenceLevel = defaults.ConfidenceLevel
	}
	if config.KeywordWeight+config.RoundWeight+config.DepthWeight+config.OutcomeWeight <= 0 {
		config.KeywordWeight = defaults.KeywordWeight
		config.RoundWeight = defaults.RoundWeight
		config.DepthWeight = defaults.DepthWeight
		config.OutcomeWeight = defaults.OutcomeWeight
	}
	if config.RoundCountPivot <= 0 {
		config.RoundCountPivot = defaults.RoundCountPivot
	}
	if config.TechDepthPivot <= 0 {
		config.TechDepthPivot = defaults.TechDepthPivot
	}
	if config.FrequencyBlend+config.ConfidenceBlend <= 0 {
		config.FrequencyBlend = defaults.FrequencyBlend
		config.ConfidenceBlend = defaults.ConfidenceBlend
	}
	if config.HighThreshold <= 0 {
		config.HighThreshold = defaults.HighThreshold
	}
	if config.MediumThreshold <= 0 {
		config.MediumThreshold = defaults.MediumThreshold
	}
	if config.BatchSize < 1 {
		config.BatchSize = defaults.BatchSize
	}

	return &topicScorer{
		taxonomy: tax,
		tokenize: tokenize,
		taxSet:   common.NewPhraseSet(tax.Terms(), tokenize),
		markers:  common.NewPhraseSet(roundMarkers, tokenize),
		config:   config,
		lambda:   math.Ln2 / config.HalfLifeDays,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// ---------------------------------------------------------------------------
// ScoreTopic / ScoreTopics
// ---------------------------------------------------------------------------

func (s *topicScorer) ScoreTopic(ctx context.Context, topic insight.Topic, docs []insight.NormalizedDocument) (insight.Topic, error) {
	if err := ctx.Err(); err != nil {
		return topic, err
	}
	profiles := s.profileDocs(docs, timeNow())
	return s.scoreWithProfiles(ctx, topic, docs, profiles), nil
}

func (s *topicScorer) ScoreTopics(ctx context.Context, topics []insight.Topic, docs []insight.NormalizedDocument) ([]insight.Topic, error) {
	if len(topics) == 0 {
		return []insight.Topic{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	profiles := s.profileDocs(docs, timeNow())

	scored := make([]insight.Topic, len(topics))
	for i, topic := range topics {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scored[i] = s.scoreWithProfiles(ctx, topic, docs, profiles)
	}

	s.logger.Debug("topic scoring complete",
		"topics", len(scored),
		"documents", len(docs),
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	return scored, nil
}

func (s *topicScorer) scoreWithProfiles(ctx context.Context, topic insight.Topic, docs []insight.NormalizedDocument, profiles []docProfile) insight.Topic {
	members := common.NewPhraseSet(topic.MemberTerms, s.tokenize)

	// Fold fixed-size chunks so aggregation stays commutative and
	// associative regardless of how the corpus is split.
	agg := &topicAggregate{}
	for lo := 0; lo < len(docs); lo += s.config.BatchSize {
		hi := lo + s.config.BatchSize
		if hi > len(docs) {
			hi = len(docs)
		}
		agg.merge(s.aggregateChunk(members, docs[lo:hi], profiles[lo:hi]))
	}

	scored := topic
	scored.SampleSize = agg.n
	scored.DifficultyScore = s.difficulty(agg)
	scored.SuccessCorrelation = successShare(agg)
	scored.TimeWeightedRelevance = timeWeightedRelevance(agg)
	scored.ConfidenceScore = s.confidence(agg)
	scored.PriorityLevel = s.priorityLevel(scored.WeightedFrequency, scored.ConfidenceScore)

	s.metrics.RecordPriorityAssignment(ctx, string(scored.PriorityLevel))
	return scored
}

// ---------------------------------------------------------------------------
// Per-document profiling
// ---------------------------------------------------------------------------

// docProfile caches the topic-independent signals of one document so a run
// scoring many topics scans the corpus for markers and depth only once.
type docProfile struct {
	decay   float64
	kwSum   float64
	kwHits  int
	rounds  int
	depth   int
	outcome insight.Outcome
}

func (s *topicScorer) profileDocs(docs []insight.NormalizedDocument, now time.Time) []docProfile {
	profiles := make([]docProfile, len(docs))
	for i := range docs {
		profiles[i] = s.profileDoc(docs[i], now)
	}
	return profiles
}

func (s *topicScorer) profileDoc(doc insight.NormalizedDocument, now time.Time) docProfile {
	p := docProfile{outcome: doc.Outcome}

	days := now.Sub(doc.Date).Hours() / 24
	if days < 0 {
		days = 0
	}
	p.decay = math.Exp(-s.lambda * days)

	for _, tok := range doc.Tokens {
		if level, ok := difficultyLexicon[tok]; ok {
			p.kwSum += level
			p.kwHits++
		}
	}

	matchedMarkers, _ := s.markers.Scan(doc.Tokens)
	p.rounds = distinctCount(matchedMarkers)

	matchedTerms, _ := s.taxSet.Scan(doc.Tokens)
	families := make(map[string]struct{}, len(matchedTerms))
	for _, term := range matchedTerms {
		if entry, ok := s.taxonomy.Lookup(term); ok {
			families[string(entry.Category)+"\x1f"+entry.Canonical] = struct{}{}
		}
	}
	p.depth = len(families)

	return p
}

func distinctCount(values []string) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// ---------------------------------------------------------------------------
// Aggregation
// ---------------------------------------------------------------------------

// topicAggregate folds per-document contributions for one topic.  Every
// field is a plain sum or count, so merge is commutative and associative.
type topicAggregate struct {
	totalDecay   float64
	contribDecay float64
	n            int
	contrib      momentAccumulator
	kwSum        float64
	kwHits       int
	roundSum     int
	depthSum     int
	successes    int
	fails        int
}

func (a *topicAggregate) merge(b *topicAggregate) {
	a.totalDecay += b.totalDecay
	a.contribDecay += b.contribDecay
	a.n += b.n
	a.contrib.Merge(b.contrib)
	a.kwSum += b.kwSum
	a.kwHits += b.kwHits
	a.roundSum += b.roundSum
	a.depthSum += b.depthSum
	a.successes += b.successes
	a.fails += b.fails
}

func (s *topicScorer) aggregateChunk(members *common.PhraseSet, docs []insight.NormalizedDocument, profiles []docProfile) *topicAggregate {
	agg := &topicAggregate{}
	for i := range docs {
		p := profiles[i]
		agg.totalDecay += p.decay

		matched, _ := members.Scan(docs[i].Tokens)
		tf := len(matched)
		if tf == 0 {
			continue
		}

		agg.contribDecay += p.decay
		agg.n++
		agg.contrib.Add(1 + math.Log(float64(tf)))
		agg.kwSum += p.kwSum
		agg.kwHits += p.kwHits
		agg.roundSum += p.rounds
		agg.depthSum += p.depth

		switch p.outcome {
		case insight.OutcomeSuccess:
			agg.successes++
		case insight.OutcomeFail:
			agg.fails++
		}
	}
	return agg
}

// ---------------------------------------------------------------------------
// Score components
// ---------------------------------------------------------------------------

func (s *topicScorer) difficulty(agg *topicAggregate) float64 {
	keyword := 0.5
	if agg.kwHits > 0 {
		keyword = agg.kwSum / float64(agg.kwHits)
	}

	var rounds, depth float64
	if agg.n > 0 {
		rounds = clamp01(float64(agg.roundSum) / float64(agg.n) / s.config.RoundCountPivot)
		depth = clamp01(float64(agg.depthSum) / float64(agg.n) / s.config.TechDepthPivot)
	}

	failShare := 0.5
	if known := agg.successes + agg.fails; known > 0 {
		failShare = float64(agg.fails) / float64(known)
	}

	d := s.config.KeywordWeight*keyword +
		s.config.RoundWeight*rounds +
		s.config.DepthWeight*depth +
		s.config.OutcomeWeight*failShare
	return round4(clamp01(d))
}

func successShare(agg *topicAggregate) float64 {
	known := agg.successes + agg.fails
	if known == 0 {
		return 0.5
	}
	return round4(float64(agg.successes) / float64(known))
}

func timeWeightedRelevance(agg *topicAggregate) float64 {
	if agg.totalDecay <= 0 {
		return 0
	}
	return round2(100 * agg.contribDecay / agg.totalDecay)
}

func (s *topicScorer) confidence(agg *topicAggregate) float64 {
	if agg.n < s.config.MinSampleSize {
		return 0
	}
	se := math.Sqrt(agg.contrib.SampleVariance() / float64(agg.n))
	p := 1 - (1-s.config.ConfidenceLevel)/2
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(agg.n - 1)}.Quantile(p)
	return round4(clamp01(1 - t*se))
}

func (s *topicScorer) priorityLevel(wf, confidence float64) insight.PriorityLevel {
	blend := s.config.FrequencyBlend*(wf/100) + s.config.ConfidenceBlend*confidence
	switch {
	case blend >= s.config.HighThreshold:
		return insight.PriorityHigh
	case blend >= s.config.MediumThreshold:
		return insight.PriorityMedium
	default:
		return insight.PriorityLow
	}
}

// ---------------------------------------------------------------------------
// Moment accumulator
// ---------------------------------------------------------------------------

// momentAccumulator tracks count, sum, and sum of squares.  Merging two
// accumulators is exact regardless of how samples were split between them.
type momentAccumulator struct {
	count int
	sum   float64
	sumSq float64
}

func (m *momentAccumulator) Add(x float64) {
	m.count++
	m.sum += x
	m.sumSq += x * x
}

func (m *momentAccumulator) Merge(o momentAccumulator) {
	m.count += o.count
	m.sum += o.sum
	m.sumSq += o.sumSq
}

func (m momentAccumulator) Mean() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}

// SampleVariance is the unbiased (n-1) variance, floored at zero to absorb
// floating-point cancellation.
func (m momentAccumulator) SampleVariance() float64 {
	if m.count < 2 {
		return 0
	}
	n := float64(m.count)
	v := (m.sumSq - m.sum*m.sum/n) / (n - 1)
	if v < 0 {
		return 0
	}
	return v
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

// round2 and round4 pin float output so document order can never leak
// through summation into the published scores.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}

var _ TopicScorer = (*topicScorer)(nil)

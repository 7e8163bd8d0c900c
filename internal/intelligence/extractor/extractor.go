// Package extractor turns a company's normalized document corpus into a
// ranked set of interview topics.  Taxonomy phrases are matched longest-first
// and counted under their family's canonical term; everything else is counted
// as free text, scored with dampened TF-IDF, and clustered by lexical stem
// and document overlap.
package extractor

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/prepwise/interview-intel/internal/domain/taxonomy"
	"github.com/prepwise/interview-intel/internal/intelligence/common"
	"github.com/prepwise/interview-intel/pkg/errors"
	"github.com/prepwise/interview-intel/pkg/types/insight"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// ExtractorConfig holds tuneable parameters for the extraction pipeline.
type ExtractorConfig struct {
	// MinDocFrequency prunes free-text terms that appear in fewer documents.
	// Taxonomy terms are exempt.
	MinDocFrequency int `json:"min_doc_frequency" yaml:"min_doc_frequency"`

	// MergeThreshold is the document-set Jaccard overlap at which two
	// free-text terms are merged into one cluster.
	MergeThreshold float64 `json:"merge_threshold" yaml:"merge_threshold"`

	// SaturationPivot is the cluster importance at which the weighted
	// frequency reaches half of its document-coverage ceiling.
	SaturationPivot float64 `json:"saturation_pivot" yaml:"saturation_pivot"`

	// MaxTopics caps the ranked topic list; 0 means no cap.
	MaxTopics int `json:"max_topics" yaml:"max_topics"`
}

// DefaultExtractorConfig returns production-ready defaults.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		MinDocFrequency: 2,
		MergeThreshold:  0.6,
		SaturationPivot: 2.0,
		MaxTopics:       50,
	}
}

// TokenizeFunc converts a phrase to the token form used for matching.  It
// must be the same tokenizer that produced the document tokens, otherwise
// taxonomy phrases never line up with the token stream.
type TokenizeFunc func(text string) []string

// ---------------------------------------------------------------------------
// TopicExtractor interface
// ---------------------------------------------------------------------------

// TopicExtractor is the corpus-to-topics stage of the analysis pipeline.
//
// Extract is deterministic: the same document multiset yields the same topic
// list regardless of input order, and an empty corpus yields an empty list,
// never an error.
type TopicExtractor interface {
	Extract(ctx context.Context, docs []insight.NormalizedDocument) ([]insight.Topic, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type topicExtractor struct {
	taxonomy *taxonomy.Taxonomy
	phrases  *common.PhraseSet
	config   ExtractorConfig
	metrics  common.AnalyticsMetrics
	logger   common.Logger
}

// NewTopicExtractor constructs an extractor bound to one taxonomy.  The
// phrase matcher is built once from the taxonomy's full term list using the
// supplied tokenizer.
func NewTopicExtractor(
	tax *taxonomy.Taxonomy,
	tokenize TokenizeFunc,
	config ExtractorConfig,
	metrics common.AnalyticsMetrics,
	logger common.Logger,
) (TopicExtractor, error) {
	if tax == nil {
		return nil, errors.New(errors.ErrCodeTaxonomyMissing, "topic extractor requires a taxonomy")
	}
	if tokenize == nil {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "topic extractor requires a phrase tokenizer")
	}
	if metrics == nil {
		metrics = common.NewNoopAnalyticsMetrics()
	}
	if logger == nil {
		logger = common.NewNoopLogger()
	}

	defaults := DefaultExtractorConfig()
	if config.MinDocFrequency < 1 {
		config.MinDocFrequency = defaults.MinDocFrequency
	}
	if config.MergeThreshold <= 0 || config.MergeThreshold > 1 {
		config.MergeThreshold = defaults.MergeThreshold
	}
	if config.SaturationPivot <= 0 {
		config.SaturationPivot = defaults.SaturationPivot
	}
	if config.MaxTopics < 0 {
		config.MaxTopics = 0
	}

	return &topicExtractor{
		taxonomy: tax,
		phrases:  common.NewPhraseSet(tax.Terms(), tokenize),
		config:   config,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// ---------------------------------------------------------------------------
// Extract
// ---------------------------------------------------------------------------

func (e *topicExtractor) Extract(ctx context.Context, docs []insight.NormalizedDocument) ([]insight.Topic, error) {
	if len(docs) == 0 {
		return []insight.Topic{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	// 1. Per-document term counting.  Taxonomy phrases are matched
	//    longest-first and counted under the family canonical; leftover
	//    tokens count as free-text terms.
	stats := e.countTerms(docs)

	// 2. Prune free-text terms below the document-frequency floor.
	e.pruneRare(stats)

	// 3. Corpus-level importance: dampened TF summed over documents,
	//    scaled by IDF and the category multiplier.
	scoreImportance(stats, len(docs))

	// 4. Cluster: one cluster per taxonomy family, union-find over
	//    free-text terms on shared stem or document overlap.
	clusters := e.clusterTerms(stats)

	// 5. Weighted frequency, ranking, cap.
	topics := e.assemble(clusters, len(docs))

	elapsed := float64(time.Since(start).Microseconds()) / 1000.0
	company := firstCompany(docs)

	e.metrics.RecordExtraction(ctx, &common.ExtractionMetricParams{
		Company:    company,
		Documents:  len(docs),
		Topics:     len(topics),
		DurationMs: elapsed,
		Success:    true,
	})
	e.logger.Debug("topic extraction complete",
		"company", company,
		"documents", len(docs),
		"terms", len(stats),
		"topics", len(topics),
		"duration_ms", elapsed,
	)

	return topics, nil
}

// ---------------------------------------------------------------------------
// Pipeline stages
// ---------------------------------------------------------------------------

// termStat accumulates corpus statistics for one countable term: a taxonomy
// family canonical or a single free-text token.
type termStat struct {
	term       string
	category   insight.Category
	multiplier float64
	taxonomy   bool

	// damped is the sum over containing documents of 1+ln(tf).
	damped float64

	// docs holds the indices of documents containing the term.
	docs map[int]struct{}

	// surfaces holds the distinct matched forms, which become member terms.
	surfaces map[string]struct{}

	importance float64
}

const keySep = "\x1f"

func taxKey(cat insight.Category, canonical string) string {
	return "t" + keySep + string(cat) + keySep + canonical
}

func freeKey(token string) string {
	return "f" + keySep + token
}

func (e *topicExtractor) countTerms(docs []insight.NormalizedDocument) map[string]*termStat {
	stats := make(map[string]*termStat)

	for i := range docs {
		matched, rest := e.phrases.Scan(docs[i].Tokens)
		if len(matched) == 0 && len(rest) == 0 {
			continue
		}

		tf := make(map[string]int, len(matched)+len(rest))

		for _, surface := range matched {
			entry, ok := e.taxonomy.Lookup(surface)
			if !ok {
				continue
			}
			key := taxKey(entry.Category, entry.Canonical)
			tf[key]++
			st, exists := stats[key]
			if !exists {
				st = &termStat{
					term:       entry.Canonical,
					category:   entry.Category,
					multiplier: entry.Multiplier,
					taxonomy:   true,
					docs:       make(map[int]struct{}),
					surfaces:   make(map[string]struct{}),
				}
				stats[key] = st
			}
			st.surfaces[entry.Term] = struct{}{}
			st.docs[i] = struct{}{}
		}

		for _, token := range rest {
			key := freeKey(token)
			tf[key]++
			st, exists := stats[key]
			if !exists {
				st = &termStat{
					term:       token,
					category:   insight.CategoryOther,
					multiplier: e.taxonomy.MultiplierFor(insight.CategoryOther),
					docs:       make(map[int]struct{}),
					surfaces:   map[string]struct{}{token: {}},
				}
				stats[key] = st
			}
			st.docs[i] = struct{}{}
		}

		for key, n := range tf {
			stats[key].damped += 1 + math.Log(float64(n))
		}
	}

	return stats
}

func (e *topicExtractor) pruneRare(stats map[string]*termStat) {
	for key, st := range stats {
		if st.taxonomy {
			continue
		}
		if len(st.docs) < e.config.MinDocFrequency {
			delete(stats, key)
		}
	}
}

// scoreImportance uses a smoothed inverse document frequency,
// ln(1 + totalDocs/df), so a term present in every document still carries
// weight instead of zeroing its cluster out of the report.
func scoreImportance(stats map[string]*termStat, totalDocs int) {
	for _, st := range stats {
		idf := math.Log(1 + float64(totalDocs)/float64(len(st.docs)))
		st.importance = st.damped * idf * st.multiplier
	}
}

func (e *topicExtractor) assemble(clusters []*cluster, totalDocs int) []insight.Topic {
	topics := make([]insight.Topic, 0, len(clusters))
	for _, c := range clusters {
		wf := weightedFrequency(c, totalDocs, e.config.SaturationPivot)
		if wf == 0 {
			continue
		}
		topics = append(topics, insight.Topic{
			ID:                 insight.TopicID(c.category, c.representative),
			RepresentativeTerm: c.representative,
			MemberTerms:        insight.SortTerms(c.members),
			Category:           c.category,
			WeightedFrequency:  wf,
		})
	}

	sort.Slice(topics, func(i, j int) bool {
		if topics[i].WeightedFrequency != topics[j].WeightedFrequency {
			return topics[i].WeightedFrequency > topics[j].WeightedFrequency
		}
		return topics[i].RepresentativeTerm < topics[j].RepresentativeTerm
	})

	if e.config.MaxTopics > 0 && len(topics) > e.config.MaxTopics {
		topics = topics[:e.config.MaxTopics]
	}
	return topics
}

// weightedFrequency maps document coverage and saturating importance onto
// the 0..100 scale, rounded to two decimals.
func weightedFrequency(c *cluster, totalDocs int, pivot float64) float64 {
	docRatio := float64(len(c.docs)) / float64(totalDocs)
	raw := 100 * docRatio * (c.importance / (c.importance + pivot))
	if raw < 0 {
		raw = 0
	}
	if raw > 100 {
		raw = 100
	}
	return math.Round(raw*100) / 100
}

func firstCompany(docs []insight.NormalizedDocument) string {
	for i := range docs {
		if docs[i].Company != "" {
			return docs[i].Company
		}
	}
	return "unknown"
}

var _ TopicExtractor = (*topicExtractor)(nil)

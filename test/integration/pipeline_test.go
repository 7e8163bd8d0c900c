// Full-pipeline integration tests: records in, run report out, through the
// public engine facade with the built-in taxonomy and default configuration.
package integration

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/prepwise/interview-intel/internal/infrastructure/monitoring/logging"
	"github.com/prepwise/interview-intel/pkg/insight"
	types "github.com/prepwise/interview-intel/pkg/types/insight"
)

func newEngine(t *testing.T) *insight.Engine {
	t.Helper()
	e, err := insight.New(nil, insight.WithLogger(logging.NewNopLogger()))
	if err != nil {
		t.Fatalf("insight.New: %v", err)
	}
	return e
}

// trendCorpus builds two years of records in quarterly cohorts of eight:
// the kafka share rises strictly across cohorts while the linked-list share
// falls, giving the trend test a clean monotonic signal in both directions.
func trendCorpus() []types.ExperienceRecord {
	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	var records []types.ExperienceRecord
	for bucket := 0; bucket < 8; bucket++ {
		cohortDate := base.AddDate(0, 3*bucket, 0)
		kafkaDocs := bucket + 1
		for j := 0; j < 8; j++ {
			outcome := types.OutcomeUnknown
			switch j % 4 {
			case 0:
				outcome = types.OutcomeSuccess
			case 1:
				outcome = types.OutcomeFail
			}

			text := "linked list warmup question"
			if j < kafkaDocs {
				text = "kafka consumer groups discussion"
			}
			records = append(records, types.ExperienceRecord{
				Company: "acme",
				Date:    cohortDate.AddDate(0, 0, j),
				RawText: text,
				Outcome: outcome,
			})
		}
	}
	return records
}

func findTopic(t *testing.T, topics []types.Topic, representative string) types.Topic {
	t.Helper()
	for _, topic := range topics {
		if topic.RepresentativeTerm == representative {
			return topic
		}
	}
	t.Fatalf("topic %q not found in %d topics", representative, len(topics))
	return types.Topic{}
}

func findTrend(t *testing.T, trends []types.TrendResult, topicID string) types.TrendResult {
	t.Helper()
	for _, tr := range trends {
		if tr.TopicID == topicID {
			return tr
		}
	}
	t.Fatalf("trend for topic %q not found", topicID)
	return types.TrendResult{}
}

func TestPipeline_ReportShape(t *testing.T) {
	e := newEngine(t)

	report, err := e.AnalyzeCompany(context.Background(), "acme", trendCorpus())
	if err != nil {
		t.Fatalf("AnalyzeCompany: %v", err)
	}

	if report.DocumentCount != 64 || report.SkippedRecords != 0 {
		t.Fatalf("counts = (%d, %d), want (64, 0)", report.DocumentCount, report.SkippedRecords)
	}
	if report.DataQuality.Level != types.QualityHigh {
		t.Errorf("quality = %v, want HIGH for 64 documents", report.DataQuality.Level)
	}
	if report.DataQuality.OutcomeCoverage != 0.5 {
		t.Errorf("outcome coverage = %v, want 0.5", report.DataQuality.OutcomeCoverage)
	}
	if len(report.Topics) == 0 {
		t.Fatal("expected topics")
	}

	for _, topic := range report.Topics {
		if topic.WeightedFrequency < 0 || topic.WeightedFrequency > 100 {
			t.Errorf("%s: weighted frequency %v out of [0,100]", topic.ID, topic.WeightedFrequency)
		}
		if topic.ConfidenceScore < 0 || topic.ConfidenceScore > 1 {
			t.Errorf("%s: confidence %v out of [0,1]", topic.ID, topic.ConfidenceScore)
		}
		if topic.DifficultyScore < 0 || topic.DifficultyScore > 1 {
			t.Errorf("%s: difficulty %v out of [0,1]", topic.ID, topic.DifficultyScore)
		}
		if topic.ID != types.TopicID(topic.Category, topic.RepresentativeTerm) {
			t.Errorf("%s: ID does not match category/representative", topic.ID)
		}
		for i := 1; i < len(topic.MemberTerms); i++ {
			if topic.MemberTerms[i-1] > topic.MemberTerms[i] {
				t.Errorf("%s: member terms not sorted", topic.ID)
			}
		}
	}

	if len(report.Trends) != len(report.Topics) {
		t.Errorf("trends = %d, topics = %d", len(report.Trends), len(report.Topics))
	}
	for i := 1; i < len(report.Recommendations); i++ {
		if report.Recommendations[i].PriorityScore > report.Recommendations[i-1].PriorityScore {
			t.Errorf("recommendations out of order at %d", i)
		}
	}
	for _, rec := range report.Recommendations {
		if rec.EstimatedHours <= 0 {
			t.Errorf("%s: estimated hours %v", rec.Topic.ID, rec.EstimatedHours)
		}
		if len(rec.Strategies) == 0 {
			t.Errorf("%s: no strategies", rec.Topic.ID)
		}
	}
}

func TestPipeline_DetectsOpposingTrends(t *testing.T) {
	e := newEngine(t)

	report, err := e.AnalyzeCompany(context.Background(), "acme", trendCorpus())
	if err != nil {
		t.Fatalf("AnalyzeCompany: %v", err)
	}

	kafka := findTopic(t, report.Topics, "kafka")
	rising := findTrend(t, report.Trends, kafka.ID)
	if rising.Direction != types.TrendRising || !rising.Significant {
		t.Errorf("kafka trend = %+v, want significant RISING", rising)
	}

	linked := findTopic(t, report.Topics, "linked list")
	falling := findTrend(t, report.Trends, linked.ID)
	if falling.Direction != types.TrendFalling || !falling.Significant {
		t.Errorf("linked list trend = %+v, want significant FALLING", falling)
	}
}

func TestPipeline_DeterministicAcrossRuns(t *testing.T) {
	records := trendCorpus()

	run := func() *types.RunReport {
		report, err := newEngine(t).AnalyzeCompany(context.Background(), "acme", records)
		if err != nil {
			t.Fatalf("AnalyzeCompany: %v", err)
		}
		// Run metadata is the only permitted nondeterminism.
		report.RunID = ""
		report.GeneratedAt = time.Time{}
		return report
	}

	first, second := run(), run()
	if !reflect.DeepEqual(first, second) {
		t.Error("identical input must produce identical analysis output")
	}
}

func TestPipeline_SmallSampleHasZeroConfidence(t *testing.T) {
	e := newEngine(t)
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	report, err := e.AnalyzeCompany(context.Background(), "acme", []types.ExperienceRecord{
		{Company: "acme", Date: day, RawText: "kafka deep dive", Outcome: types.OutcomeSuccess},
		{Company: "acme", Date: day.AddDate(0, 0, 7), RawText: "kafka again", Outcome: types.OutcomeFail},
	})
	if err != nil {
		t.Fatalf("AnalyzeCompany: %v", err)
	}

	if report.DataQuality.Level != types.QualityInsufficient {
		t.Errorf("quality = %v, want INSUFFICIENT", report.DataQuality.Level)
	}
	kafka := findTopic(t, report.Topics, "kafka")
	if kafka.ConfidenceScore != 0 {
		t.Errorf("confidence = %v, want 0 below the minimum sample size", kafka.ConfidenceScore)
	}
}

package insight

import (
	"context"
	"testing"
	"time"

	"github.com/prepwise/interview-intel/internal/domain/taxonomy"
	"github.com/prepwise/interview-intel/internal/infrastructure/monitoring/logging"
	"github.com/prepwise/interview-intel/internal/intelligence/common"
	"github.com/prepwise/interview-intel/internal/intelligence/extractor"
	"github.com/prepwise/interview-intel/internal/intelligence/insights"
	"github.com/prepwise/interview-intel/internal/intelligence/normalizer"
	"github.com/prepwise/interview-intel/internal/intelligence/scoring"
	"github.com/prepwise/interview-intel/internal/intelligence/trend"
	"github.com/prepwise/interview-intel/internal/testutil"
	"github.com/prepwise/interview-intel/pkg/errors"
	types "github.com/prepwise/interview-intel/pkg/types/insight"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func testTaxonomy(t *testing.T) *taxonomy.Taxonomy {
	t.Helper()
	tax, err := taxonomy.New([]taxonomy.CategoryDef{
		{
			Category:   types.CategoryTechnologies,
			Multiplier: 1.1,
			Families: []taxonomy.FamilyDef{
				{Canonical: "kafka", Terms: []string{"kafka", "apache kafka"}},
				{Canonical: "redis", Terms: []string{"redis"}},
			},
		},
		{
			Category:   types.CategoryDataStructures,
			Multiplier: 1.0,
			Families: []taxonomy.FamilyDef{
				{Canonical: "hash table", Terms: []string{"hash table", "hashmap"}},
			},
		},
	})
	if err != nil {
		t.Fatalf("taxonomy.New: %v", err)
	}
	return tax
}

func testService(t *testing.T, metrics common.AnalyticsMetrics) Service {
	t.Helper()
	return testServiceWithLogger(t, metrics, nil)
}

func testServiceWithLogger(t *testing.T, metrics common.AnalyticsMetrics, logger logging.Logger) Service {
	t.Helper()
	tax := testTaxonomy(t)
	norm := normalizer.New(normalizer.Config{})

	ext, err := extractor.NewTopicExtractor(tax, norm.NormalizePhrase, extractor.DefaultExtractorConfig(), metrics, nil)
	if err != nil {
		t.Fatalf("NewTopicExtractor: %v", err)
	}
	sc, err := scoring.NewTopicScorer(tax, norm.NormalizePhrase, scoring.DefaultScorerConfig(), metrics, nil)
	if err != nil {
		t.Fatalf("NewTopicScorer: %v", err)
	}
	tr, err := trend.NewTrendAnalyzer(norm.NormalizePhrase, trend.DefaultAnalyzerConfig(), metrics, nil)
	if err != nil {
		t.Fatalf("NewTrendAnalyzer: %v", err)
	}
	gen, err := insights.NewInsightsGenerator(insights.DefaultGeneratorConfig(), metrics, nil)
	if err != nil {
		t.Fatalf("NewInsightsGenerator: %v", err)
	}

	svc, err := NewService(DefaultServiceConfig(), Deps{
		Normalizer: norm,
		Extractor:  ext,
		Scorer:     sc,
		Trends:     tr,
		Insights:   gen,
		Metrics:    metrics,
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func record(company string, date time.Time, outcome types.Outcome, text string) types.ExperienceRecord {
	return types.ExperienceRecord{
		Company: company,
		Date:    date,
		RawText: text,
		Outcome: outcome,
	}
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

func TestNewService_RequiresEveryStage(t *testing.T) {
	tax := testTaxonomy(t)
	norm := normalizer.New(normalizer.Config{})
	ext, _ := extractor.NewTopicExtractor(tax, norm.NormalizePhrase, extractor.DefaultExtractorConfig(), nil, nil)
	sc, _ := scoring.NewTopicScorer(tax, norm.NormalizePhrase, scoring.DefaultScorerConfig(), nil, nil)
	tr, _ := trend.NewTrendAnalyzer(norm.NormalizePhrase, trend.DefaultAnalyzerConfig(), nil, nil)
	gen, _ := insights.NewInsightsGenerator(insights.DefaultGeneratorConfig(), nil, nil)

	full := Deps{Normalizer: norm, Extractor: ext, Scorer: sc, Trends: tr, Insights: gen}

	cases := []struct {
		name string
		mut  func(d *Deps)
	}{
		{"normalizer", func(d *Deps) { d.Normalizer = nil }},
		{"extractor", func(d *Deps) { d.Extractor = nil }},
		{"scorer", func(d *Deps) { d.Scorer = nil }},
		{"trends", func(d *Deps) { d.Trends = nil }},
		{"insights", func(d *Deps) { d.Insights = nil }},
	}
	for _, tc := range cases {
		deps := full
		tc.mut(&deps)
		if _, err := NewService(DefaultServiceConfig(), deps); err == nil {
			t.Errorf("%s: expected error for missing stage", tc.name)
		}
	}

	if _, err := NewService(ServiceConfig{}, full); err != nil {
		t.Fatalf("zero config should fall back to defaults, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// AnalyzeCompany
// ---------------------------------------------------------------------------

func TestAnalyzeCompany_RejectsEmptyCompany(t *testing.T) {
	svc := testService(t, nil)
	_, err := svc.AnalyzeCompany(context.Background(), "  ", nil)
	if err == nil {
		t.Fatal("expected error for blank company")
	}
	if !errors.IsCode(err, errors.ErrCodeInvalidParam) {
		t.Fatalf("got code %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidParam)
	}
}

func TestAnalyzeCompany_EmptyInputStillReports(t *testing.T) {
	svc := testService(t, nil)
	report, err := svc.AnalyzeCompany(context.Background(), "acme", nil)
	if err != nil {
		t.Fatalf("AnalyzeCompany: %v", err)
	}
	if report.RunID == "" {
		t.Error("report must carry a run ID")
	}
	if report.Company != "acme" {
		t.Errorf("company = %q, want acme", report.Company)
	}
	if report.DocumentCount != 0 || report.SkippedRecords != 0 {
		t.Errorf("counts = (%d, %d), want (0, 0)", report.DocumentCount, report.SkippedRecords)
	}
	if report.DataQuality.Level != types.QualityInsufficient {
		t.Errorf("quality = %v, want INSUFFICIENT", report.DataQuality.Level)
	}
	if report.Topics == nil || len(report.Topics) != 0 {
		t.Errorf("topics = %v, want empty non-nil", report.Topics)
	}
	if len(report.Recommendations) != 0 {
		t.Errorf("recommendations = %v, want empty", report.Recommendations)
	}
}

func TestAnalyzeCompany_SkipsAndTallies(t *testing.T) {
	metrics := common.NewInMemoryAnalyticsMetrics()
	svc := testService(t, metrics)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	records := []types.ExperienceRecord{
		record("acme", day, types.OutcomeSuccess, "kafka consumer groups deep dive"),
		record("acme", day.AddDate(0, 1, 0), types.OutcomeFail, "redis eviction policies"),
		record("acme", day.AddDate(0, 2, 0), types.OutcomeUnknown, "kafka partition rebalance"),
		record("", day, types.OutcomeUnknown, "no company attached"),
		record("acme", time.Time{}, types.OutcomeUnknown, "missing date"),
		record("acme", day, types.OutcomeUnknown, "   "),
		record("globex", day, types.OutcomeUnknown, "wrong company"),
		{Company: "acme", Date: day, RawText: "bad outcome token", Outcome: types.Outcome("maybe")},
	}

	report, err := svc.AnalyzeCompany(context.Background(), "acme", records)
	if err != nil {
		t.Fatalf("AnalyzeCompany: %v", err)
	}
	if report.DocumentCount != 3 {
		t.Errorf("DocumentCount = %d, want 3", report.DocumentCount)
	}
	if report.SkippedRecords != 5 {
		t.Errorf("SkippedRecords = %d, want 5", report.SkippedRecords)
	}
	wantReasons := map[string]int{
		SkipReasonMissingCompany:  1,
		SkipReasonMissingDate:     1,
		SkipReasonEmptyText:       1,
		SkipReasonCompanyMismatch: 1,
		SkipReasonInvalidRecord:   1,
	}
	for reason, want := range wantReasons {
		if got := report.SkipReasons[reason]; got != want {
			t.Errorf("SkipReasons[%s] = %d, want %d", reason, got, want)
		}
	}

	recorded := metrics.GetSkipReasons()
	for reason, want := range wantReasons {
		if got := recorded[reason]; got != int64(want) {
			t.Errorf("metrics skip[%s] = %d, want %d", reason, got, want)
		}
	}
	analyses := metrics.GetRecordedAnalyses()
	if len(analyses) != 1 {
		t.Fatalf("recorded analyses = %d, want 1", len(analyses))
	}
	if analyses[0].Company != "acme" || analyses[0].AnalyzedRecords != 3 || analyses[0].SkippedRecords != 5 {
		t.Errorf("analysis params = %+v", analyses[0])
	}
}

func TestAnalyzeCompany_CompanyMatchIsCaseInsensitive(t *testing.T) {
	svc := testService(t, nil)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	report, err := svc.AnalyzeCompany(context.Background(), "Acme", []types.ExperienceRecord{
		record(" ACME ", day, types.OutcomeUnknown, "kafka basics"),
		record("acme", day, types.OutcomeUnknown, "redis basics"),
	})
	if err != nil {
		t.Fatalf("AnalyzeCompany: %v", err)
	}
	if report.DocumentCount != 2 || report.SkippedRecords != 0 {
		t.Errorf("counts = (%d, %d), want (2, 0)", report.DocumentCount, report.SkippedRecords)
	}
}

func TestAnalyzeCompany_EndToEnd(t *testing.T) {
	svc := testService(t, nil)
	base := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	var records []types.ExperienceRecord
	for i := 0; i < 12; i++ {
		outcome := types.OutcomeUnknown
		if i%2 == 0 {
			outcome = types.OutcomeSuccess
		}
		text := "they asked about kafka consumer groups and a hashmap warmup"
		if i%3 == 0 {
			text = "redis caching round then a hash table design question"
		}
		records = append(records, record("acme", base.AddDate(0, i, 0), outcome, text))
	}

	report, err := svc.AnalyzeCompany(context.Background(), "acme", records)
	if err != nil {
		t.Fatalf("AnalyzeCompany: %v", err)
	}
	if len(report.Topics) == 0 {
		t.Fatal("expected extracted topics")
	}
	if report.DataQuality.Level != types.QualityModerate {
		t.Errorf("quality = %v, want MODERATE for 12 documents", report.DataQuality.Level)
	}
	if report.DataQuality.OutcomeCoverage != 0.5 {
		t.Errorf("outcome coverage = %v, want 0.5", report.DataQuality.OutcomeCoverage)
	}

	// One trend per topic, joined by topic ID.
	if len(report.Trends) != len(report.Topics) {
		t.Fatalf("trends = %d, topics = %d", len(report.Trends), len(report.Topics))
	}
	ids := make(map[string]bool, len(report.Topics))
	for _, topic := range report.Topics {
		if topic.SampleSize == 0 {
			t.Errorf("topic %s has zero sample size", topic.ID)
		}
		ids[topic.ID] = true
	}
	for _, tr := range report.Trends {
		if !ids[tr.TopicID] {
			t.Errorf("trend for unknown topic %s", tr.TopicID)
		}
	}

	if len(report.Recommendations) == 0 {
		t.Fatal("expected recommendations")
	}
	for i := 1; i < len(report.Recommendations); i++ {
		if report.Recommendations[i].PriorityScore > report.Recommendations[i-1].PriorityScore {
			t.Errorf("recommendations out of order at %d", i)
		}
	}

	plan := report.StudyPlan
	var sum float64
	for _, rec := range append(append([]types.Recommendation{}, plan.Immediate...), plan.Secondary...) {
		sum += rec.EstimatedHours
	}
	if plan.TotalHours != sum {
		t.Errorf("TotalHours = %v, want %v", plan.TotalHours, sum)
	}
}

func TestAnalyzeCompany_UniformCorpusStillReportsTopics(t *testing.T) {
	svc := testService(t, nil)
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	// Every report names the same topic; the corpus sits right at the
	// minimum-sample floor.
	records := []types.ExperienceRecord{
		record("acme", base, types.OutcomeSuccess, "asked a hard kafka partitioning question"),
		record("acme", base.AddDate(0, 1, 0), types.OutcomeFail, "asked a hard kafka partitioning question"),
		record("acme", base.AddDate(0, 2, 0), types.OutcomeSuccess, "asked a hard kafka partitioning question"),
	}

	report, err := svc.AnalyzeCompany(context.Background(), "acme", records)
	if err != nil {
		t.Fatalf("AnalyzeCompany: %v", err)
	}
	if len(report.Topics) == 0 {
		t.Fatal("expected topics for a corpus whose every document names the same term")
	}

	var kafka *types.Topic
	for i := range report.Topics {
		if report.Topics[i].RepresentativeTerm == "kafka" {
			kafka = &report.Topics[i]
		}
	}
	if kafka == nil {
		t.Fatalf("kafka topic missing: %+v", report.Topics)
	}
	if kafka.WeightedFrequency <= 0 {
		t.Errorf("WeightedFrequency = %v, want > 0", kafka.WeightedFrequency)
	}
	if len(report.Recommendations) == 0 {
		t.Fatal("expected recommendations")
	}
}

func TestAnalyzeCompany_Canceled(t *testing.T) {
	svc := testService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.AnalyzeCompany(ctx, "acme", nil); err == nil {
		t.Fatal("expected context error")
	}
}

// ---------------------------------------------------------------------------
// AnalyzeCompanies
// ---------------------------------------------------------------------------

func TestAnalyzeCompanies_GroupsAndSortsByCompany(t *testing.T) {
	svc := testService(t, nil)
	day := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	reports, err := svc.AnalyzeCompanies(context.Background(), []types.ExperienceRecord{
		record("zenith", day, types.OutcomeUnknown, "kafka streams question"),
		record("acme", day, types.OutcomeUnknown, "redis caching question"),
		record("zenith", day.AddDate(0, 1, 0), types.OutcomeSuccess, "more kafka"),
		record("", day, types.OutcomeUnknown, "orphan record"),
	})
	if err != nil {
		t.Fatalf("AnalyzeCompanies: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("reports = %d, want 2", len(reports))
	}
	if reports[0].Company != "acme" || reports[1].Company != "zenith" {
		t.Errorf("order = [%s, %s], want [acme, zenith]", reports[0].Company, reports[1].Company)
	}
	if reports[0].DocumentCount != 1 || reports[1].DocumentCount != 2 {
		t.Errorf("document counts = (%d, %d), want (1, 2)",
			reports[0].DocumentCount, reports[1].DocumentCount)
	}
	// Grouping already partitions by company, so no mismatch skips inside runs.
	for _, r := range reports {
		if n := r.SkipReasons[SkipReasonCompanyMismatch]; n != 0 {
			t.Errorf("%s: unexpected mismatch skips %d", r.Company, n)
		}
	}
}

func TestAnalyzeCompanies_SurfacesOrphanRecords(t *testing.T) {
	metrics := common.NewInMemoryAnalyticsMetrics()
	logger := testutil.NewMockLogger()
	svc := testServiceWithLogger(t, metrics, logger)
	day := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	reports, err := svc.AnalyzeCompanies(context.Background(), []types.ExperienceRecord{
		record("acme", day, types.OutcomeUnknown, "redis caching question"),
		record("", day, types.OutcomeUnknown, "orphan record"),
		record("   ", day, types.OutcomeUnknown, "another orphan"),
	})
	if err != nil {
		t.Fatalf("AnalyzeCompanies: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("reports = %d, want 1", len(reports))
	}

	// Orphans belong to no per-company tally; they surface through the skip
	// metric and a warning instead.
	if n := reports[0].SkipReasons[SkipReasonMissingCompany]; n != 0 {
		t.Errorf("acme tally holds %d missing_company skips, want 0", n)
	}
	if got := metrics.GetSkipReasons()[SkipReasonMissingCompany]; got != 2 {
		t.Errorf("metrics skip[missing_company] = %d, want 2", got)
	}
	if !logger.HasMessage("warn", "records without a company dropped before grouping") {
		t.Error("expected a warning for dropped orphan records")
	}
}

func TestAnalyzeCompanies_EmptyInput(t *testing.T) {
	svc := testService(t, nil)
	reports, err := svc.AnalyzeCompanies(context.Background(), nil)
	if err != nil {
		t.Fatalf("AnalyzeCompanies: %v", err)
	}
	if len(reports) != 0 {
		t.Errorf("reports = %d, want 0", len(reports))
	}
}

func TestAnalyzeCompanies_Canceled(t *testing.T) {
	svc := testService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.AnalyzeCompanies(ctx, nil); err == nil {
		t.Fatal("expected context error")
	}
}

// ---------------------------------------------------------------------------
// Data quality
// ---------------------------------------------------------------------------

func TestAssessDataQuality_Levels(t *testing.T) {
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(n int) []types.NormalizedDocument {
		docs := make([]types.NormalizedDocument, n)
		for i := range docs {
			docs[i] = types.NormalizedDocument{Date: day, Outcome: types.OutcomeUnknown}
		}
		return docs
	}

	cases := []struct {
		n    int
		want types.DataQualityLevel
	}{
		{0, types.QualityInsufficient},
		{2, types.QualityInsufficient},
		{3, types.QualityLow},
		{9, types.QualityLow},
		{10, types.QualityModerate},
		{24, types.QualityModerate},
		{25, types.QualityHigh},
	}
	for _, tc := range cases {
		if got := assessDataQuality(mk(tc.n)).Level; got != tc.want {
			t.Errorf("n=%d: level = %v, want %v", tc.n, got, tc.want)
		}
	}
}

func TestAssessDataQuality_SpanAndCoverage(t *testing.T) {
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := []types.NormalizedDocument{
		{Date: day, Outcome: types.OutcomeSuccess},
		{Date: day.AddDate(0, 0, 30), Outcome: types.OutcomeFail},
		{Date: day.AddDate(0, 0, 90), Outcome: types.OutcomeUnknown},
		{Outcome: types.OutcomeUnknown}, // undated, ignored for span
	}

	q := assessDataQuality(docs)
	if q.SampleSize != 4 {
		t.Errorf("SampleSize = %d, want 4", q.SampleSize)
	}
	if q.TimeSpanDays != 90 {
		t.Errorf("TimeSpanDays = %d, want 90", q.TimeSpanDays)
	}
	if q.OutcomeCoverage != 0.5 {
		t.Errorf("OutcomeCoverage = %v, want 0.5", q.OutcomeCoverage)
	}
}

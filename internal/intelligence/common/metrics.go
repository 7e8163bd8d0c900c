package common

import (
	"context"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// ---------------------------------------------------------------------------
// Interfaces
// ---------------------------------------------------------------------------

// AnalyticsMetrics is the unified telemetry API for the analytics pipeline.
// Every stage (extraction, scoring, trend detection, company analysis)
// records through this interface so the backing implementation (Prometheus,
// in-memory, noop) can be swapped without touching pipeline code.
type AnalyticsMetrics interface {
	// RecordExtraction records one topic-extraction run.
	RecordExtraction(ctx context.Context, params *ExtractionMetricParams)

	// RecordCompanyAnalysis records one completed company analysis.
	RecordCompanyAnalysis(ctx context.Context, params *AnalysisMetricParams)

	// RecordSkippedRecord records one input record dropped during validation.
	RecordSkippedRecord(ctx context.Context, reason string)

	// RecordTrendDetection records the direction of one trend test.
	RecordTrendDetection(ctx context.Context, direction string, significant bool)

	// RecordPriorityAssignment records the priority level given to a topic.
	RecordPriorityAssignment(ctx context.Context, level string)

	// GetExtractionLatencyHistogram returns the extraction latency histogram
	// for SLO monitoring.
	GetExtractionLatencyHistogram() LatencyHistogram

	// GetCurrentStats returns a point-in-time statistics snapshot.
	GetCurrentStats() *AnalyticsStats
}

// LatencyHistogram provides percentile-based latency observation.
type LatencyHistogram interface {
	// Observe records a latency sample in milliseconds.
	Observe(durationMs float64)

	// Percentile returns the value at the given percentile (0-100).
	Percentile(p float64) float64

	// Count returns the total number of observed samples.
	Count() int64

	// Sum returns the sum of all observed values.
	Sum() float64
}

// ---------------------------------------------------------------------------
// Parameter structs
// ---------------------------------------------------------------------------

// ExtractionMetricParams carries the data for one extraction run.
type ExtractionMetricParams struct {
	Company    string  `json:"company"`
	Documents  int     `json:"documents"`
	Topics     int     `json:"topics"`
	DurationMs float64 `json:"duration_ms"`
	Success    bool    `json:"success"`
}

// AnalysisMetricParams carries the data for one company analysis run.
type AnalysisMetricParams struct {
	Company         string  `json:"company"`
	TotalRecords    int     `json:"total_records"`
	AnalyzedRecords int     `json:"analyzed_records"`
	SkippedRecords  int     `json:"skipped_records"`
	Quality         string  `json:"quality"`
	DurationMs      float64 `json:"duration_ms"`
}

// AnalyticsStats is a point-in-time snapshot of pipeline metrics.
type AnalyticsStats struct {
	TotalExtractions       int64            `json:"total_extractions"`
	SuccessfulExtractions  int64            `json:"successful_extractions"`
	FailedExtractions      int64            `json:"failed_extractions"`
	AvgExtractionLatencyMs float64          `json:"avg_extraction_latency_ms"`
	P50LatencyMs           float64          `json:"p50_latency_ms"`
	P95LatencyMs           float64          `json:"p95_latency_ms"`
	P99LatencyMs           float64          `json:"p99_latency_ms"`
	RecordsAnalyzed        int64            `json:"records_analyzed"`
	RecordsSkipped         int64            `json:"records_skipped"`
	SkipReasons            map[string]int64 `json:"skip_reasons"`
	TrendCounts            map[string]int64 `json:"trend_counts"`
	PriorityCounts         map[string]int64 `json:"priority_counts"`
}

// ---------------------------------------------------------------------------
// Prometheus implementation
// ---------------------------------------------------------------------------

const (
	defaultNamespace = "prepintel"
	metricsSubsystem = "analytics"
)

var defaultLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

type prometheusAnalyticsMetrics struct {
	extractionDuration  *prometheus.HistogramVec
	extractionsTotal    *prometheus.CounterVec
	topicsExtracted     *prometheus.CounterVec
	analysisDuration    *prometheus.HistogramVec
	recordsAnalyzed     *prometheus.CounterVec
	recordsSkipped      *prometheus.CounterVec
	trendDetections     *prometheus.CounterVec
	priorityAssignments *prometheus.CounterVec

	// in-memory tracking for GetCurrentStats / GetExtractionLatencyHistogram
	latencyHist    *latencyHistogram
	totalExt       atomic.Int64
	successExt     atomic.Int64
	failedExt      atomic.Int64
	analyzed       atomic.Int64
	skipped        atomic.Int64
	skipReasons    sync.Map // reason -> *atomic.Int64
	trendCounts    sync.Map // direction -> *atomic.Int64
	priorityCounts sync.Map // level -> *atomic.Int64
}

// NewPrometheusAnalyticsMetrics creates a Prometheus-backed metrics collector
// under the given namespace ("prepintel" when empty) and registers every
// metric with the supplied Registerer.
func NewPrometheusAnalyticsMetrics(namespace string, registerer prometheus.Registerer) (*prometheusAnalyticsMetrics, error) {
	if namespace == "" {
		namespace = defaultNamespace
	}
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &prometheusAnalyticsMetrics{
		latencyHist: newLatencyHistogram(),
	}

	m.extractionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: metricsSubsystem,
		Name:      "extraction_duration_milliseconds",
		Help:      "Histogram of topic extraction latency in milliseconds.",
		Buckets:   defaultLatencyBuckets,
	}, []string{"company"})

	m.extractionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: metricsSubsystem,
		Name:      "extractions_total",
		Help:      "Total number of topic extraction runs.",
	}, []string{"company", "status"})

	m.topicsExtracted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: metricsSubsystem,
		Name:      "topics_extracted_total",
		Help:      "Total number of topics produced by extraction runs.",
	}, []string{"company"})

	m.analysisDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: metricsSubsystem,
		Name:      "analysis_duration_milliseconds",
		Help:      "Histogram of end-to-end company analysis duration in milliseconds.",
		Buckets:   defaultLatencyBuckets,
	}, []string{"company", "quality"})

	m.recordsAnalyzed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: metricsSubsystem,
		Name:      "records_analyzed_total",
		Help:      "Total number of experience records accepted into analysis.",
	}, []string{"company"})

	m.recordsSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: metricsSubsystem,
		Name:      "records_skipped_total",
		Help:      "Total number of experience records skipped during validation.",
	}, []string{"reason"})

	m.trendDetections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: metricsSubsystem,
		Name:      "trend_detections_total",
		Help:      "Total number of trend tests by detected direction.",
	}, []string{"direction", "significant"})

	m.priorityAssignments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: metricsSubsystem,
		Name:      "priority_assignments_total",
		Help:      "Total number of topic priority assignments by level.",
	}, []string{"level"})

	collectors := []prometheus.Collector{
		m.extractionDuration,
		m.extractionsTotal,
		m.topicsExtracted,
		m.analysisDuration,
		m.recordsAnalyzed,
		m.recordsSkipped,
		m.trendDetections,
		m.priorityAssignments,
	}
	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *prometheusAnalyticsMetrics) RecordExtraction(_ context.Context, p *ExtractionMetricParams) {
	if p == nil {
		return
	}
	status := "success"
	if !p.Success {
		status = "failure"
	}

	m.extractionDuration.WithLabelValues(p.Company).Observe(p.DurationMs)
	m.extractionsTotal.WithLabelValues(p.Company, status).Inc()
	m.topicsExtracted.WithLabelValues(p.Company).Add(float64(p.Topics))

	m.latencyHist.Observe(p.DurationMs)
	m.totalExt.Add(1)
	if p.Success {
		m.successExt.Add(1)
	} else {
		m.failedExt.Add(1)
	}
}

func (m *prometheusAnalyticsMetrics) RecordCompanyAnalysis(_ context.Context, p *AnalysisMetricParams) {
	if p == nil {
		return
	}
	m.analysisDuration.WithLabelValues(p.Company, p.Quality).Observe(p.DurationMs)
	m.recordsAnalyzed.WithLabelValues(p.Company).Add(float64(p.AnalyzedRecords))
	m.analyzed.Add(int64(p.AnalyzedRecords))
	m.skipped.Add(int64(p.SkippedRecords))
}

func (m *prometheusAnalyticsMetrics) RecordSkippedRecord(_ context.Context, reason string) {
	m.recordsSkipped.WithLabelValues(reason).Inc()
	mapCounterAdd(&m.skipReasons, reason)
}

func (m *prometheusAnalyticsMetrics) RecordTrendDetection(_ context.Context, direction string, significant bool) {
	sig := "false"
	if significant {
		sig = "true"
	}
	m.trendDetections.WithLabelValues(direction, sig).Inc()
	mapCounterAdd(&m.trendCounts, direction)
}

func (m *prometheusAnalyticsMetrics) RecordPriorityAssignment(_ context.Context, level string) {
	m.priorityAssignments.WithLabelValues(level).Inc()
	mapCounterAdd(&m.priorityCounts, level)
}

func (m *prometheusAnalyticsMetrics) GetExtractionLatencyHistogram() LatencyHistogram {
	return m.latencyHist
}

func (m *prometheusAnalyticsMetrics) GetCurrentStats() *AnalyticsStats {
	total := m.totalExt.Load()

	var avgLatency float64
	if total > 0 {
		avgLatency = m.latencyHist.Sum() / float64(total)
	}

	return &AnalyticsStats{
		TotalExtractions:       total,
		SuccessfulExtractions:  m.successExt.Load(),
		FailedExtractions:      m.failedExt.Load(),
		AvgExtractionLatencyMs: avgLatency,
		P50LatencyMs:           m.latencyHist.Percentile(50),
		P95LatencyMs:           m.latencyHist.Percentile(95),
		P99LatencyMs:           m.latencyHist.Percentile(99),
		RecordsAnalyzed:        m.analyzed.Load(),
		RecordsSkipped:         m.skipped.Load(),
		SkipReasons:            mapCounterSnapshot(&m.skipReasons),
		TrendCounts:            mapCounterSnapshot(&m.trendCounts),
		PriorityCounts:         mapCounterSnapshot(&m.priorityCounts),
	}
}

// mapCounterAdd increments the atomic counter stored under key, creating it
// on first use.
func mapCounterAdd(m *sync.Map, key string) {
	v, _ := m.LoadOrStore(key, new(atomic.Int64))
	v.(*atomic.Int64).Add(1)
}

func mapCounterSnapshot(m *sync.Map) map[string]int64 {
	out := make(map[string]int64)
	m.Range(func(key, value any) bool {
		out[key.(string)] = value.(*atomic.Int64).Load()
		return true
	})
	return out
}

// ---------------------------------------------------------------------------
// Noop implementation
// ---------------------------------------------------------------------------

type noopAnalyticsMetrics struct{}

// NewNoopAnalyticsMetrics returns a no-op metrics implementation.
func NewNoopAnalyticsMetrics() *noopAnalyticsMetrics {
	return &noopAnalyticsMetrics{}
}

func (n *noopAnalyticsMetrics) RecordExtraction(context.Context, *ExtractionMetricParams)    {}
func (n *noopAnalyticsMetrics) RecordCompanyAnalysis(context.Context, *AnalysisMetricParams) {}
func (n *noopAnalyticsMetrics) RecordSkippedRecord(context.Context, string)                  {}
func (n *noopAnalyticsMetrics) RecordTrendDetection(context.Context, string, bool)           {}
func (n *noopAnalyticsMetrics) RecordPriorityAssignment(context.Context, string)             {}

func (n *noopAnalyticsMetrics) GetExtractionLatencyHistogram() LatencyHistogram {
	return newLatencyHistogram()
}

func (n *noopAnalyticsMetrics) GetCurrentStats() *AnalyticsStats {
	return &AnalyticsStats{
		SkipReasons:    map[string]int64{},
		TrendCounts:    map[string]int64{},
		PriorityCounts: map[string]int64{},
	}
}

// ---------------------------------------------------------------------------
// In-memory implementation (for testing)
// ---------------------------------------------------------------------------

type inMemoryAnalyticsMetrics struct {
	mu sync.Mutex

	extractions    []*ExtractionMetricParams
	analyses       []*AnalysisMetricParams
	skipReasons    map[string]int64
	trendCounts    map[string]int64
	priorityCounts map[string]int64
	latencyHist    *latencyHistogram
}

// NewInMemoryAnalyticsMetrics returns an in-memory metrics implementation
// suitable for unit tests.
func NewInMemoryAnalyticsMetrics() *inMemoryAnalyticsMetrics {
	return &inMemoryAnalyticsMetrics{
		skipReasons:    make(map[string]int64),
		trendCounts:    make(map[string]int64),
		priorityCounts: make(map[string]int64),
		latencyHist:    newLatencyHistogram(),
	}
}

func (m *inMemoryAnalyticsMetrics) RecordExtraction(_ context.Context, p *ExtractionMetricParams) {
	if p == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.extractions = append(m.extractions, &cp)
	m.latencyHist.observeUnlocked(p.DurationMs)
}

func (m *inMemoryAnalyticsMetrics) RecordCompanyAnalysis(_ context.Context, p *AnalysisMetricParams) {
	if p == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.analyses = append(m.analyses, &cp)
}

func (m *inMemoryAnalyticsMetrics) RecordSkippedRecord(_ context.Context, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skipReasons[reason]++
}

func (m *inMemoryAnalyticsMetrics) RecordTrendDetection(_ context.Context, direction string, _ bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trendCounts[direction]++
}

func (m *inMemoryAnalyticsMetrics) RecordPriorityAssignment(_ context.Context, level string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.priorityCounts[level]++
}

func (m *inMemoryAnalyticsMetrics) GetExtractionLatencyHistogram() LatencyHistogram {
	return m.latencyHist
}

func (m *inMemoryAnalyticsMetrics) GetCurrentStats() *AnalyticsStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := int64(len(m.extractions))
	var success, failed, analyzed, skipped int64
	var sumLatency float64
	for _, e := range m.extractions {
		if e.Success {
			success++
		} else {
			failed++
		}
		sumLatency += e.DurationMs
	}
	for _, a := range m.analyses {
		analyzed += int64(a.AnalyzedRecords)
		skipped += int64(a.SkippedRecords)
	}

	var avgLatency float64
	if total > 0 {
		avgLatency = sumLatency / float64(total)
	}

	return &AnalyticsStats{
		TotalExtractions:       total,
		SuccessfulExtractions:  success,
		FailedExtractions:      failed,
		AvgExtractionLatencyMs: avgLatency,
		P50LatencyMs:           m.latencyHist.Percentile(50),
		P95LatencyMs:           m.latencyHist.Percentile(95),
		P99LatencyMs:           m.latencyHist.Percentile(99),
		RecordsAnalyzed:        analyzed,
		RecordsSkipped:         skipped,
		SkipReasons:            copyCounts(m.skipReasons),
		TrendCounts:            copyCounts(m.trendCounts),
		PriorityCounts:         copyCounts(m.priorityCounts),
	}
}

// GetRecordedExtractions returns a copy of all recorded extraction params.
func (m *inMemoryAnalyticsMetrics) GetRecordedExtractions() []*ExtractionMetricParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ExtractionMetricParams, len(m.extractions))
	for i, p := range m.extractions {
		cp := *p
		out[i] = &cp
	}
	return out
}

// GetRecordedAnalyses returns a copy of all recorded analysis params.
func (m *inMemoryAnalyticsMetrics) GetRecordedAnalyses() []*AnalysisMetricParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*AnalysisMetricParams, len(m.analyses))
	for i, p := range m.analyses {
		cp := *p
		out[i] = &cp
	}
	return out
}

// GetSkipReasons returns a copy of the per-reason skip counts.
func (m *inMemoryAnalyticsMetrics) GetSkipReasons() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyCounts(m.skipReasons)
}

// GetTrendCounts returns a copy of the per-direction trend counts.
func (m *inMemoryAnalyticsMetrics) GetTrendCounts() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyCounts(m.trendCounts)
}

// GetPriorityCounts returns a copy of the per-level priority counts.
func (m *inMemoryAnalyticsMetrics) GetPriorityCounts() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyCounts(m.priorityCounts)
}

func copyCounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// ---------------------------------------------------------------------------
// latencyHistogram
// ---------------------------------------------------------------------------

type latencyHistogram struct {
	mu      sync.RWMutex
	samples []float64
	sum     float64
	sorted  bool
}

func newLatencyHistogram() *latencyHistogram {
	return &latencyHistogram{
		samples: make([]float64, 0, 1024),
	}
}

func (h *latencyHistogram) Observe(durationMs float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observeUnlocked(durationMs)
}

// observeUnlocked is called when the caller already holds the lock (the
// in-memory metrics lock at a higher level).
func (h *latencyHistogram) observeUnlocked(durationMs float64) {
	h.samples = append(h.samples, durationMs)
	h.sum += durationMs
	h.sorted = false
}

// Percentile returns the value at percentile p (0-100) using linear
// interpolation between the two nearest ranks.
func (h *latencyHistogram) Percentile(p float64) float64 {
	h.mu.RLock()
	n := len(h.samples)
	if n == 0 {
		h.mu.RUnlock()
		return 0
	}

	// A sorted view is required. Upgrade to a write lock to sort once.
	if !h.sorted {
		h.mu.RUnlock()
		h.mu.Lock()
		if !h.sorted {
			sort.Float64s(h.samples)
			h.sorted = true
		}
		h.mu.Unlock()
		h.mu.RLock()
	}

	defer h.mu.RUnlock()

	if p <= 0 {
		return h.samples[0]
	}
	if p >= 100 {
		return h.samples[n-1]
	}

	rank := (p / 100) * float64(n-1)
	lower := int(math.Floor(rank))
	upper := lower + 1
	if upper >= n {
		return h.samples[n-1]
	}
	frac := rank - float64(lower)
	return h.samples[lower] + frac*(h.samples[upper]-h.samples[lower])
}

func (h *latencyHistogram) Count() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return int64(len(h.samples))
}

func (h *latencyHistogram) Sum() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sum
}

// compile-time interface checks
var (
	_ AnalyticsMetrics = (*prometheusAnalyticsMetrics)(nil)
	_ AnalyticsMetrics = (*noopAnalyticsMetrics)(nil)
	_ AnalyticsMetrics = (*inMemoryAnalyticsMetrics)(nil)
	_ LatencyHistogram = (*latencyHistogram)(nil)
)

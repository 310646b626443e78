package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// IngestMetrics holds Prometheus metrics for the ingestion pipeline.
// A nil *IngestMetrics is valid and records nothing.
type IngestMetrics struct {
	Batches           *prometheus.CounterVec
	PostsIngested     prometheus.Counter
	EngagementSkipped prometheus.Counter
	MergeConflicts    prometheus.Counter
	ClassifyDuration  prometheus.Histogram
	BatchDuration     prometheus.Histogram
}

// NewIngestMetrics creates and registers ingestion metrics on the given registry.
func NewIngestMetrics(reg prometheus.Registerer) *IngestMetrics {
	m := &IngestMetrics{
		Batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "batches_total",
			Help:      "Total number of ingestion calls, by result.",
		}, []string{"result"}),
		PostsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "posts_total",
			Help:      "Total number of posts persisted.",
		}),
		EngagementSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "engagement_skipped_total",
			Help:      "Posts whose hashtags were not tallied because retweets or likes were not numeric.",
		}),
		MergeConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "merge_conflicts_total",
			Help:      "Hashtag aggregates that lost a concurrent write and were re-merged.",
		}),
		ClassifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "classify_duration_seconds",
			Help:      "Latency of a single classifier call.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of a whole ingestion call.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}

	reg.MustRegister(m.Batches, m.PostsIngested, m.EngagementSkipped, m.MergeConflicts, m.ClassifyDuration, m.BatchDuration)
	return m
}

func (m *IngestMetrics) ObserveClassify(d time.Duration) {
	if m == nil {
		return
	}
	m.ClassifyDuration.Observe(d.Seconds())
}

func (m *IngestMetrics) ObserveBatch(result string, posts, skipped int, d time.Duration) {
	if m == nil {
		return
	}
	m.Batches.WithLabelValues(result).Inc()
	m.PostsIngested.Add(float64(posts))
	m.EngagementSkipped.Add(float64(skipped))
	m.BatchDuration.Observe(d.Seconds())
}

func (m *IngestMetrics) AddMergeConflicts(n int) {
	if m == nil {
		return
	}
	m.MergeConflicts.Add(float64(n))
}

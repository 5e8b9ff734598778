package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	recordsProcessedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mathclub",
		Subsystem: "aggregation",
		Name:      "records_total",
		Help:      "Activity records seen by the aggregator, labeled by outcome.",
	}, []string{"outcome"})

	resolutionGapCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mathclub",
		Subsystem: "aggregation",
		Name:      "resolution_gaps_total",
		Help:      "Roster students with neither a self nor a parent account.",
	})

	unrecognizedTagCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mathclub",
		Subsystem: "aggregation",
		Name:      "unrecognized_tags_total",
		Help:      "Records whose declared type is in neither explicit set, labeled by tag.",
	}, []string{"tag"})

	aggregationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mathclub",
		Subsystem: "aggregation",
		Name:      "batch_duration_seconds",
		Help:      "Time spent fetching and aggregating one roster batch.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	})

	digestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mathclub",
		Subsystem: "digest",
		Name:      "emails_total",
		Help:      "Parent digest emails, labeled by result.",
	}, []string{"result"})
)

// maxTagLabels bounds the distinct values of the "tag" label. Tags seen
// after the limit is reached are counted under otherTagLabel.
const (
	maxTagLabels  = 25
	otherTagLabel = "other"
)

var unrecognizedTags = newTagLabeler(maxTagLabels)

// tagLabeler admits the first max distinct tags as label values
type tagLabeler struct {
	mu   sync.Mutex
	max  int
	seen map[string]bool
}

func newTagLabeler(max int) *tagLabeler {
	return &tagLabeler{max: max, seen: make(map[string]bool)}
}

func (l *tagLabeler) label(tag string) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.seen[tag] {
		return tag
	}
	if len(l.seen) >= l.max {
		return otherTagLabel
	}
	l.seen[tag] = true
	return tag
}

func init() {
	prometheus.MustRegister(recordsProcessedCounter, resolutionGapCounter, unrecognizedTagCounter, aggregationDuration, digestCounter)
}

// BatchStats is the subset of aggregation diagnostics exported as metrics
type BatchStats struct {
	Assigned         int
	Unassignable     int
	InvalidChildID   int
	ResolutionGaps   int
	UnrecognizedTags map[string]int
	Duration         time.Duration
}

// RecordBatch adds one aggregation batch to the counters
func RecordBatch(stats BatchStats) {
	recordsProcessedCounter.WithLabelValues("assigned").Add(float64(stats.Assigned))
	recordsProcessedCounter.WithLabelValues("unassignable").Add(float64(stats.Unassignable - stats.InvalidChildID))
	recordsProcessedCounter.WithLabelValues("invalid_child_id").Add(float64(stats.InvalidChildID))
	resolutionGapCounter.Add(float64(stats.ResolutionGaps))
	for tag, n := range stats.UnrecognizedTags {
		unrecognizedTagCounter.WithLabelValues(unrecognizedTags.label(tag)).Add(float64(n))
	}
	if stats.Duration > 0 {
		aggregationDuration.Observe(stats.Duration.Seconds())
	}
}

// RecordDigest counts one parent digest email by result ("sent", "skipped" or "failed")
func RecordDigest(result string) {
	digestCounter.WithLabelValues(result).Inc()
}

package observability

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Collector holds all Prometheus metrics for the board engine
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// Persistence metrics
	Saves        *prometheus.CounterVec
	SavesDropped prometheus.Counter
	SaveDuration prometheus.Histogram

	// History metrics
	Commits      prometheus.Counter
	HistoryMoves *prometheus.CounterVec
}

// NewCollector creates a new metrics collector with the given namespace.
// Each collector owns its registry, so tests can create as many as they like.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	saves := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_saves_total",
			Help:      "Total number of document saves by outcome",
		},
		[]string{"status"},
	)

	savesDropped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_saves_dropped_total",
			Help:      "Saves discarded because the save queue was full or closed",
		},
	)

	saveDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_save_duration_seconds",
			Help:      "Document save duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	commits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_commits_total",
			Help:      "Total number of history commits",
		},
	)

	historyMoves := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_moves_total",
			Help:      "Undo and redo operations that changed the cursor",
		},
		[]string{"direction"},
	)

	registry.MustRegister(
		saves,
		savesDropped,
		saveDuration,
		commits,
		historyMoves,
	)

	return &Collector{
		registry:     registry,
		Saves:        saves,
		SavesDropped: savesDropped,
		SaveDuration: saveDuration,
		Commits:      commits,
		HistoryMoves: historyMoves,
	}
}

// Registry returns the prometheus registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordSave records the outcome of one save attempt
func (c *Collector) RecordSave(status string, seconds float64) {
	c.Saves.WithLabelValues(status).Inc()
	c.SaveDuration.Observe(seconds)
}

// RecordDrop records a save that never reached the store
func (c *Collector) RecordDrop() {
	c.SavesDropped.Inc()
}

// RecordCommit records a history commit
func (c *Collector) RecordCommit() {
	c.Commits.Inc()
}

// RecordHistoryMove records an undo or redo
func (c *Collector) RecordHistoryMove(direction string) {
	c.HistoryMoves.WithLabelValues(direction).Inc()
}

// Sample is a flattened metric value used for plain-text reporting
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// Gather flattens counters and histogram counts into samples, sorted by name
func (c *Collector) Gather() ([]Sample, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return nil, err
	}

	var samples []Sample
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			samples = append(samples, Sample{
				Name:   family.GetName(),
				Labels: labelMap(metric.GetLabel()),
				Value:  metricValue(family.GetType(), metric),
			})
		}
	}

	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Name < samples[j].Name
	})
	return samples, nil
}

func labelMap(pairs []*dto.LabelPair) map[string]string {
	labels := make(map[string]string, len(pairs))
	for _, p := range pairs {
		labels[p.GetName()] = p.GetValue()
	}
	return labels
}

func metricValue(kind dto.MetricType, m *dto.Metric) float64 {
	switch kind {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	case dto.MetricType_HISTOGRAM:
		return float64(m.GetHistogram().GetSampleCount())
	default:
		return 0
	}
}
